package rbac

// Role constants
const (
	RoleVendor  = "vendor"
	RoleVlogger = "vlogger"
	RoleAdmin   = "admin"
)

// Permission constants
const (
	PermPurchasePromotion = "purchase_promotion"
	PermCancelPromotion   = "cancel_promotion"
	PermViewPromotions    = "view_promotions"
	PermViewAnyPromotion  = "view_any_promotion"
	PermSubmitPost        = "submit_post"
	PermViewPosts         = "view_posts"
	PermViewAnyPost       = "view_any_post"
	PermReviewPost        = "review_post"
)

// RolePermissions defines what each role can do.
var RolePermissions = map[string][]string{
	RoleVendor: {
		PermPurchasePromotion, PermCancelPromotion, PermViewPromotions,
	},
	RoleVlogger: {
		PermSubmitPost, PermViewPosts,
	},
	RoleAdmin: {
		PermViewPromotions, PermViewAnyPromotion,
		PermViewPosts, PermViewAnyPost, PermReviewPost,
		// Admin CANNOT buy or cancel on behalf of a vendor, nor submit posts.
	},
}

// HasPermission checks if a role has a specific permission.
func HasPermission(role, permission string) bool {
	perms, ok := RolePermissions[role]
	if !ok {
		return false
	}
	for _, p := range perms {
		if p == permission {
			return true
		}
	}
	return false
}

func IsValidRole(role string) bool {
	_, ok := RolePermissions[role]
	return ok
}

// Policy adapts the static role table to an injectable checker.
type Policy struct{}

func (Policy) HasPermission(role, permission string) bool {
	return HasPermission(role, permission)
}
