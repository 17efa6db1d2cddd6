package models

import (
	"time"

	"github.com/google/uuid"
)

// VendorFeaturedState mirrors the vendor's current promotion. The ledger is
// the source of truth; these fields are a projection of it.
type VendorFeaturedState struct {
	VendorID      uuid.UUID  `json:"vendor_id"`
	IsFeatured    bool       `json:"is_featured"`
	PromotionTier *string    `json:"promotion_tier,omitempty"`
	FeaturedUntil *time.Time `json:"featured_until,omitempty"`
}

// FeaturedVendor is the public listing row for featured vendors.
type FeaturedVendor struct {
	ID            uuid.UUID  `json:"id"`
	BusinessName  string     `json:"business_name"`
	PromotionTier *string    `json:"promotion_tier,omitempty"`
	FeaturedUntil *time.Time `json:"featured_until,omitempty"`
}

// DeriveFeaturedState projects the ledger onto the vendor. The effectively
// active promotion with the latest end time wins.
func DeriveFeaturedState(vendorID uuid.UUID, promotions []Promotion, now time.Time) VendorFeaturedState {
	state := VendorFeaturedState{VendorID: vendorID}

	var current *Promotion
	for i := range promotions {
		p := &promotions[i]
		if p.VendorID != vendorID || !p.IsEffectivelyActive(now) {
			continue
		}
		if current == nil || p.EndTime.After(current.EndTime) {
			current = p
		}
	}
	if current == nil {
		return state
	}

	tier := current.PackageID
	until := current.EndTime
	state.IsFeatured = true
	state.PromotionTier = &tier
	state.FeaturedUntil = &until
	return state
}

// Equal reports whether two states carry the same flags.
func (s VendorFeaturedState) Equal(o VendorFeaturedState) bool {
	if s.VendorID != o.VendorID || s.IsFeatured != o.IsFeatured {
		return false
	}
	if (s.PromotionTier == nil) != (o.PromotionTier == nil) {
		return false
	}
	if s.PromotionTier != nil && *s.PromotionTier != *o.PromotionTier {
		return false
	}
	if (s.FeaturedUntil == nil) != (o.FeaturedUntil == nil) {
		return false
	}
	return s.FeaturedUntil == nil || s.FeaturedUntil.Equal(*o.FeaturedUntil)
}
