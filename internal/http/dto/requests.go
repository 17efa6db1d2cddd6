package dto

import "github.com/shopspring/decimal"

// Promotions

type PurchasePromotionRequest struct {
	PackageID     string          `json:"package_id"`
	PackageName   string          `json:"package_name"`
	Price         decimal.Decimal `json:"price"`
	Duration      string          `json:"duration"` // "1 Month" / "3 Months" / "6 Months"
	PaymentMethod string          `json:"payment_method,omitempty"`
}

// Sponsored posts

// SubmitSponsoredPostRequest is accepted as JSON or as multipart form data;
// the multipart variant may carry a "screenshot" file part.
type SubmitSponsoredPostRequest struct {
	VendorID      string  `json:"vendor_id" form:"vendor_id"`
	Title         string  `json:"title" form:"title"`
	Description   *string `json:"description,omitempty" form:"description"`
	URL           string  `json:"url" form:"url"`
	ScreenshotURL *string `json:"screenshot_url,omitempty" form:"screenshot_url"`
	Platform      string  `json:"platform" form:"platform"`
}

type ReviewSponsoredPostRequest struct {
	Status       string           `json:"status"` // approved / rejected
	AdminNotes   *string          `json:"admin_notes,omitempty"`
	PayoutAmount *decimal.Decimal `json:"payout_amount,omitempty"`
}
