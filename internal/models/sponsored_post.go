package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Sponsored post statuses
const (
	PostStatusPending  = "pending"
	PostStatusApproved = "approved"
	PostStatusRejected = "rejected"
)

// Valid sponsored post transitions: from -> []to
var ValidPostTransitions = map[string][]string{
	PostStatusPending:  {PostStatusApproved, PostStatusRejected},
	PostStatusApproved: {},
	PostStatusRejected: {},
}

func IsValidPostTransition(from, to string) bool {
	return containsStatus(ValidPostTransitions[from], to)
}

// IsReviewDecision reports whether d is a status an admin may decide.
func IsReviewDecision(d string) bool {
	return d == PostStatusApproved || d == PostStatusRejected
}

type SponsoredPost struct {
	ID            uuid.UUID        `json:"id"`
	VloggerID     uuid.UUID        `json:"vlogger_id"`
	VendorID      uuid.UUID        `json:"vendor_id"`
	Title         string           `json:"title"`
	Description   *string          `json:"description,omitempty"`
	URL           string           `json:"url"`
	ScreenshotURL *string          `json:"screenshot_url,omitempty"`
	Platform      string           `json:"platform"`
	Status        string           `json:"status"`
	AdminNotes    *string          `json:"admin_notes,omitempty"`
	PayoutAmount  *decimal.Decimal `json:"payout_amount,omitempty"`
	SubmittedAt   time.Time        `json:"submitted_at"`
	ReviewedAt    *time.Time       `json:"reviewed_at,omitempty"`
	ReviewedBy    *uuid.UUID       `json:"reviewed_by,omitempty"`
}

// SponsoredPostWithNames embeds SponsoredPost and adds display names to avoid N+1 queries.
type SponsoredPostWithNames struct {
	SponsoredPost
	VendorName  *string `json:"vendor_name,omitempty"`
	VloggerName *string `json:"vlogger_name,omitempty"`
}

// PostReview is the patch applied by a single review transition.
type PostReview struct {
	Status       string
	AdminNotes   *string
	PayoutAmount *decimal.Decimal
	ReviewedAt   time.Time
	ReviewedBy   uuid.UUID
}
