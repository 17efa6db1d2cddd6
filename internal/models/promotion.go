package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Promotion statuses
const (
	PromotionStatusActive    = "active"
	PromotionStatusCancelled = "cancelled"
	PromotionStatusExpired   = "expired"
)

const PaymentStatusCompleted = "completed"

// Promotion durations as sent by clients.
const (
	Duration1Month  = "1 Month"
	Duration3Months = "3 Months"
	Duration6Months = "6 Months"
)

var durationMonths = map[string]int{
	Duration1Month:  1,
	Duration3Months: 3,
	Duration6Months: 6,
}

// Valid promotion transitions: from -> []to
var ValidPromotionTransitions = map[string][]string{
	PromotionStatusActive:    {PromotionStatusCancelled, PromotionStatusExpired},
	PromotionStatusCancelled: {},
	PromotionStatusExpired:   {},
}

func IsValidPromotionTransition(from, to string) bool {
	return containsStatus(ValidPromotionTransitions[from], to)
}

func IsValidDuration(duration string) bool {
	_, ok := durationMonths[duration]
	return ok
}

// EndTimeFor adds whole calendar months to start. Month-end overflow follows
// time.AddDate normalisation (Jan 31 + 1 month = Mar 3 or Mar 2).
func EndTimeFor(start time.Time, duration string) (time.Time, bool) {
	months, ok := durationMonths[duration]
	if !ok {
		return time.Time{}, false
	}
	return start.AddDate(0, months, 0), true
}

type Promotion struct {
	ID            uuid.UUID       `json:"id"`
	VendorID      uuid.UUID       `json:"vendor_id"`
	PackageID     string          `json:"package_id"`
	PackageName   string          `json:"package_name"`
	Price         decimal.Decimal `json:"price"`
	Duration      string          `json:"duration"`
	StartTime     time.Time       `json:"start_time"`
	EndTime       time.Time       `json:"end_time"`
	Status        string          `json:"status"`
	PaymentID     string          `json:"payment_id"`
	PaymentMethod string          `json:"payment_method"`
	PaymentStatus string          `json:"payment_status"`
	CancelledAt   *time.Time      `json:"cancelled_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// EffectiveStatus is the status callers must see: a persisted active
// promotion whose end time has passed is expired.
func (p *Promotion) EffectiveStatus(now time.Time) string {
	if p.Status == PromotionStatusActive && !p.EndTime.After(now) {
		return PromotionStatusExpired
	}
	return p.Status
}

func (p *Promotion) IsEffectivelyActive(now time.Time) bool {
	return p.EffectiveStatus(now) == PromotionStatusActive
}

// Projected returns a copy with Status replaced by the effective status.
func (p Promotion) Projected(now time.Time) Promotion {
	p.Status = p.EffectiveStatus(now)
	return p
}

func containsStatus(list []string, status string) bool {
	for _, s := range list {
		if s == status {
			return true
		}
	}
	return false
}
