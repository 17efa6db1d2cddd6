package models

import "github.com/shopspring/decimal"

type PromotionPackage struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Currency string          `json:"currency"`
	Duration string          `json:"duration"`
	Popular  bool            `json:"popular"`
	Features []string        `json:"features"`
}

// PromotionPackages returns a fresh copy of the fixed visibility catalog.
func PromotionPackages() []PromotionPackage {
	return []PromotionPackage{
		{
			ID:       "basic",
			Name:     "Basic",
			Price:    decimal.NewFromInt(2999),
			Currency: "INR",
			Duration: Duration1Month,
			Features: []string{
				"Featured badge on profile",
				"Listed in featured vendors",
			},
		},
		{
			ID:       "premium",
			Name:     "Premium",
			Price:    decimal.NewFromInt(7999),
			Currency: "INR",
			Duration: Duration3Months,
			Popular:  true,
			Features: []string{
				"Featured badge on profile",
				"Listed in featured vendors",
				"Priority placement in search",
				"Eligible for vlogger collaborations",
			},
		},
		{
			ID:       "ultimate",
			Name:     "Ultimate",
			Price:    decimal.NewFromInt(19999),
			Currency: "INR",
			Duration: Duration6Months,
			Features: []string{
				"Featured badge on profile",
				"Listed in featured vendors",
				"Top placement in search",
				"Eligible for vlogger collaborations",
				"Homepage spotlight",
			},
		},
	}
}
