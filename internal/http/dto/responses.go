package dto

import "github.com/foodvlog/backend/internal/models"

type ErrorResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

type PackagesResponse struct {
	Success  bool                      `json:"success"`
	Packages []models.PromotionPackage `json:"packages"`
}

type FeaturedVendorsResponse struct {
	Success bool                    `json:"success"`
	Vendors []models.FeaturedVendor `json:"vendors"`
}

type PurchaseResponse struct {
	Success   bool              `json:"success"`
	Message   string            `json:"message"`
	Promotion *models.Promotion `json:"promotion"`
	PaymentID string            `json:"payment_id"`
}

type PromotionResponse struct {
	Success   bool              `json:"success"`
	Message   string            `json:"message,omitempty"`
	Promotion *models.Promotion `json:"promotion"`
}

type PromotionsResponse struct {
	Success    bool               `json:"success"`
	Promotions []models.Promotion `json:"promotions"`
}

type HistoryResponse struct {
	Success bool              `json:"success"`
	History []models.AuditLog `json:"history"`
}

type PostResponse struct {
	Success bool                  `json:"success"`
	Message string                `json:"message,omitempty"`
	Post    *models.SponsoredPost `json:"post"`
}

type PostsResponse struct {
	Success bool                            `json:"success"`
	Posts   []models.SponsoredPostWithNames `json:"posts"`
}
