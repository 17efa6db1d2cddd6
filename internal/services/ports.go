package services

import (
	"context"
	"time"

	"github.com/foodvlog/backend/internal/models"
	"github.com/foodvlog/backend/internal/repositories"
	"github.com/google/uuid"
)

// PromotionStore is the ledger's view of the persistence gateway.
type PromotionStore interface {
	Create(ctx context.Context, p *models.Promotion) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Promotion, error)
	List(ctx context.Context, f repositories.PromotionFilter) ([]models.Promotion, error)
	Transition(ctx context.Context, id uuid.UUID, from, to string, at time.Time) (*models.Promotion, error)
	ExpireStale(ctx context.Context, now time.Time) ([]uuid.UUID, error)
	VendorsWithActive(ctx context.Context) ([]uuid.UUID, error)
}

// VendorStore reads and writes the vendor featured-state projection.
type VendorStore interface {
	GetFeaturedState(ctx context.Context, vendorID uuid.UUID) (*models.VendorFeaturedState, error)
	UpdateFeaturedState(ctx context.Context, s models.VendorFeaturedState) error
	FeaturedVendorIDs(ctx context.Context) ([]uuid.UUID, error)
	ListFeatured(ctx context.Context, now time.Time, limit int) ([]models.FeaturedVendor, error)
}

// PostStore is the moderation queue's view of the persistence gateway.
type PostStore interface {
	Create(ctx context.Context, p *models.SponsoredPost) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.SponsoredPost, error)
	ApplyReview(ctx context.Context, id uuid.UUID, rv models.PostReview) (*models.SponsoredPost, error)
	ListWithNames(ctx context.Context, f repositories.PostFilter) ([]models.SponsoredPostWithNames, error)
}

type AuditLogger interface {
	Log(ctx context.Context, entry models.AuditLog) error
	GetByEntity(ctx context.Context, entityType string, entityID uuid.UUID, limit, offset int) ([]models.AuditLog, error)
}

// Uploader stores a blob and returns a stable public URL for it.
type Uploader interface {
	Upload(ctx context.Context, path, contentType string, data []byte) (string, error)
}
