package repositories

import (
	"context"
	"time"

	"github.com/foodvlog/backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// VendorRepo touches only the featured-state columns of vendors; the rest of
// the vendor record belongs to the vendor profile endpoints.
type VendorRepo struct {
	pool *pgxpool.Pool
}

func NewVendorRepo(pool *pgxpool.Pool) *VendorRepo {
	return &VendorRepo{pool: pool}
}

func (r *VendorRepo) GetFeaturedState(ctx context.Context, vendorID uuid.UUID) (*models.VendorFeaturedState, error) {
	s := models.VendorFeaturedState{VendorID: vendorID}
	err := r.pool.QueryRow(ctx, `
		SELECT is_featured, promotion_tier, featured_until FROM vendors WHERE id = $1
	`, vendorID).Scan(&s.IsFeatured, &s.PromotionTier, &s.FeaturedUntil)
	if err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

func (r *VendorRepo) UpdateFeaturedState(ctx context.Context, s models.VendorFeaturedState) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE vendors SET is_featured = $1, promotion_tier = $2, featured_until = $3, updated_at = now()
		WHERE id = $4
	`, s.IsFeatured, s.PromotionTier, s.FeaturedUntil, s.VendorID)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// FeaturedVendorIDs returns vendors currently flagged as featured, stale or not.
func (r *VendorRepo) FeaturedVendorIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM vendors WHERE is_featured`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListFeatured returns vendors whose featured window is still open at now.
func (r *VendorRepo) ListFeatured(ctx context.Context, now time.Time, limit int) ([]models.FeaturedVendor, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, business_name, promotion_tier, featured_until
		FROM vendors
		WHERE is_featured AND featured_until > $1
		ORDER BY featured_until DESC
		LIMIT $2
	`, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vendors []models.FeaturedVendor
	for rows.Next() {
		var v models.FeaturedVendor
		if err := rows.Scan(&v.ID, &v.BusinessName, &v.PromotionTier, &v.FeaturedUntil); err != nil {
			return nil, err
		}
		vendors = append(vendors, v)
	}
	return vendors, rows.Err()
}
