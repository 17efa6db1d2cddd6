package repositories

import (
	"context"
	"time"

	"github.com/foodvlog/backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PromotionRepo struct {
	pool *pgxpool.Pool
}

func NewPromotionRepo(pool *pgxpool.Pool) *PromotionRepo {
	return &PromotionRepo{pool: pool}
}

const promotionColumns = `
	id, vendor_id, package_id, package_name, price, duration, start_time, end_time,
	status, payment_id, payment_method, payment_status, cancelled_at, created_at, updated_at`

func scanPromotion(row pgx.Row, p *models.Promotion) error {
	return row.Scan(&p.ID, &p.VendorID, &p.PackageID, &p.PackageName, &p.Price, &p.Duration,
		&p.StartTime, &p.EndTime, &p.Status, &p.PaymentID, &p.PaymentMethod, &p.PaymentStatus,
		&p.CancelledAt, &p.CreatedAt, &p.UpdatedAt)
}

// Create inserts a promotion. A second active promotion for the same vendor
// is rejected by the promotions_one_active_per_vendor index.
func (r *PromotionRepo) Create(ctx context.Context, p *models.Promotion) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO promotions (vendor_id, package_id, package_name, price, duration, start_time, end_time,
		                        status, payment_id, payment_method, payment_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at
	`, p.VendorID, p.PackageID, p.PackageName, p.Price, p.Duration, p.StartTime, p.EndTime,
		p.Status, p.PaymentID, p.PaymentMethod, p.PaymentStatus,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	return translate(err)
}

func (r *PromotionRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Promotion, error) {
	var p models.Promotion
	row := r.pool.QueryRow(ctx, `SELECT `+promotionColumns+` FROM promotions WHERE id = $1`, id)
	if err := scanPromotion(row, &p); err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

type PromotionFilter struct {
	VendorID *uuid.UUID
	Status   *string
	Limit    int
	Offset   int
}

func (r *PromotionRepo) List(ctx context.Context, f PromotionFilter) ([]models.Promotion, error) {
	qb := newQueryBuilder(`SELECT ` + promotionColumns + ` FROM promotions`)
	if f.VendorID != nil {
		qb.where("vendor_id = $%d", *f.VendorID)
	}
	if f.Status != nil {
		qb.where("status = $%d", *f.Status)
	}
	query, args := qb.page("ORDER BY created_at DESC", f.Limit, f.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var promotions []models.Promotion
	for rows.Next() {
		var p models.Promotion
		if err := scanPromotion(rows, &p); err != nil {
			return nil, err
		}
		promotions = append(promotions, p)
	}
	return promotions, rows.Err()
}

// Transition moves a promotion out of the expected status in one statement.
// ErrNotFound means the row was missing or no longer in status from.
func (r *PromotionRepo) Transition(ctx context.Context, id uuid.UUID, from, to string, at time.Time) (*models.Promotion, error) {
	var p models.Promotion
	row := r.pool.QueryRow(ctx, `
		UPDATE promotions
		SET status = $1,
		    cancelled_at = CASE WHEN $1 = 'cancelled' THEN $2::timestamptz ELSE cancelled_at END,
		    updated_at = $2
		WHERE id = $3 AND status = $4
		RETURNING `+promotionColumns, to, at, id, from)
	if err := scanPromotion(row, &p); err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

// ExpireStale persists lazy expiry for every active promotion past its end
// time and returns the affected vendor ids.
func (r *PromotionRepo) ExpireStale(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `
		UPDATE promotions SET status = 'expired', updated_at = $1
		WHERE status = 'active' AND end_time <= $1
		RETURNING vendor_id
	`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	seen := make(map[uuid.UUID]struct{})
	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return ids, rows.Err()
}

// VendorsWithActive returns vendor ids that own a persisted active promotion.
func (r *PromotionRepo) VendorsWithActive(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT vendor_id FROM promotions WHERE status = 'active'`)
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
