package repositories

import (
	"context"

	"github.com/foodvlog/backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SponsoredPostRepo struct {
	pool *pgxpool.Pool
}

func NewSponsoredPostRepo(pool *pgxpool.Pool) *SponsoredPostRepo {
	return &SponsoredPostRepo{pool: pool}
}

const postColumns = `
	p.id, p.vlogger_id, p.vendor_id, p.title, p.description, p.url, p.screenshot_url, p.platform,
	p.status, p.admin_notes, p.payout_amount, p.submitted_at, p.reviewed_at, p.reviewed_by`

func scanPost(row pgx.Row, p *models.SponsoredPost, extra ...any) error {
	dest := []any{&p.ID, &p.VloggerID, &p.VendorID, &p.Title, &p.Description, &p.URL, &p.ScreenshotURL,
		&p.Platform, &p.Status, &p.AdminNotes, &p.PayoutAmount, &p.SubmittedAt, &p.ReviewedAt, &p.ReviewedBy}
	return row.Scan(append(dest, extra...)...)
}

func (r *SponsoredPostRepo) Create(ctx context.Context, p *models.SponsoredPost) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO sponsored_posts (vlogger_id, vendor_id, title, description, url, screenshot_url, platform, status, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`, p.VloggerID, p.VendorID, p.Title, p.Description, p.URL, p.ScreenshotURL, p.Platform, p.Status, p.SubmittedAt,
	).Scan(&p.ID)
	return translate(err)
}

func (r *SponsoredPostRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.SponsoredPost, error) {
	var p models.SponsoredPost
	row := r.pool.QueryRow(ctx, `SELECT `+postColumns+` FROM sponsored_posts p WHERE p.id = $1`, id)
	if err := scanPost(row, &p); err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

// ApplyReview writes the review patch only while the post is still pending.
// ErrNotFound means the post was missing or already reviewed.
func (r *SponsoredPostRepo) ApplyReview(ctx context.Context, id uuid.UUID, rv models.PostReview) (*models.SponsoredPost, error) {
	var p models.SponsoredPost
	row := r.pool.QueryRow(ctx, `
		UPDATE sponsored_posts p
		SET status = $1, admin_notes = $2, payout_amount = $3, reviewed_at = $4, reviewed_by = $5
		WHERE p.id = $6 AND p.status = 'pending'
		RETURNING `+postColumns,
		rv.Status, rv.AdminNotes, rv.PayoutAmount, rv.ReviewedAt, rv.ReviewedBy, id)
	if err := scanPost(row, &p); err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

type PostFilter struct {
	VloggerID *uuid.UUID
	VendorID  *uuid.UUID
	Status    *string
	Limit     int
	Offset    int
}

func (r *SponsoredPostRepo) ListWithNames(ctx context.Context, f PostFilter) ([]models.SponsoredPostWithNames, error) {
	qb := newQueryBuilder(`
		SELECT ` + postColumns + `, v.business_name, vl.display_name
		FROM sponsored_posts p
		LEFT JOIN vendors v ON v.id = p.vendor_id
		LEFT JOIN vloggers vl ON vl.id = p.vlogger_id`)
	if f.VloggerID != nil {
		qb.where("p.vlogger_id = $%d", *f.VloggerID)
	}
	if f.VendorID != nil {
		qb.where("p.vendor_id = $%d", *f.VendorID)
	}
	if f.Status != nil {
		qb.where("p.status = $%d", *f.Status)
	}
	query, args := qb.page("ORDER BY p.submitted_at DESC", f.Limit, f.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []models.SponsoredPostWithNames
	for rows.Next() {
		var p models.SponsoredPostWithNames
		if err := scanPost(rows, &p.SponsoredPost, &p.VendorName, &p.VloggerName); err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}
