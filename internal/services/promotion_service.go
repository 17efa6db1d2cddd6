package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/foodvlog/backend/internal/events"
	"github.com/foodvlog/backend/internal/metrics"
	"github.com/foodvlog/backend/internal/models"
	"github.com/foodvlog/backend/internal/rbac"
	"github.com/foodvlog/backend/internal/repositories"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const defaultPaymentMethod = "card"

// PromotionService is the promotion ledger. It is the only writer of
// promotions and of the vendor featured-state derived from them.
//
// The one-active-promotion rule is checked by reading before insert. Two
// concurrent purchases for one vendor can both pass that check; the partial
// unique index on promotions(vendor_id) WHERE status = 'active' rejects the
// second insert, which surfaces as a conflict.
type PromotionService struct {
	promotions PromotionStore
	vendors    VendorStore
	featured   *FeaturedSync
	audit      AuditLogger
	caps       capabilities
	rec        recorder
	log        *zap.Logger
	now        func() time.Time
}

func NewPromotionService(
	promotions PromotionStore,
	vendors VendorStore,
	featured *FeaturedSync,
	audit AuditLogger,
	publisher events.Publisher,
	checker CapabilityChecker,
	log *zap.Logger,
) *PromotionService {
	return &PromotionService{
		promotions: promotions,
		vendors:    vendors,
		featured:   featured,
		audit:      audit,
		caps:       capabilities{checker: checker},
		rec:        recorder{audit: audit, publisher: publisher, log: log},
		log:        log,
		now:        time.Now,
	}
}

type PurchaseInput struct {
	PackageID     string
	PackageName   string
	Price         decimal.Decimal
	Duration      string
	PaymentMethod string
}

type PurchaseResult struct {
	Promotion *models.Promotion `json:"promotion"`
	PaymentID string            `json:"payment_id"`
}

func (s *PromotionService) ListPackages() []models.PromotionPackage {
	return models.PromotionPackages()
}

func (s *PromotionService) Purchase(ctx context.Context, actor Actor, in PurchaseInput) (*PurchaseResult, error) {
	if err := s.caps.require(actor, rbac.PermPurchasePromotion); err != nil {
		return nil, err
	}

	in.PackageID = strings.TrimSpace(in.PackageID)
	in.PackageName = strings.TrimSpace(in.PackageName)
	in.PaymentMethod = strings.TrimSpace(in.PaymentMethod)
	if in.PackageID == "" || in.PackageName == "" {
		return nil, invalidArgument("package_id and package_name are required")
	}
	if !in.Price.IsPositive() {
		return nil, invalidArgument("price must be greater than zero")
	}
	if in.PaymentMethod == "" {
		in.PaymentMethod = defaultPaymentMethod
	}

	if !models.IsValidDuration(in.Duration) {
		return nil, invalidArgument("duration must be one of %q, %q, %q",
			models.Duration1Month, models.Duration3Months, models.Duration6Months)
	}
	now := s.now()
	endTime, _ := models.EndTimeFor(now, in.Duration)

	vendorID := actor.ID
	current, err := s.persistedActive(ctx, vendorID)
	if err != nil {
		return nil, dependencyFailure("failed to load current promotions", err)
	}
	expired := false
	for i := range current {
		p := &current[i]
		if p.IsEffectivelyActive(now) {
			return nil, conflict("vendor already has an active promotion")
		}
		// Stale active row: persist the expiry so the unique index frees up.
		if err := s.expire(ctx, p, now); err != nil {
			if expired {
				s.featured.syncAfterTransition(ctx, vendorID)
			}
			return nil, dependencyFailure("failed to expire stale promotion", err)
		}
		expired = true
	}

	// Payment processing is simulated: every purchase settles immediately.
	paymentID := "pay_" + uuid.NewString()
	promo := &models.Promotion{
		VendorID:      vendorID,
		PackageID:     in.PackageID,
		PackageName:   in.PackageName,
		Price:         in.Price,
		Duration:      in.Duration,
		StartTime:     now,
		EndTime:       endTime,
		Status:        models.PromotionStatusActive,
		PaymentID:     paymentID,
		PaymentMethod: in.PaymentMethod,
		PaymentStatus: models.PaymentStatusCompleted,
	}
	if err := s.promotions.Create(ctx, promo); err != nil {
		// The ledger already moved if a stale row was expired above.
		if expired {
			s.featured.syncAfterTransition(ctx, vendorID)
		}
		if errors.Is(err, repositories.ErrUniqueViolation) {
			return nil, conflict("vendor already has an active promotion")
		}
		return nil, dependencyFailure("failed to create promotion", err)
	}

	metrics.PromotionsPurchased.WithLabelValues(promo.PackageID).Inc()
	s.log.Info("promotion purchased",
		zap.String("promotion_id", promo.ID.String()),
		zap.String("vendor_id", vendorID.String()),
		zap.String("package_id", promo.PackageID),
		zap.Time("end_time", promo.EndTime),
	)

	s.featured.syncAfterTransition(ctx, vendorID)
	s.rec.record(ctx, transitionRecord{
		Actor:      &actor,
		EntityType: "promotion",
		EntityID:   promo.ID,
		To:         models.PromotionStatusActive,
		EventType:  events.EventPromotionStatusChanged,
		Payload: map[string]any{
			"vendor_id":  vendorID.String(),
			"package_id": promo.PackageID,
			"end_time":   promo.EndTime,
		},
	})

	return &PurchaseResult{Promotion: promo, PaymentID: paymentID}, nil
}

func (s *PromotionService) Cancel(ctx context.Context, actor Actor, promotionID uuid.UUID) (*models.Promotion, error) {
	if err := s.caps.require(actor, rbac.PermCancelPromotion); err != nil {
		return nil, err
	}

	promo, err := s.promotions.GetByID(ctx, promotionID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, notFound("promotion not found")
		}
		return nil, dependencyFailure("failed to load promotion", err)
	}
	// Someone else's promotion is reported as missing.
	if promo.VendorID != actor.ID {
		return nil, notFound("promotion not found")
	}

	now := s.now()
	if promo.EffectiveStatus(now) == models.PromotionStatusExpired {
		if promo.Status == models.PromotionStatusActive {
			if err := s.expire(ctx, promo, now); err != nil {
				s.log.Warn("failed to persist lazy expiry", zap.String("promotion_id", promo.ID.String()), zap.Error(err))
			} else {
				s.featured.syncAfterTransition(ctx, promo.VendorID)
			}
		}
		return nil, conflict("promotion has already expired")
	}
	if !models.IsValidPromotionTransition(promo.Status, models.PromotionStatusCancelled) {
		return nil, conflict("promotion is already %s", promo.Status)
	}

	updated, err := s.promotions.Transition(ctx, promo.ID, models.PromotionStatusActive, models.PromotionStatusCancelled, now)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, conflict("promotion is no longer active")
		}
		return nil, dependencyFailure("failed to cancel promotion", err)
	}

	metrics.PromotionTransitions.WithLabelValues(models.PromotionStatusCancelled).Inc()
	s.log.Info("promotion cancelled",
		zap.String("promotion_id", updated.ID.String()),
		zap.String("vendor_id", updated.VendorID.String()),
	)

	s.featured.syncAfterTransition(ctx, updated.VendorID)
	s.rec.record(ctx, transitionRecord{
		Actor:      &actor,
		EntityType: "promotion",
		EntityID:   updated.ID,
		From:       models.PromotionStatusActive,
		To:         models.PromotionStatusCancelled,
		EventType:  events.EventPromotionStatusChanged,
		Payload:    map[string]any{"vendor_id": updated.VendorID.String()},
	})

	return updated, nil
}

// ListActive returns the vendor's promotions that are active right now.
func (s *PromotionService) ListActive(ctx context.Context, actor Actor) ([]models.Promotion, error) {
	if err := s.caps.require(actor, rbac.PermViewPromotions); err != nil {
		return nil, err
	}

	now := s.now()
	current, err := s.persistedActive(ctx, actor.ID)
	if err != nil {
		return nil, dependencyFailure("failed to load promotions", err)
	}

	active := make([]models.Promotion, 0, len(current))
	for _, p := range current {
		if p.IsEffectivelyActive(now) {
			active = append(active, p)
		}
	}
	return active, nil
}

// ListAll returns the vendor's promotion history with effective statuses.
func (s *PromotionService) ListAll(ctx context.Context, actor Actor, limit, offset int) ([]models.Promotion, error) {
	if err := s.caps.require(actor, rbac.PermViewPromotions); err != nil {
		return nil, err
	}

	vendorID := actor.ID
	all, err := s.promotions.List(ctx, repositories.PromotionFilter{
		VendorID: &vendorID,
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		return nil, dependencyFailure("failed to load promotions", err)
	}

	now := s.now()
	projected := make([]models.Promotion, 0, len(all))
	for _, p := range all {
		projected = append(projected, p.Projected(now))
	}
	return projected, nil
}

// History returns the audit trail of a promotion to its vendor or an admin.
func (s *PromotionService) History(ctx context.Context, actor Actor, promotionID uuid.UUID) ([]models.AuditLog, error) {
	if err := s.caps.require(actor, rbac.PermViewPromotions); err != nil {
		return nil, err
	}

	promo, err := s.promotions.GetByID(ctx, promotionID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, notFound("promotion not found")
		}
		return nil, dependencyFailure("failed to load promotion", err)
	}
	if promo.VendorID != actor.ID && !s.caps.has(actor, rbac.PermViewAnyPromotion) {
		return nil, notFound("promotion not found")
	}

	logs, err := s.audit.GetByEntity(ctx, "promotion", promotionID, 100, 0)
	if err != nil {
		return nil, dependencyFailure("failed to load promotion history", err)
	}
	return logs, nil
}

// ListFeaturedVendors is public. Vendors whose featured window closed but
// whose flag was not yet reset are filtered out at read time.
func (s *PromotionService) ListFeaturedVendors(ctx context.Context, limit int) ([]models.FeaturedVendor, error) {
	vendors, err := s.vendors.ListFeatured(ctx, s.now(), limit)
	if err != nil {
		return nil, dependencyFailure("failed to load featured vendors", err)
	}
	return vendors, nil
}

func (s *PromotionService) persistedActive(ctx context.Context, vendorID uuid.UUID) ([]models.Promotion, error) {
	status := models.PromotionStatusActive
	return s.promotions.List(ctx, repositories.PromotionFilter{
		VendorID: &vendorID,
		Status:   &status,
		Limit:    100,
	})
}

// expire persists the lazy expiry of a promotion whose end time passed. A
// row that already left active is not an error.
func (s *PromotionService) expire(ctx context.Context, p *models.Promotion, now time.Time) error {
	if !models.IsValidPromotionTransition(p.Status, models.PromotionStatusExpired) {
		return nil
	}
	_, err := s.promotions.Transition(ctx, p.ID, models.PromotionStatusActive, models.PromotionStatusExpired, now)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	metrics.PromotionTransitions.WithLabelValues(models.PromotionStatusExpired).Inc()
	s.rec.record(ctx, transitionRecord{
		EntityType: "promotion",
		EntityID:   p.ID,
		From:       models.PromotionStatusActive,
		To:         models.PromotionStatusExpired,
		EventType:  events.EventPromotionStatusChanged,
		Payload:    map[string]any{"vendor_id": p.VendorID.String()},
	})
	return nil
}
