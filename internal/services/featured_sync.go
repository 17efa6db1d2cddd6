package services

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/foodvlog/backend/internal/metrics"
	"github.com/foodvlog/backend/internal/models"
	"github.com/foodvlog/backend/internal/repositories"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const reconcileConcurrency = 8

// FeaturedSync keeps the vendor featured flags a one-way projection of the
// promotion ledger.
type FeaturedSync struct {
	promotions PromotionStore
	vendors    VendorStore
	log        *zap.Logger
	now        func() time.Time
}

func NewFeaturedSync(promotions PromotionStore, vendors VendorStore, log *zap.Logger) *FeaturedSync {
	return &FeaturedSync{
		promotions: promotions,
		vendors:    vendors,
		log:        log,
		now:        time.Now,
	}
}

// Recompute derives the vendor's featured-state strictly from its
// persisted-active promotions and writes it.
func (f *FeaturedSync) Recompute(ctx context.Context, vendorID uuid.UUID) (models.VendorFeaturedState, error) {
	status := models.PromotionStatusActive
	active, err := f.promotions.List(ctx, repositories.PromotionFilter{
		VendorID: &vendorID,
		Status:   &status,
		Limit:    100,
	})
	if err != nil {
		metrics.FeaturedReconciled.WithLabelValues("failed").Inc()
		return models.VendorFeaturedState{}, fmt.Errorf("load active promotions: %w", err)
	}

	state := models.DeriveFeaturedState(vendorID, active, f.now())
	if err := f.vendors.UpdateFeaturedState(ctx, state); err != nil {
		metrics.FeaturedReconciled.WithLabelValues("failed").Inc()
		return state, fmt.Errorf("update featured state: %w", err)
	}

	metrics.FeaturedReconciled.WithLabelValues("ok").Inc()
	return state, nil
}

// syncAfterTransition is the best-effort call made after every ledger
// transition. Drift it leaves behind is repaired by ReconcileAll.
func (f *FeaturedSync) syncAfterTransition(ctx context.Context, vendorID uuid.UUID) {
	if _, err := f.Recompute(ctx, vendorID); err != nil {
		metrics.DerivedWriteFailures.WithLabelValues(metrics.DerivedFeaturedState).Inc()
		f.log.Warn("featured state sync failed",
			zap.String("vendor_id", vendorID.String()),
			zap.Error(err),
		)
	}
}

type ReconcileResult struct {
	Vendors int `json:"vendors"`
	Failed  int `json:"failed"`
}

// ReconcileAll recomputes every vendor that is flagged featured or owns a
// persisted-active promotion. Per-vendor failures are counted, not fatal.
func (f *FeaturedSync) ReconcileAll(ctx context.Context) (ReconcileResult, error) {
	flagged, err := f.vendors.FeaturedVendorIDs(ctx)
	if err != nil {
		return ReconcileResult{}, fmt.Errorf("list featured vendors: %w", err)
	}
	withActive, err := f.promotions.VendorsWithActive(ctx)
	if err != nil {
		return ReconcileResult{}, fmt.Errorf("list vendors with active promotions: %w", err)
	}

	ids := uniqueIDs(flagged, withActive)
	var failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(reconcileConcurrency)
	for _, id := range ids {
		g.Go(func() error {
			if _, err := f.Recompute(gctx, id); err != nil {
				failed.Add(1)
				f.log.Warn("reconcile vendor failed", zap.String("vendor_id", id.String()), zap.Error(err))
			}
			return nil
		})
	}
	_ = g.Wait()

	return ReconcileResult{Vendors: len(ids), Failed: int(failed.Load())}, nil
}

// ExpireStale persists lazy expiry in bulk and resyncs the touched vendors.
func (f *FeaturedSync) ExpireStale(ctx context.Context) (int, error) {
	vendorIDs, err := f.promotions.ExpireStale(ctx, f.now())
	if err != nil {
		return 0, fmt.Errorf("expire stale promotions: %w", err)
	}
	for _, id := range vendorIDs {
		metrics.PromotionTransitions.WithLabelValues(models.PromotionStatusExpired).Inc()
		f.syncAfterTransition(ctx, id)
	}
	return len(vendorIDs), nil
}

func uniqueIDs(lists ...[]uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{})
	var out []uuid.UUID
	for _, list := range lists {
		for _, id := range list {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}
