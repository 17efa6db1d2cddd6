// Package memory is an in-process Persistence Gateway. It mirrors the
// Postgres constraints the workflow relies on (one active promotion per
// vendor, foreign keys, conditional transitions) and can inject failures
// per operation.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/foodvlog/backend/internal/models"
	"github.com/foodvlog/backend/internal/repositories"
	"github.com/google/uuid"
)

// Operation names accepted by FailOn.
const (
	OpPromotionCreate     = "promotion.create"
	OpPromotionGet        = "promotion.get"
	OpPromotionList       = "promotion.list"
	OpPromotionTransition = "promotion.transition"
	OpPromotionExpire     = "promotion.expire_stale"
	OpVendorUpdate        = "vendor.update_featured"
	OpVendorList          = "vendor.list_featured"
	OpPostCreate          = "post.create"
	OpPostGet             = "post.get"
	OpPostReview          = "post.review"
	OpPostList            = "post.list"
	OpAuditLog            = "audit.log"
)

type vendorRow struct {
	name  string
	state models.VendorFeaturedState
}

type promotionRow struct {
	seq uint64
	p   models.Promotion
}

type postRow struct {
	seq uint64
	p   models.SponsoredPost
}

type Store struct {
	mu sync.RWMutex

	vendors    map[uuid.UUID]*vendorRow
	vloggers   map[uuid.UUID]string
	promotions map[uuid.UUID]*promotionRow
	posts      map[uuid.UUID]*postRow
	audit      []models.AuditLog

	failures map[string]error
	sequence uint64
}

func NewStore() *Store {
	return &Store{
		vendors:    make(map[uuid.UUID]*vendorRow),
		vloggers:   make(map[uuid.UUID]string),
		promotions: make(map[uuid.UUID]*promotionRow),
		posts:      make(map[uuid.UUID]*postRow),
		failures:   make(map[string]error),
	}
}

// AddVendor registers a vendor and returns its id.
func (s *Store) AddVendor(name string) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New()
	s.vendors[id] = &vendorRow{name: name, state: models.VendorFeaturedState{VendorID: id}}
	return id
}

// AddVlogger registers a vlogger and returns its id.
func (s *Store) AddVlogger(name string) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New()
	s.vloggers[id] = name
	return id
}

// FailOn makes every later call of op return err. A nil err clears it.
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, op)
		return
	}
	s.failures[op] = err
}

// PutPromotion stores p as-is, bypassing constraints. For seeding state.
func (s *Store) PutPromotion(p models.Promotion) models.Promotion {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	s.promotions[p.ID] = &promotionRow{seq: s.next(), p: p}
	return p
}

// SetFeaturedState overwrites a vendor's flags, bypassing the ledger.
func (s *Store) SetFeaturedState(st models.VendorFeaturedState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.vendors[st.VendorID]; ok {
		v.state = st
	}
}

// AuditEntries returns a copy of the audit log in insertion order.
func (s *Store) AuditEntries() []models.AuditLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.AuditLog(nil), s.audit...)
}

func (s *Store) next() uint64 {
	s.sequence++
	return s.sequence
}

func (s *Store) fail(op string) error {
	return s.failures[op]
}

func (s *Store) Promotions() *PromotionStore { return &PromotionStore{s} }
func (s *Store) Vendors() *VendorStore { return &VendorStore{s} }
func (s *Store) Posts() *PostStore { return &PostStore{s} }
func (s *Store) Audit() *AuditStore { return &AuditStore{s} }

// Promotions

type PromotionStore struct{ s *Store }

func (r *PromotionStore) Create(ctx context.Context, p *models.Promotion) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(OpPromotionCreate); err != nil {
		return err
	}
	if _, ok := s.vendors[p.VendorID]; !ok {
		return repositories.ErrForeignKeyViolation
	}
	if p.Status == models.PromotionStatusActive {
		for _, row := range s.promotions {
			if row.p.VendorID == p.VendorID && row.p.Status == models.PromotionStatusActive {
				return repositories.ErrUniqueViolation
			}
		}
	}

	now := time.Now()
	p.ID = uuid.New()
	p.CreatedAt = now
	p.UpdatedAt = now
	s.promotions[p.ID] = &promotionRow{seq: s.next(), p: *p}
	return nil
}

func (r *PromotionStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Promotion, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.fail(OpPromotionGet); err != nil {
		return nil, err
	}
	row, ok := s.promotions[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	p := row.p
	return &p, nil
}

func (r *PromotionStore) List(ctx context.Context, f repositories.PromotionFilter) ([]models.Promotion, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.fail(OpPromotionList); err != nil {
		return nil, err
	}

	rows := make([]*promotionRow, 0, len(s.promotions))
	for _, row := range s.promotions {
		if f.VendorID != nil && row.p.VendorID != *f.VendorID {
			continue
		}
		if f.Status != nil && row.p.Status != *f.Status {
			continue
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq > rows[j].seq })

	lo, hi := pageBounds(len(rows), f.Limit, f.Offset)
	out := make([]models.Promotion, 0, hi-lo)
	for _, row := range rows[lo:hi] {
		out = append(out, row.p)
	}
	return out, nil
}

func (r *PromotionStore) Transition(ctx context.Context, id uuid.UUID, from, to string, at time.Time) (*models.Promotion, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(OpPromotionTransition); err != nil {
		return nil, err
	}
	row, ok := s.promotions[id]
	if !ok || row.p.Status != from {
		return nil, repositories.ErrNotFound
	}
	row.p.Status = to
	row.p.UpdatedAt = at
	if to == models.PromotionStatusCancelled {
		t := at
		row.p.CancelledAt = &t
	}
	p := row.p
	return &p, nil
}

func (r *PromotionStore) ExpireStale(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(OpPromotionExpire); err != nil {
		return nil, err
	}

	seen := make(map[uuid.UUID]struct{})
	var ids []uuid.UUID
	for _, row := range s.promotions {
		if row.p.Status != models.PromotionStatusActive || row.p.EndTime.After(now) {
			continue
		}
		row.p.Status = models.PromotionStatusExpired
		row.p.UpdatedAt = now
		if _, ok := seen[row.p.VendorID]; !ok {
			seen[row.p.VendorID] = struct{}{}
			ids = append(ids, row.p.VendorID)
		}
	}
	return ids, nil
}

func (r *PromotionStore) VendorsWithActive(ctx context.Context) ([]uuid.UUID, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[uuid.UUID]struct{})
	var ids []uuid.UUID
	for _, row := range s.promotions {
		if row.p.Status != models.PromotionStatusActive {
			continue
		}
		if _, ok := seen[row.p.VendorID]; !ok {
			seen[row.p.VendorID] = struct{}{}
			ids = append(ids, row.p.VendorID)
		}
	}
	return ids, nil
}

// Vendors

type VendorStore struct{ s *Store }

func (r *VendorStore) GetFeaturedState(ctx context.Context, vendorID uuid.UUID) (*models.VendorFeaturedState, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.vendors[vendorID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	st := v.state
	return &st, nil
}

func (r *VendorStore) UpdateFeaturedState(ctx context.Context, st models.VendorFeaturedState) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(OpVendorUpdate); err != nil {
		return err
	}
	v, ok := s.vendors[st.VendorID]
	if !ok {
		return repositories.ErrNotFound
	}
	v.state = st
	return nil
}

func (r *VendorStore) FeaturedVendorIDs(ctx context.Context) ([]uuid.UUID, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []uuid.UUID
	for id, v := range s.vendors {
		if v.state.IsFeatured {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (r *VendorStore) ListFeatured(ctx context.Context, now time.Time, limit int) ([]models.FeaturedVendor, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.fail(OpVendorList); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var out []models.FeaturedVendor
	for id, v := range s.vendors {
		st := v.state
		if !st.IsFeatured || st.FeaturedUntil == nil || !st.FeaturedUntil.After(now) {
			continue
		}
		out = append(out, models.FeaturedVendor{
			ID:            id,
			BusinessName:  v.name,
			PromotionTier: st.PromotionTier,
			FeaturedUntil: st.FeaturedUntil,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FeaturedUntil.After(*out[j].FeaturedUntil) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Sponsored posts

type PostStore struct{ s *Store }

func (r *PostStore) Create(ctx context.Context, p *models.SponsoredPost) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(OpPostCreate); err != nil {
		return err
	}
	if _, ok := s.vendors[p.VendorID]; !ok {
		return repositories.ErrForeignKeyViolation
	}
	if _, ok := s.vloggers[p.VloggerID]; !ok {
		return repositories.ErrForeignKeyViolation
	}

	p.ID = uuid.New()
	s.posts[p.ID] = &postRow{seq: s.next(), p: *p}
	return nil
}

func (r *PostStore) GetByID(ctx context.Context, id uuid.UUID) (*models.SponsoredPost, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.fail(OpPostGet); err != nil {
		return nil, err
	}
	row, ok := s.posts[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	p := row.p
	return &p, nil
}

func (r *PostStore) ApplyReview(ctx context.Context, id uuid.UUID, rv models.PostReview) (*models.SponsoredPost, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(OpPostReview); err != nil {
		return nil, err
	}
	row, ok := s.posts[id]
	if !ok || row.p.Status != models.PostStatusPending {
		return nil, repositories.ErrNotFound
	}

	reviewedAt := rv.ReviewedAt
	reviewedBy := rv.ReviewedBy
	row.p.Status = rv.Status
	row.p.AdminNotes = rv.AdminNotes
	row.p.PayoutAmount = rv.PayoutAmount
	row.p.ReviewedAt = &reviewedAt
	row.p.ReviewedBy = &reviewedBy
	p := row.p
	return &p, nil
}

func (r *PostStore) ListWithNames(ctx context.Context, f repositories.PostFilter) ([]models.SponsoredPostWithNames, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.fail(OpPostList); err != nil {
		return nil, err
	}

	rows := make([]*postRow, 0, len(s.posts))
	for _, row := range s.posts {
		if f.VloggerID != nil && row.p.VloggerID != *f.VloggerID {
			continue
		}
		if f.VendorID != nil && row.p.VendorID != *f.VendorID {
			continue
		}
		if f.Status != nil && row.p.Status != *f.Status {
			continue
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq > rows[j].seq })

	lo, hi := pageBounds(len(rows), f.Limit, f.Offset)
	out := make([]models.SponsoredPostWithNames, 0, hi-lo)
	for _, row := range rows[lo:hi] {
		item := models.SponsoredPostWithNames{SponsoredPost: row.p}
		if v, ok := s.vendors[row.p.VendorID]; ok {
			name := v.name
			item.VendorName = &name
		}
		if name, ok := s.vloggers[row.p.VloggerID]; ok {
			item.VloggerName = &name
		}
		out = append(out, item)
	}
	return out, nil
}

// Audit

type AuditStore struct{ s *Store }

func (r *AuditStore) Log(ctx context.Context, entry models.AuditLog) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(OpAuditLog); err != nil {
		return err
	}
	entry.ID = uuid.New()
	entry.CreatedAt = time.Now()
	s.audit = append(s.audit, entry)
	return nil
}

func (r *AuditStore) GetByEntity(ctx context.Context, entityType string, entityID uuid.UUID, limit, offset int) ([]models.AuditLog, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []models.AuditLog
	for i := len(s.audit) - 1; i >= 0; i-- {
		e := s.audit[i]
		if e.EntityType == entityType && e.EntityID != nil && *e.EntityID == entityID {
			matched = append(matched, e)
		}
	}
	lo, hi := pageBounds(len(matched), limit, offset)
	return matched[lo:hi], nil
}

func pageBounds(n, limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	if offset > n {
		offset = n
	}
	end := offset + limit
	if end > n {
		end = n
	}
	return offset, end
}
