package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/foodvlog/backend/internal/events"
	"github.com/foodvlog/backend/internal/rbac"
	"github.com/foodvlog/backend/internal/repositories/memory"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, stream string, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) published() []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.Event(nil), p.events...)
}

type fakeUploader struct {
	paths []string
	err   error
}

func (u *fakeUploader) Upload(ctx context.Context, path, contentType string, data []byte) (string, error) {
	if u.err != nil {
		return "", u.err
	}
	u.paths = append(u.paths, path)
	return "https://cdn.example.com/" + path, nil
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

type fixture struct {
	store      *memory.Store
	publisher  *recordingPublisher
	uploader   *fakeUploader
	clock      *clock
	featured   *FeaturedSync
	promotions *PromotionService
	moderation *ModerationService

	vendor  Actor
	vlogger Actor
	admin   Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore()
	pub := &recordingPublisher{}
	up := &fakeUploader{}
	clk := &clock{t: time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)}
	log := zap.NewNop()

	featured := NewFeaturedSync(store.Promotions(), store.Vendors(), log)
	featured.now = clk.now

	promotions := NewPromotionService(store.Promotions(), store.Vendors(), featured, store.Audit(), pub, rbac.Policy{}, log)
	promotions.now = clk.now

	moderation := NewModerationService(store.Posts(), up, store.Audit(), pub, rbac.Policy{}, log)
	moderation.now = clk.now

	return &fixture{
		store:      store,
		publisher:  pub,
		uploader:   up,
		clock:      clk,
		featured:   featured,
		promotions: promotions,
		moderation: moderation,
		vendor:     Actor{ID: store.AddVendor("Spice Route"), Role: rbac.RoleVendor},
		vlogger:    Actor{ID: store.AddVlogger("Street Eats"), Role: rbac.RoleVlogger},
		admin:      Actor{ID: uuid.New(), Role: rbac.RoleAdmin},
	}
}

func assertKind(t *testing.T, err error, want Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", want)
	}
	if got := KindOf(err); got != want {
		t.Fatalf("error kind = %q, want %q (err: %v)", got, want, err)
	}
}

var errBoom = errors.New("boom")
