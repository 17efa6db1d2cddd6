package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
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

// ModerationService is the sponsored post moderation queue. A post is
// reviewed exactly once; re-reviews are conflicts, there is no override.
type ModerationService struct {
	posts    PostStore
	uploader Uploader
	caps     capabilities
	rec      recorder
	log      *zap.Logger
	now      func() time.Time
}

func NewModerationService(
	posts PostStore,
	uploader Uploader,
	audit AuditLogger,
	publisher events.Publisher,
	checker CapabilityChecker,
	log *zap.Logger,
) *ModerationService {
	return &ModerationService{
		posts:    posts,
		uploader: uploader,
		caps:     capabilities{checker: checker},
		rec:      recorder{audit: audit, publisher: publisher, log: log},
		log:      log,
		now:      time.Now,
	}
}

// Screenshot is an image blob handed to the upload collaborator.
type Screenshot struct {
	Filename    string
	ContentType string
	Data        []byte
}

type SubmitInput struct {
	VendorID      uuid.UUID
	Title         string
	URL           string
	Platform      string
	Description   *string
	ScreenshotURL *string
	Screenshot    *Screenshot
}

type ReviewInput struct {
	Decision     string
	AdminNotes   *string
	PayoutAmount *decimal.Decimal
}

func (s *ModerationService) Submit(ctx context.Context, actor Actor, in SubmitInput) (*models.SponsoredPost, error) {
	if err := s.caps.require(actor, rbac.PermSubmitPost); err != nil {
		return nil, err
	}

	in.Title = strings.TrimSpace(in.Title)
	in.URL = strings.TrimSpace(in.URL)
	in.Platform = strings.TrimSpace(in.Platform)
	if in.VendorID == uuid.Nil || in.Title == "" || in.URL == "" || in.Platform == "" {
		return nil, invalidArgument("vendor_id, title, url and platform are required")
	}
	if !isHTTPURL(in.URL) {
		return nil, invalidArgument("url must be an absolute http(s) link")
	}

	post := &models.SponsoredPost{
		VloggerID:     actor.ID,
		VendorID:      in.VendorID,
		Title:         in.Title,
		Description:   trimmedOrNil(in.Description),
		URL:           in.URL,
		ScreenshotURL: trimmedOrNil(in.ScreenshotURL),
		Platform:      in.Platform,
		Status:        models.PostStatusPending,
		SubmittedAt:   s.now(),
	}

	if in.Screenshot != nil && len(in.Screenshot.Data) > 0 {
		ref, err := s.uploadScreenshot(ctx, actor.ID, in.Screenshot)
		if err != nil {
			return nil, dependencyFailure("failed to upload screenshot", err)
		}
		post.ScreenshotURL = &ref
	}

	if err := s.posts.Create(ctx, post); err != nil {
		if errors.Is(err, repositories.ErrForeignKeyViolation) {
			return nil, notFound("vendor not found")
		}
		return nil, dependencyFailure("failed to submit sponsored post", err)
	}

	metrics.PostsSubmitted.Inc()
	s.log.Info("sponsored post submitted",
		zap.String("post_id", post.ID.String()),
		zap.String("vlogger_id", post.VloggerID.String()),
		zap.String("vendor_id", post.VendorID.String()),
	)

	s.rec.record(ctx, transitionRecord{
		Actor:      &actor,
		EntityType: "sponsored_post",
		EntityID:   post.ID,
		To:         models.PostStatusPending,
		EventType:  events.EventPostSubmitted,
		Payload: map[string]any{
			"vendor_id":  post.VendorID.String(),
			"vlogger_id": post.VloggerID.String(),
		},
	})

	return post, nil
}

func (s *ModerationService) Review(ctx context.Context, actor Actor, postID uuid.UUID, in ReviewInput) (*models.SponsoredPost, error) {
	if err := s.caps.require(actor, rbac.PermReviewPost); err != nil {
		return nil, err
	}

	decision := strings.TrimSpace(in.Decision)
	if !models.IsReviewDecision(decision) {
		return nil, invalidArgument("decision must be %q or %q", models.PostStatusApproved, models.PostStatusRejected)
	}

	review := models.PostReview{
		Status:     decision,
		AdminNotes: trimmedOrNil(in.AdminNotes),
		ReviewedAt: s.now(),
		ReviewedBy: actor.ID,
	}
	if decision == models.PostStatusApproved {
		if in.PayoutAmount == nil {
			return nil, invalidArgument("payout_amount is required when approving")
		}
		if in.PayoutAmount.IsNegative() {
			return nil, invalidArgument("payout_amount must not be negative")
		}
		payout := *in.PayoutAmount
		review.PayoutAmount = &payout
	}

	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, notFound("sponsored post not found")
		}
		return nil, dependencyFailure("failed to load sponsored post", err)
	}
	if !models.IsValidPostTransition(post.Status, decision) {
		return nil, conflict("sponsored post is already %s", post.Status)
	}

	updated, err := s.posts.ApplyReview(ctx, post.ID, review)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, conflict("sponsored post was reviewed concurrently")
		}
		return nil, dependencyFailure("failed to record review", err)
	}

	metrics.PostsReviewed.WithLabelValues(decision).Inc()
	s.log.Info("sponsored post reviewed",
		zap.String("post_id", updated.ID.String()),
		zap.String("decision", decision),
		zap.String("admin_id", actor.ID.String()),
	)

	payload := map[string]any{
		"vendor_id":  updated.VendorID.String(),
		"vlogger_id": updated.VloggerID.String(),
	}
	if updated.PayoutAmount != nil {
		payload["payout_amount"] = updated.PayoutAmount.String()
	}
	s.rec.record(ctx, transitionRecord{
		Actor:      &actor,
		EntityType: "sponsored_post",
		EntityID:   updated.ID,
		From:       models.PostStatusPending,
		To:         decision,
		EventType:  events.EventPostReviewed,
		Payload:    payload,
	})

	return updated, nil
}

func (s *ModerationService) ListPending(ctx context.Context, actor Actor, limit, offset int) ([]models.SponsoredPostWithNames, error) {
	if err := s.caps.require(actor, rbac.PermReviewPost); err != nil {
		return nil, err
	}

	status := models.PostStatusPending
	posts, err := s.posts.ListWithNames(ctx, repositories.PostFilter{Status: &status, Limit: limit, Offset: offset})
	if err != nil {
		return nil, dependencyFailure("failed to load pending posts", err)
	}
	return posts, nil
}

// ListByVlogger is open to the vlogger itself and to admins.
func (s *ModerationService) ListByVlogger(ctx context.Context, actor Actor, vloggerID uuid.UUID, limit, offset int) ([]models.SponsoredPostWithNames, error) {
	if err := s.caps.require(actor, rbac.PermViewPosts); err != nil {
		return nil, err
	}
	if actor.ID != vloggerID && !s.caps.has(actor, rbac.PermViewAnyPost) {
		return nil, forbidden("cannot view another vlogger's posts")
	}

	posts, err := s.posts.ListWithNames(ctx, repositories.PostFilter{VloggerID: &vloggerID, Limit: limit, Offset: offset})
	if err != nil {
		return nil, dependencyFailure("failed to load sponsored posts", err)
	}
	return posts, nil
}

func (s *ModerationService) Get(ctx context.Context, actor Actor, postID uuid.UUID) (*models.SponsoredPost, error) {
	if err := s.caps.require(actor, rbac.PermViewPosts); err != nil {
		return nil, err
	}

	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, notFound("sponsored post not found")
		}
		return nil, dependencyFailure("failed to load sponsored post", err)
	}
	if post.VloggerID != actor.ID && !s.caps.has(actor, rbac.PermViewAnyPost) {
		return nil, notFound("sponsored post not found")
	}
	return post, nil
}

func (s *ModerationService) uploadScreenshot(ctx context.Context, vloggerID uuid.UUID, shot *Screenshot) (string, error) {
	if s.uploader == nil {
		return "", errors.New("no upload backend configured")
	}
	ext := strings.ToLower(path.Ext(shot.Filename))
	if ext == "" {
		ext = ".png"
	}
	contentType := shot.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	objectPath := fmt.Sprintf("sponsored-posts/%s/%s%s", vloggerID, uuid.NewString(), ext)
	return s.uploader.Upload(ctx, objectPath, contentType, shot.Data)
}

func isHTTPURL(raw string) bool {
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
