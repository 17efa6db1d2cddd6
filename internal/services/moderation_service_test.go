package services

import (
	"context"
	"strings"
	"testing"

	"github.com/foodvlog/backend/internal/events"
	"github.com/foodvlog/backend/internal/models"
	"github.com/foodvlog/backend/internal/rbac"
	"github.com/foodvlog/backend/internal/repositories/memory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func strPtr(s string) *string { return &s }

func (f *fixture) submitInput() SubmitInput {
	return SubmitInput{
		VendorID: f.vendor.ID,
		Title:    "Best biryani in town",
		URL:      "https://youtube.com/watch?v=abc123",
		Platform: "youtube",
	}
}

func TestSubmitCreatesPendingPost(t *testing.T) {
	f := newFixture(t)
	in := f.submitInput()
	in.Description = strPtr("  full review  ")
	in.ScreenshotURL = strPtr("")

	post, err := f.moderation.Submit(context.Background(), f.vlogger, in)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if post.Status != models.PostStatusPending {
		t.Errorf("status = %q, want pending", post.Status)
	}
	if post.VloggerID != f.vlogger.ID {
		t.Errorf("vlogger id = %s, want actor %s", post.VloggerID, f.vlogger.ID)
	}
	if !post.SubmittedAt.Equal(f.clock.now()) {
		t.Errorf("submitted_at = %v, want %v", post.SubmittedAt, f.clock.now())
	}
	if post.Description == nil || *post.Description != "full review" {
		t.Errorf("description = %v, want trimmed", post.Description)
	}
	if post.ScreenshotURL != nil {
		t.Errorf("blank screenshot url should be dropped, got %q", *post.ScreenshotURL)
	}
	if post.PayoutAmount != nil || post.ReviewedAt != nil || post.ReviewedBy != nil {
		t.Errorf("fresh post carries review fields: %+v", post)
	}

	published := f.publisher.published()
	if len(published) != 1 || published[0].Type != events.EventPostSubmitted {
		t.Fatalf("events = %+v, want one sponsored_post_submitted", published)
	}
}

func TestSubmitValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*SubmitInput)
		want   Kind
	}{
		{"missing title", func(in *SubmitInput) { in.Title = "   " }, KindInvalidArgument},
		{"missing url", func(in *SubmitInput) { in.URL = "" }, KindInvalidArgument},
		{"missing platform", func(in *SubmitInput) { in.Platform = "" }, KindInvalidArgument},
		{"missing vendor", func(in *SubmitInput) { in.VendorID = uuid.Nil }, KindInvalidArgument},
		{"relative url", func(in *SubmitInput) { in.URL = "/watch?v=1" }, KindInvalidArgument},
		{"non http url", func(in *SubmitInput) { in.URL = "ftp://files.example.com/a" }, KindInvalidArgument},
		{"unknown vendor", func(in *SubmitInput) { in.VendorID = uuid.New() }, KindNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			in := f.submitInput()
			tt.mutate(&in)

			_, err := f.moderation.Submit(context.Background(), f.vlogger, in)
			assertKind(t, err, tt.want)
		})
	}
}

func TestSubmitUploadsScreenshot(t *testing.T) {
	f := newFixture(t)
	in := f.submitInput()
	in.ScreenshotURL = strPtr("https://ignored.example.com/x.png")
	in.Screenshot = &Screenshot{Filename: "proof.JPG", ContentType: "image/jpeg", Data: []byte{0xff, 0xd8}}

	post, err := f.moderation.Submit(context.Background(), f.vlogger, in)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if len(f.uploader.paths) != 1 {
		t.Fatalf("uploads = %v, want 1", f.uploader.paths)
	}
	path := f.uploader.paths[0]
	if !strings.HasPrefix(path, "sponsored-posts/"+f.vlogger.ID.String()+"/") || !strings.HasSuffix(path, ".jpg") {
		t.Errorf("upload path = %q", path)
	}
	if post.ScreenshotURL == nil || *post.ScreenshotURL != "https://cdn.example.com/"+path {
		t.Errorf("screenshot url = %v", post.ScreenshotURL)
	}
}

func TestSubmitUploadFailure(t *testing.T) {
	f := newFixture(t)
	f.uploader.err = errBoom
	in := f.submitInput()
	in.Screenshot = &Screenshot{Filename: "proof.png", Data: []byte{1}}

	_, err := f.moderation.Submit(context.Background(), f.vlogger, in)
	assertKind(t, err, KindDependencyFailure)

	posts, _ := f.moderation.ListByVlogger(context.Background(), f.vlogger, f.vlogger.ID, 0, 0)
	if len(posts) != 0 {
		t.Errorf("failed submit persisted %d posts", len(posts))
	}
}

func TestReviewApproveThenReReview(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	post, err := f.moderation.Submit(ctx, f.vlogger, f.submitInput())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	payout := decimal.RequireFromString("500.00")
	reviewed, err := f.moderation.Review(ctx, f.admin, post.ID, ReviewInput{
		Decision:     models.PostStatusApproved,
		AdminNotes:   strPtr("looks good"),
		PayoutAmount: &payout,
	})
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
	if reviewed.Status != models.PostStatusApproved {
		t.Errorf("status = %q, want approved", reviewed.Status)
	}
	if reviewed.PayoutAmount == nil || !reviewed.PayoutAmount.Equal(payout) {
		t.Errorf("payout = %v, want 500", reviewed.PayoutAmount)
	}
	if reviewed.ReviewedBy == nil || *reviewed.ReviewedBy != f.admin.ID {
		t.Errorf("reviewed_by = %v, want admin", reviewed.ReviewedBy)
	}
	if reviewed.ReviewedAt == nil || !reviewed.ReviewedAt.Equal(f.clock.now()) {
		t.Errorf("reviewed_at = %v", reviewed.ReviewedAt)
	}

	_, err = f.moderation.Review(ctx, f.admin, post.ID, ReviewInput{Decision: models.PostStatusRejected})
	assertKind(t, err, KindConflict)

	got, _ := f.moderation.Get(ctx, f.admin, post.ID)
	if got.Status != models.PostStatusApproved || got.PayoutAmount == nil {
		t.Errorf("re-review mutated the post: %+v", got)
	}

	last := f.publisher.published()
	if ev := last[len(last)-1]; ev.Type != events.EventPostReviewed || ev.Payload["payout_amount"] != "500" {
		t.Errorf("last event = %+v", ev)
	}
}

func TestReviewRejectDropsPayout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	post, err := f.moderation.Submit(ctx, f.vlogger, f.submitInput())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	payout := decimal.NewFromInt(100)
	reviewed, err := f.moderation.Review(ctx, f.admin, post.ID, ReviewInput{
		Decision:     models.PostStatusRejected,
		PayoutAmount: &payout,
	})
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
	if reviewed.Status != models.PostStatusRejected || reviewed.PayoutAmount != nil {
		t.Errorf("reviewed = %+v, want rejected without payout", reviewed)
	}
}

func TestReviewValidation(t *testing.T) {
	negative := decimal.NewFromInt(-5)
	zero := decimal.Zero

	tests := []struct {
		name  string
		input ReviewInput
		want  Kind
	}{
		{"unknown decision", ReviewInput{Decision: "maybe"}, KindInvalidArgument},
		{"pending is not a decision", ReviewInput{Decision: models.PostStatusPending}, KindInvalidArgument},
		{"approve without payout", ReviewInput{Decision: models.PostStatusApproved}, KindInvalidArgument},
		{"approve with negative payout", ReviewInput{Decision: models.PostStatusApproved, PayoutAmount: &negative}, KindInvalidArgument},
		{"approve with zero payout", ReviewInput{Decision: models.PostStatusApproved, PayoutAmount: &zero}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			post, err := f.moderation.Submit(ctx, f.vlogger, f.submitInput())
			if err != nil {
				t.Fatalf("Submit: %v", err)
			}

			_, err = f.moderation.Review(ctx, f.admin, post.ID, tt.input)
			if tt.want == "" {
				if err != nil {
					t.Fatalf("Review: %v", err)
				}
				return
			}
			assertKind(t, err, tt.want)

			got, _ := f.moderation.Get(ctx, f.admin, post.ID)
			if got.Status != models.PostStatusPending {
				t.Errorf("status after rejected review = %q, want pending", got.Status)
			}
		})
	}
}

func TestReviewMissingPost(t *testing.T) {
	f := newFixture(t)
	_, err := f.moderation.Review(context.Background(), f.admin, uuid.New(), ReviewInput{Decision: models.PostStatusRejected})
	assertKind(t, err, KindNotFound)
}

func TestReviewAfterConcurrentReviewIsConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	post, err := f.moderation.Submit(ctx, f.vlogger, f.submitInput())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	// Another admin got there first.
	if _, err := f.store.Posts().ApplyReview(ctx, post.ID, models.PostReview{Status: models.PostStatusRejected}); err != nil {
		t.Fatalf("ApplyReview: %v", err)
	}
	_, err = f.moderation.Review(ctx, f.admin, post.ID, ReviewInput{Decision: models.PostStatusRejected})
	assertKind(t, err, KindConflict)
}

func TestModerationCapabilities(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	post, err := f.moderation.Submit(ctx, f.vlogger, f.submitInput())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	_, err = f.moderation.Review(ctx, f.vlogger, post.ID, ReviewInput{Decision: models.PostStatusRejected})
	assertKind(t, err, KindForbidden)

	_, err = f.moderation.Review(ctx, Actor{}, post.ID, ReviewInput{Decision: models.PostStatusRejected})
	assertKind(t, err, KindUnauthorized)

	_, err = f.moderation.Submit(ctx, f.vendor, f.submitInput())
	assertKind(t, err, KindForbidden)

	_, err = f.moderation.ListPending(ctx, f.vlogger, 0, 0)
	assertKind(t, err, KindForbidden)

	otherVlogger := Actor{ID: f.store.AddVlogger("Other"), Role: rbac.RoleVlogger}
	_, err = f.moderation.ListByVlogger(ctx, otherVlogger, f.vlogger.ID, 0, 0)
	assertKind(t, err, KindForbidden)

	_, err = f.moderation.Get(ctx, otherVlogger, post.ID)
	assertKind(t, err, KindNotFound)
}

func TestModerationListings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.moderation.Submit(ctx, f.vlogger, f.submitInput())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, err := f.moderation.Submit(ctx, f.vlogger, f.submitInput()); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, err := f.moderation.Review(ctx, f.admin, first.ID, ReviewInput{Decision: models.PostStatusRejected}); err != nil {
		t.Fatalf("Review: %v", err)
	}

	pending, err := f.moderation.ListPending(ctx, f.admin, 0, 0)
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("pending = %d, want 1", len(pending))
	}
	if pending[0].VendorName == nil || *pending[0].VendorName != "Spice Route" {
		t.Errorf("vendor name = %v", pending[0].VendorName)
	}
	if pending[0].VloggerName == nil || *pending[0].VloggerName != "Street Eats" {
		t.Errorf("vlogger name = %v", pending[0].VloggerName)
	}

	own, err := f.moderation.ListByVlogger(ctx, f.vlogger, f.vlogger.ID, 0, 0)
	if err != nil {
		t.Fatalf("ListByVlogger: %v", err)
	}
	if len(own) != 2 {
		t.Errorf("own posts = %d, want 2", len(own))
	}

	asAdmin, err := f.moderation.ListByVlogger(ctx, f.admin, f.vlogger.ID, 0, 0)
	if err != nil || len(asAdmin) != 2 {
		t.Errorf("admin ListByVlogger = %d, %v", len(asAdmin), err)
	}

	f.store.FailOn(memory.OpPostList, errBoom)
	_, err = f.moderation.ListPending(ctx, f.admin, 0, 0)
	assertKind(t, err, KindDependencyFailure)
}
