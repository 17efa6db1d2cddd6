package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestIsValidPromotionTransition(t *testing.T) {
	tests := []struct {
		from     string
		to       string
		expected bool
	}{
		{PromotionStatusActive, PromotionStatusCancelled, true},
		{PromotionStatusActive, PromotionStatusExpired, true},

		{PromotionStatusCancelled, PromotionStatusActive, false},
		{PromotionStatusCancelled, PromotionStatusExpired, false},
		{PromotionStatusExpired, PromotionStatusActive, false},
		{PromotionStatusExpired, PromotionStatusCancelled, false},
		{PromotionStatusActive, PromotionStatusActive, false},
		{"nonexistent", PromotionStatusCancelled, false},
	}

	for _, tt := range tests {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			result := IsValidPromotionTransition(tt.from, tt.to)
			if result != tt.expected {
				t.Errorf("IsValidPromotionTransition(%q, %q) = %v, want %v", tt.from, tt.to, result, tt.expected)
			}
		})
	}
}

func TestTerminalPromotionStatusesHaveNoTransitions(t *testing.T) {
	for _, status := range []string{PromotionStatusCancelled, PromotionStatusExpired} {
		transitions, ok := ValidPromotionTransitions[status]
		if !ok {
			t.Errorf("status %q missing from ValidPromotionTransitions map", status)
		}
		if len(transitions) != 0 {
			t.Errorf("terminal status %q should have no transitions, got %v", status, transitions)
		}
	}
}

func TestEndTimeFor(t *testing.T) {
	start := time.Date(2026, time.March, 15, 10, 30, 0, 0, time.UTC)
	tests := []struct {
		duration string
		expected time.Time
	}{
		{Duration1Month, time.Date(2026, time.April, 15, 10, 30, 0, 0, time.UTC)},
		{Duration3Months, time.Date(2026, time.June, 15, 10, 30, 0, 0, time.UTC)},
		{Duration6Months, time.Date(2026, time.September, 15, 10, 30, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.duration, func(t *testing.T) {
			end, ok := EndTimeFor(start, tt.duration)
			if !ok {
				t.Fatalf("EndTimeFor(%q) not ok", tt.duration)
			}
			if !end.Equal(tt.expected) {
				t.Errorf("EndTimeFor(%q) = %v, want %v", tt.duration, end, tt.expected)
			}
		})
	}
}

func TestEndTimeForIsCalendarMonthNotThirtyDays(t *testing.T) {
	// February has 28 days in 2026.
	start := time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)
	end, _ := EndTimeFor(start, Duration1Month)
	if end.Sub(start) != 28*24*time.Hour {
		t.Errorf("expected 28 days for February, got %v", end.Sub(start))
	}
}

func TestEndTimeForUnknownDuration(t *testing.T) {
	for _, d := range []string{"", "2 Months", "1 month", "12 Months"} {
		if _, ok := EndTimeFor(time.Now(), d); ok {
			t.Errorf("EndTimeFor(%q) should not be ok", d)
		}
		if IsValidDuration(d) {
			t.Errorf("IsValidDuration(%q) = true", d)
		}
	}
}

func TestEffectiveStatus(t *testing.T) {
	now := time.Date(2026, time.May, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name     string
		status   string
		endTime  time.Time
		expected string
	}{
		{"active in future", PromotionStatusActive, now.Add(time.Hour), PromotionStatusActive},
		{"active ends now", PromotionStatusActive, now, PromotionStatusExpired},
		{"active in past", PromotionStatusActive, now.Add(-time.Hour), PromotionStatusExpired},
		{"cancelled in future", PromotionStatusCancelled, now.Add(time.Hour), PromotionStatusCancelled},
		{"cancelled in past", PromotionStatusCancelled, now.Add(-time.Hour), PromotionStatusCancelled},
		{"expired", PromotionStatusExpired, now.Add(-time.Hour), PromotionStatusExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Promotion{Status: tt.status, EndTime: tt.endTime}
			if got := p.EffectiveStatus(now); got != tt.expected {
				t.Errorf("EffectiveStatus() = %q, want %q", got, tt.expected)
			}
			projected := p.Projected(now)
			if projected.Status != tt.expected {
				t.Errorf("Projected().Status = %q, want %q", projected.Status, tt.expected)
			}
			if p.Status != tt.status {
				t.Errorf("Projected mutated the receiver: %q", p.Status)
			}
		})
	}
}

func TestDeriveFeaturedState(t *testing.T) {
	now := time.Date(2026, time.May, 1, 12, 0, 0, 0, time.UTC)
	vendorID := uuid.New()

	t.Run("no promotions", func(t *testing.T) {
		state := DeriveFeaturedState(vendorID, nil, now)
		if state.IsFeatured || state.PromotionTier != nil || state.FeaturedUntil != nil {
			t.Errorf("expected unfeatured state, got %+v", state)
		}
	})

	t.Run("active promotion", func(t *testing.T) {
		end := now.AddDate(0, 3, 0)
		state := DeriveFeaturedState(vendorID, []Promotion{
			{VendorID: vendorID, PackageID: "premium", Status: PromotionStatusActive, EndTime: end},
		}, now)
		if !state.IsFeatured {
			t.Fatal("expected featured")
		}
		if *state.PromotionTier != "premium" {
			t.Errorf("tier = %q, want premium", *state.PromotionTier)
		}
		if !state.FeaturedUntil.Equal(end) {
			t.Errorf("featured_until = %v, want %v", *state.FeaturedUntil, end)
		}
	})

	t.Run("only stale or terminal promotions", func(t *testing.T) {
		state := DeriveFeaturedState(vendorID, []Promotion{
			{VendorID: vendorID, PackageID: "basic", Status: PromotionStatusActive, EndTime: now.Add(-time.Minute)},
			{VendorID: vendorID, PackageID: "premium", Status: PromotionStatusCancelled, EndTime: now.Add(time.Hour)},
		}, now)
		if state.IsFeatured {
			t.Errorf("expected unfeatured state, got %+v", state)
		}
	})

	t.Run("ignores other vendors", func(t *testing.T) {
		state := DeriveFeaturedState(vendorID, []Promotion{
			{VendorID: uuid.New(), PackageID: "basic", Status: PromotionStatusActive, EndTime: now.Add(time.Hour)},
		}, now)
		if state.IsFeatured {
			t.Error("promotion of another vendor must not feature this vendor")
		}
	})
}

func TestPromotionPackagesIsStable(t *testing.T) {
	a := PromotionPackages()
	b := PromotionPackages()
	if len(a) != 3 {
		t.Fatalf("expected 3 packages, got %d", len(a))
	}

	a[0].Features[0] = "mutated"
	a[1].Popular = false
	if b[0].Features[0] == "mutated" || !PromotionPackages()[1].Popular {
		t.Error("catalog copies must not share state")
	}

	want := map[string]struct {
		price    int64
		duration string
		popular  bool
	}{
		"basic":    {2999, Duration1Month, false},
		"premium":  {7999, Duration3Months, true},
		"ultimate": {19999, Duration6Months, false},
	}
	for _, p := range PromotionPackages() {
		w, ok := want[p.ID]
		if !ok {
			t.Errorf("unexpected package %q", p.ID)
			continue
		}
		if p.Price.IntPart() != w.price || p.Duration != w.duration || p.Popular != w.popular {
			t.Errorf("package %q = %s/%s/%v", p.ID, p.Price, p.Duration, p.Popular)
		}
		if !IsValidDuration(p.Duration) {
			t.Errorf("package %q has invalid duration %q", p.ID, p.Duration)
		}
	}
}
