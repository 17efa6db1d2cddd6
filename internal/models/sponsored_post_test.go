package models

import "testing"

func TestIsValidPostTransition(t *testing.T) {
	tests := []struct {
		from     string
		to       string
		expected bool
	}{
		{PostStatusPending, PostStatusApproved, true},
		{PostStatusPending, PostStatusRejected, true},

		{PostStatusApproved, PostStatusRejected, false},
		{PostStatusApproved, PostStatusPending, false},
		{PostStatusRejected, PostStatusApproved, false},
		{PostStatusPending, PostStatusPending, false},
		{PostStatusPending, "nonexistent", false},
	}

	for _, tt := range tests {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			result := IsValidPostTransition(tt.from, tt.to)
			if result != tt.expected {
				t.Errorf("IsValidPostTransition(%q, %q) = %v, want %v", tt.from, tt.to, result, tt.expected)
			}
		})
	}
}

func TestIsReviewDecision(t *testing.T) {
	tests := map[string]bool{
		"approved": true,
		"rejected": true,
		"pending":  false,
		"Approved": false,
		"":         false,
		"maybe":    false,
	}
	for in, want := range tests {
		if got := IsReviewDecision(in); got != want {
			t.Errorf("IsReviewDecision(%q) = %v, want %v", in, got, want)
		}
	}
}
