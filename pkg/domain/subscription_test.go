package domain

import (
	"testing"
	"time"
)

func trialOrg(expiresAt *time.Time) *Organization {
	return &Organization{Subscription: SubscriptionTrial, TrialExpiresAt: expiresAt}
}

func TestClassify(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	past := now.Add(-48 * time.Hour)
	in30min := now.Add(30 * time.Minute)
	in7dMinus1s := now.Add(7*24*time.Hour - time.Second)
	in8d := now.Add(8 * 24 * time.Hour)

	tests := []struct {
		name         string
		org          *Organization
		wantClass    AccessClass
		wantDaysLeft int
	}{
		{
			name:      "nil organization",
			org:       nil,
			wantClass: ClassUnknown,
		},
		{
			name:      "cancelled always blocks",
			org:       &Organization{Subscription: SubscriptionCancelled, TrialExpiresAt: &in8d},
			wantClass: ClassCancelled,
		},
		{
			name:      "active ignores nil expiry",
			org:       &Organization{Subscription: SubscriptionActive},
			wantClass: ClassActive,
		},
		{
			name:      "active ignores past expiry",
			org:       &Organization{Subscription: SubscriptionActive, TrialExpiresAt: &past},
			wantClass: ClassActive,
		},
		{
			name:      "trial with no expiry",
			org:       trialOrg(nil),
			wantClass: ClassTrialActive,
		},
		{
			name:      "trial expiring exactly now is expired",
			org:       trialOrg(&now),
			wantClass: ClassTrialExpired,
		},
		{
			name:      "trial expired in the past",
			org:       trialOrg(&past),
			wantClass: ClassTrialExpired,
		},
		{
			name:         "trial expiring in 30 minutes reports one day left",
			org:          trialOrg(&in30min),
			wantClass:    ClassTrialExpiring,
			wantDaysLeft: 1,
		},
		{
			name:         "trial expiring just inside the warning window",
			org:          trialOrg(&in7dMinus1s),
			wantClass:    ClassTrialExpiring,
			wantDaysLeft: 7,
		},
		{
			name:      "trial outside the warning window",
			org:       trialOrg(&in8d),
			wantClass: ClassTrialActive,
		},
		{
			name:      "unrecognized status blocks conservatively",
			org:       &Organization{Subscription: SubscriptionStatus("suspended")},
			wantClass: ClassUnknown,
		},
		{
			name:      "soft-deleted organization blocks",
			org:       &Organization{Subscription: SubscriptionActive, DeletedAt: &past},
			wantClass: ClassUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.org, now)
			if got.Class != tt.wantClass {
				t.Errorf("Classify class = %v, want %v", got.Class, tt.wantClass)
			}
			if got.DaysLeft != tt.wantDaysLeft {
				t.Errorf("Classify days left = %d, want %d", got.DaysLeft, tt.wantDaysLeft)
			}
		})
	}
}

func TestClassify_Idempotent(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	expiry := now.Add(36 * time.Hour)
	org := trialOrg(&expiry)

	first := Classify(org, now)
	second := Classify(org, now)
	if first != second {
		t.Errorf("Classify is not idempotent: %v then %v", first, second)
	}
}

func TestClassification_Blocking(t *testing.T) {
	tests := []struct {
		class    AccessClass
		blocking bool
	}{
		{ClassActive, false},
		{ClassTrialActive, false},
		{ClassTrialExpiring, false},
		{ClassTrialExpired, true},
		{ClassCancelled, true},
		{ClassUnknown, true},
	}

	for _, tt := range tests {
		c := Classification{Class: tt.class}
		if c.Blocking() != tt.blocking {
			t.Errorf("Blocking(%s) = %v, want %v", tt.class, c.Blocking(), tt.blocking)
		}
	}
}
