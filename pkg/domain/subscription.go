package domain

import "time"

// TrialWarningWindow is how long before expiry a trial starts warning.
const TrialWarningWindow = 7 * 24 * time.Hour

// AccessClass is the outcome of classifying an organization's subscription.
type AccessClass string

const (
	ClassActive        AccessClass = "active"
	ClassTrialActive   AccessClass = "trial-active"
	ClassTrialExpiring AccessClass = "trial-expiring"
	ClassTrialExpired  AccessClass = "trial-expired"
	ClassCancelled     AccessClass = "cancelled"
	ClassUnknown       AccessClass = "unknown"
)

// Classification is an access class with, for expiring trials, the number
// of days left.
type Classification struct {
	Class    AccessClass
	DaysLeft int
}

// Blocking reports whether this classification denies access. Unknown
// states block: an organization whose billing state cannot be read is
// treated like one that lapsed.
func (c Classification) Blocking() bool {
	switch c.Class {
	case ClassTrialExpired, ClassCancelled, ClassUnknown:
		return true
	}
	return false
}

// Classify evaluates an organization's subscription at the given instant.
// It is a pure function of its inputs and never touches the clock itself,
// so the same organization and instant always classify identically.
//
// A trial that expires exactly now is already expired. Days left are
// counted by ceiling, so a trial with thirty minutes remaining still
// reports one day.
func Classify(org *Organization, now time.Time) Classification {
	if org == nil || org.DeletedAt != nil {
		return Classification{Class: ClassUnknown}
	}

	switch org.Subscription {
	case SubscriptionCancelled:
		return Classification{Class: ClassCancelled}

	case SubscriptionActive:
		return Classification{Class: ClassActive}

	case SubscriptionTrial:
		if org.TrialExpiresAt == nil {
			return Classification{Class: ClassTrialActive}
		}
		remaining := org.TrialExpiresAt.Sub(now)
		if remaining <= 0 {
			return Classification{Class: ClassTrialExpired}
		}
		if remaining <= TrialWarningWindow {
			return Classification{Class: ClassTrialExpiring, DaysLeft: ceilDays(remaining)}
		}
		return Classification{Class: ClassTrialActive}
	}

	return Classification{Class: ClassUnknown}
}

func ceilDays(d time.Duration) int {
	days := int(d / (24 * time.Hour))
	if d%(24*time.Hour) > 0 {
		days++
	}
	return days
}
