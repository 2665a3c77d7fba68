package domain

import (
	"time"

	"github.com/google/uuid"
)

// SubscriptionStatus is the billing state of an organization.
type SubscriptionStatus string

const (
	SubscriptionTrial     SubscriptionStatus = "trial"
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
)

// Organization is a tenant: one political office with its own operators
// and voter registry.
type Organization struct {
	ID             uuid.UUID
	Name           string
	Slug           string
	Subscription   SubscriptionStatus
	TrialExpiresAt *time.Time
	ContactEmail   *string
	ContactPhone   *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      *time.Time
}
