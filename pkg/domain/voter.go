package domain

import (
	"time"

	"github.com/google/uuid"
)

// Voter is one entry in an organization's voter registry. Every voter row
// belongs to exactly one organization and is never visible outside it.
type Voter struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	Name           string
	Email          *string
	Phone          *string
	Document       *string
	City           string
	Neighborhood   string
	Notes          *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      *time.Time
}
