package domain

import (
	"time"

	"github.com/google/uuid"
)

// Role is an operator's access level within an organization.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleAssessor  Role = "assessor"
	RoleAttendant Role = "attendant"
)

// IsValid reports whether the role is one of the known levels.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleAssessor, RoleAttendant:
		return true
	}
	return false
}

// IdentityStatus is the lifecycle state of an operator account.
type IdentityStatus string

const (
	IdentityStatusActive  IdentityStatus = "active"
	IdentityStatusBlocked IdentityStatus = "blocked"
	IdentityStatusPending IdentityStatus = "pending"
)

// Identity is an operator account. An identity belongs to at most one
// organization; OrganizationID is nil until a tenant has been selected.
type Identity struct {
	ID                  uuid.UUID
	Email               string
	Name                string
	OrganizationID      *uuid.UUID
	Role                Role
	Permissions         []string
	Status              IdentityStatus
	FailedLoginAttempts int
	LockedUntil         *time.Time
	LastAccessAt        *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
	DeletedAt           *time.Time
}

// IsActive reports whether the identity may hold a session. Any status
// other than active denies, as does a soft delete.
func (i *Identity) IsActive() bool {
	return i.Status == IdentityStatusActive && i.DeletedAt == nil
}

// IsLocked reports whether the account is inside a failed-login lockout.
func (i *Identity) IsLocked() bool {
	return i.LockedUntil != nil && i.LockedUntil.After(time.Now())
}

// HasPermission reports whether the identity holds a capability. Admins
// hold every capability implicitly.
func (i *Identity) HasPermission(perm string) bool {
	if i.Role == RoleAdmin {
		return true
	}
	for _, p := range i.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}

// IdentityCredential is an identity's password material, stored apart from
// the profile row.
type IdentityCredential struct {
	IdentityID        uuid.UUID
	PasswordHash      string
	PasswordUpdatedAt time.Time
}
