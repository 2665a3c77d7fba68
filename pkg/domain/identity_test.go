package domain

import (
	"testing"
	"time"
)

func TestIdentity_IsActive(t *testing.T) {
	deleted := time.Now()

	tests := []struct {
		name     string
		identity Identity
		want     bool
	}{
		{"active", Identity{Status: IdentityStatusActive}, true},
		{"blocked", Identity{Status: IdentityStatusBlocked}, false},
		{"pending", Identity{Status: IdentityStatusPending}, false},
		{"active but soft-deleted", Identity{Status: IdentityStatusActive, DeletedAt: &deleted}, false},
		{"unknown status", Identity{Status: IdentityStatus("zombie")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.identity.IsActive(); got != tt.want {
				t.Errorf("IsActive() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIdentity_IsLocked(t *testing.T) {
	future := time.Now().Add(10 * time.Minute)
	past := time.Now().Add(-10 * time.Minute)

	if (&Identity{}).IsLocked() {
		t.Error("identity without lockout should not be locked")
	}
	if !(&Identity{LockedUntil: &future}).IsLocked() {
		t.Error("identity locked into the future should be locked")
	}
	if (&Identity{LockedUntil: &past}).IsLocked() {
		t.Error("expired lockout should not lock the identity")
	}
}

func TestIdentity_HasPermission(t *testing.T) {
	assessor := Identity{Role: RoleAssessor, Permissions: []string{"voters:read", "voters:write"}}

	if !assessor.HasPermission("voters:read") {
		t.Error("granted permission should be found")
	}
	if assessor.HasPermission("identities:block") {
		t.Error("ungranted permission should be denied")
	}

	admin := Identity{Role: RoleAdmin}
	if !admin.HasPermission("identities:block") {
		t.Error("admin should hold every capability")
	}
}
