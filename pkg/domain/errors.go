package domain

import "errors"

// Authentication errors
var (
	ErrIdentityNotFound      = errors.New("identity not found")
	ErrIdentityAlreadyExists = errors.New("identity already exists")
	ErrIdentityBlocked       = errors.New("identity is not active")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrAccountLocked         = errors.New("account locked due to too many failed login attempts")
	ErrSessionNotFound       = errors.New("session not found")
	ErrSessionExpired        = errors.New("session expired")
	ErrSessionRevoked        = errors.New("session revoked")
	ErrInvalidToken          = errors.New("invalid token")
)

// Tenant access errors
var (
	ErrOrganizationNotFound      = errors.New("organization not found")
	ErrOrganizationMissing       = errors.New("identity has no resolvable organization")
	ErrOrganizationBlocked       = errors.New("organization subscription is cancelled")
	ErrTrialExpired              = errors.New("organization trial has expired")
	ErrUnknownClassification     = errors.New("organization subscription state is unrecognized")
	ErrOrganizationNotSelectable = errors.New("identity does not belong to this organization")
)

// Validation errors
var (
	ErrInvalidEmail = errors.New("invalid email address")
	ErrWeakPassword = errors.New("password does not meet requirements")
)

// Registry errors
var (
	ErrVoterNotFound = errors.New("voter not found")
)
