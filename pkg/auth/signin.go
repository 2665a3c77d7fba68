package auth

import (
	"context"
	"database/sql"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gbp-politico/gabinete/pkg/domain"
	"github.com/gbp-politico/gabinete/pkg/repository"
)

const (
	maxFailedAttempts = 5
	lockoutDuration   = 15 * time.Minute
)

// SignInService is the credential verifier: it exchanges email/password
// for an authenticated session, enforcing identity status and organization
// classification before any session state is written.
type SignInService struct {
	db            *sql.DB
	identities    *repository.IdentitiesRepository
	credentials   *repository.CredentialsRepository
	organizations *repository.OrganizationsRepository
	sessions      *SessionService
	policy        *PasswordPolicy
}

// NewSignInService creates a new sign-in service.
func NewSignInService(
	db *sql.DB,
	identities *repository.IdentitiesRepository,
	credentials *repository.CredentialsRepository,
	organizations *repository.OrganizationsRepository,
	sessions *SessionService,
	policy *PasswordPolicy,
) *SignInService {
	if policy == nil {
		policy = DefaultPasswordPolicy()
	}
	return &SignInService{
		db:            db,
		identities:    identities,
		credentials:   credentials,
		organizations: organizations,
		sessions:      sessions,
		policy:        policy,
	}
}

// SignInResult is a successful sign-in: the identity, its organization (nil
// when the identity still has to pick one), the classification at sign-in
// time, and the issued tokens. A trial-expiring classification rides along
// so the warning surfaces immediately.
type SignInResult struct {
	Identity       *domain.Identity
	Organization   *domain.Organization
	Classification domain.Classification
	Tokens         *domain.TokenPair
}

// SignIn authenticates an operator. Steps run strictly in order:
// verify credentials, check identity status, resolve the organization,
// classify it, and only then issue the session. Every failure path returns
// before the session row is written, so a half-populated session never
// exists.
func (s *SignInService) SignIn(ctx context.Context, email, password string, opts IssueSessionOpts) (*SignInResult, error) {
	email = NormalizeEmail(email)
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	identity, err := s.identities.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrIdentityNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if identity.IsLocked() {
		return nil, domain.ErrAccountLocked
	}

	cred, err := s.credentials.GetByIdentityID(ctx, identity.ID)
	if err != nil {
		if errors.Is(err, domain.ErrIdentityNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if !VerifyPassword(password, cred.PasswordHash) {
		_ = s.identities.IncrementFailedLoginAttempts(ctx, identity.ID, lockoutDuration, maxFailedAttempts)
		return nil, domain.ErrInvalidCredentials
	}

	if identity.FailedLoginAttempts > 0 || identity.LockedUntil != nil {
		_ = s.identities.ResetFailedLoginAttempts(ctx, identity.ID)
	}

	if !identity.IsActive() {
		return nil, domain.ErrIdentityBlocked
	}

	var org *domain.Organization
	classification := domain.Classification{}
	if identity.OrganizationID != nil {
		org, err = s.organizations.GetByID(ctx, *identity.OrganizationID)
		if err != nil {
			if errors.Is(err, domain.ErrOrganizationNotFound) {
				return nil, domain.ErrOrganizationMissing
			}
			return nil, err
		}

		classification = domain.Classify(org, time.Now())
		if err := ClassificationError(classification); err != nil {
			return nil, err
		}
	}

	tokens, err := s.sessions.IssueSession(ctx, identity, org, opts)
	if err != nil {
		return nil, err
	}

	return &SignInResult{
		Identity:       identity,
		Organization:   org,
		Classification: classification,
		Tokens:         tokens,
	}, nil
}

// SelectOrganization binds an identity without a tenant to the given
// organization and reissues tokens bound to it. The organization is
// classified before anything is written.
func (s *SignInService) SelectOrganization(ctx context.Context, identityID, orgID uuid.UUID, opts IssueSessionOpts) (*SignInResult, error) {
	identity, err := s.identities.GetByID(ctx, identityID)
	if err != nil {
		return nil, err
	}
	if !identity.IsActive() {
		return nil, domain.ErrIdentityBlocked
	}
	if identity.OrganizationID != nil && *identity.OrganizationID != orgID {
		return nil, domain.ErrOrganizationNotSelectable
	}

	org, err := s.organizations.GetByID(ctx, orgID)
	if err != nil {
		if errors.Is(err, domain.ErrOrganizationNotFound) {
			return nil, domain.ErrOrganizationMissing
		}
		return nil, err
	}

	classification := domain.Classify(org, time.Now())
	if err := ClassificationError(classification); err != nil {
		return nil, err
	}

	if identity.OrganizationID == nil {
		if err := s.identities.UpdateOrganization(ctx, identity.ID, org.ID); err != nil {
			return nil, err
		}
		identity.OrganizationID = &org.ID
	}

	tokens, err := s.sessions.IssueSession(ctx, identity, org, opts)
	if err != nil {
		return nil, err
	}

	return &SignInResult{
		Identity:       identity,
		Organization:   org,
		Classification: classification,
		Tokens:         tokens,
	}, nil
}

// Register creates a new operator identity with password credentials.
// Both rows are written in one transaction.
func (s *SignInService) Register(ctx context.Context, email, password, name string, role domain.Role, orgID *uuid.UUID) (*domain.Identity, error) {
	email = NormalizeEmail(email)
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := s.policy.ValidatePassword(password); err != nil {
		return nil, err
	}
	if !role.IsValid() {
		role = domain.RoleAttendant
	}

	exists, err := s.identities.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrIdentityAlreadyExists
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	identity := &domain.Identity{
		ID:             uuid.New(),
		Email:          email,
		Name:           strings.TrimSpace(name),
		OrganizationID: orgID,
		Role:           role,
		Status:         domain.IdentityStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	cred := &domain.IdentityCredential{
		IdentityID:        identity.ID,
		PasswordHash:      hash,
		PasswordUpdatedAt: now,
	}

	err = repository.Tx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.identities.CreateTx(ctx, tx, identity); err != nil {
			return err
		}
		return s.credentials.CreateTx(ctx, tx, cred)
	})
	if err != nil {
		return nil, err
	}

	return identity, nil
}

// ValidateEmail checks the email is syntactically valid.
func ValidateEmail(email string) error {
	if email == "" {
		return domain.ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return domain.ErrInvalidEmail
	}
	return nil
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
