package auth

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"

	"github.com/gbp-politico/gabinete/pkg/domain"
	"github.com/gbp-politico/gabinete/pkg/repository"
)

func newSignInFixture(t *testing.T) (*SignInService, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	identities := repository.NewIdentitiesRepository(db)
	credentials := repository.NewCredentialsRepository(db)
	organizations := repository.NewOrganizationsRepository(db)
	sessions := NewSessionService(SessionConfig{
		JWTSecret: []byte("test-secret-key-of-sufficient-len"),
		Issuer:    "gabinete-test",
	}, repository.NewSessionsRepository(db), identities, organizations)

	svc := NewSignInService(db, identities, credentials, organizations, sessions, nil)
	return svc, mock, db
}

func identityRows(id uuid.UUID, email string, orgID *uuid.UUID, status domain.IdentityStatus) *sqlmock.Rows {
	now := time.Now()
	var org any
	if orgID != nil {
		org = orgID.String()
	}
	return sqlmock.NewRows([]string{
		"id", "email", "name", "organization_id", "role", "permissions", "status",
		"failed_login_attempts", "locked_until", "last_access_at",
		"created_at", "updated_at", "deleted_at",
	}).AddRow(id.String(), email, "Maria Silva", org, "assessor", "{}", string(status), 0, nil, nil, now, now, nil)
}

func organizationRows(id uuid.UUID, status domain.SubscriptionStatus, trialExpiresAt *time.Time) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "name", "slug", "subscription_status", "trial_expires_at",
		"contact_email", "contact_phone", "created_at", "updated_at", "deleted_at",
	}).AddRow(id.String(), "Gabinete Central", "gabinete-central", string(status), trialExpiresAt, "contato@example.com", "", now, now, nil)
}

func credentialRows(t *testing.T, identityID uuid.UUID, password string) *sqlmock.Rows {
	t.Helper()
	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	return sqlmock.NewRows([]string{"identity_id", "password_hash", "password_updated_at"}).
		AddRow(identityID.String(), hash, time.Now())
}

func TestSignIn_Success(t *testing.T) {
	svc, mock, _ := newSignInFixture(t)

	identityID := uuid.New()
	orgID := uuid.New()

	mock.ExpectQuery("FROM identities").WithArgs("maria@example.com").
		WillReturnRows(identityRows(identityID, "maria@example.com", &orgID, domain.IdentityStatusActive))
	mock.ExpectQuery("FROM identity_credentials").WithArgs(identityID.String()).
		WillReturnRows(credentialRows(t, identityID, "senha-forte-123"))
	mock.ExpectQuery("FROM organizations").WithArgs(orgID.String()).
		WillReturnRows(organizationRows(orgID, domain.SubscriptionActive, nil))
	mock.ExpectExec("INSERT INTO sessions").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE identities").
		WillReturnResult(sqlmock.NewResult(0, 1))

	result, err := svc.SignIn(context.Background(), "Maria@Example.com", "senha-forte-123", IssueSessionOpts{})
	if err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}

	if result.Tokens == nil || result.Tokens.AccessToken == "" || result.Tokens.RefreshToken == "" {
		t.Fatal("expected a full token pair")
	}
	if result.Classification.Class != domain.ClassActive {
		t.Errorf("classification = %v, want active", result.Classification.Class)
	}
	if result.Organization == nil || result.Organization.ID != orgID {
		t.Error("organization should be populated on success")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestSignIn_WrongPassword(t *testing.T) {
	svc, mock, _ := newSignInFixture(t)

	identityID := uuid.New()
	orgID := uuid.New()

	mock.ExpectQuery("FROM identities").
		WillReturnRows(identityRows(identityID, "maria@example.com", &orgID, domain.IdentityStatusActive))
	mock.ExpectQuery("FROM identity_credentials").
		WillReturnRows(credentialRows(t, identityID, "the-real-password"))
	mock.ExpectExec("UPDATE identities").
		WillReturnResult(sqlmock.NewResult(0, 1))

	_, err := svc.SignIn(context.Background(), "maria@example.com", "not-the-password", IssueSessionOpts{})
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("failed attempt should be recorded: %v", err)
	}
}

func TestSignIn_UnknownEmail(t *testing.T) {
	svc, mock, _ := newSignInFixture(t)

	mock.ExpectQuery("FROM identities").WillReturnError(sql.ErrNoRows)

	_, err := svc.SignIn(context.Background(), "ghost@example.com", "whatever", IssueSessionOpts{})
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
}

func TestSignIn_BlockedIdentity(t *testing.T) {
	svc, mock, _ := newSignInFixture(t)

	identityID := uuid.New()
	orgID := uuid.New()

	mock.ExpectQuery("FROM identities").
		WillReturnRows(identityRows(identityID, "maria@example.com", &orgID, domain.IdentityStatusBlocked))
	mock.ExpectQuery("FROM identity_credentials").
		WillReturnRows(credentialRows(t, identityID, "senha-forte-123"))

	_, err := svc.SignIn(context.Background(), "maria@example.com", "senha-forte-123", IssueSessionOpts{})
	if !errors.Is(err, domain.ErrIdentityBlocked) {
		t.Fatalf("err = %v, want ErrIdentityBlocked", err)
	}
}

func TestSignIn_OrganizationOutcomes(t *testing.T) {
	past := time.Now().Add(-24 * time.Hour)

	tests := []struct {
		name    string
		status  domain.SubscriptionStatus
		expiry  *time.Time
		missing bool
		wantErr error
	}{
		{name: "cancelled organization", status: domain.SubscriptionCancelled, wantErr: domain.ErrOrganizationBlocked},
		{name: "expired trial", status: domain.SubscriptionTrial, expiry: &past, wantErr: domain.ErrTrialExpired},
		{name: "unrecognized status", status: domain.SubscriptionStatus("suspended"), wantErr: domain.ErrUnknownClassification},
		{name: "organization row missing", missing: true, wantErr: domain.ErrOrganizationMissing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, mock, _ := newSignInFixture(t)

			identityID := uuid.New()
			orgID := uuid.New()

			mock.ExpectQuery("FROM identities").
				WillReturnRows(identityRows(identityID, "maria@example.com", &orgID, domain.IdentityStatusActive))
			mock.ExpectQuery("FROM identity_credentials").
				WillReturnRows(credentialRows(t, identityID, "senha-forte-123"))
			if tt.missing {
				mock.ExpectQuery("FROM organizations").WillReturnError(sql.ErrNoRows)
			} else {
				mock.ExpectQuery("FROM organizations").
					WillReturnRows(organizationRows(orgID, tt.status, tt.expiry))
			}

			_, err := svc.SignIn(context.Background(), "maria@example.com", "senha-forte-123", IssueSessionOpts{})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}

			// No session insert was expected: a blocked sign-in must leave
			// no partial state behind.
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("unmet expectations: %v", err)
			}
		})
	}
}

func TestSignIn_NoOrganizationStillSignsIn(t *testing.T) {
	svc, mock, _ := newSignInFixture(t)

	identityID := uuid.New()

	mock.ExpectQuery("FROM identities").
		WillReturnRows(identityRows(identityID, "novo@example.com", nil, domain.IdentityStatusActive))
	mock.ExpectQuery("FROM identity_credentials").
		WillReturnRows(credentialRows(t, identityID, "senha-forte-123"))
	mock.ExpectExec("INSERT INTO sessions").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE identities").
		WillReturnResult(sqlmock.NewResult(0, 1))

	result, err := svc.SignIn(context.Background(), "novo@example.com", "senha-forte-123", IssueSessionOpts{})
	if err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	if result.Organization != nil {
		t.Error("identity without a tenant should sign in with no organization")
	}

	// The gate will steer this session to the organization picker.
	claims, err := svc.sessions.ValidateAccessToken(result.Tokens.AccessToken)
	if err != nil {
		t.Fatalf("ValidateAccessToken: %v", err)
	}
	if claims.OrganizationID != "" {
		t.Errorf("organization claim should be empty, got %q", claims.OrganizationID)
	}
}

func TestSignIn_InvalidInput(t *testing.T) {
	svc, _, _ := newSignInFixture(t)

	if _, err := svc.SignIn(context.Background(), "not-an-email", "x", IssueSessionOpts{}); !errors.Is(err, domain.ErrInvalidEmail) {
		t.Errorf("bad email: err = %v, want ErrInvalidEmail", err)
	}
	if _, err := svc.SignIn(context.Background(), "maria@example.com", "", IssueSessionOpts{}); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("empty password: err = %v, want ErrInvalidCredentials", err)
	}
}
