package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/gbp-politico/gabinete/pkg/domain"
)

// IdentitiesRepository handles operator account persistence.
type IdentitiesRepository struct {
	db *sql.DB
}

// NewIdentitiesRepository creates a new identities repository.
func NewIdentitiesRepository(db *sql.DB) *IdentitiesRepository {
	return &IdentitiesRepository{db: db}
}

const identityColumns = `
	id, email, name, organization_id, role, permissions, status,
	failed_login_attempts, locked_until, last_access_at,
	created_at, updated_at, deleted_at`

func scanIdentity(row *sql.Row) (*domain.Identity, error) {
	identity := &domain.Identity{}
	err := row.Scan(
		&identity.ID, &identity.Email, &identity.Name, &identity.OrganizationID,
		&identity.Role, pq.Array(&identity.Permissions), &identity.Status,
		&identity.FailedLoginAttempts, &identity.LockedUntil, &identity.LastAccessAt,
		&identity.CreatedAt, &identity.UpdatedAt, &identity.DeletedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrIdentityNotFound
	}
	if err != nil {
		return nil, err
	}
	return identity, nil
}

// Create creates a new identity.
func (r *IdentitiesRepository) Create(ctx context.Context, identity *domain.Identity) error {
	return r.CreateTx(ctx, r.db, identity)
}

// CreateTx creates a new identity within a transaction.
func (r *IdentitiesRepository) CreateTx(ctx context.Context, q Querier, identity *domain.Identity) error {
	query := `
		INSERT INTO identities (id, email, name, organization_id, role, permissions, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := q.ExecContext(ctx, query,
		identity.ID, identity.Email, identity.Name, identity.OrganizationID,
		identity.Role, pq.Array(identity.Permissions), identity.Status,
		identity.CreatedAt, identity.UpdatedAt,
	)
	return err
}

// GetByID retrieves an identity by ID.
func (r *IdentitiesRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Identity, error) {
	query := `SELECT` + identityColumns + `
		FROM identities
		WHERE id = $1 AND deleted_at IS NULL
	`
	return scanIdentity(r.db.QueryRowContext(ctx, query, id))
}

// GetByEmail retrieves an identity by email.
func (r *IdentitiesRepository) GetByEmail(ctx context.Context, email string) (*domain.Identity, error) {
	query := `SELECT` + identityColumns + `
		FROM identities
		WHERE email = $1 AND deleted_at IS NULL
	`
	return scanIdentity(r.db.QueryRowContext(ctx, query, email))
}

// ListByOrganization retrieves all identities of an organization.
func (r *IdentitiesRepository) ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]*domain.Identity, error) {
	query := `SELECT` + identityColumns + `
		FROM identities
		WHERE organization_id = $1 AND deleted_at IS NULL
		ORDER BY created_at ASC
	`
	rows, err := r.db.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var identities []*domain.Identity
	for rows.Next() {
		identity := &domain.Identity{}
		err := rows.Scan(
			&identity.ID, &identity.Email, &identity.Name, &identity.OrganizationID,
			&identity.Role, pq.Array(&identity.Permissions), &identity.Status,
			&identity.FailedLoginAttempts, &identity.LockedUntil, &identity.LastAccessAt,
			&identity.CreatedAt, &identity.UpdatedAt, &identity.DeletedAt,
		)
		if err != nil {
			return nil, err
		}
		identities = append(identities, identity)
	}
	return identities, rows.Err()
}

// ExistsByEmail checks if an identity exists by email.
func (r *IdentitiesRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM identities WHERE email = $1 AND deleted_at IS NULL)`
	var exists bool
	err := r.db.QueryRowContext(ctx, query, email).Scan(&exists)
	return exists, err
}

// UpdateStatus updates the status of an identity (block/unblock/activate).
func (r *IdentitiesRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.IdentityStatus) error {
	query := `
		UPDATE identities
		SET status = $2, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, id, status)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrIdentityNotFound
	}
	return nil
}

// UpdateOrganization binds an identity to an organization.
func (r *IdentitiesRepository) UpdateOrganization(ctx context.Context, id uuid.UUID, orgID uuid.UUID) error {
	query := `
		UPDATE identities
		SET organization_id = $2, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, id, orgID)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrIdentityNotFound
	}
	return nil
}

// TouchLastAccess records the time of the identity's latest authenticated access.
func (r *IdentitiesRepository) TouchLastAccess(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `
		UPDATE identities
		SET last_access_at = $2, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`
	_, err := r.db.ExecContext(ctx, query, id, at)
	return err
}

// IncrementFailedLoginAttempts bumps the failure counter and locks the
// account once maxAttempts is reached.
func (r *IdentitiesRepository) IncrementFailedLoginAttempts(ctx context.Context, id uuid.UUID, lockoutDuration time.Duration, maxAttempts int) error {
	query := `
		UPDATE identities
		SET failed_login_attempts = failed_login_attempts + 1,
		    locked_until = CASE
		        WHEN failed_login_attempts + 1 >= $2 THEN NOW() + $3::interval
		        ELSE locked_until
		    END,
		    updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`
	_, err := r.db.ExecContext(ctx, query, id, maxAttempts, lockoutDuration.String())
	return err
}

// ResetFailedLoginAttempts clears the failure counter and any lockout.
func (r *IdentitiesRepository) ResetFailedLoginAttempts(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE identities
		SET failed_login_attempts = 0,
		    locked_until = NULL,
		    updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

// SoftDelete soft-deletes an identity.
func (r *IdentitiesRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE identities
		SET deleted_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrIdentityNotFound
	}
	return nil
}
