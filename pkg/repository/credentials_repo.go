package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/gbp-politico/gabinete/pkg/domain"
)

// CredentialsRepository handles password credential persistence, kept in a
// separate table from identity profiles.
type CredentialsRepository struct {
	db *sql.DB
}

// NewCredentialsRepository creates a new credentials repository.
func NewCredentialsRepository(db *sql.DB) *CredentialsRepository {
	return &CredentialsRepository{db: db}
}

// CreateTx stores credentials for an identity within a transaction.
func (r *CredentialsRepository) CreateTx(ctx context.Context, q Querier, cred *domain.IdentityCredential) error {
	query := `
		INSERT INTO identity_credentials (identity_id, password_hash, password_updated_at)
		VALUES ($1, $2, $3)
	`
	_, err := q.ExecContext(ctx, query, cred.IdentityID, cred.PasswordHash, cred.PasswordUpdatedAt)
	return err
}

// GetByIdentityID retrieves credentials for an identity.
func (r *CredentialsRepository) GetByIdentityID(ctx context.Context, identityID uuid.UUID) (*domain.IdentityCredential, error) {
	query := `
		SELECT identity_id, password_hash, password_updated_at
		FROM identity_credentials
		WHERE identity_id = $1
	`
	cred := &domain.IdentityCredential{}
	err := r.db.QueryRowContext(ctx, query, identityID).Scan(
		&cred.IdentityID, &cred.PasswordHash, &cred.PasswordUpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrIdentityNotFound
	}
	if err != nil {
		return nil, err
	}
	return cred, nil
}

// Update replaces the stored password hash.
func (r *CredentialsRepository) Update(ctx context.Context, cred *domain.IdentityCredential) error {
	query := `
		UPDATE identity_credentials
		SET password_hash = $2, password_updated_at = NOW()
		WHERE identity_id = $1
	`
	result, err := r.db.ExecContext(ctx, query, cred.IdentityID, cred.PasswordHash)
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
