package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/gbp-politico/gabinete/pkg/domain"
)

// OrganizationsRepository handles tenant persistence.
type OrganizationsRepository struct {
	db *sql.DB
}

// NewOrganizationsRepository creates a new organizations repository.
func NewOrganizationsRepository(db *sql.DB) *OrganizationsRepository {
	return &OrganizationsRepository{db: db}
}

const organizationColumns = `
	id, name, slug, subscription_status, trial_expires_at,
	contact_email, contact_phone, created_at, updated_at, deleted_at`

func scanOrganization(row *sql.Row) (*domain.Organization, error) {
	org := &domain.Organization{}
	err := row.Scan(
		&org.ID, &org.Name, &org.Slug, &org.Subscription, &org.TrialExpiresAt,
		&org.ContactEmail, &org.ContactPhone, &org.CreatedAt, &org.UpdatedAt, &org.DeletedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrOrganizationNotFound
	}
	if err != nil {
		return nil, err
	}
	return org, nil
}

// Create creates a new organization.
func (r *OrganizationsRepository) Create(ctx context.Context, org *domain.Organization) error {
	return r.CreateTx(ctx, r.db, org)
}

// CreateTx creates a new organization within a transaction.
func (r *OrganizationsRepository) CreateTx(ctx context.Context, q Querier, org *domain.Organization) error {
	query := `
		INSERT INTO organizations (id, name, slug, subscription_status, trial_expires_at, contact_email, contact_phone, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := q.ExecContext(ctx, query,
		org.ID, org.Name, org.Slug, org.Subscription, org.TrialExpiresAt,
		org.ContactEmail, org.ContactPhone, org.CreatedAt, org.UpdatedAt,
	)
	return err
}

// GetByID retrieves an organization by ID.
func (r *OrganizationsRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Organization, error) {
	query := `SELECT` + organizationColumns + `
		FROM organizations
		WHERE id = $1 AND deleted_at IS NULL
	`
	return scanOrganization(r.db.QueryRowContext(ctx, query, id))
}

// GetBySlug retrieves an organization by slug.
func (r *OrganizationsRepository) GetBySlug(ctx context.Context, slug string) (*domain.Organization, error) {
	query := `SELECT` + organizationColumns + `
		FROM organizations
		WHERE slug = $1 AND deleted_at IS NULL
	`
	return scanOrganization(r.db.QueryRowContext(ctx, query, slug))
}

// UpdateSubscription changes the subscription status and trial expiry.
// Cancellation goes through here; organizations are never hard-deleted by
// the normal flow.
func (r *OrganizationsRepository) UpdateSubscription(ctx context.Context, id uuid.UUID, status domain.SubscriptionStatus, trialExpiresAt *time.Time) error {
	query := `
		UPDATE organizations
		SET subscription_status = $2, trial_expires_at = $3, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, id, status, trialExpiresAt)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrOrganizationNotFound
	}
	return nil
}

// Update updates an organization's profile fields.
func (r *OrganizationsRepository) Update(ctx context.Context, org *domain.Organization) error {
	query := `
		UPDATE organizations
		SET name = $2, slug = $3, contact_email = $4, contact_phone = $5, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query,
		org.ID, org.Name, org.Slug, org.ContactEmail, org.ContactPhone,
	)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrOrganizationNotFound
	}
	return nil
}
