package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/gbp-politico/gabinete/pkg/domain"
)

// VotersRepository handles voter registry persistence. Every query is
// scoped by organization; a voter row is unreachable from any other tenant.
type VotersRepository struct {
	db *sql.DB
}

// NewVotersRepository creates a new voters repository.
func NewVotersRepository(db *sql.DB) *VotersRepository {
	return &VotersRepository{db: db}
}

const voterColumns = `
	id, organization_id, name, email, phone, document,
	city, neighborhood, notes, created_at, updated_at, deleted_at`

// Create creates a new voter.
func (r *VotersRepository) Create(ctx context.Context, voter *domain.Voter) error {
	query := `
		INSERT INTO voters (id, organization_id, name, email, phone, document, city, neighborhood, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.db.ExecContext(ctx, query,
		voter.ID, voter.OrganizationID, voter.Name, voter.Email, voter.Phone,
		voter.Document, voter.City, voter.Neighborhood, voter.Notes,
		voter.CreatedAt, voter.UpdatedAt,
	)
	return err
}

// GetByID retrieves a voter by ID within an organization.
func (r *VotersRepository) GetByID(ctx context.Context, orgID, id uuid.UUID) (*domain.Voter, error) {
	query := `SELECT` + voterColumns + `
		FROM voters
		WHERE id = $1 AND organization_id = $2 AND deleted_at IS NULL
	`
	voter := &domain.Voter{}
	err := r.db.QueryRowContext(ctx, query, id, orgID).Scan(
		&voter.ID, &voter.OrganizationID, &voter.Name, &voter.Email, &voter.Phone,
		&voter.Document, &voter.City, &voter.Neighborhood, &voter.Notes,
		&voter.CreatedAt, &voter.UpdatedAt, &voter.DeletedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrVoterNotFound
	}
	if err != nil {
		return nil, err
	}
	return voter, nil
}

// List retrieves a page of an organization's voters, newest first.
func (r *VotersRepository) List(ctx context.Context, orgID uuid.UUID, limit, offset int) ([]*domain.Voter, error) {
	query := `SELECT` + voterColumns + `
		FROM voters
		WHERE organization_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.QueryContext(ctx, query, orgID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var voters []*domain.Voter
	for rows.Next() {
		voter := &domain.Voter{}
		err := rows.Scan(
			&voter.ID, &voter.OrganizationID, &voter.Name, &voter.Email, &voter.Phone,
			&voter.Document, &voter.City, &voter.Neighborhood, &voter.Notes,
			&voter.CreatedAt, &voter.UpdatedAt, &voter.DeletedAt,
		)
		if err != nil {
			return nil, err
		}
		voters = append(voters, voter)
	}
	return voters, rows.Err()
}

// CountByOrganization returns the number of live voters in an organization.
func (r *VotersRepository) CountByOrganization(ctx context.Context, orgID uuid.UUID) (int, error) {
	query := `SELECT COUNT(*) FROM voters WHERE organization_id = $1 AND deleted_at IS NULL`
	var count int
	err := r.db.QueryRowContext(ctx, query, orgID).Scan(&count)
	return count, err
}

// Update updates a voter's fields within an organization.
func (r *VotersRepository) Update(ctx context.Context, voter *domain.Voter) error {
	query := `
		UPDATE voters
		SET name = $3, email = $4, phone = $5, document = $6,
		    city = $7, neighborhood = $8, notes = $9, updated_at = NOW()
		WHERE id = $1 AND organization_id = $2 AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query,
		voter.ID, voter.OrganizationID, voter.Name, voter.Email, voter.Phone,
		voter.Document, voter.City, voter.Neighborhood, voter.Notes,
	)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrVoterNotFound
	}
	return nil
}

// SoftDelete soft-deletes a voter within an organization.
func (r *VotersRepository) SoftDelete(ctx context.Context, orgID, id uuid.UUID) error {
	query := `
		UPDATE voters
		SET deleted_at = NOW()
		WHERE id = $1 AND organization_id = $2 AND deleted_at IS NULL
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
		return domain.ErrVoterNotFound
	}
	return nil
}
