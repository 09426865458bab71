package postgres

import (
	"context"
	"database/sql"
	"errors"

	"marketplace/internal/domain"
	"marketplace/internal/repository"
)

// BusinessRepository is a PostgreSQL implementation of repository.BusinessRepository.
type BusinessRepository struct {
	q Querier
}

// NewBusinessRepository creates a new PostgreSQL business repository.
func NewBusinessRepository(db *sql.DB) *BusinessRepository {
	return &BusinessRepository{q: db}
}

// GetByID retrieves a business by ID, excluding soft-deleted rows.
func (r *BusinessRepository) GetByID(ctx context.Context, id string) (*domain.Business, error) {
	query := `
		SELECT id, user_id, name, created_at, updated_at
		FROM businesses WHERE id = $1 AND is_deleted = FALSE
	`

	var business domain.Business
	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&business.ID,
		&business.UserID,
		&business.Name,
		&business.CreatedAt,
		&business.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return &business, nil
}
