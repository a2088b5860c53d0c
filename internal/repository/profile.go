package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/vkarev/bank-core/internal/models"
)

const profileUpdateColumns = `id, user_id, first_name, last_name, phone, status, reviewed_by, reviewed_at, rejection_reason, requested_at`

func scanProfileUpdate(row *sql.Row) (*models.ProfileUpdate, error) {
	p := &models.ProfileUpdate{}
	err := row.Scan(&p.ID, &p.UserID, &p.FirstName, &p.LastName, &p.Phone, &p.Status,
		&p.ReviewedBy, &p.ReviewedAt, &p.RejectionReason, &p.RequestedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan profile update: %w", err)
	}
	return p, nil
}

// CreateProfileUpdate stores a staged profile change request.
func (r *Repository) CreateProfileUpdate(ctx context.Context, p *models.ProfileUpdate) error {
	query := `
		INSERT INTO bank.profile_updates (id, user_id, first_name, last_name, phone, status, requested_at)
		VALUES ($1, $2, $3, $4, $5, $6, CURRENT_TIMESTAMP)
		RETURNING requested_at`
	err := r.q(ctx).QueryRowContext(ctx, query,
		p.ID, p.UserID, p.FirstName, p.LastName, p.Phone, p.Status).
		Scan(&p.RequestedAt)
	if err != nil {
		return fmt.Errorf("failed to create profile update: %w", err)
	}
	return nil
}

// FindProfileUpdateByID retrieves a profile update request by id.
func (r *Repository) FindProfileUpdateByID(ctx context.Context, id uuid.UUID) (*models.ProfileUpdate, error) {
	query := `SELECT ` + profileUpdateColumns + ` FROM bank.profile_updates WHERE id = $1`
	return scanProfileUpdate(r.q(ctx).QueryRowContext(ctx, query, id))
}

// FindPendingProfileUpdate returns the user's pending request, if any.
func (r *Repository) FindPendingProfileUpdate(ctx context.Context, userID uuid.UUID) (*models.ProfileUpdate, error) {
	query := `
		SELECT ` + profileUpdateColumns + `
		FROM bank.profile_updates
		WHERE user_id = $1 AND status = $2
		ORDER BY requested_at DESC
		LIMIT 1`
	return scanProfileUpdate(r.q(ctx).QueryRowContext(ctx, query, userID, models.ApplicationPending))
}

// UpdateProfileUpdate persists the staged fields or a review decision.
func (r *Repository) UpdateProfileUpdate(ctx context.Context, p *models.ProfileUpdate) error {
	query := `
		UPDATE bank.profile_updates
		SET first_name = $2, last_name = $3, phone = $4, status = $5,
			reviewed_by = $6, reviewed_at = $7, rejection_reason = $8, requested_at = $9
		WHERE id = $1`
	res, err := r.q(ctx).ExecContext(ctx, query,
		p.ID, p.FirstName, p.LastName, p.Phone, p.Status,
		p.ReviewedBy, p.ReviewedAt, p.RejectionReason, p.RequestedAt)
	if err != nil {
		return fmt.Errorf("failed to update profile update: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}
	return nil
}
