package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/vkarev/bank-core/internal/models"
)

const cardApplicationColumns = `id, user_id, card_type, purpose, status, reviewed_by, reviewed_at, rejection_reason, created_at, updated_at`

func scanCardApplication(row *sql.Row) (*models.CardApplication, error) {
	app := &models.CardApplication{}
	err := row.Scan(&app.ID, &app.UserID, &app.CardType, &app.Purpose, &app.Status,
		&app.ReviewedBy, &app.ReviewedAt, &app.RejectionReason, &app.CreatedAt, &app.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan card application: %w", err)
	}
	return app, nil
}

// CreateCardApplication stores a new card application.
func (r *Repository) CreateCardApplication(ctx context.Context, app *models.CardApplication) error {
	query := `
		INSERT INTO bank.card_applications (id, user_id, card_type, purpose, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING created_at, updated_at`
	err := r.q(ctx).QueryRowContext(ctx, query,
		app.ID, app.UserID, app.CardType, app.Purpose, app.Status).
		Scan(&app.CreatedAt, &app.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create card application: %w", err)
	}
	return nil
}

// FindCardApplicationByID retrieves a card application by id.
func (r *Repository) FindCardApplicationByID(ctx context.Context, id uuid.UUID) (*models.CardApplication, error) {
	query := `SELECT ` + cardApplicationColumns + ` FROM bank.card_applications WHERE id = $1`
	return scanCardApplication(r.q(ctx).QueryRowContext(ctx, query, id))
}

// FindOpenCardApplication returns the user's pending or approved application,
// if any. A user has at most one open application at a time.
func (r *Repository) FindOpenCardApplication(ctx context.Context, userID uuid.UUID) (*models.CardApplication, error) {
	query := `
		SELECT ` + cardApplicationColumns + `
		FROM bank.card_applications
		WHERE user_id = $1 AND status IN ($2, $3)
		ORDER BY created_at DESC
		LIMIT 1`
	return scanCardApplication(r.q(ctx).QueryRowContext(ctx, query, userID,
		models.ApplicationPending, models.ApplicationApproved))
}

// UpdateCardApplication persists a review decision on an application.
func (r *Repository) UpdateCardApplication(ctx context.Context, app *models.CardApplication) error {
	query := `
		UPDATE bank.card_applications
		SET status = $2, reviewed_by = $3, reviewed_at = $4, rejection_reason = $5, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1`
	res, err := r.q(ctx).ExecContext(ctx, query,
		app.ID, app.Status, app.ReviewedBy, app.ReviewedAt, app.RejectionReason)
	if err != nil {
		return fmt.Errorf("failed to update card application: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}
	return nil
}

const debitCardColumns = `id, user_id, card_number, card_holder_name, expiry_date, cvv_hash, hmac, status, fee_paid, fee_amount, issued_at, created_at`

// CreateDebitCard stores a newly created card.
func (r *Repository) CreateDebitCard(ctx context.Context, card *models.DebitCard) error {
	query := `
		INSERT INTO bank.debit_cards (id, user_id, card_number, card_holder_name, expiry_date, cvv_hash, hmac, status, fee_paid, fee_amount, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, CURRENT_TIMESTAMP)
		RETURNING created_at`
	err := r.q(ctx).QueryRowContext(ctx, query,
		card.ID, card.UserID, card.CardNumber, card.CardHolderName, card.ExpiryDate,
		card.CVVHash, card.HMAC, card.Status, card.FeePaid, card.FeeAmount).
		Scan(&card.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return models.ErrDuplicate
		}
		return fmt.Errorf("failed to create debit card: %w", err)
	}
	return nil
}

// FindDebitCardByUserID retrieves the user's card.
func (r *Repository) FindDebitCardByUserID(ctx context.Context, userID uuid.UUID) (*models.DebitCard, error) {
	card := &models.DebitCard{}
	query := `SELECT ` + debitCardColumns + ` FROM bank.debit_cards WHERE user_id = $1`
	err := r.q(ctx).QueryRowContext(ctx, query, userID).
		Scan(&card.ID, &card.UserID, &card.CardNumber, &card.CardHolderName, &card.ExpiryDate,
			&card.CVVHash, &card.HMAC, &card.Status, &card.FeePaid, &card.FeeAmount,
			&card.IssuedAt, &card.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find debit card: %w", err)
	}
	return card, nil
}

// UpdateDebitCard persists status and fee fields of a card.
func (r *Repository) UpdateDebitCard(ctx context.Context, card *models.DebitCard) error {
	query := `
		UPDATE bank.debit_cards
		SET status = $2, fee_paid = $3, issued_at = $4
		WHERE id = $1`
	res, err := r.q(ctx).ExecContext(ctx, query, card.ID, card.Status, card.FeePaid, card.IssuedAt)
	if err != nil {
		return fmt.Errorf("failed to update debit card: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}
	return nil
}
