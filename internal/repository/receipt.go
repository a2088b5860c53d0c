package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/vkarev/bank-core/internal/models"
)

const receiptColumns = `id, user_id, transaction_type, amount, reference_number, description, from_account, to_account, recipient_name, status, created_at`

// CreateReceipt persists a new receipt. Returns models.ErrDuplicate when the
// reference number collides with an existing one; the insert runs in a
// savepoint so callers can regenerate the reference and retry inside an open
// transaction.
func (r *Repository) CreateReceipt(ctx context.Context, receipt *models.Receipt) error {
	return r.withSavepoint(ctx, "create_receipt", func() error {
		query := `
			INSERT INTO bank.receipts (id, user_id, transaction_type, amount, reference_number, description, from_account, to_account, recipient_name, status, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, CURRENT_TIMESTAMP)
			RETURNING created_at`
		err := r.q(ctx).QueryRowContext(ctx, query,
			receipt.ID, receipt.UserID, receipt.TransactionType, receipt.Amount,
			receipt.ReferenceNumber, receipt.Description, receipt.FromAccount,
			receipt.ToAccount, receipt.RecipientName, receipt.Status).
			Scan(&receipt.CreatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return models.ErrDuplicate
			}
			return fmt.Errorf("failed to create receipt: %w", err)
		}
		return nil
	})
}

// FindReceiptByID retrieves a receipt by id.
func (r *Repository) FindReceiptByID(ctx context.Context, id uuid.UUID) (*models.Receipt, error) {
	receipt := &models.Receipt{}
	query := `SELECT ` + receiptColumns + ` FROM bank.receipts WHERE id = $1`
	err := r.q(ctx).QueryRowContext(ctx, query, id).
		Scan(&receipt.ID, &receipt.UserID, &receipt.TransactionType, &receipt.Amount,
			&receipt.ReferenceNumber, &receipt.Description, &receipt.FromAccount,
			&receipt.ToAccount, &receipt.RecipientName, &receipt.Status, &receipt.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find receipt: %w", err)
	}
	return receipt, nil
}

// ListReceipts returns all receipts of a user, newest first.
func (r *Repository) ListReceipts(ctx context.Context, userID uuid.UUID) ([]models.Receipt, error) {
	query := `
		SELECT ` + receiptColumns + `
		FROM bank.receipts
		WHERE user_id = $1
		ORDER BY created_at DESC`
	rows, err := r.q(ctx).QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list receipts: %w", err)
	}
	defer rows.Close()
	var out []models.Receipt
	for rows.Next() {
		var rc models.Receipt
		if err := rows.Scan(&rc.ID, &rc.UserID, &rc.TransactionType, &rc.Amount,
			&rc.ReferenceNumber, &rc.Description, &rc.FromAccount,
			&rc.ToAccount, &rc.RecipientName, &rc.Status, &rc.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan receipt: %w", err)
		}
		out = append(out, rc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read receipts: %w", err)
	}
	return out, nil
}
