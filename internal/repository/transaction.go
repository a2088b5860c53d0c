package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vkarev/bank-core/internal/models"
)

const transactionColumns = `id, account_id, amount, type, description, receipt_id, created_at`

func scanTransactions(rows *sql.Rows) ([]models.Transaction, error) {
	defer rows.Close()
	var out []models.Transaction
	for rows.Next() {
		var t models.Transaction
		if err := rows.Scan(&t.ID, &t.AccountID, &t.Amount, &t.Type, &t.Description, &t.ReceiptID, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read transactions: %w", err)
	}
	return out, nil
}

// CreateTransaction appends an immutable transaction record.
func (r *Repository) CreateTransaction(ctx context.Context, t *models.Transaction) error {
	query := `
		INSERT INTO bank.transactions (id, account_id, amount, type, description, receipt_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, CURRENT_TIMESTAMP)
		RETURNING created_at`
	err := r.q(ctx).QueryRowContext(ctx, query,
		t.ID, t.AccountID, t.Amount, t.Type, t.Description, t.ReceiptID).
		Scan(&t.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

// LinkReceipt sets the receipt back-link on a transaction. The link can only
// be set once; transactions are otherwise immutable.
func (r *Repository) LinkReceipt(ctx context.Context, transactionID, receiptID uuid.UUID) error {
	query := `
		UPDATE bank.transactions
		SET receipt_id = $2
		WHERE id = $1 AND receipt_id IS NULL`
	res, err := r.q(ctx).ExecContext(ctx, query, transactionID, receiptID)
	if err != nil {
		return fmt.Errorf("failed to link receipt: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrInvalidState
	}
	return nil
}

// ListTransactions returns the most recent transactions of an account.
func (r *Repository) ListTransactions(ctx context.Context, accountID uuid.UUID, limit int) ([]models.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM bank.transactions
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2`
	rows, err := r.q(ctx).QueryContext(ctx, query, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return scanTransactions(rows)
}

// ListTransactionsInPeriod returns an account's transactions between from and
// to (inclusive), oldest first. Used for statement generation.
func (r *Repository) ListTransactionsInPeriod(ctx context.Context, accountID uuid.UUID, from, to time.Time) ([]models.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM bank.transactions
		WHERE account_id = $1 AND created_at >= $2 AND created_at <= $3
		ORDER BY created_at ASC`
	rows, err := r.q(ctx).QueryContext(ctx, query, accountID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions in period: %w", err)
	}
	return scanTransactions(rows)
}

// ListUnlinkedTransfers returns sender-side transfer legs created before the
// cutoff that never received a receipt link. Used by the reconciliation sweep.
func (r *Repository) ListUnlinkedTransfers(ctx context.Context, before time.Time) ([]models.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM bank.transactions
		WHERE type = $1 AND receipt_id IS NULL AND description LIKE 'Sent to %' AND created_at < $2
		ORDER BY created_at ASC`
	rows, err := r.q(ctx).QueryContext(ctx, query, models.TransactionTransfer, before)
	if err != nil {
		return nil, fmt.Errorf("failed to list unlinked transfers: %w", err)
	}
	return scanTransactions(rows)
}
