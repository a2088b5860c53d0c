package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/vkarev/bank-core/internal/models"
)

// CreateBillPayment persists a completed or failed bill payment.
func (r *Repository) CreateBillPayment(ctx context.Context, b *models.BillPayment) error {
	query := `
		INSERT INTO bank.bill_payments (id, user_id, bill_type, provider_name, provider_account, amount, status, reference_number, due_date, paid_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, CURRENT_TIMESTAMP)
		RETURNING created_at`
	err := r.q(ctx).QueryRowContext(ctx, query,
		b.ID, b.UserID, b.BillType, b.ProviderName, b.ProviderAccount,
		b.Amount, b.Status, b.ReferenceNumber, b.DueDate, b.PaidAt).
		Scan(&b.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return models.ErrDuplicate
		}
		return fmt.Errorf("failed to create bill payment: %w", err)
	}
	return nil
}

// ListBillPayments returns all bill payments of a user, newest first.
func (r *Repository) ListBillPayments(ctx context.Context, userID uuid.UUID) ([]models.BillPayment, error) {
	query := `
		SELECT id, user_id, bill_type, provider_name, provider_account, amount, status, reference_number, due_date, paid_at, created_at
		FROM bank.bill_payments
		WHERE user_id = $1
		ORDER BY created_at DESC`
	rows, err := r.q(ctx).QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bill payments: %w", err)
	}
	defer rows.Close()
	var out []models.BillPayment
	for rows.Next() {
		var b models.BillPayment
		if err := rows.Scan(&b.ID, &b.UserID, &b.BillType, &b.ProviderName, &b.ProviderAccount,
			&b.Amount, &b.Status, &b.ReferenceNumber, &b.DueDate, &b.PaidAt, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan bill payment: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read bill payments: %w", err)
	}
	return out, nil
}

// CreateStatement persists a statement request together with its summary.
func (r *Repository) CreateStatement(ctx context.Context, s *models.BankStatement) error {
	query := `
		INSERT INTO bank.statements (id, user_id, start_date, end_date, status, format_type, transaction_count, opening_balance, closing_balance, requested_at, generated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, CURRENT_TIMESTAMP, $10)
		RETURNING requested_at`
	err := r.q(ctx).QueryRowContext(ctx, query,
		s.ID, s.UserID, s.StartDate, s.EndDate, s.Status, s.FormatType,
		s.TransactionCount, s.OpeningBalance, s.ClosingBalance, s.GeneratedAt).
		Scan(&s.RequestedAt)
	if err != nil {
		return fmt.Errorf("failed to create statement: %w", err)
	}
	return nil
}

// ListStatements returns all statement requests of a user, newest first.
func (r *Repository) ListStatements(ctx context.Context, userID uuid.UUID) ([]models.BankStatement, error) {
	query := `
		SELECT id, user_id, start_date, end_date, status, format_type, transaction_count, opening_balance, closing_balance, requested_at, generated_at
		FROM bank.statements
		WHERE user_id = $1
		ORDER BY requested_at DESC`
	rows, err := r.q(ctx).QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list statements: %w", err)
	}
	defer rows.Close()
	var out []models.BankStatement
	for rows.Next() {
		var s models.BankStatement
		if err := rows.Scan(&s.ID, &s.UserID, &s.StartDate, &s.EndDate, &s.Status, &s.FormatType,
			&s.TransactionCount, &s.OpeningBalance, &s.ClosingBalance, &s.RequestedAt, &s.GeneratedAt); err != nil {
			return nil, fmt.Errorf("failed to scan statement: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read statements: %w", err)
	}
	return out, nil
}
