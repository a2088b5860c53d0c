package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vkarev/bank-core/internal/models"
)

const loanColumns = `id, user_id, loan_type, amount, interest_rate, term_months, status, purpose,
	employment_status, annual_income, monthly_payment, total_repayment,
	reviewed_by, reviewed_at, rejection_reason, disbursed_amount, disbursed_at, next_payment_due,
	created_at, updated_at`

func scanLoanRow(row *sql.Row) (*models.Loan, error) {
	loan := &models.Loan{}
	err := row.Scan(&loan.ID, &loan.UserID, &loan.LoanType, &loan.Amount, &loan.InterestRate,
		&loan.TermMonths, &loan.Status, &loan.Purpose, &loan.EmploymentStatus, &loan.AnnualIncome,
		&loan.MonthlyPayment, &loan.TotalRepayment, &loan.ReviewedBy, &loan.ReviewedAt,
		&loan.RejectionReason, &loan.DisbursedAmount, &loan.DisbursedAt, &loan.NextPaymentDue,
		&loan.CreatedAt, &loan.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan loan: %w", err)
	}
	return loan, nil
}

// CreateLoan stores a new loan application.
func (r *Repository) CreateLoan(ctx context.Context, loan *models.Loan) error {
	query := `
		INSERT INTO bank.loans (id, user_id, loan_type, amount, interest_rate, term_months, status, purpose,
			employment_status, annual_income, monthly_payment, total_repayment, disbursed_amount, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING created_at, updated_at`
	err := r.q(ctx).QueryRowContext(ctx, query,
		loan.ID, loan.UserID, loan.LoanType, loan.Amount, loan.InterestRate, loan.TermMonths,
		loan.Status, loan.Purpose, loan.EmploymentStatus, loan.AnnualIncome,
		loan.MonthlyPayment, loan.TotalRepayment, loan.DisbursedAmount).
		Scan(&loan.CreatedAt, &loan.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create loan: %w", err)
	}
	return nil
}

// FindLoanByID retrieves a loan by id.
func (r *Repository) FindLoanByID(ctx context.Context, id uuid.UUID) (*models.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM bank.loans WHERE id = $1`
	return scanLoanRow(r.q(ctx).QueryRowContext(ctx, query, id))
}

// FindOpenLoan returns the user's pending or approved loan, if any.
func (r *Repository) FindOpenLoan(ctx context.Context, userID uuid.UUID) (*models.Loan, error) {
	query := `
		SELECT ` + loanColumns + `
		FROM bank.loans
		WHERE user_id = $1 AND status IN ($2, $3)
		ORDER BY created_at DESC
		LIMIT 1`
	return scanLoanRow(r.q(ctx).QueryRowContext(ctx, query, userID,
		models.LoanStatusPending, models.LoanStatusApproved))
}

// UpdateLoan persists review and disbursement fields of a loan.
func (r *Repository) UpdateLoan(ctx context.Context, loan *models.Loan) error {
	query := `
		UPDATE bank.loans
		SET status = $2, interest_rate = $3, monthly_payment = $4, total_repayment = $5,
			reviewed_by = $6, reviewed_at = $7, rejection_reason = $8,
			disbursed_amount = $9, disbursed_at = $10, next_payment_due = $11,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $1`
	res, err := r.q(ctx).ExecContext(ctx, query,
		loan.ID, loan.Status, loan.InterestRate, loan.MonthlyPayment, loan.TotalRepayment,
		loan.ReviewedBy, loan.ReviewedAt, loan.RejectionReason,
		loan.DisbursedAmount, loan.DisbursedAt, loan.NextPaymentDue)
	if err != nil {
		return fmt.Errorf("failed to update loan: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}
	return nil
}

// ListLoansDueBefore returns active loans whose next payment falls before the
// given time. Used by the payment reminder job.
func (r *Repository) ListLoansDueBefore(ctx context.Context, due time.Time) ([]models.Loan, error) {
	query := `
		SELECT ` + loanColumns + `
		FROM bank.loans
		WHERE status = $1 AND next_payment_due IS NOT NULL AND next_payment_due <= $2
		ORDER BY next_payment_due ASC`
	rows, err := r.q(ctx).QueryContext(ctx, query, models.LoanStatusActive, due)
	if err != nil {
		return nil, fmt.Errorf("failed to list due loans: %w", err)
	}
	defer rows.Close()
	var out []models.Loan
	for rows.Next() {
		var loan models.Loan
		if err := rows.Scan(&loan.ID, &loan.UserID, &loan.LoanType, &loan.Amount, &loan.InterestRate,
			&loan.TermMonths, &loan.Status, &loan.Purpose, &loan.EmploymentStatus, &loan.AnnualIncome,
			&loan.MonthlyPayment, &loan.TotalRepayment, &loan.ReviewedBy, &loan.ReviewedAt,
			&loan.RejectionReason, &loan.DisbursedAmount, &loan.DisbursedAt, &loan.NextPaymentDue,
			&loan.CreatedAt, &loan.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan loan: %w", err)
		}
		out = append(out, loan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read loans: %w", err)
	}
	return out, nil
}
