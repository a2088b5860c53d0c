package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vkarev/bank-core/internal/models"
)

const accountColumns = `id, user_id, account_number, account_type, balance, is_active, created_at, updated_at`

func scanAccount(row *sql.Row) (*models.Account, error) {
	account := &models.Account{}
	err := row.Scan(&account.ID, &account.UserID, &account.AccountNumber, &account.AccountType,
		&account.Balance, &account.IsActive, &account.CreatedAt, &account.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan account: %w", err)
	}
	return account, nil
}

// CreateAccount creates a new account in the database. Returns
// models.ErrDuplicate when the account number collides; the insert runs in a
// savepoint so callers can retry with a fresh number inside an open
// transaction.
func (r *Repository) CreateAccount(ctx context.Context, account *models.Account) error {
	return r.withSavepoint(ctx, "create_account", func() error {
		query := `
			INSERT INTO bank.accounts (id, user_id, account_number, account_type, balance, is_active, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
			RETURNING created_at, updated_at`
		err := r.q(ctx).QueryRowContext(ctx, query,
			account.ID, account.UserID, account.AccountNumber, account.AccountType,
			account.Balance, account.IsActive).
			Scan(&account.CreatedAt, &account.UpdatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return models.ErrDuplicate
			}
			return fmt.Errorf("failed to create account: %w", err)
		}
		return nil
	})
}

// FindAccountByID retrieves an account by id.
func (r *Repository) FindAccountByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM bank.accounts WHERE id = $1`
	return scanAccount(r.q(ctx).QueryRowContext(ctx, query, id))
}

// FindAccountByUserID retrieves the account owned by the given user.
func (r *Repository) FindAccountByUserID(ctx context.Context, userID uuid.UUID) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM bank.accounts WHERE user_id = $1`
	return scanAccount(r.q(ctx).QueryRowContext(ctx, query, userID))
}

// FindAccountByNumber retrieves an account by its external account number.
func (r *Repository) FindAccountByNumber(ctx context.Context, number string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM bank.accounts WHERE account_number = $1`
	return scanAccount(r.q(ctx).QueryRowContext(ctx, query, number))
}

// LockAccount reads an account with a row-level exclusive lock. Must be
// called inside a transaction; the lock is held until commit or rollback.
func (r *Repository) LockAccount(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM bank.accounts WHERE id = $1 FOR UPDATE`
	return scanAccount(r.q(ctx).QueryRowContext(ctx, query, id))
}

// UpdateAccountBalance sets the balance of an account.
func (r *Repository) UpdateAccountBalance(ctx context.Context, id uuid.UUID, balance decimal.Decimal) error {
	query := `
		UPDATE bank.accounts
		SET balance = $2, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1`
	res, err := r.q(ctx).ExecContext(ctx, query, id, balance)
	if err != nil {
		return fmt.Errorf("failed to update account balance: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrAccountNotFound
	}
	return nil
}
