package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/vkarev/bank-core/internal/models"
)

// CreateUser creates a new user in the database.
func (r *Repository) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO bank.users (id, email, first_name, last_name, phone, password_hash, pin_hash, is_staff, is_active, is_approved, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, CURRENT_TIMESTAMP)
		RETURNING created_at`
	err := r.q(ctx).QueryRowContext(ctx, query,
		user.ID, user.Email, user.FirstName, user.LastName, user.Phone,
		user.PasswordHash, user.PINHash, user.IsStaff, user.IsActive, user.IsApproved).
		Scan(&user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return models.ErrDuplicate
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// FindUserByEmail retrieves a user by email.
func (r *Repository) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT id, email, first_name, last_name, phone, password_hash, pin_hash, is_staff, is_active, is_approved, created_at
		FROM bank.users
		WHERE email = $1`
	err := r.q(ctx).QueryRowContext(ctx, query, email).
		Scan(&user.ID, &user.Email, &user.FirstName, &user.LastName, &user.Phone,
			&user.PasswordHash, &user.PINHash, &user.IsStaff, &user.IsActive, &user.IsApproved, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// FindUserByID retrieves a user by id.
func (r *Repository) FindUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT id, email, first_name, last_name, phone, password_hash, pin_hash, is_staff, is_active, is_approved, created_at
		FROM bank.users
		WHERE id = $1`
	err := r.q(ctx).QueryRowContext(ctx, query, id).
		Scan(&user.ID, &user.Email, &user.FirstName, &user.LastName, &user.Phone,
			&user.PasswordHash, &user.PINHash, &user.IsStaff, &user.IsActive, &user.IsApproved, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// UpdateUser persists profile fields and flags of an existing user.
func (r *Repository) UpdateUser(ctx context.Context, user *models.User) error {
	query := `
		UPDATE bank.users
		SET first_name = $2, last_name = $3, phone = $4, is_active = $5, is_approved = $6
		WHERE id = $1`
	res, err := r.q(ctx).ExecContext(ctx, query,
		user.ID, user.FirstName, user.LastName, user.Phone, user.IsActive, user.IsApproved)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}
	return nil
}
