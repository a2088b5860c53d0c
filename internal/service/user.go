package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/vkarev/bank-core/internal/models"
	"github.com/vkarev/bank-core/internal/utils"
)

// maxAccountNumberAttempts bounds retries when a generated account number
// collides with an existing one.
const maxAccountNumberAttempts = 5

// Register creates a new user with a hashed password and PIN, and opens the
// user's account in the same transaction. Account creation is an explicit
// step of registration, not a reactive hook, so the whole chain is visible
// here. Returns the user, the account and the one-time plaintext PIN.
func (s *Service) Register(ctx context.Context, email, password, firstName, lastName, phone string) (*models.User, *models.Account, string, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, "", fmt.Errorf("failed to hash password: %w", err)
	}
	pin, err := utils.GeneratePIN()
	if err != nil {
		return nil, nil, "", err
	}
	hashedPIN, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, "", fmt.Errorf("failed to hash PIN: %w", err)
	}

	user := &models.User{
		ID:           uuid.New(),
		Email:        email,
		FirstName:    firstName,
		LastName:     lastName,
		Phone:        phone,
		PasswordHash: string(hashedPassword),
		PINHash:      string(hashedPIN),
		IsActive:     true,
	}

	var account *models.Account
	err = s.store.WithTx(ctx, func(ctx context.Context) error {
		if err := s.store.CreateUser(ctx, user); err != nil {
			return err
		}
		account, err = s.createAccount(ctx, user.ID)
		return err
	})
	if err != nil {
		return nil, nil, "", err
	}

	s.log.Infof("User registered: %s, account %s", user.Email, account.AccountNumber)
	return user, account, pin, nil
}

// createAccount opens a SAVINGS account with a fresh unique account number.
func (s *Service) createAccount(ctx context.Context, userID uuid.UUID) (*models.Account, error) {
	for attempt := 0; attempt < maxAccountNumberAttempts; attempt++ {
		number, err := utils.GenerateAccountNumber()
		if err != nil {
			return nil, err
		}
		account := &models.Account{
			ID:            uuid.New(),
			UserID:        userID,
			AccountNumber: number,
			AccountType:   models.AccountTypeSavings,
			Balance:       decimal.Zero,
			IsActive:      true,
		}
		err = s.store.CreateAccount(ctx, account)
		if errors.Is(err, models.ErrDuplicate) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return account, nil
	}
	return nil, fmt.Errorf("failed to generate a unique account number after %d attempts", maxAccountNumberAttempts)
}

// Login authenticates a user and returns a JWT token
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.store.FindUserByEmail(ctx, email)
	if err != nil {
		return "", fmt.Errorf("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", fmt.Errorf("invalid credentials")
	}
	if !user.IsActive {
		return "", fmt.Errorf("invalid credentials")
	}
	if !user.IsApproved {
		return "", fmt.Errorf("account pending admin approval")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   user.ID.String(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
	})
	tokenString, err := token.SignedString([]byte(s.config.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	s.log.Infof("User logged in: %s", user.Email)
	return tokenString, nil
}

// ApproveUser marks a registered user as approved so they can log in. New
// registrations stay locked out until a staff member approves them.
func (s *Service) ApproveUser(ctx context.Context, userID, adminID uuid.UUID) error {
	if err := s.requireStaff(ctx, adminID); err != nil {
		return err
	}
	return s.store.WithTx(ctx, func(ctx context.Context) error {
		user, err := s.store.FindUserByID(ctx, userID)
		if err != nil {
			return err
		}
		if user.IsApproved {
			return models.ErrInvalidState
		}
		user.IsApproved = true
		if err := s.store.UpdateUser(ctx, user); err != nil {
			return err
		}
		if err := s.notify(ctx, user.ID, "Account Approved",
			"Your account has been approved. You can now log in.",
			models.NotificationApproval, user.ID.String()); err != nil {
			return err
		}
		s.log.Infof("User approved: %s", user.Email)
		return nil
	})
}

// verifyPIN checks the user's transaction PIN.
func (s *Service) verifyPIN(user *models.User, pin string) error {
	if bcrypt.CompareHashAndPassword([]byte(user.PINHash), []byte(pin)) != nil {
		return models.ErrInvalidPIN
	}
	return nil
}

// GetAccount returns the account owned by the user.
func (s *Service) GetAccount(ctx context.Context, userID uuid.UUID) (*models.Account, error) {
	return s.store.FindAccountByUserID(ctx, userID)
}

// ListRecentTransactions returns the account's most recent transactions.
func (s *Service) ListRecentTransactions(ctx context.Context, userID uuid.UUID, limit int) ([]models.Transaction, error) {
	account, err := s.store.FindAccountByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.store.ListTransactions(ctx, account.ID, limit)
}

// ListNotifications returns all notifications of a user.
func (s *Service) ListNotifications(ctx context.Context, userID uuid.UUID) ([]models.Notification, error) {
	return s.store.ListNotifications(ctx, userID)
}

// MarkNotificationRead marks one of the user's notifications as read.
func (s *Service) MarkNotificationRead(ctx context.Context, id, userID uuid.UUID) error {
	return s.store.MarkNotificationRead(ctx, id, userID)
}
