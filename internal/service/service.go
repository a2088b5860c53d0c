package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/vkarev/bank-core/internal/config"
	"github.com/vkarev/bank-core/internal/models"
)

// RateSource supplies the current central-bank base rate, used as the
// default interest rate for loan applications that do not specify one.
type RateSource interface {
	BaseRate(ctx context.Context) (decimal.Decimal, error)
}

// TransactionNotifier delivers out-of-band notifications about balance
// movements on an account, typically by email.
type TransactionNotifier interface {
	SendTransactionNotification(to, username, accountNumber string, amount, balance decimal.Decimal, transactionType string) error
}

// Service handles business logic
type Service struct {
	store    Store
	log      *logrus.Logger
	config   *config.Config
	rates    RateSource          // may be nil
	notifier TransactionNotifier // may be nil
	cardFee  decimal.Decimal
}

// NewService initializes a new service. rates may be nil, in which case loan
// applications must carry an explicit interest rate.
func NewService(store Store, log *logrus.Logger, cfg *config.Config, rates RateSource) (*Service, error) {
	fee, err := decimal.NewFromString(cfg.CardFee)
	if err != nil {
		return nil, err
	}
	return &Service{store: store, log: log, config: cfg, rates: rates, cardFee: fee}, nil
}

// SetTransactionNotifier installs the sender used for deposit and withdrawal
// notifications. Without one the notifications are skipped.
func (s *Service) SetTransactionNotifier(n TransactionNotifier) {
	s.notifier = n
}

// requireStaff verifies that the acting user is a staff member. Non-staff
// callers get the same answer as for a resource that does not exist.
func (s *Service) requireStaff(ctx context.Context, adminID uuid.UUID) error {
	admin, err := s.store.FindUserByID(ctx, adminID)
	if err != nil {
		return err
	}
	if !admin.IsStaff {
		return models.ErrNotFound
	}
	return nil
}

// notify stores an in-app notification inside the current transaction scope.
func (s *Service) notify(ctx context.Context, userID uuid.UUID, title, message, kind, relatedID string) error {
	return s.store.CreateNotification(ctx, &models.Notification{
		ID:              uuid.New(),
		UserID:          userID,
		Title:           title,
		Message:         message,
		Type:            kind,
		RelatedObjectID: relatedID,
	})
}
