package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vkarev/bank-core/internal/models"
)

// Store is the persistence surface the service layer works against. It is
// implemented by repository.Repository; tests substitute an in-memory
// implementation.
type Store interface {
	// WithTx runs fn as one atomic unit. Nested calls join the outer
	// transaction, so composed operations commit or roll back together.
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error

	UserStore
	AccountStore
	TransactionStore
	ReceiptStore
	NotificationStore
	CardStore
	LoanStore
	ProfileStore
	BillingStore
}

// UserStore persists users.
type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateUser(ctx context.Context, u *models.User) error
}

// AccountStore persists accounts. LockAccount must acquire row-level
// exclusivity for the rest of the enclosing transaction.
type AccountStore interface {
	CreateAccount(ctx context.Context, a *models.Account) error
	FindAccountByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
	FindAccountByUserID(ctx context.Context, userID uuid.UUID) (*models.Account, error)
	FindAccountByNumber(ctx context.Context, number string) (*models.Account, error)
	LockAccount(ctx context.Context, id uuid.UUID) (*models.Account, error)
	UpdateAccountBalance(ctx context.Context, id uuid.UUID, balance decimal.Decimal) error
}

// TransactionStore appends and reads immutable transaction records.
type TransactionStore interface {
	CreateTransaction(ctx context.Context, t *models.Transaction) error
	LinkReceipt(ctx context.Context, transactionID, receiptID uuid.UUID) error
	ListTransactions(ctx context.Context, accountID uuid.UUID, limit int) ([]models.Transaction, error)
	ListTransactionsInPeriod(ctx context.Context, accountID uuid.UUID, from, to time.Time) ([]models.Transaction, error)
	ListUnlinkedTransfers(ctx context.Context, before time.Time) ([]models.Transaction, error)
}

// ReceiptStore persists receipts.
type ReceiptStore interface {
	CreateReceipt(ctx context.Context, r *models.Receipt) error
	FindReceiptByID(ctx context.Context, id uuid.UUID) (*models.Receipt, error)
	ListReceipts(ctx context.Context, userID uuid.UUID) ([]models.Receipt, error)
}

// NotificationStore persists in-app notifications.
type NotificationStore interface {
	CreateNotification(ctx context.Context, n *models.Notification) error
	ListNotifications(ctx context.Context, userID uuid.UUID) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, id, userID uuid.UUID) error
}

// CardStore persists card applications and debit cards.
type CardStore interface {
	CreateCardApplication(ctx context.Context, a *models.CardApplication) error
	FindCardApplicationByID(ctx context.Context, id uuid.UUID) (*models.CardApplication, error)
	FindOpenCardApplication(ctx context.Context, userID uuid.UUID) (*models.CardApplication, error)
	UpdateCardApplication(ctx context.Context, a *models.CardApplication) error
	CreateDebitCard(ctx context.Context, c *models.DebitCard) error
	FindDebitCardByUserID(ctx context.Context, userID uuid.UUID) (*models.DebitCard, error)
	UpdateDebitCard(ctx context.Context, c *models.DebitCard) error
}

// LoanStore persists loans.
type LoanStore interface {
	CreateLoan(ctx context.Context, l *models.Loan) error
	FindLoanByID(ctx context.Context, id uuid.UUID) (*models.Loan, error)
	FindOpenLoan(ctx context.Context, userID uuid.UUID) (*models.Loan, error)
	UpdateLoan(ctx context.Context, l *models.Loan) error
	ListLoansDueBefore(ctx context.Context, due time.Time) ([]models.Loan, error)
}

// ProfileStore persists staged profile updates.
type ProfileStore interface {
	CreateProfileUpdate(ctx context.Context, p *models.ProfileUpdate) error
	FindProfileUpdateByID(ctx context.Context, id uuid.UUID) (*models.ProfileUpdate, error)
	FindPendingProfileUpdate(ctx context.Context, userID uuid.UUID) (*models.ProfileUpdate, error)
	UpdateProfileUpdate(ctx context.Context, p *models.ProfileUpdate) error
}

// BillingStore persists bill payments and statement requests.
type BillingStore interface {
	CreateBillPayment(ctx context.Context, b *models.BillPayment) error
	ListBillPayments(ctx context.Context, userID uuid.UUID) ([]models.BillPayment, error)
	CreateStatement(ctx context.Context, s *models.BankStatement) error
	ListStatements(ctx context.Context, userID uuid.UUID) ([]models.BankStatement, error)
}
