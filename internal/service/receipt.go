package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vkarev/bank-core/internal/models"
	"github.com/vkarev/bank-core/internal/utils"
)

// maxReferenceAttempts bounds retries when a generated reference number
// collides with an existing one.
const maxReferenceAttempts = 5

// GenerateReceipt creates and persists a receipt for a completed operation.
// The reference number is the uppercased kind plus 8 random uppercase
// alphanumeric characters; on a store-level uniqueness collision a fresh
// reference is generated and the insert retried.
func (s *Service) GenerateReceipt(ctx context.Context, userID uuid.UUID, kind string, amount decimal.Decimal, description, fromAccount, toAccount, recipientName, status string) (*models.Receipt, error) {
	if status == "" {
		status = models.ReceiptStatusCompleted
	}

	for attempt := 0; attempt < maxReferenceAttempts; attempt++ {
		reference, err := utils.ReceiptReference(kind)
		if err != nil {
			return nil, err
		}
		receipt := &models.Receipt{
			ID:              uuid.New(),
			UserID:          userID,
			TransactionType: kind,
			Amount:          amount,
			ReferenceNumber: reference,
			Description:     description,
			FromAccount:     fromAccount,
			ToAccount:       toAccount,
			RecipientName:   recipientName,
			Status:          status,
		}
		err = s.store.CreateReceipt(ctx, receipt)
		if errors.Is(err, models.ErrDuplicate) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return receipt, nil
	}
	return nil, fmt.Errorf("failed to generate a unique receipt reference after %d attempts", maxReferenceAttempts)
}

// receiptFor generates a receipt and back-links it to the transaction,
// inside the caller's transaction scope.
func (s *Service) receiptFor(ctx context.Context, txn *models.Transaction, userID uuid.UUID, kind string, amount decimal.Decimal, description, fromAccount, toAccount, recipientName string) (*models.Receipt, error) {
	receipt, err := s.GenerateReceipt(ctx, userID, kind, amount, description, fromAccount, toAccount, recipientName, models.ReceiptStatusCompleted)
	if err != nil {
		return nil, err
	}
	if err := s.store.LinkReceipt(ctx, txn.ID, receipt.ID); err != nil {
		return nil, err
	}
	return receipt, nil
}

// DepositToOwn credits the user's own account and issues a linked receipt.
// Ledger mutation, receipt insert and back-link commit as one unit.
func (s *Service) DepositToOwn(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, description string) (*models.Receipt, error) {
	user, err := s.store.FindUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	account, err := s.store.FindAccountByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	var receipt *models.Receipt
	err = s.store.WithTx(ctx, func(ctx context.Context) error {
		txn, err := s.Deposit(ctx, account.ID, amount, description)
		if err != nil {
			return err
		}
		receipt, err = s.receiptFor(ctx, txn, userID, "deposit", amount, description, "", account.AccountNumber, user.FullName())
		return err
	})
	if err != nil {
		return nil, err
	}
	s.notifyTransaction(ctx, user, account.ID, amount, "Deposit")
	return receipt, nil
}

// WithdrawFromOwn debits the user's own account and issues a linked receipt.
func (s *Service) WithdrawFromOwn(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, description string) (*models.Receipt, error) {
	user, err := s.store.FindUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	account, err := s.store.FindAccountByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	var receipt *models.Receipt
	err = s.store.WithTx(ctx, func(ctx context.Context) error {
		txn, err := s.Withdraw(ctx, account.ID, amount, description)
		if err != nil {
			return err
		}
		receipt, err = s.receiptFor(ctx, txn, userID, "withdraw", amount, description, account.AccountNumber, "", user.FullName())
		return err
	})
	if err != nil {
		return nil, err
	}
	s.notifyTransaction(ctx, user, account.ID, amount, "Withdrawal")
	return receipt, nil
}

// notifyTransaction emails the account holder about a committed deposit or
// withdrawal. Delivery is best effort and runs after commit; a send failure
// never undoes the ledger operation.
func (s *Service) notifyTransaction(ctx context.Context, user *models.User, accountID uuid.UUID, amount decimal.Decimal, transactionType string) {
	if s.notifier == nil {
		return
	}
	account, err := s.store.FindAccountByID(ctx, accountID)
	if err != nil {
		s.log.Warnf("Failed to load account %s for transaction notification: %v", accountID, err)
		return
	}
	if err := s.notifier.SendTransactionNotification(user.Email, user.FullName(),
		account.AccountNumber, amount, account.Balance, transactionType); err != nil {
		s.log.Warnf("Failed to send transaction notification to %s: %v", user.Email, err)
	}
}

// TransferToNumber moves money from the user's account to the account with
// the given number and issues a receipt linked to the sender-side leg.
// Receiver resolution and active checks happen here, before the engine call,
// so money never moves into an unresolvable or inactive account.
func (s *Service) TransferToNumber(ctx context.Context, userID uuid.UUID, receiverNumber string, amount decimal.Decimal, description string) (*models.Receipt, error) {
	sender, err := s.store.FindAccountByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	receiver, err := s.ResolveAccount(ctx, receiverNumber)
	if err != nil {
		return nil, err
	}
	if receiver.UserID == userID {
		return nil, models.ErrSameAccount
	}
	if !receiver.IsActive {
		return nil, models.ErrInvalidState
	}
	recipient, err := s.store.FindUserByID(ctx, receiver.UserID)
	if err != nil {
		return nil, err
	}

	var receipt *models.Receipt
	err = s.store.WithTx(ctx, func(ctx context.Context) error {
		txn, err := s.Transfer(ctx, sender.ID, receiver.ID, amount, description)
		if err != nil {
			return err
		}
		receipt, err = s.receiptFor(ctx, txn, userID, "transfer", amount, description, sender.AccountNumber, receiver.AccountNumber, recipient.FullName())
		return err
	})
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

// GetReceipt returns one of the user's receipts. Receipts are read-only for
// everyone, including staff.
func (s *Service) GetReceipt(ctx context.Context, id, userID uuid.UUID) (*models.Receipt, error) {
	receipt, err := s.store.FindReceiptByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if receipt.UserID != userID {
		return nil, models.ErrNotFound
	}
	return receipt, nil
}

// ListReceipts returns all receipts of a user.
func (s *Service) ListReceipts(ctx context.Context, userID uuid.UUID) ([]models.Receipt, error) {
	return s.store.ListReceipts(ctx, userID)
}

// ReconcileReceipts reports committed transfer legs older than cutoff that
// never got their receipt link. Receipts issued through the *Own/ToNumber
// paths are atomic with the ledger operation; this sweep only catches
// out-of-band callers that crashed between the two steps.
func (s *Service) ReconcileReceipts(ctx context.Context, olderThan time.Duration) (int, error) {
	legs, err := s.store.ListUnlinkedTransfers(ctx, time.Now().Add(-olderThan))
	if err != nil {
		return 0, err
	}
	for _, leg := range legs {
		s.log.Warnf("Transfer %s on account %s has no receipt link", leg.ID, leg.AccountID)
	}
	return len(legs), nil
}
