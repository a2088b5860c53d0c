package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vkarev/bank-core/internal/models"
)

// validateAmount rejects amounts that are not strictly positive or carry
// value beyond two decimal places. Balances are fixed-point, scale 2;
// trailing zeros such as 10.500 are fine.
func validateAmount(amount decimal.Decimal) error {
	if amount.Sign() <= 0 || !amount.Equal(amount.Truncate(2)) {
		return models.ErrInvalidAmount
	}
	return nil
}

// Deposit credits amount to the account and records a DEPOSIT transaction.
// The balance mutation and the record append commit as one atomic unit.
func (s *Service) Deposit(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal, description string) (*models.Transaction, error) {
	if err := validateAmount(amount); err != nil {
		return nil, err
	}

	var txn *models.Transaction
	err := s.store.WithTx(ctx, func(ctx context.Context) error {
		account, err := s.store.LockAccount(ctx, accountID)
		if err != nil {
			return err
		}
		if err := s.store.UpdateAccountBalance(ctx, account.ID, account.Balance.Add(amount)); err != nil {
			return err
		}
		txn = &models.Transaction{
			ID:          uuid.New(),
			AccountID:   account.ID,
			Amount:      amount,
			Type:        models.TransactionDeposit,
			Description: description,
		}
		return s.store.CreateTransaction(ctx, txn)
	})
	if err != nil {
		return nil, err
	}

	s.log.Infof("Deposit of %s to account %s", amount, accountID)
	return txn, nil
}

// Withdraw debits amount from the account and records a WITHDRAW
// transaction. The balance check and mutation happen under the account's
// row lock, so concurrent withdrawals cannot jointly overdraw.
func (s *Service) Withdraw(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal, description string) (*models.Transaction, error) {
	if err := validateAmount(amount); err != nil {
		return nil, err
	}

	var txn *models.Transaction
	err := s.store.WithTx(ctx, func(ctx context.Context) error {
		account, err := s.store.LockAccount(ctx, accountID)
		if err != nil {
			return err
		}
		if account.Balance.LessThan(amount) {
			return models.ErrInsufficientFunds
		}
		if err := s.store.UpdateAccountBalance(ctx, account.ID, account.Balance.Sub(amount)); err != nil {
			return err
		}
		txn = &models.Transaction{
			ID:          uuid.New(),
			AccountID:   account.ID,
			Amount:      amount,
			Type:        models.TransactionWithdraw,
			Description: description,
		}
		return s.store.CreateTransaction(ctx, txn)
	})
	if err != nil {
		return nil, err
	}

	s.log.Infof("Withdrawal of %s from account %s", amount, accountID)
	return txn, nil
}

// Transfer moves amount from sender to receiver and records one transaction
// leg per account, each description referencing the counterpart account
// number. Both balance mutations and both record appends commit together or
// not at all. Returns the sender-side leg, which is the one receipts link to.
//
// Both accounts are locked in account-id order regardless of direction, so
// two opposite transfers between the same pair cannot deadlock.
func (s *Service) Transfer(ctx context.Context, senderID, receiverID uuid.UUID, amount decimal.Decimal, description string) (*models.Transaction, error) {
	if senderID == receiverID {
		return nil, models.ErrSameAccount
	}
	if err := validateAmount(amount); err != nil {
		return nil, err
	}

	var senderLeg *models.Transaction
	err := s.store.WithTx(ctx, func(ctx context.Context) error {
		var sender, receiver *models.Account
		var err error
		if senderID.String() < receiverID.String() {
			if sender, err = s.store.LockAccount(ctx, senderID); err != nil {
				return err
			}
			if receiver, err = s.store.LockAccount(ctx, receiverID); err != nil {
				return err
			}
		} else {
			if receiver, err = s.store.LockAccount(ctx, receiverID); err != nil {
				return err
			}
			if sender, err = s.store.LockAccount(ctx, senderID); err != nil {
				return err
			}
		}

		if sender.Balance.LessThan(amount) {
			return models.ErrInsufficientFunds
		}

		if err := s.store.UpdateAccountBalance(ctx, sender.ID, sender.Balance.Sub(amount)); err != nil {
			return err
		}
		if err := s.store.UpdateAccountBalance(ctx, receiver.ID, receiver.Balance.Add(amount)); err != nil {
			return err
		}

		senderLeg = &models.Transaction{
			ID:          uuid.New(),
			AccountID:   sender.ID,
			Amount:      amount,
			Type:        models.TransactionTransfer,
			Description: transferNarrative("Sent to", receiver.AccountNumber, description),
		}
		if err := s.store.CreateTransaction(ctx, senderLeg); err != nil {
			return err
		}
		receiverLeg := &models.Transaction{
			ID:          uuid.New(),
			AccountID:   receiver.ID,
			Amount:      amount,
			Type:        models.TransactionTransfer,
			Description: transferNarrative("Received from", sender.AccountNumber, description),
		}
		return s.store.CreateTransaction(ctx, receiverLeg)
	})
	if err != nil {
		return nil, err
	}

	s.log.Infof("Transfer of %s from account %s to account %s", amount, senderID, receiverID)
	return senderLeg, nil
}

// ResolveAccount looks up an account by its 10-digit account number.
func (s *Service) ResolveAccount(ctx context.Context, accountNumber string) (*models.Account, error) {
	if len(accountNumber) != 10 {
		return nil, models.ErrAccountNotFound
	}
	for _, c := range accountNumber {
		if c < '0' || c > '9' {
			return nil, models.ErrAccountNotFound
		}
	}
	return s.store.FindAccountByNumber(ctx, accountNumber)
}

func transferNarrative(direction, accountNumber, description string) string {
	if description == "" {
		return fmt.Sprintf("%s %s.", direction, accountNumber)
	}
	return fmt.Sprintf("%s %s. %s", direction, accountNumber, description)
}
