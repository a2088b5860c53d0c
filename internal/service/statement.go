package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vkarev/bank-core/internal/models"
)

// RequestStatement records a statement request for a period and computes
// its summary figures. The opening balance is reconstructed by replaying
// the period's transactions backwards from the current balance; file
// rendering happens outside this service.
func (s *Service) RequestStatement(ctx context.Context, userID uuid.UUID, start, end time.Time, format string) (*models.BankStatement, error) {
	if start.After(end) {
		return nil, fmt.Errorf("start date cannot be after end date")
	}
	if end.After(time.Now()) {
		return nil, fmt.Errorf("end date cannot be in the future")
	}
	if format != models.StatementFormatPDF && format != models.StatementFormatCSV {
		return nil, fmt.Errorf("invalid format type: %s", format)
	}

	account, err := s.store.FindAccountByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	transactions, err := s.store.ListTransactionsInPeriod(ctx, account.ID, start, end)
	if err != nil {
		return nil, err
	}

	opening := account.Balance
	for i := len(transactions) - 1; i >= 0; i-- {
		txn := transactions[i]
		if txnIsCredit(txn) {
			opening = opening.Sub(txn.Amount)
		} else {
			opening = opening.Add(txn.Amount)
		}
	}

	now := time.Now()
	statement := &models.BankStatement{
		ID:               uuid.New(),
		UserID:           userID,
		StartDate:        start,
		EndDate:          end,
		Status:           models.StatementStatusGenerated,
		FormatType:       format,
		TransactionCount: len(transactions),
		OpeningBalance:   opening,
		ClosingBalance:   account.Balance,
		GeneratedAt:      &now,
	}

	err = s.store.WithTx(ctx, func(ctx context.Context) error {
		if err := s.store.CreateStatement(ctx, statement); err != nil {
			return err
		}
		return s.notify(ctx, userID, "Bank Statement Generated",
			fmt.Sprintf("Your bank statement for %s to %s has been generated and is ready for download.",
				start.Format("2006-01-02"), end.Format("2006-01-02")),
			models.NotificationInfo, statement.ID.String())
	})
	if err != nil {
		return nil, err
	}

	s.log.Infof("Statement %s generated for user %s (%d transactions)", statement.ID, userID, len(transactions))
	return statement, nil
}

// txnIsCredit reports whether a transaction increased the account balance.
// Transfer legs are classified by their narrative direction.
func txnIsCredit(t models.Transaction) bool {
	switch t.Type {
	case models.TransactionDeposit:
		return true
	case models.TransactionWithdraw:
		return false
	default:
		return strings.HasPrefix(t.Description, "Received from ")
	}
}

// ListStatements returns all statement requests of a user.
func (s *Service) ListStatements(ctx context.Context, userID uuid.UUID) ([]models.BankStatement, error) {
	return s.store.ListStatements(ctx, userID)
}
