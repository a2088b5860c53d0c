package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vkarev/bank-core/internal/models"
	"github.com/vkarev/bank-core/internal/utils"
)

// PayBill pays an external provider from the user's account. The PIN is
// verified first; the ledger withdrawal, the bill payment record and the
// notification then commit as one unit.
func (s *Service) PayBill(ctx context.Context, userID uuid.UUID, pin, billType, providerName, providerAccount string, amount decimal.Decimal, dueDate time.Time) (*models.BillPayment, error) {
	if err := validateAmount(amount); err != nil {
		return nil, err
	}
	user, err := s.store.FindUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.verifyPIN(user, pin); err != nil {
		return nil, err
	}
	account, err := s.store.FindAccountByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	reference, err := utils.ReferenceSuffix(10)
	if err != nil {
		return nil, err
	}
	if dueDate.IsZero() {
		dueDate = time.Now()
	}

	var payment *models.BillPayment
	err = s.store.WithTx(ctx, func(ctx context.Context) error {
		if _, err := s.Withdraw(ctx, account.ID, amount,
			fmt.Sprintf("Bill Payment - %s (%s)", providerName, billType)); err != nil {
			return err
		}

		now := time.Now()
		payment = &models.BillPayment{
			ID:              uuid.New(),
			UserID:          userID,
			BillType:        billType,
			ProviderName:    providerName,
			ProviderAccount: providerAccount,
			Amount:          amount,
			Status:          models.BillStatusCompleted,
			ReferenceNumber: reference,
			DueDate:         dueDate,
			PaidAt:          &now,
		}
		if err := s.store.CreateBillPayment(ctx, payment); err != nil {
			return err
		}
		return s.notify(ctx, userID, "Bill Payment Successful",
			fmt.Sprintf("Your bill payment of $%s to %s has been completed. Reference: %s",
				amount, providerName, reference),
			models.NotificationInfo, payment.ID.String())
	})
	if err != nil {
		return nil, err
	}

	s.log.Infof("Bill payment %s of %s to %s by user %s", payment.ReferenceNumber, amount, providerName, userID)
	return payment, nil
}

// ListBillPayments returns all bill payments of a user.
func (s *Service) ListBillPayments(ctx context.Context, userID uuid.UUID) ([]models.BillPayment, error) {
	return s.store.ListBillPayments(ctx, userID)
}
