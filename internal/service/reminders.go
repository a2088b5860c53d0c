package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vkarev/bank-core/internal/models"
)

// ReminderSender delivers payment reminders out of band. Implemented by
// utils/email.Sender.
type ReminderSender interface {
	SendPaymentReminder(to, username string, paymentDate time.Time, amount decimal.Decimal, isOverdue bool) error
}

// SendLoanReminders emails every borrower whose next payment falls within
// the horizon, overdue loans included. Returns the number of reminders
// sent. Delivery failures are logged and skipped so one bad address does
// not starve the rest.
func (s *Service) SendLoanReminders(ctx context.Context, horizon time.Duration, sender ReminderSender) (int, error) {
	loans, err := s.store.ListLoansDueBefore(ctx, time.Now().Add(horizon))
	if err != nil {
		return 0, err
	}

	sent := 0
	now := time.Now()
	for _, loan := range loans {
		if loan.NextPaymentDue == nil {
			continue
		}
		user, err := s.store.FindUserByID(ctx, loan.UserID)
		if err != nil {
			s.log.Errorf("Failed to load borrower %s for loan %s: %v", loan.UserID, loan.ID, err)
			continue
		}
		isOverdue := loan.NextPaymentDue.Before(now)
		if err := sender.SendPaymentReminder(user.Email, user.FullName(), *loan.NextPaymentDue, loan.MonthlyPayment, isOverdue); err != nil {
			s.log.Errorf("Failed to remind %s about loan %s: %v", user.Email, loan.ID, err)
			continue
		}
		if err := s.notify(ctx, user.ID, "Loan Payment Due",
			"Your loan payment of $"+loan.MonthlyPayment.StringFixed(2)+" is due on "+loan.NextPaymentDue.Format("2006-01-02")+".",
			models.NotificationInfo, loan.ID.String()); err != nil {
			s.log.Errorf("Failed to record reminder notification for %s: %v", user.ID, err)
		}
		sent++
	}
	return sent, nil
}
