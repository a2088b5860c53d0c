package email

import (
	"fmt"
	"net/smtp"
	"time"

	"github.com/jordan-wright/email"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/vkarev/bank-core/internal/config"
)

// Sender handles sending emails via SMTP
type Sender struct {
	cfg    *config.Config
	logger *logrus.Logger
}

// NewSender creates a new email sender
func NewSender(cfg *config.Config, logger *logrus.Logger) *Sender {
	return &Sender{
		cfg:    cfg,
		logger: logger,
	}
}

func (s *Sender) send(e *email.Email) error {
	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	auth := smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	if err := e.Send(addr, auth); err != nil {
		return err
	}
	s.logger.Infof("Email sent to %v: %s", e.To, e.Subject)
	return nil
}

// SendPaymentReminder sends a loan payment reminder email
func (s *Sender) SendPaymentReminder(to, username string, paymentDate time.Time, amount decimal.Decimal, isOverdue bool) error {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{to}
	if isOverdue {
		e.Subject = "Overdue Loan Payment Notification"
	} else {
		e.Subject = "Upcoming Loan Payment Reminder"
	}

	body := fmt.Sprintf("Dear %s,\n\n", username)
	if isOverdue {
		body += fmt.Sprintf(
			"Your loan payment of %s USD was due on %s and is now overdue.\n"+
				"Please make the payment as soon as possible to avoid penalties.\n",
			amount.StringFixed(2), paymentDate.Format("2006-01-02"),
		)
	} else {
		body += fmt.Sprintf(
			"This is a reminder that your loan payment of %s USD is due on %s.\n"+
				"Please ensure sufficient funds are available in your account.\n",
			amount.StringFixed(2), paymentDate.Format("2006-01-02"),
		)
	}
	body += "\nBest regards,\nBank Core"
	e.Text = []byte(body)

	if err := s.send(e); err != nil {
		s.logger.Errorf("Failed to send email to %s: %v", to, err)
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// SendTransactionNotification sends a notification email for a deposit or
// withdrawal on the given account.
func (s *Sender) SendTransactionNotification(to, username, accountNumber string, amount, balance decimal.Decimal, transactionType string) error {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{to}
	e.Subject = fmt.Sprintf("%s Notification", transactionType)

	body := fmt.Sprintf("Dear %s,\n\n", username)
	switch transactionType {
	case "Deposit":
		body += fmt.Sprintf(
			"Your account %s has been credited with %s USD.\n"+
				"Transaction time: %s\n"+
				"Current balance: %s USD\n",
			accountNumber, amount.StringFixed(2), time.Now().Format("2006-01-02 15:04:05"), balance.StringFixed(2),
		)
	case "Withdrawal":
		body += fmt.Sprintf(
			"An amount of %s USD has been withdrawn from your account %s.\n"+
				"Transaction time: %s\n"+
				"Current balance: %s USD\n",
			amount.StringFixed(2), accountNumber, time.Now().Format("2006-01-02 15:04:05"), balance.StringFixed(2),
		)
	}
	body += "\nBest regards,\nBank Core"
	e.Text = []byte(body)

	if err := s.send(e); err != nil {
		s.logger.Errorf("Failed to send %s notification to %s: %v", transactionType, to, err)
		return fmt.Errorf("failed to send %s notification: %w", transactionType, err)
	}
	return nil
}
