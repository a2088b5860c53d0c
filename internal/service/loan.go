package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vkarev/bank-core/internal/models"
)

// CalculateEMI computes the equated monthly installment and total repayment
// for a principal at an annual percentage rate over termMonths:
//
//	M = P·r·(1+r)^n / ((1+r)^n − 1)   with r the monthly rate,
//	M = P/n                            when r is zero.
//
// Both results are rounded to 2 decimal places; the total is computed from
// the unrounded monthly payment.
func CalculateEMI(principal, annualRate decimal.Decimal, termMonths int) (monthly, total decimal.Decimal) {
	p, _ := principal.Float64()
	rate, _ := annualRate.Float64()
	r := rate / 12 / 100
	n := float64(termMonths)

	var m float64
	if r == 0 {
		m = p / n
	} else {
		factor := math.Pow(1+r, n)
		m = p * r * factor / (factor - 1)
	}

	monthly = decimal.NewFromFloat(m).Round(2)
	total = decimal.NewFromFloat(m * n).Round(2)
	return monthly, total
}

// ApplyForLoan files a loan application. A user can hold only one pending or
// approved loan at a time. When rate is nil the current central-bank base
// rate is used.
func (s *Service) ApplyForLoan(ctx context.Context, userID uuid.UUID, loanType string, amount decimal.Decimal, rate *decimal.Decimal, termMonths int, purpose, employmentStatus string, annualIncome *decimal.Decimal) (*models.Loan, error) {
	if err := validateAmount(amount); err != nil {
		return nil, err
	}
	if termMonths <= 0 {
		return nil, models.ErrInvalidAmount
	}
	if existing, err := s.store.FindOpenLoan(ctx, userID); err == nil && existing != nil {
		return nil, models.ErrInvalidState
	} else if err != nil && !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	var interestRate decimal.Decimal
	if rate != nil {
		if rate.Sign() < 0 {
			return nil, models.ErrInvalidAmount
		}
		interestRate = *rate
	} else {
		if s.rates == nil {
			return nil, fmt.Errorf("no interest rate given and no rate source configured")
		}
		base, err := s.rates.BaseRate(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get base rate: %w", err)
		}
		interestRate = base
	}

	monthly, total := CalculateEMI(amount, interestRate, termMonths)
	loan := &models.Loan{
		ID:               uuid.New(),
		UserID:           userID,
		LoanType:         loanType,
		Amount:           amount,
		InterestRate:     interestRate,
		TermMonths:       termMonths,
		Status:           models.LoanStatusPending,
		Purpose:          purpose,
		EmploymentStatus: employmentStatus,
		AnnualIncome:     annualIncome,
		MonthlyPayment:   monthly,
		TotalRepayment:   total,
		DisbursedAmount:  decimal.Zero,
	}
	if err := s.store.CreateLoan(ctx, loan); err != nil {
		return nil, err
	}

	s.log.Infof("Loan application %s filed by user %s for %s", loan.ID, userID, amount)
	return loan, nil
}

// ApproveLoan moves a PENDING loan to APPROVED, recomputing the repayment
// schedule, and notifies the applicant. Only staff may approve.
func (s *Service) ApproveLoan(ctx context.Context, loanID, adminID uuid.UUID) (*models.Loan, error) {
	if err := s.requireStaff(ctx, adminID); err != nil {
		return nil, err
	}
	var loan *models.Loan
	err := s.store.WithTx(ctx, func(ctx context.Context) error {
		var err error
		loan, err = s.store.FindLoanByID(ctx, loanID)
		if err != nil {
			return err
		}
		if loan.Status != models.LoanStatusPending {
			return models.ErrInvalidState
		}

		now := time.Now()
		loan.Status = models.LoanStatusApproved
		loan.ReviewedBy = &adminID
		loan.ReviewedAt = &now
		loan.MonthlyPayment, loan.TotalRepayment = CalculateEMI(loan.Amount, loan.InterestRate, loan.TermMonths)
		if err := s.store.UpdateLoan(ctx, loan); err != nil {
			return err
		}
		return s.notify(ctx, loan.UserID, "Loan Application Approved",
			fmt.Sprintf("Your %s loan application for $%s has been approved. Monthly payment: $%s",
				loan.LoanType, loan.Amount, loan.MonthlyPayment),
			models.NotificationApproval, loan.ID.String())
	})
	if err != nil {
		return nil, err
	}
	s.log.Infof("Loan %s approved by %s", loanID, adminID)
	return loan, nil
}

// RejectLoan moves a PENDING loan to REJECTED with a reason and notifies the
// applicant. Only staff may reject.
func (s *Service) RejectLoan(ctx context.Context, loanID, adminID uuid.UUID, reason string) (*models.Loan, error) {
	if err := s.requireStaff(ctx, adminID); err != nil {
		return nil, err
	}
	var loan *models.Loan
	err := s.store.WithTx(ctx, func(ctx context.Context) error {
		var err error
		loan, err = s.store.FindLoanByID(ctx, loanID)
		if err != nil {
			return err
		}
		if loan.Status != models.LoanStatusPending {
			return models.ErrInvalidState
		}

		now := time.Now()
		loan.Status = models.LoanStatusRejected
		loan.ReviewedBy = &adminID
		loan.ReviewedAt = &now
		loan.RejectionReason = reason
		if err := s.store.UpdateLoan(ctx, loan); err != nil {
			return err
		}
		return s.notify(ctx, loan.UserID, "Loan Application Rejected",
			fmt.Sprintf("Your %s loan application has been rejected. Reason: %s", loan.LoanType, reason),
			models.NotificationRejection, loan.ID.String())
	})
	if err != nil {
		return nil, err
	}
	s.log.Infof("Loan %s rejected by %s", loanID, adminID)
	return loan, nil
}

// DisburseLoan credits an APPROVED loan's amount to the applicant's account
// through the ledger deposit operation and moves the loan to ACTIVE. The
// deposit, the loan update and the notification commit as one unit. Only
// staff may disburse.
func (s *Service) DisburseLoan(ctx context.Context, loanID, adminID uuid.UUID) (*models.Loan, error) {
	if err := s.requireStaff(ctx, adminID); err != nil {
		return nil, err
	}
	var loan *models.Loan
	err := s.store.WithTx(ctx, func(ctx context.Context) error {
		var err error
		loan, err = s.store.FindLoanByID(ctx, loanID)
		if err != nil {
			return err
		}
		if loan.Status != models.LoanStatusApproved {
			return models.ErrInvalidState
		}
		account, err := s.store.FindAccountByUserID(ctx, loan.UserID)
		if err != nil {
			return err
		}

		if _, err := s.Deposit(ctx, account.ID, loan.Amount,
			fmt.Sprintf("%s loan disbursement", loan.LoanType)); err != nil {
			return err
		}

		now := time.Now()
		firstDue := now.AddDate(0, 1, 0)
		loan.Status = models.LoanStatusActive
		loan.DisbursedAmount = loan.Amount
		loan.DisbursedAt = &now
		loan.NextPaymentDue = &firstDue
		if err := s.store.UpdateLoan(ctx, loan); err != nil {
			return err
		}
		return s.notify(ctx, loan.UserID, "Loan Disbursed",
			fmt.Sprintf("Your %s loan of $%s has been disbursed to your account.", loan.LoanType, loan.Amount),
			models.NotificationInfo, loan.ID.String())
	})
	if err != nil {
		return nil, err
	}
	s.log.Infof("Loan %s disbursed", loanID)
	return loan, nil
}

// ListLoansDueBefore returns active loans with a payment due before the
// given time. Used by the reminder job.
func (s *Service) ListLoansDueBefore(ctx context.Context, due time.Time) ([]models.Loan, error) {
	return s.store.ListLoansDueBefore(ctx, due)
}

// GetLoan returns one of the user's loans.
func (s *Service) GetLoan(ctx context.Context, id, userID uuid.UUID) (*models.Loan, error) {
	loan, err := s.store.FindLoanByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if loan.UserID != userID {
		return nil, models.ErrNotFound
	}
	return loan, nil
}
