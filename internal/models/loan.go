package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Loan types.
const (
	LoanTypePersonal  = "PERSONAL"
	LoanTypeHome      = "HOME"
	LoanTypeAuto      = "AUTO"
	LoanTypeEducation = "EDUCATION"
	LoanTypeBusiness  = "BUSINESS"
)

// Loan statuses. PENDING moves to APPROVED or REJECTED under review;
// APPROVED moves to ACTIVE when the amount is disbursed.
const (
	LoanStatusPending   = "PENDING"
	LoanStatusApproved  = "APPROVED"
	LoanStatusRejected  = "REJECTED"
	LoanStatusActive    = "ACTIVE"
	LoanStatusCompleted = "COMPLETED"
)

// Loan is a credit application and, once disbursed, the running credit
// itself. MonthlyPayment and TotalRepayment are computed with the standard
// EMI formula at approval time.
type Loan struct {
	ID               uuid.UUID        `json:"id"`
	UserID           uuid.UUID        `json:"user_id"`
	LoanType         string           `json:"loan_type"`
	Amount           decimal.Decimal  `json:"amount"`
	InterestRate     decimal.Decimal  `json:"interest_rate"` // annual, percent
	TermMonths       int              `json:"term_months"`
	Status           string           `json:"status"`
	Purpose          string           `json:"purpose"`
	EmploymentStatus string           `json:"employment_status,omitempty"`
	AnnualIncome     *decimal.Decimal `json:"annual_income,omitempty"`
	MonthlyPayment   decimal.Decimal  `json:"monthly_payment"`
	TotalRepayment   decimal.Decimal  `json:"total_repayment"`
	ReviewedBy       *uuid.UUID       `json:"reviewed_by,omitempty"`
	ReviewedAt       *time.Time       `json:"reviewed_at,omitempty"`
	RejectionReason  string           `json:"rejection_reason,omitempty"`
	DisbursedAmount  decimal.Decimal  `json:"disbursed_amount"`
	DisbursedAt      *time.Time       `json:"disbursed_at,omitempty"`
	NextPaymentDue   *time.Time       `json:"next_payment_due,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}
