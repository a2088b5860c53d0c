package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Bill types.
const (
	BillElectricity = "ELECTRICITY"
	BillWater       = "WATER"
	BillGas         = "GAS"
	BillInternet    = "INTERNET"
	BillMobile      = "MOBILE"
	BillInsurance   = "INSURANCE"
	BillLoanEMI     = "LOAN"
	BillCreditCard  = "CREDIT_CARD"
	BillOther       = "OTHER"
)

// Bill payment statuses.
const (
	BillStatusPending   = "PENDING"
	BillStatusCompleted = "COMPLETED"
	BillStatusFailed    = "FAILED"
	BillStatusCancelled = "CANCELLED"
)

// BillPayment records a PIN-verified payment to an external provider. The
// money movement itself goes through the ledger withdraw operation.
type BillPayment struct {
	ID              uuid.UUID       `json:"id"`
	UserID          uuid.UUID       `json:"user_id"`
	BillType        string          `json:"bill_type"`
	ProviderName    string          `json:"provider_name"`
	ProviderAccount string          `json:"provider_account"`
	Amount          decimal.Decimal `json:"amount"`
	Status          string          `json:"status"`
	ReferenceNumber string          `json:"reference_number"`
	DueDate         time.Time       `json:"due_date"`
	PaidAt          *time.Time      `json:"paid_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}
