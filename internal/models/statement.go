package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Statement request statuses.
const (
	StatementStatusPending   = "PENDING"
	StatementStatusGenerated = "GENERATED"
	StatementStatusReady     = "READY"
	StatementStatusExpired   = "EXPIRED"
)

// Statement formats.
const (
	StatementFormatPDF = "PDF"
	StatementFormatCSV = "CSV"
)

// BankStatement is a statement request for a period, with the period's
// summary figures. File rendering is handled outside this service.
type BankStatement struct {
	ID               uuid.UUID       `json:"id"`
	UserID           uuid.UUID       `json:"user_id"`
	StartDate        time.Time       `json:"start_date"`
	EndDate          time.Time       `json:"end_date"`
	Status           string          `json:"status"`
	FormatType       string          `json:"format_type"`
	TransactionCount int             `json:"transaction_count"`
	OpeningBalance   decimal.Decimal `json:"opening_balance"`
	ClosingBalance   decimal.Decimal `json:"closing_balance"`
	RequestedAt      time.Time       `json:"requested_at"`
	GeneratedAt      *time.Time      `json:"generated_at,omitempty"`
}
