package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReceiptStatusCompleted is the default status for receipts generated after a
// successful ledger operation.
const ReceiptStatusCompleted = "completed"

// Receipt is the human-presentable proof of a completed operation. It is
// read-only once created, for administrators as well as for its owner.
type Receipt struct {
	ID              uuid.UUID       `json:"id"`
	UserID          uuid.UUID       `json:"user_id"`
	TransactionType string          `json:"transaction_type"`
	Amount          decimal.Decimal `json:"amount"`
	ReferenceNumber string          `json:"reference_number"`
	Description     string          `json:"description"`
	FromAccount     string          `json:"from_account,omitempty"`
	ToAccount       string          `json:"to_account,omitempty"`
	RecipientName   string          `json:"recipient_name,omitempty"`
	Status          string          `json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
}
