package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transaction kinds.
const (
	TransactionDeposit  = "DEPOSIT"
	TransactionWithdraw = "WITHDRAW"
	TransactionTransfer = "TRANSFER"
)

// Transaction is an immutable record of a single balance change. A transfer
// produces two of these, one per account, with mirrored amounts. Only the
// sender-side leg of a transfer carries the receipt link.
type Transaction struct {
	ID          uuid.UUID       `json:"id"`
	AccountID   uuid.UUID       `json:"account_id"`
	Amount      decimal.Decimal `json:"amount"`
	Type        string          `json:"type"`
	Description string          `json:"description"`
	ReceiptID   *uuid.UUID      `json:"receipt_id,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}
