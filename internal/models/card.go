package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Debit card statuses.
const (
	CardStatusPending = "PENDING" // fee not paid yet
	CardStatusActive  = "ACTIVE"
	CardStatusBlocked = "BLOCKED"
	CardStatusExpired = "EXPIRED"
)

// Card application statuses.
const (
	ApplicationPending  = "PENDING"
	ApplicationApproved = "APPROVED"
	ApplicationRejected = "REJECTED"
)

// DebitCard represents a card created by an approved application. The card
// stays PENDING until its issuance fee is withdrawn from the owner's account.
type DebitCard struct {
	ID             uuid.UUID       `json:"id"`
	UserID         uuid.UUID       `json:"user_id"`
	CardNumber     string          `json:"card_number"`
	CardHolderName string          `json:"card_holder_name"`
	ExpiryDate     string          `json:"expiry_date"` // MM/YY
	CVVHash        string          `json:"-"`           // Not serialized
	HMAC           string          `json:"hmac"`
	Status         string          `json:"status"`
	FeePaid        bool            `json:"fee_paid"`
	FeeAmount      decimal.Decimal `json:"fee_amount"`
	IssuedAt       *time.Time      `json:"issued_at,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// CardApplication is a customer request for a new card, reviewed by staff.
type CardApplication struct {
	ID              uuid.UUID  `json:"id"`
	UserID          uuid.UUID  `json:"user_id"`
	CardType        string     `json:"card_type"`
	Purpose         string     `json:"purpose"`
	Status          string     `json:"status"`
	ReviewedBy      *uuid.UUID `json:"reviewed_by,omitempty"`
	ReviewedAt      *time.Time `json:"reviewed_at,omitempty"`
	RejectionReason string     `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}
