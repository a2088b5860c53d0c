package service

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/vkarev/bank-core/internal/models"
	"github.com/vkarev/bank-core/internal/utils"
)

func TestApplyForCard(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	user, _ := seedUser(store, "alice@example.com", "1234567890", dec("0"))

	app, err := svc.ApplyForCard(context.Background(), user.ID, "online purchases")
	if err != nil {
		t.Fatalf("ApplyForCard failed: %v", err)
	}
	if app.Status != models.ApplicationPending {
		t.Errorf("status = %s, want PENDING", app.Status)
	}

	if _, err := svc.ApplyForCard(context.Background(), user.ID, "another one"); !errors.Is(err, models.ErrInvalidState) {
		t.Errorf("second application err = %v, want ErrInvalidState", err)
	}
	if _, err := svc.ApplyForCard(context.Background(), user.ID, ""); err == nil {
		t.Error("application without purpose succeeded")
	}
}

func TestApproveCardApplication(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	user, _ := seedUser(store, "alice@example.com", "1234567890", dec("0"))
	admin := seedStaff(store, "staff@example.com", "9999999999")

	app, err := svc.ApplyForCard(context.Background(), user.ID, "online purchases")
	if err != nil {
		t.Fatalf("ApplyForCard failed: %v", err)
	}

	card, err := svc.ApproveCardApplication(context.Background(), app.ID, admin.ID)
	if err != nil {
		t.Fatalf("ApproveCardApplication failed: %v", err)
	}
	if card.Status != models.CardStatusPending {
		t.Errorf("card status = %s, want PENDING until the fee is paid", card.Status)
	}
	if !regexp.MustCompile(`^400000\d{10}$`).MatchString(card.CardNumber) {
		t.Errorf("card number %q does not match the 400000 BIN, 16 digits", card.CardNumber)
	}
	if !regexp.MustCompile(`^(0[1-9]|1[0-2])/\d{2}$`).MatchString(card.ExpiryDate) {
		t.Errorf("expiry date %q is not MM/YY", card.ExpiryDate)
	}
	if !card.FeeAmount.Equal(dec("10.00")) {
		t.Errorf("fee = %s, want 10.00", card.FeeAmount)
	}
	if card.CardHolderName != user.FullName() {
		t.Errorf("holder name = %q, want %q", card.CardHolderName, user.FullName())
	}
	// The CVV never leaves as plaintext; the hash must at least be a bcrypt hash.
	if _, err := bcrypt.Cost([]byte(card.CVVHash)); err != nil {
		t.Errorf("CVV hash is not a bcrypt hash: %v", err)
	}
	if card.HMAC == "" {
		t.Error("card HMAC is empty")
	}

	// Re-deciding the application is refused.
	if _, err := svc.ApproveCardApplication(context.Background(), app.ID, admin.ID); !errors.Is(err, models.ErrInvalidState) {
		t.Errorf("second approval err = %v, want ErrInvalidState", err)
	}
	if err := svc.RejectCardApplication(context.Background(), app.ID, admin.ID, "no"); !errors.Is(err, models.ErrInvalidState) {
		t.Errorf("reject after approve err = %v, want ErrInvalidState", err)
	}
}

func TestPayCardFee(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	user, account := seedUser(store, "alice@example.com", "1234567890", dec("25.00"))
	admin := seedStaff(store, "staff@example.com", "9999999999")

	app, _ := svc.ApplyForCard(context.Background(), user.ID, "online purchases")
	if _, err := svc.ApproveCardApplication(context.Background(), app.ID, admin.ID); err != nil {
		t.Fatalf("ApproveCardApplication failed: %v", err)
	}

	card, err := svc.PayCardFee(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("PayCardFee failed: %v", err)
	}
	if card.Status != models.CardStatusActive || !card.FeePaid {
		t.Errorf("card = %s feePaid=%v, want ACTIVE and paid", card.Status, card.FeePaid)
	}
	if card.IssuedAt == nil {
		t.Error("issued_at not set")
	}
	if got := balanceOf(store, account.ID); !got.Equal(dec("15.00")) {
		t.Errorf("balance = %s, want 15.00 after the fee", got)
	}

	// The fee went through the ledger.
	txns, _ := store.ListTransactions(context.Background(), account.ID, 10)
	if len(txns) != 1 || txns[0].Type != models.TransactionWithdraw {
		t.Error("fee payment did not leave a WITHDRAW record")
	}

	// Paying twice is refused.
	if _, err := svc.PayCardFee(context.Background(), user.ID); !errors.Is(err, models.ErrInvalidState) {
		t.Errorf("second fee payment err = %v, want ErrInvalidState", err)
	}
}

func TestPayCardFeeInsufficientFunds(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	user, account := seedUser(store, "alice@example.com", "1234567890", dec("5.00"))
	admin := seedStaff(store, "staff@example.com", "9999999999")

	app, _ := svc.ApplyForCard(context.Background(), user.ID, "online purchases")
	if _, err := svc.ApproveCardApplication(context.Background(), app.ID, admin.ID); err != nil {
		t.Fatalf("ApproveCardApplication failed: %v", err)
	}

	if _, err := svc.PayCardFee(context.Background(), user.ID); !errors.Is(err, models.ErrInsufficientFunds) {
		t.Fatalf("err = %v, want ErrInsufficientFunds", err)
	}

	// Card stays PENDING, balance untouched.
	card, err := svc.GetDebitCard(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("GetDebitCard failed: %v", err)
	}
	if card.Status != models.CardStatusPending || card.FeePaid {
		t.Errorf("card = %s feePaid=%v after failed payment, want PENDING unpaid", card.Status, card.FeePaid)
	}
	if got := balanceOf(store, account.ID); !got.Equal(dec("5.00")) {
		t.Errorf("balance = %s, want 5.00", got)
	}
}

func TestRejectCardApplication(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	user, _ := seedUser(store, "alice@example.com", "1234567890", dec("0"))
	admin := seedStaff(store, "staff@example.com", "9999999999")

	app, _ := svc.ApplyForCard(context.Background(), user.ID, "online purchases")
	if err := svc.RejectCardApplication(context.Background(), app.ID, admin.ID, "incomplete documents"); err != nil {
		t.Fatalf("RejectCardApplication failed: %v", err)
	}

	stored, _ := store.FindCardApplicationByID(context.Background(), app.ID)
	if stored.Status != models.ApplicationRejected {
		t.Errorf("status = %s, want REJECTED", stored.Status)
	}
	if stored.RejectionReason != "incomplete documents" {
		t.Errorf("reason = %q", stored.RejectionReason)
	}

	// No card was created.
	if _, err := svc.GetDebitCard(context.Background(), user.ID); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("card lookup err = %v, want ErrNotFound", err)
	}

	// A rejected application no longer blocks a new one.
	if _, err := svc.ApplyForCard(context.Background(), user.ID, "retry"); err != nil {
		t.Errorf("application after rejection failed: %v", err)
	}
}

func TestCardReviewRequiresStaff(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	user, _ := seedUser(store, "alice@example.com", "1234567890", dec("0"))

	app, _ := svc.ApplyForCard(context.Background(), user.ID, "online purchases")
	if _, err := svc.ApproveCardApplication(context.Background(), app.ID, user.ID); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("self-approval err = %v, want ErrNotFound", err)
	}
	if err := svc.RejectCardApplication(context.Background(), app.ID, user.ID, "no"); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("non-staff rejection err = %v, want ErrNotFound", err)
	}
	stored, _ := store.FindCardApplicationByID(context.Background(), app.ID)
	if stored.Status != models.ApplicationPending {
		t.Errorf("status = %s after refused reviews, want PENDING", stored.Status)
	}
}

func TestCardHMACBinding(t *testing.T) {
	h1 := utils.GenerateHMAC("4000001234567890", "01/30", "123", "secret")
	h2 := utils.GenerateHMAC("4000001234567890", "01/30", "124", "secret")
	h3 := utils.GenerateHMAC("4000001234567890", "01/30", "123", "other")
	if h1 == h2 || h1 == h3 {
		t.Error("HMAC does not bind all inputs")
	}
	if h1 != utils.GenerateHMAC("4000001234567890", "01/30", "123", "secret") {
		t.Error("HMAC is not deterministic")
	}
}
