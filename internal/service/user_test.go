package service

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/vkarev/bank-core/internal/models"
)

// approve flips a registered user's approval flag, standing in for the staff
// review step.
func approve(store *memStore, id uuid.UUID) {
	store.mu.Lock()
	defer store.mu.Unlock()
	u := store.users[id]
	u.IsApproved = true
	store.users[id] = u
}

func TestRegister(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)

	user, account, pin, err := svc.Register(context.Background(), "alice@example.com", "hunter22", "Alice", "Smith", "+15550001")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if !regexp.MustCompile(`^\d{4}$`).MatchString(pin) {
		t.Errorf("PIN %q is not 4 digits", pin)
	}
	if !regexp.MustCompile(`^[1-9]\d{9}$`).MatchString(account.AccountNumber) {
		t.Errorf("account number %q is not 10 digits with a non-zero lead", account.AccountNumber)
	}
	if !account.Balance.IsZero() {
		t.Errorf("new account balance = %s, want 0", account.Balance)
	}

	// Secrets are stored hashed, never plaintext.
	if user.PasswordHash == "hunter22" || user.PINHash == pin {
		t.Error("password or PIN stored in plaintext")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PINHash), []byte(pin)) != nil {
		t.Error("stored PIN hash does not verify the returned PIN")
	}
	if user.IsApproved {
		t.Error("fresh registration is pre-approved")
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)

	if _, _, _, err := svc.Register(context.Background(), "alice@example.com", "pw", "Alice", "Smith", ""); err != nil {
		t.Fatalf("first Register failed: %v", err)
	}
	if _, _, _, err := svc.Register(context.Background(), "alice@example.com", "pw", "Alice", "Smith", ""); err == nil {
		t.Fatal("second Register with the same email succeeded")
	}
	// The rolled-back registration must not leave an orphaned account.
	if len(store.accounts) != 1 {
		t.Errorf("%d accounts exist, want 1", len(store.accounts))
	}
}

func TestRegisterRetriesAccountNumberCollision(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)

	store.forceAccountCollision = 2
	if _, _, _, err := svc.Register(context.Background(), "alice@example.com", "pw", "Alice", "Smith", ""); err != nil {
		t.Fatalf("Register did not survive account number collisions: %v", err)
	}
}

func TestLogin(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	user, _, _, err := svc.Register(context.Background(), "alice@example.com", "hunter22", "Alice", "Smith", "")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	approve(store, user.ID)

	token, err := svc.Login(context.Background(), "alice@example.com", "hunter22")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(testConfig().JWTSecret), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("token does not verify: %v", err)
	}
	if claims.Subject != user.ID.String() {
		t.Errorf("token subject = %q, want user id %s", claims.Subject, user.ID)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	user, _, _, err := svc.Register(context.Background(), "alice@example.com", "hunter22", "Alice", "Smith", "")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	approve(store, user.ID)

	if _, err := svc.Login(context.Background(), "alice@example.com", "wrong"); err == nil {
		t.Error("Login with wrong password succeeded")
	}
	if _, err := svc.Login(context.Background(), "nobody@example.com", "hunter22"); err == nil {
		t.Error("Login with unknown email succeeded")
	}
}

func TestLoginRejectsInactiveUser(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	user, _, _, err := svc.Register(context.Background(), "alice@example.com", "hunter22", "Alice", "Smith", "")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	approve(store, user.ID)

	stored := store.users[user.ID]
	stored.IsActive = false
	store.users[user.ID] = stored

	if _, err := svc.Login(context.Background(), "alice@example.com", "hunter22"); err == nil {
		t.Error("Login for deactivated user succeeded")
	}
}

func TestLoginRequiresApproval(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	user, _, _, err := svc.Register(context.Background(), "alice@example.com", "hunter22", "Alice", "Smith", "")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	// A fresh registration cannot log in until staff approves it.
	if _, err := svc.Login(context.Background(), "alice@example.com", "hunter22"); err == nil {
		t.Fatal("Login for unapproved user succeeded")
	}

	// Non-staff cannot approve.
	if err := svc.ApproveUser(context.Background(), user.ID, user.ID); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("self-approval err = %v, want ErrNotFound", err)
	}

	admin := seedStaff(store, "staff@example.com", "9999999999")
	if err := svc.ApproveUser(context.Background(), user.ID, admin.ID); err != nil {
		t.Fatalf("ApproveUser failed: %v", err)
	}
	if _, err := svc.Login(context.Background(), "alice@example.com", "hunter22"); err != nil {
		t.Errorf("Login after approval failed: %v", err)
	}

	// Approving twice is refused.
	if err := svc.ApproveUser(context.Background(), user.ID, admin.ID); !errors.Is(err, models.ErrInvalidState) {
		t.Errorf("second approval err = %v, want ErrInvalidState", err)
	}

	notifications, _ := svc.ListNotifications(context.Background(), user.ID)
	if len(notifications) != 1 {
		t.Errorf("%d notifications, want approval notice", len(notifications))
	}
}
