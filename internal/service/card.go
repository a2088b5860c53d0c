package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/vkarev/bank-core/internal/models"
	"github.com/vkarev/bank-core/internal/utils"
)

// ApplyForCard files a debit card application. A user can hold only one
// pending or approved application at a time.
func (s *Service) ApplyForCard(ctx context.Context, userID uuid.UUID, purpose string) (*models.CardApplication, error) {
	if purpose == "" {
		return nil, fmt.Errorf("purpose is required")
	}
	if existing, err := s.store.FindOpenCardApplication(ctx, userID); err == nil && existing != nil {
		return nil, models.ErrInvalidState
	} else if err != nil && !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	app := &models.CardApplication{
		ID:       uuid.New(),
		UserID:   userID,
		CardType: "DEBIT",
		Purpose:  purpose,
		Status:   models.ApplicationPending,
	}
	if err := s.store.CreateCardApplication(ctx, app); err != nil {
		return nil, err
	}
	s.log.Infof("Card application %s filed by user %s", app.ID, userID)
	return app, nil
}

// ApproveCardApplication moves a PENDING application to APPROVED, creates
// the PENDING debit card and notifies the applicant. The card stays PENDING
// until its issuance fee is paid. Only staff may approve.
func (s *Service) ApproveCardApplication(ctx context.Context, appID, adminID uuid.UUID) (*models.DebitCard, error) {
	if err := s.requireStaff(ctx, adminID); err != nil {
		return nil, err
	}
	var card *models.DebitCard
	err := s.store.WithTx(ctx, func(ctx context.Context) error {
		app, err := s.store.FindCardApplicationByID(ctx, appID)
		if err != nil {
			return err
		}
		if app.Status != models.ApplicationPending {
			return models.ErrInvalidState
		}
		user, err := s.store.FindUserByID(ctx, app.UserID)
		if err != nil {
			return err
		}

		now := time.Now()
		app.Status = models.ApplicationApproved
		app.ReviewedBy = &adminID
		app.ReviewedAt = &now
		if err := s.store.UpdateCardApplication(ctx, app); err != nil {
			return err
		}

		card, err = s.newDebitCard(user)
		if err != nil {
			return err
		}
		if err := s.store.CreateDebitCard(ctx, card); err != nil {
			return err
		}
		return s.notify(ctx, app.UserID, "Card Application Approved",
			fmt.Sprintf("Your card application has been approved. You can now pay the $%s fee to activate your card.", s.cardFee),
			models.NotificationApproval, app.ID.String())
	})
	if err != nil {
		return nil, err
	}
	s.log.Infof("Card application %s approved by %s", appID, adminID)
	return card, nil
}

// newDebitCard builds a PENDING card with freshly generated credentials. The
// CVV is stored only as a bcrypt hash; the HMAC binds number, expiry and CVV
// for later integrity checks.
func (s *Service) newDebitCard(user *models.User) (*models.DebitCard, error) {
	cardNumber, err := utils.GenerateCardNumber("400000", 16)
	if err != nil {
		return nil, fmt.Errorf("failed to generate card number: %w", err)
	}
	expiryDate := utils.GenerateExpiryDate()
	cvv, err := utils.GenerateCVV()
	if err != nil {
		return nil, fmt.Errorf("failed to generate CVV: %w", err)
	}
	cvvHash, err := bcrypt.GenerateFromPassword([]byte(cvv), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash CVV: %w", err)
	}

	return &models.DebitCard{
		ID:             uuid.New(),
		UserID:         user.ID,
		CardNumber:     cardNumber,
		CardHolderName: user.FullName(),
		ExpiryDate:     expiryDate,
		CVVHash:        string(cvvHash),
		HMAC:           utils.GenerateHMAC(cardNumber, expiryDate, cvv, s.config.HMACSecret),
		Status:         models.CardStatusPending,
		FeeAmount:      s.cardFee,
	}, nil
}

// RejectCardApplication moves a PENDING application to REJECTED with a
// reason and notifies the applicant. Only staff may reject.
func (s *Service) RejectCardApplication(ctx context.Context, appID, adminID uuid.UUID, reason string) error {
	if err := s.requireStaff(ctx, adminID); err != nil {
		return err
	}
	err := s.store.WithTx(ctx, func(ctx context.Context) error {
		app, err := s.store.FindCardApplicationByID(ctx, appID)
		if err != nil {
			return err
		}
		if app.Status != models.ApplicationPending {
			return models.ErrInvalidState
		}

		now := time.Now()
		app.Status = models.ApplicationRejected
		app.ReviewedBy = &adminID
		app.ReviewedAt = &now
		app.RejectionReason = reason
		if err := s.store.UpdateCardApplication(ctx, app); err != nil {
			return err
		}
		return s.notify(ctx, app.UserID, "Card Application Rejected",
			fmt.Sprintf("Your card application has been rejected. Reason: %s", reason),
			models.NotificationRejection, app.ID.String())
	})
	if err != nil {
		return err
	}
	s.log.Infof("Card application %s rejected by %s", appID, adminID)
	return nil
}

// PayCardFee withdraws the issuance fee from the cardholder's account
// through the ledger and activates the PENDING card. Fee withdrawal and
// card activation commit as one unit; if the withdrawal fails the card
// stays PENDING.
func (s *Service) PayCardFee(ctx context.Context, userID uuid.UUID) (*models.DebitCard, error) {
	var card *models.DebitCard
	err := s.store.WithTx(ctx, func(ctx context.Context) error {
		var err error
		card, err = s.store.FindDebitCardByUserID(ctx, userID)
		if err != nil {
			return err
		}
		if card.Status != models.CardStatusPending || card.FeePaid {
			return models.ErrInvalidState
		}
		account, err := s.store.FindAccountByUserID(ctx, userID)
		if err != nil {
			return err
		}

		if _, err := s.Withdraw(ctx, account.ID, card.FeeAmount, "Debit Card Issuance Fee"); err != nil {
			return err
		}

		now := time.Now()
		card.Status = models.CardStatusActive
		card.FeePaid = true
		card.IssuedAt = &now
		if err := s.store.UpdateDebitCard(ctx, card); err != nil {
			return err
		}
		return s.notify(ctx, userID, "Debit Card Activated",
			fmt.Sprintf("Your debit card ending in %s has been activated.", card.CardNumber[len(card.CardNumber)-4:]),
			models.NotificationInfo, card.ID.String())
	})
	if err != nil {
		return nil, err
	}
	s.log.Infof("Card fee paid, card %s active", card.ID)
	return card, nil
}

// GetDebitCard returns the user's card.
func (s *Service) GetDebitCard(ctx context.Context, userID uuid.UUID) (*models.DebitCard, error) {
	return s.store.FindDebitCardByUserID(ctx, userID)
}
