package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/vkarev/bank-core/internal/models"
)

// RequestProfileUpdate stages a name/phone change for staff review. A
// repeated request while one is pending replaces the staged values instead
// of opening a second request.
func (s *Service) RequestProfileUpdate(ctx context.Context, userID uuid.UUID, firstName, lastName, phone string) (*models.ProfileUpdate, error) {
	pending, err := s.store.FindPendingProfileUpdate(ctx, userID)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}
	if pending != nil {
		pending.FirstName = firstName
		pending.LastName = lastName
		pending.Phone = phone
		pending.RequestedAt = time.Now()
		if err := s.store.UpdateProfileUpdate(ctx, pending); err != nil {
			return nil, err
		}
		return pending, nil
	}

	update := &models.ProfileUpdate{
		ID:        uuid.New(),
		UserID:    userID,
		FirstName: firstName,
		LastName:  lastName,
		Phone:     phone,
		Status:    models.ApplicationPending,
	}
	if err := s.store.CreateProfileUpdate(ctx, update); err != nil {
		return nil, err
	}
	return update, nil
}

// ApproveProfileUpdate copies the staged fields onto the user record, marks
// the request APPROVED and notifies the user. All of it commits together.
// Only staff may approve.
func (s *Service) ApproveProfileUpdate(ctx context.Context, updateID, adminID uuid.UUID) error {
	if err := s.requireStaff(ctx, adminID); err != nil {
		return err
	}
	err := s.store.WithTx(ctx, func(ctx context.Context) error {
		update, err := s.store.FindProfileUpdateByID(ctx, updateID)
		if err != nil {
			return err
		}
		if update.Status != models.ApplicationPending {
			return models.ErrInvalidState
		}
		user, err := s.store.FindUserByID(ctx, update.UserID)
		if err != nil {
			return err
		}

		user.FirstName = update.FirstName
		user.LastName = update.LastName
		user.Phone = update.Phone
		if err := s.store.UpdateUser(ctx, user); err != nil {
			return err
		}

		now := time.Now()
		update.Status = models.ApplicationApproved
		update.ReviewedBy = &adminID
		update.ReviewedAt = &now
		if err := s.store.UpdateProfileUpdate(ctx, update); err != nil {
			return err
		}
		return s.notify(ctx, update.UserID, "Profile Update Approved",
			"Your profile changes have been approved and applied to your account.",
			models.NotificationApproval, update.ID.String())
	})
	if err != nil {
		return err
	}
	s.log.Infof("Profile update %s approved by %s", updateID, adminID)
	return nil
}

// RejectProfileUpdate marks a pending request REJECTED with a reason and
// notifies the user. Only staff may reject.
func (s *Service) RejectProfileUpdate(ctx context.Context, updateID, adminID uuid.UUID, reason string) error {
	if err := s.requireStaff(ctx, adminID); err != nil {
		return err
	}
	err := s.store.WithTx(ctx, func(ctx context.Context) error {
		update, err := s.store.FindProfileUpdateByID(ctx, updateID)
		if err != nil {
			return err
		}
		if update.Status != models.ApplicationPending {
			return models.ErrInvalidState
		}

		now := time.Now()
		update.Status = models.ApplicationRejected
		update.ReviewedBy = &adminID
		update.ReviewedAt = &now
		update.RejectionReason = reason
		if err := s.store.UpdateProfileUpdate(ctx, update); err != nil {
			return err
		}
		message := "Your profile changes were not approved."
		if reason != "" {
			message = "Your profile changes were not approved. Reason: " + reason
		}
		return s.notify(ctx, update.UserID, "Profile Update Rejected", message,
			models.NotificationRejection, update.ID.String())
	})
	if err != nil {
		return err
	}
	s.log.Infof("Profile update %s rejected by %s", updateID, adminID)
	return nil
}
