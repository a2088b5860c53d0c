package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/vkarev/bank-core/internal/models"
)

// CreateNotification stores a notification for a user.
func (r *Repository) CreateNotification(ctx context.Context, n *models.Notification) error {
	query := `
		INSERT INTO bank.notifications (id, user_id, title, message, type, is_read, related_object_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, CURRENT_TIMESTAMP)
		RETURNING created_at`
	err := r.q(ctx).QueryRowContext(ctx, query,
		n.ID, n.UserID, n.Title, n.Message, n.Type, n.IsRead, n.RelatedObjectID).
		Scan(&n.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

// ListNotifications returns all notifications of a user, newest first.
func (r *Repository) ListNotifications(ctx context.Context, userID uuid.UUID) ([]models.Notification, error) {
	query := `
		SELECT id, user_id, title, message, type, is_read, related_object_id, created_at
		FROM bank.notifications
		WHERE user_id = $1
		ORDER BY created_at DESC`
	rows, err := r.q(ctx).QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()
	var out []models.Notification
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Type, &n.IsRead, &n.RelatedObjectID, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read notifications: %w", err)
	}
	return out, nil
}

// MarkNotificationRead marks one of the user's notifications as read.
func (r *Repository) MarkNotificationRead(ctx context.Context, id, userID uuid.UUID) error {
	query := `UPDATE bank.notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2`
	res, err := r.q(ctx).ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}
	return nil
}
