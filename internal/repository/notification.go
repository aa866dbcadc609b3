package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/apihub/apihub/internal/model"
)

// ErrNotificationNotFound is returned when a notification does not resolve for its recipient.
var ErrNotificationNotFound = errors.New("notification not found")

const notificationSelect = `
	SELECT n.id, n.user_id, n.title, n.message, n.type, n.sender_id, n.is_read, n.created_at,
	       s.name, s.email
	FROM notifications n
	LEFT JOIN users s ON s.id = n.sender_id
`

// CreateNotification inserts a notification.
func (r *Repository) CreateNotification(ctx context.Context, n *model.Notification) error {
	query := `
		INSERT INTO notifications (id, user_id, title, message, type, sender_id, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.pool.Exec(ctx, query,
		n.ID,
		n.UserID,
		n.Title,
		n.Message,
		n.Type,
		nullable(n.SenderID),
		n.IsRead,
		n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	return nil
}

// ListNotifications returns a recipient's newest notifications.
func (r *Repository) ListNotifications(ctx context.Context, userID string, limit int) ([]*model.Notification, error) {
	query := notificationSelect + ` WHERE n.user_id = $1 ORDER BY n.created_at DESC, n.id DESC LIMIT $2`

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	notifications := []*model.Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notifications: %w", err)
	}

	return notifications, nil
}

// CountUnreadNotifications counts a recipient's unread notifications.
func (r *Repository) CountUnreadNotifications(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = FALSE`,
		userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}

	return count, nil
}

// MarkNotificationRead flags one of the recipient's notifications as read.
func (r *Repository) MarkNotificationRead(ctx context.Context, id, userID string) (*model.Notification, error) {
	result, err := r.pool.Exec(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to mark notification read: %w", err)
	}
	if result.RowsAffected() == 0 {
		return nil, ErrNotificationNotFound
	}

	n, err := scanNotification(r.pool.QueryRow(ctx, notificationSelect+` WHERE n.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotificationNotFound
		}
		return nil, fmt.Errorf("failed to reload notification: %w", err)
	}

	return n, nil
}

// MarkAllNotificationsRead flags every unread notification of the recipient as read.
func (r *Repository) MarkAllNotificationsRead(ctx context.Context, userID string) (int64, error) {
	result, err := r.pool.Exec(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND is_read = FALSE`,
		userID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}

	return result.RowsAffected(), nil
}

// DeleteNotification removes one of the recipient's notifications.
func (r *Repository) DeleteNotification(ctx context.Context, id, userID string) error {
	result, err := r.pool.Exec(ctx,
		`DELETE FROM notifications WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotificationNotFound
	}

	return nil
}

func scanNotification(row pgx.Row) (*model.Notification, error) {
	var (
		n           model.Notification
		senderID    *string
		senderName  *string
		senderEmail *string
	)
	err := row.Scan(
		&n.ID,
		&n.UserID,
		&n.Title,
		&n.Message,
		&n.Type,
		&senderID,
		&n.IsRead,
		&n.CreatedAt,
		&senderName,
		&senderEmail,
	)
	if err != nil {
		return nil, err
	}

	n.SenderID = deref(senderID)
	if senderID != nil && senderName != nil {
		n.Sender = &model.UserRef{ID: *senderID, Name: *senderName, Email: deref(senderEmail)}
	}

	return &n, nil
}
