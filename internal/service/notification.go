package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/apihub/apihub/internal/metrics"
	"github.com/apihub/apihub/internal/model"
	"github.com/apihub/apihub/internal/policy"
	"github.com/apihub/apihub/internal/repository"
)

// DefaultNotificationListLimit caps the notification list.
const DefaultNotificationListLimit = 50

// NotificationList is the recipient's inbox view.
type NotificationList struct {
	Notifications []*model.Notification
	UnreadCount   int64
}

// NotificationService manages the actor's own notifications.
type NotificationService struct {
	notifications NotificationStore
	limit         int
	guard         guard
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(store NotificationStore, limit int, logger *slog.Logger, recorder metrics.Recorder) *NotificationService {
	if limit <= 0 {
		limit = DefaultNotificationListLimit
	}
	return &NotificationService{
		notifications: store,
		limit:         limit,
		guard:         newGuard(logger, recorder),
	}
}

// List returns the newest notifications addressed to the actor and the unread count.
func (s *NotificationService) List(ctx context.Context, actor *model.Actor) (*NotificationList, error) {
	if err := s.guard.allow(ctx, actor, policy.ActionNotificationRead); err != nil {
		return nil, err
	}

	notifications, err := s.notifications.ListNotifications(ctx, actor.ID, s.limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	unread, err := s.notifications.CountUnreadNotifications(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count unread notifications: %w", err)
	}

	return &NotificationList{Notifications: notifications, UnreadCount: unread}, nil
}

// UnreadCount returns how many of the actor's notifications are unread.
func (s *NotificationService) UnreadCount(ctx context.Context, actor *model.Actor) (int64, error) {
	if err := s.guard.allow(ctx, actor, policy.ActionNotificationRead); err != nil {
		return 0, err
	}
	unread, err := s.notifications.CountUnreadNotifications(ctx, actor.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return unread, nil
}

// MarkRead flags one of the actor's notifications as read.
// Notifications addressed to someone else are reported as not found.
func (s *NotificationService) MarkRead(ctx context.Context, actor *model.Actor, id string) (*model.Notification, error) {
	if err := s.guard.allow(ctx, actor, policy.ActionNotificationManage); err != nil {
		return nil, err
	}
	n, err := s.notifications.MarkNotificationRead(ctx, id, actor.ID)
	if err != nil {
		return nil, mapNotificationErr(err, "failed to mark notification read")
	}
	return n, nil
}

// MarkAllRead flags every unread notification of the actor as read.
func (s *NotificationService) MarkAllRead(ctx context.Context, actor *model.Actor) (int64, error) {
	if err := s.guard.allow(ctx, actor, policy.ActionNotificationManage); err != nil {
		return 0, err
	}
	updated, err := s.notifications.MarkAllNotificationsRead(ctx, actor.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return updated, nil
}

// Delete removes one of the actor's notifications.
func (s *NotificationService) Delete(ctx context.Context, actor *model.Actor, id string) error {
	if err := s.guard.allow(ctx, actor, policy.ActionNotificationManage); err != nil {
		return err
	}
	if err := s.notifications.DeleteNotification(ctx, id, actor.ID); err != nil {
		return mapNotificationErr(err, "failed to delete notification")
	}
	return nil
}

func mapNotificationErr(err error, msg string) error {
	if errors.Is(err, repository.ErrNotificationNotFound) {
		return notFound("Notification")
	}
	return fmt.Errorf("%s: %w", msg, err)
}
