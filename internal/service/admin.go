package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/apihub/apihub/internal/auth"
	"github.com/apihub/apihub/internal/metrics"
	"github.com/apihub/apihub/internal/model"
	"github.com/apihub/apihub/internal/policy"
	"github.com/apihub/apihub/internal/repository"
)

// RecentRegistrationWindow bounds "recent" in admin stats.
const RecentRegistrationWindow = 7 * 24 * time.Hour

// AdminStats is the admin dashboard summary. Recomputed on every call.
type AdminStats struct {
	TotalUsers          int64 `json:"totalUsers"`
	ActiveUsers         int64 `json:"activeUsers"`
	BlockedUsers        int64 `json:"blockedUsers"`
	AdminUsers          int64 `json:"adminUsers"`
	RecentRegistrations int64 `json:"recentRegistrations"`
}

// SendNotificationInput is the content of an admin message.
type SendNotificationInput struct {
	Title   string
	Message string
	Type    model.NotificationType
}

// AdminService handles account administration.
type AdminService struct {
	users      UserStore
	dispatcher *Dispatcher
	hasher     *auth.PasswordHasher
	cache      ActorCache
	guard      guard
	logger     *slog.Logger
	clock      func() time.Time
}

// NewAdminService creates a new AdminService. cache may be nil.
func NewAdminService(
	users UserStore,
	dispatcher *Dispatcher,
	hasher *auth.PasswordHasher,
	cache ActorCache,
	logger *slog.Logger,
	recorder metrics.Recorder,
) *AdminService {
	g := newGuard(logger, recorder)
	return &AdminService{
		users:      users,
		dispatcher: dispatcher,
		hasher:     hasher,
		cache:      cache,
		guard:      g,
		logger:     g.logger.With("component", "admin"),
		clock:      now,
	}
}

// Stats counts users by state.
func (s *AdminService) Stats(ctx context.Context, actor *model.Actor) (*AdminStats, error) {
	if err := s.guard.allow(ctx, actor, policy.ActionAdminStats); err != nil {
		return nil, err
	}

	active, blocked := true, false
	since := s.clock().Add(-RecentRegistrationWindow)

	stats := &AdminStats{}
	counts := []struct {
		filter repository.UserFilter
		dst    *int64
	}{
		{repository.UserFilter{}, &stats.TotalUsers},
		{repository.UserFilter{Active: &active}, &stats.ActiveUsers},
		{repository.UserFilter{Active: &blocked}, &stats.BlockedUsers},
		{repository.UserFilter{Role: model.RoleAdmin}, &stats.AdminUsers},
		{repository.UserFilter{CreatedAfter: &since}, &stats.RecentRegistrations},
	}

	for _, c := range counts {
		n, err := s.users.CountUsers(ctx, c.filter)
		if err != nil {
			return nil, fmt.Errorf("failed to count users: %w", err)
		}
		*c.dst = n
	}

	return stats, nil
}

// ListUsers returns every user, newest first, without password hashes.
func (s *AdminService) ListUsers(ctx context.Context, actor *model.Actor) ([]*model.User, error) {
	if err := s.guard.allow(ctx, actor, policy.ActionUserList); err != nil {
		return nil, err
	}
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// ToggleActive blocks an active user or unblocks a blocked one and notifies them.
// When the notification cannot be stored the flip is kept and the user is
// returned together with the dispatch error.
func (s *AdminService) ToggleActive(ctx context.Context, actor *model.Actor, id string) (*model.User, error) {
	if err := s.guard.allow(ctx, actor, policy.ActionUserToggleActive); err != nil {
		return nil, err
	}
	user, err := loadUser(ctx, s.users, id)
	if err != nil {
		return nil, err
	}
	if err := s.guard.authorize(ctx, actor, policy.ActionUserToggleActive, userTarget(user)); err != nil {
		return nil, err
	}

	user.IsActive = !user.IsActive
	user.UpdatedAt = now()
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return nil, mapUserWriteErr(err)
	}
	invalidateActor(ctx, s.cache, s.logger, user.ID)
	s.guard.metrics.IncMutation("user", "toggle-active")

	kind := MutationUserReactivated
	if !user.IsActive {
		kind = MutationUserDeactivated
	}
	s.logger.InfoContext(ctx, "user active flag changed",
		"actor_id", actor.ID,
		"user_id", user.ID,
		"is_active", user.IsActive,
	)

	if _, err := s.dispatcher.OnMutationSucceeded(ctx, kind, user, actor, nil); err != nil {
		return user, err
	}
	return user, nil
}

// ChangePassword sets a new password for another user and notifies them.
func (s *AdminService) ChangePassword(ctx context.Context, actor *model.Actor, id, newPassword string) error {
	if err := s.guard.allow(ctx, actor, policy.ActionUserChangePassword); err != nil {
		return err
	}
	if err := validatePassword("newPassword", newPassword); err != nil {
		return err
	}
	user, err := loadUser(ctx, s.users, id)
	if err != nil {
		return err
	}
	if err := s.guard.authorize(ctx, actor, policy.ActionUserChangePassword, userTarget(user)); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.Password = hash
	user.UpdatedAt = now()
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return mapUserWriteErr(err)
	}
	invalidateActor(ctx, s.cache, s.logger, user.ID)
	s.guard.metrics.IncMutation("user", "change-password")

	s.logger.InfoContext(ctx, "password changed by admin", "actor_id", actor.ID, "user_id", user.ID)

	_, err = s.dispatcher.OnMutationSucceeded(ctx, MutationPasswordChangedByAdmin, user, actor, nil)
	return err
}

// SendNotification delivers an admin message to one user.
func (s *AdminService) SendNotification(ctx context.Context, actor *model.Actor, id string, input SendNotificationInput) (*model.Notification, error) {
	if err := s.guard.allow(ctx, actor, policy.ActionNotificationSend); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(input.Title)
	message := strings.TrimSpace(input.Message)
	if title == "" || message == "" {
		field := "title"
		if title != "" {
			field = "message"
		}
		return nil, invalid(field, "Title and message are required")
	}
	if input.Type != "" && !input.Type.IsValid() {
		return nil, invalid("type", "Invalid notification type")
	}

	user, err := loadUser(ctx, s.users, id)
	if err != nil {
		return nil, err
	}
	if err := s.guard.authorize(ctx, actor, policy.ActionNotificationSend, userTarget(user)); err != nil {
		return nil, err
	}

	return s.dispatcher.OnMutationSucceeded(ctx, MutationAdminMessage, user, actor, &MessagePayload{
		Title:   title,
		Message: message,
		Type:    input.Type,
	})
}
