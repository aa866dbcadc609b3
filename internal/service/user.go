package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/apihub/apihub/internal/metrics"
	"github.com/apihub/apihub/internal/model"
	"github.com/apihub/apihub/internal/policy"
	"github.com/apihub/apihub/internal/repository"
)

// UserService handles user profile operations.
type UserService struct {
	users  UserStore
	cache  ActorCache
	guard  guard
	logger *slog.Logger
	rec    metrics.Recorder
}

// NewUserService creates a new UserService. cache may be nil.
func NewUserService(users UserStore, cache ActorCache, logger *slog.Logger, recorder metrics.Recorder) *UserService {
	g := newGuard(logger, recorder)
	return &UserService{
		users:  users,
		cache:  cache,
		guard:  g,
		logger: g.logger.With("component", "users"),
		rec:    g.metrics,
	}
}

// UpdateUserInput is a partial profile update. Nil fields are left unchanged.
type UpdateUserInput struct {
	Name  *string
	Email *string
	Role  *model.Role
}

// List returns every user, newest first.
func (s *UserService) List(ctx context.Context, actor *model.Actor) ([]*model.User, error) {
	if err := s.guard.allow(ctx, actor, policy.ActionUserList); err != nil {
		return nil, err
	}
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// Get returns a single user. Non-admins may only read themselves.
func (s *UserService) Get(ctx context.Context, actor *model.Actor, id string) (*model.User, error) {
	if err := s.guard.allow(ctx, actor, policy.ActionUserRead); err != nil {
		return nil, err
	}
	user, err := loadUser(ctx, s.users, id)
	if err != nil {
		return nil, err
	}
	if err := s.guard.authorize(ctx, actor, policy.ActionUserRead, userTarget(user)); err != nil {
		return nil, err
	}
	return user, nil
}

// Update changes a profile. Changing the role additionally requires user:set-role.
func (s *UserService) Update(ctx context.Context, actor *model.Actor, id string, input UpdateUserInput) (*model.User, error) {
	if err := s.guard.allow(ctx, actor, policy.ActionUserUpdate); err != nil {
		return nil, err
	}
	if input.Role != nil {
		if err := s.guard.allow(ctx, actor, policy.ActionUserSetRole); err != nil {
			return nil, err
		}
	}

	user, err := loadUser(ctx, s.users, id)
	if err != nil {
		return nil, err
	}
	if err := s.guard.authorize(ctx, actor, policy.ActionUserUpdate, userTarget(user)); err != nil {
		return nil, err
	}

	roleChanged := false
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, invalid("name", "Name is required")
		}
		user.Name = name
	}
	if input.Email != nil {
		email, err := normalizeEmail(*input.Email)
		if err != nil {
			return nil, err
		}
		user.Email = email
	}
	if input.Role != nil {
		if !input.Role.IsValid() {
			return nil, invalid("role", "Invalid role")
		}
		roleChanged = *input.Role != user.Role
		user.Role = *input.Role
	}
	user.UpdatedAt = now()

	if err := s.users.UpdateUser(ctx, user); err != nil {
		return nil, mapUserWriteErr(err)
	}
	if roleChanged {
		invalidateActor(ctx, s.cache, s.logger, user.ID)
	}

	s.rec.IncMutation("user", "update")
	return user, nil
}

// Delete removes a user. Their categories and APIs remain with no owner.
func (s *UserService) Delete(ctx context.Context, actor *model.Actor, id string) error {
	if err := s.guard.allow(ctx, actor, policy.ActionUserDelete); err != nil {
		return err
	}
	if err := s.users.DeleteUser(ctx, id); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return notFound("User")
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}
	invalidateActor(ctx, s.cache, s.logger, id)

	s.rec.IncMutation("user", "delete")
	return nil
}

func loadUser(ctx context.Context, users UserStore, id string) (*model.User, error) {
	user, err := users.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, notFound("User")
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}

func mapUserWriteErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrEmailExists):
		return fmt.Errorf("%w: email already registered", ErrConflict)
	case errors.Is(err, repository.ErrUserNotFound):
		return notFound("User")
	default:
		return fmt.Errorf("failed to update user: %w", err)
	}
}

// userTarget treats a user as owning their own record.
func userTarget(user *model.User) policy.Target {
	return policy.Target{ID: user.ID, OwnerID: user.ID}
}
