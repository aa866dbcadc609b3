package service

import (
	"context"

	"github.com/apihub/apihub/internal/model"
	"github.com/apihub/apihub/internal/repository"
)

// UserStore persists users.
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	ListUsers(ctx context.Context) ([]*model.User, error)
	UpdateUser(ctx context.Context, user *model.User) error
	DeleteUser(ctx context.Context, id string) error
	CountUsers(ctx context.Context, filter repository.UserFilter) (int64, error)
}

// CategoryStore persists categories.
type CategoryStore interface {
	CreateCategory(ctx context.Context, category *model.Category) error
	GetCategoryByID(ctx context.Context, id string) (*model.Category, error)
	CategoryExists(ctx context.Context, id string) (bool, error)
	ListCategories(ctx context.Context) ([]*model.Category, error)
	UpdateCategory(ctx context.Context, category *model.Category) error
	DeleteCategory(ctx context.Context, id string) error
	CountCategories(ctx context.Context, ownerID string) (int64, error)
}

// APIStore persists catalog entries.
type APIStore interface {
	CreateAPI(ctx context.Context, api *model.API) error
	GetAPIByID(ctx context.Context, id string) (*model.API, error)
	ListAPIs(ctx context.Context, filter repository.APIFilter) ([]*model.API, error)
	UpdateAPI(ctx context.Context, api *model.API) error
	DeleteAPI(ctx context.Context, id string) error
	CountAPIs(ctx context.Context, filter repository.APIFilter) (int64, error)
	CountAPIsByMethod(ctx context.Context, filter repository.APIFilter) ([]model.MethodCount, error)
}

// NotificationStore persists notifications. Every lookup is scoped to the recipient.
type NotificationStore interface {
	CreateNotification(ctx context.Context, n *model.Notification) error
	ListNotifications(ctx context.Context, userID string, limit int) ([]*model.Notification, error)
	CountUnreadNotifications(ctx context.Context, userID string) (int64, error)
	MarkNotificationRead(ctx context.Context, id, userID string) (*model.Notification, error)
	MarkAllNotificationsRead(ctx context.Context, userID string) (int64, error)
	DeleteNotification(ctx context.Context, id, userID string) error
}

// Store is the full persistence surface. *repository.Repository satisfies it.
type Store interface {
	UserStore
	CategoryStore
	APIStore
	NotificationStore
}

// ActorCache invalidates cached identities after privilege changes.
type ActorCache interface {
	InvalidateActor(ctx context.Context, userID string) error
}

var _ Store = (*repository.Repository)(nil)
