package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/apihub/apihub/internal/auth"
	"github.com/apihub/apihub/internal/metrics"
	"github.com/apihub/apihub/internal/model"
	"github.com/apihub/apihub/internal/testutil"
	"github.com/apihub/apihub/internal/testutil/memstore"
)

// cheapParams keeps argon2 fast in unit tests.
var cheapParams = auth.Params{Time: 1, Memory: 1024, Threads: 1, KeyLen: 16, SaltLen: 8}

type fixture struct {
	store   *memstore.Store
	cache   *memstore.ActorCache
	metrics *metrics.InMemoryRecorder
	hasher  *auth.PasswordHasher
	tokens  *auth.TokenManager

	auth          *AuthService
	users         *UserService
	admin         *AdminService
	categories    *CategoryService
	apis          *APIService
	notifications *NotificationService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memstore.New()
	actors := memstore.NewActorCache()
	rec := metrics.NewInMemory()
	hasher := auth.NewPasswordHasher(cheapParams)
	tokens := auth.NewTokenManager("test-secret-that-is-long-enough", "apihub-test", time.Hour)
	dispatcher := NewDispatcher(store, logger, rec)

	return &fixture{
		store:         store,
		cache:         actors,
		metrics:       rec,
		hasher:        hasher,
		tokens:        tokens,
		auth:          NewAuthService(store, hasher, tokens, actors, logger, rec),
		users:         NewUserService(store, actors, logger, rec),
		admin:         NewAdminService(store, dispatcher, hasher, actors, logger, rec),
		categories:    NewCategoryService(store, logger, rec),
		apis:          NewAPIService(store, store, logger, rec),
		notifications: NewNotificationService(store, 0, logger, rec),
	}
}

// seedUser stores a user with the given role and returns it with its actor.
func (f *fixture) seedUser(t *testing.T, role model.Role) (*model.User, *model.Actor) {
	t.Helper()
	user := testutil.NewTestUser(t, role)
	if err := f.store.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user, user.Actor()
}

func (f *fixture) seedCategory(t *testing.T, ownerID string) *model.Category {
	t.Helper()
	category := testutil.NewTestCategory(t, ownerID)
	if err := f.store.CreateCategory(context.Background(), category); err != nil {
		t.Fatalf("seed category: %v", err)
	}
	return category
}

func (f *fixture) seedAPI(t *testing.T, ownerID, categoryID string) *model.API {
	t.Helper()
	api := testutil.NewTestAPI(t, ownerID, categoryID)
	if err := f.store.CreateAPI(context.Background(), api); err != nil {
		t.Fatalf("seed api: %v", err)
	}
	return api
}

func ptr[T any](v T) *T {
	return &v
}
