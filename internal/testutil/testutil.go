// Package testutil holds shared helpers for unit and integration tests.
package testutil

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"

	"github.com/apihub/apihub/internal/model"
	"github.com/apihub/apihub/migrations"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

const advisoryLockID int64 = 420420

// AcquireDBLock grabs a global advisory lock to serialize DB tests.
func AcquireDBLock(ctx context.Context, pool *pgxpool.Pool) (func() error, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	unlock := func() error {
		defer conn.Release()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", advisoryLockID); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}
		return nil
	}

	return unlock, nil
}

// DropSchema applies every embedded down migration, newest first.
func DropSchema(ctx context.Context, pool *pgxpool.Pool) error {
	names, err := migrationFiles(".down.sql")
	if err != nil {
		return err
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	return execFiles(ctx, pool, names)
}

// ResetSchema drops and recreates the full schema from the embedded migrations.
func ResetSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if err := DropSchema(ctx, pool); err != nil {
		return err
	}
	names, err := migrationFiles(".up.sql")
	if err != nil {
		return err
	}
	return execFiles(ctx, pool, names)
}

func migrationFiles(suffix string) ([]string, error) {
	entries, err := fs.ReadDir(migrations.FS, ".")
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}
	var names []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), suffix) {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func execFiles(ctx context.Context, pool *pgxpool.Pool, names []string) error {
	for _, name := range names {
		sql, err := fs.ReadFile(migrations.FS, name)
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		if _, err := pool.Exec(ctx, string(sql)); err != nil {
			return fmt.Errorf("apply %s: %w", name, err)
		}
	}
	return nil
}

// FlushRedis clears the current Redis database.
func FlushRedis(ctx context.Context, client *redis.Client) error {
	return client.FlushDB(ctx).Err()
}

// ============================================================================
// Test Data Factories
// ============================================================================

// UniqueID generates a unique, sortable ID for tests.
func UniqueID() string {
	return ulid.Make().String()
}

// NewTestUser creates an active user with the given role.
// The password field holds a placeholder, not a real hash.
func NewTestUser(t testing.TB, role model.Role) *model.User {
	t.Helper()
	now := time.Now().UTC()
	id := UniqueID()
	return &model.User{
		ID:        id,
		Name:      "Test " + string(role),
		Email:     strings.ToLower(id) + "@example.com",
		Password:  "not-a-hash",
		Role:      role,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewTestCategory creates a category owned by ownerID.
func NewTestCategory(t testing.TB, ownerID string) *model.Category {
	t.Helper()
	now := time.Now().UTC()
	return &model.Category{
		ID:          UniqueID(),
		Name:        "Payments",
		Description: "Payment processing endpoints",
		Color:       model.DefaultCategoryColor,
		OwnerID:     ownerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// NewTestAPI creates an API owned by ownerID in categoryID.
func NewTestAPI(t testing.TB, ownerID, categoryID string) *model.API {
	t.Helper()
	now := time.Now().UTC()
	return &model.API{
		ID:          UniqueID(),
		Name:        "List Invoices",
		URL:         "https://api.example.com/v1/invoices",
		Method:      model.MethodGet,
		CategoryID:  categoryID,
		Type:        model.APITypeExternal,
		Description: "Returns the invoices of the current account",
		AuthType:    model.AuthTypeBearer,
		AuthDetails: map[string]any{},
		Headers:     []model.Param{},
		QueryParams: []model.Param{},
		Tags:        []string{"billing"},
		Version:     model.DefaultAPIVersion,
		OwnerID:     ownerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// NewTestNotification creates an unread info notification.
func NewTestNotification(t testing.TB, recipientID, senderID string) *model.Notification {
	t.Helper()
	return &model.Notification{
		ID:        UniqueID(),
		UserID:    recipientID,
		Title:     "Hello",
		Message:   "Welcome aboard",
		Type:      model.NotificationInfo,
		SenderID:  senderID,
		CreatedAt: time.Now().UTC(),
	}
}
