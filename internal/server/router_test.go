package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/apihub/apihub/internal/auth"
	"github.com/apihub/apihub/internal/handler"
	"github.com/apihub/apihub/internal/metrics"
	"github.com/apihub/apihub/internal/model"
	"github.com/apihub/apihub/internal/service"
	"github.com/apihub/apihub/internal/testutil"
	"github.com/apihub/apihub/internal/testutil/memstore"
)

type app struct {
	t       *testing.T
	store   *memstore.Store
	tokens  *auth.TokenManager
	metrics *metrics.InMemoryRecorder
	handler http.Handler
}

func newApp(t *testing.T) *app {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memstore.New()
	actors := memstore.NewActorCache()
	rec := metrics.NewInMemory()
	hasher := auth.NewPasswordHasher(auth.Params{Time: 1, Memory: 1024, Threads: 1, KeyLen: 16, SaltLen: 8})
	tokens := auth.NewTokenManager("router-test-secret-of-sufficient-length", "apihub-test", time.Hour)
	dispatcher := service.NewDispatcher(store, logger, rec)

	authSvc := service.NewAuthService(store, hasher, tokens, actors, logger, rec)
	h := Handlers{
		Health:        handler.NewHealthHandler("test", nil, nil),
		Metrics:       handler.NewMetricsHandler(rec),
		Auth:          handler.NewAuthHandler(authSvc, 3600, logger),
		Users:         handler.NewUserHandler(service.NewUserService(store, actors, logger, rec), logger),
		APIs:          handler.NewAPIHandler(service.NewAPIService(store, store, logger, rec), logger),
		Categories:    handler.NewCategoryHandler(service.NewCategoryService(store, logger, rec), logger),
		Notifications: handler.NewNotificationHandler(service.NewNotificationService(store, 0, logger, rec), logger),
		Admin:         handler.NewAdminHandler(service.NewAdminService(store, dispatcher, hasher, actors, logger, rec), logger),
	}

	return &app{
		t:       t,
		store:   store,
		tokens:  tokens,
		metrics: rec,
		handler: NewRouter(h, RouterConfig{
			Logger:        logger,
			Metrics:       rec,
			Resolver:      authSvc,
			IsDevelopment: true,
		}),
	}
}

func (a *app) seedUser(role model.Role) (*model.User, string) {
	a.t.Helper()
	user := testutil.NewTestUser(a.t, role)
	if err := a.store.CreateUser(context.Background(), user); err != nil {
		a.t.Fatalf("seed user: %v", err)
	}
	token, err := a.tokens.Issue(user)
	if err != nil {
		a.t.Fatalf("issue token: %v", err)
	}
	return user, token
}

func (a *app) do(method, path, token string, body any) *httptest.ResponseRecorder {
	a.t.Helper()

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			a.t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(buf)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rec.Body.String())
	}
	return out
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func TestRouter_ToggleActiveNotifiesRecipient(t *testing.T) {
	t.Parallel()
	a := newApp(t)
	_, adminToken := a.seedUser(model.RoleAdmin)
	target, targetToken := a.seedUser(model.RoleUser)

	rec := a.do(http.MethodPut, "/api/admin/users/"+target.ID+"/toggle-active", adminToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("toggle status = %d, body %s", rec.Code, rec.Body.String())
	}
	toggled := decode[struct {
		Success bool `json:"success"`
		User    struct {
			ID       string `json:"id"`
			IsActive bool   `json:"isActive"`
		} `json:"user"`
	}](t, rec)
	if !toggled.Success || toggled.User.ID != target.ID || toggled.User.IsActive {
		t.Fatalf("unexpected toggle response: %+v", toggled)
	}

	rec = a.do(http.MethodGet, "/api/notifications", targetToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("notifications status = %d, body %s", rec.Code, rec.Body.String())
	}
	inbox := decode[struct {
		Count         int   `json:"count"`
		UnreadCount   int64 `json:"unreadCount"`
		Notifications []struct {
			Title  string `json:"title"`
			Type   string `json:"type"`
			IsRead bool   `json:"isRead"`
		} `json:"notifications"`
	}](t, rec)
	if inbox.Count != 1 || len(inbox.Notifications) != 1 {
		t.Fatalf("expected exactly one notification, got %+v", inbox)
	}
	n := inbox.Notifications[0]
	if n.Title != "Account Status" || n.Type != string(model.NotificationWarning) || n.IsRead {
		t.Errorf("unexpected notification: %+v", n)
	}
	if inbox.UnreadCount != 1 {
		t.Errorf("unreadCount = %d, want 1", inbox.UnreadCount)
	}

	// Everything outside the inbox is closed to the blocked account.
	rec = a.do(http.MethodGet, "/api/apis", targetToken, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("blocked account on catalog: status = %d, want 403", rec.Code)
	}
	if body := decode[errorBody](t, rec); body.Code != "ACCOUNT_BLOCKED" {
		t.Errorf("code = %s, want ACCOUNT_BLOCKED", body.Code)
	}
}

func TestRouter_CreateAPIWithMissingCategory(t *testing.T) {
	t.Parallel()
	a := newApp(t)
	_, devToken := a.seedUser(model.RoleDeveloper)

	rec := a.do(http.MethodPost, "/api/apis", devToken, map[string]any{
		"name":        "Charge card",
		"url":         "https://pay.example.com/v1/charges",
		"method":      "POST",
		"category":    "01J00000000000000000000000",
		"description": "Creates a charge",
	})

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404 (body %s)", rec.Code, rec.Body.String())
	}
	if body := decode[errorBody](t, rec); body.Error != "Category not found" || body.Code != "NOT_FOUND" {
		t.Errorf("unexpected error body: %+v", body)
	}
	if got := a.store.APICount(); got != 0 {
		t.Errorf("expected no APIs stored, got %d", got)
	}
}

func TestRouter_CatalogRoundTrip(t *testing.T) {
	t.Parallel()
	a := newApp(t)
	_, devToken := a.seedUser(model.RoleDeveloper)
	_, otherToken := a.seedUser(model.RoleDeveloper)

	rec := a.do(http.MethodPost, "/api/categories", devToken, map[string]any{"name": "Payments", "description": "Money"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create category status = %d, body %s", rec.Code, rec.Body.String())
	}
	category := decode[struct {
		Category struct {
			ID string `json:"id"`
		} `json:"category"`
	}](t, rec).Category

	rec = a.do(http.MethodPost, "/api/apis", devToken, map[string]any{
		"name":        "List charges",
		"url":         "https://pay.example.com/v1/charges",
		"method":      "get",
		"category":    category.ID,
		"description": "Lists charges",
		"tags":        []string{"billing", "charges"},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create api status = %d, body %s", rec.Code, rec.Body.String())
	}
	created := decode[struct {
		API struct {
			ID       string `json:"id"`
			Method   string `json:"method"`
			Category struct {
				ID   string `json:"id"`
				Name string `json:"name"`
			} `json:"category"`
		} `json:"api"`
	}](t, rec).API
	if created.Method != "GET" || created.Category.ID != category.ID || created.Category.Name != "Payments" {
		t.Fatalf("unexpected created api: %+v", created)
	}

	rec = a.do(http.MethodGet, "/api/apis?search=billing&method=GET", devToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	if list := decode[struct {
		Count int `json:"count"`
	}](t, rec); list.Count != 1 {
		t.Errorf("search count = %d, want 1", list.Count)
	}

	rec = a.do(http.MethodPut, "/api/apis/"+created.ID, otherToken, map[string]any{"name": "Hijacked"})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("non-owner update status = %d, want 403", rec.Code)
	}
	if body := decode[errorBody](t, rec); body.Error != "not authorized" {
		t.Errorf("denial reason = %q, want %q", body.Error, "not authorized")
	}

	rec = a.do(http.MethodDelete, "/api/apis/"+created.ID, devToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d, body %s", rec.Code, rec.Body.String())
	}
	rec = a.do(http.MethodGet, "/api/apis/"+created.ID, devToken, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete status = %d, want 404", rec.Code)
	}
}

func TestRouter_RoleGates(t *testing.T) {
	t.Parallel()
	a := newApp(t)
	_, userToken := a.seedUser(model.RoleUser)
	_, devToken := a.seedUser(model.RoleDeveloper)
	_, adminToken := a.seedUser(model.RoleAdmin)
	category := map[string]any{"name": "Gated", "description": "Role gate checks"}

	tests := []struct {
		name       string
		method     string
		path       string
		token      string
		body       any
		wantStatus int
	}{
		{"no token", http.MethodGet, "/api/apis", "", nil, http.StatusUnauthorized},
		{"user reads catalog", http.MethodGet, "/api/apis", userToken, nil, http.StatusOK},
		{"user creates category", http.MethodPost, "/api/categories", userToken, category, http.StatusForbidden},
		{"developer creates category", http.MethodPost, "/api/categories", devToken, category, http.StatusCreated},
		{"admin creates category", http.MethodPost, "/api/categories", adminToken, map[string]any{"name": "Admin owned", "description": "x"}, http.StatusCreated},
		{"developer lists users", http.MethodGet, "/api/users", devToken, nil, http.StatusForbidden},
		{"developer admin stats", http.MethodGet, "/api/admin/stats", devToken, nil, http.StatusForbidden},
		{"developer toggles unknown user", http.MethodPut, "/api/admin/users/missing/toggle-active", devToken, nil, http.StatusForbidden},
		{"admin toggles unknown user", http.MethodPut, "/api/admin/users/missing/toggle-active", adminToken, nil, http.StatusNotFound},
		{"admin stats", http.MethodGet, "/api/admin/stats", adminToken, nil, http.StatusOK},
		{"unknown route", http.MethodGet, "/api/nope", adminToken, nil, http.StatusNotFound},
	}

	for _, tt := range tests {
		rec := a.do(tt.method, tt.path, tt.token, tt.body)
		if rec.Code != tt.wantStatus {
			t.Errorf("%s: status = %d, want %d (body %s)", tt.name, rec.Code, tt.wantStatus, rec.Body.String())
		}
	}

	if denials := a.metrics.Snapshot().PolicyDenials; len(denials) == 0 {
		t.Error("expected policy denials to be counted")
	}
}

func TestRouter_AdminSelfToggleForbidden(t *testing.T) {
	t.Parallel()
	a := newApp(t)
	admin, adminToken := a.seedUser(model.RoleAdmin)

	rec := a.do(http.MethodPut, "/api/admin/users/"+admin.ID+"/toggle-active", adminToken, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	if body := decode[errorBody](t, rec); body.Error != "cannot act on self" {
		t.Errorf("reason = %q", body.Error)
	}
	if got := a.store.NotificationsFor(admin.ID); len(got) != 0 {
		t.Errorf("expected no notifications, got %d", len(got))
	}
}

func TestRouter_RegisterLoginMe(t *testing.T) {
	t.Parallel()
	a := newApp(t)

	rec := a.do(http.MethodPost, "/api/auth/register", "", map[string]any{
		"name":     "Ada",
		"email":    "Ada@Example.com",
		"password": "lovelace",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = a.do(http.MethodPost, "/api/auth/login", "", map[string]any{"email": "ada@example.com", "password": "lovelace"})
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, body %s", rec.Code, rec.Body.String())
	}
	session := decode[struct {
		Token     string `json:"token"`
		ExpiresIn int64  `json:"expiresIn"`
	}](t, rec)
	if session.Token == "" || session.ExpiresIn != 3600 {
		t.Fatalf("unexpected session: %+v", session)
	}

	rec = a.do(http.MethodGet, "/api/auth/me", session.Token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("me status = %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Errorf("me response leaks password field: %s", rec.Body.String())
	}
	me := decode[struct {
		User struct {
			Email string `json:"email"`
			Role  string `json:"role"`
		} `json:"user"`
	}](t, rec).User
	if me.Email != "ada@example.com" || me.Role != string(model.RoleUser) {
		t.Errorf("unexpected me: %+v", me)
	}

	rec = a.do(http.MethodPost, "/api/auth/login", "", map[string]any{"email": "ada@example.com", "password": "wrong"})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad password status = %d, want 401", rec.Code)
	}
}

func TestRouter_RejectsNonJSONBody(t *testing.T) {
	t.Parallel()
	a := newApp(t)
	_, devToken := a.seedUser(model.RoleDeveloper)

	req := httptest.NewRequest(http.MethodPost, "/api/categories", strings.NewReader("name=x"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+devToken)
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("status = %d, want 415", rec.Code)
	}
}

func TestRouter_MetricsEndpoint(t *testing.T) {
	t.Parallel()
	a := newApp(t)
	a.metrics.IncPolicyDenial("user:list", "insufficient role")

	rec := a.do(http.MethodGet, "/metrics", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	want := `apihub_policy_denials_total{action="user:list",reason="insufficient role"} 1`
	if !strings.Contains(rec.Body.String(), want) {
		t.Errorf("metrics output missing %q:\n%s", want, rec.Body.String())
	}
}
