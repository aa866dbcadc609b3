package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/apihub/apihub/internal/handler"
	"github.com/apihub/apihub/internal/metrics"
	"github.com/apihub/apihub/internal/middleware"
	"github.com/apihub/apihub/internal/policy"
)

// Handlers groups the HTTP handlers mounted by NewRouter.
type Handlers struct {
	Health        *handler.HealthHandler
	Metrics       *handler.MetricsHandler
	Auth          *handler.AuthHandler
	Users         *handler.UserHandler
	APIs          *handler.APIHandler
	Categories    *handler.CategoryHandler
	Notifications *handler.NotificationHandler
	Admin         *handler.AdminHandler
}

// RouterConfig holds the middleware settings for NewRouter.
type RouterConfig struct {
	Logger             *slog.Logger
	Metrics            metrics.Recorder
	Resolver           middleware.TokenResolver
	RateLimit          middleware.RateLimitConfig
	CORSAllowedOrigins []string
	IsDevelopment      bool
	MaxRequestBodySize int64
}

// NewRouter configures the chi router with all routes and middleware.
func NewRouter(h Handlers, cfg RouterConfig) *chi.Mux {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	rec := cfg.Metrics
	if rec == nil {
		rec = metrics.NewNoop()
	}
	rl := cfg.RateLimit
	if rl.Logger == nil {
		rl.Logger = logger
	}
	if rl.Metrics == nil {
		rl.Metrics = rec
	}

	require := func(action policy.Action) func(http.Handler) http.Handler {
		return middleware.RequireAction(action, logger, rec)
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger, cfg.IsDevelopment))
	r.Use(middleware.Security(middleware.SecurityConfig{
		IsDevelopment:      cfg.IsDevelopment,
		MaxRequestBodySize: cfg.MaxRequestBodySize,
	}))
	r.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.CORSAllowedOrigins)))
	r.Use(middleware.MaxBodySize(cfg.MaxRequestBodySize))
	r.Use(middleware.RequireJSON)

	// Probes and metrics (no auth required)
	if h.Health != nil {
		r.Get("/healthz", h.Health.Healthz)
		r.Get("/readyz", h.Health.Readyz)
	}
	if h.Metrics != nil {
		r.Get("/metrics", h.Metrics.Metrics)
	}

	authenticate := middleware.Auth(middleware.AuthConfig{Logger: logger, Resolver: cfg.Resolver})
	authenticateInbox := middleware.Auth(middleware.AuthConfig{Logger: logger, Resolver: cfg.Resolver, AllowBlocked: true})

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.RateLimitIP(rl)).Post("/register", h.Auth.Register)
			r.With(middleware.RateLimitIP(rl)).Post("/login", h.Auth.Login)
			r.With(authenticate).Get("/me", h.Auth.Me)
		})

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(middleware.RateLimitActor(rl))

			r.Route("/users", func(r chi.Router) {
				r.With(require(policy.ActionUserList)).Get("/", h.Users.List)
				r.Get("/{id}", h.Users.Get)
				r.Put("/{id}", h.Users.Update)
				r.With(require(policy.ActionUserDelete)).Delete("/{id}", h.Users.Delete)
			})

			r.Route("/apis", func(r chi.Router) {
				r.Get("/", h.APIs.List)
				r.Get("/search", h.APIs.Search)
				r.Get("/stats", h.APIs.Stats)
				r.Get("/{id}", h.APIs.Get)
				r.With(require(policy.ActionAPICreate)).Post("/", h.APIs.Create)
				r.With(require(policy.ActionAPIUpdate)).Put("/{id}", h.APIs.Update)
				r.With(require(policy.ActionAPIDelete)).Delete("/{id}", h.APIs.Delete)
			})

			r.Route("/categories", func(r chi.Router) {
				r.Get("/", h.Categories.List)
				r.Get("/{id}", h.Categories.Get)
				r.With(require(policy.ActionCategoryCreate)).Post("/", h.Categories.Create)
				r.With(require(policy.ActionCategoryUpdate)).Put("/{id}", h.Categories.Update)
				r.With(require(policy.ActionCategoryDelete)).Delete("/{id}", h.Categories.Delete)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireAdmin(logger, rec))

				r.Get("/stats", h.Admin.Stats)
				r.Get("/users", h.Admin.ListUsers)
				r.Put("/users/{id}/toggle-active", h.Admin.ToggleActive)
				r.Put("/users/{id}/password", h.Admin.ChangePassword)
				r.Post("/users/{id}/notify", h.Admin.SendNotification)
			})
		})

		// Blocked accounts keep read access to their own inbox.
		r.Route("/notifications", func(r chi.Router) {
			r.Use(authenticateInbox)
			r.Use(middleware.RateLimitActor(rl))

			r.Get("/", h.Notifications.List)
			r.Get("/unread-count", h.Notifications.UnreadCount)
			r.Put("/read-all", h.Notifications.MarkAllRead)
			r.Put("/{id}/read", h.Notifications.MarkRead)
			r.Delete("/{id}", h.Notifications.Delete)
		})
	})

	// 404 and 405 handlers
	r.NotFound(handler.NotFound)
	r.MethodNotAllowed(handler.MethodNotAllowed)

	return r
}
