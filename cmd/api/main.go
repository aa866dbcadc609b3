// Package main is the entrypoint for the APIHub server.
package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/apihub/apihub/internal/auth"
	"github.com/apihub/apihub/internal/cache"
	"github.com/apihub/apihub/internal/config"
	"github.com/apihub/apihub/internal/handler"
	"github.com/apihub/apihub/internal/metrics"
	"github.com/apihub/apihub/internal/middleware"
	"github.com/apihub/apihub/internal/repository"
	"github.com/apihub/apihub/internal/server"
	"github.com/apihub/apihub/internal/service"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	repo, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	logger.Info("connected to database")

	if cfg.AutoMigrate {
		migrateCtx, cancel := context.WithTimeout(ctx, time.Minute)
		err := repo.Migrate(migrateCtx)
		cancel()
		if err != nil {
			logger.Error("failed to apply migrations", slog.String("error", sanitizeError(err, cfg.DatabaseURL)))
			repo.Close()
			os.Exit(1)
		}
		logger.Info("migrations applied")
	}

	cacheClient, err := cache.New(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error(
			"failed to connect to Redis",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		repo.Close()
		os.Exit(1)
	}
	logger.Info("connected to Redis")

	recorder := metrics.NewInMemory()
	hasher := auth.NewPasswordHasher(auth.DefaultParams)
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	dispatcher := service.NewDispatcher(repo, logger, recorder)

	authService := service.NewAuthService(repo, hasher, tokens, cacheClient, logger, recorder)
	userService := service.NewUserService(repo, cacheClient, logger, recorder)
	adminService := service.NewAdminService(repo, dispatcher, hasher, cacheClient, logger, recorder)
	categoryService := service.NewCategoryService(repo, logger, recorder)
	apiService := service.NewAPIService(repo, repo, logger, recorder)
	notificationService := service.NewNotificationService(repo, cfg.NotificationListLimit, logger, recorder)

	handlers := server.Handlers{
		Health:        handler.NewHealthHandler(version, repo, cacheClient),
		Metrics:       handler.NewMetricsHandler(recorder),
		Auth:          handler.NewAuthHandler(authService, int64(cfg.JWTTTL/time.Second), logger),
		Users:         handler.NewUserHandler(userService, logger),
		APIs:          handler.NewAPIHandler(apiService, logger),
		Categories:    handler.NewCategoryHandler(categoryService, logger),
		Notifications: handler.NewNotificationHandler(notificationService, logger),
		Admin:         handler.NewAdminHandler(adminService, logger),
	}

	router := server.NewRouter(handlers, server.RouterConfig{
		Logger:   logger,
		Metrics:  recorder,
		Resolver: authService,
		RateLimit: middleware.RateLimitConfig{
			Limiter:    cacheClient,
			Enabled:    cfg.RateLimitEnabled,
			ActorRPM:   cfg.RateLimitRPM,
			ActorBurst: cfg.RateLimitBurst,
			IPRPS:      cfg.LoginRateLimitRPS,
			IPBurst:    cfg.LoginRateLimitBurst,
		},
		CORSAllowedOrigins: cfg.GetCORSAllowedOrigins(),
		IsDevelopment:      cfg.IsDevelopment(),
		MaxRequestBodySize: cfg.MaxRequestBodySize,
	})

	srv := server.New(router, server.Options{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)

	// Registered first, closed last.
	srv.OnShutdown("postgres", func(context.Context) error {
		repo.Close()
		return nil
	})
	srv.OnShutdown("redis", func(context.Context) error {
		return cacheClient.Close()
	})

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"version", version,
	)

	if err := srv.Run(ctx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.LogLevel)}

	var h slog.Handler
	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h).With("service", "apihub")
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

// redactURL strips the password from a connection URL.
func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

// sanitizeError removes connection secrets from an error message.
func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
