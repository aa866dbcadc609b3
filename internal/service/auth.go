package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/apihub/apihub/internal/auth"
	"github.com/apihub/apihub/internal/cache"
	"github.com/apihub/apihub/internal/metrics"
	"github.com/apihub/apihub/internal/model"
	"github.com/apihub/apihub/internal/repository"
)

// MinPasswordLength is enforced on registration and admin password changes.
const MinPasswordLength = 6

// ActorLookupCache stores the per-user identity the auth path needs.
type ActorLookupCache interface {
	ActorCache
	GetActor(ctx context.Context, userID string) (*cache.CachedActor, error)
	SetActor(ctx context.Context, actor *cache.CachedActor) error
}

// AuthService registers users, issues tokens and resolves tokens to actors.
type AuthService struct {
	users   UserStore
	hasher  *auth.PasswordHasher
	tokens  *auth.TokenManager
	cache   ActorLookupCache
	logger  *slog.Logger
	metrics metrics.Recorder
}

// NewAuthService creates a new AuthService. cache may be nil.
func NewAuthService(
	users UserStore,
	hasher *auth.PasswordHasher,
	tokens *auth.TokenManager,
	cache ActorLookupCache,
	logger *slog.Logger,
	recorder metrics.Recorder,
) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &AuthService{
		users:   users,
		hasher:  hasher,
		tokens:  tokens,
		cache:   cache,
		logger:  logger.With("component", "auth"),
		metrics: recorder,
	}
}

// RegisterInput defines input for self-registration.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// Session is a signed token plus the user it was issued to.
type Session struct {
	Token string
	User  *model.User
}

// Register creates a user with the default role and signs them in.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*Session, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, invalid("name", "Name is required")
	}
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}
	if err := validatePassword("password", input.Password); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	ts := now()
	user := &model.User{
		ID:        generateULID(),
		Name:      name,
		Email:     email,
		Password:  hash,
		Role:      model.RoleUser,
		IsActive:  true,
		CreatedAt: ts,
		UpdatedAt: ts,
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, fmt.Errorf("%w: email already registered", ErrConflict)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return s.issue(user)
}

// Login verifies credentials and issues a token.
// Blocked users are rejected after their password is verified.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			s.metrics.IncAuthFailure("invalid credentials")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	ok, err := s.hasher.Verify(password, user.Password)
	if err != nil {
		s.logger.WarnContext(ctx, "stored password hash unreadable", "user_id", user.ID, "error", err)
	}
	if !ok {
		s.metrics.IncAuthFailure("invalid credentials")
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		s.metrics.IncAuthFailure("account blocked")
		return nil, ErrAccountBlocked
	}

	return s.issue(user)
}

// Me returns the actor's own user record.
func (s *AuthService) Me(ctx context.Context, actor *model.Actor) (*model.User, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	user, err := s.users.GetUserByID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, notFound("User")
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}

// ResolveToken verifies a bearer token and returns the current actor.
// The role and active flag come from the cache or the store, never from the token.
// A blocked account yields its actor together with ErrAccountBlocked.
func (s *AuthService) ResolveToken(ctx context.Context, token string) (*model.Actor, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		s.metrics.IncAuthFailure("invalid token")
		return nil, ErrUnauthenticated
	}

	cached := s.cachedActor(ctx, claims.Subject)
	if cached == nil {
		user, err := s.users.GetUserByID(ctx, claims.Subject)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				s.metrics.IncAuthFailure("unknown user")
				return nil, ErrUnauthenticated
			}
			return nil, fmt.Errorf("failed to load user: %w", err)
		}
		cached = cache.NewCachedActor(user)
		s.storeActor(ctx, cached)
	}

	if !cached.IsActive {
		s.metrics.IncAuthFailure("account blocked")
		return cached.Actor(), ErrAccountBlocked
	}

	return cached.Actor(), nil
}

func (s *AuthService) cachedActor(ctx context.Context, userID string) *cache.CachedActor {
	if s.cache == nil {
		return nil
	}
	cached, _ := s.cache.GetActor(ctx, userID)
	if cached == nil {
		s.metrics.IncActorCacheMiss()
		return nil
	}
	s.metrics.IncActorCacheHit()
	return cached
}

func (s *AuthService) storeActor(ctx context.Context, cached *cache.CachedActor) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetActor(ctx, cached); err != nil {
		s.logger.WarnContext(ctx, "failed to cache actor", "user_id", cached.ID, "error", err)
	}
}

func (s *AuthService) issue(user *model.User) (*Session, error) {
	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return &Session{Token: token, User: user}, nil
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", invalid("email", "Email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", invalid("email", "Please provide a valid email")
	}
	return email, nil
}

func validatePassword(field, password string) error {
	if len([]rune(password)) < MinPasswordLength {
		return invalid(field, fmt.Sprintf("Password must be at least %d characters", MinPasswordLength))
	}
	return nil
}

// invalidateActor drops a cached identity; failures are logged, never returned.
func invalidateActor(ctx context.Context, c ActorCache, logger *slog.Logger, userID string) {
	if c == nil {
		return
	}
	if err := c.InvalidateActor(ctx, userID); err != nil {
		logger.WarnContext(ctx, "failed to invalidate cached actor", "user_id", userID, "error", err)
	}
}
