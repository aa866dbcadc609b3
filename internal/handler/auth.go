package handler

import (
	"log/slog"
	"net/http"

	"github.com/apihub/apihub/internal/handler/dto"
	"github.com/apihub/apihub/internal/service"
)

// AuthHandler handles registration, login and the current-user lookup.
type AuthHandler struct {
	svc    *service.AuthService
	ttl    int64
	logger *slog.Logger
}

// NewAuthHandler creates a new AuthHandler. ttlSeconds is reported as expiresIn.
func NewAuthHandler(svc *service.AuthService, ttlSeconds int64, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, ttl: ttlSeconds, logger: logger}
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	session, err := h.svc.Register(r.Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	h.logger.InfoContext(r.Context(), "user_registered", "user_id", session.User.ID)
	writeJSON(w, http.StatusCreated, h.response(session))
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Please provide email and password")
		return
	}

	session, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, h.response(session))
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.svc.Me(r.Context(), actorFrom(r))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.UserResponse{Success: true, User: user})
}

func (h *AuthHandler) response(session *service.Session) dto.AuthResponse {
	return dto.AuthResponse{
		Success:   true,
		Token:     session.Token,
		ExpiresIn: h.ttl,
		User:      session.User,
	}
}
