package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/apihub/apihub/internal/handler/dto"
	"github.com/apihub/apihub/internal/model"
	"github.com/apihub/apihub/internal/service"
)

// AdminHandler handles the /api/admin routes.
type AdminHandler struct {
	svc    *service.AdminService
	logger *slog.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(svc *service.AdminService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{svc: svc, logger: logger}
}

// Stats handles GET /api/admin/stats.
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context(), actorFrom(r))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.StatsResponse{Success: true, Stats: stats})
}

// ListUsers handles GET /api/admin/users.
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.ListUsers(r.Context(), actorFrom(r))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewUserList(users))
}

// ToggleActive handles PUT /api/admin/users/{id}/toggle-active.
// The flip is stored even when the notice fails; the caller then sees a 500.
func (h *AdminHandler) ToggleActive(w http.ResponseWriter, r *http.Request) {
	user, err := h.svc.ToggleActive(r.Context(), actorFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	msg := "User unblocked successfully"
	if !user.IsActive {
		msg = "User blocked successfully"
	}
	writeJSON(w, http.StatusOK, dto.UserResponse{Success: true, Message: msg, User: user})
}

// ChangePassword handles PUT /api/admin/users/{id}/password.
func (h *AdminHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req dto.ChangePasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.svc.ChangePassword(r.Context(), actorFrom(r), chi.URLParam(r, "id"), req.NewPassword); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.Ack("Password changed successfully"))
}

// SendNotification handles POST /api/admin/users/{id}/notify.
func (h *AdminHandler) SendNotification(w http.ResponseWriter, r *http.Request) {
	var req dto.SendNotificationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	n, err := h.svc.SendNotification(r.Context(), actorFrom(r), chi.URLParam(r, "id"), service.SendNotificationInput{
		Title:   req.Title,
		Message: req.Message,
		Type:    model.NotificationType(req.Type),
	})
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, dto.NotificationResponse{Success: true, Message: "Notification sent successfully", Notification: n})
}
