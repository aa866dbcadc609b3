package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/apihub/apihub/internal/handler/dto"
	"github.com/apihub/apihub/internal/service"
)

// APIHandler handles the catalog routes under /api/apis.
type APIHandler struct {
	svc    *service.APIService
	logger *slog.Logger
}

// NewAPIHandler creates a new APIHandler.
func NewAPIHandler(svc *service.APIService, logger *slog.Logger) *APIHandler {
	return &APIHandler{svc: svc, logger: logger}
}

// List handles GET /api/apis?category=&type=&method=&search=.
func (h *APIHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	apis, err := h.svc.List(r.Context(), actorFrom(r), service.ListAPIsInput{
		CategoryID: query.Get("category"),
		Type:       query.Get("type"),
		Method:     query.Get("method"),
		Search:     query.Get("search"),
	})
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewAPIList(apis))
}

// Search handles GET /api/apis/search?q=.
func (h *APIHandler) Search(w http.ResponseWriter, r *http.Request) {
	apis, err := h.svc.Search(r.Context(), actorFrom(r), r.URL.Query().Get("q"))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewAPIList(apis))
}

// Stats handles GET /api/apis/stats.
func (h *APIHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context(), actorFrom(r))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.StatsResponse{Success: true, Stats: stats})
}

// Get handles GET /api/apis/{id}.
func (h *APIHandler) Get(w http.ResponseWriter, r *http.Request) {
	api, err := h.svc.Get(r.Context(), actorFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.APIResponse{Success: true, API: api})
}

// Create handles POST /api/apis.
func (h *APIHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.APIRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	api, err := h.svc.Create(r.Context(), actorFrom(r), toAPIInput(req))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	h.logger.InfoContext(r.Context(), "api_created", "api_id", api.ID, "method", string(api.Method))
	writeJSON(w, http.StatusCreated, dto.APIResponse{Success: true, Message: "API created successfully", API: api})
}

// Update handles PUT /api/apis/{id}.
func (h *APIHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.APIRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	api, err := h.svc.Update(r.Context(), actorFrom(r), chi.URLParam(r, "id"), toAPIInput(req))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	h.logger.InfoContext(r.Context(), "api_updated", "api_id", api.ID)
	writeJSON(w, http.StatusOK, dto.APIResponse{Success: true, Message: "API updated successfully", API: api})
}

// Delete handles DELETE /api/apis/{id}.
func (h *APIHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.svc.Delete(r.Context(), actorFrom(r), id); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	h.logger.InfoContext(r.Context(), "api_deleted", "api_id", id)
	writeJSON(w, http.StatusOK, dto.Ack("API deleted successfully"))
}

func toAPIInput(req dto.APIRequest) service.APIInput {
	return service.APIInput{
		Name:            req.Name,
		URL:             req.URL,
		Method:          req.Method,
		CategoryID:      req.Category,
		Type:            req.Type,
		Description:     req.Description,
		Documentation:   req.Documentation,
		AuthType:        req.AuthType,
		AuthDetails:     req.AuthDetails,
		Headers:         req.Headers,
		QueryParams:     req.QueryParams,
		RequestBody:     req.RequestBody,
		ResponseExample: req.ResponseExample,
		Tags:            req.Tags,
		Version:         req.Version,
		RateLimit:       req.RateLimit,
		Notes:           req.Notes,
	}
}
