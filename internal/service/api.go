package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/apihub/apihub/internal/metrics"
	"github.com/apihub/apihub/internal/model"
	"github.com/apihub/apihub/internal/policy"
	"github.com/apihub/apihub/internal/repository"
)

const (
	maxAPINameLength = 100
	maxURLLength     = 2048
)

// APIInput creates or patches a catalog entry. Nil fields are left unchanged.
type APIInput struct {
	Name            *string
	URL             *string
	Method          *string
	CategoryID      *string
	Type            *string
	Description     *string
	Documentation   *string
	AuthType        *string
	AuthDetails     map[string]any
	Headers         *[]model.Param
	QueryParams     *[]model.Param
	RequestBody     *string
	ResponseExample *string
	Tags            *[]string
	Version         *string
	RateLimit       *string
	Notes           *string
}

// ListAPIsInput holds the catalog listing filters. Empty fields are ignored.
type ListAPIsInput struct {
	CategoryID string
	Type       string
	Method     string
	Search     string
}

// APIStats summarizes the actor's own catalog entries.
type APIStats struct {
	TotalAPIs       int64               `json:"totalAPIs"`
	InternalAPIs    int64               `json:"internalAPIs"`
	ExternalAPIs    int64               `json:"externalAPIs"`
	TotalCategories int64               `json:"totalCategories"`
	MethodStats     []model.MethodCount `json:"methodStats"`
}

// APIService handles catalog business logic.
type APIService struct {
	apis       APIStore
	categories CategoryStore
	guard      guard
}

// NewAPIService creates a new APIService.
func NewAPIService(apis APIStore, categories CategoryStore, logger *slog.Logger, recorder metrics.Recorder) *APIService {
	return &APIService{
		apis:       apis,
		categories: categories,
		guard:      newGuard(logger, recorder),
	}
}

// List returns every API matching the filters, newest first.
func (s *APIService) List(ctx context.Context, actor *model.Actor, input ListAPIsInput) ([]*model.API, error) {
	if err := s.guard.allow(ctx, actor, policy.ActionAPIRead); err != nil {
		return nil, err
	}

	filter := repository.APIFilter{
		CategoryID: input.CategoryID,
		Search:     strings.TrimSpace(input.Search),
	}
	if input.Type != "" {
		filter.Type = model.APIType(input.Type)
		if !filter.Type.IsValid() {
			return nil, invalid("type", "Invalid type")
		}
	}
	if input.Method != "" {
		filter.Method = model.HTTPMethod(strings.ToUpper(input.Method))
		if !filter.Method.IsValid() {
			return nil, invalid("method", "Invalid HTTP method")
		}
	}

	apis, err := s.apis.ListAPIs(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list apis: %w", err)
	}
	return apis, nil
}

// Search returns the actor's own APIs matching every token of q.
func (s *APIService) Search(ctx context.Context, actor *model.Actor, q string) ([]*model.API, error) {
	if err := s.guard.allow(ctx, actor, policy.ActionAPIRead); err != nil {
		return nil, err
	}
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, invalid("q", "Search query is required")
	}

	apis, err := s.apis.ListAPIs(ctx, repository.APIFilter{OwnerID: actor.ID, Search: q})
	if err != nil {
		return nil, fmt.Errorf("failed to search apis: %w", err)
	}
	return apis, nil
}

// Stats counts the actor's own APIs and categories.
func (s *APIService) Stats(ctx context.Context, actor *model.Actor) (*APIStats, error) {
	if err := s.guard.allow(ctx, actor, policy.ActionAPIStats); err != nil {
		return nil, err
	}

	own := repository.APIFilter{OwnerID: actor.ID}
	stats := &APIStats{}

	var err error
	if stats.TotalAPIs, err = s.apis.CountAPIs(ctx, own); err != nil {
		return nil, fmt.Errorf("failed to count apis: %w", err)
	}
	internal := own
	internal.Type = model.APITypeInternal
	if stats.InternalAPIs, err = s.apis.CountAPIs(ctx, internal); err != nil {
		return nil, fmt.Errorf("failed to count internal apis: %w", err)
	}
	external := own
	external.Type = model.APITypeExternal
	if stats.ExternalAPIs, err = s.apis.CountAPIs(ctx, external); err != nil {
		return nil, fmt.Errorf("failed to count external apis: %w", err)
	}
	if stats.TotalCategories, err = s.categories.CountCategories(ctx, actor.ID); err != nil {
		return nil, fmt.Errorf("failed to count categories: %w", err)
	}
	if stats.MethodStats, err = s.apis.CountAPIsByMethod(ctx, own); err != nil {
		return nil, fmt.Errorf("failed to group apis by method: %w", err)
	}

	return stats, nil
}

// Get returns one API with its category and owner resolved.
func (s *APIService) Get(ctx context.Context, actor *model.Actor, id string) (*model.API, error) {
	if err := s.guard.allow(ctx, actor, policy.ActionAPIRead); err != nil {
		return nil, err
	}
	return s.load(ctx, id)
}

// Create stores a new API owned by the actor. The category must exist.
func (s *APIService) Create(ctx context.Context, actor *model.Actor, input APIInput) (*model.API, error) {
	if err := s.guard.allow(ctx, actor, policy.ActionAPICreate); err != nil {
		return nil, err
	}

	ts := now()
	api := &model.API{
		ID:        generateULID(),
		Type:      model.APITypeExternal,
		AuthType:  model.AuthTypeNone,
		Version:   model.DefaultAPIVersion,
		OwnerID:   actor.ID,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	if err := applyAPIInput(api, input, true); err != nil {
		return nil, err
	}
	if err := s.requireCategory(ctx, api.CategoryID); err != nil {
		return nil, err
	}

	if err := s.apis.CreateAPI(ctx, api); err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return nil, notFound("Category")
		}
		return nil, fmt.Errorf("failed to create api: %w", err)
	}
	s.guard.metrics.IncMutation("api", "create")

	return s.load(ctx, api.ID)
}

// Update patches an API. Reassigning it to another category requires that category to exist.
func (s *APIService) Update(ctx context.Context, actor *model.Actor, id string, input APIInput) (*model.API, error) {
	if err := s.guard.allow(ctx, actor, policy.ActionAPIUpdate); err != nil {
		return nil, err
	}
	api, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.guard.authorize(ctx, actor, policy.ActionAPIUpdate, apiTarget(api)); err != nil {
		return nil, err
	}

	// An API whose category was deleted may be edited without picking a new one.
	previousCategory := api.CategoryID
	needCategory := previousCategory != "" || input.CategoryID != nil
	if err := applyAPIInput(api, input, needCategory); err != nil {
		return nil, err
	}
	if api.CategoryID != previousCategory {
		if err := s.requireCategory(ctx, api.CategoryID); err != nil {
			return nil, err
		}
	}
	api.UpdatedAt = now()

	if err := s.apis.UpdateAPI(ctx, api); err != nil {
		switch {
		case errors.Is(err, repository.ErrCategoryNotFound):
			return nil, notFound("Category")
		case errors.Is(err, repository.ErrAPINotFound):
			return nil, notFound("API")
		default:
			return nil, fmt.Errorf("failed to update api: %w", err)
		}
	}
	s.guard.metrics.IncMutation("api", "update")

	return s.load(ctx, id)
}

// Delete removes an API.
func (s *APIService) Delete(ctx context.Context, actor *model.Actor, id string) error {
	if err := s.guard.allow(ctx, actor, policy.ActionAPIDelete); err != nil {
		return err
	}
	api, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.guard.authorize(ctx, actor, policy.ActionAPIDelete, apiTarget(api)); err != nil {
		return err
	}

	if err := s.apis.DeleteAPI(ctx, id); err != nil {
		if errors.Is(err, repository.ErrAPINotFound) {
			return notFound("API")
		}
		return fmt.Errorf("failed to delete api: %w", err)
	}
	s.guard.metrics.IncMutation("api", "delete")
	return nil
}

func (s *APIService) load(ctx context.Context, id string) (*model.API, error) {
	api, err := s.apis.GetAPIByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrAPINotFound) {
			return nil, notFound("API")
		}
		return nil, fmt.Errorf("failed to load api: %w", err)
	}
	return api, nil
}

// requireCategory checks the category exists. The check and the following
// write are not atomic; a concurrent delete leaves the API with a null category.
func (s *APIService) requireCategory(ctx context.Context, id string) error {
	exists, err := s.categories.CategoryExists(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check category: %w", err)
	}
	if !exists {
		return notFound("Category")
	}
	return nil
}

func applyAPIInput(api *model.API, in APIInput, needCategory bool) error {
	setString(&api.Name, in.Name)
	setString(&api.URL, in.URL)
	setString(&api.Description, in.Description)
	setString(&api.CategoryID, in.CategoryID)
	setString(&api.Documentation, in.Documentation)
	setString(&api.RequestBody, in.RequestBody)
	setString(&api.ResponseExample, in.ResponseExample)
	setString(&api.RateLimit, in.RateLimit)
	setString(&api.Notes, in.Notes)
	if in.Method != nil {
		api.Method = model.HTTPMethod(strings.ToUpper(strings.TrimSpace(*in.Method)))
	}
	if in.Type != nil {
		api.Type = model.APIType(strings.TrimSpace(*in.Type))
	}
	if in.AuthType != nil {
		api.AuthType = model.AuthType(strings.TrimSpace(*in.AuthType))
	}
	if in.AuthDetails != nil {
		api.AuthDetails = in.AuthDetails
	}
	if in.Headers != nil {
		api.Headers = *in.Headers
	}
	if in.QueryParams != nil {
		api.QueryParams = *in.QueryParams
	}
	if in.Tags != nil {
		api.Tags = cleanTags(*in.Tags)
	}
	if in.Version != nil {
		api.Version = strings.TrimSpace(*in.Version)
		if api.Version == "" {
			api.Version = model.DefaultAPIVersion
		}
	}

	return validateAPI(api, needCategory)
}

func validateAPI(api *model.API, needCategory bool) error {
	switch {
	case api.Name == "":
		return invalid("name", "API name is required")
	case utf8.RuneCountInString(api.Name) > maxAPINameLength:
		return invalid("name", fmt.Sprintf("API name cannot exceed %d characters", maxAPINameLength))
	case api.URL == "":
		return invalid("url", "URL is required")
	case len(api.URL) > maxURLLength:
		return invalid("url", "URL is too long")
	case !api.Method.IsValid():
		return invalid("method", "Invalid HTTP method")
	case needCategory && api.CategoryID == "":
		return invalid("category", "Category is required")
	case !api.Type.IsValid():
		return invalid("type", "Invalid type")
	case api.Description == "":
		return invalid("description", "Description is required")
	case !api.AuthType.IsValid():
		return invalid("authType", "Invalid auth type")
	}
	for _, p := range append(append([]model.Param{}, api.Headers...), api.QueryParams...) {
		if strings.TrimSpace(p.Key) == "" {
			return invalid("headers", "Parameter key is required")
		}
	}
	return nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			out = append(out, tag)
		}
	}
	return out
}

func apiTarget(api *model.API) policy.Target {
	return policy.Target{ID: api.ID, OwnerID: api.OwnerID}
}
