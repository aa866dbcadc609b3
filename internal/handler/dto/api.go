package dto

import "github.com/apihub/apihub/internal/model"

// APIRequest is the body of POST and PUT /api/apis. On PUT omitted fields
// are left unchanged.
type APIRequest struct {
	Name            *string        `json:"name"`
	URL             *string        `json:"url"`
	Method          *string        `json:"method"`
	Category        *string        `json:"category"`
	Type            *string        `json:"type"`
	Description     *string        `json:"description"`
	Documentation   *string        `json:"documentation"`
	AuthType        *string        `json:"authType"`
	AuthDetails     map[string]any `json:"authDetails"`
	Headers         *[]model.Param `json:"headers"`
	QueryParams     *[]model.Param `json:"queryParams"`
	RequestBody     *string        `json:"requestBody"`
	ResponseExample *string        `json:"responseExample"`
	Tags            *[]string      `json:"tags"`
	Version         *string        `json:"version"`
	RateLimit       *string        `json:"rateLimit"`
	Notes           *string        `json:"notes"`
}

// APIResponse wraps a single API.
type APIResponse struct {
	Success bool       `json:"success"`
	Message string     `json:"message,omitempty"`
	API     *model.API `json:"api"`
}

// APIListResponse wraps an API list.
type APIListResponse struct {
	Success bool         `json:"success"`
	Count   int          `json:"count"`
	APIs    []*model.API `json:"apis"`
}

// NewAPIList builds an APIListResponse.
func NewAPIList(apis []*model.API) APIListResponse {
	return APIListResponse{Success: true, Count: len(apis), APIs: apis}
}

// StatsResponse wraps a stats object.
type StatsResponse struct {
	Success bool `json:"success"`
	Stats   any  `json:"stats"`
}
