package model

import (
	"slices"
	"time"
)

// HTTPMethod is the verb an API endpoint answers to.
type HTTPMethod string

// HTTP method constants.
const (
	MethodGet    HTTPMethod = "GET"
	MethodPost   HTTPMethod = "POST"
	MethodPut    HTTPMethod = "PUT"
	MethodPatch  HTTPMethod = "PATCH"
	MethodDelete HTTPMethod = "DELETE"
)

// ValidMethods contains all accepted HTTP methods.
var ValidMethods = []HTTPMethod{MethodGet, MethodPost, MethodPut, MethodPatch, MethodDelete}

// IsValid checks if the method is supported.
func (m HTTPMethod) IsValid() bool {
	return slices.Contains(ValidMethods, m)
}

// APIType classifies who may consume an API.
type APIType string

// API type constants.
const (
	APITypeInternal APIType = "internal"
	APITypeExternal APIType = "external"
	APITypePartner  APIType = "partner"
)

// ValidAPITypes contains all valid API types.
var ValidAPITypes = []APIType{APITypeInternal, APITypeExternal, APITypePartner}

// IsValid checks if the API type is known.
func (t APIType) IsValid() bool {
	return slices.Contains(ValidAPITypes, t)
}

// AuthType describes how an API authenticates its callers.
type AuthType string

// Auth type constants.
const (
	AuthTypeNone   AuthType = "none"
	AuthTypeBearer AuthType = "bearer"
	AuthTypeBasic  AuthType = "basic"
	AuthTypeAPIKey AuthType = "api-key"
	AuthTypeOAuth  AuthType = "oauth"
)

// ValidAuthTypes contains all valid auth types.
var ValidAuthTypes = []AuthType{AuthTypeNone, AuthTypeBearer, AuthTypeBasic, AuthTypeAPIKey, AuthTypeOAuth}

// IsValid checks if the auth type is known.
func (t AuthType) IsValid() bool {
	return slices.Contains(ValidAuthTypes, t)
}

// DefaultAPIVersion is applied when an API is created without a version.
const DefaultAPIVersion = "1.0"

// Param is a documented header or query parameter.
type Param struct {
	Key      string `json:"key"`
	Value    string `json:"value"`
	Required bool   `json:"required"`
}

// API represents a catalogued endpoint.
type API struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	URL             string         `json:"url"`
	Method          HTTPMethod     `json:"method"`
	CategoryID      string         `json:"-"`
	Category        *CategoryRef   `json:"category"`
	Type            APIType        `json:"type"`
	Description     string         `json:"description"`
	Documentation   string         `json:"documentation"`
	AuthType        AuthType       `json:"authType"`
	AuthDetails     map[string]any `json:"authDetails"`
	Headers         []Param        `json:"headers"`
	QueryParams     []Param        `json:"queryParams"`
	RequestBody     string         `json:"requestBody"`
	ResponseExample string         `json:"responseExample"`
	Tags            []string       `json:"tags"`
	Version         string         `json:"version"`
	RateLimit       string         `json:"rateLimit"`
	Notes           string         `json:"notes"`
	OwnerID         string         `json:"-"`
	Owner           *UserRef       `json:"user"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
}

// MethodCount is one row of the per-method grouping in API stats.
type MethodCount struct {
	Method HTTPMethod `json:"method"`
	Count  int64      `json:"count"`
}
