package dto

import "github.com/apihub/apihub/internal/model"

// CategoryRequest is the body of POST and PUT /api/categories.
type CategoryRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Color       *string `json:"color"`
}

// CategoryResponse wraps a single category.
type CategoryResponse struct {
	Success  bool            `json:"success"`
	Message  string          `json:"message,omitempty"`
	Category *model.Category `json:"category"`
}

// CategoryListResponse wraps a category list.
type CategoryListResponse struct {
	Success    bool              `json:"success"`
	Count      int               `json:"count"`
	Categories []*model.Category `json:"categories"`
}
