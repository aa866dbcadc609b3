package model

import "time"

// DefaultCategoryColor is applied when a category is created without a color.
const DefaultCategoryColor = "#3B82F6"

// Category groups catalog entries.
type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Color       string    `json:"color"`
	OwnerID     string    `json:"-"`
	Owner       *UserRef  `json:"user,omitempty"`
	APICount    int64     `json:"apiCount"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Summary returns the display reference used when an API points at this category.
func (c *Category) Summary() *CategoryRef {
	return &CategoryRef{
		ID:    c.ID,
		Name:  c.Name,
		Color: c.Color,
	}
}

// CategoryRef is the resolved {name, color} view of a category reference.
type CategoryRef struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}
