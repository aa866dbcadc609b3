package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/apihub/apihub/internal/metrics"
	"github.com/apihub/apihub/internal/model"
	"github.com/apihub/apihub/internal/policy"
	"github.com/apihub/apihub/internal/repository"
)

var colorRegex = regexp.MustCompile(`^#([A-Fa-f0-9]{6}|[A-Fa-f0-9]{3})$`)

// CategoryInput creates or patches a category. Nil fields are left unchanged.
type CategoryInput struct {
	Name        *string
	Description *string
	Color       *string
}

// CategoryService handles category business logic.
type CategoryService struct {
	categories CategoryStore
	guard      guard
}

// NewCategoryService creates a new CategoryService.
func NewCategoryService(categories CategoryStore, logger *slog.Logger, recorder metrics.Recorder) *CategoryService {
	return &CategoryService{
		categories: categories,
		guard:      newGuard(logger, recorder),
	}
}

// List returns all categories with their API counts, newest first.
func (s *CategoryService) List(ctx context.Context, actor *model.Actor) ([]*model.Category, error) {
	if err := s.guard.allow(ctx, actor, policy.ActionCategoryRead); err != nil {
		return nil, err
	}
	categories, err := s.categories.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// Get returns one category.
func (s *CategoryService) Get(ctx context.Context, actor *model.Actor, id string) (*model.Category, error) {
	if err := s.guard.allow(ctx, actor, policy.ActionCategoryRead); err != nil {
		return nil, err
	}
	return s.load(ctx, id)
}

// Create stores a category owned by the actor.
func (s *CategoryService) Create(ctx context.Context, actor *model.Actor, input CategoryInput) (*model.Category, error) {
	if err := s.guard.allow(ctx, actor, policy.ActionCategoryCreate); err != nil {
		return nil, err
	}

	ts := now()
	category := &model.Category{
		ID:        generateULID(),
		Color:     model.DefaultCategoryColor,
		OwnerID:   actor.ID,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	if err := applyCategoryInput(category, input); err != nil {
		return nil, err
	}

	if err := s.categories.CreateCategory(ctx, category); err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	s.guard.metrics.IncMutation("category", "create")

	return s.load(ctx, category.ID)
}

// Update patches a category. Only its owner or an admin may do so.
func (s *CategoryService) Update(ctx context.Context, actor *model.Actor, id string, input CategoryInput) (*model.Category, error) {
	if err := s.guard.allow(ctx, actor, policy.ActionCategoryUpdate); err != nil {
		return nil, err
	}
	category, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.guard.authorize(ctx, actor, policy.ActionCategoryUpdate, categoryTarget(category)); err != nil {
		return nil, err
	}

	if err := applyCategoryInput(category, input); err != nil {
		return nil, err
	}
	category.UpdatedAt = now()

	if err := s.categories.UpdateCategory(ctx, category); err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return nil, notFound("Category")
		}
		return nil, fmt.Errorf("failed to update category: %w", err)
	}
	s.guard.metrics.IncMutation("category", "update")

	return s.load(ctx, id)
}

// Delete removes a category. APIs in it are kept with no category.
func (s *CategoryService) Delete(ctx context.Context, actor *model.Actor, id string) error {
	if err := s.guard.allow(ctx, actor, policy.ActionCategoryDelete); err != nil {
		return err
	}
	category, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.guard.authorize(ctx, actor, policy.ActionCategoryDelete, categoryTarget(category)); err != nil {
		return err
	}

	if err := s.categories.DeleteCategory(ctx, id); err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return notFound("Category")
		}
		return fmt.Errorf("failed to delete category: %w", err)
	}
	s.guard.metrics.IncMutation("category", "delete")
	return nil
}

func (s *CategoryService) load(ctx context.Context, id string) (*model.Category, error) {
	category, err := s.categories.GetCategoryByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return nil, notFound("Category")
		}
		return nil, fmt.Errorf("failed to load category: %w", err)
	}
	return category, nil
}

func applyCategoryInput(category *model.Category, input CategoryInput) error {
	if input.Name != nil {
		category.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		category.Description = strings.TrimSpace(*input.Description)
	}
	if input.Color != nil && *input.Color != "" {
		category.Color = *input.Color
	}

	switch {
	case category.Name == "":
		return invalid("name", "Category name is required")
	case category.Description == "":
		return invalid("description", "Description is required")
	case !colorRegex.MatchString(category.Color):
		return invalid("color", "Invalid color format")
	}
	return nil
}

func categoryTarget(category *model.Category) policy.Target {
	return policy.Target{ID: category.ID, OwnerID: category.OwnerID}
}
