package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/apihub/apihub/internal/model"
)

// ErrCategoryNotFound is returned when a category id does not resolve.
var ErrCategoryNotFound = errors.New("category not found")

const categorySelect = `
	SELECT c.id, c.name, c.description, c.color, c.owner_id, c.created_at, c.updated_at,
	       u.name, u.email,
	       (SELECT COUNT(*) FROM apis a WHERE a.category_id = c.id)
	FROM categories c
	LEFT JOIN users u ON u.id = c.owner_id
`

// CreateCategory inserts a new category.
func (r *Repository) CreateCategory(ctx context.Context, category *model.Category) error {
	query := `
		INSERT INTO categories (id, name, description, color, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.pool.Exec(ctx, query,
		category.ID,
		category.Name,
		category.Description,
		category.Color,
		nullable(category.OwnerID),
		category.CreatedAt,
		category.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}

	return nil
}

// GetCategoryByID retrieves a category with its owner and API count.
func (r *Repository) GetCategoryByID(ctx context.Context, id string) (*model.Category, error) {
	category, err := scanCategory(r.pool.QueryRow(ctx, categorySelect+` WHERE c.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to get category by ID: %w", err)
	}

	return category, nil
}

// CategoryExists reports whether a category id resolves.
func (r *Repository) CategoryExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM categories WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check category existence: %w", err)
	}
	return exists, nil
}

// ListCategories returns every category, newest first.
func (r *Repository) ListCategories(ctx context.Context) ([]*model.Category, error) {
	rows, err := r.pool.Query(ctx, categorySelect+` ORDER BY c.created_at DESC, c.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	categories := []*model.Category{}
	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, category)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	return categories, nil
}

// UpdateCategory writes the mutable category fields.
func (r *Repository) UpdateCategory(ctx context.Context, category *model.Category) error {
	query := `
		UPDATE categories
		SET name = $2, description = $3, color = $4, updated_at = $5
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query,
		category.ID,
		category.Name,
		category.Description,
		category.Color,
		category.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update category: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrCategoryNotFound
	}

	return nil
}

// DeleteCategory removes a category. APIs in it keep existing with a null category.
func (r *Repository) DeleteCategory(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrCategoryNotFound
	}

	return nil
}

// CountCategories counts categories, optionally restricted to one owner.
func (r *Repository) CountCategories(ctx context.Context, ownerID string) (int64, error) {
	query := `SELECT COUNT(*) FROM categories`
	var args []any
	if ownerID != "" {
		query += ` WHERE owner_id = $1`
		args = append(args, ownerID)
	}

	var count int64
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count categories: %w", err)
	}

	return count, nil
}

func scanCategory(row pgx.Row) (*model.Category, error) {
	var (
		category   model.Category
		ownerID    *string
		ownerName  *string
		ownerEmail *string
	)
	err := row.Scan(
		&category.ID,
		&category.Name,
		&category.Description,
		&category.Color,
		&ownerID,
		&category.CreatedAt,
		&category.UpdatedAt,
		&ownerName,
		&ownerEmail,
		&category.APICount,
	)
	if err != nil {
		return nil, err
	}

	category.OwnerID = deref(ownerID)
	if ownerID != nil && ownerName != nil {
		category.Owner = &model.UserRef{ID: *ownerID, Name: *ownerName, Email: deref(ownerEmail)}
	}

	return &category, nil
}
