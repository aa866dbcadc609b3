package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"

	"github.com/apihub/apihub/internal/model"
)

// ErrAPINotFound is returned when an API id does not resolve.
var ErrAPINotFound = errors.New("api not found")

// APIFilter narrows API listings. Zero fields are ignored.
type APIFilter struct {
	OwnerID    string
	CategoryID string
	Type       model.APIType
	Method     model.HTTPMethod
	// Search is matched as tokens against name, description and tags.
	Search string
}

// apiCategoryFK is the default name Postgres gives the apis.category_id reference.
const apiCategoryFK = "apis_category_id_fkey"

// searchVector must match the apis_search_idx expression so the planner can use the GIN index.
const searchVector = `to_tsvector('english', apis_search_text(a.name, a.description, a.tags))`

const apiSelect = `
	SELECT a.id, a.name, a.url, a.method, a.category_id, a.type, a.description, a.documentation,
	       a.auth_type, a.auth_details, a.headers, a.query_params, a.request_body, a.response_example,
	       a.tags, a.version, a.rate_limit, a.notes, a.owner_id, a.created_at, a.updated_at,
	       c.name, c.color, u.name, u.email
	FROM apis a
	LEFT JOIN categories c ON c.id = a.category_id
	LEFT JOIN users u ON u.id = a.owner_id
`

// CreateAPI inserts a new API document.
func (r *Repository) CreateAPI(ctx context.Context, api *model.API) error {
	query := `
		INSERT INTO apis (id, name, url, method, category_id, type, description, documentation,
		                  auth_type, auth_details, headers, query_params, request_body, response_example,
		                  tags, version, rate_limit, notes, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
	`

	normalizeAPI(api)
	_, err := r.pool.Exec(ctx, query,
		api.ID,
		api.Name,
		api.URL,
		api.Method,
		nullable(api.CategoryID),
		api.Type,
		api.Description,
		api.Documentation,
		api.AuthType,
		api.AuthDetails,
		api.Headers,
		api.QueryParams,
		api.RequestBody,
		api.ResponseExample,
		pq.Array(api.Tags),
		api.Version,
		api.RateLimit,
		api.Notes,
		nullable(api.OwnerID),
		api.CreatedAt,
		api.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err, apiCategoryFK) {
			return ErrCategoryNotFound
		}
		return fmt.Errorf("failed to create api: %w", err)
	}

	return nil
}

// GetAPIByID retrieves an API with its category and owner resolved.
func (r *Repository) GetAPIByID(ctx context.Context, id string) (*model.API, error) {
	api, err := scanAPI(r.pool.QueryRow(ctx, apiSelect+` WHERE a.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAPINotFound
		}
		return nil, fmt.Errorf("failed to get api by ID: %w", err)
	}

	return api, nil
}

// ListAPIs returns APIs matching the filter, newest first.
func (r *Repository) ListAPIs(ctx context.Context, filter APIFilter) ([]*model.API, error) {
	where, args := apiWhere(filter)
	query := apiSelect + where + ` ORDER BY a.created_at DESC, a.id DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list apis: %w", err)
	}
	defer rows.Close()

	apis := []*model.API{}
	for rows.Next() {
		api, err := scanAPI(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan api: %w", err)
		}
		apis = append(apis, api)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating apis: %w", err)
	}

	return apis, nil
}

// UpdateAPI writes every mutable API field.
func (r *Repository) UpdateAPI(ctx context.Context, api *model.API) error {
	query := `
		UPDATE apis
		SET name = $2, url = $3, method = $4, category_id = $5, type = $6, description = $7,
		    documentation = $8, auth_type = $9, auth_details = $10, headers = $11, query_params = $12,
		    request_body = $13, response_example = $14, tags = $15, version = $16, rate_limit = $17,
		    notes = $18, updated_at = $19
		WHERE id = $1
	`

	normalizeAPI(api)
	result, err := r.pool.Exec(ctx, query,
		api.ID,
		api.Name,
		api.URL,
		api.Method,
		nullable(api.CategoryID),
		api.Type,
		api.Description,
		api.Documentation,
		api.AuthType,
		api.AuthDetails,
		api.Headers,
		api.QueryParams,
		api.RequestBody,
		api.ResponseExample,
		pq.Array(api.Tags),
		api.Version,
		api.RateLimit,
		api.Notes,
		api.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err, apiCategoryFK) {
			return ErrCategoryNotFound
		}
		return fmt.Errorf("failed to update api: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrAPINotFound
	}

	return nil
}

// DeleteAPI removes an API.
func (r *Repository) DeleteAPI(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM apis WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete api: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrAPINotFound
	}

	return nil
}

// CountAPIs counts APIs matching the filter.
func (r *Repository) CountAPIs(ctx context.Context, filter APIFilter) (int64, error) {
	where, args := apiWhere(filter)

	var count int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM apis a`+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count apis: %w", err)
	}

	return count, nil
}

// CountAPIsByMethod groups API counts by HTTP method.
func (r *Repository) CountAPIsByMethod(ctx context.Context, filter APIFilter) ([]model.MethodCount, error) {
	where, args := apiWhere(filter)
	query := `SELECT a.method, COUNT(*) FROM apis a` + where + ` GROUP BY a.method ORDER BY a.method`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to group apis by method: %w", err)
	}
	defer rows.Close()

	counts := []model.MethodCount{}
	for rows.Next() {
		var mc model.MethodCount
		if err := rows.Scan(&mc.Method, &mc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan method count: %w", err)
		}
		counts = append(counts, mc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating method counts: %w", err)
	}

	return counts, nil
}

func apiWhere(filter APIFilter) (string, []any) {
	where := ` WHERE TRUE`
	var args []any

	if filter.OwnerID != "" {
		args = append(args, filter.OwnerID)
		where += fmt.Sprintf(" AND a.owner_id = $%d", len(args))
	}
	if filter.CategoryID != "" {
		args = append(args, filter.CategoryID)
		where += fmt.Sprintf(" AND a.category_id = $%d", len(args))
	}
	if filter.Type != "" {
		args = append(args, filter.Type)
		where += fmt.Sprintf(" AND a.type = $%d", len(args))
	}
	if filter.Method != "" {
		args = append(args, filter.Method)
		where += fmt.Sprintf(" AND a.method = $%d", len(args))
	}
	if filter.Search != "" {
		args = append(args, filter.Search)
		where += fmt.Sprintf(" AND %s @@ plainto_tsquery('english', $%d)", searchVector, len(args))
	}

	return where, args
}

// normalizeAPI replaces nil collections so JSONB and array columns never receive NULL.
func normalizeAPI(api *model.API) {
	if api.AuthDetails == nil {
		api.AuthDetails = map[string]any{}
	}
	if api.Headers == nil {
		api.Headers = []model.Param{}
	}
	if api.QueryParams == nil {
		api.QueryParams = []model.Param{}
	}
	if api.Tags == nil {
		api.Tags = []string{}
	}
}

func scanAPI(row pgx.Row) (*model.API, error) {
	var (
		api           model.API
		categoryID    *string
		ownerID       *string
		categoryName  *string
		categoryColor *string
		ownerName     *string
		ownerEmail    *string
		tags          []string
	)
	err := row.Scan(
		&api.ID,
		&api.Name,
		&api.URL,
		&api.Method,
		&categoryID,
		&api.Type,
		&api.Description,
		&api.Documentation,
		&api.AuthType,
		&api.AuthDetails,
		&api.Headers,
		&api.QueryParams,
		&api.RequestBody,
		&api.ResponseExample,
		pq.Array(&tags),
		&api.Version,
		&api.RateLimit,
		&api.Notes,
		&ownerID,
		&api.CreatedAt,
		&api.UpdatedAt,
		&categoryName,
		&categoryColor,
		&ownerName,
		&ownerEmail,
	)
	if err != nil {
		return nil, err
	}

	api.Tags = tags
	api.CategoryID = deref(categoryID)
	if categoryID != nil && categoryName != nil {
		api.Category = &model.CategoryRef{ID: *categoryID, Name: *categoryName, Color: deref(categoryColor)}
	}
	api.OwnerID = deref(ownerID)
	if ownerID != nil && ownerName != nil {
		api.Owner = &model.UserRef{ID: *ownerID, Name: *ownerName, Email: deref(ownerEmail)}
	}
	normalizeAPI(&api)

	return &api, nil
}
