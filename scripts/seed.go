package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/apihub/apihub/internal/auth"
	"github.com/apihub/apihub/internal/model"
	"github.com/apihub/apihub/internal/repository"
)

type output struct {
	UserID     string   `json:"user_id"`
	Email      string   `json:"email"`
	Categories []string `json:"categories"`
	APIs       int      `json:"apis"`
	Skipped    bool     `json:"skipped"`
}

type categorySeed struct {
	name, description, color string
}

var categorySeeds = []categorySeed{
	{"Authentication", "User authentication and authorization APIs", "#FF6B6B"},
	{"Payment", "Payment processing and transaction APIs", "#4ECDC4"},
	{"Social Media", "Social media integration APIs", "#45B7D1"},
	{"Analytics", "Data analytics and reporting APIs", "#96CEB4"},
	{"Notification", "Push notifications and messaging APIs", "#FFEAA7"},
}

// apiSeeds reference categorySeeds by index.
var apiSeeds = []struct {
	category int
	api      model.API
}{
	{0, model.API{
		Name: "User Login", URL: "https://api.example.com/auth/login", Method: model.MethodPost,
		Type: model.APITypeExternal, AuthType: model.AuthTypeNone,
		Description: "Authenticate user with email and password",
		RequestBody: "{\n  \"email\": \"user@example.com\",\n  \"password\": \"password123\"\n}",
		Tags:        []string{"auth", "login", "jwt"},
	}},
	{0, model.API{
		Name: "Get User Profile", URL: "https://api.example.com/users/me", Method: model.MethodGet,
		Type: model.APITypeExternal, AuthType: model.AuthTypeBearer,
		Description: "Get current authenticated user profile",
		AuthDetails: map[string]any{"tokenType": "Bearer"},
		Tags:        []string{"auth", "profile", "user"},
	}},
	{1, model.API{
		Name: "Process Payment", URL: "https://api.stripe.com/v1/charges", Method: model.MethodPost,
		Type: model.APITypeExternal, AuthType: model.AuthTypeAPIKey,
		Description: "Process a credit card payment",
		AuthDetails: map[string]any{"headerName": "Authorization", "keyPrefix": "Bearer"},
		Tags:        []string{"payment", "stripe", "charge"},
	}},
	{2, model.API{
		Name: "Get Facebook Posts", URL: "https://graph.facebook.com/v12.0/me/posts", Method: model.MethodGet,
		Type: model.APITypeExternal, AuthType: model.AuthTypeOAuth,
		Description: "Retrieve user posts from Facebook",
		AuthDetails: map[string]any{"provider": "Facebook", "scope": "user_posts"},
		QueryParams: []model.Param{
			{Key: "fields", Value: "id,message,created_time", Required: true},
			{Key: "limit", Value: "25"},
		},
		Tags: []string{"social", "facebook", "posts"},
	}},
	{3, model.API{
		Name: "Send Analytics Event", URL: "https://api.example.com/analytics/events", Method: model.MethodPost,
		Type: model.APITypeInternal, AuthType: model.AuthTypeAPIKey,
		Description: "Track user events for analytics",
		Tags:        []string{"analytics", "tracking", "events"},
	}},
	{4, model.API{
		Name: "Send Push Notification", URL: "https://fcm.googleapis.com/fcm/send", Method: model.MethodPost,
		Type: model.APITypeExternal, AuthType: model.AuthTypeAPIKey,
		Description: "Send push notification via Firebase Cloud Messaging",
		AuthDetails: map[string]any{"headerName": "Authorization", "keyPrefix": "key="},
		Tags:        []string{"notification", "fcm", "push"},
	}},
}

func main() {
	var (
		databaseURL = flag.String("database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
		email       = flag.String("email", "demo@example.com", "Demo admin email")
		password    = flag.String("password", "password123", "Demo admin password")
		migrate     = flag.Bool("migrate", true, "Apply embedded migrations first")
		format      = flag.String("format", "plain", "Output format: plain or json")
	)
	flag.Parse()

	if *databaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	repo, err := repository.New(ctx, *databaseURL)
	if err != nil {
		fmt.Fprintln(os.Stderr, "connect database:", err)
		os.Exit(1)
	}
	defer repo.Close()

	if *migrate {
		if err := repo.Migrate(ctx); err != nil {
			fmt.Fprintln(os.Stderr, "migrate:", err)
			os.Exit(1)
		}
	}

	out, err := seed(ctx, repo, *email, *password)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}

	switch *format {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(out)
	default:
		if out.Skipped {
			fmt.Printf("demo user %s already exists, nothing seeded\n", out.Email)
			return
		}
		fmt.Printf("user_id=%s\nemail=%s\npassword=%s\ncategories=%d\napis=%d\n",
			out.UserID, out.Email, *password, len(out.Categories), out.APIs)
	}
}

// seed creates the demo admin with its categories and APIs.
// It is a no-op when the demo user already exists.
func seed(ctx context.Context, repo *repository.Repository, email, password string) (*output, error) {
	if existing, err := repo.GetUserByEmail(ctx, email); err == nil {
		return &output{UserID: existing.ID, Email: email, Skipped: true}, nil
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, fmt.Errorf("lookup demo user: %w", err)
	}

	hash, err := auth.NewPasswordHasher(auth.DefaultParams).Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &model.User{
		ID:        ulid.Make().String(),
		Name:      "Demo User",
		Email:     email,
		Password:  hash,
		Role:      model.RoleAdmin,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := repo.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("create demo user: %w", err)
	}

	out := &output{UserID: user.ID, Email: email}
	categoryIDs := make([]string, len(categorySeeds))
	for i, c := range categorySeeds {
		category := &model.Category{
			ID:          ulid.Make().String(),
			Name:        c.name,
			Description: c.description,
			Color:       c.color,
			OwnerID:     user.ID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := repo.CreateCategory(ctx, category); err != nil {
			return nil, fmt.Errorf("create category %s: %w", c.name, err)
		}
		categoryIDs[i] = category.ID
		out.Categories = append(out.Categories, c.name)
	}

	for _, s := range apiSeeds {
		api := s.api
		api.ID = ulid.Make().String()
		api.CategoryID = categoryIDs[s.category]
		api.OwnerID = user.ID
		api.Version = model.DefaultAPIVersion
		api.CreatedAt = now
		api.UpdatedAt = now
		if err := repo.CreateAPI(ctx, &api); err != nil {
			return nil, fmt.Errorf("create api %s: %w", api.Name, err)
		}
		out.APIs++
	}

	return out, nil
}
