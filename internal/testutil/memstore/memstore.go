// Package memstore is an in-memory implementation of the service store
// interfaces for unit tests. Reads return copies, so a caller that mutates
// a loaded entity without writing it back leaves the store unchanged.
package memstore

import (
	"context"
	"maps"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/apihub/apihub/internal/cache"
	"github.com/apihub/apihub/internal/model"
	"github.com/apihub/apihub/internal/repository"
)

// Store holds every collection behind one mutex.
type Store struct {
	mu            sync.Mutex
	users         map[string]*model.User
	categories    map[string]*model.Category
	apis          map[string]*model.API
	notifications map[string]*model.Notification

	// FailNotifications makes CreateNotification return this error when set.
	FailNotifications error
}

// New returns an empty store.
func New() *Store {
	return &Store{
		users:         map[string]*model.User{},
		categories:    map[string]*model.Category{},
		apis:          map[string]*model.API{},
		notifications: map[string]*model.Notification{},
	}
}

// ============================================================================
// Users
// ============================================================================

func (s *Store) CreateUser(_ context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == user.Email {
			return repository.ErrEmailExists
		}
	}
	c := *user
	s.users[user.ID] = &c
	return nil
}

func (s *Store) GetUserByID(_ context.Context, id string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	c := *u
	return &c, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (s *Store) ListUsers(_ context.Context) ([]*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*model.User{}
	for _, u := range s.users {
		c := *u
		out = append(out, &c)
	}
	sortNewest(out, func(v *model.User) (time.Time, string) { return v.CreatedAt, v.ID })
	return out, nil
}

func (s *Store) UpdateUser(_ context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; !ok {
		return repository.ErrUserNotFound
	}
	for _, u := range s.users {
		if u.ID != user.ID && u.Email == user.Email {
			return repository.ErrEmailExists
		}
	}
	c := *user
	s.users[user.ID] = &c
	return nil
}

func (s *Store) DeleteUser(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return repository.ErrUserNotFound
	}
	delete(s.users, id)
	for _, c := range s.categories {
		if c.OwnerID == id {
			c.OwnerID = ""
		}
	}
	for _, a := range s.apis {
		if a.OwnerID == id {
			a.OwnerID = ""
		}
	}
	for nid, n := range s.notifications {
		if n.UserID == id {
			delete(s.notifications, nid)
		} else if n.SenderID == id {
			n.SenderID = ""
		}
	}
	return nil
}

func (s *Store) CountUsers(_ context.Context, filter repository.UserFilter) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, u := range s.users {
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		if filter.Active != nil && u.IsActive != *filter.Active {
			continue
		}
		if filter.CreatedAfter != nil && u.CreatedAt.Before(*filter.CreatedAfter) {
			continue
		}
		n++
	}
	return n, nil
}

// ============================================================================
// Categories
// ============================================================================

func (s *Store) CreateCategory(_ context.Context, category *model.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *category
	c.Owner, c.APICount = nil, 0
	s.categories[category.ID] = &c
	return nil
}

func (s *Store) GetCategoryByID(_ context.Context, id string) (*model.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	if !ok {
		return nil, repository.ErrCategoryNotFound
	}
	return s.resolveCategory(c), nil
}

func (s *Store) CategoryExists(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.categories[id]
	return ok, nil
}

func (s *Store) ListCategories(_ context.Context) ([]*model.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*model.Category{}
	for _, c := range s.categories {
		out = append(out, s.resolveCategory(c))
	}
	sortNewest(out, func(v *model.Category) (time.Time, string) { return v.CreatedAt, v.ID })
	return out, nil
}

func (s *Store) UpdateCategory(_ context.Context, category *model.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[category.ID]
	if !ok {
		return repository.ErrCategoryNotFound
	}
	c.Name = category.Name
	c.Description = category.Description
	c.Color = category.Color
	c.UpdatedAt = category.UpdatedAt
	return nil
}

func (s *Store) DeleteCategory(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[id]; !ok {
		return repository.ErrCategoryNotFound
	}
	delete(s.categories, id)
	for _, a := range s.apis {
		if a.CategoryID == id {
			a.CategoryID = ""
		}
	}
	return nil
}

func (s *Store) CountCategories(_ context.Context, ownerID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, c := range s.categories {
		if ownerID == "" || c.OwnerID == ownerID {
			n++
		}
	}
	return n, nil
}

func (s *Store) resolveCategory(c *model.Category) *model.Category {
	out := *c
	out.Owner = s.userRef(c.OwnerID)
	out.APICount = 0
	for _, a := range s.apis {
		if a.CategoryID == c.ID {
			out.APICount++
		}
	}
	return &out
}

// ============================================================================
// APIs
// ============================================================================

func (s *Store) CreateAPI(_ context.Context, api *model.API) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if api.CategoryID != "" {
		if _, ok := s.categories[api.CategoryID]; !ok {
			return repository.ErrCategoryNotFound
		}
	}
	s.apis[api.ID] = copyAPI(api)
	return nil
}

func (s *Store) GetAPIByID(_ context.Context, id string) (*model.API, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.apis[id]
	if !ok {
		return nil, repository.ErrAPINotFound
	}
	return s.resolveAPI(a), nil
}

func (s *Store) ListAPIs(_ context.Context, filter repository.APIFilter) ([]*model.API, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*model.API{}
	for _, a := range s.apis {
		if matchAPI(a, filter) {
			out = append(out, s.resolveAPI(a))
		}
	}
	sortNewest(out, func(v *model.API) (time.Time, string) { return v.CreatedAt, v.ID })
	return out, nil
}

func (s *Store) UpdateAPI(_ context.Context, api *model.API) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.apis[api.ID]
	if !ok {
		return repository.ErrAPINotFound
	}
	if api.CategoryID != "" {
		if _, ok := s.categories[api.CategoryID]; !ok {
			return repository.ErrCategoryNotFound
		}
	}
	c := copyAPI(api)
	c.OwnerID = existing.OwnerID
	c.CreatedAt = existing.CreatedAt
	s.apis[api.ID] = c
	return nil
}

func (s *Store) DeleteAPI(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.apis[id]; !ok {
		return repository.ErrAPINotFound
	}
	delete(s.apis, id)
	return nil
}

func (s *Store) CountAPIs(_ context.Context, filter repository.APIFilter) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, a := range s.apis {
		if matchAPI(a, filter) {
			n++
		}
	}
	return n, nil
}

func (s *Store) CountAPIsByMethod(_ context.Context, filter repository.APIFilter) ([]model.MethodCount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := map[model.HTTPMethod]int64{}
	for _, a := range s.apis {
		if matchAPI(a, filter) {
			counts[a.Method]++
		}
	}
	methods := make([]model.HTTPMethod, 0, len(counts))
	for m := range counts {
		methods = append(methods, m)
	}
	slices.Sort(methods)
	out := []model.MethodCount{}
	for _, m := range methods {
		out = append(out, model.MethodCount{Method: m, Count: counts[m]})
	}
	return out, nil
}

// APICount returns the number of stored APIs.
func (s *Store) APICount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.apis)
}

func (s *Store) resolveAPI(a *model.API) *model.API {
	out := copyAPI(a)
	if c, ok := s.categories[a.CategoryID]; ok {
		out.Category = c.Summary()
	}
	out.Owner = s.userRef(a.OwnerID)
	return out
}

func matchAPI(a *model.API, f repository.APIFilter) bool {
	if f.OwnerID != "" && a.OwnerID != f.OwnerID {
		return false
	}
	if f.CategoryID != "" && a.CategoryID != f.CategoryID {
		return false
	}
	if f.Type != "" && a.Type != f.Type {
		return false
	}
	if f.Method != "" && a.Method != f.Method {
		return false
	}
	if f.Search != "" {
		return matchTokens(f.Search, a.Name, a.Description, strings.Join(a.Tags, " "))
	}
	return true
}

// matchTokens reports whether every query token appears as a whole word in
// the indexed fields. Case-insensitive, no stemming.
func matchTokens(query string, fields ...string) bool {
	words := map[string]bool{}
	for _, field := range fields {
		for _, w := range tokenize(field) {
			words[w] = true
		}
	}
	tokens := tokenize(query)
	if len(tokens) == 0 {
		return false
	}
	for _, t := range tokens {
		if !words[t] {
			return false
		}
	}
	return true
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func copyAPI(a *model.API) *model.API {
	c := *a
	c.Category, c.Owner = nil, nil
	c.AuthDetails = maps.Clone(a.AuthDetails)
	c.Headers = slices.Clone(a.Headers)
	c.QueryParams = slices.Clone(a.QueryParams)
	c.Tags = slices.Clone(a.Tags)
	return &c
}

// ============================================================================
// Notifications
// ============================================================================

func (s *Store) CreateNotification(_ context.Context, n *model.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailNotifications != nil {
		return s.FailNotifications
	}
	c := *n
	c.Sender = nil
	s.notifications[n.ID] = &c
	return nil
}

func (s *Store) ListNotifications(_ context.Context, userID string, limit int) ([]*model.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*model.Notification{}
	for _, n := range s.notifications {
		if n.UserID == userID {
			out = append(out, s.resolveNotification(n))
		}
	}
	sortNewest(out, func(v *model.Notification) (time.Time, string) { return v.CreatedAt, v.ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) CountUnreadNotifications(_ context.Context, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for _, n := range s.notifications {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (s *Store) MarkNotificationRead(_ context.Context, id, userID string) (*model.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notifications[id]
	if !ok || n.UserID != userID {
		return nil, repository.ErrNotificationNotFound
	}
	n.IsRead = true
	return s.resolveNotification(n), nil
}

func (s *Store) MarkAllNotificationsRead(_ context.Context, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var updated int64
	for _, n := range s.notifications {
		if n.UserID == userID && !n.IsRead {
			n.IsRead = true
			updated++
		}
	}
	return updated, nil
}

func (s *Store) DeleteNotification(_ context.Context, id, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notifications[id]
	if !ok || n.UserID != userID {
		return repository.ErrNotificationNotFound
	}
	delete(s.notifications, id)
	return nil
}

// NotificationsFor returns every notification addressed to userID, unordered.
func (s *Store) NotificationsFor(userID string) []*model.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.Notification
	for _, n := range s.notifications {
		if n.UserID == userID {
			out = append(out, s.resolveNotification(n))
		}
	}
	return out
}

func (s *Store) resolveNotification(n *model.Notification) *model.Notification {
	out := *n
	out.Sender = s.userRef(n.SenderID)
	return &out
}

func (s *Store) userRef(id string) *model.UserRef {
	if u, ok := s.users[id]; ok {
		return u.Summary()
	}
	return nil
}

// sortNewest orders newest first, breaking ties by descending id.
func sortNewest[T any](items []T, key func(T) (time.Time, string)) {
	sort.Slice(items, func(i, j int) bool {
		ti, idI := key(items[i])
		tj, idJ := key(items[j])
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return idI > idJ
	})
}

// ============================================================================
// Actor cache
// ============================================================================

// ActorCache is an in-memory stand-in for the Redis actor cache.
type ActorCache struct {
	mu          sync.Mutex
	entries     map[string]cache.CachedActor
	Invalidated []string
}

// NewActorCache returns an empty cache.
func NewActorCache() *ActorCache {
	return &ActorCache{entries: map[string]cache.CachedActor{}}
}

func (c *ActorCache) GetActor(_ context.Context, userID string) (*cache.CachedActor, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[userID]
	if !ok {
		return nil, nil
	}
	return &entry, nil
}

func (c *ActorCache) SetActor(_ context.Context, actor *cache.CachedActor) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[actor.ID] = *actor
	return nil
}

func (c *ActorCache) InvalidateActor(_ context.Context, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, userID)
	c.Invalidated = append(c.Invalidated, userID)
	return nil
}
