// Package store provides the per-resource client-side cache. Every domain
// resource gets one Store instance holding the authoritative list of
// entities plus the busy/error/success feedback consumed by callers.
package store

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"sync"

	"github.com/gestibat/gestibat/internal/api"
	"github.com/gestibat/gestibat/internal/models"
)

// State is a consistent snapshot of a store, taken under the store lock.
type State[T models.Entity] struct {
	Items      []T
	IsLoading  bool
	IsCreating bool
	IsUpdating bool
	// Err is the last failure, or nil. Cleared when the next mutating
	// operation starts or via ClearFeedback.
	Err *api.Error
	// Success is set after a successful create or update and is meant to
	// be consumed and reset by the caller.
	Success bool
}

// Store caches one entity collection and mediates CRUD calls through the
// authenticated client. Items are unique by ID; reconciliation of server
// responses is keyed by ID. All state lives behind one mutex.
//
// Concurrent calls into the same store are allowed and settle
// independently; the shared busy/error/success flags are last-write-wins
// across overlapping calls, matching the behavior callers already rely on.
type Store[T models.Entity] struct {
	client *api.Client
	// path is the exact collection endpoint including its trailing-slash
	// form, which the backend treats as significant.
	path string

	mu       sync.Mutex
	items    []T
	loading  bool
	creating bool
	updating bool
	err      *api.Error
	success  bool
}

// New binds a store to its collection endpoint.
func New[T models.Entity](client *api.Client, path string) *Store[T] {
	return &Store[T]{client: client, path: path}
}

// State returns a snapshot. The items slice is copied so callers can hold
// it across later mutations.
func (s *Store[T]) State() State[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]T, len(s.items))
	copy(items, s.items)
	return State[T]{
		Items:      items,
		IsLoading:  s.loading,
		IsCreating: s.creating,
		IsUpdating: s.updating,
		Err:        s.err,
		Success:    s.success,
	}
}

// Items returns a copy of the cached list.
func (s *Store[T]) Items() []T {
	return s.State().Items
}

// ClearFeedback resets the error and success flags without touching items.
func (s *Store[T]) ClearFeedback() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = nil
	s.success = false
}

// FetchAll replaces the cached list with the server's current collection.
// On failure the previous list is kept (stale but available) and the error
// is recorded.
func (s *Store[T]) FetchAll(ctx context.Context) error {
	s.mu.Lock()
	s.loading = true
	s.err = nil
	s.mu.Unlock()

	var fetched []T
	err := s.client.Do(ctx, http.MethodGet, s.path, nil, &fetched)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.err = asAPIError(err)
		return err
	}
	if fetched == nil {
		fetched = []T{}
	}
	s.items = fetched
	return nil
}

// Create posts payload to the collection endpoint and appends the
// server-confirmed entity (carrying the assigned ID) to the list.
func (s *Store[T]) Create(ctx context.Context, payload any) (T, error) {
	return s.create(ctx, func(result *T) error {
		return s.client.Do(ctx, http.MethodPost, s.path, payload, result)
	})
}

// CreateForm is Create over multipart/form-data, for resources that carry
// binary attachments. Array-valued fields repeat under the same key.
func (s *Store[T]) CreateForm(ctx context.Context, values url.Values, files []api.File) (T, error) {
	return s.create(ctx, func(result *T) error {
		return s.client.DoForm(ctx, http.MethodPost, s.path, values, files, result)
	})
}

func (s *Store[T]) create(ctx context.Context, send func(*T) error) (T, error) {
	s.mu.Lock()
	s.creating = true
	s.err = nil
	s.success = false
	s.mu.Unlock()

	var created T
	err := send(&created)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.creating = false
	if err != nil {
		s.err = asAPIError(err)
		var zero T
		return zero, err
	}
	s.items = append(s.items, created)
	s.success = true
	return created, nil
}

// Update patches the entity and replaces the matching list entry in place,
// preserving its position.
func (s *Store[T]) Update(ctx context.Context, id int64, payload any) (T, error) {
	return s.update(ctx, id, func(result *T) error {
		return s.client.Do(ctx, http.MethodPatch, api.ItemPath(s.path, id), payload, result)
	})
}

// UpdateForm is Update over multipart/form-data.
func (s *Store[T]) UpdateForm(ctx context.Context, id int64, values url.Values, files []api.File) (T, error) {
	return s.update(ctx, id, func(result *T) error {
		return s.client.DoForm(ctx, http.MethodPatch, api.ItemPath(s.path, id), values, files, result)
	})
}

func (s *Store[T]) update(ctx context.Context, id int64, send func(*T) error) (T, error) {
	s.mu.Lock()
	s.updating = true
	s.err = nil
	s.success = false
	s.mu.Unlock()

	var updated T
	err := send(&updated)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.updating = false
	if err != nil {
		s.err = asAPIError(err)
		var zero T
		return zero, err
	}
	for i := range s.items {
		if s.items[i].EntityID() == id {
			s.items[i] = updated
			s.success = true
			return updated, nil
		}
	}
	// Entity was not cached (fetched elsewhere or list never loaded);
	// reconcile by adding it rather than dropping the server's answer.
	s.items = append(s.items, updated)
	s.success = true
	return updated, nil
}

// Delete removes the entity server-side first and only then drops it from
// the list. A rejected delete leaves the list untouched.
func (s *Store[T]) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	s.updating = true
	s.err = nil
	s.success = false
	s.mu.Unlock()

	err := s.client.Do(ctx, http.MethodDelete, api.ItemPath(s.path, id), nil, nil)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.updating = false
	if err != nil {
		s.err = asAPIError(err)
		return err
	}
	kept := s.items[:0]
	for _, item := range s.items {
		if item.EntityID() != id {
			kept = append(kept, item)
		}
	}
	s.items = kept
	return nil
}

// asAPIError normalizes any failure into the structured *api.Error the
// state exposes. Non-API errors (wrapped refresh failures, context
// cancellation) become plain messages.
func asAPIError(err error) *api.Error {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return &api.Error{Kind: api.KindMessage, Message: err.Error()}
}
