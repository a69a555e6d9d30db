// Package session holds the shared bearer-token state read by every
// outgoing API request and updated by login, refresh, and logout.
package session

import "sync"

// EventKind identifies a session state change.
type EventKind int

const (
	// TokenUpdated is published when a new access token is stored.
	TokenUpdated EventKind = iota
	// LoggedOut is published when the session is cleared.
	LoggedOut
)

// Event describes a session state change delivered to listeners.
type Event struct {
	Kind EventKind
	// Token carries the new access token for TokenUpdated events.
	Token string
}

// Navigator performs a navigation side effect. The client invokes it with
// a login path when the session can no longer be recovered.
type Navigator func(path string)

// Session stores the current access token. All methods are safe for
// concurrent use; last write wins, which is acceptable because overlapping
// refreshes target the same credential.
type Session struct {
	mu        sync.Mutex
	token     string
	listeners []func(Event)
	navigate  Navigator
}

// New returns an empty session. navigate may be nil, in which case
// navigation requests are dropped.
func New(navigate Navigator) *Session {
	return &Session{navigate: navigate}
}

// Token returns the current access token, or the empty string when absent.
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// SetToken stores a new access token and notifies listeners.
func (s *Session) SetToken(token string) {
	s.mu.Lock()
	s.token = token
	ls := append(([]func(Event))(nil), s.listeners...)
	s.mu.Unlock()

	for _, fn := range ls {
		fn(Event{Kind: TokenUpdated, Token: token})
	}
}

// Clear drops the access token and notifies listeners of the logout.
func (s *Session) Clear() {
	s.mu.Lock()
	s.token = ""
	ls := append(([]func(Event))(nil), s.listeners...)
	s.mu.Unlock()

	for _, fn := range ls {
		fn(Event{Kind: LoggedOut})
	}
}

// OnChange registers a listener called on every token update or logout.
// Listeners are invoked outside the session lock.
func (s *Session) OnChange(fn func(Event)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// NavigateTo invokes the injected navigator, if any.
func (s *Session) NavigateTo(path string) {
	s.mu.Lock()
	nav := s.navigate
	s.mu.Unlock()
	if nav != nil {
		nav(path)
	}
}
