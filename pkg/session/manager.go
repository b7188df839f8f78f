package session

import (
	"context"
	"sync"

	"github.com/coursetide/coursetide/pkg/domain"
)

// State is the derived authentication status of the client. It is a
// projection of credential presence and the profile fetch outcome, never
// stored independently.
type State int

const (
	// StateUnauthenticated means no credential is held.
	StateUnauthenticated State = iota
	// StateAuthenticating means a credential is held and the profile
	// fetch is in flight.
	StateAuthenticating
	// StateAuthenticated means credential and profile are both present.
	StateAuthenticated
	// StateInvalidated means the credential was revoked by a rejected
	// request rather than a user action.
	StateInvalidated
)

func (s State) String() string {
	switch s {
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	case StateInvalidated:
		return "invalidated"
	default:
		return "unauthenticated"
	}
}

// Event is a navigation output of a state transition. The manager never
// navigates itself; the outer controller executes events, which keeps the
// state machine testable without a rendering environment.
type Event int

const (
	// EventNone requires no navigation.
	EventNone Event = iota
	// EventShowLogin moves the user to the public entry view.
	EventShowLogin
	// EventShowWorkspace moves the user to the default protected view.
	EventShowWorkspace
)

// ProfileFetcher fetches the authenticated profile; satisfied by api.Client.
type ProfileFetcher interface {
	Profile(ctx context.Context) (*domain.Profile, error)
}

// Manager owns the authentication state machine. All methods are safe for
// concurrent use; request completions arrive from multiple goroutines.
type Manager struct {
	mu      sync.Mutex
	store   *Store
	state   State
	profile *domain.Profile
}

// NewManager returns a manager in the unauthenticated state using store as
// the only credential cell.
func NewManager(store *Store) *Manager {
	return &Manager{store: store}
}

// State returns the current session state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Profile returns the held profile, or nil outside the authenticated state.
func (m *Manager) Profile() *domain.Profile {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.profile
}

// Restore derives the session from the stored credential on startup. Any
// profile-fetch failure here means "not logged in": the credential is
// cleared rather than retried, matching a stale token being worthless.
func (m *Manager) Restore(ctx context.Context, fetch ProfileFetcher) Event {
	if m.store.Token() == "" {
		m.mu.Lock()
		m.state = StateUnauthenticated
		m.mu.Unlock()
		return EventShowLogin
	}

	m.mu.Lock()
	m.state = StateAuthenticating
	m.mu.Unlock()

	profile, err := fetch.Profile(ctx)
	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.store.Clear() //nolint:errcheck // already ending unauthenticated
		m.state = StateUnauthenticated
		m.profile = nil
		return EventShowLogin
	}
	m.state = StateAuthenticated
	m.profile = profile
	return EventShowWorkspace
}

// Login stores the credential, adopts the profile, and enters the
// authenticated state.
func (m *Manager) Login(token string, profile *domain.Profile) (Event, error) {
	if err := m.store.Set(token); err != nil {
		return EventNone, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = StateAuthenticated
	m.profile = profile
	return EventShowWorkspace, nil
}

// Logout clears credential and profile on user request.
func (m *Manager) Logout() Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store.Clear() //nolint:errcheck // token file removal is best-effort
	m.state = StateUnauthenticated
	m.profile = nil
	return EventShowLogin
}

// HandleUnauthorized performs the forced teardown after a rejected request.
// It is idempotent within an invalidation episode: once the session is no
// longer held, concurrent rejections are no-ops so only one navigation and
// one storage write occur.
func (m *Manager) HandleUnauthorized() Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateUnauthenticated || m.state == StateInvalidated {
		return EventNone
	}
	m.store.Clear() //nolint:errcheck // token is already rejected server-side
	m.state = StateInvalidated
	m.profile = nil
	return EventShowLogin
}

// SetProfile replaces the held profile without touching the credential.
// Used after profile edits.
func (m *Manager) SetProfile(profile *domain.Profile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profile = profile
}
