package session

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursetide/coursetide/pkg/domain"
)

type fakeFetcher struct {
	profile *domain.Profile
	err     error
}

func (f *fakeFetcher) Profile(context.Context) (*domain.Profile, error) {
	return f.profile, f.err
}

func testProfile() *domain.Profile {
	return &domain.Profile{ID: "u1", Username: "alice", Email: "a@example.com"}
}

func TestRestoreNoToken(t *testing.T) {
	m := NewManager(newTestStore(t))

	ev := m.Restore(context.Background(), &fakeFetcher{})
	assert.Equal(t, EventShowLogin, ev)
	assert.Equal(t, StateUnauthenticated, m.State())
	assert.Nil(t, m.Profile())
}

func TestRestoreSuccess(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Set("tok"))
	m := NewManager(store)

	ev := m.Restore(context.Background(), &fakeFetcher{profile: testProfile()})
	assert.Equal(t, EventShowWorkspace, ev)
	assert.Equal(t, StateAuthenticated, m.State())
	require.NotNil(t, m.Profile())
	assert.Equal(t, "alice", m.Profile().Username)
}

func TestRestoreFetchFailureClearsToken(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Set("stale"))
	m := NewManager(store)

	ev := m.Restore(context.Background(), &fakeFetcher{err: errors.New("boom")})
	assert.Equal(t, EventShowLogin, ev)
	assert.Equal(t, StateUnauthenticated, m.State())
	assert.Empty(t, store.Token(), "restore failure must clear the stored credential")
}

func TestLoginThenLogout(t *testing.T) {
	store := newTestStore(t)
	m := NewManager(store)

	ev, err := m.Login("tok-1", testProfile())
	require.NoError(t, err)
	assert.Equal(t, EventShowWorkspace, ev)
	assert.Equal(t, StateAuthenticated, m.State())
	assert.Equal(t, "tok-1", store.Token())

	ev = m.Logout()
	assert.Equal(t, EventShowLogin, ev)
	assert.Equal(t, StateUnauthenticated, m.State())
	assert.Nil(t, m.Profile())
	assert.Empty(t, store.Token())
}

func TestHandleUnauthorizedIdempotent(t *testing.T) {
	store := newTestStore(t)
	m := NewManager(store)
	_, err := m.Login("tok-1", testProfile())
	require.NoError(t, err)

	ev := m.HandleUnauthorized()
	assert.Equal(t, EventShowLogin, ev, "first rejection performs the transition")
	assert.Equal(t, StateInvalidated, m.State())
	assert.Nil(t, m.Profile())
	assert.Empty(t, store.Token())

	ev = m.HandleUnauthorized()
	assert.Equal(t, EventNone, ev, "second rejection in the same episode is a no-op")
	assert.Equal(t, StateInvalidated, m.State())
}

func TestHandleUnauthorizedWhileLoggedOut(t *testing.T) {
	m := NewManager(newTestStore(t))
	assert.Equal(t, EventNone, m.HandleUnauthorized())
	assert.Equal(t, StateUnauthenticated, m.State())
}

// Two requests in flight both come back 401; exactly one navigation event
// must be produced and the store must end empty.
func TestConcurrentUnauthorized(t *testing.T) {
	store := newTestStore(t)
	m := NewManager(store)
	_, err := m.Login("tok-1", testProfile())
	require.NoError(t, err)

	const n = 2
	events := make([]Event, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			events[i] = m.HandleUnauthorized()
		}(i)
	}
	wg.Wait()

	navigations := 0
	for _, ev := range events {
		if ev == EventShowLogin {
			navigations++
		}
	}
	assert.Equal(t, 1, navigations, "exactly one navigation to the public view")
	assert.Empty(t, store.Token())
	assert.Equal(t, StateInvalidated, m.State())
}

func TestSetProfileKeepsCredential(t *testing.T) {
	store := newTestStore(t)
	m := NewManager(store)
	_, err := m.Login("tok-1", testProfile())
	require.NoError(t, err)

	m.SetProfile(&domain.Profile{ID: "u1", Username: "alice-renamed", Email: "a@example.com"})
	assert.Equal(t, "alice-renamed", m.Profile().Username)
	assert.Equal(t, "tok-1", store.Token())
	assert.Equal(t, StateAuthenticated, m.State())
}
