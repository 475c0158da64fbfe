package session

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aviralrabbit1/nextNotes/internal/shared/models"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func TestSetTokensAndAuthenticated(t *testing.T) {
	s := NewMemory()
	assert.False(t, s.IsAuthenticated())
	assert.Empty(t, s.AccessToken())
	assert.Empty(t, s.RefreshToken())

	require.NoError(t, s.SetTokens("acc", "ref"))
	assert.True(t, s.IsAuthenticated())
	assert.Equal(t, "acc", s.AccessToken())
	assert.Equal(t, "ref", s.RefreshToken())

	require.NoError(t, s.SetAccessToken("acc2"))
	assert.Equal(t, "acc2", s.AccessToken())
	assert.Equal(t, "ref", s.RefreshToken())
}

func TestIndependentExpiry(t *testing.T) {
	clock := newClock()
	s := NewMemory(WithClock(clock.now), WithAccessTTL(time.Hour), WithRefreshTTL(48*time.Hour))
	require.NoError(t, s.SetTokens("acc", "ref"))
	require.NoError(t, s.SetUser(&models.User{ID: "u1", Email: "a@b.com"}))

	clock.advance(2 * time.Hour)
	assert.False(t, s.IsAuthenticated(), "access expired")
	assert.Equal(t, "ref", s.RefreshToken())
	require.NotNil(t, s.User())

	clock.advance(48 * time.Hour)
	assert.Empty(t, s.RefreshToken())
	assert.Nil(t, s.User())
}

func TestUserRoundTrip(t *testing.T) {
	s := NewMemory()
	assert.Nil(t, s.User())

	u := &models.User{ID: "u1", DisplayName: "Ada", Email: "a@b.com"}
	require.NoError(t, s.SetUser(u))
	got := s.User()
	require.NotNil(t, got)
	assert.Equal(t, *u, *got)

	got.DisplayName = "changed"
	assert.Equal(t, "Ada", s.User().DisplayName, "User returns a copy")

	require.NoError(t, s.SetUser(nil))
	assert.Nil(t, s.User())
}

func TestClearRemovesEverything(t *testing.T) {
	backend := &MemoryBackend{}
	s, err := New(backend)
	require.NoError(t, err)
	require.NoError(t, s.SetTokens("acc", "ref"))
	require.NoError(t, s.SetUser(&models.User{ID: "u1"}))

	require.NoError(t, s.Clear())
	assert.False(t, s.IsAuthenticated())
	assert.Empty(t, s.RefreshToken())
	assert.Nil(t, s.User())

	snap, err := backend.Load()
	require.NoError(t, err)
	assert.Equal(t, Snapshot{}, snap)
}

func TestNewPrunesExpiredEntries(t *testing.T) {
	clock := newClock()
	backend := &MemoryBackend{}
	require.NoError(t, backend.Save(Snapshot{
		Access:  Entry{Value: "old", ExpiresAt: clock.t.Add(-time.Minute)},
		Refresh: Entry{Value: "ref", ExpiresAt: clock.t.Add(time.Hour)},
	}))

	s, err := New(backend, WithClock(clock.now))
	require.NoError(t, err)
	assert.Empty(t, s.AccessToken())
	assert.Equal(t, "ref", s.RefreshToken())
}

type failingBackend struct{ MemoryBackend }

var errDisk = errors.New("disk full")

func (f *failingBackend) Save(Snapshot) error { return errDisk }

func TestSaveFailureKeepsMemoryState(t *testing.T) {
	s, err := New(&failingBackend{})
	require.NoError(t, err)

	err = s.SetTokens("acc", "ref")
	require.ErrorIs(t, err, errDisk)
	assert.Equal(t, "acc", s.AccessToken())
}
