// Package session holds the client's access token, refresh token and cached
// user. A Session is passed explicitly to the HTTP layer; there is no global
// token state.
package session

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/go-logr/logr"

	"github.com/aviralrabbit1/nextNotes/internal/shared/models"
)

const (
	DefaultAccessTTL  = 24 * time.Hour
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

// Entry is one persisted value with its own expiry. A zero ExpiresAt never
// expires.
type Entry struct {
	Value     string    `json:"value"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

func (e Entry) live(now time.Time) bool {
	return e.Value != "" && (e.ExpiresAt.IsZero() || now.Before(e.ExpiresAt))
}

// Snapshot is the persisted form of a session. User holds the JSON encoded
// models.User.
type Snapshot struct {
	Access  Entry `json:"access"`
	Refresh Entry `json:"refresh"`
	User    Entry `json:"user"`
}

// Backend persists snapshots. Load returns a zero Snapshot when nothing has
// been stored yet.
type Backend interface {
	Load() (Snapshot, error)
	Save(Snapshot) error
	Remove() error
}

type Option func(*Session)

func WithAccessTTL(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.accessTTL = d
		}
	}
}

func WithRefreshTTL(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.refreshTTL = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

func WithLogger(l logr.Logger) Option {
	return func(s *Session) { s.log = l }
}

// Session is the token store. It is safe for concurrent use.
type Session struct {
	mu         sync.RWMutex
	backend    Backend
	snap       Snapshot
	now        func() time.Time
	accessTTL  time.Duration
	refreshTTL time.Duration
	log        logr.Logger
}

// New loads the session from backend, dropping expired entries.
func New(backend Backend, opts ...Option) (*Session, error) {
	s := &Session{
		backend:    backend,
		now:        time.Now,
		accessTTL:  DefaultAccessTTL,
		refreshTTL: DefaultRefreshTTL,
		log:        logr.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	snap, err := backend.Load()
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	s.snap = s.prune(snap)
	return s, nil
}

// NewMemory returns a session that is never written to disk.
func NewMemory(opts ...Option) *Session {
	s, _ := New(&MemoryBackend{}, opts...)
	return s
}

func (s *Session) prune(snap Snapshot) Snapshot {
	now := s.now()
	if !snap.Access.live(now) {
		snap.Access = Entry{}
	}
	if !snap.Refresh.live(now) {
		snap.Refresh = Entry{}
	}
	if !snap.User.live(now) {
		snap.User = Entry{}
	}
	return snap
}

// SetTokens stores both tokens with their independent lifetimes.
func (s *Session) SetTokens(access, refresh string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	next := s.snap
	next.Access = Entry{Value: access, ExpiresAt: now.Add(s.accessTTL)}
	next.Refresh = Entry{Value: refresh, ExpiresAt: now.Add(s.refreshTTL)}
	return s.commit(next)
}

// SetAccessToken replaces the access token and keeps the refresh token.
func (s *Session) SetAccessToken(access string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.snap
	next.Access = Entry{Value: access, ExpiresAt: s.now().Add(s.accessTTL)}
	return s.commit(next)
}

// SetUser caches the user summary. A nil user removes it.
func (s *Session) SetUser(u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.snap
	if u == nil {
		next.User = Entry{}
		return s.commit(next)
	}
	b, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	next.User = Entry{Value: string(b), ExpiresAt: s.now().Add(s.refreshTTL)}
	return s.commit(next)
}

func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.snap.Access.live(s.now()) {
		return ""
	}
	return s.snap.Access.Value
}

func (s *Session) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.snap.Refresh.live(s.now()) {
		return ""
	}
	return s.snap.Refresh.Value
}

// User returns a copy of the cached user, or nil.
func (s *Session) User() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.snap.User.live(s.now()) {
		return nil
	}
	var u models.User
	if err := json.Unmarshal([]byte(s.snap.User.Value), &u); err != nil {
		s.log.Error(err, "discarding unreadable cached user")
		return nil
	}
	return &u
}

// IsAuthenticated reports whether an unexpired access token is present.
func (s *Session) IsAuthenticated() bool {
	return s.AccessToken() != ""
}

// Clear drops all entries at once, in memory and in the backend.
func (s *Session) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = Snapshot{}
	if err := s.backend.Remove(); err != nil {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}

// commit must be called with mu held. Memory is updated even if the backend
// write fails so the running process keeps a consistent view.
func (s *Session) commit(next Snapshot) error {
	s.snap = next
	if err := s.backend.Save(next); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// MemoryBackend keeps the snapshot in process.
type MemoryBackend struct {
	mu   sync.Mutex
	snap Snapshot
}

func (m *MemoryBackend) Load() (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap, nil
}

func (m *MemoryBackend) Save(snap Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = snap
	return nil
}

func (m *MemoryBackend) Remove() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = Snapshot{}
	return nil
}
