package state

import (
	"context"
	"slices"
	"sync"

	"github.com/go-logr/logr"

	"github.com/aviralrabbit1/nextNotes/internal/shared/models"
)

type AuthService interface {
	Login(ctx context.Context, creds models.Credentials) (models.AuthResponse, error)
	Register(ctx context.Context, reg models.Registration) (models.AuthResponse, error)
	Logout(ctx context.Context, refresh string) error
}

type NotesService interface {
	List(ctx context.Context) ([]models.Note, error)
	Get(ctx context.Context, id string) (models.Note, error)
	Create(ctx context.Context, in models.NoteInput) (models.Note, error)
	Update(ctx context.Context, id string, in models.NoteInput) (models.Note, error)
	Delete(ctx context.Context, id string) error
}

// TokenStore is the part of the session the auth actions write.
type TokenStore interface {
	SetTokens(access, refresh string) error
	SetUser(u *models.User) error
	RefreshToken() string
	User() *models.User
	IsAuthenticated() bool
	Clear() error
}

// State is a snapshot of both slices.
type State struct {
	Auth  AuthState
	Notes NotesState
}

type Store struct {
	mu      sync.Mutex
	state   State
	subs    map[int]func(State)
	nextSub int

	auth   AuthService
	notes  NotesService
	tokens TokenStore
	log    logr.Logger
}

type StoreOption func(*Store)

func WithLogger(l logr.Logger) StoreOption {
	return func(s *Store) { s.log = l }
}

// NewStore builds a store whose auth slice is hydrated from tokens.
func NewStore(auth AuthService, notes NotesService, tokens TokenStore, opts ...StoreOption) *Store {
	s := &Store{
		state:  State{Auth: InitialAuthState(), Notes: InitialNotesState()},
		subs:   map[int]func(State){},
		auth:   auth,
		notes:  notes,
		tokens: tokens,
		log:    logr.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.CheckAuth()
	return s
}

// State returns a snapshot that is safe to keep and read.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *Store) snapshot() State {
	st := s.state
	st.Notes.Items = slices.Clone(st.Notes.Items)
	return st
}

// Subscribe registers fn to be called with a snapshot after every dispatch.
// The returned func unregisters it.
func (s *Store) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// Dispatch applies a to both reducers and notifies subscribers outside the
// lock.
func (s *Store) Dispatch(a Action) {
	s.mu.Lock()
	s.state.Auth = ReduceAuth(s.state.Auth, a)
	s.state.Notes = ReduceNotes(s.state.Notes, a)
	snap := s.snapshot()
	subs := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	s.log.V(2).Info("dispatched", "type", string(a.Type), "phase", int(a.Phase))
	for _, fn := range subs {
		fn(snap)
	}
}

// CheckAuth rehydrates the auth slice from the token store.
func (s *Store) CheckAuth() {
	s.Dispatch(Action{Type: AuthCheck, Payload: CheckPayload{
		User:          s.tokens.User(),
		Authenticated: s.tokens.IsAuthenticated(),
	}})
}

// SessionExpired is wired to the HTTP client's auth failure hook.
func (s *Store) SessionExpired() {
	s.Dispatch(Action{Type: AuthSessionExpired})
	s.Dispatch(Action{Type: NotesReset})
}

func (s *Store) ClearAuthError()  { s.Dispatch(Action{Type: AuthClearError}) }
func (s *Store) ClearNotesError() { s.Dispatch(Action{Type: NotesClearError}) }

func (s *Store) Login(ctx context.Context, creds models.Credentials) error {
	s.Dispatch(pending(AuthLogin))
	res, err := s.auth.Login(ctx, creds)
	if err != nil {
		s.Dispatch(rejected(AuthLogin, NormalizeError(err, "Login failed")))
		return err
	}
	s.persist(res)
	s.Dispatch(fulfilled(AuthLogin, res.User))
	return nil
}

func (s *Store) Register(ctx context.Context, reg models.Registration) error {
	s.Dispatch(pending(AuthRegister))
	res, err := s.auth.Register(ctx, reg)
	if err != nil {
		s.Dispatch(rejected(AuthRegister, NormalizeError(err, "Registration failed")))
		return err
	}
	s.persist(res)
	s.Dispatch(fulfilled(AuthRegister, res.User))
	return nil
}

// persist stores the issued tokens. A failed write is logged only: the
// in-memory session already holds the tokens for this process.
func (s *Store) persist(res models.AuthResponse) {
	if err := s.tokens.SetTokens(res.Access, res.Refresh); err != nil {
		s.log.Error(err, "persisting tokens failed")
	}
	if err := s.tokens.SetUser(res.User); err != nil {
		s.log.Error(err, "persisting user failed")
	}
}

// Logout clears the cached user immediately, asks the backend to revoke the
// refresh token and clears the session whatever the outcome.
func (s *Store) Logout(ctx context.Context) error {
	refresh := s.tokens.RefreshToken()
	s.Dispatch(pending(AuthLogout))
	s.Dispatch(Action{Type: NotesReset})

	var err error
	if refresh != "" {
		err = s.auth.Logout(ctx, refresh)
	}
	if cerr := s.tokens.Clear(); cerr != nil {
		s.log.Error(cerr, "clearing session failed")
	}
	if err != nil {
		s.log.Info("backend logout failed, session cleared locally", "error", err.Error())
		s.Dispatch(rejected(AuthLogout, NormalizeError(err, "Logout failed")))
		return err
	}
	s.Dispatch(fulfilled(AuthLogout, nil))
	return nil
}

func (s *Store) FetchNotes(ctx context.Context) error {
	s.Dispatch(pending(NotesFetch))
	list, err := s.notes.List(ctx)
	if err != nil {
		s.Dispatch(rejected(NotesFetch, NormalizeError(err, "Failed to fetch notes")))
		return err
	}
	s.Dispatch(fulfilled(NotesFetch, list))
	return nil
}

func (s *Store) FetchNote(ctx context.Context, id string) (models.Note, error) {
	s.Dispatch(pending(NotesFetchOne))
	n, err := s.notes.Get(ctx, id)
	if err != nil {
		s.Dispatch(rejected(NotesFetchOne, NormalizeError(err, "Failed to fetch note")))
		return models.Note{}, err
	}
	s.Dispatch(fulfilled(NotesFetchOne, n))
	return n, nil
}

func (s *Store) CreateNote(ctx context.Context, in models.NoteInput) (models.Note, error) {
	s.Dispatch(pending(NotesCreate))
	n, err := s.notes.Create(ctx, in)
	if err != nil {
		s.Dispatch(rejected(NotesCreate, NormalizeError(err, "Failed to create note")))
		return models.Note{}, err
	}
	s.Dispatch(fulfilled(NotesCreate, n))
	return n, nil
}

func (s *Store) UpdateNote(ctx context.Context, id string, in models.NoteInput) (models.Note, error) {
	s.Dispatch(pending(NotesUpdate))
	n, err := s.notes.Update(ctx, id, in)
	if err != nil {
		s.Dispatch(rejected(NotesUpdate, NormalizeError(err, "Failed to update note")))
		return models.Note{}, err
	}
	s.Dispatch(fulfilled(NotesUpdate, n))
	return n, nil
}

func (s *Store) DeleteNote(ctx context.Context, id string) error {
	s.Dispatch(pending(NotesDelete))
	if err := s.notes.Delete(ctx, id); err != nil {
		s.Dispatch(rejected(NotesDelete, NormalizeError(err, "Failed to delete note")))
		return err
	}
	s.Dispatch(fulfilled(NotesDelete, id))
	return nil
}
