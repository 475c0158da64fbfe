package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/aviralrabbit1/nextNotes/internal/server/config"
	"github.com/aviralrabbit1/nextNotes/internal/server/repository"
	"github.com/aviralrabbit1/nextNotes/internal/shared/models"
	"github.com/aviralrabbit1/nextNotes/internal/shared/passhash"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrEmailTaken         = errors.New("email already registered")
)

const maxTitleLength = 255

// ValidationError lists the rejected fields.
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		names = append(names, k)
	}
	return "invalid input: " + strings.Join(names, ", ")
}

func (e *ValidationError) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = map[string][]string{}
	}
	e.Fields[field] = append(e.Fields[field], msg)
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

type Repository interface {
	CreateUser(ctx context.Context, displayName, email, passwordHash string) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, string, error)
	GetUser(ctx context.Context, id string) (models.User, error)

	CreateNote(ctx context.Context, ownerID string, in models.NoteInput) (models.Note, error)
	ListNotes(ctx context.Context, ownerID string) ([]models.Note, error)
	GetNote(ctx context.Context, ownerID, id string) (models.Note, error)
	UpdateNote(ctx context.Context, ownerID, id string, in models.NoteInput) (models.Note, error)
	DeleteNote(ctx context.Context, ownerID, id string) error

	CreateRefreshToken(ctx context.Context, userID, token string, expiresAt time.Time) error
	ConsumeRefreshToken(ctx context.Context, token string) (userID string, expiresAt time.Time, err error)
	DeleteRefreshToken(ctx context.Context, token string) error
}

type Services struct {
	Auth  *AuthService
	Notes *NotesService
}

type Option func(*AuthService)

// WithHashParams overrides the Argon2id cost, mostly to keep tests fast.
func WithHashParams(p passhash.Params) Option {
	return func(a *AuthService) { a.hash = p }
}

// WithClock overrides the time source used for token lifetimes.
func WithClock(now func() time.Time) Option {
	return func(a *AuthService) { a.now = now }
}

func NewServices(repo Repository, cfg config.Config, opts ...Option) *Services {
	auth := &AuthService{
		repo:       repo,
		jwtSecret:  []byte(cfg.JWTSecret),
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		hash:       passhash.DefaultParams,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(auth)
	}
	return &Services{Auth: auth, Notes: &NotesService{repo: repo}}
}

// AuthService implements registration, password verification, JWT access
// tokens and rotating refresh tokens.
type AuthService struct {
	repo       Repository
	jwtSecret  []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	hash       passhash.Params
	now        func() time.Time
}

func (a *AuthService) Register(ctx context.Context, reg models.Registration) (models.AuthResponse, error) {
	verr := &ValidationError{}
	reg.Email = strings.TrimSpace(reg.Email)
	if reg.Email == "" {
		verr.add("email", "required")
	} else if _, err := mail.ParseAddress(reg.Email); err != nil {
		verr.add("email", "invalid email address")
	}
	if reg.Password == "" {
		verr.add("password", "required")
	}
	if err := verr.orNil(); err != nil {
		return models.AuthResponse{}, err
	}
	if strings.TrimSpace(reg.DisplayName) == "" {
		reg.DisplayName = strings.SplitN(reg.Email, "@", 2)[0]
	}
	phc, err := passhash.Hash(reg.Password, a.hash)
	if err != nil {
		return models.AuthResponse{}, err
	}
	user, err := a.repo.CreateUser(ctx, reg.DisplayName, reg.Email, phc)
	if errors.Is(err, repository.ErrConflict) {
		return models.AuthResponse{}, ErrEmailTaken
	}
	if err != nil {
		return models.AuthResponse{}, err
	}
	return a.issuePair(ctx, user)
}

func (a *AuthService) Login(ctx context.Context, creds models.Credentials) (models.AuthResponse, error) {
	user, hash, err := a.repo.GetUserByEmail(ctx, strings.TrimSpace(creds.Email))
	if errors.Is(err, repository.ErrNotFound) {
		return models.AuthResponse{}, ErrInvalidCredentials
	}
	if err != nil {
		return models.AuthResponse{}, err
	}
	ok, err := passhash.Verify(hash, creds.Password)
	if err != nil || !ok {
		return models.AuthResponse{}, ErrInvalidCredentials
	}
	return a.issuePair(ctx, user)
}

func (a *AuthService) issuePair(ctx context.Context, user models.User) (models.AuthResponse, error) {
	access, err := a.IssueAccessToken(user.ID)
	if err != nil {
		return models.AuthResponse{}, err
	}
	refresh, err := a.IssueRefreshToken(ctx, user.ID)
	if err != nil {
		return models.AuthResponse{}, err
	}
	return models.AuthResponse{Access: access, Refresh: refresh, User: &user}, nil
}

func (a *AuthService) IssueAccessToken(userID string) (string, error) {
	now := a.now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(a.accessTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.jwtSecret)
}

// ParseToken validates an access token and returns its subject.
func (a *AuthService) ParseToken(_ context.Context, token string) (string, error) {
	var claims jwt.RegisteredClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return a.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(a.now), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

func (a *AuthService) IssueRefreshToken(ctx context.Context, userID string) (string, error) {
	token := uuid.NewString()
	if err := a.repo.CreateRefreshToken(ctx, userID, token, a.now().Add(a.refreshTTL)); err != nil {
		return "", fmt.Errorf("store refresh token: %w", err)
	}
	return token, nil
}

// Refresh exchanges a refresh token for a new access token and rotates the
// refresh token. The old one is consumed atomically, so of two concurrent
// refreshes with the same token only one succeeds.
func (a *AuthService) Refresh(ctx context.Context, refresh string) (models.RefreshResponse, error) {
	if refresh == "" {
		return models.RefreshResponse{}, ErrInvalidToken
	}
	userID, exp, err := a.repo.ConsumeRefreshToken(ctx, refresh)
	if errors.Is(err, repository.ErrNotFound) {
		return models.RefreshResponse{}, ErrInvalidToken
	}
	if err != nil {
		return models.RefreshResponse{}, err
	}
	if !a.now().Before(exp) {
		return models.RefreshResponse{}, ErrInvalidToken
	}
	access, err := a.IssueAccessToken(userID)
	if err != nil {
		return models.RefreshResponse{}, err
	}
	next, err := a.IssueRefreshToken(ctx, userID)
	if err != nil {
		return models.RefreshResponse{}, err
	}
	return models.RefreshResponse{Access: access, Refresh: next}, nil
}

// Logout revokes the refresh token. Unknown tokens are not an error.
func (a *AuthService) Logout(ctx context.Context, refresh string) error {
	if refresh == "" {
		return nil
	}
	return a.repo.DeleteRefreshToken(ctx, refresh)
}

type NotesService struct {
	repo Repository
}

func validateNote(in models.NoteInput) (models.NoteInput, error) {
	verr := &ValidationError{}
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		verr.add("title", "required")
	} else if len(in.Title) > maxTitleLength {
		verr.add("title", fmt.Sprintf("must be at most %d characters", maxTitleLength))
	}
	return in, verr.orNil()
}

func (s *NotesService) List(ctx context.Context, ownerID string) ([]models.Note, error) {
	return s.repo.ListNotes(ctx, ownerID)
}

func (s *NotesService) Get(ctx context.Context, ownerID, id string) (models.Note, error) {
	return s.repo.GetNote(ctx, ownerID, id)
}

func (s *NotesService) Create(ctx context.Context, ownerID string, in models.NoteInput) (models.Note, error) {
	in, err := validateNote(in)
	if err != nil {
		return models.Note{}, err
	}
	return s.repo.CreateNote(ctx, ownerID, in)
}

func (s *NotesService) Update(ctx context.Context, ownerID, id string, in models.NoteInput) (models.Note, error) {
	in, err := validateNote(in)
	if err != nil {
		return models.Note{}, err
	}
	return s.repo.UpdateNote(ctx, ownerID, id, in)
}

func (s *NotesService) Delete(ctx context.Context, ownerID, id string) error {
	return s.repo.DeleteNote(ctx, ownerID, id)
}
