package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/aviralrabbit1/nextNotes/internal/server/repository"
	"github.com/aviralrabbit1/nextNotes/internal/shared/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	display_name TEXT NOT NULL,
	email TEXT UNIQUE NOT NULL,
	password_hash TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS notes (
	id TEXT PRIMARY KEY,
	owner_id TEXT NOT NULL,
	title TEXT NOT NULL,
	content TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL,
	FOREIGN KEY(owner_id) REFERENCES users(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_notes_owner ON notes(owner_id, updated_at);
CREATE TABLE IF NOT EXISTS refresh_tokens (
	token TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	expires_at TIMESTAMP NOT NULL,
	created_at TIMESTAMP NOT NULL,
	FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE
);
`

type Repository struct {
	db  *sql.DB
	now func() time.Time
}

func New(dsn string) (*Repository, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A single connection keeps per-connection pragmas in effect and
	// serializes writers.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Repository{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

func (r *Repository) Close() error { return r.db.Close() }

func (r *Repository) Ping(ctx context.Context) error { return r.db.PingContext(ctx) }

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Users

func (r *Repository) CreateUser(ctx context.Context, displayName, email, passwordHash string) (models.User, error) {
	u := models.User{ID: uuid.NewString(), DisplayName: displayName, Email: email}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users(id, display_name, email, password_hash, created_at) VALUES(?,?,?,?,?)`,
		u.ID, u.DisplayName, u.Email, passwordHash, r.now())
	if isUniqueViolation(err) {
		return models.User{}, repository.ErrConflict
	}
	if err != nil {
		return models.User{}, err
	}
	return u, nil
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (models.User, string, error) {
	var u models.User
	var hash string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, display_name, email, password_hash FROM users WHERE email = ?`, email,
	).Scan(&u.ID, &u.DisplayName, &u.Email, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, "", repository.ErrNotFound
	}
	return u, hash, err
}

func (r *Repository) GetUser(ctx context.Context, id string) (models.User, error) {
	var u models.User
	err := r.db.QueryRowContext(ctx,
		`SELECT id, display_name, email FROM users WHERE id = ?`, id,
	).Scan(&u.ID, &u.DisplayName, &u.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, repository.ErrNotFound
	}
	return u, err
}

// Notes

const noteColumns = `id, title, content, created_at, updated_at`

func scanNote(row interface{ Scan(...any) error }) (models.Note, error) {
	var n models.Note
	if err := row.Scan(&n.ID, &n.Title, &n.Content, &n.CreatedAt, &n.UpdatedAt); err != nil {
		return models.Note{}, err
	}
	n.CreatedAt = n.CreatedAt.UTC()
	n.UpdatedAt = n.UpdatedAt.UTC()
	return n, nil
}

func (r *Repository) CreateNote(ctx context.Context, ownerID string, in models.NoteInput) (models.Note, error) {
	now := r.now()
	n := models.Note{ID: uuid.NewString(), Title: in.Title, Content: in.Content, CreatedAt: now, UpdatedAt: now}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO notes(id, owner_id, title, content, created_at, updated_at) VALUES(?,?,?,?,?,?)`,
		n.ID, ownerID, n.Title, n.Content, n.CreatedAt, n.UpdatedAt)
	if err != nil {
		return models.Note{}, err
	}
	return n, nil
}

// ListNotes returns the owner's notes, most recently updated first.
func (r *Repository) ListNotes(ctx context.Context, ownerID string) ([]models.Note, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE owner_id = ? ORDER BY updated_at DESC, rowid DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []models.Note{}
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *Repository) GetNote(ctx context.Context, ownerID, id string) (models.Note, error) {
	n, err := scanNote(r.db.QueryRowContext(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE owner_id = ? AND id = ?`, ownerID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Note{}, repository.ErrNotFound
	}
	return n, err
}

func (r *Repository) UpdateNote(ctx context.Context, ownerID, id string, in models.NoteInput) (models.Note, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notes SET title = ?, content = ?, updated_at = ? WHERE owner_id = ? AND id = ?`,
		in.Title, in.Content, r.now(), ownerID, id)
	if err != nil {
		return models.Note{}, err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return models.Note{}, repository.ErrNotFound
	}
	return r.GetNote(ctx, ownerID, id)
}

func (r *Repository) DeleteNote(ctx context.Context, ownerID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM notes WHERE owner_id = ? AND id = ?`, ownerID, id)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Refresh tokens

func (r *Repository) CreateRefreshToken(ctx context.Context, userID, token string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO refresh_tokens(token, user_id, expires_at, created_at) VALUES(?,?,?,?)`,
		token, userID, expiresAt.UTC(), r.now())
	return err
}

func (r *Repository) GetRefreshToken(ctx context.Context, token string) (string, time.Time, error) {
	var userID string
	var expiresAt time.Time
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, expires_at FROM refresh_tokens WHERE token = ?`, token,
	).Scan(&userID, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", time.Time{}, repository.ErrNotFound
	}
	return userID, expiresAt, err
}

// ConsumeRefreshToken looks up and deletes token in one transaction. Only one
// of several concurrent callers gets the row; the others see ErrNotFound.
func (r *Repository) ConsumeRefreshToken(ctx context.Context, token string) (string, time.Time, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", time.Time{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var userID string
	var expiresAt time.Time
	err = tx.QueryRowContext(ctx,
		`SELECT user_id, expires_at FROM refresh_tokens WHERE token = ?`, token,
	).Scan(&userID, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", time.Time{}, repository.ErrNotFound
	}
	if err != nil {
		return "", time.Time{}, err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE token = ?`, token)
	if err != nil {
		return "", time.Time{}, err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return "", time.Time{}, repository.ErrNotFound
	}
	if err := tx.Commit(); err != nil {
		return "", time.Time{}, err
	}
	return userID, expiresAt, nil
}

func (r *Repository) DeleteRefreshToken(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE token = ?`, token)
	return err
}
