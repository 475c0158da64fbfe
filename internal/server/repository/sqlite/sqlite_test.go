package sqlite

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aviralrabbit1/nextNotes/internal/server/repository"
	"github.com/aviralrabbit1/nextNotes/internal/shared/models"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := New(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

// steppingClock advances by one second on every call so ordering by
// updated_at is deterministic.
func steppingClock(start time.Time) func() time.Time {
	cur := start
	return func() time.Time {
		cur = cur.Add(time.Second)
		return cur
	}
}

func TestUsers(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	u, err := repo.CreateUser(ctx, "Ann", "ann@example.com", "hash")
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)

	_, err = repo.CreateUser(ctx, "Other", "ann@example.com", "hash2")
	assert.ErrorIs(t, err, repository.ErrConflict)

	got, hash, err := repo.GetUserByEmail(ctx, "ann@example.com")
	require.NoError(t, err)
	assert.Equal(t, u, got)
	assert.Equal(t, "hash", hash)

	byID, err := repo.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ann", byID.DisplayName)

	_, _, err = repo.GetUserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = repo.GetUser(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestNotesCRUD(t *testing.T) {
	repo := newTestRepo(t)
	repo.now = steppingClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	ctx := context.Background()

	u, err := repo.CreateUser(ctx, "Ann", "ann@example.com", "hash")
	require.NoError(t, err)

	first, err := repo.CreateNote(ctx, u.ID, models.NoteInput{Title: "first", Content: "a"})
	require.NoError(t, err)
	second, err := repo.CreateNote(ctx, u.ID, models.NoteInput{Title: "second", Content: "b"})
	require.NoError(t, err)
	assert.Equal(t, first.CreatedAt, first.UpdatedAt)

	list, err := repo.ListNotes(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)

	updated, err := repo.UpdateNote(ctx, u.ID, first.ID, models.NoteInput{Title: "first v2", Content: "a2"})
	require.NoError(t, err)
	assert.Equal(t, "first v2", updated.Title)
	assert.Equal(t, first.CreatedAt, updated.CreatedAt)
	assert.True(t, updated.UpdatedAt.After(first.UpdatedAt))

	list, err = repo.ListNotes(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, list[0].ID)

	got, err := repo.GetNote(ctx, u.ID, second.ID)
	require.NoError(t, err)
	assert.Equal(t, second, got)

	require.NoError(t, repo.DeleteNote(ctx, u.ID, second.ID))
	assert.ErrorIs(t, repo.DeleteNote(ctx, u.ID, second.ID), repository.ErrNotFound)
	_, err = repo.GetNote(ctx, u.ID, second.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestNotesAreScopedToOwner(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	ann, err := repo.CreateUser(ctx, "Ann", "ann@example.com", "h")
	require.NoError(t, err)
	bob, err := repo.CreateUser(ctx, "Bob", "bob@example.com", "h")
	require.NoError(t, err)

	n, err := repo.CreateNote(ctx, ann.ID, models.NoteInput{Title: "mine"})
	require.NoError(t, err)

	list, err := repo.ListNotes(ctx, bob.ID)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)

	_, err = repo.GetNote(ctx, bob.ID, n.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = repo.UpdateNote(ctx, bob.ID, n.ID, models.NoteInput{Title: "stolen"})
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.ErrorIs(t, repo.DeleteNote(ctx, bob.ID, n.ID), repository.ErrNotFound)
}

func TestRefreshTokens(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	u, err := repo.CreateUser(ctx, "Ann", "ann@example.com", "h")
	require.NoError(t, err)

	exp := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	require.NoError(t, repo.CreateRefreshToken(ctx, u.ID, "tok", exp))

	userID, gotExp, err := repo.GetRefreshToken(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, u.ID, userID)
	assert.True(t, exp.Equal(gotExp))

	require.NoError(t, repo.DeleteRefreshToken(ctx, "tok"))
	_, _, err = repo.GetRefreshToken(ctx, "tok")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.NoError(t, repo.DeleteRefreshToken(ctx, "tok"))
}

func TestConsumeRefreshToken(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	u, err := repo.CreateUser(ctx, "Ann", "ann@example.com", "h")
	require.NoError(t, err)

	exp := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	require.NoError(t, repo.CreateRefreshToken(ctx, u.ID, "tok", exp))

	userID, gotExp, err := repo.ConsumeRefreshToken(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, u.ID, userID)
	assert.True(t, exp.Equal(gotExp))

	_, _, err = repo.ConsumeRefreshToken(ctx, "tok")
	assert.ErrorIs(t, err, repository.ErrNotFound, "second use")
	_, _, err = repo.GetRefreshToken(ctx, "tok")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, _, err = repo.ConsumeRefreshToken(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestPing(t *testing.T) {
	repo := newTestRepo(t)
	assert.NoError(t, repo.Ping(context.Background()))
}
