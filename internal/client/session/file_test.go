package session

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aviralrabbit1/nextNotes/internal/client/vault"
	"github.com/aviralrabbit1/nextNotes/internal/shared/models"
)

func TestFileBackend_PlainPersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", FileName)

	s, err := New(NewFileBackend(path, nil))
	require.NoError(t, err)
	require.NoError(t, s.SetTokens("acc", "ref"))
	require.NoError(t, s.SetUser(&models.User{ID: "u1", Email: "a@b.com"}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"acc"`)

	reopened, err := New(NewFileBackend(path, nil))
	require.NoError(t, err)
	assert.Equal(t, "acc", reopened.AccessToken())
	assert.Equal(t, "ref", reopened.RefreshToken())
	assert.Equal(t, "a@b.com", reopened.User().Email)
}

func TestFileBackend_Sealed(t *testing.T) {
	dir := t.TempDir()
	key, err := vault.Generate(dir)
	require.NoError(t, err)
	path := filepath.Join(dir, FileName)

	s, err := New(NewFileBackend(path, key))
	require.NoError(t, err)
	require.NoError(t, s.SetTokens("secret-access", "secret-refresh"))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.False(t, strings.Contains(string(raw), "secret-access"))

	reopened, err := New(NewFileBackend(path, key))
	require.NoError(t, err)
	assert.Equal(t, "secret-access", reopened.AccessToken())

	other := make([]byte, len(key))
	_, err = New(NewFileBackend(path, other))
	require.Error(t, err)
}

func TestFileBackend_MissingAndRemove(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	b := NewFileBackend(path, nil)

	snap, err := b.Load()
	require.NoError(t, err)
	assert.Equal(t, Snapshot{}, snap)
	require.NoError(t, b.Remove())

	s, err := New(b)
	require.NoError(t, err)
	require.NoError(t, s.SetTokens("a", "r"))
	require.NoError(t, s.Clear())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
