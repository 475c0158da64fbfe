package cryptohelper_test

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"

	cryptohelper "github.com/aviralrabbit1/nextNotes/internal/shared/crypto"
)

func newKey(t *testing.T) []byte {
	t.Helper()
	key := make([]byte, cryptohelper.KeySize)
	_, err := rand.Read(key)
	require.NoError(t, err)
	return key
}

func TestSealOpen(t *testing.T) {
	key := newKey(t)
	plain := []byte(`{"access":"a"}`)

	sealed, err := cryptohelper.Seal(key, plain, []byte("session.json"))
	require.NoError(t, err)
	require.NotEqual(t, plain, sealed)

	got, err := cryptohelper.Open(key, sealed, []byte("session.json"))
	require.NoError(t, err)
	require.Equal(t, plain, got)
}

func TestOpen_Mismatch(t *testing.T) {
	key := newKey(t)
	sealed, err := cryptohelper.Seal(key, []byte("x"), []byte("a"))
	require.NoError(t, err)

	_, err = cryptohelper.Open(key, sealed, []byte("b"))
	require.Error(t, err, "wrong aad")

	_, err = cryptohelper.Open(newKey(t), sealed, []byte("a"))
	require.Error(t, err, "wrong key")
}

func TestInvalidInput(t *testing.T) {
	_, err := cryptohelper.Seal(make([]byte, 15), []byte("x"), nil)
	require.ErrorIs(t, err, cryptohelper.ErrInvalidKey)

	_, err = cryptohelper.Open(newKey(t), []byte("short"), nil)
	require.ErrorIs(t, err, cryptohelper.ErrCiphertextTooShort)
}
