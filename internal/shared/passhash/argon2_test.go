package passhash

import (
	"testing"

	"github.com/stretchr/testify/require"
)

var fastParams = Params{Memory: 8 * 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

func TestHashAndVerify(t *testing.T) {
	h, err := Hash("password123", fastParams)
	require.NoError(t, err)
	require.Contains(t, h, "$argon2id$")

	ok, err := Verify(h, "password123")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = Verify(h, "wrong")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestHash_Salted(t *testing.T) {
	a, err := Hash("same", fastParams)
	require.NoError(t, err)
	b, err := Hash("same", fastParams)
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestVerify_Errors(t *testing.T) {
	_, err := Verify("", "x")
	require.ErrorIs(t, err, ErrInvalidHash)

	_, err = Verify("$argon2id$bad", "x")
	require.ErrorIs(t, err, ErrInvalidHash)

	_, err = Verify("$argon2id$v=1$m=1,t=1,p=1$c2FsdA$a2V5", "x")
	require.ErrorIs(t, err, ErrIncompatibleVersion)
}
