package session_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessionkit/pkg/session"
)

func TestBlake2bHasher(t *testing.T) {
	t.Parallel()

	plain, err := session.NewBlake2bHasher(nil)
	require.NoError(t, err)
	peppered, err := session.NewBlake2bHasher([]byte("pepper"))
	require.NoError(t, err)

	a, err := plain.Hash("token")
	require.NoError(t, err)
	b, err := plain.Hash("token")
	require.NoError(t, err)
	c, err := peppered.Hash("token")
	require.NoError(t, err)
	d, err := plain.Hash("other")
	require.NoError(t, err)

	assert.Equal(t, a, b, "deterministic")
	assert.NotEqual(t, a, c, "pepper changes the key")
	assert.NotEqual(t, a, d)
	assert.Len(t, a, 64)
	assert.NotContains(t, a, "token")

	_, err = session.NewBlake2bHasher([]byte(strings.Repeat("x", 65)))
	assert.ErrorIs(t, err, session.ErrInvalidPepper)
}

func TestWithHasher(t *testing.T) {
	t.Parallel()

	calls := 0
	h := session.HasherFunc(func(token string) (string, error) {
		calls++
		return "h:" + token, nil
	})

	m := session.New(failingStore{}, session.WithHasher(h))
	_, _, err := m.Create(t.Context(), "user-1", session.Metadata{})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}
