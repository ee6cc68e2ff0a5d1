package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pterrors "github.com/papertrail-app/papertrail/internal/errors"
	"github.com/papertrail-app/papertrail/internal/store"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	assert.Contains(t, hash, "$argon2id$")

	assert.True(t, VerifyPassword("correct horse battery staple", hash))
	assert.False(t, VerifyPassword("wrong", hash))
}

func TestHashPasswordSalted(t *testing.T) {
	a, err := HashPassword("same password")
	require.NoError(t, err)
	b, err := HashPassword("same password")
	require.NoError(t, err)
	assert.NotEqual(t, a, b, "each hash must carry a fresh salt")
}

func TestVerifyPasswordMalformedHash(t *testing.T) {
	for _, bad := range []string{"", "plaintext", "$argon2id$v=19$m=65536", "$md5$x$y$z$w"} {
		assert.False(t, VerifyPassword("anything", bad))
	}
}

func TestTokenRoundTrip(t *testing.T) {
	m, err := NewManager("test-secret", time.Hour)
	require.NoError(t, err)

	u := &store.User{ID: 42, Username: "ada"}
	token, err := m.Issue(u)
	require.NoError(t, err)

	claims, err := m.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "ada", claims.Username)
}

func TestTokenWrongSecret(t *testing.T) {
	issuer, err := NewManager("secret-a", time.Hour)
	require.NoError(t, err)
	verifier, err := NewManager("secret-b", time.Hour)
	require.NoError(t, err)

	token, err := issuer.Issue(&store.User{ID: 1, Username: "ada"})
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	require.Error(t, err)
	assert.Equal(t, pterrors.ErrCodeNotAuthorized, pterrors.GetCode(err))
}

func TestTokenExpired(t *testing.T) {
	m, err := NewManager("test-secret", time.Millisecond)
	require.NoError(t, err)

	token, err := m.Issue(&store.User{ID: 1, Username: "ada"})
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	_, err = m.Verify(token)
	assert.Error(t, err)
}

func TestTokenGarbage(t *testing.T) {
	m, err := NewManager("test-secret", time.Hour)
	require.NoError(t, err)

	_, err = m.Verify("not.a.token")
	assert.Error(t, err)
}

func TestNewManagerEmptySecret(t *testing.T) {
	_, err := NewManager("", time.Hour)
	require.Error(t, err)
	assert.Equal(t, pterrors.ErrCodeConfigInvalid, pterrors.GetCode(err))
}
