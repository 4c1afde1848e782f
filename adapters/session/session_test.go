package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	t.Parallel()

	tokens := NewTokens("secret", time.Hour)
	token, sessionID, err := tokens.Issue()
	require.NoError(t, err)
	require.NotEmpty(t, token)

	_, err = uuid.Parse(sessionID)
	require.NoError(t, err)

	claims, err := tokens.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, sessionID, claims.SessionID)
	assert.Equal(t, Issuer, claims.Issuer)
}

func TestIssueUniqueSessions(t *testing.T) {
	t.Parallel()

	tokens := NewTokens("secret", time.Hour)
	_, a, err := tokens.Issue()
	require.NoError(t, err)
	_, b, err := tokens.Issue()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestParseRejects(t *testing.T) {
	t.Parallel()

	tokens := NewTokens("secret", time.Hour)
	good, _, err := tokens.Issue()
	require.NoError(t, err)

	expired, _, err := NewTokens("secret", -time.Minute).Issue()
	require.NoError(t, err)

	foreign, _, err := NewTokens("other-secret", time.Hour).Issue()
	require.NoError(t, err)

	noSession, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{Issuer: Issuer},
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	for name, token := range map[string]string{
		"garbage":    "not-a-token",
		"expired":    expired,
		"foreign":    foreign,
		"no session": noSession,
		"truncated":  good[:len(good)-4],
	} {
		_, err := tokens.Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken, name)
	}
}
