package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, cfg Config, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(cfg.Secret))
	require.NoError(t, err)
	return signed
}

func TestParseValidToken(t *testing.T) {
	cfg := Config{Secret: "test-secret", Issuer: "tribe"}
	token := signToken(t, cfg, jwt.MapClaims{
		"sub":      "user-1",
		"tribe_id": "tribe-1",
		"iss":      "tribe",
		"exp":      time.Now().Add(time.Hour).Unix(),
		"scopes":   []string{ScopeLogsRead, ScopeLogsWrite},
	})

	claims, err := Parse(token, cfg)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.Subject)
	require.Equal(t, "tribe-1", claims.TribeID)
	require.True(t, claims.HasScope(ScopeLogsWrite))
	require.False(t, claims.HasScope(ScopeTribesRead))
}

func TestParseSpaceSeparatedScopes(t *testing.T) {
	cfg := Config{Secret: "test-secret", Issuer: "tribe"}
	token := signToken(t, cfg, jwt.MapClaims{
		"sub":    "user-1",
		"iss":    "tribe",
		"exp":    time.Now().Add(time.Hour).Unix(),
		"scopes": "logs:read tribes:read",
	})

	claims, err := Parse(token, cfg)
	require.NoError(t, err)
	require.True(t, claims.HasScope(ScopeLogsRead))
	require.True(t, claims.HasScope(ScopeTribesRead))
	require.Empty(t, claims.TribeID)
}

func TestParseRejectsBadInput(t *testing.T) {
	cfg := Config{Secret: "test-secret", Issuer: "tribe"}

	_, err := Parse("", cfg)
	require.ErrorIs(t, err, ErrMissingToken)

	_, err = Parse("not-a-jwt", cfg)
	require.ErrorIs(t, err, ErrInvalidToken)

	wrongIssuer := signToken(t, cfg, jwt.MapClaims{
		"sub": "user-1",
		"iss": "other",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	_, err = Parse(wrongIssuer, cfg)
	require.ErrorIs(t, err, ErrInvalidToken)

	expired := signToken(t, cfg, jwt.MapClaims{
		"sub": "user-1",
		"iss": "tribe",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	_, err = Parse(expired, cfg)
	require.ErrorIs(t, err, ErrInvalidToken)

	missingSubject := signToken(t, cfg, jwt.MapClaims{
		"iss": "tribe",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	_, err = Parse(missingSubject, cfg)
	require.ErrorIs(t, err, ErrInvalidToken)
}
