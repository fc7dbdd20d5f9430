package auth

import (
	"testing"

	"recruitflow-go/internal/apperr"
	"recruitflow-go/internal/config"
	"recruitflow-go/internal/storage/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTokenManager(t *testing.T) *TokenManager {
	t.Helper()
	tm, err := NewTokenManager(&config.AuthConfig{
		Secret:              "test-secret",
		Algorithm:           "HS256",
		AccessExpireMinutes: 60,
		RefreshExpireHours:  24,
	})
	require.NoError(t, err)
	return tm
}

func TestNewTokenManagerValidation(t *testing.T) {
	_, err := NewTokenManager(nil)
	assert.Error(t, err)

	_, err = NewTokenManager(&config.AuthConfig{Algorithm: "HS256"})
	assert.Error(t, err, "missing secret must be rejected")

	_, err = NewTokenManager(&config.AuthConfig{Secret: "x", Algorithm: "RS256"})
	assert.Error(t, err, "only HS256 is supported")
}

func TestAccessTokenRoundTrip(t *testing.T) {
	tm := testTokenManager(t)
	user := &models.User{ID: 7, Username: "maria", Role: models.RoleAdmin}

	signed, err := tm.IssueAccessToken(user)
	require.NoError(t, err)

	claims, err := tm.ParseAccessToken(signed)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, models.RoleAdmin, claims.Role)
	assert.Equal(t, "maria", claims.Subject)
	assert.Equal(t, TokenTypeAccess, claims.Type)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	tm := testTokenManager(t)
	user := &models.User{ID: 3, Username: "jose", Role: models.RoleUsuario}

	signed, jti, err := tm.IssueRefreshToken(user)
	require.NoError(t, err)
	require.NotEmpty(t, jti)

	claims, err := tm.ParseRefreshToken(signed)
	require.NoError(t, err)
	assert.Equal(t, jti, claims.ID)
	assert.Equal(t, uint(3), claims.UserID)
}

func TestTokenTypeIsEnforced(t *testing.T) {
	tm := testTokenManager(t)
	user := &models.User{ID: 1, Username: "ana", Role: models.RoleUsuario}

	access, err := tm.IssueAccessToken(user)
	require.NoError(t, err)
	refresh, _, err := tm.IssueRefreshToken(user)
	require.NoError(t, err)

	_, err = tm.ParseRefreshToken(access)
	require.Error(t, err)
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))

	_, err = tm.ParseAccessToken(refresh)
	require.Error(t, err)
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
}

func TestTokenRejectsWrongSecret(t *testing.T) {
	tm := testTokenManager(t)
	other, err := NewTokenManager(&config.AuthConfig{Secret: "another-secret", AccessExpireMinutes: 60, RefreshExpireHours: 24})
	require.NoError(t, err)

	signed, err := tm.IssueAccessToken(&models.User{ID: 1, Username: "ana"})
	require.NoError(t, err)

	_, err = other.ParseAccessToken(signed)
	require.Error(t, err)
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
}

func TestExpiredTokenIsRejected(t *testing.T) {
	tm, err := NewTokenManager(&config.AuthConfig{Secret: "test-secret", AccessExpireMinutes: -1, RefreshExpireHours: 24})
	require.NoError(t, err)

	signed, err := tm.IssueAccessToken(&models.User{ID: 1, Username: "ana"})
	require.NoError(t, err)

	_, err = tm.ParseAccessToken(signed)
	require.Error(t, err)
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
}
