package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/user/cpassist-go/config"
)

func newTestService(secret string) *Service {
	return NewService(nil, config.AuthConfig{
		JWTSecret:            secret,
		AccessTokenDuration:  15 * time.Minute,
		RefreshTokenDuration: 168 * time.Hour,
	}, zap.NewNop().Sugar())
}

func TestTokenRoundTrip(t *testing.T) {
	s := newTestService("test-secret")

	tokens, err := s.generateTokens(42)
	require.NoError(t, err)
	require.NotEmpty(t, tokens.AccessToken)
	require.NotEmpty(t, tokens.RefreshToken)
	assert.Equal(t, "Bearer", tokens.TokenType)

	claims, err := s.validateToken(tokens.AccessToken, tokenTypeAccess)
	require.NoError(t, err)
	assert.Equal(t, 42, claims.UserID)
	assert.Equal(t, tokenTypeAccess, claims.TokenType)
	assert.Equal(t, "cpassist", claims.Issuer)
}

func TestValidateTokenRejectsWrongType(t *testing.T) {
	s := newTestService("test-secret")

	tokens, err := s.generateTokens(7)
	require.NoError(t, err)

	// An access token must not pass as a refresh token, and vice versa.
	_, err = s.validateToken(tokens.AccessToken, tokenTypeRefresh)
	assert.Error(t, err)
	_, err = s.validateToken(tokens.RefreshToken, tokenTypeAccess)
	assert.Error(t, err)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	s := newTestService("secret-one")
	other := newTestService("secret-two")

	tokens, err := s.generateTokens(7)
	require.NoError(t, err)

	_, err = other.validateToken(tokens.AccessToken, tokenTypeAccess)
	assert.Error(t, err)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	s := newTestService("test-secret")

	token, _, err := s.generateSpecificToken(7, tokenTypeAccess, -time.Minute)
	require.NoError(t, err)

	_, err = s.validateToken(token, tokenTypeAccess)
	assert.Error(t, err)
}
