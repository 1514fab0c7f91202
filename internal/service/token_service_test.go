package service

import (
	"context"
	"testing"
	"time"

	"social/internal/config"
	"social/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenService_IssueAndAuthenticate(t *testing.T) {
	f := newFixture(t)
	user := &models.User{ID: 7, Username: "alice", IsStaff: true}

	pair, err := f.tokens.Issue(user)
	require.NoError(t, err)
	require.NotEmpty(t, pair.Access)
	require.NotEmpty(t, pair.Refresh)

	actor, err := f.tokens.Authenticate(context.Background(), pair.Access)
	require.NoError(t, err)
	assert.Equal(t, uint(7), actor.ID)
	assert.Equal(t, "alice", actor.Username)
	assert.True(t, actor.IsStaff)
}

func TestTokenService_RejectsWrongType(t *testing.T) {
	f := newFixture(t)
	pair, err := f.tokens.Issue(&models.User{ID: 1, Username: "alice"})
	require.NoError(t, err)

	_, err = f.tokens.Authenticate(context.Background(), pair.Refresh)
	assert.True(t, models.IsCode(err, models.CodeUnauthorized))

	_, err = f.tokens.Verify(context.Background(), pair.Access, TokenTypeRefresh)
	assert.True(t, models.IsCode(err, models.CodeUnauthorized))
}

func TestTokenService_RejectsExpiredAndForeignTokens(t *testing.T) {
	f := newFixture(t)
	pair, err := f.tokens.Issue(&models.User{ID: 1, Username: "alice"})
	require.NoError(t, err)

	f.tokens.now = func() time.Time { return time.Now().Add(time.Hour) }
	_, err = f.tokens.Parse(pair.Access, TokenTypeAccess)
	assert.True(t, models.IsCode(err, models.CodeUnauthorized), "access token must expire")

	other := NewTokenService(&config.Config{JWTSecret: "another-secret-entirely-0123456789", JWTIssuer: "social-api", JWTAudience: "social-clients"}, nil)
	_, err = other.Parse(pair.Refresh, TokenTypeRefresh)
	assert.True(t, models.IsCode(err, models.CodeUnauthorized), "signature from another secret")

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "1", "type": "access"})
	raw, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = f.tokens.Parse(raw, TokenTypeAccess)
	assert.True(t, models.IsCode(err, models.CodeUnauthorized), "alg none")
}

func TestTokenService_RevokeBlacklistsJTI(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pair, err := f.tokens.Issue(&models.User{ID: 3, Username: "carol"})
	require.NoError(t, err)

	claims, err := f.tokens.Verify(ctx, pair.Refresh, TokenTypeRefresh)
	require.NoError(t, err)
	require.NoError(t, f.tokens.Revoke(ctx, claims))

	assert.True(t, f.mr.Exists(blacklistPrefix+claims.JTI))
	ttl := f.mr.TTL(blacklistPrefix + claims.JTI)
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, f.cfg.RefreshTokenTTL())

	_, err = f.tokens.Verify(ctx, pair.Refresh, TokenTypeRefresh)
	assert.True(t, models.IsCode(err, models.CodeUnauthorized))
}

func TestTokenService_RedisOutageFailsOpen(t *testing.T) {
	f := newFixture(t)
	pair, err := f.tokens.Issue(&models.User{ID: 1, Username: "alice"})
	require.NoError(t, err)

	f.mr.Close()
	_, err = f.tokens.Authenticate(context.Background(), pair.Access)
	assert.NoError(t, err)
}

func TestTokenService_RevokeWithoutRedis(t *testing.T) {
	svc := NewTokenService(&config.Config{JWTSecret: testSecret}, nil)
	err := svc.Revoke(context.Background(), &TokenClaims{JTI: "abc", ExpiresAt: time.Now().Add(time.Hour)})
	assert.True(t, models.IsCode(err, models.CodeInternal))
}
