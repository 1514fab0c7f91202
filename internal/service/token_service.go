package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"social/internal/authz"
	"social/internal/config"
	"social/internal/models"
	"social/internal/observability"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Token types carried in the "type" claim.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

const blacklistPrefix = "blacklist:"

// TokenPair is the body returned by the token endpoint.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// TokenClaims is the verified content of a token.
type TokenClaims struct {
	UserID    uint
	Username  string
	IsStaff   bool
	Type      string
	JTI       string
	ExpiresAt time.Time
}

// Actor returns the identity the token speaks for.
func (c *TokenClaims) Actor() authz.Actor {
	return authz.Actor{ID: c.UserID, Username: c.Username, IsStaff: c.IsStaff}
}

// TokenService issues and verifies HS256 access and refresh tokens. Revoked
// token IDs live in Redis under blacklist:<jti> until the token would expire.
type TokenService struct {
	secret     []byte
	issuer     string
	audience   string
	accessTTL  time.Duration
	refreshTTL time.Duration
	rdb        *redis.Client
	now        func() time.Time
}

// NewTokenService builds a TokenService from configuration. rdb may be nil,
// in which case revocation is unavailable.
func NewTokenService(cfg *config.Config, rdb *redis.Client) *TokenService {
	return &TokenService{
		secret:     []byte(cfg.JWTSecret),
		issuer:     cfg.JWTIssuer,
		audience:   cfg.JWTAudience,
		accessTTL:  cfg.AccessTokenTTL(),
		refreshTTL: cfg.RefreshTokenTTL(),
		rdb:        rdb,
		now:        time.Now,
	}
}

func (s *TokenService) sign(user *models.User, tokenType string, ttl time.Duration) (string, error) {
	if len(s.secret) == 0 {
		return "", fmt.Errorf("JWT secret not configured")
	}

	now := s.now()
	claims := jwt.MapClaims{
		"sub":      strconv.FormatUint(uint64(user.ID), 10),
		"username": user.Username,
		"staff":    user.IsStaff,
		"type":     tokenType,
		"iss":      s.issuer,
		"aud":      s.audience,
		"exp":      now.Add(ttl).Unix(),
		"iat":      now.Unix(),
		"jti":      uuid.NewString(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", err
	}
	observability.TokensIssued.WithLabelValues(tokenType).Inc()
	return signed, nil
}

// Issue returns a fresh access/refresh pair for user.
func (s *TokenService) Issue(user *models.User) (TokenPair, error) {
	access, err := s.sign(user, TokenTypeAccess, s.accessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.sign(user, TokenTypeRefresh, s.refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{Access: access, Refresh: refresh}, nil
}

// IssueAccess returns a new access token for user.
func (s *TokenService) IssueAccess(user *models.User) (string, error) {
	return s.sign(user, TokenTypeAccess, s.accessTTL)
}

// Parse verifies signature, issuer, audience, expiry and token type.
func (s *TokenService) Parse(tokenString, wantType string) (*TokenClaims, error) {
	token, err := jwt.Parse(tokenString,
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return nil, models.NewUnauthorizedError("Token is invalid or expired")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, models.NewUnauthorizedError("Token is invalid or expired")
	}

	if typ, _ := claims["type"].(string); typ != wantType {
		return nil, models.NewUnauthorizedError("Token has wrong type")
	}

	sub, _ := claims["sub"].(string)
	userID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil || userID == 0 {
		return nil, models.NewUnauthorizedError("Token contained no recognizable user identification")
	}

	out := &TokenClaims{UserID: uint(userID), Type: wantType}
	out.Username, _ = claims["username"].(string)
	out.IsStaff, _ = claims["staff"].(bool)
	out.JTI, _ = claims["jti"].(string)
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}
	return out, nil
}

// Verify parses a token of wantType and rejects it when its jti is revoked.
func (s *TokenService) Verify(ctx context.Context, tokenString, wantType string) (*TokenClaims, error) {
	claims, err := s.Parse(tokenString, wantType)
	if err != nil {
		return nil, err
	}
	// Redis failures fail open.
	if revoked, err := s.isRevoked(ctx, claims.JTI); err == nil && revoked {
		return nil, models.NewUnauthorizedError("Token is blacklisted")
	}
	return claims, nil
}

// Authenticate resolves a bearer access token to an actor.
func (s *TokenService) Authenticate(ctx context.Context, tokenString string) (authz.Actor, error) {
	claims, err := s.Verify(ctx, tokenString, TokenTypeAccess)
	if err != nil {
		return authz.Actor{}, err
	}
	return claims.Actor(), nil
}

// Revoke blacklists the token's jti until its expiry.
func (s *TokenService) Revoke(ctx context.Context, claims *TokenClaims) error {
	if s.rdb == nil {
		return models.NewInternalError(errors.New("token revocation requires redis"))
	}
	if claims.JTI == "" {
		return models.NewUnauthorizedError("Token has no id")
	}
	ttl := claims.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	return s.rdb.Set(ctx, blacklistPrefix+claims.JTI, "1", ttl).Err()
}

func (s *TokenService) isRevoked(ctx context.Context, jti string) (bool, error) {
	if s.rdb == nil || jti == "" {
		return false, nil
	}
	n, err := s.rdb.Exists(ctx, blacklistPrefix+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
