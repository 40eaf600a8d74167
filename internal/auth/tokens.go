// Package auth issues and verifies the access tokens used for both the
// browser session cookie and API bearer authentication.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"myblog/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// CookieName carries the access token for browser sessions.
	CookieName = "access_token"

	issuer   = "myblog-api"
	audience = "myblog-client"
)

var (
	// ErrInvalidToken covers malformed, expired and foreign tokens.
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrRevokedToken is returned for tokens invalidated by logout.
	ErrRevokedToken = errors.New("token has been revoked")
)

// Claims are the JWT claims issued at login.
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// UserID parses the subject claim.
func (c *Claims) UserID() (uint, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}
	return uint(id), nil
}

// RevocationStore remembers revoked token IDs until they would have expired anyway.
type RevocationStore interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// TokenManager signs and verifies HS256 access tokens.
type TokenManager struct {
	secret  []byte
	ttl     time.Duration
	revoked RevocationStore
	now     func() time.Time
}

// NewTokenManager returns a manager. revoked may be nil, in which case
// logout only clears the client side of the session.
func NewTokenManager(secret string, ttl time.Duration, revoked RevocationStore) *TokenManager {
	return &TokenManager{
		secret:  []byte(secret),
		ttl:     ttl,
		revoked: revoked,
		now:     time.Now,
	}
}

// TTL is the lifetime of issued tokens.
func (m *TokenManager) TTL() time.Duration {
	return m.ttl
}

// Issue creates a signed token for user.
func (m *TokenManager) Issue(user *models.User) (string, *Claims, error) {
	if len(m.secret) == 0 {
		return "", nil, errors.New("JWT secret not configured")
	}

	now := m.now()
	claims := &Claims{
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			Issuer:    issuer,
			Audience:  jwt.ClaimStrings{audience},
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return signed, claims, nil
}

// Parse validates signature, issuer, audience, expiry and revocation.
func (m *TokenManager) Parse(ctx context.Context, tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	},
		jwt.WithIssuer(issuer),
		jwt.WithAudience(audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if _, err := claims.UserID(); err != nil {
		return nil, err
	}

	if m.revoked != nil && claims.ID != "" {
		revoked, err := m.revoked.IsRevoked(ctx, claims.ID)
		if err == nil && revoked {
			return nil, ErrRevokedToken
		}
	}
	return claims, nil
}

// Revoke blacklists the token for the rest of its lifetime.
func (m *TokenManager) Revoke(ctx context.Context, claims *Claims) error {
	if m.revoked == nil || claims == nil || claims.ID == "" {
		return nil
	}
	ttl := m.ttl
	if claims.ExpiresAt != nil {
		ttl = claims.ExpiresAt.Sub(m.now())
	}
	if ttl <= 0 {
		return nil
	}
	return m.revoked.Revoke(ctx, claims.ID, ttl)
}
