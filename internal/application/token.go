package application

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/example/worktime/internal/persistence"
)

// TokenManager issues and verifies signed login tokens.
type TokenManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// TokenClaims is what a verified token says about its holder.
type TokenClaims struct {
	UserID     string
	IsEmployer bool
	ExpiresAt  time.Time
}

// NewTokenManager creates a manager with the provided secret, issuer, and lifetime.
func NewTokenManager(secret, issuer string, ttl time.Duration, now func() time.Time) *TokenManager {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	if now == nil {
		now = time.Now
	}
	return &TokenManager{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    now,
	}
}

// Generate issues a signed HS256 token for user.
func (t *TokenManager) Generate(user persistence.User) (string, time.Time, error) {
	now := t.now()
	expires := now.Add(t.ttl)
	claims := jwt.MapClaims{
		"iss":      t.issuer,
		"sub":      user.ID,
		"username": user.Username,
		"employer": user.IsEmployer,
		"iat":      now.Unix(),
		"nbf":      now.Unix(),
		"exp":      expires.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expires, nil
}

// Parse verifies raw and returns its claims. Every failure wraps ErrUnauthenticated.
func (t *TokenManager) Parse(raw string) (TokenClaims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(t.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)

	claims := jwt.MapClaims{}
	if _, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	}); err != nil {
		return TokenClaims{}, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return TokenClaims{}, fmt.Errorf("%w: token has no subject", ErrUnauthenticated)
	}
	out := TokenClaims{UserID: sub}
	if employer, ok := claims["employer"].(bool); ok {
		out.IsEmployer = employer
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}
	return out, nil
}

var errNoTokenManager = errors.New("token manager not configured")
