// Package auth mints and verifies owner dashboard session tokens. The shop
// has a single operator, so sessions carry just the login subject; there is
// no role model.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

const sessionIssuer = "toddy-orders"

var (
	// ErrSessionExpired signals the session token is past its expiry.
	ErrSessionExpired = errors.New("auth: session expired")
	// ErrSessionInvalid signals the session token failed verification.
	ErrSessionInvalid = errors.New("auth: session invalid")
)

// SessionManager issues and verifies HMAC-signed session tokens.
type SessionManager struct {
	secret []byte
	ttl    time.Duration
	clock  func() time.Time
}

// SessionOption customises SessionManager construction.
type SessionOption func(*SessionManager)

// WithClock injects the time source used for expiry checks.
func WithClock(clock func() time.Time) SessionOption {
	return func(m *SessionManager) {
		if clock != nil {
			m.clock = clock
		}
	}
}

// NewSessionManager builds a manager signing tokens with the supplied secret.
func NewSessionManager(secret string, ttl time.Duration, opts ...SessionOption) (*SessionManager, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("auth: session secret is required")
	}
	if ttl <= 0 {
		return nil, errors.New("auth: session ttl must be positive")
	}

	m := &SessionManager{
		secret: []byte(secret),
		ttl:    ttl,
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Issue mints a session token for the supplied subject.
func (m *SessionManager) Issue(subject string, now time.Time) (string, time.Time, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return "", time.Time{}, errors.New("auth: subject is required")
	}
	if now.IsZero() {
		now = m.clock()
	}
	expiresAt := now.Add(m.ttl)

	claims := jwt.RegisteredClaims{
		Issuer:    sessionIssuer,
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("auth: sign session: %w", err)
	}
	return token, expiresAt, nil
}

// Verify checks the token signature and expiry and returns the subject.
// Claims validation is done here rather than by the parser so expiry is
// checked against the manager's clock.
func (m *SessionManager) Verify(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) {
			return m.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSessionInvalid, err)
	}
	if !token.Valid || claims.Subject == "" {
		return "", ErrSessionInvalid
	}
	if claims.Issuer != sessionIssuer {
		return "", fmt.Errorf("%w: unexpected issuer %q", ErrSessionInvalid, claims.Issuer)
	}
	if claims.ExpiresAt == nil || !m.clock().Before(claims.ExpiresAt.Time) {
		return "", ErrSessionExpired
	}
	return claims.Subject, nil
}
