package session

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Tokens are versioned: a signed token is "v1." followed by a compact JWS
// carrying the session id. Anything without the prefix is a legacy bare id
// from the old cookie scheme and is upgraded once, at resolve time, by
// reissuing the cookie.
const tokenPrefixV1 = "v1."

var (
	ErrTokenInvalid = errors.New("session token invalid")
	ErrTokenExpired = errors.New("session token expired")
)

type Manager struct {
	secret     []byte
	sessionTTL time.Duration
}

func NewManager(secret string, sessionTTL time.Duration) *Manager {
	return &Manager{secret: []byte(secret), sessionTTL: sessionTTL}
}

type sessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// Issue mints a v1 signed token for the given session id, bounded by the
// session TTL.
func (m *Manager) Issue(sessionID string) (string, error) {
	now := time.Now()
	claims := sessionClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "cafe-order-service",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.sessionTTL)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", err
	}
	return tokenPrefixV1 + signed, nil
}

// Parse verifies a v1 token and returns the session id it carries.
func (m *Manager) Parse(token string) (string, error) {
	raw, ok := strings.CutPrefix(token, tokenPrefixV1)
	if !ok {
		return "", ErrTokenInvalid
	}

	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", ErrTokenInvalid
	}
	if !parsed.Valid || strings.TrimSpace(claims.SessionID) == "" {
		return "", ErrTokenInvalid
	}
	return claims.SessionID, nil
}

// Resolve maps a raw token from a header or cookie to a session id.
// Legacy bare ids resolve as-is with legacy=true so the caller can reissue
// the cookie under the signed scheme; that one migration step replaces the
// old runtime fallback chain for good.
func (m *Manager) Resolve(raw string) (sessionID string, legacy bool, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false, ErrTokenInvalid
	}
	if strings.HasPrefix(raw, tokenPrefixV1) {
		sid, err := m.Parse(raw)
		return sid, false, err
	}
	// Legacy ids never contain dots; reject anything that looks like a
	// mangled signed token.
	if strings.Contains(raw, ".") {
		return "", false, ErrTokenInvalid
	}
	return raw, true, nil
}
