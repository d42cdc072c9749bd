package session

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Cookie names the storefront has shipped over time. CookieSession is the
// current name; the two legacy names are still accepted on read and upgraded
// to the signed scheme on the next identify call.
const (
	CookieUser    = "cafe_user_id"
	CookieSession = "cafe_session_id"

	legacyCookieSession = "session_id"
	legacyCookieCart    = "cart_session"

	HeaderSession = "X-Session-ID"
)

const (
	CookiePreferences = "user_preferences"
	CookieTheme       = "theme"
	CookieLanguage    = "language"
)

// sessionReadOrder is the fixed precedence for extracting a session token
// from a request: header first, then current cookie, then legacy cookies.
var sessionReadOrder = []string{CookieSession, legacyCookieSession, legacyCookieCart}

// NewID returns an opaque identifier: millisecond timestamp in base36 plus a
// random suffix. Collision resistance is birthday-bound only, which is fine
// for a session token and not for anything needing a durable guarantee.
func NewID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return strconv.FormatInt(time.Now().UnixNano(), 36)
	}
	return strconv.FormatInt(time.Now().UnixMilli(), 36) + hex.EncodeToString(buf)
}

// TokenFromRequest extracts the raw session token, preferring the
// X-Session-ID header over cookies. Returns the token and where it came
// from ("header", cookie name, or "").
func TokenFromRequest(r *http.Request) (string, string) {
	if value := strings.TrimSpace(r.Header.Get(HeaderSession)); value != "" {
		return value, "header"
	}
	for _, name := range sessionReadOrder {
		if c, err := r.Cookie(name); err == nil {
			if value := strings.TrimSpace(c.Value); value != "" {
				return value, name
			}
		}
	}
	return "", ""
}

// UserIDFromRequest reads the long-lived anonymous visitor id, if present.
func UserIDFromRequest(r *http.Request) string {
	if c, err := r.Cookie(CookieUser); err == nil {
		return strings.TrimSpace(c.Value)
	}
	return ""
}

func SetUserCookie(w http.ResponseWriter, id string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieUser,
		Value:    id,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		SameSite: http.SameSiteLaxMode,
	})
}

func SetSessionCookie(w http.ResponseWriter, token string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieSession,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearLegacyCookies expires the pre-migration cookie names after a session
// has been reissued under the signed scheme.
func ClearLegacyCookies(w http.ResponseWriter) {
	for _, name := range []string{legacyCookieSession, legacyCookieCart} {
		http.SetCookie(w, &http.Cookie{
			Name:   name,
			Value:  "",
			Path:   "/",
			MaxAge: -1,
		})
	}
}
