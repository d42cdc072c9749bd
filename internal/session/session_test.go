package session

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNewIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewID()
		if id == "" {
			t.Fatal("empty id")
		}
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
	}
}

func TestIssueAndParseRoundTrip(t *testing.T) {
	m := NewManager("test-secret", time.Hour)

	token, err := m.Issue("sess-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if !strings.HasPrefix(token, "v1.") {
		t.Fatalf("expected v1 prefix, got %s", token)
	}

	sid, err := m.Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if sid != "sess-1" {
		t.Fatalf("expected sess-1, got %s", sid)
	}
}

func TestParseRejectsForgedToken(t *testing.T) {
	m := NewManager("test-secret", time.Hour)
	other := NewManager("other-secret", time.Hour)

	token, err := other.Issue("sess-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := m.Parse(token); err == nil {
		t.Fatal("expected signature verification to fail")
	}
}

func TestParseRejectsExpiredToken(t *testing.T) {
	m := NewManager("test-secret", -time.Minute)
	token, err := m.Issue("sess-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := m.Parse(token); err != ErrTokenExpired {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestResolve(t *testing.T) {
	m := NewManager("test-secret", time.Hour)
	signed, _ := m.Issue("sess-signed")

	cases := []struct {
		name    string
		raw     string
		sid     string
		legacy  bool
		wantErr bool
	}{
		{name: "signed token", raw: signed, sid: "sess-signed"},
		{name: "legacy bare id", raw: "abc123", sid: "abc123", legacy: true},
		{name: "empty", raw: "", wantErr: true},
		{name: "mangled signed token", raw: "v2.something.else", wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sid, legacy, err := m.Resolve(tc.raw)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("resolve: %v", err)
			}
			if sid != tc.sid || legacy != tc.legacy {
				t.Fatalf("got (%s, %v), want (%s, %v)", sid, legacy, tc.sid, tc.legacy)
			}
		})
	}
}

func TestTokenFromRequestPrecedence(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	r.AddCookie(&http.Cookie{Name: "cart_session", Value: "from-cart-session"})
	r.AddCookie(&http.Cookie{Name: "session_id", Value: "from-session-id"})

	token, source := TokenFromRequest(r)
	if token != "from-session-id" || source != "session_id" {
		t.Fatalf("expected session_id cookie to win over cart_session, got %s from %s", token, source)
	}

	r.AddCookie(&http.Cookie{Name: CookieSession, Value: "from-current"})
	token, source = TokenFromRequest(r)
	if token != "from-current" || source != CookieSession {
		t.Fatalf("expected current cookie to win, got %s from %s", token, source)
	}

	r.Header.Set(HeaderSession, "from-header")
	token, source = TokenFromRequest(r)
	if token != "from-header" || source != "header" {
		t.Fatalf("expected header to win, got %s from %s", token, source)
	}
}

func TestTokenFromRequestMissing(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	token, source := TokenFromRequest(r)
	if token != "" || source != "" {
		t.Fatalf("expected empty, got %s from %s", token, source)
	}
}
