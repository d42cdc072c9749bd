package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cafe-order-service/internal/session"
)

func newSessionHandler(t *testing.T) (http.Handler, *session.Manager, *SessionContext) {
	t.Helper()
	manager := session.NewManager("test-secret", time.Hour)
	captured := &SessionContext{}
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if sc, ok := GetSessionContext(r.Context()); ok {
			*captured = *sc
		}
		w.WriteHeader(http.StatusOK)
	})
	return SessionAuth(manager, time.Hour)(inner), manager, captured
}

func TestSessionAuthMissingSession(t *testing.T) {
	handler, _, _ := newSessionHandler(t)

	r := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["error"] != "세션이 유효하지 않습니다." {
		t.Fatalf("unexpected error body: %q", body["error"])
	}
}

func TestSessionAuthHeaderToken(t *testing.T) {
	handler, manager, captured := newSessionHandler(t)

	token, err := manager.Issue("sess-42")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	r := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	r.Header.Set(session.HeaderSession, token)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if captured.SessionID != "sess-42" || captured.Legacy {
		t.Fatalf("unexpected session context: %+v", captured)
	}
}

func TestSessionAuthLegacyCookieUpgrade(t *testing.T) {
	handler, _, captured := newSessionHandler(t)

	r := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	r.AddCookie(&http.Cookie{Name: "session_id", Value: "legacy-sess"})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if captured.SessionID != "legacy-sess" || !captured.Legacy {
		t.Fatalf("unexpected session context: %+v", captured)
	}

	reissued := false
	expiredLegacy := false
	for _, c := range w.Result().Cookies() {
		if c.Name == session.CookieSession && strings.HasPrefix(c.Value, "v1.") {
			reissued = true
		}
		if c.Name == "session_id" && c.MaxAge < 0 {
			expiredLegacy = true
		}
	}
	if !reissued {
		t.Fatal("expected signed session cookie to be reissued")
	}
	if !expiredLegacy {
		t.Fatal("expected legacy cookie to be expired")
	}
}

func TestAdminAuth(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := AdminAuth("topsecret")(inner)

	r := httptest.NewRequest(http.MethodGet, "/api/admin/orders", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}

	r = httptest.NewRequest(http.MethodGet, "/api/admin/orders", nil)
	r.Header.Set("Authorization", "Bearer topsecret")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", w.Code)
	}
}
