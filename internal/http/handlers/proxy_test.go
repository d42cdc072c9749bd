package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cafe-order-service/internal/config"
	"cafe-order-service/internal/middleware"
	"cafe-order-service/internal/session"

	"go.uber.org/zap"
)

func proxyUnderTest(t *testing.T, backendURL string) (http.Handler, *session.Manager) {
	t.Helper()

	manager := session.NewManager("test-secret", time.Hour)
	h := &Handler{
		Logger:   zap.NewNop(),
		Config:   config.Config{BackendBaseURL: backendURL},
		Sessions: manager,
	}
	gated := middleware.SessionAuth(manager, time.Hour)(http.HandlerFunc(h.LegacyProxy))
	return gated, manager
}

func TestLegacyProxyRequiresSession(t *testing.T) {
	handler, _ := proxyUnderTest(t, "http://127.0.0.1:1")

	req := httptest.NewRequest(http.MethodGet, "/api/legacy/things", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	if body["error"] != middleware.MsgInvalidSession {
		t.Fatalf("error = %q, want %q", body["error"], middleware.MsgInvalidSession)
	}
}

func TestLegacyProxyPassesThrough(t *testing.T) {
	var gotHeader, gotCookie, gotPath string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get(session.HeaderSession)
		gotPath = r.URL.Path
		if c, err := r.Cookie("session_id"); err == nil {
			gotCookie = c.Value
		}
		w.WriteHeader(http.StatusTeapot)
		io.WriteString(w, `{"upstream":true}`)
	}))
	defer upstream.Close()

	handler, manager := proxyUnderTest(t, upstream.URL)

	token, err := manager.Issue("sess-42")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/legacy/things?page=2", nil)
	req.Header.Set(session.HeaderSession, token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusTeapot {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusTeapot)
	}
	if !strings.Contains(rec.Body.String(), `"upstream":true`) {
		t.Fatalf("body = %q, want upstream body", rec.Body.String())
	}
	if gotHeader != "sess-42" {
		t.Fatalf("upstream %s header = %q, want %q", session.HeaderSession, gotHeader, "sess-42")
	}
	if gotCookie != "sess-42" {
		t.Fatalf("upstream session_id cookie = %q, want %q", gotCookie, "sess-42")
	}
	if gotPath != "/api/legacy/things" {
		t.Fatalf("upstream path = %q, want /api/legacy/things", gotPath)
	}
}

func TestLegacyProxyTimeoutBoundsSlowBackend(t *testing.T) {
	release := make(chan struct{})
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()
	defer close(release)

	manager := session.NewManager("test-secret", time.Hour)
	h := &Handler{
		Logger:   zap.NewNop(),
		Config:   config.Config{BackendBaseURL: upstream.URL, ProxyTimeout: 50 * time.Millisecond},
		Sessions: manager,
	}
	handler := middleware.SessionAuth(manager, time.Hour)(http.HandlerFunc(h.LegacyProxy))

	token, err := manager.Issue("sess-42")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/legacy/slow", nil)
	req.Header.Set(session.HeaderSession, token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
}

func TestLegacyProxyUpstreamDown(t *testing.T) {
	handler, manager := proxyUnderTest(t, "http://127.0.0.1:1")

	token, err := manager.Issue("sess-42")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/legacy/things", nil)
	req.Header.Set(session.HeaderSession, token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	if body["error"] == "" {
		t.Fatalf("expected localized error body, got %q", rec.Body.String())
	}
}
