package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cafe-order-service/internal/config"
	"cafe-order-service/internal/session"

	"go.uber.org/zap"
)

func identifyHandler(t *testing.T) *Handler {
	t.Helper()
	return &Handler{
		Logger:   zap.NewNop(),
		Config:   config.Config{SessionTTL: time.Hour, UserCookieTTL: 24 * time.Hour},
		Sessions: session.NewManager("test-secret", time.Hour),
	}
}

func cookieByName(cookies []*http.Cookie, name string) *http.Cookie {
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestUserIdentifyBootstrapsBothCookies(t *testing.T) {
	h := identifyHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/user/identify", nil)
	rec := httptest.NewRecorder()
	h.UserIdentify(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	cookies := rec.Result().Cookies()
	user := cookieByName(cookies, session.CookieUser)
	if user == nil || user.Value == "" {
		t.Fatal("missing user cookie")
	}
	sess := cookieByName(cookies, session.CookieSession)
	if sess == nil || !strings.HasPrefix(sess.Value, "v1.") {
		t.Fatalf("session cookie = %+v, want signed v1 token", sess)
	}

	var body struct {
		Data map[string]string `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.Data["user_id"] != user.Value {
		t.Fatalf("user_id = %q, want cookie value %q", body.Data["user_id"], user.Value)
	}
	if body.Data["session_id"] == "" {
		t.Fatal("missing session_id in response")
	}

	sid, err := h.Sessions.Parse(sess.Value)
	if err != nil {
		t.Fatalf("parse issued token: %v", err)
	}
	if sid != body.Data["session_id"] {
		t.Fatalf("token sid = %q, response sid = %q", sid, body.Data["session_id"])
	}
}

func TestUserIdentifyIsStableAcrossCalls(t *testing.T) {
	h := identifyHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/user/identify", nil)
	rec := httptest.NewRecorder()
	h.UserIdentify(rec, req)

	second := httptest.NewRequest(http.MethodGet, "/api/user/identify", nil)
	for _, c := range rec.Result().Cookies() {
		second.AddCookie(c)
	}
	rec2 := httptest.NewRecorder()
	h.UserIdentify(rec2, second)

	var first, repeat struct {
		Data map[string]string `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &first); err != nil {
		t.Fatalf("unmarshal first: %v", err)
	}
	if err := json.Unmarshal(rec2.Body.Bytes(), &repeat); err != nil {
		t.Fatalf("unmarshal second: %v", err)
	}
	if first.Data["user_id"] != repeat.Data["user_id"] {
		t.Fatalf("user_id changed: %q then %q", first.Data["user_id"], repeat.Data["user_id"])
	}
	if first.Data["session_id"] != repeat.Data["session_id"] {
		t.Fatalf("session_id changed: %q then %q", first.Data["session_id"], repeat.Data["session_id"])
	}
}

func TestUserIdentifyUpgradesLegacyCookie(t *testing.T) {
	h := identifyHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/user/identify", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "legacy-abc"})
	rec := httptest.NewRecorder()
	h.UserIdentify(rec, req)

	var body struct {
		Data map[string]string `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.Data["session_id"] != "legacy-abc" {
		t.Fatalf("session_id = %q, want the legacy id preserved", body.Data["session_id"])
	}

	cookies := rec.Result().Cookies()
	sess := cookieByName(cookies, session.CookieSession)
	if sess == nil || !strings.HasPrefix(sess.Value, "v1.") {
		t.Fatal("expected reissued signed session cookie")
	}
	legacy := cookieByName(cookies, "session_id")
	if legacy == nil || legacy.MaxAge != -1 {
		t.Fatalf("legacy cookie = %+v, want expired", legacy)
	}
}

func TestUserResetExpiresCookies(t *testing.T) {
	h := identifyHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/user/reset", nil)
	rec := httptest.NewRecorder()
	h.UserReset(rec, req)

	user := cookieByName(rec.Result().Cookies(), session.CookieUser)
	if user == nil || user.MaxAge >= 0 {
		t.Fatalf("user cookie = %+v, want negative MaxAge", user)
	}
	sess := cookieByName(rec.Result().Cookies(), session.CookieSession)
	if sess == nil || sess.MaxAge >= 0 {
		t.Fatalf("session cookie = %+v, want negative MaxAge", sess)
	}
}
