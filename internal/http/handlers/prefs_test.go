package handlers

import (
	"encoding/json"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"cafe-order-service/internal/session"
)

func TestPreferencesCookieMirrorsOptIn(t *testing.T) {
	rec := httptest.NewRecorder()
	ttl := 30 * 24 * time.Hour
	setPreferencesCookie(rec, "kakao", "홍길동", ttl)

	cookie := cookieByName(rec.Result().Cookies(), session.CookiePreferences)
	if cookie == nil {
		t.Fatal("user_preferences cookie not set")
	}
	if cookie.MaxAge != int(ttl.Seconds()) {
		t.Fatalf("MaxAge = %d, want %d", cookie.MaxAge, int(ttl.Seconds()))
	}
	if cookie.HttpOnly {
		t.Fatal("preferences cookie must stay readable by storefront scripts")
	}

	raw, err := url.QueryUnescape(cookie.Value)
	if err != nil {
		t.Fatalf("unescape cookie value: %v", err)
	}
	var prefs struct {
		PaymentMethod string `json:"payment_method"`
		PickupName    string `json:"pickup_name"`
	}
	if err := json.Unmarshal([]byte(raw), &prefs); err != nil {
		t.Fatalf("cookie value is not JSON: %v", err)
	}
	if prefs.PaymentMethod != "kakao" || prefs.PickupName != "홍길동" {
		t.Fatalf("unexpected cookie payload: %+v", prefs)
	}
}

func TestDisplayCookieSkipsEmptyValue(t *testing.T) {
	rec := httptest.NewRecorder()
	setDisplayCookie(rec, session.CookieTheme, "", time.Hour)
	if len(rec.Result().Cookies()) != 0 {
		t.Fatal("empty value with positive ttl must not set a cookie")
	}
}

func TestDisplayCookieExpiry(t *testing.T) {
	rec := httptest.NewRecorder()
	setDisplayCookie(rec, session.CookiePreferences, "", -time.Second)

	cookie := cookieByName(rec.Result().Cookies(), session.CookiePreferences)
	if cookie == nil {
		t.Fatal("expected expiring cookie")
	}
	if cookie.MaxAge != -1 {
		t.Fatalf("MaxAge = %d, want -1", cookie.MaxAge)
	}
}
