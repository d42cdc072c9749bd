package handlers

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"cafe-order-service/internal/payments"
	"cafe-order-service/internal/session"
	"cafe-order-service/pkg/response"

	"github.com/jackc/pgx/v5/pgtype"
	"go.uber.org/zap"
)

// PreferencesGet returns the session's saved checkout preferences. An empty
// object with saved=false means the session never opted in.
func (h *Handler) PreferencesGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sid := sessionID(r)

	var (
		method     pgtype.Text
		pickupName pgtype.Text
		updatedAt  pgtype.Timestamptz
	)
	err := h.DB.QueryRow(ctx, `
		select payment_method, pickup_name, updated_at
		from payment_sessions
		where session_id = $1 and expires_at > now()
	`, sid).Scan(&method, &pickupName, &updatedAt)
	if err != nil {
		response.Success(w, map[string]any{"saved": false})
		return
	}

	prefs := CheckoutPreferences{Saved: true}
	if method.Valid {
		prefs.PaymentMethod = method.String
	}
	if pickupName.Valid {
		prefs.PickupName = pickupName.String
	}
	if updatedAt.Valid {
		prefs.UpdatedAt = updatedAt.Time
	}
	response.Success(w, prefs)
}

// PreferencesPut saves checkout preferences for the session. Saving is
// opt-in; sliding the expiry forward on every write keeps active customers'
// preferences alive without keeping stale ones forever.
func (h *Handler) PreferencesPut(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sid := sessionID(r)

	var body struct {
		PaymentMethod string `json:"payment_method"`
		PickupName    string `json:"pickup_name"`
		Theme         string `json:"theme"`
		Language      string `json:"language"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	if body.PaymentMethod != "" {
		if _, err := payments.ParseMethod(body.PaymentMethod); err != nil {
			response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "지원하지 않는 결제 수단입니다.")
			return
		}
	}

	expiresAt := time.Now().Add(h.Config.PreferencesTTL)
	_, err := h.DB.Exec(ctx, `
		insert into payment_sessions (session_id, payment_method, pickup_name, expires_at, updated_at)
		values ($1, $2, $3, $4, now())
		on conflict (session_id) do update
		set payment_method = excluded.payment_method,
		    pickup_name = excluded.pickup_name,
		    expires_at = excluded.expires_at,
		    updated_at = now()
	`, sid, nullIfEmpty(body.PaymentMethod), nullIfEmpty(strings.TrimSpace(body.PickupName)), expiresAt)
	if err != nil {
		h.Logger.Error("preferences upsert failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to save preferences")
		return
	}

	setPreferencesCookie(w, body.PaymentMethod, strings.TrimSpace(body.PickupName), h.Config.PreferencesTTL)
	setDisplayCookie(w, session.CookieTheme, body.Theme, h.Config.PreferencesTTL)
	setDisplayCookie(w, session.CookieLanguage, body.Language, h.Config.PreferencesTTL)

	response.Success(w, map[string]any{
		"saved":      true,
		"expires_at": expiresAt,
	})
}

// PreferencesDelete clears saved preferences and expires the display cookies.
func (h *Handler) PreferencesDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sid := sessionID(r)

	if _, err := h.DB.Exec(ctx, `delete from payment_sessions where session_id = $1`, sid); err != nil {
		h.Logger.Error("preferences delete failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete preferences")
		return
	}

	for _, name := range []string{session.CookiePreferences, session.CookieTheme, session.CookieLanguage} {
		setDisplayCookie(w, name, "", -time.Second)
	}
	response.Success(w, map[string]any{"saved": false})
}

// setPreferencesCookie mirrors the opt-in row into the user_preferences
// cookie so the storefront can prefill checkout without a round trip. The
// database row stays authoritative.
func setPreferencesCookie(w http.ResponseWriter, method, pickupName string, ttl time.Duration) {
	payload, err := json.Marshal(map[string]string{
		"payment_method": method,
		"pickup_name":    pickupName,
	})
	if err != nil {
		return
	}
	setDisplayCookie(w, session.CookiePreferences, string(payload), ttl)
}

// Display cookies are readable by storefront scripts, so no HttpOnly. Values
// are cookie-escaped because theme/language come straight from user input.
func setDisplayCookie(w http.ResponseWriter, name, value string, ttl time.Duration) {
	if value == "" && ttl > 0 {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    url.QueryEscape(value),
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		SameSite: http.SameSiteLaxMode,
	})
}
