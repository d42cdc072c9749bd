package handlers

import (
	"net/http"
	"time"

	"cafe-order-service/internal/session"
	"cafe-order-service/pkg/response"

	"go.uber.org/zap"
)

// UserIdentify backs the storefront's first-load handshake: it guarantees
// both identity cookies exist and returns the ids. Calling it twice without
// a reset hands back the same session.
func (h *Handler) UserIdentify(w http.ResponseWriter, r *http.Request) {
	userID := session.UserIDFromRequest(r)
	if userID == "" {
		userID = session.NewID()
		session.SetUserCookie(w, userID, h.Config.UserCookieTTL)
	}

	sid := ""
	if raw, _ := session.TokenFromRequest(r); raw != "" {
		if resolved, legacy, err := h.Sessions.Resolve(raw); err == nil {
			sid = resolved
			if legacy {
				if token, err := h.Sessions.Issue(sid); err == nil {
					session.SetSessionCookie(w, token, h.Config.SessionTTL)
					session.ClearLegacyCookies(w)
				}
			}
		}
	}
	if sid == "" {
		var err error
		sid, err = h.issueSession(w)
		if err != nil {
			h.Logger.Error("session issue failed", zap.Error(err))
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create session")
			return
		}
	}

	response.Success(w, map[string]string{
		"user_id":    userID,
		"session_id": sid,
	})
}

// UserSessionRegenerate abandons the current session id and issues a fresh
// one. The cart tied to the old session is orphaned on purpose.
func (h *Handler) UserSessionRegenerate(w http.ResponseWriter, r *http.Request) {
	sid, err := h.issueSession(w)
	if err != nil {
		h.Logger.Error("session regenerate failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create session")
		return
	}
	response.Success(w, map[string]string{"session_id": sid})
}

// UserReset drops both identity cookies; the next identify call produces a
// brand new visitor.
func (h *Handler) UserReset(w http.ResponseWriter, r *http.Request) {
	session.SetUserCookie(w, "", -time.Second)
	session.SetSessionCookie(w, "", -time.Second)
	session.ClearLegacyCookies(w)
	response.Success(w, map[string]bool{"reset": true})
}

func (h *Handler) issueSession(w http.ResponseWriter) (string, error) {
	sid := session.NewID()
	token, err := h.Sessions.Issue(sid)
	if err != nil {
		return "", err
	}
	session.SetSessionCookie(w, token, h.Config.SessionTTL)
	return sid, nil
}
