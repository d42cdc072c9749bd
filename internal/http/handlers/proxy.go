package handlers

import (
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"cafe-order-service/internal/session"
	"cafe-order-service/pkg/response"
)

// LegacyProxy forwards any route this service does not own to the legacy
// backend. The caller's session has already been validated by the session
// gate, so the upstream gets a trusted X-Session-ID header plus the cookie
// name it still expects. Upstream status and body pass through untouched.
func (h *Handler) LegacyProxy(w http.ResponseWriter, r *http.Request) {
	baseURL := strings.TrimSpace(h.Config.BackendBaseURL)
	if baseURL == "" {
		response.Localized(w, http.StatusBadGateway, "백엔드 서버에 연결할 수 없습니다.")
		return
	}

	target, err := url.Parse(baseURL)
	if err != nil || target.Scheme == "" || target.Host == "" {
		response.Localized(w, http.StatusBadGateway, "백엔드 서버에 연결할 수 없습니다.")
		return
	}

	sid := sessionID(r)

	proxy := httputil.NewSingleHostReverseProxy(target)
	proxy.Transport = h.backendTransport()
	proxy.ErrorHandler = func(rw http.ResponseWriter, req *http.Request, proxyErr error) {
		response.Localized(rw, http.StatusInternalServerError, "서버 오류가 발생했습니다.")
	}
	proxy.Director = func(req *http.Request) {
		req.URL.Scheme = target.Scheme
		req.URL.Host = target.Host
		if target.Path != "" && target.Path != "/" {
			trimmedBase := strings.TrimSuffix(target.Path, "/")
			req.URL.Path = trimmedBase + req.URL.Path
		}
		req.Host = target.Host

		req.Header.Set(session.HeaderSession, sid)
		req.AddCookie(&http.Cookie{Name: "session_id", Value: sid})
	}

	w.Header().Set("X-Cafe-Origin", "proxy")

	proxy.ServeHTTP(w, r)
}
