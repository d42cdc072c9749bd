package middleware

import (
	"context"
	"net/http"
	"time"

	"cafe-order-service/internal/session"
	"cafe-order-service/pkg/response"
)

type contextKey string

const sessionContextKey contextKey = "sessionContext"

// MsgInvalidSession is the storefront-facing message for a missing or
// unverifiable session. The storefront renders it verbatim.
const MsgInvalidSession = "세션이 유효하지 않습니다."

type SessionContext struct {
	SessionID string
	UserID    string
	Legacy    bool
}

func WithSessionContext(ctx context.Context, sc *SessionContext) context.Context {
	return context.WithValue(ctx, sessionContextKey, sc)
}

func GetSessionContext(ctx context.Context) (*SessionContext, bool) {
	value := ctx.Value(sessionContextKey)
	if value == nil {
		return nil, false
	}
	sc, ok := value.(*SessionContext)
	return sc, ok
}

// SessionAuth gates a route group on a resolvable session token. Legacy bare
// ids are accepted and upgraded in place: the response carries a fresh signed
// cookie and the old cookie names are expired.
func SessionAuth(manager *session.Manager, sessionTTL time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, _ := session.TokenFromRequest(r)
			if raw == "" {
				response.Localized(w, http.StatusUnauthorized, MsgInvalidSession)
				return
			}

			sid, legacy, err := manager.Resolve(raw)
			if err != nil {
				response.Localized(w, http.StatusUnauthorized, MsgInvalidSession)
				return
			}

			if legacy {
				if token, err := manager.Issue(sid); err == nil {
					session.SetSessionCookie(w, token, sessionTTL)
					session.ClearLegacyCookies(w)
				}
			}

			sc := &SessionContext{
				SessionID: sid,
				UserID:    session.UserIDFromRequest(r),
				Legacy:    legacy,
			}
			next.ServeHTTP(w, r.WithContext(WithSessionContext(r.Context(), sc)))
		})
	}
}
