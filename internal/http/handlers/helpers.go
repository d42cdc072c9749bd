package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"cafe-order-service/internal/middleware"
	"cafe-order-service/internal/queue"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

var errMissingParam = errors.New("missing param")

func readPathString(r *http.Request, key string) string {
	return chi.URLParam(r, key)
}

func readPathInt64(r *http.Request, key string) (int64, error) {
	value := readPathString(r, key)
	if value == "" {
		return 0, errMissingParam
	}
	var out int64
	_, err := fmt.Sscan(value, &out)
	return out, err
}

func sessionID(r *http.Request) string {
	if sc, ok := middleware.GetSessionContext(r.Context()); ok {
		return sc.SessionID
	}
	return ""
}

func nullIfEmpty(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}

// publishEvent is best-effort; broker trouble is logged, never surfaced.
func (h *Handler) publishEvent(ctx context.Context, evt queue.OrderEvent) {
	if err := queue.PublishOrderEvent(ctx, h.Queue, evt); err != nil {
		h.Logger.Warn("event publish failed",
			zap.String("type", evt.Type),
			zap.String("orderNumber", evt.OrderNumber),
			zap.Error(err))
	}
}
