package handlers

import (
	"net/http"
	"sync"

	"cafe-order-service/internal/config"
	"cafe-order-service/internal/payments"
	"cafe-order-service/internal/queue"
	"cafe-order-service/internal/session"
	"cafe-order-service/internal/storage"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type Handler struct {
	DB        *pgxpool.Pool
	Logger    *zap.Logger
	Config    config.Config
	Queue     *queue.Client
	Sessions  *session.Manager
	Store     *storage.ObjectStore
	Providers map[payments.Method]payments.Provider

	proxyOnce      sync.Once
	proxyTransport http.RoundTripper
}

// backendTransport is shared across proxied requests so upstream connections
// get pooled, with PROXY_TIMEOUT bounding how long the backend may sit on a
// request before answering.
func (h *Handler) backendTransport() http.RoundTripper {
	h.proxyOnce.Do(func() {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		if h.Config.ProxyTimeout > 0 {
			transport.ResponseHeaderTimeout = h.Config.ProxyTimeout
		}
		h.proxyTransport = transport
	})
	return h.proxyTransport
}
