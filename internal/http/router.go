package httpapi

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"time"

	"cafe-order-service/internal/config"
	"cafe-order-service/internal/http/handlers"
	"cafe-order-service/internal/middleware"
	"cafe-order-service/internal/payments"
	"cafe-order-service/internal/queue"
	"cafe-order-service/internal/session"
	"cafe-order-service/internal/storage"
	"cafe-order-service/internal/ws"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type Deps struct {
	DB        *pgxpool.Pool
	Logger    *zap.Logger
	Config    config.Config
	Queue     *queue.Client
	Sessions  *session.Manager
	Store     *storage.ObjectStore
	Providers map[payments.Method]payments.Provider
	WS        *ws.Server
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config

	r := chi.NewRouter()
	r.Use(requestLogger(deps.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Telemetry(deps.Logger))

	if cfg.Env == "development" || len(cfg.CorsAllowedOrigins) > 0 {
		options := cors.Options{
			AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{
				"Accept",
				"Authorization",
				"Content-Type",
				"X-Requested-With",
				"X-Session-ID",
				"Cache-Control",
				"Pragma",
			},
			AllowCredentials: true,
			MaxAge:           300,
		}
		if cfg.Env == "development" {
			options.AllowOriginFunc = func(_ *http.Request, origin string) bool {
				return true
			}
		} else {
			options.AllowedOrigins = cfg.CorsAllowedOrigins
		}
		r.Use(cors.Handler(options))
	}

	h := &handlers.Handler{
		DB:        deps.DB,
		Logger:    deps.Logger,
		Config:    cfg,
		Queue:     deps.Queue,
		Sessions:  deps.Sessions,
		Store:     deps.Store,
		Providers: deps.Providers,
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// Routes a browser can reach without an established session: the
	// identify bootstrap and the provider redirect callbacks, which carry
	// their context in the query string.
	r.Get("/api/user/identify", h.UserIdentify)
	r.Get("/api/menus", h.MenuList)
	r.Get("/api/payments/kakao/callback/{kind}", h.KakaoCallback)
	r.Get("/api/payments/naver/callback", h.NaverCallback)

	r.Group(func(r chi.Router) {
		r.Use(middleware.SessionAuth(deps.Sessions, cfg.SessionTTL))

		r.Post("/api/user/session/regenerate", h.UserSessionRegenerate)
		r.Post("/api/user/reset", h.UserReset)

		r.Get("/api/cart", h.CartGet)
		r.Post("/api/cart", h.CartAddItem)
		r.Delete("/api/cart", h.CartClear)
		r.Put("/api/cart/items/{id}", h.CartUpdateItem)
		r.Delete("/api/cart/items/{id}", h.CartRemoveItem)

		r.Post("/api/order", h.OrderCreate)
		r.Get("/api/payments/orders/{id}", h.PaymentOrderGet)
		r.Post("/api/payments/{method}/create", h.PaymentCreate)
		r.Post("/api/payments/kakao/complete", h.KakaoComplete)

		r.Get("/api/preferences", h.PreferencesGet)
		r.Put("/api/preferences", h.PreferencesPut)
		r.Delete("/api/preferences", h.PreferencesDelete)

		// Anything else under a valid session belongs to the legacy
		// backend until it is migrated here.
		r.NotFound(h.LegacyProxy)
		r.MethodNotAllowed(h.LegacyProxy)
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(middleware.AdminAuth(cfg.AdminAPIToken))

		r.Get("/menus", h.AdminMenuList)
		r.Post("/menus", h.AdminMenuCreate)
		r.Put("/menus/{id}", h.AdminMenuUpdate)
		r.Delete("/menus/{id}", h.AdminMenuDelete)
		r.Post("/menus/{id}/restore", h.AdminMenuRestore)
		r.Post("/menus/{id}/image", h.AdminMenuImageUpload)
		r.Delete("/menus/{id}/image", h.AdminMenuImageDelete)

		r.Get("/orders", h.AdminOrderList)
		r.Get("/orders/{id}", h.AdminOrderDetail)
		r.Patch("/orders/{id}/status", h.AdminOrderStatusUpdate)
		r.Get("/orders/{id}/receipt", h.AdminOrderReceipt)

		r.Get("/sales/summary", h.AdminSalesSummary)
	})

	if deps.WS != nil {
		r.Get("/ws/orders/{orderNumber}", deps.WS.OrderStatusWS)
	}

	return r
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	return hj.Hijack()
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			logger.Info("",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.status),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}
