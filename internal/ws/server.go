package ws

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"cafe-order-service/internal/config"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Server streams order status changes to the storefront's order result page,
// replacing its reload-to-refresh loop. Each connection polls the order row
// at the configured interval and pushes only when something changed.
type Server struct {
	DB     *pgxpool.Pool
	Logger *zap.Logger
	Config config.Config
}

func New(db *pgxpool.Pool, logger *zap.Logger, cfg config.Config) *Server {
	return &Server{DB: db, Logger: logger, Config: cfg}
}

type wsClient struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (c *wsClient) writeJSON(value any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(value)
}

func (c *wsClient) ping() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
}

type orderStatusMessage struct {
	Type          string    `json:"type"`
	OrderNumber   string    `json:"orderNumber"`
	Status        string    `json:"status"`
	PaymentStatus string    `json:"paymentStatus,omitempty"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (s *Server) OrderStatusWS(w http.ResponseWriter, r *http.Request) {
	orderNumber := strings.TrimSpace(chi.URLParam(r, "orderNumber"))
	if orderNumber == "" {
		http.Error(w, "order number required", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.Logger.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	client := &wsClient{conn: conn}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Reader goroutine only detects close; clients never send payloads.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	pollInterval := s.Config.WSOrderPollInterval
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	heartbeat := s.Config.WSHeartbeatInterval
	if heartbeat <= 0 {
		heartbeat = 30 * time.Second
	}

	poll := time.NewTicker(pollInterval)
	defer poll.Stop()
	pinger := time.NewTicker(heartbeat)
	defer pinger.Stop()

	var lastStatus, lastPayment string
	push := func() bool {
		msg, ok := s.fetchOrderStatus(ctx, orderNumber)
		if !ok {
			return true
		}
		if msg.Status == lastStatus && msg.PaymentStatus == lastPayment {
			return true
		}
		lastStatus = msg.Status
		lastPayment = msg.PaymentStatus
		if err := client.writeJSON(msg); err != nil {
			return false
		}
		// nothing left to push once the order settles
		return msg.Status != "completed" && msg.Status != "cancelled"
	}

	if !push() {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-poll.C:
			if !push() {
				return
			}
		case <-pinger.C:
			if err := client.ping(); err != nil {
				return
			}
		}
	}
}

func (s *Server) fetchOrderStatus(ctx context.Context, orderNumber string) (orderStatusMessage, bool) {
	if s.DB == nil {
		return orderStatusMessage{}, false
	}
	var msg orderStatusMessage
	err := s.DB.QueryRow(ctx, `
		select o.status, coalesce(p.state, ''), o.updated_at
		from orders o
		left join payments p on p.order_id = o.id
		where o.order_number = $1
	`, orderNumber).Scan(&msg.Status, &msg.PaymentStatus, &msg.UpdatedAt)
	if err != nil {
		return orderStatusMessage{}, false
	}
	msg.Type = "order.status"
	msg.OrderNumber = orderNumber
	return msg, true
}
