package httpapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cafe-order-service/internal/config"
	"cafe-order-service/internal/session"
	"cafe-order-service/internal/ws"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

func testRouter(t *testing.T) http.Handler {
	t.Helper()
	cfg := config.Config{
		Env:        "development",
		SessionTTL: time.Hour,
	}
	return NewRouter(Deps{
		Logger:   zap.NewNop(),
		Config:   cfg,
		Sessions: session.NewManager("router-test-secret", time.Hour),
		WS:       ws.New(nil, zap.NewNop(), cfg),
	})
}

// The order status stream upgrades through every global middleware, so each
// response wrapper in the chain has to pass http.Hijacker through.
func TestOrderStatusStreamUpgrades(t *testing.T) {
	server := httptest.NewServer(testRouter(t))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/orders/ORD-20260829-0001"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		t.Fatalf("websocket dial failed with status %d: %v", status, err)
	}
	defer conn.Close()

	if resp.StatusCode != http.StatusSwitchingProtocols {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusSwitchingProtocols)
	}
}

func TestHealthThroughMiddlewareChain(t *testing.T) {
	server := httptest.NewServer(testRouter(t))
	defer server.Close()

	resp, err := http.Get(server.URL + "/health")
	if err != nil {
		t.Fatalf("health request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}
