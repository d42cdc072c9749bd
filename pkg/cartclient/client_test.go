package cartclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

type fakeCartServer struct {
	cart    Cart
	failAll bool
}

func (f *fakeCartServer) handler() http.Handler {
	mux := http.NewServeMux()
	writeCart := func(w http.ResponseWriter) {
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": f.cart})
	}
	mux.HandleFunc("GET /api/cart", func(w http.ResponseWriter, r *http.Request) {
		writeCart(w)
	})
	mux.HandleFunc("POST /api/cart", func(w http.ResponseWriter, r *http.Request) {
		if f.failAll {
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"success":false,"error":"MENU_UNAVAILABLE"}`))
			return
		}
		var body struct {
			MenuID   int64 `json:"menu_id"`
			Quantity int32 `json:"quantity"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.cart.Items = append(f.cart.Items, Item{
			ID:       int64(len(f.cart.Items) + 1),
			MenuID:   body.MenuID,
			Quantity: body.Quantity,
			Menu:     Menu{ID: body.MenuID, Name: "아메리카노", Price: 4500},
		})
		f.cart.TotalPrice += 4500 * int64(body.Quantity)
		f.cart.Version++
		writeCart(w)
	})
	mux.HandleFunc("DELETE /api/cart", func(w http.ResponseWriter, r *http.Request) {
		f.cart.Items = nil
		f.cart.TotalPrice = 0
		f.cart.Version++
		writeCart(w)
	})
	return mux
}

func TestAddToCartRefetches(t *testing.T) {
	srv := &fakeCartServer{cart: Cart{ID: 1, Version: 1}}
	ts := httptest.NewServer(srv.handler())
	defer ts.Close()

	c := New(ts.URL, "sess-1")
	if err := c.AddToCart(context.Background(), 7, 2, ""); err != nil {
		t.Fatalf("AddToCart: %v", err)
	}

	state := c.State()
	if state.Loading {
		t.Fatal("expected loading to be cleared")
	}
	if state.Err != "" {
		t.Fatalf("unexpected error %q", state.Err)
	}
	if state.Cart == nil || len(state.Cart.Items) != 1 {
		t.Fatalf("cart = %+v, want one item", state.Cart)
	}
	if state.Cart.TotalPrice != 9000 {
		t.Fatalf("total = %d, want 9000", state.Cart.TotalPrice)
	}
}

func TestFailedMutationKeepsPreviousCart(t *testing.T) {
	srv := &fakeCartServer{cart: Cart{ID: 1, Version: 1}}
	ts := httptest.NewServer(srv.handler())
	defer ts.Close()

	c := New(ts.URL, "sess-1")
	if err := c.AddToCart(context.Background(), 7, 1, ""); err != nil {
		t.Fatalf("AddToCart: %v", err)
	}
	before := c.State().Cart

	srv.failAll = true
	if err := c.AddToCart(context.Background(), 8, 1, ""); err == nil {
		t.Fatal("expected error from rejected mutation")
	}

	state := c.State()
	if state.Err == "" {
		t.Fatal("expected error message to be set")
	}
	if state.Cart == nil || state.Cart.Version != before.Version {
		t.Fatalf("cart changed after failed mutation: %+v", state.Cart)
	}
	if len(state.Cart.Items) != len(before.Items) {
		t.Fatalf("items changed after failed mutation")
	}
}

func TestStaleResponseDiscarded(t *testing.T) {
	c := New("http://unused", "sess-1")

	newer := &Cart{ID: 1, Version: 5, TotalPrice: 9000}
	older := &Cart{ID: 1, Version: 3, TotalPrice: 4500}

	c.applyCart(newer)
	c.applyCart(older)

	state := c.State()
	if state.Cart.Version != 5 {
		t.Fatalf("version = %d, want 5 (stale response must be discarded)", state.Cart.Version)
	}
	if state.Cart.TotalPrice != 9000 {
		t.Fatalf("total = %d, want 9000", state.Cart.TotalPrice)
	}
}

func TestClearCartIdempotent(t *testing.T) {
	srv := &fakeCartServer{cart: Cart{ID: 1, Version: 1}}
	ts := httptest.NewServer(srv.handler())
	defer ts.Close()

	c := New(ts.URL, "sess-1")
	if err := c.AddToCart(context.Background(), 7, 1, ""); err != nil {
		t.Fatalf("AddToCart: %v", err)
	}
	if err := c.ClearCart(context.Background()); err != nil {
		t.Fatalf("ClearCart: %v", err)
	}
	if err := c.ClearCart(context.Background()); err != nil {
		t.Fatalf("second ClearCart: %v", err)
	}

	state := c.State()
	if state.Err != "" {
		t.Fatalf("unexpected error %q", state.Err)
	}
	if len(state.Cart.Items) != 0 || state.Cart.TotalPrice != 0 {
		t.Fatalf("cart not empty after clear: %+v", state.Cart)
	}
}
