package payments

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestKakaoCreate(t *testing.T) {
	var gotAuth, gotOrder string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/payment/ready" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		gotAuth = r.Header.Get("Authorization")
		gotOrder = r.PostForm.Get("partner_order_id")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"tid":"T9999","next_redirect_pc_url":"https://pay.example/redirect"}`))
	}))
	defer server.Close()

	k := NewKakao("admin-key", "TC0ONETIME", "https://cafe.example", 5*time.Second).WithBaseURL(server.URL)
	redirect, err := k.Create(context.Background(), CreateRequest{
		OrderNumber: "ORD-1",
		SessionID:   "sess-1",
		ItemName:    "아메리카노 외 2건",
		Quantity:    3,
		Amount:      12500,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if redirect.TID != "T9999" || redirect.URL != "https://pay.example/redirect" {
		t.Fatalf("unexpected redirect: %+v", redirect)
	}
	if gotAuth != "KakaoAK admin-key" {
		t.Fatalf("unexpected auth header %q", gotAuth)
	}
	if gotOrder != "ORD-1" {
		t.Fatalf("unexpected partner_order_id %q", gotOrder)
	}
}

func TestKakaoApproveProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	k := NewKakao("admin-key", "TC0ONETIME", "https://cafe.example", 5*time.Second).WithBaseURL(server.URL)
	_, err := k.Approve(context.Background(), ApproveRequest{TID: "T1", PGToken: "tok", OrderNumber: "ORD-1"})
	if err == nil {
		t.Fatal("expected provider error")
	}
}
