package orders

import (
	"strings"
	"testing"
	"time"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		name    string
		from    Status
		to      Status
		allowed bool
	}{
		{name: "pending to preparing", from: StatusPending, to: StatusPreparing, allowed: true},
		{name: "preparing to ready", from: StatusPreparing, to: StatusReady, allowed: true},
		{name: "ready to completed", from: StatusReady, to: StatusCompleted, allowed: true},
		{name: "pending to cancelled", from: StatusPending, to: StatusCancelled, allowed: true},
		{name: "ready to cancelled", from: StatusReady, to: StatusCancelled, allowed: true},
		{name: "pending skips to ready", from: StatusPending, to: StatusReady, allowed: false},
		{name: "completed is terminal", from: StatusCompleted, to: StatusCancelled, allowed: false},
		{name: "cancelled is terminal", from: StatusCancelled, to: StatusPending, allowed: false},
		{name: "no backwards move", from: StatusReady, to: StatusPreparing, allowed: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CanTransition(tc.from, tc.to); got != tc.allowed {
				t.Fatalf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.allowed)
			}
		})
	}
}

func TestStatusValid(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusPreparing, StatusReady, StatusCompleted, StatusCancelled} {
		if !s.Valid() {
			t.Fatalf("expected %s to be valid", s)
		}
	}
	if Status("shipped").Valid() {
		t.Fatal("expected unknown status to be invalid")
	}
}

func TestNewOrderNumber(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	number := NewOrderNumber(now)
	if !strings.HasPrefix(number, "ORD-20260829-") {
		t.Fatalf("unexpected order number %s", number)
	}
	if len(number) != len("ORD-20260829-0000") {
		t.Fatalf("unexpected order number length: %s", number)
	}
}
