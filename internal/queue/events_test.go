package queue

import "testing"

func TestJobForEvent(t *testing.T) {
	cases := []struct {
		name string
		evt  OrderEvent
		kind string
		want bool
	}{
		{
			name: "order ready produces job",
			evt:  OrderEvent{Type: EventOrderStatusUpdated, Status: "ready", OrderID: 1, OrderNumber: "ORD-1"},
			kind: "order_ready",
			want: true,
		},
		{
			name: "order completed produces job",
			evt:  OrderEvent{Type: EventOrderStatusUpdated, Status: "completed"},
			kind: "order_completed",
			want: true,
		},
		{
			name: "order cancelled produces job",
			evt:  OrderEvent{Type: EventOrderStatusUpdated, Status: "cancelled"},
			kind: "order_cancelled",
			want: true,
		},
		{
			name: "payment settled produces job",
			evt:  OrderEvent{Type: EventPaymentSettled},
			kind: "payment_settled",
			want: true,
		},
		{
			name: "preparing is not customer-visible",
			evt:  OrderEvent{Type: EventOrderStatusUpdated, Status: "preparing"},
			want: false,
		},
		{
			name: "order created is not customer-visible",
			evt:  OrderEvent{Type: EventOrderCreated},
			want: false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			job, ok := jobForEvent(tc.evt)
			if ok != tc.want {
				t.Fatalf("ok = %v, want %v", ok, tc.want)
			}
			if ok && job.Kind != tc.kind {
				t.Fatalf("kind = %s, want %s", job.Kind, tc.kind)
			}
			if ok && job.Message == "" {
				t.Fatal("job message must not be empty")
			}
		})
	}
}
