package queue

import (
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
)

func TestRetryCountHeaderWidths(t *testing.T) {
	cases := []struct {
		name    string
		headers amqp.Table
		want    int
	}{
		{name: "nil table", headers: nil, want: 0},
		{name: "missing header", headers: amqp.Table{}, want: 0},
		{name: "int32", headers: amqp.Table{retryHeader: int32(2)}, want: 2},
		{name: "int64", headers: amqp.Table{retryHeader: int64(3)}, want: 3},
		{name: "int", headers: amqp.Table{retryHeader: 4}, want: 4},
		{name: "wrong type", headers: amqp.Table{retryHeader: "5"}, want: 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := retryCount(tc.headers); got != tc.want {
				t.Fatalf("retryCount = %d, want %d", got, tc.want)
			}
		})
	}
}
