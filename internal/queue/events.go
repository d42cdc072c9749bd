package queue

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	EventsExchange = "cafe.events"
	EventsQueue    = "cafe.notifications"

	NotificationJobsExchange = "cafe.notification_jobs"
	NotificationJobsQueue    = "cafe.notification_jobs.process"
	NotificationJobsDLQ      = "cafe.notification_jobs.dlq"
	NotificationJobsRK       = "process"
	NotificationJobsDeadRK   = "dead"
)

const (
	EventOrderCreated       = "order.created"
	EventOrderStatusUpdated = "order.status.updated"
	EventPaymentSettled     = "payment.settled"
)

// OrderEvent is the envelope published to cafe.events for every order and
// payment state change. The routing key equals the Type field.
type OrderEvent struct {
	Type          string    `json:"type"`
	OrderID       int64     `json:"orderId"`
	OrderNumber   string    `json:"orderNumber"`
	SessionID     string    `json:"sessionId,omitempty"`
	Status        string    `json:"status,omitempty"`
	PaymentMethod string    `json:"paymentMethod,omitempty"`
	OccurredAt    time.Time `json:"occurredAt"`
}

func EnsureNotificationJobsTopology(ctx context.Context, qc *Client) error {
	if qc == nil {
		return nil
	}

	if err := qc.EnsureExchangeKind(NotificationJobsExchange, "direct"); err != nil {
		return err
	}

	if _, err := qc.EnsureQueue(NotificationJobsDLQ); err != nil {
		return err
	}
	if err := qc.BindQueue(NotificationJobsDLQ, NotificationJobsExchange, NotificationJobsDeadRK); err != nil {
		return err
	}

	_, err := qc.EnsureQueueWithArgs(NotificationJobsQueue, amqp.Table{
		"x-dead-letter-exchange":    NotificationJobsExchange,
		"x-dead-letter-routing-key": NotificationJobsDeadRK,
	})
	if err != nil {
		return err
	}
	return qc.BindQueue(NotificationJobsQueue, NotificationJobsExchange, NotificationJobsRK)
}

// PublishOrderEvent is best-effort: a dead broker must not fail the request
// that triggered the event.
func PublishOrderEvent(ctx context.Context, qc *Client, evt OrderEvent) error {
	if qc == nil {
		return nil
	}
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = time.Now()
	}
	return qc.PublishJSON(ctx, EventsExchange, evt.Type, evt)
}

type notificationJob struct {
	Kind        string `json:"kind"`
	OrderID     int64  `json:"orderId"`
	OrderNumber string `json:"orderNumber"`
	SessionID   string `json:"sessionId,omitempty"`
	Message     string `json:"message"`
}

// ProcessEventToJobs translates cafe.events messages into customer
// notification jobs: a row in notification_jobs plus a work item on the jobs
// queue. Only events a customer cares about produce a job.
func ProcessEventToJobs(ctx context.Context, db *pgxpool.Pool, qc *Client, body []byte) error {
	if db == nil || qc == nil {
		return nil
	}

	var evt OrderEvent
	if err := json.Unmarshal(body, &evt); err != nil {
		return err
	}
	if strings.TrimSpace(evt.Type) == "" {
		// unknown envelope, drop silently
		return nil
	}

	job, ok := jobForEvent(evt)
	if !ok {
		return nil
	}

	if _, err := db.Exec(ctx, `
		insert into notification_jobs (kind, order_id, order_number, session_id, message, created_at)
		values ($1, $2, $3, $4, $5, now())
	`, job.Kind, job.OrderID, job.OrderNumber, nullIfEmpty(job.SessionID), job.Message); err != nil {
		return err
	}

	return qc.PublishJSON(ctx, NotificationJobsExchange, NotificationJobsRK, job)
}

func jobForEvent(evt OrderEvent) (notificationJob, bool) {
	base := notificationJob{
		OrderID:     evt.OrderID,
		OrderNumber: evt.OrderNumber,
		SessionID:   evt.SessionID,
	}

	switch evt.Type {
	case EventOrderStatusUpdated:
		switch evt.Status {
		case "ready":
			base.Kind = "order_ready"
			base.Message = "주문하신 메뉴가 준비되었습니다."
			return base, true
		case "completed":
			base.Kind = "order_completed"
			base.Message = "주문이 완료되었습니다. 감사합니다."
			return base, true
		case "cancelled":
			base.Kind = "order_cancelled"
			base.Message = "주문이 취소되었습니다."
			return base, true
		}
	case EventPaymentSettled:
		base.Kind = "payment_settled"
		base.Message = "결제가 완료되었습니다."
		return base, true
	}
	return notificationJob{}, false
}

func nullIfEmpty(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}
