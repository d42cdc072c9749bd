package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"cafe-order-service/internal/orders"
	"cafe-order-service/internal/queue"
	"cafe-order-service/internal/utils"
	"cafe-order-service/pkg/response"

	"github.com/jackc/pgx/v5/pgtype"
	"go.uber.org/zap"
)

type adminOrder struct {
	ID            int64       `json:"id"`
	OrderNumber   string      `json:"order_number"`
	Status        string      `json:"status"`
	PickupName    string      `json:"pickup_name"`
	PickupTime    *string     `json:"pickup_time,omitempty"`
	TotalAmount   int64       `json:"total_amount"`
	PaymentMethod string      `json:"payment_method"`
	PaymentState  string      `json:"payment_state"`
	ItemCount     int64       `json:"item_count"`
	OrderItems    []OrderItem `json:"order_items,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
}

// AdminOrderList lists orders for the counter display, newest first.
// ?status= filters by order status, ?date=YYYY-MM-DD filters by store-local
// day, default today.
func (h *Handler) AdminOrderList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status := strings.TrimSpace(r.URL.Query().Get("status"))
	if status != "" && !orders.Status(status).Valid() {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Unknown status")
		return
	}

	day := utils.StoreDay(time.Now())
	if raw := strings.TrimSpace(r.URL.Query().Get("date")); raw != "" {
		parsed, err := time.ParseInLocation("2006-01-02", raw, utils.StoreLocation())
		if err != nil {
			response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid date, want YYYY-MM-DD")
			return
		}
		day = parsed
	}
	dayEnd := day.AddDate(0, 0, 1)

	query := `
		select o.id, o.order_number, o.status, o.pickup_name, o.pickup_time,
		       o.total_amount, o.payment_method, p.state,
		       (select count(*) from order_items where order_id = o.id),
		       o.created_at
		from orders o
		join payments p on p.order_id = o.id
		where o.created_at >= $1 and o.created_at < $2`
	args := []any{day, dayEnd}
	if status != "" {
		query += ` and o.status = $3`
		args = append(args, status)
	}
	query += ` order by o.created_at desc`

	rows, err := h.DB.Query(ctx, query, args...)
	if err != nil {
		h.Logger.Error("admin order list failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to retrieve orders")
		return
	}
	defer rows.Close()

	list := []adminOrder{}
	for rows.Next() {
		var o adminOrder
		var pickupTime pgtype.Text
		if err := rows.Scan(&o.ID, &o.OrderNumber, &o.Status, &o.PickupName, &pickupTime,
			&o.TotalAmount, &o.PaymentMethod, &o.PaymentState, &o.ItemCount, &o.CreatedAt); err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to retrieve orders")
			return
		}
		if pickupTime.Valid {
			value := pickupTime.String
			o.PickupTime = &value
		}
		list = append(list, o)
	}
	if err := rows.Err(); err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to retrieve orders")
		return
	}
	response.Success(w, list)
}

func (h *Handler) AdminOrderDetail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	orderID, err := readPathInt64(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid order id")
		return
	}

	var o adminOrder
	var pickupTime pgtype.Text
	if err := h.DB.QueryRow(ctx, `
		select o.id, o.order_number, o.status, o.pickup_name, o.pickup_time,
		       o.total_amount, o.payment_method, p.state, o.created_at
		from orders o
		join payments p on p.order_id = o.id
		where o.id = $1
	`, orderID).Scan(&o.ID, &o.OrderNumber, &o.Status, &o.PickupName, &pickupTime,
		&o.TotalAmount, &o.PaymentMethod, &o.PaymentState, &o.CreatedAt); err != nil {
		response.Error(w, http.StatusNotFound, "ORDER_NOT_FOUND", "Order not found")
		return
	}
	if pickupTime.Valid {
		value := pickupTime.String
		o.PickupTime = &value
	}

	rows, err := h.DB.Query(ctx, `
		select id, menu_id, menu_name, menu_price, quantity, subtotal, special_requests
		from order_items where order_id = $1 order by id
	`, o.ID)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to retrieve order")
		return
	}
	defer rows.Close()

	for rows.Next() {
		var oi OrderItem
		var special pgtype.Text
		if err := rows.Scan(&oi.ID, &oi.MenuID, &oi.MenuName, &oi.MenuPrice, &oi.Quantity, &oi.Subtotal, &special); err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to retrieve order")
			return
		}
		if special.Valid {
			value := special.String
			oi.SpecialRequests = &value
		}
		o.OrderItems = append(o.OrderItems, oi)
	}
	o.ItemCount = int64(len(o.OrderItems))

	response.Success(w, o)
}

// AdminOrderStatusUpdate moves an order along pending, preparing, ready,
// completed; cancel is allowed from any non-terminal state. Illegal jumps
// are rejected.
func (h *Handler) AdminOrderStatusUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	orderID, err := readPathInt64(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid order id")
		return
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	next := orders.Status(strings.TrimSpace(body.Status))
	if !next.Valid() {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Unknown status")
		return
	}

	var (
		current     string
		orderNumber string
		sid         string
	)
	if err := h.DB.QueryRow(ctx, `
		select status, order_number, session_id from orders where id = $1
	`, orderID).Scan(&current, &orderNumber, &sid); err != nil {
		response.Error(w, http.StatusNotFound, "ORDER_NOT_FOUND", "Order not found")
		return
	}

	if !orders.CanTransition(orders.Status(current), next) {
		response.Error(w, http.StatusConflict, "INVALID_TRANSITION", "Cannot move "+current+" to "+string(next))
		return
	}

	if _, err := h.DB.Exec(ctx, `
		update orders set status = $1, updated_at = now() where id = $2
	`, string(next), orderID); err != nil {
		h.Logger.Error("order status update failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update status")
		return
	}

	h.publishEvent(ctx, queue.OrderEvent{
		Type:        queue.EventOrderStatusUpdated,
		OrderID:     orderID,
		OrderNumber: orderNumber,
		SessionID:   sid,
		Status:      string(next),
	})

	response.Success(w, map[string]any{
		"id":     orderID,
		"status": string(next),
	})
}
