package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"cafe-order-service/internal/orders"
	"cafe-order-service/internal/payments"
	"cafe-order-service/internal/queue"
	"cafe-order-service/pkg/response"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"go.uber.org/zap"
)

// OrderCreate snapshots the session's cart into an immutable order, clears
// the cart, and opens a payment row in the idle state. The redirect to the
// provider happens in the payment create call that follows.
func (h *Handler) OrderCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sid := sessionID(r)

	var body struct {
		PickupName      string `json:"pickup_name"`
		PickupTime      string `json:"pickup_time"`
		PaymentMethod   string `json:"payment_method"`
		SavePreferences bool   `json:"save_preferences"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	body.PickupName = strings.TrimSpace(body.PickupName)
	if body.PickupName == "" {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "픽업 이름을 입력해주세요.")
		return
	}
	method, err := payments.ParseMethod(body.PaymentMethod)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "지원하지 않는 결제 수단입니다.")
		return
	}

	cart, err := h.fetchCart(ctx, sid)
	if err != nil {
		h.Logger.Error("cart fetch failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "주문 생성에 실패했습니다.")
		return
	}
	if len(cart.Items) == 0 {
		response.Error(w, http.StatusBadRequest, "CART_EMPTY", "장바구니가 비어 있습니다.")
		return
	}

	tx, err := h.DB.Begin(ctx)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "주문 생성에 실패했습니다.")
		return
	}
	defer tx.Rollback(ctx)

	now := time.Now()

	order := Order{
		OrderNumber:   orders.NewOrderNumber(now),
		Status:        string(orders.StatusPending),
		PickupName:    body.PickupName,
		TotalAmount:   cart.TotalPrice,
		PaymentMethod: string(method),
		CreatedAt:     now,
	}
	if strings.TrimSpace(body.PickupTime) != "" {
		value := strings.TrimSpace(body.PickupTime)
		order.PickupTime = &value
	}

	if err := insertOrderRow(ctx, tx, &order, sid, nullIfEmpty(body.PickupTime), now); err != nil {
		h.Logger.Error("order insert failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "주문 생성에 실패했습니다.")
		return
	}

	for _, item := range cart.Items {
		var special any
		if item.SpecialRequests != nil {
			special = *item.SpecialRequests
		}
		oi := OrderItem{
			MenuID:    item.MenuID,
			MenuName:  item.Menu.Name,
			MenuPrice: item.Menu.Price,
			Quantity:  item.Quantity,
			Subtotal:  item.Menu.Price * int64(item.Quantity),
		}
		if err := tx.QueryRow(ctx, `
			insert into order_items (order_id, menu_id, menu_name, menu_price, quantity, subtotal, special_requests)
			values ($1, $2, $3, $4, $5, $6, $7)
			returning id
		`, order.ID, oi.MenuID, oi.MenuName, oi.MenuPrice, oi.Quantity, oi.Subtotal, special).Scan(&oi.ID); err != nil {
			h.Logger.Error("order item insert failed", zap.Error(err))
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "주문 생성에 실패했습니다.")
			return
		}
		oi.SpecialRequests = item.SpecialRequests
		order.OrderItems = append(order.OrderItems, oi)
	}

	if _, err := tx.Exec(ctx, `
		insert into payments (order_id, method, state, amount, created_at, updated_at)
		values ($1, $2, $3, $4, $5, $5)
	`, order.ID, order.PaymentMethod, string(payments.StateIdle), order.TotalAmount, now); err != nil {
		h.Logger.Error("payment insert failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "주문 생성에 실패했습니다.")
		return
	}

	// The cart empties as part of the same transaction; the storefront's
	// next fetch sees a fresh cart.
	if cart.ID != 0 {
		if _, err := tx.Exec(ctx, `delete from cart_items where cart_id = $1`, cart.ID); err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "주문 생성에 실패했습니다.")
			return
		}
		if err := bumpCartVersion(ctx, tx, cart.ID); err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "주문 생성에 실패했습니다.")
			return
		}
	}

	if body.SavePreferences {
		if _, err := tx.Exec(ctx, `
			insert into payment_sessions (session_id, pickup_name, pickup_time, payment_method, expires_at, updated_at)
			values ($1, $2, $3, $4, $5, now())
			on conflict (session_id) do update
			set pickup_name = excluded.pickup_name,
			    pickup_time = excluded.pickup_time,
			    payment_method = excluded.payment_method,
			    expires_at = excluded.expires_at,
			    updated_at = now()
		`, sid, order.PickupName, nullIfEmpty(body.PickupTime), order.PaymentMethod, now.Add(h.Config.PreferencesTTL)); err != nil {
			h.Logger.Warn("payment session save failed", zap.Error(err))
		} else {
			setPreferencesCookie(w, order.PaymentMethod, order.PickupName, h.Config.PreferencesTTL)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "주문 생성에 실패했습니다.")
		return
	}

	h.publishEvent(ctx, queue.OrderEvent{
		Type:          queue.EventOrderCreated,
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		SessionID:     sid,
		Status:        order.Status,
		PaymentMethod: order.PaymentMethod,
	})

	response.JSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"data":    order,
	})
}

// insertOrderRow retries with a fresh order number when the random tail
// collides with an order placed the same day. The savepoint keeps the
// surrounding transaction usable after a unique violation.
func insertOrderRow(ctx context.Context, tx pgx.Tx, order *Order, sid string, pickupTime any, now time.Time) error {
	var err error
	for attempt := 0; attempt < 5; attempt++ {
		if _, err = tx.Exec(ctx, `savepoint order_insert`); err != nil {
			return err
		}
		err = tx.QueryRow(ctx, `
			insert into orders (order_number, session_id, status, pickup_name, pickup_time, total_amount, payment_method, created_at, updated_at)
			values ($1, $2, $3, $4, $5, $6, $7, $8, $8)
			returning id
		`, order.OrderNumber, sid, order.Status, order.PickupName, pickupTime, order.TotalAmount, order.PaymentMethod, now).Scan(&order.ID)
		if err == nil {
			return nil
		}
		if !isUniqueViolation(err) {
			return err
		}
		if _, rbErr := tx.Exec(ctx, `rollback to savepoint order_insert`); rbErr != nil {
			return rbErr
		}
		order.OrderNumber = orders.NewOrderNumber(now)
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

// PaymentOrderGet backs the payment result page: order plus payment state.
func (h *Handler) PaymentOrderGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orderID, err := readPathInt64(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid order id")
		return
	}

	order, payment, err := h.fetchOrderWithPayment(ctx, orderID, sessionID(r))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.Error(w, http.StatusNotFound, "ORDER_NOT_FOUND", "주문을 찾을 수 없습니다.")
			return
		}
		h.Logger.Error("order fetch failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "주문을 불러오지 못했습니다.")
		return
	}

	response.Success(w, map[string]any{
		"order":   order,
		"payment": payment,
	})
}

func (h *Handler) fetchOrderWithPayment(ctx context.Context, orderID int64, sid string) (*Order, *PaymentStatus, error) {
	order := &Order{}
	var pickupTime pgtype.Text

	if err := h.DB.QueryRow(ctx, `
		select id, order_number, status, pickup_name, pickup_time, total_amount, payment_method, created_at
		from orders
		where id = $1 and session_id = $2
	`, orderID, sid).Scan(
		&order.ID, &order.OrderNumber, &order.Status, &order.PickupName,
		&pickupTime, &order.TotalAmount, &order.PaymentMethod, &order.CreatedAt,
	); err != nil {
		return nil, nil, err
	}
	if pickupTime.Valid {
		value := pickupTime.String
		order.PickupTime = &value
	}

	rows, err := h.DB.Query(ctx, `
		select id, menu_id, menu_name, menu_price, quantity, subtotal, special_requests
		from order_items
		where order_id = $1
		order by id
	`, order.ID)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var oi OrderItem
		var special pgtype.Text
		if err := rows.Scan(&oi.ID, &oi.MenuID, &oi.MenuName, &oi.MenuPrice, &oi.Quantity, &oi.Subtotal, &special); err != nil {
			return nil, nil, err
		}
		if special.Valid {
			value := special.String
			oi.SpecialRequests = &value
		}
		order.OrderItems = append(order.OrderItems, oi)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	payment := &PaymentStatus{}
	var category pgtype.Text
	var approvedAt pgtype.Timestamptz
	if err := h.DB.QueryRow(ctx, `
		select state, failure_category, approved_at
		from payments
		where order_id = $1
	`, order.ID).Scan(&payment.State, &category, &approvedAt); err != nil {
		return nil, nil, err
	}
	if category.Valid {
		value := category.String
		payment.FailureCategory = &value
		msg := payments.FailureCategory(value).Message()
		payment.FailureMessage = &msg
	}
	if approvedAt.Valid {
		value := approvedAt.Time
		payment.ApprovedAt = &value
	}

	return order, payment, nil
}
