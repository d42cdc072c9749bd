package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"cafe-order-service/internal/payments"
	"cafe-order-service/internal/queue"
	"cafe-order-service/pkg/response"

	"github.com/jackc/pgx/v5/pgtype"
	"go.uber.org/zap"
)

// PaymentCreate asks the chosen provider for a hosted checkout URL and moves
// the payment into the redirected state. The browser is sent to the returned
// URL; control comes back through the provider's callback.
func (h *Handler) PaymentCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sid := sessionID(r)

	method, err := payments.ParseMethod(readPathString(r, "method"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "지원하지 않는 결제 수단입니다.")
		return
	}
	provider, ok := h.Providers[method]
	if !ok {
		response.Error(w, http.StatusServiceUnavailable, "PROVIDER_UNAVAILABLE", "결제 수단을 사용할 수 없습니다.")
		return
	}

	var body struct {
		OrderID int64 `json:"order_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.OrderID <= 0 {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "order_id is required")
		return
	}

	var (
		orderNumber string
		amount      int64
		state       string
		itemName    pgtype.Text
		itemCount   int64
	)
	if err := h.DB.QueryRow(ctx, `
		select o.order_number, o.total_amount, p.state,
		       (select min(menu_name) from order_items where order_id = o.id),
		       (select count(*) from order_items where order_id = o.id)
		from orders o
		join payments p on p.order_id = o.id
		where o.id = $1 and o.session_id = $2
	`, body.OrderID, sid).Scan(&orderNumber, &amount, &state, &itemName, &itemCount); err != nil {
		response.Error(w, http.StatusNotFound, "ORDER_NOT_FOUND", "주문을 찾을 수 없습니다.")
		return
	}

	if state != string(payments.StateIdle) && state != string(payments.StateRedirected) {
		response.Error(w, http.StatusConflict, "PAYMENT_ALREADY_SETTLED", "이미 처리된 결제입니다.")
		return
	}

	name := "주문 상품"
	if itemName.Valid {
		name = itemName.String
		if itemCount > 1 {
			name = name + " 외"
		}
	}

	redirect, err := provider.Create(ctx, payments.CreateRequest{
		OrderID:     body.OrderID,
		OrderNumber: orderNumber,
		SessionID:   sid,
		ItemName:    name,
		Quantity:    int32(itemCount),
		Amount:      amount,
	})
	if err != nil {
		h.Logger.Error("payment create failed",
			zap.String("method", string(method)),
			zap.String("orderNumber", orderNumber),
			zap.Error(err))
		response.Error(w, http.StatusBadGateway, "PROVIDER_ERROR", "결제 요청에 실패했습니다.")
		return
	}

	if _, err := h.DB.Exec(ctx, `
		update payments
		set state = $1, provider_tid = $2, updated_at = now()
		where order_id = $3
	`, string(payments.StateRedirected), redirect.TID, body.OrderID); err != nil {
		h.Logger.Error("payment update failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "결제 요청에 실패했습니다.")
		return
	}

	response.Success(w, map[string]any{
		"order_id":     body.OrderID,
		"order_number": orderNumber,
		"tid":          redirect.TID,
		"redirect_url": redirect.URL,
	})
}

// KakaoComplete finalizes a Kakao payment. The storefront result page posts
// back the tid it kept from create plus the pg_token Kakao appended to the
// approval redirect.
func (h *Handler) KakaoComplete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sid := sessionID(r)

	values := r.URL.Query()
	var body struct {
		TID     string `json:"tid"`
		PGToken string `json:"pg_token"`
		OrderID string `json:"order_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && err != io.EOF {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if body.TID != "" {
		values.Set("tid", body.TID)
	}
	if body.PGToken != "" {
		values.Set("pg_token", body.PGToken)
	}
	if body.OrderID != "" {
		values.Set("order_id", body.OrderID)
	}

	result := payments.ReconcileKakao(payments.KakaoCallbackSuccess, values)
	if result.Approve == nil {
		response.Error(w, http.StatusBadRequest, string(result.Category), result.Category.Message())
		return
	}

	provider, ok := h.Providers[payments.MethodKakao]
	if !ok {
		response.Error(w, http.StatusServiceUnavailable, "PROVIDER_UNAVAILABLE", "결제 수단을 사용할 수 없습니다.")
		return
	}

	var (
		orderID int64
		amount  int64
		state   string
		tid     pgtype.Text
	)
	if err := h.DB.QueryRow(ctx, `
		select o.id, p.amount, p.state, p.provider_tid
		from orders o
		join payments p on p.order_id = o.id
		where o.order_number = $1 and o.session_id = $2
	`, result.Approve.OrderNumber, sid).Scan(&orderID, &amount, &state, &tid); err != nil {
		response.Error(w, http.StatusNotFound, "ORDER_NOT_FOUND", "주문을 찾을 수 없습니다.")
		return
	}

	// Replaying a settled payment is a no-op success.
	if state == string(payments.StateApproved) {
		response.Success(w, map[string]any{"order_id": orderID, "state": state})
		return
	}
	if !tid.Valid || tid.String != result.Approve.TID {
		response.Error(w, http.StatusBadRequest, string(payments.FailureMissingInfo), payments.FailureMissingInfo.Message())
		return
	}

	approve := *result.Approve
	approve.OrderID = orderID
	approve.SessionID = sid
	approve.Amount = amount

	settlement, err := provider.Approve(ctx, approve)
	if err != nil {
		h.Logger.Error("kakao approve failed", zap.String("orderNumber", approve.OrderNumber), zap.Error(err))
		h.markPaymentFailed(ctx, approve.OrderNumber, payments.FailurePayment)
		response.Error(w, http.StatusBadGateway, string(payments.FailurePayment), payments.FailurePayment.Message())
		return
	}

	if _, err := h.DB.Exec(ctx, `
		update payments
		set state = $1, provider_tid = $2, approved_at = $3, failure_category = null, updated_at = now()
		where order_id = $4
	`, string(payments.StateApproved), settlement.ProviderTxID, settlement.ApprovedAt, orderID); err != nil {
		h.Logger.Error("payment settle update failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "결제 처리에 실패했습니다.")
		return
	}

	h.publishEvent(ctx, queue.OrderEvent{
		Type:          queue.EventPaymentSettled,
		OrderID:       orderID,
		OrderNumber:   approve.OrderNumber,
		SessionID:     sid,
		PaymentMethod: string(payments.MethodKakao),
	})

	response.Success(w, map[string]any{
		"order_id": orderID,
		"state":    string(payments.StateApproved),
	})
}

// KakaoCallback handles the cancel/fail redirects Kakao sends the browser
// to. The outcome is terminal; the user lands on the failure page with a
// display category.
func (h *Handler) KakaoCallback(w http.ResponseWriter, r *http.Request) {
	kind := payments.KakaoCallbackKind(readPathString(r, "kind"))
	if kind != payments.KakaoCallbackCancel && kind != payments.KakaoCallbackFail {
		response.Error(w, http.StatusNotFound, "NOT_FOUND", "Unknown callback")
		return
	}

	result := payments.ReconcileKakao(kind, r.URL.Query())
	orderNumber := strings.TrimSpace(r.URL.Query().Get("order_id"))
	if orderNumber != "" {
		h.recordCallbackOutcome(r.Context(), orderNumber, result)
	}
	h.redirectToResult(w, r, orderNumber, result)
}

// NaverCallback is the single return URL for Naver Pay; resultCode carries
// the outcome and a Success still needs the apply call to settle.
func (h *Handler) NaverCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	values := r.URL.Query()

	result := payments.ReconcileNaver(values)
	orderNumber := strings.TrimSpace(values.Get("order_id"))

	if result.Approve == nil {
		if orderNumber != "" {
			h.recordCallbackOutcome(ctx, orderNumber, result)
		}
		h.redirectToResult(w, r, orderNumber, result)
		return
	}

	provider, ok := h.Providers[payments.MethodNaver]
	if !ok {
		h.redirectToResult(w, r, orderNumber, payments.CallbackResult{State: payments.StateFailed, Category: payments.FailureDefault})
		return
	}

	var (
		orderID int64
		amount  int64
		sid     string
		state   string
	)
	if err := h.DB.QueryRow(ctx, `
		select o.id, p.amount, o.session_id, p.state
		from orders o
		join payments p on p.order_id = o.id
		where o.order_number = $1
	`, result.Approve.OrderNumber).Scan(&orderID, &amount, &sid, &state); err != nil {
		h.redirectToResult(w, r, orderNumber, payments.CallbackResult{State: payments.StateFailed, Category: payments.FailureMissingInfo})
		return
	}

	if state != string(payments.StateApproved) {
		approve := *result.Approve
		approve.OrderID = orderID
		approve.SessionID = sid
		approve.Amount = amount

		settlement, err := provider.Approve(ctx, approve)
		if err != nil {
			h.Logger.Error("naver approve failed", zap.String("orderNumber", approve.OrderNumber), zap.Error(err))
			failed := payments.CallbackResult{State: payments.StateFailed, Category: payments.FailurePayment}
			h.recordCallbackOutcome(ctx, approve.OrderNumber, failed)
			h.redirectToResult(w, r, orderNumber, failed)
			return
		}

		if _, err := h.DB.Exec(ctx, `
			update payments
			set state = $1, provider_tid = $2, approved_at = $3, failure_category = null, updated_at = now()
			where order_id = $4
		`, string(payments.StateApproved), settlement.ProviderTxID, settlement.ApprovedAt, orderID); err != nil {
			h.Logger.Error("payment settle update failed", zap.Error(err))
		}

		h.publishEvent(ctx, queue.OrderEvent{
			Type:          queue.EventPaymentSettled,
			OrderID:       orderID,
			OrderNumber:   approve.OrderNumber,
			SessionID:     sid,
			PaymentMethod: string(payments.MethodNaver),
		})
	}

	h.redirectToResult(w, r, orderNumber, result)
}

func (h *Handler) recordCallbackOutcome(ctx context.Context, orderNumber string, result payments.CallbackResult) {
	_, err := h.DB.Exec(ctx, `
		update payments p
		set state = $1, failure_category = $2, updated_at = now()
		from orders o
		where o.id = p.order_id and o.order_number = $3 and p.state != $4
	`, string(result.State), nullIfEmpty(string(result.Category)), orderNumber, string(payments.StateApproved))
	if err != nil {
		h.Logger.Error("callback outcome update failed", zap.String("orderNumber", orderNumber), zap.Error(err))
	}
}

func (h *Handler) markPaymentFailed(ctx context.Context, orderNumber string, category payments.FailureCategory) {
	h.recordCallbackOutcome(ctx, orderNumber, payments.CallbackResult{
		State:    payments.StateFailed,
		Category: category,
	})
}

// redirectToResult lands the browser on the storefront's success or failure
// page. The failure category only picks display copy.
func (h *Handler) redirectToResult(w http.ResponseWriter, r *http.Request, orderNumber string, result payments.CallbackResult) {
	base := strings.TrimRight(h.Config.PublicBaseURL, "/")
	var target string
	if result.State == payments.StateApproved {
		target = base + "/payment/success?order_id=" + url.QueryEscape(orderNumber)
	} else {
		target = base + "/payment/fail?code=" + url.QueryEscape(string(result.Category))
		if orderNumber != "" {
			target += "&order_id=" + url.QueryEscape(orderNumber)
		}
	}
	http.Redirect(w, r, target, http.StatusFound)
}
