package payments

import (
	"net/url"
	"strings"
)

// FailureCategory is the display taxonomy for declined payments. It drives
// the copy the storefront shows and nothing else; every failure is terminal
// and the user retries by going through checkout again.
type FailureCategory string

const (
	FailureUserCancel  FailureCategory = "user_cancel"
	FailurePayment     FailureCategory = "payment_failed"
	FailureQuota       FailureCategory = "quota_exceeded"
	FailureTimeout     FailureCategory = "timeout"
	FailureDefault     FailureCategory = "default"
	FailureMissingInfo FailureCategory = "missing_payment_info"
)

var failureMessages = map[FailureCategory]string{
	FailureUserCancel:  "결제가 취소되었습니다.",
	FailurePayment:     "결제에 실패했습니다.",
	FailureQuota:       "결제 한도를 초과했습니다.",
	FailureTimeout:     "결제 시간이 초과되었습니다.",
	FailureDefault:     "결제 처리 중 오류가 발생했습니다.",
	FailureMissingInfo: "결제 정보가 올바르지 않습니다.",
}

func (c FailureCategory) Message() string {
	if msg, ok := failureMessages[c]; ok {
		return msg
	}
	return failureMessages[FailureDefault]
}

// CallbackResult is the reconciled outcome of a provider callback. Approve
// is non-nil exactly when the provider requires a second call to settle;
// user cancellations and failures never trigger one.
type CallbackResult struct {
	State    State
	Category FailureCategory
	Approve  *ApproveRequest
}

// Kakao redirects to one of three URLs we register at create time, so the
// outcome is carried by the route, with transaction identifiers in the
// query string.
type KakaoCallbackKind string

const (
	KakaoCallbackSuccess KakaoCallbackKind = "success"
	KakaoCallbackCancel  KakaoCallbackKind = "cancel"
	KakaoCallbackFail    KakaoCallbackKind = "fail"
)

func ReconcileKakao(kind KakaoCallbackKind, q url.Values) CallbackResult {
	switch kind {
	case KakaoCallbackCancel:
		return CallbackResult{State: StateUserCancelled, Category: FailureUserCancel}
	case KakaoCallbackFail:
		return CallbackResult{State: StateFailed, Category: FailurePayment}
	case KakaoCallbackSuccess:
		tid := strings.TrimSpace(q.Get("tid"))
		pgToken := strings.TrimSpace(q.Get("pg_token"))
		orderID := strings.TrimSpace(q.Get("order_id"))
		if tid == "" || pgToken == "" || orderID == "" {
			return CallbackResult{State: StateFailed, Category: FailureMissingInfo}
		}
		return CallbackResult{
			State:   StateApproved,
			Approve: &ApproveRequest{TID: tid, PGToken: pgToken, OrderNumber: orderID},
		}
	}
	return CallbackResult{State: StateFailed, Category: FailureDefault}
}

// Naver uses a single callback URL and encodes the outcome in resultCode.
func ReconcileNaver(q url.Values) CallbackResult {
	resultCode := strings.TrimSpace(q.Get("resultCode"))
	if resultCode == "" {
		return CallbackResult{State: StateFailed, Category: FailureMissingInfo}
	}

	switch strings.ToLower(resultCode) {
	case "success":
		paymentID := strings.TrimSpace(q.Get("paymentId"))
		orderID := strings.TrimSpace(q.Get("order_id"))
		reserveID := strings.TrimSpace(q.Get("reserveId"))
		if paymentID == "" || orderID == "" {
			return CallbackResult{State: StateFailed, Category: FailureMissingInfo}
		}
		return CallbackResult{
			State:   StateApproved,
			Approve: &ApproveRequest{PaymentID: paymentID, OrderNumber: orderID, ReserveID: reserveID},
		}
	case "usercancel", "usercancelled":
		return CallbackResult{State: StateUserCancelled, Category: FailureUserCancel}
	case "fail", "paymentfail":
		return CallbackResult{State: StateFailed, Category: FailurePayment}
	case "quotaexceeded", "exceedlimit":
		return CallbackResult{State: StateFailed, Category: FailureQuota}
	case "timeexpired", "timeout":
		return CallbackResult{State: StateFailed, Category: FailureTimeout}
	}
	return CallbackResult{State: StateFailed, Category: FailureDefault}
}
