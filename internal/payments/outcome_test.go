package payments

import (
	"net/url"
	"testing"
)

func TestReconcileNaver(t *testing.T) {
	cases := []struct {
		name     string
		query    url.Values
		state    State
		category FailureCategory
		approve  bool
	}{
		{
			name:    "success with identifiers",
			query:   url.Values{"resultCode": {"Success"}, "paymentId": {"p1"}, "order_id": {"o1"}, "reserveId": {"r1"}},
			state:   StateApproved,
			approve: true,
		},
		{
			name:     "success missing paymentId",
			query:    url.Values{"resultCode": {"Success"}, "order_id": {"o1"}},
			state:    StateFailed,
			category: FailureMissingInfo,
		},
		{
			name:     "user cancel without backend call",
			query:    url.Values{"resultCode": {"UserCancel"}},
			state:    StateUserCancelled,
			category: FailureUserCancel,
		},
		{
			name:     "payment fail",
			query:    url.Values{"resultCode": {"Fail"}},
			state:    StateFailed,
			category: FailurePayment,
		},
		{
			name:     "quota exceeded",
			query:    url.Values{"resultCode": {"QuotaExceeded"}},
			state:    StateFailed,
			category: FailureQuota,
		},
		{
			name:     "time expired",
			query:    url.Values{"resultCode": {"TimeExpired"}},
			state:    StateFailed,
			category: FailureTimeout,
		},
		{
			name:     "unknown result code",
			query:    url.Values{"resultCode": {"SomethingElse"}},
			state:    StateFailed,
			category: FailureDefault,
		},
		{
			name:     "missing result code",
			query:    url.Values{},
			state:    StateFailed,
			category: FailureMissingInfo,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ReconcileNaver(tc.query)
			if got.State != tc.state {
				t.Fatalf("state = %s, want %s", got.State, tc.state)
			}
			if !tc.approve && got.Category != tc.category {
				t.Fatalf("category = %s, want %s", got.Category, tc.category)
			}
			if tc.approve && got.Approve == nil {
				t.Fatal("expected approve request")
			}
			if !tc.approve && got.Approve != nil {
				t.Fatal("expected no approve request")
			}
		})
	}
}

func TestReconcileNaverApproveIdentifiers(t *testing.T) {
	q := url.Values{"resultCode": {"Success"}, "paymentId": {"p1"}, "order_id": {"o1"}, "reserveId": {"r1"}}
	got := ReconcileNaver(q)
	if got.Approve.PaymentID != "p1" || got.Approve.OrderNumber != "o1" || got.Approve.ReserveID != "r1" {
		t.Fatalf("approve identifiers not carried: %+v", got.Approve)
	}
}

func TestReconcileKakao(t *testing.T) {
	cases := []struct {
		name     string
		kind     KakaoCallbackKind
		query    url.Values
		state    State
		category FailureCategory
		approve  bool
	}{
		{
			name:    "success with identifiers",
			kind:    KakaoCallbackSuccess,
			query:   url.Values{"tid": {"T123"}, "pg_token": {"tok"}, "order_id": {"o1"}},
			state:   StateApproved,
			approve: true,
		},
		{
			name:     "success missing pg_token",
			kind:     KakaoCallbackSuccess,
			query:    url.Values{"tid": {"T123"}, "order_id": {"o1"}},
			state:    StateFailed,
			category: FailureMissingInfo,
		},
		{
			name:     "success missing tid",
			kind:     KakaoCallbackSuccess,
			query:    url.Values{"pg_token": {"tok"}, "order_id": {"o1"}},
			state:    StateFailed,
			category: FailureMissingInfo,
		},
		{
			name:     "cancel",
			kind:     KakaoCallbackCancel,
			query:    url.Values{},
			state:    StateUserCancelled,
			category: FailureUserCancel,
		},
		{
			name:     "fail",
			kind:     KakaoCallbackFail,
			query:    url.Values{},
			state:    StateFailed,
			category: FailurePayment,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ReconcileKakao(tc.kind, tc.query)
			if got.State != tc.state {
				t.Fatalf("state = %s, want %s", got.State, tc.state)
			}
			if !tc.approve && got.Category != tc.category {
				t.Fatalf("category = %s, want %s", got.Category, tc.category)
			}
			if tc.approve != (got.Approve != nil) {
				t.Fatalf("approve presence = %v, want %v", got.Approve != nil, tc.approve)
			}
		})
	}
}

func TestFailureCategoryMessage(t *testing.T) {
	if FailureUserCancel.Message() == "" {
		t.Fatal("expected message for user_cancel")
	}
	if FailureCategory("nonsense").Message() != FailureDefault.Message() {
		t.Fatal("unknown category should fall back to default copy")
	}
}
