package payments

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// Payment lifecycle. A payment leaves idle when the provider hands back a
// hosted checkout URL, and settles into exactly one terminal state when the
// provider's callback is reconciled.
type State string

const (
	StateIdle          State = "idle"
	StateRedirected    State = "redirected"
	StateApproved      State = "approved"
	StateUserCancelled State = "user_cancelled"
	StateFailed        State = "failed"
)

type Method string

const (
	MethodKakao Method = "kakao"
	MethodNaver Method = "naver"
)

func ParseMethod(raw string) (Method, error) {
	switch Method(raw) {
	case MethodKakao:
		return MethodKakao, nil
	case MethodNaver:
		return MethodNaver, nil
	}
	return "", ErrUnknownMethod
}

var (
	ErrUnknownMethod = errors.New("unknown payment method")
	ErrProviderCall  = errors.New("payment provider call failed")
)

type CreateRequest struct {
	OrderID     int64
	OrderNumber string
	SessionID   string
	ItemName    string
	Quantity    int32
	Amount      int64
}

// Redirect is what the provider gives back from a create/reserve call: the
// hosted checkout URL the browser is sent to, and the provider's transaction
// identifier to keep for the approve step.
type Redirect struct {
	URL string
	TID string
}

// ApproveRequest carries the provider's opaque transaction identifiers from
// the callback. Which fields are set depends on the provider; they are
// forwarded as-is, settlement authority stays with the provider.
type ApproveRequest struct {
	OrderID     int64
	OrderNumber string
	SessionID   string
	Amount      int64
	TID         string
	PGToken     string
	PaymentID   string
	ReserveID   string
}

type Settlement struct {
	ProviderTxID string
	ApprovedAt   time.Time
}

type Provider interface {
	Name() Method
	Create(ctx context.Context, req CreateRequest) (*Redirect, error)
	Approve(ctx context.Context, req ApproveRequest) (*Settlement, error)
}

// newHTTPClient is shared by both providers; a hung provider call must not
// hang the checkout flow indefinitely.
func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &http.Client{Timeout: timeout}
}
