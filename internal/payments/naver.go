package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const naverAPIBase = "https://apis.naver.com"

// Naver Pay partner API. Create reserves the payment and returns a reserveId;
// the user is sent to the hosted payment page and comes back on a single
// return URL carrying resultCode + paymentId, which the apply call settles.
type Naver struct {
	clientID     string
	clientSecret string
	chainID      string
	baseURL      string
	callbackBase string
	client       *http.Client
}

func NewNaver(clientID, clientSecret, chainID, callbackBase string, timeout time.Duration) *Naver {
	return &Naver{
		clientID:     clientID,
		clientSecret: clientSecret,
		chainID:      chainID,
		baseURL:      naverAPIBase,
		callbackBase: strings.TrimRight(callbackBase, "/"),
		client:       newHTTPClient(timeout),
	}
}

func (n *Naver) WithBaseURL(base string) *Naver {
	n.baseURL = strings.TrimRight(base, "/")
	return n
}

func (n *Naver) Name() Method { return MethodNaver }

type naverEnvelope struct {
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Body    json.RawMessage `json:"body"`
}

func (n *Naver) Create(ctx context.Context, req CreateRequest) (*Redirect, error) {
	payload := map[string]any{
		"modelVersion":   "2",
		"merchantPayKey": req.OrderNumber,
		"merchantUserKey": req.SessionID,
		"productName":    req.ItemName,
		"productCount":   req.Quantity,
		"totalPayAmount": req.Amount,
		"taxScopeAmount": req.Amount,
		"taxExScopeAmount": 0,
		"returnUrl":      n.callbackBase + "/api/payments/naver/callback?order_id=" + req.OrderNumber,
	}

	var body struct {
		ReserveID string `json:"reserveId"`
	}
	if err := n.post(ctx, "/naverpay/payments/v2/reserve", payload, &body); err != nil {
		return nil, err
	}
	if body.ReserveID == "" {
		return nil, fmt.Errorf("%w: naver reserve returned empty reserveId", ErrProviderCall)
	}
	return &Redirect{
		URL: "https://pay.naver.com/payments/" + body.ReserveID,
		TID: body.ReserveID,
	}, nil
}

func (n *Naver) Approve(ctx context.Context, req ApproveRequest) (*Settlement, error) {
	payload := map[string]any{
		"paymentId": req.PaymentID,
	}

	var body struct {
		PaymentID string `json:"paymentId"`
		Detail    struct {
			AdmissionYmdt string `json:"admissionYmdt"`
		} `json:"detail"`
	}
	if err := n.post(ctx, "/naverpay/payments/v2/apply/payment", payload, &body); err != nil {
		return nil, err
	}
	txID := body.PaymentID
	if txID == "" {
		txID = req.PaymentID
	}
	return &Settlement{ProviderTxID: txID, ApprovedAt: time.Now()}, nil
}

func (n *Naver) post(ctx context.Context, path string, payload any, out any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, n.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	httpReq.Header.Set("X-Naver-Client-Id", n.clientID)
	httpReq.Header.Set("X-Naver-Client-Secret", n.clientSecret)
	httpReq.Header.Set("X-NaverPay-Chain-Id", n.chainID)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProviderCall, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: naver %s returned %d", ErrProviderCall, path, resp.StatusCode)
	}

	var envelope naverEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return err
	}
	if !strings.EqualFold(envelope.Code, "Success") {
		return fmt.Errorf("%w: naver %s: %s %s", ErrProviderCall, path, envelope.Code, envelope.Message)
	}
	if out != nil && len(envelope.Body) > 0 {
		return json.Unmarshal(envelope.Body, out)
	}
	return nil
}
