package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const kakaoAPIBase = "https://kapi.kakao.com"

// Kakao Pay one-time payment. The ready call reserves the payment and hands
// back a hosted checkout URL plus a tid; after the user approves, the
// storefront posts tid + pg_token back and the approve call settles it.
type Kakao struct {
	adminKey     string
	cid          string
	baseURL      string
	callbackBase string
	client       *http.Client
}

func NewKakao(adminKey, cid, callbackBase string, timeout time.Duration) *Kakao {
	return &Kakao{
		adminKey:     adminKey,
		cid:          cid,
		baseURL:      kakaoAPIBase,
		callbackBase: strings.TrimRight(callbackBase, "/"),
		client:       newHTTPClient(timeout),
	}
}

// WithBaseURL points the provider at a different API host. Used by tests.
func (k *Kakao) WithBaseURL(base string) *Kakao {
	k.baseURL = strings.TrimRight(base, "/")
	return k
}

func (k *Kakao) Name() Method { return MethodKakao }

func (k *Kakao) Create(ctx context.Context, req CreateRequest) (*Redirect, error) {
	form := url.Values{}
	form.Set("cid", k.cid)
	form.Set("partner_order_id", req.OrderNumber)
	form.Set("partner_user_id", req.SessionID)
	form.Set("item_name", req.ItemName)
	form.Set("quantity", strconv.FormatInt(int64(req.Quantity), 10))
	form.Set("total_amount", strconv.FormatInt(req.Amount, 10))
	form.Set("tax_free_amount", "0")
	// Approval returns to the storefront result page, which posts tid +
	// pg_token to the complete endpoint. Cancel and fail come back through
	// the API so the outcome is recorded before the redirect.
	form.Set("approval_url", k.callbackBase+"/payment/success?order_id="+url.QueryEscape(req.OrderNumber))
	form.Set("cancel_url", k.callbackBase+"/api/payments/kakao/callback/cancel?order_id="+url.QueryEscape(req.OrderNumber))
	form.Set("fail_url", k.callbackBase+"/api/payments/kakao/callback/fail?order_id="+url.QueryEscape(req.OrderNumber))

	var out struct {
		TID            string `json:"tid"`
		NextRedirectPC string `json:"next_redirect_pc_url"`
	}
	if err := k.post(ctx, "/v1/payment/ready", form, &out); err != nil {
		return nil, err
	}
	if out.TID == "" || out.NextRedirectPC == "" {
		return nil, fmt.Errorf("%w: kakao ready returned empty tid or redirect", ErrProviderCall)
	}
	return &Redirect{URL: out.NextRedirectPC, TID: out.TID}, nil
}

func (k *Kakao) Approve(ctx context.Context, req ApproveRequest) (*Settlement, error) {
	form := url.Values{}
	form.Set("cid", k.cid)
	form.Set("tid", req.TID)
	form.Set("partner_order_id", req.OrderNumber)
	form.Set("partner_user_id", req.SessionID)
	form.Set("pg_token", req.PGToken)

	var out struct {
		AID        string    `json:"aid"`
		TID        string    `json:"tid"`
		ApprovedAt time.Time `json:"approved_at"`
	}
	if err := k.post(ctx, "/v1/payment/approve", form, &out); err != nil {
		return nil, err
	}
	approvedAt := out.ApprovedAt
	if approvedAt.IsZero() {
		approvedAt = time.Now()
	}
	return &Settlement{ProviderTxID: out.TID, ApprovedAt: approvedAt}, nil
}

func (k *Kakao) post(ctx context.Context, path string, form url.Values, out any) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, k.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Authorization", "KakaoAK "+k.adminKey)
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded;charset=utf-8")

	resp, err := k.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProviderCall, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: kakao %s returned %d", ErrProviderCall, path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
