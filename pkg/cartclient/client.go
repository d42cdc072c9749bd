// Package cartclient is a small client for the cart API holding a reactive
// snapshot of the session's cart. Every mutation is followed by an
// unconditional refetch, so the local state is always a server-produced
// cart, never a local merge.
package cartclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"
)

type Menu struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       int64  `json:"price"`
	Category    string `json:"category"`
}

type Item struct {
	ID              int64   `json:"id"`
	MenuID          int64   `json:"menu_id"`
	Quantity        int32   `json:"quantity"`
	SpecialRequests *string `json:"special_requests,omitempty"`
	Menu            Menu    `json:"menu"`
}

type Cart struct {
	ID         int64  `json:"id"`
	Items      []Item `json:"items"`
	TotalPrice int64  `json:"total_price"`
	Version    int64  `json:"version"`
}

// State is the consumer-visible snapshot: when Err is set the Cart field
// still holds the last cart that loaded successfully.
type State struct {
	Loading bool
	Cart    *Cart
	Err     string
}

type Client struct {
	baseURL string
	token   string
	http    *http.Client

	mu          sync.Mutex
	state       State
	lastVersion int64
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func New(baseURL, sessionToken string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   sessionToken,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns a copy of the current snapshot.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// FetchCart replaces the cart wholesale with the server's copy. Responses
// carrying a version older than one already applied are discarded, so two
// racing fetches settle on the newest cart regardless of arrival order.
func (c *Client) FetchCart(ctx context.Context) (*Cart, error) {
	c.setLoading()

	cart, status, err := c.getCart(ctx)
	if err != nil {
		c.setError("장바구니를 불러오지 못했습니다.")
		return nil, err
	}
	if status != http.StatusOK {
		c.setError("장바구니를 불러오지 못했습니다.")
		return nil, fmt.Errorf("cart fetch returned %d", status)
	}

	c.applyCart(cart)
	return cart, nil
}

// AddToCart adds a menu item and refetches.
func (c *Client) AddToCart(ctx context.Context, menuID int64, quantity int32, specialRequests string) error {
	payload := map[string]any{"menu_id": menuID, "quantity": quantity}
	if strings.TrimSpace(specialRequests) != "" {
		payload["special_requests"] = specialRequests
	}
	return c.mutate(ctx, http.MethodPost, "/api/cart", payload, "장바구니 담기에 실패했습니다.")
}

// UpdateQuantity sets an item's quantity and refetches.
func (c *Client) UpdateQuantity(ctx context.Context, itemID int64, quantity int32) error {
	path := fmt.Sprintf("/api/cart/items/%d", itemID)
	return c.mutate(ctx, http.MethodPut, path, map[string]any{"quantity": quantity}, "수량 변경에 실패했습니다.")
}

// RemoveItem deletes one cart line and refetches.
func (c *Client) RemoveItem(ctx context.Context, itemID int64) error {
	path := fmt.Sprintf("/api/cart/items/%d", itemID)
	return c.mutate(ctx, http.MethodDelete, path, nil, "삭제에 실패했습니다.")
}

// ClearCart empties the cart. Clearing an already-empty cart succeeds.
func (c *Client) ClearCart(ctx context.Context) error {
	return c.mutate(ctx, http.MethodDelete, "/api/cart", nil, "장바구니 비우기에 실패했습니다.")
}

// mutate runs one cart mutation and then refetches unconditionally. A failed
// mutation sets the error and leaves the previous cart untouched.
func (c *Client) mutate(ctx context.Context, method, path string, payload any, userMessage string) error {
	c.setLoading()

	status, err := c.send(ctx, method, path, payload)
	if err != nil {
		c.setError(userMessage)
		return err
	}
	if status < 200 || status > 299 {
		c.setError(userMessage)
		return fmt.Errorf("cart mutation %s %s returned %d", method, path, status)
	}

	_, err = c.FetchCart(ctx)
	return err
}

func (c *Client) setLoading() {
	c.mu.Lock()
	c.state.Loading = true
	c.state.Err = ""
	c.mu.Unlock()
}

func (c *Client) setError(message string) {
	c.mu.Lock()
	c.state.Loading = false
	c.state.Err = message
	c.mu.Unlock()
}

func (c *Client) applyCart(cart *Cart) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Loading = false
	c.state.Err = ""
	if cart.Version < c.lastVersion {
		// stale response from a slower round trip
		return
	}
	c.lastVersion = cart.Version
	c.state.Cart = cart
}

func (c *Client) getCart(ctx context.Context) (*Cart, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/cart", nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("X-Session-ID", c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode, nil
	}

	var envelope struct {
		Success bool `json:"success"`
		Data    Cart `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, resp.StatusCode, err
	}
	return &envelope.Data, resp.StatusCode, nil
}

func (c *Client) send(ctx context.Context, method, path string, payload any) (int, error) {
	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return 0, err
		}
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, err
	}
	req.Header.Set("X-Session-ID", c.token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return resp.StatusCode, nil
}
