package handlers

import "time"

type MenuSummary struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       int64   `json:"price"`
	Category    string  `json:"category"`
	ImageURL    *string `json:"imageUrl,omitempty"`
	ThumbURL    *string `json:"thumbnailUrl,omitempty"`
	IsAvailable bool    `json:"isAvailable"`
}

type CartItem struct {
	ID              int64       `json:"id"`
	MenuID          int64       `json:"menu_id"`
	Quantity        int32       `json:"quantity"`
	SpecialRequests *string     `json:"special_requests,omitempty"`
	Menu            MenuSummary `json:"menu"`
}

// Cart is always returned whole; total_price and version are computed and
// owned by the server, never patched client-side.
type Cart struct {
	ID         int64      `json:"id"`
	Items      []CartItem `json:"items"`
	TotalPrice int64      `json:"total_price"`
	Version    int64      `json:"version"`
}

type OrderItem struct {
	ID              int64   `json:"id"`
	MenuID          int64   `json:"menu_id"`
	MenuName        string  `json:"menu_name"`
	MenuPrice       int64   `json:"menu_price"`
	Quantity        int32   `json:"quantity"`
	Subtotal        int64   `json:"subtotal"`
	SpecialRequests *string `json:"special_requests,omitempty"`
}

type Order struct {
	ID            int64       `json:"id"`
	OrderNumber   string      `json:"order_number"`
	Status        string      `json:"status"`
	PickupName    string      `json:"pickup_name"`
	PickupTime    *string     `json:"pickup_time,omitempty"`
	OrderItems    []OrderItem `json:"order_items"`
	TotalAmount   int64       `json:"total_amount"`
	PaymentMethod string      `json:"payment_method"`
	CreatedAt     time.Time   `json:"created_at"`
}

type PaymentStatus struct {
	State           string     `json:"state"`
	FailureCategory *string    `json:"failure_category,omitempty"`
	FailureMessage  *string    `json:"failure_message,omitempty"`
	ApprovedAt      *time.Time `json:"approved_at,omitempty"`
}

type CheckoutPreferences struct {
	Saved         bool      `json:"saved"`
	PickupName    string    `json:"pickup_name,omitempty"`
	PaymentMethod string    `json:"payment_method,omitempty"`
	UpdatedAt     time.Time `json:"updated_at,omitempty"`
}
