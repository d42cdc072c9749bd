package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"cafe-order-service/pkg/response"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"go.uber.org/zap"
)

// Every cart response carries the cart's version, a per-cart counter bumped
// on each mutation. It doubles as the ETag so clients can discard responses
// that arrive out of order.
func writeCart(w http.ResponseWriter, cart *Cart) {
	w.Header().Set("ETag", fmt.Sprintf(`W/"cart-%d"`, cart.Version))
	response.Success(w, cart)
}

func (h *Handler) CartGet(w http.ResponseWriter, r *http.Request) {
	cart, err := h.fetchCart(r.Context(), sessionID(r))
	if err != nil {
		h.Logger.Error("cart fetch failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "장바구니를 불러오지 못했습니다.")
		return
	}
	writeCart(w, cart)
}

func (h *Handler) CartAddItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sid := sessionID(r)

	var body struct {
		MenuID          int64  `json:"menu_id"`
		Quantity        int32  `json:"quantity"`
		SpecialRequests string `json:"special_requests"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if body.MenuID <= 0 {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "menu_id is required")
		return
	}
	if body.Quantity <= 0 {
		body.Quantity = 1
	}

	tx, err := h.DB.Begin(ctx)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "장바구니 담기에 실패했습니다.")
		return
	}
	defer tx.Rollback(ctx)

	var available bool
	if err := tx.QueryRow(ctx, `
		select is_available from menus
		where id = $1 and deleted_at is null
	`, body.MenuID).Scan(&available); err != nil {
		response.Error(w, http.StatusNotFound, "MENU_NOT_FOUND", "메뉴를 찾을 수 없습니다.")
		return
	}
	if !available {
		response.Error(w, http.StatusConflict, "MENU_UNAVAILABLE", "품절된 메뉴입니다.")
		return
	}

	// The cart row comes into existence on the first add.
	var cartID int64
	if err := tx.QueryRow(ctx, `
		insert into carts (session_id, version, created_at, updated_at)
		values ($1, 0, now(), now())
		on conflict (session_id) do update set updated_at = now()
		returning id
	`, sid).Scan(&cartID); err != nil {
		h.Logger.Error("cart upsert failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "장바구니 담기에 실패했습니다.")
		return
	}

	// Same menu + same request note merges into one line.
	if _, err := tx.Exec(ctx, `
		insert into cart_items (cart_id, menu_id, quantity, special_requests, created_at)
		values ($1, $2, $3, $4, now())
		on conflict (cart_id, menu_id, coalesce(special_requests, ''))
		do update set quantity = cart_items.quantity + excluded.quantity
	`, cartID, body.MenuID, body.Quantity, nullIfEmpty(body.SpecialRequests)); err != nil {
		h.Logger.Error("cart item insert failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "장바구니 담기에 실패했습니다.")
		return
	}

	if err := bumpCartVersion(ctx, tx, cartID); err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "장바구니 담기에 실패했습니다.")
		return
	}
	if err := tx.Commit(ctx); err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "장바구니 담기에 실패했습니다.")
		return
	}

	cart, err := h.fetchCart(ctx, sid)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "장바구니를 불러오지 못했습니다.")
		return
	}
	writeCart(w, cart)
}

func (h *Handler) CartUpdateItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sid := sessionID(r)

	itemID, err := readPathInt64(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid item id")
		return
	}

	var body struct {
		Quantity int32 `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if body.Quantity <= 0 {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "quantity must be positive")
		return
	}

	if err := h.mutateCartItem(ctx, sid, itemID, func(ctx context.Context, tx pgx.Tx, cartID int64) error {
		tag, err := tx.Exec(ctx, `
			update cart_items set quantity = $1
			where id = $2 and cart_id = $3
		`, body.Quantity, itemID, cartID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return pgx.ErrNoRows
		}
		return nil
	}); err != nil {
		h.respondCartMutationError(w, err, "수량 변경에 실패했습니다.")
		return
	}

	cart, err := h.fetchCart(ctx, sid)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "장바구니를 불러오지 못했습니다.")
		return
	}
	writeCart(w, cart)
}

func (h *Handler) CartRemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sid := sessionID(r)

	itemID, err := readPathInt64(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid item id")
		return
	}

	if err := h.mutateCartItem(ctx, sid, itemID, func(ctx context.Context, tx pgx.Tx, cartID int64) error {
		tag, err := tx.Exec(ctx, `
			delete from cart_items where id = $1 and cart_id = $2
		`, itemID, cartID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return pgx.ErrNoRows
		}
		return nil
	}); err != nil {
		h.respondCartMutationError(w, err, "삭제에 실패했습니다.")
		return
	}

	cart, err := h.fetchCart(ctx, sid)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "장바구니를 불러오지 못했습니다.")
		return
	}
	writeCart(w, cart)
}

// CartClear empties the cart. Clearing an absent or already-empty cart is
// not an error; the second call just returns the same empty cart.
func (h *Handler) CartClear(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sid := sessionID(r)

	tx, err := h.DB.Begin(ctx)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "장바구니 비우기에 실패했습니다.")
		return
	}
	defer tx.Rollback(ctx)

	var cartID pgtype.Int8
	err = tx.QueryRow(ctx, `select id from carts where session_id = $1`, sid).Scan(&cartID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "장바구니 비우기에 실패했습니다.")
		return
	}

	if cartID.Valid {
		if _, err := tx.Exec(ctx, `delete from cart_items where cart_id = $1`, cartID.Int64); err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "장바구니 비우기에 실패했습니다.")
			return
		}
		if err := bumpCartVersion(ctx, tx, cartID.Int64); err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "장바구니 비우기에 실패했습니다.")
			return
		}
	}
	if err := tx.Commit(ctx); err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "장바구니 비우기에 실패했습니다.")
		return
	}

	cart, err := h.fetchCart(ctx, sid)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "장바구니를 불러오지 못했습니다.")
		return
	}
	writeCart(w, cart)
}

func (h *Handler) mutateCartItem(ctx context.Context, sid string, itemID int64, mutate func(context.Context, pgx.Tx, int64) error) error {
	tx, err := h.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var cartID int64
	if err := tx.QueryRow(ctx, `select id from carts where session_id = $1`, sid).Scan(&cartID); err != nil {
		return err
	}
	if err := mutate(ctx, tx, cartID); err != nil {
		return err
	}
	if err := bumpCartVersion(ctx, tx, cartID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (h *Handler) respondCartMutationError(w http.ResponseWriter, err error, message string) {
	if errors.Is(err, pgx.ErrNoRows) {
		response.Error(w, http.StatusNotFound, "CART_ITEM_NOT_FOUND", "장바구니에 해당 항목이 없습니다.")
		return
	}
	h.Logger.Error("cart mutation failed", zap.Error(err))
	response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", message)
}

func bumpCartVersion(ctx context.Context, tx pgx.Tx, cartID int64) error {
	_, err := tx.Exec(ctx, `
		update carts set version = version + 1, updated_at = now()
		where id = $1
	`, cartID)
	return err
}

// fetchCart loads the whole cart with menu snapshots and the server-computed
// total. A session without a cart row gets an empty cart, not an error.
func (h *Handler) fetchCart(ctx context.Context, sid string) (*Cart, error) {
	cart := &Cart{Items: []CartItem{}}

	err := h.DB.QueryRow(ctx, `
		select id, version from carts where session_id = $1
	`, sid).Scan(&cart.ID, &cart.Version)
	if errors.Is(err, pgx.ErrNoRows) {
		return cart, nil
	}
	if err != nil {
		return nil, err
	}

	rows, err := h.DB.Query(ctx, `
		select ci.id, ci.menu_id, ci.quantity, ci.special_requests,
		       m.id, m.name, m.description, m.price, m.category, m.image_url, m.thumbnail_url, m.is_available
		from cart_items ci
		join menus m on m.id = ci.menu_id
		where ci.cart_id = $1
		order by ci.id
	`, cart.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var item CartItem
		var special, imageURL, thumbURL pgtype.Text
		if err := rows.Scan(
			&item.ID, &item.MenuID, &item.Quantity, &special,
			&item.Menu.ID, &item.Menu.Name, &item.Menu.Description, &item.Menu.Price,
			&item.Menu.Category, &imageURL, &thumbURL, &item.Menu.IsAvailable,
		); err != nil {
			return nil, err
		}
		if special.Valid && strings.TrimSpace(special.String) != "" {
			value := special.String
			item.SpecialRequests = &value
		}
		if imageURL.Valid {
			value := imageURL.String
			item.Menu.ImageURL = &value
		}
		if thumbURL.Valid {
			value := thumbURL.String
			item.Menu.ThumbURL = &value
		}
		cart.TotalPrice += item.Menu.Price * int64(item.Quantity)
		cart.Items = append(cart.Items, item)
	}
	return cart, rows.Err()
}
