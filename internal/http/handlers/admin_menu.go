package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"cafe-order-service/pkg/response"

	"github.com/jackc/pgx/v5/pgtype"
	"go.uber.org/zap"
)

type adminMenu struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Price       int64      `json:"price"`
	Category    string     `json:"category"`
	ImageURL    *string    `json:"imageUrl"`
	ThumbURL    *string    `json:"thumbnailUrl"`
	IsAvailable bool       `json:"isAvailable"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	DeletedAt   *time.Time `json:"deletedAt,omitempty"`
}

type adminMenuCreatePayload struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       int64  `json:"price"`
	Category    string `json:"category"`
	IsAvailable *bool  `json:"isAvailable"`
}

type adminMenuUpdatePayload struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Price       *int64  `json:"price"`
	Category    *string `json:"category"`
	IsAvailable *bool   `json:"isAvailable"`
}

// AdminMenuList returns every menu, sold-out ones included. ?deleted=true
// switches to the soft-deleted set so items can be restored.
func (h *Handler) AdminMenuList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	deleted := r.URL.Query().Get("deleted") == "true"

	clause := "deleted_at is null"
	if deleted {
		clause = "deleted_at is not null"
	}

	rows, err := h.DB.Query(ctx, `
		select id, name, description, price, category, image_url, thumbnail_url,
		       is_available, created_at, updated_at, deleted_at
		from menus
		where `+clause+`
		order by category, name
	`)
	if err != nil {
		h.Logger.Error("admin menu list failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to retrieve menus")
		return
	}
	defer rows.Close()

	menus := []adminMenu{}
	for rows.Next() {
		var m adminMenu
		var imageURL, thumbURL pgtype.Text
		var deletedAt pgtype.Timestamptz
		if err := rows.Scan(&m.ID, &m.Name, &m.Description, &m.Price, &m.Category,
			&imageURL, &thumbURL, &m.IsAvailable, &m.CreatedAt, &m.UpdatedAt, &deletedAt); err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to retrieve menus")
			return
		}
		if imageURL.Valid {
			value := imageURL.String
			m.ImageURL = &value
		}
		if thumbURL.Valid {
			value := thumbURL.String
			m.ThumbURL = &value
		}
		if deletedAt.Valid {
			value := deletedAt.Time
			m.DeletedAt = &value
		}
		menus = append(menus, m)
	}
	if err := rows.Err(); err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to retrieve menus")
		return
	}
	response.Success(w, menus)
}

func (h *Handler) AdminMenuCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var payload adminMenuCreatePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	name := strings.TrimSpace(payload.Name)
	if name == "" {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Menu name is required")
		return
	}
	if payload.Price < 0 {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Price must be greater than or equal to 0")
		return
	}
	category := strings.TrimSpace(payload.Category)
	if category == "" {
		category = "기타"
	}

	isAvailable := true
	if payload.IsAvailable != nil {
		isAvailable = *payload.IsAvailable
	}

	var newID int64
	if err := h.DB.QueryRow(ctx, `
		insert into menus (name, description, price, category, is_available, created_at, updated_at)
		values ($1, $2, $3, $4, $5, now(), now())
		returning id
	`, name, payload.Description, payload.Price, category, isAvailable).Scan(&newID); err != nil {
		h.Logger.Error("admin menu create failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create menu")
		return
	}

	menu, err := h.fetchAdminMenu(r, newID)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create menu")
		return
	}
	response.JSON(w, http.StatusCreated, map[string]any{"success": true, "data": menu})
}

func (h *Handler) AdminMenuUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	menuID, err := readPathInt64(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid menu id")
		return
	}

	var payload adminMenuUpdatePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if payload.Name != nil && strings.TrimSpace(*payload.Name) == "" {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Menu name cannot be empty")
		return
	}
	if payload.Price != nil && *payload.Price < 0 {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Price must be greater than or equal to 0")
		return
	}

	tag, err := h.DB.Exec(ctx, `
		update menus set
			name = coalesce($1, name),
			description = coalesce($2, description),
			price = coalesce($3, price),
			category = coalesce($4, category),
			is_available = coalesce($5, is_available),
			updated_at = now()
		where id = $6 and deleted_at is null
	`, payload.Name, payload.Description, payload.Price, payload.Category, payload.IsAvailable, menuID)
	if err != nil {
		h.Logger.Error("admin menu update failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update menu")
		return
	}
	if tag.RowsAffected() == 0 {
		response.Error(w, http.StatusNotFound, "MENU_NOT_FOUND", "Menu not found")
		return
	}

	menu, err := h.fetchAdminMenu(r, menuID)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update menu")
		return
	}
	response.Success(w, menu)
}

// AdminMenuDelete soft-deletes; existing carts and order snapshots keep
// their references.
func (h *Handler) AdminMenuDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	menuID, err := readPathInt64(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid menu id")
		return
	}

	tag, err := h.DB.Exec(ctx, `
		update menus set deleted_at = now(), is_available = false, updated_at = now()
		where id = $1 and deleted_at is null
	`, menuID)
	if err != nil {
		h.Logger.Error("admin menu delete failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete menu")
		return
	}
	if tag.RowsAffected() == 0 {
		response.Error(w, http.StatusNotFound, "MENU_NOT_FOUND", "Menu not found")
		return
	}
	response.Success(w, map[string]any{"deleted": true})
}

func (h *Handler) AdminMenuRestore(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	menuID, err := readPathInt64(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid menu id")
		return
	}

	tag, err := h.DB.Exec(ctx, `
		update menus set deleted_at = null, updated_at = now()
		where id = $1 and deleted_at is not null
	`, menuID)
	if err != nil {
		h.Logger.Error("admin menu restore failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to restore menu")
		return
	}
	if tag.RowsAffected() == 0 {
		response.Error(w, http.StatusNotFound, "MENU_NOT_FOUND", "Menu not found")
		return
	}

	menu, err := h.fetchAdminMenu(r, menuID)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to restore menu")
		return
	}
	response.Success(w, menu)
}

func (h *Handler) fetchAdminMenu(r *http.Request, id int64) (*adminMenu, error) {
	var m adminMenu
	var imageURL, thumbURL pgtype.Text
	var deletedAt pgtype.Timestamptz
	err := h.DB.QueryRow(r.Context(), `
		select id, name, description, price, category, image_url, thumbnail_url,
		       is_available, created_at, updated_at, deleted_at
		from menus where id = $1
	`, id).Scan(&m.ID, &m.Name, &m.Description, &m.Price, &m.Category,
		&imageURL, &thumbURL, &m.IsAvailable, &m.CreatedAt, &m.UpdatedAt, &deletedAt)
	if err != nil {
		return nil, err
	}
	if imageURL.Valid {
		value := imageURL.String
		m.ImageURL = &value
	}
	if thumbURL.Valid {
		value := thumbURL.String
		m.ThumbURL = &value
	}
	if deletedAt.Valid {
		value := deletedAt.Time
		m.DeletedAt = &value
	}
	return &m, nil
}
