package handlers

import (
	"net/http"
	"strings"

	"cafe-order-service/pkg/response"

	"github.com/jackc/pgx/v5/pgtype"
	"go.uber.org/zap"
)

func (h *Handler) MenuList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	category := strings.TrimSpace(r.URL.Query().Get("category"))

	query := `
		select id, name, description, price, category, image_url, thumbnail_url, is_available
		from menus
		where deleted_at is null`
	args := []any{}
	if category != "" {
		query += ` and category = $1`
		args = append(args, category)
	}
	query += ` order by category, name`

	rows, err := h.DB.Query(ctx, query, args...)
	if err != nil {
		h.Logger.Error("menu list failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "메뉴를 불러오지 못했습니다.")
		return
	}
	defer rows.Close()

	menus := []MenuSummary{}
	for rows.Next() {
		var m MenuSummary
		var imageURL, thumbURL pgtype.Text
		if err := rows.Scan(&m.ID, &m.Name, &m.Description, &m.Price, &m.Category, &imageURL, &thumbURL, &m.IsAvailable); err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "메뉴를 불러오지 못했습니다.")
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
		menus = append(menus, m)
	}
	if err := rows.Err(); err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "메뉴를 불러오지 못했습니다.")
		return
	}
	response.Success(w, menus)
}
