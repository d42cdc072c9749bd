package handlers

import (
	"net/http"
	"strings"
	"time"

	"cafe-order-service/internal/utils"
	"cafe-order-service/pkg/response"

	"go.uber.org/zap"
)

type salesBucket struct {
	Date       string `json:"date"`
	OrderCount int64  `json:"order_count"`
	Revenue    int64  `json:"revenue"`
}

type topMenu struct {
	MenuID   int64  `json:"menu_id"`
	MenuName string `json:"menu_name"`
	Quantity int64  `json:"quantity"`
	Revenue  int64  `json:"revenue"`
}

// AdminSalesSummary aggregates settled revenue by store-local day. Only
// orders with an approved payment count; cancelled orders never do. Range is
// ?from/?to (YYYY-MM-DD, inclusive), default the last 7 days.
func (h *Handler) AdminSalesSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	loc := utils.StoreLocation()

	to := utils.StoreDay(time.Now())
	from := to.AddDate(0, 0, -6)

	if raw := strings.TrimSpace(r.URL.Query().Get("from")); raw != "" {
		parsed, err := time.ParseInLocation("2006-01-02", raw, loc)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid from date, want YYYY-MM-DD")
			return
		}
		from = parsed
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("to")); raw != "" {
		parsed, err := time.ParseInLocation("2006-01-02", raw, loc)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid to date, want YYYY-MM-DD")
			return
		}
		to = parsed
	}
	if to.Before(from) {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "to must not be before from")
		return
	}
	end := to.AddDate(0, 0, 1)

	rows, err := h.DB.Query(ctx, `
		select date_trunc('day', o.created_at at time zone $1) as day,
		       count(*), coalesce(sum(o.total_amount), 0)
		from orders o
		join payments p on p.order_id = o.id
		where p.state = 'approved'
		  and o.status != 'cancelled'
		  and o.created_at >= $2 and o.created_at < $3
		group by day
		order by day
	`, utils.StoreTimezone, from, end)
	if err != nil {
		h.Logger.Error("sales summary failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to aggregate sales")
		return
	}
	defer rows.Close()

	byDay := map[string]salesBucket{}
	for rows.Next() {
		var day time.Time
		var b salesBucket
		if err := rows.Scan(&day, &b.OrderCount, &b.Revenue); err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to aggregate sales")
			return
		}
		b.Date = utils.StoreDate(day)
		byDay[b.Date] = b
	}
	if err := rows.Err(); err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to aggregate sales")
		return
	}

	// Dense series: days without sales appear as zero buckets.
	buckets := []salesBucket{}
	var totalRevenue, totalOrders int64
	for day := from; day.Before(end); day = day.AddDate(0, 0, 1) {
		key := utils.StoreDate(day)
		b, ok := byDay[key]
		if !ok {
			b = salesBucket{Date: key}
		}
		totalRevenue += b.Revenue
		totalOrders += b.OrderCount
		buckets = append(buckets, b)
	}

	top, err := h.fetchTopMenus(r, from, end, 5)
	if err != nil {
		h.Logger.Error("top menus failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to aggregate sales")
		return
	}

	response.Success(w, map[string]any{
		"from":          utils.StoreDate(from),
		"to":            utils.StoreDate(to),
		"total_revenue": totalRevenue,
		"total_orders":  totalOrders,
		"daily":         buckets,
		"top_menus":     top,
	})
}

func (h *Handler) fetchTopMenus(r *http.Request, from, end time.Time, limit int) ([]topMenu, error) {
	rows, err := h.DB.Query(r.Context(), `
		select oi.menu_id, oi.menu_name, sum(oi.quantity), sum(oi.subtotal)
		from order_items oi
		join orders o on o.id = oi.order_id
		join payments p on p.order_id = o.id
		where p.state = 'approved'
		  and o.status != 'cancelled'
		  and o.created_at >= $1 and o.created_at < $2
		group by oi.menu_id, oi.menu_name
		order by sum(oi.subtotal) desc
		limit $3
	`, from, end, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	top := []topMenu{}
	for rows.Next() {
		var t topMenu
		if err := rows.Scan(&t.MenuID, &t.MenuName, &t.Quantity, &t.Revenue); err != nil {
			return nil, err
		}
		top = append(top, t)
	}
	return top, rows.Err()
}
