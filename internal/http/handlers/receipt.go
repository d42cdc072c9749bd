package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"cafe-order-service/internal/utils"
	"cafe-order-service/pkg/response"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/phpdave11/gofpdf"
	"go.uber.org/zap"
)

type receiptItem struct {
	Name     string
	Quantity int32
	Unit     int64
	Subtotal int64
	Notes    string
}

type receiptData struct {
	OrderNumber   string
	PickupName    string
	PaymentMethod string
	PlacedAt      string
	PaidAt        string
	Items         []receiptItem
	Total         int64
}

// AdminOrderReceipt renders a printable PDF receipt for a settled order.
// The built-in core fonts only carry Latin glyphs, so Hangul fields are
// romanized for the PDF; the counter display shows the Korean originals.
func (h *Handler) AdminOrderReceipt(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	orderID, err := readPathInt64(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid order id")
		return
	}

	data := receiptData{}
	var createdAt time.Time
	var approvedAt pgtype.Timestamptz
	var state string
	if err := h.DB.QueryRow(ctx, `
		select o.order_number, o.pickup_name, o.payment_method, o.created_at, p.approved_at, p.state
		from orders o
		join payments p on p.order_id = o.id
		where o.id = $1
	`, orderID).Scan(&data.OrderNumber, &data.PickupName, &data.PaymentMethod, &createdAt, &approvedAt, &state); err != nil {
		response.Error(w, http.StatusNotFound, "ORDER_NOT_FOUND", "Order not found")
		return
	}
	if state != "approved" {
		response.Error(w, http.StatusConflict, "PAYMENT_NOT_SETTLED", "Receipt is only available after payment")
		return
	}

	data.PlacedAt = utils.StoreTime(createdAt)
	if approvedAt.Valid {
		data.PaidAt = utils.StoreTime(approvedAt.Time)
	}

	rows, err := h.DB.Query(ctx, `
		select menu_name, menu_price, quantity, subtotal, coalesce(special_requests, '')
		from order_items where order_id = $1 order by id
	`, orderID)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to build receipt")
		return
	}
	defer rows.Close()

	for rows.Next() {
		var item receiptItem
		if err := rows.Scan(&item.Name, &item.Unit, &item.Quantity, &item.Subtotal, &item.Notes); err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to build receipt")
			return
		}
		data.Total += item.Subtotal
		data.Items = append(data.Items, item)
	}
	if err := rows.Err(); err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to build receipt")
		return
	}

	pdfBytes, err := renderReceiptPDF(data)
	if err != nil {
		h.Logger.Error("receipt render failed", zap.String("orderNumber", data.OrderNumber), zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to build receipt")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`inline; filename="receipt-%s.pdf"`, data.OrderNumber))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdfBytes)
}

func renderReceiptPDF(data receiptData) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(12, 12, 12)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 8, "Cafe Receipt", "", 1, "C", false, 0, "")

	pdf.Ln(2)
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("Order %s", data.OrderNumber), "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	pdf.CellFormat(0, 5, fmt.Sprintf("Pickup: %s", utils.Romanize(data.PickupName)), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 5, fmt.Sprintf("Placed: %s", data.PlacedAt), "", 1, "C", false, 0, "")
	if data.PaidAt != "" {
		pdf.CellFormat(0, 5, fmt.Sprintf("Paid: %s (%s)", data.PaidAt, data.PaymentMethod), "", 1, "C", false, 0, "")
	}

	pdf.Ln(3)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(0, 6, "Items", "B", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	for _, item := range data.Items {
		pdf.CellFormat(130, 5, fmt.Sprintf("%dx %s", item.Quantity, utils.Romanize(item.Name)), "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 5, fmt.Sprintf("%d KRW", item.Subtotal), "", 1, "R", false, 0, "")
		if item.Notes != "" {
			pdf.SetFont("Arial", "I", 8)
			pdf.CellFormat(0, 4, "  "+utils.Romanize(item.Notes), "", 1, "L", false, 0, "")
			pdf.SetFont("Arial", "", 9)
		}
	}

	pdf.Ln(2)
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(130, 7, "Total", "T", 0, "L", false, 0, "")
	pdf.CellFormat(0, 7, fmt.Sprintf("%d KRW", data.Total), "T", 1, "R", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
