package handlers

import (
	"crypto/rand"
	"fmt"
	"io"
	"net/http"
	"time"

	"cafe-order-service/internal/utils"
	"cafe-order-service/pkg/response"

	"github.com/jackc/pgx/v5/pgtype"
	"go.uber.org/zap"
)

const (
	menuImageMaxSide = 1280
	menuThumbSize    = 320
	jpegQuality      = 85
)

func randomSuffix8() string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano()%100000000)
	}
	return fmt.Sprintf("%x", b)
}

// AdminMenuImageUpload replaces a menu's photo. The source image is
// re-encoded to JPEG at a bounded resolution plus a square thumbnail, both
// stored under immutable keys so the old URLs can be dropped safely.
func (h *Handler) AdminMenuImageUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.Store == nil {
		response.Error(w, http.StatusServiceUnavailable, "STORAGE_DISABLED", "Object storage is not configured")
		return
	}

	menuID, err := readPathInt64(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid menu id")
		return
	}

	var oldImage, oldThumb pgtype.Text
	if err := h.DB.QueryRow(ctx, `
		select image_url, thumbnail_url from menus
		where id = $1 and deleted_at is null
	`, menuID).Scan(&oldImage, &oldThumb); err != nil {
		response.Error(w, http.StatusNotFound, "MENU_NOT_FOUND", "Menu not found")
		return
	}

	maxSize := h.Config.MaxFileSizeBytes
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+1024)
	if err := r.ParseMultipartForm(maxSize); err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_FILE_SIZE", fmt.Sprintf("File size must be less than %dMB.", maxSize/(1024*1024)))
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "image file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxSize+1))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Failed to read file")
		return
	}
	if int64(len(data)) > maxSize {
		response.Error(w, http.StatusBadRequest, "INVALID_FILE_SIZE", fmt.Sprintf("File size must be less than %dMB.", maxSize/(1024*1024)))
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = utils.DetectContentType(data)
	}
	if !utils.ValidateImageContentType(contentType) {
		response.Error(w, http.StatusBadRequest, "INVALID_FILE_TYPE", "Only JPEG, PNG, WebP and HEIC images are accepted")
		return
	}

	fullJpeg, meta, err := utils.EncodeMenuImage(data, menuImageMaxSide, jpegQuality)
	if err != nil {
		h.Logger.Warn("menu image decode failed", zap.Int64("menuID", menuID), zap.Error(err))
		response.Error(w, http.StatusBadRequest, "INVALID_IMAGE", "Could not decode image")
		return
	}
	thumbJpeg, err := utils.EncodeMenuThumbnail(data, menuThumbSize, jpegQuality)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_IMAGE", "Could not decode image")
		return
	}

	stamp := time.Now().UnixMilli()
	fullKey := fmt.Sprintf("menus/menu-%d-%d-%s.jpg", menuID, stamp, randomSuffix8())
	thumbKey := fmt.Sprintf("menus/menu-%d-thumb-%d-%s.jpg", menuID, stamp, randomSuffix8())

	fullURL, err := h.Store.PutObject(ctx, fullKey, fullJpeg, "image/jpeg")
	if err != nil {
		h.Logger.Error("menu image upload failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "UPLOAD_FAILED", "Failed to store image")
		return
	}
	thumbURL, err := h.Store.PutObject(ctx, thumbKey, thumbJpeg, "image/jpeg")
	if err != nil {
		_ = h.Store.DeleteKey(ctx, fullKey)
		response.Error(w, http.StatusInternalServerError, "UPLOAD_FAILED", "Failed to store image")
		return
	}

	if _, err := h.DB.Exec(ctx, `
		update menus set image_url = $1, thumbnail_url = $2, updated_at = now()
		where id = $3
	`, fullURL, thumbURL, menuID); err != nil {
		h.Logger.Error("menu image url update failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to store image")
		return
	}

	if oldImage.Valid {
		_ = h.Store.DeleteURL(ctx, oldImage.String)
	}
	if oldThumb.Valid {
		_ = h.Store.DeleteURL(ctx, oldThumb.String)
	}

	response.Success(w, map[string]any{
		"imageUrl":     fullURL,
		"thumbnailUrl": thumbURL,
		"width":        meta.Width,
		"height":       meta.Height,
		"format":       meta.Format,
	})
}

func (h *Handler) AdminMenuImageDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.Store == nil {
		response.Error(w, http.StatusServiceUnavailable, "STORAGE_DISABLED", "Object storage is not configured")
		return
	}

	menuID, err := readPathInt64(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid menu id")
		return
	}

	var oldImage, oldThumb pgtype.Text
	if err := h.DB.QueryRow(ctx, `
		select image_url, thumbnail_url from menus
		where id = $1 and deleted_at is null
	`, menuID).Scan(&oldImage, &oldThumb); err != nil {
		response.Error(w, http.StatusNotFound, "MENU_NOT_FOUND", "Menu not found")
		return
	}

	if _, err := h.DB.Exec(ctx, `
		update menus set image_url = null, thumbnail_url = null, updated_at = now()
		where id = $1
	`, menuID); err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to remove image")
		return
	}

	if oldImage.Valid {
		_ = h.Store.DeleteURL(ctx, oldImage.String)
	}
	if oldThumb.Valid {
		_ = h.Store.DeleteURL(ctx, oldThumb.String)
	}

	response.Success(w, map[string]any{"deleted": true})
}
