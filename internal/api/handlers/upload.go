// upload.go — обработчик POST /api/upload.
// Приём файла чека через multipart form: file + owner (+ work_detail).
package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	apierrors "github.com/arturkryukov/receiptstore/internal/api/errors"
	"github.com/arturkryukov/receiptstore/internal/service"
)

// Upload обрабатывает POST /api/upload.
func (h *APIHandler) Upload(w http.ResponseWriter, r *http.Request) {
	// Лимит размера тела: сам файл + запас на служебные поля multipart
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)

	if err := r.ParseMultipartForm(32 << 20); err != nil { // 32 MB буфер в памяти
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			apierrors.FileTooLarge(w, fmt.Sprintf("Размер запроса превышает максимум %d байт", h.maxUploadSize))
			return
		}
		apierrors.ValidationError(w, fmt.Sprintf("Ошибка парсинга multipart: %s", err.Error()))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		apierrors.ValidationError(w, "Поле 'file' обязательно")
		return
	}
	defer file.Close()

	owner := r.FormValue("owner")
	if owner == "" {
		apierrors.ValidationError(w, "Поле 'owner' обязательно")
		return
	}

	var workDetail *string
	if v := r.FormValue("work_detail"); v != "" {
		workDetail = &v
	}

	clientIP := clientIPFromRequest(r)

	rec, err := h.records.Upload(r.Context(), service.UploadParams{
		Reader:           file,
		OriginalFilename: header.Filename,
		Owner:            owner,
		WorkDetail:       workDetail,
		ClientIP:         clientIP,
	})
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			apierrors.ValidationError(w, err.Error())
			return
		}
		h.logger.Error("Ошибка загрузки файла",
			slog.String("filename", header.Filename),
			slog.String("error", err.Error()),
		)
		apierrors.InternalError(w, "Внутренняя ошибка при загрузке файла")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "File uploaded successfully!",
		"id":      rec.ID,
	})
}

// clientIPFromRequest извлекает IP клиента из RemoteAddr (без порта).
func clientIPFromRequest(r *http.Request) *string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if host == "" {
		return nil
	}
	return &host
}
