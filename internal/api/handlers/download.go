// download.go — обработчик GET /api/download/{id}.
// Отдаёт сохранённый файл с Content-Disposition: attachment.
package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"path/filepath"

	apierrors "github.com/arturkryukov/receiptstore/internal/api/errors"
	"github.com/arturkryukov/receiptstore/internal/service"
)

// Download обрабатывает GET /api/download/{id}.
// 404 и для отсутствующей записи, и для записи без файла на диске.
func (h *APIHandler) Download(w http.ResponseWriter, r *http.Request) {
	id, ok := recordIDFromURL(w, r)
	if !ok {
		return
	}

	result, err := h.records.Download(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			apierrors.NotFound(w, "Файл не найден")
			return
		}
		h.logger.Error("Ошибка скачивания файла",
			slog.Int64("id", id),
			slog.String("error", err.Error()),
		)
		apierrors.InternalError(w, "Внутренняя ошибка при скачивании файла")
		return
	}
	defer result.File.Close()

	stat, err := result.File.Stat()
	if err != nil {
		h.logger.Error("Ошибка чтения атрибутов файла",
			slog.Int64("id", id),
			slog.String("error", err.Error()),
		)
		apierrors.InternalError(w, "Внутренняя ошибка при скачивании файла")
		return
	}

	filename := result.Record.Filename

	contentType := mime.TypeByExtension(filepath.Ext(filename))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%s", url.QueryEscape(filename)))

	// ServeContent даёт поддержку Range requests и If-Modified-Since
	http.ServeContent(w, r, filename, stat.ModTime(), result.File)
}
