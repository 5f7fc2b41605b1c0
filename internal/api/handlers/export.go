// export.go — обработчик GET /api/export/csv.
package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	apierrors "github.com/arturkryukov/receiptstore/internal/api/errors"
)

// ExportCSV обрабатывает GET /api/export/csv.
// Пустой реестр — 204 без тела.
func (h *APIHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	data, filename, err := h.records.ExportCSV(r.Context())
	if err != nil {
		h.logger.Error("Ошибка экспорта в CSV", slog.String("error", err.Error()))
		apierrors.InternalError(w, "Внутренняя ошибка при экспорте в CSV")
		return
	}
	if data == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%s", url.QueryEscape(filename)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
