// records.go — обработчики /api/records: список, карточка, обновление,
// удаление.
package handlers

import (
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/arturkryukov/receiptstore/internal/api/errors"
	"github.com/arturkryukov/receiptstore/internal/service"
)

// ListRecords обрабатывает GET /api/records.
// Фильтры — query-параметры: owner, filename, receipt_date_start,
// receipt_date_end, total_amount_min, total_amount_max, similarity_status.
func (h *APIHandler) ListRecords(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	params := service.ListParams{
		Owner:            optionalString(q.Get("owner")),
		Filename:         optionalString(q.Get("filename")),
		ReceiptDateStart: optionalString(q.Get("receipt_date_start")),
		ReceiptDateEnd:   optionalString(q.Get("receipt_date_end")),
		SimilarityStatus: optionalString(q.Get("similarity_status")),
	}

	var err error
	if params.AmountMin, err = optionalFloat(q.Get("total_amount_min")); err != nil {
		apierrors.ValidationError(w, "Параметр total_amount_min должен быть числом")
		return
	}
	if params.AmountMax, err = optionalFloat(q.Get("total_amount_max")); err != nil {
		apierrors.ValidationError(w, "Параметр total_amount_max должен быть числом")
		return
	}

	records, err := h.records.List(r.Context(), params)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			apierrors.ValidationError(w, err.Error())
			return
		}
		h.logger.Error("Ошибка получения списка записей", slog.String("error", err.Error()))
		apierrors.InternalError(w, "Внутренняя ошибка при получении списка записей")
		return
	}

	// Пустой список — JSON-массив [], а не null
	resp := make([]recordJSON, 0, len(records))
	for _, rec := range records {
		resp = append(resp, domainToJSON(rec))
	}

	writeJSON(w, http.StatusOK, resp)
}

// GetRecord обрабатывает GET /api/records/{id}.
func (h *APIHandler) GetRecord(w http.ResponseWriter, r *http.Request) {
	id, ok := recordIDFromURL(w, r)
	if !ok {
		return
	}

	rec, err := h.records.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			apierrors.NotFound(w, "Запись не найдена")
			return
		}
		h.logger.Error("Ошибка получения записи",
			slog.Int64("id", id),
			slog.String("error", err.Error()),
		)
		apierrors.InternalError(w, "Внутренняя ошибка при получении записи")
		return
	}

	writeJSON(w, http.StatusOK, domainToJSON(rec))
}

// UpdateRecord обрабатывает PUT /api/records/{id}.
// Поля приходят form-данными, urlencoded или multipart;
// обновление — замена целиком, незаданные поля обнуляются.
func (h *APIHandler) UpdateRecord(w http.ResponseWriter, r *http.Request) {
	id, ok := recordIDFromURL(w, r)
	if !ok {
		return
	}

	if err := parseFormAny(r); err != nil {
		apierrors.ValidationError(w, "Ошибка парсинга form-данных: "+err.Error())
		return
	}

	params := service.UpdateParams{
		Owner:            r.FormValue("owner"),
		WorkDetail:       optionalString(r.FormValue("work_detail")),
		OCRText:          optionalString(r.FormValue("ocr_text")),
		ReceiptDate:      optionalString(r.FormValue("receipt_date")),
		SimilarityStatus: optionalString(r.FormValue("similarity_status")),
	}

	var err error
	if params.TotalAmount, err = optionalFloat(r.FormValue("total_amount")); err != nil {
		apierrors.ValidationError(w, "Поле total_amount должно быть числом")
		return
	}
	if params.SimilarityScore, err = optionalFloat(r.FormValue("similarity_score")); err != nil {
		apierrors.ValidationError(w, "Поле similarity_score должно быть числом")
		return
	}
	if params.SimilarToFileID, err = optionalInt(r.FormValue("similar_to_file_id")); err != nil {
		apierrors.ValidationError(w, "Поле similar_to_file_id должно быть целым числом")
		return
	}

	updated, err := h.records.Update(r.Context(), id, params)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			apierrors.NotFound(w, "Запись не найдена")
		case errors.Is(err, service.ErrValidation):
			apierrors.ValidationError(w, err.Error())
		default:
			h.logger.Error("Ошибка обновления записи",
				slog.Int64("id", id),
				slog.String("error", err.Error()),
			)
			apierrors.InternalError(w, "Внутренняя ошибка при обновлении записи")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "File updated successfully!",
		"id":      updated.ID,
	})
}

// DeleteRecord обрабатывает DELETE /api/records/{id}?owner=...
// Запись находится по паре (id, owner); несовпадение владельца — 404.
func (h *APIHandler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	id, ok := recordIDFromURL(w, r)
	if !ok {
		return
	}

	owner := r.URL.Query().Get("owner")
	if owner == "" {
		apierrors.ValidationError(w, "Параметр 'owner' обязателен")
		return
	}

	if err := h.records.Delete(r.Context(), id, owner); err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			apierrors.NotFound(w, "Запись не найдена или владелец не совпадает")
		case errors.Is(err, service.ErrValidation):
			apierrors.ValidationError(w, err.Error())
		default:
			h.logger.Error("Ошибка удаления записи",
				slog.Int64("id", id),
				slog.String("error", err.Error()),
			)
			apierrors.InternalError(w, "Внутренняя ошибка при удалении записи")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "File deleted successfully!",
	})
}

// --- Вспомогательные функции ---

// parseFormAny разбирает тело запроса по Content-Type:
// multipart/form-data через ParseMultipartForm, иначе ParseForm.
// ParseForm сам multipart-тело не читает.
func parseFormAny(r *http.Request) error {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "multipart/form-data" {
		return r.ParseMultipartForm(32 << 20) // 32 MB буфер в памяти
	}
	return r.ParseForm()
}

// recordIDFromURL извлекает числовой {id} из пути.
// При некорректном значении пишет 400 и возвращает false.
func recordIDFromURL(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		apierrors.ValidationError(w, "Идентификатор записи должен быть положительным целым числом")
		return 0, false
	}
	return id, true
}

// optionalString — nil для пустой строки.
func optionalString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

// optionalFloat — nil для пустой строки, ошибка для нечисловой.
func optionalFloat(v string) (*float64, error) {
	if v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// optionalInt — nil для пустой строки, ошибка для нецелой.
func optionalInt(v string) (*int64, error) {
	if v == "" {
		return nil, nil
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil, err
	}
	return &i, nil
}
