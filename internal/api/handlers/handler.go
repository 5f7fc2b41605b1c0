// handler.go — основной обработчик API.
// Объединяет доменные обработчики и делегирует запросы в сервисный слой.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/arturkryukov/receiptstore/internal/domain/model"
	"github.com/arturkryukov/receiptstore/internal/service"
)

// APIHandler — основной обработчик HTTP API сервиса.
type APIHandler struct {
	records *service.RecordService
	health  *HealthHandler
	// maxUploadSize — лимит размера тела запроса загрузки, байт
	maxUploadSize int64
	logger        *slog.Logger
}

// NewAPIHandler создаёт основной обработчик API.
func NewAPIHandler(
	records *service.RecordService,
	health *HealthHandler,
	maxUploadSize int64,
	logger *slog.Logger,
) *APIHandler {
	return &APIHandler{
		records:       records,
		health:        health,
		maxUploadSize: maxUploadSize,
		logger:        logger.With(slog.String("component", "api_handler")),
	}
}

// HealthLive — liveness probe (делегируется в HealthHandler).
func (h *APIHandler) HealthLive(w http.ResponseWriter, r *http.Request) {
	h.health.HealthLive(w, r)
}

// HealthReady — readiness probe (делегируется в HealthHandler).
func (h *APIHandler) HealthReady(w http.ResponseWriter, r *http.Request) {
	h.health.HealthReady(w, r)
}

// Welcome обрабатывает GET /api/welcome.
func (h *APIHandler) Welcome(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Welcome to the Receipt Store API",
	})
}

// --- Вспомогательные функции ---

// writeJSON записывает JSON-ответ с указанным статусом.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// recordJSON — представление записи в HTTP-ответах.
type recordJSON struct {
	ID               int64    `json:"id"`
	Filename         string   `json:"filename"`
	Owner            string   `json:"owner"`
	WorkDetail       *string  `json:"work_detail"`
	UploadedAt       string   `json:"uploaded_at"`
	ClientIP         *string  `json:"client_ip"`
	OCRText          *string  `json:"ocr_text"`
	ReceiptDate      *string  `json:"receipt_date"`
	TotalAmount      *float64 `json:"total_amount"`
	SimilarityStatus *string  `json:"similarity_status"`
	SimilarToFileID  *int64   `json:"similar_to_file_id"`
	SimilarityScore  *float64 `json:"similarity_score"`
}

// domainToJSON конвертирует domain-модель в API-представление.
// uploaded_at — RFC3339, receipt_date — дата без времени (2006-01-02).
func domainToJSON(rec *model.FileRecord) recordJSON {
	var receiptDate *string
	if rec.ReceiptDate != nil {
		d := rec.ReceiptDate.Format("2006-01-02")
		receiptDate = &d
	}

	return recordJSON{
		ID:               rec.ID,
		Filename:         rec.Filename,
		Owner:            rec.Owner,
		WorkDetail:       rec.WorkDetail,
		UploadedAt:       rec.UploadedAt.Format(time.RFC3339),
		ClientIP:         rec.ClientIP,
		OCRText:          rec.OCRText,
		ReceiptDate:      receiptDate,
		TotalAmount:      rec.TotalAmount,
		SimilarityStatus: rec.SimilarityStatus,
		SimilarToFileID:  rec.SimilarToFileID,
		SimilarityScore:  rec.SimilarityScore,
	}
}
