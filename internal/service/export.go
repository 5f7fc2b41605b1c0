// export.go — экспорт реестра записей в CSV.
package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/arturkryukov/receiptstore/internal/repository"
)

var csvExportsTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "rs_csv_exports_total",
	Help: "Общее количество экспортов реестра в CSV.",
})

// csvHeader — порядок и названия столбцов экспорта.
var csvHeader = []string{
	"ID", "Filename", "Owner", "Work Detail", "Uploaded At", "Client IP",
	"OCR Text", "Receipt Date", "Total Amount", "Similarity Status",
	"Similar To File ID", "Similarity Score",
}

// ExportCSV выгружает весь реестр в CSV.
// Пустой реестр — nil-данные без ошибки (HTTP-слой отвечает 204).
// Имя файла содержит метку времени: uploaded_files_export_20240115_103045.csv.
func (s *RecordService) ExportCSV(ctx context.Context) (data []byte, filename string, err error) {
	records, err := s.repo.List(ctx, repository.ListFilters{})
	if err != nil {
		return nil, "", fmt.Errorf("выгрузка записей для экспорта: %w", err)
	}
	if len(records) == 0 {
		return nil, "", nil
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, "", fmt.Errorf("запись заголовка CSV: %w", err)
	}

	for _, rec := range records {
		row := []string{
			strconv.FormatInt(rec.ID, 10),
			rec.Filename,
			rec.Owner,
			strOrEmpty(rec.WorkDetail),
			rec.UploadedAt.Format(time.RFC3339),
			strOrEmpty(rec.ClientIP),
			strOrEmpty(rec.OCRText),
			dateOrEmpty(rec.ReceiptDate),
			floatOrEmpty(rec.TotalAmount),
			strOrEmpty(rec.SimilarityStatus),
			intOrEmpty(rec.SimilarToFileID),
			floatOrEmpty(rec.SimilarityScore),
		}
		if err := w.Write(row); err != nil {
			return nil, "", fmt.Errorf("запись строки CSV: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, "", fmt.Errorf("сброс буфера CSV: %w", err)
	}

	csvExportsTotal.Inc()
	filename = fmt.Sprintf("uploaded_files_export_%s.csv", time.Now().Format("20060102_150405"))

	s.logger.Info("Реестр экспортирован в CSV",
		slog.Int("records", len(records)),
		slog.String("filename", filename),
	)

	return buf.Bytes(), filename, nil
}

func strOrEmpty(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// dateOrEmpty — дата без времени, ISO-формат (2024-01-15).
func dateOrEmpty(p *time.Time) string {
	if p == nil {
		return ""
	}
	return p.Format("2006-01-02")
}

// floatOrEmpty — два знака после запятой, как в NUMERIC-столбцах.
func floatOrEmpty(p *float64) string {
	if p == nil {
		return ""
	}
	return strconv.FormatFloat(*p, 'f', 2, 64)
}

func intOrEmpty(p *int64) string {
	if p == nil {
		return ""
	}
	return strconv.FormatInt(*p, 10)
}
