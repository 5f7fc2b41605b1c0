package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/arturkryukov/receiptstore/internal/domain/model"
	"github.com/arturkryukov/receiptstore/internal/repository"
)

// TestExportCSV_Empty проверяет, что пустой реестр — nil-данные без ошибки.
func TestExportCSV_Empty(t *testing.T) {
	svc, _ := newTestService(t, &mockRecordRepo{})

	data, filename, err := svc.ExportCSV(context.Background())
	if err != nil {
		t.Fatalf("ExportCSV ошибка: %v", err)
	}
	if data != nil {
		t.Errorf("data = %v, ожидался nil", data)
	}
	if filename != "" {
		t.Errorf("filename = %q, ожидалась пустая строка", filename)
	}
}

// TestExportCSV проверяет заголовок, содержимое строк и имя файла.
func TestExportCSV(t *testing.T) {
	work := "ремонт"
	ip := "10.0.0.1"
	date := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	amount := 1234.5
	status := "No"

	repo := &mockRecordRepo{
		listFn: func(_ context.Context, _ repository.ListFilters) ([]*model.FileRecord, error) {
			return []*model.FileRecord{
				{
					ID:               1,
					Filename:         "receipt.pdf",
					Owner:            "ivan",
					WorkDetail:       &work,
					UploadedAt:       time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
					ClientIP:         &ip,
					ReceiptDate:      &date,
					TotalAmount:      &amount,
					SimilarityStatus: &status,
				},
				{
					ID:         2,
					Filename:   "another.jpg",
					Owner:      "petr",
					UploadedAt: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
				},
			}, nil
		},
	}
	svc, _ := newTestService(t, repo)

	data, filename, err := svc.ExportCSV(context.Background())
	if err != nil {
		t.Fatalf("ExportCSV ошибка: %v", err)
	}

	if !strings.HasPrefix(filename, "uploaded_files_export_") || !strings.HasSuffix(filename, ".csv") {
		t.Errorf("filename = %q, ожидался формат uploaded_files_export_<метка>.csv", filename)
	}

	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		t.Fatalf("разбор CSV: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("строк = %d, ожидалось 3 (заголовок + 2 записи)", len(rows))
	}

	wantHeader := []string{
		"ID", "Filename", "Owner", "Work Detail", "Uploaded At", "Client IP",
		"OCR Text", "Receipt Date", "Total Amount", "Similarity Status",
		"Similar To File ID", "Similarity Score",
	}
	for i, col := range wantHeader {
		if rows[0][i] != col {
			t.Errorf("заголовок[%d] = %q, ожидался %q", i, rows[0][i], col)
		}
	}

	first := rows[1]
	if first[0] != "1" || first[1] != "receipt.pdf" || first[2] != "ivan" {
		t.Errorf("первая строка = %v", first)
	}
	if first[7] != "2024-01-15" {
		t.Errorf("Receipt Date = %q, ожидалось '2024-01-15'", first[7])
	}
	if first[8] != "1234.50" {
		t.Errorf("Total Amount = %q, ожидалось '1234.50'", first[8])
	}

	// NULL-поля выгружаются пустыми строками
	second := rows[2]
	if second[3] != "" || second[7] != "" || second[8] != "" {
		t.Errorf("пустые поля второй строки = %q, %q, %q", second[3], second[7], second[8])
	}
}
