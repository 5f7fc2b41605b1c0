// Пакет model — доменные модели Receipt Store.
package model

import "time"

// DefaultSimilarityStatus — статус похожести по умолчанию для новых записей.
const DefaultSimilarityStatus = "No"

// FileRecord — запись о загруженном файле квитанции.
// Хранится в таблице file_records.
type FileRecord struct {
	// ID — первичный ключ, назначается базой при создании
	ID int64
	// Filename — санитизированное имя файла на диске
	Filename string
	// Owner — владелец записи (строка от клиента, не проверенная личность)
	Owner string
	// WorkDetail — описание работ (опционально)
	WorkDetail *string
	// UploadedAt — время загрузки, серверные часы, неизменяемое
	UploadedAt time.Time
	// ClientIP — IP клиента на момент загрузки, неизменяемое
	ClientIP *string
	// OCRText — распознанный текст квитанции (записывается извне)
	OCRText *string
	// ReceiptDate — дата квитанции (опционально)
	ReceiptDate *time.Time
	// TotalAmount — сумма по квитанции, 2 знака после запятой
	TotalAmount *float64
	// SimilarityStatus — статус похожести ("No" по умолчанию).
	// Указатель: полное обновление без поля обнуляет статус.
	SimilarityStatus *string
	// SimilarToFileID — ссылка на похожую запись (без FK-ограничения)
	SimilarToFileID *int64
	// SimilarityScore — оценка похожести, 2 знака после запятой
	SimilarityScore *float64
}
