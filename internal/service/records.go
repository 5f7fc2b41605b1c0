// records.go — сервис учёта загруженных чеков.
// Координирует файловое хранилище (blobstore), реестр метаданных
// (repository) и Prometheus-метрики.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/arturkryukov/receiptstore/internal/domain/model"
	"github.com/arturkryukov/receiptstore/internal/repository"
	"github.com/arturkryukov/receiptstore/internal/storage/blobstore"
)

// Prometheus-метрики сервиса записей.
var (
	uploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rs_uploads_total",
		Help: "Общее количество загрузок файлов (по статусу).",
	}, []string{"status"})

	uploadDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "rs_upload_duration_seconds",
		Help:    "Длительность загрузки файла (приём + запись на диск + вставка в БД).",
		Buckets: prometheus.DefBuckets,
	})

	downloadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rs_downloads_total",
		Help: "Общее количество запросов на скачивание (по статусу).",
	}, []string{"status"})
)

// UploadParams — параметры загрузки файла.
type UploadParams struct {
	// Reader — поток данных файла
	Reader io.Reader
	// OriginalFilename — имя файла, присланное клиентом
	OriginalFilename string
	// Owner — владелец записи (обязательно)
	Owner string
	// WorkDetail — описание работ (опционально)
	WorkDetail *string
	// ClientIP — IP-адрес клиента
	ClientIP *string
}

// ListParams — параметры фильтрации списка записей.
// Даты передаются строками в произвольном формате и разбираются сервисом.
type ListParams struct {
	Owner            *string
	Filename         *string
	ReceiptDateStart *string
	ReceiptDateEnd   *string
	AmountMin        *float64
	AmountMax        *float64
	SimilarityStatus *string
}

// UpdateParams — параметры полного обновления записи.
// Обновление — замена целиком: отсутствующее поле обнуляет значение в БД.
// Filename, uploaded_at и client_ip не изменяются.
type UpdateParams struct {
	// Owner — владелец записи (обязательно)
	Owner string
	// WorkDetail — описание работ
	WorkDetail *string
	// OCRText — распознанный текст чека
	OCRText *string
	// ReceiptDate — дата чека строкой; пустая строка или nil обнуляют поле
	ReceiptDate *string
	// TotalAmount — сумма по чеку
	TotalAmount *float64
	// SimilarityStatus — статус похожести
	SimilarityStatus *string
	// SimilarToFileID — id похожей записи
	SimilarToFileID *int64
	// SimilarityScore — степень похожести
	SimilarityScore *float64
}

// DownloadResult — запись вместе с открытым файлом.
// Вызывающий обязан закрыть File.
type DownloadResult struct {
	Record *model.FileRecord
	File   *os.File
}

// RecordService — сервис учёта записей о загруженных чеках.
type RecordService struct {
	repo   repository.RecordRepository
	blobs  *blobstore.BlobStore
	logger *slog.Logger
}

// NewRecordService создаёт сервис записей.
func NewRecordService(
	repo repository.RecordRepository,
	blobs *blobstore.BlobStore,
	logger *slog.Logger,
) *RecordService {
	return &RecordService{
		repo:   repo,
		blobs:  blobs,
		logger: logger.With(slog.String("component", "record_service")),
	}
}

// Upload принимает файл, сохраняет его на диск и регистрирует запись в БД.
//
// Поток:
//  1. Валидация: владелец, имя файла, расширение (по оригинальному имени)
//  2. Санитизация имени файла
//  3. Запись блоба на диск
//  4. INSERT строки метаданных
//
// При ошибке вставки уже записанный блоб НЕ удаляется — остаётся
// осиротевший файл, факт фиксируется в логе уровня WARN.
func (s *RecordService) Upload(ctx context.Context, params UploadParams) (*model.FileRecord, error) {
	start := time.Now()

	if strings.TrimSpace(params.Owner) == "" {
		uploadsTotal.WithLabelValues("validation_error").Inc()
		return nil, fmt.Errorf("%w: поле owner обязательно", ErrValidation)
	}
	if params.OriginalFilename == "" {
		uploadsTotal.WithLabelValues("validation_error").Inc()
		return nil, fmt.Errorf("%w: имя файла не задано", ErrValidation)
	}
	// Расширение проверяется по оригинальному имени, до санитизации
	if !blobstore.AllowedExtension(params.OriginalFilename) {
		uploadsTotal.WithLabelValues("validation_error").Inc()
		return nil, fmt.Errorf("%w: недопустимый тип файла, разрешены jpg, jpeg, png, pdf", ErrValidation)
	}

	filename := blobstore.SanitizeFilename(params.OriginalFilename, time.Now().UTC())

	size, err := s.blobs.Save(params.Reader, filename)
	if err != nil {
		uploadsTotal.WithLabelValues("storage_error").Inc()
		return nil, fmt.Errorf("сохранение файла: %w", err)
	}

	status := model.DefaultSimilarityStatus
	rec := &model.FileRecord{
		Filename:         filename,
		Owner:            params.Owner,
		WorkDetail:       params.WorkDetail,
		UploadedAt:       time.Now().UTC(),
		ClientIP:         params.ClientIP,
		SimilarityStatus: &status,
	}

	if err := s.repo.Create(ctx, rec); err != nil {
		// Блоб уже на диске; не трогаем его, чтобы не потерять данные
		// при временном сбое БД. Осиротевшие файлы убираются вручную.
		s.logger.Warn("Вставка записи не удалась, на диске остался осиротевший файл",
			slog.String("filename", filename),
			slog.Int64("size", size),
			slog.String("error", err.Error()),
		)
		uploadsTotal.WithLabelValues("db_error").Inc()
		return nil, fmt.Errorf("регистрация записи: %w", err)
	}

	uploadsTotal.WithLabelValues("success").Inc()
	uploadDuration.Observe(time.Since(start).Seconds())

	s.logger.Info("Файл загружен",
		slog.Int64("id", rec.ID),
		slog.String("filename", filename),
		slog.String("owner", rec.Owner),
		slog.Int64("size", size),
	)

	return rec, nil
}

// Get возвращает запись по id.
func (s *RecordService) Get(ctx context.Context, id int64) (*model.FileRecord, error) {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("получение записи: %w", err)
	}
	return rec, nil
}

// List возвращает записи, удовлетворяющие всем заданным фильтрам.
// Строки дат разбираются в произвольном формате (2024-01-15, 15.01.2024,
// Jan 15 2024 и т.п.); неразбираемая дата — ошибка валидации.
func (s *RecordService) List(ctx context.Context, params ListParams) ([]*model.FileRecord, error) {
	filters := repository.ListFilters{
		Owner:            params.Owner,
		Filename:         params.Filename,
		AmountMin:        params.AmountMin,
		AmountMax:        params.AmountMax,
		SimilarityStatus: params.SimilarityStatus,
	}

	var err error
	if filters.ReceiptDateStart, err = parseDateFilter(params.ReceiptDateStart); err != nil {
		return nil, fmt.Errorf("%w: receipt_date_start: %s", ErrValidation, err.Error())
	}
	if filters.ReceiptDateEnd, err = parseDateFilter(params.ReceiptDateEnd); err != nil {
		return nil, fmt.Errorf("%w: receipt_date_end: %s", ErrValidation, err.Error())
	}

	records, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("получение списка записей: %w", err)
	}

	s.logger.Debug("Список записей получен", slog.Int("count", len(records)))
	return records, nil
}

// Update полностью заменяет изменяемые поля записи.
// Возвращает актуальное состояние после обновления.
func (s *RecordService) Update(ctx context.Context, id int64, params UpdateParams) (*model.FileRecord, error) {
	if strings.TrimSpace(params.Owner) == "" {
		return nil, fmt.Errorf("%w: поле owner обязательно", ErrValidation)
	}

	receiptDate, err := parseDateFilter(params.ReceiptDate)
	if err != nil {
		return nil, fmt.Errorf("%w: receipt_date: %s", ErrValidation, err.Error())
	}

	rec := &model.FileRecord{
		ID:               id,
		Owner:            params.Owner,
		WorkDetail:       params.WorkDetail,
		OCRText:          params.OCRText,
		ReceiptDate:      receiptDate,
		TotalAmount:      params.TotalAmount,
		SimilarityStatus: params.SimilarityStatus,
		SimilarToFileID:  params.SimilarToFileID,
		SimilarityScore:  params.SimilarityScore,
	}

	updated, err := s.repo.Update(ctx, rec)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("обновление записи: %w", err)
	}

	s.logger.Info("Запись обновлена", slog.Int64("id", id), slog.String("owner", updated.Owner))
	return updated, nil
}

// Delete удаляет запись и её файл. Запись находится по паре (id, owner):
// чужая запись неотличима от несуществующей. Файл удаляется до строки БД;
// отсутствие файла на диске удаление не прерывает.
func (s *RecordService) Delete(ctx context.Context, id int64, owner string) error {
	if strings.TrimSpace(owner) == "" {
		return fmt.Errorf("%w: поле owner обязательно", ErrValidation)
	}

	_, err := s.repo.DeleteOwned(ctx, id, owner, func(rec *model.FileRecord) error {
		if err := s.blobs.Delete(rec.Filename); err != nil {
			if errors.Is(err, blobstore.ErrNotFound) {
				s.logger.Warn("Файл записи отсутствует на диске, удаляется только строка БД",
					slog.Int64("id", rec.ID),
					slog.String("filename", rec.Filename),
				)
				return nil
			}
			return fmt.Errorf("удаление файла: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("удаление записи: %w", err)
	}

	s.logger.Info("Запись удалена", slog.Int64("id", id), slog.String("owner", owner))
	return nil
}

// Download возвращает запись и открытый файл для отдачи клиенту.
// Запись без файла на диске считается не найденной.
func (s *RecordService) Download(ctx context.Context, id int64) (*DownloadResult, error) {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			downloadsTotal.WithLabelValues("not_found").Inc()
			return nil, ErrNotFound
		}
		downloadsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("получение записи: %w", err)
	}

	f, err := s.blobs.Open(rec.Filename)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			s.logger.Warn("Запись есть в БД, но файл отсутствует на диске",
				slog.Int64("id", rec.ID),
				slog.String("filename", rec.Filename),
			)
			downloadsTotal.WithLabelValues("not_found").Inc()
			return nil, ErrNotFound
		}
		downloadsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("открытие файла: %w", err)
	}

	downloadsTotal.WithLabelValues("success").Inc()
	return &DownloadResult{Record: rec, File: f}, nil
}

// parseDateFilter разбирает дату из строки произвольного формата
// и усекает до даты (полночь UTC). nil или пустая строка — nil.
func parseDateFilter(raw *string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	t, err := dateparse.ParseAny(strings.TrimSpace(*raw))
	if err != nil {
		return nil, fmt.Errorf("неразбираемая дата %q", *raw)
	}
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &day, nil
}
