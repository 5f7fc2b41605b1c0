package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/arturkryukov/receiptstore/internal/domain/model"
)

// recordColumns — список столбцов таблицы file_records для SELECT-запросов.
const recordColumns = `id, filename, owner, work_detail, uploaded_at, client_ip,
	ocr_text, receipt_date, total_amount, similarity_status,
	similar_to_file_id, similarity_score`

// ListFilters — фильтры списка записей. Конъюнкция (AND) всех заданных
// предикатов. Все поля — указатели, nil = фильтр не применяется.
type ListFilters struct {
	// Owner — точное совпадение владельца
	Owner *string
	// Filename — подстрока имени файла без учёта регистра (ILIKE)
	Filename *string
	// ReceiptDateStart — receipt_date >= start (включительно)
	ReceiptDateStart *time.Time
	// ReceiptDateEnd — receipt_date < end + 1 день.
	// Полуоткрытый интервал: весь день end входит в выборку целиком,
	// сравнение по датам, а не по меткам времени.
	ReceiptDateEnd *time.Time
	// AmountMin — total_amount >= min (включительно)
	AmountMin *float64
	// AmountMax — total_amount <= max (включительно)
	AmountMax *float64
	// SimilarityStatus — точное совпадение статуса похожести
	SimilarityStatus *string
}

// RecordRepository — интерфейс CRUD и фильтрованного списка
// для таблицы file_records.
type RecordRepository interface {
	// Create вставляет новую запись. Заполняет ID из RETURNING.
	Create(ctx context.Context, rec *model.FileRecord) error
	// GetByID возвращает запись по id или ErrNotFound.
	GetByID(ctx context.Context, id int64) (*model.FileRecord, error)
	// List возвращает записи, удовлетворяющие всем заданным фильтрам.
	List(ctx context.Context, filters ListFilters) ([]*model.FileRecord, error)
	// Update полностью заменяет изменяемые поля записи и возвращает
	// её актуальное состояние. ID, uploaded_at и client_ip не изменяются.
	Update(ctx context.Context, rec *model.FileRecord) (*model.FileRecord, error)
	// DeleteOwned находит запись, у которой совпали И id, И owner,
	// вызывает beforeDelete (удаление блоба) и удаляет строку.
	// Ошибка beforeDelete прерывает удаление — строка остаётся.
	// Несовпадение владельца неотличимо от отсутствия записи (ErrNotFound).
	DeleteOwned(ctx context.Context, id int64, owner string, beforeDelete func(*model.FileRecord) error) (*model.FileRecord, error)
}

// recordRepo — реализация RecordRepository через pgx.
type recordRepo struct {
	db DBTX
}

// NewRecordRepository создаёт репозиторий записей о файлах.
func NewRecordRepository(db DBTX) RecordRepository {
	return &recordRepo{db: db}
}

func (r *recordRepo) Create(ctx context.Context, rec *model.FileRecord) error {
	query := `
		INSERT INTO file_records (filename, owner, work_detail, uploaded_at, client_ip,
			ocr_text, receipt_date, total_amount, similarity_status,
			similar_to_file_id, similarity_score)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`

	err := r.db.QueryRow(ctx, query,
		rec.Filename, rec.Owner, rec.WorkDetail, rec.UploadedAt, rec.ClientIP,
		rec.OCRText, rec.ReceiptDate, rec.TotalAmount, rec.SimilarityStatus,
		rec.SimilarToFileID, rec.SimilarityScore,
	).Scan(&rec.ID)
	if err != nil {
		return fmt.Errorf("ошибка создания записи: %w", err)
	}
	return nil
}

func (r *recordRepo) GetByID(ctx context.Context, id int64) (*model.FileRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM file_records WHERE id = $1`, recordColumns)

	rec := &model.FileRecord{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&rec.ID, &rec.Filename, &rec.Owner, &rec.WorkDetail, &rec.UploadedAt, &rec.ClientIP,
		&rec.OCRText, &rec.ReceiptDate, &rec.TotalAmount, &rec.SimilarityStatus,
		&rec.SimilarToFileID, &rec.SimilarityScore,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения записи: %w", err)
	}
	return rec, nil
}

func (r *recordRepo) List(ctx context.Context, filters ListFilters) ([]*model.FileRecord, error) {
	where, args := buildListWhere(filters, 1)

	// Стабильный порядок выдачи
	query := fmt.Sprintf(`SELECT %s FROM file_records %s ORDER BY id`, recordColumns, where)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка записей: %w", err)
	}
	defer rows.Close()

	var result []*model.FileRecord
	for rows.Next() {
		rec := &model.FileRecord{}
		if err := rows.Scan(
			&rec.ID, &rec.Filename, &rec.Owner, &rec.WorkDetail, &rec.UploadedAt, &rec.ClientIP,
			&rec.OCRText, &rec.ReceiptDate, &rec.TotalAmount, &rec.SimilarityStatus,
			&rec.SimilarToFileID, &rec.SimilarityScore,
		); err != nil {
			return nil, fmt.Errorf("ошибка сканирования записи: %w", err)
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка итерации результатов: %w", err)
	}

	return result, nil
}

func (r *recordRepo) Update(ctx context.Context, rec *model.FileRecord) (*model.FileRecord, error) {
	query := fmt.Sprintf(`
		UPDATE file_records
		SET owner = $2, work_detail = $3, ocr_text = $4, receipt_date = $5,
			total_amount = $6, similarity_status = $7, similar_to_file_id = $8,
			similarity_score = $9
		WHERE id = $1
		RETURNING %s`, recordColumns)

	updated := &model.FileRecord{}
	err := r.db.QueryRow(ctx, query,
		rec.ID, rec.Owner, rec.WorkDetail, rec.OCRText, rec.ReceiptDate,
		rec.TotalAmount, rec.SimilarityStatus, rec.SimilarToFileID, rec.SimilarityScore,
	).Scan(
		&updated.ID, &updated.Filename, &updated.Owner, &updated.WorkDetail, &updated.UploadedAt, &updated.ClientIP,
		&updated.OCRText, &updated.ReceiptDate, &updated.TotalAmount, &updated.SimilarityStatus,
		&updated.SimilarToFileID, &updated.SimilarityScore,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка обновления записи: %w", err)
	}
	return updated, nil
}

func (r *recordRepo) DeleteOwned(ctx context.Context, id int64, owner string, beforeDelete func(*model.FileRecord) error) (*model.FileRecord, error) {
	// Одинаковый ErrNotFound для "нет такого id" и "id есть, владелец
	// другой" — существование чужих записей не раскрывается.
	query := fmt.Sprintf(`SELECT %s FROM file_records WHERE id = $1 AND owner = $2`, recordColumns)

	rec := &model.FileRecord{}
	err := r.db.QueryRow(ctx, query, id, owner).Scan(
		&rec.ID, &rec.Filename, &rec.Owner, &rec.WorkDetail, &rec.UploadedAt, &rec.ClientIP,
		&rec.OCRText, &rec.ReceiptDate, &rec.TotalAmount, &rec.SimilarityStatus,
		&rec.SimilarToFileID, &rec.SimilarityScore,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка поиска записи для удаления: %w", err)
	}

	if beforeDelete != nil {
		if err := beforeDelete(rec); err != nil {
			return nil, err
		}
	}

	tag, err := r.db.Exec(ctx, `DELETE FROM file_records WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("ошибка удаления записи: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return rec, nil
}

// buildListWhere строит WHERE-условие и аргументы для фильтрованного списка.
// startArg — номер первого $-параметра (для корректной нумерации).
func buildListWhere(filters ListFilters, startArg int) (whereClause string, args []any) {
	var conditions []string
	argNum := startArg

	// Фильтр по владельцу (exact match)
	if filters.Owner != nil && *filters.Owner != "" {
		conditions = append(conditions, fmt.Sprintf("owner = $%d", argNum))
		args = append(args, *filters.Owner)
		argNum++
	}

	// Фильтр по имени файла (подстрока, без учёта регистра)
	if filters.Filename != nil && *filters.Filename != "" {
		conditions = append(conditions, fmt.Sprintf("filename ILIKE $%d", argNum))
		args = append(args, "%"+*filters.Filename+"%")
		argNum++
	}

	// Фильтр по дате квитанции (от, включительно)
	if filters.ReceiptDateStart != nil {
		conditions = append(conditions, fmt.Sprintf("receipt_date >= $%d", argNum))
		args = append(args, *filters.ReceiptDateStart)
		argNum++
	}

	// Фильтр по дате квитанции (до, включая весь день end).
	// Строго меньше end+1 день, а не <= end: сравнение по датам,
	// день end попадает в выборку целиком.
	if filters.ReceiptDateEnd != nil {
		conditions = append(conditions, fmt.Sprintf("receipt_date < $%d", argNum))
		args = append(args, filters.ReceiptDateEnd.AddDate(0, 0, 1))
		argNum++
	}

	// Фильтр по минимальной сумме (включительно)
	if filters.AmountMin != nil {
		conditions = append(conditions, fmt.Sprintf("total_amount >= $%d", argNum))
		args = append(args, *filters.AmountMin)
		argNum++
	}

	// Фильтр по максимальной сумме (включительно)
	if filters.AmountMax != nil {
		conditions = append(conditions, fmt.Sprintf("total_amount <= $%d", argNum))
		args = append(args, *filters.AmountMax)
		argNum++
	}

	// Фильтр по статусу похожести (exact match)
	if filters.SimilarityStatus != nil && *filters.SimilarityStatus != "" {
		conditions = append(conditions, fmt.Sprintf("similarity_status = $%d", argNum))
		args = append(args, *filters.SimilarityStatus)
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}
	return where, args
}
