// store.go — реализация RecordRepository поверх pgxpool с единицей работы
// на операцию: каждая пишущая операция выполняется в собственной транзакции
// (begin → use → commit/rollback), читающие идут напрямую через пул.
package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arturkryukov/receiptstore/internal/domain/model"
)

// Store — пул-ориентированная реализация RecordRepository.
// Ни одна операция не охватывает более одной транзакции.
type Store struct {
	tx    *TxRunner
	reads RecordRepository
}

// NewStore создаёт Store поверх пула подключений.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{
		tx:    NewTxRunner(pool),
		reads: NewRecordRepository(pool),
	}
}

// Create вставляет запись в собственной транзакции.
func (s *Store) Create(ctx context.Context, rec *model.FileRecord) error {
	return s.tx.RunInTx(ctx, func(tx pgx.Tx) error {
		return NewRecordRepository(tx).Create(ctx, rec)
	})
}

// GetByID возвращает запись по id (read-only, без транзакции).
func (s *Store) GetByID(ctx context.Context, id int64) (*model.FileRecord, error) {
	return s.reads.GetByID(ctx, id)
}

// List возвращает записи по фильтрам (read-only, без транзакции).
func (s *Store) List(ctx context.Context, filters ListFilters) ([]*model.FileRecord, error) {
	return s.reads.List(ctx, filters)
}

// Update заменяет изменяемые поля записи в собственной транзакции
// и возвращает её актуальное состояние.
func (s *Store) Update(ctx context.Context, rec *model.FileRecord) (*model.FileRecord, error) {
	var updated *model.FileRecord
	err := s.tx.RunInTx(ctx, func(tx pgx.Tx) error {
		var txErr error
		updated, txErr = NewRecordRepository(tx).Update(ctx, rec)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteOwned удаляет запись по id и owner в собственной транзакции.
// SELECT, beforeDelete и DELETE выполняются в одной транзакции: сбой
// beforeDelete откатывает удаление, строка остаётся на месте.
func (s *Store) DeleteOwned(ctx context.Context, id int64, owner string, beforeDelete func(*model.FileRecord) error) (*model.FileRecord, error) {
	var deleted *model.FileRecord
	err := s.tx.RunInTx(ctx, func(tx pgx.Tx) error {
		var txErr error
		deleted, txErr = NewRecordRepository(tx).DeleteOwned(ctx, id, owner, beforeDelete)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

// Проверка на этапе компиляции
var _ RecordRepository = (*Store)(nil)
