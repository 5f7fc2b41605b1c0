// Точка входа Receipt Store — сервиса учёта загруженных чеков.
// Загружает конфигурацию, применяет миграции, подключается к PostgreSQL,
// инициализирует файловое хранилище, сервисный слой и API handlers,
// запускает HTTP-сервер с graceful shutdown.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/arturkryukov/receiptstore/internal/api/handlers"
	"github.com/arturkryukov/receiptstore/internal/config"
	"github.com/arturkryukov/receiptstore/internal/database"
	"github.com/arturkryukov/receiptstore/internal/repository"
	"github.com/arturkryukov/receiptstore/internal/server"
	"github.com/arturkryukov/receiptstore/internal/service"
	"github.com/arturkryukov/receiptstore/internal/storage/blobstore"
)

func main() {
	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Настройка логирования
	logger := config.SetupLogger(cfg)
	logger.Info("Receipt Store запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
	)

	// 3. Применение миграций БД
	logger.Info("Применение миграций БД...")
	if err := database.Migrate(cfg, logger); err != nil {
		logger.Error("Ошибка миграций БД", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Подключение к PostgreSQL (pgxpool)
	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		logger.Error("Ошибка подключения к PostgreSQL", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	// 5. Файловое хранилище
	blobs, err := blobstore.New(cfg.DataDir)
	if err != nil {
		logger.Error("Ошибка инициализации файлового хранилища",
			slog.String("data_dir", cfg.DataDir),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}
	logger.Info("Файловое хранилище инициализировано", slog.String("data_dir", cfg.DataDir))

	// 6. Repository
	store := repository.NewStore(pool)

	// 7. Services
	recordSvc := service.NewRecordService(store, blobs, logger)

	// 8. API handlers
	healthHandler := handlers.NewHealthHandler(cfg.DataDir, pool)
	apiHandler := handlers.NewAPIHandler(recordSvc, healthHandler, cfg.MaxUploadSize, logger)

	// 9. HTTP-сервер
	srv := server.New(cfg, logger, apiHandler)
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка HTTP-сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
