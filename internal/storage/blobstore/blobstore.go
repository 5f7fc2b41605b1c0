// Пакет blobstore — операции с физическими файлами квитанций на диске.
// Отображает санитизированное имя файла в байты внутри одной корневой
// директории: streaming-запись через temp-файл с atomic rename, чтение,
// удаление, проверка существования.
package blobstore

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"
)

// ErrNotFound — файл отсутствует на диске.
// Сигнал, а не жёсткая ошибка: вызывающий код решает, фатально ли это.
var ErrNotFound = errors.New("файл не найден на диске")

// allowedExtensions — допустимые расширения загружаемых файлов.
var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".pdf":  true,
}

// BlobStore — управление физическими файлами в корневой директории.
type BlobStore struct {
	// dataDir — корневая директория хранения файлов (RS_DATA_DIR)
	dataDir string
}

// New создаёт новый BlobStore. Проверяет и создаёт директорию,
// если она не существует.
func New(dataDir string) (*BlobStore, error) {
	if err := os.MkdirAll(dataDir, 0o750); err != nil {
		return nil, fmt.Errorf("не удалось создать директорию данных %s: %w", dataDir, err)
	}

	return &BlobStore{dataDir: dataDir}, nil
}

// Save записывает данные из reader в файл name внутри корневой директории.
// Существующий файл с тем же именем перезаписывается.
//
// Паттерн: temp файл → запись → fsync → atomic rename.
// При ошибке temp файл удаляется.
func (bs *BlobStore) Save(reader io.Reader, name string) (int64, error) {
	if err := os.MkdirAll(bs.dataDir, 0o750); err != nil {
		return 0, fmt.Errorf("не удалось создать директорию данных: %w", err)
	}

	fullPath := filepath.Join(bs.dataDir, name)
	tmpPath := fullPath + ".tmp"

	f, err := os.Create(tmpPath)
	if err != nil {
		return 0, fmt.Errorf("ошибка создания временного файла: %w", err)
	}

	size, err := io.Copy(f, reader)
	if err != nil {
		f.Close()
		os.Remove(tmpPath)
		return 0, fmt.Errorf("ошибка записи данных: %w", err)
	}

	// fsync для гарантии записи на диск
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return 0, fmt.Errorf("ошибка fsync: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("ошибка закрытия файла: %w", err)
	}

	// Атомарный rename, перезаписывает существующий файл
	if err := os.Rename(tmpPath, fullPath); err != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("ошибка атомарного переименования: %w", err)
	}

	return size, nil
}

// Open открывает файл для чтения. Вызывающий код обязан закрыть файл.
// Отсутствие файла — ErrNotFound.
func (bs *BlobStore) Open(name string) (*os.File, error) {
	fullPath := filepath.Join(bs.dataDir, name)

	f, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, fmt.Errorf("ошибка открытия файла %s: %w", name, err)
	}

	return f, nil
}

// Path возвращает полный путь к файлу на диске. Чистое вычисление, без I/O.
func (bs *BlobStore) Path(name string) string {
	return filepath.Join(bs.dataDir, name)
}

// Exists проверяет существование файла на диске.
func (bs *BlobStore) Exists(name string) bool {
	_, err := os.Stat(filepath.Join(bs.dataDir, name))
	return err == nil
}

// Delete удаляет файл с диска.
// Отсутствие файла — ErrNotFound: сигнал для логирования, не жёсткий сбой.
func (bs *BlobStore) Delete(name string) error {
	fullPath := filepath.Join(bs.dataDir, name)

	err := os.Remove(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return fmt.Errorf("ошибка удаления файла %s: %w", name, err)
	}
	return nil
}

// DataDir возвращает путь к директории данных.
func (bs *BlobStore) DataDir() string {
	return bs.dataDir
}

// AllowedExtension проверяет расширение оригинального имени файла
// (без учёта регистра) до санитизации.
func AllowedExtension(originalFilename string) bool {
	ext := strings.ToLower(filepath.Ext(originalFilename))
	return allowedExtensions[ext]
}

// SanitizeFilename приводит имя файла к безопасному виду: остаются только
// буквы, цифры и символы `.`, `_`, `-`, внешние пробелы отбрасываются.
// Если после фильтрации имя пусто, синтезируется
// uploaded_file_<YYYYMMDDHHMMSS><расширение оригинала>.
func SanitizeFilename(originalFilename string, now time.Time) string {
	var b strings.Builder
	for _, r := range originalFilename {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '.' || r == '_' || r == '-' {
			b.WriteRune(r)
		}
	}

	name := strings.TrimSpace(b.String())
	if name == "" {
		ext := strings.ToLower(filepath.Ext(originalFilename))
		name = fmt.Sprintf("uploaded_file_%s%s", now.Format("20060102150405"), ext)
	}
	return name
}
