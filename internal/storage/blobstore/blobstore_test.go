package blobstore

import (
	"errors"
	"io"
	"strings"
	"testing"
	"time"
)

// --- Тесты SanitizeFilename ---

// TestSanitizeFilename проверяет фильтрацию символов в имени файла.
func TestSanitizeFilename(t *testing.T) {
	now := time.Date(2024, 1, 15, 10, 30, 45, 0, time.UTC)

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "обычное имя остаётся без изменений",
			input:    "receipt_2024-01.pdf",
			expected: "receipt_2024-01.pdf",
		},
		{
			name:     "пробелы и спецсимволы отбрасываются",
			input:    "my receipt #1 (final)!.pdf",
			expected: "myreceipt1final.pdf",
		},
		{
			name:     "кириллица сохраняется",
			input:    "чек января.png",
			expected: "чекянваря.png",
		},
		{
			name:     "слэши пути отбрасываются",
			input:    "../../etc/passwd.jpg",
			expected: "....etcpasswd.jpg",
		},
		{
			name:     "от мусорного имени остаются точка и расширение",
			input:    "###???.pdf",
			expected: ".pdf",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizeFilename(tt.input, now)
			if got != tt.expected {
				t.Errorf("SanitizeFilename(%q) = %q, ожидалось %q", tt.input, got, tt.expected)
			}
		})
	}
}

// TestSanitizeFilename_SynthesizedWithoutExtension проверяет синтез имени,
// когда у оригинала нет расширения.
func TestSanitizeFilename_SynthesizedWithoutExtension(t *testing.T) {
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	got := SanitizeFilename("@#$%", now)
	if got != "uploaded_file_20240301000000" {
		t.Errorf("got = %q, ожидалось синтезированное имя без расширения", got)
	}
}

// --- Тесты AllowedExtension ---

// TestAllowedExtension проверяет белый список расширений.
func TestAllowedExtension(t *testing.T) {
	tests := []struct {
		filename string
		allowed  bool
	}{
		{"receipt.jpg", true},
		{"receipt.jpeg", true},
		{"receipt.png", true},
		{"receipt.pdf", true},
		// Регистр не учитывается
		{"RECEIPT.JPG", true},
		{"receipt.Pdf", true},
		// Запрещённые типы
		{"receipt.gif", false},
		{"receipt.txt", false},
		{"receipt", false},
		{"", false},
		// Решает последнее расширение
		{"receipt.pdf.exe", false},
		{"receipt.exe.pdf", true},
	}

	for _, tt := range tests {
		got := AllowedExtension(tt.filename)
		if got != tt.allowed {
			t.Errorf("AllowedExtension(%q) = %v, ожидалось %v", tt.filename, got, tt.allowed)
		}
	}
}

// --- Тесты хранилища ---

// TestBlobStore_SaveOpenRoundtrip проверяет запись и чтение файла.
func TestBlobStore_SaveOpenRoundtrip(t *testing.T) {
	bs, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	content := "содержимое чека"
	size, err := bs.Save(strings.NewReader(content), "receipt.pdf")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if size != int64(len(content)) {
		t.Errorf("size = %d, ожидалось %d", size, len(content))
	}

	f, err := bs.Open("receipt.pdf")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(data) != content {
		t.Errorf("содержимое = %q, ожидалось %q", string(data), content)
	}
}

// TestBlobStore_SaveOverwrite проверяет, что повторная запись
// с тем же именем заменяет содержимое.
func TestBlobStore_SaveOverwrite(t *testing.T) {
	bs, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, err := bs.Save(strings.NewReader("первая версия"), "receipt.jpg"); err != nil {
		t.Fatalf("Save (первая): %v", err)
	}
	if _, err := bs.Save(strings.NewReader("вторая версия"), "receipt.jpg"); err != nil {
		t.Fatalf("Save (вторая): %v", err)
	}

	f, err := bs.Open("receipt.jpg")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()

	data, _ := io.ReadAll(f)
	if string(data) != "вторая версия" {
		t.Errorf("содержимое = %q, ожидалась 'вторая версия'", string(data))
	}
}

// TestBlobStore_OpenMissing проверяет ErrNotFound для отсутствующего файла.
func TestBlobStore_OpenMissing(t *testing.T) {
	bs, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, err := bs.Open("nope.pdf"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Open: err = %v, ожидался ErrNotFound", err)
	}
}

// TestBlobStore_Delete проверяет удаление файла и ErrNotFound
// при повторном удалении.
func TestBlobStore_Delete(t *testing.T) {
	bs, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, err := bs.Save(strings.NewReader("x"), "gone.png"); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if err := bs.Delete("gone.png"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if bs.Exists("gone.png") {
		t.Error("Exists после Delete = true, ожидался false")
	}

	if err := bs.Delete("gone.png"); !errors.Is(err, ErrNotFound) {
		t.Errorf("повторный Delete: err = %v, ожидался ErrNotFound", err)
	}
}
