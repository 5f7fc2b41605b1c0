package repository

import (
	"strings"
	"testing"
	"time"
)

// --- Тесты buildListWhere ---

// TestBuildListWhere_Empty проверяет пустые фильтры.
func TestBuildListWhere_Empty(t *testing.T) {
	where, args := buildListWhere(ListFilters{}, 1)

	if where != "" {
		t.Errorf("where = %q, ожидалась пустая строка", where)
	}
	if len(args) != 0 {
		t.Errorf("args count = %d, ожидался 0", len(args))
	}
}

// TestBuildListWhere_OwnerOnly проверяет точный фильтр по владельцу.
func TestBuildListWhere_OwnerOnly(t *testing.T) {
	owner := "ivan"
	where, args := buildListWhere(ListFilters{Owner: &owner}, 1)

	if !strings.Contains(where, "owner = $1") {
		t.Errorf("where = %q, ожидалось содержание 'owner = $1'", where)
	}
	if len(args) != 1 {
		t.Errorf("args count = %d, ожидался 1", len(args))
	}
	if args[0] != "ivan" {
		t.Errorf("args[0] = %v, ожидался 'ivan'", args[0])
	}
}

// TestBuildListWhere_FilenameSubstring проверяет подстрочный поиск по имени.
func TestBuildListWhere_FilenameSubstring(t *testing.T) {
	filename := "receipt"
	where, args := buildListWhere(ListFilters{Filename: &filename}, 1)

	if !strings.Contains(where, "filename ILIKE $1") {
		t.Errorf("where = %q, ожидался ILIKE по filename", where)
	}
	// Подстрока оборачивается в %...%
	if args[0] != "%receipt%" {
		t.Errorf("args[0] = %v, ожидался '%%receipt%%'", args[0])
	}
}

// TestBuildListWhere_DateRange проверяет диапазон дат.
// Нижняя граница включительна, верхняя — строго меньше end+1 день,
// так что весь день end входит в выборку.
func TestBuildListWhere_DateRange(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	where, args := buildListWhere(ListFilters{
		ReceiptDateStart: &start,
		ReceiptDateEnd:   &end,
	}, 1)

	if !strings.Contains(where, "receipt_date >= $1") {
		t.Errorf("where = %q, ожидалось 'receipt_date >= $1'", where)
	}
	if !strings.Contains(where, "receipt_date < $2") {
		t.Errorf("where = %q, ожидалось 'receipt_date < $2'", where)
	}
	if len(args) != 2 {
		t.Fatalf("args count = %d, ожидался 2", len(args))
	}

	upper, ok := args[1].(time.Time)
	if !ok {
		t.Fatalf("args[1] имеет тип %T, ожидался time.Time", args[1])
	}
	wantUpper := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	if !upper.Equal(wantUpper) {
		t.Errorf("верхняя граница = %v, ожидалась %v (end + 1 день)", upper, wantUpper)
	}
}

// TestBuildListWhere_AmountRange проверяет диапазон сумм (обе границы включительны).
func TestBuildListWhere_AmountRange(t *testing.T) {
	minAmount := 100.0
	maxAmount := 500.0
	where, args := buildListWhere(ListFilters{
		AmountMin: &minAmount,
		AmountMax: &maxAmount,
	}, 1)

	if !strings.Contains(where, "total_amount >= $1") {
		t.Errorf("where = %q, ожидалось 'total_amount >= $1'", where)
	}
	if !strings.Contains(where, "total_amount <= $2") {
		t.Errorf("where = %q, ожидалось 'total_amount <= $2'", where)
	}
	if len(args) != 2 {
		t.Errorf("args count = %d, ожидался 2", len(args))
	}
}

// TestBuildListWhere_SimilarityStatus проверяет точный фильтр по статусу похожести.
func TestBuildListWhere_SimilarityStatus(t *testing.T) {
	status := "Yes"
	where, args := buildListWhere(ListFilters{SimilarityStatus: &status}, 1)

	if !strings.Contains(where, "similarity_status = $1") {
		t.Errorf("where = %q, ожидалось 'similarity_status = $1'", where)
	}
	if args[0] != "Yes" {
		t.Errorf("args[0] = %v, ожидался 'Yes'", args[0])
	}
}

// TestBuildListWhere_AllFilters проверяет конъюнкцию всех фильтров
// и сквозную нумерацию placeholder'ов.
func TestBuildListWhere_AllFilters(t *testing.T) {
	owner := "ivan"
	filename := "shop"
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)
	minAmount := 1.0
	maxAmount := 9999.0
	status := "No"

	where, args := buildListWhere(ListFilters{
		Owner:            &owner,
		Filename:         &filename,
		ReceiptDateStart: &start,
		ReceiptDateEnd:   &end,
		AmountMin:        &minAmount,
		AmountMax:        &maxAmount,
		SimilarityStatus: &status,
	}, 1)

	if !strings.HasPrefix(where, "WHERE ") {
		t.Errorf("where = %q, ожидался префикс 'WHERE '", where)
	}
	if got := strings.Count(where, " AND "); got != 6 {
		t.Errorf("число AND = %d, ожидалось 6", got)
	}
	if len(args) != 7 {
		t.Errorf("args count = %d, ожидался 7", len(args))
	}
	if !strings.Contains(where, "similarity_status = $7") {
		t.Errorf("where = %q, ожидался placeholder $7 для similarity_status", where)
	}
}

// TestBuildListWhere_EmptyStringsIgnored проверяет, что пустые строки
// не превращаются в предикаты.
func TestBuildListWhere_EmptyStringsIgnored(t *testing.T) {
	empty := ""
	where, args := buildListWhere(ListFilters{
		Owner:    &empty,
		Filename: &empty,
	}, 1)

	if where != "" {
		t.Errorf("where = %q, ожидалась пустая строка", where)
	}
	if len(args) != 0 {
		t.Errorf("args count = %d, ожидался 0", len(args))
	}
}
