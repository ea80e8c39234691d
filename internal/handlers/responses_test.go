package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func newQueryContext(t *testing.T, query string) echo.Context {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/?"+query, nil)
	return echo.New().NewContext(req, httptest.NewRecorder())
}

// TestResolveSplitRatio проверяет действующую долю автора.
func TestResolveSplitRatio(t *testing.T) {
	ptr := func(v int) *int { return &v }

	tests := []struct {
		name      string
		isShared  bool
		requested *int
		want      int
		wantOK    bool
	}{
		{"personal expense is fully the creator's", false, nil, 100, true},
		{"personal ignores requested ratio", false, ptr(30), 100, true},
		{"shared defaults to half", true, nil, 50, true},
		{"shared with explicit ratio", true, ptr(70), 70, true},
		{"ratio below range", true, ptr(0), 0, false},
		{"ratio above range", true, ptr(100), 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := resolveSplitRatio(tt.isShared, tt.requested)
			if ok != tt.wantOK || got != tt.want {
				t.Fatalf("got (%d, %v), want (%d, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

// TestMonthYearParamsExplicit проверяет разбор явно заданного периода.
func TestMonthYearParamsExplicit(t *testing.T) {
	month, year, err := monthYearParams(newQueryContext(t, "month=2&year=2025"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if month != 2 || year != 2025 {
		t.Fatalf("unexpected period: %d/%d", month, year)
	}
}

// TestMonthYearParamsDefault: без параметров — текущий месяц.
func TestMonthYearParamsDefault(t *testing.T) {
	month, year, err := monthYearParams(newQueryContext(t, ""))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	now := time.Now()
	if month != int(now.Month()) || year != now.Year() {
		t.Fatalf("expected current period, got %d/%d", month, year)
	}
}

// TestMonthYearParamsInvalid проверяет ошибки на мусорных значениях.
func TestMonthYearParamsInvalid(t *testing.T) {
	if _, _, err := monthYearParams(newQueryContext(t, "month=13")); err == nil {
		t.Fatal("expected error for month out of range")
	}
	if _, _, err := monthYearParams(newQueryContext(t, "month=abc")); err == nil {
		t.Fatal("expected error for non-numeric month")
	}
	if _, _, err := monthYearParams(newQueryContext(t, "year=99")); err == nil {
		t.Fatal("expected error for year out of range")
	}
}
