package handler

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/ledgerly/ledgerly-backend/internal/domain"
)

func TestHandleServiceError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
		wantField  string
		wantDetail string
	}{
		{
			name:       "not found",
			err:        domain.ErrExpenseNotFound,
			wantStatus: http.StatusNotFound,
			wantType:   ErrorTypeNotFound,
			wantDetail: "Expense: resource not found",
		},
		{
			name:       "invalid amount",
			err:        domain.ErrInvalidAmount,
			wantStatus: http.StatusBadRequest,
			wantType:   ErrorTypeValidation,
			wantField:  "amount",
			wantDetail: "Validation failed",
		},
		{
			name:       "wrapped unknown category",
			err:        fmt.Errorf("create: %w", domain.ErrUnknownCategory),
			wantStatus: http.StatusBadRequest,
			wantType:   ErrorTypeValidation,
			wantField:  "category",
			wantDetail: "Validation failed",
		},
		{
			name:       "conflict",
			err:        domain.ErrCategoryAlreadyExists,
			wantStatus: http.StatusConflict,
			wantType:   ErrorTypeConflict,
			wantDetail: "Category: resource already exists",
		},
		{
			name:       "unexpected",
			err:        errors.New("connection refused"),
			wantStatus: http.StatusInternalServerError,
			wantType:   ErrorTypeInternal,
			wantDetail: "Failed to load things",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := newContext(http.MethodGet, "/api/v1/things", "")
			err := handleServiceError(c, tt.err, "load things")
			expectStatus(t, err, rec, tt.wantStatus)

			var problem ProblemDetails
			decode(t, rec, &problem)
			if problem.Type != tt.wantType {
				t.Errorf("Expected type %s, got %s", tt.wantType, problem.Type)
			}
			if problem.Detail != tt.wantDetail {
				t.Errorf("Expected detail %q, got %q", tt.wantDetail, problem.Detail)
			}
			if problem.Instance != "/api/v1/things" {
				t.Errorf("Expected instance /api/v1/things, got %s", problem.Instance)
			}
			if tt.wantField != "" {
				if len(problem.Errors) != 1 || problem.Errors[0].Field != tt.wantField {
					t.Errorf("Expected %s error, got %+v", tt.wantField, problem.Errors)
				}
			}
		})
	}
}

func TestParseID(t *testing.T) {
	tests := []struct {
		value  string
		wantID int32
		wantOK bool
	}{
		{"42", 42, true},
		{"0", 0, false},
		{"-3", 0, false},
		{"abc", 0, false},
		{"99999999999", 0, false},
	}

	for _, tt := range tests {
		c, _ := newContext(http.MethodGet, "/", "")
		id, ok := parseID(withParams(c, "id", tt.value), "id")
		if id != tt.wantID || ok != tt.wantOK {
			t.Errorf("parseID(%q) = %d, %v; want %d, %v", tt.value, id, ok, tt.wantID, tt.wantOK)
		}
	}
}

func TestParseDate(t *testing.T) {
	d, err := parseDate("2026-03-15")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !d.Equal(time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Unexpected date %v", d)
	}

	d, err = parseDate("2026-03-15T10:00:00+02:00")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if d.Location() != time.UTC || d.Hour() != 8 {
		t.Errorf("Expected 08:00 UTC, got %v", d)
	}

	if _, err := parseDate("15/03/2026"); err == nil {
		t.Error("Expected error for unsupported format")
	}
}

func TestParseRangeQuery(t *testing.T) {
	c, _ := newContext(http.MethodGet, "/api/v1/expenses?start=2026-03-01&end=2026-03-31", "")
	start, end, errs := parseRangeQuery(c)
	if errs != nil {
		t.Fatalf("Expected no errors, got %+v", errs)
	}
	if !start.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Unexpected start %v", start)
	}
	// A plain end date includes the whole day
	if !end.Equal(time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Unexpected end %v", end)
	}

	c, _ = newContext(http.MethodGet, "/api/v1/expenses", "")
	start, end, errs = parseRangeQuery(c)
	if errs != nil {
		t.Fatalf("Expected no errors, got %+v", errs)
	}
	now := time.Now().UTC()
	if start.Day() != 1 || start.Month() != now.Month() {
		t.Errorf("Expected start of the current month, got %v", start)
	}
	if end.Day() != 1 || end.Before(now) {
		t.Errorf("Expected start of the next month, got %v", end)
	}

	c, _ = newContext(http.MethodGet, "/api/v1/expenses?start=x&end=y", "")
	_, _, errs = parseRangeQuery(c)
	if len(errs) != 2 {
		t.Errorf("Expected 2 errors, got %+v", errs)
	}
}
