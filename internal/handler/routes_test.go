package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestRegisterRoutes(t *testing.T) {
	env := newTestEnv(false)
	e := echo.New()
	RegisterRoutes(e, nil, nil, env.handlers)

	registered := make(map[string]bool)
	for _, r := range e.Routes() {
		registered[r.Method+" "+r.Path] = true
	}

	expected := []string{
		"POST /api/v1/expenses",
		"GET /api/v1/expenses",
		"GET /api/v1/expenses/search",
		"GET /api/v1/expenses/:id",
		"PUT /api/v1/expenses/:id",
		"DELETE /api/v1/expenses/:id",
		"POST /api/v1/expenses/:id/receipt",
		"GET /api/v1/expenses/:id/receipt",
		"DELETE /api/v1/expenses/:id/receipt",
		"POST /api/v1/incomes",
		"GET /api/v1/incomes",
		"GET /api/v1/incomes/search",
		"GET /api/v1/incomes/upcoming",
		"GET /api/v1/incomes/:id",
		"PUT /api/v1/incomes/:id",
		"DELETE /api/v1/incomes/:id",
		"GET /api/v1/categories",
		"POST /api/v1/categories",
		"GET /api/v1/income-types",
		"POST /api/v1/income-types",
		"POST /api/v1/limits",
		"GET /api/v1/limits",
		"GET /api/v1/limits/exceeded",
		"GET /api/v1/limits/near",
		"GET /api/v1/limits/category/:category",
		"GET /api/v1/limits/category/:category/history",
		"PUT /api/v1/limits/:id",
		"DELETE /api/v1/limits/:id",
		"POST /api/v1/savings",
		"GET /api/v1/savings",
		"GET /api/v1/savings/:id",
		"PUT /api/v1/savings/:id",
		"DELETE /api/v1/savings/:id",
		"GET /api/v1/savings/:id/progress",
		"POST /api/v1/savings/:id/transactions",
		"GET /api/v1/savings/:id/transactions",
		"DELETE /api/v1/savings/transactions/:id",
		"GET /api/v1/reports/monthly/:year/:month",
		"GET /api/v1/reports/compare/:year/:month",
		"GET /api/v1/reports/categories",
		"GET /api/v1/reports/dashboard",
		"POST /api/v1/backups",
		"GET /api/v1/backups",
		"GET /api/v1/backups/export",
		"POST /api/v1/backups/restore",
		"POST /api/v1/backups/:key/restore",
	}
	for _, route := range expected {
		if !registered[route] {
			t.Errorf("Expected route %s to be registered", route)
		}
	}
}

func TestRegisterRoutes_ServesRequests(t *testing.T) {
	env := newTestEnv(false)
	e := echo.New()
	RegisterRoutes(e, nil, nil, env.handlers)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/categories", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, rec.Code)
	}

	// Static segments win over parameters
	req = httptest.NewRequest(http.MethodGet, "/api/v1/limits/exceeded", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/expenses/12", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}
