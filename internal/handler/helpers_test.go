package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/ledgerly/ledgerly-backend/internal/service"
	"github.com/ledgerly/ledgerly-backend/internal/testutil"
	"github.com/rs/zerolog"
)

// testEnv wires real services to in-memory repositories
type testEnv struct {
	expenseRepo    *testutil.MockExpenseRepository
	incomeRepo     *testutil.MockIncomeRepository
	categoryRepo   *testutil.MockCategoryRepository
	incomeTypeRepo *testutil.MockIncomeTypeRepository
	limitRepo      *testutil.MockSpendingLimitRepository
	savingsRepo    *testutil.MockSavingsRepository
	store          *testutil.MockObjectStore
	notifier       *testutil.MockNotifier

	handlers Handlers
}

// newTestEnv builds every handler. withStore attaches an in-memory object
// store for receipts and backups.
func newTestEnv(withStore bool) *testEnv {
	env := &testEnv{
		expenseRepo:    testutil.NewMockExpenseRepository(),
		incomeRepo:     testutil.NewMockIncomeRepository(),
		categoryRepo:   testutil.NewMockCategoryRepository(),
		incomeTypeRepo: testutil.NewMockIncomeTypeRepository(),
		limitRepo:      testutil.NewMockSpendingLimitRepository(),
		savingsRepo:    testutil.NewMockSavingsRepository(),
		notifier:       testutil.NewMockNotifier(),
	}
	env.categoryRepo.AddCategories("Food", "Transport", "Housing")
	env.incomeTypeRepo.AddIncomeTypes("Salary", "Freelance")

	logger := zerolog.Nop()
	ledger := service.NewLedgerService(env.expenseRepo, env.categoryRepo, logger)
	limits := service.NewSpendingLimitService(env.limitRepo, env.expenseRepo, env.categoryRepo, env.notifier, logger)
	ledger.AddObserver(limits)
	ledger.SetCategoryLocker(limits)
	savings := service.NewSavingsService(env.savingsRepo, logger)
	incomes := service.NewIncomeService(env.incomeRepo, env.incomeTypeRepo, logger)
	categories := service.NewCategoryService(env.categoryRepo, env.incomeTypeRepo, logger)
	reports := service.NewReportService(env.expenseRepo, env.incomeRepo, limits, savings, incomes)

	snapshots := &testutil.MockSnapshotRepository{
		Expenses:    env.expenseRepo,
		Incomes:     env.incomeRepo,
		Categories:  env.categoryRepo,
		IncomeTypes: env.incomeTypeRepo,
		Limits:      env.limitRepo,
		Savings:     env.savingsRepo,
	}

	var receipts *service.ReceiptService
	var backups *service.BackupService
	if withStore {
		env.store = testutil.NewMockObjectStore()
		receipts = service.NewReceiptService(env.store, ledger, logger)
		backups = service.NewBackupService(snapshots, env.store, limits, savings, logger)
	} else {
		receipts = service.NewReceiptService(nil, ledger, logger)
		backups = service.NewBackupService(snapshots, nil, limits, savings, logger)
	}
	ledger.AddObserver(receipts)

	env.handlers = Handlers{
		Expense:  NewExpenseHandler(ledger, reports, receipts),
		Income:   NewIncomeHandler(incomes),
		Category: NewCategoryHandler(categories),
		Limit:    NewLimitHandler(limits, service.DefaultNearLimitRatio),
		Savings:  NewSavingsHandler(savings),
		Report:   NewReportHandler(reports),
		Backup:   NewBackupHandler(backups),
	}
	return env
}

// newContext builds an echo context for a request with an optional JSON body
func newContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

// withParams sets path parameters on a context
func withParams(c echo.Context, pairs ...string) echo.Context {
	names := make([]string, 0, len(pairs)/2)
	values := make([]string, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		names = append(names, pairs[i])
		values = append(values, pairs[i+1])
	}
	c.SetParamNames(names...)
	c.SetParamValues(values...)
	return c
}

// decode unmarshals a recorded response body
func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("Failed to unmarshal response: %v (body %s)", err, rec.Body.String())
	}
}

// expectStatus fails the test when the handler errored or the status differs
func expectStatus(t *testing.T, err error, rec *httptest.ResponseRecorder, status int) {
	t.Helper()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != status {
		t.Fatalf("Expected status %d, got %d (body %s)", status, rec.Code, rec.Body.String())
	}
}

// today returns the current UTC date as YYYY-MM-DD
func today() string {
	return time.Now().UTC().Format("2006-01-02")
}

// createExpense posts an expense through the handler and returns it
func createExpense(t *testing.T, env *testEnv, body string) ExpenseResponse {
	t.Helper()
	c, rec := newContext(http.MethodPost, "/api/v1/expenses", body)
	err := env.handlers.Expense.CreateExpense(c)
	expectStatus(t, err, rec, http.StatusCreated)
	var resp ExpenseResponse
	decode(t, rec, &resp)
	return resp
}
