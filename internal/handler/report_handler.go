package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/ledgerly/ledgerly-backend/internal/domain"
	"github.com/ledgerly/ledgerly-backend/internal/service"
)

// ReportHandler handles reporting requests
type ReportHandler struct {
	reportService *service.ReportService
	now           func() time.Time
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(reportService *service.ReportService) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// MonthlyTotalsResponse represents the income and expense totals of a month
type MonthlyTotalsResponse struct {
	Year     int    `json:"year"`
	Month    int    `json:"month"`
	Start    string `json:"start"`
	End      string `json:"end"`
	Income   string `json:"income"`
	Expenses string `json:"expenses"`
	Balance  string `json:"balance"`
}

// MonthComparisonResponse compares a month with the month before it
type MonthComparisonResponse struct {
	Current       MonthlyTotalsResponse `json:"current"`
	Previous      MonthlyTotalsResponse `json:"previous"`
	IncomeChange  string                `json:"incomeChange"`
	ExpenseChange string                `json:"expenseChange"`
	BalanceChange string                `json:"balanceChange"`
}

// CategoryTotalResponse represents the expense total of one category
type CategoryTotalResponse struct {
	Category string `json:"category"`
	Total    string `json:"total"`
	Count    int    `json:"count"`
}

// DashboardResponse is the overview of the current month
type DashboardResponse struct {
	Month           MonthComparisonResponse  `json:"month"`
	ExceededLimits  []LimitResponse          `json:"exceededLimits"`
	NearLimits      []LimitResponse          `json:"nearLimits"`
	Savings         []SavingsProjectResponse `json:"savings"`
	UpcomingIncomes []UpcomingIncomeResponse `json:"upcomingIncomes"`
}

func toMonthlyTotalsResponse(t *domain.MonthlyTotals) MonthlyTotalsResponse {
	return MonthlyTotalsResponse{
		Year:     t.Year,
		Month:    t.Month,
		Start:    formatTime(t.Start),
		End:      t.End.UTC().Format(time.RFC3339Nano),
		Income:   t.Income.StringFixed(2),
		Expenses: t.Expenses.StringFixed(2),
		Balance:  t.Balance.StringFixed(2),
	}
}

func toMonthComparisonResponse(m *domain.MonthComparison) MonthComparisonResponse {
	return MonthComparisonResponse{
		Current:       toMonthlyTotalsResponse(&m.Current),
		Previous:      toMonthlyTotalsResponse(&m.Previous),
		IncomeChange:  m.IncomeChange.StringFixed(2),
		ExpenseChange: m.ExpenseChange.StringFixed(2),
		BalanceChange: m.BalanceChange.StringFixed(2),
	}
}

// parseYearMonth reads the :year and :month path parameters
func parseYearMonth(c echo.Context) (int, int, []ValidationError) {
	var errs []ValidationError
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		errs = append(errs, ValidationError{Field: "year", Message: "Must be a number"})
	}
	month, err := strconv.Atoi(c.Param("month"))
	if err != nil {
		errs = append(errs, ValidationError{Field: "month", Message: "Must be a number"})
	}
	return year, month, errs
}

// GetMonthlyTotals godoc
// @Summary Monthly totals
// @Description Income, expenses and balance of a calendar month
// @Tags reports
// @Produce json
// @Security BearerAuth
// @Param year path int true "Year"
// @Param month path int true "Month (1-12)"
// @Success 200 {object} MonthlyTotalsResponse
// @Failure 400 {object} ProblemDetails
// @Router /reports/monthly/{year}/{month} [get]
func (h *ReportHandler) GetMonthlyTotals(c echo.Context) error {
	year, month, errs := parseYearMonth(c)
	if errs != nil {
		return NewValidationError(c, "Invalid month", errs)
	}

	totals, err := h.reportService.MonthlyTotals(c.Request().Context(), year, month)
	if err != nil {
		return handleServiceError(c, err, "get monthly totals")
	}
	return c.JSON(http.StatusOK, toMonthlyTotalsResponse(totals))
}

// GetMonthComparison godoc
// @Summary Compare with the previous month
// @Description Totals of a month and of the month before it, with current minus previous changes
// @Tags reports
// @Produce json
// @Security BearerAuth
// @Param year path int true "Year"
// @Param month path int true "Month (1-12)"
// @Success 200 {object} MonthComparisonResponse
// @Failure 400 {object} ProblemDetails
// @Router /reports/compare/{year}/{month} [get]
func (h *ReportHandler) GetMonthComparison(c echo.Context) error {
	year, month, errs := parseYearMonth(c)
	if errs != nil {
		return NewValidationError(c, "Invalid month", errs)
	}

	comparison, err := h.reportService.PreviousMonthComparison(c.Request().Context(), year, month)
	if err != nil {
		return handleServiceError(c, err, "compare months")
	}
	return c.JSON(http.StatusOK, toMonthComparisonResponse(comparison))
}

// GetCategoryBreakdown godoc
// @Summary Expenses per category
// @Description Expense totals per category in a date range, largest first. Defaults to the current month.
// @Tags reports
// @Produce json
// @Security BearerAuth
// @Param start query string false "Range start (YYYY-MM-DD)"
// @Param end query string false "Range end, inclusive day (YYYY-MM-DD)"
// @Success 200 {array} CategoryTotalResponse
// @Failure 400 {object} ProblemDetails
// @Router /reports/categories [get]
func (h *ReportHandler) GetCategoryBreakdown(c echo.Context) error {
	start, end, errs := parseRangeQuery(c)
	if errs != nil {
		return NewValidationError(c, "Invalid date range", errs)
	}

	// The breakdown takes an inclusive end
	totals, err := h.reportService.CategoryBreakdown(c.Request().Context(), start, end.Add(-time.Nanosecond))
	if err != nil {
		return handleServiceError(c, err, "get category breakdown")
	}

	result := make([]CategoryTotalResponse, 0, len(totals))
	for _, t := range totals {
		result = append(result, CategoryTotalResponse{Category: t.Category, Total: t.Total.StringFixed(2), Count: t.Count})
	}
	return c.JSON(http.StatusOK, result)
}

// GetDashboard godoc
// @Summary Dashboard
// @Description Current month totals, exceeded and near limits, savings progress and upcoming incomes
// @Tags reports
// @Produce json
// @Security BearerAuth
// @Success 200 {object} DashboardResponse
// @Router /reports/dashboard [get]
func (h *ReportHandler) GetDashboard(c echo.Context) error {
	dashboard, err := h.reportService.Dashboard(c.Request().Context(), h.now())
	if err != nil {
		return handleServiceError(c, err, "get dashboard")
	}

	savings := make([]SavingsProjectResponse, 0, len(dashboard.Savings))
	for _, s := range dashboard.Savings {
		savings = append(savings, toSavingsProjectResponse(s.Project))
	}

	return c.JSON(http.StatusOK, DashboardResponse{
		Month:           toMonthComparisonResponse(&dashboard.Month),
		ExceededLimits:  toLimitResponses(dashboard.ExceededLimits),
		NearLimits:      toLimitResponses(dashboard.NearLimits),
		Savings:         savings,
		UpcomingIncomes: toUpcomingIncomeResponses(dashboard.UpcomingIncomes),
	})
}
