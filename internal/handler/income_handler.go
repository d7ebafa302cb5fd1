package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/ledgerly/ledgerly-backend/internal/domain"
	"github.com/ledgerly/ledgerly-backend/internal/service"
)

const (
	defaultUpcomingDays = 30
	maxUpcomingDays     = 366
)

// IncomeHandler handles income-related HTTP requests
type IncomeHandler struct {
	incomeService *service.IncomeService
}

// NewIncomeHandler creates a new IncomeHandler
func NewIncomeHandler(incomeService *service.IncomeService) *IncomeHandler {
	return &IncomeHandler{incomeService: incomeService}
}

// IncomeRequest represents the create and update income request body
type IncomeRequest struct {
	Description            string `json:"description"`
	Amount                 string `json:"amount"`
	Type                   string `json:"type"`
	Date                   string `json:"date"`
	IsRecurring            bool   `json:"isRecurring"`
	RecurringFrequencyDays *int32 `json:"recurringFrequencyDays,omitempty"`
}

// IncomeResponse represents an income in API responses
type IncomeResponse struct {
	ID                     int32   `json:"id"`
	Description            string  `json:"description"`
	Amount                 string  `json:"amount"`
	Type                   string  `json:"type"`
	Date                   string  `json:"date"`
	IsRecurring            bool    `json:"isRecurring"`
	RecurringFrequencyDays *int32  `json:"recurringFrequencyDays,omitempty"`
	NextOccurrence         *string `json:"nextOccurrence,omitempty"`
	CreatedAt              string  `json:"createdAt"`
	UpdatedAt              string  `json:"updatedAt"`
}

// UpcomingIncomeResponse represents a recurring income that is due soon
type UpcomingIncomeResponse struct {
	Income    IncomeResponse `json:"income"`
	DueDate   string         `json:"dueDate"`
	DaysUntil int            `json:"daysUntil"`
}

func toIncomeResponse(i *domain.Income) IncomeResponse {
	return IncomeResponse{
		ID:                     i.ID,
		Description:            i.Description,
		Amount:                 i.Amount.StringFixed(2),
		Type:                   i.Type,
		Date:                   formatTime(i.Date),
		IsRecurring:            i.IsRecurring,
		RecurringFrequencyDays: i.RecurringFrequencyDays,
		NextOccurrence:         formatOptionalTime(i.NextOccurrence),
		CreatedAt:              formatTime(i.CreatedAt),
		UpdatedAt:              formatTime(i.UpdatedAt),
	}
}

func toIncomeResponses(incomes []*domain.Income) []IncomeResponse {
	result := make([]IncomeResponse, 0, len(incomes))
	for _, i := range incomes {
		result = append(result, toIncomeResponse(i))
	}
	return result
}

func toUpcomingIncomeResponses(upcoming []*domain.UpcomingIncome) []UpcomingIncomeResponse {
	result := make([]UpcomingIncomeResponse, 0, len(upcoming))
	for _, u := range upcoming {
		result = append(result, UpcomingIncomeResponse{
			Income:    toIncomeResponse(u.Income),
			DueDate:   formatDate(u.DueDate),
			DaysUntil: u.DaysUntil,
		})
	}
	return result
}

func (r *IncomeRequest) toIncome() (*domain.Income, []ValidationError) {
	var errs []ValidationError

	amount, err := parseAmount(r.Amount)
	if err != nil {
		errs = append(errs, ValidationError{Field: "amount", Message: "Must be a valid decimal number"})
	}
	date, err := parseDate(r.Date)
	if err != nil {
		errs = append(errs, ValidationError{Field: "date", Message: "Must be in YYYY-MM-DD or RFC 3339 format"})
	}
	if len(errs) > 0 {
		return nil, errs
	}

	return &domain.Income{
		Description:            r.Description,
		Amount:                 amount,
		Type:                   r.Type,
		Date:                   date,
		IsRecurring:            r.IsRecurring,
		RecurringFrequencyDays: r.RecurringFrequencyDays,
	}, nil
}

// CreateIncome godoc
// @Summary Create an income
// @Description Record an income. Recurring incomes get their next occurrence scheduled.
// @Tags incomes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body IncomeRequest true "Income"
// @Success 201 {object} IncomeResponse
// @Failure 400 {object} ProblemDetails
// @Router /incomes [post]
func (h *IncomeHandler) CreateIncome(c echo.Context) error {
	var req IncomeRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	income, errs := req.toIncome()
	if errs != nil {
		return NewValidationError(c, "Validation failed", errs)
	}

	created, err := h.incomeService.CreateIncome(c.Request().Context(), income)
	if err != nil {
		return handleServiceError(c, err, "create income")
	}
	return c.JSON(http.StatusCreated, toIncomeResponse(created))
}

// ListIncomes godoc
// @Summary List incomes
// @Description List incomes dated in a range, newest first. Defaults to the current month.
// @Tags incomes
// @Produce json
// @Security BearerAuth
// @Param start query string false "Range start (YYYY-MM-DD)"
// @Param end query string false "Range end, inclusive day (YYYY-MM-DD)"
// @Success 200 {array} IncomeResponse
// @Failure 400 {object} ProblemDetails
// @Router /incomes [get]
func (h *IncomeHandler) ListIncomes(c echo.Context) error {
	start, end, errs := parseRangeQuery(c)
	if errs != nil {
		return NewValidationError(c, "Invalid date range", errs)
	}

	incomes, err := h.incomeService.ListIncomes(c.Request().Context(), start, end)
	if err != nil {
		return handleServiceError(c, err, "list incomes")
	}
	return c.JSON(http.StatusOK, toIncomeResponses(incomes))
}

// GetIncome godoc
// @Summary Get an income
// @Tags incomes
// @Produce json
// @Security BearerAuth
// @Param id path int true "Income ID"
// @Success 200 {object} IncomeResponse
// @Failure 404 {object} ProblemDetails
// @Router /incomes/{id} [get]
func (h *IncomeHandler) GetIncome(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid income ID", nil)
	}

	income, err := h.incomeService.GetIncome(c.Request().Context(), id)
	if err != nil {
		return handleServiceError(c, err, "get income")
	}
	return c.JSON(http.StatusOK, toIncomeResponse(income))
}

// UpdateIncome godoc
// @Summary Update an income
// @Tags incomes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Income ID"
// @Param request body IncomeRequest true "Income"
// @Success 200 {object} IncomeResponse
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /incomes/{id} [put]
func (h *IncomeHandler) UpdateIncome(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid income ID", nil)
	}

	var req IncomeRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	income, errs := req.toIncome()
	if errs != nil {
		return NewValidationError(c, "Validation failed", errs)
	}
	income.ID = id

	updated, err := h.incomeService.UpdateIncome(c.Request().Context(), income)
	if err != nil {
		return handleServiceError(c, err, "update income")
	}
	return c.JSON(http.StatusOK, toIncomeResponse(updated))
}

// DeleteIncome godoc
// @Summary Delete an income
// @Tags incomes
// @Security BearerAuth
// @Param id path int true "Income ID"
// @Success 204
// @Failure 404 {object} ProblemDetails
// @Router /incomes/{id} [delete]
func (h *IncomeHandler) DeleteIncome(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid income ID", nil)
	}

	if err := h.incomeService.DeleteIncome(c.Request().Context(), id); err != nil {
		return handleServiceError(c, err, "delete income")
	}
	return c.NoContent(http.StatusNoContent)
}

// SearchIncomes godoc
// @Summary Search incomes
// @Description Case-insensitive substring search over income descriptions, newest first
// @Tags incomes
// @Produce json
// @Security BearerAuth
// @Param q query string true "Search text"
// @Success 200 {array} IncomeResponse
// @Failure 400 {object} ProblemDetails
// @Router /incomes/search [get]
func (h *IncomeHandler) SearchIncomes(c echo.Context) error {
	incomes, err := h.incomeService.SearchIncomes(c.Request().Context(), c.QueryParam("q"))
	if err != nil {
		return handleServiceError(c, err, "search incomes")
	}
	return c.JSON(http.StatusOK, toIncomeResponses(incomes))
}

// GetUpcomingIncomes godoc
// @Summary Upcoming recurring incomes
// @Description Recurring incomes due within the given number of days, soonest first
// @Tags incomes
// @Produce json
// @Security BearerAuth
// @Param days query int false "Look-ahead in days (default 30)"
// @Success 200 {array} UpcomingIncomeResponse
// @Failure 400 {object} ProblemDetails
// @Router /incomes/upcoming [get]
func (h *IncomeHandler) GetUpcomingIncomes(c echo.Context) error {
	days := defaultUpcomingDays
	if s := c.QueryParam("days"); s != "" {
		parsed, err := strconv.Atoi(s)
		if err != nil || parsed < 0 || parsed > maxUpcomingDays {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "days", Message: "Must be a whole number between 0 and 366"},
			})
		}
		days = parsed
	}

	upcoming, err := h.incomeService.GetUpcomingRecurringIncomes(c.Request().Context(), time.Now().UTC(), days)
	if err != nil {
		return handleServiceError(c, err, "list upcoming incomes")
	}
	return c.JSON(http.StatusOK, toUpcomingIncomeResponses(upcoming))
}
