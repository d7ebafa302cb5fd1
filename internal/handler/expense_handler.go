package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/ledgerly/ledgerly-backend/internal/domain"
	"github.com/ledgerly/ledgerly-backend/internal/service"
	"github.com/rs/zerolog/log"
)

// ExpenseHandler handles expense-related HTTP requests
type ExpenseHandler struct {
	ledgerService  *service.LedgerService
	reportService  *service.ReportService
	receiptService *service.ReceiptService
}

// NewExpenseHandler creates a new ExpenseHandler
func NewExpenseHandler(ledgerService *service.LedgerService, reportService *service.ReportService, receiptService *service.ReceiptService) *ExpenseHandler {
	return &ExpenseHandler{
		ledgerService:  ledgerService,
		reportService:  reportService,
		receiptService: receiptService,
	}
}

// ExpenseRequest represents the create and update expense request body
type ExpenseRequest struct {
	Title                  string  `json:"title"`
	Amount                 string  `json:"amount"`
	Category               string  `json:"category"`
	Date                   string  `json:"date"`
	IsRecurring            bool    `json:"isRecurring"`
	RecurringFrequencyDays *int32  `json:"recurringFrequencyDays,omitempty"`
	Notes                  *string `json:"notes,omitempty"`
}

// ExpenseResponse represents an expense in API responses
type ExpenseResponse struct {
	ID                     int32   `json:"id"`
	Title                  string  `json:"title"`
	Amount                 string  `json:"amount"`
	Category               string  `json:"category"`
	Date                   string  `json:"date"`
	IsRecurring            bool    `json:"isRecurring"`
	RecurringFrequencyDays *int32  `json:"recurringFrequencyDays,omitempty"`
	Notes                  *string `json:"notes,omitempty"`
	HasReceipt             bool    `json:"hasReceipt"`
	CreatedAt              string  `json:"createdAt"`
	UpdatedAt              string  `json:"updatedAt"`
}

func toExpenseResponse(e *domain.Expense) ExpenseResponse {
	return ExpenseResponse{
		ID:                     e.ID,
		Title:                  e.Title,
		Amount:                 e.Amount.StringFixed(2),
		Category:               e.Category,
		Date:                   formatTime(e.Date),
		IsRecurring:            e.IsRecurring,
		RecurringFrequencyDays: e.RecurringFrequencyDays,
		Notes:                  e.Notes,
		HasReceipt:             e.ReceiptPath != nil,
		CreatedAt:              formatTime(e.CreatedAt),
		UpdatedAt:              formatTime(e.UpdatedAt),
	}
}

func toExpenseResponses(expenses []*domain.Expense) []ExpenseResponse {
	result := make([]ExpenseResponse, 0, len(expenses))
	for _, e := range expenses {
		result = append(result, toExpenseResponse(e))
	}
	return result
}

// toExpense parses a request body into a domain expense
func (r *ExpenseRequest) toExpense() (*domain.Expense, []ValidationError) {
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

	return &domain.Expense{
		Title:                  r.Title,
		Amount:                 amount,
		Category:               r.Category,
		Date:                   date,
		IsRecurring:            r.IsRecurring,
		RecurringFrequencyDays: r.RecurringFrequencyDays,
		Notes:                  r.Notes,
	}, nil
}

// CreateExpense godoc
// @Summary Create an expense
// @Description Record a new expense. Active spending limits of its category are updated.
// @Tags expenses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ExpenseRequest true "Expense"
// @Success 201 {object} ExpenseResponse
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Router /expenses [post]
func (h *ExpenseHandler) CreateExpense(c echo.Context) error {
	var req ExpenseRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	expense, errs := req.toExpense()
	if errs != nil {
		return NewValidationError(c, "Validation failed", errs)
	}

	created, err := h.ledgerService.CreateExpense(c.Request().Context(), expense)
	if err != nil {
		return handleServiceError(c, err, "create expense")
	}

	return c.JSON(http.StatusCreated, toExpenseResponse(created))
}

// ListExpenses godoc
// @Summary List expenses
// @Description List expenses dated in a range, newest first. Defaults to the current month.
// @Tags expenses
// @Produce json
// @Security BearerAuth
// @Param start query string false "Range start (YYYY-MM-DD)"
// @Param end query string false "Range end, inclusive day (YYYY-MM-DD)"
// @Param category query string false "Only expenses of this category"
// @Success 200 {array} ExpenseResponse
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Router /expenses [get]
func (h *ExpenseHandler) ListExpenses(c echo.Context) error {
	ctx := c.Request().Context()

	if category := c.QueryParam("category"); category != "" {
		expenses, err := h.ledgerService.ListExpensesByCategory(ctx, category)
		if err != nil {
			return handleServiceError(c, err, "list expenses")
		}
		return c.JSON(http.StatusOK, toExpenseResponses(expenses))
	}

	start, end, errs := parseRangeQuery(c)
	if errs != nil {
		return NewValidationError(c, "Invalid date range", errs)
	}

	expenses, err := h.ledgerService.ListExpenses(ctx, start, end)
	if err != nil {
		return handleServiceError(c, err, "list expenses")
	}
	return c.JSON(http.StatusOK, toExpenseResponses(expenses))
}

// GetExpense godoc
// @Summary Get an expense
// @Tags expenses
// @Produce json
// @Security BearerAuth
// @Param id path int true "Expense ID"
// @Success 200 {object} ExpenseResponse
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /expenses/{id} [get]
func (h *ExpenseHandler) GetExpense(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid expense ID", nil)
	}

	expense, err := h.ledgerService.GetExpense(c.Request().Context(), id)
	if err != nil {
		return handleServiceError(c, err, "get expense")
	}
	return c.JSON(http.StatusOK, toExpenseResponse(expense))
}

// UpdateExpense godoc
// @Summary Update an expense
// @Description Replace an expense. Limits of the old and the new category are adjusted.
// @Tags expenses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Expense ID"
// @Param request body ExpenseRequest true "Expense"
// @Success 200 {object} ExpenseResponse
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /expenses/{id} [put]
func (h *ExpenseHandler) UpdateExpense(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid expense ID", nil)
	}

	var req ExpenseRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	expense, errs := req.toExpense()
	if errs != nil {
		return NewValidationError(c, "Validation failed", errs)
	}
	expense.ID = id

	updated, err := h.ledgerService.UpdateExpense(c.Request().Context(), expense)
	if err != nil {
		return handleServiceError(c, err, "update expense")
	}
	return c.JSON(http.StatusOK, toExpenseResponse(updated))
}

// DeleteExpense godoc
// @Summary Delete an expense
// @Tags expenses
// @Security BearerAuth
// @Param id path int true "Expense ID"
// @Success 204
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /expenses/{id} [delete]
func (h *ExpenseHandler) DeleteExpense(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid expense ID", nil)
	}

	if err := h.ledgerService.DeleteExpense(c.Request().Context(), id); err != nil {
		return handleServiceError(c, err, "delete expense")
	}
	return c.NoContent(http.StatusNoContent)
}

// SearchExpenses godoc
// @Summary Search expenses
// @Description Case-insensitive substring search over expense titles, newest first
// @Tags expenses
// @Produce json
// @Security BearerAuth
// @Param q query string true "Search text"
// @Success 200 {array} ExpenseResponse
// @Failure 400 {object} ProblemDetails
// @Router /expenses/search [get]
func (h *ExpenseHandler) SearchExpenses(c echo.Context) error {
	expenses, err := h.reportService.SearchExpenses(c.Request().Context(), c.QueryParam("q"))
	if err != nil {
		return handleServiceError(c, err, "search expenses")
	}
	return c.JSON(http.StatusOK, toExpenseResponses(expenses))
}

// UploadReceipt godoc
// @Summary Attach a receipt
// @Description Upload a JPEG or PNG receipt image. A previous receipt is replaced.
// @Tags expenses
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path int true "Expense ID"
// @Param file formData file true "Receipt image"
// @Success 200 {object} service.ReceiptURLs
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Failure 503 {object} ProblemDetails
// @Router /expenses/{id}/receipt [post]
func (h *ExpenseHandler) UploadReceipt(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid expense ID", nil)
	}
	if h.receiptService == nil || !h.receiptService.IsEnabled() {
		return NewServiceUnavailableError(c, "Receipt uploads are disabled (storage not configured)")
	}

	file, err := c.FormFile("file")
	if err != nil {
		return NewValidationError(c, "No file provided", []ValidationError{
			{Field: "file", Message: "File is required"},
		})
	}
	if file.Size > service.MaxImageSize {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "file", Message: "File too large. Maximum size is 5MB"},
		})
	}

	src, err := file.Open()
	if err != nil {
		log.Error().Err(err).Msg("Failed to open uploaded file")
		return NewInternalError(c, "Failed to process file")
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, service.MaxImageSize+1))
	if err != nil {
		log.Error().Err(err).Msg("Failed to read uploaded file")
		return NewInternalError(c, "Failed to read file")
	}

	ctx := c.Request().Context()
	expense, err := h.receiptService.Attach(ctx, id, data, file.Filename)
	if err != nil {
		return h.receiptError(c, err, "attach receipt")
	}

	urls, err := h.receiptService.URLs(ctx, expense)
	if err != nil {
		return h.receiptError(c, err, "attach receipt")
	}

	log.Info().Int32("expense_id", id).Msg("Receipt uploaded successfully")
	return c.JSON(http.StatusOK, urls)
}

// GetReceipt godoc
// @Summary Get receipt links
// @Description Short-lived download links of the thumbnail and display variants
// @Tags expenses
// @Produce json
// @Security BearerAuth
// @Param id path int true "Expense ID"
// @Success 200 {object} service.ReceiptURLs
// @Failure 404 {object} ProblemDetails
// @Failure 503 {object} ProblemDetails
// @Router /expenses/{id}/receipt [get]
func (h *ExpenseHandler) GetReceipt(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid expense ID", nil)
	}
	if h.receiptService == nil || !h.receiptService.IsEnabled() {
		return NewServiceUnavailableError(c, "Receipts are disabled (storage not configured)")
	}

	ctx := c.Request().Context()
	expense, err := h.ledgerService.GetExpense(ctx, id)
	if err != nil {
		return handleServiceError(c, err, "get receipt")
	}
	urls, err := h.receiptService.URLs(ctx, expense)
	if err != nil {
		return h.receiptError(c, err, "get receipt")
	}
	return c.JSON(http.StatusOK, urls)
}

// DeleteReceipt godoc
// @Summary Remove a receipt
// @Tags expenses
// @Produce json
// @Security BearerAuth
// @Param id path int true "Expense ID"
// @Success 200 {object} ExpenseResponse
// @Failure 404 {object} ProblemDetails
// @Router /expenses/{id}/receipt [delete]
func (h *ExpenseHandler) DeleteReceipt(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid expense ID", nil)
	}
	if h.receiptService == nil {
		return NewServiceUnavailableError(c, "Receipts are disabled (storage not configured)")
	}

	expense, err := h.receiptService.Detach(c.Request().Context(), id)
	if err != nil {
		return handleServiceError(c, err, "remove receipt")
	}
	return c.JSON(http.StatusOK, toExpenseResponse(expense))
}

func (h *ExpenseHandler) receiptError(c echo.Context, err error, action string) error {
	switch {
	case errors.Is(err, service.ErrReceiptStorageNotConfigured):
		return NewServiceUnavailableError(c, "Receipt storage not configured")
	case errors.Is(err, service.ErrImageTooLarge),
		errors.Is(err, service.ErrInvalidFormat),
		errors.Is(err, service.ErrImageTooSmall),
		errors.Is(err, service.ErrInvalidImageData):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "file", Message: validationMessage(err)},
		})
	default:
		return handleServiceError(c, err, action)
	}
}
