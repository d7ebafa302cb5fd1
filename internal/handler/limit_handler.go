package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/ledgerly/ledgerly-backend/internal/domain"
	"github.com/ledgerly/ledgerly-backend/internal/service"
	"github.com/shopspring/decimal"
)

// LimitHandler handles spending limit requests
type LimitHandler struct {
	limitService   *service.SpendingLimitService
	nearLimitRatio decimal.Decimal
}

// NewLimitHandler creates a new LimitHandler. nearLimitRatio is the default
// threshold of GET /limits/near.
func NewLimitHandler(limitService *service.SpendingLimitService, nearLimitRatio decimal.Decimal) *LimitHandler {
	if !nearLimitRatio.IsPositive() {
		nearLimitRatio = service.DefaultNearLimitRatio
	}
	return &LimitHandler{limitService: limitService, nearLimitRatio: nearLimitRatio}
}

// LimitRequest represents the create and update spending limit request body
type LimitRequest struct {
	Category   string `json:"category"`
	Amount     string `json:"amount"`
	StartDate  string `json:"startDate"`
	Frequency  string `json:"frequency"`
	PeriodDays *int32 `json:"periodDays,omitempty"`
	AutoReset  *bool  `json:"autoReset,omitempty"`
}

// LimitResponse represents one period of a spending limit
type LimitResponse struct {
	ID            int32  `json:"id"`
	Category      string `json:"category"`
	Amount        string `json:"amount"`
	CurrentAmount string `json:"currentAmount"`
	Remaining     string `json:"remaining"`
	UsageRatio    string `json:"usageRatio"`
	Exceeded      bool   `json:"exceeded"`
	StartDate     string `json:"startDate"`
	PeriodEnd     string `json:"periodEnd"`
	Frequency     string `json:"frequency"`
	PeriodDays    *int32 `json:"periodDays,omitempty"`
	AutoReset     bool   `json:"autoReset"`
	IsActive      bool   `json:"isActive"`
	CreatedAt     string `json:"createdAt"`
	UpdatedAt     string `json:"updatedAt"`
}

func toLimitResponse(l *domain.SpendingLimit) LimitResponse {
	return LimitResponse{
		ID:            l.ID,
		Category:      l.Category,
		Amount:        l.Amount.StringFixed(2),
		CurrentAmount: l.CurrentAmount.StringFixed(2),
		Remaining:     l.Remaining().StringFixed(2),
		UsageRatio:    l.UsageRatio().StringFixed(4),
		Exceeded:      l.IsExceeded(),
		StartDate:     formatTime(l.StartDate),
		PeriodEnd:     formatTime(l.PeriodEnd()),
		Frequency:     string(l.Frequency),
		PeriodDays:    l.PeriodDays,
		AutoReset:     l.AutoReset,
		IsActive:      l.IsActive,
		CreatedAt:     formatTime(l.CreatedAt),
		UpdatedAt:     formatTime(l.UpdatedAt),
	}
}

func toLimitResponses(limits []*domain.SpendingLimit) []LimitResponse {
	result := make([]LimitResponse, 0, len(limits))
	for _, l := range limits {
		result = append(result, toLimitResponse(l))
	}
	return result
}

func (r *LimitRequest) toLimit() (*domain.SpendingLimit, []ValidationError) {
	var errs []ValidationError

	amount, err := parseAmount(r.Amount)
	if err != nil {
		errs = append(errs, ValidationError{Field: "amount", Message: "Must be a valid decimal number"})
	}
	start, err := parseDate(r.StartDate)
	if err != nil {
		errs = append(errs, ValidationError{Field: "startDate", Message: "Must be in YYYY-MM-DD or RFC 3339 format"})
	}
	frequency, err := domain.ParseFrequency(r.Frequency)
	if err != nil {
		errs = append(errs, ValidationError{Field: "frequency", Message: "Must be one of: daily, weekly, monthly, annual, custom"})
	}
	if len(errs) > 0 {
		return nil, errs
	}

	autoReset := true
	if r.AutoReset != nil {
		autoReset = *r.AutoReset
	}
	return &domain.SpendingLimit{
		Category:   r.Category,
		Amount:     amount,
		StartDate:  start,
		Frequency:  frequency,
		PeriodDays: r.PeriodDays,
		AutoReset:  autoReset,
		IsActive:   true,
	}, nil
}

// CreateLimit godoc
// @Summary Create a spending limit
// @Description Create the active limit of a category. Its current amount is computed from stored expenses.
// @Tags limits
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body LimitRequest true "Spending limit"
// @Success 201 {object} LimitResponse
// @Failure 400 {object} ProblemDetails
// @Failure 409 {object} ProblemDetails
// @Router /limits [post]
func (h *LimitHandler) CreateLimit(c echo.Context) error {
	var req LimitRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	limit, errs := req.toLimit()
	if errs != nil {
		return NewValidationError(c, "Validation failed", errs)
	}

	created, err := h.limitService.CreateLimit(c.Request().Context(), limit)
	if err != nil {
		return handleServiceError(c, err, "create spending limit")
	}
	return c.JSON(http.StatusCreated, toLimitResponse(created))
}

// ListLimits godoc
// @Summary List spending limits
// @Description The active period of every category limit
// @Tags limits
// @Produce json
// @Security BearerAuth
// @Success 200 {array} LimitResponse
// @Router /limits [get]
func (h *LimitHandler) ListLimits(c echo.Context) error {
	limits, err := h.limitService.ListLimits(c.Request().Context())
	if err != nil {
		return handleServiceError(c, err, "list spending limits")
	}
	return c.JSON(http.StatusOK, toLimitResponses(limits))
}

// GetExceededLimits godoc
// @Summary Exceeded spending limits
// @Description Active limits whose current amount reached the limit, most exceeded first
// @Tags limits
// @Produce json
// @Security BearerAuth
// @Success 200 {array} LimitResponse
// @Router /limits/exceeded [get]
func (h *LimitHandler) GetExceededLimits(c echo.Context) error {
	limits, err := h.limitService.GetExceededLimits(c.Request().Context())
	if err != nil {
		return handleServiceError(c, err, "list exceeded limits")
	}
	return c.JSON(http.StatusOK, toLimitResponses(limits))
}

// GetNearLimits godoc
// @Summary Spending limits close to their amount
// @Description Active limits not yet exceeded whose usage is at least ratio, highest usage first
// @Tags limits
// @Produce json
// @Security BearerAuth
// @Param ratio query number false "Usage ratio in (0, 1]"
// @Success 200 {array} LimitResponse
// @Failure 400 {object} ProblemDetails
// @Router /limits/near [get]
func (h *LimitHandler) GetNearLimits(c echo.Context) error {
	ratio := h.nearLimitRatio
	if s := c.QueryParam("ratio"); s != "" {
		parsed, err := parseAmount(s)
		if err != nil {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "ratio", Message: "Must be a decimal number"},
			})
		}
		ratio = parsed
	}

	limits, err := h.limitService.GetNearLimits(c.Request().Context(), ratio)
	if err != nil {
		return handleServiceError(c, err, "list near limits")
	}
	return c.JSON(http.StatusOK, toLimitResponses(limits))
}

// GetLimitByCategory godoc
// @Summary Active limit of a category
// @Tags limits
// @Produce json
// @Security BearerAuth
// @Param category path string true "Category name"
// @Success 200 {object} LimitResponse
// @Failure 404 {object} ProblemDetails
// @Router /limits/category/{category} [get]
func (h *LimitHandler) GetLimitByCategory(c echo.Context) error {
	limit, err := h.limitService.GetLimitByCategory(c.Request().Context(), c.Param("category"))
	if err != nil {
		return handleServiceError(c, err, "get spending limit")
	}
	return c.JSON(http.StatusOK, toLimitResponse(limit))
}

// GetLimitHistory godoc
// @Summary Period history of a category limit
// @Description Every period of a category's limit, newest first
// @Tags limits
// @Produce json
// @Security BearerAuth
// @Param category path string true "Category name"
// @Success 200 {array} LimitResponse
// @Router /limits/category/{category}/history [get]
func (h *LimitHandler) GetLimitHistory(c echo.Context) error {
	limits, err := h.limitService.ListHistory(c.Request().Context(), c.Param("category"))
	if err != nil {
		return handleServiceError(c, err, "list spending limit history")
	}
	return c.JSON(http.StatusOK, toLimitResponses(limits))
}

// UpdateLimit godoc
// @Summary Update a spending limit
// @Description Change the amount and schedule of an active limit. The category cannot change.
// @Tags limits
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Limit ID"
// @Param request body LimitRequest true "Spending limit"
// @Success 200 {object} LimitResponse
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /limits/{id} [put]
func (h *LimitHandler) UpdateLimit(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid limit ID", nil)
	}

	var req LimitRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	changes, errs := req.toLimit()
	if errs != nil {
		return NewValidationError(c, "Validation failed", errs)
	}

	updated, err := h.limitService.UpdateLimit(c.Request().Context(), id, changes)
	if err != nil {
		return handleServiceError(c, err, "update spending limit")
	}
	return c.JSON(http.StatusOK, toLimitResponse(updated))
}

// DeleteLimit godoc
// @Summary Delete a spending limit
// @Description Deleting the active period removes the category's whole history
// @Tags limits
// @Security BearerAuth
// @Param id path int true "Limit ID"
// @Success 204
// @Failure 404 {object} ProblemDetails
// @Router /limits/{id} [delete]
func (h *LimitHandler) DeleteLimit(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid limit ID", nil)
	}

	if err := h.limitService.DeleteLimit(c.Request().Context(), id); err != nil {
		return handleServiceError(c, err, "delete spending limit")
	}
	return c.NoContent(http.StatusNoContent)
}
