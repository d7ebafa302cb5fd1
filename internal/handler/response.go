package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/ledgerly/ledgerly-backend/internal/domain"
	"github.com/ledgerly/ledgerly-backend/internal/util"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// ProblemDetails represents an RFC 7807 Problem Details response
type ProblemDetails struct {
	Type     string            `json:"type"`
	Title    string            `json:"title"`
	Status   int               `json:"status"`
	Detail   string            `json:"detail,omitempty"`
	Instance string            `json:"instance,omitempty"`
	Errors   []ValidationError `json:"errors,omitempty"`
}

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error types
const (
	ErrorTypeValidation         = "https://ledgerly.app/errors/validation"
	ErrorTypeNotFound           = "https://ledgerly.app/errors/not-found"
	ErrorTypeUnauthorized       = "https://ledgerly.app/errors/unauthorized"
	ErrorTypeConflict           = "https://ledgerly.app/errors/conflict"
	ErrorTypeInternal           = "https://ledgerly.app/errors/internal"
	ErrorTypeServiceUnavailable = "https://ledgerly.app/errors/service-unavailable"
)

// NewValidationError creates a validation error response
func NewValidationError(c echo.Context, detail string, errors []ValidationError) error {
	return c.JSON(http.StatusBadRequest, ProblemDetails{
		Type:     ErrorTypeValidation,
		Title:    "Validation Error",
		Status:   http.StatusBadRequest,
		Detail:   detail,
		Instance: c.Request().URL.Path,
		Errors:   errors,
	})
}

// NewNotFoundError creates a not found error response
func NewNotFoundError(c echo.Context, detail string) error {
	return c.JSON(http.StatusNotFound, ProblemDetails{
		Type:     ErrorTypeNotFound,
		Title:    "Not Found",
		Status:   http.StatusNotFound,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// NewUnauthorizedError creates an unauthorized error response
func NewUnauthorizedError(c echo.Context, detail string) error {
	return c.JSON(http.StatusUnauthorized, ProblemDetails{
		Type:     ErrorTypeUnauthorized,
		Title:    "Unauthorized",
		Status:   http.StatusUnauthorized,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// NewConflictError creates a conflict error response
func NewConflictError(c echo.Context, detail string) error {
	return c.JSON(http.StatusConflict, ProblemDetails{
		Type:     ErrorTypeConflict,
		Title:    "Conflict",
		Status:   http.StatusConflict,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// NewInternalError creates an internal error response
func NewInternalError(c echo.Context, detail string) error {
	return c.JSON(http.StatusInternalServerError, ProblemDetails{
		Type:     ErrorTypeInternal,
		Title:    "Internal Server Error",
		Status:   http.StatusInternalServerError,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// NewServiceUnavailableError creates a service unavailable error response
func NewServiceUnavailableError(c echo.Context, detail string) error {
	return c.JSON(http.StatusServiceUnavailable, ProblemDetails{
		Type:     ErrorTypeServiceUnavailable,
		Title:    "Service Unavailable",
		Status:   http.StatusServiceUnavailable,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// handleServiceError maps a service error to a problem response. Anything
// that is not a domain error is logged and reported as "Failed to <action>".
func handleServiceError(c echo.Context, err error, action string) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return NewNotFoundError(c, capitalize(err.Error()))
	case errors.Is(err, domain.ErrInvalidInput):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: fieldFor(err), Message: validationMessage(err)},
		})
	case errors.Is(err, domain.ErrAlreadyExists):
		return NewConflictError(c, capitalize(err.Error()))
	default:
		log.Error().Err(err).Str("path", c.Request().URL.Path).Msg("Failed to " + action)
		return NewInternalError(c, "Failed to "+action)
	}
}

// fieldFor names the request field a validation error belongs to
func fieldFor(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidAmount), errors.Is(err, domain.ErrNegativeAmount):
		return "amount"
	case errors.Is(err, domain.ErrTitleRequired), errors.Is(err, domain.ErrTitleTooLong):
		return "title"
	case errors.Is(err, domain.ErrNameRequired), errors.Is(err, domain.ErrNameTooLong):
		return "name"
	case errors.Is(err, domain.ErrNotesTooLong):
		return "notes"
	case errors.Is(err, domain.ErrDateRequired):
		return "date"
	case errors.Is(err, domain.ErrInvalidFrequency):
		return "frequency"
	case errors.Is(err, domain.ErrInvalidPeriodDays):
		return "periodDays"
	case errors.Is(err, domain.ErrInvalidRecurrence):
		return "recurringFrequencyDays"
	case errors.Is(err, domain.ErrUnknownCategory):
		return "category"
	case errors.Is(err, domain.ErrUnknownIncomeType):
		return "type"
	case errors.Is(err, domain.ErrInvalidDateRange):
		return "end"
	case errors.Is(err, domain.ErrInvalidMonth):
		return "month"
	case errors.Is(err, domain.ErrInvalidTarget):
		return "targetAmount"
	case errors.Is(err, domain.ErrInvalidThreshold):
		return "ratio"
	case errors.Is(err, domain.ErrSearchQueryTooLong):
		return "q"
	case errors.Is(err, domain.ErrInvalidBackup):
		return "backup"
	default:
		return "request"
	}
}

// validationMessage strips the base error suffix from a validation error
func validationMessage(err error) string {
	msg := strings.TrimSuffix(err.Error(), ": "+domain.ErrInvalidInput.Error())
	return capitalize(msg)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// parseID reads a positive int32 path parameter
func parseID(c echo.Context, name string) (int32, bool) {
	v, err := strconv.ParseInt(c.Param(name), 10, 32)
	if err != nil || v <= 0 {
		return 0, false
	}
	return int32(v), true
}

// parseDate accepts YYYY-MM-DD or an RFC 3339 timestamp
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// parseRangeQuery reads the start and end query parameters as a half-open
// range. Both default to the current month. An end given as a plain date
// includes that whole day.
func parseRangeQuery(c echo.Context) (time.Time, time.Time, []ValidationError) {
	now := time.Now().UTC()
	start, end := util.MonthRange(now.Year(), int(now.Month()))
	var errs []ValidationError

	if s := c.QueryParam("start"); s != "" {
		parsed, err := parseDate(s)
		if err != nil {
			errs = append(errs, ValidationError{Field: "start", Message: "Must be in YYYY-MM-DD or RFC 3339 format"})
		} else {
			start = parsed
		}
	}
	if s := c.QueryParam("end"); s != "" {
		parsed, err := parseDate(s)
		if err != nil {
			errs = append(errs, ValidationError{Field: "end", Message: "Must be in YYYY-MM-DD or RFC 3339 format"})
		} else {
			if len(s) == len("2006-01-02") {
				parsed = parsed.AddDate(0, 0, 1)
			}
			end = parsed
		}
	}
	return start, end, errs
}

// parseAmount parses a decimal amount from its string form
func parseAmount(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.TrimSpace(s))
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func formatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

func formatOptionalTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}
