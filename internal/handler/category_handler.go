package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/ledgerly/ledgerly-backend/internal/service"
)

// CategoryHandler handles expense category and income type requests
type CategoryHandler struct {
	categoryService *service.CategoryService
}

// NewCategoryHandler creates a new CategoryHandler
func NewCategoryHandler(categoryService *service.CategoryService) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService}
}

// NameRequest represents a request that creates a named entry
type NameRequest struct {
	Name string `json:"name"`
}

// NamedResponse represents a category or an income type in API responses
type NamedResponse struct {
	ID        int32  `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"createdAt"`
}

// ListCategories godoc
// @Summary List expense categories
// @Tags categories
// @Produce json
// @Security BearerAuth
// @Success 200 {array} NamedResponse
// @Router /categories [get]
func (h *CategoryHandler) ListCategories(c echo.Context) error {
	categories, err := h.categoryService.ListCategories(c.Request().Context())
	if err != nil {
		return handleServiceError(c, err, "list categories")
	}

	result := make([]NamedResponse, 0, len(categories))
	for _, cat := range categories {
		result = append(result, NamedResponse{ID: cat.ID, Name: cat.Name, CreatedAt: formatTime(cat.CreatedAt)})
	}
	return c.JSON(http.StatusOK, result)
}

// CreateCategory godoc
// @Summary Create an expense category
// @Description Names are unique ignoring case
// @Tags categories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body NameRequest true "Category"
// @Success 201 {object} NamedResponse
// @Failure 400 {object} ProblemDetails
// @Failure 409 {object} ProblemDetails
// @Router /categories [post]
func (h *CategoryHandler) CreateCategory(c echo.Context) error {
	var req NameRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	category, err := h.categoryService.CreateCategory(c.Request().Context(), req.Name)
	if err != nil {
		return handleServiceError(c, err, "create category")
	}
	return c.JSON(http.StatusCreated, NamedResponse{ID: category.ID, Name: category.Name, CreatedAt: formatTime(category.CreatedAt)})
}

// ListIncomeTypes godoc
// @Summary List income types
// @Tags categories
// @Produce json
// @Security BearerAuth
// @Success 200 {array} NamedResponse
// @Router /income-types [get]
func (h *CategoryHandler) ListIncomeTypes(c echo.Context) error {
	types, err := h.categoryService.ListIncomeTypes(c.Request().Context())
	if err != nil {
		return handleServiceError(c, err, "list income types")
	}

	result := make([]NamedResponse, 0, len(types))
	for _, t := range types {
		result = append(result, NamedResponse{ID: t.ID, Name: t.Name, CreatedAt: formatTime(t.CreatedAt)})
	}
	return c.JSON(http.StatusOK, result)
}

// CreateIncomeType godoc
// @Summary Create an income type
// @Tags categories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body NameRequest true "Income type"
// @Success 201 {object} NamedResponse
// @Failure 400 {object} ProblemDetails
// @Failure 409 {object} ProblemDetails
// @Router /income-types [post]
func (h *CategoryHandler) CreateIncomeType(c echo.Context) error {
	var req NameRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	incomeType, err := h.categoryService.CreateIncomeType(c.Request().Context(), req.Name)
	if err != nil {
		return handleServiceError(c, err, "create income type")
	}
	return c.JSON(http.StatusCreated, NamedResponse{ID: incomeType.ID, Name: incomeType.Name, CreatedAt: formatTime(incomeType.CreatedAt)})
}
