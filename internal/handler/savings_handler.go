package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/ledgerly/ledgerly-backend/internal/domain"
	"github.com/ledgerly/ledgerly-backend/internal/service"
)

// SavingsHandler handles savings project requests
type SavingsHandler struct {
	savingsService *service.SavingsService
}

// NewSavingsHandler creates a new SavingsHandler
func NewSavingsHandler(savingsService *service.SavingsService) *SavingsHandler {
	return &SavingsHandler{savingsService: savingsService}
}

// SavingsProjectRequest represents the create and update project request body
type SavingsProjectRequest struct {
	Title        string `json:"title"`
	TargetAmount string `json:"targetAmount"`
	StartDate    string `json:"startDate"`
	Deadline     string `json:"deadline"`
	Frequency    string `json:"frequency"`
}

// SavingsProjectResponse represents a savings project in API responses
type SavingsProjectResponse struct {
	ID            int32  `json:"id"`
	Title         string `json:"title"`
	TargetAmount  string `json:"targetAmount"`
	CurrentAmount string `json:"currentAmount"`
	Progress      string `json:"progress"`
	Completed     bool   `json:"completed"`
	StartDate     string `json:"startDate"`
	Deadline      string `json:"deadline"`
	Frequency     string `json:"frequency"`
	CreatedAt     string `json:"createdAt"`
	UpdatedAt     string `json:"updatedAt"`
}

// SavingsProgressResponse represents the progress of one project
type SavingsProgressResponse struct {
	ProjectID int32  `json:"projectId"`
	Progress  string `json:"progress"`
}

// SavingsTransactionRequest represents a deposit
type SavingsTransactionRequest struct {
	Amount string  `json:"amount"`
	Date   string  `json:"date"`
	Note   *string `json:"note,omitempty"`
}

// SavingsTransactionResponse represents a deposit in API responses
type SavingsTransactionResponse struct {
	ID        int32   `json:"id"`
	ProjectID int32   `json:"projectId"`
	Amount    string  `json:"amount"`
	Date      string  `json:"date"`
	Note      *string `json:"note,omitempty"`
	CreatedAt string  `json:"createdAt"`
}

func toSavingsProjectResponse(p *domain.SavingsProject) SavingsProjectResponse {
	return SavingsProjectResponse{
		ID:            p.ID,
		Title:         p.Title,
		TargetAmount:  p.TargetAmount.StringFixed(2),
		CurrentAmount: p.CurrentAmount.StringFixed(2),
		Progress:      p.Progress().StringFixed(4),
		Completed:     p.IsCompleted(),
		StartDate:     formatDate(p.StartDate),
		Deadline:      formatDate(p.Deadline),
		Frequency:     string(p.Frequency),
		CreatedAt:     formatTime(p.CreatedAt),
		UpdatedAt:     formatTime(p.UpdatedAt),
	}
}

func toSavingsTransactionResponse(t *domain.SavingsTransaction) SavingsTransactionResponse {
	return SavingsTransactionResponse{
		ID:        t.ID,
		ProjectID: t.ProjectID,
		Amount:    t.Amount.StringFixed(2),
		Date:      formatTime(t.Date),
		Note:      t.Note,
		CreatedAt: formatTime(t.CreatedAt),
	}
}

func (r *SavingsProjectRequest) toProject() (*domain.SavingsProject, []ValidationError) {
	var errs []ValidationError

	target, err := parseAmount(r.TargetAmount)
	if err != nil {
		errs = append(errs, ValidationError{Field: "targetAmount", Message: "Must be a valid decimal number"})
	}
	start, err := parseDate(r.StartDate)
	if err != nil {
		errs = append(errs, ValidationError{Field: "startDate", Message: "Must be in YYYY-MM-DD or RFC 3339 format"})
	}
	deadline, err := parseDate(r.Deadline)
	if err != nil {
		errs = append(errs, ValidationError{Field: "deadline", Message: "Must be in YYYY-MM-DD or RFC 3339 format"})
	}
	frequency, err := domain.ParseFrequency(r.Frequency)
	if err != nil || frequency == domain.FrequencyCustom {
		errs = append(errs, ValidationError{Field: "frequency", Message: "Must be one of: daily, weekly, monthly, annual"})
	}
	if len(errs) > 0 {
		return nil, errs
	}

	return &domain.SavingsProject{
		Title:        r.Title,
		TargetAmount: target,
		StartDate:    start,
		Deadline:     deadline,
		Frequency:    frequency,
	}, nil
}

// CreateProject godoc
// @Summary Create a savings project
// @Tags savings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body SavingsProjectRequest true "Savings project"
// @Success 201 {object} SavingsProjectResponse
// @Failure 400 {object} ProblemDetails
// @Router /savings [post]
func (h *SavingsHandler) CreateProject(c echo.Context) error {
	var req SavingsProjectRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	project, errs := req.toProject()
	if errs != nil {
		return NewValidationError(c, "Validation failed", errs)
	}

	created, err := h.savingsService.CreateProject(c.Request().Context(), project)
	if err != nil {
		return handleServiceError(c, err, "create savings project")
	}
	return c.JSON(http.StatusCreated, toSavingsProjectResponse(created))
}

// ListProjects godoc
// @Summary List savings projects
// @Description All projects ordered by deadline
// @Tags savings
// @Produce json
// @Security BearerAuth
// @Success 200 {array} SavingsProjectResponse
// @Router /savings [get]
func (h *SavingsHandler) ListProjects(c echo.Context) error {
	projects, err := h.savingsService.ListProjects(c.Request().Context())
	if err != nil {
		return handleServiceError(c, err, "list savings projects")
	}

	result := make([]SavingsProjectResponse, 0, len(projects))
	for _, p := range projects {
		result = append(result, toSavingsProjectResponse(p))
	}
	return c.JSON(http.StatusOK, result)
}

// GetProject godoc
// @Summary Get a savings project
// @Tags savings
// @Produce json
// @Security BearerAuth
// @Param id path int true "Project ID"
// @Success 200 {object} SavingsProjectResponse
// @Failure 404 {object} ProblemDetails
// @Router /savings/{id} [get]
func (h *SavingsHandler) GetProject(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid project ID", nil)
	}

	project, err := h.savingsService.GetProject(c.Request().Context(), id)
	if err != nil {
		return handleServiceError(c, err, "get savings project")
	}
	return c.JSON(http.StatusOK, toSavingsProjectResponse(project))
}

// UpdateProject godoc
// @Summary Update a savings project
// @Description Change a project's title, target and schedule. The saved amount is kept.
// @Tags savings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Project ID"
// @Param request body SavingsProjectRequest true "Savings project"
// @Success 200 {object} SavingsProjectResponse
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /savings/{id} [put]
func (h *SavingsHandler) UpdateProject(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid project ID", nil)
	}

	var req SavingsProjectRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	project, errs := req.toProject()
	if errs != nil {
		return NewValidationError(c, "Validation failed", errs)
	}
	project.ID = id

	updated, err := h.savingsService.UpdateProject(c.Request().Context(), project)
	if err != nil {
		return handleServiceError(c, err, "update savings project")
	}
	return c.JSON(http.StatusOK, toSavingsProjectResponse(updated))
}

// DeleteProject godoc
// @Summary Delete a savings project
// @Description Deletes the project together with all of its transactions
// @Tags savings
// @Security BearerAuth
// @Param id path int true "Project ID"
// @Success 204
// @Failure 404 {object} ProblemDetails
// @Router /savings/{id} [delete]
func (h *SavingsHandler) DeleteProject(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid project ID", nil)
	}

	if err := h.savingsService.DeleteProject(c.Request().Context(), id); err != nil {
		return handleServiceError(c, err, "delete savings project")
	}
	return c.NoContent(http.StatusNoContent)
}

// GetProgress godoc
// @Summary Savings progress
// @Description Saved share of the target, clamped to [0, 1]
// @Tags savings
// @Produce json
// @Security BearerAuth
// @Param id path int true "Project ID"
// @Success 200 {object} SavingsProgressResponse
// @Failure 404 {object} ProblemDetails
// @Router /savings/{id}/progress [get]
func (h *SavingsHandler) GetProgress(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid project ID", nil)
	}

	progress, err := h.savingsService.GetProgress(c.Request().Context(), id)
	if err != nil {
		return handleServiceError(c, err, "get savings progress")
	}
	return c.JSON(http.StatusOK, SavingsProgressResponse{ProjectID: id, Progress: progress.StringFixed(4)})
}

// AddTransaction godoc
// @Summary Add a deposit
// @Tags savings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Project ID"
// @Param request body SavingsTransactionRequest true "Deposit"
// @Success 201 {object} SavingsTransactionResponse
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /savings/{id}/transactions [post]
func (h *SavingsHandler) AddTransaction(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid project ID", nil)
	}

	var req SavingsTransactionRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	var errs []ValidationError
	amount, err := parseAmount(req.Amount)
	if err != nil {
		errs = append(errs, ValidationError{Field: "amount", Message: "Must be a valid decimal number"})
	}
	date, err := parseDate(req.Date)
	if err != nil {
		errs = append(errs, ValidationError{Field: "date", Message: "Must be in YYYY-MM-DD or RFC 3339 format"})
	}
	if errs != nil {
		return NewValidationError(c, "Validation failed", errs)
	}

	tx, err := h.savingsService.AddTransaction(c.Request().Context(), id, amount, date, req.Note)
	if err != nil {
		return handleServiceError(c, err, "add savings transaction")
	}
	return c.JSON(http.StatusCreated, toSavingsTransactionResponse(tx))
}

// ListTransactions godoc
// @Summary List deposits
// @Description A project's transactions ordered by date
// @Tags savings
// @Produce json
// @Security BearerAuth
// @Param id path int true "Project ID"
// @Success 200 {array} SavingsTransactionResponse
// @Failure 404 {object} ProblemDetails
// @Router /savings/{id}/transactions [get]
func (h *SavingsHandler) ListTransactions(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid project ID", nil)
	}

	ctx := c.Request().Context()
	if _, err := h.savingsService.GetProject(ctx, id); err != nil {
		return handleServiceError(c, err, "list savings transactions")
	}

	result := make([]SavingsTransactionResponse, 0)
	for tx, err := range h.savingsService.GetProjectTransactions(ctx, id) {
		if err != nil {
			return handleServiceError(c, err, "list savings transactions")
		}
		result = append(result, toSavingsTransactionResponse(tx))
	}
	return c.JSON(http.StatusOK, result)
}

// RemoveTransaction godoc
// @Summary Remove a deposit
// @Description Deletes the transaction and subtracts it from its project
// @Tags savings
// @Security BearerAuth
// @Param id path int true "Transaction ID"
// @Success 204
// @Failure 404 {object} ProblemDetails
// @Router /savings/transactions/{id} [delete]
func (h *SavingsHandler) RemoveTransaction(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid transaction ID", nil)
	}

	if err := h.savingsService.RemoveTransaction(c.Request().Context(), id); err != nil {
		return handleServiceError(c, err, "remove savings transaction")
	}
	return c.NoContent(http.StatusNoContent)
}
