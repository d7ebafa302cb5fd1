package handler

import (
	"errors"
	"net/http"
	"path"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/ledgerly/ledgerly-backend/internal/domain"
	"github.com/ledgerly/ledgerly-backend/internal/service"
	"github.com/rs/zerolog/log"
)

// BackupHandler handles backup and restore requests
type BackupHandler struct {
	backupService *service.BackupService
}

// NewBackupHandler creates a new BackupHandler
func NewBackupHandler(backupService *service.BackupService) *BackupHandler {
	return &BackupHandler{backupService: backupService}
}

// BackupResponse describes a stored backup
type BackupResponse struct {
	Key       string `json:"key"`
	Name      string `json:"name"`
	Size      int64  `json:"size"`
	CreatedAt string `json:"createdAt"`
}

// RestoreResponse summarizes a completed restore
type RestoreResponse struct {
	Restored bool `json:"restored"`
}

func toBackupResponse(b *domain.BackupInfo) BackupResponse {
	return BackupResponse{
		Key:       b.Key,
		Name:      path.Base(b.Key),
		Size:      b.Size,
		CreatedAt: formatTime(b.CreatedAt),
	}
}

func (h *BackupHandler) backupError(c echo.Context, err error, action string) error {
	if errors.Is(err, service.ErrBackupStorageNotConfigured) {
		return NewServiceUnavailableError(c, "Backup storage not configured")
	}
	return handleServiceError(c, err, action)
}

// CreateBackup godoc
// @Summary Create a backup
// @Description Export every entity and store it as a new backup object
// @Tags backups
// @Produce json
// @Security BearerAuth
// @Success 201 {object} BackupResponse
// @Failure 503 {object} ProblemDetails
// @Router /backups [post]
func (h *BackupHandler) CreateBackup(c echo.Context) error {
	info, err := h.backupService.Create(c.Request().Context())
	if err != nil {
		return h.backupError(c, err, "create backup")
	}
	return c.JSON(http.StatusCreated, toBackupResponse(info))
}

// ListBackups godoc
// @Summary List backups
// @Description Stored backups, newest first
// @Tags backups
// @Produce json
// @Security BearerAuth
// @Success 200 {array} BackupResponse
// @Failure 503 {object} ProblemDetails
// @Router /backups [get]
func (h *BackupHandler) ListBackups(c echo.Context) error {
	backups, err := h.backupService.List(c.Request().Context())
	if err != nil {
		return h.backupError(c, err, "list backups")
	}

	result := make([]BackupResponse, 0, len(backups))
	for _, b := range backups {
		result = append(result, toBackupResponse(b))
	}
	return c.JSON(http.StatusOK, result)
}

// ExportBackup godoc
// @Summary Download a backup
// @Description The complete current data set as a JSON document that POST /backups/restore accepts
// @Tags backups
// @Produce json
// @Security BearerAuth
// @Success 200 {object} domain.Snapshot
// @Router /backups/export [get]
func (h *BackupHandler) ExportBackup(c echo.Context) error {
	snapshot, err := h.backupService.Export(c.Request().Context())
	if err != nil {
		return handleServiceError(c, err, "export backup")
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="ledgerly-backup.json"`)
	return c.JSON(http.StatusOK, snapshot)
}

// RestoreUpload godoc
// @Summary Restore an uploaded backup
// @Description Replace all data with the posted backup document and recompute every derived amount
// @Tags backups
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param backup body domain.Snapshot true "Backup document"
// @Success 200 {object} RestoreResponse
// @Failure 400 {object} ProblemDetails
// @Router /backups/restore [post]
func (h *BackupHandler) RestoreUpload(c echo.Context) error {
	snapshot, err := service.DecodeSnapshot(c.Request().Body)
	if err != nil {
		return handleServiceError(c, err, "restore backup")
	}

	if err := h.backupService.Restore(c.Request().Context(), snapshot); err != nil {
		return handleServiceError(c, err, "restore backup")
	}

	log.Info().Int("expenses", len(snapshot.Expenses)).Msg("Restored uploaded backup")
	return c.JSON(http.StatusOK, RestoreResponse{Restored: true})
}

// RestoreStored godoc
// @Summary Restore a stored backup
// @Description Replace all data with a stored backup and recompute every derived amount
// @Tags backups
// @Produce json
// @Security BearerAuth
// @Param key path string true "Backup name as returned by GET /backups"
// @Success 200 {object} RestoreResponse
// @Failure 404 {object} ProblemDetails
// @Failure 503 {object} ProblemDetails
// @Router /backups/{key}/restore [post]
func (h *BackupHandler) RestoreStored(c echo.Context) error {
	name := c.Param("key")
	if name == "" || strings.Contains(name, "/") || strings.Contains(name, "..") {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "key", Message: "Must be a backup name as returned by GET /backups"},
		})
	}

	key := path.Join("backups", name)
	if err := h.backupService.RestoreFromStore(c.Request().Context(), key); err != nil {
		return h.backupError(c, err, "restore backup")
	}

	log.Info().Str("key", key).Msg("Restored stored backup")
	return c.JSON(http.StatusOK, RestoreResponse{Restored: true})
}
