package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/ledgerly/ledgerly-backend/internal/domain"
	"github.com/ledgerly/ledgerly-backend/internal/repository/storage"
	"github.com/ledgerly/ledgerly-backend/internal/websocket"
	"github.com/rs/zerolog"
)

// MaxBackupSize bounds a backup read from the object store or an upload
const MaxBackupSize = 64 * 1024 * 1024

const backupPrefix = "backups/"

var ErrBackupStorageNotConfigured = errors.New("backup storage not configured")

// BackupService exports the whole ledger and restores it. A restore
// replaces every row and then rebuilds all derived amounts.
type BackupService struct {
	snapshotRepo   domain.SnapshotRepository
	store          storage.ObjectStore
	limitService   *SpendingLimitService
	savingsService *SavingsService
	eventPublisher websocket.EventPublisher
	logger         zerolog.Logger
	now            func() time.Time
}

// NewBackupService creates a new BackupService. store may be nil, in which
// case only Export and Restore are available.
func NewBackupService(
	snapshotRepo domain.SnapshotRepository,
	store storage.ObjectStore,
	limitService *SpendingLimitService,
	savingsService *SavingsService,
	logger zerolog.Logger,
) *BackupService {
	return &BackupService{
		snapshotRepo:   snapshotRepo,
		store:          store,
		limitService:   limitService,
		savingsService: savingsService,
		logger:         logger.With().Str("component", "backups").Logger(),
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *BackupService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

// publishEvent publishes a WebSocket event if a publisher is configured
func (s *BackupService) publishEvent(event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(event)
	}
}

// StorageEnabled reports whether backups can be stored remotely
func (s *BackupService) StorageEnabled() bool {
	return s != nil && s.store != nil
}

// Export returns the complete current data set
func (s *BackupService) Export(ctx context.Context) (*domain.Snapshot, error) {
	snapshot, err := s.snapshotRepo.Export(ctx)
	if err != nil {
		return nil, err
	}
	snapshot.Version = domain.SnapshotVersion
	snapshot.CreatedAt = s.now()
	return snapshot, nil
}

// Create exports the data set and uploads it as a new backup object
func (s *BackupService) Create(ctx context.Context) (*domain.BackupInfo, error) {
	if !s.StorageEnabled() {
		return nil, ErrBackupStorageNotConfigured
	}

	snapshot, err := s.Export(ctx)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to encode backup: %w", err)
	}

	key := storage.BackupObjectKey(snapshot.CreatedAt)
	if _, err := s.store.Upload(ctx, key, bytes.NewReader(data), "application/json", int64(len(data))); err != nil {
		return nil, fmt.Errorf("failed to upload backup: %w", err)
	}

	s.logger.Info().
		Str("key", key).
		Int("size", len(data)).
		Int("expenses", len(snapshot.Expenses)).
		Msg("Created backup")

	return &domain.BackupInfo{Key: key, Size: int64(len(data)), CreatedAt: snapshot.CreatedAt}, nil
}

// List returns stored backups, newest first
func (s *BackupService) List(ctx context.Context) ([]*domain.BackupInfo, error) {
	if !s.StorageEnabled() {
		return nil, ErrBackupStorageNotConfigured
	}

	objects, err := s.store.List(ctx, backupPrefix)
	if err != nil {
		return nil, err
	}
	backups := make([]*domain.BackupInfo, 0, len(objects))
	for _, o := range objects {
		backups = append(backups, &domain.BackupInfo{Key: o.Key, Size: o.Size, CreatedAt: o.LastModified})
	}
	sort.SliceStable(backups, func(i, j int) bool { return backups[i].Key > backups[j].Key })
	return backups, nil
}

// Get downloads and decodes a stored backup
func (s *BackupService) Get(ctx context.Context, key string) (*domain.Snapshot, error) {
	if !s.StorageEnabled() {
		return nil, ErrBackupStorageNotConfigured
	}
	if !strings.HasPrefix(key, backupPrefix) {
		return nil, domain.ErrBackupNotFound
	}

	body, err := s.store.Download(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, domain.ErrBackupNotFound
		}
		return nil, err
	}
	defer body.Close()

	return DecodeSnapshot(body)
}

// DecodeSnapshot reads a JSON backup
func DecodeSnapshot(r io.Reader) (*domain.Snapshot, error) {
	var snapshot domain.Snapshot
	if err := json.NewDecoder(io.LimitReader(r, MaxBackupSize)).Decode(&snapshot); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidBackup, err)
	}
	return &snapshot, nil
}

// Restore validates the snapshot, replaces all stored data with it and
// recomputes every spending limit and savings project amount.
func (s *BackupService) Restore(ctx context.Context, snapshot *domain.Snapshot) error {
	if snapshot == nil {
		return domain.ErrInvalidBackup
	}
	if err := snapshot.Validate(); err != nil {
		return err
	}

	if err := s.snapshotRepo.ReplaceAll(ctx, snapshot); err != nil {
		return err
	}
	if err := s.limitService.RecomputeAll(ctx); err != nil {
		return fmt.Errorf("recompute spending limits: %w", err)
	}
	if err := s.savingsService.RecomputeAll(ctx); err != nil {
		return fmt.Errorf("recompute savings: %w", err)
	}

	s.logger.Info().
		Int("expenses", len(snapshot.Expenses)).
		Int("incomes", len(snapshot.Incomes)).
		Int("spending_limits", len(snapshot.SpendingLimits)).
		Int("savings_projects", len(snapshot.SavingsProjects)).
		Msg("Restored backup")
	s.publishEvent(websocket.BackupRestored(map[string]interface{}{
		"createdAt": snapshot.CreatedAt,
	}))
	return nil
}

// RestoreFromStore restores a stored backup
func (s *BackupService) RestoreFromStore(ctx context.Context, key string) error {
	snapshot, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	return s.Restore(ctx, snapshot)
}
