package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/google/uuid"
)

// ErrObjectNotFound is returned when a key does not exist in the store
var ErrObjectNotFound = errors.New("object not found")

// ObjectInfo describes a stored object
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// ObjectStore defines the blob storage operations used for receipts and backups
type ObjectStore interface {
	Upload(ctx context.Context, key string, data io.Reader, contentType string, size int64) (string, error)
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
	GeneratePresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// ReceiptObjectKey builds the key of one receipt image variant
func ReceiptObjectKey(expenseID int32, receiptID, variant string) string {
	return path.Join("receipts", fmt.Sprintf("%d", expenseID), fmt.Sprintf("%s_%s.jpg", receiptID, variant))
}

// BackupObjectKey builds a unique, time-sortable key for a backup
func BackupObjectKey(at time.Time) string {
	return path.Join("backups", fmt.Sprintf("ledger-%s-%s.json", at.UTC().Format("20060102T150405Z"), uuid.New().String()[:8]))
}
