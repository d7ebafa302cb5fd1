package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/ledgerly/ledgerly-backend/internal/domain"
	"github.com/ledgerly/ledgerly-backend/internal/repository/storage"
	"github.com/rs/zerolog"
)

const (
	MaxImageSize   = 5 * 1024 * 1024 // 5MB
	MinImageWidth  = 50
	MinImageHeight = 50
	ThumbnailWidth = 200
	DisplayWidth   = 800
	JPEGQuality    = 85

	receiptURLExpiry = 15 * time.Minute
)

var (
	ErrImageTooLarge               = fmt.Errorf("file too large. Maximum size is 5MB: %w", domain.ErrInvalidInput)
	ErrInvalidFormat               = fmt.Errorf("invalid format. Supported: JPEG, PNG: %w", domain.ErrInvalidInput)
	ErrImageTooSmall               = fmt.Errorf("image too small. Minimum 50x50 pixels: %w", domain.ErrInvalidInput)
	ErrInvalidImageData            = fmt.Errorf("invalid image data: %w", domain.ErrInvalidInput)
	ErrReceiptStorageNotConfigured = errors.New("receipt storage not configured")
)

// AllowedExtensions maps extensions to content types
var AllowedExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

// receiptVariants are the sizes stored for every receipt
var receiptVariants = []struct {
	name     string
	maxWidth int
}{
	{"thumb", ThumbnailWidth},
	{"display", DisplayWidth},
}

// ReceiptURLs holds short-lived download links of a receipt
type ReceiptURLs struct {
	ThumbnailURL string `json:"thumbnailUrl"`
	DisplayURL   string `json:"displayUrl"`
}

// ReceiptService stores receipt images of expenses. It observes the ledger
// so that replaced or deleted receipts are removed from storage.
type ReceiptService struct {
	store  storage.ObjectStore
	ledger *LedgerService
	logger zerolog.Logger
}

// NewReceiptService creates a new ReceiptService. store may be nil when no
// object storage is configured.
func NewReceiptService(store storage.ObjectStore, ledger *LedgerService, logger zerolog.Logger) *ReceiptService {
	return &ReceiptService{
		store:  store,
		ledger: ledger,
		logger: logger.With().Str("component", "receipts").Logger(),
	}
}

// IsEnabled indicates whether uploads/deletes are supported (storage configured).
func (s *ReceiptService) IsEnabled() bool {
	return s != nil && s.store != nil
}

// ValidateImage validates image format and size
func (s *ReceiptService) ValidateImage(data []byte, filename string) error {
	_, err := s.validateAndDecode(data, filename)
	return err
}

// validateAndDecode validates the image and returns the decoded image
func (s *ReceiptService) validateAndDecode(data []byte, filename string) (image.Image, error) {
	if len(data) > MaxImageSize {
		return nil, ErrImageTooLarge
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := AllowedExtensions[ext]; !ok {
		return nil, ErrInvalidFormat
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, ErrInvalidImageData
	}

	bounds := img.Bounds()
	if bounds.Dx() < MinImageWidth || bounds.Dy() < MinImageHeight {
		return nil, ErrImageTooSmall
	}

	return img, nil
}

// Attach resizes the image, uploads every variant and records the display
// variant as the expense's receipt. A previous receipt is removed once the
// expense points to the new one.
func (s *ReceiptService) Attach(ctx context.Context, expenseID int32, data []byte, filename string) (*domain.Expense, error) {
	if !s.IsEnabled() {
		return nil, ErrReceiptStorageNotConfigured
	}

	img, err := s.validateAndDecode(data, filename)
	if err != nil {
		return nil, err
	}

	if _, err := s.ledger.GetExpense(ctx, expenseID); err != nil {
		return nil, err
	}

	receiptID := uuid.New().String()
	uploaded := make([]string, 0, len(receiptVariants))
	for _, variant := range receiptVariants {
		var processed image.Image
		if variant.maxWidth > 0 && img.Bounds().Dx() > variant.maxWidth {
			processed = imaging.Resize(img, variant.maxWidth, 0, imaging.Lanczos)
		} else {
			processed = img
		}

		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, processed, &jpeg.Options{Quality: JPEGQuality}); err != nil {
			s.cleanup(ctx, uploaded)
			return nil, fmt.Errorf("failed to encode image: %w", err)
		}

		key := storage.ReceiptObjectKey(expenseID, receiptID, variant.name)
		if _, err := s.store.Upload(ctx, key, bytes.NewReader(buf.Bytes()), "image/jpeg", int64(buf.Len())); err != nil {
			s.cleanup(ctx, uploaded)
			return nil, fmt.Errorf("failed to upload %s variant: %w", variant.name, err)
		}
		uploaded = append(uploaded, key)
	}

	path := storage.ReceiptObjectKey(expenseID, receiptID, "display")
	expense, err := s.ledger.SetReceiptPath(ctx, expenseID, &path)
	if err != nil {
		s.cleanup(ctx, uploaded)
		return nil, err
	}

	s.logger.Info().Int32("expense_id", expenseID).Str("receipt_id", receiptID).Msg("Attached receipt")
	return expense, nil
}

// Detach clears the expense's receipt; its images are removed by the observer
func (s *ReceiptService) Detach(ctx context.Context, expenseID int32) (*domain.Expense, error) {
	return s.ledger.SetReceiptPath(ctx, expenseID, nil)
}

// URLs returns presigned links to the receipt variants of an expense
func (s *ReceiptService) URLs(ctx context.Context, expense *domain.Expense) (*ReceiptURLs, error) {
	if !s.IsEnabled() {
		return nil, ErrReceiptStorageNotConfigured
	}
	if expense.ReceiptPath == nil {
		return nil, fmt.Errorf("receipt: %w", domain.ErrNotFound)
	}
	base := receiptBasePath(*expense.ReceiptPath)
	if base == "" {
		return nil, fmt.Errorf("receipt: %w", domain.ErrNotFound)
	}

	thumb, err := s.store.GeneratePresignedURL(ctx, base+"_thumb.jpg", receiptURLExpiry)
	if err != nil {
		return nil, err
	}
	display, err := s.store.GeneratePresignedURL(ctx, base+"_display.jpg", receiptURLExpiry)
	if err != nil {
		return nil, err
	}
	return &ReceiptURLs{ThumbnailURL: thumb, DisplayURL: display}, nil
}

// cleanup removes variants uploaded during a failed operation
func (s *ReceiptService) cleanup(ctx context.Context, keys []string) {
	for _, key := range keys {
		if err := s.store.Delete(ctx, key); err != nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("Failed to clean up receipt variant")
		}
	}
}

// deleteAllVariants deletes every variant of the receipt at path
func (s *ReceiptService) deleteAllVariants(ctx context.Context, path string) {
	base := receiptBasePath(path)
	if base == "" {
		return
	}
	keys := make([]string, 0, len(receiptVariants))
	for _, variant := range receiptVariants {
		keys = append(keys, base+"_"+variant.name+".jpg")
	}
	s.cleanup(ctx, keys)
}

// receiptBasePath strips the variant suffix from a receipt key
func receiptBasePath(path string) string {
	for _, variant := range receiptVariants {
		suffix := "_" + variant.name + ".jpg"
		if strings.HasSuffix(path, suffix) {
			return strings.TrimSuffix(path, suffix)
		}
	}
	return ""
}

var _ ExpenseObserver = (*ReceiptService)(nil)

// OnExpenseAdded does nothing; receipts are attached after creation
func (s *ReceiptService) OnExpenseAdded(ctx context.Context, expense *domain.Expense) error {
	return nil
}

// OnExpenseRemoved deletes the receipt images of a deleted expense
func (s *ReceiptService) OnExpenseRemoved(ctx context.Context, expense *domain.Expense) error {
	if !s.IsEnabled() || expense.ReceiptPath == nil {
		return nil
	}
	s.deleteAllVariants(ctx, *expense.ReceiptPath)
	return nil
}

// OnExpenseUpdated deletes the previous receipt when it was replaced or cleared
func (s *ReceiptService) OnExpenseUpdated(ctx context.Context, old, updated *domain.Expense) error {
	if !s.IsEnabled() || old.ReceiptPath == nil {
		return nil
	}
	if updated.ReceiptPath != nil && *updated.ReceiptPath == *old.ReceiptPath {
		return nil
	}
	s.deleteAllVariants(ctx, *old.ReceiptPath)
	return nil
}
