package service

import (
	"context"
	"errors"
	"strings"

	"github.com/ledgerly/ledgerly-backend/internal/domain"
	"github.com/rs/zerolog"
)

// CategoryService manages expense categories and income types
type CategoryService struct {
	categoryRepo   domain.CategoryRepository
	incomeTypeRepo domain.IncomeTypeRepository
	logger         zerolog.Logger
}

// NewCategoryService creates a new CategoryService
func NewCategoryService(
	categoryRepo domain.CategoryRepository,
	incomeTypeRepo domain.IncomeTypeRepository,
	logger zerolog.Logger,
) *CategoryService {
	return &CategoryService{
		categoryRepo:   categoryRepo,
		incomeTypeRepo: incomeTypeRepo,
		logger:         logger.With().Str("component", "categories").Logger(),
	}
}

func validateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", domain.ErrNameRequired
	}
	if len(name) > domain.MaxNameLength {
		return "", domain.ErrNameTooLong
	}
	return name, nil
}

// ListCategories returns all categories ordered by name
func (s *CategoryService) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	return s.categoryRepo.List(ctx)
}

// CreateCategory creates a category
func (s *CategoryService) CreateCategory(ctx context.Context, name string) (*domain.Category, error) {
	name, err := validateName(name)
	if err != nil {
		return nil, err
	}
	return s.categoryRepo.Create(ctx, name)
}

// ListIncomeTypes returns all income types ordered by name
func (s *CategoryService) ListIncomeTypes(ctx context.Context) ([]*domain.IncomeType, error) {
	return s.incomeTypeRepo.List(ctx)
}

// CreateIncomeType creates an income type
func (s *CategoryService) CreateIncomeType(ctx context.Context, name string) (*domain.IncomeType, error) {
	name, err := validateName(name)
	if err != nil {
		return nil, err
	}
	return s.incomeTypeRepo.Create(ctx, name)
}

// SeedDefaults creates the default categories and income types that do not
// exist yet. Running it again changes nothing.
func (s *CategoryService) SeedDefaults(ctx context.Context) error {
	created := 0
	for _, name := range domain.DefaultCategories {
		_, err := s.categoryRepo.Create(ctx, name)
		if err != nil && !errors.Is(err, domain.ErrAlreadyExists) {
			return err
		}
		if err == nil {
			created++
		}
	}
	for _, name := range domain.DefaultIncomeTypes {
		_, err := s.incomeTypeRepo.Create(ctx, name)
		if err != nil && !errors.Is(err, domain.ErrAlreadyExists) {
			return err
		}
		if err == nil {
			created++
		}
	}
	if created > 0 {
		s.logger.Info().Int("created", created).Msg("Seeded default categories and income types")
	}
	return nil
}
