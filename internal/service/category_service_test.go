package service

import (
	"context"
	"strings"
	"testing"

	"github.com/ledgerly/ledgerly-backend/internal/domain"
	"github.com/ledgerly/ledgerly-backend/internal/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupCategoryService() (*CategoryService, *testutil.MockCategoryRepository, *testutil.MockIncomeTypeRepository) {
	categoryRepo := testutil.NewMockCategoryRepository()
	incomeTypeRepo := testutil.NewMockIncomeTypeRepository()
	return NewCategoryService(categoryRepo, incomeTypeRepo, zerolog.Nop()), categoryRepo, incomeTypeRepo
}

func TestCreateCategory(t *testing.T) {
	svc, _, _ := setupCategoryService()
	ctx := context.Background()

	created, err := svc.CreateCategory(ctx, "  Pets ")
	require.NoError(t, err)
	assert.Equal(t, "Pets", created.Name)

	_, err = svc.CreateCategory(ctx, "PETS")
	assert.ErrorIs(t, err, domain.ErrCategoryAlreadyExists)

	_, err = svc.CreateCategory(ctx, "   ")
	assert.ErrorIs(t, err, domain.ErrNameRequired)

	_, err = svc.CreateCategory(ctx, strings.Repeat("x", domain.MaxNameLength+1))
	assert.ErrorIs(t, err, domain.ErrNameTooLong)

	categories, err := svc.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, categories, 1)
}

func TestCreateIncomeType(t *testing.T) {
	svc, _, _ := setupCategoryService()
	ctx := context.Background()

	_, err := svc.CreateIncomeType(ctx, "Dividends")
	require.NoError(t, err)
	_, err = svc.CreateIncomeType(ctx, "dividends")
	assert.ErrorIs(t, err, domain.ErrIncomeTypeAlreadyExists)

	types, err := svc.ListIncomeTypes(ctx)
	require.NoError(t, err)
	require.Len(t, types, 1)
	assert.Equal(t, "Dividends", types[0].Name)
}

func TestSeedDefaults_Idempotent(t *testing.T) {
	svc, categoryRepo, incomeTypeRepo := setupCategoryService()
	ctx := context.Background()

	categoryRepo.AddCategories("food")

	require.NoError(t, svc.SeedDefaults(ctx))
	require.NoError(t, svc.SeedDefaults(ctx))

	categories, err := svc.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, categories, len(domain.DefaultCategories))

	types, err := svc.ListIncomeTypes(ctx)
	require.NoError(t, err)
	assert.Len(t, types, len(domain.DefaultIncomeTypes))
	assert.Len(t, incomeTypeRepo.Types, len(domain.DefaultIncomeTypes))
}
