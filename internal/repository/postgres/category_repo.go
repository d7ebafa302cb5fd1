package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ledgerly/ledgerly-backend/internal/domain"
)

// namedRow is a row of one of the name lookup tables
type namedRow struct {
	ID        int32
	Name      string
	CreatedAt time.Time
}

// lookupTable holds the shared queries of the categories and income_types tables
type lookupTable struct {
	pool        *pgxpool.Pool
	table       string
	notFoundErr error
	existsErr   error
}

func (t lookupTable) create(ctx context.Context, name string) (*namedRow, error) {
	var row namedRow
	err := t.pool.QueryRow(ctx,
		`INSERT INTO `+t.table+` (name) VALUES ($1) RETURNING id, name, created_at`, name,
	).Scan(&row.ID, &row.Name, &row.CreatedAt)
	if err != nil {
		if isPgUniqueViolation(err) {
			return nil, t.existsErr
		}
		return nil, err
	}
	return &row, nil
}

func (t lookupTable) getByName(ctx context.Context, name string) (*namedRow, error) {
	var row namedRow
	err := t.pool.QueryRow(ctx,
		`SELECT id, name, created_at FROM `+t.table+` WHERE LOWER(name) = LOWER($1)`, name,
	).Scan(&row.ID, &row.Name, &row.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, t.notFoundErr
		}
		return nil, err
	}
	return &row, nil
}

func (t lookupTable) list(ctx context.Context) ([]*namedRow, error) {
	rows, err := t.pool.Query(ctx, `SELECT id, name, created_at FROM `+t.table+` ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*namedRow, error) {
		var r namedRow
		if err := row.Scan(&r.ID, &r.Name, &r.CreatedAt); err != nil {
			return nil, err
		}
		return &r, nil
	})
}

// CategoryRepository implements domain.CategoryRepository using PostgreSQL
type CategoryRepository struct {
	table lookupTable
}

// NewCategoryRepository creates a new CategoryRepository
func NewCategoryRepository(pool *pgxpool.Pool) *CategoryRepository {
	return &CategoryRepository{table: lookupTable{
		pool:        pool,
		table:       "categories",
		notFoundErr: domain.ErrCategoryNotFound,
		existsErr:   domain.ErrCategoryAlreadyExists,
	}}
}

// Create inserts a new category
func (r *CategoryRepository) Create(ctx context.Context, name string) (*domain.Category, error) {
	row, err := r.table.create(ctx, name)
	if err != nil {
		return nil, err
	}
	return toCategory(row), nil
}

// GetByName finds a category ignoring case
func (r *CategoryRepository) GetByName(ctx context.Context, name string) (*domain.Category, error) {
	row, err := r.table.getByName(ctx, name)
	if err != nil {
		return nil, err
	}
	return toCategory(row), nil
}

// List returns all categories ordered by name
func (r *CategoryRepository) List(ctx context.Context) ([]*domain.Category, error) {
	rows, err := r.table.list(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]*domain.Category, len(rows))
	for i, row := range rows {
		result[i] = toCategory(row)
	}
	return result, nil
}

// IncomeTypeRepository implements domain.IncomeTypeRepository using PostgreSQL
type IncomeTypeRepository struct {
	table lookupTable
}

// NewIncomeTypeRepository creates a new IncomeTypeRepository
func NewIncomeTypeRepository(pool *pgxpool.Pool) *IncomeTypeRepository {
	return &IncomeTypeRepository{table: lookupTable{
		pool:        pool,
		table:       "income_types",
		notFoundErr: domain.ErrIncomeTypeNotFound,
		existsErr:   domain.ErrIncomeTypeAlreadyExists,
	}}
}

// Create inserts a new income type
func (r *IncomeTypeRepository) Create(ctx context.Context, name string) (*domain.IncomeType, error) {
	row, err := r.table.create(ctx, name)
	if err != nil {
		return nil, err
	}
	return toIncomeType(row), nil
}

// GetByName finds an income type ignoring case
func (r *IncomeTypeRepository) GetByName(ctx context.Context, name string) (*domain.IncomeType, error) {
	row, err := r.table.getByName(ctx, name)
	if err != nil {
		return nil, err
	}
	return toIncomeType(row), nil
}

// List returns all income types ordered by name
func (r *IncomeTypeRepository) List(ctx context.Context) ([]*domain.IncomeType, error) {
	rows, err := r.table.list(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]*domain.IncomeType, len(rows))
	for i, row := range rows {
		result[i] = toIncomeType(row)
	}
	return result, nil
}

func toCategory(r *namedRow) *domain.Category {
	return &domain.Category{ID: r.ID, Name: r.Name, CreatedAt: r.CreatedAt}
}

func toIncomeType(r *namedRow) *domain.IncomeType {
	return &domain.IncomeType{ID: r.ID, Name: r.Name, CreatedAt: r.CreatedAt}
}
