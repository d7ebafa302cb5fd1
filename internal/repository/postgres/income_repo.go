package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ledgerly/ledgerly-backend/internal/domain"
	"github.com/shopspring/decimal"
)

const incomeColumns = `id, description, amount, type, date, is_recurring, recurring_frequency_days, next_occurrence, created_at, updated_at`

// IncomeRepository implements domain.IncomeRepository using PostgreSQL
type IncomeRepository struct {
	pool *pgxpool.Pool
}

// NewIncomeRepository creates a new IncomeRepository
func NewIncomeRepository(pool *pgxpool.Pool) *IncomeRepository {
	return &IncomeRepository{pool: pool}
}

// Create inserts a new income
func (r *IncomeRepository) Create(ctx context.Context, income *domain.Income) (*domain.Income, error) {
	amount, err := decimalToPgNumeric(income.Amount)
	if err != nil {
		return nil, err
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO incomes (description, amount, type, date, is_recurring, recurring_frequency_days, next_occurrence)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+incomeColumns,
		income.Description, amount, income.Type, income.Date, income.IsRecurring,
		income.RecurringFrequencyDays, income.NextOccurrence,
	)
	created, err := scanIncome(row)
	if err != nil {
		return nil, fmt.Errorf("insert income: %w", err)
	}
	return created, nil
}

// GetByID retrieves an income by ID
func (r *IncomeRepository) GetByID(ctx context.Context, id int32) (*domain.Income, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+incomeColumns+` FROM incomes WHERE id = $1`, id)
	income, err := scanIncome(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrIncomeNotFound
		}
		return nil, err
	}
	return income, nil
}

// Update replaces all editable fields of an income
func (r *IncomeRepository) Update(ctx context.Context, income *domain.Income) (*domain.Income, error) {
	amount, err := decimalToPgNumeric(income.Amount)
	if err != nil {
		return nil, err
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE incomes
		SET description = $2, amount = $3, type = $4, date = $5, is_recurring = $6,
		    recurring_frequency_days = $7, next_occurrence = $8, updated_at = NOW()
		WHERE id = $1
		RETURNING `+incomeColumns,
		income.ID, income.Description, amount, income.Type, income.Date, income.IsRecurring,
		income.RecurringFrequencyDays, income.NextOccurrence,
	)
	updated, err := scanIncome(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrIncomeNotFound
		}
		return nil, fmt.Errorf("update income: %w", err)
	}
	return updated, nil
}

// Delete removes an income
func (r *IncomeRepository) Delete(ctx context.Context, id int32) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM incomes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete income: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrIncomeNotFound
	}
	return nil
}

// ListByDateRange returns incomes dated in [start, end), newest first
func (r *IncomeRepository) ListByDateRange(ctx context.Context, start, end time.Time) ([]*domain.Income, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+incomeColumns+` FROM incomes
		WHERE date >= $1 AND date < $2
		ORDER BY date DESC, id DESC`, start, end)
	if err != nil {
		return nil, err
	}
	return collectIncomes(rows)
}

// ListRecurring returns recurring incomes ordered by next occurrence
func (r *IncomeRepository) ListRecurring(ctx context.Context) ([]*domain.Income, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+incomeColumns+` FROM incomes
		WHERE is_recurring
		ORDER BY next_occurrence, id`)
	if err != nil {
		return nil, err
	}
	return collectIncomes(rows)
}

// ListAll returns every income ordered by ID
func (r *IncomeRepository) ListAll(ctx context.Context) ([]*domain.Income, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+incomeColumns+` FROM incomes ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return collectIncomes(rows)
}

// SumByDateRange sums income amounts dated in [start, end)
func (r *IncomeRepository) SumByDateRange(ctx context.Context, start, end time.Time) (decimal.Decimal, error) {
	var total pgtype.Numeric
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM incomes
		WHERE date >= $1 AND date < $2`, start, end).Scan(&total)
	if err != nil {
		return decimal.Zero, err
	}
	return pgNumericToDecimal(total), nil
}

// UpdateNextOccurrence moves the next occurrence of a recurring income
func (r *IncomeRepository) UpdateNextOccurrence(ctx context.Context, id int32, next *time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE incomes SET next_occurrence = $2, updated_at = NOW()
		WHERE id = $1`, id, next)
	if err != nil {
		return fmt.Errorf("update next occurrence: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrIncomeNotFound
	}
	return nil
}

// Search finds incomes whose description contains query, ignoring case, newest first
func (r *IncomeRepository) Search(ctx context.Context, query string) ([]*domain.Income, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+incomeColumns+` FROM incomes
		WHERE description ILIKE $1
		ORDER BY date DESC, id DESC`, likePattern(query))
	if err != nil {
		return nil, err
	}
	return collectIncomes(rows)
}

func scanIncome(row pgx.Row) (*domain.Income, error) {
	var i domain.Income
	var amount pgtype.Numeric
	err := row.Scan(
		&i.ID, &i.Description, &amount, &i.Type, &i.Date, &i.IsRecurring,
		&i.RecurringFrequencyDays, &i.NextOccurrence, &i.CreatedAt, &i.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	i.Amount = pgNumericToDecimal(amount)
	i.Date = i.Date.UTC()
	i.NextOccurrence = utcPtr(i.NextOccurrence)
	return &i, nil
}

func collectIncomes(rows pgx.Rows) ([]*domain.Income, error) {
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.Income, error) {
		return scanIncome(row)
	})
}
