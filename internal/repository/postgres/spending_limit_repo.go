package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ledgerly/ledgerly-backend/internal/domain"
	"github.com/shopspring/decimal"
)

const spendingLimitColumns = `id, category, amount, current_amount, start_date, frequency, period_days, auto_reset, is_active, created_at, updated_at`

const insertSpendingLimit = `
	INSERT INTO spending_limits (category, amount, current_amount, start_date, frequency, period_days, auto_reset, is_active)
	VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE)
	RETURNING ` + spendingLimitColumns

// SpendingLimitRepository implements domain.SpendingLimitRepository using PostgreSQL
type SpendingLimitRepository struct {
	pool *pgxpool.Pool
}

// NewSpendingLimitRepository creates a new SpendingLimitRepository
func NewSpendingLimitRepository(pool *pgxpool.Pool) *SpendingLimitRepository {
	return &SpendingLimitRepository{pool: pool}
}

// Create inserts a new active spending limit
func (r *SpendingLimitRepository) Create(ctx context.Context, limit *domain.SpendingLimit) (*domain.SpendingLimit, error) {
	args, err := spendingLimitInsertArgs(limit)
	if err != nil {
		return nil, err
	}

	created, err := scanSpendingLimit(r.pool.QueryRow(ctx, insertSpendingLimit, args...))
	if err != nil {
		if isPgUniqueViolation(err) {
			return nil, domain.ErrSpendingLimitAlreadyExists
		}
		return nil, fmt.Errorf("insert spending limit: %w", err)
	}
	return created, nil
}

// GetByID retrieves a spending limit by ID, active or not
func (r *SpendingLimitRepository) GetByID(ctx context.Context, id int32) (*domain.SpendingLimit, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+spendingLimitColumns+` FROM spending_limits WHERE id = $1`, id)
	return r.getOne(row)
}

// GetActiveByCategory retrieves the active period of a category's limit
func (r *SpendingLimitRepository) GetActiveByCategory(ctx context.Context, category string) (*domain.SpendingLimit, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+spendingLimitColumns+` FROM spending_limits
		WHERE category = $1 AND is_active`, category)
	return r.getOne(row)
}

// ListActive returns the active period of every limit
func (r *SpendingLimitRepository) ListActive(ctx context.Context) ([]*domain.SpendingLimit, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+spendingLimitColumns+` FROM spending_limits
		WHERE is_active
		ORDER BY category`)
	if err != nil {
		return nil, err
	}
	return collectSpendingLimits(rows)
}

// ListByCategory returns all periods of a category, newest first
func (r *SpendingLimitRepository) ListByCategory(ctx context.Context, category string) ([]*domain.SpendingLimit, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+spendingLimitColumns+` FROM spending_limits
		WHERE category = $1
		ORDER BY start_date DESC, id DESC`, category)
	if err != nil {
		return nil, err
	}
	return collectSpendingLimits(rows)
}

// Update changes the amount and schedule of a limit. The current amount is
// written as given; callers recompute it when the window changes.
func (r *SpendingLimitRepository) Update(ctx context.Context, limit *domain.SpendingLimit) (*domain.SpendingLimit, error) {
	amount, err := decimalToPgNumeric(limit.Amount)
	if err != nil {
		return nil, err
	}
	current, err := decimalToPgNumeric(limit.CurrentAmount)
	if err != nil {
		return nil, err
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE spending_limits
		SET amount = $2, current_amount = $3, start_date = $4, frequency = $5,
		    period_days = $6, auto_reset = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING `+spendingLimitColumns,
		limit.ID, amount, current, limit.StartDate, string(limit.Frequency), limit.PeriodDays, limit.AutoReset,
	)
	return r.getOne(row)
}

// Delete removes a limit row
func (r *SpendingLimitRepository) Delete(ctx context.Context, id int32) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM spending_limits WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete spending limit: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSpendingLimitNotFound
	}
	return nil
}

// AddToCurrentAmount adds delta in a single statement so concurrent writers
// serialize on the row lock.
func (r *SpendingLimitRepository) AddToCurrentAmount(ctx context.Context, id int32, delta decimal.Decimal) (*domain.SpendingLimit, error) {
	d, err := decimalToPgNumeric(delta)
	if err != nil {
		return nil, err
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE spending_limits
		SET current_amount = GREATEST(current_amount + $2, 0), updated_at = NOW()
		WHERE id = $1
		RETURNING `+spendingLimitColumns, id, d)
	return r.getOne(row)
}

// SetCurrentAmount overwrites the derived amount after a full recompute
func (r *SpendingLimitRepository) SetCurrentAmount(ctx context.Context, id int32, amount decimal.Decimal) (*domain.SpendingLimit, error) {
	a, err := decimalToPgNumeric(amount)
	if err != nil {
		return nil, err
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE spending_limits
		SET current_amount = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING `+spendingLimitColumns, id, a)
	return r.getOne(row)
}

// Rollover closes the old period and opens next in one transaction
func (r *SpendingLimitRepository) Rollover(ctx context.Context, oldID int32, next *domain.SpendingLimit) (*domain.SpendingLimit, error) {
	args, err := spendingLimitInsertArgs(next)
	if err != nil {
		return nil, err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin rollover: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE spending_limits SET is_active = FALSE, updated_at = NOW()
		WHERE id = $1 AND is_active`, oldID)
	if err != nil {
		return nil, fmt.Errorf("deactivate spending limit: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, domain.ErrSpendingLimitNotFound
	}

	created, err := scanSpendingLimit(tx.QueryRow(ctx, insertSpendingLimit, args...))
	if err != nil {
		return nil, fmt.Errorf("insert next period: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit rollover: %w", err)
	}
	return created, nil
}

func (r *SpendingLimitRepository) getOne(row pgx.Row) (*domain.SpendingLimit, error) {
	limit, err := scanSpendingLimit(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrSpendingLimitNotFound
		}
		return nil, err
	}
	return limit, nil
}

func spendingLimitInsertArgs(limit *domain.SpendingLimit) ([]any, error) {
	amount, err := decimalToPgNumeric(limit.Amount)
	if err != nil {
		return nil, err
	}
	current, err := decimalToPgNumeric(limit.CurrentAmount)
	if err != nil {
		return nil, err
	}
	return []any{
		limit.Category, amount, current, limit.StartDate,
		string(limit.Frequency), limit.PeriodDays, limit.AutoReset,
	}, nil
}

func scanSpendingLimit(row pgx.Row) (*domain.SpendingLimit, error) {
	var l domain.SpendingLimit
	var amount, current pgtype.Numeric
	var frequency string
	err := row.Scan(
		&l.ID, &l.Category, &amount, &current, &l.StartDate, &frequency,
		&l.PeriodDays, &l.AutoReset, &l.IsActive, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	l.Amount = pgNumericToDecimal(amount)
	l.CurrentAmount = pgNumericToDecimal(current)
	l.Frequency = domain.Frequency(frequency)
	l.StartDate = l.StartDate.UTC()
	return &l, nil
}

func collectSpendingLimits(rows pgx.Rows) ([]*domain.SpendingLimit, error) {
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.SpendingLimit, error) {
		return scanSpendingLimit(row)
	})
}
