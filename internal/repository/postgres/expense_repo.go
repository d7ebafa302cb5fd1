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

const expenseColumns = `id, title, amount, category, date, is_recurring, recurring_frequency_days, notes, receipt_path, created_at, updated_at`

// ExpenseRepository implements domain.ExpenseRepository using PostgreSQL
type ExpenseRepository struct {
	pool *pgxpool.Pool
}

// NewExpenseRepository creates a new ExpenseRepository
func NewExpenseRepository(pool *pgxpool.Pool) *ExpenseRepository {
	return &ExpenseRepository{pool: pool}
}

// Create inserts a new expense
func (r *ExpenseRepository) Create(ctx context.Context, expense *domain.Expense) (*domain.Expense, error) {
	amount, err := decimalToPgNumeric(expense.Amount)
	if err != nil {
		return nil, err
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO expenses (title, amount, category, date, is_recurring, recurring_frequency_days, notes, receipt_path)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+expenseColumns,
		expense.Title, amount, expense.Category, expense.Date, expense.IsRecurring,
		expense.RecurringFrequencyDays, expense.Notes, expense.ReceiptPath,
	)
	created, err := scanExpense(row)
	if err != nil {
		return nil, fmt.Errorf("insert expense: %w", err)
	}
	return created, nil
}

// GetByID retrieves an expense by ID
func (r *ExpenseRepository) GetByID(ctx context.Context, id int32) (*domain.Expense, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE id = $1`, id)
	expense, err := scanExpense(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrExpenseNotFound
		}
		return nil, err
	}
	return expense, nil
}

// Update replaces all user-editable fields of an expense
func (r *ExpenseRepository) Update(ctx context.Context, expense *domain.Expense) (*domain.Expense, error) {
	amount, err := decimalToPgNumeric(expense.Amount)
	if err != nil {
		return nil, err
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE expenses
		SET title = $2, amount = $3, category = $4, date = $5, is_recurring = $6,
		    recurring_frequency_days = $7, notes = $8, receipt_path = $9, updated_at = NOW()
		WHERE id = $1
		RETURNING `+expenseColumns,
		expense.ID, expense.Title, amount, expense.Category, expense.Date, expense.IsRecurring,
		expense.RecurringFrequencyDays, expense.Notes, expense.ReceiptPath,
	)
	updated, err := scanExpense(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrExpenseNotFound
		}
		return nil, fmt.Errorf("update expense: %w", err)
	}
	return updated, nil
}

// Delete removes an expense
func (r *ExpenseRepository) Delete(ctx context.Context, id int32) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM expenses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrExpenseNotFound
	}
	return nil
}

// ListByDateRange returns expenses dated in [start, end), newest first
func (r *ExpenseRepository) ListByDateRange(ctx context.Context, start, end time.Time) ([]*domain.Expense, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+expenseColumns+` FROM expenses
		WHERE date >= $1 AND date < $2
		ORDER BY date DESC, id DESC`, start, end)
	if err != nil {
		return nil, err
	}
	return collectExpenses(rows)
}

// ListByCategory returns all expenses of a category, newest first
func (r *ExpenseRepository) ListByCategory(ctx context.Context, category string) ([]*domain.Expense, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+expenseColumns+` FROM expenses
		WHERE category = $1
		ORDER BY date DESC, id DESC`, category)
	if err != nil {
		return nil, err
	}
	return collectExpenses(rows)
}

// ListAll returns every expense ordered by ID
func (r *ExpenseRepository) ListAll(ctx context.Context) ([]*domain.Expense, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+expenseColumns+` FROM expenses ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return collectExpenses(rows)
}

// SumByDateRange sums expense amounts dated in [start, end)
func (r *ExpenseRepository) SumByDateRange(ctx context.Context, start, end time.Time) (decimal.Decimal, error) {
	var total pgtype.Numeric
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM expenses
		WHERE date >= $1 AND date < $2`, start, end).Scan(&total)
	if err != nil {
		return decimal.Zero, err
	}
	return pgNumericToDecimal(total), nil
}

// SumByCategoryAndDateRange sums a category's expense amounts dated in [start, end)
func (r *ExpenseRepository) SumByCategoryAndDateRange(ctx context.Context, category string, start, end time.Time) (decimal.Decimal, error) {
	var total pgtype.Numeric
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM expenses
		WHERE category = $1 AND date >= $2 AND date < $3`, category, start, end).Scan(&total)
	if err != nil {
		return decimal.Zero, err
	}
	return pgNumericToDecimal(total), nil
}

// SumGroupedByCategory returns per-category totals for [start, end), largest first.
// Categories without expenses in the range do not appear.
func (r *ExpenseRepository) SumGroupedByCategory(ctx context.Context, start, end time.Time) ([]*domain.CategoryTotal, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT category, SUM(amount), COUNT(*) FROM expenses
		WHERE date >= $1 AND date < $2
		GROUP BY category
		ORDER BY SUM(amount) DESC, category`, start, end)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.CategoryTotal, error) {
		var ct domain.CategoryTotal
		var total pgtype.Numeric
		var count int64
		if err := row.Scan(&ct.Category, &total, &count); err != nil {
			return nil, err
		}
		ct.Total = pgNumericToDecimal(total)
		ct.Count = int(count)
		return &ct, nil
	})
}

// Search finds expenses whose title or notes contain query, ignoring case, newest first
func (r *ExpenseRepository) Search(ctx context.Context, query string) ([]*domain.Expense, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+expenseColumns+` FROM expenses
		WHERE title ILIKE $1 OR notes ILIKE $1
		ORDER BY date DESC, id DESC`, likePattern(query))
	if err != nil {
		return nil, err
	}
	return collectExpenses(rows)
}

func scanExpense(row pgx.Row) (*domain.Expense, error) {
	var e domain.Expense
	var amount pgtype.Numeric
	err := row.Scan(
		&e.ID, &e.Title, &amount, &e.Category, &e.Date, &e.IsRecurring,
		&e.RecurringFrequencyDays, &e.Notes, &e.ReceiptPath, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.Amount = pgNumericToDecimal(amount)
	e.Date = e.Date.UTC()
	return &e, nil
}

func collectExpenses(rows pgx.Rows) ([]*domain.Expense, error) {
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.Expense, error) {
		return scanExpense(row)
	})
}
