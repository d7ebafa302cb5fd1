package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ledgerly/ledgerly-backend/internal/domain"
)

// snapshotTables lists tables children first, the order rows must be removed in
var snapshotTables = []string{
	"savings_transactions",
	"savings_projects",
	"spending_limits",
	"incomes",
	"expenses",
	"income_types",
	"categories",
}

// SnapshotRepository implements domain.SnapshotRepository using PostgreSQL
type SnapshotRepository struct {
	pool *pgxpool.Pool
}

// NewSnapshotRepository creates a new SnapshotRepository
func NewSnapshotRepository(pool *pgxpool.Pool) *SnapshotRepository {
	return &SnapshotRepository{pool: pool}
}

// Export reads every table inside one repeatable-read transaction so the
// snapshot is consistent.
func (r *SnapshotRepository) Export(ctx context.Context) (*domain.Snapshot, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, fmt.Errorf("begin export: %w", err)
	}
	defer tx.Rollback(ctx)

	snapshot := &domain.Snapshot{
		Version:   domain.SnapshotVersion,
		CreatedAt: time.Now().UTC(),
	}

	if snapshot.Categories, err = queryAll(ctx, tx, `SELECT id, name, created_at FROM categories ORDER BY id`,
		func(row pgx.CollectableRow) (*domain.Category, error) {
			var c domain.Category
			err := row.Scan(&c.ID, &c.Name, &c.CreatedAt)
			return &c, err
		}); err != nil {
		return nil, fmt.Errorf("export categories: %w", err)
	}
	if snapshot.IncomeTypes, err = queryAll(ctx, tx, `SELECT id, name, created_at FROM income_types ORDER BY id`,
		func(row pgx.CollectableRow) (*domain.IncomeType, error) {
			var t domain.IncomeType
			err := row.Scan(&t.ID, &t.Name, &t.CreatedAt)
			return &t, err
		}); err != nil {
		return nil, fmt.Errorf("export income types: %w", err)
	}
	if snapshot.Expenses, err = queryAll(ctx, tx, `SELECT `+expenseColumns+` FROM expenses ORDER BY id`,
		func(row pgx.CollectableRow) (*domain.Expense, error) { return scanExpense(row) }); err != nil {
		return nil, fmt.Errorf("export expenses: %w", err)
	}
	if snapshot.Incomes, err = queryAll(ctx, tx, `SELECT `+incomeColumns+` FROM incomes ORDER BY id`,
		func(row pgx.CollectableRow) (*domain.Income, error) { return scanIncome(row) }); err != nil {
		return nil, fmt.Errorf("export incomes: %w", err)
	}
	if snapshot.SpendingLimits, err = queryAll(ctx, tx, `SELECT `+spendingLimitColumns+` FROM spending_limits ORDER BY id`,
		func(row pgx.CollectableRow) (*domain.SpendingLimit, error) { return scanSpendingLimit(row) }); err != nil {
		return nil, fmt.Errorf("export spending limits: %w", err)
	}
	if snapshot.SavingsProjects, err = queryAll(ctx, tx, `SELECT `+savingsProjectColumns+` FROM savings_projects ORDER BY id`,
		func(row pgx.CollectableRow) (*domain.SavingsProject, error) { return scanSavingsProject(row) }); err != nil {
		return nil, fmt.Errorf("export savings projects: %w", err)
	}
	if snapshot.SavingsTransactions, err = queryAll(ctx, tx, `SELECT `+savingsTransactionColumns+` FROM savings_transactions ORDER BY id`,
		func(row pgx.CollectableRow) (*domain.SavingsTransaction, error) { return scanSavingsTransaction(row) }); err != nil {
		return nil, fmt.Errorf("export savings transactions: %w", err)
	}

	return snapshot, nil
}

// ReplaceAll clears every table and bulk-loads the snapshot with COPY in
// one transaction. Sequences are moved past the restored IDs.
func (r *SnapshotRepository) ReplaceAll(ctx context.Context, snapshot *domain.Snapshot) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin restore: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, table := range snapshotTables {
		if _, err := tx.Exec(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	if err := copyRows(ctx, tx, "categories", []string{"id", "name", "created_at"}, snapshot.Categories,
		func(c *domain.Category) ([]any, error) {
			return []any{c.ID, c.Name, c.CreatedAt}, nil
		}); err != nil {
		return err
	}
	if err := copyRows(ctx, tx, "income_types", []string{"id", "name", "created_at"}, snapshot.IncomeTypes,
		func(t *domain.IncomeType) ([]any, error) {
			return []any{t.ID, t.Name, t.CreatedAt}, nil
		}); err != nil {
		return err
	}
	if err := copyRows(ctx, tx, "expenses",
		[]string{"id", "title", "amount", "category", "date", "is_recurring", "recurring_frequency_days", "notes", "receipt_path", "created_at", "updated_at"},
		snapshot.Expenses,
		func(e *domain.Expense) ([]any, error) {
			amount, err := decimalToPgNumeric(e.Amount)
			if err != nil {
				return nil, err
			}
			return []any{e.ID, e.Title, amount, e.Category, e.Date, e.IsRecurring, e.RecurringFrequencyDays, e.Notes, e.ReceiptPath, e.CreatedAt, e.UpdatedAt}, nil
		}); err != nil {
		return err
	}
	if err := copyRows(ctx, tx, "incomes",
		[]string{"id", "description", "amount", "type", "date", "is_recurring", "recurring_frequency_days", "next_occurrence", "created_at", "updated_at"},
		snapshot.Incomes,
		func(i *domain.Income) ([]any, error) {
			amount, err := decimalToPgNumeric(i.Amount)
			if err != nil {
				return nil, err
			}
			return []any{i.ID, i.Description, amount, i.Type, i.Date, i.IsRecurring, i.RecurringFrequencyDays, i.NextOccurrence, i.CreatedAt, i.UpdatedAt}, nil
		}); err != nil {
		return err
	}
	// current_amount is loaded as zero; derived amounts are recomputed after restore
	if err := copyRows(ctx, tx, "spending_limits",
		[]string{"id", "category", "amount", "start_date", "frequency", "period_days", "auto_reset", "is_active", "created_at", "updated_at"},
		snapshot.SpendingLimits,
		func(l *domain.SpendingLimit) ([]any, error) {
			amount, err := decimalToPgNumeric(l.Amount)
			if err != nil {
				return nil, err
			}
			return []any{l.ID, l.Category, amount, l.StartDate, string(l.Frequency), l.PeriodDays, l.AutoReset, l.IsActive, l.CreatedAt, l.UpdatedAt}, nil
		}); err != nil {
		return err
	}
	if err := copyRows(ctx, tx, "savings_projects",
		[]string{"id", "title", "target_amount", "start_date", "deadline", "frequency", "created_at", "updated_at"},
		snapshot.SavingsProjects,
		func(p *domain.SavingsProject) ([]any, error) {
			target, err := decimalToPgNumeric(p.TargetAmount)
			if err != nil {
				return nil, err
			}
			return []any{p.ID, p.Title, target, p.StartDate, p.Deadline, string(p.Frequency), p.CreatedAt, p.UpdatedAt}, nil
		}); err != nil {
		return err
	}
	if err := copyRows(ctx, tx, "savings_transactions",
		[]string{"id", "project_id", "amount", "date", "note", "created_at"},
		snapshot.SavingsTransactions,
		func(t *domain.SavingsTransaction) ([]any, error) {
			amount, err := decimalToPgNumeric(t.Amount)
			if err != nil {
				return nil, err
			}
			return []any{t.ID, t.ProjectID, amount, t.Date, t.Note, t.CreatedAt}, nil
		}); err != nil {
		return err
	}

	for _, table := range snapshotTables {
		if _, err := tx.Exec(ctx, fmt.Sprintf(
			`SELECT setval(pg_get_serial_sequence('%[1]s', 'id'), COALESCE(MAX(id), 1), MAX(id) IS NOT NULL) FROM %[1]s`,
			table)); err != nil {
			return fmt.Errorf("reset %s sequence: %w", table, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit restore: %w", err)
	}
	return nil
}

func queryAll[T any](ctx context.Context, tx pgx.Tx, sql string, scan func(pgx.CollectableRow) (T, error)) ([]T, error) {
	rows, err := tx.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scan)
}

func copyRows[T any](ctx context.Context, tx pgx.Tx, table string, columns []string, items []T, toRow func(T) ([]any, error)) error {
	if len(items) == 0 {
		return nil
	}
	rows := make([][]any, 0, len(items))
	for _, item := range items {
		row, err := toRow(item)
		if err != nil {
			return fmt.Errorf("encode %s row: %w", table, err)
		}
		rows = append(rows, row)
	}
	if _, err := tx.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(rows)); err != nil {
		return fmt.Errorf("copy %s: %w", table, err)
	}
	return nil
}
