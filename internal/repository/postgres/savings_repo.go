package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ledgerly/ledgerly-backend/internal/domain"
)

const savingsProjectColumns = `id, title, target_amount, current_amount, start_date, deadline, frequency, created_at, updated_at`

const savingsTransactionColumns = `id, project_id, amount, date, note, created_at`

// SavingsRepository implements domain.SavingsRepository using PostgreSQL
type SavingsRepository struct {
	pool *pgxpool.Pool
}

// NewSavingsRepository creates a new SavingsRepository
func NewSavingsRepository(pool *pgxpool.Pool) *SavingsRepository {
	return &SavingsRepository{pool: pool}
}

// CreateProject inserts a new savings project with no contributions
func (r *SavingsRepository) CreateProject(ctx context.Context, project *domain.SavingsProject) (*domain.SavingsProject, error) {
	target, err := decimalToPgNumeric(project.TargetAmount)
	if err != nil {
		return nil, err
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO savings_projects (title, target_amount, start_date, deadline, frequency)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+savingsProjectColumns,
		project.Title, target, project.StartDate, project.Deadline, string(project.Frequency),
	)
	created, err := scanSavingsProject(row)
	if err != nil {
		return nil, fmt.Errorf("insert savings project: %w", err)
	}
	return created, nil
}

// GetProject retrieves a savings project by ID
func (r *SavingsRepository) GetProject(ctx context.Context, id int32) (*domain.SavingsProject, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+savingsProjectColumns+` FROM savings_projects WHERE id = $1`, id)
	project, err := scanSavingsProject(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrSavingsProjectNotFound
		}
		return nil, err
	}
	return project, nil
}

// ListProjects returns all projects ordered by deadline
func (r *SavingsRepository) ListProjects(ctx context.Context) ([]*domain.SavingsProject, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+savingsProjectColumns+` FROM savings_projects ORDER BY deadline, id`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.SavingsProject, error) {
		return scanSavingsProject(row)
	})
}

// UpdateProject changes the descriptive fields; the current amount is never written here
func (r *SavingsRepository) UpdateProject(ctx context.Context, project *domain.SavingsProject) (*domain.SavingsProject, error) {
	target, err := decimalToPgNumeric(project.TargetAmount)
	if err != nil {
		return nil, err
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE savings_projects
		SET title = $2, target_amount = $3, start_date = $4, deadline = $5, frequency = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING `+savingsProjectColumns,
		project.ID, project.Title, target, project.StartDate, project.Deadline, string(project.Frequency),
	)
	updated, err := scanSavingsProject(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrSavingsProjectNotFound
		}
		return nil, fmt.Errorf("update savings project: %w", err)
	}
	return updated, nil
}

// DeleteProject deletes the project's transactions and then the project in one transaction
func (r *SavingsRepository) DeleteProject(ctx context.Context, id int32) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin delete project: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := lockProject(ctx, tx, id); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM savings_transactions WHERE project_id = $1`, id); err != nil {
		return fmt.Errorf("delete savings transactions: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM savings_projects WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete savings project: %w", err)
	}

	return tx.Commit(ctx)
}

// AddTransaction inserts a contribution and increments the project's current amount
func (r *SavingsRepository) AddTransaction(ctx context.Context, st *domain.SavingsTransaction) (*domain.SavingsTransaction, error) {
	amount, err := decimalToPgNumeric(st.Amount)
	if err != nil {
		return nil, err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin add transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := lockProject(ctx, tx, st.ProjectID); err != nil {
		return nil, err
	}

	created, err := scanSavingsTransaction(tx.QueryRow(ctx, `
		INSERT INTO savings_transactions (project_id, amount, date, note)
		VALUES ($1, $2, $3, $4)
		RETURNING `+savingsTransactionColumns,
		st.ProjectID, amount, st.Date, st.Note,
	))
	if err != nil {
		return nil, fmt.Errorf("insert savings transaction: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE savings_projects SET current_amount = current_amount + $2, updated_at = NOW()
		WHERE id = $1`, st.ProjectID, amount); err != nil {
		return nil, fmt.Errorf("increment savings project: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit add transaction: %w", err)
	}
	return created, nil
}

// GetTransaction retrieves a savings transaction by ID
func (r *SavingsRepository) GetTransaction(ctx context.Context, id int32) (*domain.SavingsTransaction, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+savingsTransactionColumns+` FROM savings_transactions WHERE id = $1`, id)
	st, err := scanSavingsTransaction(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrSavingsTransactionNotFound
		}
		return nil, err
	}
	return st, nil
}

// RemoveTransaction subtracts the amount from the project and then deletes the transaction
func (r *SavingsRepository) RemoveTransaction(ctx context.Context, id int32) (*domain.SavingsTransaction, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin remove transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	st, err := scanSavingsTransaction(tx.QueryRow(ctx, `
		SELECT `+savingsTransactionColumns+` FROM savings_transactions
		WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrSavingsTransactionNotFound
		}
		return nil, err
	}

	amount, err := decimalToPgNumeric(st.Amount)
	if err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx, `
		UPDATE savings_projects SET current_amount = GREATEST(current_amount - $2, 0), updated_at = NOW()
		WHERE id = $1`, st.ProjectID, amount); err != nil {
		return nil, fmt.Errorf("decrement savings project: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM savings_transactions WHERE id = $1`, id); err != nil {
		return nil, fmt.Errorf("delete savings transaction: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit remove transaction: %w", err)
	}
	return st, nil
}

// ListTransactionsPage returns up to limit transactions of a project ordered
// by (date, id), starting after the cursor.
func (r *SavingsRepository) ListTransactionsPage(ctx context.Context, projectID int32, after *domain.SavingsTransactionCursor, limit int) ([]*domain.SavingsTransaction, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if after == nil {
		rows, err = r.pool.Query(ctx, `
			SELECT `+savingsTransactionColumns+` FROM savings_transactions
			WHERE project_id = $1
			ORDER BY date, id
			LIMIT $2`, projectID, limit)
	} else {
		rows, err = r.pool.Query(ctx, `
			SELECT `+savingsTransactionColumns+` FROM savings_transactions
			WHERE project_id = $1 AND (date, id) > ($2, $3)
			ORDER BY date, id
			LIMIT $4`, projectID, after.Date, after.ID, limit)
	}
	if err != nil {
		return nil, err
	}
	return collectSavingsTransactions(rows)
}

// LastTransactionDate returns the date of the latest contribution, or nil
func (r *SavingsRepository) LastTransactionDate(ctx context.Context, projectID int32) (*time.Time, error) {
	var last *time.Time
	err := r.pool.QueryRow(ctx, `
		SELECT MAX(date) FROM savings_transactions WHERE project_id = $1`, projectID).Scan(&last)
	if err != nil {
		return nil, err
	}
	return utcPtr(last), nil
}

// RecomputeCurrentAmounts rebuilds every project's current amount from its transactions
func (r *SavingsRepository) RecomputeCurrentAmounts(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE savings_projects p
		SET current_amount = COALESCE((
			SELECT SUM(t.amount) FROM savings_transactions t WHERE t.project_id = p.id
		), 0), updated_at = NOW()`)
	if err != nil {
		return fmt.Errorf("recompute savings projects: %w", err)
	}
	return nil
}

// lockProject takes a row lock on the project or reports it missing
func lockProject(ctx context.Context, tx pgx.Tx, id int32) error {
	var locked int32
	err := tx.QueryRow(ctx, `SELECT id FROM savings_projects WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.ErrSavingsProjectNotFound
		}
		return err
	}
	return nil
}

func scanSavingsProject(row pgx.Row) (*domain.SavingsProject, error) {
	var p domain.SavingsProject
	var target, current pgtype.Numeric
	var frequency string
	err := row.Scan(
		&p.ID, &p.Title, &target, &current, &p.StartDate, &p.Deadline,
		&frequency, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.TargetAmount = pgNumericToDecimal(target)
	p.CurrentAmount = pgNumericToDecimal(current)
	p.Frequency = domain.Frequency(frequency)
	p.StartDate = p.StartDate.UTC()
	p.Deadline = p.Deadline.UTC()
	return &p, nil
}

func scanSavingsTransaction(row pgx.Row) (*domain.SavingsTransaction, error) {
	var t domain.SavingsTransaction
	var amount pgtype.Numeric
	if err := row.Scan(&t.ID, &t.ProjectID, &amount, &t.Date, &t.Note, &t.CreatedAt); err != nil {
		return nil, err
	}
	t.Amount = pgNumericToDecimal(amount)
	t.Date = t.Date.UTC()
	return &t, nil
}

func collectSavingsTransactions(rows pgx.Rows) ([]*domain.SavingsTransaction, error) {
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.SavingsTransaction, error) {
		return scanSavingsTransaction(row)
	})
}
