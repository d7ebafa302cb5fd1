package domain

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// SavingsProject is a savings goal. CurrentAmount is derived from its
// transactions and deleting a project deletes its transactions.
type SavingsProject struct {
	ID            int32           `json:"id"`
	Title         string          `json:"title"`
	TargetAmount  decimal.Decimal `json:"targetAmount"`
	CurrentAmount decimal.Decimal `json:"currentAmount"`
	StartDate     time.Time       `json:"startDate"`
	Deadline      time.Time       `json:"deadline"`
	Frequency     Frequency       `json:"frequency"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// Validate checks the user-settable fields
func (p *SavingsProject) Validate() error {
	p.Title = strings.TrimSpace(p.Title)
	if p.Title == "" {
		return ErrTitleRequired
	}
	if len(p.Title) > MaxTitleLength {
		return ErrTitleTooLong
	}
	if !p.TargetAmount.IsPositive() {
		return ErrInvalidTarget
	}
	if p.StartDate.IsZero() || p.Deadline.IsZero() {
		return ErrDateRequired
	}
	if p.Deadline.Before(p.StartDate) {
		return ErrInvalidDateRange
	}
	// Contributions follow a calendar cadence, custom periods are for limits only
	if !p.Frequency.IsValid() || p.Frequency == FrequencyCustom {
		return ErrInvalidFrequency
	}
	return nil
}

// Progress is CurrentAmount / TargetAmount clamped to [0, 1]
func (p *SavingsProject) Progress() decimal.Decimal {
	if !p.TargetAmount.IsPositive() {
		return decimal.Zero
	}
	ratio := p.CurrentAmount.Div(p.TargetAmount)
	one := decimal.NewFromInt(1)
	if ratio.GreaterThan(one) {
		return one
	}
	if ratio.IsNegative() {
		return decimal.Zero
	}
	return ratio
}

// IsCompleted reports whether the target has been reached
func (p *SavingsProject) IsCompleted() bool {
	return p.CurrentAmount.GreaterThanOrEqual(p.TargetAmount)
}

// NextContribution returns when the next contribution is due given the date
// of the last one (or the start date when nil).
func (p *SavingsProject) NextContribution(last *time.Time) time.Time {
	from := p.StartDate
	if last != nil && last.After(from) {
		from = *last
	}
	return p.Frequency.Advance(from, 1, 0)
}

// SavingsTransaction is a deposit into a savings project
type SavingsTransaction struct {
	ID        int32           `json:"id"`
	ProjectID int32           `json:"projectId"`
	Amount    decimal.Decimal `json:"amount"`
	Date      time.Time       `json:"date"`
	Note      *string         `json:"note,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Validate checks a transaction before it is stored
func (t *SavingsTransaction) Validate() error {
	if !t.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if t.Date.IsZero() {
		return ErrDateRequired
	}
	if t.Note != nil && len(*t.Note) > MaxNotesLength {
		return ErrNotesTooLong
	}
	return nil
}

// SavingsTransactionCursor marks a position in the (date, id) ordering of a
// project's transactions.
type SavingsTransactionCursor struct {
	Date time.Time
	ID   int32
}

// SavingsRepository stores savings projects and their transactions. Every
// method that changes a transaction also maintains the parent's
// CurrentAmount in the same database transaction.
type SavingsRepository interface {
	CreateProject(ctx context.Context, project *SavingsProject) (*SavingsProject, error)
	GetProject(ctx context.Context, id int32) (*SavingsProject, error)
	ListProjects(ctx context.Context) ([]*SavingsProject, error)
	UpdateProject(ctx context.Context, project *SavingsProject) (*SavingsProject, error)
	// DeleteProject removes the transactions and then the project
	DeleteProject(ctx context.Context, id int32) error
	// AddTransaction inserts the transaction and increments the parent
	AddTransaction(ctx context.Context, tx *SavingsTransaction) (*SavingsTransaction, error)
	GetTransaction(ctx context.Context, id int32) (*SavingsTransaction, error)
	// RemoveTransaction decrements the parent and deletes the transaction
	RemoveTransaction(ctx context.Context, id int32) (*SavingsTransaction, error)
	// ListTransactionsPage returns up to limit transactions ordered by (date, id) after the cursor
	ListTransactionsPage(ctx context.Context, projectID int32, after *SavingsTransactionCursor, limit int) ([]*SavingsTransaction, error)
	LastTransactionDate(ctx context.Context, projectID int32) (*time.Time, error)
	// RecomputeCurrentAmounts sets every project's current amount to the sum of its transactions
	RecomputeCurrentAmounts(ctx context.Context) error
}
