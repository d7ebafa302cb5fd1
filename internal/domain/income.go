package domain

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Income is a single incoming ledger entry. NextOccurrence is set for
// recurring incomes only and is always after Date.
type Income struct {
	ID                     int32           `json:"id"`
	Description            string          `json:"description"`
	Amount                 decimal.Decimal `json:"amount"`
	Type                   string          `json:"type"`
	Date                   time.Time       `json:"date"`
	IsRecurring            bool            `json:"isRecurring"`
	RecurringFrequencyDays *int32          `json:"recurringFrequencyDays,omitempty"`
	NextOccurrence         *time.Time      `json:"nextOccurrence,omitempty"`
	CreatedAt              time.Time       `json:"createdAt"`
	UpdatedAt              time.Time       `json:"updatedAt"`
}

// Validate checks the invariants of a single income. It does not check
// that the income type exists.
func (i *Income) Validate() error {
	i.Description = strings.TrimSpace(i.Description)
	if i.Description == "" {
		return ErrTitleRequired
	}
	if len(i.Description) > MaxTitleLength {
		return ErrTitleTooLong
	}
	if !i.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if i.Date.IsZero() {
		return ErrDateRequired
	}
	if err := validateRecurrence(i.IsRecurring, i.RecurringFrequencyDays); err != nil {
		return err
	}
	if !i.IsRecurring && i.NextOccurrence != nil {
		return ErrInvalidRecurrence
	}
	if i.NextOccurrence != nil && !i.NextOccurrence.After(i.Date) {
		return ErrInvalidRecurrence
	}
	return nil
}

// IncomeRepository stores incomes. Range arguments are half-open [start, end).
type IncomeRepository interface {
	Create(ctx context.Context, income *Income) (*Income, error)
	GetByID(ctx context.Context, id int32) (*Income, error)
	Update(ctx context.Context, income *Income) (*Income, error)
	Delete(ctx context.Context, id int32) error
	ListByDateRange(ctx context.Context, start, end time.Time) ([]*Income, error)
	ListRecurring(ctx context.Context) ([]*Income, error)
	ListAll(ctx context.Context) ([]*Income, error)
	SumByDateRange(ctx context.Context, start, end time.Time) (decimal.Decimal, error)
	UpdateNextOccurrence(ctx context.Context, id int32, next *time.Time) error
	Search(ctx context.Context, query string) ([]*Income, error)
}
