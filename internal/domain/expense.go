package domain

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Expense is a single outgoing ledger entry. Category is the name of a known
// Category or empty for uncategorized spending.
type Expense struct {
	ID                     int32           `json:"id"`
	Title                  string          `json:"title"`
	Amount                 decimal.Decimal `json:"amount"`
	Category               string          `json:"category"`
	Date                   time.Time       `json:"date"`
	IsRecurring            bool            `json:"isRecurring"`
	RecurringFrequencyDays *int32          `json:"recurringFrequencyDays,omitempty"`
	Notes                  *string         `json:"notes,omitempty"`
	ReceiptPath            *string         `json:"receiptPath,omitempty"`
	CreatedAt              time.Time       `json:"createdAt"`
	UpdatedAt              time.Time       `json:"updatedAt"`
}

// Validate checks the invariants of a single expense. It does not check
// that the category exists.
func (e *Expense) Validate() error {
	e.Title = strings.TrimSpace(e.Title)
	if e.Title == "" {
		return ErrTitleRequired
	}
	if len(e.Title) > MaxTitleLength {
		return ErrTitleTooLong
	}
	if !e.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if e.Date.IsZero() {
		return ErrDateRequired
	}
	if e.Notes != nil && len(*e.Notes) > MaxNotesLength {
		return ErrNotesTooLong
	}
	return validateRecurrence(e.IsRecurring, e.RecurringFrequencyDays)
}

func validateRecurrence(isRecurring bool, frequencyDays *int32) error {
	if isRecurring && (frequencyDays == nil || *frequencyDays <= 0) {
		return ErrInvalidRecurrence
	}
	if !isRecurring && frequencyDays != nil {
		return ErrInvalidRecurrence
	}
	return nil
}

// CategoryTotal is the aggregated spending of one category
type CategoryTotal struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
	Count    int             `json:"count"`
}

// ExpenseRepository stores expenses. Range arguments are half-open [start, end).
type ExpenseRepository interface {
	Create(ctx context.Context, expense *Expense) (*Expense, error)
	GetByID(ctx context.Context, id int32) (*Expense, error)
	Update(ctx context.Context, expense *Expense) (*Expense, error)
	Delete(ctx context.Context, id int32) error
	ListByDateRange(ctx context.Context, start, end time.Time) ([]*Expense, error)
	ListByCategory(ctx context.Context, category string) ([]*Expense, error)
	ListAll(ctx context.Context) ([]*Expense, error)
	SumByDateRange(ctx context.Context, start, end time.Time) (decimal.Decimal, error)
	SumByCategoryAndDateRange(ctx context.Context, category string, start, end time.Time) (decimal.Decimal, error)
	SumGroupedByCategory(ctx context.Context, start, end time.Time) ([]*CategoryTotal, error)
	Search(ctx context.Context, query string) ([]*Expense, error)
}
