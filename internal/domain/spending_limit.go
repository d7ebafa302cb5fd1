package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// SpendingLimit caps spending in one category over a recurring period.
// CurrentAmount is derived: the sum of the category's expenses dated inside
// [StartDate, PeriodEnd()). Exactly one row per category is active; older
// periods are kept inactive as history.
type SpendingLimit struct {
	ID            int32           `json:"id"`
	Category      string          `json:"category"`
	Amount        decimal.Decimal `json:"amount"`
	CurrentAmount decimal.Decimal `json:"currentAmount"`
	StartDate     time.Time       `json:"startDate"`
	Frequency     Frequency       `json:"frequency"`
	PeriodDays    *int32          `json:"periodDays,omitempty"`
	AutoReset     bool            `json:"autoReset"`
	IsActive      bool            `json:"isActive"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

func (l *SpendingLimit) periodDays() int32 {
	if l.PeriodDays == nil {
		return 0
	}
	return *l.PeriodDays
}

// PeriodEnd is the exclusive end of the current period
func (l *SpendingLimit) PeriodEnd() time.Time {
	return l.Frequency.Advance(l.StartDate, 1, l.periodDays())
}

// Contains reports whether t falls inside the current period
func (l *SpendingLimit) Contains(t time.Time) bool {
	return !t.Before(l.StartDate) && t.Before(l.PeriodEnd())
}

// IsExpired reports whether the current period has ended at now
func (l *SpendingLimit) IsExpired(now time.Time) bool {
	return !now.Before(l.PeriodEnd())
}

// NextPeriod returns the window of the period containing now, counted from
// this limit's start date.
func (l *SpendingLimit) NextPeriod(now time.Time) (time.Time, time.Time) {
	return l.Frequency.PeriodContaining(l.StartDate, now, l.periodDays())
}

// IsExceeded reports whether spending reached the limit amount
func (l *SpendingLimit) IsExceeded() bool {
	return l.CurrentAmount.GreaterThanOrEqual(l.Amount)
}

// Remaining is the amount left before the limit is reached; negative once exceeded
func (l *SpendingLimit) Remaining() decimal.Decimal {
	return l.Amount.Sub(l.CurrentAmount)
}

// UsageRatio is CurrentAmount / Amount. A zero limit counts as fully used.
func (l *SpendingLimit) UsageRatio() decimal.Decimal {
	if !l.Amount.IsPositive() {
		return decimal.NewFromInt(1)
	}
	return l.CurrentAmount.Div(l.Amount)
}

// Validate checks the user-settable fields
func (l *SpendingLimit) Validate() error {
	if l.Amount.IsNegative() {
		return ErrNegativeAmount
	}
	if l.StartDate.IsZero() {
		return ErrDateRequired
	}
	return ValidateSchedule(l.Frequency, l.PeriodDays)
}

// SpendingLimitRepository stores spending limits and their history
type SpendingLimitRepository interface {
	Create(ctx context.Context, limit *SpendingLimit) (*SpendingLimit, error)
	GetByID(ctx context.Context, id int32) (*SpendingLimit, error)
	GetActiveByCategory(ctx context.Context, category string) (*SpendingLimit, error)
	ListActive(ctx context.Context) ([]*SpendingLimit, error)
	ListByCategory(ctx context.Context, category string) ([]*SpendingLimit, error)
	Update(ctx context.Context, limit *SpendingLimit) (*SpendingLimit, error)
	Delete(ctx context.Context, id int32) error
	// AddToCurrentAmount atomically adds delta, clamping the result at zero
	AddToCurrentAmount(ctx context.Context, id int32, delta decimal.Decimal) (*SpendingLimit, error)
	SetCurrentAmount(ctx context.Context, id int32, amount decimal.Decimal) (*SpendingLimit, error)
	// Rollover deactivates the old row and inserts next as the active row in one transaction
	Rollover(ctx context.Context, oldID int32, next *SpendingLimit) (*SpendingLimit, error)
}
