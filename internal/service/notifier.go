package service

import (
	"context"

	"github.com/ledgerly/ledgerly-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// ExpenseObserver is told about every committed expense mutation. Errors are
// logged by the caller and never undo the write.
type ExpenseObserver interface {
	OnExpenseAdded(ctx context.Context, expense *domain.Expense) error
	OnExpenseRemoved(ctx context.Context, expense *domain.Expense) error
	OnExpenseUpdated(ctx context.Context, old, updated *domain.Expense) error
}

// CategoryLocker serializes expense writes with state derived per category.
// The returned context marks the held locks; observers called with it do
// not lock the same categories again.
type CategoryLocker interface {
	LockCategories(ctx context.Context, categories ...string) (context.Context, func())
}

// MultiNotifier fans every notification out to several notifiers
type MultiNotifier []domain.Notifier

var _ domain.Notifier = MultiNotifier(nil)

// ShowLimitAlert forwards to every notifier
func (m MultiNotifier) ShowLimitAlert(ctx context.Context, limit *domain.SpendingLimit) {
	for _, n := range m {
		n.ShowLimitAlert(ctx, limit)
	}
}

// ShowSavingsReminder forwards to every notifier
func (m MultiNotifier) ShowSavingsReminder(ctx context.Context, projectID int32, daysUntil int) {
	for _, n := range m {
		n.ShowSavingsReminder(ctx, projectID, daysUntil)
	}
}

// ShowIncomeReminder forwards to every notifier
func (m MultiNotifier) ShowIncomeReminder(ctx context.Context, incomeID int32, description, message string, amount decimal.Decimal) {
	for _, n := range m {
		n.ShowIncomeReminder(ctx, incomeID, description, message, amount)
	}
}

// NoOpNotifier drops every notification
type NoOpNotifier struct{}

func (NoOpNotifier) ShowLimitAlert(context.Context, *domain.SpendingLimit) {}

func (NoOpNotifier) ShowSavingsReminder(context.Context, int32, int) {}

func (NoOpNotifier) ShowIncomeReminder(context.Context, int32, string, string, decimal.Decimal) {}
