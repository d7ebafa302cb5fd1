package domain

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// NotificationKind identifies what a notification is about
type NotificationKind string

const (
	NotificationLimitExceeded   NotificationKind = "limit_exceeded"
	NotificationSavingsReminder NotificationKind = "savings_reminder"
	NotificationIncomeReminder  NotificationKind = "income_reminder"
)

// Notification is the transport-neutral message handed to a Notifier's sink
type Notification struct {
	Kind      NotificationKind `json:"kind"`
	EntityID  int32            `json:"entityId"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Amount    *decimal.Decimal `json:"amount,omitempty"`
	DaysUntil *int             `json:"daysUntil,omitempty"`
	CreatedAt time.Time        `json:"createdAt"`
}

// Notifier delivers user-facing alerts. Calls are fire-and-forget: delivery
// failures are logged by the implementation and never returned.
type Notifier interface {
	ShowLimitAlert(ctx context.Context, limit *SpendingLimit)
	ShowSavingsReminder(ctx context.Context, projectID int32, daysUntil int)
	ShowIncomeReminder(ctx context.Context, incomeID int32, description, message string, amount decimal.Decimal)
}

// LimitExceededNotification builds the alert for a limit that reached its amount
func LimitExceededNotification(limit *SpendingLimit) Notification {
	current := limit.CurrentAmount
	return Notification{
		Kind:      NotificationLimitExceeded,
		EntityID:  limit.ID,
		Title:     "Spending limit exceeded",
		Message:   fmt.Sprintf("%s: spent %s of %s", limit.Category, limit.CurrentAmount.StringFixed(2), limit.Amount.StringFixed(2)),
		Amount:    &current,
		CreatedAt: time.Now().UTC(),
	}
}

// SavingsReminderNotification builds the reminder for an upcoming contribution
func SavingsReminderNotification(projectID int32, daysUntil int) Notification {
	message := fmt.Sprintf("Savings contribution due in %d days", daysUntil)
	switch daysUntil {
	case 0:
		message = "Savings contribution due today"
	case 1:
		message = "Savings contribution due tomorrow"
	}
	return Notification{
		Kind:      NotificationSavingsReminder,
		EntityID:  projectID,
		Title:     "Savings reminder",
		Message:   message,
		DaysUntil: &daysUntil,
		CreatedAt: time.Now().UTC(),
	}
}

// IncomeReminderNotification builds the reminder for an upcoming recurring income
func IncomeReminderNotification(incomeID int32, description, message string, amount decimal.Decimal) Notification {
	return Notification{
		Kind:      NotificationIncomeReminder,
		EntityID:  incomeID,
		Title:     description,
		Message:   message,
		Amount:    &amount,
		CreatedAt: time.Now().UTC(),
	}
}
