package websocket

import (
	"context"

	"github.com/ledgerly/ledgerly-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// Notifier delivers notifications to connected clients as events
type Notifier struct {
	publisher EventPublisher
}

var _ domain.Notifier = (*Notifier)(nil)

// NewNotifier creates a Notifier publishing through publisher
func NewNotifier(publisher EventPublisher) *Notifier {
	return &Notifier{publisher: publisher}
}

// ShowLimitAlert publishes a notification.limit_exceeded event
func (n *Notifier) ShowLimitAlert(ctx context.Context, limit *domain.SpendingLimit) {
	n.publisher.Publish(NotificationEvent(domain.LimitExceededNotification(limit)))
}

// ShowSavingsReminder publishes a notification.savings_reminder event
func (n *Notifier) ShowSavingsReminder(ctx context.Context, projectID int32, daysUntil int) {
	n.publisher.Publish(NotificationEvent(domain.SavingsReminderNotification(projectID, daysUntil)))
}

// ShowIncomeReminder publishes a notification.income_reminder event
func (n *Notifier) ShowIncomeReminder(ctx context.Context, incomeID int32, description, message string, amount decimal.Decimal) {
	n.publisher.Publish(NotificationEvent(domain.IncomeReminderNotification(incomeID, description, message, amount)))
}
