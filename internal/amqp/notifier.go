package amqp

import (
	"context"

	"github.com/ledgerly/ledgerly-backend/internal/domain"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// NotificationPublisher publishes notification messages to a broker
type NotificationPublisher interface {
	PublishNotification(ctx context.Context, msg *NotificationMessage) error
}

var _ NotificationPublisher = (*Client)(nil)

// Notifier forwards notifications to the broker. Publish failures are
// logged and dropped.
type Notifier struct {
	publisher NotificationPublisher
	logger    zerolog.Logger
}

var _ domain.Notifier = (*Notifier)(nil)

// NewNotifier creates a Notifier publishing through publisher
func NewNotifier(publisher NotificationPublisher, logger zerolog.Logger) *Notifier {
	return &Notifier{
		publisher: publisher,
		logger:    logger.With().Str("component", "amqp_notifier").Logger(),
	}
}

func (n *Notifier) publish(ctx context.Context, notification domain.Notification) {
	if err := n.publisher.PublishNotification(ctx, NewNotificationMessage(notification)); err != nil {
		n.logger.Error().
			Err(err).
			Str("kind", string(notification.Kind)).
			Int32("entity_id", notification.EntityID).
			Msg("Failed to publish notification")
	}
}

// ShowLimitAlert publishes a limit_exceeded message
func (n *Notifier) ShowLimitAlert(ctx context.Context, limit *domain.SpendingLimit) {
	n.publish(ctx, domain.LimitExceededNotification(limit))
}

// ShowSavingsReminder publishes a savings_reminder message
func (n *Notifier) ShowSavingsReminder(ctx context.Context, projectID int32, daysUntil int) {
	n.publish(ctx, domain.SavingsReminderNotification(projectID, daysUntil))
}

// ShowIncomeReminder publishes an income_reminder message
func (n *Notifier) ShowIncomeReminder(ctx context.Context, incomeID int32, description, message string, amount decimal.Decimal) {
	n.publish(ctx, domain.IncomeReminderNotification(incomeID, description, message, amount))
}
