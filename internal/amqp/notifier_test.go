package amqp

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/ledgerly/ledgerly-backend/internal/domain"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	mu       sync.Mutex
	messages []*NotificationMessage
	err      error
}

func (p *fakePublisher) PublishNotification(ctx context.Context, msg *NotificationMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.messages = append(p.messages, msg)
	return nil
}

func TestNotifier_ShowLimitAlert(t *testing.T) {
	publisher := &fakePublisher{}
	notifier := NewNotifier(publisher, zerolog.Nop())

	notifier.ShowLimitAlert(context.Background(), &domain.SpendingLimit{
		ID:            7,
		Category:      "Food",
		Amount:        decimal.NewFromInt(500),
		CurrentAmount: decimal.NewFromInt(550),
	})

	require.Len(t, publisher.messages, 1)
	msg := publisher.messages[0]
	assert.Equal(t, domain.NotificationLimitExceeded, msg.Kind)
	assert.Equal(t, int32(7), msg.EntityID)
	assert.Equal(t, "Food: spent 550.00 of 500.00", msg.Message)
	require.NotNil(t, msg.Amount)
	assert.True(t, msg.Amount.Equal(decimal.NewFromInt(550)))
}

func TestNotifier_Reminders(t *testing.T) {
	publisher := &fakePublisher{}
	notifier := NewNotifier(publisher, zerolog.Nop())
	ctx := context.Background()

	notifier.ShowSavingsReminder(ctx, 3, 1)
	notifier.ShowIncomeReminder(ctx, 9, "Salary", "Salary of 3000.00 expected today", decimal.NewFromInt(3000))

	require.Len(t, publisher.messages, 2)
	assert.Equal(t, domain.NotificationSavingsReminder, publisher.messages[0].Kind)
	assert.Equal(t, "Savings contribution due tomorrow", publisher.messages[0].Message)
	require.NotNil(t, publisher.messages[0].DaysUntil)
	assert.Equal(t, 1, *publisher.messages[0].DaysUntil)

	assert.Equal(t, domain.NotificationIncomeReminder, publisher.messages[1].Kind)
	assert.Equal(t, "Salary", publisher.messages[1].Title)
}

func TestNotifier_PublishFailureIsSwallowed(t *testing.T) {
	publisher := &fakePublisher{err: errors.New("channel closed")}
	notifier := NewNotifier(publisher, zerolog.Nop())

	assert.NotPanics(t, func() {
		notifier.ShowSavingsReminder(context.Background(), 1, 0)
	})
	assert.Empty(t, publisher.messages)
}

func TestNotificationMessage_JSON(t *testing.T) {
	days := 2
	msg := NewNotificationMessage(domain.Notification{
		Kind:      domain.NotificationSavingsReminder,
		EntityID:  4,
		Title:     "Savings reminder",
		Message:   "Savings contribution due in 2 days",
		DaysUntil: &days,
	})

	body, err := msg.ToJSON()
	require.NoError(t, err)
	assert.Contains(t, string(body), `"kind":"savings_reminder"`)
	assert.Contains(t, string(body), `"entityId":4`)

	decoded, err := NotificationMessageFromJSON(body)
	require.NoError(t, err)
	assert.Equal(t, msg.Kind, decoded.Kind)
	assert.Equal(t, msg.Message, decoded.Message)
	require.NotNil(t, decoded.DaysUntil)
	assert.Equal(t, 2, *decoded.DaysUntil)

	_, err = NotificationMessageFromJSON([]byte("{"))
	assert.Error(t, err)
}
