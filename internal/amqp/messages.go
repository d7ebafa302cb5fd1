package amqp

import (
	"encoding/json"

	"github.com/ledgerly/ledgerly-backend/internal/domain"
)

// NotificationMessage is the body published for every notification.
// Consumers (mail or push gateways) dispatch on Kind.
type NotificationMessage struct {
	domain.Notification
}

// NewNotificationMessage wraps a notification for publishing
func NewNotificationMessage(n domain.Notification) *NotificationMessage {
	return &NotificationMessage{Notification: n}
}

// ToJSON converts the message to JSON bytes
func (m *NotificationMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// NotificationMessageFromJSON decodes a message body
func NotificationMessageFromJSON(data []byte) (*NotificationMessage, error) {
	var msg NotificationMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
