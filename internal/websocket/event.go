package websocket

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ledgerly/ledgerly-backend/internal/domain"
)

// EventType represents the type of event (created, updated, deleted)
type EventType string

const (
	EventTypeCreated EventType = "created"
	EventTypeUpdated EventType = "updated"
	EventTypeDeleted EventType = "deleted"
)

// Additional event types for specific events
const (
	EventTypeRolledOver EventType = "rolled_over"
	EventTypeRestored   EventType = "restored"
)

// EntityType represents the type of entity the event is about
type EntityType string

const (
	EntityTypeExpense            EntityType = "expense"
	EntityTypeIncome             EntityType = "income"
	EntityTypeSpendingLimit      EntityType = "spending_limit"
	EntityTypeSavingsProject     EntityType = "savings_project"
	EntityTypeSavingsTransaction EntityType = "savings_transaction"
	EntityTypeBackup             EntityType = "backup"
	EntityTypeNotification       EntityType = "notification"
)

// Event represents a WebSocket event message sent to clients
// Format: { type, entity, payload, timestamp }
type Event struct {
	Type      string      `json:"type"`      // Combined type e.g. "expense.created"
	Entity    EntityType  `json:"entity"`    // Entity type e.g. "expense"
	Payload   interface{} `json:"payload"`   // Full entity data
	Timestamp time.Time   `json:"timestamp"` // Event timestamp
}

// NewEvent creates a new event with the given type, entity, and payload
func NewEvent(eventType EventType, entityType EntityType, payload interface{}) Event {
	return Event{
		Type:      fmt.Sprintf("%s.%s", entityType, eventType),
		Entity:    entityType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON serializes the event to JSON bytes
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// ExpenseCreated creates an expense.created event
func ExpenseCreated(payload interface{}) Event {
	return NewEvent(EventTypeCreated, EntityTypeExpense, payload)
}

// ExpenseUpdated creates an expense.updated event
func ExpenseUpdated(payload interface{}) Event {
	return NewEvent(EventTypeUpdated, EntityTypeExpense, payload)
}

// ExpenseDeleted creates an expense.deleted event
func ExpenseDeleted(payload interface{}) Event {
	return NewEvent(EventTypeDeleted, EntityTypeExpense, payload)
}

// IncomeCreated creates an income.created event
func IncomeCreated(payload interface{}) Event {
	return NewEvent(EventTypeCreated, EntityTypeIncome, payload)
}

// IncomeUpdated creates an income.updated event
func IncomeUpdated(payload interface{}) Event {
	return NewEvent(EventTypeUpdated, EntityTypeIncome, payload)
}

// IncomeDeleted creates an income.deleted event
func IncomeDeleted(payload interface{}) Event {
	return NewEvent(EventTypeDeleted, EntityTypeIncome, payload)
}

// SpendingLimitUpdated creates a spending_limit.updated event
func SpendingLimitUpdated(payload interface{}) Event {
	return NewEvent(EventTypeUpdated, EntityTypeSpendingLimit, payload)
}

// SpendingLimitRolledOver creates a spending_limit.rolled_over event
func SpendingLimitRolledOver(payload interface{}) Event {
	return NewEvent(EventTypeRolledOver, EntityTypeSpendingLimit, payload)
}

// SavingsProjectUpdated creates a savings_project.updated event
func SavingsProjectUpdated(payload interface{}) Event {
	return NewEvent(EventTypeUpdated, EntityTypeSavingsProject, payload)
}

// SavingsProjectDeleted creates a savings_project.deleted event
func SavingsProjectDeleted(payload interface{}) Event {
	return NewEvent(EventTypeDeleted, EntityTypeSavingsProject, payload)
}

// SavingsTransactionCreated creates a savings_transaction.created event
func SavingsTransactionCreated(payload interface{}) Event {
	return NewEvent(EventTypeCreated, EntityTypeSavingsTransaction, payload)
}

// SavingsTransactionDeleted creates a savings_transaction.deleted event
func SavingsTransactionDeleted(payload interface{}) Event {
	return NewEvent(EventTypeDeleted, EntityTypeSavingsTransaction, payload)
}

// BackupRestored creates a backup.restored event
func BackupRestored(payload interface{}) Event {
	return NewEvent(EventTypeRestored, EntityTypeBackup, payload)
}

// NotificationEvent wraps a notification; the event type is the notification
// kind, e.g. "notification.limit_exceeded".
func NotificationEvent(n domain.Notification) Event {
	return NewEvent(EventType(n.Kind), EntityTypeNotification, n)
}
