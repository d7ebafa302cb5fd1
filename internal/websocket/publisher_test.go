package websocket

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHub_Implements_EventPublisher(t *testing.T) {
	// Compile-time check that Hub implements EventPublisher
	var _ EventPublisher = (*Hub)(nil)
}

func TestHub_Publish(t *testing.T) {
	hub := NewHub()

	client := newMockClient("client-1")
	hub.Register(client)

	// Publish event via EventPublisher interface
	var publisher EventPublisher = hub
	publisher.Publish(IncomeCreated(map[string]interface{}{"id": float64(42)}))

	// Allow async broadcast to complete
	time.Sleep(10 * time.Millisecond)

	assert.Len(t, client.GetMessages(), 1)
}

func TestNoOpPublisher_Publish(t *testing.T) {
	publisher := &NoOpPublisher{}

	// Should not panic
	assert.NotPanics(t, func() {
		publisher.Publish(ExpenseCreated(map[string]interface{}{"id": float64(1)}))
	})
}

func TestNoOpPublisher_Implements_EventPublisher(t *testing.T) {
	var _ EventPublisher = (*NoOpPublisher)(nil)
}
