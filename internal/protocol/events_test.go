package protocol

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dipcoater-service/internal/model"
)

func TestEventQueuePreservesOrder(t *testing.T) {
	queue := NewEventQueue()

	// Nobody is reading yet; Publish must not block
	for i := 0; i < 500; i++ {
		queue.Publish(model.LinkEvent{Type: model.EventInfo, Message: fmt.Sprintf("line %d", i)})
	}
	queue.Close()

	var received []model.LinkEvent
	for event := range queue.Events() {
		received = append(received, event)
	}

	require.Len(t, received, 500)
	for i, event := range received {
		assert.Equal(t, uint64(i+1), event.Seq)
		assert.Equal(t, fmt.Sprintf("line %d", i), event.Message)
		assert.False(t, event.Timestamp.IsZero())
	}
}

func TestEventQueueDropsAfterClose(t *testing.T) {
	queue := NewEventQueue()
	queue.Publish(model.LinkEvent{Type: model.EventSuccess})
	queue.Close()
	queue.Publish(model.LinkEvent{Type: model.EventError})

	var types []model.EventType
	for event := range queue.Events() {
		types = append(types, event.Type)
	}
	assert.Equal(t, []model.EventType{model.EventSuccess}, types)
}

func TestEventQueueKeepsTimestamp(t *testing.T) {
	queue := NewEventQueue()
	stamp := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	queue.Publish(model.LinkEvent{Type: model.EventDebug, Timestamp: stamp})

	event := <-queue.Events()
	assert.Equal(t, stamp, event.Timestamp)
	queue.Close()
}
