package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestEventBusDeliversByType(t *testing.T) {
	bus := NewEventBus(zap.NewNop())
	links := bus.Subscribe(EventTypeLink)
	programs := bus.Subscribe(EventTypeProgram)
	go bus.Start()

	bus.Publish(Event{Type: EventTypeLink, Source: "test", Data: 1})
	bus.Publish(Event{Type: EventTypeLink, Source: "test", Data: 2})
	bus.Publish(Event{Type: EventTypeProgram, Source: "test", Data: "saved"})

	for _, expected := range []int{1, 2} {
		select {
		case event := <-links:
			assert.Equal(t, expected, event.Data)
			assert.False(t, event.Timestamp.IsZero())
		case <-time.After(time.Second):
			t.Fatal("link event not delivered")
		}
	}

	select {
	case event := <-programs:
		assert.Equal(t, "saved", event.Data)
	case <-time.After(time.Second):
		t.Fatal("program event not delivered")
	}

	bus.Stop()
	bus.Stop()

	select {
	case _, ok := <-links:
		assert.False(t, ok, "subscriber channel should be closed after Stop")
	case <-time.After(time.Second):
		t.Fatal("subscriber channel not closed")
	}

	// Publishing after Stop is a no-op
	require.NotPanics(t, func() {
		bus.Publish(Event{Type: EventTypeLink})
	})
}
