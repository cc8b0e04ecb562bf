package utilities

import (
	"bytes"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventBusDeliversToEverySubscriber(t *testing.T) {
	bus := NewEventBus()
	var got atomic.Int32
	for i := 0; i < 3; i++ {
		bus.Subscribe(EventSessionCompleted, func(data interface{}) {
			got.Add(int32(data.(int)))
		})
	}
	bus.Subscribe("other", func(interface{}) { got.Add(100) })

	bus.Publish(EventSessionCompleted, 2)
	bus.Wait()

	assert.Equal(t, int32(6), got.Load())
}

func TestEventBusContainsPanics(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)

	bus := NewEventBus()
	var ran atomic.Bool
	bus.Subscribe("boom", func(interface{}) { panic("handler failed") })
	bus.Subscribe("boom", func(interface{}) { ran.Store(true) })

	assert.NotPanics(t, func() {
		bus.Publish("boom", nil)
		bus.Wait()
	})
	assert.True(t, ran.Load())
	assert.Contains(t, buf.String(), "handler failed")
}

func TestPublishWithoutSubscribers(t *testing.T) {
	bus := NewEventBus()
	bus.Publish("nobody", nil)
	bus.Wait()
}
