package mqtt

import (
	"context"
	"fmt"
	"sync"

	"github.com/kilianp07/queuecast/core/events"
	"github.com/kilianp07/queuecast/infra/logger"
	"github.com/kilianp07/queuecast/internal/eventbus"
)

// Publisher forwards prediction events to a broker.
type Publisher interface {
	Publish(ev events.Event) (string, error)
	Disconnect()
}

// Forward publishes every event from the bus until ctx is done or the bus
// closes. Publish failures are logged and do not stop the loop.
func Forward(ctx context.Context, bus *eventbus.TypedBus[events.Event], pub Publisher, log logger.Logger) {
	if log == nil {
		log = logger.NopLogger{}
	}
	sub := bus.Subscribe()
	defer bus.Unsubscribe(sub)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub:
			if !ok {
				return
			}
			if _, err := pub.Publish(ev); err != nil {
				log.Errorf("publish %s for %s: %v", ev.Kind(), ev.Where(), err)
			}
		}
	}
}

// MockPublisher records published events. It is used in tests.
type MockPublisher struct {
	mu           sync.Mutex
	Events       []events.Event
	FailKinds    map[events.Kind]bool
	Disconnected bool
}

// NewMockPublisher creates a new MockPublisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{FailKinds: make(map[events.Kind]bool)}
}

// Publish records the event or fails when its kind is configured to fail.
func (m *MockPublisher) Publish(ev events.Event) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailKinds[ev.Kind()] {
		return "", fmt.Errorf("publish failed")
	}
	m.Events = append(m.Events, ev)
	return fmt.Sprintf("msg-%d", len(m.Events)), nil
}

// Published returns a copy of the recorded events.
func (m *MockPublisher) Published() []events.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]events.Event(nil), m.Events...)
}

func (m *MockPublisher) Disconnect() {
	m.mu.Lock()
	m.Disconnected = true
	m.mu.Unlock()
}
