package testutils

import (
	"context"
	"sync"

	"github.com/papercomputeco/parley/pkg/eventstream"
)

// MockPublisher records published events.
type MockPublisher struct {
	mu     sync.Mutex
	events []*eventstream.UnderstandingEvent
}

// NewMockPublisher creates an empty mock publisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) PublishUnderstanding(_ context.Context, event *eventstream.UnderstandingEvent) error {
	if event == nil {
		return eventstream.ErrNilEvent
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

// Events returns a copy of the published events.
func (m *MockPublisher) Events() []*eventstream.UnderstandingEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*eventstream.UnderstandingEvent(nil), m.events...)
}

func (m *MockPublisher) Close() error {
	return nil
}
