package eventstream

import "context"

// Publisher publishes understanding events to an event stream backend.
type Publisher interface {
	PublishUnderstanding(ctx context.Context, event *UnderstandingEvent) error
	Close() error
}
