package eventstream

import (
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/parley/pkg/entity"
	"github.com/papercomputeco/parley/pkg/intent"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeUnderstandingComputed is emitted after a sentence is understood.
	EventTypeUnderstandingComputed = "parley.understanding.computed"
)

// UnderstandingEvent is a transport-neutral event payload for one computed
// understanding.
type UnderstandingEvent struct {
	SchemaVersion  int               `json:"schema_version"`
	EventType      string            `json:"event_type"`
	EventID        string            `json:"event_id"`
	EmittedAt      time.Time         `json:"emitted_at"`
	UserID         string            `json:"user_id"`
	ConversationID string            `json:"conversation_id"`
	Sentence       string            `json:"sentence"`
	Intents        []*intent.Intent  `json:"intents"`
	Entities       []entity.Entity   `json:"entities"`
	Meta           UnderstandingMeta `json:"meta"`
}

// UnderstandingMeta captures computation metadata for the event.
type UnderstandingMeta struct {
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
	DurationMs  int64     `json:"duration_ms"`
	Locale      string    `json:"locale,omitempty"`
}

// NewUnderstandingEvent fills the envelope fields of an event.
func NewUnderstandingEvent(userID, conversationID, sentence string, intents []*intent.Intent, entities []entity.Entity, meta UnderstandingMeta) *UnderstandingEvent {
	return &UnderstandingEvent{
		SchemaVersion:  SchemaVersionV1,
		EventType:      EventTypeUnderstandingComputed,
		EventID:        "evt_" + uuid.NewString(),
		EmittedAt:      time.Now().UTC(),
		UserID:         userID,
		ConversationID: conversationID,
		Sentence:       sentence,
		Intents:        intents,
		Entities:       entities,
		Meta:           meta,
	}
}
