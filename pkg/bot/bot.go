// Package bot runs one understanding turn: it makes sure the user and its
// conversation exist, computes the understanding, keeps it in the
// conversation and publishes an event about it.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/papercomputeco/parley/pkg/brain"
	"github.com/papercomputeco/parley/pkg/eventstream"
	"github.com/papercomputeco/parley/pkg/logger"
	"github.com/papercomputeco/parley/pkg/metrics"
	"github.com/papercomputeco/parley/pkg/nlu"
	"github.com/papercomputeco/parley/pkg/worker"
)

// LastUnderstandingKey is the conversation key holding the latest result.
const LastUnderstandingKey = "_lastUnderstanding"

// Understander computes the understanding of a sentence.
type Understander interface {
	Compute(ctx context.Context, sentence string, nctx *nlu.Context) (*nlu.Result, error)
}

// UserMessage is one incoming utterance.
type UserMessage struct {
	UserID   string `json:"user" validate:"required"`
	Sentence string `json:"sentence"`
}

// Response is the outcome of one turn.
type Response struct {
	UserID         string      `json:"user"`
	ConversationID string      `json:"conversation"`
	Sentence       string      `json:"sentence"`
	Result         *nlu.Result `json:"result"`
}

// Config holds the bot collaborators.
type Config struct {
	Brain *brain.Brain
	Nlu   Understander

	// Events is optional. When nil no event is published.
	Events *worker.Pool

	// Metrics is optional.
	Metrics *metrics.Collector

	Locale string
	Logger *slog.Logger
}

// Bot runs understanding turns.
type Bot struct {
	brain   *brain.Brain
	nlu     Understander
	events  *worker.Pool
	metrics *metrics.Collector
	locale  string
	logger  *slog.Logger
}

// New creates a bot.
func New(c Config) (*Bot, error) {
	if c.Brain == nil {
		return nil, errors.New("bot requires a brain")
	}
	if c.Nlu == nil {
		return nil, errors.New("bot requires an nlu")
	}

	return &Bot{
		brain:   c.Brain,
		nlu:     c.Nlu,
		events:  c.Events,
		metrics: c.Metrics,
		locale:  c.Locale,
		logger:  logger.OrNop(c.Logger),
	}, nil
}

// Respond runs one turn for msg. Any error aborts the turn: nothing is
// stored and no event is published.
func (b *Bot) Respond(ctx context.Context, msg UserMessage) (*Response, error) {
	if msg.UserID == "" {
		return nil, errors.New("user id is required")
	}

	start := time.Now()

	if _, err := b.brain.InitUserIfNecessary(ctx, msg.UserID); err != nil {
		b.metrics.RecordUnderstanding(metrics.OutcomeError, time.Since(start))
		return nil, fmt.Errorf("initializing user %s: %w", msg.UserID, err)
	}

	result, err := b.nlu.Compute(ctx, msg.Sentence, &nlu.Context{UserID: msg.UserID, Brain: b.brain})
	if err != nil {
		b.metrics.RecordUnderstanding(metrics.OutcomeError, time.Since(start))
		b.logger.Error("understanding failed", "user_id", msg.UserID, "error", err)
		return nil, err
	}

	// The turn belongs to the conversation holding its result, which is a
	// new one if the previous expired while computing.
	conversation, err := b.brain.ConversationStore(ctx, msg.UserID, LastUnderstandingKey, result)
	if err != nil {
		b.metrics.RecordUnderstanding(metrics.OutcomeError, time.Since(start))
		return nil, fmt.Errorf("storing understanding: %w", err)
	}

	completed := time.Now()
	b.metrics.RecordUnderstanding(Outcome(result), completed.Sub(start))
	b.logger.Debug("understanding computed",
		"user_id", msg.UserID,
		"conversation_id", conversation.ID,
		"outcome", Outcome(result),
	)

	if b.events != nil {
		b.events.Enqueue(worker.Job{Event: eventstream.NewUnderstandingEvent(
			msg.UserID, conversation.ID, msg.Sentence, result.Intents, result.Entities,
			eventstream.UnderstandingMeta{
				StartedAt:   start,
				CompletedAt: completed,
				DurationMs:  completed.Sub(start).Milliseconds(),
				Locale:      b.locale,
			},
		)})
	}

	return &Response{
		UserID:         msg.UserID,
		ConversationID: conversation.ID,
		Sentence:       msg.Sentence,
		Result:         result,
	}, nil
}

// Play replays a scripted conversation for userID and returns every
// response in order. It stops at the first error.
func (b *Bot) Play(ctx context.Context, userID string, sentences []string) ([]*Response, error) {
	responses := make([]*Response, 0, len(sentences))
	for i, sentence := range sentences {
		resp, err := b.Respond(ctx, UserMessage{UserID: userID, Sentence: sentence})
		if err != nil {
			return responses, fmt.Errorf("turn %d: %w", i+1, err)
		}
		responses = append(responses, resp)
	}
	return responses, nil
}

// LastUnderstanding returns the result stored by the latest turn of the
// current conversation, or nil.
func (b *Bot) LastUnderstanding(ctx context.Context, userID string) (*nlu.Result, error) {
	var result nlu.Result
	found, err := b.brain.ConversationGet(ctx, userID, LastUnderstandingKey, &result)
	if err != nil || !found {
		return nil, err
	}
	return &result, nil
}

// Outcome classifies a result for metrics.
func Outcome(r *nlu.Result) string {
	switch {
	case r == nil || len(r.Intents) == 0:
		return metrics.OutcomeNone
	case r.Intents[0].IsQnA():
		return metrics.OutcomeQnA
	default:
		return metrics.OutcomeIntent
	}
}
