// Package brain stores user and conversation state for the bot. It owns the
// conversation validity policy: a conversation expires once it is older than
// the configured duration and a new one is opened on the next access.
//
// Persistence is delegated to a storage.Driver.
package brain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/parley/pkg/logger"
	"github.com/papercomputeco/parley/pkg/metrics"
	"github.com/papercomputeco/parley/pkg/storage"
)

// DefaultConversationDuration is used when Config.ConversationDuration is
// zero.
const DefaultConversationDuration = 24 * time.Hour

// ErrUserExists is returned by AddUser when the user is already stored.
var ErrUserExists = errors.New("user already exists")

// Config holds the brain settings.
type Config struct {
	ConversationDuration time.Duration
}

// Option configures a Brain.
type Option func(*Brain)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(b *Brain) {
		b.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(b *Brain) {
		b.logger = logger.OrNop(l)
	}
}

// WithMetrics records user creation on c.
func WithMetrics(c *metrics.Collector) Option {
	return func(b *Brain) {
		b.metrics = c
	}
}

// Brain applies the conversation policy on top of a storage driver.
type Brain struct {
	driver   storage.Driver
	duration time.Duration
	now      func() time.Time
	logger   *slog.Logger
	metrics  *metrics.Collector
	users    *keyedMutex
}

// New creates a brain over driver.
func New(driver storage.Driver, cfg Config, opts ...Option) *Brain {
	b := &Brain{
		driver:   driver,
		duration: cfg.ConversationDuration,
		now:      time.Now,
		logger:   logger.Nop(),
		users:    newKeyedMutex(),
	}
	if b.duration <= 0 {
		b.duration = DefaultConversationDuration
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// ConversationDuration returns the validity window of a conversation.
func (b *Brain) ConversationDuration() time.Duration {
	return b.duration
}

// Init initializes the storage driver.
func (b *Brain) Init(ctx context.Context) error {
	b.logger.Debug("initializing brain")
	return b.driver.Init(ctx)
}

// Clean empties the brain.
func (b *Brain) Clean(ctx context.Context) error {
	b.logger.Debug("cleaning brain")
	return b.driver.Clean(ctx)
}

// Close closes the storage driver.
func (b *Brain) Close() error {
	return b.driver.Close()
}

// NewUser returns the initial record of a user: one fresh conversation.
func (b *Brain) NewUser(userID string) *storage.User {
	return &storage.User{
		UserID:        userID,
		CreatedAt:     b.now(),
		Conversations: []*storage.Conversation{b.NewConversation()},
	}
}

// NewConversation returns a fresh conversation with empty dialogs and a
// unique id.
func (b *Brain) NewConversation() *storage.Conversation {
	dialogs, _ := json.Marshal(NewDialogsData())
	return &storage.Conversation{
		ID:        uuid.NewString(),
		CreatedAt: b.now(),
		Values:    map[string]json.RawMessage{DialogsKey: dialogs},
	}
}

// IsLastConversationValid reports whether c is still open. A nil
// conversation is invalid, and so is one exactly as old as the duration.
func (b *Brain) IsLastConversationValid(c *storage.Conversation) bool {
	if c == nil {
		return false
	}
	return b.now().Sub(c.CreatedAt) < b.duration
}

// HasUser checks if a user exists.
func (b *Brain) HasUser(ctx context.Context, userID string) (bool, error) {
	return b.driver.HasUser(ctx, userID)
}

// AddUser stores a new user. Returns ErrUserExists if it is already stored.
func (b *Brain) AddUser(ctx context.Context, userID string) (*storage.User, error) {
	user := b.NewUser(userID)
	created, err := b.driver.AddUser(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("adding user %s: %w", userID, err)
	}
	if !created {
		return nil, fmt.Errorf("%w: %s", ErrUserExists, userID)
	}

	b.metrics.RecordUserCreated()
	b.logger.Debug("user added", "user_id", userID)
	return user, nil
}

// GetUser retrieves a user.
func (b *Brain) GetUser(ctx context.Context, userID string) (*storage.User, error) {
	return b.driver.GetUser(ctx, userID)
}

// GetAllUsers returns every user.
func (b *Brain) GetAllUsers(ctx context.Context) ([]*storage.User, error) {
	return b.driver.ListUsers(ctx)
}

// AddUserIfNecessary stores the user unless it exists. Returns true when the
// user was created.
func (b *Brain) AddUserIfNecessary(ctx context.Context, userID string) (bool, error) {
	unlock := b.users.lock(userID)
	defer unlock()

	return b.addUserIfNecessary(ctx, userID)
}

// InitUserIfNecessary makes sure the user exists and has a valid last
// conversation. It runs before every understanding.
func (b *Brain) InitUserIfNecessary(ctx context.Context, userID string) (*storage.Conversation, error) {
	unlock := b.users.lock(userID)
	defer unlock()

	if _, err := b.addUserIfNecessary(ctx, userID); err != nil {
		return nil, err
	}
	return b.initLastConversation(ctx, userID)
}

// AddConversation opens a new conversation for a user.
func (b *Brain) AddConversation(ctx context.Context, userID string) (*storage.Conversation, error) {
	unlock := b.users.lock(userID)
	defer unlock()

	return b.addConversation(ctx, userID)
}

// GetLastConversation returns the last conversation of a user, valid or
// not. Returns nil when the user has none.
func (b *Brain) GetLastConversation(ctx context.Context, userID string) (*storage.Conversation, error) {
	return b.driver.LastConversation(ctx, userID)
}

// InitLastConversationIfNecessary returns the last conversation of a user,
// opening a new one when it is missing or expired.
func (b *Brain) InitLastConversationIfNecessary(ctx context.Context, userID string) (*storage.Conversation, error) {
	unlock := b.users.lock(userID)
	defer unlock()

	return b.initLastConversation(ctx, userID)
}

// UserSet stores value under key in the user scope.
func (b *Brain) UserSet(ctx context.Context, userID, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding user value %s: %w", key, err)
	}
	return b.driver.SetUserValue(ctx, userID, key, raw)
}

// UserGet decodes the user value stored under key into out. Returns false
// when the key is absent.
func (b *Brain) UserGet(ctx context.Context, userID, key string, out any) (bool, error) {
	user, err := b.driver.GetUser(ctx, userID)
	if err != nil {
		return false, err
	}
	return decode(user.Values[key], key, out)
}

// ConversationSet stores value under key in the current conversation of a
// user, opening a new conversation first if the last one expired. Dialog
// state stored under DialogsKey with IsNewConversation set opens a new
// conversation and is stored without the flag.
func (b *Brain) ConversationSet(ctx context.Context, userID, key string, value any) error {
	_, err := b.ConversationStore(ctx, userID, key, value)
	return err
}

// ConversationStore is ConversationSet returning the conversation the value
// was written to.
func (b *Brain) ConversationStore(ctx context.Context, userID, key string, value any) (*storage.Conversation, error) {
	unlock := b.users.lock(userID)
	defer unlock()

	return b.conversationSet(ctx, userID, key, value)
}

// ConversationGet decodes the value stored under key in the current
// conversation of a user into out. Returns false when the key is absent.
func (b *Brain) ConversationGet(ctx context.Context, userID, key string, out any) (bool, error) {
	unlock := b.users.lock(userID)
	defer unlock()

	c, err := b.initLastConversation(ctx, userID)
	if err != nil {
		return false, err
	}
	return decode(c.Values[key], key, out)
}

// GetDialogs returns the dialog state of the current conversation.
func (b *Brain) GetDialogs(ctx context.Context, userID string) (*DialogsData, error) {
	dialogs := NewDialogsData()
	if _, err := b.ConversationGet(ctx, userID, DialogsKey, dialogs); err != nil {
		return nil, err
	}
	return dialogs, nil
}

// SetDialogs stores the dialog state. When dialogs.IsNewConversation is set
// a new conversation is opened first and the flag is cleared.
func (b *Brain) SetDialogs(ctx context.Context, userID string, dialogs *DialogsData) error {
	return b.ConversationSet(ctx, userID, DialogsKey, dialogs)
}

// ResetNamespace replaces the conversation value stored under namespace with
// an empty object.
func (b *Brain) ResetNamespace(ctx context.Context, userID, namespace string) error {
	return b.ConversationSet(ctx, userID, namespace, map[string]any{})
}

// BotSet stores value under key in the global scope.
func (b *Brain) BotSet(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding bot value %s: %w", key, err)
	}
	return b.driver.BotSet(ctx, key, raw)
}

// BotGet decodes the global value stored under key into out. Returns false
// when the key is absent.
func (b *Brain) BotGet(ctx context.Context, key string, out any) (bool, error) {
	raw, err := b.driver.BotGet(ctx, key)
	if err != nil {
		return false, err
	}
	return decode(raw, key, out)
}

func (b *Brain) addUserIfNecessary(ctx context.Context, userID string) (bool, error) {
	created, err := b.driver.AddUser(ctx, b.NewUser(userID))
	if err != nil {
		return false, fmt.Errorf("adding user %s: %w", userID, err)
	}
	if created {
		b.metrics.RecordUserCreated()
		b.logger.Debug("user added", "user_id", userID)
	}
	return created, nil
}

func (b *Brain) addConversation(ctx context.Context, userID string) (*storage.Conversation, error) {
	c := b.NewConversation()
	if err := b.driver.AddConversation(ctx, userID, c); err != nil {
		return nil, fmt.Errorf("adding conversation for %s: %w", userID, err)
	}
	b.logger.Debug("conversation added", "user_id", userID, "conversation_id", c.ID)
	return c, nil
}

func (b *Brain) initLastConversation(ctx context.Context, userID string) (*storage.Conversation, error) {
	last, err := b.driver.LastConversation(ctx, userID)
	if err != nil {
		return nil, err
	}
	if b.IsLastConversationValid(last) {
		return last, nil
	}
	return b.addConversation(ctx, userID)
}

func (b *Brain) conversationSet(ctx context.Context, userID, key string, value any) (*storage.Conversation, error) {
	if key == DialogsKey {
		var fresh bool
		if value, fresh = takeNewConversation(value); fresh {
			if _, err := b.addConversation(ctx, userID); err != nil {
				return nil, err
			}
		}
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encoding conversation value %s: %w", key, err)
	}

	c, err := b.initLastConversation(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := b.driver.SetConversationValue(ctx, userID, c.ID, key, raw); err != nil {
		return nil, err
	}
	return c, nil
}

// takeNewConversation reports whether dialog state asks for a new
// conversation and returns the state without the request, so it is never
// persisted.
func takeNewConversation(value any) (any, bool) {
	switch d := value.(type) {
	case *DialogsData:
		if d == nil || !d.IsNewConversation {
			return value, false
		}
		d.IsNewConversation = false
		return d, true
	case DialogsData:
		fresh := d.IsNewConversation
		d.IsNewConversation = false
		return d, fresh
	case map[string]any:
		fresh, _ := d[newConversationField].(bool)
		delete(d, newConversationField)
		return d, fresh
	default:
		return value, false
	}
}

func decode(raw json.RawMessage, key string, out any) (bool, error) {
	if raw == nil {
		return false, nil
	}
	if out == nil {
		return true, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return true, fmt.Errorf("decoding value %s: %w", key, err)
	}
	return true, nil
}
