// Package inmemory provides the reference storage driver, backed by maps.
package inmemory

import (
	"context"
	"encoding/json"
	"errors"
	"maps"
	"sort"
	"sync"

	"github.com/papercomputeco/parley/pkg/storage"
)

// Driver implements storage.Driver using in-memory maps.
type Driver struct {
	// mu is a read write sync mutex guarding users and bot
	mu sync.RWMutex

	// users is keyed by user id
	users map[string]*storage.User

	// bot is the global scope
	bot map[string]json.RawMessage
}

// NewDriver creates a new in-memory driver.
func NewDriver() *Driver {
	return &Driver{
		users: make(map[string]*storage.User),
		bot:   make(map[string]json.RawMessage),
	}
}

// Init is a no-op.
func (d *Driver) Init(_ context.Context) error {
	return nil
}

// Clean drops every record.
func (d *Driver) Clean(_ context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.users = make(map[string]*storage.User)
	d.bot = make(map[string]json.RawMessage)
	return nil
}

// HasUser checks if a user exists.
func (d *Driver) HasUser(_ context.Context, userID string) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	_, ok := d.users[userID]
	return ok, nil
}

// AddUser stores user unless it already exists.
func (d *Driver) AddUser(_ context.Context, user *storage.User) (bool, error) {
	if user == nil {
		return false, errors.New("cannot store nil user")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.users[user.UserID]; ok {
		return false, nil
	}

	d.users[user.UserID] = copyUser(user)
	return true, nil
}

// GetUser retrieves a copy of a user.
func (d *Driver) GetUser(_ context.Context, userID string) (*storage.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	user, ok := d.users[userID]
	if !ok {
		return nil, storage.NotFoundError{Kind: "user", ID: userID}
	}

	return copyUser(user), nil
}

// ListUsers returns copies of every user, oldest first.
func (d *Driver) ListUsers(_ context.Context) ([]*storage.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	users := make([]*storage.User, 0, len(d.users))
	for _, user := range d.users {
		users = append(users, copyUser(user))
	}

	sort.Slice(users, func(i, j int) bool {
		if users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].UserID < users[j].UserID
		}
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})

	return users, nil
}

// AddConversation appends a conversation to a user.
func (d *Driver) AddConversation(_ context.Context, userID string, conversation *storage.Conversation) error {
	if conversation == nil {
		return errors.New("cannot store nil conversation")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	user, ok := d.users[userID]
	if !ok {
		return storage.NotFoundError{Kind: "user", ID: userID}
	}

	user.Conversations = append(user.Conversations, copyConversation(conversation))
	return nil
}

// LastConversation returns a copy of the last conversation of a user.
func (d *Driver) LastConversation(_ context.Context, userID string) (*storage.Conversation, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	user, ok := d.users[userID]
	if !ok {
		return nil, storage.NotFoundError{Kind: "user", ID: userID}
	}

	last := user.LastConversation()
	if last == nil {
		return nil, nil
	}
	return copyConversation(last), nil
}

// SetUserValue sets a key in the user scope.
func (d *Driver) SetUserValue(_ context.Context, userID, key string, value json.RawMessage) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	user, ok := d.users[userID]
	if !ok {
		return storage.NotFoundError{Kind: "user", ID: userID}
	}

	if user.Values == nil {
		user.Values = make(map[string]json.RawMessage)
	}
	user.Values[key] = copyRaw(value)
	return nil
}

// SetConversationValue sets a key in the scope of a conversation.
func (d *Driver) SetConversationValue(_ context.Context, userID, conversationID, key string, value json.RawMessage) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	user, ok := d.users[userID]
	if !ok {
		return storage.NotFoundError{Kind: "user", ID: userID}
	}

	for _, c := range user.Conversations {
		if c.ID != conversationID {
			continue
		}
		if c.Values == nil {
			c.Values = make(map[string]json.RawMessage)
		}
		c.Values[key] = copyRaw(value)
		return nil
	}

	return storage.NotFoundError{Kind: "conversation", ID: conversationID}
}

// BotGet returns a value of the global scope.
func (d *Driver) BotGet(_ context.Context, key string) (json.RawMessage, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return copyRaw(d.bot[key]), nil
}

// BotSet sets a value of the global scope.
func (d *Driver) BotSet(_ context.Context, key string, value json.RawMessage) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.bot[key] = copyRaw(value)
	return nil
}

// Close is a no-op.
func (d *Driver) Close() error {
	return nil
}

func copyUser(u *storage.User) *storage.User {
	out := &storage.User{
		UserID:        u.UserID,
		CreatedAt:     u.CreatedAt,
		Values:        copyValues(u.Values),
		Conversations: make([]*storage.Conversation, 0, len(u.Conversations)),
	}
	for _, c := range u.Conversations {
		out.Conversations = append(out.Conversations, copyConversation(c))
	}
	return out
}

func copyConversation(c *storage.Conversation) *storage.Conversation {
	return &storage.Conversation{
		ID:        c.ID,
		CreatedAt: c.CreatedAt,
		Values:    copyValues(c.Values),
	}
}

func copyValues(values map[string]json.RawMessage) map[string]json.RawMessage {
	if values == nil {
		return nil
	}
	out := make(map[string]json.RawMessage, len(values))
	for k, v := range maps.All(values) {
		out[k] = copyRaw(v)
	}
	return out
}

func copyRaw(v json.RawMessage) json.RawMessage {
	if v == nil {
		return nil
	}
	return append(json.RawMessage(nil), v...)
}

var _ storage.Driver = (*Driver)(nil)
