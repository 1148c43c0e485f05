// Package storage defines the persistence port of the brain: users, their
// conversations and the global bot scope. Adapters live in the inmemory,
// sqlite and postgres sub-packages.
package storage

import (
	"context"
	"encoding/json"
	"time"
)

// User is the stored record of one end user.
type User struct {
	UserID string `json:"userId"`

	// Conversations are ordered oldest first.
	Conversations []*Conversation `json:"conversations"`

	CreatedAt time.Time `json:"createdAt"`

	// Values is the user scope key/value store.
	Values map[string]json.RawMessage `json:"values,omitempty"`
}

// Conversation is one time-bounded conversation of a user.
type Conversation struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`

	// Values is the conversation scope key/value store.
	Values map[string]json.RawMessage `json:"values,omitempty"`
}

// LastConversation returns the most recent conversation of u, or nil.
func (u *User) LastConversation() *Conversation {
	if len(u.Conversations) == 0 {
		return nil
	}
	return u.Conversations[len(u.Conversations)-1]
}

// Driver defines the interface for persisting and retrieving brain records.
// Values cross the port as raw JSON so that every adapter stores the same
// representation.
type Driver interface {
	// Init prepares the backend (creates the schema).
	Init(ctx context.Context) error

	// Clean removes every user, conversation and bot value.
	Clean(ctx context.Context) error

	// HasUser checks if a user exists.
	HasUser(ctx context.Context, userID string) (bool, error)

	// AddUser stores user and its conversations if no user with the same id
	// exists. Returns true if the user was newly inserted. The check and the
	// insert are atomic.
	AddUser(ctx context.Context, user *User) (bool, error)

	// GetUser retrieves a user with its conversations. Returns NotFoundError
	// if the user doesn't exist.
	GetUser(ctx context.Context, userID string) (*User, error)

	// ListUsers returns every user.
	ListUsers(ctx context.Context) ([]*User, error)

	// AddConversation appends a conversation to a user.
	AddConversation(ctx context.Context, userID string, conversation *Conversation) error

	// LastConversation returns the most recent conversation of a user, or
	// nil when the user has none.
	LastConversation(ctx context.Context, userID string) (*Conversation, error)

	// SetUserValue sets a key in the user scope.
	SetUserValue(ctx context.Context, userID, key string, value json.RawMessage) error

	// SetConversationValue sets a key in the scope of the given conversation.
	SetConversationValue(ctx context.Context, userID, conversationID, key string, value json.RawMessage) error

	// BotGet returns a value of the global scope, or nil when absent.
	BotGet(ctx context.Context, key string) (json.RawMessage, error)

	// BotSet sets a value of the global scope.
	BotSet(ctx context.Context, key string, value json.RawMessage) error

	// Close closes the store and releases any resources.
	Close() error
}
