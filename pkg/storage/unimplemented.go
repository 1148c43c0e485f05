package storage

import (
	"context"
	"encoding/json"
)

// UnimplementedDriver can be embedded in partial drivers. Every method
// returns a MissingImplementationError.
type UnimplementedDriver struct{}

func (UnimplementedDriver) Init(context.Context) error {
	return &MissingImplementationError{Op: "Init"}
}

func (UnimplementedDriver) Clean(context.Context) error {
	return &MissingImplementationError{Op: "Clean"}
}

func (UnimplementedDriver) HasUser(context.Context, string) (bool, error) {
	return false, &MissingImplementationError{Op: "HasUser"}
}

func (UnimplementedDriver) AddUser(context.Context, *User) (bool, error) {
	return false, &MissingImplementationError{Op: "AddUser"}
}

func (UnimplementedDriver) GetUser(context.Context, string) (*User, error) {
	return nil, &MissingImplementationError{Op: "GetUser"}
}

func (UnimplementedDriver) ListUsers(context.Context) ([]*User, error) {
	return nil, &MissingImplementationError{Op: "ListUsers"}
}

func (UnimplementedDriver) AddConversation(context.Context, string, *Conversation) error {
	return &MissingImplementationError{Op: "AddConversation"}
}

func (UnimplementedDriver) LastConversation(context.Context, string) (*Conversation, error) {
	return nil, &MissingImplementationError{Op: "LastConversation"}
}

func (UnimplementedDriver) SetUserValue(context.Context, string, string, json.RawMessage) error {
	return &MissingImplementationError{Op: "SetUserValue"}
}

func (UnimplementedDriver) SetConversationValue(context.Context, string, string, string, json.RawMessage) error {
	return &MissingImplementationError{Op: "SetConversationValue"}
}

func (UnimplementedDriver) BotGet(context.Context, string) (json.RawMessage, error) {
	return nil, &MissingImplementationError{Op: "BotGet"}
}

func (UnimplementedDriver) BotSet(context.Context, string, json.RawMessage) error {
	return &MissingImplementationError{Op: "BotSet"}
}

func (UnimplementedDriver) Close() error {
	return nil
}

var _ Driver = UnimplementedDriver{}
