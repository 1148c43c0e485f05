// Package sqldriver implements storage.Driver on top of database/sql. The
// sqlite and postgres drivers embed it with their own Dialect.
package sqldriver

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/papercomputeco/parley/pkg/storage"
)

// Driver provides storage operations over a *sql.DB.
type Driver struct {
	DB      *sql.DB
	Dialect Dialect
}

// New wraps db.
func New(db *sql.DB, dialect Dialect) *Driver {
	return &Driver{DB: db, Dialect: dialect}
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Init creates the schema.
func (d *Driver) Init(ctx context.Context) error {
	for _, stmt := range d.Dialect.Schema {
		if _, err := d.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}
	return nil
}

// Clean deletes every row.
func (d *Driver) Clean(ctx context.Context) error {
	return d.inTx(ctx, func(tx *sql.Tx) error {
		for _, table := range []string{"conversation_values", "user_values", "conversations", "users", "bot_values"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("cleaning %s: %w", table, err)
			}
		}
		return nil
	})
}

// HasUser checks if a user exists.
func (d *Driver) HasUser(ctx context.Context, userID string) (bool, error) {
	return d.hasUser(ctx, d.DB, userID)
}

// AddUser inserts user and its conversations in one transaction. The insert
// is skipped when the user already exists.
func (d *Driver) AddUser(ctx context.Context, user *storage.User) (bool, error) {
	if user == nil {
		return false, errors.New("cannot store nil user")
	}

	created := false
	err := d.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, d.Dialect.Rebind(
			`INSERT INTO users (user_id, created_at) VALUES (?, ?) ON CONFLICT (user_id) DO NOTHING`),
			user.UserID, user.CreatedAt.UnixNano())
		if err != nil {
			return fmt.Errorf("inserting user: %w", err)
		}

		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("inserting user: %w", err)
		}
		if n == 0 {
			return nil
		}
		created = true

		for key, value := range user.Values {
			if err := d.upsertUserValue(ctx, tx, user.UserID, key, value); err != nil {
				return err
			}
		}
		for _, c := range user.Conversations {
			if err := d.insertConversation(ctx, tx, user.UserID, c); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	return created, nil
}

// GetUser retrieves a user with its conversations and values.
func (d *Driver) GetUser(ctx context.Context, userID string) (*storage.User, error) {
	var createdAt int64
	err := d.DB.QueryRowContext(ctx, d.Dialect.Rebind(
		`SELECT created_at FROM users WHERE user_id = ?`), userID).Scan(&createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.NotFoundError{Kind: "user", ID: userID}
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}

	user := &storage.User{
		UserID:    userID,
		CreatedAt: fromUnixNano(createdAt),
	}

	user.Values, err = d.values(ctx, `SELECT key, value FROM user_values WHERE user_id = ?`, userID)
	if err != nil {
		return nil, err
	}

	user.Conversations, err = d.conversations(ctx, userID)
	if err != nil {
		return nil, err
	}

	return user, nil
}

// ListUsers returns every user, oldest first.
func (d *Driver) ListUsers(ctx context.Context) ([]*storage.User, error) {
	rows, err := d.DB.QueryContext(ctx, `SELECT user_id FROM users ORDER BY created_at, user_id`)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("listing users: %w", err)
	}
	rows.Close()

	users := make([]*storage.User, 0, len(ids))
	for _, id := range ids {
		user, err := d.GetUser(ctx, id)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	return users, nil
}

// AddConversation appends a conversation to a user.
func (d *Driver) AddConversation(ctx context.Context, userID string, conversation *storage.Conversation) error {
	if conversation == nil {
		return errors.New("cannot store nil conversation")
	}

	return d.inTx(ctx, func(tx *sql.Tx) error {
		ok, err := d.hasUser(ctx, tx, userID)
		if err != nil {
			return err
		}
		if !ok {
			return storage.NotFoundError{Kind: "user", ID: userID}
		}
		return d.insertConversation(ctx, tx, userID, conversation)
	})
}

// LastConversation returns the most recent conversation of a user.
func (d *Driver) LastConversation(ctx context.Context, userID string) (*storage.Conversation, error) {
	var (
		id        string
		createdAt int64
	)
	err := d.DB.QueryRowContext(ctx, d.Dialect.Rebind(
		`SELECT id, created_at FROM conversations WHERE user_id = ? ORDER BY seq DESC LIMIT 1`), userID).
		Scan(&id, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		ok, err := d.HasUser(ctx, userID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, storage.NotFoundError{Kind: "user", ID: userID}
		}
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying last conversation: %w", err)
	}

	values, err := d.values(ctx, `SELECT key, value FROM conversation_values WHERE conversation_id = ?`, id)
	if err != nil {
		return nil, err
	}

	return &storage.Conversation{ID: id, CreatedAt: fromUnixNano(createdAt), Values: values}, nil
}

// SetUserValue sets a key in the user scope.
func (d *Driver) SetUserValue(ctx context.Context, userID, key string, value json.RawMessage) error {
	return d.inTx(ctx, func(tx *sql.Tx) error {
		ok, err := d.hasUser(ctx, tx, userID)
		if err != nil {
			return err
		}
		if !ok {
			return storage.NotFoundError{Kind: "user", ID: userID}
		}
		return d.upsertUserValue(ctx, tx, userID, key, value)
	})
}

// SetConversationValue sets a key in the scope of a conversation of userID.
func (d *Driver) SetConversationValue(ctx context.Context, userID, conversationID, key string, value json.RawMessage) error {
	return d.inTx(ctx, func(tx *sql.Tx) error {
		ok, err := d.hasUser(ctx, tx, userID)
		if err != nil {
			return err
		}
		if !ok {
			return storage.NotFoundError{Kind: "user", ID: userID}
		}

		var one int
		err = tx.QueryRowContext(ctx, d.Dialect.Rebind(
			`SELECT 1 FROM conversations WHERE id = ? AND user_id = ?`), conversationID, userID).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return storage.NotFoundError{Kind: "conversation", ID: conversationID}
		}
		if err != nil {
			return fmt.Errorf("querying conversation: %w", err)
		}

		return d.upsertConversationValue(ctx, tx, conversationID, key, value)
	})
}

// BotGet returns a value of the global scope, or nil.
func (d *Driver) BotGet(ctx context.Context, key string) (json.RawMessage, error) {
	var value string
	err := d.DB.QueryRowContext(ctx, d.Dialect.Rebind(`SELECT value FROM bot_values WHERE key = ?`), key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying bot value: %w", err)
	}
	return json.RawMessage(value), nil
}

// BotSet sets a value of the global scope.
func (d *Driver) BotSet(ctx context.Context, key string, value json.RawMessage) error {
	_, err := d.DB.ExecContext(ctx, d.Dialect.Rebind(
		`INSERT INTO bot_values (key, value) VALUES (?, ?)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value`), key, string(value))
	if err != nil {
		return fmt.Errorf("setting bot value: %w", err)
	}
	return nil
}

// Close closes the database.
func (d *Driver) Close() error {
	return d.DB.Close()
}

func (d *Driver) hasUser(ctx context.Context, q querier, userID string) (bool, error) {
	var one int
	err := q.QueryRowContext(ctx, d.Dialect.Rebind(`SELECT 1 FROM users WHERE user_id = ?`), userID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("querying user: %w", err)
	}
	return true, nil
}

func (d *Driver) insertConversation(ctx context.Context, tx *sql.Tx, userID string, c *storage.Conversation) error {
	_, err := tx.ExecContext(ctx, d.Dialect.Rebind(
		`INSERT INTO conversations (id, user_id, created_at) VALUES (?, ?, ?)`),
		c.ID, userID, c.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("inserting conversation: %w", err)
	}

	for key, value := range c.Values {
		if err := d.upsertConversationValue(ctx, tx, c.ID, key, value); err != nil {
			return err
		}
	}
	return nil
}

func (d *Driver) upsertUserValue(ctx context.Context, tx *sql.Tx, userID, key string, value json.RawMessage) error {
	_, err := tx.ExecContext(ctx, d.Dialect.Rebind(
		`INSERT INTO user_values (user_id, key, value) VALUES (?, ?, ?)
		 ON CONFLICT (user_id, key) DO UPDATE SET value = excluded.value`), userID, key, string(value))
	if err != nil {
		return fmt.Errorf("setting user value: %w", err)
	}
	return nil
}

func (d *Driver) upsertConversationValue(ctx context.Context, tx *sql.Tx, conversationID, key string, value json.RawMessage) error {
	_, err := tx.ExecContext(ctx, d.Dialect.Rebind(
		`INSERT INTO conversation_values (conversation_id, key, value) VALUES (?, ?, ?)
		 ON CONFLICT (conversation_id, key) DO UPDATE SET value = excluded.value`), conversationID, key, string(value))
	if err != nil {
		return fmt.Errorf("setting conversation value: %w", err)
	}
	return nil
}

func (d *Driver) conversations(ctx context.Context, userID string) ([]*storage.Conversation, error) {
	rows, err := d.DB.QueryContext(ctx, d.Dialect.Rebind(
		`SELECT id, created_at FROM conversations WHERE user_id = ? ORDER BY seq`), userID)
	if err != nil {
		return nil, fmt.Errorf("querying conversations: %w", err)
	}

	conversations := []*storage.Conversation{}
	for rows.Next() {
		var (
			c         storage.Conversation
			createdAt int64
		)
		if err := rows.Scan(&c.ID, &createdAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning conversation: %w", err)
		}
		c.CreatedAt = fromUnixNano(createdAt)
		conversations = append(conversations, &c)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("querying conversations: %w", err)
	}
	rows.Close()

	for _, c := range conversations {
		c.Values, err = d.values(ctx, `SELECT key, value FROM conversation_values WHERE conversation_id = ?`, c.ID)
		if err != nil {
			return nil, err
		}
	}

	return conversations, nil
}

// values reads a key/value table into a map. Returns nil when empty.
func (d *Driver) values(ctx context.Context, query, id string) (map[string]json.RawMessage, error) {
	rows, err := d.DB.QueryContext(ctx, d.Dialect.Rebind(query), id)
	if err != nil {
		return nil, fmt.Errorf("querying values: %w", err)
	}
	defer rows.Close()

	var values map[string]json.RawMessage
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scanning value: %w", err)
		}
		if values == nil {
			values = make(map[string]json.RawMessage)
		}
		values[key] = json.RawMessage(value)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("querying values: %w", err)
	}

	return values, nil
}

func (d *Driver) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := d.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func fromUnixNano(n int64) time.Time {
	return time.Unix(0, n).UTC()
}

var _ storage.Driver = (*Driver)(nil)
