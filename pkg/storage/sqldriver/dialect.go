package sqldriver

import (
	"strconv"
	"strings"
)

// Dialect holds what differs between SQL backends.
type Dialect struct {
	Name string

	// Schema is executed statement by statement by Init.
	Schema []string

	// NumberedPlaceholders rewrites "?" into "$1", "$2"... before
	// execution.
	NumberedPlaceholders bool
}

// SQLite is the dialect of mattn/go-sqlite3.
var SQLite = Dialect{
	Name: "sqlite",
	Schema: []string{
		`CREATE TABLE IF NOT EXISTS users (
			user_id    TEXT PRIMARY KEY,
			created_at INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS conversations (
			seq        INTEGER PRIMARY KEY AUTOINCREMENT,
			id         TEXT NOT NULL UNIQUE,
			user_id    TEXT NOT NULL REFERENCES users (user_id) ON DELETE CASCADE,
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS conversations_user_id ON conversations (user_id, seq)`,
		`CREATE TABLE IF NOT EXISTS user_values (
			user_id TEXT NOT NULL REFERENCES users (user_id) ON DELETE CASCADE,
			key     TEXT NOT NULL,
			value   TEXT NOT NULL,
			PRIMARY KEY (user_id, key)
		)`,
		`CREATE TABLE IF NOT EXISTS conversation_values (
			conversation_id TEXT NOT NULL REFERENCES conversations (id) ON DELETE CASCADE,
			key             TEXT NOT NULL,
			value           TEXT NOT NULL,
			PRIMARY KEY (conversation_id, key)
		)`,
		`CREATE TABLE IF NOT EXISTS bot_values (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
	},
}

// Postgres is the dialect of jackc/pgx.
var Postgres = Dialect{
	Name: "postgres",
	Schema: []string{
		`CREATE TABLE IF NOT EXISTS users (
			user_id    TEXT PRIMARY KEY,
			created_at BIGINT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS conversations (
			seq        BIGSERIAL PRIMARY KEY,
			id         TEXT NOT NULL UNIQUE,
			user_id    TEXT NOT NULL REFERENCES users (user_id) ON DELETE CASCADE,
			created_at BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS conversations_user_id ON conversations (user_id, seq)`,
		`CREATE TABLE IF NOT EXISTS user_values (
			user_id TEXT NOT NULL REFERENCES users (user_id) ON DELETE CASCADE,
			key     TEXT NOT NULL,
			value   TEXT NOT NULL,
			PRIMARY KEY (user_id, key)
		)`,
		`CREATE TABLE IF NOT EXISTS conversation_values (
			conversation_id TEXT NOT NULL REFERENCES conversations (id) ON DELETE CASCADE,
			key             TEXT NOT NULL,
			value           TEXT NOT NULL,
			PRIMARY KEY (conversation_id, key)
		)`,
		`CREATE TABLE IF NOT EXISTS bot_values (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
	},
	NumberedPlaceholders: true,
}

// Rebind rewrites the "?" placeholders of query for the dialect.
func (d Dialect) Rebind(query string) string {
	if !d.NumberedPlaceholders {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
