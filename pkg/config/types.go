package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Config represents the persistent parley configuration stored as
// config.toml in the .parley/ directory. The TOML layout uses sections for
// logical grouping.
type Config struct {
	Version     int               `toml:"version"`
	Locale      string            `toml:"locale,omitempty" validate:"oneof=en fr"`
	MultiIntent bool              `toml:"multi_intent,omitempty"`
	Brain       BrainConfig       `toml:"brain"`
	NLU         NLUConfig         `toml:"nlu"`
	API         APIConfig         `toml:"api"`
	EventStream EventStreamConfig `toml:"eventstream"`
}

// BrainConfig holds the conversation store settings.
type BrainConfig struct {
	Provider string `toml:"provider,omitempty" validate:"oneof=memory sqlite postgres"`

	// ConversationDuration is a Go duration string, e.g. "24h".
	ConversationDuration string `toml:"conversation_duration,omitempty" validate:"required"`

	SQLitePath  string `toml:"sqlite_path,omitempty"`
	PostgresDSN string `toml:"postgres_dsn,omitempty" validate:"required_if=Provider postgres"`
}

// NLUConfig holds the understanding settings.
type NLUConfig struct {
	// IntentThreshold has no default: it must be configured.
	IntentThreshold *float64         `toml:"intent_threshold,omitempty" validate:"omitempty,gte=0,lte=1"`
	Classifier      ClassifierConfig `toml:"classifier"`
	QnA             QnAConfig        `toml:"qna"`
	Corpora         []CorpusConfig   `toml:"corpora,omitempty" validate:"omitempty,dive"`
	Patterns        []PatternConfig  `toml:"patterns,omitempty" validate:"omitempty,dive"`
}

// ClassifierConfig selects and configures the intent classifier.
type ClassifierConfig struct {
	Provider    string `toml:"provider,omitempty" validate:"oneof=keyword remote"`
	Target      string `toml:"target,omitempty" validate:"omitempty,url"`
	IntentsPath string `toml:"intents_path,omitempty" validate:"required_if=Provider keyword"`
}

// QnAConfig configures the QnA matcher.
type QnAConfig struct {
	Enabled bool   `toml:"enabled,omitempty"`
	When    string `toml:"when,omitempty" validate:"oneof=before after"`
	Strict  bool   `toml:"strict,omitempty"`
	Target  string `toml:"target,omitempty" validate:"omitempty,url"`
	AppID   string `toml:"app_id,omitempty"`
	AppKey  string `toml:"app_key,omitempty"`
}

// CorpusConfig binds a corpus file to an entity dimension.
type CorpusConfig struct {
	Dimension string `toml:"dimension" validate:"required"`
	Path      string `toml:"path" validate:"required"`
}

// PatternConfig binds a regular expression to an entity dimension.
type PatternConfig struct {
	Dimension string `toml:"dimension" validate:"required"`
	Pattern   string `toml:"pattern" validate:"required"`
}

// APIConfig holds API server settings.
type APIConfig struct {
	Listen string `toml:"listen,omitempty" validate:"required"`
}

// EventStreamConfig holds event publication settings.
type EventStreamConfig struct {
	Provider string   `toml:"provider,omitempty" validate:"oneof=nop kafka"`
	Brokers  []string `toml:"brokers,omitempty" validate:"required_if=Provider kafka"`
	Topic    string   `toml:"topic,omitempty" validate:"required_if=Provider kafka"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

func stringKey(field func(c *Config) *string) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return *field(c) },
		set: func(c *Config, v string) error { *field(c) = v; return nil },
	}
}

func boolKey(name string, field func(c *Config) *bool) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return strconv.FormatBool(*field(c)) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*field(c) = b
			return nil
		},
	}
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"locale":       stringKey(func(c *Config) *string { return &c.Locale }),
	"multi_intent": boolKey("multi_intent", func(c *Config) *bool { return &c.MultiIntent }),

	"brain.provider":              stringKey(func(c *Config) *string { return &c.Brain.Provider }),
	"brain.conversation_duration": stringKey(func(c *Config) *string { return &c.Brain.ConversationDuration }),
	"brain.sqlite_path":           stringKey(func(c *Config) *string { return &c.Brain.SQLitePath }),
	"brain.postgres_dsn":          stringKey(func(c *Config) *string { return &c.Brain.PostgresDSN }),

	"nlu.intent_threshold": {
		get: func(c *Config) string {
			if c.NLU.IntentThreshold == nil {
				return ""
			}
			return strconv.FormatFloat(*c.NLU.IntentThreshold, 'f', -1, 64)
		},
		set: func(c *Config, v string) error {
			if v == "" {
				c.NLU.IntentThreshold = nil
				return nil
			}
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("invalid value for nlu.intent_threshold: %w", err)
			}
			c.NLU.IntentThreshold = &f
			return nil
		},
	},
	"nlu.classifier.provider":     stringKey(func(c *Config) *string { return &c.NLU.Classifier.Provider }),
	"nlu.classifier.target":       stringKey(func(c *Config) *string { return &c.NLU.Classifier.Target }),
	"nlu.classifier.intents_path": stringKey(func(c *Config) *string { return &c.NLU.Classifier.IntentsPath }),

	"nlu.qna.enabled": boolKey("nlu.qna.enabled", func(c *Config) *bool { return &c.NLU.QnA.Enabled }),
	"nlu.qna.when":    stringKey(func(c *Config) *string { return &c.NLU.QnA.When }),
	"nlu.qna.strict":  boolKey("nlu.qna.strict", func(c *Config) *bool { return &c.NLU.QnA.Strict }),
	"nlu.qna.target":  stringKey(func(c *Config) *string { return &c.NLU.QnA.Target }),
	"nlu.qna.app_id":  stringKey(func(c *Config) *string { return &c.NLU.QnA.AppID }),
	"nlu.qna.app_key": stringKey(func(c *Config) *string { return &c.NLU.QnA.AppKey }),

	"api.listen": stringKey(func(c *Config) *string { return &c.API.Listen }),

	"eventstream.provider": stringKey(func(c *Config) *string { return &c.EventStream.Provider }),
	"eventstream.brokers": {
		get: func(c *Config) string { return strings.Join(c.EventStream.Brokers, ",") },
		set: func(c *Config, v string) error {
			c.EventStream.Brokers = splitList(v)
			return nil
		},
	},
	"eventstream.topic": stringKey(func(c *Config) *string { return &c.EventStream.Topic }),
}

// splitList splits a comma-separated value, dropping empty items.
func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
