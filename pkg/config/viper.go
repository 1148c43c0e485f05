package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/papercomputeco/parley/pkg/dotdir"
)

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the PARLEY_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (PARLEY_API_LISTEN, PARLEY_BRAIN_PROVIDER, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	// 1. Register all defaults from NewDefaultConfig().
	setViperDefaults(v)

	// 2. Config file discovery via dotdir resolution.
	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// 3. Environment variables: PARLEY_NLU_INTENT_THRESHOLD, PARLEY_BRAIN_SQLITE_PATH, etc.
	v.SetEnvPrefix("PARLEY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)
	v.SetDefault("locale", d.Locale)
	v.SetDefault("multi_intent", d.MultiIntent)

	// Brain
	v.SetDefault("brain.provider", d.Brain.Provider)
	v.SetDefault("brain.conversation_duration", d.Brain.ConversationDuration)
	v.SetDefault("brain.sqlite_path", d.Brain.SQLitePath)
	v.SetDefault("brain.postgres_dsn", d.Brain.PostgresDSN)

	// NLU. The intent threshold has no default.
	v.SetDefault("nlu.classifier.provider", d.NLU.Classifier.Provider)
	v.SetDefault("nlu.classifier.target", d.NLU.Classifier.Target)
	v.SetDefault("nlu.classifier.intents_path", d.NLU.Classifier.IntentsPath)
	v.SetDefault("nlu.qna.enabled", d.NLU.QnA.Enabled)
	v.SetDefault("nlu.qna.when", d.NLU.QnA.When)
	v.SetDefault("nlu.qna.strict", d.NLU.QnA.Strict)
	v.SetDefault("nlu.qna.target", d.NLU.QnA.Target)
	v.SetDefault("nlu.qna.app_id", d.NLU.QnA.AppID)
	v.SetDefault("nlu.qna.app_key", d.NLU.QnA.AppKey)

	// API
	v.SetDefault("api.listen", d.API.Listen)

	// Event stream
	v.SetDefault("eventstream.provider", d.EventStream.Provider)
	v.SetDefault("eventstream.brokers", d.EventStream.Brokers)
	v.SetDefault("eventstream.topic", d.EventStream.Topic)
}

// FromViper materializes a Config from the viper precedence chain.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := NewDefaultConfig()

	for key, info := range configKeys {
		switch key {
		case "eventstream.brokers":
			cfg.EventStream.Brokers = v.GetStringSlice(key)
			continue
		case "nlu.intent_threshold":
			if !v.IsSet(key) {
				continue
			}
		}
		if err := info.set(cfg, v.GetString(key)); err != nil {
			return nil, err
		}
	}

	corpora, err := tablesFromViper("nlu.corpora", v.Get("nlu.corpora"))
	if err != nil {
		return nil, err
	}
	for _, m := range corpora {
		dimension, _ := m["dimension"].(string)
		path, _ := m["path"].(string)
		cfg.NLU.Corpora = append(cfg.NLU.Corpora, CorpusConfig{Dimension: dimension, Path: path})
	}

	patterns, err := tablesFromViper("nlu.patterns", v.Get("nlu.patterns"))
	if err != nil {
		return nil, err
	}
	for _, m := range patterns {
		dimension, _ := m["dimension"].(string)
		pattern, _ := m["pattern"].(string)
		cfg.NLU.Patterns = append(cfg.NLU.Patterns, PatternConfig{Dimension: dimension, Pattern: pattern})
	}

	return cfg, nil
}

// tablesFromViper decodes a TOML array of tables such as [[nlu.corpora]].
func tablesFromViper(key string, raw any) ([]map[string]any, error) {
	switch t := raw.(type) {
	case nil:
		return nil, nil
	case []map[string]any:
		return t, nil
	case []any:
		tables := make([]map[string]any, 0, len(t))
		for _, item := range t {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("%s: unexpected entry %T", key, item)
			}
			tables = append(tables, m)
		}
		return tables, nil
	default:
		return nil, fmt.Errorf("%s: unexpected value %T", key, raw)
	}
}
