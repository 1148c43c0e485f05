package config

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag is the single source of truth for a CLI flag.
// Commands reference flags by registry key rather than hard-coding names,
// shorthands, defaults, and descriptions inline. This prevents flag drift
// when the same logical flag appears on multiple commands (e.g., --locale
// on both "parley serve" and "parley compute").
type Flag struct {
	// Name is the long flag name (e.g. "listen").
	Name string

	// Shorthand is the one-letter short flag (e.g. "l"). Empty for no shorthand.
	Shorthand string

	// ViperKey is the dotted config key this flag maps to (e.g. "api.listen").
	ViperKey string

	// Description is the help text shown in --help output.
	Description string
}

// FlagSet is a mapping of flag names to Flag structs that hold their name,
// shorthand, viper key, etc.
type FlagSet map[string]Flag

// Flag registry keys.
// Use these constants when calling AddStringFlag, AddBoolFlag,
// and BindRegisteredFlags to avoid typos or drift from one command to another.
const (
	FlagAPIListen       = "listen"
	FlagLocale          = "locale"
	FlagMultiIntent     = "multi-intent"
	FlagBrainProvider   = "brain"
	FlagSQLite          = "sqlite"
	FlagPostgres        = "postgres"
	FlagConversationTTL = "conversation-duration"
	FlagThreshold       = "threshold"
	FlagClassifier      = "classifier"
	FlagClassifierTgt   = "classifier-target"
	FlagIntents         = "intents"
	FlagEventStream     = "eventstream"
	FlagKafkaTopic      = "topic"
)

// Flags is the parley flag registry shared by every command.
var Flags = FlagSet{
	FlagAPIListen:       {Name: "listen", Shorthand: "l", ViperKey: "api.listen", Description: "Address for the API server to listen on"},
	FlagLocale:          {Name: "locale", ViperKey: "locale", Description: "Locale passed to the built-in extractors (en, fr)"},
	FlagMultiIntent:     {Name: "multi-intent", ViperKey: "multi_intent", Description: "Keep the top two intents instead of one"},
	FlagBrainProvider:   {Name: "brain", ViperKey: "brain.provider", Description: "Conversation store (memory, sqlite, postgres)"},
	FlagSQLite:          {Name: "sqlite", Shorthand: "s", ViperKey: "brain.sqlite_path", Description: "Path to the SQLite database"},
	FlagPostgres:        {Name: "postgres", ViperKey: "brain.postgres_dsn", Description: "PostgreSQL connection string"},
	FlagConversationTTL: {Name: "conversation-duration", ViperKey: "brain.conversation_duration", Description: "How long a conversation stays valid"},
	FlagThreshold:       {Name: "threshold", Shorthand: "t", ViperKey: "nlu.intent_threshold", Description: "Minimum intent confidence, exclusive"},
	FlagClassifier:      {Name: "classifier", ViperKey: "nlu.classifier.provider", Description: "Intent classifier (keyword, remote)"},
	FlagClassifierTgt:   {Name: "classifier-target", ViperKey: "nlu.classifier.target", Description: "Base URL of the remote classifier"},
	FlagIntents:         {Name: "intents", ViperKey: "nlu.classifier.intents_path", Description: "Path to the keyword intents YAML file"},
	FlagEventStream:     {Name: "eventstream", ViperKey: "eventstream.provider", Description: "Event publisher (nop, kafka)"},
	FlagKafkaTopic:      {Name: "topic", ViperKey: "eventstream.topic", Description: "Kafka topic for understanding events"},
}

// AddStringFlag registers a string flag on cmd from the given FlagSet.
// The flag's name, shorthand, default, and description all come from the
// FlagSet entry so they cannot drift across commands.
func AddStringFlag(cmd *cobra.Command, fs FlagSet, key string, target *string) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaultString(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().StringVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().StringVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddBoolFlag registers a bool flag on cmd from the given FlagSet.
func AddBoolFlag(cmd *cobra.Command, fs FlagSet, key string, target *bool) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaultBool(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().BoolVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().BoolVar(target, def.Name, defaultVal, def.Description)
	}
}

// BindRegisteredFlags binds already-registered flags to viper using definitions
// from the given FlagSet. Call this in PreRunE after InitViper to connect flags
// to the viper precedence chain (flag > env > config file > default).
func BindRegisteredFlags(v *viper.Viper, cmd *cobra.Command, fs FlagSet, registryKeys []string) {
	for _, registryKey := range registryKeys {
		def, ok := fs[registryKey]
		if !ok {
			continue
		}

		f := cmd.Flags().Lookup(def.Name)
		if f == nil {
			continue
		}

		_ = v.BindPFlag(def.ViperKey, f)
	}
}

// defaultString returns the default string value for a viper key from NewDefaultConfig.
func defaultString(viperKey string) string {
	v := viper.New()
	setViperDefaults(v)
	return v.GetString(viperKey)
}

// defaultBool returns the default bool value for a viper key from NewDefaultConfig.
func defaultBool(viperKey string) bool {
	v := viper.New()
	setViperDefaults(v)
	return v.GetBool(viperKey)
}

// DefaultValue returns the string form of the default value for a config key,
// or "" when the key has no default.
func DefaultValue(key string) string {
	info, ok := configKeys[key]
	if !ok {
		return ""
	}
	return info.get(NewDefaultConfig())
}
