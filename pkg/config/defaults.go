package config

const (
	defaultLocale = "en"

	defaultBrainProvider        = "memory"
	defaultConversationDuration = "24h"

	defaultClassifierProvider = "keyword"
	defaultIntentsPath        = "intents.yaml"

	defaultQnAWhen = "after"

	defaultAPIListen = ":8081"

	defaultEventStreamProvider = "nop"
	defaultEventStreamTopic    = "parley.understandings"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values. The intent
// threshold is deliberately left unset.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Locale:  defaultLocale,
		Brain: BrainConfig{
			Provider:             defaultBrainProvider,
			ConversationDuration: defaultConversationDuration,
		},
		NLU: NLUConfig{
			Classifier: ClassifierConfig{
				Provider:    defaultClassifierProvider,
				IntentsPath: defaultIntentsPath,
			},
			QnA: QnAConfig{
				When: defaultQnAWhen,
			},
		},
		API: APIConfig{
			Listen: defaultAPIListen,
		},
		EventStream: EventStreamConfig{
			Provider: defaultEventStreamProvider,
			Topic:    defaultEventStreamTopic,
		},
	}
}
