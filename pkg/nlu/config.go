package nlu

// QnA evaluation order relative to the classifier.
const (
	QnABefore = "before"
	QnAAfter  = "after"
)

// Config holds the NLU settings.
type Config struct {
	// IntentThreshold is the minimum confidence (exclusive) a classifier
	// prediction needs to be kept by the default intent filter. Required.
	IntentThreshold *float64

	// QnA enables the QnA matcher. Nil runs the classifier only.
	QnA *QnAConfig

	// MultiIntent keeps up to two intents instead of one.
	MultiIntent bool

	// Locale selects the language of the built-in extractors.
	Locale string
}

// QnAConfig configures how QnA matches are merged with the classifier.
type QnAConfig struct {
	// When is QnABefore or QnAAfter.
	When string

	// Strict accepts a QnA answer only when it is the single match.
	Strict bool
}

// Threshold is a helper for building a Config literal.
func Threshold(v float64) *float64 {
	return &v
}
