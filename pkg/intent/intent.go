// Package intent defines the normalized intent value produced by both the
// classifier path and the QnA path of the NLU.
package intent

// Type discriminates classifier intents from QnA intents.
type Type string

const (
	// TypeIntent is an intent resolved by the trainable classifier.
	TypeIntent Type = "Intent"

	// TypeQnA is an intent resolved by the QnA matcher.
	TypeQnA Type = "QnA"

	// QnAName is the name every QnA intent receives when none is given.
	QnAName = "qnas"
)

// Answer is a single answer value attached to a QnA intent.
type Answer struct {
	Value string `json:"value"`
}

// Data is the raw input used to construct an Intent.
type Data struct {
	Type          Type
	Name          string
	Label         string
	ResolvePrompt string
	Answers       [][]Answer
}

// Intent is an immutable, validated intent.
type Intent struct {
	Type          Type       `json:"type"`
	Name          string     `json:"name"`
	Label         string     `json:"label,omitempty"`
	ResolvePrompt string     `json:"resolvePrompt,omitempty"`
	Answers       [][]Answer `json:"answers,omitempty"`
}

// New validates data and builds an Intent.
//
// The type is mandatory. A classifier intent must carry a name or a label;
// when the name is absent it defaults to the label. A QnA intent is always
// named QnAName unless a name is given explicitly. Answers are kept for QnA
// intents only.
func New(data Data) (*Intent, error) {
	if data.Type == "" {
		return nil, &SdkError{Reason: "data must contain type"}
	}

	isQnA := data.Type == TypeQnA
	if !isQnA && data.Name == "" && data.Label == "" {
		return nil, &SdkError{Reason: "data must contain label or name"}
	}

	i := &Intent{
		Type:          data.Type,
		Name:          data.Name,
		Label:         data.Label,
		ResolvePrompt: data.ResolvePrompt,
	}

	if i.Name == "" {
		if isQnA {
			i.Name = QnAName
		} else {
			i.Name = i.Label
		}
	}

	if isQnA {
		i.Answers = data.Answers
	}

	return i, nil
}

// IsQnA reports whether the intent comes from the QnA matcher.
func (i *Intent) IsQnA() bool {
	return i.Type == TypeQnA
}

// Names returns the names of the given intents, preserving order.
func Names(intents []*Intent) []string {
	names := make([]string, 0, len(intents))
	for _, i := range intents {
		names = append(names, i.Name)
	}
	return names
}
