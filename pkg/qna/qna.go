// Package qna defines the contract of the external question-and-answer
// matcher consulted by the NLU.
package qna

import (
	"context"
	"fmt"
)

// QnA is one matched question-and-answer pair.
type QnA struct {
	Answer    string   `json:"answer"`
	Questions []string `json:"questions,omitempty"`
}

// Matcher returns the QnAs matching a sentence, best first.
type Matcher interface {
	GetMatchingQnas(ctx context.Context, sentence string) ([]QnA, error)
}

// StatusError is an HTTP-style failure reported by a matcher.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("qna returned status %d: %s", e.StatusCode, e.Body)
}

// MatcherFunc adapts a function to the Matcher interface.
type MatcherFunc func(ctx context.Context, sentence string) ([]QnA, error)

// GetMatchingQnas calls f.
func (f MatcherFunc) GetMatchingQnas(ctx context.Context, sentence string) ([]QnA, error) {
	return f(ctx, sentence)
}
