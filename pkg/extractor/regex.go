package extractor

import (
	"context"
	"fmt"
	"regexp"

	"github.com/papercomputeco/parley/pkg/entity"
)

// RegexExtractor produces one entity per non-overlapping match of a regular
// expression.
type RegexExtractor struct {
	dimension string
	re        *regexp.Regexp
}

// NewRegexExtractor compiles pattern into a RegexExtractor.
func NewRegexExtractor(dimension, pattern string) (*RegexExtractor, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compiling %s pattern: %w", dimension, err)
	}
	return &RegexExtractor{dimension: dimension, re: re}, nil
}

// Compute returns the matches in sentence order.
func (e *RegexExtractor) Compute(_ context.Context, sentence string) ([]entity.Entity, error) {
	matches := e.re.FindAllString(sentence, -1)
	entities := make([]entity.Entity, 0, len(matches))
	for _, m := range matches {
		entities = append(entities, entity.New(e.dimension, m, entity.TypeString))
	}
	return entities, nil
}

var _ Extractor = (*RegexExtractor)(nil)
