// Package extractor turns a sentence into entities.
//
// The CorpusExtractor is the building block: it strips vocabulary words out
// of a sentence, recording one entity per word found. Built-in extractors
// (boolean, regex) and user-defined ones are combined with a
// CompositeExtractor whose result feeds the NLU.
package extractor

import (
	"context"

	"github.com/papercomputeco/parley/pkg/entity"
)

// Extractor extracts entities from a sentence.
type Extractor interface {
	Compute(ctx context.Context, sentence string) ([]entity.Entity, error)
}

// Func adapts a plain function to the Extractor interface.
type Func func(ctx context.Context, sentence string) ([]entity.Entity, error)

// Compute calls f.
func (f Func) Compute(ctx context.Context, sentence string) ([]entity.Entity, error) {
	return f(ctx, sentence)
}
