package extractor

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/papercomputeco/parley/pkg/entity"
)

// CompositeExtractor runs several extractors over the same sentence and
// concatenates their entities in extractor order.
type CompositeExtractor struct {
	extractors []Extractor
}

// NewCompositeExtractor creates a CompositeExtractor.
func NewCompositeExtractor(extractors ...Extractor) *CompositeExtractor {
	return &CompositeExtractor{extractors: extractors}
}

// Add appends extractors to the composite.
func (c *CompositeExtractor) Add(extractors ...Extractor) {
	c.extractors = append(c.extractors, extractors...)
}

// Len returns the number of child extractors.
func (c *CompositeExtractor) Len() int {
	return len(c.extractors)
}

// Compute runs every child concurrently. The first failure cancels the
// others and is returned.
func (c *CompositeExtractor) Compute(ctx context.Context, sentence string) ([]entity.Entity, error) {
	results := make([][]entity.Entity, len(c.extractors))

	g, gctx := errgroup.WithContext(ctx)
	for i, ext := range c.extractors {
		g.Go(func() error {
			entities, err := ext.Compute(gctx, sentence)
			if err != nil {
				return fmt.Errorf("extractor %d: %w", i, err)
			}
			results[i] = entities
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	entities := []entity.Entity{}
	for _, r := range results {
		entities = append(entities, r...)
	}
	return entities, nil
}

var _ Extractor = (*CompositeExtractor)(nil)
