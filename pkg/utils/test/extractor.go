package testutils

import (
	"context"

	"github.com/papercomputeco/parley/pkg/entity"
)

// MockExtractor returns a fixed entity list for any sentence.
type MockExtractor struct {
	Entities []entity.Entity
	Err      error
}

// NewMockExtractor creates a mock extractor returning entities.
func NewMockExtractor(entities ...entity.Entity) *MockExtractor {
	return &MockExtractor{Entities: entities}
}

func (m *MockExtractor) Compute(_ context.Context, _ string) ([]entity.Entity, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Entities, nil
}
