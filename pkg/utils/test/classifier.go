package testutils

import (
	"context"
	"errors"
	"sync"

	"github.com/papercomputeco/parley/pkg/classifier"
	"github.com/papercomputeco/parley/pkg/entity"
)

// ErrMockClassifier is returned by MockClassifier when Fail is set.
var ErrMockClassifier = errors.New("mock classifier failure")

// MockClassifier is a test classifier that records calls and returns
// configurable predictions.
type MockClassifier struct {
	mu sync.Mutex

	// Predictions is returned by Compute.
	Predictions []classifier.Prediction

	// Fail causes Compute to return ErrMockClassifier.
	Fail bool

	// Calls counts Compute invocations.
	Calls int

	// LastEntities holds the entities passed to the latest Compute call.
	LastEntities []entity.Entity

	Initialized bool
}

// NewMockClassifier creates a mock classifier returning predictions.
func NewMockClassifier(predictions ...classifier.Prediction) *MockClassifier {
	return &MockClassifier{Predictions: predictions}
}

func (m *MockClassifier) Init(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Initialized = true
	return nil
}

func (m *MockClassifier) Compute(_ context.Context, _ string, entities []entity.Entity) ([]classifier.Prediction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls++
	m.LastEntities = entities
	if m.Fail {
		return nil, ErrMockClassifier
	}

	out := make([]classifier.Prediction, len(m.Predictions))
	copy(out, m.Predictions)
	return out, nil
}

// CallCount returns the number of Compute calls so far.
func (m *MockClassifier) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls
}
