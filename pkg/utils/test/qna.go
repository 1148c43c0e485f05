package testutils

import (
	"context"
	"sync"

	"github.com/papercomputeco/parley/pkg/qna"
)

// MockMatcher is a test QnA matcher returning configurable results.
type MockMatcher struct {
	mu sync.Mutex

	// QnAs is returned by GetMatchingQnas.
	QnAs []qna.QnA

	// Err, when set, is returned by GetMatchingQnas.
	Err error

	Calls int
}

// NewMockMatcher creates a mock matcher returning qnas.
func NewMockMatcher(qnas ...qna.QnA) *MockMatcher {
	return &MockMatcher{QnAs: qnas}
}

func (m *MockMatcher) GetMatchingQnas(_ context.Context, _ string) ([]qna.QnA, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	return m.QnAs, nil
}

// CallCount returns the number of GetMatchingQnas calls so far.
func (m *MockMatcher) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls
}
