// Package classifier defines the contract of the trainable intent
// classifier used by the NLU. The model itself lives behind this interface:
// remote talks to a hosted classification service, keyword is a small local
// classifier for development.
package classifier

import (
	"context"
	"sort"

	"github.com/papercomputeco/parley/pkg/entity"
)

// Prediction is one ranked classifier candidate.
type Prediction struct {
	// Name is the intent name.
	Name string `json:"name"`

	// Value is the confidence score, comparable against the NLU intent
	// threshold.
	Value float64 `json:"value"`
}

// Classifier maps a sentence and its entities to ranked intent candidates.
type Classifier interface {
	// Init prepares the classifier (loads a model, checks connectivity).
	Init(ctx context.Context) error

	// Compute returns predictions ranked best first.
	Compute(ctx context.Context, sentence string, entities []entity.Entity) ([]Prediction, error)
}

// Rank sorts predictions by descending confidence. Ties keep their
// original order.
func Rank(predictions []Prediction) {
	sort.SliceStable(predictions, func(i, j int) bool {
		return predictions[i].Value > predictions[j].Value
	})
}
