// Package keyword implements a small local classifier trained from a YAML
// file of example utterances. It scores an intent by the best token overlap
// (Jaccard index) between the sentence and one of the intent's examples.
//
// It is meant for development and tests; production deployments use the
// remote classifier.
//
// Training file format:
//
//	intents:
//	  - name: greetings
//	    examples:
//	      - hello
//	      - good morning
package keyword

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/papercomputeco/parley/pkg/classifier"
	"github.com/papercomputeco/parley/pkg/corpus"
	"github.com/papercomputeco/parley/pkg/entity"
)

// Intent is one trained intent.
type Intent struct {
	Name     string   `yaml:"name"`
	Examples []string `yaml:"examples"`
}

// Model is the training file content.
type Model struct {
	Intents []Intent `yaml:"intents"`
}

// Classifier is a token-overlap classifier.
type Classifier struct {
	path  string
	model *Model

	// examples holds the tokenized examples per intent, in model order.
	examples [][]tokenSet
}

type tokenSet map[string]struct{}

// New creates a classifier from an in-memory model.
func New(model Model) *Classifier {
	c := &Classifier{}
	c.train(&model)
	return c
}

// NewFromFile creates a classifier trained from the YAML file at path when
// Init is called.
func NewFromFile(path string) *Classifier {
	return &Classifier{path: path}
}

// ParseModel parses a YAML training file.
func ParseModel(data []byte) (*Model, error) {
	var m Model
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing intents: %w", err)
	}
	for i, in := range m.Intents {
		if in.Name == "" {
			return nil, fmt.Errorf("intent %d has no name", i)
		}
	}
	return &m, nil
}

// Init loads the training file, if any.
func (c *Classifier) Init(_ context.Context) error {
	if c.path == "" {
		if c.model == nil {
			return errors.New("keyword classifier has no model")
		}
		return nil
	}

	data, err := os.ReadFile(c.path)
	if err != nil {
		return fmt.Errorf("reading intents file: %w", err)
	}

	m, err := ParseModel(data)
	if err != nil {
		return err
	}

	c.train(m)
	return nil
}

// Compute scores every intent against sentence, best first. Intents that
// share no token with the sentence are omitted.
func (c *Classifier) Compute(_ context.Context, sentence string, _ []entity.Entity) ([]classifier.Prediction, error) {
	if c.model == nil {
		return nil, errors.New("keyword classifier is not initialized")
	}

	tokens := tokenize(sentence)

	predictions := []classifier.Prediction{}
	for i, in := range c.model.Intents {
		best := 0.0
		for _, example := range c.examples[i] {
			if score := jaccard(tokens, example); score > best {
				best = score
			}
		}
		if best > 0 {
			predictions = append(predictions, classifier.Prediction{Name: in.Name, Value: best})
		}
	}

	classifier.Rank(predictions)
	return predictions, nil
}

func (c *Classifier) train(m *Model) {
	c.model = m
	c.examples = make([][]tokenSet, len(m.Intents))
	for i, in := range m.Intents {
		for _, example := range in.Examples {
			c.examples[i] = append(c.examples[i], tokenize(example))
		}
	}
}

func tokenize(text string) tokenSet {
	set := tokenSet{}
	for _, t := range strings.Fields(corpus.Normalize(text, corpus.Options{StripDashes: true})) {
		t = strings.Trim(t, ".,;:!?()[]")
		if t != "" {
			set[t] = struct{}{}
		}
	}
	return set
}

func jaccard(a, b tokenSet) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	inter := 0
	for t := range a {
		if _, ok := b[t]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

var _ classifier.Classifier = (*Classifier)(nil)
