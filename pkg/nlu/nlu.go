// Package nlu computes the understanding of a sentence: ranked intents from
// the classifier or the QnA matcher, plus the entities found by the
// extractors.
package nlu

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/papercomputeco/parley/pkg/brain"
	"github.com/papercomputeco/parley/pkg/classifier"
	"github.com/papercomputeco/parley/pkg/entity"
	"github.com/papercomputeco/parley/pkg/extractor"
	"github.com/papercomputeco/parley/pkg/intent"
	"github.com/papercomputeco/parley/pkg/logger"
	"github.com/papercomputeco/parley/pkg/qna"
)

// Context is handed to the intent filter.
type Context struct {
	UserID string
	Brain  *brain.Brain
}

// IntentFilter turns ranked classifier predictions into the ordered list of
// intent names to keep.
type IntentFilter func(ctx context.Context, predictions []classifier.Prediction, nctx *Context) ([]string, error)

// Deps are the collaborators of the NLU.
type Deps struct {
	Extractor  extractor.Extractor
	Classifier classifier.Classifier

	// QnA is required when Config.QnA is set.
	QnA qna.Matcher

	// IntentFilter overrides the default threshold filter.
	IntentFilter IntentFilter

	Logger *slog.Logger
}

// Result is the understanding of one sentence.
type Result struct {
	Intents  []*intent.Intent `json:"intents"`
	Entities []entity.Entity  `json:"entities"`
}

// Nlu merges the classifier and the QnA matcher.
type Nlu struct {
	config     Config
	extractor  extractor.Extractor
	classifier classifier.Classifier
	qna        qna.Matcher
	filter     IntentFilter
	logger     *slog.Logger
}

// New validates cfg and creates an Nlu.
func New(cfg Config, deps Deps) (*Nlu, error) {
	if cfg.IntentThreshold == nil {
		return nil, &ConfigurationError{Reason: "missing intent threshold"}
	}
	if deps.Classifier == nil {
		return nil, &ConfigurationError{Reason: "missing classifier"}
	}
	if cfg.QnA != nil {
		if cfg.QnA.When != QnABefore && cfg.QnA.When != QnAAfter {
			return nil, &ConfigurationError{Reason: fmt.Sprintf("qna.when must be %q or %q, got %q", QnABefore, QnAAfter, cfg.QnA.When)}
		}
		if deps.QnA == nil {
			return nil, &ConfigurationError{Reason: "qna is enabled without a matcher"}
		}
	}

	ext := deps.Extractor
	if ext == nil {
		ext = extractor.NewCompositeExtractor()
	}

	filter := deps.IntentFilter
	if filter == nil {
		filter = ThresholdFilter(*cfg.IntentThreshold)
	}

	return &Nlu{
		config:     cfg,
		extractor:  ext,
		classifier: deps.Classifier,
		qna:        deps.QnA,
		filter:     filter,
		logger:     logger.OrNop(deps.Logger),
	}, nil
}

// ThresholdFilter keeps the predictions whose confidence is strictly above
// threshold, in rank order.
func ThresholdFilter(threshold float64) IntentFilter {
	return func(_ context.Context, predictions []classifier.Prediction, _ *Context) ([]string, error) {
		names := []string{}
		for _, p := range predictions {
			if p.Value > threshold {
				names = append(names, p.Name)
			}
		}
		return names, nil
	}
}

// Init initializes the classifier.
func (n *Nlu) Init(ctx context.Context) error {
	n.logger.Debug("initializing nlu")
	return n.classifier.Init(ctx)
}

// Compute returns the understanding of sentence. nctx may be nil.
func (n *Nlu) Compute(ctx context.Context, sentence string, nctx *Context) (*Result, error) {
	n.logger.Debug("computing", "sentence", sentence)

	if n.config.QnA == nil {
		return n.computeWithClassifier(ctx, sentence, nctx)
	}

	if n.config.QnA.When == QnABefore {
		intents, err := n.computeWithQnA(ctx, sentence)
		if err != nil {
			return nil, err
		}
		if len(intents) > 0 {
			return &Result{Intents: intents, Entities: []entity.Entity{}}, nil
		}
		return n.computeWithClassifier(ctx, sentence, nctx)
	}

	result, err := n.computeWithClassifier(ctx, sentence, nctx)
	if err != nil {
		return nil, err
	}
	if len(result.Intents) > 0 {
		return result, nil
	}

	intents, err := n.computeWithQnA(ctx, sentence)
	if err != nil {
		return nil, err
	}
	if len(intents) > 0 {
		return &Result{Intents: intents, Entities: []entity.Entity{}}, nil
	}

	// No intent at all: keep the entities for entity-driven dialogs.
	return &Result{Intents: []*intent.Intent{}, Entities: result.Entities}, nil
}

func (n *Nlu) computeWithQnA(ctx context.Context, sentence string) ([]*intent.Intent, error) {
	qnas, err := n.qna.GetMatchingQnas(ctx, sentence)
	if err != nil {
		n.logger.Error("could not classify with qna", "error", err)

		var statusErr *qna.StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusForbidden {
			return nil, &AuthenticationError{Err: err}
		}
		return nil, err
	}
	n.logger.Debug("qna matches", "count", len(qnas))

	accepted := len(qnas) > 0
	if n.config.QnA.Strict {
		accepted = len(qnas) == 1
	}
	if !accepted {
		return nil, nil
	}

	in, err := intent.New(intent.Data{
		Type:    intent.TypeQnA,
		Name:    intent.QnAName,
		Answers: [][]intent.Answer{{{Value: qnas[0].Answer}}},
	})
	if err != nil {
		return nil, err
	}
	return []*intent.Intent{in}, nil
}

func (n *Nlu) computeWithClassifier(ctx context.Context, sentence string, nctx *Context) (*Result, error) {
	entities, err := n.extractor.Compute(ctx, sentence)
	if err != nil {
		return nil, err
	}
	if entities == nil {
		entities = []entity.Entity{}
	}
	n.logger.Debug("entities extracted", "dims", entity.Dims(entities))

	predictions, err := n.classifier.Compute(ctx, sentence, entities)
	if err != nil {
		return nil, err
	}

	names, err := n.filter(ctx, predictions, nctx)
	if err != nil {
		return nil, err
	}

	limit := 1
	if n.config.MultiIntent {
		limit = 2
	}
	if len(names) > limit {
		names = names[:limit]
	}

	intents := make([]*intent.Intent, 0, len(names))
	for _, name := range names {
		in, err := intent.New(intent.Data{Type: intent.TypeIntent, Name: name})
		if err != nil {
			return nil, err
		}
		intents = append(intents, in)
	}
	n.logger.Debug("intents computed", "intents", intent.Names(intents))

	return &Result{Intents: intents, Entities: entities}, nil
}
