package extractor

import (
	"context"
	"log/slog"
	"strings"

	"github.com/papercomputeco/parley/pkg/corpus"
	"github.com/papercomputeco/parley/pkg/entity"
	"github.com/papercomputeco/parley/pkg/logger"
)

// CorpusConfig configures a CorpusExtractor.
type CorpusConfig struct {
	// Dimension is the dimension of every entity produced.
	Dimension string

	// Corpus is the vocabulary matched against sentences.
	Corpus corpus.Corpus

	// Options controls how sentences and words are normalized.
	Options corpus.Options

	// ValueType is the type recorded on extracted values. Defaults to
	// entity.TypeString.
	ValueType string

	// Convert optionally maps a canonical corpus value to the value stored
	// on the entity. Defaults to the canonical value itself.
	Convert func(canonical string) any

	Logger *slog.Logger
}

// CorpusExtractor matches the words of a corpus against a sentence.
//
// Words are tried in corpus order and must match on whole-token boundaries.
// The first word found is removed from the sentence and the search restarts
// on what remains, so extraction is deterministic for a given corpus and
// sentence.
type CorpusExtractor struct {
	dimension string
	corpus    corpus.Corpus
	options   corpus.Options
	valueType string
	convert   func(string) any
	logger    *slog.Logger
}

// NewCorpusExtractor creates a CorpusExtractor.
func NewCorpusExtractor(c CorpusConfig) *CorpusExtractor {
	valueType := c.ValueType
	if valueType == "" {
		valueType = entity.TypeString
	}

	convert := c.Convert
	if convert == nil {
		convert = func(canonical string) any { return canonical }
	}

	return &CorpusExtractor{
		dimension: c.Dimension,
		corpus:    c.Corpus,
		options:   c.Options,
		valueType: valueType,
		convert:   convert,
		logger:    logger.OrNop(c.Logger),
	}
}

// Dimension returns the dimension of the extracted entities.
func (e *CorpusExtractor) Dimension() string {
	return e.dimension
}

// Compute extracts the corpus entities found in sentence. It never blocks
// and never fails; the error is part of the Extractor contract only.
func (e *CorpusExtractor) Compute(_ context.Context, sentence string) ([]entity.Entity, error) {
	e.logger.Debug("corpus extraction", "dimension", e.dimension, "sentence", sentence)

	normalized := corpus.Normalize(sentence, e.options)
	return e.computeEntities(normalized, e.corpus.Words()), nil
}

// computeEntities repeatedly removes the first corpus word (in corpus order)
// found in sentence until the sentence is empty or nothing matches.
func (e *CorpusExtractor) computeEntities(sentence string, words []string) []entity.Entity {
	entities := []entity.Entity{}

	for sentence != "" {
		matched := false
		for _, word := range words {
			normalizedWord := corpus.Normalize(word, e.options)
			remainder, ok := Remainder(sentence, normalizedWord)
			if !ok {
				continue
			}

			value := e.corpus.Value(normalizedWord, e.options)
			entities = append(entities, entity.New(e.dimension, e.convert(value), e.valueType))
			sentence = remainder
			matched = true
			break
		}

		if !matched {
			break
		}
	}

	return entities
}

// Remainder looks for the first occurrence of word in sentence. The
// occurrence only counts when it is delimited by a space or the sentence
// edge on both sides. On a match it returns the sentence with the word cut
// out.
func Remainder(sentence, word string) (string, bool) {
	if word == "" {
		return "", false
	}

	start := strings.Index(sentence, word)
	if start < 0 {
		return "", false
	}
	if start > 0 && sentence[start-1] != ' ' {
		return "", false
	}

	end := start + len(word)
	if end < len(sentence) && sentence[end] != ' ' {
		return "", false
	}

	return sentence[:start] + sentence[end:], true
}

var _ Extractor = (*CorpusExtractor)(nil)
