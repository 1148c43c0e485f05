package extractor

import (
	"fmt"
	"log/slog"

	"github.com/papercomputeco/parley/pkg/corpus"
	"github.com/papercomputeco/parley/pkg/entity"
)

// BooleanDimension is the dimension of entities produced by the boolean
// extractor.
const BooleanDimension = "system:boolean"

const (
	canonicalTrue  = "true"
	canonicalFalse = "false"
)

// booleanCorpora lists yes/no words per locale. The first synonym of each
// row is the canonical value.
var booleanCorpora = map[string][][]string{
	"en": {
		{canonicalTrue, "yes", "yeah", "yep", "sure", "ok", "okay", "of course", "absolutely"},
		{canonicalFalse, "no", "nope", "nah", "not really", "never"},
	},
	"fr": {
		{canonicalTrue, "oui", "ouais", "bien sûr", "d'accord", "ok", "exact", "absolument"},
		{canonicalFalse, "non", "nan", "pas du tout", "jamais", "faux"},
	},
}

// BooleanLocales returns the locales supported by the boolean extractor.
func BooleanLocales() []string {
	return []string{"en", "fr"}
}

// NewBooleanExtractor creates the system boolean extractor for locale.
func NewBooleanExtractor(locale string, l *slog.Logger) (*CorpusExtractor, error) {
	rows, ok := booleanCorpora[locale]
	if !ok {
		return nil, fmt.Errorf("boolean extractor: unsupported locale %q", locale)
	}

	return NewCorpusExtractor(CorpusConfig{
		Dimension: BooleanDimension,
		Corpus:    corpus.NewMatrix(rows),
		ValueType: entity.TypeBoolean,
		Convert: func(canonical string) any {
			return canonical == canonicalTrue
		},
		Logger: l,
	}), nil
}
