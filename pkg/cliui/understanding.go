package cliui

import (
	"fmt"
	"strings"

	"github.com/papercomputeco/parley/pkg/entity"
	"github.com/papercomputeco/parley/pkg/intent"
)

// FormatIntents renders intents on a single styled line.
func FormatIntents(intents []*intent.Intent) string {
	if len(intents) == 0 {
		return DimStyle.Render("no intent")
	}

	parts := make([]string, 0, len(intents))
	for _, in := range intents {
		if in.Type == intent.TypeQnA {
			parts = append(parts, QnAStyle.Render("qna"))
			continue
		}
		parts = append(parts, NameStyle.Render(in.Name))
	}
	return strings.Join(parts, DimStyle.Render(", "))
}

// FormatEntities renders entities as dim=value pairs.
func FormatEntities(entities []entity.Entity) string {
	if len(entities) == 0 {
		return DimStyle.Render("none")
	}

	parts := make([]string, 0, len(entities))
	for _, e := range entities {
		values := make([]string, 0, len(e.Values))
		for _, v := range e.Values {
			values = append(values, fmt.Sprint(v.Value))
		}
		parts = append(parts, KeyStyle.Render(e.Dim)+"="+strings.Join(values, "|"))
	}
	return strings.Join(parts, " ")
}

// AnswersMarkdown builds a markdown document with every QnA answer, or
// returns "" when no intent carries answers.
func AnswersMarkdown(intents []*intent.Intent) string {
	var b strings.Builder
	for _, in := range intents {
		for _, group := range in.Answers {
			for _, a := range group {
				if a.Value == "" {
					continue
				}
				b.WriteString(a.Value)
				b.WriteString("\n\n")
			}
		}
	}
	return strings.TrimSpace(b.String())
}
