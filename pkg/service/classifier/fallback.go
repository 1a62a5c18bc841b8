package classifier

import (
	"strings"
	"time"

	"github.com/doctriage-lab/grammateus/pkg/domain/model"
	"github.com/doctriage-lab/grammateus/pkg/domain/types"
)

// FallbackModelName labels classifications produced by keyword matching
// rather than an LLM call.
const FallbackModelName = "fallback/keyword"

// classifyByKeyword labels a document by scanning text for format and intent
// keywords. It runs when no LLM client is configured, when the LLM call
// fails, or on the raw response text when the model returns free-form prose.
// Keyword labels carry zero confidence so they stay distinguishable from
// real classifications.
func (c *client) classifyByKeyword(text string, hint types.Format) *model.Classification {
	lowered := strings.ToLower(text)

	format := hint.Normalize()
	if format == types.FormatUnknown {
		for _, candidate := range []types.Format{types.FormatJSON, types.FormatEmail, types.FormatPDF} {
			if strings.Contains(lowered, candidate.String()) {
				format = candidate
				break
			}
		}
	}

	intent := types.IntentGeneral
	for _, candidate := range c.book.Intents {
		if matchKeyword(lowered, candidate.ID) || matchKeyword(lowered, strings.ToLower(candidate.Name)) {
			intent = types.IntentID(candidate.ID)
			break
		}
	}

	return &model.Classification{
		Format:     format,
		Intent:     intent,
		Confidence: 0,
		Model:      FallbackModelName,
		CreatedAt:  time.Now().UTC(),
	}
}

func matchKeyword(text, keyword string) bool {
	return keyword != "" && strings.Contains(text, keyword)
}
