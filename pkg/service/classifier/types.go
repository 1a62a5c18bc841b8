package classifier

import (
	"context"

	"github.com/doctriage-lab/grammateus/pkg/domain/model"
	"github.com/doctriage-lab/grammateus/pkg/domain/types"
)

// SnippetLimit is the maximum number of content bytes sent to the LLM for
// classification.
const SnippetLimit = 1500

// Service labels a document with a format and an intent
type Service interface {
	// Classify assigns a format/intent pair to the document excerpt.
	// LLM trouble never surfaces as an error here: when the model is
	// unreachable or returns garbage, keyword matching supplies the labels
	// instead.
	Classify(ctx context.Context, input Input) (*model.Classification, error)
}

// Input represents the document excerpt to classify
type Input struct {
	Name    string       // Original file name (optional)
	Hint    types.Format // Format sniffed from the raw bytes
	Snippet string       // Leading excerpt of the content
}

// llmResponse is the structured output from the LLM
type llmResponse struct {
	Format     string  `json:"format"`
	Intent     string  `json:"intent"`
	Confidence float64 `json:"confidence"`
}
