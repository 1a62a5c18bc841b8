package model

import (
	"time"

	"github.com/doctriage-lab/grammateus/pkg/domain/types"
)

// ExtractionMethod identifies which extraction path produced a result
type ExtractionMethod string

const (
	// MethodSchema is JSON Schema validation plus declared-property pulls
	MethodSchema ExtractionMethod = "schema"
	// MethodHeuristic is header parsing and keyword scans without any LLM call
	MethodHeuristic ExtractionMethod = "heuristic"
	// MethodLLM is LLM-driven field extraction
	MethodLLM ExtractionMethod = "llm"
)

// ExtractionResult holds the outcome of one extraction handler run.
// JSON documents carry the validity verdict; email and PDF documents carry
// a free-text summary. Fields is populated on every path that found any.
type ExtractionResult struct {
	Format types.Format
	Intent types.IntentID

	// Fields maps extracted field names to stringified values
	Fields map[string]string

	// Valid is set only by the JSON handler: whether the payload satisfied
	// the intent's schema. Nil for formats without schema validation.
	Valid         *bool
	MissingFields []string
	SchemaErrors  []string

	// Summary is a short human-readable digest, set by the email and PDF
	// handlers
	Summary string

	Method      ExtractionMethod
	CompletedAt time.Time
}

// Urgency returns the extracted urgency field, defaulting to low when the
// result or the field is absent
func (x *ExtractionResult) Urgency() types.Urgency {
	if x == nil {
		return types.UrgencyLow
	}
	return types.Urgency(x.Fields["urgency"]).Normalize()
}
