package model

import (
	"time"

	"github.com/doctriage-lab/grammateus/pkg/domain/types"
)

// Classification is the format/intent label pair assigned to a document.
// It is produced once at intake and never revised; reclassification means
// ingesting the document again.
type Classification struct {
	Format     types.Format
	Intent     types.IntentID
	Confidence float64 // 0.0 to 1.0, zero when the keyword fallback labeled it
	Model      string  // LLM model name, or "fallback/keyword"
	CreatedAt  time.Time
}
