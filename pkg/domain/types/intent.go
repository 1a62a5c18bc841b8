package types

import (
	"regexp"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// IntentID represents a unique identifier for a document intent
type IntentID string

// Well-known intents shipped in the default intent book. Deployments can
// define additional intents in their configuration.
const (
	IntentInvoice    IntentID = "invoice"
	IntentRFQ        IntentID = "rfq"
	IntentComplaint  IntentID = "complaint"
	IntentRegulation IntentID = "regulation"

	// IntentGeneral is the catch-all for documents no configured
	// intent matches.
	IntentGeneral IntentID = "general"
)

var idPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// Validate checks if the IntentID is valid
func (i IntentID) Validate() error {
	if i == "" {
		return goerr.New("intent ID cannot be empty")
	}
	if !idPattern.MatchString(string(i)) {
		return goerr.New("intent ID must be lowercase alphanumeric with hyphens", goerr.V("id", i))
	}
	return nil
}

// Normalize lowercases the intent and maps empty or malformed values to
// IntentGeneral
func (i IntentID) Normalize() IntentID {
	normalized := IntentID(strings.ToLower(strings.TrimSpace(string(i))))
	if normalized.Validate() != nil {
		return IntentGeneral
	}
	return normalized
}

// String returns the string representation of IntentID
func (i IntentID) String() string {
	return string(i)
}
