package types

import (
	"fmt"
	"strings"
)

// Urgency represents how quickly a triaged document needs attention
type Urgency string

const (
	UrgencyHigh   Urgency = "high"
	UrgencyMedium Urgency = "medium"
	UrgencyLow    Urgency = "low"
)

// AllUrgencies returns all valid urgency levels
func AllUrgencies() []Urgency {
	return []Urgency{
		UrgencyHigh,
		UrgencyMedium,
		UrgencyLow,
	}
}

// IsValid checks if the urgency level is valid
func (u Urgency) IsValid() bool {
	switch u {
	case UrgencyHigh,
		UrgencyMedium,
		UrgencyLow:
		return true
	default:
		return false
	}
}

// Normalize returns the urgency, treating empty or unrecognized values as
// UrgencyLow
func (u Urgency) Normalize() Urgency {
	normalized := Urgency(strings.ToLower(strings.TrimSpace(string(u))))
	if !normalized.IsValid() {
		return UrgencyLow
	}
	return normalized
}

// String returns the string representation of the urgency level
func (u Urgency) String() string {
	return string(u)
}

// Emoji returns the notification emoji for the urgency level
func (u Urgency) Emoji() string {
	switch u {
	case UrgencyHigh:
		return "🚨"
	case UrgencyMedium:
		return "⚠️"
	default:
		return "📄"
	}
}

// ParseUrgency parses a string into an Urgency
func ParseUrgency(s string) (Urgency, error) {
	urgency := Urgency(strings.ToLower(strings.TrimSpace(s)))
	if !urgency.IsValid() {
		return "", fmt.Errorf("invalid urgency: %s", s)
	}
	return urgency, nil
}
