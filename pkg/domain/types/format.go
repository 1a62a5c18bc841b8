package types

import (
	"fmt"
	"strings"
)

// Format represents the media format of an ingested document
type Format string

const (
	FormatPDF   Format = "pdf"
	FormatJSON  Format = "json"
	FormatEmail Format = "email"

	// FormatUnknown marks content the classifier could not label.
	// It never routes to an extraction handler.
	FormatUnknown Format = "unknown"
)

// AllFormats returns all formats that can be routed to an extraction handler
func AllFormats() []Format {
	return []Format{
		FormatPDF,
		FormatJSON,
		FormatEmail,
	}
}

// IsValid checks if the format is routable to an extraction handler
func (f Format) IsValid() bool {
	switch f {
	case FormatPDF,
		FormatJSON,
		FormatEmail:
		return true
	default:
		return false
	}
}

// Normalize lowercases the format and maps anything unroutable to FormatUnknown
func (f Format) Normalize() Format {
	normalized := Format(strings.ToLower(strings.TrimSpace(string(f))))
	if !normalized.IsValid() {
		return FormatUnknown
	}
	return normalized
}

// String returns the string representation of the format
func (f Format) String() string {
	return string(f)
}

// ParseFormat parses a string into a Format
func ParseFormat(s string) (Format, error) {
	format := Format(strings.ToLower(strings.TrimSpace(s)))
	if !format.IsValid() {
		return "", fmt.Errorf("invalid format: %s", s)
	}
	return format, nil
}
