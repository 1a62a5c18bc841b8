// Package extract holds the format-specific extraction handlers that turn a
// classified document into structured fields.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/doctriage-lab/grammateus/pkg/domain/model"
	"github.com/doctriage-lab/grammateus/pkg/domain/model/config"
	"github.com/doctriage-lab/grammateus/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

// ErrNoHandler is returned when no handler covers the classified format
var ErrNoHandler = goerr.New("no extraction handler for format")

// Input carries a document and its classification context into a handler
type Input struct {
	Document *model.Document
	Content  []byte // Raw payload, inline or fetched from the archive
	Intent   types.IntentID
	Spec     *config.Intent // Intent configuration, nil when not configured
}

// Handler extracts structured fields from one document format
type Handler interface {
	Format() types.Format
	Extract(ctx context.Context, input *Input) (*model.ExtractionResult, error)
}

// Dispatcher routes a classified document to the handler for its format
type Dispatcher struct {
	handlers map[types.Format]Handler
}

// NewDispatcher builds a dispatcher over the given handlers. A later handler
// for the same format replaces an earlier one.
func NewDispatcher(handlers ...Handler) *Dispatcher {
	m := make(map[types.Format]Handler, len(handlers))
	for _, h := range handlers {
		m[h.Format()] = h
	}
	return &Dispatcher{handlers: m}
}

// Dispatch runs the handler registered for the format
func (d *Dispatcher) Dispatch(ctx context.Context, format types.Format, input *Input) (*model.ExtractionResult, error) {
	handler, ok := d.handlers[format.Normalize()]
	if !ok {
		return nil, goerr.Wrap(ErrNoHandler, "cannot extract document", goerr.V("format", format))
	}
	return handler.Extract(ctx, input)
}

// capBytes truncates s to at most n bytes without splitting a multi-byte rune
func capBytes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	s = s[:n]
	for len(s) > 0 && !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}
	return s
}

// stringifyField renders a decoded JSON value as a flat field value
func stringifyField(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		encoded, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(encoded)
	}
}
