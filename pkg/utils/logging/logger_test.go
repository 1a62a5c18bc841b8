package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/doctriage-lab/grammateus/pkg/utils/logging"
	"github.com/m-mizutani/gt"
)

func TestFromFallsBackToDefault(t *testing.T) {
	logger := logging.From(context.Background())
	gt.V(t, logger).NotNil()
}

func TestWithRoundTrip(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	ctx := logging.With(context.Background(), logger)
	gt.V(t, logging.From(ctx)).Equal(logger)
}

func TestContentFieldIsRedacted(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(&buf, slog.LevelInfo, logging.FormatJSON)

	logger.Info("stored document", slog.Any("doc", struct {
		Name    string
		Content string
	}{
		Name:    "invoice.pdf",
		Content: "top secret payload",
	}))

	var out map[string]any
	gt.NoError(t, json.Unmarshal(buf.Bytes(), &out))

	doc, ok := out["doc"].(map[string]any)
	gt.B(t, ok).True()
	gt.V(t, doc["Name"]).Equal("invoice.pdf")
	gt.V(t, doc["Content"]).NotEqual("top secret payload")
}
