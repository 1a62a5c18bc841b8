package notify

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/doctriage-lab/grammateus/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
	"github.com/slack-go/slack"
)

const (
	// maxNotifiedFields caps how many extracted fields appear in a message
	maxNotifiedFields = 6
	// maxFieldValueLen truncates long field values in a message
	maxFieldValueLen = 120
)

// slackNotifier posts Block Kit messages via the Slack Web API
type slackNotifier struct {
	api       *slack.Client
	channelID string
}

// New creates a Slack notifier posting to the given channel
func New(token, channelID string) (Service, error) {
	if token == "" {
		return nil, goerr.New("Slack bot token is required")
	}
	if channelID == "" {
		return nil, goerr.New("Slack channel ID is required")
	}

	return &slackNotifier{
		api:       slack.New(token),
		channelID: channelID,
	}, nil
}

// NotifyProcessed posts a summary of a processed document
func (x *slackNotifier) NotifyProcessed(ctx context.Context, doc *model.Document, record *model.Record) error {
	blocks := buildRecordBlocks(doc, record)
	fallback := fallbackText(doc, record)

	if _, _, err := x.api.PostMessageContext(ctx, x.channelID,
		slack.MsgOptionBlocks(blocks...),
		slack.MsgOptionText(fallback, false),
	); err != nil {
		return goerr.Wrap(err, "failed to post Slack notification",
			goerr.V("channelID", x.channelID),
			goerr.V("documentID", doc.ID),
		)
	}

	return nil
}

// buildRecordBlocks constructs Block Kit blocks for a processed document
func buildRecordBlocks(doc *model.Document, record *model.Record) []slack.Block {
	urgency := record.Result.Urgency()

	blocks := []slack.Block{
		slack.NewHeaderBlock(
			slack.NewTextBlockObject(slack.PlainTextType, urgency.Emoji()+" "+doc.Name, true, false),
		),
	}

	if record.Result != nil && record.Result.Summary != "" {
		blocks = append(blocks, slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType, record.Result.Summary, false, false),
			nil, nil,
		))
	}

	if fieldsText := formatFields(record.Result); fieldsText != "" {
		blocks = append(blocks, slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType, fieldsText, false, false),
			nil, nil,
		))
	}

	contextParts := []string{
		fmt.Sprintf("Format: %s", record.Classification.Format),
		fmt.Sprintf("Intent: %s", record.Classification.Intent),
		fmt.Sprintf("Urgency: %s", urgency),
	}
	blocks = append(blocks, slack.NewContextBlock("",
		slack.NewTextBlockObject(slack.MarkdownType, strings.Join(contextParts, "  |  "), false, false),
	))

	return blocks
}

// formatFields renders extracted fields as markdown lines, skipping urgency
// which already appears in the context block
func formatFields(result *model.ExtractionResult) string {
	if result == nil || len(result.Fields) == 0 {
		return ""
	}

	names := make([]string, 0, len(result.Fields))
	for name := range result.Fields {
		if name == "urgency" {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	if len(names) > maxNotifiedFields {
		names = names[:maxNotifiedFields]
	}

	lines := make([]string, 0, len(names))
	for _, name := range names {
		value := result.Fields[name]
		if len(value) > maxFieldValueLen {
			value = value[:maxFieldValueLen] + "..."
		}
		lines = append(lines, fmt.Sprintf("*%s:* %s", name, value))
	}

	return strings.Join(lines, "\n")
}

// fallbackText builds the plain-text notification fallback
func fallbackText(doc *model.Document, record *model.Record) string {
	return fmt.Sprintf("Document processed: %s (intent: %s, urgency: %s)",
		doc.Name, record.Classification.Intent, record.Result.Urgency())
}
