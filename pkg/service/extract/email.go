package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"strings"
	"time"

	"github.com/doctriage-lab/grammateus/pkg/domain/model"
	"github.com/doctriage-lab/grammateus/pkg/domain/types"
	"github.com/doctriage-lab/grammateus/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"golang.org/x/sync/errgroup"
)

const (
	// emailFieldLimit caps the body excerpt sent for LLM field extraction
	emailFieldLimit = 2000

	// emailUrgencyLimit caps the body excerpt sent for urgency labelling
	emailUrgencyLimit = 1000

	// actionLimit caps the stored requested_action field value
	actionLimit = 200
)

var (
	highUrgencyWords   = []string{"urgent", "immediately", "asap", "critical", "emergency", "right away"}
	mediumUrgencyWords = []string{"soon", "priority", "expedite", "time sensitive", "follow up"}

	actionCues = []string{"please", "kindly", "we need", "we request", "could you", "can you"}
)

type emailHandler struct {
	llmClient gollem.LLMClient
}

// NewEmail creates the handler for email documents. The LLM client is
// optional; without one the handler stays on header and keyword heuristics.
func NewEmail(llmClient gollem.LLMClient) Handler {
	return &emailHandler{llmClient: llmClient}
}

func (h *emailHandler) Format() types.Format {
	return types.FormatEmail
}

// Extract parses the message headers, scans the body for urgency and
// requested-action cues, and enriches the field set through the LLM when one
// is configured. Header and keyword fields survive any LLM failure.
func (h *emailHandler) Extract(ctx context.Context, input *Input) (*model.ExtractionResult, error) {
	parsed := parseEmail(input.Content)

	fields := map[string]string{
		"sender":  parsed.Sender,
		"subject": parsed.Subject,
	}
	if parsed.Date != "" {
		fields["date"] = parsed.Date
	}
	if action := scanRequestedAction(parsed.Body); action != "" {
		fields["requested_action"] = action
	}

	urgency := scanUrgency(parsed.Subject + "\n" + parsed.Body)
	method := model.MethodHeuristic

	if h.llmClient != nil {
		var llmFields map[string]string
		var llmUrgency types.Urgency

		eg, egCtx := errgroup.WithContext(ctx)
		eg.Go(func() error {
			extracted, err := extractFieldsByLLM(egCtx, h.llmClient, input.Intent, input.Spec, parsed.Body, emailFieldLimit)
			if err != nil {
				return goerr.Wrap(err, "field extraction")
			}
			llmFields = extracted
			return nil
		})
		eg.Go(func() error {
			labelled, err := h.determineUrgency(egCtx, input.Intent, parsed.Body)
			if err != nil {
				return goerr.Wrap(err, "urgency labelling")
			}
			llmUrgency = labelled
			return nil
		})
		if err := eg.Wait(); err != nil {
			logging.From(ctx).Warn("LLM enrichment degraded to heuristics",
				"error", err.Error(),
				"documentID", input.Document.ID,
			)
		}

		for name, value := range llmFields {
			fields[name] = value
		}
		if llmUrgency != "" {
			urgency = llmUrgency
		}
		if llmFields != nil || llmUrgency != "" {
			method = model.MethodLLM
		}
	}

	fields["urgency"] = urgency.String()

	summary := fmt.Sprintf("Email from %s", parsed.Sender)
	if parsed.Subject != "" {
		summary = fmt.Sprintf("Email from %s: %s", parsed.Sender, parsed.Subject)
	}

	return &model.ExtractionResult{
		Format:      types.FormatEmail,
		Intent:      input.Intent,
		Fields:      fields,
		Summary:     summary,
		Method:      method,
		CompletedAt: time.Now().UTC(),
	}, nil
}

func (h *emailHandler) determineUrgency(ctx context.Context, intent types.IntentID, body string) (types.Urgency, error) {
	session, err := h.llmClient.NewSession(ctx,
		gollem.WithSessionSystemPrompt("You determine the urgency of business emails. Answer with exactly one word: high, medium, or low."),
	)
	if err != nil {
		return "", goerr.Wrap(err, "failed to create LLM session")
	}

	prompt := fmt.Sprintf(
		"This email has been classified with intent: %s. Determine the urgency based on content and intent. Respond with only a single word: high, medium, or low.\n\nEMAIL CONTENT:\n%s",
		intent, capBytes(body, emailUrgencyLimit),
	)

	resp, err := session.GenerateContent(ctx, gollem.Text(prompt))
	if err != nil {
		return "", goerr.Wrap(err, "failed to generate content from LLM")
	}
	if len(resp.Texts) == 0 {
		return "", goerr.New("empty LLM response")
	}

	return normalizeUrgencyResponse(resp.Texts[0]), nil
}

// normalizeUrgencyResponse maps free-form model output onto an urgency level
func normalizeUrgencyResponse(s string) types.Urgency {
	lowered := strings.ToLower(s)
	switch {
	case strings.Contains(lowered, "high"):
		return types.UrgencyHigh
	case strings.Contains(lowered, "medium"):
		return types.UrgencyMedium
	default:
		return types.UrgencyLow
	}
}

type parsedEmail struct {
	Sender  string
	Subject string
	Date    string
	Body    string
}

// parseEmail splits a raw message into headers and a text body. Content that
// does not parse as RFC 5322 is treated as a bare body.
func parseEmail(raw []byte) parsedEmail {
	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		return parsedEmail{Sender: "Unknown", Body: string(raw)}
	}

	parsed := parsedEmail{
		Sender:  msg.Header.Get("From"),
		Subject: msg.Header.Get("Subject"),
	}
	if parsed.Sender == "" {
		parsed.Sender = "Unknown"
	}
	if date, err := msg.Header.Date(); err == nil {
		parsed.Date = date.UTC().Format(time.RFC3339)
	}

	parsed.Body = readBody(msg)
	return parsed
}

// readBody returns the text body, descending into the first text/plain part
// of a multipart message
func readBody(msg *mail.Message) string {
	mediaType, params, err := mime.ParseMediaType(msg.Header.Get("Content-Type"))
	if err == nil && strings.HasPrefix(mediaType, "multipart/") {
		reader := multipart.NewReader(msg.Body, params["boundary"])
		for {
			part, err := reader.NextPart()
			if err != nil {
				return ""
			}
			partType := part.Header.Get("Content-Type")
			if partType == "" || strings.HasPrefix(partType, "text/plain") {
				data, err := io.ReadAll(part)
				if err != nil {
					return ""
				}
				return string(data)
			}
		}
	}

	data, err := io.ReadAll(msg.Body)
	if err != nil {
		return ""
	}
	return string(data)
}

// scanUrgency looks for urgency keywords in the subject and body
func scanUrgency(text string) types.Urgency {
	lowered := strings.ToLower(text)
	for _, word := range highUrgencyWords {
		if strings.Contains(lowered, word) {
			return types.UrgencyHigh
		}
	}
	for _, word := range mediumUrgencyWords {
		if strings.Contains(lowered, word) {
			return types.UrgencyMedium
		}
	}
	return types.UrgencyLow
}

// scanRequestedAction returns the first sentence that reads like an ask
func scanRequestedAction(body string) string {
	sentences := strings.FieldsFunc(body, func(r rune) bool {
		return r == '.' || r == '!' || r == '?' || r == '\n'
	})

	for _, sentence := range sentences {
		lowered := strings.ToLower(sentence)
		for _, cue := range actionCues {
			if strings.Contains(lowered, cue) {
				return capBytes(strings.TrimSpace(sentence), actionLimit)
			}
		}
	}

	return ""
}
