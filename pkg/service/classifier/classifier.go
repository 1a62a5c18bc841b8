package classifier

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"
	"time"
	"unicode/utf8"

	"github.com/doctriage-lab/grammateus/pkg/domain/model"
	"github.com/doctriage-lab/grammateus/pkg/domain/model/config"
	"github.com/doctriage-lab/grammateus/pkg/domain/types"
	"github.com/doctriage-lab/grammateus/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
)

//go:embed prompt/classify_system.md
var classifySystemPromptTmpl string

var classifySystemPrompt = template.Must(template.New("classify_system").Parse(classifySystemPromptTmpl))

// client implements Service on top of a gollem LLM client
type client struct {
	llmClient gollem.LLMClient
	book      *config.IntentBook
	modelName string
}

// Option is a functional option for client configuration
type Option func(*client)

// WithModelName sets the model label recorded on classifications
func WithModelName(name string) Option {
	return func(c *client) {
		c.modelName = name
	}
}

// New creates a new classifier with the provided LLM client. A nil llmClient
// is allowed and yields a keyword-only classifier, so a deployment without
// LLM credentials can still triage documents.
func New(llmClient gollem.LLMClient, book *config.IntentBook, opts ...Option) (Service, error) {
	if book == nil || len(book.Intents) == 0 {
		return nil, goerr.New("intent book is required")
	}

	c := &client{
		llmClient: llmClient,
		book:      book,
		modelName: "llm",
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Classify assigns a format/intent pair to the document excerpt
func (c *client) Classify(ctx context.Context, input Input) (*model.Classification, error) {
	if c.llmClient == nil {
		return c.classifyByKeyword(input.Name+"\n"+input.Snippet, input.Hint), nil
	}

	classification, err := c.classifyByLLM(ctx, input)
	if err != nil {
		logging.From(ctx).Warn("LLM classification failed, using keyword fallback",
			"error", err.Error(),
			"name", input.Name,
		)
		return c.classifyByKeyword(input.Name+"\n"+input.Snippet, input.Hint), nil
	}

	return classification, nil
}

func (c *client) classifyByLLM(ctx context.Context, input Input) (*model.Classification, error) {
	systemPrompt, err := c.buildSystemPrompt()
	if err != nil {
		return nil, err
	}

	session, err := c.llmClient.NewSession(ctx,
		gollem.WithSessionContentType(gollem.ContentTypeJSON),
		gollem.WithSessionResponseSchema(buildResponseSchema()),
		gollem.WithSessionSystemPrompt(systemPrompt),
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create LLM session")
	}

	resp, err := session.GenerateContent(ctx, gollem.Text(buildUserPrompt(input)))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate content from LLM")
	}
	if len(resp.Texts) == 0 {
		return nil, goerr.New("empty LLM response")
	}

	var llmResp llmResponse
	if err := json.Unmarshal([]byte(resp.Texts[0]), &llmResp); err != nil {
		// The model ignored the response schema. Salvage labels from the raw
		// text instead of discarding the call.
		logging.From(ctx).Warn("unparseable LLM classification, scanning raw response",
			"error", err.Error(),
			"response", resp.Texts[0],
		)
		return c.classifyByKeyword(resp.Texts[0], input.Hint), nil
	}

	format := types.Format(llmResp.Format).Normalize()
	if format == types.FormatUnknown {
		// Trust the byte-level sniff over a format label the schema does
		// not allow.
		format = input.Hint.Normalize()
	}

	return &model.Classification{
		Format:     format,
		Intent:     c.normalizeIntent(llmResp.Intent),
		Confidence: clampConfidence(llmResp.Confidence),
		Model:      c.modelName,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

// normalizeIntent maps the raw LLM intent label to a configured intent.
// Anything outside the intent book becomes IntentGeneral.
func (c *client) normalizeIntent(raw string) types.IntentID {
	intent := types.IntentID(raw).Normalize()
	if intent == types.IntentGeneral {
		return intent
	}
	if c.book.Find(intent.String()) == nil {
		return types.IntentGeneral
	}
	return intent
}

func clampConfidence(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// buildSystemPrompt renders the system prompt with the configured intents
func (c *client) buildSystemPrompt() (string, error) {
	data := struct {
		Formats []types.Format
		Intents []config.Intent
	}{
		Formats: types.AllFormats(),
		Intents: c.book.Intents,
	}

	var buf bytes.Buffer
	if err := classifySystemPrompt.Execute(&buf, data); err != nil {
		return "", goerr.Wrap(err, "failed to render classification prompt")
	}

	return buf.String(), nil
}

// buildUserPrompt creates the user prompt with the document name, the sniffed
// format and the content excerpt
func buildUserPrompt(input Input) string {
	var sb strings.Builder

	sb.WriteString("Classify the document format and intent from the following content snippet.\n\n")
	if input.Name != "" {
		fmt.Fprintf(&sb, "File name: %s\n", input.Name)
	}
	if input.Hint.IsValid() {
		fmt.Fprintf(&sb, "Detected format: %s\n", input.Hint)
	}

	sb.WriteString("\n## Content\n\n")
	sb.WriteString(capSnippet(input.Snippet))
	sb.WriteString("\n")

	return sb.String()
}

// capSnippet truncates the excerpt to SnippetLimit bytes without splitting a
// multi-byte rune
func capSnippet(s string) string {
	if len(s) <= SnippetLimit {
		return s
	}
	s = s[:SnippetLimit]
	for len(s) > 0 && !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}
	return s
}

// buildResponseSchema creates the JSON schema for structured output
func buildResponseSchema() *gollem.Parameter {
	return &gollem.Parameter{
		Title:       "DocumentClassification",
		Description: "Format and intent labels for a document",
		Type:        gollem.TypeObject,
		Properties: map[string]*gollem.Parameter{
			"format": {
				Type:        gollem.TypeString,
				Description: "Document format, one of: pdf, json, email",
				Required:    true,
			},
			"intent": {
				Type:        gollem.TypeString,
				Description: "Intent ID from the configured list, or general if none fits",
				Required:    true,
			},
			"confidence": {
				Type:        gollem.TypeNumber,
				Description: "Classification confidence between 0.0 and 1.0",
				Required:    true,
			},
		},
	}
}
