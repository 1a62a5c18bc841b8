package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/doctriage-lab/grammateus/pkg/domain/model/config"
	"github.com/doctriage-lab/grammateus/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
)

const extractSystemPrompt = "You are an AI assistant specialized in extracting information from documents."

// extractFieldsByLLM asks the model for the intent's fields over a content
// excerpt. With an intent spec the response is constrained to the declared
// fields; without one the model returns whatever fields it finds.
func extractFieldsByLLM(ctx context.Context, llmClient gollem.LLMClient, intent types.IntentID, spec *config.Intent, content string, limit int) (map[string]string, error) {
	opts := []gollem.SessionOption{
		gollem.WithSessionContentType(gollem.ContentTypeJSON),
		gollem.WithSessionSystemPrompt(extractSystemPrompt),
	}
	if spec != nil && len(spec.Fields) > 0 {
		opts = append(opts, gollem.WithSessionResponseSchema(buildFieldSchema(spec)))
	}

	session, err := llmClient.NewSession(ctx, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create LLM session")
	}

	resp, err := session.GenerateContent(ctx, gollem.Text(buildFieldPrompt(intent, spec, content, limit)))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate content from LLM")
	}
	if len(resp.Texts) == 0 {
		return nil, goerr.New("empty LLM response")
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(resp.Texts[0]), &raw); err != nil {
		return nil, goerr.Wrap(err, "failed to parse LLM field response", goerr.V("response", resp.Texts[0]))
	}

	fields := make(map[string]string, len(raw))
	for name, value := range raw {
		fields[name] = stringifyField(value)
	}

	return fields, nil
}

func buildFieldPrompt(intent types.IntentID, spec *config.Intent, content string, limit int) string {
	var sb strings.Builder

	if spec != nil && len(spec.Fields) > 0 {
		fmt.Fprintf(&sb, "Extract the following fields from this %s document:\n", intent)
		for _, field := range spec.Fields {
			if field.Description != "" {
				fmt.Fprintf(&sb, "- %s: %s\n", field.Name, field.Description)
			} else {
				fmt.Fprintf(&sb, "- %s\n", field.Name)
			}
		}
	} else {
		fmt.Fprintf(&sb, "Extract key information from this %s document.\n", intent)
	}
	sb.WriteString("Respond with only a JSON object mapping field names to values.\n\n")
	sb.WriteString("## Document\n\n")
	sb.WriteString(capBytes(content, limit))
	sb.WriteString("\n")

	return sb.String()
}

func buildFieldSchema(spec *config.Intent) *gollem.Parameter {
	properties := make(map[string]*gollem.Parameter, len(spec.Fields))

	for _, field := range spec.Fields {
		properties[field.Name] = &gollem.Parameter{
			Type:        gollem.TypeString,
			Description: field.Description,
			Required:    field.Required,
		}
	}

	return &gollem.Parameter{
		Title:       "ExtractedFields",
		Description: "Field values extracted from the document",
		Type:        gollem.TypeObject,
		Properties:  properties,
	}
}
