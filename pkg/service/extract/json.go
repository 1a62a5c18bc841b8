package extract

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/doctriage-lab/grammateus/pkg/domain/model"
	"github.com/doctriage-lab/grammateus/pkg/domain/types"
	"github.com/doctriage-lab/grammateus/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// jsonFieldLimit caps the payload excerpt sent for LLM field extraction
const jsonFieldLimit = 2000

//go:embed schema/invoice.json
var invoiceSchemaJSON string

//go:embed schema/rfq.json
var rfqSchemaJSON string

// schemaSpec pairs a compiled schema with the field lists declared in it
type schemaSpec struct {
	compiled   *jsonschema.Schema
	required   []string
	properties []string
}

var intentSchemas = map[types.IntentID]*schemaSpec{
	types.IntentInvoice: mustSchemaSpec("schema/invoice.json", invoiceSchemaJSON),
	types.IntentRFQ:     mustSchemaSpec("schema/rfq.json", rfqSchemaJSON),
}

func mustSchemaSpec(name, raw string) *schemaSpec {
	var doc struct {
		Required   []string                   `json:"required"`
		Properties map[string]json.RawMessage `json:"properties"`
	}
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		panic(err)
	}

	properties := make([]string, 0, len(doc.Properties))
	for field := range doc.Properties {
		properties = append(properties, field)
	}
	sort.Strings(properties)

	return &schemaSpec{
		compiled:   jsonschema.MustCompileString(name, raw),
		required:   doc.Required,
		properties: properties,
	}
}

type jsonHandler struct {
	llmClient gollem.LLMClient
}

// NewJSON creates the handler for JSON documents. Intents with a declared
// schema are validated and extracted without any LLM call; the LLM only
// covers intents that have no schema.
func NewJSON(llmClient gollem.LLMClient) Handler {
	return &jsonHandler{llmClient: llmClient}
}

func (h *jsonHandler) Format() types.Format {
	return types.FormatJSON
}

func (h *jsonHandler) Extract(ctx context.Context, input *Input) (*model.ExtractionResult, error) {
	var decoded any
	if err := json.Unmarshal(input.Content, &decoded); err != nil {
		return nil, goerr.Wrap(err, "invalid JSON content", goerr.V("documentID", input.Document.ID))
	}

	spec, ok := intentSchemas[input.Intent]
	if !ok {
		return h.extractWithoutSchema(ctx, input, decoded)
	}

	valid := true
	var schemaErrors []string
	if err := spec.compiled.Validate(decoded); err != nil {
		valid = false
		schemaErrors = flattenSchemaError(err)
	}

	// A non-object payload yields no fields, only validation errors.
	payload, _ := decoded.(map[string]any)

	fields := make(map[string]string)
	var missing []string
	for _, name := range spec.required {
		value, ok := payload[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		fields[name] = stringifyField(value)
	}
	for _, name := range spec.properties {
		if _, done := fields[name]; done {
			continue
		}
		if value, ok := payload[name]; ok {
			fields[name] = stringifyField(value)
		}
	}

	return &model.ExtractionResult{
		Format:        types.FormatJSON,
		Intent:        input.Intent,
		Fields:        fields,
		Valid:         &valid,
		MissingFields: missing,
		SchemaErrors:  schemaErrors,
		Method:        model.MethodSchema,
		CompletedAt:   time.Now().UTC(),
	}, nil
}

// extractWithoutSchema covers intents with no declared schema. The LLM pulls
// whatever fields it finds; without a usable LLM the top-level values become
// the fields.
func (h *jsonHandler) extractWithoutSchema(ctx context.Context, input *Input, decoded any) (*model.ExtractionResult, error) {
	if h.llmClient != nil {
		if compact, err := json.Marshal(decoded); err == nil {
			fields, err := extractFieldsByLLM(ctx, h.llmClient, input.Intent, input.Spec, string(compact), jsonFieldLimit)
			if err == nil {
				return &model.ExtractionResult{
					Format:      types.FormatJSON,
					Intent:      input.Intent,
					Fields:      fields,
					Method:      model.MethodLLM,
					CompletedAt: time.Now().UTC(),
				}, nil
			}
			logging.From(ctx).Warn("LLM extraction degraded to top-level fields",
				"error", err.Error(),
				"documentID", input.Document.ID,
			)
		}
	}

	return &model.ExtractionResult{
		Format:      types.FormatJSON,
		Intent:      input.Intent,
		Fields:      flattenTopLevel(decoded),
		Method:      model.MethodHeuristic,
		CompletedAt: time.Now().UTC(),
	}, nil
}

// flattenTopLevel turns the top-level members of a decoded JSON value into
// string fields
func flattenTopLevel(decoded any) map[string]string {
	payload, ok := decoded.(map[string]any)
	if !ok {
		return map[string]string{}
	}

	fields := make(map[string]string, len(payload))
	for name, value := range payload {
		fields[name] = stringifyField(value)
	}
	return fields
}

// flattenSchemaError collects the leaf validation failures
func flattenSchemaError(err error) []string {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return []string{err.Error()}
	}
	return collectCauses(ve)
}

func collectCauses(ve *jsonschema.ValidationError) []string {
	if len(ve.Causes) == 0 {
		if ve.InstanceLocation != "" {
			return []string{ve.InstanceLocation + ": " + ve.Message}
		}
		return []string{ve.Message}
	}

	var out []string
	for _, cause := range ve.Causes {
		out = append(out, collectCauses(cause)...)
	}
	return out
}
