package config

import (
	_ "embed"
	"os"

	domainConfig "github.com/doctriage-lab/grammateus/pkg/domain/model/config"
	"github.com/doctriage-lab/grammateus/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v3"
)

//go:embed default.toml
var defaultWorkbookTOML []byte

// AppConfig holds the CLI flag for the intent workbook location
type AppConfig struct {
	path string
}

// Flags returns CLI flags for application configuration
func (a *AppConfig) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "Path to the intent workbook TOML file (built-in intents when omitted)",
			Sources:     cli.EnvVars("GRAMMATEUS_CONFIG"),
			Destination: &a.path,
		},
	}
}

// Path returns the configured workbook path
func (a *AppConfig) Path() string {
	return a.path
}

// Configure loads the intent workbook and converts it to the domain
// IntentBook. Without a path the built-in workbook is used.
func (a *AppConfig) Configure() (*domainConfig.IntentBook, error) {
	if a.path == "" {
		workbook, err := parseWorkbook(defaultWorkbookTOML)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to load built-in workbook")
		}
		return workbook.ToIntentBook(), nil
	}

	workbook, err := LoadIntentWorkbook(a.path)
	if err != nil {
		return nil, err
	}
	return workbook.ToIntentBook(), nil
}

// IntentWorkbook is the TOML document declaring the intents a deployment
// triages documents into
type IntentWorkbook struct {
	Intents []Intent `toml:"intent"`
}

// Intent represents a document intent configuration
type Intent struct {
	ID          string  `toml:"id"`
	Name        string  `toml:"name"`
	Description string  `toml:"description"`
	Fields      []Field `toml:"field"`
}

// Field represents one field the extraction step should pull for an intent
type Field struct {
	Name        string `toml:"name"`
	Description string `toml:"description"`
	Required    bool   `toml:"required"`
}

// Validate checks if the Field is valid
func (f *Field) Validate() error {
	if f.Name == "" {
		return goerr.Wrap(ErrMissingName, "field name is required")
	}
	return nil
}

// Validate checks if the Intent is valid
func (i *Intent) Validate() error {
	id := types.IntentID(i.ID)
	if err := id.Validate(); err != nil {
		return goerr.Wrap(err, "invalid intent ID")
	}
	if i.Name == "" {
		return goerr.Wrap(ErrMissingName, "intent name is required", goerr.V(IntentIDKey, i.ID))
	}

	fieldNames := make(map[string]bool)
	for idx, field := range i.Fields {
		if err := field.Validate(); err != nil {
			return goerr.Wrap(err, "invalid field",
				goerr.V(IntentIDKey, i.ID), goerr.V(FieldIndexKey, idx))
		}
		if fieldNames[field.Name] {
			return goerr.Wrap(ErrDuplicateFieldName, "field declared twice",
				goerr.V(IntentIDKey, i.ID), goerr.V(FieldNameKey, field.Name))
		}
		fieldNames[field.Name] = true
	}

	return nil
}

// Validate checks if the IntentWorkbook is valid
func (w *IntentWorkbook) Validate() error {
	if len(w.Intents) == 0 {
		return goerr.Wrap(ErrInvalidConfig, "at least one intent is required")
	}

	intentIDs := make(map[string]bool)
	for idx, intent := range w.Intents {
		if err := intent.Validate(); err != nil {
			return goerr.Wrap(err, "invalid intent", goerr.V(IntentIndexKey, idx))
		}
		if intentIDs[intent.ID] {
			return goerr.Wrap(ErrDuplicateIntentID, "intent declared twice",
				goerr.V(IntentIDKey, intent.ID))
		}
		intentIDs[intent.ID] = true
	}

	return nil
}

// LoadIntentWorkbook loads and validates an intent workbook from a TOML file
func LoadIntentWorkbook(path string) (*IntentWorkbook, error) {
	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read config file", goerr.V(ConfigPathKey, path))
	}

	workbook, err := parseWorkbook(data)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load workbook", goerr.V(ConfigPathKey, path))
	}

	return workbook, nil
}

func parseWorkbook(data []byte) (*IntentWorkbook, error) {
	var workbook IntentWorkbook
	if err := toml.Unmarshal(data, &workbook); err != nil {
		return nil, goerr.Wrap(err, "failed to parse TOML config")
	}

	if err := workbook.Validate(); err != nil {
		return nil, goerr.Wrap(err, "config validation failed")
	}

	return &workbook, nil
}

// ToIntentBook converts the workbook to the domain IntentBook
func (w *IntentWorkbook) ToIntentBook() *domainConfig.IntentBook {
	intents := make([]domainConfig.Intent, len(w.Intents))
	for i, intent := range w.Intents {
		fields := make([]domainConfig.FieldSpec, len(intent.Fields))
		for j, field := range intent.Fields {
			fields[j] = domainConfig.FieldSpec{
				Name:        field.Name,
				Description: field.Description,
				Required:    field.Required,
			}
		}

		intents[i] = domainConfig.Intent{
			ID:          intent.ID,
			Name:        intent.Name,
			Description: intent.Description,
			Fields:      fields,
		}
	}

	return &domainConfig.IntentBook{Intents: intents}
}
