package config

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for configuration validation
var (
	ErrInvalidConfig      = goerr.New("invalid configuration")
	ErrDuplicateIntentID  = goerr.New("duplicate intent ID")
	ErrDuplicateFieldName = goerr.New("duplicate field name")
	ErrMissingName        = goerr.New("name is required")
)

// Context keys for error values
const (
	ConfigPathKey  = "config_path"
	IntentIDKey    = "intent_id"
	FieldNameKey   = "field_name"
	FieldIndexKey  = "field_index"
	IntentIndexKey = "intent_index"
)
