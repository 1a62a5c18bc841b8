package config

// FieldSpec describes one field the extraction step should pull for an intent
type FieldSpec struct {
	Name        string
	Description string
	Required    bool
}

// Intent represents a document intent configuration
type Intent struct {
	ID          string
	Name        string
	Description string
	Fields      []FieldSpec
}

// IntentBook holds all configured document intents
type IntentBook struct {
	Intents []Intent
}

// Find returns the intent with the given ID, or nil if it is not configured
func (x *IntentBook) Find(id string) *Intent {
	for i := range x.Intents {
		if x.Intents[i].ID == id {
			return &x.Intents[i]
		}
	}
	return nil
}

// IDs returns the configured intent IDs in declaration order
func (x *IntentBook) IDs() []string {
	ids := make([]string, 0, len(x.Intents))
	for _, intent := range x.Intents {
		ids = append(ids, intent.ID)
	}
	return ids
}
