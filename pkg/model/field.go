package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Field is the typed descriptor of a single model field.
type Field struct {
	Name          string
	Label         string
	RawType       string
	Type          FieldType
	Hint          string
	Widget        Widget
	Required      bool
	Editable      bool
	MaxLength     int
	HelpText      string
	IsTranslation bool
	// BaseName and Language are set for translation fields ("title_en" =>
	// "title", "en").
	BaseName string
	Language string
	Choices  []Choice
	Related  *RelatedModel
}

// Choice is one entry of a field's fixed choice list.
type Choice struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// UnmarshalJSON accepts both {"value": v, "label": l} objects and Django's
// native [v, l] pairs. Non-string values are stringified.
func (c *Choice) UnmarshalJSON(data []byte) error {
	var pair []any
	if err := json.Unmarshal(data, &pair); err == nil {
		if len(pair) != 2 {
			return fmt.Errorf("model: choice pair has %d elements", len(pair))
		}
		c.Value = StringValue(pair[0])
		c.Label = StringValue(pair[1])
		return nil
	}
	var obj struct {
		Value any    `json:"value"`
		Label string `json:"label"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("model: decode choice: %w", err)
	}
	c.Value = StringValue(obj.Value)
	c.Label = obj.Label
	if c.Label == "" {
		c.Label = c.Value
	}
	return nil
}

// RelatedModel points at the model a relation field references.
type RelatedModel struct {
	AppLabel  string `json:"app_label"`
	ModelName string `json:"model_name"`
	APIURL    string `json:"api_url"`
}

// HasEndpoint reports whether the related list can be fetched.
func (f Field) HasEndpoint() bool {
	return f.Related != nil && strings.TrimSpace(f.Related.APIURL) != ""
}

// IsIdentifier reports whether the field is the primary key column.
func (f Field) IsIdentifier() bool {
	return f.Name == "id"
}

// DefaultValue returns the initial form value for the field.
func (f Field) DefaultValue() any {
	return f.Widget.DefaultValue()
}
