package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// ModelDescriptor is one entry of the admin registry.
type ModelDescriptor struct {
	Key       string
	Name      string
	ListURL   string
	ConfigURL string
	Count     int
}

// AdminConfig is the admin registry returned by /api/admin/.
type AdminConfig struct {
	Models          map[string]ModelDescriptor
	FrontendOptions map[string]any
}

// Keys returns the registered model keys, sorted.
func (c AdminConfig) Keys() []string {
	keys := make([]string, 0, len(c.Models))
	for key := range c.Models {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Model looks up a descriptor by key.
func (c AdminConfig) Model(key string) (ModelDescriptor, bool) {
	d, ok := c.Models[key]
	return d, ok
}

// ParseAdminConfig decodes the admin registry payload.
func ParseAdminConfig(data []byte) (AdminConfig, error) {
	var raw struct {
		Models map[string]struct {
			Name      string `json:"name"`
			APIURL    string `json:"api_url"`
			ConfigURL string `json:"config_url"`
			Count     int    `json:"count"`
		} `json:"models"`
		FrontendOptions map[string]any `json:"frontend_options"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return AdminConfig{}, fmt.Errorf("model: decode admin config: %w", err)
	}

	cfg := AdminConfig{
		Models:          make(map[string]ModelDescriptor, len(raw.Models)),
		FrontendOptions: raw.FrontendOptions,
	}
	var issues []Issue
	for key, m := range raw.Models {
		if strings.TrimSpace(m.APIURL) == "" {
			issues = append(issues, Issue{Field: key, Message: "missing api_url"})
			continue
		}
		name := m.Name
		if name == "" {
			name = key
		}
		cfg.Models[key] = ModelDescriptor{
			Key:       key,
			Name:      name,
			ListURL:   m.APIURL,
			ConfigURL: m.ConfigURL,
			Count:     m.Count,
		}
	}
	if len(issues) > 0 {
		sort.Slice(issues, func(i, j int) bool { return issues[i].Field < issues[j].Field })
		return AdminConfig{}, &SchemaError{Model: "admin", Issues: issues}
	}
	return cfg, nil
}

// AdminOptions mirrors the Django ModelAdmin options the backend exposes.
type AdminOptions struct {
	ListDisplay  []string `json:"list_display"`
	SearchFields []string `json:"search_fields"`
	Ordering     []string `json:"ordering"`
}

// Permissions reports what the signed-in user may do with a model.
type Permissions struct {
	Add    bool
	Change bool
	Delete bool
	View   bool
}

// ModelConfig is the field configuration of one model.
type ModelConfig struct {
	ModelName         string
	VerboseName       string
	VerboseNamePlural string
	// Fields keeps the backend's declaration order.
	Fields      []Field
	Admin       AdminOptions
	Permissions Permissions
}

var defaultListDisplay = []string{"id", "__str__", "created_at"}

// ListDisplay returns the configured list columns, or id/__str__/created_at
// when the backend sends none.
func (c ModelConfig) ListDisplay() []string {
	if len(c.Admin.ListDisplay) == 0 {
		return append([]string(nil), defaultListDisplay...)
	}
	return append([]string(nil), c.Admin.ListDisplay...)
}

// Field looks up a field by name.
func (c ModelConfig) Field(name string) (Field, bool) {
	for _, f := range c.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Title returns the human name of the model.
func (c ModelConfig) Title() string {
	if c.VerboseName != "" {
		return Capitalize(c.VerboseName)
	}
	return DefaultLabeler(c.ModelName)
}

// Validate checks the relation and translation rules for every field.
func (c ModelConfig) Validate(locales LocaleSet) error {
	var issues []Issue
	for _, f := range c.Fields {
		if !f.Widget.Known() {
			issues = append(issues, Issue{Field: f.Name, Message: fmt.Sprintf("unknown widget %q", f.Widget)})
		}
		if f.Related != nil && !f.Widget.IsRelation() {
			issues = append(issues, Issue{Field: f.Name, Message: fmt.Sprintf("related model requires a relation widget, got %q", f.Widget)})
		}
		if f.IsTranslation {
			_, lang, ok := SplitTranslationName(f.Name)
			switch {
			case !ok:
				issues = append(issues, Issue{Field: f.Name, Message: "translation field has no language suffix"})
			case !locales.Supports(lang):
				issues = append(issues, Issue{Field: f.Name, Message: fmt.Sprintf("unsupported language %q", lang)})
			}
		}
	}
	if len(issues) > 0 {
		return &SchemaError{Model: c.ModelName, Issues: issues}
	}
	return nil
}

// ValidateItem checks that item values have the shape their widgets expect.
// Keys without a descriptor (read-only server fields) are ignored.
func (c ModelConfig) ValidateItem(item Item) []Issue {
	var issues []Issue
	for _, f := range c.Fields {
		v, ok := item[f.Name]
		if !ok || v == nil {
			continue
		}
		switch f.Widget {
		case WidgetCheckbox:
			if _, ok := v.(bool); !ok {
				issues = append(issues, Issue{Field: f.Name, Message: fmt.Sprintf("expected boolean, got %T", v)})
			}
		case WidgetManyToMany:
			if _, ok := v.([]any); !ok {
				issues = append(issues, Issue{Field: f.Name, Message: fmt.Sprintf("expected list, got %T", v)})
			}
		case WidgetForeignKey:
			if _, ok := RelationID(v); !ok {
				issues = append(issues, Issue{Field: f.Name, Message: fmt.Sprintf("expected identifier, got %T", v)})
			}
		case WidgetJSON:
		default:
			switch v.(type) {
			case []any, map[string]any:
				issues = append(issues, Issue{Field: f.Name, Message: fmt.Sprintf("expected scalar, got %T", v)})
			}
		}
	}
	return issues
}

// ParseOption configures ParseModelConfig.
type ParseOption func(*parseOptions)

type parseOptions struct {
	decorators []Decorator
	locales    LocaleSet
}

// WithDecorators runs the supplied decorators, in order, before validation.
func WithDecorators(decorators ...Decorator) ParseOption {
	return func(o *parseOptions) {
		o.decorators = append(o.decorators, decorators...)
	}
}

// WithLocales restricts translation fields to the supplied locale set.
func WithLocales(locales LocaleSet) ParseOption {
	return func(o *parseOptions) {
		o.locales = locales
	}
}

type rawField struct {
	Name          string        `json:"name"`
	VerboseName   string        `json:"verbose_name"`
	Type          string        `json:"type"`
	UIComponent   string        `json:"ui_component"`
	Required      bool          `json:"required"`
	MaxLength     *int          `json:"max_length"`
	HelpText      string        `json:"help_text"`
	IsTranslation bool          `json:"is_translation"`
	Editable      *bool         `json:"editable"`
	Choices       []Choice      `json:"choices"`
	RelatedModel  *RelatedModel `json:"related_model"`
}

type rawModelConfig struct {
	ModelName         string          `json:"model_name"`
	VerboseName       string          `json:"verbose_name"`
	VerboseNamePlural string          `json:"verbose_name_plural"`
	Fields            json.RawMessage `json:"fields"`
	AdminConfig       AdminOptions    `json:"admin_config"`
	Permissions       *struct {
		Add    *bool `json:"add"`
		Change *bool `json:"change"`
		Delete *bool `json:"delete"`
		View   *bool `json:"view"`
	} `json:"permissions"`
}

// ParseModelConfig decodes a model configuration payload, resolves widgets
// and validates the result. Validation failures are reported as a
// *SchemaError.
func ParseModelConfig(data []byte, opts ...ParseOption) (ModelConfig, error) {
	options := parseOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}

	var raw rawModelConfig
	if err := json.Unmarshal(data, &raw); err != nil {
		return ModelConfig{}, fmt.Errorf("model: decode model config: %w", err)
	}

	fields, err := decodeFields(raw.Fields)
	if err != nil {
		return ModelConfig{}, err
	}

	cfg := ModelConfig{
		ModelName:         raw.ModelName,
		VerboseName:       raw.VerboseName,
		VerboseNamePlural: raw.VerboseNamePlural,
		Fields:            fields,
		Admin:             raw.AdminConfig,
		Permissions:       Permissions{Add: true, Change: true, Delete: true, View: true},
	}
	if p := raw.Permissions; p != nil {
		cfg.Permissions = Permissions{
			Add:    boolOr(p.Add, true),
			Change: boolOr(p.Change, true),
			Delete: boolOr(p.Delete, true),
			View:   boolOr(p.View, true),
		}
	}

	for _, decorator := range options.decorators {
		if decorator == nil {
			continue
		}
		if err := decorator.Decorate(&cfg); err != nil {
			return ModelConfig{}, fmt.Errorf("model: decorate %s: %w", cfg.ModelName, err)
		}
	}
	for i := range cfg.Fields {
		if cfg.Fields[i].Widget == "" {
			cfg.Fields[i].Widget = WidgetForHint(cfg.Fields[i].Hint, cfg.Fields[i].Type)
		}
	}

	if err := cfg.Validate(options.locales); err != nil {
		return ModelConfig{}, err
	}
	return cfg, nil
}

func decodeFields(data json.RawMessage) ([]Field, error) {
	if len(bytes.TrimSpace(data)) == 0 || bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil, nil
	}
	order, err := objectKeys(data)
	if err != nil {
		return nil, fmt.Errorf("model: decode fields: %w", err)
	}
	var byName map[string]rawField
	if err := json.Unmarshal(data, &byName); err != nil {
		return nil, fmt.Errorf("model: decode fields: %w", err)
	}

	fields := make([]Field, 0, len(order))
	for _, key := range order {
		rf := byName[key]
		name := rf.Name
		if name == "" {
			name = key
		}
		f := Field{
			Name:          name,
			Label:         Capitalize(rf.VerboseName),
			RawType:       rf.Type,
			Type:          FieldTypeOf(rf.Type),
			Hint:          strings.TrimSpace(rf.UIComponent),
			Required:      rf.Required,
			Editable:      boolOr(rf.Editable, true),
			HelpText:      rf.HelpText,
			IsTranslation: rf.IsTranslation,
			Choices:       rf.Choices,
			Related:       rf.RelatedModel,
		}
		if f.Label == "" {
			f.Label = DefaultLabeler(name)
		}
		if rf.MaxLength != nil {
			f.MaxLength = *rf.MaxLength
		}
		if f.IsTranslation {
			if base, lang, ok := SplitTranslationName(name); ok {
				f.BaseName, f.Language = base, lang
			}
		}
		fields = append(fields, f)
	}
	return fields, nil
}

// objectKeys returns the top-level keys of a JSON object in document order.
func objectKeys(data []byte) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected object, got %v", tok)
	}
	var keys []string
	seen := make(map[string]struct{})
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", tok)
		}
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil, err
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	return keys, nil
}

func boolOr(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}
