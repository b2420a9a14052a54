// Package form derives an editable form from a model configuration: initial
// values per widget, an optional item overlay for edit mode, relation option
// loading, required-field validation and submission as JSON or multipart.
//
// A Form is safe for concurrent use. Relation results and submit outcomes
// that arrive after Close are discarded.
package form

import (
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/time/rate"

	"github.com/goliatone/go-modeladmin/pkg/model"
	"github.com/goliatone/go-modeladmin/pkg/notify"
)

// Mode tells whether the form creates or edits an item.
type Mode string

const (
	ModeCreate Mode = "create"
	ModeEdit   Mode = "edit"
)

// File is a new upload for a file or image field.
type File struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Layout groups the editable fields for presentation.
type Layout struct {
	// Fields are the base fields in declaration order.
	Fields []model.Field
	// Languages lists translation languages in the order first seen.
	Languages []string
	// Translations holds the translation fields of each language.
	Translations map[string][]model.Field
}

// Form is one create or edit session for a model.
type Form struct {
	modelKey string
	listURL  string
	cfg      model.ModelConfig
	id       string

	notifier         notify.Notifier
	invalidator      Invalidator
	navigator        Navigator
	logger           *slog.Logger
	concurrency      int
	limiter          *rate.Limiter
	relationPageSize int

	mu          sync.Mutex
	values      map[string]any
	relations   map[string]RelationState
	fieldErrors map[string][]string
	formErrors  []string
	closed      bool
	submitting  bool
	// loading is closed when a background relation load ends.
	loading chan struct{}
	loadErr error
}

// New builds a form for the model at listURL. A nil item opens a create
// form; otherwise item must carry an id and match the configuration.
func New(modelKey, listURL string, cfg model.ModelConfig, item model.Item, opts ...Option) (*Form, error) {
	f := &Form{
		modelKey:    modelKey,
		listURL:     listURL,
		cfg:         cfg,
		notifier:    notify.Discard,
		logger:      slog.New(slog.DiscardHandler),
		concurrency: 1,
		values:      make(map[string]any, len(cfg.Fields)),
		relations:   make(map[string]RelationState),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}

	for _, field := range f.editableFields() {
		f.values[field.Name] = field.DefaultValue()
	}

	if item != nil {
		id, ok := item.ID()
		if !ok {
			return nil, ErrMissingID
		}
		if issues := cfg.ValidateItem(item); len(issues) > 0 {
			return nil, &model.SchemaError{Model: cfg.ModelName, Issues: issues}
		}
		f.id = id
		for _, field := range f.editableFields() {
			if v, ok := item[field.Name]; ok && v != nil {
				f.values[field.Name] = overlayValue(field, v)
			}
		}
	}
	return f, nil
}

func overlayValue(field model.Field, v any) any {
	switch field.Widget {
	case model.WidgetForeignKey:
		if nested, ok := v.(map[string]any); ok {
			if id, ok := model.Item(nested).ID(); ok {
				return id
			}
		}
	case model.WidgetManyToMany:
		list, _ := v.([]any)
		out := make([]any, 0, len(list))
		for _, entry := range list {
			if nested, ok := entry.(map[string]any); ok {
				if id, ok := model.Item(nested).ID(); ok {
					out = append(out, id)
				}
				continue
			}
			out = append(out, entry)
		}
		return out
	}
	return v
}

// ModelKey returns the registry key of the model.
func (f *Form) ModelKey() string {
	return f.modelKey
}

// Config returns the model configuration the form was built from.
func (f *Form) Config() model.ModelConfig {
	return f.cfg
}

// Mode reports whether the form creates or edits.
func (f *Form) Mode() Mode {
	if f.id != "" {
		return ModeEdit
	}
	return ModeCreate
}

// ID returns the edited item's id, empty in create mode.
func (f *Form) ID() string {
	return f.id
}

// Layout returns the editable fields grouped for display. The id field and
// non-editable fields are excluded.
func (f *Form) Layout() Layout {
	layout := Layout{Translations: make(map[string][]model.Field)}
	for _, field := range f.cfg.Fields {
		if !field.Editable || field.IsIdentifier() {
			continue
		}
		if !field.IsTranslation {
			layout.Fields = append(layout.Fields, field)
			continue
		}
		if _, seen := layout.Translations[field.Language]; !seen {
			layout.Languages = append(layout.Languages, field.Language)
		}
		layout.Translations[field.Language] = append(layout.Translations[field.Language], field)
	}
	return layout
}

// editableFields returns every field the form submits.
func (f *Form) editableFields() []model.Field {
	out := make([]model.Field, 0, len(f.cfg.Fields))
	for _, field := range f.cfg.Fields {
		if field.Editable && !field.IsIdentifier() {
			out = append(out, field)
		}
	}
	return out
}

// Value returns the current value of a field.
func (f *Form) Value(name string) (any, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.values[name]
	return v, ok
}

// Values returns a copy of the current values.
func (f *Form) Values() map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]any, len(f.values))
	for k, v := range f.values {
		out[k] = v
	}
	return out
}

// SetValue records user input for a field and clears its error.
func (f *Form) SetValue(name string, value any) error {
	field, ok := f.cfg.Field(name)
	if !ok || !field.Editable || field.IsIdentifier() {
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}
	f.values[name] = value
	delete(f.fieldErrors, name)
	return nil
}

// FieldErrors returns the current field-local messages.
func (f *Form) FieldErrors() map[string][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string][]string, len(f.fieldErrors))
	for k, v := range f.fieldErrors {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// FormErrors returns messages not tied to a single field.
func (f *Form) FormErrors() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.formErrors...)
}

// Close abandons the form. Pending relation loads and submits no longer
// touch its state.
func (f *Form) Close() {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
}

// Closed reports whether Close was called.
func (f *Form) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}
