package orchestrator

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-modeladmin/pkg/model"
)

// Preset applies local overrides on top of backend model configurations.
// Documents are YAML (JSON works too) keyed by the backend model name:
//
//	models:
//	  task:
//	    list_display: [id, title, done]
//	    fields:
//	      title: {label: Task title, widget: textarea}
//	      internal_code: {hidden: true}
//
// Fields that no longer exist on the backend are skipped.
type Preset struct {
	models map[string]modelPatch
}

type presetDocument struct {
	Models map[string]modelPatch `yaml:"models"`
}

type modelPatch struct {
	VerboseName string                `yaml:"verbose_name"`
	ListDisplay []string              `yaml:"list_display"`
	Ordering    []string              `yaml:"ordering"`
	Fields      map[string]fieldPatch `yaml:"fields"`
}

type fieldPatch struct {
	Label    string `yaml:"label"`
	HelpText string `yaml:"help_text"`
	Widget   string `yaml:"widget"`
	Required *bool  `yaml:"required"`
	// Hidden drops the field from forms by marking it read-only.
	Hidden bool `yaml:"hidden"`
}

// NewPreset parses a preset document. Unknown widget names are rejected.
func NewPreset(data []byte) (*Preset, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("orchestrator: preset document is empty")
	}
	var doc presetDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("orchestrator: parse preset: %w", err)
	}
	var issues []string
	for modelName, patch := range doc.Models {
		for fieldName, fp := range patch.Fields {
			if fp.Widget == "" {
				continue
			}
			if _, ok := model.ParseWidget(fp.Widget); !ok {
				issues = append(issues, fmt.Sprintf("%s.%s: unknown widget %q", modelName, fieldName, fp.Widget))
			}
		}
	}
	if len(issues) > 0 {
		return nil, fmt.Errorf("orchestrator: preset: %s", strings.Join(issues, "; "))
	}
	return &Preset{models: doc.Models}, nil
}

// LoadPreset reads a preset document from fsys.
func LoadPreset(fsys fs.FS, path string) (*Preset, error) {
	if fsys == nil {
		return nil, errors.New("orchestrator: preset filesystem is nil")
	}
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: read preset %s: %w", path, err)
	}
	return NewPreset(data)
}

// Decorate implements model.Decorator.
func (p *Preset) Decorate(cfg *model.ModelConfig) error {
	if p == nil || cfg == nil {
		return nil
	}
	patch, ok := p.models[cfg.ModelName]
	if !ok {
		return nil
	}
	if patch.VerboseName != "" {
		cfg.VerboseName = patch.VerboseName
	}
	if len(patch.ListDisplay) > 0 {
		cfg.Admin.ListDisplay = append([]string(nil), patch.ListDisplay...)
	}
	if len(patch.Ordering) > 0 {
		cfg.Admin.Ordering = append([]string(nil), patch.Ordering...)
	}
	for i := range cfg.Fields {
		fp, ok := patch.Fields[cfg.Fields[i].Name]
		if !ok {
			continue
		}
		applyFieldPatch(&cfg.Fields[i], fp)
	}
	return nil
}

func applyFieldPatch(field *model.Field, patch fieldPatch) {
	if patch.Label != "" {
		field.Label = patch.Label
	}
	if patch.HelpText != "" {
		field.HelpText = patch.HelpText
	}
	if patch.Widget != "" {
		widget, _ := model.ParseWidget(patch.Widget)
		field.Widget = widget
	}
	if patch.Required != nil {
		field.Required = *patch.Required
	}
	if patch.Hidden {
		field.Editable = false
	}
}
