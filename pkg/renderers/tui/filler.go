package tui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-modeladmin/pkg/form"
	"github.com/goliatone/go-modeladmin/pkg/model"
	"github.com/goliatone/go-modeladmin/pkg/render"
)

var errRequired = errors.New(form.RequiredMessage)

// NoneOption is offered by optional single selects to clear the value.
const NoneOption = "(none)"

// FileReader loads a file picked for an upload field.
type FileReader func(path string) ([]byte, error)

// Option configures a Filler.
type Option func(*Filler)

// WithPromptDriver overrides the survey driver.
func WithPromptDriver(driver PromptDriver) Option {
	return func(f *Filler) {
		if driver != nil {
			f.driver = driver
		}
	}
}

// WithFileReader overrides os.ReadFile for upload fields.
func WithFileReader(read FileReader) Option {
	return func(f *Filler) {
		if read != nil {
			f.readFile = read
		}
	}
}

// WithPageSize sets how many options select prompts show at once.
func WithPageSize(n int) Option {
	return func(f *Filler) {
		f.pageSize = n
	}
}

// Filler prompts for form values.
type Filler struct {
	driver   PromptDriver
	readFile FileReader
	pageSize int
}

// NewFiller returns a Filler backed by the survey driver unless overridden.
func NewFiller(opts ...Option) *Filler {
	f := &Filler{
		driver:   NewSurveyDriver(nil),
		readFile: os.ReadFile,
		pageSize: 10,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

// Driver returns the prompt driver in use.
func (f *Filler) Driver() PromptDriver {
	return f.driver
}

// Fill prompts for every editable field: base fields first, then each
// translation language in turn.
func (f *Filler) Fill(ctx context.Context, fm *form.Form) error {
	layout := fm.Layout()
	for _, field := range layout.Fields {
		if err := f.FillField(ctx, fm, field); err != nil {
			return err
		}
	}
	for _, lang := range layout.Languages {
		if err := f.driver.Info(ctx, "Translations: "+lang); err != nil {
			return err
		}
		for _, field := range layout.Translations[lang] {
			if err := f.FillField(ctx, fm, field); err != nil {
				return err
			}
		}
	}
	return nil
}

// FillErrors shows form-level errors and prompts again for each field that
// carries an error, in declaration order.
func (f *Filler) FillErrors(ctx context.Context, fm *form.Form) error {
	for _, msg := range fm.FormErrors() {
		if err := f.driver.Info(ctx, "Error: "+msg); err != nil {
			return err
		}
	}
	errs := fm.FieldErrors()
	for _, field := range fm.Config().Fields {
		if _, ok := errs[field.Name]; !ok {
			continue
		}
		if err := f.FillField(ctx, fm, field); err != nil {
			return err
		}
	}
	return nil
}

// FillField prompts for one field according to its widget and stores the
// answer in the form.
func (f *Filler) FillField(ctx context.Context, fm *form.Form, field model.Field) error {
	for _, msg := range fm.FieldErrors()[field.Name] {
		if err := f.driver.Info(ctx, fmt.Sprintf("%s: %s", promptLabel(field), msg)); err != nil {
			return err
		}
	}
	current, _ := fm.Value(field.Name)

	var (
		value any
		skip  bool
		err   error
	)
	switch field.Widget {
	case model.WidgetCheckbox:
		value, err = f.driver.Confirm(ctx, ConfirmConfig{
			Message: promptLabel(field),
			Default: current == true,
			Help:    help(field),
		})
	case model.WidgetSelect:
		value, err = f.selectChoice(ctx, field, toChoices(field.Choices), current)
	case model.WidgetForeignKey:
		value, err = f.selectRelated(ctx, fm, field, current)
	case model.WidgetManyToMany:
		value, err = f.selectMany(ctx, fm, field, current)
	case model.WidgetTextarea:
		value, err = f.driver.TextArea(ctx, TextAreaConfig{
			Message: promptLabel(field),
			Default: model.StringValue(current),
			Help:    help(field),
		})
	case model.WidgetJSON:
		value, err = f.promptJSON(ctx, field, current)
	case model.WidgetFile, model.WidgetImage:
		value, skip, err = f.promptFile(ctx, field)
	case model.WidgetDate:
		value, err = f.input(ctx, field, current, dateValidator(field, time.DateOnly))
	case model.WidgetDateTime:
		value, err = f.input(ctx, field, current, dateValidator(field, time.RFC3339, "2006-01-02T15:04", "2006-01-02 15:04"))
	default:
		if field.Type == model.FieldTypeNumber {
			value, err = f.promptNumber(ctx, field, current)
		} else {
			value, err = f.input(ctx, field, current, requiredValidator(field))
		}
	}
	if err != nil {
		return err
	}
	if skip {
		return nil
	}
	return fm.SetValue(field.Name, value)
}

func (f *Filler) input(ctx context.Context, field model.Field, current any, validate func(string) error) (string, error) {
	cfg := InputConfig{
		Message:   promptLabel(field),
		Default:   model.StringValue(current),
		Help:      help(field),
		Validator: validate,
	}
	if isSecret(field) {
		cfg.Default = ""
		return f.driver.Password(ctx, cfg)
	}
	return f.driver.Input(ctx, cfg)
}

func (f *Filler) promptNumber(ctx context.Context, field model.Field, current any) (any, error) {
	answer, err := f.input(ctx, field, current, func(s string) error {
		s = strings.TrimSpace(s)
		if s == "" {
			if field.Required {
				return errRequired
			}
			return nil
		}
		if _, err := strconv.ParseFloat(s, 64); err != nil {
			return errors.New("enter a number")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return parseNumber(answer), nil
}

// parseNumber keeps integers integral in the JSON payload. Blank input stays
// an empty string, the text default.
func parseNumber(s string) any {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v
	}
	return s
}

func (f *Filler) promptJSON(ctx context.Context, field model.Field, current any) (any, error) {
	def := ""
	if current != nil {
		if raw, err := json.MarshalIndent(current, "", "  "); err == nil {
			def = string(raw)
		}
	}
	for {
		answer, err := f.driver.TextArea(ctx, TextAreaConfig{
			Message: promptLabel(field),
			Default: def,
			Help:    help(field),
		})
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(answer) == "" {
			if field.Required {
				if err := f.driver.Info(ctx, promptLabel(field)+": "+form.RequiredMessage); err != nil {
					return nil, err
				}
				continue
			}
			return nil, nil
		}
		var v any
		if err := json.Unmarshal([]byte(answer), &v); err != nil {
			if err := f.driver.Info(ctx, fmt.Sprintf("%s: invalid JSON: %v", promptLabel(field), err)); err != nil {
				return nil, err
			}
			def = answer
			continue
		}
		return v, nil
	}
}

// promptFile asks for a path. A blank answer keeps the current file, which
// the form leaves out of the payload.
func (f *Filler) promptFile(ctx context.Context, field model.Field) (any, bool, error) {
	for {
		path, err := f.driver.Input(ctx, InputConfig{
			Message: promptLabel(field) + " (path, blank to skip)",
			Help:    help(field),
		})
		if err != nil {
			return nil, false, err
		}
		path = strings.TrimSpace(path)
		if path == "" {
			return nil, true, nil
		}
		content, err := f.readFile(path)
		if err != nil {
			if err := f.driver.Info(ctx, fmt.Sprintf("%s: %v", promptLabel(field), err)); err != nil {
				return nil, false, err
			}
			continue
		}
		return form.File{
			Filename:    filepath.Base(path),
			ContentType: contentType(path, content),
			Content:     content,
		}, false, nil
	}
}

func contentType(path string, content []byte) string {
	if ct := mime.TypeByExtension(filepath.Ext(path)); ct != "" {
		return ct
	}
	return http.DetectContentType(content)
}

func (f *Filler) selectChoice(ctx context.Context, field model.Field, choices []form.Choice, current any) (string, error) {
	options := make([]string, 0, len(choices)+1)
	values := make([]string, 0, len(choices)+1)
	if !field.Required {
		options = append(options, NoneOption)
		values = append(values, "")
	}
	selected := model.StringValue(current)
	def := 0
	for _, choice := range choices {
		if choice.Value == selected && selected != "" {
			def = len(options)
		}
		options = append(options, choice.Label)
		values = append(values, choice.Value)
	}
	if len(choices) == 0 {
		return "", fmt.Errorf("%w for %s", ErrNoOptions, field.Name)
	}

	idx, err := f.driver.Select(ctx, SelectConfig{
		Message:      promptLabel(field),
		Options:      options,
		DefaultIndex: def,
		Help:         help(field),
		PageSize:     f.pageSize,
	})
	if err != nil {
		return "", err
	}
	if idx < 0 || idx >= len(values) {
		return "", fmt.Errorf("tui: selection %d out of range", idx)
	}
	return values[idx], nil
}

// relationState waits for options still loading in the background. Only a
// cancelled ctx is an error; a failed load falls back to typed ids.
func relationState(ctx context.Context, fm *form.Form, name string) (form.RelationState, error) {
	state, _ := fm.Relation(name)
	if state.Status != form.RelationPending {
		return state, nil
	}
	if err := fm.WaitRelations(ctx); err != nil && ctx.Err() != nil {
		return form.RelationState{}, ctx.Err()
	}
	state, _ = fm.Relation(name)
	return state, nil
}

// selectRelated offers the loaded related items. When options could not be
// loaded the id is typed instead.
func (f *Filler) selectRelated(ctx context.Context, fm *form.Form, field model.Field, current any) (any, error) {
	state, err := relationState(ctx, fm, field.Name)
	if err != nil {
		return nil, err
	}
	if state.Status != form.RelationReady || len(state.Options) == 0 {
		return f.input(ctx, field, current, requiredValidator(field))
	}
	return f.selectChoice(ctx, field, state.Options, current)
}

func (f *Filler) selectMany(ctx context.Context, fm *form.Form, field model.Field, current any) (any, error) {
	state, err := relationState(ctx, fm, field.Name)
	if err != nil {
		return nil, err
	}
	if state.Status != form.RelationReady {
		answer, err := f.input(ctx, field, joinIDs(current), requiredValidator(field))
		if err != nil {
			return nil, err
		}
		return splitIDs(answer), nil
	}

	chosen := make(map[string]bool)
	if list, ok := current.([]any); ok {
		for _, v := range list {
			chosen[model.StringValue(v)] = true
		}
	}
	options := make([]string, len(state.Options))
	var defaults []int
	for i, opt := range state.Options {
		options[i] = opt.Label
		if chosen[opt.Value] {
			defaults = append(defaults, i)
		}
	}
	for {
		indices, err := f.driver.MultiSelect(ctx, SelectConfig{
			Message:  promptLabel(field),
			Options:  options,
			Defaults: defaults,
			Help:     help(field),
			PageSize: f.pageSize,
		})
		if err != nil {
			return nil, err
		}
		if field.Required && len(indices) == 0 {
			if err := f.driver.Info(ctx, promptLabel(field)+": "+form.RequiredMessage); err != nil {
				return nil, err
			}
			continue
		}
		out := make([]any, 0, len(indices))
		for _, idx := range indices {
			if idx >= 0 && idx < len(state.Options) {
				out = append(out, state.Options[idx].Value)
			}
		}
		return out, nil
	}
}

func joinIDs(v any) string {
	list, _ := v.([]any)
	parts := make([]string, 0, len(list))
	for _, entry := range list {
		parts = append(parts, model.StringValue(entry))
	}
	return strings.Join(parts, ",")
}

func splitIDs(s string) []any {
	out := []any{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func toChoices(in []model.Choice) []form.Choice {
	out := make([]form.Choice, len(in))
	for i, c := range in {
		out[i] = form.Choice{Value: c.Value, Label: render.PlainText(c.Label)}
	}
	return out
}

func promptLabel(field model.Field) string {
	label := render.PlainText(field.Label)
	if label == "" {
		label = model.DefaultLabeler(field.Name)
	}
	if field.IsTranslation && field.Language != "" {
		label = fmt.Sprintf("%s (%s)", label, field.Language)
	}
	if field.Required {
		label += " *"
	}
	return label
}

func help(field model.Field) string {
	return render.PlainText(field.HelpText)
}

func isSecret(field model.Field) bool {
	return strings.Contains(strings.ToLower(field.Name), "password")
}

func requiredValidator(field model.Field) func(string) error {
	if !field.Required {
		return nil
	}
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return errRequired
		}
		return nil
	}
}

func dateValidator(field model.Field, layouts ...string) func(string) error {
	required := requiredValidator(field)
	return func(s string) error {
		s = strings.TrimSpace(s)
		if s == "" {
			if required != nil {
				return required(s)
			}
			return nil
		}
		for _, layout := range layouts {
			if _, err := time.Parse(layout, s); err == nil {
				return nil
			}
		}
		return fmt.Errorf("expected format %s", layouts[0])
	}
}
