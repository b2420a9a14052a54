package form

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/goliatone/go-modeladmin/pkg/catalog"
	"github.com/goliatone/go-modeladmin/pkg/client"
	"github.com/goliatone/go-modeladmin/pkg/model"
	"github.com/goliatone/go-modeladmin/pkg/notify"
	"github.com/goliatone/go-modeladmin/pkg/render"
)

// ItemWriter persists items. *client.Client satisfies it.
type ItemWriter interface {
	CreateItem(ctx context.Context, listURL string, body client.Body) (model.Item, error)
	UpdateItem(ctx context.Context, listURL, id string, body client.Body) (model.Item, error)
}

// Validate checks required fields without contacting the backend. Found
// problems replace the current field errors.
func (f *Form) Validate() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	errs := make(map[string][]string)
	for _, field := range f.editableFields() {
		if !field.Required {
			continue
		}
		if isEmpty(f.values[field.Name]) {
			errs[field.Name] = []string{RequiredMessage}
		}
	}
	f.fieldErrors = errs
	if len(errs) > 0 {
		return &ValidationError{Fields: copyErrors(errs)}
	}
	return nil
}

func isEmpty(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	case []any:
		return len(val) == 0
	case []string:
		return len(val) == 0
	case File:
		return len(val.Content) == 0 && val.Filename == ""
	case *File:
		return val == nil
	default:
		return false
	}
}

func copyErrors(in map[string][]string) map[string][]string {
	out := make(map[string][]string, len(in))
	for k, v := range in {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// Payload encodes the current values. Any new File switches the whole body
// to multipart; otherwise it is JSON.
func (f *Form) Payload() (client.Body, error) {
	f.mu.Lock()
	values := make(map[string]any, len(f.values))
	for k, v := range f.values {
		values[k] = v
	}
	f.mu.Unlock()

	fields := f.editableFields()
	hasFile := false
	for _, field := range fields {
		if _, ok := asFile(values[field.Name]); ok {
			hasFile = true
			break
		}
	}
	if hasFile {
		return multipartPayload(fields, values)
	}
	return jsonPayload(fields, values), nil
}

func asFile(v any) (File, bool) {
	switch val := v.(type) {
	case File:
		return val, true
	case *File:
		if val != nil {
			return *val, true
		}
	}
	return File{}, false
}

func jsonPayload(fields []model.Field, values map[string]any) client.Body {
	body := make(map[string]any, len(fields))
	for _, field := range fields {
		v := values[field.Name]
		if field.Widget.AcceptsFile() {
			// Existing uploads are URLs; only new files are sent.
			continue
		}
		if field.Widget == model.WidgetForeignKey && v == "" {
			v = nil
		}
		body[field.Name] = v
	}
	return client.JSON(body)
}

func multipartPayload(fields []model.Field, values map[string]any) (client.Body, error) {
	body := client.NewMultipart()
	for _, field := range fields {
		v := values[field.Name]
		if file, ok := asFile(v); ok {
			body.AddFile(field.Name, file.Filename, file.ContentType, file.Content)
			continue
		}
		if field.Widget.AcceptsFile() || v == nil {
			continue
		}
		switch val := v.(type) {
		case []any:
			for _, entry := range val {
				body.Add(field.Name, model.StringValue(entry))
			}
		case []string:
			for _, entry := range val {
				body.Add(field.Name, entry)
			}
		case bool:
			body.Add(field.Name, strconv.FormatBool(val))
		case map[string]any:
			data, err := json.Marshal(val)
			if err != nil {
				return nil, fmt.Errorf("form: encode %s: %w", field.Name, err)
			}
			body.Add(field.Name, string(data))
		default:
			body.Add(field.Name, model.StringValue(val))
		}
	}
	return body, nil
}

// Submit validates and saves the form: a create without an id, a PATCH with
// one. On success it notifies, invalidates the model's list and the admin
// registry, and navigates to the list. On failure the entered values stay
// and backend field errors are attached to their fields.
func (f *Form) Submit(ctx context.Context, w ItemWriter) (model.Item, error) {
	f.mu.Lock()
	switch {
	case f.closed:
		f.mu.Unlock()
		return nil, ErrClosed
	case f.submitting:
		f.mu.Unlock()
		return nil, ErrSubmitting
	}
	f.submitting = true
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		f.submitting = false
		f.mu.Unlock()
	}()

	if err := f.Validate(); err != nil {
		return nil, err
	}
	body, err := f.Payload()
	if err != nil {
		return nil, err
	}

	var (
		saved   model.Item
		message string
	)
	if f.id == "" {
		saved, err = w.CreateItem(ctx, f.listURL, body)
		message = "Item created successfully."
	} else {
		saved, err = w.UpdateItem(ctx, f.listURL, f.id, body)
		message = "Item updated successfully."
	}

	if f.Closed() {
		return saved, err
	}
	if err != nil {
		f.applyServerErrors(err)
		f.logger.WarnContext(ctx, "submit failed", "model", f.modelKey, "id", f.id, "error", err)
		f.notifier.Notify(ctx, notify.Error(err.Error()))
		return nil, err
	}

	f.logger.InfoContext(ctx, "item saved", "model", f.modelKey, "mode", f.Mode())
	f.notifier.Notify(ctx, notify.Success(message))
	if f.invalidator != nil {
		f.invalidator.Invalidate(catalog.ItemsKey(f.modelKey), catalog.AdminConfigKey)
	}
	if f.navigator != nil {
		f.navigator.ToList(ctx, f.modelKey)
	}
	return saved, nil
}

func (f *Form) applyServerErrors(err error) {
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		return
	}
	mapping := render.MapErrorPayload(f.cfg, apiErr.Fields)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fieldErrors = mapping.Fields
	f.formErrors = mapping.Form
}
