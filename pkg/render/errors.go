package render

import (
	"sort"
	"strconv"
	"strings"

	"github.com/goliatone/go-modeladmin/pkg/model"
)

// ErrorMapping splits a Django REST error payload into field-level and
// form-level messages.
type ErrorMapping struct {
	Fields map[string][]string
	Form   []string
}

// HasErrors reports whether any message was mapped.
func (m ErrorMapping) HasErrors() bool {
	return len(m.Fields) > 0 || len(m.Form) > 0
}

// MergeFormErrors concatenates form-level messages, trimming whitespace and
// dropping duplicates while preserving order.
func MergeFormErrors(existing []string, extras ...string) []string {
	combined := make([]string, 0, len(existing)+len(extras))
	combined = append(combined, existing...)
	combined = append(combined, extras...)
	return normalizeMessages(combined)
}

// MapErrorPayload assigns backend error messages to the fields of cfg.
// Nested keys ("tags.0", "tags[1]") collapse onto their top-level field;
// non_field_errors, __all__, detail and unknown keys are form level so no
// message is lost.
func MapErrorPayload(cfg model.ModelConfig, payload map[string][]string) ErrorMapping {
	mapping := ErrorMapping{Fields: make(map[string][]string)}
	if len(payload) == 0 {
		mapping.Fields = nil
		return mapping
	}

	known := make(map[string]struct{}, len(cfg.Fields))
	for _, f := range cfg.Fields {
		known[f.Name] = struct{}{}
	}

	for _, key := range sortedKeys(payload) {
		messages := normalizeMessages(payload[key])
		if len(messages) == 0 {
			continue
		}
		name, ok := fieldForKey(key, known)
		if !ok {
			mapping.Form = append(mapping.Form, messages...)
			continue
		}
		mapping.Fields[name] = append(mapping.Fields[name], messages...)
	}

	if len(mapping.Fields) == 0 {
		mapping.Fields = nil
	}
	mapping.Form = normalizeMessages(mapping.Form)
	return mapping
}

func fieldForKey(raw string, known map[string]struct{}) (string, bool) {
	key := strings.TrimSpace(raw)
	if isFormLevelKey(key) {
		return "", false
	}
	if _, ok := known[key]; ok {
		return key, true
	}
	segments := strings.FieldsFunc(strings.NewReplacer("[", ".", "]", "").Replace(key), func(r rune) bool {
		return r == '.' || r == '/'
	})
	for end := len(segments); end > 0; end-- {
		if _, err := strconv.Atoi(segments[end-1]); err == nil {
			continue
		}
		candidate := strings.Join(segments[:end], ".")
		if _, ok := known[candidate]; ok {
			return candidate, true
		}
	}
	return "", false
}

func isFormLevelKey(key string) bool {
	switch strings.ToLower(key) {
	case "", "__all__", "non_field_errors", "detail":
		return true
	default:
		return false
	}
}

func normalizeMessages(messages []string) []string {
	out := make([]string, 0, len(messages))
	seen := make(map[string]struct{}, len(messages))
	for _, message := range messages {
		trimmed := strings.TrimSpace(message)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
