package widgets

import (
	"sort"
	"sync"

	"github.com/goliatone/go-modeladmin/pkg/model"
)

// Built-in matcher priorities. Custom matchers registered above
// PriorityRelationHint win over every built-in rule.
const (
	PriorityRelationHint = 100
	PriorityJSONField    = 90
	PriorityManyToMany   = 80
	PriorityExplicitHint = 70
	PriorityTypeFallback = 50
	PriorityChoices      = 40
	PriorityTextFallback = 0
)

// Matcher decides whether a widget should handle the supplied field.
type Matcher func(field model.Field) bool

type rule struct {
	widget   model.Widget
	priority int
	match    Matcher
	order    int
	// hint rules resolve to the field's own hint rather than a fixed widget.
	hint bool
}

// Registry selects widgets for fields. Higher priority wins; ties fall back to
// registration order. A field that already carries a widget keeps it.
type Registry struct {
	mu    sync.RWMutex
	rules []rule
}

// NewRegistry constructs a registry with the built-in matchers registered.
func NewRegistry() *Registry {
	reg := &Registry{}
	reg.registerBuiltins()
	return reg
}

// Register adds a matcher resolving to widget. Unknown widgets are ignored.
func (r *Registry) Register(widget model.Widget, priority int, matcher Matcher) {
	if r == nil || matcher == nil || !widget.Known() {
		return
	}
	r.add(rule{widget: widget, priority: priority, match: matcher})
}

func (r *Registry) add(entry rule) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry.order = len(r.rules)
	r.rules = append(r.rules, entry)
}

// Resolve returns the widget for a field.
func (r *Registry) Resolve(field model.Field) (model.Widget, bool) {
	if field.Widget.Known() {
		return field.Widget, true
	}
	if r == nil {
		return "", false
	}
	r.mu.RLock()
	if len(r.rules) == 0 {
		r.mu.RUnlock()
		return "", false
	}
	rules := append([]rule(nil), r.rules...)
	r.mu.RUnlock()
	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].priority == rules[j].priority {
			return rules[i].order < rules[j].order
		}
		return rules[i].priority > rules[j].priority
	})
	for _, entry := range rules {
		if !entry.match(field) {
			continue
		}
		if entry.hint {
			if w, ok := model.ParseWidget(field.Hint); ok {
				return w, true
			}
			continue
		}
		return entry.widget, true
	}
	return "", false
}

// Decorate implements model.Decorator, assigning a widget to every field
// that does not have one yet.
func (r *Registry) Decorate(cfg *model.ModelConfig) error {
	if r == nil || cfg == nil {
		return nil
	}
	for i := range cfg.Fields {
		if w, ok := r.Resolve(cfg.Fields[i]); ok {
			cfg.Fields[i].Widget = w
		}
	}
	return nil
}

func (r *Registry) registerBuiltins() {
	r.add(rule{priority: PriorityRelationHint, hint: true, match: func(f model.Field) bool {
		w, ok := model.ParseWidget(f.Hint)
		return ok && w.IsRelation() && f.Related != nil
	}})

	r.Register(model.WidgetJSON, PriorityJSONField, func(f model.Field) bool {
		return f.RawType == "JSONField"
	})

	r.Register(model.WidgetManyToMany, PriorityManyToMany, func(f model.Field) bool {
		return f.RawType == "ManyToManyField"
	})

	// A hint that contradicts a related model falls through to the type rules.
	r.add(rule{priority: PriorityExplicitHint, hint: true, match: func(f model.Field) bool {
		w, ok := model.ParseWidget(f.Hint)
		return ok && (f.Related == nil || w.IsRelation())
	}})

	r.Register(model.WidgetCheckbox, PriorityTypeFallback, func(f model.Field) bool {
		return f.Type == model.FieldTypeBoolean
	})
	r.Register(model.WidgetDate, PriorityTypeFallback, func(f model.Field) bool {
		return f.Type == model.FieldTypeDate
	})
	r.Register(model.WidgetDateTime, PriorityTypeFallback, func(f model.Field) bool {
		return f.Type == model.FieldTypeDateTime
	})
	r.Register(model.WidgetTextarea, PriorityTypeFallback, func(f model.Field) bool {
		return f.RawType == "TextField"
	})
	r.Register(model.WidgetForeignKey, PriorityTypeFallback, func(f model.Field) bool {
		return f.Type == model.FieldTypeRelation
	})
	r.Register(model.WidgetImage, PriorityTypeFallback, func(f model.Field) bool {
		return f.RawType == "ImageField"
	})
	r.Register(model.WidgetFile, PriorityTypeFallback, func(f model.Field) bool {
		return f.Type == model.FieldTypeFile
	})
	r.Register(model.WidgetSelect, PriorityChoices, func(f model.Field) bool {
		return len(f.Choices) > 0
	})

	r.Register(model.WidgetText, PriorityTextFallback, func(model.Field) bool {
		return true
	})
}
