package model

import "strings"

// FieldType is the coarse data category of a field, derived from its Django
// field class.
type FieldType string

const (
	FieldTypeText     FieldType = "text"
	FieldTypeNumber   FieldType = "number"
	FieldTypeDate     FieldType = "date"
	FieldTypeDateTime FieldType = "datetime"
	FieldTypeBoolean  FieldType = "boolean"
	FieldTypeJSON     FieldType = "json"
	FieldTypeRelation FieldType = "relation"
	FieldTypeFile     FieldType = "file"
)

var fieldTypesByClass = map[string]FieldType{
	"CharField":                 FieldTypeText,
	"SlugField":                 FieldTypeText,
	"EmailField":                FieldTypeText,
	"URLField":                  FieldTypeText,
	"TextField":                 FieldTypeText,
	"UUIDField":                 FieldTypeText,
	"GenericIPAddressField":     FieldTypeText,
	"IntegerField":              FieldTypeNumber,
	"BigIntegerField":           FieldTypeNumber,
	"SmallIntegerField":         FieldTypeNumber,
	"PositiveIntegerField":      FieldTypeNumber,
	"PositiveBigIntegerField":   FieldTypeNumber,
	"PositiveSmallIntegerField": FieldTypeNumber,
	"FloatField":                FieldTypeNumber,
	"DecimalField":              FieldTypeNumber,
	"AutoField":                 FieldTypeNumber,
	"BigAutoField":              FieldTypeNumber,
	"SmallAutoField":            FieldTypeNumber,
	"DateField":                 FieldTypeDate,
	"DateTimeField":             FieldTypeDateTime,
	"BooleanField":              FieldTypeBoolean,
	"NullBooleanField":          FieldTypeBoolean,
	"JSONField":                 FieldTypeJSON,
	"ForeignKey":                FieldTypeRelation,
	"OneToOneField":             FieldTypeRelation,
	"ManyToManyField":           FieldTypeRelation,
	"FileField":                 FieldTypeFile,
	"ImageField":                FieldTypeFile,
}

// FieldTypeOf maps a Django field class name onto a FieldType. Unknown
// classes are treated as text.
func FieldTypeOf(class string) FieldType {
	if ft, ok := fieldTypesByClass[strings.TrimSpace(class)]; ok {
		return ft
	}
	return FieldTypeText
}

// Widget identifies the input control used to edit a field. The set is
// closed; every method below is total over it.
type Widget string

const (
	WidgetText       Widget = "text_input"
	WidgetTextarea   Widget = "textarea"
	WidgetCheckbox   Widget = "checkbox"
	WidgetSelect     Widget = "select"
	WidgetDate       Widget = "date_picker"
	WidgetDateTime   Widget = "datetime_picker"
	WidgetForeignKey Widget = "foreignkey_select"
	WidgetManyToMany Widget = "manytomany_select"
	WidgetFile       Widget = "file_upload"
	WidgetImage      Widget = "image_upload"
	WidgetJSON       Widget = "json_editor"
)

// Widgets lists every known widget in a stable order.
func Widgets() []Widget {
	return []Widget{
		WidgetText,
		WidgetTextarea,
		WidgetCheckbox,
		WidgetSelect,
		WidgetDate,
		WidgetDateTime,
		WidgetForeignKey,
		WidgetManyToMany,
		WidgetFile,
		WidgetImage,
		WidgetJSON,
	}
}

// ParseWidget reports whether name is one of the known widget identifiers.
func ParseWidget(name string) (Widget, bool) {
	candidate := Widget(strings.TrimSpace(name))
	for _, w := range Widgets() {
		if w == candidate {
			return w, true
		}
	}
	return "", false
}

// Known reports whether w belongs to the closed widget set.
func (w Widget) Known() bool {
	_, ok := ParseWidget(string(w))
	return ok
}

// DefaultValue returns the initial form value for a field rendered with w.
// Each call returns a fresh value.
func (w Widget) DefaultValue() any {
	switch w {
	case WidgetCheckbox:
		return false
	case WidgetManyToMany:
		return []any{}
	case WidgetJSON:
		return nil
	case WidgetText, WidgetTextarea, WidgetSelect, WidgetDate, WidgetDateTime,
		WidgetForeignKey, WidgetFile, WidgetImage:
		return ""
	default:
		return ""
	}
}

// IsRelation reports whether the widget picks values from a related model.
func (w Widget) IsRelation() bool {
	return w == WidgetForeignKey || w == WidgetManyToMany
}

// IsMulti reports whether the widget holds a list of values.
func (w Widget) IsMulti() bool {
	return w == WidgetManyToMany
}

// AcceptsFile reports whether the widget uploads binary content.
func (w Widget) AcceptsFile() bool {
	return w == WidgetFile || w == WidgetImage
}

// WidgetForHint is the fallback used when no decorator resolved a widget:
// known hints are honoured, relation types without a hint get a foreign-key
// select and everything else is plain text input.
func WidgetForHint(hint string, ft FieldType) Widget {
	if w, ok := ParseWidget(hint); ok {
		return w
	}
	switch ft {
	case FieldTypeBoolean:
		return WidgetCheckbox
	case FieldTypeDate:
		return WidgetDate
	case FieldTypeDateTime:
		return WidgetDateTime
	case FieldTypeJSON:
		return WidgetJSON
	case FieldTypeRelation:
		return WidgetForeignKey
	case FieldTypeFile:
		return WidgetFile
	default:
		return WidgetText
	}
}
