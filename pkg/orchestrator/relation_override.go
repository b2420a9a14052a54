package orchestrator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-modeladmin/pkg/model"
)

// RelationOverride supplies the related endpoint of a field whose metadata
// lacks one, for example a plain integer column that stores a user id.
type RelationOverride struct {
	// Model is the backend model name ("task").
	Model string
	Field string
	// APIURL is the related list endpoint ("/api/users/").
	APIURL    string
	AppLabel  string
	ModelName string
	// Many selects the many-to-many widget instead of a foreign key select.
	Many bool
}

func validateRelationOverride(o RelationOverride) error {
	if strings.TrimSpace(o.Model) == "" {
		return errors.New("orchestrator: relation override missing model")
	}
	if strings.TrimSpace(o.Field) == "" {
		return fmt.Errorf("orchestrator: relation override for %s missing field", o.Model)
	}
	if strings.TrimSpace(o.APIURL) == "" {
		return fmt.Errorf("orchestrator: relation override %s.%s missing api url", o.Model, o.Field)
	}
	return nil
}

// relationOverrides is a model.Decorator. It only fills fields that have no
// endpoint; backend metadata wins otherwise.
type relationOverrides map[string][]RelationOverride

func (r relationOverrides) Decorate(cfg *model.ModelConfig) error {
	for _, o := range r[cfg.ModelName] {
		for i := range cfg.Fields {
			field := &cfg.Fields[i]
			if field.Name != o.Field || field.HasEndpoint() {
				continue
			}
			related := model.RelatedModel{APIURL: o.APIURL, AppLabel: o.AppLabel, ModelName: o.ModelName}
			if field.Related != nil {
				if related.AppLabel == "" {
					related.AppLabel = field.Related.AppLabel
				}
				if related.ModelName == "" {
					related.ModelName = field.Related.ModelName
				}
			}
			field.Related = &related
			if !field.Widget.IsRelation() {
				field.Widget = model.WidgetForeignKey
				if o.Many {
					field.Widget = model.WidgetManyToMany
				}
			}
		}
	}
	return nil
}
