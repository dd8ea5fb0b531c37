package fields

import (
	"context"

	"github.com/goliatone/go-formbind/pkg/binding"
	"github.com/goliatone/go-formbind/pkg/schema"
)

// Select label and value paths inside widget choices.
const (
	SelectLabelPath = "display"
	SelectValuePath = "value"
)

// Select binds one control whose options come from the widget choices.
type Select struct {
	*Field
}

// NewSelect constructs a select controller.
func NewSelect(desc schema.FieldDescriptor, cfg Config) *Select {
	field := NewField(desc, cfg)
	field.kind = KindSelect
	return &Select{Field: field}
}

// Bindings returns the single select entry.
func (s *Select) Bindings(binding.Model) binding.Map {
	options := s.selectOptions()
	return binding.Map{
		binding.Selector(s.desc.Key): {
			Observe:       s.desc.Binding,
			SelectOptions: &options,
		},
	}
}

// Render delegates to the templating collaborator with resolved options.
func (s *Select) Render(ctx context.Context, templates Templates) (string, error) {
	return s.render(ctx, templates, s.Context())
}

// Context returns the template context including resolved options.
func (s *Select) Context() FieldContext {
	fieldCtx := s.Field.Context()
	fieldCtx.Options = s.selectOptions().Options()
	return fieldCtx
}

func (s *Select) selectOptions() binding.SelectOptions {
	collection := make([]map[string]any, 0, len(s.desc.Widget.Choices))
	for _, choice := range s.desc.Widget.Choices {
		collection = append(collection, map[string]any{
			SelectLabelPath: choice.Display,
			SelectValuePath: choice.Value,
		})
	}
	return binding.SelectOptions{
		Collection: collection,
		LabelPath:  SelectLabelPath,
		ValuePath:  SelectValuePath,
	}
}
