package render

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-formbind/pkg/binding"
	"github.com/goliatone/go-formbind/pkg/fields"
	"github.com/goliatone/go-formbind/pkg/schema"
)

// fieldTemplates implements fields.Templates for one render pass. lookup
// reads current values; nil means descriptor initials only.
type fieldTemplates struct {
	html   *HTML
	lookup func(desc schema.FieldDescriptor) (any, bool)
}

var _ fields.Templates = fieldTemplates{}

type optionView struct {
	Label    string `json:"label"`
	Value    string `json:"value"`
	Selected bool   `json:"selected"`
}

type partView struct {
	Name    string       `json:"name"`
	Anchor  string       `json:"anchor"`
	Options []optionView `json:"options"`
}

func (t fieldTemplates) RenderField(_ context.Context, field fields.FieldContext) (string, error) {
	value := t.value(field.Field)

	errorsHTML, err := t.html.errorRegion(field.Field.Key, field.Errors)
	if err != nil {
		return "", err
	}

	view := map[string]any{
		"field":  field.Field,
		"kind":   string(field.Kind),
		"anchor": firstAnchor(field),
		"value":  displayValue(value),
	}
	if help := strings.TrimSpace(field.Field.HelpText); help != "" {
		view["help_text"] = t.html.policy.Sanitize(help)
	}

	var widgetKey string
	switch field.Kind {
	case fields.KindSelect:
		widgetKey = PartialSelect
		view["options"] = optionViews(field.Options, value)
	case fields.KindDate:
		widgetKey = PartialDate
		view["parts"] = partViews(field.Parts, value)
	default:
		widgetKey = widgetPartial(field.Field.Widget.InputType)
		view["checked"] = isChecked(value)
	}

	widget, err := t.html.partial(widgetKey, view)
	if err != nil {
		return "", err
	}
	view["widget"] = widget
	view["errors"] = errorsHTML
	return t.html.partial(PartialField, view)
}

func (t fieldTemplates) RenderErrors(_ context.Context, field fields.FieldContext) (string, error) {
	return t.html.errorRegion(field.Field.Key, field.Errors)
}

func (t fieldTemplates) value(desc schema.FieldDescriptor) any {
	if t.lookup != nil {
		if value, ok := t.lookup(desc); ok && value != nil {
			return value
		}
	}
	return desc.Initial
}

func widgetPartial(inputType schema.InputType) string {
	switch inputType {
	case schema.InputTextarea:
		return PartialTextarea
	case schema.InputCheckbox:
		return PartialCheckbox
	default:
		return PartialInput
	}
}

func firstAnchor(field fields.FieldContext) string {
	if len(field.Anchors) > 0 {
		return field.Anchors[0]
	}
	return field.Field.Key
}

func displayValue(value any) string {
	if value == nil {
		return ""
	}
	if b, ok := value.(bool); ok && !b {
		return ""
	}
	return fmt.Sprint(value)
}

func isChecked(value any) bool {
	switch typed := value.(type) {
	case bool:
		return typed
	case string:
		switch strings.ToLower(strings.TrimSpace(typed)) {
		case "on", "true", "1", "yes":
			return true
		}
	}
	return false
}

func optionViews(options []binding.Option, current any) []optionView {
	selected := displayValue(current)
	out := make([]optionView, 0, len(options))
	for _, option := range options {
		value := displayValue(option.Value)
		out = append(out, optionView{
			Label:    option.Label,
			Value:    value,
			Selected: selected != "" && value == selected,
		})
	}
	return out
}

// partViews marks the selected option of each date part from the stored
// value, falling back to the controller's local part state.
func partViews(parts []fields.DatePartContext, stored any) []partView {
	state := fields.ParseDateState(stored)
	out := make([]partView, 0, len(parts))
	for _, part := range parts {
		current := part.Value
		if datePart, ok := datePartNamed(part.Name); ok {
			if value, ok := state.Part(datePart); ok {
				current = value
			}
		}
		out = append(out, partView{
			Name:    part.Name,
			Anchor:  part.Anchor,
			Options: optionViews(part.Options, current),
		})
	}
	return out
}

func datePartNamed(name string) (fields.DatePart, bool) {
	for _, part := range []fields.DatePart{fields.PartYear, fields.PartMonth, fields.PartDay} {
		if part.String() == name {
			return part, true
		}
	}
	return 0, false
}
