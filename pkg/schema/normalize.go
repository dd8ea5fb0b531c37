package schema

import (
	"strings"
	"unicode"
)

// Normalize returns a deep copy of raw where every descriptor carries its
// resolved key and binding. The caller's schema is never modified. A schema
// without fields fails with *SchemaError.
//
// Binding resolution happens here and only here: the widget attribute
// BindingAttr wins, otherwise the descriptor title is used. Descriptors that
// already carry a binding (a schema normalized earlier) keep it.
func Normalize(raw Schema) (Schema, error) {
	if raw.Fields.Len() == 0 {
		return Schema{}, &SchemaError{Reason: "form requires at least one field"}
	}

	out := raw.clone()
	for _, key := range out.Fields.keys {
		field := out.Fields.items[key]
		field.Key = key
		if strings.TrimSpace(field.Binding) == "" {
			field.Binding = resolveBinding(key, field)
		}
		if !field.Widget.InputType.Valid() {
			field.Widget.InputType = InputText
		}
		if strings.TrimSpace(field.Label) == "" {
			field.Label = humanize(firstNonEmpty(field.Title, key))
		}
		if field.ErrorMessages == nil {
			field.ErrorMessages = map[string]string{}
		}
		out.Fields.items[key] = field
	}
	return out, nil
}

func resolveBinding(key string, field FieldDescriptor) string {
	if override, ok := field.Widget.BindingOverride(); ok {
		return override
	}
	if title := strings.TrimSpace(field.Title); title != "" {
		return title
	}
	return key
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func humanize(name string) string {
	name = strings.NewReplacer("_", " ", "-", " ").Replace(name)
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return ""
	}
	runes := []rune(name)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// Clone returns a deep copy of the schema.
func (s Schema) Clone() Schema {
	return s.clone()
}

func (s Schema) clone() Schema {
	out := Schema{
		Title:  s.Title,
		Fields: s.Fields.clone(),
		Errors: s.Errors.clone(),
	}
	if s.Fieldsets != nil {
		out.Fieldsets = make([]Fieldset, len(s.Fieldsets))
		for idx, fieldset := range s.Fieldsets {
			fieldset.Fields = append([]string(nil), fieldset.Fields...)
			out.Fieldsets[idx] = fieldset
		}
	}
	return out
}

func (f FieldDescriptor) clone() FieldDescriptor {
	out := f
	if f.MinLength != nil {
		value := *f.MinLength
		out.MinLength = &value
	}
	if f.MaxLength != nil {
		value := *f.MaxLength
		out.MaxLength = &value
	}
	if f.ErrorMessages != nil {
		out.ErrorMessages = make(map[string]string, len(f.ErrorMessages))
		for kind, message := range f.ErrorMessages {
			out.ErrorMessages[kind] = message
		}
	}
	out.Widget = f.Widget.clone()
	return out
}

func (w Widget) clone() Widget {
	out := w
	if w.Choices != nil {
		out.Choices = make([]Choice, len(w.Choices))
		for idx, choice := range w.Choices {
			choice.Data = append([]ChoiceOption(nil), choice.Data...)
			out.Choices[idx] = choice
		}
	}
	if w.Attrs != nil {
		out.Attrs = make(map[string]any, len(w.Attrs))
		for key, value := range w.Attrs {
			out.Attrs[key] = value
		}
	}
	return out
}
