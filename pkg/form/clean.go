package form

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-formbind/pkg/fields"
	"github.com/goliatone/go-formbind/pkg/schema"
)

// Clean extracts the submission payload from the current control values, in
// schema field order. Unchecked checkboxes and controls without a value are
// left out. A registered clean hook replaces its field's value and sees the
// data extracted up to and including that field.
//
// Without a control reader the bound model supplies the values instead.
func (f *Form) Clean() map[string]any {
	data := make(map[string]any, len(f.controllers))
	for _, ctrl := range f.controllers {
		desc := ctrl.Descriptor()
		if value, ok := f.cleanValue(ctrl, desc); ok {
			data[desc.Key] = value
		}
		if hook, ok := f.hooks[CleanHookPrefix+desc.Key]; ok {
			data[desc.Key] = hook(data)
		}
	}
	return data
}

func (f *Form) cleanValue(ctrl fields.Controller, desc schema.FieldDescriptor) (any, bool) {
	if f.controls == nil {
		return f.modelValue(desc)
	}
	switch {
	case desc.Widget.InputType == schema.InputCheckbox:
		return f.controls.CheckedValue(desc.Key)
	case ctrl.Kind() == fields.KindDate:
		if value, ok := f.controls.Value(desc.Key); ok {
			return value, true
		}
		return f.datePartsValue(desc.Key)
	default:
		return f.controls.Value(desc.Key)
	}
}

func (f *Form) datePartsValue(key string) (any, bool) {
	parts := make([]string, 0, 3)
	empty := true
	for _, part := range []fields.DatePart{fields.PartYear, fields.PartMonth, fields.PartDay} {
		raw, _ := f.controls.Value(key + "_" + part.String())
		text := ""
		if raw != nil {
			text = strings.TrimSpace(fmt.Sprint(raw))
		}
		if text != "" {
			empty = false
		}
		parts = append(parts, text)
	}
	if empty {
		return nil, false
	}
	return strings.Join(parts, fields.DateSeparator), true
}

func (f *Form) modelValue(desc schema.FieldDescriptor) (any, bool) {
	if f.model == nil {
		return nil, false
	}
	value, ok := f.model.Get(desc.Binding)
	if !ok {
		return nil, false
	}
	if desc.Widget.InputType == schema.InputCheckbox {
		checked, isBool := value.(bool)
		if isBool && !checked {
			return nil, false
		}
	}
	return value, true
}
