package form

import "github.com/goliatone/go-formbind/pkg/fields"

// Fieldset is a declared (or synthesized) group resolved to live controllers.
type Fieldset struct {
	Key    string
	Legend string
	Fields []fields.Controller
}

// Fieldsets groups controllers as the schema declares. Without declared
// fieldsets a single group holds every field in schema order. Ids with no
// matching controller are dropped. The schema itself is left untouched.
func (f *Form) Fieldsets() []Fieldset {
	f.mu.RLock()
	declared := f.schema.Fieldsets
	f.mu.RUnlock()

	if len(declared) == 0 {
		return []Fieldset{{Fields: f.Controllers()}}
	}

	out := make([]Fieldset, 0, len(declared))
	for _, group := range declared {
		resolved := Fieldset{Key: group.Key, Legend: group.Legend, Fields: []fields.Controller{}}
		for _, id := range group.Fields {
			ctrl, ok := f.byKey[id]
			if !ok {
				f.logger.Debug("Fieldset references unknown field", "fieldset", group.Key, "field", id)
				continue
			}
			resolved.Fields = append(resolved.Fields, ctrl)
		}
		out = append(out, resolved)
	}
	return out
}
