package binding

import (
	"fmt"
	"strings"
)

// Model is the attribute store a binding map observes.
type Model interface {
	Get(attr string) (any, bool)
	Set(attr string, value any)
}

// Getter maps the stored model value to the value a control displays. A false
// second result means "nothing to display".
type Getter func(stored any) (any, bool)

// Setter maps a control value onto the model. It receives the value currently
// stored under the observed attribute (nil when absent). A false second result
// skips the write.
type Setter func(value, stored any) (any, bool)

// Validator inspects a candidate control value before it is written. Its
// result is advisory; see fields.Config.StrictValidation.
type Validator func(value any) bool

// SelectOptions describes where a select control sources its options.
// Collection entries are looked up by LabelPath and ValuePath.
type SelectOptions struct {
	Collection []map[string]any
	LabelPath  string
	ValuePath  string
}

// Option is one resolved select option.
type Option struct {
	Label string
	Value any
}

// Options resolves the collection through the label and value paths.
func (s SelectOptions) Options() []Option {
	out := make([]Option, 0, len(s.Collection))
	for _, item := range s.Collection {
		label := ""
		if raw, ok := item[s.LabelPath]; ok && raw != nil {
			label = fmt.Sprint(raw)
		}
		out = append(out, Option{Label: label, Value: item[s.ValuePath]})
	}
	return out
}

// Entry specifies how one DOM anchor synchronizes with one model attribute.
type Entry struct {
	Observe       string
	OnGet         Getter
	OnSet         Setter
	UpdateModel   Validator
	SelectOptions *SelectOptions
}

// Map is the selector → entry aggregate consumed by a DOM binding
// collaborator.
type Map map[string]Entry

// Selector returns the anchor selector for a control id.
func Selector(id string) string {
	return "#" + id
}

// AnchorID strips the selector prefix.
func AnchorID(selector string) string {
	return strings.TrimPrefix(selector, "#")
}

// Read resolves the value a control bound through e should display.
func (e Entry) Read(m Model) (any, bool) {
	if m == nil {
		return nil, false
	}
	stored, ok := m.Get(e.Observe)
	if e.OnGet != nil {
		return e.OnGet(stored)
	}
	return stored, ok
}

// Write pushes a control value into m following the entry's validator and
// setter. It reports whether the model was written.
func (e Entry) Write(m Model, value any) bool {
	if m == nil {
		return false
	}
	if e.UpdateModel != nil && !e.UpdateModel(value) {
		return false
	}
	if e.OnSet != nil {
		stored, _ := m.Get(e.Observe)
		next, ok := e.OnSet(value, stored)
		if !ok {
			return false
		}
		value = next
	}
	m.Set(e.Observe, value)
	return true
}
