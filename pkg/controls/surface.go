// Package controls provides a headless control surface: an in-memory stand-in
// for the DOM that holds control values, dispatches change events and wires
// binding entries to a model the way a browser binding library would.
package controls

import (
	"sort"
	"sync"

	"github.com/goliatone/go-formbind/pkg/binding"
	"github.com/goliatone/go-formbind/pkg/model"
)

// DefaultCheckboxValue is reported for a checked control with no explicit
// value, matching the browser default.
const DefaultCheckboxValue = "on"

// Observable is implemented by models that broadcast attribute changes.
type Observable interface {
	OnChange(fn model.Listener) func()
}

// Surface holds control state keyed by anchor id. It is safe for concurrent
// use; listeners run outside the lock on the goroutine that raised the event.
type Surface struct {
	mu        sync.RWMutex
	values    map[string]any
	checked   map[string]bool
	listeners map[string][]func(any)
}

// New creates an empty surface.
func New() *Surface {
	return &Surface{
		values:    make(map[string]any),
		checked:   make(map[string]bool),
		listeners: make(map[string][]func(any)),
	}
}

// SetValue sets the displayed value of a control without raising a change
// event. A nil value clears the control.
func (s *Surface) SetValue(id string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if value == nil {
		delete(s.values, id)
		return
	}
	s.values[id] = value
}

// Value returns the displayed value of a control.
func (s *Surface) Value(id string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.values[id]
	return value, ok
}

// Has reports whether a control holds a value.
func (s *Surface) Has(id string) bool {
	_, ok := s.Value(id)
	return ok
}

// Checked reports the checked state of a checkbox control.
func (s *Surface) Checked(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.checked[id]
}

// CheckedValue returns the value a checked control submits.
func (s *Surface) CheckedValue(id string) (any, bool) {
	if !s.Checked(id) {
		return nil, false
	}
	if value, ok := s.Value(id); ok {
		return value, true
	}
	return DefaultCheckboxValue, true
}

// OnChange registers fn for change events on id.
func (s *Surface) OnChange(id string, fn func(value any)) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[id] = append(s.listeners[id], fn)
}

// Change simulates user input: the value is stored and change listeners run
// in registration order.
func (s *Surface) Change(id string, value any) {
	s.SetValue(id, value)
	s.dispatch(id, value)
}

// SetChecked simulates toggling a checkbox. Listeners receive the checked
// state.
func (s *Surface) SetChecked(id string, checked bool) {
	s.mu.Lock()
	s.checked[id] = checked
	s.mu.Unlock()
	s.dispatch(id, checked)
}

// IDs lists every control id that holds a value or a listener, sorted.
func (s *Surface) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]struct{}, len(s.values)+len(s.listeners))
	for id := range s.values {
		seen[id] = struct{}{}
	}
	for id := range s.listeners {
		seen[id] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (s *Surface) dispatch(id string, value any) {
	s.mu.RLock()
	listeners := append([]func(any){}, s.listeners[id]...)
	s.mu.RUnlock()
	for _, fn := range listeners {
		fn(value)
	}
}

// Bind wires bindings to m. Each control first displays the model value
// through the entry's getter; control changes write through the entry's
// validator and setter; model changes refresh every control observing the
// changed attribute. The returned function stops model-to-control refreshes.
func (s *Surface) Bind(bindings binding.Map, m binding.Model) func() {
	if m == nil || len(bindings) == 0 {
		return func() {}
	}

	selectors := make([]string, 0, len(bindings))
	for selector := range bindings {
		selectors = append(selectors, selector)
	}
	sort.Strings(selectors)

	for _, selector := range selectors {
		entry := bindings[selector]
		id := binding.AnchorID(selector)
		if value, ok := entry.Read(m); ok {
			s.SetValue(id, value)
		}
		s.OnChange(id, func(value any) {
			entry.Write(m, value)
		})
	}

	observable, ok := m.(Observable)
	if !ok {
		return func() {}
	}
	return observable.OnChange(func(change model.Change) {
		for _, selector := range selectors {
			entry := bindings[selector]
			if entry.Observe != change.Attribute {
				continue
			}
			value, ok := entry.Read(m)
			if !ok {
				value = nil
			}
			s.SetValue(binding.AnchorID(selector), value)
		}
	})
}
