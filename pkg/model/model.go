package model

import (
	"reflect"
	"sort"
	"sync"
)

// Change describes one attribute write observed on a Model.
type Change struct {
	Attribute string
	Previous  any
	Value     any
}

// Listener receives change notifications. Listeners run synchronously on the
// goroutine that performed the write, after the model lock is released.
type Listener func(Change)

// Model is an in-memory attribute store that notifies listeners when an
// attribute value actually changes. Attribute names are opaque strings;
// dotted paths such as "profile.birth_date" are stored as-is.
type Model struct {
	mu        sync.RWMutex
	attrs     map[string]any
	listeners map[int]Listener
	nextID    int
}

// New creates a model seeded with defaults. The map is copied.
func New(defaults map[string]any) *Model {
	attrs := make(map[string]any, len(defaults))
	for key, value := range defaults {
		attrs[key] = value
	}
	return &Model{
		attrs:     attrs,
		listeners: make(map[int]Listener),
	}
}

// Get returns the value stored under attr.
func (m *Model) Get(attr string) (any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.attrs[attr]
	return value, ok
}

// Set stores value under attr and emits a single notification when the value
// differs from the previous one.
func (m *Model) Set(attr string, value any) {
	m.mu.Lock()
	previous, existed := m.attrs[attr]
	if existed && reflect.DeepEqual(previous, value) {
		m.mu.Unlock()
		return
	}
	m.attrs[attr] = value
	listeners := m.snapshotListeners()
	m.mu.Unlock()

	change := Change{Attribute: attr, Previous: previous, Value: value}
	for _, listener := range listeners {
		listener(change)
	}
}

// Unset removes attr, notifying listeners with a nil Value.
func (m *Model) Unset(attr string) {
	m.mu.Lock()
	previous, existed := m.attrs[attr]
	if !existed {
		m.mu.Unlock()
		return
	}
	delete(m.attrs, attr)
	listeners := m.snapshotListeners()
	m.mu.Unlock()

	change := Change{Attribute: attr, Previous: previous}
	for _, listener := range listeners {
		listener(change)
	}
}

// Attributes returns the stored attribute names, sorted.
func (m *Model) Attributes() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.attrs))
	for name := range m.attrs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Snapshot returns a shallow copy of every attribute.
func (m *Model) Snapshot() map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]any, len(m.attrs))
	for key, value := range m.attrs {
		out[key] = value
	}
	return out
}

// OnChange registers fn and returns a function that removes it.
func (m *Model) OnChange(fn Listener) func() {
	if fn == nil {
		return func() {}
	}
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.listeners, id)
		m.mu.Unlock()
	}
}

func (m *Model) snapshotListeners() []Listener {
	if len(m.listeners) == 0 {
		return nil
	}
	ids := make([]int, 0, len(m.listeners))
	for id := range m.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]Listener, 0, len(ids))
	for _, id := range ids {
		out = append(out, m.listeners[id])
	}
	return out
}
