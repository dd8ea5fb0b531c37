package fields

import (
	"sort"
	"sync"

	"github.com/goliatone/go-formbind/pkg/schema"
)

// Constructor builds a controller for one normalized descriptor.
type Constructor func(desc schema.FieldDescriptor, cfg Config) Controller

// Registry maps widget input types onto controller constructors. Unknown
// input types fall back to the base Field.
type Registry struct {
	mu           sync.RWMutex
	constructors map[schema.InputType]Constructor
}

// NewRegistry constructs a registry with the built-in variants registered.
func NewRegistry() *Registry {
	reg := &Registry{constructors: make(map[schema.InputType]Constructor)}
	reg.registerBuiltins()
	return reg
}

// Register installs constructor for inputType, replacing any previous one.
func (r *Registry) Register(inputType schema.InputType, constructor Constructor) {
	if r == nil || constructor == nil || inputType == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.constructors[inputType] = constructor
}

// Resolve returns the constructor registered for inputType.
func (r *Registry) Resolve(inputType schema.InputType) (Constructor, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	constructor, ok := r.constructors[inputType]
	return constructor, ok
}

// InputTypes lists the registered input types in sorted order.
func (r *Registry) InputTypes() []schema.InputType {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]schema.InputType, 0, len(r.constructors))
	for inputType := range r.constructors {
		out = append(out, inputType)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// New builds the controller for desc.
func (r *Registry) New(desc schema.FieldDescriptor, cfg Config) Controller {
	if constructor, ok := r.Resolve(desc.Widget.InputType); ok {
		return constructor(desc, cfg)
	}
	return NewField(desc, cfg)
}

func (r *Registry) registerBuiltins() {
	text := func(desc schema.FieldDescriptor, cfg Config) Controller { return NewField(desc, cfg) }
	for _, inputType := range []schema.InputType{
		schema.InputText,
		schema.InputTextarea,
		schema.InputPassword,
		schema.InputEmail,
		schema.InputCheckbox,
	} {
		r.Register(inputType, text)
	}
	r.Register(schema.InputSelect, func(desc schema.FieldDescriptor, cfg Config) Controller {
		return NewSelect(desc, cfg)
	})
	r.Register(schema.InputDate, func(desc schema.FieldDescriptor, cfg Config) Controller {
		return NewDate(desc, cfg)
	})
}
