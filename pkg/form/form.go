package form

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/goliatone/go-formbind/pkg/binding"
	"github.com/goliatone/go-formbind/pkg/fields"
	"github.com/goliatone/go-formbind/pkg/schema"
)

// ErrStaleSchema is returned by ApplyValidated when a newer validation was
// requested after the one that produced the schema.
var ErrStaleSchema = errors.New("form: stale validation response")

// ControlReader exposes the current control values Clean extracts from.
type ControlReader interface {
	Value(id string) (any, bool)
	CheckedValue(id string) (any, bool)
}

// Surface is a control surface the form can bind its controllers to.
type Surface interface {
	fields.Surface
	ControlReader
	Bind(bindings binding.Map, m binding.Model) func()
}

// Validator submits cleaned data and returns the refreshed schema.
type Validator interface {
	Validate(ctx context.Context, payload map[string]any) (schema.Schema, error)
}

// Form owns the controllers built from one schema, their aggregated bindings
// and the success state derived from the schema's errors.
//
// Controllers and bindings are built once in New. Schema replacement swaps
// the schema under a lock and redistributes errors to the same controllers, so
// a validation callback running on another goroutine never exposes a
// half-applied schema.
type Form struct {
	model         binding.Model
	exclude       []string
	logger        *slog.Logger
	hooks         map[string]CleanHook
	policy        binding.ConflictPolicy
	controls      ControlReader
	display       fields.ErrorDisplay
	fieldRegistry *fields.Registry
	strict        bool

	controllers []fields.Controller
	byKey       map[string]fields.Controller
	registry    *binding.Registry

	mu         sync.RWMutex
	schema     schema.Schema
	success    bool
	generation uint64
}

// New normalizes raw, builds one controller per field in schema order and
// aggregates their bindings against the configured model.
func New(raw schema.Schema, options ...Option) (*Form, error) {
	f := &Form{
		logger:        slog.Default(),
		fieldRegistry: fields.NewRegistry(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(f)
	}

	normalized, err := schema.Normalize(raw)
	if err != nil {
		return nil, fmt.Errorf("form: %w", err)
	}

	cfg := fields.Config{Display: f.display, StrictValidation: f.strict}
	f.byKey = make(map[string]fields.Controller, normalized.Fields.Len())
	providers := make([]binding.Provider, 0, normalized.Fields.Len())
	for _, entry := range normalized.Fields.Entries() {
		ctrl := f.fieldRegistry.New(entry.Field, cfg)
		f.controllers = append(f.controllers, ctrl)
		f.byKey[entry.Key] = ctrl
		providers = append(providers, ctrl)
	}

	registry, err := binding.Build(providers, f.model,
		binding.WithExclude(f.exclude...),
		binding.WithConflictPolicy(f.policy),
		binding.WithOverwriteHook(func(conflict *binding.BindingConflictError) {
			f.logger.Warn("Binding selector overwritten",
				"selector", conflict.Selector, "existing", conflict.Existing, "incoming", conflict.Incoming)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("form: %w", err)
	}
	f.registry = registry

	f.mu.Lock()
	f.applyLocked(normalized)
	f.mu.Unlock()
	return f, nil
}

// Schema returns a copy of the current schema.
func (f *Form) Schema() schema.Schema {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.schema.Clone()
}

// Success reports whether the current schema carries an empty errors map.
func (f *Form) Success() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.success
}

// Controllers returns the controllers in schema order.
func (f *Form) Controllers() []fields.Controller {
	return append([]fields.Controller(nil), f.controllers...)
}

// Controller returns the controller for a field id.
func (f *Form) Controller(key string) (fields.Controller, bool) {
	ctrl, ok := f.byKey[key]
	return ctrl, ok
}

// Model returns the bound model, if any.
func (f *Form) Model() binding.Model { return f.model }

// Bindings returns the aggregated selector → entry map.
func (f *Form) Bindings() binding.Map {
	return f.registry.Map()
}

// PickBindings returns the bindings whose observed attribute belongs to a
// model exposing attrs. It lets one form feed several models.
func (f *Form) PickBindings(attrs []string) binding.Map {
	return binding.Pick(f.registry.Map(), attrs)
}

// ModelField returns the model attribute observed by the control with the
// given anchor id.
func (f *Form) ModelField(id string) (string, bool) {
	return f.registry.Observe(id)
}

// Bind wires the aggregated bindings to surface, lets composite controllers
// attach their own listeners and makes surface the source for Clean. The
// returned function stops model-to-control refreshes and detaches composite
// controllers from the model.
func (f *Form) Bind(surface Surface) func() {
	if surface == nil {
		return func() {}
	}
	f.controls = surface
	if f.model == nil {
		return func() {}
	}
	stop := surface.Bind(f.registry.Map(), f.model)
	var detachers []fields.Detacher
	for _, ctrl := range f.controllers {
		if f.registry.Excluded(ctrl.Key()) {
			continue
		}
		if attacher, ok := ctrl.(fields.Attacher); ok {
			attacher.Attach(surface, f.model)
		}
		if detacher, ok := ctrl.(fields.Detacher); ok {
			detachers = append(detachers, detacher)
		}
	}
	return func() {
		stop()
		for _, detacher := range detachers {
			detacher.Detach()
		}
	}
}

// Validate cleans the form, submits the data through validator and applies
// the returned schema. A response superseded by a later call is discarded
// with ErrStaleSchema.
func (f *Form) Validate(ctx context.Context, validator Validator) (bool, error) {
	if validator == nil {
		return false, fmt.Errorf("form: validator is required")
	}
	gen := f.BeginValidation()
	refreshed, err := validator.Validate(ctx, f.Clean())
	if err != nil {
		return f.Success(), fmt.Errorf("form: validate: %w", err)
	}
	return f.ApplyValidated(gen, refreshed)
}
