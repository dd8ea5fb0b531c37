package form

import (
	"fmt"

	"github.com/goliatone/go-formbind/pkg/fields"
	"github.com/goliatone/go-formbind/pkg/schema"
)

// Errors summarises the current validation state.
type Errors struct {
	// All holds whole-form messages.
	All []string
	// Fields lists controllers with at least one error entry, in schema order.
	Fields []fields.Controller
}

// ApplySchema replaces the current schema and pushes each field's errors to
// its controller. It returns the resulting success flag.
func (f *Form) ApplySchema(next schema.Schema) (bool, error) {
	normalized, err := schema.Normalize(next)
	if err != nil {
		return f.Success(), fmt.Errorf("form: apply schema: %w", err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.generation++
	return f.applyLocked(normalized), nil
}

// BeginValidation records a new validation request and returns its
// generation.
func (f *Form) BeginValidation() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.generation++
	return f.generation
}

// ApplyValidated applies a schema produced by the validation started at gen.
// Responses from superseded requests are dropped with ErrStaleSchema.
func (f *Form) ApplyValidated(gen uint64, next schema.Schema) (bool, error) {
	normalized, err := schema.Normalize(next)
	if err != nil {
		return f.Success(), fmt.Errorf("form: apply schema: %w", err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if gen != f.generation {
		f.logger.Warn("Discarding stale validation response", "generation", gen, "latest", f.generation)
		return f.success, ErrStaleSchema
	}
	return f.applyLocked(normalized), nil
}

func (f *Form) applyLocked(next schema.Schema) bool {
	if next.Errors.Present() {
		f.success = next.Errors.Empty()
	} else {
		f.logger.Warn("Schema carries no errors entry, cannot determine form success", "title", next.Title)
	}

	if next.Errors.Present() {
		cleaned := make(schema.ErrorMap, len(next.Errors))
		for _, key := range sortedErrorKeys(next.Errors, next.Fields) {
			target, ok := resolveErrorKey(key, next.Fields)
			if !ok {
				f.logger.Debug("Discarding errors for unknown field", "field", key)
				continue
			}
			cleaned[target] = append(cleaned[target], next.Errors[key]...)
		}
		for key, messages := range cleaned {
			normalized := schema.NormalizeMessages(messages)
			if normalized == nil {
				normalized = []string{}
			}
			cleaned[key] = normalized
		}
		next.Errors = cleaned
	}

	f.schema = next
	for _, ctrl := range f.controllers {
		ctrl.UpdateFromSchema(next)
	}
	return f.success
}

// Errors returns the whole-form messages and the controllers with errors.
func (f *Form) Errors() Errors {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := Errors{All: f.schema.Errors.Form()}
	for _, ctrl := range f.controllers {
		if _, ok := f.schema.Errors[ctrl.Key()]; ok {
			out.Fields = append(out.Fields, ctrl)
		}
	}
	return out
}
