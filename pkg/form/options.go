package form

import (
	"log/slog"
	"strings"

	"github.com/goliatone/go-formbind/pkg/binding"
	"github.com/goliatone/go-formbind/pkg/fields"
)

// CleanHook transforms one field's cleaned value. It receives the data
// extracted so far and returns the replacement value for its field.
type CleanHook func(data map[string]any) any

// CleanHookPrefix names per-field hooks: a hook registered for "first_name"
// is known as "clean_first_name".
const CleanHookPrefix = "clean_"

// Option customises a Form.
type Option func(*Form)

// WithModel binds controllers to m. Without a model nothing is bound.
func WithModel(m binding.Model) Option {
	return func(f *Form) {
		f.model = m
	}
}

// WithExclude skips binding for the listed field ids.
func WithExclude(keys ...string) Option {
	return func(f *Form) {
		for _, key := range keys {
			if trimmed := strings.TrimSpace(key); trimmed != "" {
				f.exclude = append(f.exclude, trimmed)
			}
		}
	}
}

// WithLogger sets the structured logger. slog.Default() is used otherwise.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Form) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithCleanHook registers a transform applied to fieldID during Clean.
func WithCleanHook(fieldID string, hook CleanHook) Option {
	return func(f *Form) {
		fieldID = strings.TrimSpace(fieldID)
		if fieldID == "" || hook == nil {
			return
		}
		if f.hooks == nil {
			f.hooks = make(map[string]CleanHook)
		}
		f.hooks[CleanHookPrefix+fieldID] = hook
	}
}

// WithConflictPolicy selects how selector collisions are resolved while
// aggregating bindings. binding.ConflictFail is the default.
func WithConflictPolicy(policy binding.ConflictPolicy) Option {
	return func(f *Form) {
		f.policy = policy
	}
}

// WithControls sets the reader Clean extracts values from. Bind sets it
// implicitly.
func WithControls(reader ControlReader) Option {
	return func(f *Form) {
		f.controls = reader
	}
}

// WithErrorDisplay receives every controller's error refresh.
func WithErrorDisplay(display fields.ErrorDisplay) Option {
	return func(f *Form) {
		f.display = display
	}
}

// WithFieldRegistry overrides the input type → controller mapping.
func WithFieldRegistry(registry *fields.Registry) Option {
	return func(f *Form) {
		if registry != nil {
			f.fieldRegistry = registry
		}
	}
}

// WithStrictValidation makes failed client-side validation stop the model
// write. Validation is advisory by default.
func WithStrictValidation(strict bool) Option {
	return func(f *Form) {
		f.strict = strict
	}
}
