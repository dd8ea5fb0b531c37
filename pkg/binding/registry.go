package binding

import (
	"fmt"
	"sort"
	"strings"
)

// Provider contributes binding entries for one form field.
type Provider interface {
	Key() string
	Bindings(m Model) Map
}

// ConflictPolicy decides what happens when two providers claim a selector.
type ConflictPolicy int

const (
	// ConflictFail rejects the second claim with *BindingConflictError.
	ConflictFail ConflictPolicy = iota
	// ConflictOverwrite keeps the latest claim.
	ConflictOverwrite
)

// BindingConflictError reports a selector claimed by two providers. It points
// at a key assignment bug rather than a recoverable runtime condition.
type BindingConflictError struct {
	Selector string
	Existing string
	Incoming string
}

func (e *BindingConflictError) Error() string {
	return fmt.Sprintf("binding: selector %q claimed by %q and %q", e.Selector, e.Existing, e.Incoming)
}

type config struct {
	exclude     map[string]struct{}
	policy      ConflictPolicy
	onOverwrite func(*BindingConflictError)
}

// BuildOption configures Build and NewRegistry.
type BuildOption func(*config)

// WithExclude skips providers whose key is listed.
func WithExclude(keys ...string) BuildOption {
	return func(cfg *config) {
		for _, key := range keys {
			if trimmed := strings.TrimSpace(key); trimmed != "" {
				cfg.exclude[trimmed] = struct{}{}
			}
		}
	}
}

// WithConflictPolicy selects the collision behaviour. ConflictFail is the
// default.
func WithConflictPolicy(policy ConflictPolicy) BuildOption {
	return func(cfg *config) {
		cfg.policy = policy
	}
}

// WithOverwriteHook is called for every collision resolved by
// ConflictOverwrite.
func WithOverwriteHook(fn func(*BindingConflictError)) BuildOption {
	return func(cfg *config) {
		cfg.onOverwrite = fn
	}
}

// Registry aggregates provider bindings for a single model and remembers
// which provider owns each selector.
type Registry struct {
	cfg     config
	entries Map
	owners  map[string]string
	order   []string
}

// NewRegistry creates an empty registry.
func NewRegistry(options ...BuildOption) *Registry {
	cfg := config{exclude: make(map[string]struct{})}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}
	return &Registry{
		cfg:     cfg,
		entries: make(Map),
		owners:  make(map[string]string),
	}
}

// Build merges the bindings of every non-excluded provider. Without a model
// nothing is bound and the registry stays empty.
func Build(providers []Provider, m Model, options ...BuildOption) (*Registry, error) {
	reg := NewRegistry(options...)
	if m == nil {
		return reg, nil
	}
	for _, provider := range providers {
		if err := reg.Register(provider, m); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// Register merges one provider's bindings. Excluded providers are skipped.
func (r *Registry) Register(provider Provider, m Model) error {
	if provider == nil {
		return fmt.Errorf("binding: provider is required")
	}
	key := provider.Key()
	if r.Excluded(key) {
		return nil
	}

	contributed := provider.Bindings(m)
	selectors := make([]string, 0, len(contributed))
	for selector := range contributed {
		selectors = append(selectors, selector)
	}
	sort.Strings(selectors)

	for _, selector := range selectors {
		if owner, exists := r.owners[selector]; exists {
			conflict := &BindingConflictError{Selector: selector, Existing: owner, Incoming: key}
			if r.cfg.policy == ConflictFail {
				return conflict
			}
			if r.cfg.onOverwrite != nil {
				r.cfg.onOverwrite(conflict)
			}
		} else {
			r.order = append(r.order, selector)
		}
		r.entries[selector] = contributed[selector]
		r.owners[selector] = key
	}
	return nil
}

// Excluded reports whether key is on the exclusion list.
func (r *Registry) Excluded(key string) bool {
	_, ok := r.cfg.exclude[key]
	return ok
}

// Map returns a copy of the aggregated bindings.
func (r *Registry) Map() Map {
	out := make(Map, len(r.entries))
	for selector, entry := range r.entries {
		out[selector] = entry
	}
	return out
}

// Get returns the entry bound to selector.
func (r *Registry) Get(selector string) (Entry, bool) {
	entry, ok := r.entries[selector]
	return entry, ok
}

// Selectors lists selectors in registration order.
func (r *Registry) Selectors() []string {
	return append([]string(nil), r.order...)
}

// Owner returns the provider key that contributed selector.
func (r *Registry) Owner(selector string) (string, bool) {
	owner, ok := r.owners[selector]
	return owner, ok
}

// Observe returns the model attribute bound to the control with the given
// anchor id.
func (r *Registry) Observe(id string) (string, bool) {
	entry, ok := r.entries[Selector(id)]
	if !ok {
		return "", false
	}
	return entry.Observe, true
}

// Len returns the number of bound selectors.
func (r *Registry) Len() int {
	return len(r.entries)
}

// Pick returns the subset of entries whose observed attribute belongs to a
// model exposing attrs, comparing top-level path segments only. It lets one
// monolithic form bind several models.
func Pick(entries Map, attrs []string) Map {
	tops := make(map[string]struct{}, len(attrs))
	for _, attr := range attrs {
		tops[topSegment(attr)] = struct{}{}
	}
	out := make(Map)
	for selector, entry := range entries {
		if _, ok := tops[topSegment(entry.Observe)]; ok {
			out[selector] = entry
		}
	}
	return out
}

func topSegment(path string) string {
	if idx := strings.Index(path, "."); idx >= 0 {
		return path[:idx]
	}
	return path
}
