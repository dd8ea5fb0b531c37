package render

import (
	"strings"

	"github.com/goliatone/go-formbind/pkg/form"
)

// FieldSubset limits rendering to the named fieldsets and fields. A field
// matches when its own id is listed or its fieldset key is. Empty subsets
// match everything.
type FieldSubset struct {
	Fieldsets []string
	Fields    []string
}

// WithSubset renders only the part of the form matched by subset, for
// example one step of a multi-step form. Fieldsets left empty are skipped.
func WithSubset(subset FieldSubset) Option {
	return func(s *settings) {
		s.subset = subset
	}
}

type subsetMatcher struct {
	fieldsets map[string]struct{}
	fields    map[string]struct{}
}

func newSubsetMatcher(subset FieldSubset) subsetMatcher {
	return subsetMatcher{
		fieldsets: normaliseTokens(subset.Fieldsets),
		fields:    normaliseTokens(subset.Fields),
	}
}

func (m subsetMatcher) empty() bool {
	return len(m.fieldsets) == 0 && len(m.fields) == 0
}

func (m subsetMatcher) apply(groups []form.Fieldset) []form.Fieldset {
	if m.empty() {
		return groups
	}
	out := make([]form.Fieldset, 0, len(groups))
	for _, group := range groups {
		if _, ok := m.fieldsets[normaliseToken(group.Key)]; ok && group.Key != "" {
			out = append(out, group)
			continue
		}
		filtered := group
		filtered.Fields = nil
		for _, ctrl := range group.Fields {
			if _, ok := m.fields[normaliseToken(ctrl.Descriptor().Key)]; ok {
				filtered.Fields = append(filtered.Fields, ctrl)
			}
		}
		if len(filtered.Fields) > 0 {
			out = append(out, filtered)
		}
	}
	return out
}

func normaliseTokens(values []string) map[string]struct{} {
	if len(values) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(values))
	for _, value := range values {
		if token := normaliseToken(value); token != "" {
			out[token] = struct{}{}
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func normaliseToken(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
