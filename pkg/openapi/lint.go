package openapi

import (
	"fmt"
	"sort"
	"strings"

	"github.com/goliatone/go-formbind/pkg/schema"
)

var (
	bodyExtensionKeys     = []string{"fieldsets", "order", "title"}
	propertyExtensionKeys = []string{"binding", "error_messages", "label", "widget"}
)

// Violation reports an extension FormSchema would ignore or misread.
type Violation struct {
	Location string
	Message  string
}

func (v Violation) String() string {
	return v.Location + " -> " + v.Message
}

// LintExtensions checks the x-formbind hints attached to the operation's
// request body and its properties. Violations are sorted by location.
func LintExtensions(op Operation) []Violation {
	base := []string{"operation", op.ID, "requestBody"}
	body := op.RequestBody

	var out []Violation
	ext := extensionMap(body.Extensions)
	out = append(out, lintNamespace(base, body.Extensions)...)
	for _, key := range sortedKeys(ext) {
		path := appendPath(base, key)
		if !contains(bodyExtensionKeys, key) {
			out = append(out, unsupported(path, key, bodyExtensionKeys))
			continue
		}
		out = append(out, lintBodyHint(path, key, ext[key], body)...)
	}
	out = append(out, lintProperties(base, body)...)

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Location == out[j].Location {
			return out[i].Message < out[j].Message
		}
		return out[i].Location < out[j].Location
	})
	return out
}

func lintProperties(base []string, parent Schema) []Violation {
	var out []Violation
	for _, name := range sortedKeys(parent.Properties) {
		prop := parent.Properties[name]
		path := appendPath(base, "properties."+name)
		out = append(out, lintNamespace(path, prop.Extensions)...)

		ext := extensionMap(prop.Extensions)
		for _, key := range sortedKeys(ext) {
			hintPath := appendPath(path, key)
			if !contains(propertyExtensionKeys, key) {
				out = append(out, unsupported(hintPath, key, propertyExtensionKeys))
				continue
			}
			out = append(out, lintPropertyHint(hintPath, key, ext[key])...)
		}

		out = append(out, lintProperties(path, prop)...)
		if prop.Items != nil {
			out = append(out, lintProperties(appendPath(path, "items"), *prop.Items)...)
		}
	}
	return out
}

func lintNamespace(path []string, extensions map[string]any) []Violation {
	raw, ok := extensions[ExtensionKey]
	if !ok {
		return nil
	}
	if _, ok := raw.(map[string]any); !ok {
		return []Violation{violation(path, "%s must be an object, found %T", ExtensionKey, raw)}
	}
	return nil
}

func lintBodyHint(path []string, key string, value any, body Schema) []Violation {
	switch key {
	case "title":
		if _, ok := value.(string); !ok {
			return []Violation{violation(path, "%q must be a string (got %T)", key, value)}
		}
	case "order":
		names, ok := value.([]any)
		if !ok {
			return []Violation{violation(path, "%q must be a list of property names (got %T)", key, value)}
		}
		var out []Violation
		for _, raw := range names {
			name, ok := raw.(string)
			if !ok {
				out = append(out, violation(path, "order entry must be a string (got %T)", raw))
				continue
			}
			if _, exists := body.Properties[name]; !exists {
				out = append(out, violation(path, "order names unknown property %q", name))
			}
		}
		return out
	case "fieldsets":
		items, ok := value.([]any)
		if !ok {
			return []Violation{violation(path, "%q must be a list of objects (got %T)", key, value)}
		}
		var out []Violation
		for i, item := range items {
			entry, ok := item.(map[string]any)
			if !ok {
				out = append(out, violation(path, "fieldset %d must be an object (got %T)", i, item))
				continue
			}
			if _, ok := entry["fields"].([]any); !ok {
				out = append(out, violation(path, "fieldset %d must list its fields", i))
			}
		}
		return out
	}
	return nil
}

func lintPropertyHint(path []string, key string, value any) []Violation {
	switch key {
	case "label", "binding":
		if _, ok := value.(string); !ok {
			return []Violation{violation(path, "%q must be a string (got %T)", key, value)}
		}
	case "widget":
		name, ok := value.(string)
		if !ok {
			return []Violation{violation(path, "%q must be a string (got %T)", key, value)}
		}
		if !schema.InputType(name).Valid() {
			return []Violation{violation(path, "unknown widget %q", name)}
		}
	case "error_messages":
		messages, ok := value.(map[string]any)
		if !ok {
			return []Violation{violation(path, "%q must be an object (got %T)", key, value)}
		}
		var out []Violation
		for _, kind := range sortedKeys(messages) {
			if _, ok := messages[kind].(string); !ok {
				out = append(out, violation(path, "message for %q must be a string (got %T)", kind, messages[kind]))
			}
		}
		return out
	}
	return nil
}

func unsupported(path []string, key string, allowed []string) Violation {
	return violation(path, "unsupported extension key %q (supported: %s)", key, strings.Join(allowed, ", "))
}

func violation(path []string, format string, args ...any) Violation {
	return Violation{Location: strings.Join(path, " > "), Message: fmt.Sprintf(format, args...)}
}

func appendPath(path []string, segment string) []string {
	next := append([]string(nil), path...)
	return append(next, segment)
}

func contains(values []string, target string) bool {
	for _, value := range values {
		if value == target {
			return true
		}
	}
	return false
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
