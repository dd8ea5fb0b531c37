package schema

import (
	"bytes"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// SchemaError reports a schema that cannot back a form. It is the only fatal
// precondition when constructing one.
type SchemaError struct {
	Reason string
}

func (e *SchemaError) Error() string {
	if e == nil || e.Reason == "" {
		return "schema: invalid schema"
	}
	return "schema: " + e.Reason
}

// ErrorMap maps field ids (and AllFieldsKey) to ordered error messages. A nil
// map means the payload carried no errors entry at all, which is distinct from
// an empty map.
type ErrorMap map[string][]string

// Present reports whether the errors entry was supplied.
func (m ErrorMap) Present() bool {
	return m != nil
}

// Empty reports whether no errors are recorded.
func (m ErrorMap) Empty() bool {
	return len(m) == 0
}

// For returns a copy of the messages stored for key.
func (m ErrorMap) For(key string) []string {
	messages, ok := m[key]
	if !ok {
		return nil
	}
	return append([]string(nil), messages...)
}

// Form returns the whole-form messages.
func (m ErrorMap) Form() []string {
	return m.For(AllFieldsKey)
}

// UnmarshalJSON accepts an object of lists or of single strings. Some servers
// send an empty array when there are no errors; that decodes as present and
// empty.
func (m *ErrorMap) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	switch {
	case bytes.Equal(trimmed, []byte("null")):
		*m = nil
		return nil
	case len(trimmed) > 0 && trimmed[0] == '[':
		var list []any
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return fmt.Errorf("schema: decode errors: %w", err)
		}
		if len(list) > 0 {
			return fmt.Errorf("schema: errors list must be empty, got %d entries", len(list))
		}
		*m = ErrorMap{}
		return nil
	}

	var raw map[string]any
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return fmt.Errorf("schema: decode errors: %w", err)
	}
	out, err := errorMapFromRaw(raw)
	if err != nil {
		return err
	}
	*m = out
	return nil
}

// UnmarshalYAML mirrors UnmarshalJSON for YAML documents.
func (m *ErrorMap) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		if len(node.Content) > 0 {
			return fmt.Errorf("schema: errors list must be empty (line %d)", node.Line)
		}
		*m = ErrorMap{}
		return nil
	case yaml.MappingNode:
		var raw map[string]any
		if err := node.Decode(&raw); err != nil {
			return fmt.Errorf("schema: decode errors: %w", err)
		}
		out, err := errorMapFromRaw(raw)
		if err != nil {
			return err
		}
		*m = out
		return nil
	default:
		if node.Tag == "!!null" {
			*m = nil
			return nil
		}
		return fmt.Errorf("schema: errors must be a mapping (line %d)", node.Line)
	}
}

func errorMapFromRaw(raw map[string]any) (ErrorMap, error) {
	out := make(ErrorMap, len(raw))
	for key, value := range raw {
		switch typed := value.(type) {
		case nil:
			out[key] = nil
		case string:
			out[key] = []string{typed}
		case []any:
			messages := make([]string, 0, len(typed))
			for _, item := range typed {
				messages = append(messages, fmt.Sprint(item))
			}
			out[key] = messages
		default:
			return nil, fmt.Errorf("schema: errors for %q must be a string or list", key)
		}
	}
	return out, nil
}

func (m ErrorMap) clone() ErrorMap {
	if m == nil {
		return nil
	}
	out := make(ErrorMap, len(m))
	for key, messages := range m {
		out[key] = append([]string(nil), messages...)
	}
	return out
}

// NormalizeMessages trims, drops blanks and de-duplicates while preserving
// order.
func NormalizeMessages(messages []string) []string {
	if len(messages) == 0 {
		return nil
	}

	out := make([]string, 0, len(messages))
	seen := make(map[string]struct{}, len(messages))

	for _, message := range messages {
		trimmed := strings.TrimSpace(message)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}

	if len(out) == 0 {
		return nil
	}
	return out
}

// IsFormLevelKey reports whether an error key addresses the whole form.
func IsFormLevelKey(key string) bool {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "", AllFieldsKey, "non_field_errors", "non-field-errors":
		return true
	default:
		return false
	}
}
