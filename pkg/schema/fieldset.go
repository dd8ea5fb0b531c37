package schema

import (
	"bytes"
	"fmt"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// FieldSet is the ordered field-id → descriptor mapping of a schema. Document
// order is preserved when decoding so forms without declared fieldsets render
// fields in the order the author wrote them.
type FieldSet struct {
	keys  []string
	items map[string]FieldDescriptor
}

// NewFieldSet builds a FieldSet from entries, preserving their order.
func NewFieldSet(entries ...FieldEntry) FieldSet {
	var set FieldSet
	for _, entry := range entries {
		set.Set(entry.Key, entry.Field)
	}
	return set
}

// FieldEntry pairs a field id with its descriptor.
type FieldEntry struct {
	Key   string
	Field FieldDescriptor
}

// Set inserts or replaces a descriptor. New keys are appended to the order.
func (s *FieldSet) Set(key string, field FieldDescriptor) {
	if s.items == nil {
		s.items = make(map[string]FieldDescriptor)
	}
	if _, exists := s.items[key]; !exists {
		s.keys = append(s.keys, key)
	}
	s.items[key] = field
}

// Get returns the descriptor stored under key.
func (s FieldSet) Get(key string) (FieldDescriptor, bool) {
	field, ok := s.items[key]
	return field, ok
}

// Has reports whether key exists.
func (s FieldSet) Has(key string) bool {
	_, ok := s.items[key]
	return ok
}

// Keys returns the field ids in schema order.
func (s FieldSet) Keys() []string {
	return append([]string(nil), s.keys...)
}

// Len returns the number of fields.
func (s FieldSet) Len() int {
	return len(s.keys)
}

// Entries returns key/descriptor pairs in schema order.
func (s FieldSet) Entries() []FieldEntry {
	out := make([]FieldEntry, 0, len(s.keys))
	for _, key := range s.keys {
		out = append(out, FieldEntry{Key: key, Field: s.items[key]})
	}
	return out
}

// MarshalJSON emits the fields as an object in schema order.
func (s FieldSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for idx, key := range s.keys {
		if idx > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(s.items[key])
		if err != nil {
			return nil, fmt.Errorf("schema: encode field %q: %w", key, err)
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON walks the object token by token so key order survives.
func (s *FieldSet) UnmarshalJSON(data []byte) error {
	*s = FieldSet{}
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("schema: decode fields: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("schema: fields must be an object")
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("schema: decode fields: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("schema: unexpected field key %v", tok)
		}
		var field FieldDescriptor
		if err := dec.Decode(&field); err != nil {
			return fmt.Errorf("schema: decode field %q: %w", key, err)
		}
		s.Set(key, field)
	}

	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("schema: decode fields: %w", err)
	}
	return nil
}

// MarshalYAML emits a mapping node in schema order.
func (s FieldSet) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, key := range s.keys {
		var value yaml.Node
		if err := value.Encode(s.items[key]); err != nil {
			return nil, fmt.Errorf("schema: encode field %q: %w", key, err)
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
			&value,
		)
	}
	return node, nil
}

// UnmarshalYAML reads a mapping node preserving key order.
func (s *FieldSet) UnmarshalYAML(node *yaml.Node) error {
	*s = FieldSet{}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("schema: fields must be a mapping (line %d)", node.Line)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valueNode := node.Content[i], node.Content[i+1]
		var field FieldDescriptor
		if err := valueNode.Decode(&field); err != nil {
			return fmt.Errorf("schema: decode field %q: %w", keyNode.Value, err)
		}
		s.Set(keyNode.Value, field)
	}
	return nil
}

func (s FieldSet) clone() FieldSet {
	out := FieldSet{
		keys:  append([]string(nil), s.keys...),
		items: make(map[string]FieldDescriptor, len(s.items)),
	}
	for key, field := range s.items {
		out.items[key] = field.clone()
	}
	return out
}
