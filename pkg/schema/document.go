package schema

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Document wraps a raw schema payload and its origin.
type Document struct {
	source Source
	raw    []byte
}

// NewDocument validates the inputs and copies raw.
func NewDocument(src Source, raw []byte) (Document, error) {
	if src == nil {
		return Document{}, errors.New("schema: source is required")
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return Document{}, errors.New("schema: raw document is empty")
	}
	return Document{source: src, raw: append([]byte(nil), raw...)}, nil
}

// MustNewDocument panics if the document cannot be created. Useful for tests.
func MustNewDocument(src Source, raw []byte) Document {
	doc, err := NewDocument(src, raw)
	if err != nil {
		panic(err)
	}
	return doc
}

// Source returns the origin metadata for the document.
func (d Document) Source() Source {
	return d.source
}

// Raw returns a defensive copy of the payload.
func (d Document) Raw() []byte {
	return append([]byte(nil), d.raw...)
}

// Location returns the string identifier for the origin.
func (d Document) Location() string {
	if d.source == nil {
		return ""
	}
	return d.source.Location()
}

// Schema decodes the payload. YAML is tried first for .yml/.yaml locations,
// JSON otherwise, falling back to the other format on failure.
func (d Document) Schema() (Schema, error) {
	ext := strings.ToLower(filepath.Ext(d.Location()))
	if ext == ".yaml" || ext == ".yml" {
		if out, err := DecodeYAML(d.raw); err == nil {
			return out, nil
		}
		if out, err := DecodeJSON(d.raw); err == nil {
			return out, nil
		}
		return Schema{}, fmt.Errorf("schema: parse %s: invalid YAML or JSON", d.Location())
	}
	return Parse(d.raw)
}

// Parse decodes a JSON or YAML schema payload.
func Parse(data []byte) (Schema, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Schema{}, errors.New("schema: payload is empty")
	}
	jsonOut, jsonErr := DecodeJSON(data)
	if jsonErr == nil {
		return jsonOut, nil
	}
	if yamlOut, err := DecodeYAML(data); err == nil {
		return yamlOut, nil
	}
	return Schema{}, jsonErr
}

// DecodeJSON decodes a JSON schema payload.
func DecodeJSON(data []byte) (Schema, error) {
	var out Schema
	if err := json.Unmarshal(data, &out); err != nil {
		return Schema{}, fmt.Errorf("schema: decode json: %w", err)
	}
	return out, nil
}

// DecodeYAML decodes a YAML schema payload.
func DecodeYAML(data []byte) (Schema, error) {
	var out Schema
	if err := yaml.Unmarshal(data, &out); err != nil {
		return Schema{}, fmt.Errorf("schema: decode yaml: %w", err)
	}
	return out, nil
}
