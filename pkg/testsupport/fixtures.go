package testsupport

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/goliatone/go-formbind/pkg/form"
	"github.com/goliatone/go-formbind/pkg/schema"
)

// LoadSchema reads a JSON or YAML fixture into a normalized schema. Testing
// helpers fail the test on error to keep call sites concise.
func LoadSchema(t *testing.T, path string) schema.Schema {
	t.Helper()

	s, err := LoadSchemaFromPath(path)
	if err != nil {
		t.Fatalf("load schema: %v", err)
	}
	return s
}

// LoadSchemaFromPath returns a normalized schema without requiring
// testing.T, for callers wiring fixtures in setup functions.
func LoadSchemaFromPath(path string) (schema.Schema, error) {
	if path == "" {
		return schema.Schema{}, errors.New("testsupport: schema path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return schema.Schema{}, fmt.Errorf("testsupport: read schema: %w", err)
	}
	doc, err := schema.NewDocument(schema.SourceFromFile(path), data)
	if err != nil {
		return schema.Schema{}, fmt.Errorf("testsupport: new document: %w", err)
	}
	raw, err := doc.Schema()
	if err != nil {
		return schema.Schema{}, fmt.Errorf("testsupport: decode schema: %w", err)
	}
	normalized, err := schema.Normalize(raw)
	if err != nil {
		return schema.Schema{}, fmt.Errorf("testsupport: normalize schema: %w", err)
	}
	return normalized, nil
}

// MustNewForm loads a fixture and builds a form from it.
func MustNewForm(t *testing.T, path string, options ...form.Option) *form.Form {
	t.Helper()

	f, err := form.New(LoadSchema(t, path), options...)
	if err != nil {
		t.Fatalf("new form: %v", err)
	}
	return f
}

// MustReadFile reads a fixture and returns its raw bytes.
func MustReadFile(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	return data
}

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}
