package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-formbind/pkg/openapi"
	"github.com/goliatone/go-formbind/pkg/schema"
)

// Built-in format names.
const (
	FormatSchema  = "schema"
	FormatOpenAPI = "openapi"
)

// Format turns a loaded document into a form schema.
type Format interface {
	Name() string
	Detect(raw []byte) bool
	Schema(ctx context.Context, doc schema.Document, operationID string) (schema.Schema, error)
}

// FormatRegistry stores formats by name.
type FormatRegistry struct {
	mu      sync.RWMutex
	formats map[string]Format
}

// NewFormatRegistry creates an empty registry.
func NewFormatRegistry() *FormatRegistry {
	return &FormatRegistry{formats: make(map[string]Format)}
}

// Register adds a format by its Name(). Duplicate names return an error.
func (r *FormatRegistry) Register(format Format) error {
	if format == nil {
		return errors.New("orchestrator: format is required")
	}
	name := normalizeFormatName(format.Name())
	if name == "" {
		return errors.New("orchestrator: format name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.formats[name]; exists {
		return fmt.Errorf("orchestrator: format %q already registered", name)
	}
	r.formats[name] = format
	return nil
}

// MustRegister panics on registration failure.
func (r *FormatRegistry) MustRegister(format Format) {
	if err := r.Register(format); err != nil {
		panic(err)
	}
}

// Get retrieves a format by name.
func (r *FormatRegistry) Get(name string) (Format, error) {
	key := normalizeFormatName(name)
	if key == "" {
		return nil, errors.New("orchestrator: format name is required")
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	format, ok := r.formats[key]
	if !ok {
		return nil, fmt.Errorf("orchestrator: format %q not found", name)
	}
	return format, nil
}

// List returns the registered format names in sorted order.
func (r *FormatRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.formats))
	for name := range r.formats {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Detect returns the formats claiming raw, sorted by name.
func (r *FormatRegistry) Detect(raw []byte) []Format {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var matches []Format
	for _, format := range r.formats {
		if format.Detect(raw) {
			matches = append(matches, format)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Name() < matches[j].Name()
	})
	return matches
}

func normalizeFormatName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// schemaFormat reads documents that already are form schemas.
type schemaFormat struct {
	openapi *openapi.Adapter
}

func (schemaFormat) Name() string { return FormatSchema }

// Detect claims anything the OpenAPI format does not.
func (f schemaFormat) Detect(raw []byte) bool {
	return f.openapi == nil || !f.openapi.Detect(raw)
}

func (schemaFormat) Schema(_ context.Context, doc schema.Document, _ string) (schema.Schema, error) {
	out, err := doc.Schema()
	if err != nil {
		return schema.Schema{}, err
	}
	if out.Fields.Len() == 0 {
		return schema.Schema{}, fmt.Errorf("%s declares no fields", doc.Location())
	}
	return out, nil
}

// openAPIFormat derives the schema from one operation's request body.
type openAPIFormat struct {
	adapter *openapi.Adapter
}

func (openAPIFormat) Name() string { return FormatOpenAPI }

func (f openAPIFormat) Detect(raw []byte) bool {
	return f.adapter.Detect(raw)
}

func (f openAPIFormat) Schema(ctx context.Context, doc schema.Document, operationID string) (schema.Schema, error) {
	if strings.TrimSpace(operationID) == "" {
		return schema.Schema{}, errors.New("orchestrator: operation id is required for OpenAPI documents")
	}
	return f.adapter.FormFromDocument(ctx, doc, operationID)
}

// NewSchemaFormat returns the plain schema format. adapter, when set, lets
// detection step aside for OpenAPI payloads.
func NewSchemaFormat(adapter *openapi.Adapter) Format {
	return schemaFormat{openapi: adapter}
}

// NewOpenAPIFormat wraps an OpenAPI adapter.
func NewOpenAPIFormat(adapter *openapi.Adapter) Format {
	return openAPIFormat{adapter: adapter}
}

func (o *Orchestrator) resolveFormat(req Request, raw []byte) (Format, error) {
	if name := strings.TrimSpace(req.Format); name != "" {
		return o.formats.Get(name)
	}
	matches := o.formats.Detect(raw)
	switch len(matches) {
	case 0:
		return nil, errors.New("orchestrator: unable to detect document format")
	case 1:
		return matches[0], nil
	default:
		names := make([]string, 0, len(matches))
		for _, match := range matches {
			names = append(names, match.Name())
		}
		return nil, fmt.Errorf("orchestrator: multiple formats matched payload (%s), specify format", strings.Join(names, ", "))
	}
}
