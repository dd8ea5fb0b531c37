package openapi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/goliatone/go-formbind/pkg/schema"
)

// Adapter loads OpenAPI documents and turns operations into form schemas.
type Adapter struct {
	loader  schema.Loader
	parser  Parser
	options []FormOption
}

// NewAdapter constructs an adapter. options apply to every derived form.
func NewAdapter(loader schema.Loader, parser Parser, options ...FormOption) *Adapter {
	return &Adapter{loader: loader, parser: parser, options: options}
}

// Detect reports whether the payload looks like an OpenAPI document.
func (a *Adapter) Detect(raw []byte) bool {
	return detectOpenAPI(raw)
}

// Operations loads src and returns its operation ids, sorted.
func (a *Adapter) Operations(ctx context.Context, src schema.Source) ([]string, error) {
	operations, err := a.operations(ctx, src)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(operations))
	for id := range operations {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Form loads src and derives the schema of one operation.
func (a *Adapter) Form(ctx context.Context, src schema.Source, operationID string) (schema.Schema, error) {
	doc, err := a.load(ctx, src)
	if err != nil {
		return schema.Schema{}, err
	}
	return a.FormFromDocument(ctx, doc, operationID)
}

// FormFromDocument derives the schema of one operation from a loaded
// document.
func (a *Adapter) FormFromDocument(ctx context.Context, doc schema.Document, operationID string) (schema.Schema, error) {
	operations, err := a.parse(ctx, doc)
	if err != nil {
		return schema.Schema{}, err
	}
	op, ok := operations[strings.TrimSpace(operationID)]
	if !ok {
		return schema.Schema{}, fmt.Errorf("openapi: operation %q not found", operationID)
	}
	return FormSchema(op, a.options...)
}

func (a *Adapter) operations(ctx context.Context, src schema.Source) (map[string]Operation, error) {
	doc, err := a.load(ctx, src)
	if err != nil {
		return nil, err
	}
	return a.parse(ctx, doc)
}

func (a *Adapter) load(ctx context.Context, src schema.Source) (schema.Document, error) {
	if a == nil || a.loader == nil {
		return schema.Document{}, errors.New("openapi adapter: loader is nil")
	}
	return a.loader.Load(ctx, src)
}

func (a *Adapter) parse(ctx context.Context, doc schema.Document) (map[string]Operation, error) {
	if a == nil || a.parser == nil {
		return nil, errors.New("openapi adapter: parser is nil")
	}
	if !detectOpenAPI(doc.Raw()) {
		return nil, fmt.Errorf("openapi adapter: %s is not an OpenAPI document", doc.Location())
	}
	return a.parser.Operations(ctx, doc)
}

func detectOpenAPI(raw []byte) bool {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return false
	}
	if trimmed[0] == '{' {
		var payload map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &payload); err == nil {
			if _, ok := payload["openapi"]; ok {
				return true
			}
			if _, ok := payload["swagger"]; ok {
				return true
			}
		}
		return false
	}
	lower := strings.ToLower(string(trimmed))
	return strings.Contains(lower, "openapi:") || strings.Contains(lower, "swagger:")
}
