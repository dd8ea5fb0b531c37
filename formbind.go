// Package formbind binds server-described form schemas to a model, reconciles
// composite date widgets, redistributes validation errors and extracts
// cleaned data. The root package re-exports the common entry points; the
// building blocks live under pkg/.
package formbind

import (
	"context"
	"io/fs"

	"github.com/goliatone/go-formbind/internal/openapi/parser"
	"github.com/goliatone/go-formbind/internal/schemaload"
	"github.com/goliatone/go-formbind/pkg/form"
	"github.com/goliatone/go-formbind/pkg/openapi"
	"github.com/goliatone/go-formbind/pkg/orchestrator"
	"github.com/goliatone/go-formbind/pkg/render"
	"github.com/goliatone/go-formbind/pkg/schema"
)

// NewLoader constructs a schema loader using the internal implementation while
// keeping the concrete type hidden from consumers.
func NewLoader(options ...schema.LoaderOption) schema.Loader {
	return schemaload.New(schema.NewLoaderOptions(options...))
}

// NewParser constructs an OpenAPI parser backed by kin-openapi.
func NewParser(options ...openapi.ParserOption) openapi.Parser {
	return parser.New(openapi.NewParserOptions(options...))
}

// NewOrchestrator exposes the orchestrator constructor from the top-level
// module.
func NewOrchestrator(options ...orchestrator.Option) *orchestrator.Orchestrator {
	return orchestrator.New(options...)
}

// NewForm builds a form from a decoded schema.
func NewForm(s schema.Schema, options ...form.Option) (*form.Form, error) {
	return form.New(s, options...)
}

// GenerateHTML loads source, builds the form and renders it with the named
// renderer. operationID is only used for OpenAPI documents.
func GenerateHTML(ctx context.Context, source schema.Source, operationID, rendererName string, options ...orchestrator.Option) ([]byte, error) {
	return orchestrator.New(options...).Generate(ctx, orchestrator.Request{
		Source:      source,
		OperationID: operationID,
		Renderer:    rendererName,
	})
}

// GenerateHTMLFromDocument renders a form from a pre-loaded document,
// bypassing the loader stage.
func GenerateHTMLFromDocument(ctx context.Context, doc schema.Document, operationID, rendererName string, options ...orchestrator.Option) ([]byte, error) {
	return orchestrator.New(options...).Generate(ctx, orchestrator.Request{
		Document:    &doc,
		OperationID: operationID,
		Renderer:    rendererName,
	})
}

// EmbeddedTemplates exposes the built-in HTML partials so callers can reuse
// or extend them without importing the render package directly.
func EmbeddedTemplates() fs.FS {
	return render.Templates()
}
