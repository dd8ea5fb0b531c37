package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	internalParser "github.com/goliatone/go-formbind/internal/openapi/parser"
	"github.com/goliatone/go-formbind/internal/schemaload"
	"github.com/goliatone/go-formbind/pkg/binding"
	"github.com/goliatone/go-formbind/pkg/form"
	"github.com/goliatone/go-formbind/pkg/openapi"
	"github.com/goliatone/go-formbind/pkg/render"
	"github.com/goliatone/go-formbind/pkg/schema"
)

const defaultRendererName = "html"

// Option customises the orchestrator configuration.
type Option func(*Orchestrator)

// WithLoader injects a custom schema loader.
func WithLoader(loader schema.Loader) Option {
	return func(o *Orchestrator) {
		o.loader = loader
	}
}

// WithParser injects a custom OpenAPI parser.
func WithParser(parser openapi.Parser) Option {
	return func(o *Orchestrator) {
		o.parser = parser
	}
}

// WithFormatRegistry replaces the built-in schema and OpenAPI formats.
func WithFormatRegistry(registry *FormatRegistry) Option {
	return func(o *Orchestrator) {
		o.formats = registry
	}
}

// WithOpenAPIOptions configures forms derived from OpenAPI operations.
func WithOpenAPIOptions(options ...openapi.FormOption) Option {
	return func(o *Orchestrator) {
		o.openapiOptions = append(o.openapiOptions, options...)
	}
}

// WithRegistry injects a renderer registry.
func WithRegistry(registry *render.Registry) Option {
	return func(o *Orchestrator) {
		o.registry = registry
	}
}

// WithDefaultRenderer overrides the renderer used when a request omits an
// explicit Renderer field.
func WithDefaultRenderer(name string) Option {
	return func(o *Orchestrator) {
		o.defaultRenderer = name
	}
}

// WithSchemaTransformer registers a Transformer that rewrites the schema
// before the form is built.
func WithSchemaTransformer(t Transformer) Option {
	return func(o *Orchestrator) {
		o.transformer = t
	}
}

// WithFormOptions appends options applied to every form the orchestrator
// builds.
func WithFormOptions(options ...form.Option) Option {
	return func(o *Orchestrator) {
		o.formOptions = append(o.formOptions, options...)
	}
}

// WithLogger sets the structured logger shared with built forms.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Orchestrator coordinates the pipeline from a schema document to rendered
// output. It applies defaults (filesystem loader, kin-openapi parser, HTML and
// JSON renderers) while remaining open to dependency injection.
type Orchestrator struct {
	loader          schema.Loader
	parser          openapi.Parser
	formats         *FormatRegistry
	openapiOptions  []openapi.FormOption
	registry        *render.Registry
	defaultRenderer string
	transformer     Transformer
	formOptions     []form.Option
	logger          *slog.Logger
	initialiseErr   error
}

// New constructs an Orchestrator applying any provided options. Missing
// dependencies are initialised with the built-in implementations.
func New(options ...Option) *Orchestrator {
	o := &Orchestrator{
		defaultRenderer: defaultRendererName,
		logger:          slog.Default(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(o)
	}
	o.applyDefaults()
	return o
}

// Request describes the inputs required to build and render a form.
type Request struct {
	// Source identifies where the document lives. Optional when Document is
	// supplied.
	Source schema.Source

	// Document lets callers bypass the loader.
	Document *schema.Document

	// Format forces FormatSchema or FormatOpenAPI. Detected when empty.
	Format string

	// OperationID selects the OpenAPI operation. Ignored for plain schemas.
	OperationID string

	// Renderer names the renderer to use. Falls back to the default renderer.
	Renderer string

	// Model receives the form's bindings. Optional.
	Model binding.Model

	// Errors, when non-nil, replaces the schema's errors before the form is
	// built, e.g. to surface a previous server response.
	Errors schema.ErrorMap
}

// Schema resolves the request's document into a form schema, after the
// configured transformer ran.
func (o *Orchestrator) Schema(ctx context.Context, req Request) (schema.Schema, error) {
	if err := o.ready(ctx); err != nil {
		return schema.Schema{}, err
	}
	doc, err := o.resolveDocument(ctx, req)
	if err != nil {
		return schema.Schema{}, err
	}
	format, err := o.resolveFormat(req, doc.Raw())
	if err != nil {
		return schema.Schema{}, err
	}
	out, err := format.Schema(ctx, doc, req.OperationID)
	if err != nil {
		return schema.Schema{}, fmt.Errorf("orchestrator: %s format: %w", format.Name(), err)
	}
	if req.Errors != nil {
		out.Errors = req.Errors
	}
	if o.transformer != nil {
		if err := o.transformer.Transform(ctx, &out); err != nil {
			return schema.Schema{}, fmt.Errorf("orchestrator: transform schema: %w", err)
		}
	}
	return out, nil
}

// Build resolves the schema and constructs a form bound to req.Model.
func (o *Orchestrator) Build(ctx context.Context, req Request) (*form.Form, error) {
	s, err := o.Schema(ctx, req)
	if err != nil {
		return nil, err
	}
	options := append([]form.Option{form.WithLogger(o.logger)}, o.formOptions...)
	if req.Model != nil {
		options = append(options, form.WithModel(req.Model))
	}
	f, err := form.New(s, options...)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: build form: %w", err)
	}
	return f, nil
}

// Generate builds the form and renders it with the requested renderer.
func (o *Orchestrator) Generate(ctx context.Context, req Request) ([]byte, error) {
	renderer, err := o.rendererFor(req.Renderer)
	if err != nil {
		return nil, err
	}
	f, err := o.Build(ctx, req)
	if err != nil {
		return nil, err
	}
	output, err := renderer.Render(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: render output: %w", err)
	}
	return output, nil
}

// Registry exposes the renderer registry so callers can add renderers.
func (o *Orchestrator) Registry() *render.Registry {
	return o.registry
}

func (o *Orchestrator) ready(ctx context.Context) error {
	if ctx == nil {
		return errors.New("orchestrator: context is required")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return o.initialiseErr
}

func (o *Orchestrator) resolveDocument(ctx context.Context, req Request) (schema.Document, error) {
	if req.Document != nil {
		return *req.Document, nil
	}
	if req.Source == nil {
		return schema.Document{}, errors.New("orchestrator: source or document is required")
	}
	doc, err := o.loader.Load(ctx, req.Source)
	if err != nil {
		return schema.Document{}, fmt.Errorf("orchestrator: load document: %w", err)
	}
	return doc, nil
}

func (o *Orchestrator) rendererFor(name string) (render.Renderer, error) {
	if o.registry == nil {
		return nil, errors.New("orchestrator: renderer registry is nil")
	}

	target := name
	if target == "" {
		target = o.defaultRenderer
	}
	if target != "" {
		renderer, err := o.registry.Get(target)
		if err == nil {
			return renderer, nil
		}
		if name != "" {
			return nil, fmt.Errorf("orchestrator: renderer %q: %w", name, err)
		}
	}

	names := o.registry.List()
	if len(names) == 0 {
		return nil, errors.New("orchestrator: no renderers registered")
	}
	renderer, err := o.registry.Get(names[0])
	if err != nil {
		return nil, fmt.Errorf("orchestrator: renderer %q: %w", names[0], err)
	}
	return renderer, nil
}

func (o *Orchestrator) applyDefaults() {
	if o.loader == nil {
		o.loader = schemaload.New(schema.NewLoaderOptions())
	}
	if o.parser == nil {
		o.parser = internalParser.New(openapi.NewParserOptions())
	}
	if o.formats == nil {
		adapter := openapi.NewAdapter(o.loader, o.parser, o.openapiOptions...)
		o.formats = NewFormatRegistry()
		o.formats.MustRegister(NewSchemaFormat(adapter))
		o.formats.MustRegister(NewOpenAPIFormat(adapter))
	}
	if o.registry == nil {
		registry, err := render.NewDefaultRegistry()
		if err != nil {
			o.initialiseErr = fmt.Errorf("orchestrator: default renderers: %w", err)
		}
		o.registry = registry
	}
	if o.defaultRenderer == "" {
		o.defaultRenderer = defaultRendererName
	}
}
