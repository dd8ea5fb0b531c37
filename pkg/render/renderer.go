package render

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/a-h/templ"
	gotemplate "github.com/goliatone/go-template"
	theme "github.com/goliatone/go-theme"
	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-formbind/pkg/fields"
	"github.com/goliatone/go-formbind/pkg/form"
	"github.com/goliatone/go-formbind/pkg/render/template"
	"github.com/goliatone/go-formbind/pkg/render/template/pongo"
	"github.com/goliatone/go-formbind/pkg/schema"
)

// Renderer converts a live form into a byte representation.
type Renderer interface {
	Name() string
	ContentType() string
	Render(ctx context.Context, f *form.Form) ([]byte, error)
}

// HTML renders forms through named partials: form shell, fieldsets, field
// rows, widgets and error regions.
type HTML struct {
	engine   template.TemplateRenderer
	partials map[string]string
	theme    themeContext
	assetURL func(string) string
	policy   *bluemonday.Policy
	action   string
	hidden   []HiddenField
	subset   subsetMatcher
}

var (
	_ Renderer                  = (*HTML)(nil)
	_ fields.Templates          = (*HTML)(nil)
	_ template.TemplateRenderer = (*gotemplate.Engine)(nil)
)

// NewHTML builds an HTML renderer over the embedded templates unless
// WithEngine supplies another engine.
func NewHTML(options ...Option) (*HTML, error) {
	s := &settings{}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(s)
	}

	engine, err := buildEngine(s)
	if err != nil {
		return nil, err
	}

	selection, err := selectTheme(s)
	if err != nil {
		return nil, err
	}
	cfg := rendererConfig(selection)

	partials := defaultPartials()
	if cfg != nil {
		for key, name := range cfg.Partials {
			if _, known := partials[key]; known && strings.TrimSpace(name) != "" {
				partials[key] = name
			}
		}
	}
	for key, name := range s.partials {
		partials[key] = name
	}

	policy := s.policy
	if policy == nil {
		policy = messageSanitizer()
	}

	return &HTML{
		engine:   engine,
		partials: partials,
		theme:    buildThemeContext(cfg),
		assetURL: assetResolver(cfg),
		policy:   policy,
		action:   s.action,
		hidden:   sortedHiddenFields(s.hidden),
		subset:   newSubsetMatcher(s.subset),
	}, nil
}

func buildEngine(s *settings) (template.TemplateRenderer, error) {
	if s.engine != nil {
		return s.engine, nil
	}
	if s.useGoTmpl {
		options := append([]gotemplate.Option{gotemplate.WithFS(layerTemplates(s.overrides))}, s.goTemplate...)
		built, err := gotemplate.NewRenderer(options...)
		if err != nil {
			return nil, fmt.Errorf("render: build go-template engine: %w", err)
		}
		return built, nil
	}
	engineOptions := []pongo.Option{pongo.WithFS(Templates())}
	for _, files := range s.overrides {
		engineOptions = append(engineOptions, pongo.WithFS(files))
	}
	built, err := pongo.New(engineOptions...)
	if err != nil {
		return nil, fmt.Errorf("render: build engine: %w", err)
	}
	return built, nil
}

func assetResolver(cfg *theme.RendererConfig) func(string) string {
	if cfg == nil || cfg.AssetURL == nil {
		return func(string) string { return "" }
	}
	return cfg.AssetURL
}

// Name implements Renderer.
func (h *HTML) Name() string { return "html" }

// ContentType implements Renderer.
func (h *HTML) ContentType() string { return "text/html; charset=utf-8" }

// Partial returns the template name behind a partial key.
func (h *HTML) Partial(key string) (string, bool) {
	name, ok := h.partials[key]
	return name, ok
}

// AssetURL resolves a theme asset key. Unknown keys resolve to "".
func (h *HTML) AssetURL(key string) string {
	return h.assetURL(key)
}

// Render implements Renderer.
func (h *HTML) Render(ctx context.Context, f *form.Form) ([]byte, error) {
	out, err := h.RenderForm(ctx, f)
	if err != nil {
		return nil, err
	}
	return []byte(out), nil
}

// RenderForm renders every fieldset of f inside the form shell. Field values
// come from the form's model, falling back to each descriptor's initial value.
func (h *HTML) RenderForm(ctx context.Context, f *form.Form) (string, error) {
	if f == nil {
		return "", errors.New("render: form is required")
	}
	templates := h.forForm(f)

	var sets strings.Builder
	for _, group := range h.subset.apply(f.Fieldsets()) {
		var rows strings.Builder
		for _, ctrl := range group.Fields {
			if err := ctx.Err(); err != nil {
				return "", err
			}
			row, err := ctrl.Render(ctx, templates)
			if err != nil {
				return "", fmt.Errorf("render: field %q: %w", ctrl.Descriptor().Key, err)
			}
			rows.WriteString(row)
		}
		fieldset, err := h.partial(PartialFieldset, map[string]any{
			"key":    group.Key,
			"legend": group.Legend,
			"fields": rows.String(),
		})
		if err != nil {
			return "", err
		}
		sets.WriteString(fieldset)
	}

	formErrors, err := h.errorRegion(schema.AllFieldsKey, f.Errors().All)
	if err != nil {
		return "", err
	}
	return h.partial(PartialForm, map[string]any{
		"title":         f.Schema().Title,
		"action":        h.action,
		"success":       f.Success(),
		"theme":         h.theme,
		"hidden_fields": h.hidden,
		"errors":        formErrors,
		"fieldsets":     sets.String(),
	})
}

// Component adapts RenderForm to a templ component for embedding in templ
// pages.
func (h *HTML) Component(f *form.Form) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		out, err := h.RenderForm(ctx, f)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, out)
		return err
	})
}

// RenderField implements fields.Templates without a model; values come from
// descriptor initials.
func (h *HTML) RenderField(ctx context.Context, field fields.FieldContext) (string, error) {
	return fieldTemplates{html: h}.RenderField(ctx, field)
}

// RenderErrors implements fields.Templates.
func (h *HTML) RenderErrors(_ context.Context, field fields.FieldContext) (string, error) {
	return h.errorRegion(field.Field.Key, field.Errors)
}

func (h *HTML) forForm(f *form.Form) fieldTemplates {
	model := f.Model()
	if model == nil {
		return fieldTemplates{html: h}
	}
	return fieldTemplates{
		html: h,
		lookup: func(desc schema.FieldDescriptor) (any, bool) {
			return model.Get(desc.Binding)
		},
	}
}

func (h *HTML) errorRegion(key string, messages []string) (string, error) {
	return h.partial(PartialErrors, map[string]any{
		"key":      key,
		"messages": sanitizeMessages(h.policy, messages),
	})
}

func (h *HTML) partial(key string, data map[string]any) (string, error) {
	name, ok := h.partials[key]
	if !ok {
		return "", fmt.Errorf("render: unknown partial %q", key)
	}
	out, err := h.engine.RenderTemplate(name, data)
	if err != nil {
		return "", fmt.Errorf("render: %s: %w", key, err)
	}
	return out, nil
}

// ErrorRegions returns an error display that re-renders a field's error
// region every time its controller refreshes errors.
func (h *HTML) ErrorRegions() *ErrorRegions {
	return &ErrorRegions{html: h, regions: make(map[string]string)}
}

// ErrorRegions keeps the last rendered error region per field key. It is
// safe for concurrent use.
type ErrorRegions struct {
	html *HTML

	mu      sync.RWMutex
	regions map[string]string
	err     error
}

var _ fields.ErrorDisplay = (*ErrorRegions)(nil)

// ShowErrors implements fields.ErrorDisplay.
func (e *ErrorRegions) ShowErrors(key string, messages []string) {
	out, err := e.html.errorRegion(key, messages)

	e.mu.Lock()
	defer e.mu.Unlock()
	if err != nil {
		e.err = err
		return
	}
	e.regions[key] = out
}

// Region returns the last rendered region for key.
func (e *ErrorRegions) Region(key string) (string, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out, ok := e.regions[key]
	return out, ok
}

// Err reports the last rendering failure, if any.
func (e *ErrorRegions) Err() error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.err
}
