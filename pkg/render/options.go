package render

import (
	"io/fs"
	"strings"

	gotemplate "github.com/goliatone/go-template"
	theme "github.com/goliatone/go-theme"
	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-formbind/pkg/render/template"
)

// Option customises a Renderer.
type Option func(*settings)

type settings struct {
	engine       template.TemplateRenderer
	goTemplate   []gotemplate.Option
	useGoTmpl    bool
	overrides    []fs.FS
	partials     map[string]string
	selector     theme.ThemeSelector
	themeName    string
	themeVariant string
	selection    *theme.Selection
	policy       *bluemonday.Policy
	action       string
	hidden       []HiddenField
	subset       FieldSubset
}

// WithEngine replaces the embedded pongo2 engine. The engine must be able to
// resolve every partial name in use.
func WithEngine(engine template.TemplateRenderer) Option {
	return func(s *settings) {
		s.engine = engine
	}
}

// WithGoTemplate builds the renderer on a go-template engine instead of the
// embedded pongo2 engine. Templates still resolve from the embedded partials
// layered under WithTemplatesFS overrides; options are applied after that
// source and may add a base dir, template funcs or global data. WithEngine
// takes precedence.
func WithGoTemplate(options ...gotemplate.Option) Option {
	return func(s *settings) {
		s.useGoTmpl = true
		for _, opt := range options {
			if opt != nil {
				s.goTemplate = append(s.goTemplate, opt)
			}
		}
	}
}

// WithTemplatesFS layers files over the embedded templates. A file named like
// a default partial (for example "input_text.tpl") replaces it.
func WithTemplatesFS(files fs.FS) Option {
	return func(s *settings) {
		if files != nil {
			s.overrides = append(s.overrides, files)
		}
	}
}

// WithPartials maps partial keys (PartialForm, PartialInput, ...) to template
// names. Entries here win over theme templates.
func WithPartials(partials map[string]string) Option {
	return func(s *settings) {
		if len(partials) == 0 {
			return
		}
		if s.partials == nil {
			s.partials = make(map[string]string, len(partials))
		}
		for key, name := range partials {
			key = strings.TrimSpace(key)
			name = strings.TrimSpace(name)
			if key != "" && name != "" {
				s.partials[key] = name
			}
		}
	}
}

// WithThemeSelector resolves name/variant through selector when the renderer
// is built.
func WithThemeSelector(selector theme.ThemeSelector, name, variant string) Option {
	return func(s *settings) {
		s.selector = selector
		s.themeName = strings.TrimSpace(name)
		s.themeVariant = strings.TrimSpace(variant)
	}
}

// WithThemeManifest applies a manifest directly, bypassing a selector.
func WithThemeManifest(manifest *theme.Manifest, variant string) Option {
	return func(s *settings) {
		if manifest == nil {
			return
		}
		s.selection = &theme.Selection{
			Theme:    manifest.Name,
			Variant:  strings.TrimSpace(variant),
			Manifest: manifest,
		}
	}
}

// WithSanitizer replaces the strict policy applied to server messages and
// help text.
func WithSanitizer(policy *bluemonday.Policy) Option {
	return func(s *settings) {
		s.policy = policy
	}
}

// WithAction sets the form action; the form posts to it.
func WithAction(url string) Option {
	return func(s *settings) {
		s.action = strings.TrimSpace(url)
	}
}

// WithHiddenFields appends hidden inputs to the form shell.
func WithHiddenFields(fields ...HiddenField) Option {
	return func(s *settings) {
		s.hidden = append(s.hidden, fields...)
	}
}

