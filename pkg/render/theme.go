package render

import (
	"fmt"
	"path"
	"sort"
	"strings"

	theme "github.com/goliatone/go-theme"
)

// Partial keys understood by the renderer. Theme manifests override the
// template behind a key through their Templates map.
const (
	PartialForm     = "forms.form"
	PartialFieldset = "forms.fieldset"
	PartialField    = "forms.field"
	PartialErrors   = "forms.errors"
	PartialInput    = "forms.input"
	PartialTextarea = "forms.textarea"
	PartialCheckbox = "forms.checkbox"
	PartialSelect   = "forms.select"
	PartialDate     = "forms.date"
)

func defaultPartials() map[string]string {
	return map[string]string{
		PartialForm:     "form",
		PartialFieldset: "fieldset",
		PartialField:    "field",
		PartialErrors:   "errors",
		PartialInput:    "input_text",
		PartialTextarea: "textarea",
		PartialCheckbox: "input_checkbox",
		PartialSelect:   "input_select",
		PartialDate:     "input_date",
	}
}

// themeContext is what templates see under "theme".
type themeContext struct {
	Name    string            `json:"name,omitempty"`
	Variant string            `json:"variant,omitempty"`
	Tokens  map[string]string `json:"tokens,omitempty"`
	CSSVars map[string]string `json:"css_vars,omitempty"`
	Style   string            `json:"style,omitempty"`
}

func selectTheme(s *settings) (*theme.Selection, error) {
	if s.selection != nil {
		return s.selection, nil
	}
	if s.selector == nil {
		return nil, nil
	}
	selection, err := s.selector.Select(s.themeName, s.themeVariant)
	if err != nil {
		return nil, fmt.Errorf("render: select theme %q: %w", s.themeName, err)
	}
	return selection, nil
}

// rendererConfig flattens a selection: variant tokens and templates win over
// the manifest defaults.
func rendererConfig(selection *theme.Selection) *theme.RendererConfig {
	if selection == nil || selection.Manifest == nil {
		return nil
	}
	manifest := selection.Manifest
	cfg := &theme.RendererConfig{
		Theme:    firstNonEmpty(selection.Theme, manifest.Name),
		Variant:  selection.Variant,
		Partials: copyStringMap(manifest.Templates),
		Tokens:   copyStringMap(manifest.Tokens),
	}
	prefix := manifest.Assets.Prefix
	files := copyStringMap(manifest.Assets.Files)

	if variant, ok := manifest.Variants[selection.Variant]; ok {
		cfg.Partials = mergeStringMaps(cfg.Partials, variant.Templates)
		cfg.Tokens = mergeStringMaps(cfg.Tokens, variant.Tokens)
		files = mergeStringMaps(files, variant.Assets.Files)
		if variant.Assets.Prefix != "" {
			prefix = variant.Assets.Prefix
		}
	}

	if len(cfg.Tokens) > 0 {
		cfg.CSSVars = make(map[string]string, len(cfg.Tokens))
		for token, value := range cfg.Tokens {
			cfg.CSSVars["--"+token] = value
		}
	}
	cfg.AssetURL = func(key string) string {
		file, ok := files[key]
		if !ok || file == "" {
			return ""
		}
		if prefix == "" {
			return file
		}
		return path.Join(prefix, file)
	}
	return cfg
}

func buildThemeContext(cfg *theme.RendererConfig) themeContext {
	if cfg == nil {
		return themeContext{}
	}
	ctx := themeContext{
		Name:    cfg.Theme,
		Variant: cfg.Variant,
		Tokens:  copyStringMap(cfg.Tokens),
		CSSVars: copyStringMap(cfg.CSSVars),
	}
	ctx.Style = inlineStyle(ctx.CSSVars)
	return ctx
}

// inlineStyle renders CSS variables as a style attribute value.
func inlineStyle(vars map[string]string) string {
	if len(vars) == 0 {
		return ""
	}
	keys := make([]string, 0, len(vars))
	for key := range vars {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, key+": "+vars[key])
	}
	return strings.Join(parts, "; ")
}

func copyStringMap(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}

func mergeStringMaps(base, overrides map[string]string) map[string]string {
	if len(overrides) == 0 {
		return base
	}
	if base == nil {
		base = make(map[string]string, len(overrides))
	}
	for key, value := range overrides {
		base[key] = value
	}
	return base
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
