package tui

import (
	"io"

	"github.com/goliatone/go-formbind/pkg/form"
)

// OutputFormat controls how cleaned data is serialized.
type OutputFormat string

const (
	// OutputFormatJSON emits application/json payloads.
	OutputFormatJSON OutputFormat = "json"
	// OutputFormatFormURLEncoded emits application/x-www-form-urlencoded payloads.
	OutputFormatFormURLEncoded OutputFormat = "form"
	// OutputFormatPrettyText emits a human-friendly text summary.
	OutputFormatPrettyText OutputFormat = "pretty"
)

// Theme captures optional prefixes the renderer applies to messages.
type Theme struct {
	LegendPrefix string
	InfoPrefix   string
	ErrorPrefix  string
}

// SubmitTransformer mutates cleaned data before serialization.
type SubmitTransformer func(map[string]any) (map[string]any, error)

// Option configures the TUI renderer.
type Option func(*Renderer)

// WithPromptDriver overrides the prompt driver used by the renderer.
func WithPromptDriver(driver PromptDriver) Option {
	return func(r *Renderer) {
		if driver != nil {
			r.driver = driver
		}
	}
}

// WithOutput redirects the default survey driver's informational messages.
func WithOutput(out io.Writer) Option {
	return func(r *Renderer) {
		if out != nil {
			r.out = out
		}
	}
}

// WithOutputFormat selects the output serialization format.
func WithOutputFormat(format OutputFormat) Option {
	return func(r *Renderer) {
		if format != "" {
			r.outputFormat = format
		}
	}
}

// WithSubmitTransformer lets callers mutate cleaned data prior to
// serialization.
func WithSubmitTransformer(fn SubmitTransformer) Option {
	return func(r *Renderer) {
		r.submitTransformer = fn
	}
}

// WithValidator submits the cleaned data after each prompting round and
// re-prompts the fields the refreshed schema flags.
func WithValidator(validator form.Validator) Option {
	return func(r *Renderer) {
		r.validator = validator
	}
}

// WithMaxRounds caps validation rounds. Defaults to 3.
func WithMaxRounds(rounds int) Option {
	return func(r *Renderer) {
		if rounds > 0 {
			r.maxRounds = rounds
		}
	}
}

// WithTheme applies optional message prefixes.
func WithTheme(theme Theme) Option {
	return func(r *Renderer) {
		r.theme = theme
	}
}
