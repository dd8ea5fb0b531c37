package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"sort"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/goliatone/go-formbind/pkg/binding"
	"github.com/goliatone/go-formbind/pkg/controls"
	"github.com/goliatone/go-formbind/pkg/fields"
	"github.com/goliatone/go-formbind/pkg/form"
	"github.com/goliatone/go-formbind/pkg/render"
	"github.com/goliatone/go-formbind/pkg/schema"
)

// ErrUnresolved is returned when validation rounds run out while the form
// still carries errors.
var ErrUnresolved = errors.New("tui: form still has errors")

// Renderer walks a form in the terminal. Every answer is pushed into a
// headless control surface bound to the form, so the same bindings, date
// reconciliation and cleaning run as in a browser session. Render returns the
// cleaned data.
type Renderer struct {
	driver            PromptDriver
	out               io.Writer
	outputFormat      OutputFormat
	submitTransformer SubmitTransformer
	validator         form.Validator
	maxRounds         int
	theme             Theme
}

var _ render.Renderer = (*Renderer)(nil)

// contextual is implemented by every built-in controller.
type contextual interface {
	Context() fields.FieldContext
}

// New constructs a TUI renderer with defaults (survey driver, JSON output).
func New(options ...Option) *Renderer {
	r := &Renderer{
		outputFormat: OutputFormatJSON,
		maxRounds:    3,
		theme:        Theme{ErrorPrefix: "! "},
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}
	if r.driver == nil {
		r.driver = newSurveyDriver(r.writer())
	}
	return r
}

// Name reports the renderer identifier.
func (r *Renderer) Name() string {
	return "tui"
}

// ContentType reports the serialization format used by Render.
func (r *Renderer) ContentType() string {
	switch r.outputFormat {
	case OutputFormatFormURLEncoded:
		return "application/x-www-form-urlencoded"
	case OutputFormatPrettyText:
		return "text/plain; charset=utf-8"
	default:
		return "application/json"
	}
}

// Render prompts for every field, fieldset by fieldset. With a validator the
// cleaned data is submitted after each round and only the flagged fields are
// asked again.
func (r *Renderer) Render(ctx context.Context, f *form.Form) ([]byte, error) {
	if f == nil {
		return nil, errors.New("tui: form is nil")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	surface := controls.New()
	stop := f.Bind(surface)
	defer stop()

	pending := f.Fieldsets()
	for round := 1; ; round++ {
		if err := r.promptFieldsets(ctx, surface, pending); err != nil {
			return nil, err
		}
		if r.validator == nil {
			break
		}
		ok, err := f.Validate(ctx, r.validator)
		if err != nil && !errors.Is(err, form.ErrStaleSchema) {
			return nil, fmt.Errorf("tui: %w", err)
		}
		if ok {
			break
		}
		errs := f.Errors()
		r.showErrors(ctx, errs.All)
		if round >= r.maxRounds {
			return nil, ErrUnresolved
		}
		if len(errs.Fields) > 0 {
			pending = []form.Fieldset{{Fields: errs.Fields}}
		} else {
			pending = f.Fieldsets()
		}
	}

	values := f.Clean()
	if r.submitTransformer != nil {
		var err error
		values, err = r.submitTransformer(values)
		if err != nil {
			return nil, fmt.Errorf("tui: submit transformer: %w", err)
		}
	}
	return r.serialize(values)
}

func (r *Renderer) promptFieldsets(ctx context.Context, surface *controls.Surface, groups []form.Fieldset) error {
	for _, group := range groups {
		if legend := strings.TrimSpace(group.Legend); legend != "" {
			if err := r.driver.Info(ctx, r.theme.LegendPrefix+legend); err != nil {
				return err
			}
		}
		for _, ctrl := range group.Fields {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := r.promptField(ctx, surface, ctrl); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Renderer) promptField(ctx context.Context, surface *controls.Surface, ctrl fields.Controller) error {
	r.showErrors(ctx, ctrl.Errors())

	fieldCtx := fieldContext(ctrl)
	desc := fieldCtx.Field
	label := firstNonEmpty(desc.Label, desc.Key)
	if desc.Required {
		label += " *"
	}

	switch ctrl.Kind() {
	case fields.KindSelect:
		return r.promptChoice(ctx, surface, desc.Key, label, desc.HelpText, fieldCtx.Options)
	case fields.KindDate:
		for _, part := range fieldCtx.Parts {
			partLabel := fmt.Sprintf("%s (%s)", label, part.Name)
			if err := r.promptChoice(ctx, surface, part.Anchor, partLabel, desc.HelpText, part.Options); err != nil {
				return err
			}
		}
		return nil
	}

	if desc.Widget.InputType == schema.InputCheckbox {
		checked, err := r.driver.Confirm(ctx, ConfirmConfig{
			Message: label,
			Default: surface.Checked(desc.Key) || isTruthy(currentValue(surface, desc.Key)),
			Help:    desc.HelpText,
		})
		if err != nil {
			return err
		}
		surface.SetChecked(desc.Key, checked)
		return nil
	}

	for {
		answer, err := r.askText(ctx, desc, label, currentValue(surface, desc.Key))
		if err != nil {
			return err
		}
		surface.Change(desc.Key, answer)
		ctrl.Validate(answer)
		violations := ctrl.Violations()
		if len(violations) == 0 {
			return nil
		}
		for _, violation := range violations {
			if err := r.driver.Info(ctx, r.theme.ErrorPrefix+violation.Message); err != nil {
				return err
			}
		}
	}
}

func (r *Renderer) askText(ctx context.Context, desc schema.FieldDescriptor, label, current string) (string, error) {
	switch desc.Widget.InputType {
	case schema.InputPassword:
		return r.driver.Password(ctx, InputConfig{Message: label, Help: desc.HelpText})
	case schema.InputTextarea:
		return r.driver.TextArea(ctx, TextAreaConfig{Message: label, Default: current, Help: desc.HelpText})
	default:
		return r.driver.Input(ctx, InputConfig{Message: label, Default: current, Help: desc.HelpText})
	}
}

func (r *Renderer) promptChoice(ctx context.Context, surface *controls.Surface, anchor, label, help string, options []binding.Option) error {
	if len(options) == 0 {
		return fmt.Errorf("%w: %s", ErrNoOptions, anchor)
	}
	labels := make([]string, len(options))
	current := currentValue(surface, anchor)
	defaultIndex := -1
	for i, option := range options {
		labels[i] = firstNonEmpty(option.Label, fmt.Sprint(option.Value))
		if current != "" && fmt.Sprint(option.Value) == current {
			defaultIndex = i
		}
	}

	idx, err := r.driver.Select(ctx, SelectConfig{
		Message:      label,
		Options:      labels,
		DefaultIndex: defaultIndex,
		Help:         help,
	})
	if err != nil {
		return err
	}
	if idx < 0 || idx >= len(options) {
		return fmt.Errorf("tui: selection %d out of range for %s", idx, anchor)
	}
	surface.Change(anchor, options[idx].Value)
	return nil
}

func (r *Renderer) showErrors(ctx context.Context, messages []string) {
	for _, message := range messages {
		_ = r.driver.Info(ctx, r.theme.ErrorPrefix+message)
	}
}

func (r *Renderer) serialize(values map[string]any) ([]byte, error) {
	switch r.outputFormat {
	case OutputFormatFormURLEncoded:
		return []byte(flattenForm(values)), nil
	case OutputFormatPrettyText:
		return []byte(prettyPrint(values)), nil
	default:
		out, err := json.Marshal(values)
		if err != nil {
			return nil, fmt.Errorf("tui: encode json: %w", err)
		}
		return out, nil
	}
}

func (r *Renderer) writer() io.Writer {
	if r.out != nil {
		return r.out
	}
	return os.Stdout
}

func fieldContext(ctrl fields.Controller) fields.FieldContext {
	if c, ok := ctrl.(contextual); ok {
		return c.Context()
	}
	return fields.FieldContext{
		Field:   ctrl.Descriptor(),
		Kind:    ctrl.Kind(),
		Errors:  ctrl.Errors(),
		Anchors: ctrl.Anchors(),
	}
}

func currentValue(surface *controls.Surface, id string) string {
	value, ok := surface.Value(id)
	if !ok || value == nil {
		return ""
	}
	if b, isBool := value.(bool); isBool && !b {
		return ""
	}
	return fmt.Sprint(value)
}

func isTruthy(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "on", "1", "yes":
		return true
	}
	return false
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}

func flattenForm(values map[string]any) string {
	flattened := url.Values{}
	for key, value := range values {
		switch typed := value.(type) {
		case []any:
			for _, item := range typed {
				flattened.Add(key+"[]", fmt.Sprint(item))
			}
		case nil:
			flattened.Set(key, "")
		default:
			flattened.Set(key, fmt.Sprint(typed))
		}
	}
	return flattened.Encode()
}

func prettyPrint(values map[string]any) string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, key := range keys {
		fmt.Fprintf(&b, "%s=%v\n", key, values[key])
	}
	return b.String()
}
