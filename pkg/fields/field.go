package fields

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/goliatone/go-formbind/pkg/binding"
	"github.com/goliatone/go-formbind/pkg/schema"
)

// Kind identifies the structural controller variant.
type Kind string

const (
	KindText   Kind = "text"
	KindSelect Kind = "select"
	KindDate   Kind = "date"
)

// KindFor maps a widget input type onto its controller variant.
func KindFor(inputType schema.InputType) Kind {
	switch inputType {
	case schema.InputDate:
		return KindDate
	case schema.InputSelect:
		return KindSelect
	default:
		return KindText
	}
}

// Controller is the live runtime object bound to one field descriptor.
type Controller interface {
	binding.Provider
	Descriptor() schema.FieldDescriptor
	Kind() Kind
	Anchors() []string
	Errors() []string
	Violations() []FieldValidationError
	UpdateFromSchema(s schema.Schema)
	Validate(value any) bool
	Render(ctx context.Context, templates Templates) (string, error)
}

// ErrorDisplay refreshes the error region of a single field.
type ErrorDisplay interface {
	ShowErrors(key string, messages []string)
}

// ErrorDisplayFunc adapts a function to ErrorDisplay.
type ErrorDisplayFunc func(key string, messages []string)

// ShowErrors implements ErrorDisplay.
func (fn ErrorDisplayFunc) ShowErrors(key string, messages []string) {
	fn(key, messages)
}

// Surface is the part of a DOM collaborator a controller needs to push
// display values and observe control changes.
type Surface interface {
	SetValue(id string, value any)
	OnChange(id string, fn func(value any))
}

// Attacher is implemented by controllers that wire themselves to a surface on
// initial bind.
type Attacher interface {
	Attach(surface Surface, m binding.Model)
}

// Detacher releases listeners installed by Attach.
type Detacher interface {
	Detach()
}

// Config carries per-controller collaborators.
type Config struct {
	// Display receives error refreshes. Nil disables the side effect.
	Display ErrorDisplay
	// StrictValidation makes Validate return false when violations exist,
	// which stops the model write. Off by default: errors are surfaced but
	// never gate the write.
	StrictValidation bool
}

// FieldValidationError is one client-side constraint violation.
type FieldValidationError struct {
	Field   string
	Kind    string
	Message string
}

func (e FieldValidationError) Error() string {
	return fmt.Sprintf("fields: %s: %s", e.Field, e.Message)
}

// ErrNoTemplates is returned by Render when no templating collaborator is
// configured.
var ErrNoTemplates = errors.New("fields: templates are required")

// Field is the base controller used by text-like inputs and checkboxes.
type Field struct {
	desc       schema.FieldDescriptor
	kind       Kind
	cfg        Config
	errors     []string
	violations []FieldValidationError
}

// NewField constructs the base controller.
func NewField(desc schema.FieldDescriptor, cfg Config) *Field {
	return &Field{desc: desc, kind: KindText, cfg: cfg}
}

// Key returns the field id.
func (f *Field) Key() string { return f.desc.Key }

// Descriptor returns the field descriptor.
func (f *Field) Descriptor() schema.FieldDescriptor { return f.desc }

// Kind returns the controller variant.
func (f *Field) Kind() Kind { return f.kind }

// Anchors lists the DOM anchor ids owned by the controller.
func (f *Field) Anchors() []string { return []string{f.desc.Key} }

// Errors returns a copy of the current error list.
func (f *Field) Errors() []string {
	return append([]string{}, f.errors...)
}

// Violations returns the violations found by the last Validate call.
func (f *Field) Violations() []FieldValidationError {
	return append([]FieldValidationError(nil), f.violations...)
}

// Bindings returns one entry observing the field binding and validating
// every candidate value.
func (f *Field) Bindings(binding.Model) binding.Map {
	return binding.Map{
		binding.Selector(f.desc.Key): {
			Observe:     f.desc.Binding,
			UpdateModel: f.Validate,
		},
	}
}

// UpdateFromSchema adopts the schema's descriptor for this field, replaces
// the error list with the schema's entry and refreshes the error display.
// The binding attribute is kept: installed bindings already observe it.
func (f *Field) UpdateFromSchema(s schema.Schema) {
	if desc, ok := s.Fields.Get(f.desc.Key); ok {
		desc.Binding = f.desc.Binding
		f.desc = desc
	}
	f.errors = s.Errors.For(f.desc.Key)
	if f.errors == nil {
		f.errors = []string{}
	}
	f.refreshErrors()
}

// Validate re-derives errors from required, min_length and max_length. The
// return value only reports false under Config.StrictValidation.
func (f *Field) Validate(value any) bool {
	f.errors = []string{}
	f.violations = nil

	text := stringValue(value)
	if f.desc.Required && text == "" {
		f.addViolation(schema.MessageRequired, f.desc.Message(schema.MessageRequired, "This field is required."))
	}
	length := utf8.RuneCountInString(text)
	if limit := f.desc.MinLength; limit != nil && length < *limit {
		f.addViolation(schema.MessageMinLength, f.desc.Message(schema.MessageMinLength,
			fmt.Sprintf("Must be at least %d characters", *limit)))
	}
	if limit := f.desc.MaxLength; limit != nil && length > *limit {
		f.addViolation(schema.MessageMaxLength, f.desc.Message(schema.MessageMaxLength,
			fmt.Sprintf("Cannot exceed %d characters", *limit)))
	}

	f.refreshErrors()
	if f.cfg.StrictValidation && len(f.violations) > 0 {
		return false
	}
	return true
}

// Render delegates to the templating collaborator.
func (f *Field) Render(ctx context.Context, templates Templates) (string, error) {
	return f.render(ctx, templates, f.Context())
}

// Context returns the template context for the field.
func (f *Field) Context() FieldContext {
	return FieldContext{
		Field:   f.desc,
		Kind:    f.kind,
		Errors:  f.Errors(),
		Anchors: f.Anchors(),
	}
}

func (f *Field) render(ctx context.Context, templates Templates, fieldCtx FieldContext) (string, error) {
	if templates == nil {
		return "", ErrNoTemplates
	}
	return templates.RenderField(ctx, fieldCtx)
}

func (f *Field) addViolation(kind, message string) {
	for _, existing := range f.errors {
		if existing == message {
			return
		}
	}
	f.errors = append(f.errors, message)
	f.violations = append(f.violations, FieldValidationError{Field: f.desc.Key, Kind: kind, Message: message})
}

func (f *Field) refreshErrors() {
	if f.cfg.Display != nil {
		f.cfg.Display.ShowErrors(f.desc.Key, f.Errors())
	}
}

func stringValue(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return typed
	default:
		return fmt.Sprint(typed)
	}
}
