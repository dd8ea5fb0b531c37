package schema

import (
	"fmt"
	"strings"
)

// InputType is the widget discriminator carried by every field descriptor.
type InputType string

const (
	InputText     InputType = "text"
	InputTextarea InputType = "textarea"
	InputPassword InputType = "password"
	InputEmail    InputType = "email"
	InputDate     InputType = "date"
	InputSelect   InputType = "select"
	InputCheckbox InputType = "checkbox"
)

// Valid reports whether the input type belongs to the supported set.
func (t InputType) Valid() bool {
	switch t {
	case InputText, InputTextarea, InputPassword, InputEmail, InputDate, InputSelect, InputCheckbox:
		return true
	default:
		return false
	}
}

const (
	// BindingAttr is the reserved widget attribute that overrides the model
	// attribute a field binds to.
	BindingAttr = "data-binding"
	// AllFieldsKey holds whole-form errors inside Schema.Errors.
	AllFieldsKey = "__all__"
)

// Violation kinds used as keys in FieldDescriptor.ErrorMessages.
const (
	MessageRequired  = "required"
	MessageInvalid   = "invalid"
	MessageMinLength = "min_length"
	MessageMaxLength = "max_length"
)

// Schema is the declarative description of a form. Schemas are replaced
// wholesale on every update; nothing in this module mutates one in place
// after normalization.
type Schema struct {
	Title     string     `json:"title" yaml:"title"`
	Fields    FieldSet   `json:"fields" yaml:"fields"`
	Fieldsets []Fieldset `json:"fieldsets,omitempty" yaml:"fieldsets,omitempty"`
	Errors    ErrorMap   `json:"errors" yaml:"errors"`
}

// Fieldset groups field ids under an optional legend.
type Fieldset struct {
	Key    string   `json:"key,omitempty" yaml:"key,omitempty"`
	Legend string   `json:"legend,omitempty" yaml:"legend,omitempty"`
	Fields []string `json:"fields" yaml:"fields"`
}

// FieldDescriptor is one field's static definition.
type FieldDescriptor struct {
	Key           string            `json:"key,omitempty" yaml:"key,omitempty"`
	Title         string            `json:"title" yaml:"title"`
	Label         string            `json:"label,omitempty" yaml:"label,omitempty"`
	HelpText      string            `json:"help_text,omitempty" yaml:"help_text,omitempty"`
	Initial       any               `json:"initial,omitempty" yaml:"initial,omitempty"`
	Required      bool              `json:"required" yaml:"required"`
	MinLength     *int              `json:"min_length" yaml:"min_length"`
	MaxLength     *int              `json:"max_length" yaml:"max_length"`
	ErrorMessages map[string]string `json:"error_messages,omitempty" yaml:"error_messages,omitempty"`
	Widget        Widget            `json:"widget" yaml:"widget"`
	Binding       string            `json:"binding,omitempty" yaml:"binding,omitempty"`
}

// Widget describes the control used to edit a field.
type Widget struct {
	Title     string         `json:"title,omitempty" yaml:"title,omitempty"`
	InputType InputType      `json:"input_type" yaml:"input_type"`
	Choices   []Choice       `json:"choices,omitempty" yaml:"choices,omitempty"`
	Attrs     map[string]any `json:"attrs,omitempty" yaml:"attrs,omitempty"`
}

// Choice carries either a select option (Display/Value) or a date part
// definition (Title/Data) depending on the widget.
type Choice struct {
	Display string         `json:"display,omitempty" yaml:"display,omitempty"`
	Value   any            `json:"value,omitempty" yaml:"value,omitempty"`
	Title   string         `json:"title,omitempty" yaml:"title,omitempty"`
	Data    []ChoiceOption `json:"data,omitempty" yaml:"data,omitempty"`
}

// ChoiceOption is one selectable entry of a date part.
type ChoiceOption struct {
	Key   any `json:"key" yaml:"key"`
	Value any `json:"value" yaml:"value"`
}

// Message returns the configured message for a violation kind, or fallback
// when none is configured.
func (f FieldDescriptor) Message(kind, fallback string) string {
	if f.ErrorMessages != nil {
		if msg := strings.TrimSpace(f.ErrorMessages[kind]); msg != "" {
			return msg
		}
	}
	return fallback
}

// BindingOverride returns the widget attribute override, if any.
func (w Widget) BindingOverride() (string, bool) {
	if w.Attrs == nil {
		return "", false
	}
	raw, ok := w.Attrs[BindingAttr]
	if !ok {
		return "", false
	}
	if raw == nil {
		return "", false
	}
	value := strings.TrimSpace(fmt.Sprint(raw))
	return value, value != ""
}

// Choice returns the choice whose title matches name.
func (w Widget) Choice(name string) (Choice, bool) {
	for _, choice := range w.Choices {
		if choice.Title == name {
			return choice, true
		}
	}
	return Choice{}, false
}
