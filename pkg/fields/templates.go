package fields

import (
	"context"

	"github.com/goliatone/go-formbind/pkg/binding"
	"github.com/goliatone/go-formbind/pkg/schema"
)

// Templates is the templating collaborator as seen by a controller: given a
// context it returns rendered markup for the field (label, widget and error
// region) or for the error region alone.
type Templates interface {
	RenderField(ctx context.Context, field FieldContext) (string, error)
	RenderErrors(ctx context.Context, field FieldContext) (string, error)
}

// FieldContext is the data handed to templates for one field.
type FieldContext struct {
	Field   schema.FieldDescriptor `json:"field"`
	Kind    Kind                   `json:"kind"`
	Errors  []string               `json:"errors"`
	Anchors []string               `json:"anchors"`
	Options []binding.Option       `json:"options,omitempty"`
	Parts   []DatePartContext      `json:"parts,omitempty"`
}

// DatePartContext describes one control of a composite date.
type DatePartContext struct {
	Name    string           `json:"name"`
	Anchor  string           `json:"anchor"`
	Value   string           `json:"value,omitempty"`
	Options []binding.Option `json:"options,omitempty"`
}
