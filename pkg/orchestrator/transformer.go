package orchestrator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/goliatone/go-formbind/pkg/schema"
)

// Transformer rewrites a schema before the form is built. Implementations can
// relabel fields, change widgets or regroup fieldsets.
type Transformer interface {
	Transform(ctx context.Context, s *schema.Schema) error
}

// TransformerFunc adapts plain functions to the Transformer interface.
type TransformerFunc func(ctx context.Context, s *schema.Schema) error

// Transform executes the wrapped function when non-nil.
func (fn TransformerFunc) Transform(ctx context.Context, s *schema.Schema) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, s)
}

// Chain runs transformers in order and stops at the first error.
func Chain(transformers ...Transformer) Transformer {
	return TransformerFunc(func(ctx context.Context, s *schema.Schema) error {
		for _, t := range transformers {
			if t == nil {
				continue
			}
			if err := t.Transform(ctx, s); err != nil {
				return err
			}
		}
		return nil
	})
}

// JSONPresetTransformer applies declarative overrides loaded from a JSON
// document:
//
//	{
//	  "title": "Create account",
//	  "fieldsets": [{"legend": "Profile", "fields": ["first_name"]}],
//	  "fields": {
//	    "first_name": {"label": "Given name", "required": true},
//	    "bio": {"input_type": "textarea", "binding": "profile.bio"}
//	  }
//	}
type JSONPresetTransformer struct {
	document presetDocument
}

type presetDocument struct {
	Title     string                `json:"title"`
	Fieldsets []schema.Fieldset     `json:"fieldsets"`
	Fields    map[string]fieldPatch `json:"fields"`
}

type fieldPatch struct {
	Label         string            `json:"label"`
	HelpText      string            `json:"help_text"`
	Initial       any               `json:"initial"`
	Required      *bool             `json:"required"`
	MinLength     *int              `json:"min_length"`
	MaxLength     *int              `json:"max_length"`
	InputType     schema.InputType  `json:"input_type"`
	Binding       string            `json:"binding"`
	ErrorMessages map[string]string `json:"error_messages"`
}

// NewJSONPresetTransformer constructs a transformer from raw JSON bytes.
func NewJSONPresetTransformer(data []byte) (*JSONPresetTransformer, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("json preset transformer: document is empty")
	}
	var document presetDocument
	if err := json.Unmarshal(data, &document); err != nil {
		return nil, fmt.Errorf("json preset transformer: parse document: %w", err)
	}
	for key, patch := range document.Fields {
		if patch.InputType != "" && !patch.InputType.Valid() {
			return nil, fmt.Errorf("json preset transformer: field %q: unknown input type %q", key, patch.InputType)
		}
	}
	return &JSONPresetTransformer{document: document}, nil
}

// NewJSONPresetTransformerFromFS loads a JSON transformer document from the
// provided filesystem path.
func NewJSONPresetTransformerFromFS(fsys fs.FS, path string) (*JSONPresetTransformer, error) {
	if fsys == nil {
		return nil, errors.New("json preset transformer: filesystem is nil")
	}
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("json preset transformer: path is required")
	}
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("json preset transformer: read %s: %w", path, err)
	}
	return NewJSONPresetTransformer(data)
}

// Transform applies the declarative patches onto the supplied schema. A patch
// naming an unknown field fails.
func (t *JSONPresetTransformer) Transform(ctx context.Context, s *schema.Schema) error {
	if s == nil {
		return errors.New("json preset transformer: schema is nil")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if title := strings.TrimSpace(t.document.Title); title != "" {
		s.Title = title
	}
	if len(t.document.Fieldsets) > 0 {
		s.Fieldsets = append([]schema.Fieldset(nil), t.document.Fieldsets...)
	}
	for key, patch := range t.document.Fields {
		field, ok := s.Fields.Get(key)
		if !ok {
			return fmt.Errorf("json preset transformer: field %q not found", key)
		}
		s.Fields.Set(key, applyFieldPatch(field, patch))
	}
	return nil
}

func applyFieldPatch(field schema.FieldDescriptor, patch fieldPatch) schema.FieldDescriptor {
	if patch.Label != "" {
		field.Label = patch.Label
	}
	if patch.HelpText != "" {
		field.HelpText = patch.HelpText
	}
	if patch.Initial != nil {
		field.Initial = patch.Initial
	}
	if patch.Required != nil {
		field.Required = *patch.Required
	}
	if patch.MinLength != nil {
		field.MinLength = patch.MinLength
	}
	if patch.MaxLength != nil {
		field.MaxLength = patch.MaxLength
	}
	if patch.InputType != "" {
		field.Widget.InputType = patch.InputType
	}
	if binding := strings.TrimSpace(patch.Binding); binding != "" {
		attrs := make(map[string]any, len(field.Widget.Attrs)+1)
		for k, v := range field.Widget.Attrs {
			attrs[k] = v
		}
		attrs[schema.BindingAttr] = binding
		field.Widget.Attrs = attrs
		field.Binding = ""
	}
	if len(patch.ErrorMessages) > 0 {
		messages := make(map[string]string, len(field.ErrorMessages)+len(patch.ErrorMessages))
		for k, v := range field.ErrorMessages {
			messages[k] = v
		}
		for k, v := range patch.ErrorMessages {
			messages[k] = v
		}
		field.ErrorMessages = messages
	}
	return field
}
