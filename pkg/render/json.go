package render

import (
	"context"
	"errors"

	json "github.com/goccy/go-json"

	"github.com/goliatone/go-formbind/pkg/form"
	"github.com/goliatone/go-formbind/pkg/schema"
)

// Snapshot is the JSON view of a form: the current schema in the same shape
// a validation endpoint returns it, plus derived state.
type Snapshot struct {
	FormDict    schema.Schema  `json:"form_dict"`
	Success     bool           `json:"success"`
	CleanedData map[string]any `json:"cleaned_data"`
}

// JSON renders a Snapshot.
type JSON struct {
	Indent bool
}

var _ Renderer = JSON{}

// Name implements Renderer.
func (JSON) Name() string { return "json" }

// ContentType implements Renderer.
func (JSON) ContentType() string { return "application/json" }

// Render implements Renderer.
func (j JSON) Render(ctx context.Context, f *form.Form) ([]byte, error) {
	if f == nil {
		return nil, errors.New("render: form is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	snapshot := Snapshot{
		FormDict:    f.Schema(),
		Success:     f.Success(),
		CleanedData: f.Clean(),
	}
	if j.Indent {
		return json.MarshalIndent(snapshot, "", "  ")
	}
	return json.Marshal(snapshot)
}
