package render

import (
	"embed"
	"errors"
	"io/fs"
)

//go:embed templates/*.tpl
var embeddedTemplates embed.FS

// Templates exposes the default partials so callers can copy or wrap them.
func Templates() fs.FS {
	sub, err := fs.Sub(embeddedTemplates, "templates")
	if err != nil {
		return embeddedTemplates
	}
	return sub
}

// layerTemplates stacks overrides over the default partials. Later overrides
// shadow earlier ones.
func layerTemplates(overrides []fs.FS) fs.FS {
	if len(overrides) == 0 {
		return Templates()
	}
	layers := make(layeredFS, 0, len(overrides)+1)
	for idx := len(overrides) - 1; idx >= 0; idx-- {
		layers = append(layers, overrides[idx])
	}
	return append(layers, Templates())
}

// layeredFS opens a name from the first layer that has it.
type layeredFS []fs.FS

func (l layeredFS) Open(name string) (fs.File, error) {
	for _, layer := range l {
		file, err := layer.Open(name)
		if err == nil {
			return file, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
}
