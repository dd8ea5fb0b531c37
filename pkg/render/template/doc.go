// Package template defines the engine seam used by the form renderer. The
// pongo subpackage provides the default pongo2-backed implementation.
package template
