// Package fields implements the live field controllers behind a form. Each
// controller owns one schema field's error state and produces the binding
// entries a DOM collaborator needs to keep its controls in sync with a model.
//
// The variant set is closed: text-like inputs (text, textarea, password,
// email) and checkboxes share the base Field, selects add an option source,
// and dates reconcile three part controls into one model attribute through a
// small state machine (see DateState).
package fields
