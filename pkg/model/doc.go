// Package model provides the in-memory data model forms bind to. A Model is a
// flat attribute store with change notifications; the form engine writes to
// it through binding entries and the composite date reconciler, and control
// surfaces refresh themselves from its change events.
package model
