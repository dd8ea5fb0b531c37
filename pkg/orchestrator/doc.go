// Package orchestrator wires the loader → format → form → renderer pipeline
// into a single entry point. Documents are either plain form schemas or
// OpenAPI documents whose operation request bodies become forms.
package orchestrator
