package orchestrator_test

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formbind/pkg/form"
	"github.com/goliatone/go-formbind/pkg/model"
	"github.com/goliatone/go-formbind/pkg/openapi"
	"github.com/goliatone/go-formbind/pkg/orchestrator"
	"github.com/goliatone/go-formbind/pkg/render"
	"github.com/goliatone/go-formbind/pkg/schema"
	"github.com/goliatone/go-formbind/pkg/testsupport"
)

const contactDocument = `{
  "openapi": "3.0.0",
  "info": {"title": "Contact", "version": "1.0"},
  "paths": {
    "/contact": {
      "post": {
        "operationId": "sendMessage",
        "requestBody": {
          "content": {
            "application/json": {
              "schema": {
                "type": "object",
                "required": ["email"],
                "x-formbind": {"title": "Contact us", "order": ["email", "topic"]},
                "properties": {
                  "email": {"type": "string", "format": "email"},
                  "topic": {"type": "string", "enum": ["sales", "support"], "default": "support"}
                }
              }
            }
          }
        },
        "responses": {"204": {"description": "sent"}}
      }
    }
  }
}`

func decodeSnapshot(t *testing.T, raw []byte) render.Snapshot {
	t.Helper()
	var snapshot render.Snapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	return snapshot
}

func TestOrchestrator_GeneratesFromPlainSchema(t *testing.T) {
	t.Parallel()

	orch := orchestrator.New()
	out, err := orch.Generate(testsupport.Context(), orchestrator.Request{
		Source:   schema.SourceFromFile(filepath.Join("testdata", "profile.json")),
		Renderer: "json",
		Model:    model.New(map[string]any{"first_name": "Ada", "country": "PE"}),
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	snapshot := decodeSnapshot(t, out)
	if snapshot.FormDict.Title != "ProfileForm" || !snapshot.Success {
		t.Fatalf("unexpected snapshot header: title=%q success=%v", snapshot.FormDict.Title, snapshot.Success)
	}
	want := map[string]any{"first_name": "Ada", "country": "PE"}
	if diff := cmp.Diff(want, snapshot.CleanedData); diff != "" {
		t.Fatalf("cleaned data mismatch (-want +got):\n%s", diff)
	}
}

func TestOrchestrator_DefaultRendererIsHTML(t *testing.T) {
	t.Parallel()

	out, err := orchestrator.New().Generate(testsupport.Context(), orchestrator.Request{
		Source: schema.SourceFromFile(filepath.Join("testdata", "profile.json")),
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	html := string(out)
	for _, fragment := range []string{"<form", "Personal Information", `name="first_name"`} {
		if !strings.Contains(html, fragment) {
			t.Fatalf("expected %q in output:\n%s", fragment, html)
		}
	}
}

func TestOrchestrator_DetectsOpenAPIDocuments(t *testing.T) {
	t.Parallel()

	doc := schema.MustNewDocument(schema.SourceFromFile("contact.json"), []byte(contactDocument))
	orch := orchestrator.New(orchestrator.WithOpenAPIOptions(openapi.WithYearRange(2000, 2001)))

	s, err := orch.Schema(testsupport.Context(), orchestrator.Request{Document: &doc, OperationID: "sendMessage"})
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	if s.Title != "Contact us" {
		t.Fatalf("title = %q, want Contact us", s.Title)
	}
	if diff := cmp.Diff([]string{"email", "topic"}, s.Fields.Keys()); diff != "" {
		t.Fatalf("field keys mismatch (-want +got):\n%s", diff)
	}

	if _, err := orch.Schema(testsupport.Context(), orchestrator.Request{Document: &doc}); err == nil {
		t.Fatalf("expected error without operation id")
	}
}

func TestOrchestrator_ForcedFormat(t *testing.T) {
	t.Parallel()

	doc := schema.MustNewDocument(schema.SourceFromFile("contact.json"), []byte(contactDocument))
	_, err := orchestrator.New().Schema(testsupport.Context(), orchestrator.Request{
		Document: &doc,
		Format:   orchestrator.FormatSchema,
	})
	if err == nil {
		t.Fatalf("expected an OpenAPI payload to fail as a plain schema")
	}

	_, err = orchestrator.New().Schema(testsupport.Context(), orchestrator.Request{Document: &doc, Format: "xml"})
	if err == nil || !strings.Contains(err.Error(), `format "xml" not found`) {
		t.Fatalf("expected unknown format error, got %v", err)
	}
}

func TestOrchestrator_BuildAppliesErrorsAndTransformer(t *testing.T) {
	t.Parallel()

	preset, err := orchestrator.NewJSONPresetTransformer([]byte(`{
  "title": "Profile",
  "fields": {"first_name": {"label": "Given name", "binding": "profile.first_name"}}
}`))
	if err != nil {
		t.Fatalf("preset: %v", err)
	}
	m := model.New(map[string]any{"profile.first_name": "Grace"})
	orch := orchestrator.New(
		orchestrator.WithSchemaTransformer(preset),
		orchestrator.WithFormOptions(form.WithExclude("newsletter")),
	)

	f, err := orch.Build(testsupport.Context(), orchestrator.Request{
		Source: schema.SourceFromFile(filepath.Join("testdata", "profile.json")),
		Model:  m,
		Errors: schema.ErrorMap{"first_name": {"Already taken"}},
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if f.Success() {
		t.Fatalf("expected errors to clear the success flag")
	}
	current := f.Schema()
	if current.Title != "Profile" {
		t.Fatalf("title = %q, want Profile", current.Title)
	}
	name, _ := current.Fields.Get("first_name")
	if name.Label != "Given name" || name.Binding != "profile.first_name" {
		t.Fatalf("first_name descriptor = %+v", name)
	}
	if _, ok := f.Bindings()["#newsletter"]; ok {
		t.Fatalf("excluded field should not contribute bindings")
	}
	if got := f.Clean()["first_name"]; got != "Grace" {
		t.Fatalf("clean first_name = %v, want Grace", got)
	}
}

func TestOrchestrator_UnknownRenderer(t *testing.T) {
	t.Parallel()

	_, err := orchestrator.New().Generate(testsupport.Context(), orchestrator.Request{
		Source:   schema.SourceFromFile(filepath.Join("testdata", "profile.json")),
		Renderer: "pdf",
	})
	if err == nil || !strings.Contains(err.Error(), `renderer "pdf"`) {
		t.Fatalf("expected renderer error, got %v", err)
	}
}

func TestOrchestrator_RequiresSource(t *testing.T) {
	t.Parallel()

	if _, err := orchestrator.New().Generate(testsupport.Context(), orchestrator.Request{}); err == nil {
		t.Fatalf("expected error without source")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := orchestrator.New().Schema(ctx, orchestrator.Request{
		Source: schema.SourceFromFile(filepath.Join("testdata", "profile.json")),
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestJSONPresetTransformer_Errors(t *testing.T) {
	t.Parallel()

	if _, err := orchestrator.NewJSONPresetTransformer([]byte("  ")); err == nil {
		t.Fatalf("expected error for empty document")
	}
	if _, err := orchestrator.NewJSONPresetTransformer([]byte(`{"fields": {"a": {"input_type": "slider"}}}`)); err == nil {
		t.Fatalf("expected error for unknown input type")
	}

	preset, err := orchestrator.NewJSONPresetTransformer([]byte(`{"fields": {"ghost": {"label": "Boo"}}}`))
	if err != nil {
		t.Fatalf("preset: %v", err)
	}
	s := testsupport.LoadSchema(t, filepath.Join("testdata", "profile.json"))
	if err := preset.Transform(context.Background(), &s); err == nil {
		t.Fatalf("expected error for unknown field")
	}
}

func TestChain_StopsAtFirstError(t *testing.T) {
	t.Parallel()

	var calls []string
	boom := errors.New("boom")
	chain := orchestrator.Chain(
		orchestrator.TransformerFunc(func(context.Context, *schema.Schema) error {
			calls = append(calls, "first")
			return boom
		}),
		nil,
		orchestrator.TransformerFunc(func(context.Context, *schema.Schema) error {
			calls = append(calls, "second")
			return nil
		}),
	)
	if err := chain.Transform(context.Background(), &schema.Schema{}); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if diff := cmp.Diff([]string{"first"}, calls); diff != "" {
		t.Fatalf("calls mismatch (-want +got):\n%s", diff)
	}
}
