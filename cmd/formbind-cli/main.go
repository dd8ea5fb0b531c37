package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/goliatone/go-formbind/pkg/model"
	"github.com/goliatone/go-formbind/pkg/orchestrator"
	"github.com/goliatone/go-formbind/pkg/render"
	"github.com/goliatone/go-formbind/pkg/renderers/tui"
	"github.com/goliatone/go-formbind/pkg/schema"
	"github.com/goliatone/go-formbind/pkg/transport"
)

func main() {
	source := flag.String("source", "examples/fixtures/profile.json", "form schema or OpenAPI document path or URL")
	format := flag.String("format", "", "force the document format (schema or openapi)")
	opID := flag.String("operation", "", "OpenAPI operation ID to render")
	renderer := flag.String("renderer", "html", "renderer to use (html, json or tui)")
	engine := flag.String("engine", "pongo", "html template engine (pongo or gotemplate)")
	values := flag.String("values", "", "JSON file with initial model attributes")
	preset := flag.String("preset", "", "JSON preset applied to the schema before building")
	validateURL := flag.String("validate-url", "", "endpoint validating tui submissions")
	useMsgpack := flag.Bool("msgpack", false, "exchange msgpack with the validate endpoint")
	output := flag.String("output", "", "output file (stdout if empty)")
	flag.Parse()

	ctx := context.Background()

	src := parseSource(*source)
	if src == nil {
		log.Fatalf("invalid source: %q", *source)
	}

	var options []orchestrator.Option
	if *preset != "" {
		raw, err := os.ReadFile(*preset)
		if err != nil {
			log.Fatalf("Failed to read preset: %v", err)
		}
		transformer, err := orchestrator.NewJSONPresetTransformer(raw)
		if err != nil {
			log.Fatalf("Failed to parse preset: %v", err)
		}
		options = append(options, orchestrator.WithSchemaTransformer(transformer))
	}

	registry, err := newRegistry(*engine)
	if err != nil {
		log.Fatalf("Failed to build renderers: %v", err)
	}
	options = append(options, orchestrator.WithRegistry(registry))

	gen := orchestrator.New(options...)
	if err := gen.Registry().Register(newTUI(*validateURL, *useMsgpack)); err != nil {
		log.Fatalf("Failed to register tui renderer: %v", err)
	}

	defaults, err := readValues(*values)
	if err != nil {
		log.Fatalf("Failed to read values: %v", err)
	}

	req := orchestrator.Request{
		Source:      src,
		Format:      *format,
		OperationID: *opID,
		Renderer:    *renderer,
		Model:       model.New(defaults),
	}

	out, err := gen.Generate(ctx, req)
	if err != nil {
		log.Fatalf("Failed to generate form: %v", err)
	}

	if *output != "" {
		if err := os.WriteFile(*output, out, 0o644); err != nil {
			log.Fatalf("Failed to write output: %v", err)
		}
		fmt.Printf("Form written to %s\n", *output)
	} else {
		fmt.Println(string(out))
	}
}

func newRegistry(engine string) (*render.Registry, error) {
	switch strings.ToLower(strings.TrimSpace(engine)) {
	case "", "pongo":
		return render.NewDefaultRegistry()
	case "gotemplate", "go-template":
		return render.NewDefaultRegistry(render.WithGoTemplate())
	default:
		return nil, fmt.Errorf("unknown engine %q", engine)
	}
}

func newTUI(validateURL string, useMsgpack bool) *tui.Renderer {
	options := []tui.Option{tui.WithOutput(os.Stderr)}
	if strings.TrimSpace(validateURL) == "" {
		return tui.New(options...)
	}

	codec := transport.JSON()
	if useMsgpack {
		codec = transport.Msgpack()
	}
	client, err := transport.New(validateURL, transport.WithCodec(codec))
	if err != nil {
		log.Fatalf("Failed to configure validator: %v", err)
	}
	return tui.New(append(options, tui.WithValidator(client))...)
}

func readValues(path string) (map[string]any, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var values map[string]any
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return values, nil
}

func parseSource(raw string) schema.Source {
	path := strings.TrimSpace(raw)
	if path == "" {
		return nil
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return schema.SourceFromURL(path)
	}
	return schema.SourceFromFile(path)
}
