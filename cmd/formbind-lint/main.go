package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/goliatone/go-formbind"
	"github.com/goliatone/go-formbind/pkg/openapi"
	"github.com/goliatone/go-formbind/pkg/schema"
)

type violation struct {
	file string
	openapi.Violation
}

func main() {
	flag.Usage = func() {
		if _, err := fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [paths...]\n", filepath.Base(os.Args[0])); err != nil {
			panic(err)
		}
		if _, err := fmt.Fprintf(flag.CommandLine.Output(), "\nLint OpenAPI documents for unsupported %s extensions.\n", openapi.ExtensionKey); err != nil {
			panic(err)
		}
	}
	flag.Parse()

	paths := flag.Args()
	if len(paths) == 0 {
		paths = []string{"examples/fixtures/contact.yaml"}
	}

	ctx := context.Background()
	loader := formbind.NewLoader()
	parser := formbind.NewParser(
		openapi.WithPartialDocuments(true),
		openapi.WithReferenceResolution(false),
	)

	var violations []violation
	for _, path := range paths {
		linted, err := lintFile(ctx, loader, parser, path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "lint %s: %v\n", path, err)
			os.Exit(1)
		}
		violations = append(violations, linted...)
	}

	if len(violations) > 0 {
		sort.SliceStable(violations, func(i, j int) bool {
			return violations[i].file < violations[j].file
		})
		for _, v := range violations {
			fmt.Fprintf(os.Stderr, "%s: %s\n", v.file, v.Violation)
		}
		os.Exit(1)
	}
}

func lintFile(ctx context.Context, loader schema.Loader, parser openapi.Parser, path string) ([]violation, error) {
	doc, err := loader.Load(ctx, schema.SourceFromFile(path))
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}

	operations, err := parser.Operations(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("parse operations: %w", err)
	}

	ids := make([]string, 0, len(operations))
	for id := range operations {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var result []violation
	for _, id := range ids {
		for _, v := range openapi.LintExtensions(operations[id]) {
			result = append(result, violation{file: path, Violation: v})
		}
	}
	return result, nil
}
