package form

import (
	"sort"
	"strconv"
	"strings"

	"github.com/goliatone/go-formbind/pkg/schema"
)

// resolveErrorKey maps a server error key onto a field id or the whole-form
// key. Besides plain ids it understands JSON pointer and dotted paths such
// as "/body/first_name" or "$.data.tags[0]", the shapes produced by API
// error payloads. ok is false when nothing in known matches.
func resolveErrorKey(raw string, known schema.FieldSet) (string, bool) {
	if known.Has(raw) {
		return raw, true
	}
	if schema.IsFormLevelKey(raw) {
		return schema.AllFieldsKey, true
	}

	segments := parsePathSegments(raw)
	if len(segments) == 0 {
		return "", false
	}
	for _, variant := range segmentVariants(segments) {
		for _, segment := range variant {
			if known.Has(segment) {
				return segment, true
			}
		}
	}
	return "", false
}

// sortedErrorKeys orders exact matches first so their messages lead when
// several keys resolve to the same field.
func sortedErrorKeys(errs schema.ErrorMap, known schema.FieldSet) []string {
	keys := make([]string, 0, len(errs))
	for key := range errs {
		keys = append(keys, key)
	}
	sort.SliceStable(keys, func(i, j int) bool {
		iExact := known.Has(keys[i]) || keys[i] == schema.AllFieldsKey
		jExact := known.Has(keys[j]) || keys[j] == schema.AllFieldsKey
		if iExact != jExact {
			return iExact
		}
		return keys[i] < keys[j]
	})
	return keys
}

func parsePathSegments(path string) []string {
	clean := strings.TrimSpace(path)
	for strings.HasPrefix(clean, "#") || strings.HasPrefix(clean, "/") || strings.HasPrefix(clean, ".") || strings.HasPrefix(clean, "$") {
		clean = strings.TrimLeft(clean, "#/.$")
	}

	replacer := strings.NewReplacer("[", ".", "]", "", "//", "/")
	clean = strings.Trim(replacer.Replace(clean), "./")
	if clean == "" {
		return nil
	}

	parts := strings.FieldsFunc(clean, func(r rune) bool {
		return r == '.' || r == '/'
	})
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		segment := strings.TrimSpace(part)
		if segment == "" {
			continue
		}
		segment = strings.ReplaceAll(segment, "~1", "/")
		segment = strings.ReplaceAll(segment, "~0", "~")
		out = append(out, segment)
	}
	return out
}

func segmentVariants(segments []string) [][]string {
	stripped := dropWrapperSegments(segments)
	variants := [][]string{stripNumericSegments(stripped)}
	if len(stripped) != len(segments) {
		variants = append(variants, stripNumericSegments(segments))
	}
	return variants
}

func dropWrapperSegments(segments []string) []string {
	out := segments
	for len(out) > 0 {
		switch strings.ToLower(out[0]) {
		case "body", "request", "payload", "data", "attributes", "fields", "form_dict":
			out = out[1:]
			continue
		}
		break
	}
	return out
}

func stripNumericSegments(segments []string) []string {
	out := make([]string, 0, len(segments))
	for _, segment := range segments {
		if _, err := strconv.Atoi(segment); err == nil {
			continue
		}
		out = append(out, segment)
	}
	return out
}
