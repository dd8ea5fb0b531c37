package openapi

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-formbind/pkg/schema"
)

// ExtensionKey is the vendor extension read from request bodies and their
// properties.
//
// On the request body it accepts "title", "order" (list of property names)
// and "fieldsets" (list of {key, legend, fields}). On a property it accepts
// "widget" (an input type), "label", "binding" and "error_messages".
const ExtensionKey = "x-formbind"

// FormOption configures FormSchema.
type FormOption func(*formConfig)

type formConfig struct {
	yearFrom int
	yearTo   int
}

// WithYearRange sets the inclusive year choices offered by date fields. The
// default spans the last hundred years up to the current one.
func WithYearRange(from, to int) FormOption {
	return func(cfg *formConfig) {
		if from > to {
			from, to = to, from
		}
		cfg.yearFrom = from
		cfg.yearTo = to
	}
}

// FormSchema derives a form schema from the operation's request body. Scalar
// properties become fields; nested objects and arrays are skipped. Fields
// follow the "order" extension, then the remaining properties by name. The
// schema starts with an empty errors entry.
func FormSchema(op Operation, options ...FormOption) (schema.Schema, error) {
	year := time.Now().Year()
	cfg := formConfig{yearFrom: year - 100, yearTo: year}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	body := op.RequestBody
	if len(body.Properties) == 0 {
		return schema.Schema{}, fmt.Errorf("openapi: operation %q has no object request body", op.ID)
	}
	ext := extensionMap(body.Extensions)

	var fields schema.FieldSet
	for _, name := range propertyOrder(body, ext) {
		desc, ok := fieldFromProperty(name, body.Properties[name], body.IsRequired(name), cfg)
		if !ok {
			continue
		}
		fields.Set(name, desc)
	}
	if fields.Len() == 0 {
		return schema.Schema{}, fmt.Errorf("openapi: operation %q has no scalar properties", op.ID)
	}

	return schema.Schema{
		Title:     firstNonEmpty(stringValue(ext["title"]), body.Title, op.Summary, op.ID),
		Fields:    fields,
		Fieldsets: fieldsetsFromExtension(ext["fieldsets"]),
		Errors:    schema.ErrorMap{},
	}, nil
}

func propertyOrder(body Schema, ext map[string]any) []string {
	seen := make(map[string]struct{}, len(body.Properties))
	order := make([]string, 0, len(body.Properties))
	if declared, ok := ext["order"].([]any); ok {
		for _, raw := range declared {
			name := stringValue(raw)
			if _, exists := body.Properties[name]; !exists {
				continue
			}
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			order = append(order, name)
		}
	}

	rest := make([]string, 0, len(body.Properties))
	for name := range body.Properties {
		if _, ok := seen[name]; !ok {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(order, rest...)
}

func fieldFromProperty(name string, prop Schema, required bool, cfg formConfig) (schema.FieldDescriptor, bool) {
	input, ok := inputTypeFor(prop)
	if !ok {
		return schema.FieldDescriptor{}, false
	}
	ext := extensionMap(prop.Extensions)
	if widget := schema.InputType(stringValue(ext["widget"])); widget.Valid() {
		input = widget
	}

	desc := schema.FieldDescriptor{
		Title:     name,
		Label:     firstNonEmpty(stringValue(ext["label"]), prop.Title),
		HelpText:  prop.Description,
		Initial:   prop.Default,
		Required:  required,
		MinLength: cloneInt(prop.MinLength),
		MaxLength: cloneInt(prop.MaxLength),
		Widget:    schema.Widget{Title: name, InputType: input},
	}
	if binding := stringValue(ext["binding"]); binding != "" {
		desc.Widget.Attrs = map[string]any{schema.BindingAttr: binding}
	}
	if messages, ok := ext["error_messages"].(map[string]any); ok {
		desc.ErrorMessages = make(map[string]string, len(messages))
		for kind, message := range messages {
			desc.ErrorMessages[kind] = stringValue(message)
		}
	}

	switch input {
	case schema.InputSelect:
		desc.Widget.Choices = enumChoices(prop.Enum)
	case schema.InputDate:
		desc.Widget.Choices = dateChoices(cfg)
	}
	return desc, true
}

func inputTypeFor(prop Schema) (schema.InputType, bool) {
	switch prop.Type {
	case "boolean":
		return schema.InputCheckbox, true
	case "integer", "number":
		if len(prop.Enum) > 0 {
			return schema.InputSelect, true
		}
		return schema.InputText, true
	case "string", "":
		if prop.Type == "" && prop.Ref != "" {
			return "", false
		}
		if len(prop.Enum) > 0 {
			return schema.InputSelect, true
		}
		switch prop.Format {
		case "date":
			return schema.InputDate, true
		case "email":
			return schema.InputEmail, true
		case "password":
			return schema.InputPassword, true
		}
		return schema.InputText, true
	default:
		return "", false
	}
}

func enumChoices(values []any) []schema.Choice {
	out := make([]schema.Choice, 0, len(values))
	for _, value := range values {
		out = append(out, schema.Choice{Display: fmt.Sprint(value), Value: value})
	}
	return out
}

// dateChoices builds zero-padded keys so a complete date reads as an ISO
// "year-month-day" string.
func dateChoices(cfg formConfig) []schema.Choice {
	days := make([]schema.ChoiceOption, 0, 31)
	for day := 1; day <= 31; day++ {
		days = append(days, schema.ChoiceOption{Key: fmt.Sprintf("%02d", day), Value: strconv.Itoa(day)})
	}
	months := make([]schema.ChoiceOption, 0, 12)
	for month := time.January; month <= time.December; month++ {
		months = append(months, schema.ChoiceOption{Key: fmt.Sprintf("%02d", int(month)), Value: month.String()})
	}
	years := make([]schema.ChoiceOption, 0, cfg.yearTo-cfg.yearFrom+1)
	for year := cfg.yearTo; year >= cfg.yearFrom; year-- {
		key := strconv.Itoa(year)
		years = append(years, schema.ChoiceOption{Key: key, Value: key})
	}
	return []schema.Choice{
		{Title: "day", Data: days},
		{Title: "month", Data: months},
		{Title: "year", Data: years},
	}
}

func fieldsetsFromExtension(raw any) []schema.Fieldset {
	items, ok := raw.([]any)
	if !ok || len(items) == 0 {
		return nil
	}
	out := make([]schema.Fieldset, 0, len(items))
	for _, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		fieldset := schema.Fieldset{
			Key:    stringValue(entry["key"]),
			Legend: stringValue(entry["legend"]),
			Fields: []string{},
		}
		if ids, ok := entry["fields"].([]any); ok {
			for _, id := range ids {
				if name := stringValue(id); name != "" {
					fieldset.Fields = append(fieldset.Fields, name)
				}
			}
		}
		out = append(out, fieldset)
	}
	return out
}

// extensionMap merges the nested extension object with flat
// "x-formbind-<key>" entries. Nested keys win.
func extensionMap(extensions map[string]any) map[string]any {
	out := map[string]any{}
	for key, value := range extensions {
		if name, ok := strings.CutPrefix(key, ExtensionKey+"-"); ok && name != "" {
			out[name] = value
		}
	}
	if nested, ok := extensions[ExtensionKey].(map[string]any); ok {
		for key, value := range nested {
			out[key] = value
		}
	}
	return out
}

func stringValue(raw any) string {
	value, ok := raw.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(value)
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}

func cloneInt(in *int) *int {
	if in == nil {
		return nil
	}
	value := *in
	return &value
}
