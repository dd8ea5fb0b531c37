package fields_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formbind/pkg/binding"
	"github.com/goliatone/go-formbind/pkg/fields"
	"github.com/goliatone/go-formbind/pkg/model"
	"github.com/goliatone/go-formbind/pkg/schema"
)

func intPtr(v int) *int { return &v }

func dateDescriptor() schema.FieldDescriptor {
	return schema.FieldDescriptor{
		Key:     "date",
		Title:   "issue_date",
		Binding: "issue_date",
		Widget: schema.Widget{
			InputType: schema.InputDate,
			Choices: []schema.Choice{
				{Title: "day", Data: []schema.ChoiceOption{{Key: "06", Value: "6"}, {Key: "22", Value: "22"}}},
				{Title: "month", Data: []schema.ChoiceOption{{Key: "05", Value: "May"}}},
				{Title: "year", Data: []schema.ChoiceOption{{Key: "2002", Value: "2002"}}},
			},
		},
	}
}

type recordingDisplay struct {
	calls map[string][]string
}

func (r *recordingDisplay) ShowErrors(key string, messages []string) {
	if r.calls == nil {
		r.calls = make(map[string][]string)
	}
	r.calls[key] = messages
}

type stubSurface struct {
	values    map[string]any
	listeners map[string]func(any)
}

func newStubSurface() *stubSurface {
	return &stubSurface{values: map[string]any{}, listeners: map[string]func(any){}}
}

func (s *stubSurface) SetValue(id string, value any)        { s.values[id] = value }
func (s *stubSurface) OnChange(id string, fn func(value any)) { s.listeners[id] = fn }

func TestField_BindingsObserveBinding(t *testing.T) {
	field := fields.NewField(schema.FieldDescriptor{Key: "first_name", Binding: "first_name"}, fields.Config{})

	bindings := field.Bindings(model.New(nil))
	entry, ok := bindings["#first_name"]
	if !ok {
		t.Fatalf("expected #first_name entry, got %v", bindings)
	}
	if entry.Observe != "first_name" {
		t.Fatalf("unexpected observe %q", entry.Observe)
	}
	if entry.UpdateModel == nil {
		t.Fatalf("expected validator on text entry")
	}
}

func TestField_ValidateIsAdvisoryByDefault(t *testing.T) {
	display := &recordingDisplay{}
	field := fields.NewField(schema.FieldDescriptor{
		Key:       "first_name",
		Binding:   "first_name",
		Required:  true,
		MaxLength: intPtr(3),
		ErrorMessages: map[string]string{
			schema.MessageMaxLength: "Too long",
		},
	}, fields.Config{Display: display})

	if !field.Validate("") {
		t.Fatalf("validation should not gate the write")
	}
	if diff := cmp.Diff([]string{"This field is required."}, field.Errors()); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}

	if !field.Validate("Lorem") {
		t.Fatalf("validation should not gate the write")
	}
	if diff := cmp.Diff([]string{"Too long"}, field.Errors()); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Too long"}, display.calls["first_name"]); diff != "" {
		t.Fatalf("display mismatch (-want +got):\n%s", diff)
	}

	violations := field.Violations()
	if len(violations) != 1 || violations[0].Kind != schema.MessageMaxLength {
		t.Fatalf("unexpected violations %+v", violations)
	}
}

func TestField_StrictValidationBlocksWrite(t *testing.T) {
	field := fields.NewField(schema.FieldDescriptor{
		Key:       "code",
		Binding:   "code",
		MinLength: intPtr(2),
	}, fields.Config{StrictValidation: true})
	m := model.New(nil)

	entry := field.Bindings(m)["#code"]
	if entry.Write(m, "x") {
		t.Fatalf("strict validation should skip the write")
	}
	if _, ok := m.Get("code"); ok {
		t.Fatalf("model should stay untouched")
	}
	if diff := cmp.Diff([]string{"Must be at least 2 characters"}, field.Errors()); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
	if !entry.Write(m, "xy") {
		t.Fatalf("valid value should be written")
	}
}

func TestField_UpdateFromSchemaReplacesErrors(t *testing.T) {
	display := &recordingDisplay{}
	field := fields.NewField(schema.FieldDescriptor{Key: "email", Binding: "email"}, fields.Config{Display: display})

	field.UpdateFromSchema(schema.Schema{Errors: schema.ErrorMap{"email": {"Enter a valid email."}}})
	if diff := cmp.Diff([]string{"Enter a valid email."}, field.Errors()); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}

	field.UpdateFromSchema(schema.Schema{Errors: schema.ErrorMap{"other": {"x"}}})
	if diff := cmp.Diff([]string{}, field.Errors()); diff != "" {
		t.Fatalf("errors should be replaced, not merged (-want +got):\n%s", diff)
	}
	if got, ok := display.calls["email"]; !ok || len(got) != 0 {
		t.Fatalf("expected display refresh with empty list, got %v", got)
	}
}

func TestField_UpdateFromSchemaRefreshesDescriptor(t *testing.T) {
	field := fields.NewField(schema.FieldDescriptor{Key: "email", Binding: "contact_email", Title: "Email"}, fields.Config{})

	next := schema.Schema{
		Fields: schema.NewFieldSet(schema.FieldEntry{Key: "email", Field: schema.FieldDescriptor{
			Key:       "email",
			Binding:   "email",
			Title:     "Work email",
			Required:  true,
			MaxLength: intPtr(5),
		}}),
		Errors: schema.ErrorMap{},
	}
	field.UpdateFromSchema(next)

	desc := field.Descriptor()
	if desc.Title != "Work email" || !desc.Required {
		t.Fatalf("descriptor not refreshed: %+v", desc)
	}
	if desc.Binding != "contact_email" {
		t.Fatalf("binding should survive refresh, got %q", desc.Binding)
	}

	field.Validate("too long")
	if diff := cmp.Diff([]string{"Cannot exceed 5 characters"}, field.Errors()); diff != "" {
		t.Fatalf("refreshed bounds not applied (-want +got):\n%s", diff)
	}

	field.UpdateFromSchema(schema.Schema{Errors: schema.ErrorMap{}})
	if got := field.Descriptor().Title; got != "Work email" {
		t.Fatalf("descriptor should be kept when the schema omits the field, got %q", got)
	}
}

func TestField_ErrorsIsEmptyListBeforeValidation(t *testing.T) {
	field := fields.NewField(schema.FieldDescriptor{Key: "email", Binding: "email"}, fields.Config{})

	got := field.Errors()
	if got == nil {
		t.Fatalf("expected an empty list, got nil")
	}
	if diff := cmp.Diff([]string{}, got); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
}

func TestSelect_BindingsCarryChoices(t *testing.T) {
	sel := fields.NewSelect(schema.FieldDescriptor{
		Key:     "country",
		Binding: "country",
		Widget: schema.Widget{
			InputType: schema.InputSelect,
			Choices:   []schema.Choice{{Display: "Canada", Value: "CA"}, {Display: "Peru", Value: "PE"}},
		},
	}, fields.Config{})

	entry := sel.Bindings(model.New(nil))["#country"]
	if entry.SelectOptions == nil {
		t.Fatalf("expected select options")
	}
	if entry.SelectOptions.LabelPath != "display" || entry.SelectOptions.ValuePath != "value" {
		t.Fatalf("unexpected paths %+v", entry.SelectOptions)
	}
	want := []binding.Option{{Label: "Canada", Value: "CA"}, {Label: "Peru", Value: "PE"}}
	if diff := cmp.Diff(want, sel.Context().Options); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}
}

func TestDate_BindingsAllObserveSameAttribute(t *testing.T) {
	date := fields.NewDate(dateDescriptor(), fields.Config{})

	bindings := date.Bindings(model.New(nil))
	for _, selector := range []string{"#date_day", "#date_month", "#date_year"} {
		entry, ok := bindings[selector]
		if !ok {
			t.Fatalf("missing %s", selector)
		}
		if entry.Observe != "issue_date" {
			t.Fatalf("%s observes %q", selector, entry.Observe)
		}
		if entry.SelectOptions == nil || entry.SelectOptions.LabelPath != "value" || entry.SelectOptions.ValuePath != "key" {
			t.Fatalf("%s has unexpected options %+v", selector, entry.SelectOptions)
		}
	}
	want := []binding.Option{{Label: "6", Value: "06"}, {Label: "22", Value: "22"}}
	if diff := cmp.Diff(want, bindings["#date_day"].SelectOptions.Options()); diff != "" {
		t.Fatalf("day options mismatch (-want +got):\n%s", diff)
	}
}

func TestDate_OverlayOnBlankAttribute(t *testing.T) {
	m := model.New(nil)
	bindings := fields.NewDate(dateDescriptor(), fields.Config{}).Bindings(m)

	steps := []struct {
		selector string
		value    any
		want     string
	}{
		{selector: "#date_day", value: "06", want: "--06"},
		{selector: "#date_year", value: 2002, want: "2002--06"},
		{selector: "#date_month", value: "05", want: "2002-05-06"},
	}
	for _, step := range steps {
		if !bindings[step.selector].Write(m, step.value) {
			t.Fatalf("%s: expected write", step.selector)
		}
		got, _ := m.Get("issue_date")
		if got != step.want {
			t.Fatalf("%s: expected %q, got %v", step.selector, step.want, got)
		}
	}
}

func TestDate_OverlayOnExistingAttribute(t *testing.T) {
	m := model.New(map[string]any{"issue_date": "2002-05-06"})
	bindings := fields.NewDate(dateDescriptor(), fields.Config{}).Bindings(m)

	bindings["#date_day"].Write(m, "22")

	got, _ := m.Get("issue_date")
	if got != "2002-05-22" {
		t.Fatalf("expected 2002-05-22, got %v", got)
	}
}

func TestDate_OverlaySkipsEmptyValue(t *testing.T) {
	m := model.New(map[string]any{"issue_date": "2002-05-06"})
	bindings := fields.NewDate(dateDescriptor(), fields.Config{}).Bindings(m)

	if bindings["#date_month"].Write(m, "") {
		t.Fatalf("empty part should not be written")
	}
	got, _ := m.Get("issue_date")
	if got != "2002-05-06" {
		t.Fatalf("stored value changed to %v", got)
	}
}

func TestDate_OnGetReturnsPart(t *testing.T) {
	bindings := fields.NewDate(dateDescriptor(), fields.Config{}).Bindings(nil)

	cases := []struct {
		selector string
		stored   any
		want     any
		ok       bool
	}{
		{selector: "#date_year", stored: "2002-05-06", want: "2002", ok: true},
		{selector: "#date_month", stored: "2002-05-06", want: "05", ok: true},
		{selector: "#date_day", stored: "2002-05-06", want: "06", ok: true},
		{selector: "#date_month", stored: "2002--06", want: "", ok: false},
		{selector: "#date_day", stored: nil, want: "", ok: false},
	}
	for _, tc := range cases {
		got, ok := bindings[tc.selector].OnGet(tc.stored)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("%s on %v: expected (%v, %v), got (%v, %v)", tc.selector, tc.stored, tc.want, tc.ok, got, ok)
		}
	}
}

func TestDate_UpdateLocalDateCommitsOnceComplete(t *testing.T) {
	m := model.New(nil)
	var changes []model.Change
	m.OnChange(func(change model.Change) { changes = append(changes, change) })

	date := fields.NewDate(dateDescriptor(), fields.Config{})
	date.Bindings(m)

	if date.UpdateLocalDate(fields.PartDay, "06") {
		t.Fatalf("one part should not commit")
	}
	if date.UpdateLocalDate(fields.PartYear, "2002") {
		t.Fatalf("two parts should not commit")
	}
	if got := date.State().Phase(); got != fields.DatePartial {
		t.Fatalf("expected partial phase, got %s", got)
	}
	if len(changes) != 0 {
		t.Fatalf("partial state reached the model: %+v", changes)
	}

	if !date.UpdateLocalDate(fields.PartMonth, "05") {
		t.Fatalf("complete state should commit")
	}
	want := []model.Change{{Attribute: "issue_date", Value: "2002-05-06"}}
	if diff := cmp.Diff(want, changes); diff != "" {
		t.Fatalf("changes mismatch (-want +got):\n%s", diff)
	}
}

func TestDate_AttachPushesPartsAndListens(t *testing.T) {
	m := model.New(map[string]any{"issue_date": "2002-05-06"})
	surface := newStubSurface()

	date := fields.NewDate(dateDescriptor(), fields.Config{})
	date.Attach(surface, m)

	want := map[string]any{"date_day": "06", "date_month": "05", "date_year": "2002"}
	if diff := cmp.Diff(want, surface.values); diff != "" {
		t.Fatalf("pushed values mismatch (-want +got):\n%s", diff)
	}

	surface.listeners["date_day"]("22")
	got, _ := m.Get("issue_date")
	if got != "2002-05-22" {
		t.Fatalf("expected commit of 2002-05-22, got %v", got)
	}
}

func TestParseDateState_MalformedLeavesPartsUnset(t *testing.T) {
	for _, stored := range []any{nil, "", "2002-05", "2002-05-06-01", 20020506} {
		if phase := fields.ParseDateState(stored).Phase(); phase != fields.DateEmpty {
			t.Fatalf("%v: expected empty phase, got %s", stored, phase)
		}
	}
	if phase := fields.ParseDateState("2002--06").Phase(); phase != fields.DatePartial {
		t.Fatalf("expected partial phase, got %s", phase)
	}
}

func TestRegistry_ResolvesVariants(t *testing.T) {
	reg := fields.NewRegistry()

	cases := map[schema.InputType]fields.Kind{
		schema.InputText:     fields.KindText,
		schema.InputTextarea: fields.KindText,
		schema.InputPassword: fields.KindText,
		schema.InputEmail:    fields.KindText,
		schema.InputCheckbox: fields.KindText,
		schema.InputSelect:   fields.KindSelect,
		schema.InputDate:     fields.KindDate,
		"unknown":            fields.KindText,
	}
	for inputType, want := range cases {
		ctrl := reg.New(schema.FieldDescriptor{Key: "x", Widget: schema.Widget{InputType: inputType}}, fields.Config{})
		if ctrl.Kind() != want {
			t.Fatalf("%s: expected %s, got %s", inputType, want, ctrl.Kind())
		}
		if fields.KindFor(inputType) != want {
			t.Fatalf("%s: KindFor disagrees with registry", inputType)
		}
	}
}

func TestRender_RequiresTemplates(t *testing.T) {
	field := fields.NewField(schema.FieldDescriptor{Key: "x"}, fields.Config{})
	if _, err := field.Render(context.Background(), nil); !errors.Is(err, fields.ErrNoTemplates) {
		t.Fatalf("expected ErrNoTemplates, got %v", err)
	}
}

type captureTemplates struct {
	last fields.FieldContext
}

func (c *captureTemplates) RenderField(_ context.Context, field fields.FieldContext) (string, error) {
	c.last = field
	return "<field>", nil
}

func (c *captureTemplates) RenderErrors(context.Context, fields.FieldContext) (string, error) {
	return "", nil
}

func TestDate_RenderContextListsParts(t *testing.T) {
	templates := &captureTemplates{}
	date := fields.NewDate(dateDescriptor(), fields.Config{})
	date.Bindings(model.New(map[string]any{"issue_date": "2002-05-06"}))

	if _, err := date.Render(context.Background(), templates); err != nil {
		t.Fatalf("render: %v", err)
	}
	names := make([]string, 0, len(templates.last.Parts))
	for _, part := range templates.last.Parts {
		names = append(names, part.Name+"="+part.Value)
	}
	if diff := cmp.Diff([]string{"day=06", "month=05", "year=2002"}, names); diff != "" {
		t.Fatalf("parts mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"date_day", "date_month", "date_year"}, templates.last.Anchors); diff != "" {
		t.Fatalf("anchors mismatch (-want +got):\n%s", diff)
	}
}
