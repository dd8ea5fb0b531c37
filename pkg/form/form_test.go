package form_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formbind/pkg/binding"
	"github.com/goliatone/go-formbind/pkg/controls"
	"github.com/goliatone/go-formbind/pkg/fields"
	"github.com/goliatone/go-formbind/pkg/form"
	"github.com/goliatone/go-formbind/pkg/model"
	"github.com/goliatone/go-formbind/pkg/schema"
	"github.com/goliatone/go-formbind/pkg/testsupport"
)

var profilePath = filepath.Join("testdata", "profile.json")

func singleTextSchema() schema.Schema {
	return schema.Schema{
		Title: "NameForm",
		Fields: schema.NewFieldSet(schema.FieldEntry{
			Key: "first_name",
			Field: schema.FieldDescriptor{
				Title:  "first_name",
				Widget: schema.Widget{InputType: schema.InputText},
			},
		}),
	}
}

func controllerKeys(ctrls []fields.Controller) []string {
	out := make([]string, 0, len(ctrls))
	for _, ctrl := range ctrls {
		out = append(out, ctrl.Key())
	}
	return out
}

func reverse(value string) string {
	runes := []rune(value)
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}
	return string(runes)
}

func TestNew_RequiresFields(t *testing.T) {
	for name, raw := range map[string]schema.Schema{
		"missing": {Title: "Empty"},
		"empty":   {Title: "Empty", Fields: schema.NewFieldSet()},
	} {
		_, err := form.New(raw)
		var schemaErr *schema.SchemaError
		if !errors.As(err, &schemaErr) {
			t.Fatalf("%s: expected SchemaError, got %v", name, err)
		}
	}
}

func TestNew_BuildsControllersAndBindings(t *testing.T) {
	f := testsupport.MustNewForm(t, profilePath, form.WithModel(model.New(nil)))

	if diff := cmp.Diff([]string{"first_name", "birth_date", "country", "newsletter"}, controllerKeys(f.Controllers())); diff != "" {
		t.Fatalf("controllers mismatch (-want +got):\n%s", diff)
	}

	ctrl, _ := f.Controller("birth_date")
	if ctrl.Kind() != fields.KindDate {
		t.Fatalf("expected date controller, got %s", ctrl.Kind())
	}

	got := make(map[string]string)
	for selector, entry := range f.Bindings() {
		got[selector] = entry.Observe
	}
	want := map[string]string{
		"#first_name":       "first_name",
		"#birth_date_day":   "profile.birth_date",
		"#birth_date_month": "profile.birth_date",
		"#birth_date_year":  "profile.birth_date",
		"#country":          "country",
		"#newsletter":       "newsletter",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("bindings mismatch (-want +got):\n%s", diff)
	}
	if observe, ok := f.ModelField("birth_date_month"); !ok || observe != "profile.birth_date" {
		t.Fatalf("unexpected model field %q", observe)
	}
}

func TestNew_ExcludeAndNoModel(t *testing.T) {
	f := testsupport.MustNewForm(t, profilePath,
		form.WithModel(model.New(nil)),
		form.WithExclude("birth_date", "country"),
	)
	if diff := cmp.Diff(2, len(f.Bindings())); diff != "" {
		t.Fatalf("binding count mismatch (-want +got):\n%s", diff)
	}

	unbound := testsupport.MustNewForm(t, profilePath)
	if len(unbound.Bindings()) != 0 {
		t.Fatalf("expected no bindings without a model")
	}
}

func TestPickBindings_FiltersByModelAttributes(t *testing.T) {
	f := testsupport.MustNewForm(t, profilePath, form.WithModel(model.New(nil)))
	profile := model.New(map[string]any{"profile": map[string]any{}})

	picked := f.PickBindings(profile.Attributes())

	want := []string{"#birth_date_day", "#birth_date_month", "#birth_date_year"}
	got := make([]string, 0, len(picked))
	for _, selector := range want {
		if _, ok := picked[selector]; ok {
			got = append(got, selector)
		}
	}
	if diff := cmp.Diff(want, got); diff != "" || len(picked) != len(want) {
		t.Fatalf("picked bindings mismatch (-want +got):\n%s (total %d)", diff, len(picked))
	}
}

func TestSuccessFollowsErrors(t *testing.T) {
	f := testsupport.MustNewForm(t, profilePath)
	if !f.Success() {
		t.Fatalf("empty errors should mean success")
	}

	next := f.Schema()
	next.Errors = schema.ErrorMap{"first_name": {"Too short"}}
	ok, err := f.ApplySchema(next)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if ok || f.Success() {
		t.Fatalf("non-empty errors should clear success")
	}

	next.Errors = schema.ErrorMap{}
	if ok, _ := f.ApplySchema(next); !ok {
		t.Fatalf("empty errors should restore success")
	}
}

func TestApplySchema_AbsentErrorsKeepsStateAndLogs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	f := testsupport.MustNewForm(t, profilePath, form.WithLogger(logger))

	next := f.Schema()
	next.Errors = schema.ErrorMap{"country": {"Pick one"}}
	f.ApplySchema(next)

	next.Errors = nil
	ok, err := f.ApplySchema(next)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if ok {
		t.Fatalf("success should be unchanged when errors are absent")
	}
	if !strings.Contains(buf.String(), "cannot determine form success") {
		t.Fatalf("expected warning in log, got %q", buf.String())
	}
}

func TestApplySchema_RedistributesErrors(t *testing.T) {
	shown := map[string][]string{}
	f := testsupport.MustNewForm(t, profilePath, form.WithErrorDisplay(fields.ErrorDisplayFunc(func(key string, messages []string) {
		shown[key] = messages
	})))

	next := f.Schema()
	next.Errors = schema.ErrorMap{
		"first_name":        {"Too short", " Too short ", ""},
		schema.AllFieldsKey: {"Please correct the errors below."},
		"ghost":             {"unknown"},
	}
	f.ApplySchema(next)

	first, _ := f.Controller("first_name")
	if diff := cmp.Diff([]string{"Too short"}, first.Errors()); diff != "" {
		t.Fatalf("first_name errors mismatch (-want +got):\n%s", diff)
	}
	country, _ := f.Controller("country")
	if len(country.Errors()) != 0 {
		t.Fatalf("country should have no errors, got %v", country.Errors())
	}
	if _, ok := shown["newsletter"]; !ok {
		t.Fatalf("every controller should refresh its error display")
	}

	errs := f.Errors()
	if diff := cmp.Diff([]string{"Please correct the errors below."}, errs.All); diff != "" {
		t.Fatalf("form errors mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"first_name"}, controllerKeys(errs.Fields)); diff != "" {
		t.Fatalf("error fields mismatch (-want +got):\n%s", diff)
	}
	if _, ok := f.Schema().Errors["ghost"]; ok {
		t.Fatalf("errors for unknown fields should be discarded")
	}

	next.Errors = schema.ErrorMap{"country": {"Pick one"}}
	f.ApplySchema(next)
	if len(first.Errors()) != 0 {
		t.Fatalf("errors should be replaced on each schema, got %v", first.Errors())
	}
}

func TestApplyValidated_DiscardsStaleResponses(t *testing.T) {
	f := testsupport.MustNewForm(t, profilePath)

	stale := f.BeginValidation()
	latest := f.BeginValidation()

	next := f.Schema()
	next.Errors = schema.ErrorMap{"first_name": {"Old"}}
	if _, err := f.ApplyValidated(stale, next); !errors.Is(err, form.ErrStaleSchema) {
		t.Fatalf("expected ErrStaleSchema, got %v", err)
	}
	if !f.Success() {
		t.Fatalf("stale response must not change state")
	}

	next.Errors = schema.ErrorMap{"first_name": {"New"}}
	ok, err := f.ApplyValidated(latest, next)
	if err != nil || ok {
		t.Fatalf("expected latest response applied, got ok=%v err=%v", ok, err)
	}
}

func TestClean_ReadsControlsAndAppliesHooks(t *testing.T) {
	surface := controls.New()
	surface.SetValue("first_name", "Foo")

	f, err := form.New(singleTextSchema(), form.WithControls(surface))
	if err != nil {
		t.Fatalf("new form: %v", err)
	}
	if diff := cmp.Diff(map[string]any{"first_name": "Foo"}, f.Clean()); diff != "" {
		t.Fatalf("clean mismatch (-want +got):\n%s", diff)
	}

	hooked, err := form.New(singleTextSchema(),
		form.WithControls(surface),
		form.WithCleanHook("first_name", func(data map[string]any) any {
			return reverse(data["first_name"].(string))
		}),
	)
	if err != nil {
		t.Fatalf("new form: %v", err)
	}
	if diff := cmp.Diff(map[string]any{"first_name": "ooF"}, hooked.Clean()); diff != "" {
		t.Fatalf("clean mismatch (-want +got):\n%s", diff)
	}
}

func TestClean_OmitsUncheckedCheckbox(t *testing.T) {
	surface := controls.New()
	surface.SetValue("first_name", "Ada")
	surface.SetValue("newsletter", "yes")

	f := testsupport.MustNewForm(t, profilePath, form.WithControls(surface))

	data := f.Clean()
	if _, ok := data["newsletter"]; ok {
		t.Fatalf("unchecked checkbox should be omitted, got %v", data)
	}

	surface.SetChecked("newsletter", true)
	if got := f.Clean()["newsletter"]; got != "yes" {
		t.Fatalf("checked checkbox should submit its value, got %v", got)
	}
}

func TestBind_RoundTripsThroughSurface(t *testing.T) {
	m := model.New(map[string]any{"first_name": "Ada"})
	surface := controls.New()
	f := testsupport.MustNewForm(t, profilePath, form.WithModel(m))

	f.Bind(surface)

	if got, _ := surface.Value("first_name"); got != "Ada" {
		t.Fatalf("expected initial control value, got %v", got)
	}

	surface.Change("first_name", "Grace")
	surface.Change("birth_date_day", "01")
	surface.Change("birth_date_year", "1992")
	surface.Change("birth_date_month", "02")
	surface.Change("country", "PE")

	want := map[string]any{
		"first_name":         "Grace",
		"profile.birth_date": "1992-02-01",
		"country":            "PE",
	}
	if diff := cmp.Diff(want, m.Snapshot()); diff != "" {
		t.Fatalf("model mismatch (-want +got):\n%s", diff)
	}

	wantClean := map[string]any{
		"first_name": "Grace",
		"birth_date": "1992-02-01",
		"country":    "PE",
	}
	if diff := cmp.Diff(wantClean, f.Clean()); diff != "" {
		t.Fatalf("clean mismatch (-want +got):\n%s", diff)
	}
}

func TestBind_StopDetachesDateFromModel(t *testing.T) {
	m := model.New(map[string]any{"profile.birth_date": "1992-02-01"})
	surface := controls.New()
	f := testsupport.MustNewForm(t, profilePath, form.WithModel(m))

	stop := f.Bind(surface)

	ctrl, ok := f.Controller("birth_date")
	if !ok {
		t.Fatalf("expected birth_date controller")
	}
	date, ok := ctrl.(*fields.Date)
	if !ok {
		t.Fatalf("expected date controller, got %T", ctrl)
	}

	m.Set("profile.birth_date", "1985-07-14")
	if got := date.State().Value(); got != "1985-07-14" {
		t.Fatalf("bound date should follow the model, got %q", got)
	}

	stop()
	m.Set("profile.birth_date", "2000-01-01")
	if got := date.State().Value(); got != "1985-07-14" {
		t.Fatalf("stopped date should keep its state, got %q", got)
	}
}

func TestClean_FallsBackToModel(t *testing.T) {
	m := model.New(map[string]any{"first_name": "Ada", "newsletter": false})
	f := testsupport.MustNewForm(t, profilePath, form.WithModel(m))

	if diff := cmp.Diff(map[string]any{"first_name": "Ada"}, f.Clean()); diff != "" {
		t.Fatalf("clean mismatch (-want +got):\n%s", diff)
	}
}

func TestFieldsets(t *testing.T) {
	f := testsupport.MustNewForm(t, profilePath)

	groups := f.Fieldsets()
	got := make(map[string][]string, len(groups))
	for _, group := range groups {
		got[group.Key] = controllerKeys(group.Fields)
	}
	want := map[string][]string{
		"personal": {"first_name", "birth_date"},
		"extra":    {"newsletter", "country"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("fieldsets mismatch (-want +got):\n%s", diff)
	}
	if groups[0].Legend != "Personal Information" {
		t.Fatalf("unexpected legend %q", groups[0].Legend)
	}
	if len(f.Schema().Fieldsets) != 2 {
		t.Fatalf("grouping must not mutate the schema")
	}
}

func TestFieldsets_SynthesizedWhenUndeclared(t *testing.T) {
	f := testsupport.MustNewForm(t, filepath.Join("testdata", "undeclared.yaml"))

	groups := f.Fieldsets()
	if len(groups) != 1 {
		t.Fatalf("expected one synthesized fieldset, got %d", len(groups))
	}
	if diff := cmp.Diff([]string{"zeta", "alpha"}, controllerKeys(groups[0].Fields)); diff != "" {
		t.Fatalf("synthesized order mismatch (-want +got):\n%s", diff)
	}
	if len(f.Schema().Fieldsets) != 0 {
		t.Fatalf("grouping must not mutate the schema")
	}
}

func TestNew_ConflictingSelectorsFail(t *testing.T) {
	raw := schema.Schema{
		Fields: schema.NewFieldSet(
			schema.FieldEntry{Key: "date", Field: schema.FieldDescriptor{Widget: schema.Widget{InputType: schema.InputDate}}},
			schema.FieldEntry{Key: "date_day", Field: schema.FieldDescriptor{Widget: schema.Widget{InputType: schema.InputText}}},
		),
	}

	_, err := form.New(raw, form.WithModel(model.New(nil)))
	var conflict *binding.BindingConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected BindingConflictError, got %v", err)
	}

	if _, err := form.New(raw, form.WithModel(model.New(nil)), form.WithConflictPolicy(binding.ConflictOverwrite)); err != nil {
		t.Fatalf("overwrite policy should accept collisions: %v", err)
	}
}

type stubValidator struct {
	payloads []map[string]any
	response schema.Schema
	err      error
}

func (s *stubValidator) Validate(_ context.Context, payload map[string]any) (schema.Schema, error) {
	s.payloads = append(s.payloads, payload)
	return s.response, s.err
}

func TestValidate_SendsCleanedDataAndAppliesResponse(t *testing.T) {
	surface := controls.New()
	surface.SetValue("first_name", "Foo")
	f, err := form.New(singleTextSchema(), form.WithControls(surface))
	if err != nil {
		t.Fatalf("new form: %v", err)
	}

	response := singleTextSchema()
	response.Errors = schema.ErrorMap{"first_name": {"Taken"}}
	validator := &stubValidator{response: response}

	ok, err := f.Validate(testsupport.Context(), validator)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if ok {
		t.Fatalf("expected failure from server errors")
	}
	if diff := cmp.Diff([]map[string]any{{"first_name": "Foo"}}, validator.payloads); diff != "" {
		t.Fatalf("payload mismatch (-want +got):\n%s", diff)
	}
	ctrl, _ := f.Controller("first_name")
	if diff := cmp.Diff([]string{"Taken"}, ctrl.Errors()); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}

	validator.err = errors.New("boom")
	if _, err := f.Validate(testsupport.Context(), validator); err == nil {
		t.Fatalf("expected transport error")
	}
}

func TestApplySchema_ResolvesPathErrorKeys(t *testing.T) {
	f := testsupport.MustNewForm(t, profilePath)

	next := f.Schema()
	next.Errors = schema.ErrorMap{
		"first_name":         {"Too short"},
		"/body/first_name":   {"Already taken"},
		"$.data.country[0]":  {"Pick one"},
		"non_field_errors":   {"Try again later"},
		"request/body/ghost": {"unknown"},
	}
	f.ApplySchema(next)

	got := map[string][]string{}
	for key, messages := range f.Schema().Errors {
		got[key] = messages
	}
	want := map[string][]string{
		"first_name":        {"Too short", "Already taken"},
		"country":           {"Pick one"},
		schema.AllFieldsKey: {"Try again later"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("resolved errors mismatch (-want +got):\n%s", diff)
	}
}
