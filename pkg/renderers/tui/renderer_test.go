package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formbind/pkg/form"
	"github.com/goliatone/go-formbind/pkg/model"
	"github.com/goliatone/go-formbind/pkg/schema"
)

type stubDriver struct {
	inputs       []string
	selectIdx    []int
	confirm      []bool
	textAreas    []string
	passwords    []string
	infoMessages []string
	selectCfgs   []SelectConfig
	inputPos     int
	selectPos    int
	confirmPos   int
	textPos      int
	passPos      int
}

func (s *stubDriver) Input(_ context.Context, _ InputConfig) (string, error) {
	if s.inputPos >= len(s.inputs) {
		return "", errors.New("no input scripted")
	}
	val := s.inputs[s.inputPos]
	s.inputPos++
	return val, nil
}

func (s *stubDriver) Password(_ context.Context, _ InputConfig) (string, error) {
	if s.passPos >= len(s.passwords) {
		return "", errors.New("no password scripted")
	}
	val := s.passwords[s.passPos]
	s.passPos++
	return val, nil
}

func (s *stubDriver) Confirm(_ context.Context, _ ConfirmConfig) (bool, error) {
	if s.confirmPos >= len(s.confirm) {
		return false, errors.New("no confirm scripted")
	}
	val := s.confirm[s.confirmPos]
	s.confirmPos++
	return val, nil
}

func (s *stubDriver) Select(_ context.Context, cfg SelectConfig) (int, error) {
	s.selectCfgs = append(s.selectCfgs, cfg)
	if s.selectPos >= len(s.selectIdx) {
		return -1, errors.New("no select scripted")
	}
	val := s.selectIdx[s.selectPos]
	s.selectPos++
	return val, nil
}

func (s *stubDriver) TextArea(_ context.Context, _ TextAreaConfig) (string, error) {
	if s.textPos >= len(s.textAreas) {
		return "", errors.New("no textarea scripted")
	}
	val := s.textAreas[s.textPos]
	s.textPos++
	return val, nil
}

func (s *stubDriver) Info(_ context.Context, msg string) error {
	s.infoMessages = append(s.infoMessages, msg)
	return nil
}

func intPtr(v int) *int { return &v }

func signupSchema(errs schema.ErrorMap) schema.Schema {
	return schema.Schema{
		Title: "Sign up",
		Fields: schema.NewFieldSet(
			schema.FieldEntry{Key: "name", Field: schema.FieldDescriptor{
				Title:     "name",
				Required:  true,
				MinLength: intPtr(2),
				Widget:    schema.Widget{InputType: schema.InputText},
			}},
			schema.FieldEntry{Key: "country", Field: schema.FieldDescriptor{
				Title: "country",
				Widget: schema.Widget{
					InputType: schema.InputSelect,
					Choices:   []schema.Choice{{Display: "Peru", Value: "PE"}, {Display: "Chile", Value: "CL"}},
				},
			}},
			schema.FieldEntry{Key: "birth", Field: schema.FieldDescriptor{
				Title: "birth",
				Widget: schema.Widget{
					InputType: schema.InputDate,
					Choices: []schema.Choice{
						{Title: "day", Data: []schema.ChoiceOption{{Key: "01", Value: "1"}, {Key: "02", Value: "2"}}},
						{Title: "month", Data: []schema.ChoiceOption{{Key: "01", Value: "January"}, {Key: "02", Value: "February"}}},
						{Title: "year", Data: []schema.ChoiceOption{{Key: "1993", Value: "1993"}, {Key: "1994", Value: "1994"}}},
					},
				},
			}},
			schema.FieldEntry{Key: "newsletter", Field: schema.FieldDescriptor{
				Title:  "newsletter",
				Widget: schema.Widget{InputType: schema.InputCheckbox},
			}},
			schema.FieldEntry{Key: "bio", Field: schema.FieldDescriptor{
				Title:  "bio",
				Widget: schema.Widget{InputType: schema.InputTextarea},
			}},
		),
		Errors: errs,
	}
}

func newSignupForm(t *testing.T, errs schema.ErrorMap) *form.Form {
	t.Helper()
	f, err := form.New(signupSchema(errs), form.WithModel(model.New(nil)))
	if err != nil {
		t.Fatalf("form.New: %v", err)
	}
	return f
}

func decode(t *testing.T, out []byte) map[string]any {
	t.Helper()
	var got map[string]any
	if err := json.Unmarshal(out, &got); err != nil {
		t.Fatalf("decode output %q: %v", out, err)
	}
	return got
}

func TestRender_PromptsEveryControllerKind(t *testing.T) {
	driver := &stubDriver{
		inputs: []string{"A", "Ada"},
		// country, then the date parts in day, month, year order
		selectIdx: []int{1, 0, 1, 0},
		confirm:   []bool{true},
		textAreas: []string{"Hello"},
	}
	f := newSignupForm(t, schema.ErrorMap{})

	out, err := New(WithPromptDriver(driver)).Render(context.Background(), f)
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	want := map[string]any{
		"name":       "Ada",
		"country":    "CL",
		"birth":      "1993-02-01",
		"newsletter": true,
		"bio":        "Hello",
	}
	if diff := cmp.Diff(want, decode(t, out)); diff != "" {
		t.Fatalf("cleaned data mismatch (-want +got):\n%s", diff)
	}

	if driver.inputPos != 2 {
		t.Fatalf("expected the short name to be asked again, inputs consumed = %d", driver.inputPos)
	}
	if len(driver.infoMessages) != 1 || !strings.Contains(driver.infoMessages[0], "at least 2") {
		t.Fatalf("info messages = %v", driver.infoMessages)
	}

	stored, _ := f.Model().Get("birth")
	if stored != "1993-02-01" {
		t.Fatalf("model birth = %v, want 1993-02-01", stored)
	}

	labels := driver.selectCfgs[0].Options
	if diff := cmp.Diff([]string{"Peru", "Chile"}, labels); diff != "" {
		t.Fatalf("country labels mismatch (-want +got):\n%s", diff)
	}
	if driver.selectCfgs[1].Message != "Birth (day)" {
		t.Fatalf("date part message = %q", driver.selectCfgs[1].Message)
	}
}

func TestRender_ShowsSchemaErrorsBeforePrompting(t *testing.T) {
	driver := &stubDriver{
		inputs:    []string{"Ada"},
		selectIdx: []int{0, 0, 0, 0},
		confirm:   []bool{false},
		textAreas: []string{""},
	}
	f := newSignupForm(t, schema.ErrorMap{"name": {"Already taken"}})

	out, err := New(WithPromptDriver(driver), WithOutputFormat(OutputFormatPrettyText)).Render(context.Background(), f)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if driver.infoMessages[0] != "! Already taken" {
		t.Fatalf("info messages = %v", driver.infoMessages)
	}

	want := "bio=\nbirth=1993-01-01\ncountry=PE\nname=Ada\n"
	if diff := cmp.Diff(want, string(out)); diff != "" {
		t.Fatalf("pretty output mismatch (-want +got):\n%s", diff)
	}
}

type scriptedValidator struct {
	responses []schema.Schema
	payloads  []map[string]any
}

func (v *scriptedValidator) Validate(_ context.Context, payload map[string]any) (schema.Schema, error) {
	v.payloads = append(v.payloads, payload)
	next := v.responses[0]
	if len(v.responses) > 1 {
		v.responses = v.responses[1:]
	}
	return next, nil
}

func TestRender_RepromptsFlaggedFields(t *testing.T) {
	driver := &stubDriver{
		inputs:    []string{"Ada", "Grace"},
		selectIdx: []int{0, 0, 0, 0},
		confirm:   []bool{false},
		textAreas: []string{"bio"},
	}
	validator := &scriptedValidator{responses: []schema.Schema{
		signupSchema(schema.ErrorMap{"name": {"Already taken"}, "__all__": {"Fix the errors below"}}),
		signupSchema(schema.ErrorMap{}),
	}}
	f := newSignupForm(t, schema.ErrorMap{})

	out, err := New(WithPromptDriver(driver), WithValidator(validator)).Render(context.Background(), f)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got := decode(t, out)["name"]; got != "Grace" {
		t.Fatalf("name = %v, want Grace", got)
	}
	if len(validator.payloads) != 2 {
		t.Fatalf("validator calls = %d, want 2", len(validator.payloads))
	}
	if driver.selectPos != 4 || driver.textPos != 1 {
		t.Fatalf("only the flagged field should be asked again, selects=%d textareas=%d", driver.selectPos, driver.textPos)
	}
	if !f.Success() {
		t.Fatalf("expected success after the second round")
	}
}

func TestRender_GivesUpAfterMaxRounds(t *testing.T) {
	driver := &stubDriver{
		inputs:    []string{"Ada", "Ada"},
		selectIdx: []int{0, 0, 0, 0},
		confirm:   []bool{false},
		textAreas: []string{""},
	}
	validator := &scriptedValidator{responses: []schema.Schema{
		signupSchema(schema.ErrorMap{"name": {"Already taken"}}),
	}}
	f := newSignupForm(t, schema.ErrorMap{})

	_, err := New(WithPromptDriver(driver), WithValidator(validator), WithMaxRounds(2)).Render(context.Background(), f)
	if !errors.Is(err, ErrUnresolved) {
		t.Fatalf("expected ErrUnresolved, got %v", err)
	}
}

func TestRender_PropagatesAbort(t *testing.T) {
	f := newSignupForm(t, schema.ErrorMap{})
	driver := &abortingDriver{stubDriver: &stubDriver{}}

	if _, err := New(WithPromptDriver(driver)).Render(context.Background(), f); !errors.Is(err, ErrAborted) {
		t.Fatalf("expected ErrAborted, got %v", err)
	}
}

type abortingDriver struct {
	*stubDriver
}

func (d *abortingDriver) Input(context.Context, InputConfig) (string, error) {
	return "", ErrAborted
}

func TestRender_FormURLEncoded(t *testing.T) {
	driver := &stubDriver{
		inputs:    []string{"Ada Lovelace"},
		selectIdx: []int{0, 1, 1, 1},
		confirm:   []bool{true},
		textAreas: []string{"x"},
	}
	f := newSignupForm(t, schema.ErrorMap{})
	r := New(WithPromptDriver(driver), WithOutputFormat(OutputFormatFormURLEncoded))

	if r.ContentType() != "application/x-www-form-urlencoded" {
		t.Fatalf("content type = %q", r.ContentType())
	}
	out, err := r.Render(context.Background(), f)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	want := "bio=x&birth=1994-02-02&country=PE&name=Ada+Lovelace&newsletter=true"
	if diff := cmp.Diff(want, string(out)); diff != "" {
		t.Fatalf("encoded output mismatch (-want +got):\n%s", diff)
	}
}
