package fields

import (
	"context"

	"github.com/goliatone/go-formbind/pkg/binding"
	"github.com/goliatone/go-formbind/pkg/model"
	"github.com/goliatone/go-formbind/pkg/schema"
)

// Date part label and value paths inside choice data.
const (
	DateLabelPath = "value"
	DateValuePath = "key"
)

// Date reconciles three part controls (day, month, year) into a single model
// attribute holding "year-month-day".
//
// Two paths write to the model. Each part's binding entry overlays its slot
// on the stored string, so the stored value fills in as parts arrive. The
// local DateState tracks the same events and commits the full value with one
// model write once every part is set. A Date is confined to the goroutine
// that owns its form.
type Date struct {
	*Field
	state  DateState
	model  binding.Model
	unsync func()
}

// changeNotifier is the subset of an observable model Date resyncs from.
type changeNotifier interface {
	OnChange(fn model.Listener) func()
}

// NewDate constructs a date controller.
func NewDate(desc schema.FieldDescriptor, cfg Config) *Date {
	field := NewField(desc, cfg)
	field.kind = KindDate
	return &Date{Field: field}
}

// PartAnchor returns the anchor id of one part control.
func (d *Date) PartAnchor(part DatePart) string {
	return d.desc.Key + "_" + part.String()
}

// Anchors lists the part anchors in display order.
func (d *Date) Anchors() []string {
	return []string{d.PartAnchor(PartDay), d.PartAnchor(PartMonth), d.PartAnchor(PartYear)}
}

// State returns the local part state.
func (d *Date) State() DateState { return d.state }

// Bindings returns one entry per part, all observing the field binding. The
// model's current value seeds the local state.
func (d *Date) Bindings(m binding.Model) binding.Map {
	if m != nil {
		d.model = m
		stored, _ := m.Get(d.desc.Binding)
		d.state = ParseDateState(stored)
	}
	out := make(binding.Map, len(dateParts))
	for _, part := range dateParts {
		out[binding.Selector(d.PartAnchor(part))] = d.partEntry(part)
	}
	return out
}

func (d *Date) partEntry(part DatePart) binding.Entry {
	options := d.partOptions(part)
	return binding.Entry{
		Observe:       d.desc.Binding,
		SelectOptions: &options,
		OnGet: func(stored any) (any, bool) {
			return datePartFromStored(stored, part)
		},
		OnSet: func(value, stored any) (any, bool) {
			text := stringValue(value)
			if text == "" {
				return nil, false
			}
			return overlayDatePart(stored, part, text), true
		},
	}
}

func (d *Date) partOptions(part DatePart) binding.SelectOptions {
	opts := binding.SelectOptions{LabelPath: DateLabelPath, ValuePath: DateValuePath}
	choice, ok := d.desc.Widget.Choice(part.String())
	if !ok {
		opts.Collection = []map[string]any{}
		return opts
	}
	opts.Collection = make([]map[string]any, 0, len(choice.Data))
	for _, item := range choice.Data {
		opts.Collection = append(opts.Collection, map[string]any{
			DateValuePath: item.Key,
			DateLabelPath: item.Value,
		})
	}
	return opts
}

// Attach pushes the parsed model value into each part control and listens
// for part changes. When m reports changes, every write to the field binding
// reseeds the local state, so values set outside the part controls are not
// clobbered by the next part change.
func (d *Date) Attach(surface Surface, m binding.Model) {
	if m != nil {
		d.model = m
		stored, _ := m.Get(d.desc.Binding)
		d.state = ParseDateState(stored)
		d.follow(m)
	}
	if surface == nil {
		return
	}
	for _, part := range dateParts {
		part := part
		anchor := d.PartAnchor(part)
		if value, ok := d.state.Part(part); ok {
			surface.SetValue(anchor, value)
		}
		surface.OnChange(anchor, func(value any) {
			d.UpdateLocalDate(part, stringValue(value))
		})
	}
}

// Detach stops following model writes.
func (d *Date) Detach() {
	if d.unsync != nil {
		d.unsync()
		d.unsync = nil
	}
}

func (d *Date) follow(m binding.Model) {
	d.Detach()
	notifier, ok := m.(changeNotifier)
	if !ok {
		return
	}
	d.unsync = notifier.OnChange(func(change model.Change) {
		if change.Attribute == d.desc.Binding {
			d.state = ParseDateState(change.Value)
		}
	})
}

// UpdateLocalDate records one part change. Once all three parts are set it
// writes the full value to the model and reports true; partial states never
// reach the model.
func (d *Date) UpdateLocalDate(part DatePart, value string) bool {
	d.state = d.state.Set(part, value)
	if d.state.Phase() != DateComplete || d.model == nil {
		return false
	}
	d.model.Set(d.desc.Binding, d.state.Value())
	return true
}

// Render delegates to the templating collaborator with one context per part.
func (d *Date) Render(ctx context.Context, templates Templates) (string, error) {
	return d.render(ctx, templates, d.Context())
}

// Context returns the template context including part controls.
func (d *Date) Context() FieldContext {
	fieldCtx := d.Field.Context()
	fieldCtx.Anchors = d.Anchors()
	for _, part := range []DatePart{PartDay, PartMonth, PartYear} {
		value, _ := d.state.Part(part)
		fieldCtx.Parts = append(fieldCtx.Parts, DatePartContext{
			Name:    part.String(),
			Anchor:  d.PartAnchor(part),
			Value:   value,
			Options: d.partOptions(part).Options(),
		})
	}
	return fieldCtx
}

var (
	_ Controller = (*Field)(nil)
	_ Controller = (*Select)(nil)
	_ Controller = (*Date)(nil)
	_ Attacher   = (*Date)(nil)
	_ Detacher   = (*Date)(nil)
)
