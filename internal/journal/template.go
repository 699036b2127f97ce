package journal

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ValueTemplate declares the shape of a field and its optional default:
// exactly one of NumberTemplate, TextTemplate, BoolTemplate or EnumeratedTemplate.
type ValueTemplate interface {
	Kind() ValueKind

	// Suggest returns a fresh suggestion whose value and default are both
	// seeded from the template default.
	Suggest() ValueSuggestion
}

type NumberTemplate struct {
	Default *float64 `json:"default_value,omitempty"`
}

type TextTemplate struct {
	Default *string `json:"default_value,omitempty"`
}

type BoolTemplate struct {
	Default *bool `json:"default_value,omitempty"`
}

type EnumeratedTemplate struct {
	Default *EnumerationOption  `json:"default_value,omitempty"`
	Options []EnumerationOption `json:"options"`
}

func (NumberTemplate) Kind() ValueKind     { return KindNumber }
func (TextTemplate) Kind() ValueKind       { return KindText }
func (BoolTemplate) Kind() ValueKind       { return KindBoolean }
func (EnumeratedTemplate) Kind() ValueKind { return KindEnumerated }

func (t NumberTemplate) Suggest() ValueSuggestion {
	return &NumberSuggestion{Value: clonePtr(t.Default), LastValues: []float64{}, Default: clonePtr(t.Default)}
}

func (t TextTemplate) Suggest() ValueSuggestion {
	return &TextSuggestion{Value: clonePtr(t.Default), LastValues: []string{}, Default: clonePtr(t.Default)}
}

func (t BoolTemplate) Suggest() ValueSuggestion {
	return &BoolSuggestion{Value: clonePtr(t.Default), LastValues: []bool{}, Default: clonePtr(t.Default)}
}

func (t EnumeratedTemplate) Suggest() ValueSuggestion {
	return &EnumeratedSuggestion{
		Selected:   clonePtr(t.Default),
		LastValues: []EnumerationOption{},
		Options:    append([]EnumerationOption(nil), t.Options...),
		Default:    clonePtr(t.Default),
	}
}

// FieldTemplate declares one field of an event template.
type FieldTemplate struct {
	Name  string
	Label string
	Value ValueTemplate
}

// Suggest returns the initial builder state for this field.
func (f FieldTemplate) Suggest() FieldSuggestion {
	return FieldSuggestion{Name: f.Name, Label: f.Label, Value: f.Value.Suggest()}
}

type fieldTemplateJSON struct {
	Name  string                        `json:"name"`
	Label string                        `json:"label"`
	Value map[ValueKind]json.RawMessage `json:"value"`
}

func (f FieldTemplate) MarshalJSON() ([]byte, error) {
	if f.Value == nil {
		return nil, fmt.Errorf("field template %q has no value template", f.Name)
	}
	raw, err := json.Marshal(f.Value)
	if err != nil {
		return nil, err
	}
	return json.Marshal(fieldTemplateJSON{
		Name:  f.Name,
		Label: f.Label,
		Value: map[ValueKind]json.RawMessage{f.Value.Kind(): raw},
	})
}

func (f *FieldTemplate) UnmarshalJSON(data []byte) error {
	var doc fieldTemplateJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	if len(doc.Value) != 1 {
		return fmt.Errorf("field template %q must have exactly one value kind", doc.Name)
	}
	for kind, raw := range doc.Value {
		var (
			vt  ValueTemplate
			err error
		)
		switch kind {
		case KindNumber:
			var t NumberTemplate
			err = json.Unmarshal(raw, &t)
			vt = t
		case KindText:
			var t TextTemplate
			err = json.Unmarshal(raw, &t)
			vt = t
		case KindBoolean:
			var t BoolTemplate
			err = json.Unmarshal(raw, &t)
			vt = t
		case KindEnumerated:
			var t EnumeratedTemplate
			err = json.Unmarshal(raw, &t)
			vt = t
		default:
			return fmt.Errorf("field template %q: unknown kind %s", doc.Name, kind)
		}
		if err != nil {
			return fmt.Errorf("field template %q: %w", doc.Name, err)
		}
		f.Value = vt
	}
	f.Name = doc.Name
	f.Label = doc.Label
	return nil
}

// EventTemplate declares the fields and default tags of one kind of event.
// It belongs to exactly one trace template.
type EventTemplate struct {
	ID              uuid.UUID       `json:"event_template_uuid"`
	TraceTemplateID uuid.UUID       `json:"trace_template_uuid"`
	Name            string          `json:"name"`
	Fields          []FieldTemplate `json:"fields"`
	DefaultTags     []string        `json:"default_tags"`
	CreatedAt       time.Time       `json:"created_at"`
}

// Item returns the list view of the template. A zero lastUsed falls back
// to the template's creation time.
func (t *EventTemplate) Item(lastUsed time.Time) EventTemplateItemView {
	if lastUsed.IsZero() {
		lastUsed = t.CreatedAt
	}
	return EventTemplateItemView{
		ID:              t.ID,
		TraceTemplateID: t.TraceTemplateID,
		Name:            t.Name,
		CreatedAt:       t.CreatedAt,
		LastUsed:        lastUsed,
	}
}

// Ref returns the (id, name) reference carried by builders.
func (t *EventTemplate) Ref() TemplateRef {
	return TemplateRef{ID: t.ID, Name: t.Name}
}

// TraceFlowEntry is one row of a trace template's transition table.
type TraceFlowEntry struct {
	From uuid.UUID   `json:"from"`
	To   []uuid.UUID `json:"to"`
}

// TraceTemplate declares a kind of trace and the allowed transitions between
// its event templates. Flow entries may reference event templates that do
// not exist; such references are kept as-is.
type TraceTemplate struct {
	ID        uuid.UUID        `json:"trace_template_uuid"`
	ProjectID uuid.UUID        `json:"project_uuid"`
	Name      string           `json:"name"`
	CreatedAt time.Time        `json:"created_at"`
	Flow      []TraceFlowEntry `json:"flow"`
}

// Item returns the list view of the template. A zero lastUsed falls back
// to the template's creation time.
func (t *TraceTemplate) Item(lastUsed time.Time) TraceTemplateItemView {
	if lastUsed.IsZero() {
		lastUsed = t.CreatedAt
	}
	return TraceTemplateItemView{
		ID:        t.ID,
		ProjectID: t.ProjectID,
		Name:      t.Name,
		CreatedAt: t.CreatedAt,
		LastUsed:  lastUsed,
	}
}

// Ref returns the (id, name) reference carried by builders.
func (t *TraceTemplate) Ref() TemplateRef {
	return TemplateRef{ID: t.ID, Name: t.Name}
}
