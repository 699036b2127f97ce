package journal

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
)

// TemplateRef is the (id, name) reference a builder keeps to its template.
type TemplateRef struct {
	ID   uuid.UUID
	Name string
}

// TraceSelection is either empty or holds exactly one trace.
type TraceSelection struct {
	trace *TraceItemView
}

// NoTrace returns an empty selection.
func NoTrace() TraceSelection { return TraceSelection{} }

// SelectedTrace returns a selection holding t.
func SelectedTrace(t TraceItemView) TraceSelection { return TraceSelection{trace: &t} }

// Trace returns the selected trace and whether there is one.
func (s TraceSelection) Trace() (TraceItemView, bool) {
	if s.trace == nil {
		return TraceItemView{}, false
	}
	return *s.trace, true
}

func (s TraceSelection) IsSelected() bool { return s.trace != nil }

// EventBuilder is an editable draft of an event. It is never persisted;
// saving it produces a new Event.
type EventBuilder struct {
	ID            uuid.UUID
	EventTemplate TemplateRef
	Fields        []FieldSuggestion
	Tags          []string
	Traces        []uuid.UUID
	BeganAt       time.Time
	SelectedTrace TraceSelection
}

// NewEventBuilder seeds a draft from tmpl, anchored to trace.
func NewEventBuilder(tmpl *EventTemplate, trace TraceItemView, id uuid.UUID, now time.Time) *EventBuilder {
	fields := make([]FieldSuggestion, 0, len(tmpl.Fields))
	for _, f := range tmpl.Fields {
		fields = append(fields, f.Suggest())
	}
	return &EventBuilder{
		ID:            id,
		EventTemplate: tmpl.Ref(),
		Fields:        fields,
		Tags:          append([]string{}, tmpl.DefaultTags...),
		Traces:        []uuid.UUID{},
		BeganAt:       now,
		SelectedTrace: SelectedTrace(trace),
	}
}

// Field returns the suggestion with the given name.
func (b *EventBuilder) Field(name string) (*FieldSuggestion, bool) {
	for i := range b.Fields {
		if b.Fields[i].Name == name {
			return &b.Fields[i], true
		}
	}
	return nil, false
}

// SetField parses raw into the named field.
func (b *EventBuilder) SetField(name, raw string) error {
	f, ok := b.Field(name)
	if !ok {
		return fmt.Errorf("unknown field: %s", name)
	}
	if err := f.Value.SetString(raw); err != nil {
		return fmt.Errorf("field %s: %w", name, err)
	}
	return nil
}

// AddTag appends tag unless it is already present.
func (b *EventBuilder) AddTag(tag string) {
	if !slices.Contains(b.Tags, tag) {
		b.Tags = append(b.Tags, tag)
	}
}

// Build finalizes the draft into an Event. Fields without a value are
// dropped. Building a draft with no selected trace is a programming error
// and panics.
func (b *EventBuilder) Build(id uuid.UUID, now time.Time) Event {
	trace, ok := b.SelectedTrace.Trace()
	if !ok {
		panic("journal: event builder has no selected trace")
	}
	fields := make([]Field, 0, len(b.Fields))
	for _, s := range b.Fields {
		if f, ok := s.Build(); ok {
			fields = append(fields, f)
		}
	}
	return Event{
		ID:              id,
		EventTemplateID: b.EventTemplate.ID,
		TraceID:         trace.ID,
		Fields:          fields,
		Tags:            append([]string{}, b.Tags...),
		BeganAt:         b.BeganAt,
		CreatedAt:       now,
	}
}

// TraceBuilder is an editable draft of a trace.
type TraceBuilder struct {
	ID            uuid.UUID
	Name          string
	TraceTemplate TemplateRef
	Tags          []string
	BeganAt       time.Time
	OriginTraces  map[uuid.UUID]TraceItemView
	SelectedTrace TraceSelection
}

// NewTraceBuilder seeds an unnamed draft from tmpl with no origins.
func NewTraceBuilder(tmpl *TraceTemplate, id uuid.UUID, now time.Time) *TraceBuilder {
	return &TraceBuilder{
		ID:            id,
		Name:          "",
		TraceTemplate: tmpl.Ref(),
		Tags:          []string{},
		BeganAt:       now,
		OriginTraces:  map[uuid.UUID]TraceItemView{},
		SelectedTrace: NoTrace(),
	}
}

// SelectTrace stages t; AddSelectedOrigin moves it into the origin set.
func (b *TraceBuilder) SelectTrace(t TraceItemView) {
	b.SelectedTrace = SelectedTrace(t)
}

// AddSelectedOrigin adds the staged trace to the origin set and clears the
// staging slot. It reports false when nothing was staged.
func (b *TraceBuilder) AddSelectedOrigin() bool {
	t, ok := b.SelectedTrace.Trace()
	if !ok {
		return false
	}
	b.OriginTraces[t.ID] = t
	b.SelectedTrace = NoTrace()
	return true
}

func (b *TraceBuilder) RemoveOrigin(id uuid.UUID) {
	delete(b.OriginTraces, id)
}

// Origins returns the origin set ordered by trace id.
func (b *TraceBuilder) Origins() []TraceItemView {
	out := make([]TraceItemView, 0, len(b.OriginTraces))
	for _, t := range b.OriginTraces {
		out = append(out, t)
	}
	slices.SortFunc(out, func(x, y TraceItemView) int { return compareIDs(x.ID, y.ID) })
	return out
}

// Build finalizes the draft into a Trace.
func (b *TraceBuilder) Build(id uuid.UUID, now time.Time) Trace {
	origins := make([]uuid.UUID, 0, len(b.OriginTraces))
	for _, t := range b.Origins() {
		origins = append(origins, t.ID)
	}
	return Trace{
		ID:              id,
		TraceTemplateID: b.TraceTemplate.ID,
		OriginTraceIDs:  origins,
		CreatedAt:       now,
		Name:            b.Name,
		Completion:      nil,
	}
}
