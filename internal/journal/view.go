package journal

import (
	"time"

	"github.com/google/uuid"
)

// Placeholders shown in place of references that no longer resolve.
const (
	MissingTemplateLabel = "Missing template"
	MissingTraceLabel    = "Missing trace"
)

type ProjectItemView struct {
	ID                 uuid.UUID
	Name               string
	CreatedAt          time.Time
	EventTemplateCount int
	TraceTemplateCount int
	ActiveTraceCount   int
}

type EventTemplateItemView struct {
	ID              uuid.UUID
	TraceTemplateID uuid.UUID
	Name            string
	CreatedAt       time.Time
	LastUsed        time.Time
}

type TraceTemplateItemView struct {
	ID        uuid.UUID
	ProjectID uuid.UUID
	Name      string
	CreatedAt time.Time
	LastUsed  time.Time
}

// TraceItemView is the summary of a trace used in lists and selections.
// TemplateName is nil when the trace template no longer resolves.
type TraceItemView struct {
	ID           uuid.UUID
	Name         string
	TemplateName *string
	CreatedAt    time.Time
}

// TemplateLabel returns the template name or the missing-template placeholder.
func (v TraceItemView) TemplateLabel() string {
	if v.TemplateName == nil {
		return MissingTemplateLabel
	}
	return *v.TemplateName
}

// FieldView is a persisted field prepared for display.
type FieldView struct {
	Name  string
	Label string
	Value FieldValue // nil when the field holds no value
}

// Display returns the field value as text, empty when there is none.
func (v FieldView) Display() string {
	if v.Value == nil {
		return ""
	}
	return v.Value.String()
}

type EventItemView struct {
	ID            uuid.UUID
	EventTemplate *EventTemplateItemView
	TraceName     *string
	CreatedAt     time.Time
}

func (v EventItemView) TemplateLabel() string {
	if v.EventTemplate == nil {
		return MissingTemplateLabel
	}
	return v.EventTemplate.Name
}

func (v EventItemView) TraceLabel() string {
	if v.TraceName == nil {
		return MissingTraceLabel
	}
	return *v.TraceName
}

type EventView struct {
	ID            uuid.UUID
	EventTemplate *EventTemplateItemView
	Trace         *TraceItemView
	Fields        []FieldView
	Tags          []string
	BeganAt       time.Time
	CreatedAt     time.Time
}

func (v EventView) TemplateLabel() string {
	if v.EventTemplate == nil {
		return MissingTemplateLabel
	}
	return v.EventTemplate.Name
}

func (v EventView) TraceLabel() string {
	if v.Trace == nil {
		return MissingTraceLabel
	}
	return v.Trace.Name
}

// TraceView is the fully joined view of a trace, including the flow
// suggestions for its next event.
type TraceView struct {
	ID                      uuid.UUID
	Name                    string
	TraceTemplate           *TraceTemplateItemView
	Tags                    []string
	Completion              *TraceCompletion
	CreatedAt               time.Time
	LastEvent               *EventItemView
	OriginTraces            []TraceItemView
	SuggestedEventTemplates []EventTemplateItemView
	OtherEventTemplates     []EventTemplateItemView
}

// Item returns the summary of the viewed trace.
func (v TraceView) Item() TraceItemView {
	item := TraceItemView{ID: v.ID, Name: v.Name, CreatedAt: v.CreatedAt}
	if v.TraceTemplate != nil {
		item.TemplateName = ptr(v.TraceTemplate.Name)
	}
	return item
}

func (v TraceView) TemplateLabel() string {
	if v.TraceTemplate == nil {
		return MissingTemplateLabel
	}
	return v.TraceTemplate.Name
}

func (v TraceView) Completed() bool {
	return v.Completion != nil
}

func fieldViews(fields []Field) []FieldView {
	out := make([]FieldView, 0, len(fields))
	for _, f := range fields {
		out = append(out, FieldView{Name: f.Name, Label: f.Label, Value: f.Value})
	}
	return out
}

func traceItem(t *Trace, tmpl *TraceTemplate) TraceItemView {
	item := TraceItemView{ID: t.ID, Name: t.Name, CreatedAt: t.CreatedAt}
	if tmpl != nil {
		item.TemplateName = ptr(tmpl.Name)
	}
	return item
}
