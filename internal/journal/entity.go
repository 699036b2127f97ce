package journal

import (
	"time"

	"github.com/google/uuid"
)

// Event is a persisted, immutable record of something that happened within a trace.
type Event struct {
	ID              uuid.UUID `json:"event_uuid"`
	EventTemplateID uuid.UUID `json:"event_template_uuid"`
	TraceID         uuid.UUID `json:"trace_uuid"`
	Fields          []Field   `json:"fields"`
	Tags            []string  `json:"tags"`
	BeganAt         time.Time `json:"began_at"`
	CreatedAt       time.Time `json:"created_at"`
}

// TraceCompletion records when a trace was completed.
type TraceCompletion struct {
	CompletedAt time.Time `json:"completed_at"`
}

// Trace is a persisted instance of a trace template. The only mutation after
// creation is setting Completion.
type Trace struct {
	ID              uuid.UUID        `json:"trace_uuid"`
	TraceTemplateID uuid.UUID        `json:"trace_template_uuid"`
	OriginTraceIDs  []uuid.UUID      `json:"origin_trace_uuids"`
	CreatedAt       time.Time        `json:"created_at"`
	Name            string           `json:"name"`
	Completion      *TraceCompletion `json:"completion"`
}

// Active reports whether the trace has not been completed.
func (t *Trace) Active() bool {
	return t.Completion == nil
}

// Project partitions templates and, through them, traces and events.
type Project struct {
	ID        uuid.UUID `json:"project_uuid"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// ProjectDefinition is the templates owned by one project. It is the
// contents of definition.json.
type ProjectDefinition struct {
	ProjectID      uuid.UUID       `json:"project_uuid"`
	EventTemplates []EventTemplate `json:"event_templates"`
	TraceTemplates []TraceTemplate `json:"trace_templates"`
}

// ProjectData is the events and traces owned by one project. It is the
// contents of data.json.
type ProjectData struct {
	ProjectID uuid.UUID `json:"project_uuid"`
	Events    []Event   `json:"events"`
	Traces    []Trace   `json:"traces"`
}
