package journal

import (
	"io"

	"github.com/google/uuid"
)

// Service is the complete contract between the journal core and its
// front-ends. Every listing takes a project scope: uuid.Nil lists across
// all projects, any other id restricts results to entities owned by that
// project.
type Service interface {
	ListProjects() []ProjectItemView
	ListEventTemplates(project uuid.UUID) []EventTemplateItemView
	ListTraceTemplates(project uuid.UUID) []TraceTemplateItemView
	ListEvents(project uuid.UUID) []EventItemView
	ListTraces(project uuid.UUID) []TraceItemView

	ViewEvent(id uuid.UUID) (EventView, bool)
	ViewTrace(id uuid.UUID) (TraceView, bool)

	// CreateEventBuilder returns *EventTemplateNotFoundError for an unknown template.
	CreateEventBuilder(eventTemplateID uuid.UUID, trace TraceView) (*EventBuilder, error)

	// CreateTraceBuilder returns *TraceTemplateNotFoundError for an unknown template.
	CreateTraceBuilder(traceTemplateID uuid.UUID) (*TraceBuilder, error)

	// SaveEvent and SaveTrace persist a finalized builder and return the new id.
	SaveEvent(b *EventBuilder) uuid.UUID
	SaveTrace(b *TraceBuilder) uuid.UUID

	// CompleteTrace marks a trace completed. Unknown ids are ignored.
	CompleteTrace(id uuid.UUID)

	// ImportDefinition reads a JSON or YAML definition document and merges
	// its templates, plus a project record named projectName, by id.
	ImportDefinition(projectName, path string) error

	LoadFromStore() error
	SaveToStore() error

	ExportSnapshot(w io.Writer) error
	RestoreSnapshot(r io.Reader) error
}
