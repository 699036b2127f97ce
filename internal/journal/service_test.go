package journal_test

import (
	"log/slog"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"journal/internal/journal"
	"journal/internal/testutil"
)

func TestJournalService_ExampleScenario(t *testing.T) {
	env := testutil.NewTestEnv()
	importSample(t, env)

	trace := startTrace(t, env, testutil.SampleTraceTemplateID, "batch 7")
	env.Clock.Advance(time.Minute)
	logEvent(t, env, trace, testutil.SampleMeasureID)

	view, ok := env.Service.ViewTrace(trace.ID)
	if !ok {
		t.Fatalf("ViewTrace(%s) not found", trace.ID)
	}
	if got := templateIDs(view.SuggestedEventTemplates); !slices.Equal(got, []uuid.UUID{testutil.SampleReviewID}) {
		t.Errorf("SuggestedEventTemplates = %v, want [Review]", got)
	}
	if len(view.OtherEventTemplates) != 0 {
		t.Errorf("OtherEventTemplates = %v, want empty", templateIDs(view.OtherEventTemplates))
	}
	if view.LastEvent == nil || view.LastEvent.TemplateLabel() != "Measure" {
		t.Errorf("LastEvent = %+v, want a Measure event", view.LastEvent)
	}
}

func TestJournalService_SaveTrace_RoundTrip(t *testing.T) {
	env := testutil.NewTestEnv()
	importSample(t, env)

	b, err := env.Service.CreateTraceBuilder(testutil.SampleTraceTemplateID)
	if err != nil {
		t.Fatalf("CreateTraceBuilder() error = %v", err)
	}
	b.Name = "batch 12"
	id := env.Service.SaveTrace(b)

	if id == b.ID {
		t.Errorf("SaveTrace() reused the builder id %s, want a fresh id", id)
	}
	view, ok := env.Service.ViewTrace(id)
	if !ok {
		t.Fatalf("ViewTrace(%s) not found", id)
	}
	if view.Name != "batch 12" {
		t.Errorf("Name = %q, want %q", view.Name, "batch 12")
	}
	if view.Completed() || view.Completion != nil {
		t.Errorf("Completion = %+v, want nil", view.Completion)
	}
	if view.TemplateLabel() != "Batch" {
		t.Errorf("TemplateLabel() = %q, want Batch", view.TemplateLabel())
	}
	if len(view.Tags) != 0 {
		t.Errorf("Tags = %v, want empty", view.Tags)
	}
}

func TestJournalService_CompleteTrace(t *testing.T) {
	env := testutil.NewTestEnv()
	importSample(t, env)
	keep := startTrace(t, env, testutil.SampleTraceTemplateID, "keep")
	done := startTrace(t, env, testutil.SampleTraceTemplateID, "done")

	env.Clock.Advance(time.Hour)
	env.Service.CompleteTrace(done.ID)

	var listed []uuid.UUID
	for _, tr := range env.Service.ListTraces(uuid.Nil) {
		listed = append(listed, tr.ID)
	}
	if !slices.Equal(listed, []uuid.UUID{keep.ID}) {
		t.Errorf("ListTraces() = %v, want only %s", listed, keep.ID)
	}

	view, ok := env.Service.ViewTrace(done.ID)
	if !ok {
		t.Fatalf("ViewTrace(%s) of completed trace not found", done.ID)
	}
	if view.Completion == nil || !view.Completion.CompletedAt.Equal(env.Clock.Now()) {
		t.Errorf("Completion = %+v, want completed at %v", view.Completion, env.Clock.Now())
	}
}

func TestJournalService_CompleteTrace_UnknownIsNoop(t *testing.T) {
	env := testutil.NewTestEnv()
	importSample(t, env)
	startTrace(t, env, testutil.SampleTraceTemplateID, "a")

	env.Service.CompleteTrace(uuid.MustParse("12345678-1234-4234-8234-123456789012"))

	if got := len(env.Service.ListTraces(uuid.Nil)); got != 1 {
		t.Errorf("ListTraces() = %d traces, want 1", got)
	}
	if len(env.Logger.Records(slog.LevelWarn)) != 0 {
		t.Errorf("CompleteTrace() of unknown id logged warnings: %v", env.Logger.Records(slog.LevelWarn))
	}
}

func TestJournalService_ListEvents_Order(t *testing.T) {
	env := testutil.NewTestEnv()
	importSample(t, env)
	trace := startTrace(t, env, testutil.SampleTraceTemplateID, "batch")

	env.Clock.Advance(2 * time.Hour)
	late := logEvent(t, env, trace, testutil.SampleReviewID)
	env.Clock.Advance(-time.Hour)
	early := logEvent(t, env, trace, testutil.SampleMeasureID)

	var got []uuid.UUID
	for _, e := range env.Service.ListEvents(uuid.Nil) {
		got = append(got, e.ID)
	}
	if want := []uuid.UUID{early, late}; !slices.Equal(got, want) {
		t.Errorf("ListEvents() = %v, want %v", got, want)
	}

	events := env.Service.ListEvents(uuid.Nil)
	if events[0].TraceLabel() != "batch" || events[0].TemplateLabel() != "Measure" {
		t.Errorf("ListEvents()[0] labels = %q/%q, want batch/Measure", events[0].TraceLabel(), events[0].TemplateLabel())
	}
}

func TestJournalService_ListTemplates_ByLastUsed(t *testing.T) {
	env := testutil.NewTestEnv()
	importSample(t, env)
	trace := startTrace(t, env, testutil.SampleTraceTemplateID, "batch")

	// Neither template used yet: same created_at, ordered by name.
	var names []string
	for _, it := range env.Service.ListEventTemplates(uuid.Nil) {
		names = append(names, it.Name)
	}
	if want := []string{"Measure", "Review"}; !slices.Equal(names, want) {
		t.Errorf("ListEventTemplates() = %v, want %v", names, want)
	}

	env.Clock.Advance(time.Hour)
	logEvent(t, env, trace, testutil.SampleMeasureID)

	names = nil
	items := env.Service.ListEventTemplates(uuid.Nil)
	for _, it := range items {
		names = append(names, it.Name)
	}
	if want := []string{"Review", "Measure"}; !slices.Equal(names, want) {
		t.Errorf("ListEventTemplates() after use = %v, want %v", names, want)
	}
	if !items[1].LastUsed.Equal(env.Clock.Now()) {
		t.Errorf("Measure LastUsed = %v, want %v", items[1].LastUsed, env.Clock.Now())
	}

	traceTemplates := env.Service.ListTraceTemplates(uuid.Nil)
	if len(traceTemplates) != 1 || traceTemplates[0].ID != testutil.SampleTraceTemplateID {
		t.Fatalf("ListTraceTemplates() = %+v, want the Batch template", traceTemplates)
	}
	if !traceTemplates[0].LastUsed.Equal(trace.CreatedAt) {
		t.Errorf("Batch LastUsed = %v, want trace created_at %v", traceTemplates[0].LastUsed, trace.CreatedAt)
	}
}

func TestJournalService_ProjectScope(t *testing.T) {
	env := testutil.NewTestEnv()
	importSample(t, env)
	defineFlow(t, env, transition{from: tmplA, to: []uuid.UUID{tmplB}})

	sample := startTrace(t, env, testutil.SampleTraceTemplateID, "sample")
	logEvent(t, env, sample, testutil.SampleMeasureID)
	flow := startTrace(t, env, flowTrace, "flow")
	logEvent(t, env, flow, tmplA)
	logEvent(t, env, flow, tmplB)

	tests := []struct {
		name           string
		scope          uuid.UUID
		eventTemplates int
		traceTemplates int
		traces         int
		events         int
	}{
		{name: "unscoped", scope: uuid.Nil, eventTemplates: 7, traceTemplates: 3, traces: 2, events: 3},
		{name: "sample project", scope: testutil.SampleProjectID, eventTemplates: 2, traceTemplates: 1, traces: 1, events: 1},
		{name: "flow project", scope: flowProject, eventTemplates: 5, traceTemplates: 2, traces: 1, events: 2},
		{name: "unknown project", scope: uuid.MustParse("0fffffff-0000-4000-8000-000000000000")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := len(env.Service.ListEventTemplates(tt.scope)); got != tt.eventTemplates {
				t.Errorf("ListEventTemplates() = %d, want %d", got, tt.eventTemplates)
			}
			if got := len(env.Service.ListTraceTemplates(tt.scope)); got != tt.traceTemplates {
				t.Errorf("ListTraceTemplates() = %d, want %d", got, tt.traceTemplates)
			}
			if got := len(env.Service.ListTraces(tt.scope)); got != tt.traces {
				t.Errorf("ListTraces() = %d, want %d", got, tt.traces)
			}
			if got := len(env.Service.ListEvents(tt.scope)); got != tt.events {
				t.Errorf("ListEvents() = %d, want %d", got, tt.events)
			}
		})
	}
}

func TestJournalService_ListProjects(t *testing.T) {
	env := testutil.NewTestEnv()
	importSample(t, env)
	defineFlow(t, env)
	startTrace(t, env, testutil.SampleTraceTemplateID, "a")
	done := startTrace(t, env, testutil.SampleTraceTemplateID, "b")
	env.Service.CompleteTrace(done.ID)

	got := env.Service.ListProjects()
	if len(got) != 2 {
		t.Fatalf("ListProjects() = %d projects, want 2", len(got))
	}
	if got[0].Name != "Flows" || got[1].Name != "Lab" {
		t.Errorf("ListProjects() names = %q, %q, want Flows, Lab", got[0].Name, got[1].Name)
	}
	lab := got[1]
	if lab.ID != testutil.SampleProjectID {
		t.Errorf("Lab ID = %s, want %s", lab.ID, testutil.SampleProjectID)
	}
	if lab.EventTemplateCount != 2 || lab.TraceTemplateCount != 1 || lab.ActiveTraceCount != 1 {
		t.Errorf("Lab counts = %d/%d/%d, want 2/1/1", lab.EventTemplateCount, lab.TraceTemplateCount, lab.ActiveTraceCount)
	}
}

func TestJournalService_ViewEvent(t *testing.T) {
	env := testutil.NewTestEnv()
	importSample(t, env)
	trace := startTrace(t, env, testutil.SampleTraceTemplateID, "batch")

	b, err := env.Service.CreateEventBuilder(testutil.SampleMeasureID, trace)
	if err != nil {
		t.Fatalf("CreateEventBuilder() error = %v", err)
	}
	b.AddTag("urgent")
	b.AddTag("lab")
	env.Clock.Advance(time.Minute)
	id := env.Service.SaveEvent(b)

	view, ok := env.Service.ViewEvent(id)
	if !ok {
		t.Fatalf("ViewEvent(%s) not found", id)
	}
	if view.TemplateLabel() != "Measure" || view.TraceLabel() != "batch" {
		t.Errorf("labels = %q/%q, want Measure/batch", view.TemplateLabel(), view.TraceLabel())
	}
	if !slices.Equal(view.Tags, []string{"lab", "urgent"}) {
		t.Errorf("Tags = %v, want [lab urgent]", view.Tags)
	}
	if !view.CreatedAt.Equal(env.Clock.Now()) || view.BeganAt.Equal(view.CreatedAt) {
		t.Errorf("BeganAt/CreatedAt = %v/%v, want draft start before save", view.BeganAt, view.CreatedAt)
	}
	if got := view.Fields[0].Display(); got != "1.5" {
		t.Errorf("Fields[0].Display() = %q, want 1.5", got)
	}

	if _, ok := env.Service.ViewEvent(uuid.New()); ok {
		t.Error("ViewEvent() of unknown id found an event")
	}
	if _, ok := env.Service.ViewTrace(uuid.New()); ok {
		t.Error("ViewTrace() of unknown id found a trace")
	}
}

func TestJournalService_MissingReferences(t *testing.T) {
	env := testutil.NewTestEnv()
	orphanTrace := testutil.SeqID(900)
	orphanEvent := testutil.SeqID(901)
	snapshot := `{
  "version": 1,
  "exported_at": "2024-01-15T10:30:00Z",
  "projects": [{
    "project": {"project_uuid": "11111111-1111-4111-8111-111111111111", "name": "Lab", "created_at": "2024-01-15T10:30:00Z"},
    "definition": {"project_uuid": "11111111-1111-4111-8111-111111111111", "event_templates": [], "trace_templates": []},
    "data": {
      "project_uuid": "11111111-1111-4111-8111-111111111111",
      "traces": [{"trace_uuid": "` + orphanTrace.String() + `", "trace_template_uuid": "22222222-2222-4222-8222-222222222222",
                  "origin_trace_uuids": [], "created_at": "2024-01-15T10:30:00Z", "name": "orphan", "completion": null}],
      "events": [{"event_uuid": "` + orphanEvent.String() + `", "event_template_uuid": "33333333-3333-4333-8333-333333333333",
                  "trace_uuid": "` + testutil.SeqID(999).String() + `", "fields": [], "tags": [],
                  "began_at": "2024-01-15T10:30:00Z", "created_at": "2024-01-15T10:30:00Z"}]
    }
  }]
}`
	if err := env.Service.RestoreSnapshot(strings.NewReader(snapshot)); err != nil {
		t.Fatalf("RestoreSnapshot() error = %v", err)
	}

	view, ok := env.Service.ViewTrace(orphanTrace)
	if !ok {
		t.Fatalf("ViewTrace(%s) not found", orphanTrace)
	}
	if view.TraceTemplate != nil || view.TemplateLabel() != journal.MissingTemplateLabel {
		t.Errorf("TraceTemplate = %+v, want missing placeholder", view.TraceTemplate)
	}
	if len(view.SuggestedEventTemplates) != 0 || len(view.OtherEventTemplates) != 0 {
		t.Error("trace with missing template has template suggestions")
	}
	if !env.Logger.HasMessage(slog.LevelWarn, "trace template not found") {
		t.Error("missing trace template was not logged as a warning")
	}

	traces := env.Service.ListTraces(uuid.Nil)
	if len(traces) != 1 || traces[0].TemplateLabel() != journal.MissingTemplateLabel {
		t.Errorf("ListTraces() = %+v, want one trace with missing template", traces)
	}

	ev, ok := env.Service.ViewEvent(orphanEvent)
	if !ok {
		t.Fatalf("ViewEvent(%s) not found", orphanEvent)
	}
	if ev.TraceLabel() != journal.MissingTraceLabel || ev.TemplateLabel() != journal.MissingTemplateLabel {
		t.Errorf("event labels = %q/%q, want placeholders", ev.TraceLabel(), ev.TemplateLabel())
	}

	// Neither record reaches a project, so saving leaves them out and says so.
	if err := env.Service.SaveToStore(); err != nil {
		t.Fatalf("SaveToStore() error = %v", err)
	}
	var dropped []any
	for _, r := range env.Logger.Records(slog.LevelWarn) {
		if r.Msg == "records without a project were not saved" {
			dropped = r.Args
		}
	}
	want := []any{"event_templates", 0, "trace_templates", 0, "traces", 1, "events", 1}
	if !slices.Equal(dropped, want) {
		t.Errorf("unsaved records warning args = %v, want %v", dropped, want)
	}
}
