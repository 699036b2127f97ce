package journal_test

import (
	"testing"

	"github.com/google/uuid"

	"journal/internal/journal"
	"journal/internal/testutil"
)

func importSample(t *testing.T, env *testutil.TestEnv) {
	t.Helper()
	path := testutil.WriteFile(t, "definition.json", testutil.SampleDefinitionJSON)
	if err := env.Service.ImportDefinition("Lab", path); err != nil {
		t.Fatalf("ImportDefinition() error = %v", err)
	}
}

// startTrace saves a new trace of traceTemplate and returns its view.
func startTrace(t *testing.T, env *testutil.TestEnv, traceTemplate uuid.UUID, name string) journal.TraceView {
	t.Helper()
	b, err := env.Service.CreateTraceBuilder(traceTemplate)
	if err != nil {
		t.Fatalf("CreateTraceBuilder() error = %v", err)
	}
	b.Name = name
	id := env.Service.SaveTrace(b)
	view, ok := env.Service.ViewTrace(id)
	if !ok {
		t.Fatalf("ViewTrace(%s) not found after SaveTrace", id)
	}
	return view
}

// logEvent saves an event of eventTemplate with its default values against trace.
func logEvent(t *testing.T, env *testutil.TestEnv, trace journal.TraceView, eventTemplate uuid.UUID) uuid.UUID {
	t.Helper()
	b, err := env.Service.CreateEventBuilder(eventTemplate, trace)
	if err != nil {
		t.Fatalf("CreateEventBuilder() error = %v", err)
	}
	return env.Service.SaveEvent(b)
}

func templateIDs(items []journal.EventTemplateItemView) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}
