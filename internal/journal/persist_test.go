package journal_test

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"journal/internal/journal"
	"journal/internal/store"
	"journal/internal/testutil"
)

// populate imports the sample definition and records one trace with one
// event. It returns the trace id.
func populate(t *testing.T, env *testutil.TestEnv) uuid.UUID {
	t.Helper()
	importSample(t, env)
	trace := startTrace(t, env, testutil.SampleTraceTemplateID, "batch 7")
	env.Clock.Advance(time.Minute)
	logEvent(t, env, trace, testutil.SampleMeasureID)
	return trace.ID
}

func TestSaveToStore_LoadFromStore_RoundTrip(t *testing.T) {
	env := testutil.NewTestEnv()
	traceID := populate(t, env)
	if err := env.Service.SaveToStore(); err != nil {
		t.Fatalf("SaveToStore() error = %v", err)
	}

	partition := testutil.SampleProjectID.String()
	for _, name := range []string{journal.ProjectDocument, journal.DefinitionDocument, journal.DataDocument} {
		if _, err := env.Store.ReadDocument(partition, name); err != nil {
			t.Errorf("ReadDocument(%s) error = %v", name, err)
		}
	}

	next := env.Reopen()
	if err := next.Service.LoadFromStore(); err != nil {
		t.Fatalf("LoadFromStore() error = %v", err)
	}

	projects := next.Service.ListProjects()
	if len(projects) != 1 || projects[0].Name != "Lab" {
		t.Fatalf("ListProjects() = %+v, want Lab", projects)
	}
	view, ok := next.Service.ViewTrace(traceID)
	if !ok {
		t.Fatalf("ViewTrace(%s) not found after reload", traceID)
	}
	if view.Name != "batch 7" || view.LastEvent == nil {
		t.Errorf("reloaded trace = %+v, want batch 7 with a last event", view)
	}

	ev, ok := next.Service.ViewEvent(view.LastEvent.ID)
	if !ok {
		t.Fatalf("ViewEvent(%s) not found after reload", view.LastEvent.ID)
	}
	got := map[string]string{}
	for _, f := range ev.Fields {
		got[f.Name] = f.Display()
	}
	want := map[string]string{"rise-time": "1.5", "passed": "true", "quality": "Good"}
	if len(got) != len(want) {
		t.Errorf("reloaded fields = %v, want %v", got, want)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("field %s = %q, want %q", k, got[k], v)
		}
	}

	// Saving the reloaded service again writes identical documents.
	before, _ := env.Store.ReadDocument(partition, journal.DataDocument)
	if err := next.Service.SaveToStore(); err != nil {
		t.Fatalf("second SaveToStore() error = %v", err)
	}
	after, _ := env.Store.ReadDocument(partition, journal.DataDocument)
	if !bytes.Equal(before, after) {
		t.Errorf("data document changed after reload and save:\nbefore: %s\nafter: %s", before, after)
	}
}

func TestLoadFromStore_MissingDocuments(t *testing.T) {
	tests := []struct {
		name           string
		missing        string
		wantWarn       string
		eventTemplates int
		traces         int
	}{
		{name: "data", missing: journal.DataDocument, wantWarn: "data document missing", eventTemplates: 2, traces: 0},
		{name: "definition", missing: journal.DefinitionDocument, wantWarn: "definition document missing", eventTemplates: 0, traces: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := testutil.NewTestEnv()
			populate(t, env)
			if err := env.Service.SaveToStore(); err != nil {
				t.Fatalf("SaveToStore() error = %v", err)
			}
			env.Store.DeleteDocument(testutil.SampleProjectID.String(), tt.missing)

			next := env.Reopen()
			if err := next.Service.LoadFromStore(); err != nil {
				t.Fatalf("LoadFromStore() error = %v", err)
			}
			if got := len(next.Service.ListProjects()); got != 1 {
				t.Errorf("ListProjects() = %d, want 1", got)
			}
			if got := len(next.Service.ListEventTemplates(uuid.Nil)); got != tt.eventTemplates {
				t.Errorf("ListEventTemplates() = %d, want %d", got, tt.eventTemplates)
			}
			if got := len(next.Service.ListTraces(uuid.Nil)); got != tt.traces {
				t.Errorf("ListTraces() = %d, want %d", got, tt.traces)
			}
			if !next.Logger.HasMessage(slog.LevelWarn, tt.wantWarn) {
				t.Errorf("missing %s was not logged as a warning", tt.missing)
			}
		})
	}
}

func TestLoadFromStore_FileSystemLayout(t *testing.T) {
	root := t.TempDir()
	fsStore, err := store.NewFileSystemStore(root)
	if err != nil {
		t.Fatalf("NewFileSystemStore() error = %v", err)
	}
	env := testutil.NewTestEnv()
	svc := journal.NewJournalService(fsStore, env.Logger, env.Clock, env.IDs)
	if err := svc.ImportDefinition("Lab", testutil.WriteFile(t, "definition.json", testutil.SampleDefinitionJSON)); err != nil {
		t.Fatalf("ImportDefinition() error = %v", err)
	}
	if err := svc.SaveToStore(); err != nil {
		t.Fatalf("SaveToStore() error = %v", err)
	}

	dir := filepath.Join(root, testutil.SampleProjectID.String())
	for _, name := range []string{"project.json", "definition.json", "data.json"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s not written: %v", name, err)
		}
	}
	if err := os.Remove(filepath.Join(dir, "data.json")); err != nil {
		t.Fatalf("removing data.json: %v", err)
	}

	logger := testutil.NewRecordingLogger()
	reloaded := journal.NewJournalService(fsStore, logger, env.Clock, env.IDs)
	if err := reloaded.LoadFromStore(); err != nil {
		t.Fatalf("LoadFromStore() error = %v", err)
	}
	if got := len(reloaded.ListEventTemplates(uuid.Nil)); got != 2 {
		t.Errorf("ListEventTemplates() = %d, want 2", got)
	}
	if !logger.HasMessage(slog.LevelWarn, "data document missing") {
		t.Error("missing data.json was not logged as a warning")
	}
}

func TestLoadFromStore_SkipsNilProject(t *testing.T) {
	env := testutil.NewTestEnv()
	partition := uuid.Nil.String()
	doc := `{"project_uuid": "00000000-0000-0000-0000-000000000000", "name": "Nil", "created_at": "2024-01-15T10:30:00Z"}`
	if err := env.Store.WriteDocument(partition, journal.ProjectDocument, []byte(doc)); err != nil {
		t.Fatalf("WriteDocument() error = %v", err)
	}

	if err := env.Service.LoadFromStore(); err != nil {
		t.Fatalf("LoadFromStore() error = %v", err)
	}
	if got := len(env.Service.ListProjects()); got != 0 {
		t.Errorf("ListProjects() = %d, want 0", got)
	}
	if !env.Logger.HasMessage(slog.LevelWarn, "skipping project with nil id") {
		t.Error("nil project was not logged as a warning")
	}
}

func TestLoadFromStore_SkipsPartitionWithoutProject(t *testing.T) {
	env := testutil.NewTestEnv()
	if err := env.Store.WriteDocument("stray", journal.DataDocument, []byte(`{"events": [], "traces": []}`)); err != nil {
		t.Fatalf("WriteDocument() error = %v", err)
	}

	if err := env.Service.LoadFromStore(); err != nil {
		t.Fatalf("LoadFromStore() error = %v", err)
	}
	if got := len(env.Service.ListProjects()); got != 0 {
		t.Errorf("ListProjects() = %d, want 0", got)
	}
}

func TestLoadFromStore_CorruptDocument(t *testing.T) {
	env := testutil.NewTestEnv()
	populate(t, env)
	if err := env.Service.SaveToStore(); err != nil {
		t.Fatalf("SaveToStore() error = %v", err)
	}
	partition := testutil.SampleProjectID.String()
	if err := env.Store.WriteDocument(partition, journal.DataDocument, []byte("{not json")); err != nil {
		t.Fatalf("WriteDocument() error = %v", err)
	}

	err := env.Reopen().Service.LoadFromStore()
	var storageErr *journal.StorageError
	if !errors.As(err, &storageErr) {
		t.Fatalf("LoadFromStore() error = %v, want *StorageError", err)
	}
	if storageErr.Op != "load" || storageErr.Partition != partition {
		t.Errorf("StorageError = %+v, want load of %s", storageErr, partition)
	}
}

type failingStore struct {
	journal.Store
	err error
}

func (f failingStore) WriteDocument(string, string, []byte) error { return f.err }
func (f failingStore) ListPartitions() ([]string, error)          { return nil, f.err }

func TestStorageErrors(t *testing.T) {
	boom := errors.New("disk full")
	env := testutil.NewTestEnv()
	svc := journal.NewJournalService(failingStore{Store: env.Store, err: boom}, journal.NewNopLogger(), env.Clock, env.IDs)
	path := testutil.WriteFile(t, "definition.json", testutil.SampleDefinitionJSON)
	if err := svc.ImportDefinition("Lab", path); err != nil {
		t.Fatalf("ImportDefinition() error = %v", err)
	}

	tests := []struct {
		name   string
		call   func() error
		wantOp string
	}{
		{name: "save", call: svc.SaveToStore, wantOp: "save"},
		{name: "load", call: svc.LoadFromStore, wantOp: "load"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			var storageErr *journal.StorageError
			if !errors.As(err, &storageErr) {
				t.Fatalf("error = %v, want *StorageError", err)
			}
			if storageErr.Op != tt.wantOp {
				t.Errorf("Op = %q, want %q", storageErr.Op, tt.wantOp)
			}
			if !errors.Is(err, boom) {
				t.Errorf("error %v does not wrap the store error", err)
			}
		})
	}
}

func TestExportSnapshot_RestoreSnapshot(t *testing.T) {
	env := testutil.NewTestEnv()
	traceID := populate(t, env)

	var buf bytes.Buffer
	if err := env.Service.ExportSnapshot(&buf); err != nil {
		t.Fatalf("ExportSnapshot() error = %v", err)
	}
	if !strings.Contains(buf.String(), `"version": 1`) {
		t.Errorf("snapshot has no version:\n%s", buf.String())
	}

	fresh := testutil.NewTestEnv()
	if err := fresh.Service.RestoreSnapshot(&buf); err != nil {
		t.Fatalf("RestoreSnapshot() error = %v", err)
	}
	view, ok := fresh.Service.ViewTrace(traceID)
	if !ok {
		t.Fatalf("ViewTrace(%s) not found after restore", traceID)
	}
	if view.TemplateLabel() != "Batch" || view.LastEvent == nil {
		t.Errorf("restored trace = %+v, want Batch with a last event", view)
	}
	if got := len(fresh.Service.ListEventTemplates(testutil.SampleProjectID)); got != 2 {
		t.Errorf("restored event templates = %d, want 2", got)
	}
}

func TestRestoreSnapshot_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "not json", doc: "snapshot"},
		{name: "unsupported version", doc: `{"version": 99, "projects": []}`},
		{
			name: "nil project id",
			doc: `{"version": 1, "projects": [
				{"project": {"project_uuid": "11111111-1111-4111-8111-111111111111", "name": "Lab"}},
				{"project": {"project_uuid": "00000000-0000-0000-0000-000000000000", "name": "Nil"}}
			]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := testutil.NewTestEnv()
			err := env.Service.RestoreSnapshot(strings.NewReader(tt.doc))
			var parseErr *journal.ParsingError
			if !errors.As(err, &parseErr) {
				t.Fatalf("RestoreSnapshot() error = %v, want *ParsingError", err)
			}
			if got := len(env.Service.ListProjects()); got != 0 {
				t.Errorf("ListProjects() = %d after failed restore, want 0", got)
			}
		})
	}
}
