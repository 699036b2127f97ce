package journal

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/google/uuid"
)

// snapshotVersion is bumped when the Snapshot layout changes.
const snapshotVersion = 1

// Snapshot is the whole repository as a single document.
type Snapshot struct {
	Version    int               `json:"version"`
	ExportedAt time.Time         `json:"exported_at"`
	Projects   []ProjectSnapshot `json:"projects"`
}

type ProjectSnapshot struct {
	Project    Project           `json:"project"`
	Definition ProjectDefinition `json:"definition"`
	Data       ProjectData       `json:"data"`
}

// LoadFromStore merges every project found in the store into the service.
// Partitions without a project document are skipped. A missing definition
// or data document is logged and the rest of the project is still loaded.
func (s *JournalService) LoadFromStore() error {
	partitions, err := s.store.ListPartitions()
	if err != nil {
		return &StorageError{Op: "load", Err: err}
	}
	for _, p := range partitions {
		if err := s.loadPartition(p); err != nil {
			return err
		}
	}
	s.logger.Info("store loaded", "projects", len(s.projects), "traces", len(s.traces), "events", len(s.events))
	return nil
}

func (s *JournalService) loadPartition(partition string) error {
	var project Project
	found, err := s.readDocument(partition, ProjectDocument, &project)
	if err != nil {
		return err
	}
	if !found {
		s.logger.Debug("skipping partition without project document", "partition", partition)
		return nil
	}
	if project.ID == uuid.Nil {
		s.logger.Warn("skipping project with nil id", "partition", partition)
		return nil
	}
	s.projects[project.ID] = project

	var def ProjectDefinition
	found, err = s.readDocument(partition, DefinitionDocument, &def)
	if err != nil {
		return err
	}
	if found {
		s.mergeDefinition(def)
	} else {
		s.logger.Warn("definition document missing", "partition", partition)
	}

	var data ProjectData
	found, err = s.readDocument(partition, DataDocument, &data)
	if err != nil {
		return err
	}
	if found {
		s.mergeData(data)
	} else {
		s.logger.Warn("data document missing", "partition", partition)
	}
	return nil
}

// readDocument decodes the named document into v. It reports false when the
// document does not exist.
func (s *JournalService) readDocument(partition, name string, v any) (bool, error) {
	raw, err := s.store.ReadDocument(partition, name)
	if errors.Is(err, ErrDocumentNotFound) {
		return false, nil
	}
	if err != nil {
		return false, &StorageError{Op: "load", Partition: partition, Err: err}
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, &StorageError{Op: "load", Partition: partition, Err: fmt.Errorf("decoding %s: %w", name, err)}
	}
	return true, nil
}

// SaveToStore writes every project to the store. All projects are written
// on every call.
func (s *JournalService) SaveToStore() error {
	for _, snap := range s.snapshotProjects() {
		partition := snap.Project.ID.String()
		docs := []struct {
			name string
			v    any
		}{
			{ProjectDocument, snap.Project},
			{DefinitionDocument, snap.Definition},
			{DataDocument, snap.Data},
		}
		for _, doc := range docs {
			raw, err := encodeDocument(doc.v)
			if err != nil {
				return &StorageError{Op: "save", Partition: partition, Err: fmt.Errorf("encoding %s: %w", doc.name, err)}
			}
			if err := s.store.WriteDocument(partition, doc.name, raw); err != nil {
				return &StorageError{Op: "save", Partition: partition, Err: err}
			}
		}
		s.logger.Debug("project saved", "project", partition,
			"event_templates", len(snap.Definition.EventTemplates),
			"trace_templates", len(snap.Definition.TraceTemplates),
			"events", len(snap.Data.Events),
			"traces", len(snap.Data.Traces))
	}
	if o := s.unownedRecords(); o.total() > 0 {
		s.logger.Warn("records without a project were not saved",
			"event_templates", o.eventTemplates,
			"trace_templates", o.traceTemplates,
			"traces", o.traces,
			"events", o.events)
	}
	s.logger.Info("store saved", "projects", len(s.projects))
	return nil
}

type unownedCounts struct {
	eventTemplates, traceTemplates, traces, events int
}

func (c unownedCounts) total() int {
	return c.eventTemplates + c.traceTemplates + c.traces + c.events
}

// unownedRecords counts the records whose ownership chain does not reach a
// known project. No project document collects them.
func (s *JournalService) unownedRecords() unownedCounts {
	var c unownedCounts
	known := func(tt uuid.UUID) bool {
		t, ok := s.traceTemplates[tt]
		if !ok {
			return false
		}
		_, ok = s.projects[t.ProjectID]
		return ok
	}
	for id := range s.traceTemplates {
		if !known(id) {
			c.traceTemplates++
		}
	}
	for _, et := range s.eventTemplates {
		if !known(et.TraceTemplateID) {
			c.eventTemplates++
		}
	}
	for _, t := range s.traces {
		if !known(t.TraceTemplateID) {
			c.traces++
		}
	}
	for _, e := range s.events {
		t, ok := s.traces[e.TraceID]
		if !ok || !known(t.TraceTemplateID) {
			c.events++
		}
	}
	return c
}

// ExportSnapshot writes the whole repository as one JSON document.
func (s *JournalService) ExportSnapshot(w io.Writer) error {
	snap := Snapshot{
		Version:    snapshotVersion,
		ExportedAt: s.clock.Now(),
		Projects:   s.snapshotProjects(),
	}
	raw, err := encodeDocument(snap)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	if _, err := w.Write(raw); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	return nil
}

// RestoreSnapshot merges a snapshot written by ExportSnapshot, later
// records winning per id. Nothing is merged if the document is invalid.
func (s *JournalService) RestoreSnapshot(r io.Reader) error {
	var snap Snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return wrapParsingError("decoding snapshot", err)
	}
	if snap.Version != snapshotVersion {
		return parsingErrorf("unsupported snapshot version %d (want %d)", snap.Version, snapshotVersion)
	}
	for i, p := range snap.Projects {
		if p.Project.ID == uuid.Nil {
			return parsingErrorf("snapshot project %d has the nil id", i)
		}
	}
	for _, p := range snap.Projects {
		s.projects[p.Project.ID] = p.Project
		s.mergeDefinition(p.Definition)
		s.mergeData(p.Data)
	}
	s.logger.Info("snapshot restored", "projects", len(snap.Projects))
	return nil
}

func (s *JournalService) snapshotProjects() []ProjectSnapshot {
	projects := make([]Project, 0, len(s.projects))
	for _, p := range s.projects {
		projects = append(projects, p)
	}
	slices.SortFunc(projects, func(a, b Project) int { return compareIDs(a.ID, b.ID) })

	out := make([]ProjectSnapshot, 0, len(projects))
	for _, p := range projects {
		out = append(out, ProjectSnapshot{
			Project:    p,
			Definition: s.collectDefinition(p.ID),
			Data:       s.collectData(p.ID),
		})
	}
	return out
}

func (s *JournalService) collectDefinition(project uuid.UUID) ProjectDefinition {
	def := ProjectDefinition{
		ProjectID:      project,
		EventTemplates: []EventTemplate{},
		TraceTemplates: []TraceTemplate{},
	}
	for id, et := range s.eventTemplates {
		if s.ownsEventTemplate(project, id) {
			def.EventTemplates = append(def.EventTemplates, et)
		}
	}
	for id, tt := range s.traceTemplates {
		if s.ownsTraceTemplate(project, id) {
			def.TraceTemplates = append(def.TraceTemplates, tt)
		}
	}
	slices.SortFunc(def.EventTemplates, func(a, b EventTemplate) int { return compareIDs(a.ID, b.ID) })
	slices.SortFunc(def.TraceTemplates, func(a, b TraceTemplate) int { return compareIDs(a.ID, b.ID) })
	return def
}

func (s *JournalService) collectData(project uuid.UUID) ProjectData {
	data := ProjectData{
		ProjectID: project,
		Events:    []Event{},
		Traces:    []Trace{},
	}
	for id, e := range s.events {
		if s.ownsEvent(project, id) {
			data.Events = append(data.Events, e)
		}
	}
	for id, t := range s.traces {
		if s.ownsTrace(project, id) {
			data.Traces = append(data.Traces, t)
		}
	}
	sortEvents(data.Events)
	sortTraces(data.Traces)
	return data
}

func (s *JournalService) mergeDefinition(def ProjectDefinition) {
	for _, et := range def.EventTemplates {
		s.eventTemplates[et.ID] = et
	}
	for _, tt := range def.TraceTemplates {
		s.traceTemplates[tt.ID] = tt
	}
}

func (s *JournalService) mergeData(data ProjectData) {
	for _, e := range data.Events {
		s.events[e.ID] = e
	}
	for _, t := range data.Traces {
		s.traces[t.ID] = t
	}
}

// encodeDocument renders v as indented JSON with a trailing newline.
func encodeDocument(v any) ([]byte, error) {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(raw, '\n'), nil
}
