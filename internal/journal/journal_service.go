package journal

import (
	"cmp"
	"slices"
	"time"

	"github.com/google/uuid"
)

// JournalService is the in-memory system of record for projects, templates,
// traces and events. It is owned by a single caller and is not safe for
// concurrent use. The Store is only touched by LoadFromStore, SaveToStore
// and their snapshot counterparts.
type JournalService struct {
	store  Store
	logger Logger
	clock  Clock
	idgen  IDGenerator

	projects       map[uuid.UUID]Project
	eventTemplates map[uuid.UUID]EventTemplate
	traceTemplates map[uuid.UUID]TraceTemplate
	events         map[uuid.UUID]Event
	traces         map[uuid.UUID]Trace
}

var _ Service = (*JournalService)(nil)

// NewJournalService creates an empty JournalService backed by store.
func NewJournalService(store Store, logger Logger, clock Clock, idgen IDGenerator) *JournalService {
	return &JournalService{
		store:          store,
		logger:         logger,
		clock:          clock,
		idgen:          idgen,
		projects:       make(map[uuid.UUID]Project),
		eventTemplates: make(map[uuid.UUID]EventTemplate),
		traceTemplates: make(map[uuid.UUID]TraceTemplate),
		events:         make(map[uuid.UUID]Event),
		traces:         make(map[uuid.UUID]Trace),
	}
}

// ListProjects returns every project ordered by name, then id.
func (s *JournalService) ListProjects() []ProjectItemView {
	out := make([]ProjectItemView, 0, len(s.projects))
	for _, p := range s.projects {
		item := ProjectItemView{ID: p.ID, Name: p.Name, CreatedAt: p.CreatedAt}
		for id := range s.eventTemplates {
			if s.ownsEventTemplate(p.ID, id) {
				item.EventTemplateCount++
			}
		}
		for id := range s.traceTemplates {
			if s.ownsTraceTemplate(p.ID, id) {
				item.TraceTemplateCount++
			}
		}
		for id, t := range s.traces {
			if t.Active() && s.ownsTrace(p.ID, id) {
				item.ActiveTraceCount++
			}
		}
		out = append(out, item)
	}
	slices.SortFunc(out, func(a, b ProjectItemView) int {
		if c := cmp.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return compareIDs(a.ID, b.ID)
	})
	return out
}

// ListEventTemplates returns the event templates in scope ordered by when
// they were last used to create an event, least recent first.
func (s *JournalService) ListEventTemplates(project uuid.UUID) []EventTemplateItemView {
	lastUsed := make(map[uuid.UUID]time.Time)
	for _, e := range s.events {
		if e.CreatedAt.After(lastUsed[e.EventTemplateID]) {
			lastUsed[e.EventTemplateID] = e.CreatedAt
		}
	}

	out := []EventTemplateItemView{}
	for id, et := range s.eventTemplates {
		if !s.ownsEventTemplate(project, id) {
			continue
		}
		out = append(out, et.Item(lastUsed[id]))
	}
	slices.SortFunc(out, func(a, b EventTemplateItemView) int {
		return compareUsage(a.LastUsed, b.LastUsed, a.Name, b.Name, a.ID, b.ID)
	})
	return out
}

// ListTraceTemplates returns the trace templates in scope ordered by when
// they were last used to create a trace, least recent first.
func (s *JournalService) ListTraceTemplates(project uuid.UUID) []TraceTemplateItemView {
	lastUsed := make(map[uuid.UUID]time.Time)
	for _, t := range s.traces {
		if t.CreatedAt.After(lastUsed[t.TraceTemplateID]) {
			lastUsed[t.TraceTemplateID] = t.CreatedAt
		}
	}

	out := []TraceTemplateItemView{}
	for id, tt := range s.traceTemplates {
		if !s.ownsTraceTemplate(project, id) {
			continue
		}
		out = append(out, tt.Item(lastUsed[id]))
	}
	slices.SortFunc(out, func(a, b TraceTemplateItemView) int {
		return compareUsage(a.LastUsed, b.LastUsed, a.Name, b.Name, a.ID, b.ID)
	})
	return out
}

func compareUsage(at, bt time.Time, an, bn string, aid, bid uuid.UUID) int {
	if c := at.Compare(bt); c != 0 {
		return c
	}
	if c := cmp.Compare(an, bn); c != 0 {
		return c
	}
	return compareIDs(aid, bid)
}

// ListEvents returns the events in scope ordered by creation time.
func (s *JournalService) ListEvents(project uuid.UUID) []EventItemView {
	events := []Event{}
	for id, e := range s.events {
		if s.ownsEvent(project, id) {
			events = append(events, e)
		}
	}
	sortEvents(events)

	out := make([]EventItemView, 0, len(events))
	for i := range events {
		out = append(out, s.eventItem(&events[i]))
	}
	return out
}

// ListTraces returns the active traces in scope ordered by creation time.
// Completed traces are never listed.
func (s *JournalService) ListTraces(project uuid.UUID) []TraceItemView {
	traces := []Trace{}
	for id, t := range s.traces {
		if t.Active() && s.ownsTrace(project, id) {
			traces = append(traces, t)
		}
	}
	sortTraces(traces)

	out := make([]TraceItemView, 0, len(traces))
	for i := range traces {
		out = append(out, s.traceItem(&traces[i]))
	}
	return out
}

func (s *JournalService) ViewEvent(id uuid.UUID) (EventView, bool) {
	e, ok := s.events[id]
	if !ok {
		return EventView{}, false
	}
	view := EventView{
		ID:        e.ID,
		Fields:    fieldViews(e.Fields),
		Tags:      append([]string{}, e.Tags...),
		BeganAt:   e.BeganAt,
		CreatedAt: e.CreatedAt,
	}
	if et, ok := s.eventTemplates[e.EventTemplateID]; ok {
		view.EventTemplate = ptr(et.Item(time.Time{}))
	}
	if t, ok := s.traces[e.TraceID]; ok {
		view.Trace = ptr(s.traceItem(&t))
	}
	return view, true
}

func (s *JournalService) ViewTrace(id uuid.UUID) (TraceView, bool) {
	t, ok := s.traces[id]
	if !ok {
		return TraceView{}, false
	}
	return s.traceView(&t), true
}

func (s *JournalService) traceView(t *Trace) TraceView {
	view := TraceView{
		ID:                      t.ID,
		Name:                    t.Name,
		Tags:                    []string{},
		Completion:              t.Completion,
		CreatedAt:               t.CreatedAt,
		OriginTraces:            make([]TraceItemView, 0, len(t.OriginTraceIDs)),
		SuggestedEventTemplates: []EventTemplateItemView{},
		OtherEventTemplates:     []EventTemplateItemView{},
	}

	var lastUsed time.Time
	lastTemplate := uuid.Nil
	if last, ok := latestEvent(s.eventsOfTrace(t.ID)); ok {
		view.LastEvent = ptr(s.eventItem(&last))
		lastUsed = last.CreatedAt
		lastTemplate = last.EventTemplateID
	}

	for _, originID := range t.OriginTraceIDs {
		if origin, ok := s.traces[originID]; ok {
			view.OriginTraces = append(view.OriginTraces, s.traceItem(&origin))
		} else {
			view.OriginTraces = append(view.OriginTraces, TraceItemView{ID: originID, Name: MissingTraceLabel})
		}
	}

	tt, ok := s.traceTemplates[t.TraceTemplateID]
	if !ok {
		s.logger.Warn("trace template not found", "trace", t.ID.String(), "trace_template", t.TraceTemplateID.String())
		return view
	}
	view.TraceTemplate = ptr(tt.Item(lastUsed))

	suggested, other := partitionEventTemplates(&tt, s.allEventTemplates(), tt.SuggestedEventTemplates(lastTemplate), lastTemplate)
	for i := range suggested {
		view.SuggestedEventTemplates = append(view.SuggestedEventTemplates, suggested[i].Item(lastUsed))
	}
	for i := range other {
		view.OtherEventTemplates = append(view.OtherEventTemplates, other[i].Item(lastUsed))
	}
	return view
}

func (s *JournalService) CreateEventBuilder(eventTemplateID uuid.UUID, trace TraceView) (*EventBuilder, error) {
	et, ok := s.eventTemplates[eventTemplateID]
	if !ok {
		return nil, &EventTemplateNotFoundError{ID: eventTemplateID}
	}
	return NewEventBuilder(&et, trace.Item(), s.idgen.New(), s.clock.Now()), nil
}

func (s *JournalService) CreateTraceBuilder(traceTemplateID uuid.UUID) (*TraceBuilder, error) {
	tt, ok := s.traceTemplates[traceTemplateID]
	if !ok {
		return nil, &TraceTemplateNotFoundError{ID: traceTemplateID}
	}
	return NewTraceBuilder(&tt, s.idgen.New(), s.clock.Now()), nil
}

// SaveEvent finalizes b and stores the resulting event. It panics if b has
// no selected trace.
func (s *JournalService) SaveEvent(b *EventBuilder) uuid.UUID {
	e := b.Build(s.idgen.New(), s.clock.Now())
	s.events[e.ID] = e
	s.logger.Info("event saved", "event", e.ID.String(), "trace", e.TraceID.String(), "fields", len(e.Fields))
	return e.ID
}

func (s *JournalService) SaveTrace(b *TraceBuilder) uuid.UUID {
	t := b.Build(s.idgen.New(), s.clock.Now())
	s.traces[t.ID] = t
	s.logger.Info("trace saved", "trace", t.ID.String(), "name", t.Name)
	return t.ID
}

func (s *JournalService) CompleteTrace(id uuid.UUID) {
	t, ok := s.traces[id]
	if !ok {
		s.logger.Debug("complete ignored for unknown trace", "trace", id.String())
		return
	}
	t.Completion = &TraceCompletion{CompletedAt: s.clock.Now()}
	s.traces[id] = t
	s.logger.Info("trace completed", "trace", id.String())
}

func (s *JournalService) traceItem(t *Trace) TraceItemView {
	if tt, ok := s.traceTemplates[t.TraceTemplateID]; ok {
		return traceItem(t, &tt)
	}
	return traceItem(t, nil)
}

func (s *JournalService) eventItem(e *Event) EventItemView {
	item := EventItemView{ID: e.ID, CreatedAt: e.CreatedAt}
	if et, ok := s.eventTemplates[e.EventTemplateID]; ok {
		item.EventTemplate = ptr(et.Item(time.Time{}))
	}
	if t, ok := s.traces[e.TraceID]; ok {
		item.TraceName = ptr(t.Name)
	}
	return item
}

func (s *JournalService) eventsOfTrace(traceID uuid.UUID) []Event {
	var out []Event
	for _, e := range s.events {
		if e.TraceID == traceID {
			out = append(out, e)
		}
	}
	return out
}

func (s *JournalService) allEventTemplates() []EventTemplate {
	out := make([]EventTemplate, 0, len(s.eventTemplates))
	for _, et := range s.eventTemplates {
		out = append(out, et)
	}
	return out
}

func sortEvents(events []Event) {
	slices.SortFunc(events, func(a, b Event) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return compareIDs(a.ID, b.ID)
	})
}

func sortTraces(traces []Trace) {
	slices.SortFunc(traces, func(a, b Trace) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return compareIDs(a.ID, b.ID)
	})
}

// Ownership is resolved through the reference chain on every call:
// event -> trace -> trace template -> project and
// event template -> trace template -> project.
// A nil project matches everything.

func (s *JournalService) ownsTraceTemplate(project, traceTemplateID uuid.UUID) bool {
	if project == uuid.Nil {
		return true
	}
	tt, ok := s.traceTemplates[traceTemplateID]
	return ok && tt.ProjectID == project
}

func (s *JournalService) ownsEventTemplate(project, eventTemplateID uuid.UUID) bool {
	if project == uuid.Nil {
		return true
	}
	et, ok := s.eventTemplates[eventTemplateID]
	return ok && s.ownsTraceTemplate(project, et.TraceTemplateID)
}

func (s *JournalService) ownsTrace(project, traceID uuid.UUID) bool {
	if project == uuid.Nil {
		return true
	}
	t, ok := s.traces[traceID]
	return ok && s.ownsTraceTemplate(project, t.TraceTemplateID)
}

func (s *JournalService) ownsEvent(project, eventID uuid.UUID) bool {
	if project == uuid.Nil {
		return true
	}
	e, ok := s.events[eventID]
	return ok && s.ownsTrace(project, e.TraceID)
}
