package journal

import (
	"bytes"
	"cmp"
	"slices"

	"github.com/google/uuid"
)

func compareIDs(a, b uuid.UUID) int {
	return bytes.Compare(a[:], b[:])
}

// CurrentEventTemplate returns the event template a trace is positioned on.
// last is the template of the trace's most recent event, or uuid.Nil when
// the trace has no events; in that case the first flow entry's From is used.
// It returns uuid.Nil when neither exists.
func (t *TraceTemplate) CurrentEventTemplate(last uuid.UUID) uuid.UUID {
	if last != uuid.Nil {
		return last
	}
	if len(t.Flow) > 0 {
		return t.Flow[0].From
	}
	return uuid.Nil
}

// SuggestedEventTemplates returns the union of the To sets of every flow
// entry whose From is the current event template.
func (t *TraceTemplate) SuggestedEventTemplates(last uuid.UUID) map[uuid.UUID]struct{} {
	suggested := map[uuid.UUID]struct{}{}
	current := t.CurrentEventTemplate(last)
	if current == uuid.Nil {
		return suggested
	}
	for _, entry := range t.Flow {
		if entry.From != current {
			continue
		}
		for _, to := range entry.To {
			suggested[to] = struct{}{}
		}
	}
	return suggested
}

// latestEvent returns the event with the greatest CreatedAt. Events with an
// identical CreatedAt are ordered by id and the highest id wins.
func latestEvent(events []Event) (Event, bool) {
	if len(events) == 0 {
		return Event{}, false
	}
	return slices.MaxFunc(events, func(a, b Event) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return compareIDs(a.ID, b.ID)
	}), true
}

// partitionEventTemplates splits the event templates of tt into those in
// suggested and the rest. last is the template of the trace's latest event;
// it is left out of the rest since it was just used, and only reappears when
// the flow suggests it again. Templates of any other trace template are
// ignored, whether or not suggested references them. Both results are
// ordered by name, then id.
func partitionEventTemplates(tt *TraceTemplate, templates []EventTemplate, suggested map[uuid.UUID]struct{}, last uuid.UUID) (in, out []EventTemplate) {
	in, out = []EventTemplate{}, []EventTemplate{}
	for _, et := range templates {
		if et.TraceTemplateID != tt.ID {
			continue
		}
		if _, ok := suggested[et.ID]; ok {
			in = append(in, et)
		} else if et.ID != last {
			out = append(out, et)
		}
	}
	byName := func(a, b EventTemplate) int {
		if c := cmp.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return compareIDs(a.ID, b.ID)
	}
	slices.SortFunc(in, byName)
	slices.SortFunc(out, byName)
	return in, out
}
