package journal

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

const (
	unnamedEventTemplate = "Unnamed Event Template"
	unnamedTraceTemplate = "Unnamed Trace Template"
)

// ImportDefinition reads the definition document at path (JSON, or YAML for
// .yaml/.yml files), validates it in full, then merges its templates by id
// and records a project named projectName. Any failure returns a
// *ParsingError and leaves the service unchanged.
func (s *JournalService) ImportDefinition(projectName, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return wrapParsingError("reading definition", err)
	}

	now := s.clock.Now()
	def, err := ParseDefinition(raw, isYAMLPath(path), now)
	if err != nil {
		return err
	}

	s.projects[def.ProjectID] = Project{ID: def.ProjectID, Name: projectName, CreatedAt: now}
	s.mergeDefinition(def)
	s.logger.Info("definition imported",
		"project", def.ProjectID.String(),
		"name", projectName,
		"event_templates", len(def.EventTemplates),
		"trace_templates", len(def.TraceTemplates))
	return nil
}

func isYAMLPath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// ParseDefinition decodes and validates a definition document. Templates
// are stamped with now as their creation time.
func ParseDefinition(raw []byte, isYAML bool, now time.Time) (ProjectDefinition, error) {
	var doc any
	if isYAML {
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return ProjectDefinition{}, wrapParsingError("decoding YAML definition", err)
		}
	} else {
		if err := json.Unmarshal(raw, &doc); err != nil {
			return ProjectDefinition{}, wrapParsingError("decoding JSON definition", err)
		}
	}
	p := definitionParser{now: now}
	return p.parse(normalize(doc))
}

// normalize converts YAML's map[any]any nodes into map[string]any so both
// formats share one walker.
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, child := range t {
			t[k] = normalize(child)
		}
		return t
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, child := range t {
			out[fmt.Sprint(k)] = normalize(child)
		}
		return out
	case []any:
		for i, child := range t {
			t[i] = normalize(child)
		}
		return t
	default:
		return v
	}
}

type definitionParser struct {
	now time.Time
}

func (p definitionParser) parse(doc any) (ProjectDefinition, error) {
	obj, err := asObject(doc, "definition")
	if err != nil {
		return ProjectDefinition{}, err
	}
	projectID, err := requiredUUID(obj, "project-uuid", "definition")
	if err != nil {
		return ProjectDefinition{}, err
	}
	if projectID == uuid.Nil {
		return ProjectDefinition{}, parsingErrorf("definition: field project-uuid must not be the nil UUID")
	}

	def := ProjectDefinition{
		ProjectID:      projectID,
		EventTemplates: []EventTemplate{},
		TraceTemplates: []TraceTemplate{},
	}

	if v, ok := obj["event-templates"]; ok {
		items, err := asArray(v, "event-templates")
		if err != nil {
			return ProjectDefinition{}, err
		}
		for i, item := range items {
			et, err := p.parseEventTemplate(item, fmt.Sprintf("event-templates[%d]", i))
			if err != nil {
				return ProjectDefinition{}, err
			}
			def.EventTemplates = append(def.EventTemplates, et)
		}
	}

	if v, ok := obj["trace-templates"]; ok {
		items, err := asArray(v, "trace-templates")
		if err != nil {
			return ProjectDefinition{}, err
		}
		for i, item := range items {
			tt, err := p.parseTraceTemplate(item, projectID, fmt.Sprintf("trace-templates[%d]", i))
			if err != nil {
				return ProjectDefinition{}, err
			}
			def.TraceTemplates = append(def.TraceTemplates, tt)
		}
	}
	return def, nil
}

func (p definitionParser) parseEventTemplate(v any, at string) (EventTemplate, error) {
	obj, err := asObject(v, at)
	if err != nil {
		return EventTemplate{}, err
	}
	id, err := requiredUUID(obj, "event-template-uuid", at)
	if err != nil {
		return EventTemplate{}, err
	}
	traceTemplateID, err := requiredUUID(obj, "trace-template-uuid", at)
	if err != nil {
		return EventTemplate{}, err
	}
	name, ok, err := optionalString(obj, "name", at)
	if err != nil {
		return EventTemplate{}, err
	}
	if !ok {
		name = unnamedEventTemplate
	}

	et := EventTemplate{
		ID:              id,
		TraceTemplateID: traceTemplateID,
		Name:            name,
		Fields:          []FieldTemplate{},
		DefaultTags:     []string{},
		CreatedAt:       p.now,
	}

	if v, ok := obj["fields"]; ok {
		items, err := asArray(v, at+".fields")
		if err != nil {
			return EventTemplate{}, err
		}
		for i, item := range items {
			f, err := parseFieldTemplate(item, fmt.Sprintf("%s.fields[%d]", at, i))
			if err != nil {
				return EventTemplate{}, err
			}
			et.Fields = append(et.Fields, f)
		}
	}

	if v, ok := obj["default-tags"]; ok {
		items, err := asArray(v, at+".default-tags")
		if err != nil {
			return EventTemplate{}, err
		}
		for i, item := range items {
			tag, ok := item.(string)
			if !ok {
				return EventTemplate{}, parsingErrorf("%s.default-tags[%d]: expected a string", at, i)
			}
			et.DefaultTags = append(et.DefaultTags, tag)
		}
	}
	return et, nil
}

func parseFieldTemplate(v any, at string) (FieldTemplate, error) {
	obj, err := asObject(v, at)
	if err != nil {
		return FieldTemplate{}, err
	}
	fieldType, ok, err := optionalString(obj, "type", at)
	if err != nil {
		return FieldTemplate{}, err
	}
	if !ok {
		return FieldTemplate{}, parsingErrorf("%s: field type is required", at)
	}
	label, ok, err := optionalString(obj, "label", at)
	if err != nil {
		return FieldTemplate{}, err
	}
	if !ok {
		return FieldTemplate{}, parsingErrorf("%s: field label is required", at)
	}
	name, ok, err := optionalString(obj, "name", at)
	if err != nil {
		return FieldTemplate{}, err
	}
	if !ok {
		name = nameFromLabel(label)
	}

	def, hasDefault := obj["default-value"]
	if def == nil {
		hasDefault = false
	}

	f := FieldTemplate{Name: name, Label: label}
	switch ValueKind(fieldType) {
	case KindNumber:
		t := NumberTemplate{}
		if hasDefault {
			n, ok := asNumber(def)
			if !ok {
				return FieldTemplate{}, parsingErrorf("%s: default-value must be a number", at)
			}
			t.Default = ptr(n)
		}
		f.Value = t
	case KindText:
		t := TextTemplate{}
		if hasDefault {
			s, ok := def.(string)
			if !ok {
				return FieldTemplate{}, parsingErrorf("%s: default-value must be a string", at)
			}
			t.Default = ptr(s)
		}
		f.Value = t
	case KindBoolean:
		t := BoolTemplate{}
		if hasDefault {
			b, ok := def.(bool)
			if !ok {
				return FieldTemplate{}, parsingErrorf("%s: default-value must be a boolean", at)
			}
			t.Default = ptr(b)
		}
		f.Value = t
	case KindEnumerated:
		t, err := parseEnumeratedTemplate(obj, def, hasDefault, at)
		if err != nil {
			return FieldTemplate{}, err
		}
		f.Value = t
	default:
		return FieldTemplate{}, parsingErrorf("%s: unknown field type %q", at, fieldType)
	}
	return f, nil
}

func parseEnumeratedTemplate(obj map[string]any, def any, hasDefault bool, at string) (EnumeratedTemplate, error) {
	raw, ok := obj["options"]
	if !ok {
		return EnumeratedTemplate{}, parsingErrorf("%s: options are required for Enumerated fields", at)
	}
	items, err := asArray(raw, at+".options")
	if err != nil {
		return EnumeratedTemplate{}, err
	}

	t := EnumeratedTemplate{Options: make([]EnumerationOption, 0, len(items))}
	for i, item := range items {
		optAt := fmt.Sprintf("%s.options[%d]", at, i)
		opt, err := asObject(item, optAt)
		if err != nil {
			return EnumeratedTemplate{}, err
		}
		label, ok, err := optionalString(opt, "label", optAt)
		if err != nil {
			return EnumeratedTemplate{}, err
		}
		if !ok {
			return EnumeratedTemplate{}, parsingErrorf("%s: option label is required", optAt)
		}
		name, ok, err := optionalString(opt, "name", optAt)
		if err != nil {
			return EnumeratedTemplate{}, err
		}
		if !ok {
			name = nameFromLabel(label)
		}
		t.Options = append(t.Options, EnumerationOption{Name: name, Label: label})
	}

	if hasDefault {
		s, ok := def.(string)
		if !ok {
			return EnumeratedTemplate{}, parsingErrorf("%s: default-value must be a string", at)
		}
		o, ok := findOption(t.Options, s)
		if !ok {
			return EnumeratedTemplate{}, parsingErrorf("%s: default value %q not found in options", at, s)
		}
		t.Default = &o
	}
	return t, nil
}

func (p definitionParser) parseTraceTemplate(v any, projectID uuid.UUID, at string) (TraceTemplate, error) {
	obj, err := asObject(v, at)
	if err != nil {
		return TraceTemplate{}, err
	}
	id, err := requiredUUID(obj, "trace-template-uuid", at)
	if err != nil {
		return TraceTemplate{}, err
	}
	name, ok, err := optionalString(obj, "name", at)
	if err != nil {
		return TraceTemplate{}, err
	}
	if !ok {
		name = unnamedTraceTemplate
	}

	tt := TraceTemplate{
		ID:        id,
		ProjectID: projectID,
		Name:      name,
		CreatedAt: p.now,
		Flow:      []TraceFlowEntry{},
	}

	if v, ok := obj["transitions"]; ok {
		items, err := asArray(v, at+".transitions")
		if err != nil {
			return TraceTemplate{}, err
		}
		for i, item := range items {
			entry, err := parseFlowEntry(item, fmt.Sprintf("%s.transitions[%d]", at, i))
			if err != nil {
				return TraceTemplate{}, err
			}
			tt.Flow = append(tt.Flow, entry)
		}
	}
	return tt, nil
}

func parseFlowEntry(v any, at string) (TraceFlowEntry, error) {
	obj, err := asObject(v, at)
	if err != nil {
		return TraceFlowEntry{}, err
	}
	from, err := requiredUUID(obj, "from", at)
	if err != nil {
		return TraceFlowEntry{}, err
	}
	raw, ok := obj["to"]
	if !ok {
		return TraceFlowEntry{}, parsingErrorf("%s: field to is required", at)
	}
	items, err := asArray(raw, at+".to")
	if err != nil {
		return TraceFlowEntry{}, err
	}
	entry := TraceFlowEntry{From: from, To: make([]uuid.UUID, 0, len(items))}
	for i, item := range items {
		s, ok := item.(string)
		if !ok {
			return TraceFlowEntry{}, parsingErrorf("%s.to[%d]: expected a string, found %v", at, i, item)
		}
		id, err := uuid.Parse(s)
		if err != nil {
			return TraceFlowEntry{}, parsingErrorf("%s.to[%d]: %v", at, i, err)
		}
		entry.To = append(entry.To, id)
	}
	return entry, nil
}

// nameFromLabel derives a field or option name: "Rise Time" -> "rise-time".
func nameFromLabel(label string) string {
	return strings.ToLower(strings.ReplaceAll(label, " ", "-"))
}

func asObject(v any, at string) (map[string]any, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, parsingErrorf("%s: expected an object", at)
	}
	return obj, nil
}

func asArray(v any, at string) ([]any, error) {
	items, ok := v.([]any)
	if !ok {
		return nil, parsingErrorf("%s: expected an array", at)
	}
	return items, nil
}

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, !math.IsNaN(n) && !math.IsInf(n, 0)
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

func optionalString(obj map[string]any, field, at string) (string, bool, error) {
	v, ok := obj[field]
	if !ok || v == nil {
		return "", false, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", false, parsingErrorf("%s: field %s must be a string", at, field)
	}
	return s, true, nil
}

func requiredUUID(obj map[string]any, field, at string) (uuid.UUID, error) {
	s, ok, err := optionalString(obj, field, at)
	if err != nil {
		return uuid.Nil, err
	}
	if !ok {
		return uuid.Nil, parsingErrorf("%s: field %s is required", at, field)
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, parsingErrorf("%s: failed to parse UUID in field %s: %v", at, field, err)
	}
	return id, nil
}
