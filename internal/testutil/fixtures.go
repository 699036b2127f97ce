package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
)

// IDs used by SampleDefinitionJSON and SampleDefinitionYAML.
var (
	SampleProjectID       = uuid.MustParse("11111111-1111-4111-8111-111111111111")
	SampleTraceTemplateID = uuid.MustParse("22222222-2222-4222-8222-222222222222")
	SampleMeasureID       = uuid.MustParse("33333333-3333-4333-8333-333333333333")
	SampleReviewID        = uuid.MustParse("44444444-4444-4444-8444-444444444444")
)

// SampleDefinitionJSON declares one trace template whose flow goes from the
// Measure event template to the Review event template. Measure carries one
// field of each kind.
const SampleDefinitionJSON = `{
  "project-uuid": "11111111-1111-4111-8111-111111111111",
  "event-templates": [
    {
      "event-template-uuid": "33333333-3333-4333-8333-333333333333",
      "trace-template-uuid": "22222222-2222-4222-8222-222222222222",
      "name": "Measure",
      "default-tags": ["lab"],
      "fields": [
        {"type": "Number", "label": "Rise Time", "default-value": 1.5},
        {"type": "Text", "label": "Notes", "name": "notes"},
        {"type": "Boolean", "label": "Passed", "default-value": true},
        {
          "type": "Enumerated",
          "label": "Quality",
          "options": [{"label": "Good"}, {"label": "Needs Rework", "name": "rework"}],
          "default-value": "Good"
        }
      ]
    },
    {
      "event-template-uuid": "44444444-4444-4444-8444-444444444444",
      "trace-template-uuid": "22222222-2222-4222-8222-222222222222",
      "name": "Review",
      "fields": []
    }
  ],
  "trace-templates": [
    {
      "trace-template-uuid": "22222222-2222-4222-8222-222222222222",
      "name": "Batch",
      "transitions": [
        {
          "from": "33333333-3333-4333-8333-333333333333",
          "to": ["44444444-4444-4444-8444-444444444444"]
        }
      ]
    }
  ]
}
`

// SampleDefinitionYAML is SampleDefinitionJSON written as YAML.
const SampleDefinitionYAML = `project-uuid: 11111111-1111-4111-8111-111111111111
event-templates:
  - event-template-uuid: 33333333-3333-4333-8333-333333333333
    trace-template-uuid: 22222222-2222-4222-8222-222222222222
    name: Measure
    default-tags: [lab]
    fields:
      - type: Number
        label: Rise Time
        default-value: 1.5
      - type: Text
        label: Notes
        name: notes
      - type: Boolean
        label: Passed
        default-value: true
      - type: Enumerated
        label: Quality
        options:
          - label: Good
          - label: Needs Rework
            name: rework
        default-value: Good
  - event-template-uuid: 44444444-4444-4444-8444-444444444444
    trace-template-uuid: 22222222-2222-4222-8222-222222222222
    name: Review
    fields: []
trace-templates:
  - trace-template-uuid: 22222222-2222-4222-8222-222222222222
    name: Batch
    transitions:
      - from: 33333333-3333-4333-8333-333333333333
        to: [44444444-4444-4444-8444-444444444444]
`

// WriteFile writes content to name inside a fresh temporary directory and
// returns the full path.
func WriteFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
	return path
}
