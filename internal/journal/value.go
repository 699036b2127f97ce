package journal

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// ValueKind names one of the four field value variants.
type ValueKind string

const (
	KindNumber     ValueKind = "Number"
	KindText       ValueKind = "Text"
	KindBoolean    ValueKind = "Boolean"
	KindEnumerated ValueKind = "Enumerated"
)

// EnumerationOption is one choice of an enumerated field. Name is the stable
// key, Label is what users see. Names are assumed unique within one field.
type EnumerationOption struct {
	Name  string `json:"name"`
	Label string `json:"label"`
}

// FieldValue is the concrete value held by a field: exactly one of
// NumberValue, TextValue, BoolValue or EnumeratedValue.
type FieldValue interface {
	Kind() ValueKind
	String() string
	isFieldValue()
}

type NumberValue float64

type TextValue string

type BoolValue bool

type EnumeratedValue EnumerationOption

func (NumberValue) Kind() ValueKind     { return KindNumber }
func (TextValue) Kind() ValueKind       { return KindText }
func (BoolValue) Kind() ValueKind       { return KindBoolean }
func (EnumeratedValue) Kind() ValueKind { return KindEnumerated }

func (v NumberValue) String() string     { return strconv.FormatFloat(float64(v), 'g', -1, 64) }
func (v TextValue) String() string       { return string(v) }
func (v BoolValue) String() string       { return strconv.FormatBool(bool(v)) }
func (v EnumeratedValue) String() string { return v.Label }

func (NumberValue) isFieldValue()     {}
func (TextValue) isFieldValue()       {}
func (BoolValue) isFieldValue()       {}
func (EnumeratedValue) isFieldValue() {}

// Option returns the enumeration option carried by the value.
func (v EnumeratedValue) Option() EnumerationOption { return EnumerationOption(v) }

// marshalFieldValue encodes a value externally tagged by its kind,
// e.g. {"Number": 1.5} or {"Enumerated": {"name": "a", "label": "A"}}.
func marshalFieldValue(v FieldValue) ([]byte, error) {
	return json.Marshal(map[ValueKind]FieldValue{v.Kind(): v})
}

func unmarshalFieldValue(data []byte) (FieldValue, error) {
	var tagged map[ValueKind]json.RawMessage
	if err := json.Unmarshal(data, &tagged); err != nil {
		return nil, fmt.Errorf("decoding field value: %w", err)
	}
	if len(tagged) != 1 {
		return nil, fmt.Errorf("field value must have exactly one kind, got %d", len(tagged))
	}
	for kind, raw := range tagged {
		switch kind {
		case KindNumber:
			var n float64
			if err := json.Unmarshal(raw, &n); err != nil {
				return nil, fmt.Errorf("decoding number value: %w", err)
			}
			return NumberValue(n), nil
		case KindText:
			var s string
			if err := json.Unmarshal(raw, &s); err != nil {
				return nil, fmt.Errorf("decoding text value: %w", err)
			}
			return TextValue(s), nil
		case KindBoolean:
			var b bool
			if err := json.Unmarshal(raw, &b); err != nil {
				return nil, fmt.Errorf("decoding boolean value: %w", err)
			}
			return BoolValue(b), nil
		case KindEnumerated:
			var o EnumerationOption
			if err := json.Unmarshal(raw, &o); err != nil {
				return nil, fmt.Errorf("decoding enumerated value: %w", err)
			}
			return EnumeratedValue(o), nil
		default:
			return nil, fmt.Errorf("unknown field value kind: %s", kind)
		}
	}
	return nil, nil
}

// Field is one persisted field of an event.
type Field struct {
	Name  string
	Label string
	Value FieldValue // nil when the field holds no value
}

type fieldJSON struct {
	Name  string          `json:"name"`
	Label string          `json:"label"`
	Value json.RawMessage `json:"value,omitempty"`
}

func (f Field) MarshalJSON() ([]byte, error) {
	doc := fieldJSON{Name: f.Name, Label: f.Label}
	if f.Value != nil {
		raw, err := marshalFieldValue(f.Value)
		if err != nil {
			return nil, err
		}
		doc.Value = raw
	}
	return json.Marshal(doc)
}

func (f *Field) UnmarshalJSON(data []byte) error {
	var doc fieldJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	f.Name = doc.Name
	f.Label = doc.Label
	f.Value = nil
	if len(doc.Value) == 0 || string(doc.Value) == "null" {
		return nil
	}
	v, err := unmarshalFieldValue(doc.Value)
	if err != nil {
		return fmt.Errorf("field %q: %w", doc.Name, err)
	}
	f.Value = v
	return nil
}

func ptr[T any](v T) *T { return &v }

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
