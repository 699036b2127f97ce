package journal

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ValueSuggestion is the editable state of one field in an EventBuilder:
// exactly one of *NumberSuggestion, *TextSuggestion, *BoolSuggestion or
// *EnumeratedSuggestion. Callers mutate it through the variant's methods.
type ValueSuggestion interface {
	Kind() ValueKind

	// Resolve returns the current value, or nil when none is selected.
	Resolve() FieldValue

	// Clear removes the current value.
	Clear()

	// Reset restores the template default.
	Reset()

	// SetString parses s according to the variant and makes it the current value.
	SetString(s string) error
}

// NumberSuggestion holds the draft value of a Number field.
type NumberSuggestion struct {
	Value      *float64
	LastValues []float64
	Default    *float64
}

func (s *NumberSuggestion) Kind() ValueKind { return KindNumber }

func (s *NumberSuggestion) Set(v float64) { s.Value = &v }

func (s *NumberSuggestion) Clear() { s.Value = nil }

func (s *NumberSuggestion) Reset() { s.Value = clonePtr(s.Default) }

func (s *NumberSuggestion) SetString(raw string) error {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return fmt.Errorf("expected a number, got %q", raw)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("expected a finite number, got %q", raw)
	}
	s.Set(v)
	return nil
}

// Resolve drops non-finite values; they cannot be persisted.
func (s *NumberSuggestion) Resolve() FieldValue {
	if s.Value == nil || math.IsNaN(*s.Value) || math.IsInf(*s.Value, 0) {
		return nil
	}
	return NumberValue(*s.Value)
}

// TextSuggestion holds the draft value of a Text field.
type TextSuggestion struct {
	Value      *string
	LastValues []string
	Default    *string
}

func (s *TextSuggestion) Kind() ValueKind { return KindText }

func (s *TextSuggestion) Set(v string) { s.Value = &v }

func (s *TextSuggestion) Clear() { s.Value = nil }

func (s *TextSuggestion) Reset() { s.Value = clonePtr(s.Default) }

func (s *TextSuggestion) SetString(raw string) error {
	s.Set(raw)
	return nil
}

func (s *TextSuggestion) Resolve() FieldValue {
	if s.Value == nil {
		return nil
	}
	return TextValue(*s.Value)
}

// BoolSuggestion holds the draft value of a Boolean field.
type BoolSuggestion struct {
	Value      *bool
	LastValues []bool
	Default    *bool
}

func (s *BoolSuggestion) Kind() ValueKind { return KindBoolean }

func (s *BoolSuggestion) Set(v bool) { s.Value = &v }

func (s *BoolSuggestion) Clear() { s.Value = nil }

func (s *BoolSuggestion) Reset() { s.Value = clonePtr(s.Default) }

func (s *BoolSuggestion) SetString(raw string) error {
	v, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("expected a boolean, got %q", raw)
	}
	s.Set(v)
	return nil
}

func (s *BoolSuggestion) Resolve() FieldValue {
	if s.Value == nil {
		return nil
	}
	return BoolValue(*s.Value)
}

// EnumeratedSuggestion holds the draft selection of an Enumerated field.
type EnumeratedSuggestion struct {
	Selected   *EnumerationOption
	LastValues []EnumerationOption
	Options    []EnumerationOption
	Default    *EnumerationOption
}

func (s *EnumeratedSuggestion) Kind() ValueKind { return KindEnumerated }

// Select picks the option whose name or label equals nameOrLabel.
func (s *EnumeratedSuggestion) Select(nameOrLabel string) error {
	o, ok := findOption(s.Options, nameOrLabel)
	if !ok {
		return fmt.Errorf("%q is not one of the options", nameOrLabel)
	}
	s.Selected = &o
	return nil
}

func (s *EnumeratedSuggestion) Clear() { s.Selected = nil }

func (s *EnumeratedSuggestion) Reset() { s.Selected = clonePtr(s.Default) }

func (s *EnumeratedSuggestion) SetString(raw string) error {
	return s.Select(strings.TrimSpace(raw))
}

func (s *EnumeratedSuggestion) Resolve() FieldValue {
	if s.Selected == nil {
		return nil
	}
	return EnumeratedValue(*s.Selected)
}

func findOption(options []EnumerationOption, nameOrLabel string) (EnumerationOption, bool) {
	for _, o := range options {
		if o.Name == nameOrLabel || o.Label == nameOrLabel {
			return o, true
		}
	}
	return EnumerationOption{}, false
}

// FieldSuggestion is one field of an EventBuilder.
type FieldSuggestion struct {
	Name  string
	Label string
	Value ValueSuggestion
}

// Build converts the suggestion into a persisted Field. It reports false
// when no value is selected; such fields are dropped rather than stored empty.
func (f FieldSuggestion) Build() (Field, bool) {
	v := f.Value.Resolve()
	if v == nil {
		return Field{}, false
	}
	return Field{Name: f.Name, Label: f.Label, Value: v}, true
}
