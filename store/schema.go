// Package store provides the named, schema-validated record collections at
// the heart of the GOnSales data layer, together with the validation engine
// and the CRUD coordinator that keeps collections, cache, and remote state
// consistent.
package store

import (
	"fmt"
	"regexp"
)

// FieldType is the closed set of value types a schema field can declare.
// Validation dispatches on it with an exhaustive switch, not string
// comparison against open-ended tags.
type FieldType int

const (
	// FieldString validates string values with optional length and pattern rules.
	FieldString FieldType = iota
	// FieldNumber validates numeric values with optional range rules.
	FieldNumber
	// FieldDate validates time.Time values or RFC 3339 / YYYY-MM-DD strings.
	FieldDate
)

// String returns the string representation of the field type.
func (ft FieldType) String() string {
	switch ft {
	case FieldString:
		return "string"
	case FieldNumber:
		return "number"
	case FieldDate:
		return "date"
	default:
		return "unknown"
	}
}

// FieldRule declares the constraints for one schema field. Rules are fixed
// at store registration time; the Schema never exposes them mutably.
type FieldRule struct {
	Type     FieldType
	Required bool

	// String constraints (inclusive bounds). Zero values disable a bound.
	MinLength int
	MaxLength int
	Pattern   *regexp.Regexp

	// Numeric constraints (inclusive bounds). Nil disables a bound.
	Min *float64
	Max *float64

	// Enum restricts string values to a fixed set.
	Enum []string
}

// Field couples a name to its rule, preserving declaration order so
// validation reports errors in a stable, human-meaningful sequence.
type Field struct {
	Name string
	Rule FieldRule
}

// Schema is an ordered, immutable set of field rules.
type Schema struct {
	fields []Field
	index  map[string]int
}

// NewSchema builds a schema from fields in declaration order.
// Duplicate field names panic: schemas are static program data and a
// duplicate is a programming error, not an input error.
func NewSchema(fields ...Field) Schema {
	index := make(map[string]int, len(fields))
	for i, field := range fields {
		if _, exists := index[field.Name]; exists {
			panic(fmt.Sprintf("store: duplicate schema field %q", field.Name))
		}
		index[field.Name] = i
	}
	return Schema{fields: fields, index: index}
}

// Fields returns the schema fields in declaration order.
// The returned slice is a copy; the schema itself is immutable.
func (s Schema) Fields() []Field {
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// Rule returns the rule for a named field.
func (s Schema) Rule(name string) (FieldRule, bool) {
	i, ok := s.index[name]
	if !ok {
		return FieldRule{}, false
	}
	return s.fields[i].Rule, true
}

// Len returns the number of declared fields.
func (s Schema) Len() int {
	return len(s.fields)
}

// Relationship declares that a field references a field in another store,
// e.g. salesLog.dsrId → dsr.dsrId. Relationships are descriptive metadata
// consumed by dashboard callers; the data layer does not enforce them.
type Relationship struct {
	Field       string
	TargetStore string
	TargetField string
}

// Float returns a pointer to v, for use in FieldRule bounds.
func Float(v float64) *float64 {
	return &v
}
