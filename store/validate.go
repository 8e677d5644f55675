package store

import (
	"fmt"
	"strings"
	"time"

	"github.com/MbazzaTZ/GOnSales/errors"
)

// FieldError represents a validation error for a specific record field.
//
// Error codes are standardized for dashboard form mapping:
//   - "required": field is required but missing
//   - "type":     value doesn't match the declared field type
//   - "length":   string length outside min/max bounds
//   - "range":    numeric value outside min/max bounds
//   - "pattern":  string doesn't match the required pattern
//   - "enum":     value not in the allowed set
//   - "rule":     a per-store business rule rejected the record
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Result is the outcome of validating a record against a store's schema and
// business rules. Errors are ordered: schema declaration order first, then
// business rules in registration order.
type Result struct {
	Valid  bool
	Errors []FieldError
}

// Messages returns the human-readable error messages in order.
func (r Result) Messages() []string {
	out := make([]string, len(r.Errors))
	for i, fe := range r.Errors {
		out[i] = fe.Message
	}
	return out
}

// Err converts a failed result into a classified validation error whose
// message joins every failure. Returns nil for a valid result.
func (r Result) Err() error {
	if r.Valid {
		return nil
	}
	return errors.WrapInvalid(errors.ErrValidation, "store", "Validate",
		strings.Join(r.Messages(), "; "))
}

// BusinessRule checks a cross-field invariant against a fully assembled
// record. Rules run after all field-level checks, so a rule can read
// sibling fields freely. A non-nil error rejects the record.
type BusinessRule func(record Record) error

// validateRecord runs the validation engine: per field (required, type,
// length, range, pattern, enum) short-circuiting to the next field on the
// first failure within a field, then business rules against the assembled
// record. It never panics and never stops at the first failing field.
func validateRecord(schema Schema, rules []BusinessRule, record Record) Result {
	var fieldErrors []FieldError

	for _, field := range schema.fields {
		if fe := validateField(field, record); fe != nil {
			fieldErrors = append(fieldErrors, *fe)
		}
	}

	for _, rule := range rules {
		if err := rule(record); err != nil {
			fieldErrors = append(fieldErrors, FieldError{
				Message: err.Error(),
				Code:    "rule",
			})
		}
	}

	return Result{Valid: len(fieldErrors) == 0, Errors: fieldErrors}
}

// validateField checks one field, returning the first failure or nil.
func validateField(field Field, record Record) *FieldError {
	name, rule := field.Name, field.Rule

	value, present := record[name]
	if !present || value == nil || value == "" {
		if rule.Required {
			return &FieldError{
				Field:   name,
				Message: fmt.Sprintf("%s is required", name),
				Code:    "required",
			}
		}
		return nil // absent optional field: nothing more to check
	}

	switch rule.Type {
	case FieldString:
		str, ok := value.(string)
		if !ok {
			return &FieldError{
				Field:   name,
				Message: fmt.Sprintf("%s must be a string", name),
				Code:    "type",
			}
		}
		if rule.MinLength > 0 && len(str) < rule.MinLength {
			return &FieldError{
				Field:   name,
				Message: fmt.Sprintf("%s must be at least %d characters", name, rule.MinLength),
				Code:    "length",
			}
		}
		if rule.MaxLength > 0 && len(str) > rule.MaxLength {
			return &FieldError{
				Field:   name,
				Message: fmt.Sprintf("%s must be at most %d characters", name, rule.MaxLength),
				Code:    "length",
			}
		}
		if rule.Pattern != nil && !rule.Pattern.MatchString(str) {
			return &FieldError{
				Field:   name,
				Message: fmt.Sprintf("%s has an invalid format", name),
				Code:    "pattern",
			}
		}
		if len(rule.Enum) > 0 {
			for _, allowed := range rule.Enum {
				if str == allowed {
					return nil
				}
			}
			return &FieldError{
				Field:   name,
				Message: fmt.Sprintf("%s must be one of: %s", name, strings.Join(rule.Enum, ", ")),
				Code:    "enum",
			}
		}

	case FieldNumber:
		num, ok := numberValue(value)
		if !ok {
			return &FieldError{
				Field:   name,
				Message: fmt.Sprintf("%s must be a number", name),
				Code:    "type",
			}
		}
		// Bounds are inclusive.
		if rule.Min != nil && num < *rule.Min {
			return &FieldError{
				Field:   name,
				Message: fmt.Sprintf("%s must be >= %v", name, *rule.Min),
				Code:    "range",
			}
		}
		if rule.Max != nil && num > *rule.Max {
			return &FieldError{
				Field:   name,
				Message: fmt.Sprintf("%s must be <= %v", name, *rule.Max),
				Code:    "range",
			}
		}

	case FieldDate:
		if !isDateValue(value) {
			return &FieldError{
				Field:   name,
				Message: fmt.Sprintf("%s must be a date", name),
				Code:    "type",
			}
		}
	}

	return nil
}

// isDateValue accepts time.Time or a string in RFC 3339 or YYYY-MM-DD form.
func isDateValue(value any) bool {
	switch v := value.(type) {
	case time.Time:
		return true
	case string:
		if _, err := time.Parse(time.RFC3339, v); err == nil {
			return true
		}
		if _, err := time.Parse("2006-01-02", v); err == nil {
			return true
		}
	}
	return false
}
