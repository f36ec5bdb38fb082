package validation

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FieldError is one violated rule on one field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Errors is an ordered list of field errors usable as an error value.
type Errors []FieldError

func (e Errors) Error() string {
	switch len(e) {
	case 0:
		return "validation failed"
	case 1:
		return fmt.Sprintf("validation failed: %s: %s", e[0].Field, e[0].Message)
	default:
		return fmt.Sprintf("validation failed: %d errors", len(e))
	}
}

// Result is the outcome of validating one submission. Exactly one of Value and
// Errors is populated.
type Result struct {
	Valid  bool           `json:"isValid"`
	Value  map[string]any `json:"value"`
	Errors []FieldError   `json:"errors"`
}

// Err returns nil for a valid result and the error list otherwise.
func (r Result) Err() error {
	if r.Valid {
		return nil
	}
	return Errors(r.Errors)
}

// ErrorsFor returns the errors reported against one field.
func (r Result) ErrorsFor(field string) []FieldError {
	var out []FieldError
	for _, e := range r.Errors {
		if e.Field == field {
			out = append(out, e)
		}
	}
	return out
}

// maxSafeInteger bounds the integers a float64 represents exactly.
const maxSafeInteger = 1<<53 - 1

// Validate checks input against every field of schema and collects all failures.
// Keys not declared in the schema never reach the sanitized value.
func Validate(schema *Schema, input map[string]any) Result {
	value := make(map[string]any, len(schema.fields))
	var errs []FieldError

	for _, f := range schema.fields {
		raw, present := input[f.Name]
		v, empty, ok := coerce(f.Type, raw, present)
		if empty {
			if f.Required {
				errs = append(errs, FieldError{Field: f.Name, Message: f.RequiredMessage})
			}
			continue
		}
		if !ok {
			errs = append(errs, FieldError{Field: f.Name, Message: f.TypeMessage})
			continue
		}
		if n, isNumber := v.(float64); isNumber && math.Abs(n) > maxSafeInteger {
			errs = append(errs, FieldError{Field: f.Name, Message: fmt.Sprintf("%q must be a safe number", f.Name)})
			continue
		}

		failed := false
		for _, rule := range f.Rules {
			if !rule.check(v) {
				errs = append(errs, FieldError{Field: f.Name, Message: rule.Message})
				failed = true
			}
		}
		if !failed {
			value[f.Name] = output(f, v)
		}
	}

	if len(errs) > 0 {
		return Result{Valid: false, Errors: errs}
	}
	return Result{Valid: true, Value: value}
}

// coerce trims strings and parses numbers. empty reports a value that counts as
// "not provided"; ok is false when raw has the wrong type.
func coerce(t FieldType, raw any, present bool) (v any, empty bool, ok bool) {
	if !present || raw == nil {
		return nil, true, true
	}

	if s, isString := raw.(string); isString {
		s = strings.TrimSpace(s)
		if s == "" {
			return nil, true, true
		}
		if t == TypeString {
			return s, false, true
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
			return nil, false, false
		}
		return n, false, true
	}

	if t == TypeString {
		return nil, false, false
	}
	n, isNumber := toFloat(raw)
	if !isNumber || math.IsNaN(n) || math.IsInf(n, 0) {
		return nil, false, false
	}
	return n, false, true
}

func toFloat(raw any) (float64, bool) {
	switch n := raw.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// output converts a checked value to its sanitized form. Integer fields are
// emitted as int64 so they round-trip through JSON without a fraction.
func output(f Field, v any) any {
	n, isNumber := v.(float64)
	if !isNumber {
		return v
	}
	for _, r := range f.Rules {
		if r.Kind == KindInteger {
			return int64(n)
		}
	}
	return n
}
