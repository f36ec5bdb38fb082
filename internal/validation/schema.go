package validation

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrInvalidSchema marks a schema definition that can never validate correctly.
// It is a programming error in the caller, not a user input problem.
var ErrInvalidSchema = errors.New("validation: invalid schema")

// Field declares how one input key is coerced and checked.
type Field struct {
	Name            string
	Type            FieldType
	Required        bool
	RequiredMessage string
	// TypeMessage is reported when the raw value cannot be coerced to Type.
	TypeMessage string
	Rules       []Rule
}

// Schema is an ordered, immutable set of fields for one form kind.
type Schema struct {
	name   string
	fields []Field
	index  map[string]int
}

// NewSchema checks the field declarations and freezes them into a Schema.
func NewSchema(name string, fields ...Field) (*Schema, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: schema name is required", ErrInvalidSchema)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: %s: no fields declared", ErrInvalidSchema, name)
	}

	s := &Schema{
		name:   name,
		fields: make([]Field, 0, len(fields)),
		index:  make(map[string]int, len(fields)),
	}
	for _, f := range fields {
		if err := checkField(f); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidSchema, name, err)
		}
		if _, dup := s.index[f.Name]; dup {
			return nil, fmt.Errorf("%w: %s: field %q declared twice", ErrInvalidSchema, name, f.Name)
		}
		s.index[f.Name] = len(s.fields)
		s.fields = append(s.fields, withDefaults(f))
	}
	return s, nil
}

// MustSchema is NewSchema for package-level declarations; it panics on a bad definition.
func MustSchema(name string, fields ...Field) *Schema {
	s, err := NewSchema(name, fields...)
	if err != nil {
		panic(err)
	}
	return s
}

// Name returns the form kind this schema validates.
func (s *Schema) Name() string { return s.name }

// Fields returns a copy of the declared fields in order.
func (s *Schema) Fields() []Field {
	out := make([]Field, len(s.fields))
	for i, f := range s.fields {
		out[i] = cloneField(f)
	}
	return out
}

// Field looks up a declared field by name.
func (s *Schema) Field(name string) (Field, bool) {
	i, ok := s.index[name]
	if !ok {
		return Field{}, false
	}
	return cloneField(s.fields[i]), true
}

func checkField(f Field) error {
	if strings.TrimSpace(f.Name) == "" {
		return errors.New("field name is required")
	}
	if f.Type != TypeString && f.Type != TypeNumber {
		return fmt.Errorf("field %q: unknown type %s", f.Name, f.Type)
	}

	minLen, maxLen := -1, -1
	for _, r := range f.Rules {
		if !r.appliesTo(f.Type) {
			return fmt.Errorf("field %q: rule %q does not apply to %s fields", f.Name, r.Kind, f.Type)
		}
		switch r.Kind {
		case KindMinLength:
			if r.Length < 0 {
				return fmt.Errorf("field %q: negative minLength", f.Name)
			}
			minLen = r.Length
		case KindMaxLength:
			if r.Length < 0 {
				return fmt.Errorf("field %q: negative maxLength", f.Name)
			}
			maxLen = r.Length
		case KindEmail, KindPattern:
			if r.Pattern == nil {
				return fmt.Errorf("field %q: %s rule without a pattern", f.Name, r.Kind)
			}
		case KindOneOf:
			if len(r.Values) == 0 {
				return fmt.Errorf("field %q: oneOf rule without values", f.Name)
			}
		}
	}
	if minLen >= 0 && maxLen >= 0 && minLen > maxLen {
		return fmt.Errorf("field %q: minLength %d exceeds maxLength %d", f.Name, minLen, maxLen)
	}
	return nil
}

func withDefaults(f Field) Field {
	out := cloneField(f)
	if out.RequiredMessage == "" {
		out.RequiredMessage = fmt.Sprintf("%q is required", f.Name)
	}
	if out.TypeMessage == "" {
		out.TypeMessage = fmt.Sprintf("%q must be a %s", f.Name, f.Type)
	}
	for i := range out.Rules {
		if out.Rules[i].Message == "" {
			out.Rules[i].Message = out.Rules[i].defaultMessage(f.Name)
		}
	}
	return out
}

func cloneField(f Field) Field {
	out := f
	out.Rules = make([]Rule, len(f.Rules))
	for i, r := range f.Rules {
		r.Values = slices.Clone(r.Values)
		out.Rules[i] = r
	}
	return out
}
