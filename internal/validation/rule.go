package validation

import (
	"fmt"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"
)

// FieldType is the primitive type a field is coerced to before its rules run.
type FieldType int

const (
	TypeString FieldType = iota
	TypeNumber
)

func (t FieldType) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeNumber:
		return "number"
	default:
		return fmt.Sprintf("FieldType(%d)", int(t))
	}
}

// RuleKind tags the variant held by a Rule.
type RuleKind string

const (
	KindMinLength RuleKind = "minLength"
	KindMaxLength RuleKind = "maxLength"
	KindEmail     RuleKind = "email"
	KindPattern   RuleKind = "pattern"
	KindInteger   RuleKind = "integer"
	KindMin       RuleKind = "min"
	KindMax       RuleKind = "max"
	KindOneOf     RuleKind = "oneOf"
)

// emailPattern accepts the usual local@domain.tld shape.
var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Rule is a single constraint on a field. Only the members relevant to Kind are set.
type Rule struct {
	Kind    RuleKind
	Length  int
	Bound   float64
	Pattern *regexp.Regexp
	Values  []string
	Message string
}

// MinLength requires at least n code points.
func MinLength(n int, message string) Rule {
	return Rule{Kind: KindMinLength, Length: n, Message: message}
}

// MaxLength allows at most n code points.
func MaxLength(n int, message string) Rule {
	return Rule{Kind: KindMaxLength, Length: n, Message: message}
}

// Email requires a local@domain.tld shaped address.
func Email(message string) Rule {
	return Rule{Kind: KindEmail, Pattern: emailPattern, Message: message}
}

// Pattern requires the whole value to satisfy re.
func Pattern(re *regexp.Regexp, message string) Rule {
	return Rule{Kind: KindPattern, Pattern: re, Message: message}
}

// Integer rejects numbers with a fractional part.
func Integer(message string) Rule {
	return Rule{Kind: KindInteger, Message: message}
}

// Min sets an inclusive lower bound on a number.
func Min(bound float64, message string) Rule {
	return Rule{Kind: KindMin, Bound: bound, Message: message}
}

// Max sets an inclusive upper bound on a number.
func Max(bound float64, message string) Rule {
	return Rule{Kind: KindMax, Bound: bound, Message: message}
}

// OneOf restricts a string to a fixed literal set.
func OneOf(values []string, message string) Rule {
	return Rule{Kind: KindOneOf, Values: slices.Clone(values), Message: message}
}

func (r Rule) appliesTo(t FieldType) bool {
	switch r.Kind {
	case KindMinLength, KindMaxLength, KindEmail, KindPattern, KindOneOf:
		return t == TypeString
	case KindInteger, KindMin, KindMax:
		return t == TypeNumber
	default:
		return false
	}
}

// defaultMessage mirrors the wording callers see when a schema leaves Message empty.
func (r Rule) defaultMessage(field string) string {
	switch r.Kind {
	case KindMinLength:
		return fmt.Sprintf("%q length must be at least %d characters long", field, r.Length)
	case KindMaxLength:
		return fmt.Sprintf("%q length must be less than or equal to %d characters long", field, r.Length)
	case KindEmail:
		return fmt.Sprintf("%q must be a valid email", field)
	case KindPattern:
		return fmt.Sprintf("%q fails to match the required pattern", field)
	case KindInteger:
		return fmt.Sprintf("%q must be an integer", field)
	case KindMin:
		return fmt.Sprintf("%q must be greater than or equal to %s", field, formatBound(r.Bound))
	case KindMax:
		return fmt.Sprintf("%q must be less than or equal to %s", field, formatBound(r.Bound))
	case KindOneOf:
		return fmt.Sprintf("%q must be one of [%s]", field, strings.Join(r.Values, ", "))
	default:
		return fmt.Sprintf("%q is invalid", field)
	}
}

// check reports whether v (already coerced to the field type) satisfies the rule.
func (r Rule) check(v any) bool {
	switch r.Kind {
	case KindMinLength:
		s, _ := v.(string)
		return utf8.RuneCountInString(s) >= r.Length
	case KindMaxLength:
		s, _ := v.(string)
		return utf8.RuneCountInString(s) <= r.Length
	case KindEmail, KindPattern:
		s, _ := v.(string)
		return r.Pattern.MatchString(s)
	case KindOneOf:
		s, _ := v.(string)
		return slices.Contains(r.Values, s)
	case KindInteger:
		n, _ := v.(float64)
		return n == math.Trunc(n)
	case KindMin:
		n, _ := v.(float64)
		return n >= r.Bound
	case KindMax:
		n, _ := v.(float64)
		return n <= r.Bound
	default:
		return false
	}
}

func formatBound(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
