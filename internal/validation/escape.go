package validation

import (
	"fmt"
	"math"
	"strings"
)

var htmlReplacer = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#039;",
)

// EscapeHTML replaces & < > " ' with named entities so text can be embedded in
// markup. Escaping an already escaped string escapes it again.
func EscapeHTML(text string) string {
	if text == "" {
		return ""
	}
	return htmlReplacer.Replace(text)
}

// EscapeValue escapes the string form of v. nil, "", false and numeric zero
// produce an empty string.
func EscapeValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return EscapeHTML(t)
	case bool:
		if !t {
			return ""
		}
	case int:
		if t == 0 {
			return ""
		}
	case int64:
		if t == 0 {
			return ""
		}
	case float64:
		if t == 0 || math.IsNaN(t) {
			return ""
		}
	}
	return EscapeHTML(fmt.Sprint(v))
}
