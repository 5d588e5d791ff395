package typelabel

import (
	"strconv"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/reoring/skemaforge/value"
)

// ParseLiteral classifies one literal item: quoted text is a string, then
// true/false (any case) is a bool, then an integer, then a float. Anything
// else is kept as a bare string.
func ParseLiteral(item string) value.Value {
	s := strings.TrimSpace(item)
	if len(s) >= 2 && (s[0] == '\'' || s[0] == '"') && s[len(s)-1] == s[0] {
		return value.String(s[1 : len(s)-1])
	}
	switch strings.ToLower(s) {
	case "true":
		return value.Bool(true)
	case "false":
		return value.Bool(false)
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return value.Int(i)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return value.Float(f)
	}
	return value.String(s)
}

// FormatLiteral renders one literal item so that ParseLiteral reads it back
// with the same kind. Strings are single quoted unless they contain a single
// quote. Lists and maps render as JSON.
func FormatLiteral(v value.Value) string {
	switch v.Kind() {
	case value.KindString:
		s, _ := v.AsString()
		if strings.ContainsRune(s, '\'') {
			return `"` + s + `"`
		}
		return "'" + s + "'"
	case value.KindInt:
		i, _ := v.AsInt()
		return strconv.FormatInt(i, 10)
	case value.KindFloat:
		f, _ := v.AsFloat()
		return formatFloat(f)
	case value.KindBool:
		b, _ := v.AsBool()
		return strconv.FormatBool(b)
	case value.KindNull:
		return "null"
	}
	return v.String()
}

// FormatLiterals joins items with commas.
func FormatLiterals(vs []value.Value) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = FormatLiteral(v)
	}
	return strings.Join(parts, ",")
}

// formatFloat keeps a decimal point or exponent so the text is never read
// back as an integer.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if strings.ContainsAny(s, ".eEnN") {
		return s
	}
	return s + ".0"
}

// FormatText renders a default value as the plain text a user would type
// into a descriptor: strings verbatim, scalars by their literal form, and
// lists as JSON.
func FormatText(v value.Value) string {
	switch v.Kind() {
	case value.KindString:
		s, _ := v.AsString()
		return s
	case value.KindList, value.KindMap:
		return v.String()
	}
	return FormatLiteral(v)
}

var truthy = map[string]struct{}{"1": {}, "true": {}, "yes": {}, "y": {}, "on": {}}

// Truthy reports whether text is one of 1, true, yes, y, on (any case).
func Truthy(text string) bool {
	_, ok := truthy[strings.ToLower(strings.TrimSpace(text))]
	return ok
}

// CoerceText converts free text into a value of type t without failing:
//
//   - int and float parse numerically, keeping the original text when the
//     parse fails
//   - bool is true exactly when Truthy(text)
//   - literals resolve to the first member whose literal form or text
//     matches, otherwise the text is kept
//   - lists accept a JSON array or comma separated items, each coerced as
//     the element type
//   - everything else keeps the text
func CoerceText(t Type, text string) value.Value {
	switch t.Kind {
	case KindScalar:
		return coerceScalar(t.Scalar, text)
	case KindLiteral:
		lit := ParseLiteral(text)
		for _, m := range t.Values {
			if m.Kind() == lit.Kind() && value.Equal(m, lit) {
				return m
			}
		}
		for _, m := range t.Values {
			if FormatText(m) == text {
				return m
			}
		}
		return value.String(text)
	case KindList:
		trimmed := strings.TrimSpace(text)
		if strings.HasPrefix(trimmed, "[") {
			dec := json.NewDecoder(strings.NewReader(trimmed))
			dec.UseNumber()
			var raw []any
			if err := dec.Decode(&raw); err == nil {
				items := make([]value.Value, len(raw))
				for i, r := range raw {
					if s, ok := r.(string); ok {
						items[i] = coerceScalar(t.Scalar, s)
						continue
					}
					if n, ok := r.(json.Number); ok && (t.Scalar == Int || t.Scalar == Float) {
						if c := coerceScalar(t.Scalar, n.String()); c.Kind() != value.KindString {
							items[i] = c
							continue
						}
					}
					iv, err := value.FromGo(r)
					if err != nil {
						return value.String(text)
					}
					items[i] = iv
				}
				return value.List(items...)
			}
		}
		if trimmed == "" {
			return value.List()
		}
		parts := strings.Split(trimmed, ",")
		items := make([]value.Value, len(parts))
		for i, p := range parts {
			items[i] = coerceScalar(t.Scalar, strings.TrimSpace(p))
		}
		return value.List(items...)
	}
	return value.String(text)
}

func coerceScalar(s Scalar, text string) value.Value {
	switch s {
	case Int:
		if i, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64); err == nil {
			return value.Int(i)
		}
		return value.String(text)
	case Float:
		if f, err := strconv.ParseFloat(strings.TrimSpace(text), 64); err == nil {
			return value.Float(f)
		}
		return value.String(text)
	case Bool:
		return value.Bool(Truthy(text))
	}
	return value.String(text)
}
