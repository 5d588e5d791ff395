// Package typelabel parses and renders the human-readable type labels used in
// field descriptors: scalars (str, int, float, bool, date, datetime, Any),
// lists of scalars (list[int]) and literal enumerations (Literal['A', 1]).
//
// Parsing is total. Labels outside the grammar resolve to Any.
package typelabel

import (
	"strings"

	"github.com/reoring/skemaforge/value"
)

// Kind is the closed set of type shapes a field can take.
type Kind uint8

const (
	KindAny Kind = iota
	KindScalar
	KindList
	KindLiteral
)

// Scalar enumerates the scalar element types.
type Scalar uint8

const (
	NoScalar Scalar = iota
	Str
	Int
	Float
	Bool
	Date
	DateTime
)

var scalarNames = map[Scalar]string{
	Str:      "str",
	Int:      "int",
	Float:    "float",
	Bool:     "bool",
	Date:     "date",
	DateTime: "datetime",
}

func (s Scalar) String() string {
	if n, ok := scalarNames[s]; ok {
		return n
	}
	return "Any"
}

// Type is the resolved form of a label.
type Type struct {
	Kind   Kind
	Scalar Scalar        // element type for KindScalar and KindList
	Values []value.Value // members for KindLiteral, in label order
}

func Any() Type                        { return Type{Kind: KindAny} }
func ScalarOf(s Scalar) Type           { return Type{Kind: KindScalar, Scalar: s} }
func ListOf(s Scalar) Type             { return Type{Kind: KindList, Scalar: s} }
func LiteralOf(vs ...value.Value) Type { return Type{Kind: KindLiteral, Values: vs} }

// Equal compares two types, including literal member order.
func (t Type) Equal(o Type) bool {
	if t.Kind != o.Kind || t.Scalar != o.Scalar || len(t.Values) != len(o.Values) {
		return false
	}
	for i := range t.Values {
		if t.Values[i].Kind() != o.Values[i].Kind() || !value.Equal(t.Values[i], o.Values[i]) {
			return false
		}
	}
	return true
}

func (t Type) String() string { return Render(t) }

// IsTemporal reports whether values of t are dates or datetimes.
func (t Type) IsTemporal() bool {
	return (t.Kind == KindScalar || t.Kind == KindList) && (t.Scalar == Date || t.Scalar == DateTime)
}

var vocabulary = map[string]Type{
	"str":         ScalarOf(Str),
	"int":         ScalarOf(Int),
	"float":       ScalarOf(Float),
	"bool":        ScalarOf(Bool),
	"date":        ScalarOf(Date),
	"datetime":    ScalarOf(DateTime),
	"Any":         Any(),
	"list[str]":   ListOf(Str),
	"list[int]":   ListOf(Int),
	"list[float]": ListOf(Float),
	"list[bool]":  ListOf(Bool),
}

// Options lists the labels offered to editors, in display order.
func Options() []string {
	return []string{
		"str", "int", "float", "bool", "date", "datetime",
		"list[str]", "list[int]", "list[float]", "list[bool]",
		"Literal[...]", "Any",
	}
}

const (
	literalOpen  = "Literal["
	literalClose = "]"
)

// Parse resolves a label. Matching is exact and case-sensitive for the
// scalar and list vocabularies; Literal[...] items are classified by
// ParseLiteral. Anything else is Any.
func Parse(label string) Type {
	if t, ok := vocabulary[label]; ok {
		return t
	}
	if strings.HasPrefix(label, literalOpen) && strings.HasSuffix(label, literalClose) && len(label) >= len(literalOpen)+len(literalClose) {
		inner := label[len(literalOpen) : len(label)-len(literalClose)]
		items := SplitItems(inner)
		vals := make([]value.Value, 0, len(items))
		for _, it := range items {
			vals = append(vals, ParseLiteral(it))
		}
		return LiteralOf(vals...)
	}
	return Any()
}

// Render is the inverse of Parse for the supported shapes.
func Render(t Type) string {
	switch t.Kind {
	case KindScalar:
		return t.Scalar.String()
	case KindList:
		return "list[" + t.Scalar.String() + "]"
	case KindLiteral:
		return literalOpen + FormatLiterals(t.Values) + literalClose
	}
	return "Any"
}

// Normalize strips an optional wrapper from a label and reports whether one
// was present. It understands Optional[X], X | None and None | X.
func Normalize(label string) (core string, optional bool) {
	l := strings.TrimSpace(label)
	if strings.HasPrefix(l, "Optional[") && strings.HasSuffix(l, "]") {
		return strings.TrimSpace(l[len("Optional[") : len(l)-1]), true
	}
	if i := strings.LastIndex(l, "|"); i >= 0 && !strings.HasPrefix(l, literalOpen) {
		left, right := strings.TrimSpace(l[:i]), strings.TrimSpace(l[i+1:])
		switch {
		case right == "None":
			return left, true
		case left == "None":
			return right, true
		}
	}
	return l, false
}

// SplitItems splits the inner text of a literal on commas, ignoring commas
// inside quoted items, and trims each item. Empty input yields no items.
func SplitItems(inner string) []string {
	if strings.TrimSpace(inner) == "" {
		return nil
	}
	var (
		out   []string
		quote byte
		start int
	)
	for i := 0; i < len(inner); i++ {
		c := inner[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == ',':
			out = append(out, strings.TrimSpace(inner[start:i]))
			start = i + 1
		}
	}
	return append(out, strings.TrimSpace(inner[start:]))
}
