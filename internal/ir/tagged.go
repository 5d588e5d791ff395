package ir

import (
	"fmt"
	"strings"

	"github.com/reoring/skemaforge/internal/tags"
	"github.com/reoring/skemaforge/typelabel"
	"github.com/reoring/skemaforge/value"
)

// FieldFromTag resolves a struct field from the type implied by its Go
// type, whether that type is a pointer, the decoded tag and the doc comment.
//
// Presence follows the tag: a default tag gives an optional field with that
// default; no omitempty gives a required field; a nullable field defaults to
// null; anything else is optional without a default.
func FieldFromTag(name string, base typelabel.Type, pointer bool, info tags.Info, doc string) (Field, error) {
	f := Field{
		Name:        name,
		Type:        base,
		Nullable:    pointer || info.Nullable,
		Description: info.Description,
	}
	if f.Description == "" {
		f.Description = strings.TrimSpace(doc)
	}
	if info.Format != "" {
		if base.Kind != typelabel.KindScalar || !base.IsTemporal() {
			return f, fmt.Errorf("format tag on %s requires a time.Time field", name)
		}
		switch info.Format {
		case tags.FormatDate:
			f.Type = typelabel.ScalarOf(typelabel.Date)
		default:
			f.Type = typelabel.ScalarOf(typelabel.DateTime)
		}
	}
	if info.HasEnum {
		items := typelabel.SplitItems(info.Enum)
		vals := make([]value.Value, len(items))
		for i, it := range items {
			vals[i] = typelabel.ParseLiteral(it)
		}
		f.Type = typelabel.LiteralOf(vals...)
	}
	switch {
	case info.HasDefault:
		f.HasDefault = true
		f.Default = DefaultFromText(f.Type, info.Default)
	case !info.OmitEmpty:
		f.Required = true
	case f.Nullable:
		f.HasDefault = true
		f.Default = value.Null()
	}
	return f, nil
}

// DefaultFromText reads a default written in literal syntax. List defaults
// are JSON arrays (or comma separated items) coerced to the element type.
func DefaultFromText(t typelabel.Type, text string) value.Value {
	if t.Kind == typelabel.KindList {
		return typelabel.CoerceText(t, text)
	}
	return typelabel.ParseLiteral(text)
}
