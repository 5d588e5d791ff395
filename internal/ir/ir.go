// Package ir defines the resolved record representation shared by the
// synthesizer, the code renderer and the source importer. This package is
// internal and not part of the public API.
package ir

import (
	"strings"

	skemaforge "github.com/reoring/skemaforge"
	"github.com/reoring/skemaforge/typelabel"
	"github.com/reoring/skemaforge/value"
)

// Record is an ordered list of resolved fields under a type name.
type Record struct {
	Name   string
	Fields []Field
}

// Field is one resolved field.
//
// Exactly one of these holds for a well-formed field: Required is set and
// HasDefault is not; or HasDefault is set (Default may be null only when
// Nullable is set).
type Field struct {
	Name        string
	Type        typelabel.Type
	Nullable    bool
	Required    bool
	HasDefault  bool
	Default     value.Value
	Description string
}

// Resolve applies the label grammar and the default rule to each
// descriptor:
//
//   - a default with non-empty text is coerced to the field type and makes
//     the field optional-with-default
//   - otherwise an optional field defaults to null
//   - otherwise the field is required
//
// Descriptors with a blank name are skipped. A repeated name replaces the
// earlier field in its original position.
func Resolve(name string, fields []skemaforge.FieldDescriptor) Record {
	rec := Record{Name: name}
	pos := map[string]int{}
	for _, d := range fields {
		if d.Blank() {
			continue
		}
		f := ResolveField(d)
		if i, ok := pos[f.Name]; ok {
			rec.Fields[i] = f
			continue
		}
		pos[f.Name] = len(rec.Fields)
		rec.Fields = append(rec.Fields, f)
	}
	return rec
}

// ResolveField resolves one descriptor.
func ResolveField(d skemaforge.FieldDescriptor) Field {
	core, wrapped := typelabel.Normalize(d.TypeLabel)
	f := Field{
		Name:        d.Name,
		Type:        typelabel.Parse(core),
		Nullable:    d.Optional || wrapped,
		Description: strings.TrimSpace(d.Description),
	}
	switch {
	case d.HasDefault && d.DefaultLiteral != "":
		f.HasDefault = true
		f.Default = typelabel.CoerceText(f.Type, d.DefaultLiteral)
	case f.Nullable:
		f.HasDefault = true
		f.Default = value.Null()
	default:
		f.Required = true
	}
	return f
}

// NeedsTime reports whether any field renders with a time type.
func (r Record) NeedsTime() bool {
	for _, f := range r.Fields {
		if f.Type.IsTemporal() {
			return true
		}
	}
	return false
}
