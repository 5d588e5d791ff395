// Package gen renders field descriptors as Go source defining an equivalent
// struct type. The output is the file format read back by package importer.
package gen

import (
	"bytes"
	"fmt"
	"go/format"
	"strconv"
	"strings"
	"unicode"

	skemaforge "github.com/reoring/skemaforge"
	ir "github.com/reoring/skemaforge/internal/ir"
	"github.com/reoring/skemaforge/internal/tags"
	"github.com/reoring/skemaforge/typelabel"
	"github.com/reoring/skemaforge/value"
)

// DefaultPackage is used when Options.Package is empty.
const DefaultPackage = "schemas"

// Header starts every rendered file.
const Header = "// Code generated by skemaforge. DO NOT EDIT."

// Options control rendering.
type Options struct {
	Package string
}

// Render produces gofmt'ed source for a struct named after name with one
// field per descriptor. The same descriptors always render the same text.
func Render(name string, fields []skemaforge.FieldDescriptor, opts Options) ([]byte, error) {
	rec := ir.Resolve(SanitizeTypeName(name), fields)
	return RenderRecord(rec, opts)
}

// RenderRecord renders an already resolved record.
func RenderRecord(rec ir.Record, opts Options) ([]byte, error) {
	pkg := opts.Package
	if pkg == "" {
		pkg = DefaultPackage
	}
	if !isIdent(pkg) {
		return nil, fmt.Errorf("gen: invalid package name %q", pkg)
	}
	typeName := SanitizeTypeName(rec.Name)
	for _, f := range rec.Fields {
		if err := tags.CheckJSONName(f.Name); err != nil {
			return nil, fmt.Errorf("gen: %s: %w", typeName, err)
		}
	}

	var buf bytes.Buffer
	buf.WriteString(Header + "\n\n")
	fmt.Fprintf(&buf, "package %s\n\n", pkg)
	if rec.NeedsTime() {
		buf.WriteString("import \"time\"\n\n")
	}
	fmt.Fprintf(&buf, "// %s is a generated record schema.\n", typeName)
	if len(rec.Fields) == 0 {
		fmt.Fprintf(&buf, "type %s struct{}\n", typeName)
		return format.Source(buf.Bytes())
	}
	fmt.Fprintf(&buf, "type %s struct {\n", typeName)
	used := map[string]int{}
	for _, f := range rec.Fields {
		if f.Description != "" {
			for _, line := range strings.Split(f.Description, "\n") {
				buf.WriteString("\t// " + strings.TrimRight(line, " \t\r") + "\n")
			}
		}
		goName := dedupe(used, FieldName(f.Name))
		goType := GoType(f)
		fmt.Fprintf(&buf, "\t%s %s %s\n", goName, goType, tags.Literal(FieldTag(f, goType).String()))
	}
	buf.WriteString("}\n")

	out, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("gen: format %s: %w", typeName, err)
	}
	return out, nil
}

// GoType maps a resolved field to its Go type expression.
func GoType(f ir.Field) string {
	base := baseType(f.Type)
	if f.Nullable && base != "any" {
		return "*" + base
	}
	return base
}

func baseType(t typelabel.Type) string {
	switch t.Kind {
	case typelabel.KindScalar:
		return scalarType(t.Scalar)
	case typelabel.KindList:
		return "[]" + scalarType(t.Scalar)
	case typelabel.KindLiteral:
		return literalType(t.Values)
	}
	return "any"
}

func scalarType(s typelabel.Scalar) string {
	switch s {
	case typelabel.Str:
		return "string"
	case typelabel.Int:
		return "int64"
	case typelabel.Float:
		return "float64"
	case typelabel.Bool:
		return "bool"
	case typelabel.Date, typelabel.DateTime:
		return "time.Time"
	}
	return "any"
}

// literalType picks the narrowest Go type holding every member.
func literalType(vs []value.Value) string {
	if len(vs) == 0 {
		return "any"
	}
	var str, num, flt, bl int
	for _, v := range vs {
		switch v.Kind() {
		case value.KindString:
			str++
		case value.KindInt:
			num++
		case value.KindFloat:
			num++
			flt++
		case value.KindBool:
			bl++
		}
	}
	switch len(vs) {
	case str:
		return "string"
	case bl:
		return "bool"
	case num:
		if flt > 0 {
			return "float64"
		}
		return "int64"
	}
	return "any"
}

// FieldTag builds the struct tag for f rendered with goType.
func FieldTag(f ir.Field, goType string) tags.Info {
	info := tags.Info{
		JSONName:    f.Name,
		OmitEmpty:   !f.Required,
		Nullable:    f.Nullable && !strings.HasPrefix(goType, "*"),
		Description: f.Description,
	}
	if f.Type.Kind == typelabel.KindScalar {
		switch f.Type.Scalar {
		case typelabel.Date:
			info.Format = tags.FormatDate
		case typelabel.DateTime:
			info.Format = tags.FormatDateTime
		}
	}
	if f.Type.Kind == typelabel.KindLiteral {
		info.Enum, info.HasEnum = typelabel.FormatLiterals(f.Type.Values), true
	}
	if f.HasDefault && !f.Default.IsNull() {
		info.Default, info.HasDefault = typelabel.FormatLiteral(f.Default), true
	}
	return info
}

// SanitizeTypeName turns name into an exported Go identifier. Names with no
// usable characters become "Record".
func SanitizeTypeName(name string) string {
	s := camel(name)
	switch {
	case s == "":
		return "Record"
	case !unicode.IsUpper([]rune(s)[0]):
		return "Record" + s
	}
	return s
}

// FieldName turns a field key into an exported Go field name.
func FieldName(name string) string {
	s := camel(name)
	switch {
	case s == "":
		return "Field"
	case !unicode.IsUpper([]rune(s)[0]):
		return "F" + s
	}
	return s
}

// camel splits on every rune that cannot appear in an identifier and
// upper-cases the first rune of each part.
func camel(s string) string {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r))
	})
	var b strings.Builder
	for _, p := range parts {
		rs := []rune(p)
		b.WriteRune(unicode.ToUpper(rs[0]))
		b.WriteString(string(rs[1:]))
	}
	return b.String()
}

func dedupe(used map[string]int, name string) string {
	n := used[name]
	used[name] = n + 1
	if n == 0 {
		return name
	}
	for {
		n++
		cand := name + strconv.Itoa(n)
		if used[cand] == 0 {
			used[cand] = 1
			used[name] = n
			return cand
		}
	}
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || unicode.IsLetter(r) || (i > 0 && unicode.IsDigit(r)) {
			continue
		}
		return false
	}
	return true
}
