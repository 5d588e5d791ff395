// Package jsonschema projects record schemas onto JSON Schema (draft
// 2020-12) documents. Property order follows field declaration order.
package jsonschema

import (
	ijs "github.com/invopop/jsonschema"

	json "github.com/goccy/go-json"

	"github.com/reoring/skemaforge/typelabel"
	"github.com/reoring/skemaforge/value"
)

// Schema is the invopop/jsonschema document type.
type Schema = ijs.Schema

// Property is one object member.
type Property struct {
	Name     string
	Schema   *Schema
	Required bool
}

// ForType returns the schema describing values of t. Any yields the empty
// (accept everything) schema.
func ForType(t typelabel.Type) *Schema {
	switch t.Kind {
	case typelabel.KindScalar:
		return scalar(t.Scalar)
	case typelabel.KindList:
		return &Schema{Type: "array", Items: scalar(t.Scalar)}
	case typelabel.KindLiteral:
		s := &Schema{Enum: make([]any, len(t.Values))}
		kinds := map[value.Kind]struct{}{}
		for i, v := range t.Values {
			s.Enum[i] = v.ToGo()
			kinds[v.Kind()] = struct{}{}
		}
		if len(kinds) == 1 {
			for k := range kinds {
				s.Type = kindType(k)
			}
		}
		return s
	}
	return &Schema{}
}

func scalar(sc typelabel.Scalar) *Schema {
	switch sc {
	case typelabel.Str:
		return &Schema{Type: "string"}
	case typelabel.Int:
		return &Schema{Type: "integer"}
	case typelabel.Float:
		return &Schema{Type: "number"}
	case typelabel.Bool:
		return &Schema{Type: "boolean"}
	case typelabel.Date:
		return &Schema{Type: "string", Format: "date"}
	case typelabel.DateTime:
		return &Schema{Type: "string", Format: "date-time"}
	}
	return &Schema{}
}

func kindType(k value.Kind) string {
	switch k {
	case value.KindString:
		return "string"
	case value.KindInt:
		return "integer"
	case value.KindFloat:
		return "number"
	case value.KindBool:
		return "boolean"
	}
	return ""
}

// Nullable widens s to also accept null.
func Nullable(s *Schema) *Schema {
	if s == nil || (s.Type == "" && s.Enum == nil && s.AnyOf == nil) {
		return s
	}
	return &Schema{AnyOf: []*Schema{s, {Type: "null"}}}
}

// Object assembles a record schema. strict disables additional properties.
func Object(title string, props []Property, strict bool) *Schema {
	s := &Schema{
		Version:    ijs.Version,
		Type:       "object",
		Title:      title,
		Properties: ijs.NewProperties(),
	}
	for _, p := range props {
		ps := p.Schema
		if ps == nil {
			ps = &Schema{}
		}
		s.Properties.Set(p.Name, ps)
		if p.Required {
			s.Required = append(s.Required, p.Name)
		}
	}
	if strict {
		s.AdditionalProperties = ijs.FalseSchema
	}
	return s
}

// PropertyNames lists the property keys of s in document order.
func PropertyNames(s *Schema) []string {
	if s == nil || s.Properties == nil {
		return nil
	}
	var out []string
	for pair := s.Properties.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Key)
	}
	return out
}

// Marshal renders s as indented JSON.
func Marshal(s *Schema) ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}
