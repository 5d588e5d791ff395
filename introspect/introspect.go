// Package introspect re-derives field descriptors from record schemas and
// from compiled Go struct types.
package introspect

import (
	"fmt"
	"reflect"
	"time"

	skemaforge "github.com/reoring/skemaforge"
	"github.com/reoring/skemaforge/dsl"
	ir "github.com/reoring/skemaforge/internal/ir"
	"github.com/reoring/skemaforge/internal/tags"
	"github.com/reoring/skemaforge/typelabel"
	"github.com/reoring/skemaforge/value"
)

// Introspect lists the descriptors of s in declaration order. A field is
// optional when it accepts null; a default is reported only when it is not
// null.
func Introspect(s *dsl.RecordSchema) []skemaforge.FieldDescriptor {
	fs := s.Fields()
	out := make([]skemaforge.FieldDescriptor, 0, len(fs))
	for _, f := range fs {
		d := skemaforge.FieldDescriptor{
			Name:        f.Name,
			TypeLabel:   typelabel.Render(f.Type),
			Optional:    f.Nullable,
			Description: f.Description,
		}
		if f.HasDefault {
			d.DefaultLiteral, d.HasDefault = FormatDefault(f.Default)
		}
		out = append(out, d)
	}
	return out
}

// FormatDefault renders a default as descriptor text: "abc", "3", "true",
// lists as JSON. It reports false for null and for values that are not
// JSON-compatible.
func FormatDefault(v any) (string, bool) {
	x, err := value.FromGo(v)
	if err != nil || x.IsNull() {
		return "", false
	}
	return typelabel.FormatText(x), true
}

var timeType = reflect.TypeOf(time.Time{})

// IntrospectStruct derives descriptors from a struct type (or pointer to
// one) using the same tag grammar as rendered source. Go types outside the
// label grammar report Any.
func IntrospectStruct(v any) ([]skemaforge.FieldDescriptor, error) {
	rt := reflect.TypeOf(v)
	for rt != nil && rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}
	if rt == nil || rt.Kind() != reflect.Struct {
		return nil, fmt.Errorf("introspect: %T is not a struct", v)
	}
	var out []skemaforge.FieldDescriptor
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if sf.Anonymous {
			return nil, fmt.Errorf("introspect: embedded field %s is not supported", sf.Name)
		}
		if !sf.IsExported() {
			continue
		}
		info, err := tags.Parse(string(sf.Tag))
		if err != nil {
			return nil, fmt.Errorf("introspect: field %s: %w", sf.Name, err)
		}
		if info.Skip {
			continue
		}
		name := info.JSONName
		if name == "" {
			name = sf.Name
		}
		base, pointer := reflectType(sf.Type)
		f, err := ir.FieldFromTag(name, base, pointer, info, "")
		if err != nil {
			return nil, fmt.Errorf("introspect: %w", err)
		}
		out = append(out, descriptorOf(f))
	}
	return out, nil
}

func descriptorOf(f ir.Field) skemaforge.FieldDescriptor {
	d := skemaforge.FieldDescriptor{
		Name:        f.Name,
		TypeLabel:   typelabel.Render(f.Type),
		Optional:    f.Nullable,
		Description: f.Description,
	}
	if f.HasDefault && !f.Default.IsNull() {
		d.HasDefault, d.DefaultLiteral = true, typelabel.FormatText(f.Default)
	}
	return d
}

func reflectType(t reflect.Type) (typelabel.Type, bool) {
	pointer := false
	if t.Kind() == reflect.Pointer {
		pointer = true
		t = t.Elem()
	}
	if sc, ok := reflectScalar(t); ok {
		return typelabel.ScalarOf(sc), pointer
	}
	if t.Kind() == reflect.Slice {
		if sc, ok := reflectScalar(t.Elem()); ok && sc != typelabel.DateTime && t.Elem().Kind() != reflect.Uint8 {
			return typelabel.ListOf(sc), pointer
		}
	}
	return typelabel.Any(), pointer
}

func reflectScalar(t reflect.Type) (typelabel.Scalar, bool) {
	if t == timeType {
		return typelabel.DateTime, true
	}
	switch t.Kind() {
	case reflect.String:
		return typelabel.Str, true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return typelabel.Int, true
	case reflect.Float32, reflect.Float64:
		return typelabel.Float, true
	case reflect.Bool:
		return typelabel.Bool, true
	}
	return typelabel.NoScalar, false
}
