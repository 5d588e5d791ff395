// Package value implements the free-form variant used for Any-typed fields
// and literal enumeration members.
//
// A Value holds exactly one of null, string, integer, float, boolean, an
// ordered list of values, or a string-keyed map of values. Values compare
// structurally (see Equal) and serialize to JSON without loss for every kind.
package value

import (
	"bytes"
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
)

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindInt
	KindFloat
	KindBool
	KindList
	KindMap
)

var kindNames = [...]string{"null", "string", "int", "float", "bool", "list", "map"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Value is an immutable tagged union. The zero Value is null.
type Value struct {
	kind Kind
	s    string
	i    int64
	f    float64
	b    bool
	list []Value
	m    map[string]Value
}

func Null() Value            { return Value{} }
func String(s string) Value  { return Value{kind: KindString, s: s} }
func Int(i int64) Value      { return Value{kind: KindInt, i: i} }
func Float(f float64) Value  { return Value{kind: KindFloat, f: f} }
func Bool(b bool) Value      { return Value{kind: KindBool, b: b} }
func List(vs ...Value) Value { return Value{kind: KindList, list: append([]Value(nil), vs...)} }

// Map copies m into a new map Value.
func Map(m map[string]Value) Value {
	cp := make(map[string]Value, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return Value{kind: KindMap, m: cp}
}

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsString returns the string payload and whether v is a string.
func (v Value) AsString() (string, bool) { return v.s, v.kind == KindString }

// AsInt returns the integer payload and whether v is an integer.
func (v Value) AsInt() (int64, bool) { return v.i, v.kind == KindInt }

// AsFloat returns the numeric payload as float64. Integers convert.
func (v Value) AsFloat() (float64, bool) {
	switch v.kind {
	case KindFloat:
		return v.f, true
	case KindInt:
		return float64(v.i), true
	}
	return 0, false
}

// AsBool returns the boolean payload and whether v is a boolean.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// Items returns a copy of the list payload (nil for other kinds).
func (v Value) Items() []Value {
	if v.kind != KindList {
		return nil
	}
	return append([]Value(nil), v.list...)
}

// Len reports the number of list items or map entries.
func (v Value) Len() int {
	switch v.kind {
	case KindList:
		return len(v.list)
	case KindMap:
		return len(v.m)
	}
	return 0
}

// Keys returns map keys in ascending order.
func (v Value) Keys() []string {
	if v.kind != KindMap {
		return nil
	}
	ks := make([]string, 0, len(v.m))
	for k := range v.m {
		ks = append(ks, k)
	}
	sort.Strings(ks)
	return ks
}

// Get looks up a map entry.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindMap {
		return Value{}, false
	}
	e, ok := v.m[key]
	return e, ok
}

// FromGo converts a decoded Go value into a Value. It accepts the shapes
// produced by JSON and YAML decoders (including json.Number and
// map[any]any) plus the native integer, float and time types.
func FromGo(x any) (Value, error) {
	switch t := x.(type) {
	case nil:
		return Null(), nil
	case Value:
		return t, nil
	case string:
		return String(t), nil
	case bool:
		return Bool(t), nil
	case int:
		return Int(int64(t)), nil
	case int8:
		return Int(int64(t)), nil
	case int16:
		return Int(int64(t)), nil
	case int32:
		return Int(int64(t)), nil
	case int64:
		return Int(t), nil
	case uint:
		return fromUint(uint64(t))
	case uint8:
		return Int(int64(t)), nil
	case uint16:
		return Int(int64(t)), nil
	case uint32:
		return Int(int64(t)), nil
	case uint64:
		return fromUint(t)
	case float32:
		return Float(float64(t)), nil
	case float64:
		return Float(t), nil
	case json.Number:
		if i, err := strconv.ParseInt(string(t), 10, 64); err == nil {
			return Int(i), nil
		}
		f, err := strconv.ParseFloat(string(t), 64)
		if err != nil {
			return Value{}, fmt.Errorf("value: invalid number %q", string(t))
		}
		return Float(f), nil
	case time.Time:
		return String(t.Format(time.RFC3339Nano)), nil
	case []Value:
		return List(t...), nil
	case []any:
		out := make([]Value, len(t))
		for i, e := range t {
			ev, err := FromGo(e)
			if err != nil {
				return Value{}, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = ev
		}
		return Value{kind: KindList, list: out}, nil
	case map[string]any:
		out := make(map[string]Value, len(t))
		for k, e := range t {
			ev, err := FromGo(e)
			if err != nil {
				return Value{}, fmt.Errorf("%s: %w", k, err)
			}
			out[k] = ev
		}
		return Value{kind: KindMap, m: out}, nil
	case map[any]any:
		out := make(map[string]Value, len(t))
		for k, e := range t {
			ev, err := FromGo(e)
			if err != nil {
				return Value{}, fmt.Errorf("%v: %w", k, err)
			}
			out[fmt.Sprint(k)] = ev
		}
		return Value{kind: KindMap, m: out}, nil
	case []string:
		out := make([]Value, len(t))
		for i, e := range t {
			out[i] = String(e)
		}
		return Value{kind: KindList, list: out}, nil
	}
	return Value{}, fmt.Errorf("value: unsupported type %T", x)
}

func fromUint(u uint64) (Value, error) {
	if u > math.MaxInt64 {
		return Float(float64(u)), nil
	}
	return Int(int64(u)), nil
}

// ToGo converts v back to plain Go data: nil, string, int64, float64, bool,
// []any or map[string]any.
func (v Value) ToGo() any {
	switch v.kind {
	case KindString:
		return v.s
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindBool:
		return v.b
	case KindList:
		out := make([]any, len(v.list))
		for i, e := range v.list {
			out[i] = e.ToGo()
		}
		return out
	case KindMap:
		out := make(map[string]any, len(v.m))
		for k, e := range v.m {
			out[k] = e.ToGo()
		}
		return out
	}
	return nil
}

// Equal reports structural equality. Integers and floats compare by numeric
// value, so Int(1) equals Float(1.0); every other kind must match exactly.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		af, aok := a.AsFloat()
		bf, bok := b.AsFloat()
		return aok && bok && af == bf
	}
	switch a.kind {
	case KindNull:
		return true
	case KindString:
		return a.s == b.s
	case KindInt:
		return a.i == b.i
	case KindFloat:
		return a.f == b.f
	case KindBool:
		return a.b == b.b
	case KindList:
		if len(a.list) != len(b.list) {
			return false
		}
		for i := range a.list {
			if !Equal(a.list[i], b.list[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(a.m) != len(b.m) {
			return false
		}
		for k, av := range a.m {
			bv, ok := b.m[k]
			if !ok || !Equal(av, bv) {
				return false
			}
		}
		return true
	}
	return false
}

// Equal is the method form of the package-level Equal.
func (v Value) Equal(o Value) bool { return Equal(v, o) }

// MarshalJSON encodes v as JSON. Map keys are emitted in ascending order.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindFloat:
		if math.IsNaN(v.f) || math.IsInf(v.f, 0) {
			return nil, fmt.Errorf("value: %v is not representable in JSON", v.f)
		}
		s := strconv.FormatFloat(v.f, 'g', -1, 64)
		return []byte(s), nil
	case KindList:
		buf := []byte{'['}
		for i, e := range v.list {
			if i > 0 {
				buf = append(buf, ',')
			}
			b, err := e.MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf = append(buf, b...)
		}
		return append(buf, ']'), nil
	case KindMap:
		buf := []byte{'{'}
		for i, k := range v.Keys() {
			if i > 0 {
				buf = append(buf, ',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return nil, err
			}
			buf = append(buf, kb...)
			buf = append(buf, ':')
			b, err := v.m[k].MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf = append(buf, b...)
		}
		return append(buf, '}'), nil
	}
	return json.Marshal(v.ToGo())
}

// UnmarshalJSON decodes any JSON document into v. Integral numbers become
// KindInt, other numbers KindFloat.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	out, err := FromGo(raw)
	if err != nil {
		return err
	}
	*v = out
	return nil
}

// String renders v as compact JSON. Values that cannot be encoded fall back
// to Go formatting.
func (v Value) String() string {
	b, err := v.MarshalJSON()
	if err != nil {
		return fmt.Sprint(v.ToGo())
	}
	return string(b)
}
