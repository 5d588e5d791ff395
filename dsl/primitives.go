package dsl

import (
	"context"
	"math"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	skemaforge "github.com/reoring/skemaforge"
	"github.com/reoring/skemaforge/i18n"
	js "github.com/reoring/skemaforge/jsonschema"
	"github.com/reoring/skemaforge/typelabel"
	"github.com/reoring/skemaforge/value"
)

// Date and datetime wire layouts.
const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = time.RFC3339Nano
)

// scalarSchema implements Schema[T] from a coercion function. check, when
// set, runs on already typed values.
type scalarSchema[T any] struct {
	typ    typelabel.Type
	coerce func(v any) (T, *skemaforge.Issue)
	check  func(v T) *skemaforge.Issue
}

var _ skemaforge.Schema[string] = scalarSchema[string]{}

func (s scalarSchema[T]) Parse(ctx context.Context, v any) (T, error) {
	out, iss := s.coerce(v)
	if iss != nil {
		var zero T
		return zero, skemaforge.Issues{*iss}
	}
	return out, nil
}

func (s scalarSchema[T]) TypeCheck(ctx context.Context, v any) error {
	if _, iss := s.coerce(v); iss != nil {
		return skemaforge.Issues{*iss}
	}
	return nil
}

func (s scalarSchema[T]) RuleCheck(ctx context.Context, v any) error { return nil }

func (s scalarSchema[T]) Validate(ctx context.Context, v any) error {
	if err := s.TypeCheck(ctx, v); err != nil {
		return err
	}
	return s.RuleCheck(ctx, v)
}

func (s scalarSchema[T]) ValidateValue(ctx context.Context, v T) error {
	if s.check == nil {
		return nil
	}
	if iss := s.check(v); iss != nil {
		return skemaforge.Issues{*iss}
	}
	return nil
}

func (s scalarSchema[T]) JSONSchema() (*js.Schema, error) { return js.ForType(s.typ), nil }

// String accepts strings only.
func String() skemaforge.Schema[string] {
	return scalarSchema[string]{typ: typelabel.ScalarOf(typelabel.Str), coerce: toString}
}

// Int accepts integral numbers and integer strings. Booleans are rejected.
func Int() skemaforge.Schema[int64] {
	return scalarSchema[int64]{typ: typelabel.ScalarOf(typelabel.Int), coerce: toInt}
}

// Float accepts any number and numeric strings.
func Float() skemaforge.Schema[float64] {
	return scalarSchema[float64]{typ: typelabel.ScalarOf(typelabel.Float), coerce: toFloat}
}

// Bool accepts booleans, 0/1 and the usual yes/no words.
func Bool() skemaforge.Schema[bool] {
	return scalarSchema[bool]{typ: typelabel.ScalarOf(typelabel.Bool), coerce: toBool}
}

// Date accepts YYYY-MM-DD strings and time.Time values.
func Date() skemaforge.Schema[time.Time] {
	return scalarSchema[time.Time]{typ: typelabel.ScalarOf(typelabel.Date), coerce: toDate}
}

// DateTime accepts RFC 3339 strings (with or without zone, T or space
// separated), bare dates and time.Time values.
func DateTime() skemaforge.Schema[time.Time] {
	return scalarSchema[time.Time]{typ: typelabel.ScalarOf(typelabel.DateTime), coerce: toDateTime}
}

// AnyValue accepts every JSON-compatible value, null included.
func AnyValue() skemaforge.Schema[value.Value] {
	return scalarSchema[value.Value]{typ: typelabel.Any(), coerce: toValue}
}

// Literal accepts values structurally equal to one of the members and
// returns the member in native form.
func Literal(members ...value.Value) skemaforge.Schema[any] {
	ms := append([]value.Value(nil), members...)
	match := func(v any) (any, *skemaforge.Issue) {
		x, err := value.FromGo(v)
		if err != nil {
			return nil, invalidType("literal")
		}
		for _, m := range ms {
			if literalMatch(m, x) {
				return m.ToGo(), nil
			}
		}
		return nil, invalidEnum(ms)
	}
	return scalarSchema[any]{
		typ:    typelabel.LiteralOf(ms...),
		coerce: match,
		check: func(v any) *skemaforge.Issue {
			_, iss := match(v)
			return iss
		},
	}
}

// literalMatch compares like Equal but keeps bools apart from numbers and
// strings apart from everything else.
func literalMatch(m, x value.Value) bool {
	numeric := func(k value.Kind) bool { return k == value.KindInt || k == value.KindFloat }
	if m.Kind() != x.Kind() && !(numeric(m.Kind()) && numeric(x.Kind())) {
		return false
	}
	return value.Equal(m, x)
}

// ---- field adapters ----

func StringOf() AnyAdapter   { return anyAdapterFromSchema(String(), typelabel.ScalarOf(typelabel.Str)) }
func IntOf() AnyAdapter      { return anyAdapterFromSchema(Int(), typelabel.ScalarOf(typelabel.Int)) }
func FloatOf() AnyAdapter    { return anyAdapterFromSchema(Float(), typelabel.ScalarOf(typelabel.Float)) }
func BoolOf() AnyAdapter     { return anyAdapterFromSchema(Bool(), typelabel.ScalarOf(typelabel.Bool)) }
func DateOf() AnyAdapter     { return temporal(Date(), typelabel.Date, DateLayout) }
func DateTimeOf() AnyAdapter { return temporal(DateTime(), typelabel.DateTime, DateTimeLayout) }

// AnyOf is the universal slot. Parsed values are value.Value.
func AnyOf() AnyAdapter {
	ad := anyAdapterFromSchema(AnyValue(), typelabel.Any())
	ad.dump = func(v any) any {
		if vv, ok := v.(value.Value); ok {
			return vv.ToGo()
		}
		return v
	}
	return ad
}

// LiteralOf restricts the slot to the given members, in order.
func LiteralOf(members ...value.Value) AnyAdapter {
	s := Literal(members...)
	return anyAdapterFromSchema(s, typelabel.LiteralOf(members...))
}

func temporal(s skemaforge.Schema[time.Time], sc typelabel.Scalar, layout string) AnyAdapter {
	ad := anyAdapterFromSchema(s, typelabel.ScalarOf(sc))
	ad.dump = func(v any) any {
		if t, ok := v.(time.Time); ok {
			return t.Format(layout)
		}
		return v
	}
	return ad
}

// ---- coercions ----

func invalidType(expected string) *skemaforge.Issue {
	return &skemaforge.Issue{
		Path:    "/",
		Code:    skemaforge.CodeInvalidType,
		Message: i18n.T(skemaforge.CodeInvalidType, map[string]string{"expected": expected}),
		Params:  map[string]any{"expected": expected},
	}
}

func invalidFormat(format string, cause error) *skemaforge.Issue {
	return &skemaforge.Issue{
		Path:    "/",
		Code:    skemaforge.CodeInvalidFormat,
		Message: i18n.T(skemaforge.CodeInvalidFormat, map[string]string{"format": format}),
		Hint:    format,
		Cause:   cause,
		Params:  map[string]any{"format": format},
	}
}

func invalidEnum(ms []value.Value) *skemaforge.Issue {
	allowed := typelabel.FormatLiterals(ms)
	return &skemaforge.Issue{
		Path:    "/",
		Code:    skemaforge.CodeInvalidEnum,
		Message: i18n.T(skemaforge.CodeInvalidEnum, map[string]string{"allowed": allowed}),
		Params:  map[string]any{"allowed": allowed},
	}
}

func toString(v any) (string, *skemaforge.Issue) {
	switch t := v.(type) {
	case string:
		return t, nil
	case value.Value:
		if s, ok := t.AsString(); ok {
			return s, nil
		}
	}
	return "", invalidType("string")
}

func toInt(v any) (int64, *skemaforge.Issue) {
	switch t := v.(type) {
	case int:
		return int64(t), nil
	case int8:
		return int64(t), nil
	case int16:
		return int64(t), nil
	case int32:
		return int64(t), nil
	case int64:
		return t, nil
	case uint8:
		return int64(t), nil
	case uint16:
		return int64(t), nil
	case uint32:
		return int64(t), nil
	case uint:
		if uint64(t) <= math.MaxInt64 {
			return int64(t), nil
		}
	case uint64:
		if t <= math.MaxInt64 {
			return int64(t), nil
		}
	case float32:
		return integralFloat(float64(t))
	case float64:
		return integralFloat(t)
	case json.Number:
		if i, err := strconv.ParseInt(string(t), 10, 64); err == nil {
			return i, nil
		}
		if f, err := strconv.ParseFloat(string(t), 64); err == nil {
			return integralFloat(f)
		}
	case string:
		if i, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64); err == nil {
			return i, nil
		}
		return 0, invalidFormat("integer", nil)
	case value.Value:
		if t.Kind() != value.KindBool {
			return toInt(t.ToGo())
		}
	}
	return 0, invalidType("integer")
}

func integralFloat(f float64) (int64, *skemaforge.Issue) {
	if f != math.Trunc(f) || math.IsInf(f, 0) || f > math.MaxInt64 || f < math.MinInt64 {
		return 0, invalidType("integer")
	}
	return int64(f), nil
}

func toFloat(v any) (float64, *skemaforge.Issue) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case float32:
		return float64(t), nil
	case int:
		return float64(t), nil
	case int8:
		return float64(t), nil
	case int16:
		return float64(t), nil
	case int32:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case uint:
		return float64(t), nil
	case uint8:
		return float64(t), nil
	case uint16:
		return float64(t), nil
	case uint32:
		return float64(t), nil
	case uint64:
		return float64(t), nil
	case json.Number:
		if f, err := strconv.ParseFloat(string(t), 64); err == nil {
			return f, nil
		}
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil {
			return f, nil
		}
		return 0, invalidFormat("number", nil)
	case value.Value:
		if t.Kind() != value.KindBool {
			return toFloat(t.ToGo())
		}
	}
	return 0, invalidType("number")
}

func toBool(v any) (bool, *skemaforge.Issue) {
	switch t := v.(type) {
	case bool:
		return t, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "1", "true", "yes", "y", "on", "t":
			return true, nil
		case "0", "false", "no", "n", "off", "f":
			return false, nil
		}
		return false, invalidFormat("boolean", nil)
	case value.Value:
		return toBool(t.ToGo())
	case nil:
		return false, invalidType("boolean")
	}
	if i, iss := toInt(v); iss == nil {
		switch i {
		case 0:
			return false, nil
		case 1:
			return true, nil
		}
	}
	return false, invalidType("boolean")
}

func toDate(v any) (time.Time, *skemaforge.Issue) {
	switch t := v.(type) {
	case time.Time:
		y, m, d := t.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	case string:
		d, err := time.Parse(DateLayout, strings.TrimSpace(t))
		if err != nil {
			return time.Time{}, invalidFormat("date", err)
		}
		return d, nil
	case value.Value:
		if s, ok := t.AsString(); ok {
			return toDate(s)
		}
	}
	return time.Time{}, invalidType("date")
}

var dateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	DateLayout,
}

func toDateTime(v any) (time.Time, *skemaforge.Issue) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case string:
		s := strings.TrimSpace(t)
		var lastErr error
		for _, layout := range dateTimeLayouts {
			ts, err := time.Parse(layout, s)
			if err == nil {
				return ts, nil
			}
			lastErr = err
		}
		return time.Time{}, invalidFormat("date-time", lastErr)
	case value.Value:
		if s, ok := t.AsString(); ok {
			return toDateTime(s)
		}
	}
	return time.Time{}, invalidType("date-time")
}

func toValue(v any) (value.Value, *skemaforge.Issue) {
	x, err := value.FromGo(v)
	if err != nil {
		iss := invalidType("json value")
		iss.Cause = err
		return value.Value{}, iss
	}
	return x, nil
}
