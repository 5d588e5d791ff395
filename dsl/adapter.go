package dsl

import (
	"context"

	skemaforge "github.com/reoring/skemaforge"
	"github.com/reoring/skemaforge/i18n"
	js "github.com/reoring/skemaforge/jsonschema"
	"github.com/reoring/skemaforge/typelabel"
)

// AnyAdapter adapts Schema[T] to an any-typed field slot.
// It keeps the resolved type, nullability, default and description so a
// record can be introspected and projected without reflection.
type AnyAdapter struct {
	parse         func(context.Context, any) (any, error)
	validateValue func(context.Context, any) error
	applyDefault  func(context.Context) (any, error)
	jsonSchema    func() (*js.Schema, error)
	dump          func(any) any

	typ         typelabel.Type
	nullable    bool
	hasDefault  bool
	def         any
	description string
}

// anyAdapterFromSchema wraps a strongly typed Schema[T] as AnyAdapter for Field builders.
func anyAdapterFromSchema[T any](s skemaforge.Schema[T], t typelabel.Type) AnyAdapter {
	return AnyAdapter{
		parse: func(ctx context.Context, v any) (any, error) { return s.Parse(ctx, v) },
		validateValue: func(ctx context.Context, v any) error {
			tv, ok := v.(T)
			if !ok {
				return skemaforge.Issues{skemaforge.Issue{Path: "/", Code: skemaforge.CodeInvalidType, Message: i18n.T(skemaforge.CodeInvalidType, nil), Hint: "invalid field type"}}
			}
			return s.ValidateValue(ctx, tv)
		},
		jsonSchema: s.JSONSchema,
		dump:       func(v any) any { return v },
		typ:        t,
	}
}

// Type returns the resolved field type.
func (ad AnyAdapter) Type() typelabel.Type { return ad.typ }

// IsNullable reports whether the slot was declared to accept null.
func (ad AnyAdapter) IsNullable() bool { return ad.nullable }

// Description returns the attached description, if any.
func (ad AnyAdapter) Description() string { return ad.description }

// Nullable wraps an AnyAdapter to accept nulls (JSON null) for both parse and validate.
// When the input value is nil, parsing succeeds and returns nil; validation also succeeds.
func Nullable(ad AnyAdapter) AnyAdapter {
	if ad.nullable {
		return ad
	}
	prevParse := ad.parse
	prevValidate := ad.validateValue
	prevJSON := ad.jsonSchema
	prevDump := ad.dump
	out := ad
	out.nullable = true
	out.parse = func(ctx context.Context, v any) (any, error) {
		if v == nil {
			return nil, nil
		}
		if prevParse == nil {
			return v, nil
		}
		return prevParse(ctx, v)
	}
	out.validateValue = func(ctx context.Context, v any) error {
		if v == nil {
			return nil
		}
		if prevValidate == nil {
			return nil
		}
		return prevValidate(ctx, v)
	}
	out.jsonSchema = func() (*js.Schema, error) {
		if prevJSON == nil {
			return &js.Schema{}, nil
		}
		s, err := prevJSON()
		if err != nil {
			return nil, err
		}
		return js.Nullable(s), nil
	}
	out.dump = func(v any) any {
		if v == nil {
			return nil
		}
		return prevDump(v)
	}
	return out
}

// Nullable enables fluent chaining: dsl.IntOf().Nullable()
func (ad AnyAdapter) Nullable() AnyAdapter { return Nullable(ad) }

// Describe attaches a description that is exported to JSON Schema and
// reported by introspection. An empty text clears it.
func (ad AnyAdapter) Describe(text string) AnyAdapter {
	ad.description = text
	return ad
}

// Parse runs the adapter's coercion and validation on v.
func (ad AnyAdapter) Parse(ctx context.Context, v any) (any, error) { return ad.parse(ctx, v) }

// Dump converts a parsed value to plain JSON-ready data.
func (ad AnyAdapter) Dump(v any) any {
	if ad.dump == nil {
		return v
	}
	return ad.dump(v)
}
