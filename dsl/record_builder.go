package dsl

import (
	"context"
	"strings"

	skemaforge "github.com/reoring/skemaforge"
	"github.com/reoring/skemaforge/i18n"
	js "github.com/reoring/skemaforge/jsonschema"
)

type recordField struct {
	name     string
	ad       AnyAdapter
	required bool
}

// RecordBuilder assembles a RecordSchema field by field. Fields keep their
// declaration order; registering a name twice replaces the earlier adapter
// in place.
type RecordBuilder struct {
	name          string
	fields        []recordField
	index         map[string]int
	unknownPolicy skemaforge.UnknownPolicy
}

// FieldStep configures the most recently registered field.
type FieldStep struct {
	b   *RecordBuilder
	pos int
}

// Record creates a new builder with the default unknown-key policy
// (UnknownStrip).
func Record(name string) *RecordBuilder {
	return &RecordBuilder{
		name:          name,
		index:         map[string]int{},
		unknownPolicy: skemaforge.UnknownStrip,
	}
}

// Field registers a field with its adapter. Fields are optional until
// Required is called.
func (b *RecordBuilder) Field(name string, ad AnyAdapter) *FieldStep {
	if i, ok := b.index[name]; ok {
		b.fields[i] = recordField{name: name, ad: ad}
		return &FieldStep{b: b, pos: i}
	}
	b.index[name] = len(b.fields)
	b.fields = append(b.fields, recordField{name: name, ad: ad})
	return &FieldStep{b: b, pos: len(b.fields) - 1}
}

// Required marks the field as required and returns the builder.
func (f *FieldStep) Required() *RecordBuilder {
	f.b.fields[f.pos].required = true
	return f.b
}

// Optional marks the field as optional (default) and returns the builder.
func (f *FieldStep) Optional() *RecordBuilder {
	f.b.fields[f.pos].required = false
	return f.b
}

// Default sets a default for the current field and exports it to JSON
// Schema. The default is applied by parsing v through the field adapter, so
// a default that does not fit the type surfaces as an issue when used.
func (f *FieldStep) Default(v any) *RecordBuilder {
	rf := &f.b.fields[f.pos]
	ad := rf.ad
	parse := ad.parse
	ad.applyDefault = func(ctx context.Context) (any, error) { return parse(ctx, v) }
	ad.hasDefault = true
	ad.def = v
	rf.ad = ad
	rf.required = false
	return f.b
}

// Describe attaches a description to the current field.
func (f *FieldStep) Describe(text string) *FieldStep {
	f.b.fields[f.pos].ad = f.b.fields[f.pos].ad.Describe(text)
	return f
}

func (f *FieldStep) Field(name string, ad AnyAdapter) *FieldStep { return f.b.Field(name, ad) }
func (f *FieldStep) Build() (*RecordSchema, error)               { return f.b.Build() }
func (f *FieldStep) MustBuild() *RecordSchema                    { return f.b.MustBuild() }

// Unknown sets the unknown-key policy.
func (b *RecordBuilder) Unknown(p skemaforge.UnknownPolicy) *RecordBuilder {
	b.unknownPolicy = p
	return b
}

// UnknownStrict rejects keys that match no field.
func (b *RecordBuilder) UnknownStrict() *RecordBuilder { return b.Unknown(skemaforge.UnknownStrict) }

// UnknownStrip drops keys that match no field.
func (b *RecordBuilder) UnknownStrip() *RecordBuilder { return b.Unknown(skemaforge.UnknownStrip) }

// UnknownPassthrough keeps keys that match no field in the output.
func (b *RecordBuilder) UnknownPassthrough() *RecordBuilder {
	return b.Unknown(skemaforge.UnknownPassthrough)
}

// Build validates the builder and returns a RecordSchema.
func (b *RecordBuilder) Build() (*RecordSchema, error) {
	var iss skemaforge.Issues
	for i, f := range b.fields {
		if strings.TrimSpace(f.name) == "" {
			iss = skemaforge.AppendIssues(iss, skemaforge.Issue{Path: "/", Code: skemaforge.CodeParseError, Message: i18n.T(skemaforge.CodeParseError, nil), Hint: "field name must not be empty", Params: map[string]any{"position": i}})
		}
		if f.ad.parse == nil {
			iss = skemaforge.AppendIssues(iss, skemaforge.Issue{Path: "/" + f.name, Code: skemaforge.CodeInvalidType, Message: i18n.T(skemaforge.CodeInvalidType, nil), Hint: "field adapter is not initialized"})
		}
	}
	if len(iss) > 0 {
		return nil, iss
	}
	fields := make([]recordField, len(b.fields))
	copy(fields, b.fields)
	index := make(map[string]int, len(fields))
	for i, f := range fields {
		index[f.name] = i
		if f.ad.jsonSchema == nil {
			fields[i].ad.jsonSchema = func() (*js.Schema, error) { return &js.Schema{}, nil }
		}
	}
	return &RecordSchema{name: b.name, fields: fields, index: index, unknownPolicy: b.unknownPolicy}, nil
}

// MustBuild is like Build but panics on error.
func (b *RecordBuilder) MustBuild() *RecordSchema {
	s, err := b.Build()
	if err != nil {
		panic(err)
	}
	return s
}
