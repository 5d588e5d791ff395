// Package dsl provides the runtime record schema used by skemaforge.
//
// Overview
//   - Builder API: declare record semantics (unknown/required/default/description) with
//     Record()/Field()/Required()/Default()/UnknownStrict()/Build().
//   - Field adapters: StringOf/IntOf/FloatOf/BoolOf/DateOf/DateTimeOf, ListOf(elem),
//     LiteralOf(members...) and AnyOf() cover the closed set of label types.
//   - Registry: FromType maps a typelabel.Type to its adapter; FromIR builds a whole
//     record from resolved fields.
//
// File layout (roles)
//   - adapter.go: AnyAdapter and Nullable.
//   - primitives.go: scalar schemas, Literal, AnyValue and their coercions.
//   - list.go: homogeneous list schema.
//   - record_builder.go: RecordBuilder/FieldStep and Build/MustBuild.
//   - record.go: RecordSchema (Parse/Validate/JSONSchema/Fields/Dump).
//   - registry.go: FromType/FromIR.
//
// # Error model
//
// Parse reports every offending field as skemaforge.Issues, in declaration
// order, followed by unknown keys in sorted order. Set skemaforge.WithFailFast
// on the context to stop at the first issue.
//
// # Example
//
//	person := dsl.Record("Person").
//	    Field("name", dsl.StringOf()).Required().
//	    Field("age", dsl.IntOf().Nullable()).Default(nil).
//	    Field("tags", dsl.ListOf(dsl.StringOf())).Default([]any{}).
//	    MustBuild()
//	out, err := person.Parse(ctx, map[string]any{"name": "Ada", "age": "36"})
//	// out => map[name:Ada age:36 tags:[]]
//
// Unknown keys are dropped by default (UnknownStrip). UnknownStrict turns them
// into unknown_key issues and exports additionalProperties=false.
package dsl
