// Package skemaforge builds record schemas from editable field descriptors.
//
// A list of FieldDescriptor values is the single source of truth. From it
// the module produces:
//
//   - a runtime record schema (package synth, built on package dsl) that
//     validates and coerces map[string]any input and reports every offending
//     field as Issues
//   - Go source text defining an equivalent struct (package gen)
//
// Package importer parses that source back into a runtime schema and
// package introspect recovers descriptors from any runtime schema, closing
// the loop. Persisted schemas live in a catalog directory (package catalog).
//
// Typical usage:
//
//	s, err := synth.Synthesize("Person", fields)
//	v, err := skemaforge.ParseFrom[map[string]any](ctx, s, skemaforge.JSONBytes(data))
//	src, err := gen.Render("Person", fields, gen.Options{})
package skemaforge
