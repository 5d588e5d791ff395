// Package synth turns field descriptors into runtime record schemas.
//
// Synthesize is a pure function of its inputs: equal descriptor lists give
// schemas with identical validation behaviour, and the caller's slice is
// never modified.
package synth

import (
	"context"
	"strings"

	skemaforge "github.com/reoring/skemaforge"
	"github.com/reoring/skemaforge/dsl"
	ir "github.com/reoring/skemaforge/internal/ir"
	"github.com/reoring/skemaforge/typelabel"
)

type options struct {
	policy skemaforge.UnknownPolicy
}

// Option configures Synthesize.
type Option func(*options)

// WithUnknownPolicy selects how keys outside the declared fields are
// handled. The default is skemaforge.UnknownStrip.
func WithUnknownPolicy(p skemaforge.UnknownPolicy) Option {
	return func(o *options) { o.policy = p }
}

// Synthesize builds a record schema named name from fields.
//
// Each label is normalized and parsed; an Optional[...] or "| None" label
// marks the field nullable like the Optional flag does. Defaults follow
// three rules, first match wins: a non-empty default literal is coerced to
// the field type; an optional field defaults to null; anything else is
// required.
func Synthesize(name string, fields []skemaforge.FieldDescriptor, opts ...Option) (*dsl.RecordSchema, error) {
	o := options{policy: skemaforge.UnknownStrip}
	for _, opt := range opts {
		opt(&o)
	}
	return dsl.FromIR(ir.Resolve(name, fields), o.policy)
}

// MustSynthesize is like Synthesize but panics on error.
func MustSynthesize(name string, fields []skemaforge.FieldDescriptor, opts ...Option) *dsl.RecordSchema {
	s, err := Synthesize(name, fields, opts...)
	if err != nil {
		panic(err)
	}
	return s
}

// FromForm validates text input as submitted by a form. Blank values count
// as absent so that defaults and the required rule apply; other values are
// coerced with the field's type before parsing. List fields accept a JSON
// array or comma separated items.
func FromForm(ctx context.Context, s *dsl.RecordSchema, form map[string]string) (map[string]any, error) {
	types := make(map[string]typelabel.Type, s.Len())
	for _, f := range s.Fields() {
		types[f.Name] = f.Type
	}
	in := make(map[string]any, len(form))
	for k, text := range form {
		if strings.TrimSpace(text) == "" {
			continue
		}
		t, ok := types[k]
		if !ok {
			in[k] = text
			continue
		}
		in[k] = typelabel.CoerceText(t, text).ToGo()
	}
	return s.Parse(ctx, in)
}
