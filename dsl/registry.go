package dsl

import (
	skemaforge "github.com/reoring/skemaforge"
	ir "github.com/reoring/skemaforge/internal/ir"
	"github.com/reoring/skemaforge/typelabel"
)

var scalarAdapters = map[typelabel.Scalar]func() AnyAdapter{
	typelabel.Str:      StringOf,
	typelabel.Int:      IntOf,
	typelabel.Float:    FloatOf,
	typelabel.Bool:     BoolOf,
	typelabel.Date:     DateOf,
	typelabel.DateTime: DateTimeOf,
}

// FromType maps each variant of the closed type set to its field adapter.
// Unknown scalars degrade to AnyOf.
func FromType(t typelabel.Type) AnyAdapter {
	switch t.Kind {
	case typelabel.KindScalar:
		if mk, ok := scalarAdapters[t.Scalar]; ok {
			return mk()
		}
	case typelabel.KindList:
		if mk, ok := scalarAdapters[t.Scalar]; ok {
			return ListOf(mk())
		}
	case typelabel.KindLiteral:
		return LiteralOf(t.Values...)
	}
	return AnyOf()
}

// FromIR builds a record schema from resolved fields.
func FromIR(rec ir.Record, policy skemaforge.UnknownPolicy) (*RecordSchema, error) {
	b := Record(rec.Name).Unknown(policy)
	for _, f := range rec.Fields {
		ad := FromType(f.Type).Describe(f.Description)
		if f.Nullable {
			ad = ad.Nullable()
		}
		step := b.Field(f.Name, ad)
		switch {
		case f.Required:
			step.Required()
		case f.HasDefault:
			step.Default(f.Default.ToGo())
		}
	}
	return b.Build()
}
