package introspect

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	skemaforge "github.com/reoring/skemaforge"
	"github.com/reoring/skemaforge/dsl"
	"github.com/reoring/skemaforge/synth"
)

type fd = skemaforge.FieldDescriptor

func TestIntrospect_SynthesizedRoundTrip(t *testing.T) {
	in := []fd{
		{Name: "name", TypeLabel: "str", Description: "who"},
		{Name: "age", TypeLabel: "int", HasDefault: true, DefaultLiteral: "42"},
		{Name: "ok", TypeLabel: "bool", HasDefault: true, DefaultLiteral: "on"},
		{Name: "tags", TypeLabel: "list[str]", HasDefault: true, DefaultLiteral: "a, b"},
		{Name: "mode", TypeLabel: "Literal['r','w']", HasDefault: true, DefaultLiteral: "w"},
		{Name: "when", TypeLabel: "date | None"},
		{Name: "blob", TypeLabel: "Dict[str, int]", Optional: true},
	}
	s := synth.MustSynthesize("T", in)
	want := []fd{
		{Name: "name", TypeLabel: "str", Description: "who"},
		{Name: "age", TypeLabel: "int", HasDefault: true, DefaultLiteral: "42"},
		{Name: "ok", TypeLabel: "bool", HasDefault: true, DefaultLiteral: "true"},
		{Name: "tags", TypeLabel: "list[str]", HasDefault: true, DefaultLiteral: `["a","b"]`},
		{Name: "mode", TypeLabel: "Literal['r','w']", HasDefault: true, DefaultLiteral: "w"},
		{Name: "when", TypeLabel: "date", Optional: true},
		{Name: "blob", TypeLabel: "Any", Optional: true},
	}
	if diff := cmp.Diff(want, Introspect(s)); diff != "" {
		t.Fatalf("descriptors (-want +got):\n%s", diff)
	}
}

func TestIntrospect_BuilderSchema(t *testing.T) {
	s := dsl.Record("B").
		Field("id", dsl.IntOf()).Required().
		Field("note", dsl.StringOf().Nullable()).Default(nil).
		Field("n", dsl.FloatOf()).Default(1.5).
		MustBuild()
	want := []fd{
		{Name: "id", TypeLabel: "int"},
		{Name: "note", TypeLabel: "str", Optional: true},
		{Name: "n", TypeLabel: "float", HasDefault: true, DefaultLiteral: "1.5"},
	}
	if diff := cmp.Diff(want, Introspect(s)); diff != "" {
		t.Fatalf("descriptors (-want +got):\n%s", diff)
	}
}

func TestFormatDefault(t *testing.T) {
	cases := []struct {
		in   any
		want string
		ok   bool
	}{
		{"abc", "abc", true},
		{int64(3), "3", true},
		{true, "true", true},
		{[]any{"x", int64(1)}, `["x",1]`, true},
		{nil, "", false},
		{make(chan int), "", false},
	}
	for _, c := range cases {
		got, ok := FormatDefault(c.in)
		if got != c.want || ok != c.ok {
			t.Fatalf("FormatDefault(%#v) = %q,%v want %q,%v", c.in, got, ok, c.want, c.ok)
		}
	}
}

type profile struct {
	Handle   string     `json:"handle" description:"login"`
	Email    *string    `json:"email,omitempty"`
	Level    int        `json:"level,omitempty" default:"1"`
	Role     string     `json:"role" enum:"'admin','user'"`
	Born     time.Time  `json:"born" format:"date"`
	Seen     *time.Time `json:"seen,omitempty"`
	Scores   []float64  `json:"scores,omitempty" default:"[1,2]"`
	Raw      []byte     `json:"raw,omitempty"`
	Meta     map[string]any
	Ignored  string `json:"-"`
	internal int
}

func TestIntrospectStruct(t *testing.T) {
	got, err := IntrospectStruct(&profile{})
	if err != nil {
		t.Fatalf("introspect: %v", err)
	}
	want := []fd{
		{Name: "handle", TypeLabel: "str", Description: "login"},
		{Name: "email", TypeLabel: "str", Optional: true},
		{Name: "level", TypeLabel: "int", HasDefault: true, DefaultLiteral: "1"},
		{Name: "role", TypeLabel: "Literal['admin','user']"},
		{Name: "born", TypeLabel: "date"},
		{Name: "seen", TypeLabel: "datetime", Optional: true},
		{Name: "scores", TypeLabel: "list[float]", HasDefault: true, DefaultLiteral: "[1,2]"},
		{Name: "raw", TypeLabel: "Any"},
		{Name: "Meta", TypeLabel: "Any"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("descriptors (-want +got):\n%s", diff)
	}
}

func TestIntrospectStruct_Errors(t *testing.T) {
	type embedded struct{ profile }
	type badTag struct {
		X int `json:x`
	}
	type badFormat struct {
		X string `json:"x" format:"date"`
	}
	cases := []struct {
		in   any
		want string
	}{
		{42, "not a struct"},
		{embedded{}, "embedded field"},
		{badTag{}, "field X"},
		{badFormat{}, "requires a time.Time field"},
	}
	for _, c := range cases {
		_, err := IntrospectStruct(c.in)
		if err == nil || !strings.Contains(err.Error(), c.want) {
			t.Fatalf("IntrospectStruct(%T) error = %v, want mention of %q", c.in, err, c.want)
		}
	}
}
