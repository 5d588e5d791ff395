package typelabel

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/reoring/skemaforge/value"
)

func TestParse_Vocabulary(t *testing.T) {
	cases := map[string]Type{
		"str":         ScalarOf(Str),
		"int":         ScalarOf(Int),
		"float":       ScalarOf(Float),
		"bool":        ScalarOf(Bool),
		"date":        ScalarOf(Date),
		"datetime":    ScalarOf(DateTime),
		"Any":         Any(),
		"list[str]":   ListOf(Str),
		"list[int]":   ListOf(Int),
		"list[float]": ListOf(Float),
		"list[bool]":  ListOf(Bool),
	}
	for label, want := range cases {
		got := Parse(label)
		if !got.Equal(want) {
			t.Fatalf("Parse(%q) = %#v, want %#v", label, got, want)
		}
		if r := Render(got); r != label {
			t.Fatalf("Render(Parse(%q)) = %q", label, r)
		}
	}
}

func TestParse_LiteralTuple(t *testing.T) {
	got := Parse("Literal['A','B',1,true]")
	if got.Kind != KindLiteral {
		t.Fatalf("expected literal kind, got %v", got.Kind)
	}
	want := []value.Value{value.String("A"), value.String("B"), value.Int(1), value.Bool(true)}
	if diff := cmp.Diff(want, got.Values); diff != "" {
		t.Fatalf("literal values mismatch (-want +got):\n%s", diff)
	}
	for i, v := range got.Values {
		if v.Kind() != want[i].Kind() {
			t.Fatalf("item %d kind = %s, want %s", i, v.Kind(), want[i].Kind())
		}
	}
}

func TestParse_LiteralClassificationOrder(t *testing.T) {
	got := Parse(`Literal[ "x" , TRUE, False, -3, 2.5, 1e3, plain, 'a,b', A, A ]`)
	want := []value.Value{
		value.String("x"),
		value.Bool(true),
		value.Bool(false),
		value.Int(-3),
		value.Float(2.5),
		value.Float(1000),
		value.String("plain"),
		value.String("a,b"),
		value.String("A"),
		value.String("A"),
	}
	if diff := cmp.Diff(want, got.Values); diff != "" {
		t.Fatalf("literal values mismatch (-want +got):\n%s", diff)
	}
}

func TestRender_LiteralCanonical(t *testing.T) {
	cases := []string{
		"Literal['A','B',1,true]",
		"Literal[1.5,2.0,-7]",
		`Literal["it's",'ok']`,
		"Literal[]",
	}
	for _, label := range cases {
		if got := Render(Parse(label)); got != label {
			t.Fatalf("round trip %q -> %q", label, got)
		}
	}
	// floats keep their kind even when integral
	lit := Parse(Render(LiteralOf(value.Float(2))))
	if lit.Values[0].Kind() != value.KindFloat {
		t.Fatalf("float literal re-parsed as %s", lit.Values[0].Kind())
	}
}

func TestParse_UnsupportedFallsBackToAny(t *testing.T) {
	for _, label := range []string{"Set[int]", "List[str]", "STR", "dict[str,int]", "", "Literal[", "list[date]"} {
		if got := Parse(label); got.Kind != KindAny {
			t.Fatalf("Parse(%q) = %v, want Any", label, got)
		}
	}
	if Render(Parse("Set[int]")) != "Any" {
		t.Fatalf("unsupported label should render as Any")
	}
}

func TestNormalize(t *testing.T) {
	cases := []struct {
		in       string
		core     string
		optional bool
	}{
		{"str", "str", false},
		{"Optional[int]", "int", true},
		{"list[str] | None", "list[str]", true},
		{"None | float", "float", true},
		{" date ", "date", false},
		{"Literal['a|b']", "Literal['a|b']", false},
	}
	for _, c := range cases {
		core, opt := Normalize(c.in)
		if core != c.core || opt != c.optional {
			t.Fatalf("Normalize(%q) = (%q,%v), want (%q,%v)", c.in, core, opt, c.core, c.optional)
		}
	}
}

func TestCoerceText_Defaults(t *testing.T) {
	boolT := ScalarOf(Bool)
	for text, want := range map[string]bool{"yes": true, "Y": true, "on": true, "1": true, "TRUE": true, "no": false, "maybe": false, "": false} {
		got := CoerceText(boolT, text)
		if b, ok := got.AsBool(); !ok || b != want {
			t.Fatalf("CoerceText(bool, %q) = %v, want %v", text, got, want)
		}
	}
	if v := CoerceText(ScalarOf(Int), "42"); !value.Equal(v, value.Int(42)) || v.Kind() != value.KindInt {
		t.Fatalf("int coercion: %v", v)
	}
	if v := CoerceText(ScalarOf(Int), "abc"); v.Kind() != value.KindString {
		t.Fatalf("failed int coercion must keep the text, got %v", v)
	}
	if v := CoerceText(ScalarOf(Float), "2"); v.Kind() != value.KindFloat {
		t.Fatalf("float coercion: %v", v)
	}
	if v := CoerceText(ScalarOf(Str), "12"); v.Kind() != value.KindString {
		t.Fatalf("str must stay text: %v", v)
	}
}

func TestCoerceText_LiteralAndList(t *testing.T) {
	lit := Parse("Literal['1',2,'x']")
	if v := CoerceText(lit, "2"); v.Kind() != value.KindInt {
		t.Fatalf("literal int member expected, got %v", v)
	}
	if v := CoerceText(lit, "1"); v.Kind() != value.KindString {
		t.Fatalf("literal '1' should resolve to the string member, got %v", v)
	}
	if v := CoerceText(lit, "zzz"); !value.Equal(v, value.String("zzz")) {
		t.Fatalf("unmatched literal text should be kept, got %v", v)
	}

	got := CoerceText(ListOf(Int), "1, 2,x")
	want := value.List(value.Int(1), value.Int(2), value.String("x"))
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("list coercion (-want +got):\n%s", diff)
	}
	got = CoerceText(ListOf(Str), `["a","b"]`)
	if diff := cmp.Diff(value.List(value.String("a"), value.String("b")), got); diff != "" {
		t.Fatalf("json list coercion (-want +got):\n%s", diff)
	}
	got = CoerceText(ListOf(Float), "[1, 2.5]")
	if diff := cmp.Diff(value.List(value.Float(1), value.Float(2.5)), got); diff != "" {
		t.Fatalf("json numbers should follow the element type (-want +got):\n%s", diff)
	}
}

func TestFormatText(t *testing.T) {
	cases := map[string]value.Value{
		"abc":     value.String("abc"),
		"3":       value.Int(3),
		"2.0":     value.Float(2),
		"true":    value.Bool(true),
		`["a",1]`: value.List(value.String("a"), value.Int(1)),
	}
	for want, v := range cases {
		if got := FormatText(v); got != want {
			t.Fatalf("FormatText(%v) = %q, want %q", v, got, want)
		}
	}
}
