package importer

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	skemaforge "github.com/reoring/skemaforge"
	"github.com/reoring/skemaforge/dsl"
	"github.com/reoring/skemaforge/errors"
	"github.com/reoring/skemaforge/gen"
	"github.com/reoring/skemaforge/introspect"
	"github.com/reoring/skemaforge/synth"
)

type fd = skemaforge.FieldDescriptor

var battery = []fd{
	{Name: "id", TypeLabel: "int"},
	{Name: "name", TypeLabel: "str", Description: "display name"},
	{Name: "score", TypeLabel: "float", HasDefault: true, DefaultLiteral: "0.5"},
	{Name: "active", TypeLabel: "bool", HasDefault: true, DefaultLiteral: "yes"},
	{Name: "born", TypeLabel: "date", Optional: true},
	{Name: "seen_at", TypeLabel: "datetime", Optional: true},
	{Name: "tags", TypeLabel: "list[str]", HasDefault: true, DefaultLiteral: "a,b"},
	{Name: "ratios", TypeLabel: "list[float]", Optional: true},
	{Name: "kind", TypeLabel: "Literal['A','B',1,true]", HasDefault: true, DefaultLiteral: "B"},
	{Name: "level", TypeLabel: "Literal[1,2,3]", Optional: true},
	{Name: "extra", TypeLabel: "Set[int]", Optional: true},
	{Name: "note", TypeLabel: "Optional[str]"},
	{Name: "count", TypeLabel: "int", HasDefault: true, DefaultLiteral: "abc"},
}

var samples = []map[string]any{
	{"id": 1, "name": "x"},
	{},
	{
		"id": "7", "name": "n", "born": "2020-01-02", "seen_at": "2020-01-02T03:04:05Z",
		"tags": []any{"x"}, "ratios": []any{1, 2.5}, "kind": 1, "level": 2,
		"extra": map[string]any{"a": []any{1}}, "note": nil, "count": 3,
	},
	{"id": 1.5, "name": 3, "kind": "Z", "level": 4, "born": "bad", "tags": "x", "count": 1},
	{"id": 1, "name": "n", "count": 2, "unknown": true},
	{"id": true, "name": "n", "active": "maybe", "seen_at": "2020-01-02 03:04:05", "count": 0},
}

func issueSummary(err error) []string {
	if err == nil {
		return nil
	}
	iss, ok := skemaforge.AsIssues(err)
	if !ok {
		return []string{err.Error()}
	}
	out := make([]string, len(iss))
	for i, it := range iss {
		out[i] = it.Code + " " + it.Path
	}
	return out
}

func assertSameBehaviour(t *testing.T, want, got *dsl.RecordSchema) {
	t.Helper()
	ctx := context.Background()
	for i, in := range samples {
		v1, e1 := want.Parse(ctx, in)
		v2, e2 := got.Parse(ctx, in)
		if diff := cmp.Diff(issueSummary(e1), issueSummary(e2)); diff != "" {
			t.Fatalf("sample %d issues (-synth +import):\n%s", i, diff)
		}
		if diff := cmp.Diff(v1, v2); diff != "" {
			t.Fatalf("sample %d values (-synth +import):\n%s", i, diff)
		}
	}
}

func TestImport_RenderedSourceMatchesSynthesis(t *testing.T) {
	for _, policy := range []skemaforge.UnknownPolicy{skemaforge.UnknownStrip, skemaforge.UnknownStrict} {
		src, err := gen.Render("Battery", battery, gen.Options{})
		if err != nil {
			t.Fatalf("render: %v", err)
		}
		imported, err := Import(context.Background(), src, WithUnknownPolicy(policy))
		if err != nil {
			t.Fatalf("import: %v\n%s", err, src)
		}
		synthesized := synth.MustSynthesize("Battery", battery, synth.WithUnknownPolicy(policy))
		assertSameBehaviour(t, synthesized, imported)

		if diff := cmp.Diff(introspect.Introspect(synthesized), introspect.Introspect(imported)); diff != "" {
			t.Fatalf("descriptors (-synth +import):\n%s", diff)
		}
		if imported.Name() != "Battery" {
			t.Fatalf("record name = %q", imported.Name())
		}
	}
}

func TestImport_RoundTripKeepsShape(t *testing.T) {
	src, err := gen.Render("Battery", battery, gen.Options{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	s, err := Import(context.Background(), src)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	type shape struct {
		Name     string
		Optional bool
		Label    string
	}
	var got []shape
	for _, d := range introspect.Introspect(s) {
		got = append(got, shape{d.Name, d.Optional, d.TypeLabel})
	}
	want := []shape{
		{"id", false, "int"},
		{"name", false, "str"},
		{"score", false, "float"},
		{"active", false, "bool"},
		{"born", true, "date"},
		{"seen_at", true, "datetime"},
		{"tags", false, "list[str]"},
		{"ratios", true, "list[float]"},
		{"kind", false, "Literal['A','B',1,true]"},
		{"level", true, "Literal[1,2,3]"},
		{"extra", true, "Any"},
		{"note", true, "str"},
		{"count", false, "int"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("shape (-want +got):\n%s", diff)
	}
}

func TestImport_EmptyRecord(t *testing.T) {
	src, err := gen.Render("Empty", nil, gen.Options{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	s, err := Import(context.Background(), src)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if s.Len() != 0 {
		t.Fatalf("expected no fields, got %d", s.Len())
	}
	if _, err := s.Parse(context.Background(), map[string]any{"x": 1}); err != nil {
		t.Fatalf("empty record should strip unknown keys: %v", err)
	}
}

func TestImport_HandWrittenStruct(t *testing.T) {
	src := `package models

import "time"

type Account struct {
	// Login handle.
	Handle   string            ` + "`json:\"handle\"`" + `
	Email    *string           ` + "`json:\"email,omitempty\"`" + `
	Age      int               ` + "`json:\"age,omitempty\"`" + `
	Created  time.Time
	Labels   map[string]string ` + "`json:\"labels,omitempty\"`" + `
	Internal string            ` + "`json:\"-\"`" + `
	Scores   []float32         ` + "`json:\"scores\"`" + `
}
`
	s, err := Import(context.Background(), []byte(src))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	want := []fd{
		{Name: "handle", TypeLabel: "str", Description: "Login handle."},
		{Name: "email", TypeLabel: "str", Optional: true},
		{Name: "age", TypeLabel: "int"},
		{Name: "Created", TypeLabel: "datetime"},
		{Name: "labels", TypeLabel: "Any"},
		{Name: "scores", TypeLabel: "list[float]"},
	}
	if diff := cmp.Diff(want, introspect.Introspect(s)); diff != "" {
		t.Fatalf("descriptors (-want +got):\n%s", diff)
	}
	_, err = s.Parse(context.Background(), map[string]any{"handle": "h"})
	if diff := cmp.Diff([]string{"required /Created", "required /scores"}, issueSummary(err)); diff != "" {
		t.Fatalf("issues (-want +got):\n%s", diff)
	}
}

func TestImport_MapFields(t *testing.T) {
	src := `package p

type Doc struct {
	Meta  map[string]any    ` + "`json:\"meta\"`" + `
	Index map[int]*float64  ` + "`json:\"index,omitempty\"`" + `
	Raw   map[string][]byte ` + "`json:\"raw,omitempty\"`" + `
}
`
	s, err := Import(context.Background(), []byte(src))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	want := []fd{
		{Name: "meta", TypeLabel: "Any"},
		{Name: "index", TypeLabel: "Any"},
		{Name: "raw", TypeLabel: "Any"},
	}
	if diff := cmp.Diff(want, introspect.Introspect(s)); diff != "" {
		t.Fatalf("descriptors (-want +got):\n%s", diff)
	}
	v, err := s.Parse(context.Background(), map[string]any{"meta": map[string]any{"k": []any{1, "x"}}})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, ok := v["meta"]; !ok {
		t.Fatalf("meta missing from %v", v)
	}
}

func TestImport_Diagnostics(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want string
	}{
		{"syntax", "package p\ntype T struct {\n\tA int `json:\"a\"`\n", "expected"},
		{"no struct", "package p\n\nfunc F() {}\n", "no struct type declaration found"},
		{"two structs", "package p\ntype A struct{}\ntype B struct{}\n", "only one struct type is allowed"},
		{"not a struct", "package p\ntype A string\n", "type A is not a struct"},
		{"embedded field", "package p\nimport \"io\"\ntype A struct {\n\tio.Reader\n}\n", "embedded field io.Reader is not supported"},
		{"undefined ident", "package p\ntype A struct {\n\tX Money\n}\n", "undefined: Money"},
		{"missing time import", "package p\ntype A struct {\n\tAt time.Time\n}\n", "undefined: time (missing import)"},
		{"malformed tag", "package p\ntype A struct {\n\tX int `json:x`\n}\n", "malformed tag"},
		{"unexported", "package p\ntype A struct {\n\tx int\n}\n", "unexported field x cannot be keyed"},
		{"blank", "package p\ntype A struct {\n\t_ int\n}\n", "blank field cannot be keyed"},
		{"duplicate key", "package p\ntype A struct {\n\tX int `json:\"k\"`\n\tY int `json:\"k\"`\n}\n", "duplicate key \"k\""},
		{"unsupported type", "package p\ntype A struct {\n\tC chan int\n}\n", "unsupported type chan int"},
		{"unsupported map value", "package p\ntype A struct {\n\tM map[string]chan int\n}\n", "unsupported type chan int"},
		{"format on non-time", "package p\ntype A struct {\n\tX string `json:\"x\" format:\"date\"`\n}\n", "requires a time.Time field"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := Import(context.Background(), []byte(c.src))
			if err == nil {
				t.Fatalf("expected error")
			}
			if !errors.Is(err, errors.ErrImport) {
				t.Fatalf("error should wrap ErrImport: %v", err)
			}
			var ie *Error
			if !errors.As(err, &ie) || len(ie.Diagnostics) == 0 {
				t.Fatalf("expected *Error with diagnostics, got %T", err)
			}
			var msgs []string
			for _, d := range ie.Diagnostics {
				msgs = append(msgs, d.String())
			}
			if !strings.Contains(strings.Join(msgs, "\n"), c.want) {
				t.Fatalf("diagnostics %q do not mention %q", msgs, c.want)
			}
		})
	}
}

func TestImport_DiagnosticPositions(t *testing.T) {
	src := "package p\n\ntype A struct {\n\tX Money\n}\n"
	_, err := Import(context.Background(), []byte(src), WithFilename("a.go"))
	var ie *Error
	if !errors.As(err, &ie) {
		t.Fatalf("expected *Error, got %v", err)
	}
	pos := ie.Diagnostics[0].Pos
	if pos.Filename != "a.go" || pos.Line != 4 || pos.Column != 4 {
		t.Fatalf("unexpected position %s", pos)
	}
	if iss := ie.Issues(); iss[0].Code != skemaforge.CodeParseError || iss[0].Hint != "a.go:4:4" {
		t.Fatalf("issues = %+v", iss)
	}
}

func TestImport_Timeout(t *testing.T) {
	release := make(chan struct{})
	prev := beforeDecode
	beforeDecode = func() { <-release }
	defer func() {
		close(release)
		beforeDecode = prev
	}()

	start := time.Now()
	_, err := Import(context.Background(), []byte("package p\ntype A struct{}\n"), WithTimeout(20*time.Millisecond))
	if !errors.Is(err, errors.ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	var ie *Error
	if !errors.As(err, &ie) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if iss := ie.Issues(); len(iss) != 1 || iss[0].Code != skemaforge.CodeTimeout {
		t.Fatalf("issues = %+v", iss)
	}
	if time.Since(start) > 2*time.Second {
		t.Fatalf("timeout was not honoured")
	}
}

func TestImport_ParentCancel(t *testing.T) {
	release := make(chan struct{})
	prev := beforeDecode
	beforeDecode = func() { <-release }
	defer func() {
		close(release)
		beforeDecode = prev
	}()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Import(ctx, []byte("package p\ntype A struct{}\n"))
	if !errors.Is(err, errors.ErrImport) || errors.Is(err, errors.ErrTimeout) {
		t.Fatalf("expected a cancelled import error, got %v", err)
	}
}

func TestImport_RecoversPanics(t *testing.T) {
	prev := beforeDecode
	beforeDecode = func() { panic("boom") }
	defer func() { beforeDecode = prev }()

	_, err := Import(context.Background(), []byte("package p\ntype A struct{}\n"))
	if !errors.Is(err, errors.ErrImport) || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected recovered panic, got %v", err)
	}
}

func TestConfirm(t *testing.T) {
	ctx := context.Background()
	src, err := gen.Render("Battery", battery, gen.Options{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	candidate := synth.MustSynthesize("Battery", battery)
	got, err := Confirm(ctx, src, candidate)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if got != candidate {
		t.Fatalf("matching candidate should be returned as-is")
	}

	other := synth.MustSynthesize("Other", battery[:2])
	got, err = Confirm(ctx, src, other)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if got == other || got.Len() != len(battery) {
		t.Fatalf("a mismatching candidate must be replaced by the imported schema")
	}

	if _, err := Confirm(ctx, []byte("package p"), candidate); err == nil {
		t.Fatalf("confirm must fail when the source does not import")
	}
}
