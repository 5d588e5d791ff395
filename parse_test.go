package skemaforge_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"

	skemaforge "github.com/reoring/skemaforge"
	g "github.com/reoring/skemaforge/dsl"
)

func firstIssue(t *testing.T, err error) skemaforge.Issue {
	t.Helper()
	iss, ok := skemaforge.AsIssues(err)
	if !ok || len(iss) == 0 {
		t.Fatalf("expected issues, got: %v", err)
	}
	return iss[0]
}

func TestParseFrom_JSONAndYAML(t *testing.T) {
	ctx := context.Background()
	s := g.Record("Item").
		Field("name", g.StringOf()).Required().
		Field("count", g.IntOf()).Default(1).
		Field("tags", g.ListOf(g.StringOf())).Optional().
		MustBuild()

	want := map[string]any{"name": "x", "count": int64(3), "tags": []any{"a"}}

	got, err := skemaforge.ParseFrom[map[string]any](ctx, s, skemaforge.JSONBytes([]byte(`{"name":"x","count":3,"tags":["a"],"other":1}`)))
	if err != nil {
		t.Fatalf("json: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("json (-want +got):\n%s", diff)
	}

	got, err = skemaforge.ParseFrom[map[string]any](ctx, s, skemaforge.YAMLBytes([]byte("name: x\ncount: 3\ntags: [a]\n")))
	if err != nil {
		t.Fatalf("yaml: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("yaml (-want +got):\n%s", diff)
	}

	got, err = skemaforge.ParseFrom[map[string]any](ctx, s, skemaforge.JSONReader(strings.NewReader(`{"name":"y"}`)))
	if err != nil {
		t.Fatalf("defaults: %v", err)
	}
	if diff := cmp.Diff(map[string]any{"name": "y", "count": int64(1)}, got); diff != "" {
		t.Fatalf("defaults (-want +got):\n%s", diff)
	}
}

func TestParseFrom_DecodeErrors(t *testing.T) {
	ctx := context.Background()
	s := g.Record("R").Field("a", g.IntOf()).MustBuild()

	cases := map[string]skemaforge.Source{
		"trailing data": skemaforge.JSONBytes([]byte(`{"a":1} {"a":2}`)),
		"syntax":        skemaforge.JSONBytes([]byte(`{"a":`)),
		"yaml syntax":   skemaforge.YAMLBytes([]byte("a: [1,\n")),
		"yaml dup keys": skemaforge.YAMLBytes([]byte("a: 1\na: 2\n")),
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := skemaforge.ParseFrom[map[string]any](ctx, s, src)
			if it := firstIssue(t, err); it.Code != skemaforge.CodeParseError || it.Path != "/" {
				t.Fatalf("got %s at %s", it.Code, it.Path)
			}
		})
	}

	if _, err := skemaforge.ParseFrom[map[string]any](ctx, nil, skemaforge.JSONBytes([]byte(`{}`))); err == nil {
		t.Fatalf("nil schema must fail")
	}
}

func TestStreamParse_MaxBytes(t *testing.T) {
	ctx := context.Background()
	s := g.Record("R").Field("a", g.StringOf()).MustBuild()
	doc := `{"a":"0123456789"}`

	_, err := skemaforge.StreamParse[map[string]any](ctx, s, strings.NewReader(doc), skemaforge.ParseOpt{MaxBytes: 8})
	if it := firstIssue(t, err); it.Code != skemaforge.CodeTruncated {
		t.Fatalf("code = %s", it.Code)
	}

	v, err := skemaforge.StreamParse[map[string]any](ctx, s, strings.NewReader(doc), skemaforge.ParseOpt{MaxBytes: int64(len(doc))})
	if err != nil || v["a"] != "0123456789" {
		t.Fatalf("at the limit: %v, %v", v, err)
	}

	v, err = skemaforge.StreamParse[map[string]any](ctx, s, strings.NewReader(doc))
	if err != nil || v["a"] != "0123456789" {
		t.Fatalf("unbounded: %v, %v", v, err)
	}
}

func TestWithNumberMode(t *testing.T) {
	ctx := context.Background()
	s := g.Record("R").Field("n", g.IntOf()).Optional().UnknownPassthrough().MustBuild()
	doc := []byte(`{"n":2,"x":1.5}`)

	v, err := skemaforge.ParseFrom[map[string]any](ctx, s, skemaforge.JSONBytes(doc))
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := v["x"].(json.Number); !ok {
		t.Fatalf("default mode should keep json.Number, got %T", v["x"])
	}

	src := skemaforge.WithNumberMode(skemaforge.JSONBytes(doc), skemaforge.NumberFloat64)
	if src.NumberMode() != skemaforge.NumberFloat64 {
		t.Fatalf("mode not applied")
	}
	v, err = skemaforge.ParseFrom[map[string]any](ctx, s, src)
	if err != nil {
		t.Fatal(err)
	}
	if v["x"] != 1.5 || v["n"] != int64(2) {
		t.Fatalf("float mode = %#v", v)
	}
}

func TestDuplicateKeys(t *testing.T) {
	cases := []struct {
		name string
		doc  string
		want []string
	}{
		{"none", `{"a":1,"b":{"a":2}}`, nil},
		{"top level", `{"a":1,"b":2,"a":3}`, []string{"/a"}},
		{"nested in array", `[{"a":1,"a":2},{"a":1}]`, []string{"/0/a"}},
		{"deep", `{"x":[1,{"y":{"k":1,"k":2}}]}`, []string{"/x/1/y/k"}},
		{"escaped", `{"a/b":1,"a/b":2,"t~":1,"t~":2}`, []string{"/a~1b", "/t~0"}},
		{"repeated thrice", `{"a":1,"a":2,"a":3}`, []string{"/a", "/a"}},
		{"scalar", `42`, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			iss, err := skemaforge.DuplicateKeys([]byte(tc.doc))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			var got []string
			for _, it := range iss {
				if it.Code != skemaforge.CodeDuplicateKey {
					t.Fatalf("code = %s", it.Code)
				}
				got = append(got, it.Path)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("paths (-want +got):\n%s", diff)
			}
		})
	}

	for _, doc := range []string{`{"a":`, `[1,`, `{"a":{"b":1}`, `{"a":1,"a":2`} {
		if _, err := skemaforge.DuplicateKeys([]byte(doc)); err == nil {
			t.Fatalf("%s: expected a syntax error", doc)
		}
	}
}

func TestParseFrom_RejectDuplicateKeys(t *testing.T) {
	ctx := context.Background()
	s := g.Record("R").Field("a", g.IntOf()).MustBuild()
	doc := []byte(`{"a":1,"a":2}`)

	v, err := skemaforge.ParseFrom[map[string]any](ctx, s, skemaforge.JSONBytes(doc))
	if err != nil || v["a"] != int64(2) {
		t.Fatalf("without the option the last value wins: %v, %v", v, err)
	}

	_, err = skemaforge.ParseFrom[map[string]any](ctx, s, skemaforge.JSONBytes(doc), skemaforge.ParseOpt{RejectDuplicateKeys: true})
	it := firstIssue(t, err)
	if it.Code != skemaforge.CodeDuplicateKey || it.Path != "/a" || it.Params["key"] != "a" {
		t.Fatalf("got %+v", it)
	}

	v, err = skemaforge.ParseFrom[map[string]any](ctx, s, skemaforge.JSONBytes([]byte(`{"a":5}`)), skemaforge.ParseOpt{RejectDuplicateKeys: true})
	if err != nil || v["a"] != int64(5) {
		t.Fatalf("clean input: %v, %v", v, err)
	}
}

func TestParseFrom_DoneContext(t *testing.T) {
	s := g.Record("R").Field("a", g.IntOf()).MustBuild()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := skemaforge.ParseFrom[map[string]any](ctx, s, skemaforge.JSONBytes([]byte(`{"a":1}`)))
	it := firstIssue(t, err)
	if it.Code != skemaforge.CodeTimeout || it.Path != "/" || !errors.Is(it.Cause, context.Canceled) {
		t.Fatalf("got %+v", it)
	}
}
