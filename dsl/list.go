package dsl

import (
	"context"
	"strconv"

	skemaforge "github.com/reoring/skemaforge"
	"github.com/reoring/skemaforge/i18n"
	js "github.com/reoring/skemaforge/jsonschema"
	"github.com/reoring/skemaforge/typelabel"
	"github.com/reoring/skemaforge/value"
)

// listSchema validates a sequence whose items all satisfy elem. Item issues
// are rebased under "/<index>" and every offending item is reported.
type listSchema struct {
	elem AnyAdapter
}

var _ skemaforge.Schema[[]any] = (*listSchema)(nil)

func (l *listSchema) items(v any) ([]any, bool) {
	switch t := v.(type) {
	case []any:
		return t, true
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out, true
	case value.Value:
		if t.Kind() == value.KindList {
			xs, _ := t.ToGo().([]any)
			return xs, true
		}
	}
	return nil, false
}

func (l *listSchema) Parse(ctx context.Context, v any) ([]any, error) {
	src, ok := l.items(v)
	if !ok {
		return nil, skemaforge.Issues{skemaforge.Issue{Path: "/", Code: skemaforge.CodeInvalidType, Message: i18n.T(skemaforge.CodeInvalidType, map[string]string{"expected": "array"}), Hint: "expected array"}}
	}
	out := make([]any, len(src))
	var iss skemaforge.Issues
	for i, item := range src {
		parsed, err := l.elem.parse(ctx, item)
		if err != nil {
			iss = skemaforge.AppendIssues(iss, skemaforge.Rebase("/"+strconv.Itoa(i), issuesFromErr("/", err))...)
			if skemaforge.IsFailFast(ctx) {
				return nil, iss
			}
			continue
		}
		out[i] = parsed
	}
	if len(iss) > 0 {
		return nil, iss
	}
	return out, nil
}

func (l *listSchema) TypeCheck(ctx context.Context, v any) error {
	_, err := l.Parse(ctx, v)
	return err
}

func (l *listSchema) RuleCheck(ctx context.Context, v any) error { return nil }

func (l *listSchema) Validate(ctx context.Context, v any) error {
	if err := l.TypeCheck(ctx, v); err != nil {
		return err
	}
	return l.RuleCheck(ctx, v)
}

func (l *listSchema) ValidateValue(ctx context.Context, v []any) error {
	var iss skemaforge.Issues
	for i, item := range v {
		if err := l.elem.validateValue(ctx, item); err != nil {
			iss = skemaforge.AppendIssues(iss, skemaforge.Rebase("/"+strconv.Itoa(i), issuesFromErr("/", err))...)
		}
	}
	if len(iss) > 0 {
		return iss
	}
	return nil
}

func (l *listSchema) JSONSchema() (*js.Schema, error) {
	item, err := l.elem.jsonSchema()
	if err != nil {
		return nil, err
	}
	return &js.Schema{Type: "array", Items: item}, nil
}

// ListOf builds a list slot over a scalar element adapter.
func ListOf(elem AnyAdapter) AnyAdapter {
	ad := anyAdapterFromSchema[[]any](&listSchema{elem: elem}, typelabel.ListOf(elem.typ.Scalar))
	ad.dump = func(v any) any {
		xs, ok := v.([]any)
		if !ok {
			return v
		}
		out := make([]any, len(xs))
		for i, x := range xs {
			out[i] = elem.Dump(x)
		}
		return out
	}
	return ad
}

// issuesFromErr converts an error into Issues, wrapping non-Issues with CodeParseError.
func issuesFromErr(path string, err error) skemaforge.Issues {
	if err == nil {
		return nil
	}
	if i2, ok := skemaforge.AsIssues(err); ok {
		return i2
	}
	return skemaforge.Issues{skemaforge.Issue{Path: path, Code: skemaforge.CodeParseError, Message: err.Error(), Cause: err}}
}
