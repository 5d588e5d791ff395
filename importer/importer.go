// Package importer reads rendered Go source back into a record schema.
//
// The accepted grammar is a Go file holding exactly one struct type whose
// field types come from the label vocabulary (string, integer and float
// kinds, bool, time.Time, slices of those, any) and whose tags follow the
// format written by package gen. Every problem is reported as a positioned
// Diagnostic; Import never panics.
package importer

import (
	"context"
	"fmt"
	"go/ast"
	"go/parser"
	"go/scanner"
	"go/token"
	"strconv"
	"strings"
	"time"

	"github.com/google/go-cmp/cmp"

	skemaforge "github.com/reoring/skemaforge"
	"github.com/reoring/skemaforge/dsl"
	"github.com/reoring/skemaforge/errors"
	ir "github.com/reoring/skemaforge/internal/ir"
	"github.com/reoring/skemaforge/internal/tags"
	"github.com/reoring/skemaforge/introspect"
	"github.com/reoring/skemaforge/typelabel"
)

// DefaultTimeout bounds a single import.
const DefaultTimeout = 5 * time.Second

// Diagnostic is one positioned import problem.
type Diagnostic struct {
	Pos     token.Position
	Message string
}

func (d Diagnostic) String() string {
	if d.Pos.IsValid() {
		return d.Pos.String() + ": " + d.Message
	}
	return d.Message
}

// Error reports why source text could not be imported. It wraps
// errors.ErrImport, or errors.ErrTimeout when the deadline passed.
type Error struct {
	Diagnostics []Diagnostic
	cause       error
}

func (e *Error) Error() string {
	if len(e.Diagnostics) == 0 {
		return e.cause.Error()
	}
	msg := e.Diagnostics[0].String()
	if n := len(e.Diagnostics) - 1; n > 0 {
		msg += fmt.Sprintf(" (and %d more)", n)
	}
	return e.cause.Error() + ": " + msg
}

func (e *Error) Unwrap() error { return e.cause }

// Issues restates the diagnostics as validation issues: timeout when the
// deadline passed, parse_error otherwise.
func (e *Error) Issues() skemaforge.Issues {
	code := skemaforge.CodeParseError
	if errors.Is(e.cause, errors.ErrTimeout) {
		code = skemaforge.CodeTimeout
	}
	iss := make(skemaforge.Issues, 0, len(e.Diagnostics))
	for _, d := range e.Diagnostics {
		iss = append(iss, skemaforge.Issue{Path: "/", Code: code, Message: d.Message, Hint: d.Pos.String(), Cause: e.cause})
	}
	return iss
}

type options struct {
	timeout  time.Duration
	policy   skemaforge.UnknownPolicy
	filename string
}

// Option configures Import.
type Option func(*options)

// WithTimeout overrides DefaultTimeout. Values <= 0 keep the default.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithUnknownPolicy sets the unknown-key policy of the imported schema.
func WithUnknownPolicy(p skemaforge.UnknownPolicy) Option {
	return func(o *options) { o.policy = p }
}

// WithFilename names the source in diagnostic positions.
func WithFilename(name string) Option {
	return func(o *options) { o.filename = name }
}

type result struct {
	schema *dsl.RecordSchema
	err    error
}

// Import parses src and builds the record schema it declares.
//
// The work runs under a child context bounded by the timeout, which is
// released on every return path.
func Import(ctx context.Context, src []byte, opts ...Option) (*dsl.RecordSchema, error) {
	o := options{timeout: DefaultTimeout, policy: skemaforge.UnknownStrip, filename: "schema.go"}
	for _, opt := range opts {
		opt(&o)
	}
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	done := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: &Error{
					Diagnostics: []Diagnostic{{Message: fmt.Sprintf("internal error: %v", r)}},
					cause:       errors.ErrImport,
				}}
			}
		}()
		s, err := build(src, o)
		done <- result{schema: s, err: err}
	}()

	select {
	case r := <-done:
		return r.schema, r.err
	case <-ctx.Done():
		cause := errors.ErrImport
		msg := fmt.Sprintf("import cancelled: %v", ctx.Err())
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			cause = errors.ErrTimeout
			msg = fmt.Sprintf("import did not finish within %s", o.timeout)
		}
		return nil, &Error{Diagnostics: []Diagnostic{{Message: msg}}, cause: cause}
	}
}

// Confirm imports src and returns candidate when it describes the same
// fields as the imported schema. Otherwise the imported schema is returned.
func Confirm(ctx context.Context, src []byte, candidate *dsl.RecordSchema, opts ...Option) (*dsl.RecordSchema, error) {
	s, err := Import(ctx, src, opts...)
	if err != nil {
		return nil, err
	}
	if candidate != nil && cmp.Equal(introspect.Introspect(candidate), introspect.Introspect(s)) {
		return candidate, nil
	}
	return s, nil
}

// beforeDecode lets tests stall or break the import goroutine.
var beforeDecode = func() {}

func build(src []byte, o options) (*dsl.RecordSchema, error) {
	beforeDecode()
	rec, diags := decode(src, o.filename)
	if len(diags) > 0 {
		return nil, &Error{Diagnostics: diags, cause: errors.ErrImport}
	}
	s, err := dsl.FromIR(rec, o.policy)
	if err != nil {
		return nil, &Error{Diagnostics: []Diagnostic{{Message: err.Error()}}, cause: errors.ErrImport}
	}
	return s, nil
}

// decoder walks one parsed file.
type decoder struct {
	fset    *token.FileSet
	imports map[string]string // local name -> import path
	diags   []Diagnostic
}

func (d *decoder) errorf(pos token.Pos, format string, args ...any) {
	d.diags = append(d.diags, Diagnostic{Pos: d.fset.Position(pos), Message: fmt.Sprintf(format, args...)})
}

func decode(src []byte, filename string) (ir.Record, []Diagnostic) {
	d := &decoder{fset: token.NewFileSet(), imports: map[string]string{}}
	file, err := parser.ParseFile(d.fset, filename, src, parser.ParseComments|parser.AllErrors)
	if err != nil {
		var list scanner.ErrorList
		if errors.As(err, &list) {
			for _, e := range list {
				d.diags = append(d.diags, Diagnostic{Pos: e.Pos, Message: e.Msg})
			}
		} else {
			d.diags = append(d.diags, Diagnostic{Message: err.Error()})
		}
		return ir.Record{}, d.diags
	}

	for _, imp := range file.Imports {
		path, _ := strconv.Unquote(imp.Path.Value)
		name := path[strings.LastIndex(path, "/")+1:]
		if imp.Name != nil {
			name = imp.Name.Name
		}
		d.imports[name] = path
	}

	var structs []*ast.TypeSpec
	for _, decl := range file.Decls {
		gd, ok := decl.(*ast.GenDecl)
		if !ok || gd.Tok != token.TYPE {
			continue
		}
		for _, spec := range gd.Specs {
			ts := spec.(*ast.TypeSpec)
			if _, ok := ts.Type.(*ast.StructType); !ok {
				d.errorf(ts.Pos(), "type %s is not a struct", ts.Name.Name)
				continue
			}
			structs = append(structs, ts)
		}
	}
	switch len(structs) {
	case 0:
		if len(d.diags) == 0 {
			d.errorf(file.Package, "no struct type declaration found")
		}
		return ir.Record{}, d.diags
	case 1:
	default:
		for _, ts := range structs[1:] {
			d.errorf(ts.Pos(), "only one struct type is allowed; found %s after %s", ts.Name.Name, structs[0].Name.Name)
		}
		return ir.Record{}, d.diags
	}

	ts := structs[0]
	if ts.TypeParams != nil && len(ts.TypeParams.List) > 0 {
		d.errorf(ts.TypeParams.Pos(), "generic struct %s is not supported", ts.Name.Name)
	}
	rec := ir.Record{Name: ts.Name.Name}
	seen := map[string]token.Pos{}
	for _, field := range ts.Type.(*ast.StructType).Fields.List {
		for _, f := range d.fields(field) {
			if prev, dup := seen[f.Name]; dup {
				d.errorf(field.Pos(), "duplicate key %q (first declared at %s)", f.Name, d.fset.Position(prev))
				continue
			}
			seen[f.Name] = field.Pos()
			rec.Fields = append(rec.Fields, f)
		}
	}
	return rec, d.diags
}

// fields resolves one field declaration, which may name several fields.
func (d *decoder) fields(field *ast.Field) []ir.Field {
	if len(field.Names) == 0 {
		d.errorf(field.Pos(), "embedded field %s is not supported", exprString(field.Type))
		return nil
	}
	var info tags.Info
	if field.Tag != nil {
		raw, err := tags.Unquote(field.Tag.Value)
		if err == nil {
			info, err = tags.Parse(raw)
		}
		if err != nil {
			d.errorf(field.Tag.Pos(), "malformed tag: %v", err)
			return nil
		}
	}
	if info.Skip {
		return nil
	}
	if info.JSONName != "" && len(field.Names) > 1 {
		d.errorf(field.Pos(), "fields %s share the json name %q", joinNames(field.Names), info.JSONName)
		return nil
	}
	base, pointer, ok := d.resolveType(field.Type)
	if !ok {
		return nil
	}
	doc := commentText(field)

	var out []ir.Field
	for _, id := range field.Names {
		switch {
		case id.Name == "_":
			d.errorf(id.Pos(), "blank field cannot be keyed")
			continue
		case !id.IsExported():
			d.errorf(id.Pos(), "unexported field %s cannot be keyed", id.Name)
			continue
		}
		name := info.JSONName
		if name == "" {
			name = id.Name
		}
		f, err := ir.FieldFromTag(name, base, pointer, info, doc)
		if err != nil {
			d.errorf(field.Tag.Pos(), "%v", err)
			continue
		}
		out = append(out, f)
	}
	return out
}

// resolveType maps a Go type expression onto the label grammar. It reports
// whether the expression was a pointer and false when a diagnostic was
// recorded.
func (d *decoder) resolveType(expr ast.Expr) (typelabel.Type, bool, bool) {
	if star, ok := expr.(*ast.StarExpr); ok {
		if _, twice := star.X.(*ast.StarExpr); twice {
			d.errorf(expr.Pos(), "unsupported type %s", exprString(expr))
			return typelabel.Any(), false, false
		}
		t, ok := d.resolveElem(star.X)
		return t, true, ok
	}
	t, ok := d.resolveElem(expr)
	return t, false, ok
}

func (d *decoder) resolveElem(expr ast.Expr) (typelabel.Type, bool) {
	switch t := expr.(type) {
	case *ast.Ident:
		if sc, ok := identScalars[t.Name]; ok {
			return typelabel.ScalarOf(sc), true
		}
		if t.Name == "any" {
			return typelabel.Any(), true
		}
		d.errorf(t.Pos(), "undefined: %s", t.Name)
		return typelabel.Any(), false
	case *ast.SelectorExpr:
		pkg, ok := t.X.(*ast.Ident)
		if !ok {
			break
		}
		path, imported := d.imports[pkg.Name]
		if !imported {
			d.errorf(pkg.Pos(), "undefined: %s (missing import)", pkg.Name)
			return typelabel.Any(), false
		}
		if path == "time" && t.Sel.Name == "Time" {
			return typelabel.ScalarOf(typelabel.DateTime), true
		}
		return typelabel.Any(), true
	case *ast.ArrayType:
		elem, ok := d.resolveElem(t.Elt)
		if !ok {
			return elem, false
		}
		if t.Len == nil && elem.Kind == typelabel.KindScalar && !elem.IsTemporal() && exprString(t.Elt) != "byte" {
			return typelabel.ListOf(elem.Scalar), true
		}
		return typelabel.Any(), true
	case *ast.MapType:
		_, _, kok := d.resolveType(t.Key)
		_, _, vok := d.resolveType(t.Value)
		return typelabel.Any(), kok && vok
	case *ast.InterfaceType:
		if t.Methods == nil || len(t.Methods.List) == 0 {
			return typelabel.Any(), true
		}
	}
	d.errorf(expr.Pos(), "unsupported type %s", exprString(expr))
	return typelabel.Any(), false
}

var identScalars = map[string]typelabel.Scalar{
	"string":  typelabel.Str,
	"int":     typelabel.Int,
	"int8":    typelabel.Int,
	"int16":   typelabel.Int,
	"int32":   typelabel.Int,
	"int64":   typelabel.Int,
	"uint":    typelabel.Int,
	"uint8":   typelabel.Int,
	"uint16":  typelabel.Int,
	"uint32":  typelabel.Int,
	"uint64":  typelabel.Int,
	"byte":    typelabel.Int,
	"rune":    typelabel.Int,
	"float32": typelabel.Float,
	"float64": typelabel.Float,
	"bool":    typelabel.Bool,
}

// commentText prefers the doc comment above a field over a trailing one.
func commentText(field *ast.Field) string {
	if field.Doc != nil {
		return strings.TrimSpace(field.Doc.Text())
	}
	if field.Comment != nil {
		return strings.TrimSpace(field.Comment.Text())
	}
	return ""
}

func joinNames(ids []*ast.Ident) string {
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = id.Name
	}
	return strings.Join(names, ", ")
}

func exprString(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.StarExpr:
		return "*" + exprString(t.X)
	case *ast.SelectorExpr:
		return exprString(t.X) + "." + t.Sel.Name
	case *ast.ArrayType:
		if t.Len == nil {
			return "[]" + exprString(t.Elt)
		}
		return "[...]" + exprString(t.Elt)
	case *ast.MapType:
		return "map[" + exprString(t.Key) + "]" + exprString(t.Value)
	case *ast.InterfaceType:
		return "interface{...}"
	case *ast.StructType:
		return "struct{...}"
	case *ast.FuncType:
		return "func(...)"
	case *ast.ChanType:
		return "chan " + exprString(t.Value)
	}
	return fmt.Sprintf("%T", expr)
}
