package dsl

import (
	"context"
	"sort"

	json "github.com/goccy/go-json"

	skemaforge "github.com/reoring/skemaforge"
	"github.com/reoring/skemaforge/i18n"
	js "github.com/reoring/skemaforge/jsonschema"
	"github.com/reoring/skemaforge/typelabel"
)

// RecordSchema validates string-keyed mappings against an ordered list of
// fields. It is immutable once built.
type RecordSchema struct {
	name          string
	fields        []recordField
	index         map[string]int
	unknownPolicy skemaforge.UnknownPolicy
}

// Ensure RecordSchema implements skemaforge.Schema[map[string]any]
var _ skemaforge.Schema[map[string]any] = (*RecordSchema)(nil)

// FieldInfo is the read-only view of one record field.
type FieldInfo struct {
	Name        string
	Type        typelabel.Type
	Nullable    bool
	Required    bool
	HasDefault  bool
	Default     any // the default as declared; nil for a null default
	Description string
}

// Name returns the record type name.
func (o *RecordSchema) Name() string { return o.name }

// Len returns the number of fields.
func (o *RecordSchema) Len() int { return len(o.fields) }

// UnknownPolicy returns the unknown-key policy.
func (o *RecordSchema) UnknownPolicy() skemaforge.UnknownPolicy { return o.unknownPolicy }

// Fields returns the field views in declaration order.
func (o *RecordSchema) Fields() []FieldInfo {
	out := make([]FieldInfo, len(o.fields))
	for i, f := range o.fields {
		out[i] = FieldInfo{
			Name:        f.name,
			Type:        f.ad.typ,
			Nullable:    f.ad.nullable,
			Required:    f.required,
			HasDefault:  f.ad.hasDefault,
			Default:     f.ad.def,
			Description: f.ad.description,
		}
	}
	return out
}

// Adapter returns the adapter registered for name.
func (o *RecordSchema) Adapter(name string) (AnyAdapter, bool) {
	i, ok := o.index[name]
	if !ok {
		return AnyAdapter{}, false
	}
	return o.fields[i].ad, true
}

// WithUnknownPolicy returns a copy of the schema using policy p.
func (o *RecordSchema) WithUnknownPolicy(p skemaforge.UnknownPolicy) *RecordSchema {
	cp := *o
	cp.unknownPolicy = p
	return &cp
}

// handleExistingField parses a present field value, rebasing child issues under "/field".
func (o *RecordSchema) handleExistingField(ctx context.Context, f recordField, val any) (any, skemaforge.Issues) {
	parsed, err := f.ad.parse(ctx, val)
	if err != nil {
		return nil, skemaforge.Rebase("/"+f.name, issuesFromErr("/", err))
	}
	return parsed, nil
}

// handleMissingField applies a default when available; returns handled=true if the default path executed.
func (o *RecordSchema) handleMissingField(ctx context.Context, f recordField) (any, skemaforge.Issues, bool) {
	if f.ad.applyDefault == nil {
		return nil, nil, false
	}
	dv, err := f.ad.applyDefault(ctx)
	if err != nil {
		iss := skemaforge.Rebase("/"+f.name, issuesFromErr("/", err))
		for i := range iss {
			iss[i].Hint = "default value does not fit the field type"
		}
		return nil, iss, true
	}
	return dv, nil, true
}

func requiredIssue(name string) skemaforge.Issue {
	return skemaforge.Issue{
		Path:    "/" + name,
		Code:    skemaforge.CodeRequired,
		Message: i18n.T(skemaforge.CodeRequired, map[string]string{"field": name}),
		Hint:    "required property missing",
		Params:  map[string]any{"field": name},
	}
}

// collectKnown parses known fields in declaration order and applies defaults.
func (o *RecordSchema) collectKnown(ctx context.Context, src map[string]any) (map[string]any, skemaforge.Issues) {
	out := make(map[string]any, len(o.fields))
	var iss skemaforge.Issues
	for _, f := range o.fields {
		if val, exists := src[f.name]; exists {
			parsed, i2 := o.handleExistingField(ctx, f, val)
			if len(i2) > 0 {
				iss = skemaforge.AppendIssues(iss, i2...)
				if skemaforge.IsFailFast(ctx) {
					return out, iss
				}
				continue
			}
			out[f.name] = parsed
			continue
		}
		// missing: apply default if provided; otherwise enforce required
		if dv, i2, handled := o.handleMissingField(ctx, f); handled {
			if len(i2) > 0 {
				iss = skemaforge.AppendIssues(iss, i2...)
				if skemaforge.IsFailFast(ctx) {
					return out, iss
				}
			} else {
				out[f.name] = dv
			}
			continue
		}
		if f.required {
			iss = skemaforge.AppendIssues(iss, requiredIssue(f.name))
			if skemaforge.IsFailFast(ctx) {
				return out, iss
			}
		}
	}
	return out, iss
}

// collectUnknown processes unknown keys according to unknownPolicy and may write into out for passthrough.
func (o *RecordSchema) collectUnknown(src map[string]any, out map[string]any) skemaforge.Issues {
	var iss skemaforge.Issues
	// unknown keys in key-sorted order
	uks := make([]string, 0, len(src))
	for k := range src {
		if _, known := o.index[k]; !known {
			uks = append(uks, k)
		}
	}
	sort.Strings(uks)
	for _, k := range uks {
		switch o.unknownPolicy {
		case skemaforge.UnknownStrict:
			iss = skemaforge.AppendIssues(iss, skemaforge.Issue{Path: "/" + k, Code: skemaforge.CodeUnknownKey, Message: i18n.T(skemaforge.CodeUnknownKey, map[string]string{"key": k}), Params: map[string]any{"key": k}})
		case skemaforge.UnknownStrip:
			// drop
		case skemaforge.UnknownPassthrough:
			out[k] = src[k]
		}
	}
	return iss
}

// Parse validates v and returns a new mapping holding every declared field
// that is present or defaulted. All offending fields are reported unless
// the context requests fail-fast.
func (o *RecordSchema) Parse(ctx context.Context, v any) (map[string]any, error) {
	src, ok := asMap(v)
	if !ok {
		return nil, skemaforge.Issues{skemaforge.Issue{Path: "/", Code: skemaforge.CodeInvalidType, Message: i18n.T(skemaforge.CodeInvalidType, map[string]string{"expected": "object"}), Hint: "expected object"}}
	}
	out, iss := o.collectKnown(ctx, src)
	if skemaforge.IsFailFast(ctx) && len(iss) > 0 {
		return nil, iss
	}
	if issUnknown := o.collectUnknown(src, out); len(issUnknown) > 0 {
		iss = skemaforge.AppendIssues(iss, issUnknown...)
	}
	if len(iss) > 0 {
		return nil, iss
	}
	return out, nil
}

func asMap(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case map[string]any:
		return t, true
	case map[string]string:
		out := make(map[string]any, len(t))
		for k, s := range t {
			out[k] = s
		}
		return out, true
	}
	return nil, false
}

func (o *RecordSchema) TypeCheck(ctx context.Context, v any) error {
	if _, ok := asMap(v); !ok {
		return skemaforge.Issues{skemaforge.Issue{Path: "/", Code: skemaforge.CodeInvalidType, Message: i18n.T(skemaforge.CodeInvalidType, nil), Hint: "expected object"}}
	}
	return nil
}

func (o *RecordSchema) RuleCheck(ctx context.Context, v any) error {
	m, ok := asMap(v)
	if !ok {
		return nil
	}
	var iss skemaforge.Issues
	for _, f := range o.fields {
		if _, ok := m[f.name]; !ok && f.required {
			iss = skemaforge.AppendIssues(iss, requiredIssue(f.name))
			if skemaforge.IsFailFast(ctx) {
				return iss
			}
		}
	}
	if o.unknownPolicy == skemaforge.UnknownStrict {
		iss = skemaforge.AppendIssues(iss, o.collectUnknown(m, map[string]any{})...)
	}
	if len(iss) > 0 {
		return iss
	}
	return nil
}

func (o *RecordSchema) Validate(ctx context.Context, v any) error {
	if err := o.TypeCheck(ctx, v); err != nil {
		return err
	}
	if _, err := o.Parse(ctx, v); err != nil {
		return err
	}
	return o.RuleCheck(ctx, v)
}

// ValidateValue checks an already parsed mapping without conversion.
func (o *RecordSchema) ValidateValue(ctx context.Context, v map[string]any) error {
	var iss skemaforge.Issues
	for _, f := range o.fields {
		if val, ok := v[f.name]; ok {
			if err := f.ad.validateValue(ctx, val); err != nil {
				iss = skemaforge.AppendIssues(iss, skemaforge.Rebase("/"+f.name, issuesFromErr("/", err))...)
			}
		} else if f.required {
			iss = skemaforge.AppendIssues(iss, requiredIssue(f.name))
		}
		if len(iss) > 0 && skemaforge.IsFailFast(ctx) {
			return iss
		}
	}
	if len(iss) > 0 {
		return iss
	}
	return nil
}

// JSONSchema projects the record to a JSON Schema object with properties
// in declaration order.
func (o *RecordSchema) JSONSchema() (*js.Schema, error) {
	props := make([]js.Property, 0, len(o.fields))
	for _, f := range o.fields {
		ps, err := f.ad.jsonSchema()
		if err != nil {
			return nil, err
		}
		if ps == nil {
			ps = &js.Schema{}
		}
		cp := *ps
		cp.Description = f.ad.description
		if f.ad.hasDefault {
			cp.Default = f.ad.Dump(f.ad.def)
		}
		props = append(props, js.Property{Name: f.name, Schema: &cp, Required: f.required})
	}
	return js.Object(o.name, props, o.unknownPolicy == skemaforge.UnknownStrict), nil
}

// Dump converts a validated instance to plain JSON-ready data: dates and
// datetimes become strings and Any values become native Go data. Keys not
// declared on the record are copied as-is.
func (o *RecordSchema) Dump(v map[string]any) map[string]any {
	out := make(map[string]any, len(v))
	for k, x := range v {
		if i, ok := o.index[k]; ok {
			out[k] = o.fields[i].ad.Dump(x)
			continue
		}
		out[k] = x
	}
	return out
}

// EncodeJSON serializes a validated instance via Dump.
func (o *RecordSchema) EncodeJSON(v map[string]any) ([]byte, error) {
	return json.Marshal(o.Dump(v))
}
