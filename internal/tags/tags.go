// Package tags holds the struct tag grammar shared by the code renderer,
// the source importer and struct introspection.
//
// Supported keys:
//   - json:"name,omitempty": wire name; a field without omitempty is required
//   - format:"date|datetime": distinguishes the two time.Time shapes
//   - enum:"'A','B',1,true": literal members in label syntax
//   - default:"<literal item>": default value (lists as a JSON array)
//   - nullable:"true": accepts null where the Go type is not a pointer
//   - description:"...": field description
package tags

import (
	"fmt"
	"strconv"
	"strings"
)

// Tag keys.
const (
	KeyJSON        = "json"
	KeyFormat      = "format"
	KeyEnum        = "enum"
	KeyDefault     = "default"
	KeyNullable    = "nullable"
	KeyDescription = "description"
)

// Format values.
const (
	FormatDate     = "date"
	FormatDateTime = "datetime"
)

// Info is the decoded form of one field tag.
type Info struct {
	JSONName    string // empty when the json tag gives no name
	OmitEmpty   bool
	Skip        bool // json:"-"
	Format      string
	Enum        string
	HasEnum     bool
	Default     string
	HasDefault  bool
	Nullable    bool
	Description string
}

// CheckJSONName reports whether name survives a json tag unchanged: the
// comma separates options and a lone "-" skips the field.
func CheckJSONName(name string) error {
	switch {
	case name == "-":
		return fmt.Errorf("field name %q is reserved by the json tag", name)
	case strings.Contains(name, ","):
		return fmt.Errorf("field name %q contains a comma", name)
	}
	return nil
}

type pair struct{ key, value string }

// Parse decodes a raw tag (the text between the literal's quotes) and
// rejects malformed syntax, duplicate keys and bad values for known keys.
func Parse(raw string) (Info, error) {
	var info Info
	pairs, err := split(raw)
	if err != nil {
		return info, err
	}
	for _, p := range pairs {
		switch p.key {
		case KeyJSON:
			parts := strings.Split(p.value, ",")
			if parts[0] == "-" && len(parts) == 1 {
				info.Skip = true
				continue
			}
			info.JSONName = parts[0]
			for _, opt := range parts[1:] {
				if strings.TrimSpace(opt) == "omitempty" {
					info.OmitEmpty = true
				}
			}
		case KeyFormat:
			switch p.value {
			case FormatDate, FormatDateTime:
				info.Format = p.value
			case "date-time":
				info.Format = FormatDateTime
			default:
				return info, fmt.Errorf("unknown format %q (want %s or %s)", p.value, FormatDate, FormatDateTime)
			}
		case KeyEnum:
			info.Enum, info.HasEnum = p.value, true
		case KeyDefault:
			info.Default, info.HasDefault = p.value, true
		case KeyNullable:
			b, err := strconv.ParseBool(p.value)
			if err != nil {
				return info, fmt.Errorf("nullable: %q is not a boolean", p.value)
			}
			info.Nullable = b
		case KeyDescription:
			info.Description = p.value
		}
	}
	return info, nil
}

// split follows the reflect.StructTag conventions: space separated key:"value"
// pairs where the value is a Go string literal.
func split(tag string) ([]pair, error) {
	var out []pair
	seen := map[string]bool{}
	for tag != "" {
		i := 0
		for i < len(tag) && tag[i] == ' ' {
			i++
		}
		tag = tag[i:]
		if tag == "" {
			break
		}

		i = 0
		for i < len(tag) && tag[i] > ' ' && tag[i] != ':' && tag[i] != '"' && tag[i] != 0x7f {
			i++
		}
		if i == 0 {
			return nil, fmt.Errorf("bad syntax for struct tag key near %q", tag)
		}
		if i+1 >= len(tag) || tag[i] != ':' {
			return nil, fmt.Errorf("bad syntax for struct tag pair %q: missing colon", tag[:i])
		}
		if tag[i+1] != '"' {
			return nil, fmt.Errorf("bad syntax for struct tag value of %q: not quoted", tag[:i])
		}
		key := tag[:i]
		tag = tag[i+1:]

		i = 1
		for i < len(tag) && tag[i] != '"' {
			if tag[i] == '\\' {
				i++
			}
			i++
		}
		if i >= len(tag) {
			return nil, fmt.Errorf("bad syntax for struct tag value of %q: unterminated", key)
		}
		qv := tag[:i+1]
		tag = tag[i+1:]

		v, err := strconv.Unquote(qv)
		if err != nil {
			return nil, fmt.Errorf("bad syntax for struct tag value of %q: %v", key, err)
		}
		if seen[key] {
			return nil, fmt.Errorf("duplicate struct tag key %q", key)
		}
		seen[key] = true
		out = append(out, pair{key: key, value: v})
	}
	return out, nil
}

// String renders the tag in canonical key order.
func (info Info) String() string {
	var parts []string
	add := func(k, v string) { parts = append(parts, k+":"+strconv.Quote(v)) }

	if info.Skip {
		add(KeyJSON, "-")
	} else {
		j := info.JSONName
		if info.OmitEmpty {
			j += ",omitempty"
		}
		add(KeyJSON, j)
	}
	if info.Format != "" {
		add(KeyFormat, info.Format)
	}
	if info.HasEnum {
		add(KeyEnum, info.Enum)
	}
	if info.HasDefault {
		add(KeyDefault, info.Default)
	}
	if info.Nullable {
		add(KeyNullable, "true")
	}
	if info.Description != "" {
		add(KeyDescription, info.Description)
	}
	return strings.Join(parts, " ")
}

// Literal returns tag as Go source: a raw string literal when possible,
// otherwise an interpreted one.
func Literal(tag string) string {
	if strings.ContainsAny(tag, "`\r") {
		return strconv.Quote(tag)
	}
	return "`" + tag + "`"
}

// Unquote converts a tag literal from Go source back to its raw text.
func Unquote(lit string) (string, error) {
	s, err := strconv.Unquote(lit)
	if err != nil {
		return "", fmt.Errorf("bad struct tag literal: %v", err)
	}
	return s, nil
}
