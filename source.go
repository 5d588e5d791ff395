package skemaforge

import (
	"bytes"
	"io"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/reoring/skemaforge/errors"
)

// Source abstracts over encoded input documents. Decode yields the generic
// Go shape of the document: map[string]any, []any, string, bool, nil and
// numbers as json.Number or float64 depending on NumberMode.
type Source interface {
	Decode() (any, error)
	NumberMode() NumberMode
	Format() string
}

// JSONReader wraps an io.Reader as a JSON Source.
func JSONReader(r io.Reader) Source { return &jsonSource{r: r, mode: NumberJSONNumber} }

// JSONBytes wraps a byte slice as a JSON Source.
func JSONBytes(b []byte) Source { return JSONReader(bytes.NewReader(b)) }

// YAMLReader wraps an io.Reader as a YAML Source. Only the first document
// is read.
func YAMLReader(r io.Reader) Source { return &yamlSource{r: r} }

// YAMLBytes wraps a byte slice as a YAML Source.
func YAMLBytes(b []byte) Source { return YAMLReader(bytes.NewReader(b)) }

// WithNumberMode wraps a Source and overrides its NumberMode.
func WithNumberMode(s Source, m NumberMode) Source {
	if js, ok := s.(*jsonSource); ok {
		cp := *js
		cp.mode = m
		return &cp
	}
	return s
}

type jsonSource struct {
	r    io.Reader
	mode NumberMode
}

func (s *jsonSource) Decode() (any, error) {
	dec := json.NewDecoder(s.r)
	if s.mode == NumberJSONNumber {
		dec.UseNumber()
	}
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, errors.Wrap(err, "decode json")
	}
	var extra any
	if err := dec.Decode(&extra); err != io.EOF {
		return nil, errors.New("decode json: unexpected data after top-level value")
	}
	return v, nil
}

func (s *jsonSource) NumberMode() NumberMode { return s.mode }
func (s *jsonSource) Format() string         { return "json" }

type yamlSource struct{ r io.Reader }

func (s *yamlSource) Decode() (any, error) {
	var v any
	if err := yaml.NewDecoder(s.r).Decode(&v); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, errors.Wrap(err, "decode yaml")
	}
	return yamlNormalizeValue(v), nil
}

func (s *yamlSource) NumberMode() NumberMode { return NumberFloat64 }
func (s *yamlSource) Format() string         { return "yaml" }

// yamlNormalizeValue converts YAML-decoded values (which may contain
// map[any]any) into JSON-like shapes recursively.
func yamlNormalizeValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = yamlNormalizeValue(vv)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			ks, ok := k.(string)
			if !ok {
				continue
			}
			out[ks] = yamlNormalizeValue(vv)
		}
		return out
	case []any:
		arr := make([]any, len(t))
		for i := range t {
			arr[i] = yamlNormalizeValue(t[i])
		}
		return arr
	default:
		return v
	}
}
