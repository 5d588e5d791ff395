package skemaforge

import (
	"bytes"
	"encoding/json"
	"io"
	"strconv"
	"strings"

	"github.com/reoring/skemaforge/i18n"
)

type dupFrame struct {
	object    bool
	keys      map[string]struct{}
	expectKey bool
	key       string
	index     int
}

// segment renders the position of the value currently being read.
func (f *dupFrame) segment() string {
	if f.object {
		return "/" + escapePointer(f.key)
	}
	return "/" + strconv.Itoa(f.index)
}

var pointerEscaper = strings.NewReplacer("~", "~0", "/", "~1")

func escapePointer(s string) string { return pointerEscaper.Replace(s) }

// DuplicateKeys scans a JSON document and reports every object key repeated
// within the same object, in document order. Syntax errors are returned as
// errors; decoding reports them again with more context.
func DuplicateKeys(data []byte) (Issues, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var (
		stack []*dupFrame
		iss   Issues
	)
	valueDone := func() {
		if len(stack) == 0 {
			return
		}
		top := stack[len(stack)-1]
		if top.object {
			top.expectKey = true
		} else {
			top.index++
		}
	}
	prefix := func() string {
		var b strings.Builder
		for _, f := range stack[:len(stack)-1] {
			b.WriteString(f.segment())
		}
		return b.String()
	}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			if len(stack) > 0 {
				return iss, io.ErrUnexpectedEOF
			}
			return iss, nil
		}
		if err != nil {
			return iss, err
		}
		switch v := tok.(type) {
		case json.Delim:
			switch v {
			case '{':
				stack = append(stack, &dupFrame{object: true, keys: map[string]struct{}{}, expectKey: true})
			case '[':
				stack = append(stack, &dupFrame{})
			default:
				stack = stack[:len(stack)-1]
				valueDone()
			}
		case string:
			if len(stack) > 0 {
				top := stack[len(stack)-1]
				if top.object && top.expectKey {
					if _, seen := top.keys[v]; seen {
						iss = AppendIssues(iss, Issue{
							Path:    prefix() + "/" + escapePointer(v),
							Code:    CodeDuplicateKey,
							Message: i18n.T(CodeDuplicateKey, map[string]string{"key": v}),
							Params:  map[string]any{"key": v},
						})
					}
					top.keys[v] = struct{}{}
					top.key = v
					top.expectKey = false
					continue
				}
			}
			valueDone()
		default:
			valueDone()
		}
	}
}
