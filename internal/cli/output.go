package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v3"

	skemaforge "github.com/reoring/skemaforge"
	"github.com/reoring/skemaforge/errors"
)

func renderDescriptors(w io.Writer, fields []skemaforge.FieldDescriptor) {
	if len(fields) == 0 {
		_, _ = fmt.Fprintln(w, "(no fields)")
		return
	}
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Field", "Type", "Optional", "Default", "Description"})
	for _, f := range fields {
		def := ""
		if f.HasDefault {
			def = f.DefaultLiteral
		}
		t.AppendRow(table.Row{f.Name, f.TypeLabel, yesNo(f.Optional), def, f.Description})
	}
	t.Render()
}

func renderIssues(w io.Writer, iss skemaforge.Issues) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Path", "Code", "Message"})
	for _, it := range iss {
		t.AppendRow(table.Row{it.Path, it.Code, it.Message})
	}
	t.Render()
}

func renderCatalog(w io.Writer, names []string, all map[string][]skemaforge.FieldDescriptor) {
	if len(names) == 0 {
		_, _ = fmt.Fprintln(w, "(no schemas)")
		return
	}
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Schema", "Fields", "Required"})
	for _, name := range names {
		fields := all[name]
		var required []string
		for _, f := range fields {
			if !f.Optional && !f.HasDefault {
				required = append(required, f.Name)
			}
		}
		t.AppendRow(table.Row{name, len(fields), strings.Join(required, ", ")})
	}
	t.Render()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// readFields decodes a YAML (or JSON) list of field descriptors.
func readFields(path string) ([]skemaforge.FieldDescriptor, error) {
	if path == "" {
		return nil, errors.WithHint(errors.New("no fields file given"), "pass -f fields.yaml")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read fields file %s", path)
	}
	var fields []skemaforge.FieldDescriptor
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&fields); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.WithHint(errors.Wrapf(err, "decode fields file %s", path),
			"expected a list of {name, type_label, optional, has_default, default_literal, description}")
	}
	return fields, nil
}
