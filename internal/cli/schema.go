package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	skemaforge "github.com/reoring/skemaforge"
	"github.com/reoring/skemaforge/catalog"
	"github.com/reoring/skemaforge/dsl"
	"github.com/reoring/skemaforge/errors"
	"github.com/reoring/skemaforge/gen"
	"github.com/reoring/skemaforge/importer"
	"github.com/reoring/skemaforge/internal/config"
	"github.com/reoring/skemaforge/internal/logging"
	"github.com/reoring/skemaforge/introspect"
	js "github.com/reoring/skemaforge/jsonschema"
	"github.com/reoring/skemaforge/synth"
	"github.com/reoring/skemaforge/typelabel"
)

func openCatalog(cfg *config.Config) (*catalog.Dir, error) {
	return catalog.Open(cfg.CatalogDir,
		catalog.WithLogger(logging.L),
		catalog.WithPackage(cfg.Package),
		catalog.WithUnknownPolicy(cfg.Policy()),
		catalog.WithImportTimeout(cfg.ImportTimeout),
	)
}

// loadSchema resolves ref as a Go source file when it names an existing .go
// file, and as a catalog entry otherwise. Import failures are listed as
// issues before the error is returned.
func loadSchema(cmd *cobra.Command, ref string) (*dsl.RecordSchema, error) {
	s, err := resolveSchema(cmd, ref)
	var ie *importer.Error
	if err != nil && errors.As(err, &ie) {
		renderIssues(cmd.OutOrStdout(), ie.Issues())
	}
	return s, err
}

func resolveSchema(cmd *cobra.Command, ref string) (*dsl.RecordSchema, error) {
	cfg := getConfig(cmd)
	if strings.HasSuffix(ref, catalog.Ext) {
		if src, err := os.ReadFile(ref); err == nil {
			s, err := importer.Import(cmd.Context(), src,
				importer.WithFilename(ref),
				importer.WithUnknownPolicy(cfg.Policy()),
				importer.WithTimeout(cfg.ImportTimeout),
			)
			if err != nil {
				return nil, errors.Wrapf(err, "import %s", ref)
			}
			return s, nil
		}
	}
	dir, err := openCatalog(cfg)
	if err != nil {
		return nil, err
	}
	_, s, err := dir.Load(cmd.Context(), ref)
	return s, err
}

func newRenderCommand() *cobra.Command {
	var fieldsFile, out string
	cmd := &cobra.Command{
		Use:   "render <name> -f fields.yaml",
		Short: "Render field descriptors as Go source",
		Example: `  # Print the struct for a fields file
  skemaforge render person -f person.yaml

  # Write it into a package
  skemaforge render person -f person.yaml --package models -o models/person.go`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := getConfig(cmd)
			fields, err := readFields(fieldsFile)
			if err != nil {
				return err
			}
			src, err := gen.Render(args[0], fields, gen.Options{Package: cfg.Package})
			if err != nil {
				return err
			}
			if out == "" {
				_, err = cmd.OutOrStdout().Write(src)
				return err
			}
			if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
				return errors.Wrapf(err, "create %s", filepath.Dir(out))
			}
			if err := os.WriteFile(out, src, 0o644); err != nil {
				return errors.Wrapf(err, "write %s", out)
			}
			logging.L.Infow("rendered schema", "schema", args[0], "path", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&fieldsFile, "fields", "f", "", "YAML or JSON list of field descriptors")
	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (default: stdout)")
	return cmd
}

func newDescribeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "describe <file.go | catalog-name>",
		Short: "Show the field descriptors of a schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSchema(cmd, args[0])
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s (%d fields, unknown keys: %s)\n", s.Name(), s.Len(), s.UnknownPolicy())
			renderDescriptors(cmd.OutOrStdout(), introspect.Introspect(s))
			return nil
		},
	}
}

func newValidateCommand() *cobra.Command {
	var dataFile string
	var strict bool
	cmd := &cobra.Command{
		Use:   "validate <file.go | catalog-name> -d data.json",
		Short: "Validate a JSON or YAML document against a schema",
		Long: `Validate decodes the data file (YAML when it ends in .yaml or .yml, JSON
otherwise), applies defaults and prints the validated record as JSON.
Repeated keys are rejected. When validation fails every offending field is
listed and the command exits non-zero.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSchema(cmd, args[0])
			if err != nil {
				return err
			}
			if strict {
				s = s.WithUnknownPolicy(skemaforge.UnknownStrict)
			}
			if dataFile == "" {
				return errors.WithHint(errors.New("no data file given"), "pass -d data.json")
			}
			data, err := os.ReadFile(dataFile)
			if err != nil {
				return errors.Wrapf(err, "read %s", dataFile)
			}
			src := skemaforge.JSONBytes(data)
			if ext := strings.ToLower(filepath.Ext(dataFile)); ext == ".yaml" || ext == ".yml" {
				src = skemaforge.YAMLBytes(data)
			}
			v, err := skemaforge.ParseFrom[map[string]any](cmd.Context(), s, src, skemaforge.ParseOpt{RejectDuplicateKeys: true})
			if err != nil {
				if iss, ok := skemaforge.AsIssues(err); ok {
					renderIssues(cmd.OutOrStdout(), iss)
					return errors.Newf("%s: %d issue(s) in %s", s.Name(), len(iss), dataFile)
				}
				return err
			}
			out, err := s.EncodeJSON(v)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return err
		},
	}
	cmd.Flags().StringVarP(&dataFile, "data", "d", "", "document to validate")
	cmd.Flags().BoolVar(&strict, "strict", false, "reject unknown keys")
	return cmd
}

func newFormCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "form <file.go | catalog-name> [key=value ...]",
		Short: "Validate text form input against a schema",
		Long: `Form treats every value as text, the way an HTML form or a query string
would submit it. Blank values count as absent, so defaults apply.`,
		Example: `  skemaforge form person name=Ann age=42 tags=a,b`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSchema(cmd, args[0])
			if err != nil {
				return err
			}
			form := make(map[string]string, len(args)-1)
			for _, kv := range args[1:] {
				k, v, ok := strings.Cut(kv, "=")
				if !ok || k == "" {
					return errors.WithHint(errors.Newf("bad form pair %q", kv), "use key=value")
				}
				form[k] = v
			}
			v, err := synth.FromForm(cmd.Context(), s, form)
			if err != nil {
				if iss, ok := skemaforge.AsIssues(err); ok {
					renderIssues(cmd.OutOrStdout(), iss)
					return errors.Newf("%s: %d issue(s)", s.Name(), len(iss))
				}
				return err
			}
			out, err := s.EncodeJSON(v)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return err
		},
	}
}

func newJSONSchemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "jsonschema <file.go | catalog-name>",
		Short: "Print the JSON Schema of a schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSchema(cmd, args[0])
			if err != nil {
				return err
			}
			doc, err := s.JSONSchema()
			if err != nil {
				return err
			}
			out, err := js.Marshal(doc)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return err
		},
	}
}

func newLabelsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "labels",
		Short: "List the supported type labels",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, l := range typelabel.Options() {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), l); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
