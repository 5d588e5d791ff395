package cli

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"

	"github.com/reoring/skemaforge/errors"
	"github.com/reoring/skemaforge/generator"
	"github.com/reoring/skemaforge/importer"
	"github.com/reoring/skemaforge/internal/logging"
	"github.com/reoring/skemaforge/introspect"
)

// execGenerator runs argv once per attempt with the prompt on stdin and
// takes its stdout as the candidate source.
func execGenerator(argv []string) generator.Func {
	return func(ctx context.Context, prompt string) (generator.Candidate, error) {
		c := exec.CommandContext(ctx, argv[0], argv[1:]...)
		c.Stdin = strings.NewReader(prompt)
		var stderr bytes.Buffer
		c.Stderr = &stderr
		out, err := c.Output()
		if err != nil {
			if msg := strings.TrimSpace(stderr.String()); msg != "" {
				return generator.Candidate{}, errors.WithDetail(errors.Wrapf(err, "run %s", argv[0]), msg)
			}
			return generator.Candidate{}, errors.Wrapf(err, "run %s", argv[0])
		}
		return generator.Candidate{Source: out}, nil
	}
}

func newGenerateCommand() *cobra.Command {
	var prompt string
	var save bool
	cmd := &cobra.Command{
		Use:   "generate <name> -- <program> [args...]",
		Short: "Ask an external program for a schema until one imports",
		Long: `Generate runs the program with the prompt on stdin and reads Go struct
source from its stdout. Each answer is imported; a failed import counts as an
attempt and the program is run again, up to max_attempts times.`,
		Example: `  skemaforge generate invoice -p "an invoice with lines and a due date" --save -- ./llm-struct`,
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := getConfig(cmd)
			name := args[0]
			loop := generator.Loop{
				Gen:         execGenerator(args[1:]),
				MaxAttempts: cfg.MaxAttempts,
				Import: []importer.Option{
					importer.WithUnknownPolicy(cfg.Policy()),
					importer.WithTimeout(cfg.ImportTimeout),
				},
				Logger: logging.L,
			}
			res, err := loop.Run(cmd.Context(), prompt)
			if err != nil {
				return errors.WithHint(err, "rerun with --log-level debug to see every rejected attempt")
			}
			fields := introspect.Introspect(res.Schema)
			if !save {
				renderDescriptors(cmd.OutOrStdout(), fields)
				return nil
			}
			dir, err := openCatalog(cfg)
			if err != nil {
				return err
			}
			if err := dir.Save(name, fields); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "saved %s (%d fields) after %d attempt(s)\n", name, len(fields), len(res.Attempts)+1)
			return err
		},
	}
	cmd.Flags().StringVarP(&prompt, "prompt", "p", "", "text passed to the program on stdin")
	cmd.Flags().BoolVar(&save, "save", false, "store the confirmed schema in the catalog")
	return cmd
}
