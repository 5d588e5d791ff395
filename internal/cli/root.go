// Package cli provides the command-line interface for skemaforge.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/reoring/skemaforge/errors"
	"github.com/reoring/skemaforge/internal/config"
	"github.com/reoring/skemaforge/internal/logging"
)

// Version information (set at build time).
var Version = "0.1.0"

// configKey is used to store config in context.
type configKey struct{}

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "skemaforge",
		Short: "Build record schemas from field descriptors",
		Long: `skemaforge turns a list of field descriptors (name, type label, optional,
default, description) into a runtime record schema, renders it as Go source,
and imports that source back.

Schemas can be saved to a catalog directory and used to validate JSON or
YAML documents and form input.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}
			cfg, err := config.Load(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}
			if err := logging.Init(cfg.Log.Level, cfg.Log.JSON); err != nil {
				return err
			}
			if cfg.File != "" {
				logging.L.Debugw("using config file", "path", cfg.File)
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			cmd.SetContext(context.WithValue(ctx, configKey{}, cfg))
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: ./"+config.DefaultFile+")")
	pf.String("catalog-dir", "", "directory holding saved schemas")
	pf.String("package", "", "package clause of rendered source")
	pf.String("unknown-policy", "", "unknown key policy (strip|strict|passthrough)")
	pf.Int("max-attempts", 0, "generator attempts before giving up")
	pf.String("log-level", "", "log level (debug|info|warn|error)")
	pf.Bool("log-json", false, "log as JSON")

	_ = rootCmd.RegisterFlagCompletionFunc("unknown-policy", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"strip", "strict", "passthrough"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(
		newRenderCommand(),
		newDescribeCommand(),
		newValidateCommand(),
		newFormCommand(),
		newJSONSchemaCommand(),
		newListCommand(),
		newSaveCommand(),
		newDeleteCommand(),
		newWatchCommand(),
		newGenerateCommand(),
		newLabelsCommand(),
	)
	return rootCmd
}

// Execute runs the root command under ctx.
func Execute(ctx context.Context) error {
	rootCmd := NewRootCmd()
	defer logging.Sync()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		for _, h := range errors.GetAllHints(err) {
			fmt.Fprintf(os.Stderr, "Hint: %s\n", h)
		}
		return err
	}
	return nil
}

// getConfig retrieves the config from the command context.
func getConfig(cmd *cobra.Command) *config.Config {
	if c, ok := cmd.Context().Value(configKey{}).(*config.Config); ok {
		return c
	}
	cfg, err := config.Load("", nil)
	if err != nil {
		return &config.Config{CatalogDir: config.DefaultCatalogDir}
	}
	return cfg
}
