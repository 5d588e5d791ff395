package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/reoring/skemaforge/catalog"
	"github.com/reoring/skemaforge/internal/logging"
)

func newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the schemas in the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir, err := openCatalog(getConfig(cmd))
			if err != nil {
				return err
			}
			names, err := dir.List()
			if err != nil {
				return err
			}
			all, err := dir.LoadAll(cmd.Context())
			if err != nil {
				return err
			}
			renderCatalog(cmd.OutOrStdout(), names, all)
			return nil
		},
	}
}

func newSaveCommand() *cobra.Command {
	var fieldsFile string
	cmd := &cobra.Command{
		Use:   "save <name> -f fields.yaml",
		Short: "Render field descriptors into the catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields, err := readFields(fieldsFile)
			if err != nil {
				return err
			}
			dir, err := openCatalog(getConfig(cmd))
			if err != nil {
				return err
			}
			if err := dir.Save(args[0], fields); err != nil {
				return err
			}
			path, _ := dir.FilePath(args[0])
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "saved %s (%d fields) to %s\n", args[0], len(fields), path)
			return err
		},
	}
	cmd.Flags().StringVarP(&fieldsFile, "fields", "f", "", "YAML or JSON list of field descriptors")
	return cmd
}

func newDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Remove a schema from the catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := openCatalog(getConfig(cmd))
			if err != nil {
				return err
			}
			if err := dir.Delete(args[0]); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return err
		},
	}
}

func newWatchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Re-import catalog schemas as their files change",
		Long: `Watch follows the catalog directory and re-imports every schema file that
is written, reporting import failures as they happen. It runs until
interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir, err := openCatalog(getConfig(cmd))
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			return dir.Watch(ctx, func(e catalog.Event) {
				if e.Removed {
					logging.L.Infow("schema removed", "schema", e.Name)
					return
				}
				fields, _, err := dir.Load(ctx, e.Name)
				if err != nil {
					logging.L.Errorw("schema reload failed", "schema", e.Name, "error", err)
					return
				}
				logging.L.Infow("schema reloaded", "schema", e.Name, "fields", len(fields))
			})
		},
	}
}
