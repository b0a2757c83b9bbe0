package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/health-engine/internal/refrange"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect and administer the KPI reference range catalog",
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the active reference ranges",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer e.Close()

		return printJSON(e.Engine.Table().Catalog())
	},
}

var catalogReplaceCmd = &cobra.Command{
	Use:   "replace <ranges.yaml>",
	Short: "Replace the stored reference range catalog from a file",
	Long:  "Validates the file and transactionally clears and repopulates the stored catalog. Running scoring requests keep the table they started with.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		// Validate before touching the store.
		table, err := refrange.Load(args[0])
		if err != nil {
			return err
		}

		e, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		ranges := table.Ranges()
		if err := e.Store.ReplaceReferenceRanges(ctx, ranges); err != nil {
			return eris.Wrap(err, "replace catalog")
		}

		zap.L().Info("replaced reference range catalog",
			zap.String("file", args[0]),
			zap.Int("ranges", len(ranges)),
		)
		return nil
	},
}

func init() {
	catalogCmd.AddCommand(catalogListCmd)
	catalogCmd.AddCommand(catalogReplaceCmd)
	rootCmd.AddCommand(catalogCmd)
}
