package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/health-engine/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "health-engine",
	Short: "KPI health scoring and rollup engine",
	Long:  "Normalizes raw KPI measurements against reference ranges, composes weighted per-account health scores, rolls them up to portfolio level, and records monthly trend snapshots.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return eris.Wrap(err, "load config")
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return eris.Wrap(err, "init logger")
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
