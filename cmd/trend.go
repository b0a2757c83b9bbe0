package main

import (
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var (
	trendYear  int
	trendMonth int
	trendLimit int
)

var trendCmd = &cobra.Command{
	Use:   "trend",
	Short: "Record and inspect monthly health score snapshots",
}

var trendRecordCmd = &cobra.Command{
	Use:   "record <account-id>",
	Short: "Score an account and record its snapshot for a month",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		accountID := args[0]
		year, month := resolveYearMonth()

		e, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		account, err := e.Store.GetAccount(ctx, accountID)
		if err != nil {
			return eris.Wrapf(err, "trend record %s", accountID)
		}
		measurements, err := e.Store.ListMeasurements(ctx, accountID)
		if err != nil {
			return eris.Wrapf(err, "measurements for %s", accountID)
		}

		score := e.Engine.ScoreAccount(accountID, e.vertical(account, ""), measurements)
		snapshot, err := e.Recorder.Record(ctx, accountID, year, month, score)
		if err != nil {
			return err
		}
		return printJSON(snapshot)
	},
}

var trendSnapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Score every account and record snapshots for a month",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		year, month := resolveYearMonth()

		e, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		summary, err := e.Recorder.SnapshotAll(ctx, year, month)
		if err != nil {
			return err
		}
		return printJSON(summary)
	},
}

var trendListCmd = &cobra.Command{
	Use:   "list <account-id>",
	Short: "List recorded snapshots for an account, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		e, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		snapshots, err := e.Store.ListTrendSnapshots(ctx, args[0], trendLimit)
		if err != nil {
			return err
		}
		return printJSON(snapshots)
	},
}

// resolveYearMonth applies the flags, defaulting to the current month.
func resolveYearMonth() (int, int) {
	now := time.Now().UTC()
	year, month := trendYear, trendMonth
	if year == 0 {
		year = now.Year()
	}
	if month == 0 {
		month = int(now.Month())
	}
	return year, month
}

func init() {
	trendCmd.PersistentFlags().IntVar(&trendYear, "year", 0, "snapshot year (default: current)")
	trendCmd.PersistentFlags().IntVar(&trendMonth, "month", 0, "snapshot month 1-12 (default: current)")
	trendListCmd.Flags().IntVar(&trendLimit, "limit", 24, "max snapshots to list")

	trendCmd.AddCommand(trendRecordCmd)
	trendCmd.AddCommand(trendSnapshotCmd)
	trendCmd.AddCommand(trendListCmd)
	rootCmd.AddCommand(trendCmd)
}
