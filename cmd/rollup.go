package main

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/health-engine/internal/rollup"
)

var rollupWeighted bool

var rollupCmd = &cobra.Command{
	Use:   "rollup",
	Short: "Compute the corporate rollup across all accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		e, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		inputs, err := scoreAllAccounts(ctx, e)
		if err != nil {
			return err
		}

		result := rollup.Rollup(inputs, rollup.Options{SizeWeighted: rollupWeighted})
		return printJSON(result)
	},
}

// scoreAllAccounts scores every account for rollup input.
func scoreAllAccounts(ctx context.Context, e *env) ([]rollup.Input, error) {
	accounts, err := e.Store.ListAccounts(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "rollup: list accounts")
	}

	inputs := make([]rollup.Input, 0, len(accounts))
	for _, acct := range accounts {
		measurements, err := e.Store.ListMeasurements(ctx, acct.ID)
		if err != nil {
			return nil, eris.Wrapf(err, "rollup: measurements for %s", acct.ID)
		}
		vertical := e.vertical(&acct, "")
		inputs = append(inputs, rollup.Input{
			AccountID:  acct.ID,
			Score:      e.Engine.ScoreAccount(acct.ID, vertical, measurements),
			SizeMetric: acct.SizeMetric,
			OptOut:     acct.OptOut,
		})
	}
	return inputs, nil
}

func init() {
	rollupCmd.Flags().BoolVar(&rollupWeighted, "weighted", false, "weight accounts by their size metric")
	rootCmd.AddCommand(rollupCmd)
}
