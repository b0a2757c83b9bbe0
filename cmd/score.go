package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var scoreVertical string

var scoreCmd = &cobra.Command{
	Use:   "score <account-id>",
	Short: "Compute the health score for one account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		accountID := args[0]

		e, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		account, err := e.Store.GetAccount(ctx, accountID)
		if err != nil {
			return eris.Wrapf(err, "score %s", accountID)
		}

		vertical := e.vertical(account, scoreVertical)

		// One read per run keeps the measurement set consistent.
		measurements, err := e.Store.ListMeasurements(ctx, accountID)
		if err != nil {
			return eris.Wrapf(err, "measurements for %s", accountID)
		}

		result := e.Engine.ScoreAccount(accountID, vertical, measurements)

		zap.L().Info("scored account",
			zap.String("account_id", accountID),
			zap.String("vertical", result.Vertical),
			zap.String("classification", string(result.Classification)),
			zap.Int("measurements", len(measurements)),
		)
		return printJSON(result)
	},
}

func init() {
	scoreCmd.Flags().StringVar(&scoreVertical, "vertical", "", "override the account's vertical profile")
	rootCmd.AddCommand(scoreCmd)
}
