package main

import (
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/health-engine/internal/model"
)

var importFilePath string

// importFile is the YAML shape accepted by the import command: a list of
// accounts and their raw measurements, as exported by the dashboard.
type importFile struct {
	Accounts     []importAccount     `yaml:"accounts"`
	Measurements []importMeasurement `yaml:"measurements"`
}

type importAccount struct {
	ID         string   `yaml:"id"`
	Name       string   `yaml:"name"`
	Vertical   string   `yaml:"vertical"`
	SizeMetric *float64 `yaml:"size_metric"`
	OptOut     bool     `yaml:"opt_out"`
}

func (a importAccount) model() model.Account {
	return model.Account{
		ID:         a.ID,
		Name:       a.Name,
		Vertical:   a.Vertical,
		SizeMetric: a.SizeMetric,
		OptOut:     a.OptOut,
	}
}

type importMeasurement struct {
	AccountID string `yaml:"account_id"`
	ProductID string `yaml:"product_id"`
	KPI       string `yaml:"kpi"`
	RawValue  string `yaml:"raw_value"`
	Component string `yaml:"component"`
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import accounts and raw KPI measurements from a YAML file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		data, err := os.ReadFile(importFilePath)
		if err != nil {
			return eris.Wrap(err, "read import file")
		}
		var file importFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return eris.Wrap(err, "parse import file")
		}

		e, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		for _, acct := range file.Accounts {
			if acct.ID == "" {
				return eris.Errorf("account %q has no id", acct.Name)
			}
			if err := e.Store.UpsertAccount(ctx, acct.model()); err != nil {
				return eris.Wrapf(err, "upsert account %s", acct.ID)
			}
		}

		now := time.Now().UTC()
		measurements := make([]model.Measurement, 0, len(file.Measurements))
		for _, m := range file.Measurements {
			if m.AccountID == "" || m.KPI == "" {
				return eris.New("measurement needs account_id and kpi")
			}
			measurements = append(measurements, model.Measurement{
				AccountID: m.AccountID,
				ProductID: m.ProductID,
				KPI:       m.KPI,
				RawValue:  m.RawValue,
				Component: m.Component,
				CreatedAt: now,
			})
		}
		if len(measurements) > 0 {
			if err := e.Store.InsertMeasurements(ctx, measurements); err != nil {
				return eris.Wrap(err, "insert measurements")
			}
		}

		zap.L().Info("import complete",
			zap.Int("accounts", len(file.Accounts)),
			zap.Int("measurements", len(measurements)),
			zap.String("file", importFilePath),
		)
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importFilePath, "file", "", "path to YAML file (required)")
	_ = importCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(importCmd)
}
