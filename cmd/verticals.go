package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/health-engine/internal/scoring"
)

var verticalsCmd = &cobra.Command{
	Use:   "verticals",
	Short: "List the configured vertical weight profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer e.Close()

		registry := e.Engine.Verticals()
		profiles := make([]scoring.Profile, 0)
		for _, name := range registry.Names() {
			profiles = append(profiles, registry.Get(name))
		}
		return printJSON(profiles)
	},
}

func init() {
	rootCmd.AddCommand(verticalsCmd)
}
