package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Maxwavez/AB-tests-dataset-generator/internal/config"
	"github.com/Maxwavez/AB-tests-dataset-generator/internal/experiment"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "abgen",
	Short: "Synthetic A/B experiment dataset generator",
	Long:  "Simulates users split into control and treatment groups, their conversions and purchase amounts, and packages the result as two CSV files.",
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

func newService(logger *zap.Logger) *experiment.Service {
	return experiment.NewService(
		experiment.NewLocalStorage(cfg.Generator.RunHistory),
		logger,
		experiment.WithMaxPopulationSize(cfg.Generator.MaxPopulationSize),
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
