package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Maxwavez/AB-tests-dataset-generator/internal/experiment"
	"github.com/Maxwavez/AB-tests-dataset-generator/internal/export"
)

var (
	generateSize   int
	generateOut    string
	generateEffect string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a dataset archive to a file",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := zap.L()
		svc := newService(logger)

		size := generateSize
		if size == 0 {
			size = cfg.Generator.DefaultPopulationSize
		}

		ds, err := runGenerate(svc, size, generateEffect)
		if err != nil {
			return err
		}

		if err := writeArchiveFile(generateOut, ds.Tables); err != nil {
			return err
		}

		logger.Info("dataset written",
			zap.String("path", generateOut),
			zap.String("run_id", ds.RunID),
			zap.Float64("control_rate", ds.Parameters.ControlRate),
			zap.Float64("treatment_rate", ds.Parameters.TreatmentRate),
			zap.Bool("effect_injected", ds.Effect.Injected),
		)
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (run %s)\n", generateOut, ds.RunID)
		return nil
	},
}

// runGenerate generates a dataset. effect is "auto" to flip the run-level coin,
// or "on"/"off" to pin the treatment effect decision.
func runGenerate(svc *experiment.Service, size int, effect string) (*experiment.Dataset, error) {
	switch effect {
	case "auto", "":
		return svc.Generate(size)
	case "on", "off":
		return svc.GenerateWithEffect(size, experiment.TreatmentEffect{
			Injected: effect == "on",
			Offset:   experiment.EffectOffset,
		})
	default:
		return nil, eris.Errorf("unknown --treatment-effect %q (want auto, on or off)", effect)
	}
}

func writeArchiveFile(path string, tables *experiment.Tables) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "create %s", path)
	}
	if err := export.WriteArchive(f, tables); err != nil {
		_ = f.Close()
		return err
	}
	return eris.Wrapf(f.Close(), "close %s", path)
}

func init() {
	generateCmd.Flags().IntVarP(&generateSize, "size", "n", 0, "number of users (default generator.default_population_size)")
	generateCmd.Flags().StringVarP(&generateOut, "out", "o", export.ArchiveName, "output zip path")
	generateCmd.Flags().StringVar(&generateEffect, "treatment-effect", "auto", "treatment amount effect: auto, on or off")
	rootCmd.AddCommand(generateCmd)
}
