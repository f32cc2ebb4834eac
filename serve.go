package main

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Maxwavez/AB-tests-dataset-generator/api"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve dataset downloads over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := zap.L()

		port := cfg.Server.Port
		if servePort > 0 {
			port = servePort
		}

		r := gin.Default()
		api.InitRoutes(r, newService(logger), logger, api.Options{
			DefaultPopulationSize: cfg.Generator.DefaultPopulationSize,
			MaxPopulationSize:     cfg.Generator.MaxPopulationSize,
		})

		logger.Info("starting server", zap.Int("port", port))
		if err := r.Run(fmt.Sprintf(":%d", port)); err != nil {
			return eris.Wrap(err, "error trying to start server")
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "listen port (overrides server.port)")
	rootCmd.AddCommand(serveCmd)
}
