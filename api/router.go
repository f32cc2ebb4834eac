package api

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Maxwavez/AB-tests-dataset-generator/internal/experiment"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Options carries the generator limits exposed over HTTP.
type Options struct {
	DefaultPopulationSize int
	MaxPopulationSize     int
}

// InitRoutes registers the dataset endpoints on the given Gin engine.
// It binds the index page, the zip download, run summaries, health and metrics.
func InitRoutes(e *gin.Engine, service *experiment.Service, logger *zap.Logger, opts Options) {
	e.SetHTMLTemplate(template.Must(template.ParseFS(templatesFS, "templates/*.html")))

	h := NewDatasetHandler(service, logger, opts.DefaultPopulationSize, opts.MaxPopulationSize)

	e.GET("/", h.handleIndex)
	e.GET("/get_dataframe", h.handleDownload)
	e.GET("/runs", h.handleListRuns)
	e.GET("/runs/:id", h.handleGetRun)
	e.GET("/metrics", gin.WrapH(promhttp.Handler()))

	e.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})
}
