package api

import (
	"bytes"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Maxwavez/AB-tests-dataset-generator/internal/experiment"
	"github.com/Maxwavez/AB-tests-dataset-generator/internal/export"
)

// datasetHandler holds the generator service and implements HTTP handlers for dataset downloads.
type datasetHandler struct {
	service     *experiment.Service
	logger      *zap.Logger
	defaultSize int
	maxSize     int
}

// NewDatasetHandler creates a new dataset handler.
func NewDatasetHandler(service *experiment.Service, logger *zap.Logger, defaultSize, maxSize int) *datasetHandler {
	return &datasetHandler{
		service:     service,
		logger:      logger,
		defaultSize: defaultSize,
		maxSize:     maxSize,
	}
}

// handleIndex renders the landing page.
func (h *datasetHandler) handleIndex(ctx *gin.Context) {
	ctx.HTML(http.StatusOK, "index.html", gin.H{
		"DefaultSize": h.defaultSize,
		"MaxSize":     h.maxSize,
	})
}

// handleDownload handles GET /get_dataframe: generates a dataset and returns it as a zip attachment.
func (h *datasetHandler) handleDownload(ctx *gin.Context) {
	var req struct {
		N *int `form:"n"`
	}
	if err := ctx.ShouldBindQuery(&req); err != nil {
		h.logger.Warn("failed to bind query", zap.Error(err))
		generationFailures.WithLabelValues("bad_request").Inc()
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "population size must be an integer"})
		return
	}

	size := h.defaultSize
	if req.N != nil {
		size = *req.N
	}

	started := time.Now()
	ds, err := h.service.Generate(size)
	if err != nil {
		h.respondError(ctx, err, size)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteArchive(&buf, ds.Tables); err != nil {
		h.logger.Error("failed to package dataset", zap.String("run_id", ds.RunID), zap.Error(err))
		generationFailures.WithLabelValues("packaging").Inc()
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "failed to package dataset"})
		return
	}

	observeDataset(ds)
	generationDuration.Observe(time.Since(started).Seconds())

	ctx.Header("X-Run-ID", ds.RunID)
	ctx.Header("Content-Disposition", `attachment; filename="`+export.ArchiveName+`"`)
	ctx.Data(http.StatusOK, "application/zip", buf.Bytes())
}

// handleListRuns handles GET /runs.
func (h *datasetHandler) handleListRuns(ctx *gin.Context) {
	runs, err := h.service.ListRuns()
	if err != nil {
		h.logger.Error("failed to list runs", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list runs"})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"results": runs})
}

// handleGetRun handles GET /runs/:id.
func (h *datasetHandler) handleGetRun(ctx *gin.Context) {
	run, err := h.service.GetRun(ctx.Param("id"))
	if err != nil {
		if errors.Is(err, experiment.ErrRunNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
			return
		}
		h.logger.Error("failed to read run", zap.String("run_id", ctx.Param("id")), zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read run"})
		return
	}
	ctx.JSON(http.StatusOK, run)
}

func (h *datasetHandler) respondError(ctx *gin.Context, err error, size int) {
	switch {
	case errors.Is(err, experiment.ErrInvalidArgument):
		h.logger.Warn("invalid population size", zap.Int("population_size", size), zap.Error(err))
		generationFailures.WithLabelValues("invalid_argument").Inc()
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "population size must be a positive integer"})
	case errors.Is(err, experiment.ErrResourceExhausted):
		generationFailures.WithLabelValues("too_large").Inc()
		ctx.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})
	default:
		h.logger.Error("failed to generate dataset", zap.Int("population_size", size), zap.Error(err))
		generationFailures.WithLabelValues("internal").Inc()
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate dataset"})
	}
}
