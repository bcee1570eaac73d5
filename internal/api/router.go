// Package api is the HTTP surface of the forecast service.
package api

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"growth-forecast/internal/common/logger"
	"growth-forecast/internal/models"
	"growth-forecast/internal/orchestrator"
	"growth-forecast/internal/persistence"
)

// Pipeline is what the handlers need from the orchestrator.
type Pipeline interface {
	Run(ctx context.Context, subject models.SubjectProfile) (*models.PredictionResult, error)
	Rate(ctx context.Context, recordID string, rating models.Rating) (persistence.RecordID, error)
	Correct(ctx context.Context, recordID string, c models.Correction) (persistence.RecordID, error)
	GenerateImage(ctx context.Context, req orchestrator.ImageRequest) (string, error)
}

// Exporter is the local fallback store as seen by the export endpoints.
type Exporter interface {
	ExportCSV(w io.Writer) error
	Summary() persistence.Summary
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type Options struct {
	Pipeline       Pipeline
	Exporter       Exporter
	Pingers        map[string]Pinger
	AllowedOrigins []string
	Logger         logger.Logger
	Now            func() time.Time
}

type handlers struct {
	pipeline Pipeline
	exporter Exporter
	pingers  map[string]Pinger
	logger   logger.Logger
	now      func() time.Time
}

func NewRouter(opts Options) http.Handler {
	if opts.Logger == nil {
		opts.Logger = logger.NewNoOpLogger()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	h := &handlers{
		pipeline: opts.Pipeline,
		exporter: opts.Exporter,
		pingers:  opts.Pingers,
		logger:   logger.ForComponent(opts.Logger, "api"),
		now:      opts.Now,
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(requestLogger(h.logger))
	r.Use(chimw.Recoverer)
	r.Use(corsHandler(opts.AllowedOrigins))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Get("/health", h.health)
	r.Get("/ready", h.ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(ar chi.Router) {
		ar.Post("/generate-image", h.generateImage)
		ar.Options("/generate-image", preflight)

		ar.Post("/predictions", h.createPrediction)
		ar.Post("/predictions/{id}/rating", h.ratePrediction)
		ar.Patch("/predictions/{id}", h.correctPrediction)

		ar.Get("/exports/local.csv", h.exportCSV)
		ar.Get("/exports/summary", h.exportSummary)
	})

	return r
}

func requestLogger(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.Info("request served", map[string]interface{}{
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     ww.Status(),
				"bytes":      ww.BytesWritten(),
				"durationMs": time.Since(start).Milliseconds(),
				"requestId":  chimw.GetReqID(r.Context()),
			})
		})
	}
}
