package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"growth-forecast/internal/analytics"
	"growth-forecast/internal/api"
	"growth-forecast/internal/common/auth"
	"growth-forecast/internal/common/aws"
	"growth-forecast/internal/common/camunda"
	"growth-forecast/internal/common/config"
	"growth-forecast/internal/common/database"
	httpclient "growth-forecast/internal/common/http"
	"growth-forecast/internal/common/logger"
	"growth-forecast/internal/common/observability"
	"growth-forecast/internal/common/retry"
	"growth-forecast/internal/orchestrator"
	"growth-forecast/internal/persistence"
	"growth-forecast/internal/providers/imagegen"
	"growth-forecast/internal/providers/textgen"
	costsimulation "growth-forecast/internal/workers/forecast/cost-simulation"
	textprediction "growth-forecast/internal/workers/forecast/text-prediction"
	imagegeneration "growth-forecast/internal/workers/imaging/image-generation"
	predictgrowth "growth-forecast/internal/workers/pipeline/predict-growth"
	recordrating "growth-forecast/internal/workers/pipeline/record-rating"
)

// connectWithRetry keeps trying a dependency that may still be starting up.
func connectWithRetry(ctx context.Context, name string, attempts int, log logger.Logger, fn func(ctx context.Context) error) error {
	policy := retry.Policy{
		MaxAttempts:    attempts,
		BaseDelay:      time.Second,
		AttemptTimeout: 10 * time.Second,
		Classify:       func(error) retry.Decision { return retry.Retry },
		OnRetry: func(attempt int, err error, wait time.Duration) {
			log.Warn(name+" not ready, retrying", map[string]interface{}{
				"attempt":     attempt,
				"maxRetries":  attempts,
				"error":       err.Error(),
				"nextRetryIn": wait.String(),
			})
		},
	}
	_, err := retry.Do(ctx, policy, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

func main() {
	level, format := "info", "json"
	if os.Getenv("APP_ENVIRONMENT") == "development" {
		format = "console"
	}
	zapLog := logger.New(level, format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}
	if cfg.Logging.Level != "" && cfg.Logging.Level != level {
		zapLog = logger.New(cfg.Logging.Level, format)
		log = logger.NewZapAdapter(zapLog)
	}
	zapLog.Info("starting forecast server", zap.String("version", cfg.App.Version), zap.String("environment", cfg.App.Environment))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	obsOpts := []observability.Option{}
	if cfg.Observability.JaegerEndpoint != "" {
		obsOpts = append(obsOpts, observability.WithJaeger(cfg.Observability.JaegerEndpoint))
	}
	serviceName := cfg.Observability.ServiceName
	if serviceName == "" {
		serviceName = cfg.App.Name
	}
	obs, err := observability.New(serviceName, obsOpts...)
	if err != nil {
		zapLog.Fatal("observability init failed", zap.Error(err))
	}

	pingers := map[string]api.Pinger{}

	// --- Redis (appropriate-range cache) ---
	var rangeCache textprediction.RangeCache
	if cfg.Database.Redis.Address != "" {
		rc := database.NewRedis(cfg.Database.Redis)
		defer rc.Close()
		if err := connectWithRetry(ctx, "redis", 5, log, rc.Ping); err != nil {
			zapLog.Warn("redis unavailable, range cache disabled", zap.Error(err))
		} else {
			rangeCache = textprediction.NewRedisRangeCache(rc.Client)
			pingers["redis"] = rc
		}
	}

	// --- Text provider ---
	textCfg := cfg.Providers.Text
	gen, err := textgen.New(ctx, textgen.Backend{
		Name:    textCfg.Backend,
		BaseURL: textCfg.BaseURL,
		APIKey:  textCfg.APIKey,
		Model:   textCfg.Model,
	}, textgen.WithRESTHTTPClient(httpclient.NewClient(config.GetDuration(textCfg.Timeout))))
	if err != nil {
		zapLog.Warn("text provider unavailable, predictions will be rejected", zap.Error(err))
	} else if !gen.Configured() {
		zapLog.Warn("text provider api key missing, predictions will be rejected")
	}

	textOpts := []textprediction.Option{}
	if rangeCache != nil {
		textOpts = append(textOpts, textprediction.WithRangeCache(rangeCache))
	}
	text := textprediction.NewClient(textprediction.LoadConfig(textCfg, cfg.Database.Redis), gen, log, textOpts...)
	costs := costsimulation.NewClient(text, log)

	// --- Image provider ---
	imgCfg := cfg.Providers.Image
	var provider imagegeneration.Provider
	if imgCfg.Configured() {
		var tokens imagegen.TokenSource = auth.StaticToken(imgCfg.APIToken)
		if imgCfg.Auth == "oauth" {
			tokens = auth.NewTokenCache(imgCfg.TokenURL, imgCfg.ClientID, imgCfg.ClientSecret,
				auth.WithHTTPClient(httpclient.NewClient(config.GetDuration(imgCfg.Timeout))))
		}
		provider = imagegen.NewClient(imgCfg.BaseURL, imgCfg.Model, tokens,
			imagegen.WithHTTPClient(httpclient.NewClient(config.GetDuration(imgCfg.Timeout))),
			imagegen.WithSize(imgCfg.Width, imgCfg.Height))
	} else {
		zapLog.Warn("image provider credentials missing, images will use the placeholder")
	}

	imageOpts := []imagegeneration.Option{}
	if imgCfg.ArchiveBucket != "" {
		archive, err := imagegen.NewGCSArchiveFromEnv(ctx, imgCfg.ArchiveBucket, "predictions")
		if err != nil {
			zapLog.Warn("image archive disabled", zap.Error(err))
		} else {
			defer archive.Close()
			imageOpts = append(imageOpts, imagegeneration.WithArchive(archive))
		}
	}
	images := imagegeneration.NewClient(imagegeneration.LoadConfig(imgCfg), provider, log, imageOpts...)

	// --- Persistence chain ---
	chain := buildChain(ctx, cfg, log, pingers, zapLog)

	// --- Analytics ---
	var sink analytics.Sink = analytics.NewLogSink(log)
	if cfg.Analytics.Enabled {
		es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err == nil {
			err = connectWithRetry(ctx, "elasticsearch", 5, log, es.Ping)
		}
		if err != nil {
			zapLog.Warn("elasticsearch unavailable, analytics logged only", zap.Error(err))
		} else {
			sink = analytics.NewElasticSink(es.Client, cfg.Analytics.Index, log)
			pingers["elasticsearch"] = es
		}
	}

	orch := orchestrator.New(orchestrator.Config{
		PlaceholderURL: imgCfg.PlaceholderURL,
		Budget:         config.GetDuration(cfg.Server.PipelineBudget),
	}, text, costs, images, chain, log,
		orchestrator.WithAnalytics(sink),
		orchestrator.WithObservability(obs),
	)

	// --- Workflow workers ---
	var zeebe *camunda.Client
	if cfg.Camunda.Enabled {
		zeebe, err = camunda.Connect(ctx, cfg.Camunda, log)
		if err != nil {
			zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
		}
		pingers["zeebe"] = zeebe

		pg := predictgrowth.NewHandler(predictgrowth.LoadConfig(config.GetWorkerConfig(cfg, predictgrowth.TaskType)), orch, log)
		zeebe.StartWorker(predictgrowth.TaskType, config.GetWorkerConfig(cfg, predictgrowth.TaskType), pg.Handle)

		rrCfg := config.GetWorkerConfig(cfg, recordrating.TaskType)
		rr := recordrating.NewHandler(&recordrating.Config{Timeout: config.GetDuration(rrCfg.Timeout)}, orch, log)
		zeebe.StartWorker(recordrating.TaskType, rrCfg, rr.Handle)
	}

	// --- HTTP surface ---
	srv := &http.Server{
		Addr: cfg.Server.Address,
		Handler: api.NewRouter(api.Options{
			Pipeline:       orch,
			Exporter:       chain.Local(),
			Pingers:        pingers,
			AllowedOrigins: cfg.Server.AllowedOrigins,
			Logger:         log,
		}),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      config.GetDuration(cfg.Server.RequestTimeout),
	}
	go func() {
		zapLog.Info("http server listening", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("http server failed", zap.Error(err))
			stop()
		}
	}()

	// --- Graceful shutdown ---
	<-ctx.Done()
	zapLog.Info("shutdown signal received, stopping")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("error stopping http server", zap.Error(err))
	}
	if zeebe != nil {
		if err := zeebe.Close(); err != nil {
			zapLog.Error("error closing zeebe client", zap.Error(err))
		}
	}
	if err := obs.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("error flushing telemetry", zap.Error(err))
	}

	zapLog.Info("forecast server stopped gracefully")
}

// buildChain assembles the configured tiers in priority order. The local store is always last.
func buildChain(ctx context.Context, cfg *config.Config, log logger.Logger, pingers map[string]api.Pinger, zapLog *zap.Logger) *persistence.Chain {
	pcfg := cfg.Persistence
	client := httpclient.NewClient(config.GetDuration(pcfg.Timeout))
	var tiers []persistence.Strategy

	if pcfg.REST.URL != "" {
		tiers = append(tiers, persistence.NewRESTTier(pcfg.REST.URL, pcfg.REST.APIKey, pcfg.REST.Table, client))
	}

	if pcfg.SQL.Enabled {
		pg, err := database.NewPostgres(cfg.Database.Postgres)
		if err == nil {
			err = connectWithRetry(ctx, "postgres", 10, log, pg.Ping)
		}
		if err == nil {
			err = database.EnsurePredictionLogTable(ctx, pg.DB, pcfg.SQL.Table)
		}
		if err != nil {
			zapLog.Warn("postgres tier disabled", zap.Error(err))
		} else {
			tiers = append(tiers, persistence.NewSQLTier(pg.DB, pcfg.SQL.Table))
			pingers["postgres"] = pg
		}
	}

	if pcfg.Sheets.WebhookURL != "" {
		tiers = append(tiers, persistence.NewSheetsTier(pcfg.Sheets.WebhookURL, client))
	}

	switch pcfg.Notify.Channel {
	case "sns":
		p, err := aws.NewSNSPublisher(ctx, pcfg.Notify.Region, pcfg.Notify.TopicARN)
		if err != nil {
			zapLog.Warn("sns tier disabled", zap.Error(err))
			break
		}
		tiers = append(tiers, persistence.NewNotifyTier(p))
	case "ses":
		p, err := aws.NewSESPublisher(ctx, pcfg.Notify.Region, pcfg.Notify.FromEmail, pcfg.Notify.ToEmail)
		if err != nil {
			zapLog.Warn("ses tier disabled", zap.Error(err))
			break
		}
		tiers = append(tiers, persistence.NewNotifyTier(p))
	}

	names := make([]string, 0, len(tiers)+1)
	for _, t := range tiers {
		names = append(names, string(t.Tier()))
	}
	zapLog.Info("persistence chain ready", zap.Strings("tiers", append(names, string(persistence.TierLocal))))

	return persistence.NewChain(nil, log, tiers, persistence.WithAttemptTimeout(config.GetDuration(pcfg.Timeout)))
}
