package textprediction

import (
	"context"
	"errors"
	"time"

	stderrors "growth-forecast/internal/common/errors"
	"growth-forecast/internal/common/logger"
	"growth-forecast/internal/common/metrics"
	"growth-forecast/internal/common/retry"
	"growth-forecast/internal/common/structured"
	"growth-forecast/internal/models"
	"growth-forecast/internal/providers/textgen"
)

const (
	TaskType = "text-prediction"

	rangeSpread = 0.15
)

type Client struct {
	config *Config
	gen    textgen.Generator
	cache  RangeCache
	logger logger.Logger
	now    func() time.Time
}

type Option func(*Client)

func WithRangeCache(cache RangeCache) Option {
	return func(c *Client) { c.cache = cache }
}

func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

func NewClient(config *Config, gen textgen.Generator, log logger.Logger, opts ...Option) *Client {
	c := &Client{
		config: config,
		gen:    gen,
		logger: logger.ForComponent(log, TaskType),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Ready fails with PROVIDER_NOT_CONFIGURED when the backend has no credentials.
func (c *Client) Ready() error {
	if !c.gen.Configured() {
		return stderrors.NewProviderNotConfiguredError(c.gen.Name())
	}
	return nil
}

// Complete runs one prompt through the retry policy. An exhausted rate limit is
// reported as PROVIDER_RATE_LIMITED wrapping the *retry.FatalError.
func (c *Client) Complete(ctx context.Context, prompt string, sampling textgen.Sampling) (string, error) {
	provider := c.gen.Name()
	policy := c.config.Retry
	policy.OnRetry = func(attempt int, err error, wait time.Duration) {
		metrics.ProviderCalls.WithLabelValues(provider, "retry").Inc()
		c.logger.Warn("provider call failed, retrying", map[string]interface{}{
			"provider": provider,
			"attempt":  attempt,
			"wait":     wait.String(),
			"error":    err.Error(),
		})
	}

	text, err := retry.Do(ctx, policy, func(ctx context.Context) (string, error) {
		return c.gen.Generate(ctx, textgen.Request{Prompt: prompt, Sampling: sampling})
	})
	if err != nil {
		metrics.ProviderCalls.WithLabelValues(provider, "fatal").Inc()
		var fatal *retry.FatalError
		if errors.As(err, &fatal) && fatal.RateLimited() {
			return "", stderrors.NewProviderRateLimitedError(provider, fatal.Attempts, err)
		}
		return "", err
	}
	metrics.ProviderCalls.WithLabelValues(provider, "success").Inc()
	return text, nil
}

// Predict never fails; provider or parse failures yield the default record.
func (c *Client) Predict(ctx context.Context, subject models.SubjectProfile) models.PredictionRecord {
	text, err := c.Complete(ctx, buildPredictionPrompt(subject, c.now()), textgen.PredictionSampling)
	if err != nil {
		c.logger.Error("prediction call failed, using defaults", map[string]interface{}{"error": err.Error()})
		metrics.FallbacksUsed.WithLabelValues("prediction").Inc()
		return models.DefaultPredictionRecord()
	}

	record, ok := parsePrediction(text)
	if !ok {
		c.logger.Warn("prediction reply had no structured object, using defaults", map[string]interface{}{
			"replyLength": len(text),
		})
		metrics.FallbacksUsed.WithLabelValues("prediction").Inc()
	}
	return record
}

func parsePrediction(text string) (models.PredictionRecord, bool) {
	m, err := structured.Decode(text)
	if err != nil {
		return models.DefaultPredictionRecord(), false
	}
	return models.PredictionRecord{
		PredictedWeight: structured.Float(m, "predictedWeight", models.DefaultPredictedWeight),
		PredictedLength: structured.Float(m, "predictedLength", models.DefaultPredictedLength),
		PredictedHeight: structured.Float(m, "predictedHeight", models.DefaultPredictedHeight),
		HealthAdvice:    structured.String(m, "healthAdvice", models.DefaultHealthAdvice),
		TrainingAdvice:  structured.String(m, "trainingAdvice", models.DefaultTrainingAdvice),
		CostAdvice:      structured.String(m, "costAdvice", models.DefaultCostAdvice),
	}, true
}

// AppropriateRange never fails; it falls back to an age-bucketed curve.
func (c *Client) AppropriateRange(ctx context.Context, subject models.SubjectProfile) models.WeightRange {
	now := c.now()
	key := RangeKey(subject, now)

	if c.cache != nil {
		cached, ok, err := c.cache.Get(ctx, key)
		if err != nil {
			c.logger.Warn("range cache read failed", map[string]interface{}{"error": err.Error()})
		}
		if ok {
			cached.Source = models.RangeFromCache
			return cached
		}
	}

	text, err := c.Complete(ctx, buildRangePrompt(subject, now), textgen.RangeSampling)
	if err != nil {
		var fatal *retry.FatalError
		c.logger.Warn("range call failed, using age curve", map[string]interface{}{
			"error":       err.Error(),
			"rateLimited": errors.As(err, &fatal) && fatal.RateLimited(),
		})
		metrics.FallbacksUsed.WithLabelValues("range").Inc()
		return FallbackRange(subject.AgeInMonths(now))
	}

	r, ok := parseRange(text)
	if !ok {
		metrics.FallbacksUsed.WithLabelValues("range").Inc()
		return FallbackRange(subject.AgeInMonths(now))
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, key, r, c.config.RangeTTL); err != nil {
			c.logger.Warn("range cache write failed", map[string]interface{}{"error": err.Error()})
		}
	}
	return r
}

// FallbackRange is the coarse curve used when the provider cannot answer.
func FallbackRange(ageMonths int) models.WeightRange {
	var center float64
	switch {
	case ageMonths < 3:
		center = 1.5
	case ageMonths < 6:
		center = 3.0
	case ageMonths < 12:
		center = 5.0
	default:
		center = 8.0
	}
	r := spread(center)
	r.Source = models.RangeFromFallback
	return r
}

func spread(center float64) models.WeightRange {
	return models.WeightRange{
		Min:    center * (1 - rangeSpread),
		Max:    center * (1 + rangeSpread),
		Center: center,
	}
}

func parseRange(text string) (models.WeightRange, bool) {
	m, err := structured.Decode(text)
	if err != nil {
		return models.WeightRange{}, false
	}

	center, hasCenter := structured.OptionalFloat(m, "center")
	if !hasCenter {
		center, hasCenter = structured.OptionalFloat(m, "appropriateWeight")
	}
	lo, hasMin := structured.OptionalFloat(m, "min")
	hi, hasMax := structured.OptionalFloat(m, "max")

	var r models.WeightRange
	switch {
	case hasCenter && hasMin && hasMax && lo <= center && center <= hi:
		r = models.WeightRange{Min: lo, Max: hi, Center: center}
	case hasCenter:
		r = spread(center)
	case hasMin && hasMax && lo <= hi:
		r = models.WeightRange{Min: lo, Max: hi, Center: (lo + hi) / 2}
	default:
		return models.WeightRange{}, false
	}

	if bands, ok := structured.Object(m, "bands"); ok {
		r.Bands = parseBands(bands)
	}
	r.Source = models.RangeFromProvider
	return r, true
}

func parseBands(m map[string]interface{}) *models.BandThresholds {
	aMax, okA := structured.OptionalFloat(m, "a_max")
	eMin, okE := structured.OptionalFloat(m, "e_min")
	bLo, bHi, okB := structured.Pair(m, "b")
	cLo, cHi, okC := structured.Pair(m, "c")
	dLo, dHi, okD := structured.Pair(m, "d")
	if !okA || !okE || !okB || !okC || !okD || aMax >= eMin {
		return nil
	}
	return &models.BandThresholds{
		AMax: aMax,
		B:    [2]float64{bLo, bHi},
		C:    [2]float64{cLo, cHi},
		D:    [2]float64{dLo, dHi},
		EMin: eMin,
	}
}
