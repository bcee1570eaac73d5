package orchestrator

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"golang.org/x/sync/errgroup"

	"growth-forecast/internal/analytics"
	"growth-forecast/internal/common/errors"
	"growth-forecast/internal/common/logger"
	"growth-forecast/internal/common/metrics"
	"growth-forecast/internal/common/observability"
	"growth-forecast/internal/models"
	"growth-forecast/internal/persistence"
	weightevaluation "growth-forecast/internal/workers/forecast/weight-evaluation"
	imageprompt "growth-forecast/internal/workers/imaging/image-prompt"
)

type Predictor interface {
	// Ready fails when the text provider cannot be called at all.
	Ready() error
	Predict(ctx context.Context, subject models.SubjectProfile) models.PredictionRecord
	AppropriateRange(ctx context.Context, subject models.SubjectProfile) models.WeightRange
}

type CostSimulator interface {
	Simulate(ctx context.Context, subject models.SubjectProfile, predictedWeight float64) models.CostSimulation
}

type ImageGenerator interface {
	Generate(ctx context.Context, prompt models.ImagePrompt) *models.ImageJob
}

// Recorder is the persistence chain as seen by the pipeline.
type Recorder interface {
	Save(ctx context.Context, rec *models.InteractionRecord) persistence.RecordID
	Update(ctx context.Context, id persistence.RecordID, patch models.RecordPatch) persistence.RecordID
}

type Config struct {
	PlaceholderURL string
	// Budget bounds one whole run; zero means no limit beyond the caller's context.
	Budget time.Duration
}

type Orchestrator struct {
	config    Config
	predictor Predictor
	costs     CostSimulator
	images    ImageGenerator
	recorder  Recorder
	sink      analytics.Sink
	obs       *observability.Observability
	logger    logger.Logger
	now       func() time.Time
}

type Option func(*Orchestrator)

func WithAnalytics(s analytics.Sink) Option {
	return func(o *Orchestrator) { o.sink = s }
}

func WithObservability(obs *observability.Observability) Option {
	return func(o *Orchestrator) { o.obs = obs }
}

func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

func New(cfg Config, predictor Predictor, costs CostSimulator, images ImageGenerator, recorder Recorder, log logger.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		config:    cfg,
		predictor: predictor,
		costs:     costs,
		images:    images,
		recorder:  recorder,
		sink:      analytics.NoopSink{},
		logger:    logger.ForComponent(log, "orchestrator"),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run executes one prediction. Component fallbacks are absorbed; anything else that
// escapes a step, or the context ending mid-run, aborts the run as PREDICTION_FAILED.
// Persistence never aborts it. Missing input and missing provider credentials are
// rejected before anything is recorded.
func (o *Orchestrator) Run(ctx context.Context, subject models.SubjectProfile) (*models.PredictionResult, error) {
	subject.Sex = models.ParseSex(string(subject.Sex))
	if missing := subject.MissingFields(); len(missing) > 0 {
		metrics.Predictions.WithLabelValues("rejected").Inc()
		return nil, errors.NewMissingRequiredFieldsError(missing)
	}
	if err := o.predictor.Ready(); err != nil {
		metrics.Predictions.WithLabelValues("rejected").Inc()
		o.logger.Error("text provider not ready", map[string]interface{}{"error": err.Error()})
		return nil, err
	}

	ctx, span := o.obs.StartSpan(ctx, "prediction.run")
	defer span.End()

	started := o.now()
	id := o.recorder.Save(ctx, &models.InteractionRecord{Subject: subject, StartedAt: started})
	o.sink.Record(ctx, analytics.PredictionStarted(subject, id.String(), started))
	log := o.logger.With(map[string]interface{}{"recordId": id.String()})
	log.Info("prediction started", map[string]interface{}{"breed": subject.BreedLabel()})

	result, err := o.execute(ctx, subject)
	if err != nil {
		metrics.Predictions.WithLabelValues("failed").Inc()
		o.obs.RecordRun(ctx, "failed")
		log.Error("prediction failed", map[string]interface{}{"error": err.Error()})
		return nil, errors.NewPredictionFailedError(err)
	}

	completed := o.now()
	result.RecordID = id.String()
	result.StartedAt = started
	result.CompletedAt = completed
	result.ProcessingTimeMS = completed.Sub(started).Milliseconds()

	o.recorder.Update(ctx, id, completionPatch(result))

	metrics.Predictions.WithLabelValues("completed").Inc()
	metrics.PredictionDuration.Observe(completed.Sub(started).Seconds())
	o.obs.RecordRun(ctx, "completed")
	o.sink.Record(ctx, analytics.PredictionCompleted(result))
	log.Info("prediction completed", map[string]interface{}{
		"predictedWeight":  result.Prediction.PredictedWeight,
		"grade":            string(result.Evaluation.Grade),
		"imagePlaceholder": result.ImagePlaceholder,
		"processingTimeMs": result.ProcessingTimeMS,
	})
	return result, nil
}

func (o *Orchestrator) execute(ctx context.Context, subject models.SubjectProfile) (*models.PredictionResult, error) {
	if o.config.Budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.config.Budget)
		defer cancel()
	}

	var prediction models.PredictionRecord
	if err := o.step(ctx, "predict", func(ctx context.Context) {
		prediction = o.predictor.Predict(ctx, subject)
	}); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("prediction interrupted: %w", err)
	}
	prompt := imageprompt.Compose(imageprompt.FromPrediction(subject, prediction))

	var (
		job        *models.ImageJob
		evaluation models.WeightEvaluation
		costs      models.CostSimulation
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return o.step(gctx, "image", func(ctx context.Context) {
			job = o.images.Generate(ctx, prompt)
		})
	})
	g.Go(func() error {
		return o.step(gctx, "evaluate", func(ctx context.Context) {
			evaluation = weightevaluation.Evaluate(subject.CurrentWeight, o.predictor.AppropriateRange(ctx, subject))
		})
	})
	g.Go(func() error {
		return o.step(gctx, "costs", func(ctx context.Context) {
			costs = o.costs.Simulate(ctx, subject, prediction.PredictedWeight)
		})
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("prediction interrupted: %w", err)
	}

	result := &models.PredictionResult{
		Subject:          subject,
		Prediction:       prediction,
		Evaluation:       evaluation,
		Costs:            costs,
		ImagePlaceholder: job.UsePlaceholder(),
	}
	if result.ImagePlaceholder {
		result.ImageURL = o.config.PlaceholderURL
	} else {
		result.ImageURL = job.Reference
	}
	return result, nil
}

// step runs fn under its own span and turns a panic into an error.
func (o *Orchestrator) step(ctx context.Context, name string, fn func(ctx context.Context)) (err error) {
	ctx, span := o.obs.StartSpan(ctx, "prediction."+name)
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s step panicked: %v", name, r)
			o.logger.Error("pipeline step panicked", map[string]interface{}{
				"step":  name,
				"panic": fmt.Sprint(r),
				"stack": string(debug.Stack()),
			})
		}
		o.obs.RecordStep(ctx, name, time.Since(start))
		span.End()
	}()
	fn(ctx)
	return nil
}

func completionPatch(r *models.PredictionResult) models.RecordPatch {
	weight := r.Prediction.PredictedWeight
	length := r.Prediction.PredictedLength
	height := r.Prediction.PredictedHeight
	grade := r.Evaluation.Grade
	category := r.Evaluation.Category
	completed := r.CompletedAt
	ms := r.ProcessingTimeMS
	return models.RecordPatch{
		PredictedWeight:  &weight,
		PredictedLength:  &length,
		PredictedHeight:  &height,
		WeightGrade:      &grade,
		WeightCategory:   &category,
		CompletedAt:      &completed,
		ProcessingTimeMS: &ms,
	}
}
