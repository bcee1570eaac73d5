package orchestrator

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"growth-forecast/internal/analytics"
	stderrors "growth-forecast/internal/common/errors"
	httpclient "growth-forecast/internal/common/http"
	"growth-forecast/internal/common/logger"
	"growth-forecast/internal/models"
	"growth-forecast/internal/persistence"
)

// ==========================
// Test doubles
// ==========================

type fakePredictor struct {
	notReady error
	record   models.PredictionRecord
	rng      models.WeightRange
	panic    bool
	wait     func()
}

func (f *fakePredictor) Ready() error { return f.notReady }

func (f *fakePredictor) Predict(ctx context.Context, s models.SubjectProfile) models.PredictionRecord {
	if f.panic {
		panic("provider client bug")
	}
	return f.record
}

func (f *fakePredictor) AppropriateRange(ctx context.Context, s models.SubjectProfile) models.WeightRange {
	if f.wait != nil {
		f.wait()
	}
	return f.rng
}

type fakeCosts struct {
	wait func()
	got  float64
}

func (f *fakeCosts) Simulate(ctx context.Context, s models.SubjectProfile, w float64) models.CostSimulation {
	if f.wait != nil {
		f.wait()
	}
	f.got = w
	return models.CostSimulation{Categories: []models.CostCategory{{ID: "initial", Title: "Initial"}}}
}

type fakeImages struct {
	job    *models.ImageJob
	wait   func()
	prompt models.ImagePrompt
}

func (f *fakeImages) Generate(ctx context.Context, p models.ImagePrompt) *models.ImageJob {
	if f.wait != nil {
		f.wait()
	}
	f.prompt = p
	return f.job
}

type recordingSink struct {
	mu     sync.Mutex
	events []analytics.Event
}

func (s *recordingSink) Record(ctx context.Context, e analytics.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

func (s *recordingSink) names() []analytics.EventName {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []analytics.EventName
	for _, e := range s.events {
		out = append(out, e.Name)
	}
	return out
}

type failingTier struct{}

func (failingTier) Tier() persistence.Tier { return persistence.TierREST }

func (failingTier) Attempt(context.Context, *models.InteractionRecord) (string, error) {
	return "", errors.New("blocked header")
}

var t0 = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

func steppingClock() func() time.Time {
	var mu sync.Mutex
	n := 0
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		n++
		return t0.Add(time.Duration(n-1) * 1500 * time.Millisecond)
	}
}

func shiba() models.SubjectProfile {
	return models.SubjectProfile{
		OwnerID:       "U123",
		Breed:         "Shiba",
		Sex:           models.SexMale,
		BirthDate:     "2024-03-03",
		CurrentWeight: 3.0,
	}
}

type fixture struct {
	predictor *fakePredictor
	costs     *fakeCosts
	images    *fakeImages
	chain     *persistence.Chain
	sink      *recordingSink
	orch      *Orchestrator
}

func newFixture(t *testing.T) *fixture {
	f := &fixture{
		predictor: &fakePredictor{
			record: models.PredictionRecord{PredictedWeight: 9.0, PredictedLength: 50, PredictedHeight: 38},
			rng:    models.WeightRange{Min: 2.55, Max: 3.45, Center: 3.0, Source: models.RangeFromProvider},
		},
		costs:  &fakeCosts{},
		images: &fakeImages{job: &models.ImageJob{ID: "job-1", State: models.ImageSucceeded, Reference: "https://cdn/dog.png"}},
		sink:   &recordingSink{},
	}
	f.chain = persistence.NewChain(nil, logger.NewTestLogger(t), []persistence.Strategy{failingTier{}})
	f.orch = New(Config{PlaceholderURL: "/default-dog.svg"}, f.predictor, f.costs, f.images, f.chain,
		logger.NewTestLogger(t), WithAnalytics(f.sink), WithClock(steppingClock()))
	return f
}

// ==========================
// Run
// ==========================

func TestRunShibaScenario(t *testing.T) {
	f := newFixture(t)

	result, err := f.orch.Run(context.Background(), shiba())

	require.NoError(t, err)
	assert.Equal(t, 9.0, result.Prediction.PredictedWeight)
	assert.Equal(t, models.CategoryIdeal, result.Evaluation.Category)
	assert.Equal(t, models.GradeC, result.Evaluation.Grade)
	assert.Equal(t, "https://cdn/dog.png", result.ImageURL)
	assert.False(t, result.ImagePlaceholder)
	assert.NotEmpty(t, result.Costs.Categories)
	assert.Equal(t, 9.0, f.costs.got)
	assert.Contains(t, f.images.prompt.Text, "adult male Shiba dog weighing approximately 9kg")
	assert.Equal(t, int64(1500), result.ProcessingTimeMS)

	id, err := persistence.ParseRecordID(result.RecordID)
	require.NoError(t, err)
	assert.Equal(t, persistence.TierLocal, id.Tier)

	rec, patch, ok := f.chain.Local().Get(id)
	require.True(t, ok)
	assert.Equal(t, 9.0, rec.Prediction.PredictedWeight)
	require.NotNil(t, patch.CompletedAt)
	assert.Equal(t, result.CompletedAt, *patch.CompletedAt)
	assert.Equal(t, models.GradeC, *patch.WeightGrade)

	assert.Equal(t, []analytics.EventName{analytics.PredictionStart, analytics.PredictionComplete}, f.sink.names())
}

func TestRunUsesPlaceholderWhenImageFails(t *testing.T) {
	f := newFixture(t)
	f.images.job = &models.ImageJob{ID: "job-1", State: models.ImageTimedOut, Polls: 150}

	result, err := f.orch.Run(context.Background(), shiba())

	require.NoError(t, err)
	assert.True(t, result.ImagePlaceholder)
	assert.Equal(t, "/default-dog.svg", result.ImageURL)
}

func TestRunRejectsMissingFields(t *testing.T) {
	f := newFixture(t)

	_, err := f.orch.Run(context.Background(), models.SubjectProfile{CurrentWeight: 3})

	require.Error(t, err)
	std := stderrors.AsStandard(err)
	assert.Equal(t, stderrors.ErrCodeMissingRequiredFields, std.Code)
	assert.Equal(t, 0, f.chain.Local().Summary().TotalPredictions)
	assert.Empty(t, f.sink.names())
}

func TestRunRejectsUnconfiguredProvider(t *testing.T) {
	f := newFixture(t)
	f.predictor.notReady = stderrors.NewProviderNotConfiguredError("gemini-rest")

	result, err := f.orch.Run(context.Background(), shiba())

	assert.Nil(t, result)
	std := stderrors.AsStandard(err)
	assert.Equal(t, stderrors.ErrCodeProviderNotConfigured, std.Code)
	assert.Equal(t, http.StatusInternalServerError, stderrors.HTTPStatus(std.Code))
	assert.Equal(t, 0, f.chain.Local().Summary().TotalPredictions)
	assert.Empty(t, f.sink.names())
}

func TestRunNormalizesSexLabel(t *testing.T) {
	f := newFixture(t)
	subject := shiba()
	subject.Sex = "オス"

	result, err := f.orch.Run(context.Background(), subject)

	require.NoError(t, err)
	assert.Equal(t, models.SexMale, result.Subject.Sex)
}

func TestRunFailsWhenContextEnds(t *testing.T) {
	tests := []struct {
		name  string
		setup func(f *fixture, cancel context.CancelFunc)
	}{
		{"cancelled before start", func(f *fixture, cancel context.CancelFunc) { cancel() }},
		{"cancelled during fan-out", func(f *fixture, cancel context.CancelFunc) { f.costs.wait = cancel }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			tt.setup(f, cancel)

			result, err := f.orch.Run(ctx, shiba())

			assert.Nil(t, result)
			assert.Equal(t, stderrors.ErrCodePredictionFailed, stderrors.AsStandard(err).Code)
			assert.ErrorIs(t, err, context.Canceled)

			sum := f.chain.Local().Summary()
			assert.Equal(t, 1, sum.TotalPredictions)
			assert.Equal(t, 0, sum.CompletedPredictions, "fallback values are not saved as a completed prediction")
			assert.Equal(t, []analytics.EventName{analytics.PredictionStart}, f.sink.names())
		})
	}
}

func TestRunSurfacesEscapingFailures(t *testing.T) {
	f := newFixture(t)
	f.predictor.panic = true

	result, err := f.orch.Run(context.Background(), shiba())

	assert.Nil(t, result)
	std := stderrors.AsStandard(err)
	assert.Equal(t, stderrors.ErrCodePredictionFailed, std.Code)
	assert.Equal(t, "prediction generation failed", std.Message)

	sum := f.chain.Local().Summary()
	assert.Equal(t, 1, sum.TotalPredictions, "provisional record is kept")
	assert.Equal(t, 0, sum.CompletedPredictions)
	assert.Equal(t, []analytics.EventName{analytics.PredictionStart}, f.sink.names())
}

func TestRunFansOutIndependentSteps(t *testing.T) {
	f := newFixture(t)
	var started sync.WaitGroup
	started.Add(3)
	release := make(chan struct{})
	barrier := func() {
		started.Done()
		<-release
	}
	f.predictor.wait = barrier
	f.costs.wait = barrier
	f.images.wait = barrier

	go func() {
		started.Wait()
		close(release)
	}()

	done := make(chan error, 1)
	go func() {
		_, err := f.orch.Run(context.Background(), shiba())
		done <- err
	}()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("image, evaluation and cost steps did not run concurrently")
	}
}

// ==========================
// Feedback
// ==========================

func TestRateAndCorrect(t *testing.T) {
	f := newFixture(t)
	result, err := f.orch.Run(context.Background(), shiba())
	require.NoError(t, err)

	landed, err := f.orch.Rate(context.Background(), result.RecordID, models.RatingYes)
	require.NoError(t, err)
	assert.Equal(t, result.RecordID, landed.String())

	w := 3.4
	_, err = f.orch.Correct(context.Background(), result.RecordID, models.Correction{CurrentWeight: &w})
	require.NoError(t, err)

	rec, _, _ := f.chain.Local().Get(landed)
	assert.Equal(t, models.RatingYes, rec.SatisfactionRating)
	assert.Equal(t, 3.4, rec.Subject.CurrentWeight)
	assert.Contains(t, f.sink.names(), analytics.SatisfactionRating)
	assert.Contains(t, f.sink.names(), analytics.CorrectionSubmit)
}

func TestFeedbackValidation(t *testing.T) {
	f := newFixture(t)
	zero := 0.0

	_, err := f.orch.Rate(context.Background(), "bogus", models.RatingYes)
	assert.Equal(t, stderrors.ErrCodeInvalidRequest, stderrors.AsStandard(err).Code)

	_, err = f.orch.Rate(context.Background(), "rest:1", models.Rating("maybe"))
	assert.Equal(t, stderrors.ErrCodeInvalidRequest, stderrors.AsStandard(err).Code)

	_, err = f.orch.Correct(context.Background(), "rest:1", models.Correction{})
	assert.Equal(t, stderrors.ErrCodeInvalidRequest, stderrors.AsStandard(err).Code)

	_, err = f.orch.Correct(context.Background(), "rest:1", models.Correction{CurrentWeight: &zero})
	assert.Equal(t, stderrors.ErrCodeInvalidRequest, stderrors.AsStandard(err).Code)
}

// ==========================
// Standalone image
// ==========================

func TestGenerateImage(t *testing.T) {
	req := ImageRequest{Prompt: "on a sofa", Breed: "Shiba", Gender: "オス", PredictedWeight: 9}

	tests := []struct {
		name     string
		job      *models.ImageJob
		wantURL  string
		wantCode stderrors.ErrorCode
	}{
		{"success", &models.ImageJob{State: models.ImageSucceeded, Reference: "https://cdn/x.png"}, "https://cdn/x.png", ""},
		{"timeout", &models.ImageJob{ID: "j", State: models.ImageTimedOut, Polls: 150}, "", stderrors.ErrCodeImageGenerationTimeout},
		{"not configured", &models.ImageJob{State: models.ImageFailed, Cause: stderrors.NewProviderNotConfiguredError("image")}, "", stderrors.ErrCodeProviderNotConfigured},
		{"provider rejected", &models.ImageJob{State: models.ImageFailed, Cause: &httpclient.StatusError{StatusCode: http.StatusUnauthorized}}, "", stderrors.ErrCodeImageGenerationFailed},
		{"provider failed", &models.ImageJob{State: models.ImageFailed}, "", stderrors.ErrCodeImageGenerationFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.images.job = tt.job

			url, err := f.orch.GenerateImage(context.Background(), req)

			assert.Equal(t, tt.wantURL, url)
			if tt.wantCode == "" {
				require.NoError(t, err)
				assert.Contains(t, f.images.prompt.Text, "adult male Shiba")
				assert.Contains(t, f.images.prompt.Text, "on a sofa")
				return
			}
			assert.Equal(t, tt.wantCode, stderrors.AsStandard(err).Code)
		})
	}
}
