package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	stderrors "growth-forecast/internal/common/errors"
	"growth-forecast/internal/common/logger"
	"growth-forecast/internal/models"
	"growth-forecast/internal/orchestrator"
	"growth-forecast/internal/persistence"
)

type fakePipeline struct {
	subject   models.SubjectProfile
	runErr    error
	imageReq  orchestrator.ImageRequest
	imageURL  string
	imageErr  error
	ratedID   string
	rating    models.Rating
	corrected *models.Correction
}

func (f *fakePipeline) Run(ctx context.Context, s models.SubjectProfile) (*models.PredictionResult, error) {
	f.subject = s
	if f.runErr != nil {
		return nil, f.runErr
	}
	return &models.PredictionResult{RecordID: "sql:42", Subject: s, ImageURL: "/default-dog.svg", ImagePlaceholder: true}, nil
}

func (f *fakePipeline) Rate(ctx context.Context, id string, r models.Rating) (persistence.RecordID, error) {
	f.ratedID, f.rating = id, r
	return persistence.ParseRecordID(id)
}

func (f *fakePipeline) Correct(ctx context.Context, id string, c models.Correction) (persistence.RecordID, error) {
	f.corrected = &c
	if c.Empty() {
		return persistence.RecordID{}, stderrors.NewInvalidRequestError("correction has no fields")
	}
	return persistence.RecordID{Tier: persistence.TierLocal, Key: id}, nil
}

func (f *fakePipeline) GenerateImage(ctx context.Context, req orchestrator.ImageRequest) (string, error) {
	f.imageReq = req
	return f.imageURL, f.imageErr
}

type pingerFunc func(ctx context.Context) error

func (p pingerFunc) Ping(ctx context.Context) error { return p(ctx) }

func newTestServer(t *testing.T, p *fakePipeline, pingers map[string]Pinger) (*httptest.Server, *persistence.LocalStore) {
	store := persistence.NewLocalStore()
	ts := httptest.NewServer(NewRouter(Options{
		Pipeline: p,
		Exporter: store,
		Pingers:  pingers,
		Logger:   logger.NewTestLogger(t),
		Now:      func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) },
	}))
	t.Cleanup(ts.Close)
	return ts, store
}

func doReq(t *testing.T, method, url string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var rdr io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rdr = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		rdr = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, url, rdr)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", "https://form.example")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp, out
}

func validImageBody() map[string]any {
	return map[string]any{"prompt": "on a sofa", "breed": "Shiba", "gender": "オス", "predictedWeight": 9.0}
}

func TestGenerateImage(t *testing.T) {
	tests := []struct {
		name       string
		body       any
		imageURL   string
		imageErr   error
		wantStatus int
		wantURL    string
	}{
		{"success", validImageBody(), "https://cdn/dog.png", nil, http.StatusOK, "https://cdn/dog.png"},
		{"missing prompt", map[string]any{"breed": "Shiba", "gender": "オス", "predictedWeight": 9}, "", nil, http.StatusBadRequest, ""},
		{"zero weight", map[string]any{"prompt": "x", "breed": "Shiba", "gender": "オス", "predictedWeight": 0}, "", nil, http.StatusBadRequest, ""},
		{"not json", "{", "", nil, http.StatusBadRequest, ""},
		{"not configured", validImageBody(), "", stderrors.NewProviderNotConfiguredError("image"), http.StatusInternalServerError, ""},
		{"timeout", validImageBody(), "", stderrors.NewImageGenerationTimeoutError("job-1", 150), http.StatusRequestTimeout, ""},
		{"unexpected shape", validImageBody(), "", stderrors.NewImageGenerationFailedError("job-1", "no output"), http.StatusInternalServerError, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &fakePipeline{imageURL: tt.imageURL, imageErr: tt.imageErr}
			ts, _ := newTestServer(t, p, nil)

			resp, body := doReq(t, http.MethodPost, ts.URL+"/api/generate-image", tt.body)

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, tt.wantURL, body["imageUrl"])
				assert.Equal(t, "Shiba", p.imageReq.Breed)
				return
			}
			assert.NotEmpty(t, body["error"])
			assert.EqualValues(t, tt.wantStatus, body["status"])
		})
	}
}

func TestGenerateImageMethods(t *testing.T) {
	ts, _ := newTestServer(t, &fakePipeline{}, nil)

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/api/generate-image", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://form.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")
	pre, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	pre.Body.Close()
	assert.Equal(t, http.StatusOK, pre.StatusCode)
	assert.Equal(t, "*", pre.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, pre.Header.Get("Access-Control-Allow-Methods"), "POST")

	resp, _ := doReq(t, http.MethodOptions, ts.URL+"/api/generate-image", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := doReq(t, http.MethodGet, ts.URL+"/api/generate-image", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	assert.Equal(t, "Method not allowed", body["error"])
}

func TestCreatePrediction(t *testing.T) {
	p := &fakePipeline{}
	ts, _ := newTestServer(t, p, nil)

	resp, body := doReq(t, http.MethodPost, ts.URL+"/api/predictions", map[string]any{
		"breed": "Shiba", "gender": "オス", "birthDate": "2024-03-03", "currentWeight": 3.0,
	})

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "sql:42", body["recordId"])
	assert.Equal(t, models.SexMale, p.subject.Sex)
	assert.Equal(t, true, body["imagePlaceholder"])
}

func TestCreatePredictionErrors(t *testing.T) {
	p := &fakePipeline{runErr: stderrors.NewMissingRequiredFieldsError([]string{"breed"})}
	ts, _ := newTestServer(t, p, nil)

	resp, body := doReq(t, http.MethodPost, ts.URL+"/api/predictions", map[string]any{"gender": "male"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "MISSING_REQUIRED_FIELDS", body["code"])
	assert.Equal(t, "breed", body["details"])

	p.runErr = stderrors.NewPredictionFailedError(errors.New("boom"))
	resp, body = doReq(t, http.MethodPost, ts.URL+"/api/predictions", map[string]any{"breed": "Shiba"})
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "prediction generation failed", body["error"])
	assert.Nil(t, body["details"], "internal causes are not echoed")
}

func TestFeedbackEndpoints(t *testing.T) {
	p := &fakePipeline{}
	ts, _ := newTestServer(t, p, nil)

	resp, body := doReq(t, http.MethodPost, ts.URL+"/api/predictions/sql:42/rating", map[string]any{"rating": "yes"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "sql:42", body["recordId"])
	assert.Equal(t, models.RatingYes, p.rating)

	resp, _ = doReq(t, http.MethodPost, ts.URL+"/api/predictions/sql:42/rating", map[string]any{"rating": "maybe"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = doReq(t, http.MethodPatch, ts.URL+"/api/predictions/rest:7", map[string]any{"currentWeight": 3.4})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "local:rest:7", body["recordId"])
	require.NotNil(t, p.corrected.CurrentWeight)
	assert.Equal(t, 3.4, *p.corrected.CurrentWeight)

	resp, _ = doReq(t, http.MethodPatch, ts.URL+"/api/predictions/rest:7", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestExports(t *testing.T) {
	ts, store := newTestServer(t, &fakePipeline{}, nil)
	_, err := store.Attempt(context.Background(), &models.InteractionRecord{
		Subject:   models.SubjectProfile{OwnerID: "U1", Breed: "Shiba", Sex: models.SexMale, BirthDate: "2024-03-03"},
		StartedAt: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	resp, err := http.Get(ts.URL + "/api/exports/local.csv")
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/csv")
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "id,timestamp,owner_id"))
	assert.Contains(t, lines[1], "Shiba")

	resp2, body := doReq(t, http.MethodGet, ts.URL+"/api/exports/summary", nil)
	assert.Equal(t, http.StatusOK, resp2.StatusCode)
	assert.EqualValues(t, 1, body["totalPredictions"])
}

func TestHealthAndReady(t *testing.T) {
	up := pingerFunc(func(context.Context) error { return nil })
	down := pingerFunc(func(context.Context) error { return errors.New("dial tcp: connection refused") })

	ts, _ := newTestServer(t, &fakePipeline{}, map[string]Pinger{"redis": up})
	resp, body := doReq(t, http.MethodGet, ts.URL+"/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", body["status"])

	resp, body = doReq(t, http.MethodGet, ts.URL+"/ready", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ready", body["status"])

	ts2, _ := newTestServer(t, &fakePipeline{}, map[string]Pinger{"redis": up, "postgres": down})
	resp, body = doReq(t, http.MethodGet, ts2.URL+"/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	checks := body["checks"].(map[string]any)
	assert.Equal(t, "ok", checks["redis"])
	assert.Contains(t, checks["postgres"], "connection refused")

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCORSAllowList(t *testing.T) {
	h := corsHandler([]string{"https://app.example"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://app.example")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "https://app.example", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
