package imagegen

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"growth-forecast/internal/common/auth"
	"growth-forecast/internal/common/errors"
	httpclient "growth-forecast/internal/common/http"
	"growth-forecast/internal/models"
)

func TestSubmitSendsPromptAndReference(t *testing.T) {
	var got submitRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/predictions", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"p1","status":"starting"}`))
	}))
	defer server.Close()

	c := NewClient(server.URL+"/v1/", "flux", auth.StaticToken("tok"), WithSize(768, 512))
	pred, err := c.Submit(context.Background(), models.ImagePrompt{Text: "a dog", ReferenceImage: "QUJD"})

	require.NoError(t, err)
	assert.Equal(t, "p1", pred.ID)
	assert.Equal(t, models.ImageStarting, pred.State())
	assert.Equal(t, "flux", got.Version)
	assert.Equal(t, "a dog", got.Input.Prompt)
	assert.Equal(t, "data:image/png;base64,QUJD", got.Input.InputImage)
	assert.Equal(t, 768, got.Input.Width)
	assert.Equal(t, 512, got.Input.Height)
}

func TestSubmitRejectsShapelessReply(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"message":"ok"}`))
	}))
	defer server.Close()

	_, err := NewClient(server.URL, "m", auth.StaticToken("t")).Submit(context.Background(), models.ImagePrompt{Text: "x"})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeProviderResponseInvalid, errors.AsStandard(err).Code)
}

func TestGetAndCancelPaths(t *testing.T) {
	var paths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path)
		w.Write([]byte(`{"id":"p1","status":"processing"}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, "m", auth.StaticToken("t"))
	pred, err := c.Get(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, models.ImageProcessing, pred.State())
	require.NoError(t, c.Cancel(context.Background(), "p1"))

	assert.Equal(t, []string{"GET /predictions/p1", "POST /predictions/p1/cancel"}, paths)
}

func TestCallRefreshesTokenOnUnauthorized(t *testing.T) {
	var tokenCalls, apiCalls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/token" {
			n := atomic.AddInt32(&tokenCalls, 1)
			json.NewEncoder(w).Encode(auth.TokenResponse{AccessToken: map[int32]string{1: "stale", 2: "fresh"}[n], ExpiresIn: 3600})
			return
		}
		atomic.AddInt32(&apiCalls, 1)
		if r.Header.Get("Authorization") != "Bearer fresh" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"id":"p1","status":"succeeded","output":["https://cdn/x.png"]}`))
	}))
	defer server.Close()

	tokens := auth.NewTokenCache(server.URL+"/token", "id", "secret", auth.WithHTTPClient(httpclient.NewClientWith(server.Client())))
	pred, err := NewClient(server.URL, "m", tokens).Get(context.Background(), "p1")

	require.NoError(t, err)
	assert.Equal(t, "https://cdn/x.png", pred.FirstOutput())
	assert.EqualValues(t, 2, atomic.LoadInt32(&tokenCalls))
	assert.EqualValues(t, 2, atomic.LoadInt32(&apiCalls))
}

func TestCallWithoutCredentials(t *testing.T) {
	_, err := NewClient("http://unused", "m", auth.StaticToken("")).Submit(context.Background(), models.ImagePrompt{Text: "x"})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeProviderNotConfigured, errors.AsStandard(err).Code)

	_, err = NewClient("http://unused", "m", nil).Get(context.Background(), "p1")
	assert.Equal(t, errors.ErrCodeProviderNotConfigured, errors.AsStandard(err).Code)
}

func TestPredictionOutputs(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantState models.ImageJobState
		wantFirst string
	}{
		{"replicate list", `{"id":"a","status":"succeeded","output":["https://x/1.png"]}`, models.ImageSucceeded, "https://x/1.png"},
		{"replicate string", `{"id":"a","status":"succeeded","output":"https://x/1.png"}`, models.ImageSucceeded, "https://x/1.png"},
		{"synchronous images", `{"output":{"images":["QUJD"]}}`, models.ImageSucceeded, "data:image/png;base64,QUJD"},
		{"synchronous error", `{"error":"bad prompt"}`, models.ImageFailed, ""},
		{"failed", `{"id":"a","status":"failed","error":"nsfw"}`, models.ImageFailed, ""},
		{"unknown status", `{"id":"a","status":"queued"}`, models.ImageProcessing, ""},
		{"succeeded without output", `{"id":"a","status":"succeeded","output":[""]}`, models.ImageSucceeded, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p Prediction
			require.NoError(t, json.Unmarshal([]byte(tt.body), &p))
			assert.Equal(t, tt.wantState, p.State())
			assert.Equal(t, tt.wantFirst, p.FirstOutput())
		})
	}
}

func TestPublicURL(t *testing.T) {
	assert.Equal(t, "https://storage.googleapis.com/b/images/x.png", PublicURL("b", "images/x.png"))
	a := NewGCSArchive(nil, "b", "/images/")
	assert.Equal(t, "images/x.png", a.objectName("x.png"))
}
