package textgen

import (
	"context"
	"errors"
	"net/http"

	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"

	httpclient "growth-forecast/internal/common/http"
)

// GenAI talks to Gemini through the google genai SDK.
type GenAI struct {
	client *genai.Client
	model  string
}

func NewGenAI(ctx context.Context, apiKey, model string) (*GenAI, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create genai client")
	}
	return &GenAI{client: client, model: model}, nil
}

func (g *GenAI) Name() string { return "gemini-genai" }

// Configured is always true; NewGenAI refuses to build a client without a key.
func (g *GenAI) Configured() bool { return true }

func (g *GenAI) Generate(ctx context.Context, req Request) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(req.Sampling.Temperature),
		TopK:            genai.Ptr(float32(req.Sampling.TopK)),
		TopP:            genai.Ptr(req.Sampling.TopP),
		MaxOutputTokens: int32(req.Sampling.MaxOutputTokens),
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(req.Prompt), config)
	if err != nil {
		return "", goerr.Wrap(classifyGenAIError(err), "failed to generate content", goerr.V("model", g.model))
	}

	text := resp.Text()
	if text == "" {
		return "", goerr.New("empty response from gemini", goerr.V("model", g.model))
	}
	return text, nil
}

// classifyGenAIError turns SDK API errors into *http.StatusError so retry policies see the status.
func classifyGenAIError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &httpclient.StatusError{Method: http.MethodPost, URL: "genai", StatusCode: apiErr.Code, Body: apiErr.Message}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return &httpclient.StatusError{Method: http.MethodPost, URL: "genai", StatusCode: apiErrPtr.Code, Body: apiErrPtr.Message}
	}
	return err
}
