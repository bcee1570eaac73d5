package textgen

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"growth-forecast/internal/common/errors"
	httpclient "growth-forecast/internal/common/http"
)

type GeminiREST struct {
	baseURL string
	apiKey  string
	model   string
	http    *httpclient.Client
}

type GeminiRESTOption func(*GeminiREST)

func WithRESTHTTPClient(c *httpclient.Client) GeminiRESTOption {
	return func(g *GeminiREST) { g.http = c }
}

func NewGeminiREST(baseURL, apiKey, model string, opts ...GeminiRESTOption) *GeminiREST {
	g := &GeminiREST{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		http:    httpclient.NewClient(60 * time.Second),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

type restPart struct {
	Text string `json:"text"`
}

type restContent struct {
	Role  string     `json:"role,omitempty"`
	Parts []restPart `json:"parts"`
}

type restGenerationConfig struct {
	Temperature     float32 `json:"temperature"`
	TopK            int     `json:"topK"`
	TopP            float32 `json:"topP"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type restRequest struct {
	Contents         []restContent        `json:"contents"`
	GenerationConfig restGenerationConfig `json:"generationConfig"`
}

type restResponse struct {
	Candidates []struct {
		Content      restContent `json:"content"`
		FinishReason string      `json:"finishReason"`
	} `json:"candidates"`
}

func (g *GeminiREST) Name() string { return "gemini-rest" }

func (g *GeminiREST) Configured() bool { return g.apiKey != "" }

func (g *GeminiREST) Generate(ctx context.Context, req Request) (string, error) {
	if !g.Configured() {
		return "", errors.NewProviderNotConfiguredError(g.Name())
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.baseURL, url.PathEscape(g.model), url.QueryEscape(g.apiKey))
	body := restRequest{
		Contents: []restContent{{Parts: []restPart{{Text: req.Prompt}}}},
		GenerationConfig: restGenerationConfig{
			Temperature:     req.Sampling.Temperature,
			TopK:            req.Sampling.TopK,
			TopP:            req.Sampling.TopP,
			MaxOutputTokens: req.Sampling.MaxOutputTokens,
		},
	}

	var resp restResponse
	if err := g.http.DoJSON(ctx, http.MethodPost, endpoint, nil, body, &resp); err != nil {
		return "", err
	}

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", errors.NewProviderResponseInvalidError(g.Name(), "no candidates in response")
	}

	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String(), nil
}
