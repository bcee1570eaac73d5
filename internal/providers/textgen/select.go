package textgen

import (
	"context"

	"growth-forecast/internal/common/errors"
)

type Backend struct {
	Name    string // rest | genai
	BaseURL string
	APIKey  string
	Model   string
}

// New builds the configured backend. A genai backend without a key or with a client
// that fails to initialize degrades to an unconfigured REST backend, returned together
// with the reason so the caller can log it; requests then fail as PROVIDER_NOT_CONFIGURED.
func New(ctx context.Context, b Backend, opts ...GeminiRESTOption) (Generator, error) {
	if b.Name != "genai" {
		return NewGeminiREST(b.BaseURL, b.APIKey, b.Model, opts...), nil
	}
	if b.APIKey == "" {
		return NewGeminiREST(b.BaseURL, "", b.Model, opts...), errors.NewProviderNotConfiguredError("gemini-genai")
	}
	g, err := NewGenAI(ctx, b.APIKey, b.Model)
	if err != nil {
		return NewGeminiREST(b.BaseURL, "", b.Model, opts...), errors.NewProviderNotConfiguredError("gemini-genai").WithMetadata("initError", err.Error())
	}
	return g, nil
}
