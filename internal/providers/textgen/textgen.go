// Package textgen holds the text-generation provider backends.
package textgen

import "context"

// Sampling mirrors the provider's generation config.
type Sampling struct {
	Temperature     float32
	TopK            int
	TopP            float32
	MaxOutputTokens int
}

var (
	PredictionSampling = Sampling{Temperature: 0.7, TopK: 40, TopP: 0.95, MaxOutputTokens: 2048}
	RangeSampling      = Sampling{Temperature: 0.3, TopK: 20, TopP: 0.8, MaxOutputTokens: 512}
	CostSampling       = Sampling{Temperature: 0.5, TopK: 40, TopP: 0.9, MaxOutputTokens: 2048}
)

type Request struct {
	Prompt   string
	Sampling Sampling
}

// Generator returns the raw text of one completion. Implementations surface HTTP
// failures as *http.StatusError so callers can classify rate limiting.
type Generator interface {
	Name() string
	// Configured reports whether credentials are present.
	Configured() bool
	Generate(ctx context.Context, req Request) (string, error)
}
