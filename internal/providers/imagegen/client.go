package imagegen

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"growth-forecast/internal/common/errors"
	httpclient "growth-forecast/internal/common/http"
	"growth-forecast/internal/models"
)

const providerName = "image"

// TokenSource yields a bearer token; auth.StaticToken and auth.TokenCache both satisfy it.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

type invalidator interface {
	Invalidate()
}

type Client struct {
	baseURL string
	model   string
	width   int
	height  int
	tokens  TokenSource
	http    *httpclient.Client
}

type Option func(*Client)

func WithHTTPClient(c *httpclient.Client) Option {
	return func(cl *Client) { cl.http = c }
}

func WithSize(width, height int) Option {
	return func(cl *Client) {
		if width > 0 && height > 0 {
			cl.width, cl.height = width, height
		}
	}
}

func NewClient(baseURL, model string, tokens TokenSource, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		model:   model,
		width:   1024,
		height:  1024,
		tokens:  tokens,
		http:    httpclient.NewClient(30 * time.Second),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type input struct {
	Prompt       string `json:"prompt"`
	InputImage   string `json:"input_image,omitempty"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	NumOutputs   int    `json:"num_outputs"`
	OutputFormat string `json:"output_format"`
}

type submitRequest struct {
	Version string `json:"version"`
	Input   input  `json:"input"`
}

// Prediction is the provider's view of a job. Output is polymorphic across providers:
// a string, a list of strings, or {"images": [...]}.
type Prediction struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Output json.RawMessage `json:"output"`
	Error  interface{}     `json:"error"`
}

// State maps the provider status onto the job states. Synchronous providers
// omit the status and answer with outputs directly.
func (p *Prediction) State() models.ImageJobState {
	switch models.ImageJobState(p.Status) {
	case models.ImageStarting, models.ImageProcessing, models.ImageSucceeded, models.ImageFailed, models.ImageCanceled:
		return models.ImageJobState(p.Status)
	}
	if p.Status == "" {
		switch {
		case len(p.Outputs()) > 0:
			return models.ImageSucceeded
		case p.ErrorMessage() != "":
			return models.ImageFailed
		}
	}
	return models.ImageProcessing
}

func (p *Prediction) ErrorMessage() string {
	switch v := p.Error.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		raw, _ := json.Marshal(v)
		return string(raw)
	}
}

func (p *Prediction) Outputs() []string {
	if len(p.Output) == 0 || string(p.Output) == "null" {
		return nil
	}
	var one string
	if err := json.Unmarshal(p.Output, &one); err == nil {
		return nonEmpty([]string{one})
	}
	var many []string
	if err := json.Unmarshal(p.Output, &many); err == nil {
		return nonEmpty(many)
	}
	var wrapped struct {
		Images []string `json:"images"`
	}
	if err := json.Unmarshal(p.Output, &wrapped); err == nil {
		return nonEmpty(wrapped.Images)
	}
	return nil
}

// FirstOutput returns the first output as a URL; bare base64 payloads become PNG data URLs.
func (p *Prediction) FirstOutput() string {
	outs := p.Outputs()
	if len(outs) == 0 {
		return ""
	}
	ref := outs[0]
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") || strings.HasPrefix(ref, "data:") {
		return ref
	}
	return "data:image/png;base64," + ref
}

func nonEmpty(in []string) []string {
	out := in[:0]
	for _, s := range in {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

func (c *Client) Submit(ctx context.Context, prompt models.ImagePrompt) (*Prediction, error) {
	body := submitRequest{
		Version: c.model,
		Input: input{
			Prompt:       prompt.Text,
			Width:        c.width,
			Height:       c.height,
			NumOutputs:   1,
			OutputFormat: "png",
		},
	}
	if prompt.ReferenceImage != "" {
		body.Input.InputImage = "data:image/png;base64," + prompt.ReferenceImage
	}

	var pred Prediction
	if err := c.call(ctx, http.MethodPost, c.baseURL+"/predictions", body, &pred); err != nil {
		return nil, err
	}
	if pred.ID == "" && !pred.State().Terminal() {
		return nil, errors.NewProviderResponseInvalidError(providerName, "submit response has neither id nor output")
	}
	return &pred, nil
}

func (c *Client) Get(ctx context.Context, id string) (*Prediction, error) {
	var pred Prediction
	if err := c.call(ctx, http.MethodGet, c.baseURL+"/predictions/"+url.PathEscape(id), nil, &pred); err != nil {
		return nil, err
	}
	return &pred, nil
}

func (c *Client) Cancel(ctx context.Context, id string) error {
	return c.call(ctx, http.MethodPost, c.baseURL+"/predictions/"+url.PathEscape(id)+"/cancel", nil, nil)
}

// call retries once with a fresh token when the provider answers 401.
func (c *Client) call(ctx context.Context, method, endpoint string, in, out interface{}) error {
	if c.tokens == nil {
		return errors.NewProviderNotConfiguredError(providerName)
	}
	for attempt := 0; ; attempt++ {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return err
		}
		headers := map[string]string{"Authorization": "Bearer " + token}
		err = c.http.DoJSON(ctx, method, endpoint, headers, in, out)
		if httpclient.StatusCode(err) == http.StatusUnauthorized && attempt == 0 {
			if inv, ok := c.tokens.(invalidator); ok {
				inv.Invalidate()
				continue
			}
		}
		return err
	}
}
