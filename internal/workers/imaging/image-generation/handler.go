package imagegeneration

import (
	"context"
	"encoding/base64"
	"net/http"
	"strings"
	"time"

	"growth-forecast/internal/common/errors"
	httpclient "growth-forecast/internal/common/http"
	"growth-forecast/internal/common/logger"
	"growth-forecast/internal/common/metrics"
	"growth-forecast/internal/common/retry"
	"growth-forecast/internal/models"
	"growth-forecast/internal/providers/imagegen"
)

const TaskType = "image-generation"

// Provider is the submit/poll/cancel surface of an image backend.
type Provider interface {
	Submit(ctx context.Context, prompt models.ImagePrompt) (*imagegen.Prediction, error)
	Get(ctx context.Context, id string) (*imagegen.Prediction, error)
	Cancel(ctx context.Context, id string) error
}

// Archive stores inline image payloads and returns a URL for them.
type Archive interface {
	Store(ctx context.Context, name, contentType string, data []byte) (string, error)
}

type Client struct {
	config   *Config
	provider Provider
	archive  Archive
	logger   logger.Logger
	sleep    func(ctx context.Context, d time.Duration) error
}

type Option func(*Client)

func WithArchive(a Archive) Option {
	return func(c *Client) { c.archive = a }
}

func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) { c.sleep = sleep }
}

// NewClient accepts a nil provider; every job then fails as not configured.
func NewClient(config *Config, provider Provider, log logger.Logger, opts ...Option) *Client {
	c := &Client{
		config:   config,
		provider: provider,
		logger:   logger.ForComponent(log, TaskType),
		sleep:    retry.SleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Generate drives one job to a terminal state. It never returns an error; callers
// check job.UsePlaceholder() and job.Cause.
func (c *Client) Generate(ctx context.Context, prompt models.ImagePrompt) *models.ImageJob {
	job := &models.ImageJob{State: models.ImageSubmitted}
	defer c.record(job)

	if c.provider == nil {
		return c.fail(job, errors.NewProviderNotConfiguredError("image"))
	}

	pred, err := c.provider.Submit(ctx, prompt)
	if err != nil {
		return c.fail(job, err)
	}
	job.ID = pred.ID
	c.logger.Info("image job submitted", map[string]interface{}{"jobId": job.ID})

	if done := c.apply(ctx, job, pred); done {
		return job
	}

	for job.Polls < c.config.MaxPollAttempts {
		if err := c.sleep(ctx, c.config.PollInterval); err != nil {
			job.State = models.ImageCanceled
			job.Cause = err
			return job
		}

		pred, err := c.provider.Get(ctx, job.ID)
		job.Polls++
		if err != nil {
			if pollErrorIsTemporary(err) {
				c.logger.Warn("image poll failed, continuing", map[string]interface{}{
					"jobId": job.ID,
					"poll":  job.Polls,
					"error": err.Error(),
				})
				continue
			}
			return c.fail(job, err)
		}
		if done := c.apply(ctx, job, pred); done {
			return job
		}
	}

	job.State = models.ImageTimedOut
	job.Cause = errors.NewImageGenerationTimeoutError(job.ID, job.Polls)
	c.logger.Warn("image job timed out", map[string]interface{}{"jobId": job.ID, "polls": job.Polls})
	c.cancel(ctx, job.ID)
	return job
}

// apply copies the provider state onto job and reports whether it is terminal.
func (c *Client) apply(ctx context.Context, job *models.ImageJob, pred *imagegen.Prediction) bool {
	job.State = pred.State()
	switch job.State {
	case models.ImageSucceeded:
		ref := pred.FirstOutput()
		if ref == "" {
			c.fail(job, errors.NewImageGenerationFailedError(job.ID, "provider reported success without output"))
			return true
		}
		job.Reference = c.archiveInline(ctx, job.ID, ref)
		return true
	case models.ImageFailed:
		c.fail(job, errors.NewImageGenerationFailedError(job.ID, pred.ErrorMessage()))
		return true
	case models.ImageCanceled:
		job.Cause = errors.NewImageGenerationFailedError(job.ID, "canceled by provider")
		return true
	}
	return false
}

func (c *Client) fail(job *models.ImageJob, cause error) *models.ImageJob {
	job.State = models.ImageFailed
	job.Cause = cause
	job.Reference = ""
	c.logger.Error("image job failed", map[string]interface{}{"jobId": job.ID, "error": cause.Error()})
	return job
}

func (c *Client) cancel(ctx context.Context, id string) {
	if id == "" {
		return
	}
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.config.CancelTimeout)
	defer cancel()
	if err := c.provider.Cancel(cctx, id); err != nil {
		c.logger.Warn("image job cancel failed", map[string]interface{}{"jobId": id, "error": err.Error()})
	}
}

// archiveInline swaps a PNG data URL for an archived copy when an archive is configured.
// Archive failures keep the inline reference.
func (c *Client) archiveInline(ctx context.Context, id, ref string) string {
	const prefix = "data:image/png;base64,"
	if c.archive == nil || !strings.HasPrefix(ref, prefix) {
		return ref
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(ref, prefix))
	if err != nil {
		c.logger.Warn("inline image is not valid base64", map[string]interface{}{"jobId": id, "error": err.Error()})
		return ref
	}
	name := id
	if name == "" {
		name = time.Now().UTC().Format("20060102T150405.000000000")
	}
	url, err := c.archive.Store(ctx, name+".png", "image/png", data)
	if err != nil {
		c.logger.Warn("image archive failed, keeping inline image", map[string]interface{}{"jobId": id, "error": err.Error()})
		return ref
	}
	return url
}

func (c *Client) record(job *models.ImageJob) {
	metrics.ImageJobs.WithLabelValues(string(job.State)).Inc()
	metrics.ImagePolls.Observe(float64(job.Polls))
}

func pollErrorIsTemporary(err error) bool {
	return httpclient.StatusCode(err) == http.StatusTooManyRequests || httpclient.IsTransient(err)
}
