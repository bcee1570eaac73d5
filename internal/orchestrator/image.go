package orchestrator

import (
	"context"

	"growth-forecast/internal/common/errors"
	"growth-forecast/internal/models"
	imageprompt "growth-forecast/internal/workers/imaging/image-prompt"
)

// ImageRequest is the standalone image generation input.
type ImageRequest struct {
	Prompt          string   `json:"prompt"`
	Breed           string   `json:"breed"`
	Gender          string   `json:"gender"`
	PredictedWeight float64  `json:"predictedWeight"`
	PredictedLength float64  `json:"predictedLength,omitempty"`
	PredictedHeight float64  `json:"predictedHeight,omitempty"`
	ReferenceImages []string `json:"referenceImages,omitempty"`
}

// GenerateImage runs one image job outside the pipeline. Unlike the pipeline it
// surfaces the failure instead of substituting the placeholder.
func (o *Orchestrator) GenerateImage(ctx context.Context, req ImageRequest) (string, error) {
	prompt := imageprompt.Compose(imageprompt.Input{
		Breed:           req.Breed,
		Sex:             models.ParseSex(req.Gender),
		PredictedWeight: req.PredictedWeight,
		PredictedLength: req.PredictedLength,
		PredictedHeight: req.PredictedHeight,
		Notes:           req.Prompt,
		ReferenceImages: req.ReferenceImages,
	})

	job := o.images.Generate(ctx, prompt)
	if !job.UsePlaceholder() {
		return job.Reference, nil
	}

	switch {
	case job.State == models.ImageTimedOut:
		return "", errors.NewImageGenerationTimeoutError(job.ID, job.Polls)
	case job.Cause != nil:
		if std := errors.AsStandard(job.Cause); std.Code != errors.ErrCodeInternal {
			return "", std
		}
		return "", errors.NewImageGenerationFailedError(job.ID, job.Cause.Error())
	default:
		return "", errors.NewImageGenerationFailedError(job.ID, string(job.State))
	}
}
