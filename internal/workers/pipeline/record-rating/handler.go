package recordrating

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"growth-forecast/internal/common/errors"
	"growth-forecast/internal/common/logger"
	"growth-forecast/internal/common/metrics"
	"growth-forecast/internal/models"
	"growth-forecast/internal/persistence"
)

const TaskType = "record-rating"

type Feedback interface {
	Rate(ctx context.Context, recordID string, rating models.Rating) (persistence.RecordID, error)
	Correct(ctx context.Context, recordID string, c models.Correction) (persistence.RecordID, error)
}

type Config struct {
	Timeout time.Duration
}

type Handler struct {
	config       *Config
	feedback     Feedback
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
}

func NewHandler(config *Config, feedback Feedback, log logger.Logger) *Handler {
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		feedback:     feedback,
		logger:       l,
		errorHandler: errors.NewErrorHandler(l),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.fail(ctx, client, job, errors.NewInvalidRequestError(fmt.Sprintf("parse input: %v", err)))
		return
	}

	output, err := h.Execute(ctx, &input)
	if err != nil {
		h.fail(ctx, client, job, err)
		return
	}

	cmd, err := client.NewCompleteJobCommand().JobKey(job.Key).VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{"error": err.Error()})
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{"error": err.Error()})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
}

// Execute applies the rating first and then the correction. The returned id is where
// the last patch landed.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input.Rating == "" && input.Correction == nil {
		return nil, errors.NewInvalidRequestError("rating or correction is required")
	}

	landed := input.RecordID
	if input.Rating != "" {
		id, err := h.feedback.Rate(ctx, input.RecordID, input.Rating)
		if err != nil {
			return nil, err
		}
		landed = id.String()
	}
	if input.Correction != nil {
		id, err := h.feedback.Correct(ctx, input.RecordID, *input.Correction)
		if err != nil {
			return nil, err
		}
		landed = id.String()
	}

	h.logger.Info("feedback recorded", map[string]interface{}{
		"recordId": input.RecordID,
		"landedAt": landed,
	})
	return &Output{RecordID: landed}, nil
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.AsStandard(err).Code)).Inc()
	h.errorHandler.HandleJobError(ctx, client, job, err)
}
