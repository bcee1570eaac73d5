package analytics

import (
	"context"
	"time"

	"growth-forecast/internal/common/logger"
	"growth-forecast/internal/models"
)

type EventName string

const (
	PredictionStart    EventName = "prediction_start"
	PredictionComplete EventName = "prediction_complete"
	SatisfactionRating EventName = "satisfaction_rating"
	CorrectionSubmit   EventName = "correction"
)

type Event struct {
	Name      EventName              `json:"event"`
	Timestamp time.Time              `json:"timestamp"`
	UserID    string                 `json:"userId,omitempty"`
	RecordID  string                 `json:"recordId,omitempty"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// Sink records events on a best-effort basis; implementations log and swallow failures.
type Sink interface {
	Record(ctx context.Context, e Event)
}

func PredictionStarted(s models.SubjectProfile, recordID string, at time.Time) Event {
	return Event{
		Name:      PredictionStart,
		Timestamp: at,
		UserID:    s.OwnerID,
		RecordID:  recordID,
		Data: map[string]interface{}{
			"breed":                   s.BreedLabel(),
			"gender":                  string(s.Sex),
			"current_weight":          s.CurrentWeight,
			"purchase_source":         s.PurchaseSource,
			"has_purchase_experience": s.HasPurchaseExperience,
		},
	}
}

func PredictionCompleted(r *models.PredictionResult) Event {
	return Event{
		Name:      PredictionComplete,
		Timestamp: r.CompletedAt,
		UserID:    r.Subject.OwnerID,
		RecordID:  r.RecordID,
		Data: map[string]interface{}{
			"predicted_weight":   r.Prediction.PredictedWeight,
			"processing_time_ms": r.ProcessingTimeMS,
			"weight_grade":       string(r.Evaluation.Grade),
			"image_placeholder":  r.ImagePlaceholder,
			"prediction_default": r.Prediction.FromFallback,
		},
	}
}

func Rated(recordID string, rating models.Rating, at time.Time) Event {
	return Event{
		Name:      SatisfactionRating,
		Timestamp: at,
		RecordID:  recordID,
		Data:      map[string]interface{}{"rating": string(rating)},
	}
}

func Corrected(recordID string, c models.Correction, at time.Time) Event {
	data := map[string]interface{}{}
	if c.CurrentWeight != nil {
		data["current_weight"] = *c.CurrentWeight
	}
	if c.MotherAdultWeight != nil {
		data["mother_adult_weight"] = *c.MotherAdultWeight
	}
	if c.FatherAdultWeight != nil {
		data["father_adult_weight"] = *c.FatherAdultWeight
	}
	return Event{Name: CorrectionSubmit, Timestamp: at, RecordID: recordID, Data: data}
}

// LogSink writes events to the structured log.
type LogSink struct {
	logger logger.Logger
}

func NewLogSink(log logger.Logger) *LogSink {
	return &LogSink{logger: logger.ForComponent(log, "analytics")}
}

func (s *LogSink) Record(ctx context.Context, e Event) {
	s.logger.Info("analytics event", map[string]interface{}{
		"event":    string(e.Name),
		"userId":   e.UserID,
		"recordId": e.RecordID,
		"data":     e.Data,
	})
}

type NoopSink struct{}

func (NoopSink) Record(context.Context, Event) {}
