package models

import "time"

const (
	DefaultPredictedWeight = 5.0
	DefaultPredictedLength = 40.0
	DefaultPredictedHeight = 25.0

	DefaultHealthAdvice   = "Please consult your veterinarian about a health plan suited to your puppy."
	DefaultTrainingAdvice = "Please consult a professional trainer about training suited to your puppy."
	DefaultCostAdvice     = "Please ask your veterinarian or breeder about expected care costs."
)

type PredictionRecord struct {
	PredictedWeight float64 `json:"predictedWeight"`
	PredictedLength float64 `json:"predictedLength"`
	PredictedHeight float64 `json:"predictedHeight"`
	HealthAdvice    string  `json:"healthAdvice"`
	TrainingAdvice  string  `json:"trainingAdvice"`
	CostAdvice      string  `json:"costAdvice"`
	FromFallback    bool    `json:"fromFallback"`
}

func DefaultPredictionRecord() PredictionRecord {
	return PredictionRecord{
		PredictedWeight: DefaultPredictedWeight,
		PredictedLength: DefaultPredictedLength,
		PredictedHeight: DefaultPredictedHeight,
		HealthAdvice:    DefaultHealthAdvice,
		TrainingAdvice:  DefaultTrainingAdvice,
		CostAdvice:      DefaultCostAdvice,
		FromFallback:    true,
	}
}

// PredictionResult is what a finished run hands back to the caller.
type PredictionResult struct {
	RecordID         string           `json:"recordId"`
	Subject          SubjectProfile   `json:"subject"`
	Prediction       PredictionRecord `json:"prediction"`
	Evaluation       WeightEvaluation `json:"weightEvaluation"`
	Costs            CostSimulation   `json:"costSimulation"`
	ImageURL         string           `json:"imageUrl"`
	ImagePlaceholder bool             `json:"imagePlaceholder"`
	StartedAt        time.Time        `json:"startedAt"`
	CompletedAt      time.Time        `json:"completedAt"`
	ProcessingTimeMS int64            `json:"processingTimeMs"`
}
