package predictgrowth

import "growth-forecast/internal/models"

// Input is the job's variables: the submitted subject profile.
type Input = models.SubjectProfile

type Output struct {
	RecordID        string                   `json:"recordId"`
	PredictedWeight float64                  `json:"predictedWeight"`
	WeightGrade     models.Grade             `json:"weightGrade"`
	ImageURL        string                   `json:"imageUrl"`
	Result          *models.PredictionResult `json:"prediction"`
}
