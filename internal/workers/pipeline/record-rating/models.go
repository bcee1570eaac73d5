package recordrating

import "growth-forecast/internal/models"

// Input carries a rating, a correction, or both for one record.
type Input struct {
	RecordID   string             `json:"recordId"`
	Rating     models.Rating      `json:"rating,omitempty"`
	Correction *models.Correction `json:"correction,omitempty"`
}

type Output struct {
	RecordID string `json:"recordId"`
}
