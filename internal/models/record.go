package models

import "time"

type Rating string

const (
	RatingYes Rating = "yes"
	RatingNo  Rating = "no"
)

func (r Rating) Valid() bool {
	return r == RatingYes || r == RatingNo
}

// InteractionRecord is one submission as stored by the persistence chain.
type InteractionRecord struct {
	Subject            SubjectProfile    `json:"subject"`
	Prediction         *PredictionRecord `json:"prediction,omitempty"`
	Evaluation         *WeightEvaluation `json:"evaluation,omitempty"`
	StartedAt          time.Time         `json:"startedAt"`
	CompletedAt        *time.Time        `json:"completedAt,omitempty"`
	ProcessingTimeMS   *int64            `json:"processingTimeMs,omitempty"`
	SatisfactionRating Rating            `json:"satisfactionRating,omitempty"`
	RatedAt            *time.Time        `json:"ratedAt,omitempty"`
}

// Correction carries user-corrected measurements submitted after a run.
type Correction struct {
	CurrentWeight         *float64 `json:"currentWeight,omitempty"`
	CurrentWeightVerified *bool    `json:"currentWeightVerified,omitempty"`
	MotherAdultWeight     *float64 `json:"motherAdultWeight,omitempty"`
	MotherWeightVerified  *bool    `json:"motherWeightVerified,omitempty"`
	FatherAdultWeight     *float64 `json:"fatherAdultWeight,omitempty"`
	FatherWeightVerified  *bool    `json:"fatherWeightVerified,omitempty"`
}

func (c Correction) Empty() bool {
	return c.CurrentWeight == nil && c.CurrentWeightVerified == nil &&
		c.MotherAdultWeight == nil && c.MotherWeightVerified == nil &&
		c.FatherAdultWeight == nil && c.FatherWeightVerified == nil
}

// RecordPatch is a partial update; nil fields are left untouched.
type RecordPatch struct {
	PredictedWeight    *float64        `json:"predictedWeight,omitempty"`
	PredictedLength    *float64        `json:"predictedLength,omitempty"`
	PredictedHeight    *float64        `json:"predictedHeight,omitempty"`
	WeightGrade        *Grade          `json:"weightGrade,omitempty"`
	WeightCategory     *WeightCategory `json:"weightCategory,omitempty"`
	CompletedAt        *time.Time      `json:"completedAt,omitempty"`
	ProcessingTimeMS   *int64          `json:"processingTimeMs,omitempty"`
	SatisfactionRating *Rating         `json:"satisfactionRating,omitempty"`
	RatedAt            *time.Time      `json:"ratedAt,omitempty"`
	Correction         *Correction     `json:"correction,omitempty"`
}

// Apply merges p into r.
func (p RecordPatch) Apply(r *InteractionRecord) {
	if p.PredictedWeight != nil || p.PredictedLength != nil || p.PredictedHeight != nil {
		if r.Prediction == nil {
			r.Prediction = &PredictionRecord{}
		}
		if p.PredictedWeight != nil {
			r.Prediction.PredictedWeight = *p.PredictedWeight
		}
		if p.PredictedLength != nil {
			r.Prediction.PredictedLength = *p.PredictedLength
		}
		if p.PredictedHeight != nil {
			r.Prediction.PredictedHeight = *p.PredictedHeight
		}
	}
	if p.WeightGrade != nil || p.WeightCategory != nil {
		if r.Evaluation == nil {
			r.Evaluation = &WeightEvaluation{}
		}
		if p.WeightGrade != nil {
			r.Evaluation.Grade = *p.WeightGrade
		}
		if p.WeightCategory != nil {
			r.Evaluation.Category = *p.WeightCategory
		}
	}
	if p.CompletedAt != nil {
		r.CompletedAt = p.CompletedAt
	}
	if p.ProcessingTimeMS != nil {
		r.ProcessingTimeMS = p.ProcessingTimeMS
	}
	if p.SatisfactionRating != nil {
		r.SatisfactionRating = *p.SatisfactionRating
	}
	if p.RatedAt != nil {
		r.RatedAt = p.RatedAt
	}
	if c := p.Correction; c != nil {
		if c.CurrentWeight != nil {
			r.Subject.CurrentWeight = *c.CurrentWeight
		}
		if c.CurrentWeightVerified != nil {
			r.Subject.CurrentWeightVerified = *c.CurrentWeightVerified
		}
		if c.MotherAdultWeight != nil {
			r.Subject.MotherAdultWeight = *c.MotherAdultWeight
		}
		if c.MotherWeightVerified != nil {
			r.Subject.MotherWeightVerified = *c.MotherWeightVerified
		}
		if c.FatherAdultWeight != nil {
			r.Subject.FatherAdultWeight = *c.FatherAdultWeight
		}
		if c.FatherWeightVerified != nil {
			r.Subject.FatherWeightVerified = *c.FatherWeightVerified
		}
	}
}

// Merge folds q into p, q winning on conflicts.
func (p RecordPatch) Merge(q RecordPatch) RecordPatch {
	out := p
	if q.PredictedWeight != nil {
		out.PredictedWeight = q.PredictedWeight
	}
	if q.PredictedLength != nil {
		out.PredictedLength = q.PredictedLength
	}
	if q.PredictedHeight != nil {
		out.PredictedHeight = q.PredictedHeight
	}
	if q.WeightGrade != nil {
		out.WeightGrade = q.WeightGrade
	}
	if q.WeightCategory != nil {
		out.WeightCategory = q.WeightCategory
	}
	if q.CompletedAt != nil {
		out.CompletedAt = q.CompletedAt
	}
	if q.ProcessingTimeMS != nil {
		out.ProcessingTimeMS = q.ProcessingTimeMS
	}
	if q.SatisfactionRating != nil {
		out.SatisfactionRating = q.SatisfactionRating
	}
	if q.RatedAt != nil {
		out.RatedAt = q.RatedAt
	}
	if q.Correction != nil {
		out.Correction = q.Correction
	}
	return out
}
