package persistence

import (
	"fmt"
	"time"

	"growth-forecast/internal/models"
)

type column struct {
	name  string
	value interface{}
}

func nullableFloat(v float64) interface{} {
	if v <= 0 {
		return nil
	}
	return v
}

func nullableString(v string) interface{} {
	if v == "" {
		return nil
	}
	return v
}

func timestamp(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// insertColumns is the row layout shared by the REST and SQL tiers.
func insertColumns(rec *models.InteractionRecord) []column {
	s := rec.Subject
	cols := []column{
		{"owner_id", nullableString(s.OwnerID)},
		{"display_name", nullableString(s.DisplayName)},
		{"purchase_source", nullableString(s.PurchaseSource)},
		{"has_purchase_experience", nullableString(s.HasPurchaseExperience)},
		{"breed", nullableString(s.Breed)},
		{"father_breed", nullableString(s.FatherBreed)},
		{"mother_breed", nullableString(s.MotherBreed)},
		{"gender", nullableString(string(s.Sex))},
		{"birth_date", nullableString(s.BirthDate)},
		{"current_weight", nullableFloat(s.CurrentWeight)},
		{"birth_weight", nullableFloat(s.BirthWeight)},
	}
	for i := 0; i < 2; i++ {
		var date, value interface{}
		if i < len(s.PastWeights) {
			date = nullableString(s.PastWeights[i].Date)
			value = nullableFloat(s.PastWeights[i].Weight)
		}
		cols = append(cols,
			column{pastWeightColumn(i, "date"), date},
			column{pastWeightColumn(i, "value"), value},
		)
	}
	cols = append(cols,
		column{"mother_adult_weight", nullableFloat(s.MotherAdultWeight)},
		column{"father_adult_weight", nullableFloat(s.FatherAdultWeight)},
		column{"current_weight_verified", s.CurrentWeightVerified},
		column{"mother_weight_verified", s.MotherWeightVerified},
		column{"father_weight_verified", s.FatherWeightVerified},
		column{"prediction_started_at", timestamp(&rec.StartedAt)},
	)
	return cols
}

func pastWeightColumn(i int, field string) string {
	return fmt.Sprintf("past_weight_%d_%s", i+1, field)
}

// patchColumns lists only the fields the patch sets.
func patchColumns(p models.RecordPatch) []column {
	var cols []column
	if p.PredictedWeight != nil {
		cols = append(cols, column{"predicted_weight", *p.PredictedWeight})
	}
	if p.PredictedLength != nil {
		cols = append(cols, column{"predicted_length", *p.PredictedLength})
	}
	if p.PredictedHeight != nil {
		cols = append(cols, column{"predicted_height", *p.PredictedHeight})
	}
	if p.WeightGrade != nil {
		cols = append(cols, column{"weight_grade", string(*p.WeightGrade)})
	}
	if p.WeightCategory != nil {
		cols = append(cols, column{"weight_category", string(*p.WeightCategory)})
	}
	if p.CompletedAt != nil {
		cols = append(cols, column{"prediction_completed_at", timestamp(p.CompletedAt)})
	}
	if p.ProcessingTimeMS != nil {
		cols = append(cols, column{"processing_time_ms", *p.ProcessingTimeMS})
	}
	if p.SatisfactionRating != nil {
		cols = append(cols, column{"satisfaction_rating", string(*p.SatisfactionRating)})
	}
	if p.RatedAt != nil {
		cols = append(cols, column{"satisfaction_rated_at", timestamp(p.RatedAt)})
	}
	if c := p.Correction; c != nil {
		if c.CurrentWeight != nil {
			cols = append(cols, column{"current_weight", *c.CurrentWeight})
		}
		if c.CurrentWeightVerified != nil {
			cols = append(cols, column{"current_weight_verified", *c.CurrentWeightVerified})
		}
		if c.MotherAdultWeight != nil {
			cols = append(cols, column{"mother_adult_weight", *c.MotherAdultWeight})
		}
		if c.MotherWeightVerified != nil {
			cols = append(cols, column{"mother_weight_verified", *c.MotherWeightVerified})
		}
		if c.FatherAdultWeight != nil {
			cols = append(cols, column{"father_adult_weight", *c.FatherAdultWeight})
		}
		if c.FatherWeightVerified != nil {
			cols = append(cols, column{"father_weight_verified", *c.FatherWeightVerified})
		}
	}
	return cols
}

func toMap(cols []column) map[string]interface{} {
	m := make(map[string]interface{}, len(cols))
	for _, c := range cols {
		m[c.name] = c.value
	}
	return m
}
