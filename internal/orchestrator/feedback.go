package orchestrator

import (
	"context"

	"growth-forecast/internal/analytics"
	"growth-forecast/internal/common/errors"
	"growth-forecast/internal/models"
	"growth-forecast/internal/persistence"
)

// Rate stores a satisfaction rating against a record id returned by Run.
func (o *Orchestrator) Rate(ctx context.Context, recordID string, rating models.Rating) (persistence.RecordID, error) {
	id, err := persistence.ParseRecordID(recordID)
	if err != nil {
		return persistence.RecordID{}, errors.NewInvalidRequestError(err.Error())
	}
	if !rating.Valid() {
		return persistence.RecordID{}, errors.NewInvalidRequestError("rating must be yes or no")
	}

	at := o.now()
	landed := o.recorder.Update(ctx, id, models.RecordPatch{SatisfactionRating: &rating, RatedAt: &at})
	o.sink.Record(ctx, analytics.Rated(id.String(), rating, at))
	return landed, nil
}

// Correct stores user-corrected measurements against a record id returned by Run.
func (o *Orchestrator) Correct(ctx context.Context, recordID string, c models.Correction) (persistence.RecordID, error) {
	id, err := persistence.ParseRecordID(recordID)
	if err != nil {
		return persistence.RecordID{}, errors.NewInvalidRequestError(err.Error())
	}
	if c.Empty() {
		return persistence.RecordID{}, errors.NewInvalidRequestError("correction has no fields")
	}
	for _, w := range []*float64{c.CurrentWeight, c.MotherAdultWeight, c.FatherAdultWeight} {
		if w != nil && *w <= 0 {
			return persistence.RecordID{}, errors.NewInvalidRequestError("weights must be positive")
		}
	}

	landed := o.recorder.Update(ctx, id, models.RecordPatch{Correction: &c})
	o.sink.Record(ctx, analytics.Corrected(id.String(), c, o.now()))
	return landed, nil
}
