package persistence

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"growth-forecast/internal/models"
)

type localEntry struct {
	id     string
	record *models.InteractionRecord
	patch  models.RecordPatch
}

// LocalStore is the in-process terminal tier. It also keeps patches for records
// accepted by tiers that cannot be updated, keyed by their full id.
type LocalStore struct {
	mu      sync.RWMutex
	entries map[string]*localEntry
	order   []string
	newID   func() string
	now     func() time.Time
}

func NewLocalStore() *LocalStore {
	return &LocalStore{
		entries: make(map[string]*localEntry),
		newID:   uuid.NewString,
		now:     time.Now,
	}
}

func (s *LocalStore) Tier() Tier { return TierLocal }

// Attempt never fails.
func (s *LocalStore) Attempt(ctx context.Context, rec *models.InteractionRecord) (string, error) {
	key := s.newID()
	copied := *rec

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = &localEntry{
		id:     RecordID{Tier: TierLocal, Key: key}.String(),
		record: &copied,
	}
	s.order = append(s.order, key)
	return key, nil
}

func (s *LocalStore) Update(ctx context.Context, key string, patch models.RecordPatch) error {
	s.Apply(RecordID{Tier: TierLocal, Key: key}, patch)
	return nil
}

// lookupKey maps both "rest:42" and its local alias "local:rest:42" to the same entry.
func lookupKey(id RecordID) string {
	if id.Tier == TierLocal {
		return id.Key
	}
	return id.String()
}

// Apply merges patch into the entry for id, creating a patch-only entry for foreign ids.
func (s *LocalStore) Apply(id RecordID, patch models.RecordPatch) {
	key := lookupKey(id)

	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		e = &localEntry{id: id.String()}
		s.entries[key] = e
		s.order = append(s.order, key)
	}
	if e.record != nil {
		patch.Apply(e.record)
	}
	e.patch = e.patch.Merge(patch)
}

// Get returns the stored record with patches applied. Patch-only entries have a zero Subject.
func (s *LocalStore) Get(id RecordID) (models.InteractionRecord, models.RecordPatch, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[lookupKey(id)]
	if !ok {
		return models.InteractionRecord{}, models.RecordPatch{}, false
	}
	var rec models.InteractionRecord
	if e.record != nil {
		rec = *e.record
	}
	return rec, e.patch, true
}

type Summary struct {
	TotalPredictions      int        `json:"totalPredictions"`
	CompletedPredictions  int        `json:"completedPredictions"`
	SatisfactionResponses int        `json:"satisfactionResponses"`
	PendingPatches        int        `json:"pendingPatches"`
	LastUpdate            *time.Time `json:"lastUpdate,omitempty"`
}

func (s *LocalStore) Summary() Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var sum Summary
	for _, id := range s.order {
		e := s.entries[id]
		if e.record != nil {
			sum.TotalPredictions++
			started := e.record.StartedAt
			if sum.LastUpdate == nil || started.After(*sum.LastUpdate) {
				sum.LastUpdate = &started
			}
		} else {
			sum.PendingPatches++
		}
		if e.patch.CompletedAt != nil {
			sum.CompletedPredictions++
		}
		if e.patch.SatisfactionRating != nil {
			sum.SatisfactionResponses++
		}
	}
	return sum
}

var exportHeader = []string{
	"id", "timestamp", "owner_id", "display_name", "breed", "gender", "birth_date", "current_weight",
	"purchase_source", "has_purchase_experience", "predicted_weight", "processing_time_ms",
	"satisfaction_rating", "prediction_completed_at", "satisfaction_rated_at",
}

// ExportCSV writes one row per entry in insertion order.
func (s *LocalStore) ExportCSV(w io.Writer) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return err
	}
	for _, id := range s.order {
		if err := cw.Write(exportRow(s.entries[id])); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func exportRow(e *localEntry) []string {
	row := make([]string, len(exportHeader))
	row[0] = e.id
	if r := e.record; r != nil {
		row[1] = r.StartedAt.UTC().Format(time.RFC3339)
		row[2] = r.Subject.OwnerID
		row[3] = r.Subject.DisplayName
		row[4] = r.Subject.BreedLabel()
		row[5] = string(r.Subject.Sex)
		row[6] = r.Subject.BirthDate
		row[7] = formatFloat(r.Subject.CurrentWeight)
		row[8] = r.Subject.PurchaseSource
		row[9] = r.Subject.HasPurchaseExperience
	}
	p := e.patch
	if p.PredictedWeight != nil {
		row[10] = formatFloat(*p.PredictedWeight)
	}
	if p.ProcessingTimeMS != nil {
		row[11] = strconv.FormatInt(*p.ProcessingTimeMS, 10)
	}
	if p.SatisfactionRating != nil {
		row[12] = string(*p.SatisfactionRating)
	}
	if p.CompletedAt != nil {
		row[13] = p.CompletedAt.UTC().Format(time.RFC3339)
	}
	if p.RatedAt != nil {
		row[14] = p.RatedAt.UTC().Format(time.RFC3339)
	}
	return row
}

func formatFloat(v float64) string {
	if v <= 0 {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
