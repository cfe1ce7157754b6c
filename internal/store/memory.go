package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"sleepface.app/engine/internal/model"
)

// MemoryAnalysisStore is an in-memory AnalysisStore used in development
// mode and tests. Records are keyed by user and date, matching the
// replace-on-conflict semantics of the Postgres implementation.
type MemoryAnalysisStore struct {
	mu      sync.RWMutex
	records map[string]map[string]model.AnalysisRecord // userID -> date -> record
}

func NewMemoryAnalysisStore() *MemoryAnalysisStore {
	return &MemoryAnalysisStore{
		records: make(map[string]map[string]model.AnalysisRecord),
	}
}

func (s *MemoryAnalysisStore) Upsert(_ context.Context, record *model.AnalysisRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	byDate, ok := s.records[record.UserID]
	if !ok {
		byDate = make(map[string]model.AnalysisRecord)
		s.records[record.UserID] = byDate
	}

	now := time.Now().UTC()
	if existing, exists := byDate[record.Date]; exists {
		record.ID = existing.ID
		record.CreatedAt = existing.CreatedAt
	} else {
		record.CreatedAt = now
	}
	record.UpdatedAt = now

	byDate[record.Date] = cloneRecord(record)
	return nil
}

func (s *MemoryAnalysisStore) GetByDate(_ context.Context, userID, date string) (*model.AnalysisRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[userID][date]
	if !ok {
		return nil, ErrNotFound
	}
	out := cloneRecord(&record)
	return &out, nil
}

func (s *MemoryAnalysisStore) ListRecent(_ context.Context, userID string, days int) ([]model.AnalysisRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cutoff := model.DateOf(time.Now().UTC().AddDate(0, 0, -days))

	var records []model.AnalysisRecord
	for date, record := range s.records[userID] {
		if date >= cutoff {
			records = append(records, cloneRecord(&record))
		}
	}

	// Newest first; dates are ISO strings so lexical order works
	sort.Slice(records, func(i, j int) bool {
		return records[i].Date > records[j].Date
	})
	return records, nil
}

func (s *MemoryAnalysisStore) DeleteOlderThan(_ context.Context, userID string, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoffDate := model.DateOf(cutoff)
	deleted := int64(0)
	for date := range s.records[userID] {
		if date < cutoffDate {
			delete(s.records[userID], date)
			deleted++
		}
	}
	return deleted, nil
}

func cloneRecord(r *model.AnalysisRecord) model.AnalysisRecord {
	out := *r
	if r.Features != nil {
		out.Features = make(map[model.Feature]float64, len(r.Features))
		for k, v := range r.Features {
			out.Features[k] = v
		}
	}
	if r.FeatureConfidence != nil {
		out.FeatureConfidence = make(map[model.Feature]float64, len(r.FeatureConfidence))
		for k, v := range r.FeatureConfidence {
			out.FeatureConfidence[k] = v
		}
	}
	if r.QualityHints != nil {
		out.QualityHints = append([]string(nil), r.QualityHints...)
	}
	if r.Routine != nil {
		routine := *r.Routine
		if r.Routine.SkincareProducts != nil {
			routine.SkincareProducts = append([]string(nil), r.Routine.SkincareProducts...)
		}
		out.Routine = &routine
	}
	return out
}
