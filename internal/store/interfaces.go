package store

import (
	"context"
	"errors"
	"time"

	"sleepface.app/engine/internal/model"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ErrBusy is returned when an upsert could not acquire its per-key lock
// within the bounded wait. Callers may retry.
var ErrBusy = errors.New("repository busy")

// AnalysisStore defines the contract for analysis history access.
// Upsert replaces on conflict keyed by (user_id, date): duplicate
// submissions for the same day never create a second record. An empty
// history is a valid cold-start state, not an error.
type AnalysisStore interface {
	Upsert(ctx context.Context, record *model.AnalysisRecord) error
	GetByDate(ctx context.Context, userID, date string) (*model.AnalysisRecord, error)

	// ListRecent returns records for the trailing day window, newest first.
	ListRecent(ctx context.Context, userID string, days int) ([]model.AnalysisRecord, error)

	DeleteOlderThan(ctx context.Context, userID string, cutoff time.Time) (int64, error)
}
