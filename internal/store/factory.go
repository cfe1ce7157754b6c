package store

import (
	"time"

	"sleepface.app/engine/core/db"
)

type Stores struct {
	analyses AnalysisStore
	lock     *KeyLock
}

// NewStores builds Postgres-backed stores. Pass a nil DB to fall back to
// the in-memory implementation (development mode without a database).
func NewStores(database *db.DB, lockWait time.Duration) *Stores {
	s := &Stores{lock: NewKeyLock(lockWait)}
	if database != nil {
		s.analyses = newAnalysisStore(database.Pool())
	} else {
		s.analyses = NewMemoryAnalysisStore()
	}
	return s
}

func (s *Stores) Analyses() AnalysisStore {
	return s.analyses
}

// Lock returns the per-key upsert lock shared by all writers in this
// process.
func (s *Stores) Lock() *KeyLock {
	return s.lock
}
