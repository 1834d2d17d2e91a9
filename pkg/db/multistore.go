package db

import (
	"context"
	"errors"
	"fmt"
)

// MultiMatchStore fans SaveMatches out to several stores, for example the
// database and an event publisher
type MultiMatchStore struct {
	stores []MatchStore
}

// NewMultiMatchStore creates a fan-out store. Nil stores are ignored.
func NewMultiMatchStore(stores ...MatchStore) *MultiMatchStore {
	m := &MultiMatchStore{}
	for _, s := range stores {
		if s != nil {
			m.stores = append(m.stores, s)
		}
	}
	return m
}

// SaveMatches writes to every store, even after one fails.
// The returned error joins every failure.
func (m *MultiMatchStore) SaveMatches(ctx context.Context, matches []Match) error {
	var errs []error
	for i, s := range m.stores {
		if err := s.SaveMatches(ctx, matches); err != nil {
			errs = append(errs, fmt.Errorf("store %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

// CompositeStore assembles the ports a matching run needs from separate
// backends, for example volunteers from the database and opportunities from a
// spreadsheet
type CompositeStore struct {
	VolunteerStore
	OpportunitySource
	MatchStore
}
