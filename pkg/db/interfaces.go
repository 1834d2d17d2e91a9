package db

import "context"

// OpportunitySource defines the interface for reading the opportunity inventory
type OpportunitySource interface {
	ListOpportunities(ctx context.Context, query OpportunityQuery) ([]OpportunityRecord, error)
}

// VolunteerStore defines the interface for volunteer profile lookups
type VolunteerStore interface {
	GetVolunteer(ctx context.Context, id string) (*VolunteerRecord, error)
	ListVolunteers(ctx context.Context) ([]VolunteerRecord, error)
}

// MatchStore defines the interface for persisting emitted matches
type MatchStore interface {
	SaveMatches(ctx context.Context, matches []Match) error
}

// MatchHistoryStore defines the interface for reading persisted matches back
type MatchHistoryStore interface {
	GetMatches(ctx context.Context, volunteerID string, limit int) ([]Match, error)
}

// RecordWriter defines the interface for loading volunteers and opportunities
type RecordWriter interface {
	UpsertVolunteer(ctx context.Context, v *VolunteerRecord) error
	UpsertOpportunity(ctx context.Context, o *OpportunityRecord) error
}

// Database defines the interface for all database operations.
// postgres.DB implements this interface.
type Database interface {
	OpportunitySource
	VolunteerStore
	MatchStore
	MatchHistoryStore
	RecordWriter
	RunMigrations(ctx context.Context) error
	Close()
}
