package db

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist
var ErrNotFound = errors.New("record not found")

// VolunteerRecord represents a stored volunteer profile.
// Enumerated fields are kept as strings and parsed by the caller.
type VolunteerRecord struct {
	ID            string              `json:"id" yaml:"id" validate:"required"`
	Categories    []string            `json:"categories" yaml:"categories"`
	Latitude      *float64            `json:"latitude,omitempty" yaml:"latitude,omitempty"`
	Longitude     *float64            `json:"longitude,omitempty" yaml:"longitude,omitempty"`
	MaxDistanceKm float64             `json:"maxDistanceKm" yaml:"maxDistanceKm"`
	Availability  map[string][]string `json:"availability" yaml:"availability"`
	Skills        map[string]string   `json:"skills" yaml:"skills"`
}

// OpportunityRecord represents a stored opportunity.
//
// The schedule is either given directly or derived from Recurrence (an RFC 5545
// RRULE) offering Slots on every day the rule fires.
type OpportunityRecord struct {
	ID                string              `json:"id" yaml:"id" validate:"required"`
	Title             string              `json:"title,omitempty" yaml:"title,omitempty"`
	Status            string              `json:"status" yaml:"status"`
	Categories        []string            `json:"categories" yaml:"categories"`
	Latitude          *float64            `json:"latitude,omitempty" yaml:"latitude,omitempty"`
	Longitude         *float64            `json:"longitude,omitempty" yaml:"longitude,omitempty"`
	Schedule          map[string][]string `json:"schedule,omitempty" yaml:"schedule,omitempty"`
	Recurrence        string              `json:"recurrence,omitempty" yaml:"recurrence,omitempty"`
	Slots             []string            `json:"slots,omitempty" yaml:"slots,omitempty"`
	RequiredSkills    map[string]string   `json:"requiredSkills,omitempty" yaml:"requiredSkills,omitempty"`
	SkillMode         string              `json:"skillMode,omitempty" yaml:"skillMode,omitempty"`
	StartDate         time.Time           `json:"startDate" yaml:"startDate"`
	EndDate           *time.Time          `json:"endDate,omitempty" yaml:"endDate,omitempty"`
	MaxVolunteers     int                 `json:"maxVolunteers" yaml:"maxVolunteers"`
	CurrentVolunteers int                 `json:"currentVolunteers" yaml:"currentVolunteers"`
}

// OpportunityQuery narrows the opportunities a source returns
type OpportunityQuery struct {
	// Categories limits results to opportunities sharing at least one category.
	// Empty means no category restriction.
	Categories []string

	// ActiveOnly excludes opportunities whose status is not active
	ActiveOnly bool

	// Limit caps the number of records returned. Zero means no cap.
	Limit int
}

// MatchReason is the stored form of one factor's contribution
type MatchReason struct {
	Factor       string  `json:"factor"`
	Contribution float64 `json:"contribution"`
	Explanation  string  `json:"explanation"`
}

// Match represents a persisted recommendation.
// Matches produced by one ranking call share a RunID and are numbered by Rank from 1.
type Match struct {
	ID            string        `json:"id"`
	RunID         string        `json:"runId"`
	VolunteerID   string        `json:"volunteerId"`
	OpportunityID string        `json:"opportunityId"`
	Rank          int           `json:"rank"`
	Score         float64       `json:"score"`
	Reasons       []MatchReason `json:"reasons"`
	ComputedAt    time.Time     `json:"computedAt"`
}
