package services

import (
	"context"
	"fmt"
	"time"

	"github.com/jakechorley/volunteer-match/internal/config"
	"github.com/jakechorley/volunteer-match/pkg/core/matcher"
	"github.com/jakechorley/volunteer-match/pkg/db"
)

// mockStore implements RecommendStore, RecommendAllStore, db.MatchHistoryStore and db.RecordWriter
type mockStore struct {
	volunteers    map[string]*db.VolunteerRecord
	volunteerList []db.VolunteerRecord
	opportunities []db.OpportunityRecord
	history       []db.Match

	getVolunteerErr  error
	listVolunteerErr error
	listOppErr       error
	saveErr          error
	historyErr       error
	upsertErr        error

	gotQuery  db.OpportunityQuery
	saved     [][]db.Match
	gotLimit  int
	listCalls int

	upsertedVolunteers    []string
	upsertedOpportunities []string
}

func (m *mockStore) GetVolunteer(ctx context.Context, id string) (*db.VolunteerRecord, error) {
	if m.getVolunteerErr != nil {
		return nil, m.getVolunteerErr
	}
	v, ok := m.volunteers[id]
	if !ok {
		return nil, fmt.Errorf("volunteer %s: %w", id, db.ErrNotFound)
	}
	return v, nil
}

func (m *mockStore) ListVolunteers(ctx context.Context) ([]db.VolunteerRecord, error) {
	if m.listVolunteerErr != nil {
		return nil, m.listVolunteerErr
	}
	return m.volunteerList, nil
}

func (m *mockStore) ListOpportunities(ctx context.Context, query db.OpportunityQuery) ([]db.OpportunityRecord, error) {
	m.listCalls++
	m.gotQuery = query
	if m.listOppErr != nil {
		return nil, m.listOppErr
	}
	return m.opportunities, nil
}

func (m *mockStore) SaveMatches(ctx context.Context, matches []db.Match) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = append(m.saved, matches)
	return nil
}

func (m *mockStore) GetMatches(ctx context.Context, volunteerID string, limit int) ([]db.Match, error) {
	m.gotLimit = limit
	if m.historyErr != nil {
		return nil, m.historyErr
	}
	var out []db.Match
	for _, h := range m.history {
		if h.VolunteerID == volunteerID {
			out = append(out, h)
		}
	}
	return out, nil
}

func (m *mockStore) UpsertVolunteer(ctx context.Context, v *db.VolunteerRecord) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.upsertedVolunteers = append(m.upsertedVolunteers, v.ID)
	return nil
}

func (m *mockStore) UpsertOpportunity(ctx context.Context, o *db.OpportunityRecord) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.upsertedOpportunities = append(m.upsertedOpportunities, o.ID)
	return nil
}

// mockCache implements ResultCache in memory
type mockCache struct {
	entries map[string][]matcher.MatchResult
	getErr  error
	setErr  error
	gets    int
	sets    int
}

func newMockCache() *mockCache {
	return &mockCache{entries: make(map[string][]matcher.MatchResult)}
}

func (m *mockCache) Get(ctx context.Context, key string) ([]matcher.MatchResult, bool, error) {
	m.gets++
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	r, ok := m.entries[key]
	return r, ok, nil
}

func (m *mockCache) Set(ctx context.Context, key string, results []matcher.MatchResult) error {
	m.sets++
	if m.setErr != nil {
		return m.setErr
	}
	m.entries[key] = results
	return nil
}

var testNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T {
	return &v
}

func testConfig() *config.Config {
	cfg := &config.Config{DatabaseURL: "postgres://test"}
	config.ApplyDefaults(cfg)
	return cfg
}

// newVolunteerRecord returns a volunteer in central London free on Saturday mornings
func newVolunteerRecord(id string) db.VolunteerRecord {
	return db.VolunteerRecord{
		ID:            id,
		Categories:    []string{"Environmental"},
		Latitude:      ptr(51.5074),
		Longitude:     ptr(-0.1278),
		MaxDistanceKm: 20,
		Availability:  map[string][]string{"saturday": {"morning"}},
		Skills:        map[string]string{"First Aid": "Advanced"},
	}
}

// newOpportunityRecord returns an active Environmental opportunity near the volunteer
func newOpportunityRecord(id string) db.OpportunityRecord {
	return db.OpportunityRecord{
		ID:                id,
		Status:            "active",
		Categories:        []string{"Environmental"},
		Latitude:          ptr(51.5155),
		Longitude:         ptr(-0.0922),
		Schedule:          map[string][]string{"saturday": {"morning"}},
		StartDate:         testNow.AddDate(0, 0, -7),
		MaxVolunteers:     10,
		CurrentVolunteers: 2,
	}
}
