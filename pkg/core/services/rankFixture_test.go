package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const fixtureYAML = `
now: 2025-03-10T09:00:00Z
limit: 5
volunteer:
  id: vol-1
  categories: [Environmental]
  latitude: 51.5074
  longitude: -0.1278
  maxDistanceKm: 20
  availability:
    saturday: [morning]
  skills:
    first aid: advanced
opportunities:
  - id: opp-recurring
    status: active
    categories: [Environmental]
    latitude: 51.5155
    longitude: -0.0922
    recurrence: FREQ=WEEKLY;BYDAY=SA
    slots: [morning]
    startDate: 2025-03-01
    maxVolunteers: 10
    currentVolunteers: 2
  - id: opp-weekday
    status: active
    categories: [Environmental]
    schedule:
      tuesday: [evening]
    requiredSkills:
      first aid: intermediate
    startDate: 2025-03-01
    endDate: 2025-12-31
    maxVolunteers: 4
  - id: opp-closed
    status: closed
    categories: [Environmental]
    startDate: 2025-03-01
    maxVolunteers: 4
  - id: opp-broken
    status: active
    categories: [Environmental]
    startDate: 2025-03-01
    maxVolunteers: -1
`

func writeFixture(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadFixture(t *testing.T) {
	fixture, err := LoadFixture(writeFixture(t, fixtureYAML))
	require.NoError(t, err)

	assert.True(t, testNow.Equal(fixture.Now))
	assert.Equal(t, 5, fixture.Limit)
	require.NotNil(t, fixture.Volunteer)
	assert.Equal(t, "vol-1", fixture.Volunteer.ID)
	assert.Equal(t, "advanced", fixture.Volunteer.Skills["first aid"])
	require.Len(t, fixture.Opportunities, 4)
	assert.Equal(t, "FREQ=WEEKLY;BYDAY=SA", fixture.Opportunities[0].Recurrence)
	assert.Nil(t, fixture.Opportunities[0].EndDate)
	require.NotNil(t, fixture.Opportunities[1].EndDate)
	assert.True(t, time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC).Equal(*fixture.Opportunities[1].EndDate))
}

func TestLoadFixture_Errors(t *testing.T) {
	_, err := LoadFixture("/nonexistent/fixture.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read fixture file")

	_, err = LoadFixture(writeFixture(t, "volunteer: [unterminated"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse fixture file")

	_, err = LoadFixture(writeFixture(t, "opportunities: []"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fixture validation failed")

	_, err = LoadFixture(writeFixture(t, "limit: -2\nvolunteer:\n  id: vol-1\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fixture validation failed")
}

func TestRankFixture(t *testing.T) {
	fixture, err := LoadFixture(writeFixture(t, fixtureYAML))
	require.NoError(t, err)

	result, err := RankFixture(context.Background(), fixture, zap.NewNop(), testConfig(), 0, time.Time{})
	require.NoError(t, err)

	require.Len(t, result.Results, 2)
	assert.Equal(t, "opp-recurring", result.Results[0].OpportunityID)
	assert.Equal(t, "opp-weekday", result.Results[1].OpportunityID)
	assert.Greater(t, result.Results[0].Score, result.Results[1].Score)
	assert.True(t, testNow.Equal(result.Results[0].ComputedAt))

	assert.Equal(t, 3, result.Considered)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, "opp-broken", result.Warnings[0].OpportunityID)
	assert.Equal(t, 3, result.Warnings[0].Index)
}

func TestRankFixture_Overrides(t *testing.T) {
	fixture, err := LoadFixture(writeFixture(t, fixtureYAML))
	require.NoError(t, err)

	// After opp-weekday ends only the open-ended opportunity remains
	later := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	result, err := RankFixture(context.Background(), fixture, zap.NewNop(), testConfig(), 1, later)
	require.NoError(t, err)
	require.Len(t, result.Results, 1)
	assert.Equal(t, "opp-recurring", result.Results[0].OpportunityID)
	assert.Equal(t, later, result.Results[0].ComputedAt)
}
