package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/volunteer-match/pkg/db"
)

func TestViewMatchHistory_GroupsByRun(t *testing.T) {
	newer := testNow
	older := testNow.AddDate(0, 0, -1)

	store := &mockStore{history: []db.Match{
		{ID: "m1", RunID: "run-2", VolunteerID: "vol-1", OpportunityID: "a", Rank: 1, ComputedAt: newer},
		{ID: "m2", RunID: "run-2", VolunteerID: "vol-1", OpportunityID: "b", Rank: 2, ComputedAt: newer},
		{ID: "m3", RunID: "run-1", VolunteerID: "vol-1", OpportunityID: "c", Rank: 1, ComputedAt: older},
		{ID: "m4", RunID: "run-9", VolunteerID: "vol-2", OpportunityID: "a", Rank: 1, ComputedAt: newer},
	}}

	runs, err := ViewMatchHistory(context.Background(), store, zap.NewNop(), "vol-1", 0)
	require.NoError(t, err)

	require.Len(t, runs, 2)
	assert.Equal(t, "run-2", runs[0].RunID)
	assert.Equal(t, newer, runs[0].ComputedAt)
	require.Len(t, runs[0].Matches, 2)
	assert.Equal(t, "b", runs[0].Matches[1].OpportunityID)
	assert.Equal(t, "run-1", runs[1].RunID)
	assert.Len(t, runs[1].Matches, 1)
}

func TestViewMatchHistory_PassesLimit(t *testing.T) {
	store := &mockStore{}

	runs, err := ViewMatchHistory(context.Background(), store, zap.NewNop(), "vol-1", 20)
	require.NoError(t, err)
	assert.Empty(t, runs)
	assert.Equal(t, 20, store.gotLimit)
}

func TestViewMatchHistory_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := ViewMatchHistory(ctx, &mockStore{}, zap.NewNop(), " ", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "volunteer ID is required")

	_, err = ViewMatchHistory(ctx, &mockStore{}, zap.NewNop(), "vol-1", -1)
	require.Error(t, err)

	_, err = ViewMatchHistory(ctx, &mockStore{historyErr: errors.New("timeout")}, zap.NewNop(), "vol-1", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to fetch matches")
}
