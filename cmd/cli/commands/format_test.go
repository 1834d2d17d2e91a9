package commands

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/volunteer-match/pkg/core/matcher"
	"github.com/jakechorley/volunteer-match/pkg/core/services"
	"github.com/jakechorley/volunteer-match/pkg/db"
)

var fixedNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func TestParseNow(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    time.Time
		wantErr bool
	}{
		{name: "empty uses clock", value: "", want: fixedNow},
		{name: "whitespace uses clock", value: "  ", want: fixedNow},
		{name: "utc", value: "2025-06-01T12:30:00Z", want: time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC)},
		{name: "offset", value: "2025-06-01T12:30:00+01:00", want: time.Date(2025, 6, 1, 11, 30, 0, 0, time.UTC)},
		{name: "date only", value: "2025-06-01", wantErr: true},
		{name: "garbage", value: "tomorrow", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseNow(tt.value, fixedClock)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "RFC3339")
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s", got)
		})
	}
}

func TestFormatReasons(t *testing.T) {
	tests := []struct {
		name    string
		reasons []matcher.Reason
		want    string
	}{
		{name: "none", reasons: nil, want: "-"},
		{
			name:    "single",
			reasons: []matcher.Reason{{Factor: matcher.FactorCategory, Contribution: 30}},
			want:    "category +30.0",
		},
		{
			name: "multiple keep order",
			reasons: []matcher.Reason{
				{Factor: matcher.FactorCategory, Contribution: 30},
				{Factor: matcher.FactorDistance, Contribution: 12.345},
			},
			want: "category +30.0, distance +12.3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatReasons(tt.reasons))
		})
	}
}

func TestFormatRejections(t *testing.T) {
	tests := []struct {
		name       string
		rejections map[matcher.Rejection]int
		want       string
	}{
		{name: "nil", rejections: nil, want: "none"},
		{name: "all zero", rejections: map[matcher.Rejection]int{matcher.RejectStatus: 0}, want: "none"},
		{
			name: "sorted by gate",
			rejections: map[matcher.Rejection]int{
				matcher.RejectSkills:   1,
				matcher.RejectCapacity: 3,
				matcher.RejectDistance: 0,
			},
			want: "capacity=3 skills=1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatRejections(tt.rejections))
		})
	}
}

func sampleResult() *services.RecommendResult {
	return &services.RecommendResult{
		VolunteerID: "vol-1",
		RunID:       "run-1",
		Results: []matcher.MatchResult{
			{
				OpportunityID: "opp-a",
				VolunteerID:   "vol-1",
				Score:         87.5,
				ComputedAt:    fixedNow,
				Reasons: []matcher.Reason{
					{Factor: matcher.FactorCategory, Contribution: 30, Explanation: "category match: Environmental"},
				},
			},
		},
		Warnings:   []matcher.Warning{{Index: 2, OpportunityID: "opp-x", Err: errors.New("bad coordinate")}},
		Considered: 3,
		Eligible:   1,
		Rejections: map[matcher.Rejection]int{matcher.RejectDistance: 1},
	}
}

func TestPrintRecommendation(t *testing.T) {
	var buf bytes.Buffer
	printRecommendation(&buf, sampleResult())
	out := buf.String()

	assert.Contains(t, out, "1 opportunities for volunteer vol-1")
	assert.Contains(t, out, "opp-a")
	assert.Contains(t, out, "87.5  [category +30.0]")
	assert.Contains(t, out, "category match: Environmental")
	assert.Contains(t, out, "Considered: 3  Eligible: 1  Rejected: distance=1")
	assert.Contains(t, out, "Saved as run run-1")
	assert.Contains(t, out, "Skipped 1 malformed opportunities")
	assert.Contains(t, out, `"opp-x"`)
}

func TestPrintRecommendation_CachedAndEmpty(t *testing.T) {
	var buf bytes.Buffer
	printRecommendation(&buf, &services.RecommendResult{VolunteerID: "vol-2", Cached: true})
	out := buf.String()

	assert.Contains(t, out, "No matching opportunities for volunteer vol-2")
	assert.NotContains(t, out, "Considered")
	assert.NotContains(t, out, "Saved as run")
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, sampleResult()))

	var decoded jsonResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "vol-1", decoded.VolunteerID)
	assert.Equal(t, "run-1", decoded.RunID)
	require.Len(t, decoded.Results, 1)
	assert.Equal(t, "opp-a", decoded.Results[0].OpportunityID)
	assert.Equal(t, map[string]int{"distance": 1}, decoded.Rejections)
	require.Len(t, decoded.Warnings, 1)
	assert.Contains(t, decoded.Warnings[0], "opp-x")
}

func TestWriteJSON_EmptyResultsIsArray(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, &services.RecommendResult{VolunteerID: "vol-1"}))
	assert.Contains(t, buf.String(), `"results": []`)
	assert.NotContains(t, buf.String(), "runId")
}

func TestPrintBatchSummary(t *testing.T) {
	result := &services.RecommendAllResult{
		Recommendations: []services.RecommendResult{
			*sampleResult(),
			{VolunteerID: "vol-2"},
		},
		Skipped:          []services.SkippedVolunteer{{VolunteerID: "vol-3", Err: errors.New("invalid skill level")}},
		OpportunityCount: 4,
	}

	var buf bytes.Buffer
	printBatchSummary(&buf, result)
	out := buf.String()

	assert.Contains(t, out, "Ranked 4 opportunities for 2 volunteers")
	assert.Contains(t, out, "top: opp-a (87.5)")
	assert.Contains(t, out, "top: -")
	assert.Contains(t, out, "Skipped 1 volunteers")
	assert.Contains(t, out, "vol-3: invalid skill level")
}

func TestPrintHistory(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		var buf bytes.Buffer
		printHistory(&buf, "vol-1", nil)
		assert.Contains(t, buf.String(), "No saved matches for volunteer vol-1")
	})

	t.Run("runs", func(t *testing.T) {
		runs := []services.MatchRun{
			{
				RunID:      "run-2",
				ComputedAt: fixedNow,
				Matches: []db.Match{
					{RunID: "run-2", OpportunityID: "opp-a", Rank: 1, Score: 90},
					{RunID: "run-2", OpportunityID: "opp-b", Rank: 2, Score: 70.3},
				},
			},
			{RunID: "run-1", ComputedAt: fixedNow.Add(-time.Hour)},
		}

		var buf bytes.Buffer
		printHistory(&buf, "vol-1", runs)
		out := buf.String()

		assert.Contains(t, out, "(2 runs)")
		assert.Contains(t, out, "Run run-2  2025-03-10 09:00 UTC")
		assert.Contains(t, out, "Run run-1  2025-03-10 08:00 UTC")
		assert.Contains(t, out, "opp-b")
		assert.Contains(t, out, "70.3")
	})
}

func TestIsOffline(t *testing.T) {
	assert.True(t, IsOffline(RankFileCmd(&AppContext{}).Annotations))
	assert.False(t, IsOffline(RecommendCmd(&AppContext{}).Annotations))
	assert.False(t, IsOffline(nil))
}
