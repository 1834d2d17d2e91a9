package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/volunteer-match/pkg/db"
)

// MatchRun groups the matches persisted by one ranking call
type MatchRun struct {
	RunID      string
	ComputedAt time.Time
	Matches    []db.Match // ordered by rank
}

// ViewMatchHistory reads back a volunteer's persisted matches grouped by run,
// newest run first. A limit of zero returns every match.
func ViewMatchHistory(ctx context.Context, store db.MatchHistoryStore, logger *zap.Logger, volunteerID string, limit int) ([]MatchRun, error) {
	if strings.TrimSpace(volunteerID) == "" {
		return nil, fmt.Errorf("volunteer ID is required")
	}
	if limit < 0 {
		return nil, fmt.Errorf("limit must not be negative, got %d", limit)
	}

	logger.Debug("Fetching match history", zap.String("volunteer_id", volunteerID), zap.Int("limit", limit))

	matches, err := store.GetMatches(ctx, volunteerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch matches: %w", err)
	}

	var runs []MatchRun
	index := make(map[string]int)
	for _, m := range matches {
		i, ok := index[m.RunID]
		if !ok {
			i = len(runs)
			index[m.RunID] = i
			runs = append(runs, MatchRun{RunID: m.RunID, ComputedAt: m.ComputedAt})
		}
		runs[i].Matches = append(runs[i].Matches, m)
	}

	logger.Debug("Match history loaded", zap.Int("matches", len(matches)), zap.Int("runs", len(runs)))
	return runs, nil
}
