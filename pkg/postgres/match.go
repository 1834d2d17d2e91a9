package postgres

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jakechorley/volunteer-match/pkg/db"
)

// SaveMatches inserts match records in a single transaction
func (d *DB) SaveMatches(ctx context.Context, matches []db.Match) error {
	if len(matches) == 0 {
		return nil
	}

	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, m := range matches {
		reasons := m.Reasons
		if reasons == nil {
			reasons = []db.MatchReason{}
		}

		_, err := tx.Exec(ctx, `
			INSERT INTO match_result (id, run_id, volunteer_id, opportunity_id, match_rank, score, reasons, computed_at)
			VALUES ($1::uuid, $2::uuid, $3, $4, $5, $6, $7, $8)
		`, m.ID, m.RunID, m.VolunteerID, m.OpportunityID, m.Rank, m.Score, reasons, m.ComputedAt.UTC())
		if err != nil {
			return fmt.Errorf("failed to insert match %s: %w", m.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	d.logger.Debug("Saved matches", zap.Int("count", len(matches)), zap.String("run_id", matches[0].RunID))
	return nil
}

// GetMatches retrieves a volunteer's persisted matches, newest run first and
// by rank within a run. A limit of zero returns every match.
func (d *DB) GetMatches(ctx context.Context, volunteerID string, limit int) ([]db.Match, error) {
	sql := `
		SELECT id::text, run_id::text, volunteer_id, opportunity_id, match_rank, score, reasons, computed_at
		FROM match_result
		WHERE volunteer_id = $1
		ORDER BY computed_at DESC, run_id, match_rank`

	args := []any{volunteerID}
	if limit > 0 {
		sql += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := d.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	var matches []db.Match
	for rows.Next() {
		var m db.Match
		if err := rows.Scan(&m.ID, &m.RunID, &m.VolunteerID, &m.OpportunityID, &m.Rank, &m.Score, &m.Reasons, &m.ComputedAt); err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		matches = append(matches, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating matches: %w", err)
	}

	return matches, nil
}
