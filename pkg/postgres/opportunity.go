package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jakechorley/volunteer-match/pkg/db"
)

// ListOpportunities retrieves opportunities matching the query, ordered by ID.
// Status and category filtering ignore case and surrounding whitespace.
func (d *DB) ListOpportunities(ctx context.Context, query db.OpportunityQuery) ([]db.OpportunityRecord, error) {
	sql := `
		SELECT id, title, status, categories, latitude, longitude, schedule, recurrence, slots,
			required_skills, skill_mode, start_date, end_date, max_volunteers, current_volunteers
		FROM opportunity
		WHERE ($1 = false OR lower(btrim(status)) = 'active')
			AND (cardinality($2::text[]) = 0 OR EXISTS (
				SELECT 1 FROM unnest(categories) AS c WHERE lower(btrim(c)) = ANY($2::text[])
			))
		ORDER BY id`

	args := []any{query.ActiveOnly, normaliseCategories(query.Categories)}
	if query.Limit > 0 {
		sql += ` LIMIT $3`
		args = append(args, query.Limit)
	}

	rows, err := d.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query opportunities: %w", err)
	}
	defer rows.Close()

	var opportunities []db.OpportunityRecord
	for rows.Next() {
		var o db.OpportunityRecord
		if err := rows.Scan(&o.ID, &o.Title, &o.Status, &o.Categories, &o.Latitude, &o.Longitude,
			&o.Schedule, &o.Recurrence, &o.Slots, &o.RequiredSkills, &o.SkillMode,
			&o.StartDate, &o.EndDate, &o.MaxVolunteers, &o.CurrentVolunteers); err != nil {
			return nil, fmt.Errorf("failed to scan opportunity: %w", err)
		}
		opportunities = append(opportunities, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating opportunities: %w", err)
	}

	return opportunities, nil
}

// UpsertOpportunity inserts an opportunity or replaces the existing one
func (d *DB) UpsertOpportunity(ctx context.Context, o *db.OpportunityRecord) error {
	_, err := d.pool.Exec(ctx, `
		INSERT INTO opportunity (id, title, status, categories, latitude, longitude, schedule, recurrence, slots,
			required_skills, skill_mode, start_date, end_date, max_volunteers, current_volunteers)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			status = EXCLUDED.status,
			categories = EXCLUDED.categories,
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			schedule = EXCLUDED.schedule,
			recurrence = EXCLUDED.recurrence,
			slots = EXCLUDED.slots,
			required_skills = EXCLUDED.required_skills,
			skill_mode = EXCLUDED.skill_mode,
			start_date = EXCLUDED.start_date,
			end_date = EXCLUDED.end_date,
			max_volunteers = EXCLUDED.max_volunteers,
			current_volunteers = EXCLUDED.current_volunteers
	`, o.ID, o.Title, o.Status, nonNilStrings(o.Categories), o.Latitude, o.Longitude,
		nonNilSchedule(o.Schedule), o.Recurrence, nonNilStrings(o.Slots), nonNilSkills(o.RequiredSkills),
		o.SkillMode, o.StartDate, o.EndDate, o.MaxVolunteers, o.CurrentVolunteers)
	if err != nil {
		return fmt.Errorf("failed to upsert opportunity %s: %w", o.ID, err)
	}
	return nil
}

func normaliseCategories(categories []string) []string {
	out := make([]string, 0, len(categories))
	for _, c := range categories {
		if n := strings.ToLower(strings.TrimSpace(c)); n != "" {
			out = append(out, n)
		}
	}
	return out
}
