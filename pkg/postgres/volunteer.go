package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jakechorley/volunteer-match/pkg/db"
)

const volunteerColumns = `id, categories, latitude, longitude, max_distance_km, availability, skills`

func scanVolunteer(row pgx.Row) (db.VolunteerRecord, error) {
	var v db.VolunteerRecord
	err := row.Scan(&v.ID, &v.Categories, &v.Latitude, &v.Longitude, &v.MaxDistanceKm, &v.Availability, &v.Skills)
	return v, err
}

// GetVolunteer retrieves a single volunteer profile.
// Returns db.ErrNotFound if no volunteer has the given ID.
func (d *DB) GetVolunteer(ctx context.Context, id string) (*db.VolunteerRecord, error) {
	row := d.pool.QueryRow(ctx, `SELECT `+volunteerColumns+` FROM volunteer WHERE id = $1`, id)

	v, err := scanVolunteer(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("volunteer %s: %w", id, db.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get volunteer %s: %w", id, err)
	}
	return &v, nil
}

// ListVolunteers retrieves every volunteer profile ordered by ID
func (d *DB) ListVolunteers(ctx context.Context) ([]db.VolunteerRecord, error) {
	rows, err := d.pool.Query(ctx, `SELECT `+volunteerColumns+` FROM volunteer ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query volunteers: %w", err)
	}
	defer rows.Close()

	var volunteers []db.VolunteerRecord
	for rows.Next() {
		v, err := scanVolunteer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan volunteer: %w", err)
		}
		volunteers = append(volunteers, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating volunteers: %w", err)
	}

	return volunteers, nil
}

// UpsertVolunteer inserts a volunteer profile or replaces the existing one
func (d *DB) UpsertVolunteer(ctx context.Context, v *db.VolunteerRecord) error {
	_, err := d.pool.Exec(ctx, `
		INSERT INTO volunteer (id, categories, latitude, longitude, max_distance_km, availability, skills)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			categories = EXCLUDED.categories,
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			max_distance_km = EXCLUDED.max_distance_km,
			availability = EXCLUDED.availability,
			skills = EXCLUDED.skills
	`, v.ID, nonNilStrings(v.Categories), v.Latitude, v.Longitude, v.MaxDistanceKm,
		nonNilSchedule(v.Availability), nonNilSkills(v.Skills))
	if err != nil {
		return fmt.Errorf("failed to upsert volunteer %s: %w", v.ID, err)
	}
	return nil
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilSchedule(s map[string][]string) map[string][]string {
	if s == nil {
		return map[string][]string{}
	}
	return s
}

func nonNilSkills(s map[string]string) map[string]string {
	if s == nil {
		return map[string]string{}
	}
	return s
}
