package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/jakechorley/volunteer-match/internal/config"
	"github.com/jakechorley/volunteer-match/pkg/core/matcher"
	"github.com/jakechorley/volunteer-match/pkg/core/recurrence"
	"github.com/jakechorley/volunteer-match/pkg/db"
)

var errHalfLocation = fmt.Errorf("%w: latitude and longitude must be set together", matcher.ErrInvalidCoordinate)

// ToVolunteerProfile converts a stored volunteer into the engine's profile.
// Skill names and slot tags are lowercased so they compare with opportunities.
func ToVolunteerProfile(r *db.VolunteerRecord) (matcher.VolunteerProfile, error) {
	location, err := toCoordinate(r.Latitude, r.Longitude)
	if err != nil {
		return matcher.VolunteerProfile{}, fmt.Errorf("volunteer %s: %w", r.ID, err)
	}

	availability, err := toSchedule(r.Availability)
	if err != nil {
		return matcher.VolunteerProfile{}, fmt.Errorf("volunteer %s availability: %w", r.ID, err)
	}

	skills, err := toSkills(r.Skills)
	if err != nil {
		return matcher.VolunteerProfile{}, fmt.Errorf("volunteer %s skills: %w", r.ID, err)
	}

	return matcher.VolunteerProfile{
		ID:            r.ID,
		Categories:    r.Categories,
		Location:      location,
		MaxDistanceKm: r.MaxDistanceKm,
		Availability:  availability,
		Skills:        skills,
	}, nil
}

// ConvertedOpportunities holds the records that converted cleanly
type ConvertedOpportunities struct {
	Opportunities []matcher.Opportunity

	// SourceIndex maps each converted opportunity back to its record index
	SourceIndex []int

	// Warnings lists records that could not be converted, indexed by record
	Warnings []matcher.Warning
}

// ToOpportunities converts stored opportunities into engine snapshots. A record
// that cannot be converted is reported as a warning and left out.
//
// The weekly schedule comes from, in order: the record's recurrence rule and
// slots, its explicit schedule, or the first schedule default naming one of its
// categories. now anchors a default recurrence when the record has no start date.
func ToOpportunities(records []db.OpportunityRecord, defaults []config.ScheduleDefault, now time.Time) *ConvertedOpportunities {
	out := &ConvertedOpportunities{
		Opportunities: make([]matcher.Opportunity, 0, len(records)),
		SourceIndex:   make([]int, 0, len(records)),
	}

	for i := range records {
		o, err := toOpportunity(&records[i], defaults, now)
		if err != nil {
			out.Warnings = append(out.Warnings, matcher.Warning{Index: i, OpportunityID: records[i].ID, Err: err})
			continue
		}
		out.Opportunities = append(out.Opportunities, o)
		out.SourceIndex = append(out.SourceIndex, i)
	}

	return out
}

func toOpportunity(r *db.OpportunityRecord, defaults []config.ScheduleDefault, now time.Time) (matcher.Opportunity, error) {
	location, err := toCoordinate(r.Latitude, r.Longitude)
	if err != nil {
		return matcher.Opportunity{}, err
	}

	var endDate time.Time
	if r.EndDate != nil {
		endDate = *r.EndDate
	}

	schedule, err := resolveSchedule(r, endDate, defaults, now)
	if err != nil {
		return matcher.Opportunity{}, err
	}

	required, err := toSkills(r.RequiredSkills)
	if err != nil {
		return matcher.Opportunity{}, fmt.Errorf("required skills: %w", err)
	}

	return matcher.Opportunity{
		ID:                r.ID,
		Status:            matcher.OpportunityStatus(strings.ToLower(strings.TrimSpace(r.Status))),
		Categories:        r.Categories,
		Location:          location,
		Schedule:          schedule,
		RequiredSkills:    required,
		SkillMode:         matcher.SkillMode(strings.ToLower(strings.TrimSpace(r.SkillMode))),
		StartDate:         r.StartDate,
		EndDate:           endDate,
		MaxVolunteers:     r.MaxVolunteers,
		CurrentVolunteers: r.CurrentVolunteers,
	}, nil
}

func resolveSchedule(r *db.OpportunityRecord, endDate time.Time, defaults []config.ScheduleDefault, now time.Time) (matcher.WeeklySchedule, error) {
	if r.Recurrence != "" {
		if len(r.Schedule) > 0 {
			return nil, fmt.Errorf("schedule and recurrence are mutually exclusive")
		}
		schedule, err := recurrence.Expand(r.Recurrence, normaliseSlots(r.Slots), r.StartDate, endDate)
		if err != nil {
			return nil, fmt.Errorf("recurrence: %w", err)
		}
		return schedule, nil
	}

	if len(r.Schedule) > 0 {
		return toSchedule(r.Schedule)
	}

	if d, ok := scheduleDefaultFor(r.Categories, defaults); ok {
		start := r.StartDate
		if start.IsZero() {
			start = now
		}
		schedule, err := recurrence.Expand(d.RRule, normaliseSlots(d.Slots), start, endDate)
		if err != nil {
			return nil, fmt.Errorf("default schedule for %s: %w", d.Category, err)
		}
		return schedule, nil
	}

	return nil, nil
}

func scheduleDefaultFor(categories []string, defaults []config.ScheduleDefault) (config.ScheduleDefault, bool) {
	for _, d := range defaults {
		for _, c := range categories {
			if strings.EqualFold(strings.TrimSpace(c), strings.TrimSpace(d.Category)) {
				return d, true
			}
		}
	}
	return config.ScheduleDefault{}, false
}

func toCoordinate(lat, lon *float64) (*matcher.Coordinate, error) {
	if lat == nil && lon == nil {
		return nil, nil
	}
	if lat == nil || lon == nil {
		return nil, errHalfLocation
	}
	return &matcher.Coordinate{Latitude: *lat, Longitude: *lon}, nil
}

func toSchedule(raw map[string][]string) (matcher.WeeklySchedule, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	schedule := make(matcher.WeeklySchedule, len(raw))
	for day, slots := range raw {
		weekday, err := matcher.ParseWeekday(day)
		if err != nil {
			return nil, err
		}
		schedule[weekday] = append(schedule[weekday], normaliseSlots(slots)...)
	}
	return schedule, nil
}

func toSkills(raw map[string]string) (map[string]matcher.Proficiency, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	skills := make(map[string]matcher.Proficiency, len(raw))
	for name, level := range raw {
		p, err := matcher.ParseProficiency(level)
		if err != nil {
			return nil, fmt.Errorf("skill %q: %w", name, err)
		}
		key := strings.ToLower(strings.TrimSpace(name))
		if _, ok := skills[key]; ok {
			return nil, fmt.Errorf("%w: skill %q is listed more than once", matcher.ErrInvalidArgument, key)
		}
		skills[key] = p
	}
	return skills, nil
}

func normaliseSlots(slots []string) []string {
	out := make([]string, 0, len(slots))
	for _, s := range slots {
		out = append(out, strings.ToLower(strings.TrimSpace(s)))
	}
	return out
}
