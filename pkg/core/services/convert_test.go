package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/volunteer-match/internal/config"
	"github.com/jakechorley/volunteer-match/pkg/core/matcher"
	"github.com/jakechorley/volunteer-match/pkg/core/recurrence"
	"github.com/jakechorley/volunteer-match/pkg/db"
)

func TestToVolunteerProfile(t *testing.T) {
	record := newVolunteerRecord("vol-1")
	record.Availability = map[string][]string{"Saturday": {" Morning ", "afternoon"}}

	profile, err := ToVolunteerProfile(&record)
	require.NoError(t, err)

	assert.Equal(t, "vol-1", profile.ID)
	require.NotNil(t, profile.Location)
	assert.Equal(t, 51.5074, profile.Location.Latitude)
	assert.Equal(t, matcher.WeeklySchedule{matcher.Saturday: {"morning", "afternoon"}}, profile.Availability)
	assert.Equal(t, map[string]matcher.Proficiency{"first aid": matcher.ProficiencyAdvanced}, profile.Skills)
}

func TestToVolunteerProfile_NoLocation(t *testing.T) {
	record := db.VolunteerRecord{ID: "vol-1", Categories: []string{"Health"}}

	profile, err := ToVolunteerProfile(&record)
	require.NoError(t, err)
	assert.Nil(t, profile.Location)
	assert.Nil(t, profile.Availability)
	assert.Nil(t, profile.Skills)
}

func TestToVolunteerProfile_Errors(t *testing.T) {
	tests := []struct {
		name   string
		modify func(r *db.VolunteerRecord)
		want   error
	}{
		{
			name:   "half location",
			modify: func(r *db.VolunteerRecord) { r.Longitude = nil },
			want:   matcher.ErrInvalidCoordinate,
		},
		{
			name:   "unknown weekday",
			modify: func(r *db.VolunteerRecord) { r.Availability = map[string][]string{"someday": {"morning"}} },
			want:   matcher.ErrInvalidSchedule,
		},
		{
			name: "skill names equal after normalising",
			modify: func(r *db.VolunteerRecord) {
				r.Skills = map[string]string{"First Aid": "beginner", " first aid": "expert"}
			},
			want: matcher.ErrInvalidArgument,
		},
		{
			name:   "unknown proficiency",
			modify: func(r *db.VolunteerRecord) { r.Skills = map[string]string{"driving": "wizard"} },
			want:   matcher.ErrInvalidSkillLevel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := newVolunteerRecord("vol-1")
			tt.modify(&record)

			_, err := ToVolunteerProfile(&record)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, matcher.ErrInvalidArgument)
			assert.Contains(t, err.Error(), "vol-1")
		})
	}
}

func TestToOpportunities_ExplicitSchedule(t *testing.T) {
	record := newOpportunityRecord("opp-1")
	record.Status = " Active "
	record.SkillMode = "SOFT"
	record.RequiredSkills = map[string]string{"First Aid": "intermediate"}
	record.EndDate = ptr(testNow.AddDate(0, 1, 0))

	converted := ToOpportunities([]db.OpportunityRecord{record}, nil, testNow)
	require.Empty(t, converted.Warnings)
	require.Len(t, converted.Opportunities, 1)

	o := converted.Opportunities[0]
	assert.Equal(t, matcher.StatusActive, o.Status)
	assert.Equal(t, matcher.SkillModeSoft, o.SkillMode)
	assert.Equal(t, matcher.WeeklySchedule{matcher.Saturday: {"morning"}}, o.Schedule)
	assert.Equal(t, map[string]matcher.Proficiency{"first aid": matcher.ProficiencyIntermediate}, o.RequiredSkills)
	assert.Equal(t, testNow.AddDate(0, 1, 0), o.EndDate)
	assert.Equal(t, 10, o.MaxVolunteers)
	assert.Equal(t, 2, o.CurrentVolunteers)
}

func TestToOpportunities_OpenEnded(t *testing.T) {
	converted := ToOpportunities([]db.OpportunityRecord{newOpportunityRecord("opp-1")}, nil, testNow)
	require.Len(t, converted.Opportunities, 1)
	assert.True(t, converted.Opportunities[0].EndDate.IsZero())
}

func TestToOpportunities_Recurrence(t *testing.T) {
	record := newOpportunityRecord("opp-1")
	record.Schedule = nil
	record.Recurrence = "FREQ=WEEKLY;BYDAY=TU,SA"
	record.Slots = []string{"Evening"}

	converted := ToOpportunities([]db.OpportunityRecord{record}, nil, testNow)
	require.Empty(t, converted.Warnings)
	require.Len(t, converted.Opportunities, 1)
	assert.Equal(t, matcher.WeeklySchedule{
		matcher.Tuesday:  {"evening"},
		matcher.Saturday: {"evening"},
	}, converted.Opportunities[0].Schedule)
}

func TestToOpportunities_ScheduleDefault(t *testing.T) {
	defaults := []config.ScheduleDefault{
		{Category: "Health", RRule: "FREQ=WEEKLY;BYDAY=MO", Slots: []string{"morning"}},
		{Category: "environmental", RRule: "FREQ=WEEKLY;BYDAY=SU", Slots: []string{"afternoon"}},
	}

	record := newOpportunityRecord("opp-1")
	record.Schedule = nil
	record.StartDate = time.Time{}

	converted := ToOpportunities([]db.OpportunityRecord{record}, defaults, testNow)
	require.Empty(t, converted.Warnings)
	require.Len(t, converted.Opportunities, 1)
	assert.Equal(t, matcher.WeeklySchedule{matcher.Sunday: {"afternoon"}}, converted.Opportunities[0].Schedule)

	// An explicit schedule is kept even when a default applies
	converted = ToOpportunities([]db.OpportunityRecord{newOpportunityRecord("opp-2")}, defaults, testNow)
	require.Len(t, converted.Opportunities, 1)
	assert.Equal(t, matcher.WeeklySchedule{matcher.Saturday: {"morning"}}, converted.Opportunities[0].Schedule)
}

func TestToOpportunities_NoSchedule(t *testing.T) {
	record := newOpportunityRecord("opp-1")
	record.Schedule = nil

	converted := ToOpportunities([]db.OpportunityRecord{record}, nil, testNow)
	require.Len(t, converted.Opportunities, 1)
	assert.Nil(t, converted.Opportunities[0].Schedule)
}

func TestToOpportunities_DuplicateRequiredSkill(t *testing.T) {
	record := newOpportunityRecord("opp-1")
	record.RequiredSkills = map[string]string{"Driving": "beginner", "driving ": "advanced"}

	// Rejected on every run, whatever the map order
	for range 20 {
		converted := ToOpportunities([]db.OpportunityRecord{record}, nil, testNow)
		require.Empty(t, converted.Opportunities)
		require.Len(t, converted.Warnings, 1)
		assert.ErrorIs(t, converted.Warnings[0].Err, matcher.ErrInvalidArgument)
		assert.Contains(t, converted.Warnings[0].Err.Error(), `skill "driving" is listed more than once`)
	}
}

func TestToOpportunities_BadRecordsBecomeWarnings(t *testing.T) {
	good := newOpportunityRecord("good")

	halfLocation := newOpportunityRecord("half-location")
	halfLocation.Latitude = nil

	bothSchedules := newOpportunityRecord("both-schedules")
	bothSchedules.Recurrence = "FREQ=WEEKLY;BYDAY=MO"
	bothSchedules.Slots = []string{"morning"}

	badRule := newOpportunityRecord("bad-rule")
	badRule.Schedule = nil
	badRule.Recurrence = "NOT_A_RULE"
	badRule.Slots = []string{"morning"}

	expired := newOpportunityRecord("expired-rule")
	expired.Schedule = nil
	expired.Recurrence = "FREQ=WEEKLY;BYDAY=MO;UNTIL=20200101T000000Z"
	expired.Slots = []string{"morning"}

	badSkill := newOpportunityRecord("bad-skill")
	badSkill.RequiredSkills = map[string]string{"driving": "pro"}

	records := []db.OpportunityRecord{halfLocation, good, bothSchedules, badRule, expired, badSkill}
	converted := ToOpportunities(records, nil, testNow)

	require.Len(t, converted.Opportunities, 1)
	assert.Equal(t, "good", converted.Opportunities[0].ID)
	assert.Equal(t, []int{1}, converted.SourceIndex)

	require.Len(t, converted.Warnings, 5)
	indexes := make([]int, len(converted.Warnings))
	for i, w := range converted.Warnings {
		indexes[i] = w.Index
		assert.Equal(t, records[w.Index].ID, w.OpportunityID)
	}
	assert.Equal(t, []int{0, 2, 3, 4, 5}, indexes)

	assert.ErrorIs(t, converted.Warnings[0].Err, matcher.ErrInvalidCoordinate)
	assert.Contains(t, converted.Warnings[1].Err.Error(), "mutually exclusive")
	assert.Contains(t, converted.Warnings[2].Err.Error(), "recurrence")
	assert.True(t, errors.Is(converted.Warnings[3].Err, recurrence.ErrNoOccurrences))
	assert.ErrorIs(t, converted.Warnings[4].Err, matcher.ErrInvalidSkillLevel)
}
