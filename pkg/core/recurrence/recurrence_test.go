package recurrence

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/volunteer-match/pkg/core/matcher"
)

// 2025-03-03 is a Monday
var start = time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)

func TestWeekdays(t *testing.T) {
	tests := []struct {
		name     string
		rule     string
		end      time.Time
		expected []matcher.Weekday
	}{
		{
			name:     "weekly on two days",
			rule:     "FREQ=WEEKLY;BYDAY=SA,TU",
			expected: []matcher.Weekday{matcher.Tuesday, matcher.Saturday},
		},
		{
			name:     "daily covers the whole week",
			rule:     "FREQ=DAILY",
			expected: matcher.Weekdays,
		},
		{
			name:     "daily cut short by the end date",
			rule:     "FREQ=DAILY",
			end:      start.AddDate(0, 0, 2),
			expected: []matcher.Weekday{matcher.Monday, matcher.Tuesday, matcher.Wednesday},
		},
		{
			name:     "first Sunday of the month",
			rule:     "FREQ=MONTHLY;BYDAY=1SU",
			expected: []matcher.Weekday{matcher.Sunday},
		},
		{
			name:     "weekly without BYDAY uses the start weekday",
			rule:     "FREQ=WEEKLY",
			expected: []matcher.Weekday{matcher.Monday},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			days, err := Weekdays(tt.rule, start, tt.end)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, days)
		})
	}
}

func TestWeekdays_NoOccurrences(t *testing.T) {
	// Only fires on Sundays, window ends on the Wednesday
	_, err := Weekdays("FREQ=WEEKLY;BYDAY=SU", start, start.AddDate(0, 0, 2))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoOccurrences))
}

func TestWeekdays_InvalidRule(t *testing.T) {
	_, err := Weekdays("INVALID_RRULE_SYNTAX", start, time.Time{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid rrule")

	assert.Error(t, Validate("FREQ=SOMETIMES"))
	assert.NoError(t, Validate("FREQ=MONTHLY;BYDAY=1SU;BYMONTH=1,4,7,10"))
}

func TestWeekdays_RequiresStart(t *testing.T) {
	_, err := Weekdays("FREQ=DAILY", time.Time{}, time.Time{})
	assert.Error(t, err)
}

func TestExpand(t *testing.T) {
	schedule, err := Expand("FREQ=WEEKLY;BYDAY=MO,WE", []string{"morning", " ", "evening"}, start, time.Time{})
	require.NoError(t, err)

	assert.Equal(t, matcher.WeeklySchedule{
		matcher.Monday:    {"morning", "evening"},
		matcher.Wednesday: {"morning", "evening"},
	}, schedule)
	assert.NoError(t, schedule.Validate())
}

func TestExpand_NoSlots(t *testing.T) {
	_, err := Expand("FREQ=DAILY", nil, start, time.Time{})
	assert.Error(t, err)
}
