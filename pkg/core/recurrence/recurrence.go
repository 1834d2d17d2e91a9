package recurrence

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/jakechorley/volunteer-match/pkg/core/matcher"
)

// DefaultHorizon bounds expansion of rules with no end date
const DefaultHorizon = 365 * 24 * time.Hour

// ErrNoOccurrences is returned when a rule never fires inside the expansion window
var ErrNoOccurrences = errors.New("recurrence rule has no occurrences")

// Validate checks that rule parses as an RFC 5545 RRULE
func Validate(rule string) error {
	if _, err := rrule.StrToRRule(rule); err != nil {
		return fmt.Errorf("invalid rrule %q: %w", rule, err)
	}
	return nil
}

// Weekdays returns the distinct weekdays on which rule fires between start and
// end, in calendar order starting Monday.
//
// start becomes the rule's DTSTART. A zero end means start plus DefaultHorizon,
// and an end further out than the horizon is clamped to it.
func Weekdays(rule string, start, end time.Time) ([]matcher.Weekday, error) {
	parsed, err := rrule.StrToRRule(rule)
	if err != nil {
		return nil, fmt.Errorf("invalid rrule %q: %w", rule, err)
	}

	if start.IsZero() {
		return nil, fmt.Errorf("rrule %q needs a start date", rule)
	}
	parsed.DTStart(start)

	horizon := start.Add(DefaultHorizon)
	if end.IsZero() || end.After(horizon) {
		end = horizon
	}

	found := make(map[matcher.Weekday]bool, 7)
	next := parsed.Iterator()
	for len(found) < 7 {
		occurrence, ok := next()
		if !ok || occurrence.After(end) {
			break
		}
		found[matcher.WeekdayOf(occurrence.Weekday())] = true
	}

	if len(found) == 0 {
		return nil, fmt.Errorf("%w: %q between %s and %s", ErrNoOccurrences, rule,
			start.Format("2006-01-02"), end.Format("2006-01-02"))
	}

	days := make([]matcher.Weekday, 0, len(found))
	for _, d := range matcher.Weekdays {
		if found[d] {
			days = append(days, d)
		}
	}
	return days, nil
}

// Expand builds a weekly schedule that offers every slot on each weekday the
// rule fires
func Expand(rule string, slots []string, start, end time.Time) (matcher.WeeklySchedule, error) {
	var cleaned []string
	for _, slot := range slots {
		if s := strings.TrimSpace(slot); s != "" {
			cleaned = append(cleaned, s)
		}
	}
	if len(cleaned) == 0 {
		return nil, fmt.Errorf("rrule %q has no time slots", rule)
	}

	days, err := Weekdays(rule, start, end)
	if err != nil {
		return nil, err
	}

	schedule := make(matcher.WeeklySchedule, len(days))
	for _, d := range days {
		schedule[d] = append([]string(nil), cleaned...)
	}
	return schedule, nil
}
