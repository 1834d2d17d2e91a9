package matcher

import (
	"fmt"
	"strings"
)

// Validate checks every key is a known weekday and every slot tag is non-empty
func (s WeeklySchedule) Validate() error {
	for day, slots := range s {
		if !day.IsValid() {
			return fmt.Errorf("%w: unknown weekday %q", ErrInvalidSchedule, day)
		}
		for _, slot := range slots {
			if strings.TrimSpace(slot) == "" {
				return fmt.Errorf("%w: empty time slot on %s", ErrInvalidSchedule, day)
			}
		}
	}
	return nil
}

// SlotCount returns the number of distinct (day, slot) pairs in the schedule
func (s WeeklySchedule) SlotCount() int {
	count := 0
	for _, slots := range s {
		count += len(distinctSlots(slots))
	}
	return count
}

// ScheduleOverlap holds the raw counts behind an overlap ratio
type ScheduleOverlap struct {
	// Matched is the number of required (day, slot) pairs the volunteer covers
	Matched int

	// Required is the number of distinct (day, slot) pairs in the opportunity schedule
	Required int
}

// Ratio returns the overlap in [0, 1]. A schedule with no slots imposes no
// constraint and yields 1.
func (o ScheduleOverlap) Ratio() float64 {
	if o.Required == 0 {
		return 1
	}
	return float64(o.Matched) / float64(o.Required)
}

// CompareSchedules counts the opportunity's (day, slot) pairs that the volunteer's
// availability also contains.
func CompareSchedules(availability, schedule WeeklySchedule) ScheduleOverlap {
	result := ScheduleOverlap{}

	for day, slots := range schedule {
		available := make(map[string]bool, len(availability[day]))
		for _, slot := range availability[day] {
			available[slot] = true
		}

		for slot := range distinctSlots(slots) {
			result.Required++
			if available[slot] {
				result.Matched++
			}
		}
	}

	return result
}

// Overlap returns the fraction of the opportunity schedule covered by the
// volunteer's availability.
//
// An empty schedule (fully flexible) always yields 1.0. A volunteer with no
// recorded availability yields 0.0 against any non-empty schedule.
func Overlap(availability, schedule WeeklySchedule) float64 {
	return CompareSchedules(availability, schedule).Ratio()
}

func distinctSlots(slots []string) map[string]struct{} {
	set := make(map[string]struct{}, len(slots))
	for _, slot := range slots {
		set[slot] = struct{}{}
	}
	return set
}
