package matcher

import (
	"fmt"
	"strings"
)

// assessment holds everything the filter and the calculator need to know about
// a volunteer/opportunity pair, computed once per pair.
type assessment struct {
	sharedCategories []string

	hasDistance   bool
	distanceKm    float64
	maxDistanceKm float64

	schedule ScheduleOverlap
	skills   SkillMatch

	openPlaces int
	maxPlaces  int
	headroom   float64
}

func assess(v *VolunteerProfile, o *Opportunity) (assessment, error) {
	a := assessment{
		sharedCategories: sharedCategories(v.Categories, o.Categories),
		maxDistanceKm:    v.MaxDistanceKm,
		schedule:         CompareSchedules(v.Availability, o.Schedule),
		skills:           CompareSkills(v.Skills, o.RequiredSkills),
		openPlaces:       max(o.MaxVolunteers-o.CurrentVolunteers, 0),
		maxPlaces:        o.MaxVolunteers,
		headroom:         o.CapacityHeadroom(),
	}

	// Distance only counts when both sides have a known location
	if v.Location != nil && o.Location != nil {
		d, err := DistanceKm(*v.Location, *o.Location)
		if err != nil {
			return assessment{}, err
		}
		a.hasDistance = true
		a.distanceKm = d
	}

	return a, nil
}

// sharedCategories returns the opportunity's categories that the volunteer also
// chose, in the opportunity's order. Comparison ignores case and surrounding space.
func sharedCategories(volunteer, opportunity []string) []string {
	chosen := make(map[string]bool, len(volunteer))
	for _, c := range volunteer {
		chosen[normaliseCategory(c)] = true
	}

	var shared []string
	seen := make(map[string]bool)
	for _, c := range opportunity {
		key := normaliseCategory(c)
		if chosen[key] && !seen[key] {
			seen[key] = true
			shared = append(shared, c)
		}
	}
	return shared
}

func normaliseCategory(c string) string {
	return strings.ToLower(strings.TrimSpace(c))
}

// factorEvaluation is one factor's raw value for a pair
type factorEvaluation struct {
	// value is in [0, 1]
	value float64

	// applicable is false when the factor cannot be judged for this pair. Its
	// weight is then redistributed across the remaining factors.
	applicable bool

	explanation string
}

type factor struct {
	name     FactorName
	evaluate func(a *assessment) factorEvaluation
}

// factors is the scoring table. Order here is the tie-break order for reasons
// with equal contribution.
var factors = []factor{
	{name: FactorCategory, evaluate: evaluateCategory},
	{name: FactorDistance, evaluate: evaluateDistance},
	{name: FactorSchedule, evaluate: evaluateSchedule},
	{name: FactorSkills, evaluate: evaluateSkills},
	{name: FactorCapacity, evaluate: evaluateCapacity},
}

func evaluateCategory(a *assessment) factorEvaluation {
	if len(a.sharedCategories) == 0 {
		return factorEvaluation{value: 0, applicable: true, explanation: "no category match"}
	}
	return factorEvaluation{
		value:       1,
		applicable:  true,
		explanation: "category match: " + strings.Join(a.sharedCategories, ", "),
	}
}

func evaluateDistance(a *assessment) factorEvaluation {
	if !a.hasDistance || a.maxDistanceKm <= 0 {
		return factorEvaluation{applicable: false}
	}

	value := max(0, 1-a.distanceKm/a.maxDistanceKm)
	return factorEvaluation{
		value:       value,
		applicable:  true,
		explanation: fmt.Sprintf("%.1f km within %g km radius", a.distanceKm, a.maxDistanceKm),
	}
}

func evaluateSchedule(a *assessment) factorEvaluation {
	if a.schedule.Required == 0 {
		return factorEvaluation{value: 1, applicable: true, explanation: "no fixed schedule"}
	}
	return factorEvaluation{
		value:       a.schedule.Ratio(),
		applicable:  true,
		explanation: fmt.Sprintf("%d of %d scheduled slots available", a.schedule.Matched, a.schedule.Required),
	}
}

func evaluateSkills(a *assessment) factorEvaluation {
	if a.skills.Required == 0 {
		return factorEvaluation{value: 1, applicable: true, explanation: "no required skills"}
	}

	explanation := fmt.Sprintf("%d of %d required skills met", a.skills.Met, a.skills.Required)

	// A partial match that misses any minimum earns nothing
	if !a.skills.MeetsMinimum() {
		return factorEvaluation{
			value:       0,
			applicable:  true,
			explanation: explanation + ", below minimum for " + strings.Join(a.skills.Missing, ", "),
		}
	}

	return factorEvaluation{value: a.skills.Compatibility(), applicable: true, explanation: explanation}
}

func evaluateCapacity(a *assessment) factorEvaluation {
	return factorEvaluation{
		value:       a.headroom,
		applicable:  true,
		explanation: fmt.Sprintf("%d of %d places open", a.openPlaces, a.maxPlaces),
	}
}
