package matcher

import (
	"fmt"
	"strings"
	"time"
)

// Coordinate is a point on the earth's surface in decimal degrees
type Coordinate struct {
	Latitude  float64 `yaml:"latitude" json:"latitude"`
	Longitude float64 `yaml:"longitude" json:"longitude"`
}

// Weekday is one of the seven days a schedule or availability can refer to
type Weekday string

const (
	Monday    Weekday = "monday"
	Tuesday   Weekday = "tuesday"
	Wednesday Weekday = "wednesday"
	Thursday  Weekday = "thursday"
	Friday    Weekday = "friday"
	Saturday  Weekday = "saturday"
	Sunday    Weekday = "sunday"
)

// Weekdays lists every weekday in calendar order starting Monday
var Weekdays = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// IsValid returns true if the weekday is one of the seven known values
func (d Weekday) IsValid() bool {
	switch d {
	case Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday:
		return true
	}
	return false
}

// ParseWeekday converts a case-insensitive day name into a Weekday
func ParseWeekday(s string) (Weekday, error) {
	d := Weekday(strings.ToLower(strings.TrimSpace(s)))
	if !d.IsValid() {
		return "", fmt.Errorf("%w: unknown weekday %q", ErrInvalidSchedule, s)
	}
	return d, nil
}

// WeekdayOf maps a time.Weekday onto the engine's Weekday
func WeekdayOf(d time.Weekday) Weekday {
	switch d {
	case time.Monday:
		return Monday
	case time.Tuesday:
		return Tuesday
	case time.Wednesday:
		return Wednesday
	case time.Thursday:
		return Thursday
	case time.Friday:
		return Friday
	case time.Saturday:
		return Saturday
	default:
		return Sunday
	}
}

// WeeklySchedule maps a weekday to the time-slot tags (morning, afternoon, ...)
// that are offered or available on that day.
// It is used both for a volunteer's availability and an opportunity's schedule.
type WeeklySchedule map[Weekday][]string

// OpportunityStatus is the lifecycle state of an opportunity
type OpportunityStatus string

const (
	StatusDraft  OpportunityStatus = "draft"
	StatusActive OpportunityStatus = "active"
	StatusPaused OpportunityStatus = "paused"
	StatusClosed OpportunityStatus = "closed"
)

// IsValid returns true if the status is one of the known lifecycle states
func (s OpportunityStatus) IsValid() bool {
	switch s {
	case StatusDraft, StatusActive, StatusPaused, StatusClosed:
		return true
	}
	return false
}

// SkillMode controls whether an opportunity's required skills gate eligibility
type SkillMode string

const (
	// SkillModeUnset defers to the engine's configured default
	SkillModeUnset SkillMode = ""

	// SkillModeHard excludes volunteers who miss any minimum
	SkillModeHard SkillMode = "hard"

	// SkillModeSoft lets required skills affect the score only
	SkillModeSoft SkillMode = "soft"
)

// IsValid returns true for unset, hard or soft
func (m SkillMode) IsValid() bool {
	return m == SkillModeUnset || m == SkillModeHard || m == SkillModeSoft
}

// VolunteerProfile is the immutable snapshot of a volunteer's matching preferences
type VolunteerProfile struct {
	ID string

	// Categories the volunteer opted into. An empty set matches nothing.
	Categories []string

	// Location is nil when unknown; distance is then excluded from scoring
	Location *Coordinate

	// MaxDistanceKm is a hard cutoff, applied only when both locations are known
	MaxDistanceKm float64

	Availability WeeklySchedule
	Skills       map[string]Proficiency
}

// Opportunity is the immutable snapshot of an open volunteering opportunity
type Opportunity struct {
	ID     string
	Status OpportunityStatus

	// Categories is treated as a set; most opportunities carry exactly one
	Categories []string

	Location       *Coordinate
	Schedule       WeeklySchedule
	RequiredSkills map[string]Proficiency
	SkillMode      SkillMode

	StartDate time.Time

	// EndDate is the last instant the opportunity is matchable. Zero means open-ended.
	EndDate time.Time

	MaxVolunteers     int
	CurrentVolunteers int
}

// CapacityHeadroom returns the fraction of places still open, in [0, 1]
func (o *Opportunity) CapacityHeadroom() float64 {
	if o.MaxVolunteers <= 0 {
		return 0
	}
	open := o.MaxVolunteers - o.CurrentVolunteers
	if open <= 0 {
		return 0
	}
	return float64(open) / float64(o.MaxVolunteers)
}

// FactorName identifies one weighted dimension of the match score
type FactorName string

const (
	FactorCategory FactorName = "category"
	FactorDistance FactorName = "distance"
	FactorSchedule FactorName = "schedule"
	FactorSkills   FactorName = "skills"
	FactorCapacity FactorName = "capacity"
)

// Reason explains one factor's share of a match score
type Reason struct {
	Factor       FactorName `json:"factor"`
	Contribution float64    `json:"contribution"`
	Explanation  string     `json:"explanation"`
}

// MatchResult is the scored, explained pairing of a volunteer and an opportunity.
// The contributions of Reasons always sum to Score.
type MatchResult struct {
	OpportunityID string    `json:"opportunityId"`
	VolunteerID   string    `json:"volunteerId"`
	Score         float64   `json:"score"`
	Reasons       []Reason  `json:"reasons"`
	ComputedAt    time.Time `json:"computedAt"`
}

// Warning records an opportunity that was skipped because its data was malformed
type Warning struct {
	// Index is the opportunity's position in the input slice
	Index         int
	OpportunityID string
	Err           error
}

func (w Warning) String() string {
	return fmt.Sprintf("opportunity %q (index %d) skipped: %v", w.OpportunityID, w.Index, w.Err)
}
