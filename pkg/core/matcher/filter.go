package matcher

import "time"

// Rejection names the eligibility gate an opportunity failed.
// The empty Rejection means the opportunity is eligible.
type Rejection string

const (
	RejectNone     Rejection = ""
	RejectStatus   Rejection = "status"
	RejectCapacity Rejection = "capacity"
	RejectEnded    Rejection = "ended"
	RejectCategory Rejection = "category"
	RejectDistance Rejection = "distance"
	RejectSkills   Rejection = "skills"
)

// CandidateFilter is the hard eligibility gate applied before scoring.
//
// Gates, in order:
//   - status must be active
//   - there must be an open place
//   - now must not be after the end date
//   - at least one category must be shared with the volunteer
//   - when both locations are known, the distance must be within the volunteer's radius
//   - in hard skill mode, every required skill minimum must be met
type CandidateFilter struct {
	defaultSkillMode SkillMode
}

// NewCandidateFilter creates a filter. defaultSkillMode applies to opportunities
// that leave their own skill mode unset; an unset default means hard.
func NewCandidateFilter(defaultSkillMode SkillMode) *CandidateFilter {
	if defaultSkillMode == SkillModeUnset {
		defaultSkillMode = SkillModeHard
	}
	return &CandidateFilter{defaultSkillMode: defaultSkillMode}
}

// Eligible returns true if the opportunity passes every gate for this volunteer
func (f *CandidateFilter) Eligible(volunteer VolunteerProfile, opportunity Opportunity, now time.Time) (bool, error) {
	rejection, err := f.Check(volunteer, opportunity, now)
	if err != nil {
		return false, err
	}
	return rejection == RejectNone, nil
}

// Check returns the first gate the opportunity fails, or RejectNone
func (f *CandidateFilter) Check(volunteer VolunteerProfile, opportunity Opportunity, now time.Time) (Rejection, error) {
	if rejection := f.checkListing(&volunteer, &opportunity, now); rejection != RejectNone {
		return rejection, nil
	}

	a, err := assess(&volunteer, &opportunity)
	if err != nil {
		return RejectNone, err
	}

	return f.checkFit(&opportunity, &a), nil
}

// checkListing runs the gates that need no pairwise computation
func (f *CandidateFilter) checkListing(v *VolunteerProfile, o *Opportunity, now time.Time) Rejection {
	if o.Status != StatusActive {
		return RejectStatus
	}

	if o.CurrentVolunteers >= o.MaxVolunteers {
		return RejectCapacity
	}

	if !o.EndDate.IsZero() && now.After(o.EndDate) {
		return RejectEnded
	}

	if len(sharedCategories(v.Categories, o.Categories)) == 0 {
		return RejectCategory
	}

	return RejectNone
}

// checkFit runs the gates that depend on the pair assessment
func (f *CandidateFilter) checkFit(o *Opportunity, a *assessment) Rejection {
	if a.hasDistance && a.distanceKm > a.maxDistanceKm {
		return RejectDistance
	}

	if f.skillMode(o) == SkillModeHard && !a.skills.MeetsMinimum() {
		return RejectSkills
	}

	return RejectNone
}

func (f *CandidateFilter) skillMode(o *Opportunity) SkillMode {
	if o.SkillMode == SkillModeUnset {
		return f.defaultSkillMode
	}
	return o.SkillMode
}
