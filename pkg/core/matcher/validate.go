package matcher

import (
	"fmt"
	"math"
	"strings"
)

// ValidateVolunteer checks the profile is well-formed enough to rank against.
// A failure here fails the whole ranking call.
func ValidateVolunteer(v *VolunteerProfile) error {
	if strings.TrimSpace(v.ID) == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidVolunteer)
	}

	if v.Location != nil {
		if err := v.Location.Validate(); err != nil {
			return fmt.Errorf("%w %s: %w", ErrInvalidVolunteer, v.ID, err)
		}
		if math.IsNaN(v.MaxDistanceKm) || v.MaxDistanceKm <= 0 {
			return fmt.Errorf("%w %s: maxDistanceKm must be positive, got %v", ErrInvalidVolunteer, v.ID, v.MaxDistanceKm)
		}
	} else if v.MaxDistanceKm < 0 {
		return fmt.Errorf("%w %s: maxDistanceKm must not be negative, got %v", ErrInvalidVolunteer, v.ID, v.MaxDistanceKm)
	}

	if err := v.Availability.Validate(); err != nil {
		return fmt.Errorf("%w %s: %w", ErrInvalidVolunteer, v.ID, err)
	}

	if err := validateSkills(v.Skills, false); err != nil {
		return fmt.Errorf("%w %s: %w", ErrInvalidVolunteer, v.ID, err)
	}

	return nil
}

// ValidateOpportunity checks a single opportunity record. A failure here only
// excludes that opportunity from ranking.
func ValidateOpportunity(o *Opportunity) error {
	if strings.TrimSpace(o.ID) == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidOpportunity)
	}

	if !o.Status.IsValid() {
		return fmt.Errorf("%w %s: unknown status %q", ErrInvalidOpportunity, o.ID, o.Status)
	}

	if !o.SkillMode.IsValid() {
		return fmt.Errorf("%w %s: unknown skill mode %q", ErrInvalidOpportunity, o.ID, o.SkillMode)
	}

	if o.Location != nil {
		if err := o.Location.Validate(); err != nil {
			return fmt.Errorf("%w %s: %w", ErrInvalidOpportunity, o.ID, err)
		}
	}

	if err := o.Schedule.Validate(); err != nil {
		return fmt.Errorf("%w %s: %w", ErrInvalidOpportunity, o.ID, err)
	}

	if err := validateSkills(o.RequiredSkills, true); err != nil {
		return fmt.Errorf("%w %s: %w", ErrInvalidOpportunity, o.ID, err)
	}

	if o.MaxVolunteers <= 0 {
		return fmt.Errorf("%w %s: maxVolunteers must be positive, got %d", ErrInvalidOpportunity, o.ID, o.MaxVolunteers)
	}
	if o.CurrentVolunteers < 0 {
		return fmt.Errorf("%w %s: currentVolunteers must not be negative, got %d", ErrInvalidOpportunity, o.ID, o.CurrentVolunteers)
	}

	if !o.EndDate.IsZero() && !o.StartDate.IsZero() && o.EndDate.Before(o.StartDate) {
		return fmt.Errorf("%w %s: endDate %s is before startDate %s", ErrInvalidOpportunity, o.ID,
			o.EndDate.Format("2006-01-02"), o.StartDate.Format("2006-01-02"))
	}

	return nil
}
