package matcher

import (
	"fmt"
	"sort"
	"strings"
)

// Proficiency is a position on the ordered skill scale
type Proficiency int

const (
	// ProficiencyNone is the level of a skill the volunteer does not have.
	// It is always below any required minimum.
	ProficiencyNone Proficiency = iota
	ProficiencyBeginner
	ProficiencyIntermediate
	ProficiencyAdvanced
	ProficiencyExpert
)

var proficiencyNames = map[Proficiency]string{
	ProficiencyNone:         "none",
	ProficiencyBeginner:     "beginner",
	ProficiencyIntermediate: "intermediate",
	ProficiencyAdvanced:     "advanced",
	ProficiencyExpert:       "expert",
}

func (p Proficiency) String() string {
	if name, ok := proficiencyNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Proficiency(%d)", int(p))
}

// IsValid returns true if the level is on the scale (including none)
func (p Proficiency) IsValid() bool {
	return p >= ProficiencyNone && p <= ProficiencyExpert
}

// ParseProficiency converts a case-insensitive level name into a Proficiency
func ParseProficiency(s string) (Proficiency, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for level, levelName := range proficiencyNames {
		if levelName == name {
			return level, nil
		}
	}
	return ProficiencyNone, fmt.Errorf("%w: unknown proficiency %q", ErrInvalidSkillLevel, s)
}

// MarshalText encodes the level by name
func (p Proficiency) MarshalText() ([]byte, error) {
	if !p.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSkillLevel, int(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText decodes a level name, so profiles can be read from YAML or JSON
func (p *Proficiency) UnmarshalText(text []byte) error {
	level, err := ParseProficiency(string(text))
	if err != nil {
		return err
	}
	*p = level
	return nil
}

// SkillMatch is the outcome of comparing a volunteer's skills to an opportunity's requirements
type SkillMatch struct {
	// Met is the number of required skills held at or above the minimum
	Met int

	// Required is the number of required skills
	Required int

	// Missing lists the required skills below minimum, sorted by name
	Missing []string
}

// MeetsMinimum is true when every requirement is met (vacuously true with no requirements)
func (m SkillMatch) MeetsMinimum() bool {
	return m.Met == m.Required
}

// Compatibility is the fraction of requirements met, each weighted equally.
// Exceeding a requirement earns no more than full credit for that skill.
func (m SkillMatch) Compatibility() float64 {
	if m.Required == 0 {
		return 1
	}
	return float64(m.Met) / float64(m.Required)
}

// CompareSkills checks each required skill against the volunteer's level.
// A skill the volunteer lacks counts as ProficiencyNone.
func CompareSkills(volunteerSkills, requiredSkills map[string]Proficiency) SkillMatch {
	result := SkillMatch{Required: len(requiredSkills)}

	for skill, minimum := range requiredSkills {
		if volunteerSkills[skill] >= minimum {
			result.Met++
		} else {
			result.Missing = append(result.Missing, skill)
		}
	}
	sort.Strings(result.Missing)

	return result
}

// SkillCompatibility returns the fraction of required skills met and whether
// every minimum is satisfied.
func SkillCompatibility(volunteerSkills, requiredSkills map[string]Proficiency) (float64, bool) {
	m := CompareSkills(volunteerSkills, requiredSkills)
	return m.Compatibility(), m.MeetsMinimum()
}

func validateSkills(skills map[string]Proficiency, required bool) error {
	for name, level := range skills {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("%w: empty skill name", ErrInvalidSkillLevel)
		}
		if !level.IsValid() {
			return fmt.Errorf("%w: skill %q has level %d", ErrInvalidSkillLevel, name, int(level))
		}
		if required && level == ProficiencyNone {
			return fmt.Errorf("%w: required skill %q has no minimum level", ErrInvalidSkillLevel, name)
		}
	}
	return nil
}
