package matcher

import (
	"fmt"
	"math"
)

// Built-in factor weights. They sum to 100 so a perfect match scores 100.
const (
	// DefaultWeightCategory rewards an opportunity in one of the volunteer's chosen categories
	DefaultWeightCategory = 30

	// DefaultWeightDistance rewards opportunities closer to the volunteer relative to their radius
	DefaultWeightDistance = 25

	// DefaultWeightSchedule rewards opportunities whose schedule the volunteer can cover
	DefaultWeightSchedule = 20

	// DefaultWeightSkills rewards volunteers meeting the required skill levels
	DefaultWeightSkills = 20

	// DefaultWeightCapacity rewards opportunities with more open places, to reduce contention
	DefaultWeightCapacity = 5
)

// weightSumTolerance allows for decimal weights in config files
const weightSumTolerance = 0.001

// Weights is the tunable table of factor weights
type Weights struct {
	Category float64 `yaml:"category" json:"category" validate:"gte=0"`
	Distance float64 `yaml:"distance" json:"distance" validate:"gte=0"`
	Schedule float64 `yaml:"schedule" json:"schedule" validate:"gte=0"`
	Skills   float64 `yaml:"skills" json:"skills" validate:"gte=0"`
	Capacity float64 `yaml:"capacity" json:"capacity" validate:"gte=0"`
}

// DefaultWeights returns the built-in weight table
func DefaultWeights() Weights {
	return Weights{
		Category: DefaultWeightCategory,
		Distance: DefaultWeightDistance,
		Schedule: DefaultWeightSchedule,
		Skills:   DefaultWeightSkills,
		Capacity: DefaultWeightCapacity,
	}
}

// For returns the weight of the named factor
func (w Weights) For(factor FactorName) float64 {
	switch factor {
	case FactorCategory:
		return w.Category
	case FactorDistance:
		return w.Distance
	case FactorSchedule:
		return w.Schedule
	case FactorSkills:
		return w.Skills
	case FactorCapacity:
		return w.Capacity
	}
	return 0
}

// Sum returns the total of all weights
func (w Weights) Sum() float64 {
	return w.Category + w.Distance + w.Schedule + w.Skills + w.Capacity
}

// IsZero reports whether no weight has been set
func (w Weights) IsZero() bool {
	return w == Weights{}
}

// Validate checks no weight is negative and the weights sum to 100
func (w Weights) Validate() error {
	for _, f := range factors {
		v := w.For(f.name)
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s weight is %v", ErrInvalidWeights, f.name, v)
		}
	}
	if math.Abs(w.Sum()-100) > weightSumTolerance {
		return fmt.Errorf("%w: weights sum to %.4f, must sum to 100", ErrInvalidWeights, w.Sum())
	}
	return nil
}
