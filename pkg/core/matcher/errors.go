package matcher

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument is the only error category the engine produces.
// Every other engine error wraps it, so callers can map it to a 4xx response
// with errors.Is(err, ErrInvalidArgument).
var ErrInvalidArgument = errors.New("invalid argument")

var (
	ErrInvalidCoordinate  = fmt.Errorf("%w: invalid coordinate", ErrInvalidArgument)
	ErrInvalidLimit       = fmt.Errorf("%w: limit must be positive", ErrInvalidArgument)
	ErrInvalidSchedule    = fmt.Errorf("%w: invalid schedule", ErrInvalidArgument)
	ErrInvalidSkillLevel  = fmt.Errorf("%w: invalid skill level", ErrInvalidArgument)
	ErrInvalidVolunteer   = fmt.Errorf("%w: invalid volunteer profile", ErrInvalidArgument)
	ErrInvalidOpportunity = fmt.Errorf("%w: invalid opportunity", ErrInvalidArgument)
	ErrInvalidWeights     = fmt.Errorf("%w: invalid weights", ErrInvalidArgument)
)
