package matcher

import (
	"cmp"
	"fmt"
	"runtime"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultParallelThreshold is the candidate count above which scoring is spread across workers
const DefaultParallelThreshold = 512

// Config contains the configuration for creating a new Ranker
type Config struct {
	// Weights is the factor weight table. A zero table means DefaultWeights.
	Weights Weights

	// DefaultSkillMode applies to opportunities that leave SkillMode unset.
	// Unset here means hard.
	DefaultSkillMode SkillMode

	// Workers bounds parallel scoring. Zero means GOMAXPROCS.
	Workers int

	// ParallelThreshold is the minimum number of opportunities before scoring
	// runs in parallel. Zero means DefaultParallelThreshold.
	ParallelThreshold int
}

// DefaultConfig returns the configuration used by the package-level Rank
func DefaultConfig() Config {
	return Config{
		Weights:           DefaultWeights(),
		DefaultSkillMode:  SkillModeHard,
		Workers:           runtime.GOMAXPROCS(0),
		ParallelThreshold: DefaultParallelThreshold,
	}
}

// Ranker filters, scores, and orders opportunities for a volunteer.
// It holds no mutable state and is safe for concurrent use.
type Ranker struct {
	filter            *CandidateFilter
	calculator        *ScoreCalculator
	workers           int
	parallelThreshold int
}

// RankOutcome represents the result of a ranking call
type RankOutcome struct {
	// Results is the ranked, truncated list of matches
	Results []MatchResult

	// Warnings lists opportunities skipped because their data was malformed
	Warnings []Warning

	// Considered is the number of well-formed opportunities checked for eligibility
	Considered int

	// Eligible is the number of opportunities that passed every gate (before truncation)
	Eligible int

	// Rejections counts filtered opportunities by the gate they failed
	Rejections map[Rejection]int
}

// NewRanker creates a ranker from the given configuration
func NewRanker(cfg Config) (*Ranker, error) {
	weights := cfg.Weights
	if weights.IsZero() {
		weights = DefaultWeights()
	}

	calculator, err := NewScoreCalculator(weights)
	if err != nil {
		return nil, err
	}

	if !cfg.DefaultSkillMode.IsValid() {
		return nil, fmt.Errorf("%w: unknown default skill mode %q", ErrInvalidArgument, cfg.DefaultSkillMode)
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	threshold := cfg.ParallelThreshold
	if threshold <= 0 {
		threshold = DefaultParallelThreshold
	}

	return &Ranker{
		filter:            NewCandidateFilter(cfg.DefaultSkillMode),
		calculator:        calculator,
		workers:           workers,
		parallelThreshold: threshold,
	}, nil
}

// Rank ranks opportunities for a volunteer using DefaultConfig
func Rank(volunteer VolunteerProfile, opportunities []Opportunity, now time.Time, limit int) ([]MatchResult, error) {
	ranker, err := NewRanker(DefaultConfig())
	if err != nil {
		return nil, err
	}
	return ranker.Rank(volunteer, opportunities, now, limit)
}

// Rank returns at most limit matches for the volunteer, best first.
// Malformed opportunities are skipped; use RankDetailed to see them.
func (r *Ranker) Rank(volunteer VolunteerProfile, opportunities []Opportunity, now time.Time, limit int) ([]MatchResult, error) {
	outcome, err := r.RankDetailed(volunteer, opportunities, now, limit)
	if err != nil {
		return nil, err
	}
	return outcome.Results, nil
}

// candidate is the per-opportunity outcome of the filter and score step
type candidate struct {
	result    MatchResult
	headroom  float64
	startDate time.Time
	rejection Rejection
	err       error
	skip      bool
}

// RankDetailed filters, scores and orders the opportunities for the volunteer.
//
// Ordering is by score descending, then capacity headroom descending, then
// start date ascending, then opportunity ID ascending, so identical inputs
// always produce identical output.
//
// Returns an error only for a non-positive limit or a malformed volunteer.
// No surviving candidates is an empty result, not an error.
func (r *Ranker) RankDetailed(volunteer VolunteerProfile, opportunities []Opportunity, now time.Time, limit int) (*RankOutcome, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w, got %d", ErrInvalidLimit, limit)
	}

	if err := ValidateVolunteer(&volunteer); err != nil {
		return nil, err
	}

	candidates := make([]candidate, len(opportunities))
	for _, w := range Screen(opportunities) {
		candidates[w.Index] = candidate{skip: true, err: w.Err}
	}

	evaluateRange := func(from, to int) {
		for i := from; i < to; i++ {
			if candidates[i].skip {
				continue
			}
			candidates[i] = r.evaluate(&volunteer, &opportunities[i], now)
		}
	}

	// Each pair is scored independently; sorting happens once afterwards
	if len(opportunities) >= r.parallelThreshold && r.workers > 1 {
		chunk := (len(opportunities) + r.workers - 1) / r.workers
		var g errgroup.Group
		for from := 0; from < len(opportunities); from += chunk {
			to := min(from+chunk, len(opportunities))
			g.Go(func() error {
				evaluateRange(from, to)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		evaluateRange(0, len(opportunities))
	}

	outcome := &RankOutcome{
		Results:    []MatchResult{},
		Warnings:   []Warning{},
		Rejections: make(map[Rejection]int),
	}

	eligible := make([]candidate, 0)
	for i, c := range candidates {
		if c.err != nil {
			outcome.Warnings = append(outcome.Warnings, Warning{
				Index:         i,
				OpportunityID: opportunities[i].ID,
				Err:           c.err,
			})
			continue
		}

		outcome.Considered++
		if c.rejection != RejectNone {
			outcome.Rejections[c.rejection]++
			continue
		}
		eligible = append(eligible, c)
	}
	outcome.Eligible = len(eligible)

	slices.SortFunc(eligible, compareCandidates)

	for i := 0; i < len(eligible) && i < limit; i++ {
		outcome.Results = append(outcome.Results, eligible[i].result)
	}

	return outcome, nil
}

// Screen returns a warning for every opportunity RankDetailed would skip as
// malformed, in input order. The result does not depend on the volunteer.
func Screen(opportunities []Opportunity) []Warning {
	var warnings []Warning

	// Duplicate IDs would break the ID tie-break, so only the first occurrence is ranked
	seen := make(map[string]int, len(opportunities))
	for i := range opportunities {
		o := &opportunities[i]
		if first, ok := seen[o.ID]; ok && o.ID != "" {
			warnings = append(warnings, Warning{
				Index:         i,
				OpportunityID: o.ID,
				Err:           fmt.Errorf("%w %s: duplicate of index %d", ErrInvalidOpportunity, o.ID, first),
			})
			continue
		}
		seen[o.ID] = i

		if err := ValidateOpportunity(o); err != nil {
			warnings = append(warnings, Warning{Index: i, OpportunityID: o.ID, Err: err})
		}
	}

	return warnings
}

// evaluate filters and scores a single screened opportunity
func (r *Ranker) evaluate(v *VolunteerProfile, o *Opportunity, now time.Time) candidate {
	if rejection := r.filter.checkListing(v, o, now); rejection != RejectNone {
		return candidate{rejection: rejection}
	}

	a, err := assess(v, o)
	if err != nil {
		return candidate{err: err}
	}

	if rejection := r.filter.checkFit(o, &a); rejection != RejectNone {
		return candidate{rejection: rejection}
	}

	return candidate{
		result:    r.calculator.score(v, o, &a, now),
		headroom:  a.headroom,
		startDate: o.StartDate,
	}
}

// compareCandidates orders by the tie-break chain: score, headroom, start date, ID
func compareCandidates(a, b candidate) int {
	if c := cmp.Compare(b.result.Score, a.result.Score); c != 0 {
		return c
	}
	if c := cmp.Compare(b.headroom, a.headroom); c != 0 {
		return c
	}
	if c := a.startDate.Compare(b.startDate); c != 0 {
		return c
	}
	return cmp.Compare(a.result.OpportunityID, b.result.OpportunityID)
}
