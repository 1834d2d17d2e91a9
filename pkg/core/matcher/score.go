package matcher

import (
	"sort"
	"time"
)

// maxScore is the score of a pair that is perfect on every applicable factor
const maxScore = 100

// ScoreCalculator combines the factor table with a set of weights into a single
// explainable score.
//
// It assumes the pair has already passed the CandidateFilter and does not
// re-check eligibility. A pair that misses a skill minimum simply earns no
// skills contribution.
type ScoreCalculator struct {
	weights Weights
}

// NewScoreCalculator creates a calculator for the given weights
func NewScoreCalculator(weights Weights) (*ScoreCalculator, error) {
	if err := weights.Validate(); err != nil {
		return nil, err
	}
	return &ScoreCalculator{weights: weights}, nil
}

// Weights returns the weight table the calculator was built with
func (c *ScoreCalculator) Weights() Weights {
	return c.weights
}

// Score computes the match score and itemised reasons for a pair
func (c *ScoreCalculator) Score(volunteer VolunteerProfile, opportunity Opportunity, now time.Time) (MatchResult, error) {
	a, err := assess(&volunteer, &opportunity)
	if err != nil {
		return MatchResult{}, err
	}
	return c.score(&volunteer, &opportunity, &a, now), nil
}

func (c *ScoreCalculator) score(v *VolunteerProfile, o *Opportunity, a *assessment, now time.Time) MatchResult {
	// Evaluate every factor and total the weight of those that apply
	evaluations := make([]factorEvaluation, len(factors))
	applicableWeight := 0.0
	for i, f := range factors {
		evaluations[i] = f.evaluate(a)
		if evaluations[i].applicable {
			applicableWeight += c.weights.For(f.name)
		}
	}

	result := MatchResult{
		OpportunityID: o.ID,
		VolunteerID:   v.ID,
		Reasons:       []Reason{},
		ComputedAt:    now,
	}

	if applicableWeight == 0 {
		return result
	}

	// Weight of inapplicable factors is spread proportionally over the rest,
	// keeping scores on the same 0-100 scale whether or not distance is known
	scale := c.weights.Sum() / applicableWeight

	for i, f := range factors {
		eval := evaluations[i]
		if !eval.applicable {
			continue
		}

		contribution := c.weights.For(f.name) * eval.value * scale
		if contribution <= 0 {
			continue
		}

		result.Reasons = append(result.Reasons, Reason{
			Factor:       f.name,
			Contribution: contribution,
			Explanation:  eval.explanation,
		})
	}

	// Highest contribution first; equal contributions keep table order
	sort.SliceStable(result.Reasons, func(i, j int) bool {
		return result.Reasons[i].Contribution > result.Reasons[j].Contribution
	})

	// The score is the sum of its reasons
	for _, reason := range result.Reasons {
		result.Score += reason.Contribution
	}
	if result.Score > maxScore {
		result.Score = maxScore
	}

	return result
}
