package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/volunteer-match/internal/config"
	"github.com/jakechorley/volunteer-match/pkg/db"
)

// RecommendAllStore defines the storage operations needed for a batch run
type RecommendAllStore interface {
	ListVolunteers(ctx context.Context) ([]db.VolunteerRecord, error)
	db.OpportunitySource
	db.MatchStore
}

// SkippedVolunteer records a volunteer left out of a batch run
type SkippedVolunteer struct {
	VolunteerID string
	Err         error
}

// RecommendAllResult contains the outcome of a batch run
type RecommendAllResult struct {
	Recommendations []RecommendResult
	Skipped         []SkippedVolunteer

	// OpportunityCount is the number of opportunity records fetched
	OpportunityCount int
}

// RecommendForAllVolunteers ranks the active opportunity inventory for every
// volunteer. The inventory is fetched and converted once. A volunteer whose
// profile is malformed is skipped and reported; storage failures abort the run.
func RecommendForAllVolunteers(
	ctx context.Context,
	store RecommendAllStore,
	cache ResultCache,
	logger *zap.Logger,
	cfg *config.Config,
	limit int,
	now time.Time,
	save bool,
) (*RecommendAllResult, error) {
	logger.Debug("Starting recommendForAllVolunteers", zap.Int("limit", limit), zap.Bool("save", save))

	volunteers, err := store.ListVolunteers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch volunteers: %w", err)
	}

	records, err := store.ListOpportunities(ctx, db.OpportunityQuery{
		ActiveOnly: true,
		Limit:      cfg.Matching.SourceLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch opportunities: %w", err)
	}

	logger.Debug("Fetched batch inputs",
		zap.Int("volunteers", len(volunteers)),
		zap.Int("opportunities", len(records)))

	run, err := newRankRun(cfg, cache, logger, ToOpportunities(records, cfg.Matching.ScheduleDefaults, now), limit, now)
	if err != nil {
		return nil, err
	}

	result := &RecommendAllResult{
		Recommendations:  make([]RecommendResult, 0, len(volunteers)),
		OpportunityCount: len(records),
	}

	for i := range volunteers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		volunteerID := volunteers[i].ID

		profile, err := ToVolunteerProfile(&volunteers[i])
		if err != nil {
			logger.Warn("Skipping malformed volunteer", zap.String("volunteer_id", volunteerID), zap.Error(err))
			result.Skipped = append(result.Skipped, SkippedVolunteer{VolunteerID: volunteerID, Err: err})
			continue
		}

		rec, err := run.rank(ctx, profile)
		if err != nil {
			logger.Warn("Skipping volunteer", zap.String("volunteer_id", volunteerID), zap.Error(err))
			result.Skipped = append(result.Skipped, SkippedVolunteer{VolunteerID: volunteerID, Err: err})
			continue
		}

		if save {
			if err := saveResults(ctx, store, rec); err != nil {
				return nil, fmt.Errorf("volunteer %s: %w", volunteerID, err)
			}
		}

		result.Recommendations = append(result.Recommendations, *rec)
	}

	logger.Debug("RecommendForAllVolunteers completed",
		zap.Int("ranked", len(result.Recommendations)),
		zap.Int("skipped", len(result.Skipped)))

	return result, nil
}
