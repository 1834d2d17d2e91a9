package services

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jakechorley/volunteer-match/internal/config"
	"github.com/jakechorley/volunteer-match/pkg/core/matcher"
	"github.com/jakechorley/volunteer-match/pkg/db"
	"github.com/jakechorley/volunteer-match/pkg/matchcache"
	"github.com/jakechorley/volunteer-match/pkg/metrics"
)

// ResultCache memoizes ranking results by key
type ResultCache interface {
	Get(ctx context.Context, key string) ([]matcher.MatchResult, bool, error)
	Set(ctx context.Context, key string, results []matcher.MatchResult) error
}

// RecommendStore defines the storage operations needed to recommend for one volunteer
type RecommendStore interface {
	GetVolunteer(ctx context.Context, id string) (*db.VolunteerRecord, error)
	db.OpportunitySource
	db.MatchStore
}

// RecommendResult contains the ranked opportunities for one volunteer
type RecommendResult struct {
	VolunteerID string

	// RunID identifies the persisted matches. Empty when nothing was saved.
	RunID string

	Results []matcher.MatchResult

	// Warnings lists opportunity records skipped as malformed, indexed by record
	Warnings []matcher.Warning

	Considered int
	Eligible   int
	Rejections map[matcher.Rejection]int

	// Cached is true when Results came from the cache; counts are then zero
	Cached bool
}

// RecommendOpportunities ranks the opportunity inventory for a volunteer.
// A limit of zero uses the configured default. When save is set the results
// are persisted as one run. cache may be nil.
func RecommendOpportunities(
	ctx context.Context,
	store RecommendStore,
	cache ResultCache,
	logger *zap.Logger,
	cfg *config.Config,
	volunteerID string,
	limit int,
	now time.Time,
	save bool,
) (*RecommendResult, error) {
	logger.Debug("Starting recommendOpportunities",
		zap.String("volunteer_id", volunteerID),
		zap.Int("limit", limit),
		zap.Time("now", now))

	record, err := store.GetVolunteer(ctx, volunteerID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch volunteer: %w", err)
	}

	profile, err := ToVolunteerProfile(record)
	if err != nil {
		return nil, fmt.Errorf("failed to convert volunteer: %w", err)
	}

	query := db.OpportunityQuery{
		ActiveOnly: true,
		Limit:      cfg.Matching.SourceLimit,
	}
	if cfg.Matching.CategoryPrefilter {
		query.Categories = profile.Categories
	}

	records, err := store.ListOpportunities(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch opportunities: %w", err)
	}
	logger.Debug("Fetched opportunities", zap.Int("count", len(records)))

	run, err := newRankRun(cfg, cache, logger, ToOpportunities(records, cfg.Matching.ScheduleDefaults, now), limit, now)
	if err != nil {
		return nil, err
	}

	result, err := run.rank(ctx, profile)
	if err != nil {
		return nil, err
	}

	if save {
		if err := saveResults(ctx, store, result); err != nil {
			return nil, err
		}
	}

	logger.Debug("RecommendOpportunities completed",
		zap.String("volunteer_id", volunteerID),
		zap.Int("results", len(result.Results)),
		zap.Bool("cached", result.Cached))

	return result, nil
}

// rankRun ranks a fixed set of converted opportunities for one or more volunteers
type rankRun struct {
	ranker      *matcher.Ranker
	converted   *ConvertedOpportunities
	cache       ResultCache
	logger      *zap.Logger
	engineCfg   matcher.Config
	granularity time.Duration
	limit       int
	now         time.Time
}

func newRankRun(cfg *config.Config, cache ResultCache, logger *zap.Logger, converted *ConvertedOpportunities, limit int, now time.Time) (*rankRun, error) {
	if limit == 0 {
		limit = cfg.Matching.DefaultLimit
	}

	engineCfg := cfg.Matching.EngineConfig()
	ranker, err := matcher.NewRanker(engineCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create ranker: %w", err)
	}

	for _, w := range converted.Warnings {
		logger.Warn("Skipping malformed opportunity record",
			zap.String("opportunity_id", w.OpportunityID),
			zap.Int("index", w.Index),
			zap.Error(w.Err))
	}

	return &rankRun{
		ranker:      ranker,
		converted:   converted,
		cache:       cache,
		logger:      logger,
		engineCfg:   engineCfg,
		granularity: cfg.Redis.Granularity,
		limit:       limit,
		now:         now,
	}, nil
}

func (r *rankRun) rank(ctx context.Context, profile matcher.VolunteerProfile) (*RecommendResult, error) {
	key := r.cacheKey(profile)
	if key != "" {
		results, found, err := r.cache.Get(ctx, key)
		switch {
		case err != nil:
			metrics.ObserveCacheLookup(metrics.CacheError)
			r.logger.Warn("Cache lookup failed", zap.String("volunteer_id", profile.ID), zap.Error(err))
		case found:
			metrics.ObserveCacheLookup(metrics.CacheHit)
			r.logger.Debug("Using cached results", zap.String("volunteer_id", profile.ID))

			// Entries are shared across a clock bucket, so stamp them with this call's now
			results = slices.Clone(results)
			for i := range results {
				results[i].ComputedAt = r.now
			}
			return &RecommendResult{
				VolunteerID: profile.ID,
				Results:     results,
				Warnings:    r.warnings(profile.ID, matcher.Screen(r.converted.Opportunities)),
				Cached:      true,
			}, nil
		default:
			metrics.ObserveCacheLookup(metrics.CacheMiss)
		}
	}

	start := time.Now()
	outcome, err := r.ranker.RankDetailed(profile, r.converted.Opportunities, r.now, r.limit)
	metrics.ObserveRanking(outcome, time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("failed to rank opportunities: %w", err)
	}

	warnings := r.warnings(profile.ID, outcome.Warnings)

	if key != "" {
		if err := r.cache.Set(ctx, key, outcome.Results); err != nil {
			r.logger.Warn("Cache write failed", zap.String("volunteer_id", profile.ID), zap.Error(err))
		}
	}

	return &RecommendResult{
		VolunteerID: profile.ID,
		Results:     outcome.Results,
		Warnings:    warnings,
		Considered:  outcome.Considered,
		Eligible:    outcome.Eligible,
		Rejections:  outcome.Rejections,
	}, nil
}

// cacheKey returns "" when caching is disabled or the inputs cannot be digested
func (r *rankRun) cacheKey(profile matcher.VolunteerProfile) string {
	if r.cache == nil {
		return ""
	}
	version, err := matchcache.Version(r.now, r.granularity,
		profile, r.converted.Opportunities, endedAt(r.converted.Opportunities, r.now), r.engineCfg, r.limit)
	if err != nil {
		r.logger.Warn("Failed to version ranking inputs", zap.Error(err))
		return ""
	}
	return matchcache.Key(profile.ID, version)
}

// warnings combines conversion warnings with engine warnings reported against
// the original record positions
func (r *rankRun) warnings(volunteerID string, engine []matcher.Warning) []matcher.Warning {
	warnings := append([]matcher.Warning(nil), r.converted.Warnings...)
	for _, w := range engine {
		w.Index = r.converted.SourceIndex[w.Index]
		r.logger.Warn("Skipping malformed opportunity",
			zap.String("volunteer_id", volunteerID),
			zap.String("opportunity_id", w.OpportunityID),
			zap.Int("index", w.Index),
			zap.Error(w.Err))
		warnings = append(warnings, w)
	}
	return warnings
}

// endedAt returns the IDs of opportunities whose end date has passed at now.
// An opportunity ending inside a clock bucket must change the cache version.
func endedAt(opportunities []matcher.Opportunity, now time.Time) []string {
	ended := []string{}
	for i := range opportunities {
		if end := opportunities[i].EndDate; !end.IsZero() && now.After(end) {
			ended = append(ended, opportunities[i].ID)
		}
	}
	return ended
}

// saveResults persists results as one run and records its ID on result
func saveResults(ctx context.Context, store db.MatchStore, result *RecommendResult) error {
	if len(result.Results) == 0 {
		return nil
	}

	runID := uuid.New().String()
	matches := ToMatches(runID, result.Results)
	if err := store.SaveMatches(ctx, matches); err != nil {
		return fmt.Errorf("failed to save matches: %w", err)
	}

	result.RunID = runID
	return nil
}

// ToMatches converts ranked results into match records numbered from 1
func ToMatches(runID string, results []matcher.MatchResult) []db.Match {
	matches := make([]db.Match, len(results))
	for i, r := range results {
		reasons := make([]db.MatchReason, len(r.Reasons))
		for j, reason := range r.Reasons {
			reasons[j] = db.MatchReason{
				Factor:       string(reason.Factor),
				Contribution: reason.Contribution,
				Explanation:  reason.Explanation,
			}
		}

		matches[i] = db.Match{
			ID:            uuid.New().String(),
			RunID:         runID,
			VolunteerID:   r.VolunteerID,
			OpportunityID: r.OpportunityID,
			Rank:          i + 1,
			Score:         r.Score,
			Reasons:       reasons,
			ComputedAt:    r.ComputedAt,
		}
	}
	return matches
}
