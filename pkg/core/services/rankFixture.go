package services

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/jakechorley/volunteer-match/internal/config"
	"github.com/jakechorley/volunteer-match/pkg/db"
)

// Fixture is an offline ranking input: one volunteer and an opportunity inventory
type Fixture struct {
	// Now is the reference instant. Zero defers to the caller.
	Now           time.Time              `yaml:"now,omitempty"`
	Limit         int                    `yaml:"limit,omitempty" validate:"min=0"`
	Volunteer     *db.VolunteerRecord    `yaml:"volunteer" validate:"required"`
	Opportunities []db.OpportunityRecord `yaml:"opportunities"`
}

var fixtureValidate = validator.New()

// LoadFixture reads and validates a YAML ranking fixture
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture file: %w", err)
	}

	var fixture Fixture
	if err := yaml.Unmarshal(data, &fixture); err != nil {
		return nil, fmt.Errorf("failed to parse fixture file: %w", err)
	}

	if err := fixtureValidate.Struct(&fixture); err != nil {
		return nil, fmt.Errorf("fixture validation failed: %w", err)
	}

	return &fixture, nil
}

// RankFixture ranks a fixture's opportunities for its volunteer without touching
// any store. limit and now override the fixture's own values when set; with
// neither set, now is the current time.
func RankFixture(ctx context.Context, fixture *Fixture, logger *zap.Logger, cfg *config.Config, limit int, now time.Time) (*RecommendResult, error) {
	if limit == 0 {
		limit = fixture.Limit
	}
	if now.IsZero() {
		now = fixture.Now
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	logger.Debug("Ranking fixture",
		zap.String("volunteer_id", fixture.Volunteer.ID),
		zap.Int("opportunities", len(fixture.Opportunities)),
		zap.Time("now", now))

	profile, err := ToVolunteerProfile(fixture.Volunteer)
	if err != nil {
		return nil, fmt.Errorf("failed to convert volunteer: %w", err)
	}

	run, err := newRankRun(cfg, nil, logger, ToOpportunities(fixture.Opportunities, cfg.Matching.ScheduleDefaults, now), limit, now)
	if err != nil {
		return nil, err
	}

	return run.rank(ctx, profile)
}
