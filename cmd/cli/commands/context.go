package commands

import (
	"context"

	"go.uber.org/zap"

	"github.com/jakechorley/volunteer-match/internal/config"
	"github.com/jakechorley/volunteer-match/pkg/core/services"
	"github.com/jakechorley/volunteer-match/pkg/db"
)

// OfflineAnnotation marks commands that run without connecting to any store
const OfflineAnnotation = "offline"

// AppContext holds the application dependencies shared across all commands
type AppContext struct {
	Cfg      *config.Config
	Database db.Database

	// Opportunities is the configured opportunity source (database or spreadsheet)
	Opportunities db.OpportunitySource

	// Matches receives saved matches: the database, plus the event publisher when configured
	Matches db.MatchStore

	// Cache is nil when result caching is disabled
	Cache services.ResultCache

	Logger *zap.Logger
	Ctx    context.Context
}

// Store assembles the ports used by the recommendation services
func (a *AppContext) Store() *db.CompositeStore {
	return &db.CompositeStore{
		VolunteerStore:    a.Database,
		OpportunitySource: a.Opportunities,
		MatchStore:        a.Matches,
	}
}

// IsOffline reports whether a command carries the offline annotation
func IsOffline(annotations map[string]string) bool {
	return annotations[OfflineAnnotation] == "true"
}
