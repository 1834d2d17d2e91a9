package services

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/jakechorley/volunteer-match/pkg/db"
)

// ImportFile is a YAML batch of volunteers and opportunities to load into a store
type ImportFile struct {
	Volunteers    []db.VolunteerRecord   `yaml:"volunteers" validate:"dive"`
	Opportunities []db.OpportunityRecord `yaml:"opportunities" validate:"dive"`
}

// ImportResult counts the records written
type ImportResult struct {
	Volunteers    int
	Opportunities int
}

// LoadImportFile reads and validates a YAML import file. IDs must be present
// and unique within each section, and every volunteer must convert to a profile.
func LoadImportFile(path string) (*ImportFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read import file: %w", err)
	}

	var file ImportFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse import file: %w", err)
	}

	if err := fixtureValidate.Struct(&file); err != nil {
		return nil, fmt.Errorf("import validation failed: %w", err)
	}

	seen := make(map[string]bool, len(file.Volunteers))
	for i := range file.Volunteers {
		id := file.Volunteers[i].ID
		if seen[id] {
			return nil, fmt.Errorf("import validation failed: duplicate volunteer %s", id)
		}
		seen[id] = true

		if _, err := ToVolunteerProfile(&file.Volunteers[i]); err != nil {
			return nil, fmt.Errorf("import validation failed: %w", err)
		}
	}

	seen = make(map[string]bool, len(file.Opportunities))
	for _, o := range file.Opportunities {
		if seen[o.ID] {
			return nil, fmt.Errorf("import validation failed: duplicate opportunity %s", o.ID)
		}
		seen[o.ID] = true
	}

	return &file, nil
}

// ImportRecords upserts every record in file, volunteers first. It stops at
// the first failed write; records written before it stay written.
func ImportRecords(ctx context.Context, store db.RecordWriter, logger *zap.Logger, file *ImportFile) (*ImportResult, error) {
	logger.Debug("Starting importRecords",
		zap.Int("volunteers", len(file.Volunteers)),
		zap.Int("opportunities", len(file.Opportunities)))

	result := &ImportResult{}

	for i := range file.Volunteers {
		if err := store.UpsertVolunteer(ctx, &file.Volunteers[i]); err != nil {
			return result, fmt.Errorf("failed to import volunteer: %w", err)
		}
		result.Volunteers++
	}

	for i := range file.Opportunities {
		if err := store.UpsertOpportunity(ctx, &file.Opportunities[i]); err != nil {
			return result, fmt.Errorf("failed to import opportunity: %w", err)
		}
		result.Opportunities++
	}

	logger.Debug("ImportRecords completed",
		zap.Int("volunteers", result.Volunteers),
		zap.Int("opportunities", result.Opportunities))

	return result, nil
}
