package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/jakechorley/volunteer-match/pkg/core/matcher"
	"github.com/jakechorley/volunteer-match/pkg/core/recurrence"
)

// Opportunity sources
const (
	SourcePostgres = "postgres"
	SourceSheets   = "sheets"
)

// Defaults applied to omitted optional fields
const (
	DefaultLimit            = 10
	DefaultCacheTTL         = 10 * time.Minute
	DefaultCacheGranularity = time.Minute
	DefaultSubjectPrefix    = "match.emitted"
)

// SheetsConfig locates the opportunity inventory spreadsheet
type SheetsConfig struct {
	SpreadsheetID    string `yaml:"spreadsheetID" validate:"required"`
	OpportunitiesTab string `yaml:"opportunitiesTab" validate:"required"`

	// CredentialsFile is a service account key. Empty uses Application Default Credentials.
	CredentialsFile string `yaml:"credentialsFile,omitempty"`
}

// ScheduleDefault gives opportunities in a category a recurring schedule
// when they carry neither a schedule nor a recurrence of their own
type ScheduleDefault struct {
	Category string   `yaml:"category" validate:"required"`
	RRule    string   `yaml:"rrule" validate:"required"`
	Slots    []string `yaml:"slots" validate:"required,min=1,dive,required"`
}

// MatchingConfig tunes the ranking engine and how services call it
type MatchingConfig struct {
	Weights           matcher.Weights   `yaml:"weights"`
	DefaultLimit      int               `yaml:"defaultLimit" validate:"min=1"`
	SkillMode         string            `yaml:"skillMode" validate:"oneof=hard soft"`
	Workers           int               `yaml:"workers,omitempty" validate:"min=0"`
	ParallelThreshold int               `yaml:"parallelThreshold,omitempty" validate:"min=0"`
	CategoryPrefilter bool              `yaml:"categoryPrefilter,omitempty"`
	SourceLimit       int               `yaml:"sourceLimit,omitempty" validate:"min=0"`
	ScheduleDefaults  []ScheduleDefault `yaml:"scheduleDefaults,omitempty" validate:"dive"`
}

// EngineConfig converts the matching section into the ranker's configuration
func (m MatchingConfig) EngineConfig() matcher.Config {
	return matcher.Config{
		Weights:           m.Weights,
		DefaultSkillMode:  matcher.SkillMode(m.SkillMode),
		Workers:           m.Workers,
		ParallelThreshold: m.ParallelThreshold,
	}
}

// RedisConfig enables result caching when Addr is set
type RedisConfig struct {
	Addr        string        `yaml:"addr,omitempty"`
	Password    string        `yaml:"password,omitempty"`
	DB          int           `yaml:"db,omitempty" validate:"min=0"`
	TTL         time.Duration `yaml:"ttl,omitempty" validate:"min=0"`
	Granularity time.Duration `yaml:"granularity,omitempty" validate:"min=0"`
}

// Enabled reports whether a Redis server is configured
func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

// NATSConfig enables match event publishing when URL is set
type NATSConfig struct {
	URL           string `yaml:"url,omitempty"`
	SubjectPrefix string `yaml:"subjectPrefix,omitempty"`
}

// Enabled reports whether a NATS server is configured
func (n NATSConfig) Enabled() bool {
	return n.URL != ""
}

// Config represents the application configuration
type Config struct {
	DatabaseURL       string         `yaml:"databaseURL" validate:"required"`
	OpportunitySource string         `yaml:"opportunitySource" validate:"oneof=postgres sheets"`
	Sheets            *SheetsConfig  `yaml:"sheets,omitempty"`
	Matching          MatchingConfig `yaml:"matching"`
	Redis             RedisConfig    `yaml:"redis,omitempty"`
	NATS              NATSConfig     `yaml:"nats,omitempty"`
	MetricsAddr       string         `yaml:"metricsAddr,omitempty"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// LoadWithEnv loads and validates the configuration from match_config.<env>.yaml
// It looks for the config file in the current directory first, then in the user's home directory
func LoadWithEnv(env string) (*Config, error) {
	configPath, err := findConfigFile(fmt.Sprintf("match_config.%s.yaml", env))
	if err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	return LoadFromPath(configPath)
}

// LoadFromPath loads, defaults and validates the configuration from a specific path
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// ApplyDefaults fills omitted optional fields
func ApplyDefaults(cfg *Config) {
	if cfg.OpportunitySource == "" {
		cfg.OpportunitySource = SourcePostgres
	}
	if cfg.Matching.Weights.IsZero() {
		cfg.Matching.Weights = matcher.DefaultWeights()
	}
	if cfg.Matching.DefaultLimit == 0 {
		cfg.Matching.DefaultLimit = DefaultLimit
	}
	if cfg.Matching.SkillMode == "" {
		cfg.Matching.SkillMode = string(matcher.SkillModeHard)
	}
	if cfg.Redis.TTL == 0 {
		cfg.Redis.TTL = DefaultCacheTTL
	}
	if cfg.Redis.Granularity == 0 {
		cfg.Redis.Granularity = DefaultCacheGranularity
	}
	if cfg.NATS.SubjectPrefix == "" {
		cfg.NATS.SubjectPrefix = DefaultSubjectPrefix
	}
}

// Validate validates the configuration struct, the weight table and rrule syntax
func Validate(cfg *Config) error {
	// Run struct validation
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	if err := cfg.Matching.Weights.Validate(); err != nil {
		return fmt.Errorf("invalid matching weights: %w", err)
	}

	if cfg.OpportunitySource == SourceSheets && cfg.Sheets == nil {
		return fmt.Errorf("config validation failed: sheets section is required when opportunitySource is %s", SourceSheets)
	}

	// Validate rrule syntax for each schedule default
	for i, d := range cfg.Matching.ScheduleDefaults {
		if err := recurrence.Validate(d.RRule); err != nil {
			return fmt.Errorf("invalid rrule in scheduleDefaults[%d]: %w", i, err)
		}
	}

	return nil
}

// findConfigFile searches for the config file in current directory and home directory
func findConfigFile(configFileName string) (string, error) {
	// Check current directory
	if _, err := os.Stat(configFileName); err == nil {
		return configFileName, nil
	}

	// Check home directory
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	homeConfigPath := filepath.Join(homeDir, configFileName)
	if _, err := os.Stat(homeConfigPath); err == nil {
		return homeConfigPath, nil
	}

	return "", fmt.Errorf("%s not found in current directory or home directory", configFileName)
}
