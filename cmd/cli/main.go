package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/volunteer-match/cmd/cli/commands"
	"github.com/jakechorley/volunteer-match/internal/config"
	"github.com/jakechorley/volunteer-match/pkg/clients/natsclient"
	"github.com/jakechorley/volunteer-match/pkg/clients/sheetsclient"
	"github.com/jakechorley/volunteer-match/pkg/db"
	"github.com/jakechorley/volunteer-match/pkg/matchcache"
	"github.com/jakechorley/volunteer-match/pkg/metrics"
	"github.com/jakechorley/volunteer-match/pkg/postgres"
	"github.com/jakechorley/volunteer-match/pkg/utils"
	"github.com/jakechorley/volunteer-match/pkg/utils/logging"
)

var (
	env         string
	metricsAddr string

	// cleanups run in reverse order once the command finishes
	cleanups []func()
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &commands.AppContext{Ctx: ctx}

	rootCmd := &cobra.Command{
		Use:   "cli",
		Short: "Volunteer Match CLI - Rank volunteering opportunities",
		Long:  `A CLI tool for ranking volunteering opportunities against volunteer profiles, and for saving and reviewing the results.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp(app, cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			shutdown(app)
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&env, "env", "e", "", "Environment (required: test, prod, etc.)")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (overrides config)")
	rootCmd.MarkPersistentFlagRequired("env")

	rootCmd.AddCommand(commands.RecommendCmd(app))
	rootCmd.AddCommand(commands.RecommendAllCmd(app))
	rootCmd.AddCommand(commands.RankFileCmd(app))
	rootCmd.AddCommand(commands.HistoryCmd(app))
	rootCmd.AddCommand(commands.MigrateCmd(app))
	rootCmd.AddCommand(commands.ImportCmd(app))

	if err := rootCmd.Execute(); err != nil {
		shutdown(app)
		os.Exit(1)
	}
}

// initApp sets up logger, config, metrics and, unless the command is offline, the stores
func initApp(app *commands.AppContext, cmd *cobra.Command) error {
	var err error

	// Initialize logger
	app.Logger, err = logging.InitLogger(env)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	app.Logger.Info("Starting application", zap.String("environment", env))

	// Load configuration
	app.Logger.Info("Loading configuration")
	app.Cfg, err = config.LoadWithEnv(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	app.Logger.Debug("Configuration loaded successfully")

	if metricsAddr != "" {
		app.Cfg.MetricsAddr = metricsAddr
	}
	if app.Cfg.MetricsAddr != "" {
		srv := metrics.StartServer(app.Cfg.MetricsAddr, app.Logger)
		cleanups = append(cleanups, func() { _ = srv.Close() })
	}

	if commands.IsOffline(cmd.Annotations) {
		app.Logger.Debug("Offline command, skipping store initialization", zap.String("command", cmd.Name()))
		return nil
	}

	// Initialize database
	app.Logger.Info("Connecting to database")
	database, err := postgres.NewDB(app.Ctx, app.Cfg.DatabaseURL, app.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.Database = database
	cleanups = append(cleanups, database.Close)
	app.Logger.Info("Database initialized successfully")

	if err := initOpportunitySource(app); err != nil {
		return err
	}

	if err := initMatchStore(app); err != nil {
		return err
	}

	initCache(app)

	return nil
}

func initOpportunitySource(app *commands.AppContext) error {
	if app.Cfg.OpportunitySource != config.SourceSheets {
		app.Opportunities = app.Database
		return nil
	}

	app.Logger.Info("Initializing sheets client",
		zap.String("spreadsheet_id", app.Cfg.Sheets.SpreadsheetID),
		zap.String("tab", app.Cfg.Sheets.OpportunitiesTab))

	ts, err := utils.ServiceAccountTokenSource(app.Ctx, app.Cfg.Sheets.CredentialsFile, utils.ScopeSheetsReadonly)
	if err != nil {
		return fmt.Errorf("failed to load sheets credentials: %w", err)
	}

	client, err := sheetsclient.NewClient(app.Ctx, ts)
	if err != nil {
		return fmt.Errorf("failed to create sheets client: %w", err)
	}

	app.Opportunities = sheetsclient.NewOpportunitySheet(client, app.Cfg.Sheets.SpreadsheetID, app.Cfg.Sheets.OpportunitiesTab, app.Logger)
	app.Logger.Debug("Sheets client initialized successfully")
	return nil
}

func initMatchStore(app *commands.AppContext) error {
	if !app.Cfg.NATS.Enabled() {
		app.Matches = app.Database
		return nil
	}

	app.Logger.Info("Connecting to NATS", zap.String("url", app.Cfg.NATS.URL))

	natsCfg := natsclient.DefaultConfig()
	natsCfg.URL = app.Cfg.NATS.URL
	natsCfg.SubjectPrefix = app.Cfg.NATS.SubjectPrefix

	publisher, err := natsclient.NewPublisher(natsCfg, app.Logger)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}
	cleanups = append(cleanups, publisher.Close)

	app.Matches = db.NewMultiMatchStore(app.Database, publisher)
	app.Logger.Debug("Match events enabled")
	return nil
}

// initCache leaves app.Cache nil when Redis is not configured or unreachable
func initCache(app *commands.AppContext) {
	if !app.Cfg.Redis.Enabled() {
		return
	}

	app.Logger.Info("Connecting to Redis", zap.String("addr", app.Cfg.Redis.Addr))

	client := matchcache.NewClient(matchcache.Config{
		Addr:     app.Cfg.Redis.Addr,
		Password: app.Cfg.Redis.Password,
		DB:       app.Cfg.Redis.DB,
	})
	cache := matchcache.New(client, app.Cfg.Redis.TTL)

	if err := cache.Ping(app.Ctx); err != nil {
		app.Logger.Warn("Redis unavailable, caching disabled", zap.Error(err))
		_ = cache.Close()
		return
	}

	app.Cache = cache
	cleanups = append(cleanups, func() { _ = cache.Close() })
	app.Logger.Debug("Result cache enabled", zap.Duration("ttl", app.Cfg.Redis.TTL))
}

func shutdown(app *commands.AppContext) {
	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanups[i]()
	}
	cleanups = nil

	if app.Logger != nil {
		app.Logger.Sync()
	}
}
