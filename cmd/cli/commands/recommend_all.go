package commands

import (
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/volunteer-match/pkg/core/services"
)

// RecommendAllCmd ranks the active inventory for every volunteer
func RecommendAllCmd(app *AppContext) *cobra.Command {
	var (
		limit    int
		nowValue string
		save     bool
	)

	cmd := &cobra.Command{
		Use:   "recommendAll",
		Short: "Rank opportunities for every volunteer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			now, err := parseNow(nowValue, time.Now)
			if err != nil {
				return err
			}

			app.Logger.Info("recommendAll command", zap.Int("limit", limit), zap.Bool("save", save))

			result, err := services.RecommendForAllVolunteers(
				app.Ctx,
				app.Store(),
				app.Cache,
				app.Logger,
				app.Cfg,
				limit,
				now,
				save,
			)
			if err != nil {
				return err
			}

			printBatchSummary(cmd.OutOrStdout(), result)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum results per volunteer (0 uses the configured default)")
	cmd.Flags().StringVar(&nowValue, "now", "", "Reference time in RFC3339 (defaults to the current time)")
	cmd.Flags().BoolVar(&save, "save", false, "Persist each volunteer's results as a match run")

	return cmd
}
