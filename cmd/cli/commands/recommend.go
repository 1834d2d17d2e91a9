package commands

import (
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/volunteer-match/pkg/core/services"
)

// RecommendCmd ranks opportunities for a single volunteer
func RecommendCmd(app *AppContext) *cobra.Command {
	var (
		limit    int
		nowValue string
		save     bool
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "recommend <volunteer_id>",
		Short: "Rank opportunities for a volunteer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			now, err := parseNow(nowValue, time.Now)
			if err != nil {
				return err
			}

			app.Logger.Info("recommend command",
				zap.String("volunteer_id", args[0]),
				zap.Int("limit", limit),
				zap.Bool("save", save))

			result, err := services.RecommendOpportunities(
				app.Ctx,
				app.Store(),
				app.Cache,
				app.Logger,
				app.Cfg,
				args[0],
				limit,
				now,
				save,
			)
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), result)
			}
			printRecommendation(cmd.OutOrStdout(), result)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of results (0 uses the configured default)")
	cmd.Flags().StringVar(&nowValue, "now", "", "Reference time in RFC3339 (defaults to the current time)")
	cmd.Flags().BoolVar(&save, "save", false, "Persist the results as a match run")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print results as JSON")

	return cmd
}
