package commands

import (
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/volunteer-match/pkg/core/services"
)

// RankFileCmd ranks a YAML fixture without touching any store
func RankFileCmd(app *AppContext) *cobra.Command {
	var (
		limit    int
		nowValue string
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:         "rankFile <fixture.yaml>",
		Short:       "Rank a volunteer against opportunities from a YAML file",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{OfflineAnnotation: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var now time.Time
			if nowValue != "" {
				var err error
				if now, err = parseNow(nowValue, time.Now); err != nil {
					return err
				}
			}

			app.Logger.Info("rankFile command", zap.String("path", args[0]))

			fixture, err := services.LoadFixture(args[0])
			if err != nil {
				return err
			}

			result, err := services.RankFixture(app.Ctx, fixture, app.Logger, app.Cfg, limit, now)
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

	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of results (overrides the file)")
	cmd.Flags().StringVar(&nowValue, "now", "", "Reference time in RFC3339 (overrides the file)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print results as JSON")

	return cmd
}
