package commands

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/volunteer-match/pkg/core/services"
)

// HistoryCmd shows a volunteer's persisted match runs
func HistoryCmd(app *AppContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history <volunteer_id>",
		Short: "Show saved matches for a volunteer, newest run first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app.Logger.Info("history command", zap.String("volunteer_id", args[0]), zap.Int("limit", limit))

			runs, err := services.ViewMatchHistory(app.Ctx, app.Database, app.Logger, args[0], limit)
			if err != nil {
				return err
			}

			printHistory(cmd.OutOrStdout(), args[0], runs)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of matches to show (0 for all)")

	return cmd
}
