package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// MigrateCmd applies pending schema migrations
func MigrateCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app.Logger.Info("migrate command")

			if err := app.Database.RunMigrations(app.Ctx); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "\n✓ Database schema is up to date\n\n")
			return nil
		},
	}
}
