package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/volunteer-match/pkg/core/services"
)

// ImportCmd loads volunteers and opportunities from a YAML file into the database
func ImportCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "import <records.yaml>",
		Short: "Insert or update volunteers and opportunities from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app.Logger.Info("import command", zap.String("path", args[0]))

			file, err := services.LoadImportFile(args[0])
			if err != nil {
				return err
			}

			result, err := services.ImportRecords(app.Ctx, app.Database, app.Logger, file)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "\n✓ Imported %d volunteers and %d opportunities\n\n",
				result.Volunteers, result.Opportunities)
			return nil
		},
	}
}
