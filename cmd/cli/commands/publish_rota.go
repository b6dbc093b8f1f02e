package commands

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/pharmacy-rota/pkg/core/services"
)

// PublishRotaCmd creates the publishRota command
func PublishRotaCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "publishRota <monday>",
		Short: "Export a week's rotas to a workbook and mark them published",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			weekStart := args[0]
			output, _ := cmd.Flags().GetString("output")

			if output == "" {
				output = filepath.Join(app.Cfg.ExportDir, fmt.Sprintf("rota_%s.xlsx", weekStart))
			}

			app.Logger.Debug("publishRota command",
				zap.String("week_start", weekStart),
				zap.String("output", output))

			result, err := services.PublishRota(app.Ctx, app.Database, app.Logger, weekStart, output)
			if err != nil {
				return fmt.Errorf("failed to publish rota: %w", err)
			}

			fmt.Printf("\nPublished %d rotas for week starting %s\n", len(result.PublishedRotas), result.WeekStart)
			fmt.Printf("Workbook: %s\n\n", result.OutputPath)

			return nil
		},
	}

	cmd.Flags().String("output", "", "Workbook path (default: <exportDir>/rota_<monday>.xlsx)")

	return cmd
}
