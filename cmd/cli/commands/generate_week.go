package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/pharmacy-rota/pkg/core/services"
)

// GenerateWeekCmd creates the generateWeek command
func GenerateWeekCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generateWeek <monday>",
		Short: "Generate rotas for a whole working week",
		Long: `Generate Monday to Friday rotas starting from the given Monday.
Dispensary duty and clinic counts carry forward across the days so the
workload evens out over the week.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			weekStart := args[0]
			staffIDs, _ := cmd.Flags().GetStringSlice("staff")
			clinicIDs, _ := cmd.Flags().GetStringSlice("clinics")
			days, _ := cmd.Flags().GetStringSlice("days")
			seed, _ := cmd.Flags().GetInt64("seed")
			dryRun, _ := cmd.Flags().GetBool("dry-run")

			app.Logger.Debug("generateWeek command",
				zap.String("week_start", weekStart),
				zap.Int64("seed", seed),
				zap.Bool("dry_run", dryRun))

			staffIDs, err := resolveStaffIDs(app, staffIDs)
			if err != nil {
				return err
			}

			selected, err := parseWeekdays(days)
			if err != nil {
				return err
			}

			start, err := time.Parse("2006-01-02", weekStart)
			if err != nil {
				return fmt.Errorf("week start must be YYYY-MM-DD: %w", err)
			}

			singlePharmacist, err := services.ResolveSinglePharmacistDays(
				app.Cfg.SinglePharmacistDispensaryDays, start, app.Logger)
			if err != nil {
				return fmt.Errorf("failed to resolve single-pharmacist days: %w", err)
			}

			result, err := services.GenerateWeeklyRota(app.Ctx, app.Database, app.Logger, services.GenerateWeeklyRotaInput{
				StartDate:            weekStart,
				StaffIDs:             staffIDs,
				ClinicIDs:            clinicIDs,
				SinglePharmacistDays: singlePharmacist,
				SelectedWeekdays:     selected,
				Seed:                 seed,
				DryRun:               dryRun,
			})
			if err != nil {
				return fmt.Errorf("generation failed: %w", err)
			}

			for _, rota := range result.Rotas {
				printRota(app, rota)
			}

			fmt.Printf("Generated %d rotas for week starting %s\n", len(result.Rotas), weekStart)
			if dryRun {
				fmt.Println("This was a dry run. Run without --dry-run to save the rotas.")
			}

			return nil
		},
	}

	cmd.Flags().StringSlice("staff", nil, "Staff IDs to allocate (default: everyone)")
	cmd.Flags().StringSlice("clinics", nil, "Clinic IDs to schedule (default: clinics included by default)")
	cmd.Flags().StringSlice("days", nil, "Weekdays to generate, e.g. monday,wednesday (default: all five)")
	cmd.Flags().Int64("seed", 0, "Seed for random decisions (0 = random)")
	cmd.Flags().Bool("dry-run", false, "Run without saving to database")

	return cmd
}

var weekdayNames = map[string]time.Weekday{
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
}

func parseWeekdays(days []string) ([]time.Weekday, error) {
	var selected []time.Weekday
	for _, day := range days {
		weekday, ok := weekdayNames[strings.ToLower(strings.TrimSpace(day))]
		if !ok {
			return nil, fmt.Errorf("unknown weekday %q (expected monday-friday)", day)
		}
		selected = append(selected, weekday)
	}
	return selected, nil
}
