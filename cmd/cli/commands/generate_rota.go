package commands

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/pharmacy-rota/pkg/core/model"
	"github.com/jakechorley/pharmacy-rota/pkg/core/services"
)

// GenerateRotaCmd creates the generateRota command
func GenerateRotaCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generateRota <date>",
		Short: "Generate the rota for a single date",
		Long:  "Run the allocation engine for one date and save the result, replacing any existing rota for that date.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date := args[0]
			staffIDs, _ := cmd.Flags().GetStringSlice("staff")
			clinicIDs, _ := cmd.Flags().GetStringSlice("clinics")
			seed, _ := cmd.Flags().GetInt64("seed")
			dryRun, _ := cmd.Flags().GetBool("dry-run")

			app.Logger.Debug("generateRota command",
				zap.String("date", date),
				zap.Int64("seed", seed),
				zap.Bool("dry_run", dryRun))

			staffIDs, err := resolveStaffIDs(app, staffIDs)
			if err != nil {
				return err
			}

			parsed, err := time.Parse("2006-01-02", date)
			if err != nil {
				return fmt.Errorf("date must be YYYY-MM-DD: %w", err)
			}

			singlePharmacist, err := services.ResolveSinglePharmacistDays(
				app.Cfg.SinglePharmacistDispensaryDays, mondayOf(parsed), app.Logger)
			if err != nil {
				return fmt.Errorf("failed to resolve single-pharmacist days: %w", err)
			}

			result, err := services.GenerateDailyRota(app.Ctx, app.Database, app.Logger, services.GenerateDailyRotaInput{
				Date:                       date,
				StaffIDs:                   staffIDs,
				ClinicIDs:                  clinicIDs,
				SinglePharmacistDispensary: singlePharmacist[date],
				Seed:                       seed,
				DryRun:                     dryRun,
			})
			if err != nil {
				return fmt.Errorf("generation failed: %w", err)
			}

			printRota(app, result.Rota)
			if dryRun {
				fmt.Println("This was a dry run. Run without --dry-run to save the rota.")
			}

			return nil
		},
	}

	cmd.Flags().StringSlice("staff", nil, "Staff IDs to allocate (default: everyone)")
	cmd.Flags().StringSlice("clinics", nil, "Clinic IDs to schedule (default: clinics included by default)")
	cmd.Flags().Int64("seed", 0, "Seed for random decisions (0 = random)")
	cmd.Flags().Bool("dry-run", false, "Run without saving to database")

	return cmd
}

// resolveStaffIDs falls back to the full roster when no staff IDs were
// given on the command line
func resolveStaffIDs(app *AppContext, staffIDs []string) ([]string, error) {
	if len(staffIDs) > 0 {
		return staffIDs, nil
	}

	staff, err := app.Database.ListStaff(app.Ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list staff: %w", err)
	}
	ids := make([]string, 0, len(staff))
	for _, s := range staff {
		ids = append(ids, s.ID)
	}
	return ids, nil
}

// mondayOf returns the Monday of the week containing the given date
func mondayOf(date time.Time) time.Time {
	offset := (int(date.Weekday()) + 6) % 7
	return date.AddDate(0, 0, -offset)
}

// printRota renders one day's rota grouped by assignment type
func printRota(app *AppContext, rota *model.Rota) {
	staff, err := app.Database.ListStaff(app.Ctx)
	names := make(map[string]string)
	if err == nil {
		for _, s := range staff {
			names[s.ID] = s.FullName()
		}
	}

	fmt.Printf("\nRota for %s (%s)\n\n", rota.Date, rota.Status)

	groups := map[model.AssignmentType][]model.Assignment{}
	for _, a := range rota.Assignments {
		groups[a.Type] = append(groups[a.Type], a)
	}

	for _, section := range []struct {
		label string
		kind  model.AssignmentType
	}{
		{"Wards", model.AssignmentWard},
		{"Clinics", model.AssignmentClinic},
		{"Dispensary", model.AssignmentDispensary},
		{"Management", model.AssignmentManagement},
	} {
		assignments := groups[section.kind]
		if len(assignments) == 0 {
			continue
		}
		sort.Slice(assignments, func(i, j int) bool {
			if assignments[i].Location != assignments[j].Location {
				return assignments[i].Location < assignments[j].Location
			}
			return assignments[i].StartTime < assignments[j].StartTime
		})

		fmt.Printf("%s:\n", section.label)
		for _, a := range assignments {
			name := names[a.StaffID]
			if name == "" {
				name = a.StaffID
			}
			duty := a.Location
			if a.IsLunchCover {
				duty += " (lunch cover)"
			}
			fmt.Printf("  %-30s %s  %s-%s\n", duty, name, a.StartTime, a.EndTime)
		}
		fmt.Println()
	}

	if len(rota.Conflicts) > 0 {
		fmt.Printf("Conflicts (%d):\n", len(rota.Conflicts))
		for _, c := range rota.Conflicts {
			fmt.Printf("  [%s] %s: %s\n", c.Severity, c.Type, c.Description)
		}
		fmt.Println()
	}
}
