package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// ListStaffCmd creates the listStaff command
func ListStaffCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "listStaff",
		Short: "List all staff on the roster",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			staff, err := app.Database.ListStaff(app.Ctx)
			if err != nil {
				return fmt.Errorf("failed to list staff: %w", err)
			}

			fmt.Printf("\nFound %d staff:\n\n", len(staff))
			for _, s := range staff {
				details := []string{string(s.Band)}
				if s.WarfarinTrained {
					details = append(details, "warfarin")
				}
				if s.PrimaryDirectorate != "" {
					details = append(details, fmt.Sprintf("primary: %s", s.PrimaryDirectorate))
				}
				if len(s.PrimaryWards) > 0 {
					details = append(details, fmt.Sprintf("wards: %s", strings.Join(s.PrimaryWards, ", ")))
				}
				fmt.Printf("- %s (%s) - %s\n", s.FullName(), s.ID, strings.Join(details, " - "))
			}

			return nil
		},
	}
}
