package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/pharmacy-rota/pkg/core/model"
)

// GenerateWeeklyRotaInput carries the caller's parameters for a weekly
// run. StartDate must be a Monday.
type GenerateWeeklyRotaInput struct {
	// StartDate is the Monday the week begins on, "2006-01-02"
	StartDate string

	// StaffIDs selects the roster for the whole week
	StaffIDs []string

	// ClinicIDs optionally restricts the clinics to schedule
	ClinicIDs []string

	// WorkingStaffOverride optionally narrows the roster for specific
	// weekdays instead of each staff member's working-day pattern
	WorkingStaffOverride map[time.Weekday][]string

	// SinglePharmacistDays flags dates ("2006-01-02") run in
	// single-pharmacist dispensary mode
	SinglePharmacistDays map[string]bool

	// SelectedWeekdays optionally restricts generation to a subset of
	// Monday-Friday; nil means all five days
	SelectedWeekdays []time.Weekday

	// Seed, when non-zero, fixes the random source for the whole week
	Seed int64

	// DryRun generates the week without saving any rota
	DryRun bool
}

// GenerateWeeklyRotaResult reports the generated rotas in day order and
// the final fairness counters
type GenerateWeeklyRotaResult struct {
	RotaIDs              []string
	Rotas                []*model.Rota
	DispensaryDutyCounts map[string]int
	WeeklyClinicCounts   map[string]int
}

// GenerateWeeklyRota iterates the daily generator over the working week,
// carrying the dispensary-duty and clinic fairness counters forward so
// workload evens out across the days. Each day's rota is fully generated
// and persisted before the next day starts: the counters depend on the
// previous day's committed assignments, so the run is inherently
// sequential.
func GenerateWeeklyRota(
	ctx context.Context,
	database GenerateDailyRotaStore,
	logger *zap.Logger,
	input GenerateWeeklyRotaInput,
) (*GenerateWeeklyRotaResult, error) {
	start, err := time.Parse(dateLayout, input.StartDate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse start date %q: %w", input.StartDate, err)
	}
	if start.Weekday() != time.Monday {
		return nil, fmt.Errorf("weekly generation must start on a Monday, got %s", start.Weekday())
	}

	selected := make(map[time.Weekday]bool)
	for _, d := range input.SelectedWeekdays {
		selected[d] = true
	}

	logger.Info("Starting weekly rota generation",
		zap.String("week_start", input.StartDate),
		zap.Int("staff_count", len(input.StaffIDs)),
		zap.Int("selected_weekdays", len(input.SelectedWeekdays)))

	dutyCounts := make(map[string]int)
	clinicCounts := make(map[string]int)
	result := &GenerateWeeklyRotaResult{}

	for offset := 0; offset < 5; offset++ {
		day := start.AddDate(0, 0, offset)
		weekday := day.Weekday()
		if len(selected) > 0 && !selected[weekday] {
			logger.Debug("Skipping weekday not selected", zap.String("weekday", weekday.String()))
			continue
		}

		staffIDs := input.StaffIDs
		if override, ok := input.WorkingStaffOverride[weekday]; ok {
			staffIDs = override
			logger.Debug("Applying working staff override",
				zap.String("weekday", weekday.String()),
				zap.Int("staff_count", len(staffIDs)))
		}

		dateStr := day.Format(dateLayout)
		dayResult, err := GenerateDailyRota(ctx, database, logger, GenerateDailyRotaInput{
			Date:                       dateStr,
			StaffIDs:                   staffIDs,
			ClinicIDs:                  input.ClinicIDs,
			DispensaryDutyCounts:       dutyCounts,
			WeeklyClinicCounts:         clinicCounts,
			SinglePharmacistDispensary: input.SinglePharmacistDays[dateStr],
			Seed:                       daySeed(input.Seed, offset),
			DryRun:                     input.DryRun,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to generate rota for %s: %w", dateStr, err)
		}

		// Fold this day's committed duties into the running counters
		dutyCounts = dayResult.DispensaryDutyCounts
		clinicCounts = dayResult.WeeklyClinicCounts

		result.RotaIDs = append(result.RotaIDs, dayResult.RotaID)
		result.Rotas = append(result.Rotas, dayResult.Rota)
	}

	result.DispensaryDutyCounts = dutyCounts
	result.WeeklyClinicCounts = clinicCounts

	logger.Info("Weekly rota generation complete",
		zap.Int("days_generated", len(result.RotaIDs)))

	return result, nil
}

// daySeed derives a per-day seed from the weekly seed so a fixed seed
// reproduces the whole week while the days stay independent. A zero
// weekly seed keeps every day unseeded.
func daySeed(weekSeed int64, offset int) int64 {
	if weekSeed == 0 {
		return 0
	}
	return weekSeed + int64(offset)
}
