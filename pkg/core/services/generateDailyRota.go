package services

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jakechorley/pharmacy-rota/pkg/core/engine"
	"github.com/jakechorley/pharmacy-rota/pkg/core/model"
)

const dateLayout = "2006-01-02"

// GenerateDailyRotaInput carries the caller's parameters for one day's
// generation. The optional counter maps seed the weekly fairness state;
// nil maps start the week fresh.
type GenerateDailyRotaInput struct {
	// Date is the target calendar date, "2006-01-02"
	Date string

	// StaffIDs selects the roster to allocate from
	StaffIDs []string

	// ClinicIDs optionally restricts the clinics to schedule; nil means
	// the clinics flagged for inclusion by default
	ClinicIDs []string

	// DispensaryDutyCounts and WeeklyClinicCounts are the fairness
	// counters carried across a weekly run
	DispensaryDutyCounts map[string]int
	WeeklyClinicCounts   map[string]int

	// SinglePharmacistDispensary marks a single-pharmacist dispensary day
	SinglePharmacistDispensary bool

	// EffectiveUnavailability optionally replaces every staff member's
	// permanent unavailability rules for this day
	EffectiveUnavailability map[string][]model.UnavailableRule

	// Seed, when non-zero, fixes the random source so a run is
	// reproducible
	Seed int64

	// DryRun generates the rota without saving it
	DryRun bool
}

// GenerateDailyRotaResult is the outcome of one day's generation
type GenerateDailyRotaResult struct {
	RotaID               string
	Rota                 *model.Rota
	DispensaryDutyCounts map[string]int
	WeeklyClinicCounts   map[string]int
}

// GenerateDailyRotaStore defines the database operations needed to
// generate and persist one day's rota
type GenerateDailyRotaStore interface {
	GetStaffByIDs(ctx context.Context, ids []string) ([]model.Staff, error)
	ListDirectorates(ctx context.Context) ([]model.Directorate, error)
	ListClinics(ctx context.Context, ids []string) ([]model.Clinic, error)
	ReplaceRota(ctx context.Context, rota *model.Rota) error
}

// GenerateDailyRota runs the allocation engine for one date and persists
// the result, replacing any prior rota for that date. A malformed date
// is a hard failure; unfillable slots are recorded as conflicts on the
// returned rota, never as errors.
func GenerateDailyRota(
	ctx context.Context,
	database GenerateDailyRotaStore,
	logger *zap.Logger,
	input GenerateDailyRotaInput,
) (*GenerateDailyRotaResult, error) {
	date, err := time.Parse(dateLayout, input.Date)
	if err != nil {
		return nil, fmt.Errorf("failed to parse date %q: %w", input.Date, err)
	}

	logger.Debug("Starting generateDailyRota",
		zap.String("date", input.Date),
		zap.Int("staff_count", len(input.StaffIDs)))

	// Step 1: resolve reference data
	staff, err := database.GetStaffByIDs(ctx, input.StaffIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch staff: %w", err)
	}
	logger.Debug("Fetched staff", zap.Int("count", len(staff)))

	directorates, err := database.ListDirectorates(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch directorates: %w", err)
	}
	logger.Debug("Fetched directorates", zap.Int("count", len(directorates)))

	clinics, err := database.ListClinics(ctx, input.ClinicIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch clinics: %w", err)
	}
	logger.Debug("Fetched clinics", zap.Int("count", len(clinics)))

	// Step 2: run the allocation engine
	rng := newRand(input.Seed)
	result, err := engine.Generate(engine.Config{
		Date:                       date,
		Staff:                      staff,
		Directorates:               directorates,
		Clinics:                    clinics,
		DispensaryDutyCounts:       input.DispensaryDutyCounts,
		WeeklyClinicCounts:         input.WeeklyClinicCounts,
		SinglePharmacistDispensary: input.SinglePharmacistDispensary,
		EffectiveUnavailability:    input.EffectiveUnavailability,
		Rand:                       rng,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("allocation failed: %w", err)
	}

	// Step 3: persist, superseding any existing rota for the date
	rota := &model.Rota{
		ID:          uuid.New().String(),
		Date:        input.Date,
		Assignments: result.Assignments,
		Conflicts:   result.Conflicts,
		Status:      model.StatusDraft,
		GeneratedAt: time.Now().UTC(),
	}
	if input.DryRun {
		logger.Info("Dry run, rota not saved", zap.String("date", rota.Date))
	} else if err := database.ReplaceRota(ctx, rota); err != nil {
		return nil, fmt.Errorf("failed to save rota: %w", err)
	}

	logger.Info("Rota generated",
		zap.String("rota_id", rota.ID),
		zap.String("date", rota.Date),
		zap.Int("assignments", len(rota.Assignments)),
		zap.Int("conflicts", len(rota.Conflicts)))

	return &GenerateDailyRotaResult{
		RotaID:               rota.ID,
		Rota:                 rota,
		DispensaryDutyCounts: result.DispensaryDutyCounts,
		WeeklyClinicCounts:   result.WeeklyClinicCounts,
	}, nil
}

// newRand builds the engine's random source. A zero seed falls back to
// the wall clock.
func newRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}
