// Package engine implements the daily allocation engine: the layered
// greedy heuristic that turns a roster of available staff plus ward,
// clinic and dispensary requirements into a conflict-annotated
// assignment set for one calendar day.
package engine

import (
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/pharmacy-rota/pkg/core/model"
)

// Config carries everything the engine needs to allocate one day.
// The duty and clinic count maps are the weekly fairness counters; nil
// maps are treated as empty.
type Config struct {
	// Date is the calendar date being generated
	Date time.Time

	// Staff is the candidate roster. The engine filters it to staff
	// whose working pattern includes Date's weekday.
	Staff []model.Staff

	// Directorates is the full ward structure; only active wards are
	// considered
	Directorates []model.Directorate

	// Clinics is the set of clinics to schedule; the engine filters to
	// those falling on Date's weekday
	Clinics []model.Clinic

	// DispensaryDutyCounts maps staff ID to dispensary/lunch duties
	// accumulated earlier in the week
	DispensaryDutyCounts map[string]int

	// WeeklyClinicCounts maps staff ID to clinics accumulated earlier
	// in the week
	WeeklyClinicCounts map[string]int

	// SinglePharmacistDispensary marks a day where one junior covers
	// the dispensary all day instead of the usual rotation
	SinglePharmacistDispensary bool

	// EffectiveUnavailability, when non-nil, replaces every staff
	// member's permanent unavailability rules for this day. There is
	// no merging with the permanent rules.
	EffectiveUnavailability map[string][]model.UnavailableRule

	// Rand is the source for all randomized tie-breaking. A fixed seed
	// reproduces the assignment set exactly.
	Rand *rand.Rand
}

// Result is the outcome of one day's allocation. The returned counter
// maps are the input counters advanced by this day's assignments, ready
// to carry into the next day of a weekly run.
type Result struct {
	Assignments          []model.Assignment
	Conflicts            []model.Conflict
	DispensaryDutyCounts map[string]int
	WeeklyClinicCounts   map[string]int
}

// Generate allocates one day. Clinics are filled first (they are the
// least substitutable resource), then dispensary shifts, then wards.
// Unfillable slots become conflicts, never errors: the caller always
// gets a complete, reviewable rota.
func Generate(cfg Config, logger *zap.Logger) (*Result, error) {
	if cfg.Date.IsZero() {
		return nil, fmt.Errorf("generation date is required")
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	a := newAllocator(cfg, logger)

	logger.Debug("Starting allocation",
		zap.String("date", cfg.Date.Format("2006-01-02")),
		zap.String("weekday", a.weekday.String()),
		zap.Int("staff_on_duty", len(a.working)),
		zap.Int("active_wards", len(a.wards)),
		zap.Bool("single_pharmacist_dispensary", cfg.SinglePharmacistDispensary))

	a.allocateClinics()
	a.allocateDispensary()
	a.allocateWards()

	logger.Debug("Allocation complete",
		zap.Int("assignments", len(a.assignments)),
		zap.Int("conflicts", len(a.conflicts)))

	return &Result{
		Assignments:          a.assignments,
		Conflicts:            a.conflicts,
		DispensaryDutyCounts: a.dutyCounts,
		WeeklyClinicCounts:   a.clinicCounts,
	}, nil
}
