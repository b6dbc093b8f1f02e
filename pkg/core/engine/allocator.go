package engine

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jakechorley/pharmacy-rota/pkg/core/model"
)

// Working-day span used for ward and management assignments
const (
	allDayStart = "00:00"
	allDayEnd   = "23:59"
)

// Allocator holds the mutable state of one day's allocation: the staff
// pool, the assignment list and the conflict list. Each allocation pass
// is a method that drains from the shared pool and appends or removes
// assignments.
type Allocator struct {
	cfg     Config
	logger  *zap.Logger
	rng     *rand.Rand
	weekday time.Weekday

	// working is the subset of cfg.Staff on duty today, in input order
	working   []model.Staff
	staffByID map[string]model.Staff

	// wards is the active ward list in processing priority order
	wards      []model.Ward
	wardByName map[string]model.Ward

	assignments []model.Assignment
	conflicts   []model.Conflict

	// weekly fairness counters, advanced in place as duties are assigned
	clinicCounts map[string]int
	dutyCounts   map[string]int

	// fullDayDispensary marks staff committed to the dispensary for the
	// whole day; they never enter the ward pool
	fullDayDispensary map[string]bool

	// onWarfarinClinic marks staff assigned to a warfarin clinic today
	onWarfarinClinic map[string]bool

	// pool is the ward-eligible staff not yet placed by a ward pass
	pool []model.Staff
}

func newAllocator(cfg Config, logger *zap.Logger) *Allocator {
	a := &Allocator{
		cfg:               cfg,
		logger:            logger,
		rng:               cfg.Rand,
		weekday:           cfg.Date.Weekday(),
		staffByID:         make(map[string]model.Staff),
		wardByName:        make(map[string]model.Ward),
		assignments:       []model.Assignment{},
		conflicts:         []model.Conflict{},
		clinicCounts:      make(map[string]int),
		dutyCounts:        make(map[string]int),
		fullDayDispensary: make(map[string]bool),
		onWarfarinClinic:  make(map[string]bool),
	}

	for id, n := range cfg.WeeklyClinicCounts {
		a.clinicCounts[id] = n
	}
	for id, n := range cfg.DispensaryDutyCounts {
		a.dutyCounts[id] = n
	}

	for _, s := range cfg.Staff {
		if !s.WorksOn(a.weekday) {
			continue
		}
		a.working = append(a.working, s)
		a.staffByID[s.ID] = s
	}

	a.wards = prioritizedWards(cfg.Directorates)
	for _, w := range a.wards {
		a.wardByName[w.Name] = w
	}

	return a
}

// prioritizedWards flattens the directorate structure to the active
// wards, ordered so the EAU ward and ITU wards are processed first
func prioritizedWards(directorates []model.Directorate) []model.Ward {
	var priority, rest []model.Ward
	for _, d := range directorates {
		for _, w := range d.Wards {
			if !w.IsActive {
				continue
			}
			if w.Name == eauWardName || w.Directorate == model.ITUDirectorate {
				priority = append(priority, w)
			} else {
				rest = append(rest, w)
			}
		}
	}
	return append(priority, rest...)
}

// addConflict records an unmet requirement without aborting generation
func (a *Allocator) addConflict(kind string, severity model.ConflictSeverity, format string, args ...interface{}) {
	desc := fmt.Sprintf(format, args...)
	a.conflicts = append(a.conflicts, model.Conflict{
		Type:        kind,
		Description: desc,
		Severity:    severity,
	})
	a.logger.Warn("Allocation conflict",
		zap.String("type", kind),
		zap.String("severity", string(severity)),
		zap.String("description", desc))
}

func (a *Allocator) addAssignment(staffID string, kind model.AssignmentType, location, start, end string, lunchCover bool) {
	a.assignments = append(a.assignments, model.Assignment{
		ID:           uuid.New().String(),
		StaffID:      staffID,
		Type:         kind,
		Location:     location,
		StartTime:    start,
		EndTime:      end,
		IsLunchCover: lunchCover,
	})
}

// assignWard places a staff member on a ward for the whole working day
func (a *Allocator) assignWard(staffID, ward string) {
	a.addAssignment(staffID, model.AssignmentWard, ward, allDayStart, allDayEnd, false)
}

// assignManagement routes a staff member to non-clinical management time
func (a *Allocator) assignManagement(staffID string) {
	a.addAssignment(staffID, model.AssignmentManagement, "Management", allDayStart, allDayEnd, false)
}

// unassign removes the first assignment matching staff, type and
// location. Returns true if one was removed.
func (a *Allocator) unassign(staffID string, kind model.AssignmentType, location string) bool {
	for i, asn := range a.assignments {
		if asn.StaffID == staffID && asn.Type == kind && asn.Location == location {
			a.assignments = append(a.assignments[:i], a.assignments[i+1:]...)
			return true
		}
	}
	return false
}

// assignmentsFor returns all of a staff member's assignments so far today
func (a *Allocator) assignmentsFor(staffID string) []model.Assignment {
	var out []model.Assignment
	for _, asn := range a.assignments {
		if asn.StaffID == staffID {
			out = append(out, asn)
		}
	}
	return out
}

// clinicConflict reports whether the staff member already has a clinic
// assignment overlapping the half-open window [start, end)
func (a *Allocator) clinicConflict(staffID, start, end string) bool {
	for _, asn := range a.assignmentsFor(staffID) {
		if asn.Type == model.AssignmentClinic && timesOverlap(start, end, asn.StartTime, asn.EndTime) {
			return true
		}
	}
	return false
}

// wardCount returns how many wards the staff member is currently covering
func (a *Allocator) wardCount(staffID string) int {
	count := 0
	for _, asn := range a.assignmentsFor(staffID) {
		if asn.Type == model.AssignmentWard {
			count++
		}
	}
	return count
}

// wardsCoveredBy lists the ward names the staff member currently covers
func (a *Allocator) wardsCoveredBy(staffID string) []string {
	var out []string
	for _, asn := range a.assignmentsFor(staffID) {
		if asn.Type == model.AssignmentWard {
			out = append(out, asn.Location)
		}
	}
	return out
}

// staffOnWard lists the staff currently assigned to the named ward
func (a *Allocator) staffOnWard(ward string) []model.Staff {
	var out []model.Staff
	for _, asn := range a.assignments {
		if asn.Type == model.AssignmentWard && asn.Location == ward {
			if s, ok := a.staffByID[asn.StaffID]; ok {
				out = append(out, s)
			}
		}
	}
	return out
}

// inManagement reports whether the staff member currently sits in
// management time
func (a *Allocator) inManagement(staffID string) bool {
	for _, asn := range a.assignmentsFor(staffID) {
		if asn.Type == model.AssignmentManagement {
			return true
		}
	}
	return false
}

// wardHeadcount sums the headcount weight of the staff on a ward.
// EAU Practitioners count 0.5, everyone else 1.
func (a *Allocator) wardHeadcount(ward string) float64 {
	total := 0.0
	for _, s := range a.staffOnWard(ward) {
		total += s.Band.HeadcountWeight()
	}
	return total
}

// directorateHeadcount sums headcount across a directorate's active wards
func (a *Allocator) directorateHeadcount(directorate string) float64 {
	total := 0.0
	for _, w := range a.wards {
		if w.Directorate == directorate {
			total += a.wardHeadcount(w.Name)
		}
	}
	return total
}

// wardsOf returns the active wards of the named directorate in priority
// order
func (a *Allocator) wardsOf(directorate string) []model.Ward {
	var out []model.Ward
	for _, w := range a.wards {
		if w.Directorate == directorate {
			out = append(out, w)
		}
	}
	return out
}

// directorateNames returns the distinct directorate names of the active
// wards, preserving ward priority order
func (a *Allocator) directorateNames() []string {
	seen := make(map[string]bool)
	var out []string
	for _, w := range a.wards {
		if !seen[w.Directorate] {
			seen[w.Directorate] = true
			out = append(out, w.Directorate)
		}
	}
	return out
}

// belowMinimum reports whether a ward's headcount is under the rounded-up
// minimum threshold
func (a *Allocator) belowMinimum(w model.Ward) bool {
	return a.wardHeadcount(w.Name) < math.Ceil(w.MinPharmacists)
}

// belowIdeal reports whether a ward's headcount is under its ideal
func (a *Allocator) belowIdeal(w model.Ward) bool {
	return a.wardHeadcount(w.Name) < w.IdealPharmacists
}

// overIdeal reports whether a ward is staffed above its ideal
func (a *Allocator) overIdeal(w model.Ward) bool {
	return a.wardHeadcount(w.Name) > w.IdealPharmacists
}

// uncovered reports whether a ward has nobody at all
func (a *Allocator) uncovered(w model.Ward) bool {
	return len(a.staffOnWard(w.Name)) == 0
}

// poolRemove drops a staff member from the unassigned pool
func (a *Allocator) poolRemove(staffID string) {
	for i, s := range a.pool {
		if s.ID == staffID {
			a.pool = append(a.pool[:i], a.pool[i+1:]...)
			return
		}
	}
}

// poolContains reports whether the staff member is still unassigned
func (a *Allocator) poolContains(staffID string) bool {
	for _, s := range a.pool {
		if s.ID == staffID {
			return true
		}
	}
	return false
}
