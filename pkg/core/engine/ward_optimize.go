package engine

import (
	"math"

	"go.uber.org/zap"

	"github.com/jakechorley/pharmacy-rota/pkg/core/model"
)

// maxBalanceMoves bounds the pass 10 reshuffle so it always terminates
const maxBalanceMoves = 6

// Pass 8: once a directorate's junior coverage is judged sufficient -
// non-8a headcount at or above its ideal, or at its minimum with at
// least one band 7 present - its band 8a occupants are released to
// management time.
func (a *Allocator) releaseSeniorsToManagement() {
	for _, dir := range a.directorateNames() {
		var non8aHeadcount float64
		var band7Present bool
		var seniors []model.Staff

		for _, w := range a.wardsOf(dir) {
			for _, occ := range a.staffOnWard(w.Name) {
				if occ.Band == model.Band8a {
					seniors = append(seniors, occ)
					continue
				}
				non8aHeadcount += occ.Band.HeadcountWeight()
				if occ.Band == model.Band7 {
					band7Present = true
				}
			}
		}
		if len(seniors) == 0 {
			continue
		}

		idealTotal, minTotal := a.directorateTargets(dir)
		sufficient := non8aHeadcount >= idealTotal ||
			(non8aHeadcount >= minTotal && band7Present)
		if !sufficient {
			continue
		}

		for _, senior := range seniors {
			for _, w := range a.wardsCoveredBy(senior.ID) {
				a.unassign(senior.ID, model.AssignmentWard, w)
			}
			if !a.inManagement(senior.ID) {
				a.assignManagement(senior.ID)
			}
			a.logger.Debug("Released band 8a to management time",
				zap.String("staff", senior.FullName()),
				zap.String("directorate", dir))
		}
	}
}

// directorateTargets sums the ideal and rounded-up minimum thresholds of
// a directorate's active wards
func (a *Allocator) directorateTargets(dir string) (ideal, minimum float64) {
	for _, w := range a.wardsOf(dir) {
		ideal += w.IdealPharmacists
		minimum += math.Ceil(w.MinPharmacists)
	}
	return ideal, minimum
}

// Pass 9: staff sitting in management are matched back onto wards still
// uncovered - direct primary-ward match first, then primary-directorate
// match. Only default staff may displace an occupant to reclaim their
// primary ward, and a default occupant is never displaced from their own
// primary ward. Displaced staff are re-homed down a fallback chain.
func (a *Allocator) rescueUncoveredFromManagement() {
	for _, m := range a.working {
		if !a.inManagement(m.ID) {
			continue
		}

		if w := a.firstUncovered(m.PrimaryWards, m); w != "" {
			a.moveManagementToWard(m, w)
			continue
		}
		if m.PrimaryDirectorate != "" {
			if w := a.firstUncoveredInDirectorate(m.PrimaryDirectorate, m); w != "" {
				a.moveManagementToWard(m, w)
				continue
			}
		}
		if m.IsDefaultStaff && a.anyUncoveredWard() {
			a.reclaimPrimaryWard(m)
		}
	}
}

// firstUncovered returns the first named ward that is active, uncovered
// and eligible for the staff member
func (a *Allocator) firstUncovered(names []string, s model.Staff) string {
	for _, name := range names {
		w, ok := a.wardByName[name]
		if !ok {
			continue
		}
		if a.uncovered(w) && a.candidateEligible(s, w) {
			return w.Name
		}
	}
	return ""
}

func (a *Allocator) firstUncoveredInDirectorate(dir string, s model.Staff) string {
	for _, w := range a.wardsOf(dir) {
		if a.uncovered(w) && a.candidateEligible(s, w) {
			return w.Name
		}
	}
	return ""
}

func (a *Allocator) anyUncoveredWard() bool {
	for _, w := range a.wards {
		if a.uncovered(w) {
			return true
		}
	}
	return false
}

func (a *Allocator) moveManagementToWard(s model.Staff, ward string) {
	a.unassign(s.ID, model.AssignmentManagement, "Management")
	a.assignWard(s.ID, ward)
	a.logger.Debug("Rescued uncovered ward from management time",
		zap.String("staff", s.FullName()),
		zap.String("ward", ward))
}

// reclaimPrimaryWard lets a default staff member in management displace a
// non-protected occupant from the staff member's own primary ward. The
// displaced occupant is then re-homed, ideally onto an uncovered ward.
func (a *Allocator) reclaimPrimaryWard(m model.Staff) bool {
	for _, name := range m.PrimaryWards {
		w, ok := a.wardByName[name]
		if !ok || !a.candidateEligible(m, w) {
			continue
		}
		for _, occ := range a.staffOnWard(name) {
			// Never displace a default staff member from their own
			// primary ward
			if occ.IsDefaultStaff && occ.IsPrimaryWard(name) {
				continue
			}
			a.unassign(occ.ID, model.AssignmentWard, name)
			a.moveManagementToWard(m, name)
			a.rehomeDisplaced(occ)
			return true
		}
	}
	return false
}

// rehomeDisplaced finds a new home for a displaced occupant: primary
// ward, primary directorate, trained directorate, any uncovered ward,
// falling back to management time when nothing fits
func (a *Allocator) rehomeDisplaced(s model.Staff) {
	for _, name := range s.PrimaryWards {
		w, ok := a.wardByName[name]
		if ok && a.belowIdeal(w) && a.candidateEligible(s, w) {
			a.assignWard(s.ID, name)
			return
		}
	}
	if s.PrimaryDirectorate != "" {
		for _, w := range a.wardsOf(s.PrimaryDirectorate) {
			if a.belowIdeal(w) && a.candidateEligible(s, w) {
				a.assignWard(s.ID, w.Name)
				return
			}
		}
	}
	for _, dir := range s.TrainedDirectorates {
		for _, w := range a.wardsOf(dir) {
			if a.belowIdeal(w) && a.candidateEligible(s, w) {
				a.assignWard(s.ID, w.Name)
				return
			}
		}
	}
	for _, w := range a.wards {
		if a.uncovered(w) && a.candidateEligible(s, w) {
			a.assignWard(s.ID, w.Name)
			return
		}
	}
	a.assignManagement(s.ID)
	a.logger.Debug("Displaced staff routed to management time", zap.String("staff", s.FullName()))
}

// Pass 10: bounded staffing-balance moves. Staff are pulled out of
// over-ideal wards into directorates with two or more uncovered wards,
// remaining uncovered wards are paired onto staff already covering the
// same directorate, and a final swap frees default band 8a staff whose
// ward can be backfilled from an overstaffed neighbour.
func (a *Allocator) rebalanceStaffing() {
	moves := 0
	a.pullFromOverstaffed(&moves)
	a.pairUncoveredWards(&moves)
	a.swapOutDefaultSeniors(&moves)
}

// pullFromOverstaffed moves staff from over-ideal wards into directorates
// with two or more simultaneously uncovered wards
func (a *Allocator) pullFromOverstaffed(moves *int) {
	for _, dir := range a.directorateNames() {
		uncoveredWards := a.uncoveredWardsIn(dir)
		if len(uncoveredWards) < 2 {
			continue
		}
		for _, target := range uncoveredWards {
			if *moves >= maxBalanceMoves {
				return
			}
			donor, fromWard := a.pickOverstaffedDonor(target)
			if donor == nil {
				continue
			}
			a.unassign(donor.ID, model.AssignmentWard, fromWard)
			a.assignWard(donor.ID, target.Name)
			*moves++
			a.logger.Debug("Balanced staffing",
				zap.String("staff", donor.FullName()),
				zap.String("from", fromWard),
				zap.String("to", target.Name))
		}
	}
}

func (a *Allocator) uncoveredWardsIn(dir string) []model.Ward {
	var out []model.Ward
	for _, w := range a.wardsOf(dir) {
		if a.uncovered(w) {
			out = append(out, w)
		}
	}
	return out
}

// pickOverstaffedDonor finds a movable occupant of an over-ideal ward for
// the target ward, preferring non-default staff of lower band
func (a *Allocator) pickOverstaffedDonor(target model.Ward) (*model.Staff, string) {
	type option struct {
		staff model.Staff
		ward  string
		cost  int
	}
	var best *option

	for _, w := range a.wards {
		if w.Name == target.Name || !a.overIdeal(w) {
			continue
		}
		for _, occ := range a.staffOnWard(w.Name) {
			if !a.candidateEligible(occ, target) {
				continue
			}
			cost := occ.Band.Seniority()
			if occ.IsDefaultStaff {
				cost += 10
			}
			if best == nil || cost < best.cost {
				best = &option{staff: occ, ward: w.Name, cost: cost}
			}
		}
	}
	if best == nil {
		return nil, ""
	}
	return &best.staff, best.ward
}

// pairUncoveredWards lets one staff member legitimately cover multiple
// wards in their directorate when nobody else is available
func (a *Allocator) pairUncoveredWards(moves *int) {
	for _, dir := range a.directorateNames() {
		for _, target := range a.uncoveredWardsIn(dir) {
			if *moves >= maxBalanceMoves {
				return
			}

			var best *model.Staff
			bestCount := 0
			for _, w := range a.wardsOf(dir) {
				for _, occ := range a.staffOnWard(w.Name) {
					if !a.candidateEligible(occ, target) {
						continue
					}
					count := a.wardCount(occ.ID)
					if best == nil || count < bestCount {
						s := occ
						best = &s
						bestCount = count
					}
				}
			}
			if best == nil {
				continue
			}
			a.assignWard(best.ID, target.Name)
			*moves++
			a.logger.Debug("Paired uncovered ward onto directorate coverer",
				zap.String("staff", best.FullName()),
				zap.String("ward", target.Name))
		}
	}
}

// swapOutDefaultSeniors backfills a default band 8a's ward from an
// overstaffed ward in the same directorate and frees the senior for
// management time
func (a *Allocator) swapOutDefaultSeniors(moves *int) {
	for _, s := range a.working {
		if *moves >= maxBalanceMoves {
			return
		}
		if s.Band != model.Band8a || !s.IsDefaultStaff {
			continue
		}
		covered := a.wardsCoveredBy(s.ID)
		if len(covered) == 0 {
			continue
		}
		home, ok := a.wardByName[covered[0]]
		if !ok {
			continue
		}

		donor, fromWard := a.pickOverstaffedDonor(home)
		if donor == nil || donor.ID == s.ID {
			continue
		}

		a.unassign(donor.ID, model.AssignmentWard, fromWard)
		a.assignWard(donor.ID, home.Name)
		a.unassign(s.ID, model.AssignmentWard, home.Name)
		a.assignManagement(s.ID)
		*moves++
		a.logger.Debug("Swapped default band 8a out for management time",
			zap.String("senior", s.FullName()),
			zap.String("backfill", donor.FullName()),
			zap.String("ward", home.Name))
	}
}

// recordCoverageConflicts writes the unmet-coverage report: any ward
// still under its minimum and any non-ITU directorate left completely
// unstaffed
func (a *Allocator) recordCoverageConflicts() {
	for _, w := range a.wards {
		if w.Directorate == model.ITUDirectorate {
			continue
		}
		if a.belowMinimum(w) {
			a.addConflict("ward_understaffed", model.SeverityWarning,
				"ward %s has %.1f pharmacists, minimum is %.0f",
				w.Name, a.wardHeadcount(w.Name), math.Ceil(w.MinPharmacists))
		}
	}
	for _, dir := range a.directorateNames() {
		if dir == model.ITUDirectorate {
			continue
		}
		if a.directorateHeadcount(dir) == 0 {
			a.addConflict("directorate_uncovered", model.SeverityError,
				"directorate %s has no pharmacist cover", dir)
		}
	}
}
