package engine

import (
	"sort"

	"go.uber.org/zap"

	"github.com/jakechorley/pharmacy-rota/pkg/core/model"
)

// allocateClinics fills each clinic scheduled on the target weekday using
// a six-strategy cascade, stopping at the first strategy that produces an
// assignee. A clinic no strategy can fill becomes a warning conflict.
func (a *Allocator) allocateClinics() {
	for _, clinic := range a.cfg.Clinics {
		if clinic.DayOfWeek != a.weekday {
			continue
		}

		assigned := a.tryPreferredPharmacists(clinic) ||
			a.tryIdleJuniors(clinic) ||
			a.trySeniorVersusLoadedJunior(clinic) ||
			a.tryLoadedJuniors(clinic) ||
			a.tryAnyJunior(clinic) ||
			a.tryWardDisplacement(clinic)

		if !assigned {
			a.addConflict("clinic_unfilled", model.SeverityWarning,
				"no staff available to cover clinic %s (%s-%s)", clinic.Name, clinic.StartTime, clinic.EndTime)
		}
	}
}

// assignClinic books the staff member onto the clinic and advances their
// weekly clinic count
func (a *Allocator) assignClinic(s model.Staff, clinic model.Clinic) {
	a.addAssignment(s.ID, model.AssignmentClinic, clinic.Name, clinic.StartTime, clinic.EndTime, false)
	a.clinicCounts[s.ID]++
	if clinic.RequiresWarfarinTraining {
		a.onWarfarinClinic[s.ID] = true
	}
	a.logger.Debug("Clinic assigned",
		zap.String("clinic", clinic.Name),
		zap.String("staff", s.FullName()),
		zap.Int("weekly_clinic_count", a.clinicCounts[s.ID]))
}

// eligibleForClinic applies the checks common to every strategy: warfarin
// certification when the clinic demands it, personal unavailability, and
// overlap with a clinic already assigned today.
func (a *Allocator) eligibleForClinic(s model.Staff, clinic model.Clinic) bool {
	if clinic.RequiresWarfarinTraining && !s.WarfarinTrained {
		return false
	}
	if a.isUnavailable(s, clinic.StartTime, clinic.EndTime) {
		return false
	}
	if a.clinicConflict(s.ID, clinic.StartTime, clinic.EndTime) {
		return false
	}
	return true
}

// overextended reports whether the staff member already covers two or
// more wards. Strategies 2-5 skip such staff so clinic load is not
// stacked on top of multi-ward cover.
func (a *Allocator) overextended(staffID string) bool {
	return a.wardCount(staffID) >= 2
}

// sortByClinicCount orders candidates ascending by weekly clinic count,
// keeping input order for ties
func (a *Allocator) sortByClinicCount(candidates []model.Staff) {
	sort.SliceStable(candidates, func(i, j int) bool {
		return a.clinicCounts[candidates[i].ID] < a.clinicCounts[candidates[j].ID]
	})
}

// Strategy 1: the clinic's preferred staff, least loaded first
func (a *Allocator) tryPreferredPharmacists(clinic model.Clinic) bool {
	var candidates []model.Staff
	for _, id := range clinic.PreferredPharmacists {
		s, ok := a.staffByID[id] // absent means not working today
		if !ok {
			continue
		}
		if !a.eligibleForClinic(s, clinic) {
			continue
		}
		candidates = append(candidates, s)
	}
	a.sortByClinicCount(candidates)

	if len(candidates) == 0 {
		return false
	}
	a.assignClinic(candidates[0], clinic)
	return true
}

// juniorCandidates collects eligible band 6/7 staff for the clinic,
// filtered by a predicate on their weekly clinic count
func (a *Allocator) juniorCandidates(clinic model.Clinic, countOK func(int) bool) []model.Staff {
	var out []model.Staff
	for _, s := range a.working {
		if s.Band != model.Band6 && s.Band != model.Band7 {
			continue
		}
		if !countOK(a.clinicCounts[s.ID]) {
			continue
		}
		if a.overextended(s.ID) {
			continue
		}
		if !a.eligibleForClinic(s, clinic) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// Strategy 2: band 6/7 staff with no clinics yet this week
func (a *Allocator) tryIdleJuniors(clinic model.Clinic) bool {
	candidates := a.juniorCandidates(clinic, func(n int) bool { return n == 0 })
	a.sortByClinicCount(candidates)
	if len(candidates) == 0 {
		return false
	}
	a.assignClinic(candidates[0], clinic)
	return true
}

// Strategy 3: alternate load between band 8a and already-loaded band 6/7.
// Whichever pool's least-loaded member carries the lower weekly count
// takes the clinic; band 8a wins when no loaded junior exists.
func (a *Allocator) trySeniorVersusLoadedJunior(clinic model.Clinic) bool {
	var seniors []model.Staff
	for _, s := range a.working {
		if s.Band != model.Band8a {
			continue
		}
		if a.overextended(s.ID) {
			continue
		}
		if !a.eligibleForClinic(s, clinic) {
			continue
		}
		seniors = append(seniors, s)
	}
	a.sortByClinicCount(seniors)

	loadedJuniors := a.juniorCandidates(clinic, func(n int) bool { return n >= 1 })
	a.sortByClinicCount(loadedJuniors)

	if len(seniors) == 0 {
		return false
	}
	if len(loadedJuniors) == 0 {
		a.assignClinic(seniors[0], clinic)
		return true
	}

	if a.clinicCounts[loadedJuniors[0].ID] < a.clinicCounts[seniors[0].ID] {
		a.assignClinic(loadedJuniors[0], clinic)
	} else {
		a.assignClinic(seniors[0], clinic)
	}
	return true
}

// Strategy 4: any loaded band 6/7, least loaded first
func (a *Allocator) tryLoadedJuniors(clinic model.Clinic) bool {
	candidates := a.juniorCandidates(clinic, func(n int) bool { return n >= 1 })
	a.sortByClinicCount(candidates)
	if len(candidates) == 0 {
		return false
	}
	a.assignClinic(candidates[0], clinic)
	return true
}

// Strategy 5: any band 6/7 regardless of load
func (a *Allocator) tryAnyJunior(clinic model.Clinic) bool {
	candidates := a.juniorCandidates(clinic, func(int) bool { return true })
	if len(candidates) == 0 {
		return false
	}
	a.assignClinic(candidates[0], clinic)
	return true
}

// Strategy 6: last resort. Free a warfarin-trained staff member who is
// covering two or more wards by lifting them off one ward (non-primary
// preferred), backfilling that ward from the unassigned pool, and giving
// them the clinic.
func (a *Allocator) tryWardDisplacement(clinic model.Clinic) bool {
	for _, s := range a.working {
		if !s.WarfarinTrained {
			continue
		}
		covered := a.wardsCoveredBy(s.ID)
		if len(covered) < 2 {
			continue
		}
		if !a.eligibleForClinic(s, clinic) {
			continue
		}

		// Prefer releasing a ward that is not one of their primaries
		release := covered[0]
		for _, w := range covered {
			if !s.IsPrimaryWard(w) {
				release = w
				break
			}
		}

		a.unassign(s.ID, model.AssignmentWard, release)
		a.logger.Debug("Displaced staff from ward for clinic cover",
			zap.String("staff", s.FullName()),
			zap.String("ward", release),
			zap.String("clinic", clinic.Name))

		// Backfill the vacated ward from the unassigned pool
		if w, ok := a.wardByName[release]; ok {
			if backfill := a.bestPoolCandidate(w); backfill != nil {
				a.assignWard(backfill.ID, release)
				a.poolRemove(backfill.ID)
			}
		}

		a.assignClinic(s, clinic)
		return true
	}
	return false
}
