package engine

import (
	"sort"

	"go.uber.org/zap"

	"github.com/jakechorley/pharmacy-rota/pkg/core/model"
)

// eauWardName is the ward EAU Practitioners are seeded onto
const eauWardName = "EAU"

// allocateWards fills every active ward to at least its minimum and
// toward its ideal headcount through a fixed pipeline of greedy passes,
// then runs the optimization passes that free senior staff for
// management time and rescue wards left completely uncovered.
func (a *Allocator) allocateWards() {
	a.initWardPool()

	a.seedEAUPractitioners()          // pass 1
	a.placePrimaryStaff()             // pass 2
	a.rescueEmptyDirectorates()       // pass 3
	a.fillToMinimum()                 // pass 4
	a.fillToIdeal()                   // pass 5
	a.placeRemaining()                // pass 6
	a.retryStragglers()               // pass 7
	a.releaseSeniorsToManagement()    // pass 8
	a.rescueUncoveredFromManagement() // pass 9
	a.rebalanceStaffing()             // pass 10

	a.recordCoverageConflicts()
}

// initWardPool builds the working pool of ward-eligible staff. The
// dedicated dispensary role, EAU Practitioners and anyone committed to
// full-day dispensary duty never enter ward rotation.
func (a *Allocator) initWardPool() {
	a.pool = nil
	for _, s := range a.working {
		if s.Band.IsDispensaryRole() || s.Band.IsEAUPractitioner() {
			continue
		}
		if a.fullDayDispensary[s.ID] {
			continue
		}
		a.pool = append(a.pool, s)
	}
	a.logger.Debug("Ward pool initialised", zap.Int("pool_size", len(a.pool)))
}

// candidateEligible applies the hard placement rules for a ward: band 8a
// staff never leave their primary directorate, and specialist wards
// demand the matching training type.
func (a *Allocator) candidateEligible(s model.Staff, w model.Ward) bool {
	if s.Band == model.Band8a && s.PrimaryDirectorate != w.Directorate {
		return false
	}
	if w.RequiresSpecialTraining && !s.HasSpecialistTraining(w.TrainingType) {
		return false
	}
	return true
}

// matchScore ranks a candidate for a specific ward; lower is better.
// Ties are broken by pool order, which is stable.
func matchScore(s model.Staff, w model.Ward) int {
	score := 0
	if s.IsPrimaryWard(w.Name) {
		score -= 10
	}
	if s.PrimaryDirectorate == w.Directorate {
		score -= 5
	}
	switch s.Band {
	case model.Band8a:
		score -= 3
	case model.Band7:
		score -= 2
	case model.Band6:
		if s.IsTrainedIn(w.Directorate) {
			score -= 1
		}
	}
	return score
}

// bestPoolCandidate returns the best-scoring eligible staff member still
// in the pool for the ward, or nil
func (a *Allocator) bestPoolCandidate(w model.Ward) *model.Staff {
	var best *model.Staff
	bestScore := 0
	for i := range a.pool {
		s := a.pool[i]
		if !a.candidateEligible(s, w) {
			continue
		}
		score := matchScore(s, w)
		if best == nil || score < bestScore {
			best = &a.pool[i]
			bestScore = score
		}
	}
	if best == nil {
		return nil
	}
	picked := *best
	return &picked
}

// Pass 1: every available EAU Practitioner goes straight onto the EAU
// ward. Their headcount weight of 0.5 is applied whenever thresholds are
// checked later.
func (a *Allocator) seedEAUPractitioners() {
	if _, ok := a.wardByName[eauWardName]; !ok {
		return
	}
	for _, s := range a.working {
		if !s.Band.IsEAUPractitioner() {
			continue
		}
		if a.isUnavailable(s, allDayStart, allDayEnd) {
			continue
		}
		a.assignWard(s.ID, eauWardName)
		a.logger.Debug("EAU Practitioner seeded", zap.String("staff", s.FullName()))
	}
}

// Pass 2: staff with a declared home are placed first - primary ward if
// it still has room, otherwise the first free ward in their primary
// directorate. A band 6 blocked by a full directorate they are untrained
// in may bump a band 7 occupant to make room; a trained band 6 simply
// waits for a later pass.
func (a *Allocator) placePrimaryStaff() {
	ordered := make([]model.Staff, len(a.pool))
	copy(ordered, a.pool)
	sort.SliceStable(ordered, func(i, j int) bool {
		pi, pj := ordered[i].HasPrimaryWard(), ordered[j].HasPrimaryWard()
		if pi != pj {
			return pi
		}
		return ordered[i].Band.Seniority() > ordered[j].Band.Seniority()
	})

	for _, s := range ordered {
		if !a.poolContains(s.ID) {
			continue
		}
		if !s.HasPrimaryWard() && s.PrimaryDirectorate == "" {
			continue
		}

		if a.placeOnPrimary(s) {
			continue
		}

		if s.Band == model.Band6 && s.PrimaryDirectorate != "" && !s.IsTrainedIn(s.PrimaryDirectorate) {
			a.bumpBand7ForJunior(s)
		}
	}
}

// placeOnPrimary tries the staff member's declared primary wards, then
// any free ward in their primary directorate
func (a *Allocator) placeOnPrimary(s model.Staff) bool {
	for _, name := range s.PrimaryWards {
		w, ok := a.wardByName[name]
		if !ok {
			continue
		}
		if a.belowIdeal(w) && a.candidateEligible(s, w) {
			a.assignWard(s.ID, w.Name)
			a.poolRemove(s.ID)
			return true
		}
	}
	if s.PrimaryDirectorate == "" {
		return false
	}
	for _, w := range a.wardsOf(s.PrimaryDirectorate) {
		if a.belowIdeal(w) && a.candidateEligible(s, w) {
			a.assignWard(s.ID, w.Name)
			a.poolRemove(s.ID)
			return true
		}
	}
	return false
}

// bumpBand7ForJunior makes room in a full directorate for an untrained
// band 6 by lifting a band 7 occupant back into the pool. Non-default
// occupants away from their own primary ward are bumped first.
func (a *Allocator) bumpBand7ForJunior(s model.Staff) bool {
	type bumpOption struct {
		occupant model.Staff
		ward     string
		cost     int
	}
	var best *bumpOption

	for _, w := range a.wardsOf(s.PrimaryDirectorate) {
		if !a.candidateEligible(s, w) {
			continue
		}
		for _, occ := range a.staffOnWard(w.Name) {
			if occ.Band != model.Band7 {
				continue
			}
			cost := 0
			if occ.IsDefaultStaff {
				cost += 2
			}
			if occ.IsPrimaryWard(w.Name) {
				cost++
			}
			if best == nil || cost < best.cost {
				best = &bumpOption{occupant: occ, ward: w.Name, cost: cost}
			}
		}
	}
	if best == nil {
		return false
	}

	a.unassign(best.occupant.ID, model.AssignmentWard, best.ward)
	a.pool = append(a.pool, best.occupant)
	a.assignWard(s.ID, best.ward)
	a.poolRemove(s.ID)

	a.logger.Debug("Bumped band 7 for untrained band 6",
		zap.String("bumped", best.occupant.FullName()),
		zap.String("placed", s.FullName()),
		zap.String("ward", best.ward))
	return true
}

// Pass 3: any directorate left completely unstaffed (ITU excepted) is
// filled from a candidate cascade. Relocating an assigned staff member
// re-opens their old directorate, so the scan repeats until stable.
func (a *Allocator) rescueEmptyDirectorates() {
	directorates := a.directorateNames()
	for iter := 0; iter <= len(directorates); iter++ {
		changed := false
		for _, dir := range directorates {
			if dir == model.ITUDirectorate {
				continue
			}
			if a.directorateHeadcount(dir) > 0 {
				continue
			}
			if a.fillEmptyDirectorate(dir) {
				changed = true
			}
		}
		if !changed {
			break
		}
	}
}

// fillEmptyDirectorate works through the rescue cascade for one empty
// directorate: band 6 trained here, band 7 trained here, any band 7,
// then band 8a (who can only ever serve their own primary directorate)
func (a *Allocator) fillEmptyDirectorate(dir string) bool {
	wards := a.wardsOf(dir)
	if len(wards) == 0 {
		return false
	}
	target := wards[0]

	cascade := []func(model.Staff) bool{
		func(s model.Staff) bool { return s.Band == model.Band6 && s.IsTrainedIn(dir) },
		func(s model.Staff) bool { return s.Band == model.Band7 && s.IsTrainedIn(dir) },
		func(s model.Staff) bool { return s.Band == model.Band7 },
		func(s model.Staff) bool { return s.Band == model.Band8a },
	}

	for _, match := range cascade {
		if c := a.pickRescueCandidate(target, match); c != nil {
			a.relocateToWard(*c, target.Name)
			return true
		}
	}
	return false
}

// pickRescueCandidate searches the pool first, then staff already placed
// elsewhere. Within each group, non-default staff away from their own
// primary directorate move first.
func (a *Allocator) pickRescueCandidate(target model.Ward, match func(model.Staff) bool) *model.Staff {
	rank := func(s model.Staff) int {
		cost := 0
		if s.IsDefaultStaff {
			cost += 2
		}
		// Pulling someone out of their own primary directorate costs more
		if cur := a.directorateOfStaffWard(s.ID); cur != "" && cur == s.PrimaryDirectorate {
			cost++
		}
		if s.PrimaryDirectorate == target.Directorate {
			cost--
		}
		return cost
	}

	pick := func(candidates []model.Staff) *model.Staff {
		var best *model.Staff
		bestCost := 0
		for i := range candidates {
			s := candidates[i]
			if !match(s) || !a.candidateEligible(s, target) {
				continue
			}
			cost := rank(s)
			if best == nil || cost < bestCost {
				best = &candidates[i]
				bestCost = cost
			}
		}
		if best == nil {
			return nil
		}
		c := *best
		return &c
	}

	if c := pick(a.pool); c != nil {
		return c
	}

	// Fall back to relocating someone already assigned, provided their
	// own ward keeps at least some cover options for reprocessing
	var assigned []model.Staff
	for _, s := range a.working {
		if a.wardCount(s.ID) == 0 {
			continue
		}
		if a.directorateOfStaffWard(s.ID) == target.Directorate {
			continue
		}
		assigned = append(assigned, s)
	}
	return pick(assigned)
}

// directorateOfStaffWard returns the directorate of the first ward the
// staff member covers, or empty if unassigned
func (a *Allocator) directorateOfStaffWard(staffID string) string {
	wards := a.wardsCoveredBy(staffID)
	if len(wards) == 0 {
		return ""
	}
	if w, ok := a.wardByName[wards[0]]; ok {
		return w.Directorate
	}
	return ""
}

// relocateToWard moves a staff member onto the target ward, releasing a
// prior ward assignment if they had one
func (a *Allocator) relocateToWard(s model.Staff, ward string) {
	if covered := a.wardsCoveredBy(s.ID); len(covered) > 0 {
		a.unassign(s.ID, model.AssignmentWard, covered[0])
		a.logger.Debug("Relocating staff to empty directorate",
			zap.String("staff", s.FullName()),
			zap.String("from", covered[0]),
			zap.String("to", ward))
	} else {
		a.poolRemove(s.ID)
	}
	a.assignWard(s.ID, ward)
}

// Pass 4: every ward is topped up to its rounded-up minimum headcount
// with the best-scoring remaining candidates
func (a *Allocator) fillToMinimum() {
	for _, w := range a.wards {
		for a.belowMinimum(w) {
			c := a.bestPoolCandidate(w)
			if c == nil {
				break
			}
			a.assignWard(c.ID, w.Name)
			a.poolRemove(c.ID)
		}
	}
}

// Pass 5: round-robin top-up toward ideal headcount, bounded to twice
// the ward count so the loop always terminates
func (a *Allocator) fillToIdeal() {
	if len(a.wards) == 0 {
		return
	}
	maxIterations := 2 * len(a.wards)
	idx := 0
	for iter := 0; iter < maxIterations && len(a.pool) > 0; iter++ {
		w := a.wards[idx%len(a.wards)]
		idx++
		if !a.belowIdeal(w) {
			continue
		}
		c := a.bestPoolCandidate(w)
		if c == nil {
			continue
		}
		a.assignWard(c.ID, w.Name)
		a.poolRemove(c.ID)
	}
}

// Pass 6: catch-all placement for anyone still unassigned. Band 8a staff
// stay inside their primary directorate or go to management time; others
// try their trained directorates, then any ward below ideal, then the
// first active ward as a last resort.
func (a *Allocator) placeRemaining() {
	remaining := make([]model.Staff, len(a.pool))
	copy(remaining, a.pool)

	for _, s := range remaining {
		if !a.poolContains(s.ID) {
			continue
		}

		if s.Band == model.Band8a {
			placed := false
			for _, w := range a.wardsOf(s.PrimaryDirectorate) {
				if a.belowIdeal(w) && a.candidateEligible(s, w) {
					a.assignWard(s.ID, w.Name)
					placed = true
					break
				}
			}
			if !placed {
				a.assignManagement(s.ID)
				a.logger.Debug("Band 8a routed to management time", zap.String("staff", s.FullName()))
			}
			a.poolRemove(s.ID)
			continue
		}

		if a.placeInTrainedDirectorates(s) {
			continue
		}

		placed := false
		for _, w := range a.wards {
			if a.belowIdeal(w) && a.candidateEligible(s, w) {
				a.assignWard(s.ID, w.Name)
				a.poolRemove(s.ID)
				placed = true
				break
			}
		}
		if placed {
			continue
		}

		// Force placement: nobody stays unassigned
		if len(a.wards) > 0 {
			a.assignWard(s.ID, a.wards[0].Name)
			a.poolRemove(s.ID)
			a.logger.Debug("Force-placed staff on first active ward",
				zap.String("staff", s.FullName()),
				zap.String("ward", a.wards[0].Name))
		}
	}
}

func (a *Allocator) placeInTrainedDirectorates(s model.Staff) bool {
	for _, dir := range s.TrainedDirectorates {
		for _, w := range a.wardsOf(dir) {
			if a.belowIdeal(w) && a.candidateEligible(s, w) {
				a.assignWard(s.ID, w.Name)
				a.poolRemove(s.ID)
				return true
			}
		}
	}
	return false
}

// Pass 7: repeat the primary placement and ideal top-up logic for any
// stragglers returned to the pool by bumping or displacement
func (a *Allocator) retryStragglers() {
	if len(a.pool) == 0 {
		return
	}
	a.placePrimaryStaff()
	a.fillToIdeal()
	a.placeRemaining()
}
