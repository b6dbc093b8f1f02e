package engine

import (
	"sort"

	"go.uber.org/zap"

	"github.com/jakechorley/pharmacy-rota/pkg/core/model"
)

// The dispensary runs on a fixed grid of four two-hour blocks. Lunch
// cover is a carve-out slot inside the 13:00-15:00 block: the block
// itself is still assigned in full and the lunch holder relieves the
// counter for half an hour.
type shiftBlock struct {
	Start string
	End   string
}

var dispensaryBlocks = []shiftBlock{
	{"09:00", "11:00"},
	{"11:00", "13:00"},
	{"13:00", "15:00"},
	{"15:00", "17:00"},
}

const (
	lunchCoverStart = "13:30"
	lunchCoverEnd   = "14:00"

	dispensaryLocation = "Dispensary"
)

// allocateDispensary fills the dispensary shift grid for the day. Three
// modes, in order of precedence: a dedicated dispensary-role holder
// covering every block, a single junior covering the whole day, or the
// general fairness-weighted rotation.
func (a *Allocator) allocateDispensary() {
	if holder := a.availableDispensaryHolder(); holder != nil {
		a.allocateDedicatedHolder(*holder)
		return
	}
	if a.cfg.SinglePharmacistDispensary {
		a.allocateSinglePharmacistDay()
		return
	}
	a.allocateRotatingDay()
}

// availableDispensaryHolder returns the working dedicated dispensary
// staff member, if any, who is not barred from the working day
func (a *Allocator) availableDispensaryHolder() *model.Staff {
	for _, s := range a.working {
		if !s.Band.IsDispensaryRole() {
			continue
		}
		if a.isUnavailable(s, dispensaryBlocks[0].Start, dispensaryBlocks[len(dispensaryBlocks)-1].End) {
			continue
		}
		holder := s
		return &holder
	}
	return nil
}

// allocateDedicatedHolder gives the dispensary-role holder every block
// and selects a lunch-cover substitute from the rest of the roster
func (a *Allocator) allocateDedicatedHolder(holder model.Staff) {
	for _, block := range dispensaryBlocks {
		a.addAssignment(holder.ID, model.AssignmentDispensary, dispensaryLocation, block.Start, block.End, false)
	}
	a.fullDayDispensary[holder.ID] = true
	a.logger.Debug("Dedicated dispensary holder assigned all blocks", zap.String("staff", holder.FullName()))

	// The holder's own shifts do not advance their duty counter; only
	// lunch cover does for anyone.
	candidates := a.lunchCoverCandidates(func(s model.Staff) bool {
		return s.ID != holder.ID && !a.onWarfarinClinic[s.ID]
	})
	if len(candidates) == 0 {
		a.addConflict("lunch_cover_unfilled", model.SeverityWarning,
			"no staff available for dispensary lunch cover (%s-%s)", lunchCoverStart, lunchCoverEnd)
		return
	}
	a.assignLunchCover(candidates[0])
}

// allocateSinglePharmacistDay puts one junior on the dispensary for the
// whole day and a different staff member on lunch cover
func (a *Allocator) allocateSinglePharmacistDay() {
	cover := a.pickSingleDayCover()
	if cover == nil {
		a.addConflict("dispensary_uncovered", model.SeverityError,
			"no staff available for all-day dispensary cover on a single-pharmacist day")
	} else {
		for _, block := range dispensaryBlocks {
			a.addAssignment(cover.ID, model.AssignmentDispensary, dispensaryLocation, block.Start, block.End, false)
		}
		a.fullDayDispensary[cover.ID] = true
		a.dutyCounts[cover.ID]++
		a.logger.Debug("Single-pharmacist dispensary cover assigned", zap.String("staff", cover.FullName()))
	}

	candidates := a.lunchCoverCandidates(func(s model.Staff) bool {
		if s.Band.IsDispensaryRole() {
			return false
		}
		return cover == nil || s.ID != cover.ID
	})
	if len(candidates) == 0 {
		a.addConflict("lunch_cover_unfilled", model.SeverityWarning,
			"no staff available for dispensary lunch cover (%s-%s)", lunchCoverStart, lunchCoverEnd)
		return
	}
	a.assignLunchCover(candidates[0])
}

// pickSingleDayCover selects the junior for a single-pharmacist day:
// band 6 first, then 7, then 8a, uniformly at random within the band
func (a *Allocator) pickSingleDayCover() *model.Staff {
	for _, band := range []model.Band{model.Band6, model.Band7, model.Band8a} {
		var candidates []model.Staff
		for _, s := range a.working {
			if s.Band != band {
				continue
			}
			if a.onWarfarinClinic[s.ID] {
				continue
			}
			if a.hasClinicDuringDispensary(s.ID) {
				continue
			}
			if a.isUnavailable(s, dispensaryBlocks[0].Start, dispensaryBlocks[len(dispensaryBlocks)-1].End) {
				continue
			}
			candidates = append(candidates, s)
		}
		if len(candidates) > 0 {
			pick := candidates[a.rng.Intn(len(candidates))]
			return &pick
		}
	}
	return nil
}

// allocateRotatingDay handles the general multi-staff day: lunch cover
// first, then the four blocks via a fairness- and band-weighted random
// draw with at most one block per staff member.
func (a *Allocator) allocateRotatingDay() {
	var lunchHolder string
	if cover := a.pickRotatingLunchCover(); cover != nil {
		a.assignLunchCover(*cover)
		lunchHolder = cover.ID
	} else {
		a.addConflict("lunch_cover_unfilled", model.SeverityWarning,
			"no staff available for dispensary lunch cover (%s-%s)", lunchCoverStart, lunchCoverEnd)
	}

	taken := make(map[string]bool)
	for _, block := range dispensaryBlocks {
		candidate := a.drawBlockCandidate(block, taken, lunchHolder)
		if candidate == nil {
			a.addConflict("dispensary_block_unfilled", model.SeverityWarning,
				"no staff available for dispensary block %s-%s", block.Start, block.End)
			continue
		}
		a.addAssignment(candidate.ID, model.AssignmentDispensary, dispensaryLocation, block.Start, block.End, false)
		a.dutyCounts[candidate.ID]++
		taken[candidate.ID] = true
	}
}

// pickRotatingLunchCover prefers band 8a, then warfarin-trained staff
// not already on a warfarin clinic, then anyone available
func (a *Allocator) pickRotatingLunchCover() *model.Staff {
	tiers := []func(model.Staff) bool{
		func(s model.Staff) bool { return s.Band == model.Band8a },
		func(s model.Staff) bool { return s.WarfarinTrained && !a.onWarfarinClinic[s.ID] },
		func(model.Staff) bool { return true },
	}
	for _, tier := range tiers {
		candidates := a.lunchCoverCandidates(tier)
		if len(candidates) > 0 {
			return &candidates[0]
		}
	}
	return nil
}

// lunchCoverCandidates returns the eligible lunch-cover staff ranked by
// the zero-duty-first rule: shuffle for random tie-breaking, then stable
// sort ascending by weekly dispensary/lunch duty count. EAU Practitioners
// are never chosen for dispensary duty.
func (a *Allocator) lunchCoverCandidates(extra func(model.Staff) bool) []model.Staff {
	var candidates []model.Staff
	for _, s := range a.working {
		if s.Band.IsEAUPractitioner() {
			continue
		}
		if !extra(s) {
			continue
		}
		if a.isUnavailable(s, lunchCoverStart, lunchCoverEnd) {
			continue
		}
		if a.clinicConflict(s.ID, lunchCoverStart, lunchCoverEnd) {
			continue
		}
		candidates = append(candidates, s)
	}

	a.rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	sort.SliceStable(candidates, func(i, j int) bool {
		return a.dutyCounts[candidates[i].ID] < a.dutyCounts[candidates[j].ID]
	})
	return candidates
}

// assignLunchCover books the lunch carve-out slot and advances the duty
// counter. Lunch cover counts towards everyone's duty total, including
// the dedicated dispensary holder.
func (a *Allocator) assignLunchCover(s model.Staff) {
	a.addAssignment(s.ID, model.AssignmentDispensary, dispensaryLocation, lunchCoverStart, lunchCoverEnd, true)
	a.dutyCounts[s.ID]++
	a.logger.Debug("Lunch cover assigned",
		zap.String("staff", s.FullName()),
		zap.Int("duty_count", a.dutyCounts[s.ID]))
}

// hasClinicDuringDispensary reports whether any of the staff member's
// clinics overlaps the dispensary grid
func (a *Allocator) hasClinicDuringDispensary(staffID string) bool {
	for _, block := range dispensaryBlocks {
		if a.clinicConflict(staffID, block.Start, block.End) {
			return true
		}
	}
	return false
}

// drawBlockCandidate performs the weighted random draw for one block.
// Band 6/7 staff appear twice in the draw pool so their selection odds
// are double those of band 8a.
func (a *Allocator) drawBlockCandidate(block shiftBlock, taken map[string]bool, lunchHolder string) *model.Staff {
	var pool []model.Staff
	for _, s := range a.working {
		if s.Band.IsEAUPractitioner() || s.Band.IsDispensaryRole() {
			continue
		}
		if taken[s.ID] {
			continue
		}
		// The lunch holder cannot also man the block their cover sits in
		if s.ID == lunchHolder && timesOverlap(block.Start, block.End, lunchCoverStart, lunchCoverEnd) {
			continue
		}
		if a.isUnavailable(s, block.Start, block.End) {
			continue
		}
		if a.clinicConflict(s.ID, block.Start, block.End) {
			continue
		}
		pool = append(pool, s)
		if s.Band == model.Band6 || s.Band == model.Band7 {
			pool = append(pool, s)
		}
	}
	if len(pool) == 0 {
		return nil
	}
	pick := pool[a.rng.Intn(len(pool))]
	return &pick
}
