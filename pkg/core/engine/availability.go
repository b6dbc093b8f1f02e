package engine

import (
	"time"

	"github.com/jakechorley/pharmacy-rota/pkg/core/model"
)

// timesOverlap reports whether two half-open "HH:MM" windows overlap.
// Lexicographic comparison is valid for the fixed-width format.
func timesOverlap(aStart, aEnd, bStart, bEnd string) bool {
	return !(aEnd <= bStart || aStart >= bEnd)
}

// StaffUnavailable decides whether a staff member is barred from the
// half-open window [start, end) on the given weekday by an
// unavailability rule. When override is non-nil it replaces the staff
// member's permanent rules entirely; there is no merging.
func StaffUnavailable(s model.Staff, override map[string][]model.UnavailableRule, day time.Weekday, start, end string) bool {
	rules := s.NotAvailableRules
	if override != nil {
		rules = override[s.ID]
	}
	for _, r := range rules {
		if r.Weekday != day {
			continue
		}
		if timesOverlap(start, end, r.Start, r.End) {
			return true
		}
	}
	return false
}

// isUnavailable applies StaffUnavailable for the allocation date
func (a *Allocator) isUnavailable(s model.Staff, start, end string) bool {
	return StaffUnavailable(s, a.cfg.EffectiveUnavailability, a.weekday, start, end)
}
