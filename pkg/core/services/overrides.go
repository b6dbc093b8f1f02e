package services

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"
	"go.uber.org/zap"
)

// ResolveSinglePharmacistDays expands the configured RRULE strings over
// one working week and returns the dates that fall in single-pharmacist
// dispensary mode. weekStart is the Monday the week begins on.
func ResolveSinglePharmacistDays(rules []string, weekStart time.Time, logger *zap.Logger) (map[string]bool, error) {
	days := make(map[string]bool)
	if len(rules) == 0 {
		return days, nil
	}

	weekEnd := weekStart.AddDate(0, 0, 4)

	for i, ruleStr := range rules {
		rule, err := rrule.StrToRRule(ruleStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse rrule %d: %w", i, err)
		}

		// Anchor the rule just before the week so occurrences inside the
		// week are generated regardless of the rule's own DTSTART
		searchStart := weekStart.AddDate(0, 0, -7)
		rule.DTStart(searchStart)

		occurrences := rule.Between(weekStart, weekEnd, true)
		for _, occurrence := range occurrences {
			days[occurrence.Format(dateLayout)] = true
		}
	}

	if len(days) > 0 {
		dates := make([]string, 0, len(days))
		for d := range days {
			dates = append(dates, d)
		}
		logger.Debug("Resolved single-pharmacist dispensary days", zap.Strings("dates", dates))
	}

	return days, nil
}
