package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestResolveSinglePharmacistDays_WeeklyRule(t *testing.T) {
	weekStart := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC) // Monday

	days, err := ResolveSinglePharmacistDays(
		[]string{"FREQ=WEEKLY;BYDAY=WE"}, weekStart, zap.NewNop())
	require.NoError(t, err)

	assert.True(t, days["2026-01-07"], "the Wednesday of the week matches")
	assert.False(t, days["2026-01-05"])
	assert.False(t, days["2026-01-08"])
}

func TestResolveSinglePharmacistDays_MultipleRules(t *testing.T) {
	weekStart := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)

	days, err := ResolveSinglePharmacistDays(
		[]string{"FREQ=WEEKLY;BYDAY=MO", "FREQ=WEEKLY;BYDAY=FR"}, weekStart, zap.NewNop())
	require.NoError(t, err)

	assert.True(t, days["2026-01-05"])
	assert.True(t, days["2026-01-09"])
	assert.Len(t, days, 2)
}

func TestResolveSinglePharmacistDays_NoRules(t *testing.T) {
	days, err := ResolveSinglePharmacistDays(nil, time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), zap.NewNop())
	require.NoError(t, err)
	assert.Empty(t, days)
}

func TestResolveSinglePharmacistDays_InvalidRuleFails(t *testing.T) {
	_, err := ResolveSinglePharmacistDays(
		[]string{"FREQ=SOMETIMES"}, time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse rrule")
}
