package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/pharmacy-rota/pkg/core/model"
)

func TestGenerateWeeklyRota_RejectsNonMonday(t *testing.T) {
	mock := &mockStore{}
	logger := zap.NewNop()

	// 2026-01-06 is a Tuesday
	_, err := GenerateWeeklyRota(context.Background(), mock, logger, GenerateWeeklyRotaInput{
		StartDate: "2026-01-06",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must start on a Monday")
	assert.Empty(t, mock.replacedRotas)
}

func TestGenerateWeeklyRota_MalformedStartDateFails(t *testing.T) {
	mock := &mockStore{}
	logger := zap.NewNop()

	_, err := GenerateWeeklyRota(context.Background(), mock, logger, GenerateWeeklyRotaInput{
		StartDate: "next monday",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse start date")
}

func TestGenerateWeeklyRota_GeneratesAllFiveDays(t *testing.T) {
	mock := &mockStore{
		staff:        []model.Staff{testStaff("p1", model.Band6), testStaff("p2", model.Band7)},
		directorates: testDirectorates(),
	}
	logger := zap.NewNop()

	result, err := GenerateWeeklyRota(context.Background(), mock, logger, GenerateWeeklyRotaInput{
		StartDate: "2026-01-05",
		StaffIDs:  []string{"p1", "p2"},
		Seed:      1,
	})
	require.NoError(t, err)

	require.Len(t, result.Rotas, 5)
	require.Len(t, mock.replacedRotas, 5)

	expected := []string{"2026-01-05", "2026-01-06", "2026-01-07", "2026-01-08", "2026-01-09"}
	for i, rota := range mock.replacedRotas {
		assert.Equal(t, expected[i], rota.Date)
	}
}

func TestGenerateWeeklyRota_SelectedWeekdaysOnly(t *testing.T) {
	mock := &mockStore{
		staff:        []model.Staff{testStaff("p1", model.Band6)},
		directorates: testDirectorates(),
	}
	logger := zap.NewNop()

	result, err := GenerateWeeklyRota(context.Background(), mock, logger, GenerateWeeklyRotaInput{
		StartDate:        "2026-01-05",
		StaffIDs:         []string{"p1"},
		SelectedWeekdays: []time.Weekday{time.Monday, time.Thursday},
		Seed:             1,
	})
	require.NoError(t, err)

	require.Len(t, result.Rotas, 2)
	assert.Equal(t, "2026-01-05", result.Rotas[0].Date)
	assert.Equal(t, "2026-01-08", result.Rotas[1].Date)
}

func TestGenerateWeeklyRota_CountersCarryAcrossDays(t *testing.T) {
	// A lone junior takes lunch cover plus one dispensary block every day:
	// two duties per day, ten across the full week
	mock := &mockStore{
		staff:        []model.Staff{testStaff("p1", model.Band6)},
		directorates: testDirectorates(),
	}
	logger := zap.NewNop()

	result, err := GenerateWeeklyRota(context.Background(), mock, logger, GenerateWeeklyRotaInput{
		StartDate: "2026-01-05",
		StaffIDs:  []string{"p1"},
		Seed:      1,
	})
	require.NoError(t, err)

	assert.Equal(t, 10, result.DispensaryDutyCounts["p1"])
}

func TestGenerateWeeklyRota_FairnessSpreadsDispensaryDuty(t *testing.T) {
	staff := []model.Staff{
		testStaff("p1", model.Band6),
		testStaff("p2", model.Band6),
		testStaff("p3", model.Band7),
		testStaff("p4", model.Band7),
	}
	mock := &mockStore{staff: staff, directorates: testDirectorates()}
	logger := zap.NewNop()

	result, err := GenerateWeeklyRota(context.Background(), mock, logger, GenerateWeeklyRotaInput{
		StartDate: "2026-01-05",
		StaffIDs:  []string{"p1", "p2", "p3", "p4"},
		Seed:      1,
	})
	require.NoError(t, err)

	// Everyone picks up dispensary work over a full week
	for _, s := range staff {
		assert.Positive(t, result.DispensaryDutyCounts[s.ID],
			"staff %s took no dispensary duty all week", s.ID)
	}
}

func TestGenerateWeeklyRota_WorkingStaffOverrideNarrowsRoster(t *testing.T) {
	mock := &mockStore{
		staff:        []model.Staff{testStaff("p1", model.Band6), testStaff("p2", model.Band7)},
		directorates: testDirectorates(),
	}
	logger := zap.NewNop()

	result, err := GenerateWeeklyRota(context.Background(), mock, logger, GenerateWeeklyRotaInput{
		StartDate: "2026-01-05",
		StaffIDs:  []string{"p1", "p2"},
		WorkingStaffOverride: map[time.Weekday][]string{
			time.Monday: {"p2"},
		},
		SelectedWeekdays: []time.Weekday{time.Monday},
		Seed:             1,
	})
	require.NoError(t, err)
	require.Len(t, result.Rotas, 1)

	for _, a := range result.Rotas[0].Assignments {
		assert.Equal(t, "p2", a.StaffID, "override excludes p1 from Monday")
	}
}

func TestGenerateWeeklyRota_SinglePharmacistDayApplied(t *testing.T) {
	mock := &mockStore{
		staff: []model.Staff{
			testStaff("p1", model.Band6),
			testStaff("p2", model.Band6),
			testStaff("p3", model.Band7),
		},
		directorates: testDirectorates(),
	}
	logger := zap.NewNop()

	result, err := GenerateWeeklyRota(context.Background(), mock, logger, GenerateWeeklyRotaInput{
		StartDate:            "2026-01-05",
		StaffIDs:             []string{"p1", "p2", "p3"},
		SinglePharmacistDays: map[string]bool{"2026-01-07": true},
		SelectedWeekdays:     []time.Weekday{time.Wednesday},
		Seed:                 1,
	})
	require.NoError(t, err)
	require.Len(t, result.Rotas, 1)

	// On a single-pharmacist day one staff member holds all four blocks
	blocksByStaff := make(map[string]int)
	for _, a := range result.Rotas[0].Assignments {
		if a.Type == model.AssignmentDispensary && !a.IsLunchCover {
			blocksByStaff[a.StaffID]++
		}
	}
	require.Len(t, blocksByStaff, 1)
	for _, n := range blocksByStaff {
		assert.Equal(t, 4, n)
	}
}
