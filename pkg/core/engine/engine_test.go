package engine

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/pharmacy-rota/pkg/core/model"
)

// testDate is a Monday
var testDate = time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)

var allWeekdays = []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}

func pharmacist(id string, band model.Band) model.Staff {
	return model.Staff{
		ID:          id,
		FirstName:   "Staff",
		LastName:    id,
		Band:        band,
		WorkingDays: allWeekdays,
	}
}

func singleWardDirectorate(dir, ward string, min, ideal float64) model.Directorate {
	return model.Directorate{
		Name: dir,
		Wards: []model.Ward{
			{Name: ward, Directorate: dir, IsActive: true, MinPharmacists: min, IdealPharmacists: ideal},
		},
	}
}

// assignmentKey strips the generated ID so assignment sets can be compared
type assignmentKey struct {
	StaffID    string
	Type       model.AssignmentType
	Location   string
	Start      string
	End        string
	LunchCover bool
}

func keysOf(assignments []model.Assignment) []assignmentKey {
	out := make([]assignmentKey, 0, len(assignments))
	for _, a := range assignments {
		out = append(out, assignmentKey{a.StaffID, a.Type, a.Location, a.StartTime, a.EndTime, a.IsLunchCover})
	}
	return out
}

func findAssignments(result *Result, staffID string, kind model.AssignmentType) []model.Assignment {
	var out []model.Assignment
	for _, a := range result.Assignments {
		if a.StaffID == staffID && a.Type == kind {
			out = append(out, a)
		}
	}
	return out
}

func TestGenerate_RequiresDate(t *testing.T) {
	_, err := Generate(Config{}, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "date")
}

func TestGenerate_FiltersToWorkingStaff(t *testing.T) {
	weekendOnly := pharmacist("weekend", model.Band6)
	weekendOnly.WorkingDays = []time.Weekday{time.Saturday}

	result, err := Generate(Config{
		Date:         testDate,
		Staff:        []model.Staff{pharmacist("p1", model.Band6), weekendOnly},
		Directorates: []model.Directorate{singleWardDirectorate("Medicine", "Ward1", 1, 1)},
		Rand:         rand.New(rand.NewSource(1)),
	}, zap.NewNop())
	require.NoError(t, err)

	for _, a := range result.Assignments {
		assert.NotEqual(t, "weekend", a.StaffID, "staff not working today must receive no assignments")
	}
}

func TestGenerate_FixedSeedIsDeterministic(t *testing.T) {
	build := func() Config {
		return Config{
			Date: testDate,
			Staff: []model.Staff{
				pharmacist("p1", model.Band6),
				pharmacist("p2", model.Band6),
				pharmacist("p3", model.Band7),
				pharmacist("p4", model.Band7),
				pharmacist("p5", model.Band8a),
			},
			Directorates: []model.Directorate{
				singleWardDirectorate("Medicine", "Ward1", 1, 2),
				singleWardDirectorate("Surgery", "Ward2", 1, 2),
			},
			Rand: rand.New(rand.NewSource(42)),
		}
	}

	first, err := Generate(build(), zap.NewNop())
	require.NoError(t, err)
	second, err := Generate(build(), zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, keysOf(first.Assignments), keysOf(second.Assignments))
	assert.Equal(t, first.Conflicts, second.Conflicts)
	assert.Equal(t, first.DispensaryDutyCounts, second.DispensaryDutyCounts)
}

func TestGenerate_EveryWorkingStaffMemberIsPlaced(t *testing.T) {
	staff := []model.Staff{
		pharmacist("p1", model.Band6),
		pharmacist("p2", model.Band7),
		pharmacist("p3", model.Band8a),
	}

	result, err := Generate(Config{
		Date:         testDate,
		Staff:        staff,
		Directorates: []model.Directorate{singleWardDirectorate("Medicine", "Ward1", 1, 1)},
		Rand:         rand.New(rand.NewSource(7)),
	}, zap.NewNop())
	require.NoError(t, err)

	for _, s := range staff {
		wardOrMgmt := len(findAssignments(result, s.ID, model.AssignmentWard)) +
			len(findAssignments(result, s.ID, model.AssignmentManagement))
		assert.Positive(t, wardOrMgmt, "staff %s should end the day on a ward or in management", s.ID)
	}
}

// A three-person roster with a dedicated dispensary holder: the junior
// with the explicit primary ward ends up covering it, the band 8a is
// released to management once junior cover suffices, and lunch cover is
// drawn from the two ward-eligible staff under the zero-duty-first rule.
// Ward placement runs after dispensary, so being bound for a ward does
// not exclude anyone from lunch cover.
func TestGenerate_SmallRosterWithDedicatedHolder(t *testing.T) {
	junior := pharmacist("junior", model.Band6)
	junior.PrimaryWards = []string{"Ward1"}
	senior := pharmacist("senior", model.Band8a)
	senior.PrimaryDirectorate = "Medicine"
	senior.PrimaryWards = []string{"Ward1"}
	holder := pharmacist("holder", model.BandDispensary)

	result, err := Generate(Config{
		Date:         testDate,
		Staff:        []model.Staff{junior, senior, holder},
		Directorates: []model.Directorate{singleWardDirectorate("Medicine", "Ward1", 1, 1)},
		Rand:         rand.New(rand.NewSource(11)),
	}, zap.NewNop())
	require.NoError(t, err)

	blocks := findAssignments(result, "holder", model.AssignmentDispensary)
	require.Len(t, blocks, 4)
	for _, b := range blocks {
		assert.False(t, b.IsLunchCover)
	}
	assert.Empty(t, findAssignments(result, "holder", model.AssignmentWard))

	var lunchHolders []string
	for _, asn := range result.Assignments {
		if asn.IsLunchCover {
			lunchHolders = append(lunchHolders, asn.StaffID)
		}
	}
	require.Len(t, lunchHolders, 1)
	assert.Contains(t, []string{"junior", "senior"}, lunchHolders[0])

	juniorWards := findAssignments(result, "junior", model.AssignmentWard)
	require.Len(t, juniorWards, 1)
	assert.Equal(t, "Ward1", juniorWards[0].Location)

	assert.Len(t, findAssignments(result, "senior", model.AssignmentManagement), 1)
	assert.Empty(t, findAssignments(result, "senior", model.AssignmentWard))

	assert.Empty(t, result.Conflicts)
}

func TestGenerate_AdvancesInputCountersWithoutMutatingThem(t *testing.T) {
	input := map[string]int{"p1": 3}

	result, err := Generate(Config{
		Date:                 testDate,
		Staff:                []model.Staff{pharmacist("p1", model.Band6), pharmacist("p2", model.Band6)},
		Directorates:         []model.Directorate{singleWardDirectorate("Medicine", "Ward1", 1, 1)},
		DispensaryDutyCounts: input,
		Rand:                 rand.New(rand.NewSource(3)),
	}, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, 3, input["p1"], "caller's counter map must not be mutated")
	assert.GreaterOrEqual(t, result.DispensaryDutyCounts["p1"], 3)
}
