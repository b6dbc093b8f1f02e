package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/pharmacy-rota/pkg/core/model"
)

func wardAssignments(a *Allocator, staffID string) []string {
	return a.wardsCoveredBy(staffID)
}

func conflictTypes(a *Allocator) []string {
	var out []string
	for _, c := range a.conflicts {
		out = append(out, c.Type)
	}
	return out
}

func TestAllocateWards_PrimaryWardHonoured(t *testing.T) {
	s := pharmacist("s", model.Band6)
	s.PrimaryWards = []string{"Ward2"}
	s.PrimaryDirectorate = "Surgery"

	a := newTestAllocator(Config{
		Staff: []model.Staff{s},
		Directorates: []model.Directorate{
			singleWardDirectorate("Medicine", "Ward1", 1, 1),
			singleWardDirectorate("Surgery", "Ward2", 1, 1),
		},
	})
	a.allocateWards()

	assert.Equal(t, []string{"Ward2"}, wardAssignments(a, "s"))
}

func TestAllocateWards_EAUPractitionerSeededOntoEAU(t *testing.T) {
	eau := pharmacist("eau", model.BandEAU)
	junior := pharmacist("junior", model.Band6)

	a := newTestAllocator(Config{
		Staff: []model.Staff{eau, junior},
		Directorates: []model.Directorate{
			singleWardDirectorate("Admissions", "EAU", 1, 1),
		},
	})
	a.allocateWards()

	assert.Equal(t, []string{"EAU"}, wardAssignments(a, "eau"))

	// An EAU Practitioner counts half a pharmacist, so the ward still
	// needs a full pharmacist to reach its minimum of 1
	assert.Equal(t, []string{"EAU"}, wardAssignments(a, "junior"))
	assert.Equal(t, 1.5, a.wardHeadcount("EAU"))
}

func TestAllocateWards_Band8aConfinedToPrimaryDirectorate(t *testing.T) {
	senior := pharmacist("senior", model.Band8a)
	senior.PrimaryDirectorate = "Medicine"

	a := newTestAllocator(Config{
		Staff: []model.Staff{senior},
		Directorates: []model.Directorate{
			singleWardDirectorate("Medicine", "Ward1", 1, 1),
			singleWardDirectorate("Surgery", "Ward2", 1, 1),
		},
	})
	a.allocateWards()

	assert.Equal(t, []string{"Ward1"}, wardAssignments(a, "senior"))
	assert.Contains(t, conflictTypes(a), "directorate_uncovered", "Surgery stays empty rather than taking the band 8a")
}

func TestAllocateWards_Band8aWithoutRoomGoesToManagement(t *testing.T) {
	occupant := pharmacist("occupant", model.Band6)
	occupant.PrimaryWards = []string{"Ward1"}
	senior := pharmacist("senior", model.Band8a)
	senior.PrimaryDirectorate = "Medicine"

	a := newTestAllocator(Config{
		Staff: []model.Staff{occupant, senior},
		Directorates: []model.Directorate{
			singleWardDirectorate("Medicine", "Ward1", 1, 1),
		},
	})
	a.allocateWards()

	assert.Equal(t, []string{"Ward1"}, wardAssignments(a, "occupant"))
	assert.Empty(t, wardAssignments(a, "senior"))
	assert.True(t, a.inManagement("senior"))
}

func TestAllocateWards_SpecialTrainingRequired(t *testing.T) {
	trained := pharmacist("trained", model.Band6)
	trained.SpecialistTraining = []string{"oncology"}
	untrained := pharmacist("untrained", model.Band7)

	oncology := model.Directorate{
		Name: "Oncology",
		Wards: []model.Ward{{
			Name: "Onc1", Directorate: "Oncology", IsActive: true,
			MinPharmacists: 1, IdealPharmacists: 1,
			RequiresSpecialTraining: true, TrainingType: "oncology",
		}},
	}

	a := newTestAllocator(Config{
		Staff: []model.Staff{untrained, trained},
		Directorates: []model.Directorate{
			singleWardDirectorate("Medicine", "Ward1", 1, 1),
			oncology,
		},
	})
	a.allocateWards()

	assert.Contains(t, wardAssignments(a, "trained"), "Onc1")
	assert.NotContains(t, wardAssignments(a, "untrained"), "Onc1")
}

func TestAllocateWards_InactiveWardsIgnored(t *testing.T) {
	s := pharmacist("s", model.Band6)
	s.PrimaryWards = []string{"Closed"}

	a := newTestAllocator(Config{
		Staff: []model.Staff{s},
		Directorates: []model.Directorate{
			{Name: "Medicine", Wards: []model.Ward{
				{Name: "Closed", Directorate: "Medicine", IsActive: false, MinPharmacists: 1, IdealPharmacists: 1},
				{Name: "Open", Directorate: "Medicine", IsActive: true, MinPharmacists: 1, IdealPharmacists: 1},
			}},
		},
	})
	a.allocateWards()

	assert.Equal(t, []string{"Open"}, wardAssignments(a, "s"))
}

func TestAllocateWards_EmptyDirectorateRescued(t *testing.T) {
	// Two juniors default to Medicine; the rescue pass must pull cover
	// into Surgery rather than leave the directorate empty
	p1 := pharmacist("p1", model.Band6)
	p1.PrimaryDirectorate = "Medicine"
	p2 := pharmacist("p2", model.Band7)
	p2.PrimaryDirectorate = "Medicine"

	a := newTestAllocator(Config{
		Staff: []model.Staff{p1, p2},
		Directorates: []model.Directorate{
			singleWardDirectorate("Medicine", "Ward1", 1, 2),
			singleWardDirectorate("Surgery", "Ward2", 1, 1),
		},
	})
	a.allocateWards()

	assert.Positive(t, a.directorateHeadcount("Surgery"))
	assert.NotContains(t, conflictTypes(a), "directorate_uncovered")
}

func TestAllocateWards_ITUMayStayEmpty(t *testing.T) {
	s := pharmacist("s", model.Band7)

	a := newTestAllocator(Config{
		Staff: []model.Staff{s},
		Directorates: []model.Directorate{
			singleWardDirectorate("Medicine", "Ward1", 1, 1),
			singleWardDirectorate(model.ITUDirectorate, "ITU1", 1, 1),
		},
	})
	a.allocateWards()

	// The empty-directorate rescue claims the band 7 for Medicine and the
	// exhausted pool leaves ITU empty, which is never reported
	assert.Equal(t, []string{"Ward1"}, wardAssignments(a, "s"))
	assert.NotContains(t, conflictTypes(a), "directorate_uncovered")
	assert.Empty(t, conflictTypes(a))
}

func TestAllocateWards_UnderstaffedWardReported(t *testing.T) {
	s := pharmacist("s", model.Band6)

	a := newTestAllocator(Config{
		Staff: []model.Staff{s},
		Directorates: []model.Directorate{
			singleWardDirectorate("Medicine", "Ward1", 2, 3),
		},
	})
	a.allocateWards()

	require.Contains(t, conflictTypes(a), "ward_understaffed")
	for _, c := range a.conflicts {
		if c.Type == "ward_understaffed" {
			assert.Equal(t, model.SeverityWarning, c.Severity)
		}
	}
}

func TestAllocateWards_SeniorReleasedWhenJuniorCoverSufficient(t *testing.T) {
	// With the ward already at ideal on junior cover, the band 8a is
	// released to management time
	j1 := pharmacist("j1", model.Band7)
	j1.PrimaryDirectorate = "Medicine"
	j2 := pharmacist("j2", model.Band6)
	j2.PrimaryDirectorate = "Medicine"
	senior := pharmacist("senior", model.Band8a)
	senior.PrimaryDirectorate = "Medicine"
	senior.PrimaryWards = []string{"Ward1"}

	a := newTestAllocator(Config{
		Staff: []model.Staff{j1, j2, senior},
		Directorates: []model.Directorate{
			singleWardDirectorate("Medicine", "Ward1", 1, 2),
		},
	})
	a.allocateWards()

	assert.Empty(t, wardAssignments(a, "senior"))
	assert.True(t, a.inManagement("senior"))
	assert.Equal(t, 2.0, a.wardHeadcount("Ward1"))
}

func TestAllocateWards_NobodyLeftUnassigned(t *testing.T) {
	staff := []model.Staff{
		pharmacist("p1", model.Band6),
		pharmacist("p2", model.Band6),
		pharmacist("p3", model.Band7),
		pharmacist("p4", model.Band7),
	}

	a := newTestAllocator(Config{
		Staff: staff,
		Directorates: []model.Directorate{
			singleWardDirectorate("Medicine", "Ward1", 1, 1),
		},
	})
	a.allocateWards()

	assert.Empty(t, a.pool)
	for _, s := range staff {
		placed := len(wardAssignments(a, s.ID)) > 0 || a.inManagement(s.ID)
		assert.True(t, placed, "staff %s left without any assignment", s.ID)
	}
}

func TestAllocateWards_FullDayDispensaryStaffSkipWards(t *testing.T) {
	onDispensary := pharmacist("onDispensary", model.Band6)
	other := pharmacist("other", model.Band7)

	a := newTestAllocator(Config{
		Staff: []model.Staff{onDispensary, other},
		Directorates: []model.Directorate{
			singleWardDirectorate("Medicine", "Ward1", 1, 1),
		},
	})
	a.fullDayDispensary["onDispensary"] = true
	a.allocateWards()

	assert.Empty(t, wardAssignments(a, "onDispensary"))
	assert.Equal(t, []string{"Ward1"}, wardAssignments(a, "other"))
}

// End-to-end shape check: a home-warded junior keeps their ward, the
// senior ends in management, and lone cover elsewhere is reported.
func TestAllocateWards_TypicalDayShape(t *testing.T) {
	junior := pharmacist("junior", model.Band6)
	junior.PrimaryWards = []string{"Ward1"}
	junior.PrimaryDirectorate = "Medicine"
	junior.IsDefaultStaff = true

	senior := pharmacist("senior", model.Band8a)
	senior.PrimaryDirectorate = "Medicine"

	floater := pharmacist("floater", model.Band7)

	a := newTestAllocator(Config{
		Staff: []model.Staff{junior, senior, floater},
		Directorates: []model.Directorate{
			singleWardDirectorate("Medicine", "Ward1", 1, 1),
			singleWardDirectorate("Surgery", "Ward2", 1, 1),
		},
	})
	a.allocateWards()

	assert.Equal(t, []string{"Ward1"}, wardAssignments(a, "junior"))
	assert.Equal(t, []string{"Ward2"}, wardAssignments(a, "floater"))
	assert.True(t, a.inManagement("senior"))
	assert.Empty(t, conflictTypes(a))
}
