package export

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/jakechorley/pharmacy-rota/pkg/core/model"
)

func sampleRota(date string, conflicts []model.Conflict) model.Rota {
	return model.Rota{
		ID:     "r-" + date,
		Date:   date,
		Status: model.StatusDraft,
		Assignments: []model.Assignment{
			{ID: "a1", StaffID: "p1", Type: model.AssignmentWard, Location: "Ward1", StartTime: "00:00", EndTime: "23:59"},
			{ID: "a2", StaffID: "p2", Type: model.AssignmentDispensary, Location: "Dispensary", StartTime: "13:30", EndTime: "14:00", IsLunchCover: true},
		},
		Conflicts:   conflicts,
		GeneratedAt: time.Now().UTC(),
	}
}

func TestWriteWeekWorkbook_OneSheetPerDate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rota.xlsx")
	rotas := []model.Rota{
		sampleRota("2026-01-06", nil),
		sampleRota("2026-01-05", nil),
	}
	names := map[string]string{"p1": "Alice Smith", "p2": "Bob Jones"}

	require.NoError(t, WriteWeekWorkbook(path, rotas, names))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	// Sheets appear in date order regardless of input order
	sheets := f.GetSheetList()
	assert.Equal(t, []string{"2026-01-05", "2026-01-06"}, sheets)

	// Staff names are resolved and the lunch slot is labelled
	rows, err := f.GetRows("2026-01-05")
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(rows), 3)
	assert.Equal(t, []string{"Staff", "Duty", "Location", "Start", "End"}, rows[0])
	assert.Equal(t, "Alice Smith", rows[1][0])
	assert.Equal(t, "lunch cover", rows[2][1])
}

func TestWriteWeekWorkbook_ConflictsSheetOnlyWhenNeeded(t *testing.T) {
	dir := t.TempDir()

	clean := filepath.Join(dir, "clean.xlsx")
	require.NoError(t, WriteWeekWorkbook(clean, []model.Rota{sampleRota("2026-01-05", nil)}, nil))

	f, err := excelize.OpenFile(clean)
	require.NoError(t, err)
	assert.NotContains(t, f.GetSheetList(), "Conflicts")
	f.Close()

	conflicted := filepath.Join(dir, "conflicted.xlsx")
	rota := sampleRota("2026-01-05", []model.Conflict{
		{Type: "ward_understaffed", Severity: model.SeverityWarning, Description: "ward Ward2 has 0.0 pharmacists, minimum is 1"},
	})
	require.NoError(t, WriteWeekWorkbook(conflicted, []model.Rota{rota}, nil))

	f, err = excelize.OpenFile(conflicted)
	require.NoError(t, err)
	defer f.Close()
	require.Contains(t, f.GetSheetList(), "Conflicts")

	rows, err := f.GetRows("Conflicts")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"2026-01-05", "ward_understaffed", "warning", "ward Ward2 has 0.0 pharmacists, minimum is 1"}, rows[1])
}

func TestWriteWeekWorkbook_UnknownStaffFallsBackToID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rota.xlsx")
	require.NoError(t, WriteWeekWorkbook(path, []model.Rota{sampleRota("2026-01-05", nil)}, nil))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("2026-01-05")
	require.NoError(t, err)
	assert.Equal(t, "p1", rows[1][0])
}
