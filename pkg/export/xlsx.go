// Package export renders generated rotas as spreadsheets for circulation
// to the pharmacy team.
package export

import (
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/jakechorley/pharmacy-rota/pkg/core/model"
)

var assignmentColumns = []struct {
	Header string
	Type   model.AssignmentType
}{
	{"Wards", model.AssignmentWard},
	{"Clinics", model.AssignmentClinic},
	{"Dispensary", model.AssignmentDispensary},
	{"Management", model.AssignmentManagement},
}

// WriteWeekWorkbook writes one sheet per rota date, each listing staff
// duties grouped by assignment type, plus a Conflicts sheet when any
// day carries unmet-coverage warnings.
func WriteWeekWorkbook(path string, rotas []model.Rota, staffNames map[string]string) error {
	ordered := make([]model.Rota, len(rotas))
	copy(ordered, rotas)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Date < ordered[j].Date })

	f := excelize.NewFile()
	defer f.Close()

	var hasConflicts bool
	for i, rota := range ordered {
		sheet := rota.Date
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return fmt.Errorf("failed to rename sheet: %w", err)
			}
		} else {
			if _, err := f.NewSheet(sheet); err != nil {
				return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
			}
		}
		if err := writeDaySheet(f, sheet, rota, staffNames); err != nil {
			return err
		}
		if len(rota.Conflicts) > 0 {
			hasConflicts = true
		}
	}

	if hasConflicts {
		if err := writeConflictsSheet(f, ordered); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

func writeDaySheet(f *excelize.File, sheet string, rota model.Rota, staffNames map[string]string) error {
	headers := []interface{}{"Staff", "Duty", "Location", "Start", "End"}
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return fmt.Errorf("failed to write header on %s: %w", sheet, err)
	}

	row := 2
	for _, col := range assignmentColumns {
		for _, asn := range rota.Assignments {
			if asn.Type != col.Type {
				continue
			}
			name := staffNames[asn.StaffID]
			if name == "" {
				name = asn.StaffID
			}
			duty := string(asn.Type)
			if asn.IsLunchCover {
				duty = "lunch cover"
			}
			cells := []interface{}{name, duty, asn.Location, asn.StartTime, asn.EndTime}
			cell := fmt.Sprintf("A%d", row)
			if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
				return fmt.Errorf("failed to write row on %s: %w", sheet, err)
			}
			row++
		}
	}
	return nil
}

func writeConflictsSheet(f *excelize.File, rotas []model.Rota) error {
	const sheet = "Conflicts"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create conflicts sheet: %w", err)
	}
	headers := []interface{}{"Date", "Type", "Severity", "Description"}
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return fmt.Errorf("failed to write conflicts header: %w", err)
	}

	row := 2
	for _, rota := range rotas {
		for _, c := range rota.Conflicts {
			cells := []interface{}{rota.Date, c.Type, string(c.Severity), c.Description}
			cell := fmt.Sprintf("A%d", row)
			if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
				return fmt.Errorf("failed to write conflict row: %w", err)
			}
			row++
		}
	}
	return nil
}
