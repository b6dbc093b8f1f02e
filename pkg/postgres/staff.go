package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jakechorley/pharmacy-rota/pkg/core/model"
)

const staffColumns = `id, first_name, last_name, band, warfarin_trained,
	specialist_training, primary_directorate, primary_wards,
	trained_directorates, is_default_staff, working_days, not_available_rules`

// GetStaffByIDs retrieves the staff records for the given IDs
func (d *DB) GetStaffByIDs(ctx context.Context, ids []string) ([]model.Staff, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT `+staffColumns+`
		FROM staff
		WHERE id = ANY($1)
		ORDER BY last_name, first_name
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query staff: %w", err)
	}
	defer rows.Close()

	return scanStaff(rows)
}

// ListStaff retrieves every staff record
func (d *DB) ListStaff(ctx context.Context) ([]model.Staff, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT `+staffColumns+`
		FROM staff
		ORDER BY last_name, first_name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query staff: %w", err)
	}
	defer rows.Close()

	return scanStaff(rows)
}

func scanStaff(rows pgx.Rows) ([]model.Staff, error) {
	var staff []model.Staff
	for rows.Next() {
		var s model.Staff
		var band string
		var primaryDirectorate *string
		var workingDays []int32
		var rulesJSON []byte
		if err := rows.Scan(
			&s.ID, &s.FirstName, &s.LastName, &band, &s.WarfarinTrained,
			&s.SpecialistTraining, &primaryDirectorate, &s.PrimaryWards,
			&s.TrainedDirectorates, &s.IsDefaultStaff, &workingDays, &rulesJSON,
		); err != nil {
			return nil, fmt.Errorf("failed to scan staff: %w", err)
		}
		s.Band = model.Band(band)
		if primaryDirectorate != nil {
			s.PrimaryDirectorate = *primaryDirectorate
		}
		for _, day := range workingDays {
			s.WorkingDays = append(s.WorkingDays, time.Weekday(day))
		}
		if err := json.Unmarshal(rulesJSON, &s.NotAvailableRules); err != nil {
			return nil, fmt.Errorf("failed to decode unavailability rules for staff %s: %w", s.ID, err)
		}
		staff = append(staff, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating staff: %w", err)
	}

	return staff, nil
}
