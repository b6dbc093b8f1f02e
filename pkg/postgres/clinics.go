package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jakechorley/pharmacy-rota/pkg/core/model"
)

// ListClinics retrieves clinics by ID; a nil or empty list returns those
// flagged for inclusion by default
func (d *DB) ListClinics(ctx context.Context, ids []string) ([]model.Clinic, error) {
	var rows pgx.Rows
	var err error
	if len(ids) == 0 {
		rows, err = d.pool.Query(ctx, `
			SELECT id, name, day_of_week, start_time, end_time,
			       preferred_pharmacists, requires_warfarin_training, include_by_default
			FROM clinic
			WHERE include_by_default
			ORDER BY day_of_week, start_time, name
		`)
	} else {
		rows, err = d.pool.Query(ctx, `
			SELECT id, name, day_of_week, start_time, end_time,
			       preferred_pharmacists, requires_warfarin_training, include_by_default
			FROM clinic
			WHERE id = ANY($1)
			ORDER BY day_of_week, start_time, name
		`, ids)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query clinics: %w", err)
	}
	defer rows.Close()

	var clinics []model.Clinic
	for rows.Next() {
		var c model.Clinic
		var dayOfWeek int
		if err := rows.Scan(
			&c.ID, &c.Name, &dayOfWeek, &c.StartTime, &c.EndTime,
			&c.PreferredPharmacists, &c.RequiresWarfarinTraining, &c.IncludeByDefaultInRota,
		); err != nil {
			return nil, fmt.Errorf("failed to scan clinic: %w", err)
		}
		// Stored ISO-style: 1-7 with Monday=1; time.Weekday is 0-6 with
		// Sunday=0
		c.DayOfWeek = time.Weekday(dayOfWeek % 7)
		clinics = append(clinics, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating clinics: %w", err)
	}

	return clinics, nil
}
