package postgres

import (
	"context"
	"fmt"

	"github.com/jakechorley/pharmacy-rota/pkg/core/model"
)

// ListDirectorates retrieves the full ward structure grouped by
// directorate, in configured display order
func (d *DB) ListDirectorates(ctx context.Context) ([]model.Directorate, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT w.name, w.directorate, w.is_active, w.min_pharmacists,
		       w.ideal_pharmacists, w.requires_special_training, w.training_type,
		       dir.position
		FROM ward w
		JOIN directorate dir ON dir.name = w.directorate
		ORDER BY dir.position, w.position
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query wards: %w", err)
	}
	defer rows.Close()

	var directorates []model.Directorate
	index := make(map[string]int)

	for rows.Next() {
		var w model.Ward
		var trainingType *string
		var dirPosition int
		if err := rows.Scan(
			&w.Name, &w.Directorate, &w.IsActive, &w.MinPharmacists,
			&w.IdealPharmacists, &w.RequiresSpecialTraining, &trainingType,
			&dirPosition,
		); err != nil {
			return nil, fmt.Errorf("failed to scan ward: %w", err)
		}
		if trainingType != nil {
			w.TrainingType = *trainingType
		}

		i, seen := index[w.Directorate]
		if !seen {
			i = len(directorates)
			index[w.Directorate] = i
			directorates = append(directorates, model.Directorate{Name: w.Directorate})
		}
		directorates[i].Wards = append(directorates[i].Wards, w)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating wards: %w", err)
	}

	return directorates, nil
}
