package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jakechorley/pharmacy-rota/pkg/core/model"
)

// ReplaceRota deletes any existing rota for the same date and inserts the
// new rota with its assignments and conflicts in a single transaction.
// This preserves the one-rota-per-date invariant and guarantees a failed
// generation never leaves a half-written rota behind.
func (d *DB) ReplaceRota(ctx context.Context, rota *model.Rota) error {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM rota WHERE date = $1`, rota.Date); err != nil {
		return fmt.Errorf("failed to delete existing rota: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO rota (id, date, status, generated_at)
		VALUES ($1, $2, $3, $4)
	`, rota.ID, rota.Date, string(rota.Status), rota.GeneratedAt); err != nil {
		return fmt.Errorf("failed to insert rota: %w", err)
	}

	for _, a := range rota.Assignments {
		if _, err := tx.Exec(ctx, `
			INSERT INTO rota_assignment (id, rota_id, staff_id, type, location, start_time, end_time, is_lunch_cover)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, a.ID, rota.ID, a.StaffID, string(a.Type), a.Location, a.StartTime, a.EndTime, a.IsLunchCover); err != nil {
			return fmt.Errorf("failed to insert assignment: %w", err)
		}
	}

	for _, c := range rota.Conflicts {
		if _, err := tx.Exec(ctx, `
			INSERT INTO rota_conflict (id, rota_id, type, severity, description)
			VALUES ($1, $2, $3, $4, $5)
		`, uuid.New().String(), rota.ID, c.Type, string(c.Severity), c.Description); err != nil {
			return fmt.Errorf("failed to insert conflict: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetRotaByDate retrieves the rota for one date, or nil if none exists
func (d *DB) GetRotaByDate(ctx context.Context, date string) (*model.Rota, error) {
	var rota model.Rota
	var rotaDate time.Time
	var status string
	err := d.pool.QueryRow(ctx, `
		SELECT id, date, status, generated_at FROM rota WHERE date = $1
	`, date).Scan(&rota.ID, &rotaDate, &status, &rota.GeneratedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query rota: %w", err)
	}
	rota.Date = rotaDate.Format("2006-01-02")
	rota.Status = model.RotaStatus(status)

	if err := d.loadRotaChildren(ctx, &rota); err != nil {
		return nil, err
	}
	return &rota, nil
}

// GetRotasByDates retrieves the rotas for the given dates, ordered by date
func (d *DB) GetRotasByDates(ctx context.Context, dates []string) ([]model.Rota, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, date, status, generated_at
		FROM rota
		WHERE date = ANY($1::date[])
		ORDER BY date
	`, dates)
	if err != nil {
		return nil, fmt.Errorf("failed to query rotas: %w", err)
	}
	defer rows.Close()

	var rotas []model.Rota
	for rows.Next() {
		var rota model.Rota
		var rotaDate time.Time
		var status string
		if err := rows.Scan(&rota.ID, &rotaDate, &status, &rota.GeneratedAt); err != nil {
			return nil, fmt.Errorf("failed to scan rota: %w", err)
		}
		rota.Date = rotaDate.Format("2006-01-02")
		rota.Status = model.RotaStatus(status)
		rotas = append(rotas, rota)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rotas: %w", err)
	}

	for i := range rotas {
		if err := d.loadRotaChildren(ctx, &rotas[i]); err != nil {
			return nil, err
		}
	}

	return rotas, nil
}

// SetRotaStatus updates a rota's lifecycle status
func (d *DB) SetRotaStatus(ctx context.Context, rotaID string, status model.RotaStatus) error {
	tag, err := d.pool.Exec(ctx, `
		UPDATE rota SET status = $2 WHERE id = $1
	`, rotaID, string(status))
	if err != nil {
		return fmt.Errorf("failed to update rota status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("rota %s not found", rotaID)
	}
	return nil
}

func (d *DB) loadRotaChildren(ctx context.Context, rota *model.Rota) error {
	rows, err := d.pool.Query(ctx, `
		SELECT id, staff_id, type, location, start_time, end_time, is_lunch_cover
		FROM rota_assignment
		WHERE rota_id = $1
		ORDER BY start_time, location, staff_id
	`, rota.ID)
	if err != nil {
		return fmt.Errorf("failed to query assignments: %w", err)
	}
	for rows.Next() {
		var a model.Assignment
		var kind string
		if err := rows.Scan(&a.ID, &a.StaffID, &kind, &a.Location, &a.StartTime, &a.EndTime, &a.IsLunchCover); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan assignment: %w", err)
		}
		a.Type = model.AssignmentType(kind)
		rota.Assignments = append(rota.Assignments, a)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating assignments: %w", err)
	}

	rows, err = d.pool.Query(ctx, `
		SELECT type, severity, description
		FROM rota_conflict
		WHERE rota_id = $1
		ORDER BY severity, type
	`, rota.ID)
	if err != nil {
		return fmt.Errorf("failed to query conflicts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var c model.Conflict
		var severity string
		if err := rows.Scan(&c.Type, &severity, &c.Description); err != nil {
			return fmt.Errorf("failed to scan conflict: %w", err)
		}
		c.Severity = model.ConflictSeverity(severity)
		rota.Conflicts = append(rota.Conflicts, c)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating conflicts: %w", err)
	}

	return nil
}
