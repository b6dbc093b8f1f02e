package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/pharmacy-rota/pkg/core/model"
	"github.com/jakechorley/pharmacy-rota/pkg/export"
)

// PublishRotaStore defines the database operations needed for publishing
// a week's rotas
type PublishRotaStore interface {
	GetRotasByDates(ctx context.Context, dates []string) ([]model.Rota, error)
	ListStaff(ctx context.Context) ([]model.Staff, error)
	SetRotaStatus(ctx context.Context, rotaID string, status model.RotaStatus) error
}

// PublishRotaResult reports what was published and where
type PublishRotaResult struct {
	WeekStart      string
	PublishedRotas []string
	OutputPath     string
}

// PublishRota exports the week's draft rotas to a spreadsheet and flips
// them to published status. The week must start on a Monday.
func PublishRota(
	ctx context.Context,
	database PublishRotaStore,
	logger *zap.Logger,
	weekStart string,
	outputPath string,
) (*PublishRotaResult, error) {
	start, err := time.Parse(dateLayout, weekStart)
	if err != nil {
		return nil, fmt.Errorf("failed to parse week start %q: %w", weekStart, err)
	}
	if start.Weekday() != time.Monday {
		return nil, fmt.Errorf("publishing works on whole weeks, start date must be a Monday, got %s", start.Weekday())
	}

	dates := make([]string, 5)
	for i := range dates {
		dates[i] = start.AddDate(0, 0, i).Format(dateLayout)
	}

	logger.Debug("Fetching rotas for week", zap.Strings("dates", dates))
	rotas, err := database.GetRotasByDates(ctx, dates)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch rotas: %w", err)
	}
	if len(rotas) == 0 {
		return nil, fmt.Errorf("no rotas found for week starting %s - generate the week first", weekStart)
	}

	staff, err := database.ListStaff(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch staff: %w", err)
	}
	namesByID := make(map[string]string, len(staff))
	for _, s := range staff {
		namesByID[s.ID] = s.FullName()
	}

	if err := export.WriteWeekWorkbook(outputPath, rotas, namesByID); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	logger.Info("Workbook written", zap.String("path", outputPath))

	result := &PublishRotaResult{WeekStart: weekStart, OutputPath: outputPath}
	for _, rota := range rotas {
		if err := database.SetRotaStatus(ctx, rota.ID, model.StatusPublished); err != nil {
			return nil, fmt.Errorf("failed to publish rota %s: %w", rota.ID, err)
		}
		result.PublishedRotas = append(result.PublishedRotas, rota.ID)
	}

	logger.Info("Week published",
		zap.String("week_start", weekStart),
		zap.Int("rotas", len(result.PublishedRotas)))

	return result, nil
}
