package db

import (
	"context"

	"github.com/jakechorley/pharmacy-rota/pkg/core/model"
)

// StaffStore defines the staff reference data operations
type StaffStore interface {
	GetStaffByIDs(ctx context.Context, ids []string) ([]model.Staff, error)
	ListStaff(ctx context.Context) ([]model.Staff, error)
}

// WardStore defines the ward structure operations
type WardStore interface {
	ListDirectorates(ctx context.Context) ([]model.Directorate, error)
}

// ClinicStore defines the clinic reference data operations. A nil or
// empty ids slice returns the clinics flagged for inclusion by default.
type ClinicStore interface {
	ListClinics(ctx context.Context, ids []string) ([]model.Clinic, error)
}

// RotaStore defines the rota persistence operations. ReplaceRota deletes
// any existing rota for the same date and inserts the new one in a
// single transaction, preserving the one-rota-per-date invariant.
type RotaStore interface {
	ReplaceRota(ctx context.Context, rota *model.Rota) error
	GetRotaByDate(ctx context.Context, date string) (*model.Rota, error)
	GetRotasByDates(ctx context.Context, dates []string) ([]model.Rota, error)
	SetRotaStatus(ctx context.Context, rotaID string, status model.RotaStatus) error
}
