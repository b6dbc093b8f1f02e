package commands

import (
	"context"

	"go.uber.org/zap"

	"github.com/jakechorley/pharmacy-rota/internal/config"
	"github.com/jakechorley/pharmacy-rota/pkg/postgres"
)

// AppContext holds the application dependencies shared by all commands
type AppContext struct {
	Cfg      *config.Config
	Database *postgres.DB
	Logger   *zap.Logger
	Ctx      context.Context
}
