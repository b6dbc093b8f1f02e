package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/pharmacy-rota/cmd/cli/commands"
	"github.com/jakechorley/pharmacy-rota/internal/config"
	"github.com/jakechorley/pharmacy-rota/pkg/postgres"
	"github.com/jakechorley/pharmacy-rota/pkg/utils/logging"
)

var (
	env string
	app *commands.AppContext
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "cli",
		Short: "Pharmacy Rota CLI - Manage ward, clinic and dispensary rotas",
		Long:  `A CLI tool for generating and publishing daily and weekly pharmacy staff rotas.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app != nil {
				if app.Database != nil {
					app.Database.Close()
				}
				if app.Logger != nil {
					app.Logger.Sync()
				}
			}
		},
	}

	// Add persistent environment flag
	rootCmd.PersistentFlags().StringVarP(&env, "env", "e", "", "Environment (required: test, prod, etc.)")
	rootCmd.MarkPersistentFlagRequired("env")

	// Add all commands
	rootCmd.AddCommand(commands.GenerateRotaCmd(appRef()))
	rootCmd.AddCommand(commands.GenerateWeekCmd(appRef()))
	rootCmd.AddCommand(commands.PublishRotaCmd(appRef()))
	rootCmd.AddCommand(commands.ListStaffCmd(appRef()))
	rootCmd.AddCommand(commands.InteractiveCmd(appRef()))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// appRef returns the shared AppContext, allocating it before initApp has
// populated the dependencies so commands can capture the pointer
func appRef() *commands.AppContext {
	if app == nil {
		app = &commands.AppContext{Ctx: context.Background()}
	}
	return app
}

// initApp sets up logger, config and database
func initApp() error {
	var err error
	appRef()

	// Initialize logger
	app.Logger, err = logging.InitLogger(env)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	app.Logger.Info("Starting application", zap.String("environment", env))

	// Load configuration
	app.Logger.Info("Loading configuration")
	app.Cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	app.Logger.Debug("Configuration loaded successfully")

	// Connect to the database
	app.Logger.Info("Connecting to database")
	app.Database, err = postgres.NewDB(app.Ctx, app.Cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	app.Logger.Debug("Database connection established")

	// Apply pending migrations
	app.Logger.Info("Running database migrations")
	if err := app.Database.RunMigrations(app.Ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	app.Logger.Info("Database initialized successfully")

	return nil
}
