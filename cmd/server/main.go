// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	_ "dipcoater-service/docs"
	"dipcoater-service/internal/config"
	"dipcoater-service/internal/database"
	"dipcoater-service/internal/discovery"
	serialscanner "dipcoater-service/internal/discovery/serial"
	"dipcoater-service/internal/protocol"
	"dipcoater-service/internal/repository"
	"dipcoater-service/internal/routes"
	"dipcoater-service/internal/service"
	"dipcoater-service/internal/utils"
)

// Application represents the main application
type Application struct {
	config   *config.Config
	logger   *zap.Logger
	server   *http.Server
	router   *routes.Router
	database *database.DB

	eventBus *service.EventBus

	// Services
	programService *service.ProgramService
	deviceService  *service.DeviceService

	// Repositories
	programRepo repository.ProgramRepository
}

// @title Dip Coater Service API
// @version 1.0.0
// @description Program editor, storage and serial link for the dip coater controller

// @host localhost:8084
// @BasePath /api/v1
func main() {
	app, err := NewApplication()
	if err != nil {
		fmt.Printf("Failed to initialize application: %v\n", err)
		os.Exit(1)
	}

	if err := app.Start(); err != nil {
		app.logger.Fatal("Failed to start application", zap.Error(err))
	}
}

// NewApplication creates a new application instance
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := utils.NewLogger(&cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	serviceLogger := utils.NewServiceLogger(logger, "dipcoater-service")
	serviceLogger.LogServiceStart(cfg.App.Version, cfg.App)

	app := &Application{
		config: cfg,
		logger: logger,
	}

	if err := app.initializeRepositories(); err != nil {
		return nil, fmt.Errorf("failed to initialize repositories: %w", err)
	}

	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	if err := app.initializeServer(); err != nil {
		return nil, fmt.Errorf("failed to initialize server: %w", err)
	}

	return app, nil
}

// initializeDatabase sets up database connection and runs migrations
func (app *Application) initializeDatabase() error {
	db, err := database.NewConnection(&app.config.Database, app.logger)
	if err != nil {
		return fmt.Errorf("failed to create database connection: %w", err)
	}

	app.database = db

	if app.config.Database.MigrateOnStart {
		migrator := database.NewMigrator(db, app.logger, &app.config.Database)
		if err := migrator.Up(); err != nil {
			return fmt.Errorf("failed to run database migrations: %w", err)
		}
	}

	app.logger.Info("Database initialized successfully")
	return nil
}

// initializeRepositories creates the program repository for the configured backend
func (app *Application) initializeRepositories() error {
	switch app.config.Storage.Backend {
	case config.StoragePostgres:
		if err := app.initializeDatabase(); err != nil {
			return err
		}
		app.programRepo = repository.NewProgramRepository(app.database, app.logger)

	default:
		repo, err := repository.NewFileProgramRepository(app.config.Storage.ProgramsDir, app.logger)
		if err != nil {
			return err
		}
		app.programRepo = repo
	}

	app.logger.Info("Repositories initialized successfully",
		zap.String("backend", app.config.Storage.Backend),
	)
	return nil
}

// initializeServices creates service instances
func (app *Application) initializeServices() error {
	app.eventBus = service.NewEventBus(app.logger)

	scanners := discovery.NewScannerManager(app.logger)
	scanners.RegisterScanner(serialscanner.NewScanner(app.logger))

	serial := app.config.Serial
	opener := protocol.NewSerialOpener(protocol.SerialConfig{
		ReadTimeout: serial.PollInterval,
	}, app.logger)

	link := protocol.NewLink(protocol.LinkConfig{
		HandshakeTimeout: serial.HandshakeTimeout,
	}, opener, app.logger)

	app.deviceService = service.NewDeviceService(link, scanners, app.eventBus, app.config, app.logger)
	app.programService = service.NewProgramService(app.programRepo, app.eventBus, app.logger)

	app.logger.Info("Services initialized successfully",
		zap.Strings("scanners", scanners.GetAvailableScanners()),
	)
	return nil
}

// initializeServer sets up HTTP server and routes
func (app *Application) initializeServer() error {
	app.router = routes.NewRouter(
		app.config,
		app.logger,
		app.database,
		app.programService,
		app.deviceService,
		app.eventBus,
	)

	handler := app.router.SetupRouter()

	app.server = &http.Server{
		Addr:         app.config.GetServerAddr(),
		Handler:      handler,
		ReadTimeout:  app.config.Server.ReadTimeout,
		WriteTimeout: app.config.Server.WriteTimeout,
		IdleTimeout:  app.config.Server.IdleTimeout,
	}

	app.logger.Info("HTTP server initialized",
		zap.String("address", app.config.GetServerAddr()),
	)

	return nil
}

// waitForShutdown waits for shutdown signal and performs graceful shutdown
func (app *Application) waitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	app.logger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	app.shutdown()
}

// shutdown performs graceful shutdown. The device receives a disconnect
// notice before the event bus and database go away.
func (app *Application) shutdown() {
	serviceLogger := utils.NewServiceLogger(app.logger, "dipcoater-service")
	serviceLogger.LogServiceStop("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), app.config.Server.ShutdownTimeout)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("HTTP server shutdown error", zap.Error(err))
	} else {
		app.logger.Info("HTTP server stopped")
	}

	if err := app.deviceService.Close(); err != nil {
		app.logger.Error("Device link close error", zap.Error(err))
	} else {
		app.logger.Info("Device link closed")
	}

	app.eventBus.Stop()
	app.router.Close()

	if app.database != nil {
		if err := app.database.Close(); err != nil {
			app.logger.Error("Database close error", zap.Error(err))
		} else {
			app.logger.Info("Database connection closed")
		}
	}

	app.logger.Info("Application shutdown completed")

	if err := utils.CloseLogger(app.logger); err != nil {
		fmt.Printf("Logger close error: %v\n", err)
	}
}

// Start runs the HTTP server until a shutdown signal arrives
func (app *Application) Start() error {
	go app.eventBus.Start()

	go func() {
		app.logger.Info("Starting HTTP server",
			zap.String("address", app.server.Addr),
		)

		if err := app.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.logger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	app.waitForShutdown()

	return nil
}
