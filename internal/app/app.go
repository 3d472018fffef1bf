package app

import (
	"context"
	"spooltrack/config"
	"spooltrack/internal/database"
	"spooltrack/internal/events"
	"spooltrack/internal/handlers/middleware"
	"spooltrack/internal/jobs"
	"spooltrack/internal/services"
	"spooltrack/internal/store"
	"spooltrack/internal/utils"
	"spooltrack/internal/websockets"

	logger "github.com/Bparsons0904/goLogger"
)

type App struct {
	Database   database.DB
	Middleware middleware.Middleware
	Websocket  *websockets.Manager
	EventBus   *events.EventBus
	Config     config.Config
	Clock      utils.Clock

	// Store
	Store *store.EntityStore

	// Services
	Validation       *services.ValidationService
	Integrity        *services.IntegrityService
	AutoPopulate     *services.AutoPopulateService
	Inventory        *services.InventoryService
	Transfer         *services.TransferService
	SchedulerService *services.SchedulerService
}

func New() (*App, error) {
	log := logger.New("app").Function("New")

	config, err := config.New()
	if err != nil {
		return &App{}, log.Err("failed to initialize config", err)
	}

	db, err := database.New(config)
	if err != nil {
		return &App{}, log.Err("failed to create database", err)
	}

	eventBus := events.New()
	clock := utils.NewClock()

	entityStore := store.New(db, eventBus, clock)
	if err := entityStore.Load(); err != nil {
		return &App{}, log.Err("failed to load inventory", err)
	}

	// Initialize services
	validationService := services.NewValidationService(entityStore, clock)
	integrityService := services.NewIntegrityService(entityStore)
	autoPopulateService := services.NewAutoPopulateService(entityStore)
	inventoryService := services.NewInventoryService(entityStore)
	transferService := services.NewTransferService(entityStore, clock)
	schedulerService := services.NewSchedulerService()

	websocket, err := websockets.New(eventBus, config)
	if err != nil {
		return &App{}, log.Err("failed to create websocket manager", err)
	}

	middleware := middleware.New(config)

	// Register jobs with scheduler if enabled
	if config.SchedulerEnabled {
		backupJob := jobs.NewBackupJob(transferService, clock, config, services.Daily)
		if err := schedulerService.AddJob(backupJob); err != nil {
			return &App{}, log.Err("failed to register backup job", err)
		}
		log.Info("Registered backup job with scheduler")
	}

	app := &App{
		Database:         db,
		Config:           config,
		Clock:            clock,
		Middleware:       middleware,
		Websocket:        websocket,
		EventBus:         eventBus,
		Store:            entityStore,
		Validation:       validationService,
		Integrity:        integrityService,
		AutoPopulate:     autoPopulateService,
		Inventory:        inventoryService,
		Transfer:         transferService,
		SchedulerService: schedulerService,
	}

	if err := app.validate(); err != nil {
		return &App{}, log.Err("failed to validate app", err)
	}

	return app, nil
}

func (a *App) validate() error {
	log := logger.New("app").Function("validate")

	if a.Config == (config.Config{}) {
		return log.ErrMsg("config is nil")
	}

	nilChecks := []any{
		a.Websocket,
		a.EventBus,
		a.Store,
		a.Validation,
		a.Integrity,
		a.AutoPopulate,
		a.Inventory,
		a.Transfer,
		a.SchedulerService,
		a.Middleware,
	}

	for _, check := range nilChecks {
		if check == nil {
			return log.ErrMsg("nil check failed")
		}
	}

	return nil
}

func (a *App) Close() (err error) {
	if a.EventBus != nil {
		if closeErr := a.EventBus.Close(); closeErr != nil {
			err = closeErr
		}
	}

	if a.SchedulerService != nil {
		if closeErr := a.SchedulerService.Stop(context.Background()); closeErr != nil {
			err = closeErr
		}
	}

	if dbErr := a.Database.Close(); dbErr != nil {
		err = dbErr
	}

	return err
}
