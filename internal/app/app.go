package app

import (
	"context"

	"encore/config"
	"encore/internal/controllers"
	"encore/internal/database"
	"encore/internal/events"
	"encore/internal/handlers/middleware"
	"encore/internal/jobs"
	"encore/internal/logger"
	"encore/internal/repositories"
	"encore/internal/services"
	"encore/internal/websockets"
)

type App struct {
	Database   database.DB
	Middleware middleware.Middleware
	Websocket  *websockets.Manager
	EventBus   *events.EventBus
	Config     config.Config

	Services    services.Service
	Repository  repositories.Repository
	Controllers controllers.Controllers
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

	eventBus := events.New(db.Cache.Events, config)

	repos := repositories.New(db)

	svcs, err := services.New(db, config)
	if err != nil {
		return &App{}, log.Err("failed to create services", err)
	}

	ctrls := controllers.New(svcs, repos, eventBus, config, db)

	websocket, err := websockets.New(db, eventBus, config, repos.User)
	if err != nil {
		return &App{}, log.Err("failed to create websocket manager", err)
	}

	middleware := middleware.New(db, eventBus, config, repos)

	if config.SchedulerEnabled {
		expansionJob := jobs.NewSeriesExpansionJob(ctrls.Series, services.Daily)
		if err := svcs.Scheduler.AddJob(expansionJob); err != nil {
			return &App{}, log.Err("failed to register series expansion job", err)
		}
		log.Info("Registered series expansion job with scheduler")
	}

	app := &App{
		Database:    db,
		Config:      config,
		Middleware:  middleware,
		Websocket:   websocket,
		EventBus:    eventBus,
		Services:    svcs,
		Repository:  repos,
		Controllers: ctrls,
	}

	if err := app.validate(); err != nil {
		return &App{}, log.Err("failed to validate app", err)
	}

	return app, nil
}

func (a *App) validate() error {
	log := logger.New("app").Function("validate")

	if a.Database.SQL == nil {
		return log.ErrMsg("database is nil")
	}

	if a.Config == (config.Config{}) {
		return log.ErrMsg("config is nil")
	}

	nilChecks := []any{
		a.Websocket,
		a.EventBus,
		a.Services.Transaction,
		a.Services.Recurrence,
		a.Services.Catalog,
		a.Services.Scheduler,
		a.Controllers.Leaderboard,
		a.Controllers.Vote,
		a.Controllers.Setlist,
		a.Controllers.Series,
		a.Controllers.Song,
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
		a.EventBus.Close()
	}

	if a.Services.Scheduler != nil {
		if closeErr := a.Services.Scheduler.Stop(context.Background()); closeErr != nil {
			err = closeErr
		}
	}

	if dbErr := a.Database.Close(); dbErr != nil {
		err = dbErr
	}

	return err
}
