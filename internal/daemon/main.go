// Package daemon assembles the application: database, migrations, seed data,
// session storage and the web service.
package daemon

import (
	"fmt"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/storage"
	sessionmysql "github.com/gofiber/storage/mysql/v2"
	sessionpostgres "github.com/gofiber/storage/postgres/v3"
	"github.com/rs/zerolog/log"
	gormmysql "gorm.io/driver/mysql"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/GoHR-Admin/GoHR-Admin/internal/config"
	"github.com/GoHR-Admin/GoHR-Admin/internal/db/dsn"
	"github.com/GoHR-Admin/GoHR-Admin/internal/db/models"
	"github.com/GoHR-Admin/GoHR-Admin/internal/web"
	"github.com/GoHR-Admin/GoHR-Admin/internal/web/session"
)

// Daemon represents the main application daemon.
type Daemon struct {
	cfg        *config.Config
	webService web.Service
}

// Start starts the Daemon's web service and blocks until shutdown.
func (d *Daemon) Start() error {
	go d.webService.WaitShutdown()

	return d.webService.Start(fmt.Sprintf(":%d", d.cfg.Webserver.Port))
}

// New creates a new Daemon instance with the provided configuration.
func New(cfg *config.Config) *Daemon {
	if cfg == nil {
		log.Fatal().Msg("config is nil")
		return nil
	}

	db, err := gorm.Open(openDialector(cfg), &gorm.Config{})
	if err != nil {
		log.Fatal().Err(err).Str("engine", cfg.DB.GormEngine).Msg("failed to connect database")
		return nil
	}

	if err = db.AutoMigrate(
		&models.Employee{},
		&models.Identity{},
		&models.Permission{},
		&models.LinkSuggestion{},
		&models.DocumentType{},
		&models.DocumentRequest{},
	); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
		return nil
	}

	seed(cfg, db)

	session.Init(sessionStorage(cfg))

	return &Daemon{
		cfg:        cfg,
		webService: *web.New(cfg, db),
	}
}

// openDialector picks the gorm driver by the configured engine. The sqlite
// engine is a pure Go driver, intended for dev setups and tests.
func openDialector(cfg *config.Config) gorm.Dialector {
	switch cfg.DB.GormEngine {
	case "postgres":
		return gormpostgres.Open(dsn.CreatePostgres(cfg))
	case "sqlite":
		return sqlite.Open(cfg.DB.Name)
	default:
		return gormmysql.Open(dsn.Create(cfg))
	}
}

// sessionStorage returns the session store backend matching the database
// engine. For sqlite the built-in memory store is used.
func sessionStorage(cfg *config.Config) storage.Storage {
	switch cfg.DB.GormEngine {
	case "postgres":
		return sessionpostgres.New(sessionpostgres.Config{
			ConnectionURI: dsn.CreatePostgres(cfg),
			Table:         "sessions",
		})
	case "sqlite":
		return nil
	default:
		return sessionmysql.New(sessionmysql.Config{
			ConnectionURI: dsn.Create(cfg),
			Table:         "sessions",
		})
	}
}
