// Package daemon wires database, sessions and the web service together.
package daemon

import (
	"context"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	sessionmysql "github.com/gofiber/storage/mysql/v2"
	sessionpostgres "github.com/gofiber/storage/postgres/v3"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	gormmysql "gorm.io/driver/mysql"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/RefractoryERP/RefractoryERP/internal/config"
	"github.com/RefractoryERP/RefractoryERP/internal/db/dsn"
	"github.com/RefractoryERP/RefractoryERP/internal/db/models"
	"github.com/RefractoryERP/RefractoryERP/internal/web"
	"github.com/RefractoryERP/RefractoryERP/internal/web/session"
)

const (
	sessionTable       = "sessions"
	slowQueryThreshold = 200 * time.Millisecond
)

// ErrConfigNil is returned when no configuration was given.
var ErrConfigNil = errors.New("config is nil")

// Daemon represents the main application daemon.
type Daemon struct {
	cfg        *config.Config
	db         *gorm.DB
	webService *web.Service
}

// gormWriter sends gorm log lines to zerolog.
type gormWriter struct {
	level zerolog.Level
}

// Printf implements gorm's logger.Writer.
func (w gormWriter) Printf(format string, args ...any) {
	log.WithLevel(w.level).Str("component", "gorm").Msgf(format, args...)
}

// Dialector returns the gorm dialector for the configured engine.
func Dialector(cfg *config.Config) (gorm.Dialector, error) {
	switch cfg.DB.GormEngine {
	case config.GormEngineMySQL:
		return gormmysql.Open(dsn.Create(cfg)), nil
	case config.GormEnginePostgres:
		return gormpostgres.Open(dsn.Create(cfg)), nil
	case config.GormEngineSQLite:
		return sqlite.Open(dsn.Create(cfg)), nil
	default:
		return nil, errors.Wrap(config.ErrUnknownGormEngine, cfg.DB.GormEngine)
	}
}

// Open connects to the configured database.
func Open(cfg *config.Config) (*gorm.DB, error) {
	if cfg == nil {
		return nil, ErrConfigNil
	}

	dialector, err := Dialector(cfg)
	if err != nil {
		return nil, err
	}

	logLevel := gormlogger.Warn
	if cfg.DevMode {
		logLevel = gormlogger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.New(gormWriter{level: zerolog.DebugLevel}, gormlogger.Config{
			SlowThreshold:             slowQueryThreshold,
			LogLevel:                  logLevel,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect database")
	}

	return db, nil
}

// Migrate creates or updates all tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return errors.Wrap(err, "failed to migrate database")
	}

	return nil
}

// SessionStorage returns the session backend for the configured engine.
// A nil storage makes the session store keep sessions in memory.
func SessionStorage(cfg *config.Config) fiber.Storage {
	switch cfg.DB.GormEngine {
	case config.GormEngineMySQL:
		return sessionmysql.New(sessionmysql.Config{
			Host:     cfg.DB.Host,
			Port:     cfg.DB.Port,
			Username: cfg.DB.User,
			Password: cfg.DB.Password,
			Database: cfg.DB.Name,
			Table:    sessionTable,
		})
	case config.GormEnginePostgres:
		return sessionpostgres.New(sessionpostgres.Config{
			Host:     cfg.DB.Host,
			Port:     cfg.DB.Port,
			Username: cfg.DB.User,
			Password: cfg.DB.Password,
			Database: cfg.DB.Name,
			Table:    sessionTable,
		})
	default:
		return nil
	}
}

// New opens and migrates the database, seeds it and prepares the web service.
func New(cfg *config.Config) (*Daemon, error) {
	if cfg == nil {
		return nil, ErrConfigNil
	}

	db, err := Open(cfg)
	if err != nil {
		return nil, err
	}

	if err = Migrate(db); err != nil {
		return nil, err
	}

	if _, err = Seed(cfg, db); err != nil {
		return nil, err
	}

	session.Init(SessionStorage(cfg), cfg.Webserver.Session.ExpiryTime)

	return &Daemon{
		cfg:        cfg,
		db:         db,
		webService: web.New(cfg, db),
	}, nil
}

// Start runs the web service until a shutdown signal arrives or ctx ends.
func (d *Daemon) Start(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return d.webService.Start(web.Addr(d.cfg))
	})

	g.Go(func() error {
		return d.webService.WaitShutdown(gCtx)
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("daemon: %w", err)
	}

	return nil
}
