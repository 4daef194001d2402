// Package web wires the fiber application: middleware, health and metrics
// endpoints and the route handlers.
package web

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path"
	"strconv"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/RefractoryERP/RefractoryERP/internal/auth"
	"github.com/RefractoryERP/RefractoryERP/internal/config"
	fiberlog "github.com/RefractoryERP/RefractoryERP/internal/logger/adapter/fiber"
	"github.com/RefractoryERP/RefractoryERP/internal/web/handler"
	"github.com/RefractoryERP/RefractoryERP/internal/web/handler/auth/oidc"
	"github.com/RefractoryERP/RefractoryERP/internal/web/handler/config/permission"
	"github.com/RefractoryERP/RefractoryERP/internal/web/handler/config/role"
	"github.com/RefractoryERP/RefractoryERP/internal/web/handler/config/user"
	"github.com/RefractoryERP/RefractoryERP/internal/web/handler/dashboard"
	"github.com/RefractoryERP/RefractoryERP/internal/web/handler/equipment/category"
	"github.com/RefractoryERP/RefractoryERP/internal/web/handler/equipment/categorytype"
	"github.com/RefractoryERP/RefractoryERP/internal/web/handler/equipment/item"
	"github.com/RefractoryERP/RefractoryERP/internal/web/handler/login"
	"github.com/RefractoryERP/RefractoryERP/internal/web/handler/logout"
	"github.com/RefractoryERP/RefractoryERP/internal/web/handler/refractory"
)

const (
	// AppName is reported in the server header and the logs.
	AppName = "RefractoryERP"

	// MetricsPath serves the prometheus metrics.
	MetricsPath = "/metrics"

	requestIDLocalsKey = "requestid"
)

// Service represents the web service.
type Service struct {
	App          *fiber.App
	cfg          *config.Config
	fastShutDown bool
	alive        atomic.Bool
	db           *gorm.DB
	authService  *auth.Service
}

// Start listens on the given address until the app is shut down.
func (s *Service) Start(addr string) error {
	log.Info().Str("addr", addr).Msg("starting http server")

	if err := s.App.Listen(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err //nolint:wrapcheck
	}

	return nil
}

// WaitShutdown waits for SIGINT, SIGTERM or the end of ctx and shuts the app down gracefully.
func (s *Service) WaitShutdown(ctx context.Context) error {
	irqSig := make(chan os.Signal, 1)
	signal.Notify(irqSig, syscall.SIGINT, syscall.SIGTERM)

	defer signal.Stop(irqSig)

	select {
	case sig := <-irqSig:
		log.Info().Msgf("shutdown request (signal: %v)", sig)
	case <-ctx.Done():
		log.Info().Msg("shutdown request (context done)")
	}

	// Graceful shutdown for reverse proxies: set status to fail, so checkalive returns fail.
	if !s.fastShutDown && ctx.Err() == nil {
		log.Info().Msgf(
			"graceful shutdown: return 503 while %d seconds to let LB to remove this pod from active targets",
			s.cfg.Webserver.ShutDownTime,
		)

		s.alive.Store(false)
		time.Sleep(time.Duration(s.cfg.Webserver.ShutDownTime) * time.Second)
	}

	log.Info().Msg("stopping http server ...")

	if err := s.App.Shutdown(); err != nil {
		return err //nolint:wrapcheck
	}

	log.Info().Msg("http server was stopped ... good bye...")

	return nil
}

// Alive reports whether the checkalive endpoint answers healthy.
func (s *Service) Alive() bool {
	return s.alive.Load()
}

// New creates a new web service with the given configuration.
func New(cfg *config.Config, db *gorm.DB) *Service {
	if cfg == nil {
		panic("config cannot be nil")
	}

	if db == nil {
		panic("db cannot be nil")
	}

	handler.RegisterDecoders()

	// create fiber app
	app := fiber.New(
		fiber.Config{
			ReadBufferSize: 8192, //nolint:mnd
			AppName:        AppName,
			CaseSensitive:  true,
			Prefork:        false,
			Immutable:      true,
			ErrorHandler:   handler.ErrorHandler,
		},
	)

	authService := auth.NewService(db, cfg.Auth.Disabled)

	service := &Service{
		cfg:          cfg,
		App:          app,
		db:           db,
		authService:  authService,
		fastShutDown: cfg.DevMode,
	}
	service.alive.Store(true)

	if cfg.Auth.Disabled {
		log.Warn().Msg("authentication disabled: every request is allowed")
	}

	if !cfg.Webserver.DisableRecover {
		app.Use(recover.New(recover.Config{EnableStackTrace: cfg.DevMode}))
	}

	if cfg.Webserver.CleanPath {
		app.Use(cleanPath)
	}

	app.Use(requestid.New(requestid.Config{
		Generator:  uuid.NewString,
		ContextKey: requestIDLocalsKey,
	}))

	app.Use(fiberlog.New(fiberlog.Config{
		Config:        cfg.Log,
		CheckAliveURI: cfg.Webserver.CheckAliveURI,
		RequestIDKey:  requestIDLocalsKey,
		UserKey:       auth.LocalsUser,
	}))

	app.Get(cfg.Webserver.CheckAliveURI, service.checkAlive)
	app.Get(MetricsPath, adaptor.HTTPHandler(promhttp.Handler()))

	// handlers register their own routes with permission checks
	for _, h := range []handler.Service{
		&login.Handler,
		&oidc.Handler,
		&logout.Handler,
		&dashboard.Handler,
		&categorytype.Handler,
		&category.Handler,
		&item.Handler,
		&role.Handler,
		&permission.Handler,
		&user.Handler,
		&refractory.Handler,
	} {
		h.Init(app, cfg, db, authService)
	}

	app.Get(handler.RootPath, func(c *fiber.Ctx) error {
		return c.Redirect(dashboard.Path)
	})

	return service
}

func (s *Service) checkAlive(c *fiber.Ctx) error {
	if !s.alive.Load() {
		return c.Status(fiber.StatusServiceUnavailable).SendString("shutting down")
	}

	return c.SendString("OK")
}

// cleanPath collapses repeated slashes, e.g. //equipment///items.
func cleanPath(c *fiber.Ctx) error {
	p := c.Path()
	if strings.Contains(p, "//") {
		cleaned := path.Clean(p)
		if strings.HasSuffix(p, "/") && cleaned != "/" {
			cleaned += "/"
		}

		c.Path(cleaned)
	}

	return c.Next()
}

// Addr returns the listen address for the configured port.
func Addr(cfg *config.Config) string {
	return ":" + strconv.Itoa(cfg.Webserver.Port)
}
