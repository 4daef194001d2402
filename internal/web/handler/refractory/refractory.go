// Package refractory serves the refractory area. The sections have no storage
// yet and answer empty collections.
package refractory

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/RefractoryERP/RefractoryERP/internal/auth"
	"github.com/RefractoryERP/RefractoryERP/internal/config"
	"github.com/RefractoryERP/RefractoryERP/internal/web/handler"
)

const (
	// Path is the root path of the refractory sections.
	Path = handler.RootPath + "refractory"
)

// Sections lists the refractory sections by path segment.
func Sections() []string {
	return []string{
		"specifications",
		"quality-control",
		"certifications",
		"documents",
		"batches",
		"performance",
	}
}

// Service is the refractory handler service.
type Service struct {
	handler.Service
	cfg *config.Config
}

// Handler is the refractory handler.
var Handler = Service{}

// Init initializes the refractory handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, _ *gorm.DB, authService *auth.Service) {
	if app == nil || cfg == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.cfg = cfg

	read := auth.RequirePermission(authService, auth.PermRefractoryRead)
	create := auth.RequirePermission(authService, auth.PermRefractoryCreate)

	for _, section := range Sections() {
		app.Route(Path+"/"+section, func(router fiber.Router) {
			router.Get(handler.RouterRootPath, read, s.Empty)
			router.Post(handler.RouterRootPath, create, s.Empty)
			router.Get(handler.IDPath, read, s.Empty)
		})
	}
}

// Empty answers an empty collection.
func (s *Service) Empty(c *fiber.Ctx) error {
	return handler.Data(c, fiber.StatusOK, []any{})
}
