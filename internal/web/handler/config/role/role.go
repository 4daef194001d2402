// Package role serves the role configuration routes.
package role

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/RefractoryERP/RefractoryERP/internal/auth"
	"github.com/RefractoryERP/RefractoryERP/internal/config"
	controller "github.com/RefractoryERP/RefractoryERP/internal/db/controller/role"
	"github.com/RefractoryERP/RefractoryERP/internal/web/handler"
)

const (
	// Path is the path of the role routes.
	Path = handler.RootPath + "data/config/roles"
)

var known = []handler.Known{ //nolint:gochecknoglobals
	{Err: controller.ErrNotFound, Status: fiber.StatusNotFound, Message: "Role not found."},
	{Err: controller.ErrSystemRole, Status: fiber.StatusConflict, Message: "System roles can not be deleted."},
}

// Service is the role handler service.
type Service struct {
	handler.Service
	cfg *config.Config
	db  *gorm.DB
}

// Handler is the role handler.
var Handler = Service{}

// Init initializes the role handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, authService *auth.Service) {
	if app == nil || cfg == nil || db == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.db = db
	s.cfg = cfg

	read := auth.RequirePermission(authService, auth.PermRoleRead)

	app.Route(Path, func(router fiber.Router) {
		router.Get(handler.RouterRootPath, read, s.List)
		router.Post("/add", auth.RequirePermission(authService, auth.PermRoleCreate), s.Create)
		router.Post("/assign-permissions", auth.RequirePermission(authService, auth.PermRoleUpdate), s.AssignPermissions)
		router.Get(handler.IDPath, read, s.Get)
		router.Delete(handler.IDPath, auth.RequirePermission(authService, auth.PermRoleDelete), s.Delete)
	})
}

// List answers all roles with their permissions.
func (s *Service) List(c *fiber.Ctx) error {
	roles, err := controller.List(s.db)
	if err != nil {
		return handler.Fail(c, err, Path, known...)
	}

	return handler.Data(c, fiber.StatusOK, roles)
}

// Get answers a single role.
func (s *Service) Get(c *fiber.Ctx) error {
	id, err := handler.ID(c)
	if err != nil {
		return err
	}

	r, err := controller.GetByID(s.db, id)
	if err != nil {
		return handler.Fail(c, err, Path, known...)
	}

	return handler.Data(c, fiber.StatusOK, r)
}

// Create stores a new role.
func (s *Service) Create(c *fiber.Ctx) error {
	var in controller.CreateInput
	if err := handler.Parse(c, &in); err != nil {
		return handler.Fail(c, err, Path, known...)
	}

	r, err := controller.Create(s.db, in)
	if err != nil {
		return handler.Fail(c, err, Path, known...)
	}

	return handler.Done(c, fiber.StatusCreated, "Role created.", r, Path)
}

// AssignPermissions replaces the permissions of a role.
func (s *Service) AssignPermissions(c *fiber.Ctx) error {
	var in controller.AssignInput
	if err := handler.Parse(c, &in); err != nil {
		return handler.Fail(c, err, Path, known...)
	}

	r, err := controller.AssignPermissions(s.db, in)
	if err != nil {
		return handler.Fail(c, err, Path, known...)
	}

	return handler.Done(c, fiber.StatusOK, "Permissions assigned.", r, Path)
}

// Delete removes a role that is not a system role.
func (s *Service) Delete(c *fiber.Ctx) error {
	id, err := handler.ID(c)
	if err != nil {
		return err
	}

	if err = controller.Delete(s.db, id); err != nil {
		return handler.Fail(c, err, Path, known...)
	}

	return handler.Done(c, fiber.StatusOK, "Role deleted.", nil, Path)
}
