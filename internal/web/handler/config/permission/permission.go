// Package permission serves the permission configuration routes.
// Permissions are managed per module: one call creates, reshapes or deletes
// all module.action permissions of a module.
package permission

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/RefractoryERP/RefractoryERP/internal/auth"
	"github.com/RefractoryERP/RefractoryERP/internal/config"
	controller "github.com/RefractoryERP/RefractoryERP/internal/db/controller/permission"
	"github.com/RefractoryERP/RefractoryERP/internal/web/handler"
)

const (
	// Path is the path of the permission routes.
	Path = handler.RootPath + "data/config/permissions"

	keyPath = "/:key"
)

var known = []handler.Known{ //nolint:gochecknoglobals
	{Err: controller.ErrNotFound, Status: fiber.StatusNotFound, Message: "Permission not found."},
	{Err: controller.ErrModuleNotFound, Status: fiber.StatusNotFound, Message: "Permission module not found."},
}

// RenameForm is the body of a single permission update.
type RenameForm struct {
	Name string `json:"name" form:"name"`
}

// Service is the permission handler service.
type Service struct {
	handler.Service
	cfg *config.Config
	db  *gorm.DB
}

// Handler is the permission handler.
var Handler = Service{}

// Init initializes the permission handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, authService *auth.Service) {
	if app == nil || cfg == nil || db == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.db = db
	s.cfg = cfg

	app.Route(Path, func(router fiber.Router) {
		router.Get(handler.RouterRootPath, auth.RequirePermission(authService, auth.PermPermissionRead), s.List)
		router.Post("/add", auth.RequirePermission(authService, auth.PermPermissionCreate), s.Create)
		router.Put(keyPath, auth.RequirePermission(authService, auth.PermPermissionUpdate), s.Update)
		router.Delete(keyPath, auth.RequirePermission(authService, auth.PermPermissionDelete), s.Delete)
	})
}

// List answers all permissions, grouped by module with ?grouped=1.
func (s *Service) List(c *fiber.Ctx) error {
	if c.QueryBool("grouped") {
		groups, err := controller.Grouped(s.db)
		if err != nil {
			return handler.Fail(c, err, Path, known...)
		}

		return handler.Data(c, fiber.StatusOK, groups)
	}

	permissions, err := controller.List(s.db)
	if err != nil {
		return handler.Fail(c, err, Path, known...)
	}

	return handler.Data(c, fiber.StatusOK, permissions)
}

// Create adds the permissions of a module group. Existing ones are skipped.
func (s *Service) Create(c *fiber.Ctx) error {
	var in controller.GroupInput
	if err := handler.Parse(c, &in); err != nil {
		return handler.Fail(c, err, Path, known...)
	}

	res, err := controller.CreateGroup(s.db, in)
	if err != nil {
		return handler.Fail(c, err, Path, known...)
	}

	return handler.Done(c, fiber.StatusCreated, "Permissions created.", res, Path)
}

// Update renames a single permission for a numeric key and reshapes a module otherwise.
func (s *Service) Update(c *fiber.Ctx) error {
	key := c.Params("key")

	if id, ok := numericID(key); ok {
		var in RenameForm
		if err := handler.Parse(c, &in); err != nil {
			return handler.Fail(c, err, Path, known...)
		}

		p, err := controller.Rename(s.db, id, in.Name)
		if err != nil {
			return handler.Fail(c, err, Path, known...)
		}

		return handler.Done(c, fiber.StatusOK, "Permission updated.", p, Path)
	}

	var in controller.GroupInput
	if err := handler.Parse(c, &in); err != nil {
		return handler.Fail(c, err, Path, known...)
	}

	permissions, err := controller.UpdateGroup(s.db, key, in)
	if err != nil {
		return handler.Fail(c, err, Path, known...)
	}

	return handler.Done(c, fiber.StatusOK, "Permissions updated.", permissions, Path)
}

// Delete removes a single permission for a numeric key and a whole module otherwise.
func (s *Service) Delete(c *fiber.Ctx) error {
	key := c.Params("key")

	if id, ok := numericID(key); ok {
		if err := controller.Delete(s.db, id); err != nil {
			return handler.Fail(c, err, Path, known...)
		}

		return handler.Done(c, fiber.StatusOK, "Permission deleted.", nil, Path)
	}

	count, err := controller.DeleteModule(s.db, key)
	if err != nil {
		return handler.Fail(c, err, Path, known...)
	}

	return handler.Done(c, fiber.StatusOK, "Permissions deleted.", fiber.Map{"module": key, "deleted": count}, Path)
}

func numericID(key string) (uint, bool) {
	id, err := strconv.ParseUint(key, 10, 0)
	if err != nil || id == 0 {
		return 0, false
	}

	return uint(id), true
}
