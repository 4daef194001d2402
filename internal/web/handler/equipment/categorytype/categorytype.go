// Package categorytype serves the category type routes of the equipment area.
package categorytype

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/RefractoryERP/RefractoryERP/internal/auth"
	"github.com/RefractoryERP/RefractoryERP/internal/config"
	controller "github.com/RefractoryERP/RefractoryERP/internal/db/controller/categorytype"
	"github.com/RefractoryERP/RefractoryERP/internal/db/controller/crud"
	"github.com/RefractoryERP/RefractoryERP/internal/web/handler"
)

const (
	// Path is the path of the category type routes.
	Path = handler.RootPath + "equipment/category-types"
)

var known = []handler.Known{ //nolint:gochecknoglobals
	{Err: controller.ErrNotFound, Status: fiber.StatusNotFound, Message: "Category type not found."},
	{Err: controller.ErrHasCategories, Status: fiber.StatusConflict,
		Message: "Cannot delete this category type because it still has categories."},
}

// Service is the category type handler service.
type Service struct {
	handler.Service
	cfg *config.Config
	db  *gorm.DB
}

// Handler is the category type handler.
var Handler = Service{}

// Init initializes the category type handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, authService *auth.Service) {
	if app == nil || cfg == nil || db == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.db = db
	s.cfg = cfg

	read := auth.RequirePermission(authService, auth.PermCategoryTypeRead)
	update := auth.RequirePermission(authService, auth.PermCategoryTypeUpdate)
	remove := auth.RequirePermission(authService, auth.PermCategoryTypeDelete)

	app.Route(Path, func(router fiber.Router) {
		router.Get(handler.RouterRootPath, read, s.List)
		router.Post(handler.RouterRootPath, auth.RequirePermission(authService, auth.PermCategoryTypeCreate), s.Create)
		router.Get(handler.IDPath, read, s.Get)
		router.Put(handler.IDPath, update, s.Update)
		router.Patch(handler.IDPath+"/status", update, s.Status)
		router.Delete(handler.IDPath, remove, s.Delete)
		router.Post(handler.IDPath+"/restore", remove, s.Restore)
	})
}

// List answers one page of category types.
// With ?active=1 it answers all active category types unpaged, as select box source.
func (s *Service) List(c *fiber.Ctx) error {
	if c.QueryBool("active") {
		types, err := controller.Active(s.db)
		if err != nil {
			return handler.Fail(c, err, Path, known...)
		}

		return handler.Data(c, fiber.StatusOK, types)
	}

	var q crud.Query
	if err := c.QueryParser(&q); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	page, err := controller.List(s.db, q)
	if err != nil {
		return handler.Fail(c, err, Path, known...)
	}

	return c.JSON(page)
}

// Get answers a single category type.
func (s *Service) Get(c *fiber.Ctx) error {
	id, err := handler.ID(c)
	if err != nil {
		return err
	}

	ct, err := controller.GetByID(s.db, id)
	if err != nil {
		return handler.Fail(c, err, Path, known...)
	}

	return handler.Data(c, fiber.StatusOK, ct)
}

// Create stores a new category type.
func (s *Service) Create(c *fiber.Ctx) error {
	var in controller.Input
	if err := handler.Parse(c, &in); err != nil {
		return handler.Fail(c, err, Path, known...)
	}

	ct, err := controller.Create(s.db, in)
	if err != nil {
		return handler.Fail(c, err, Path, known...)
	}

	return handler.Done(c, fiber.StatusCreated, "Category type created.", ct, Path)
}

// Update revalidates and stores a category type.
func (s *Service) Update(c *fiber.Ctx) error {
	id, err := handler.ID(c)
	if err != nil {
		return err
	}

	var in controller.Input
	if err = handler.Parse(c, &in); err != nil {
		return handler.Fail(c, err, Path, known...)
	}

	ct, err := controller.Update(s.db, id, in)
	if err != nil {
		return handler.Fail(c, err, Path, known...)
	}

	return handler.Done(c, fiber.StatusOK, "Category type updated.", ct, Path)
}

// Status sets or toggles the status of a category type.
func (s *Service) Status(c *fiber.Ctx) error {
	id, err := handler.ID(c)
	if err != nil {
		return err
	}

	var in handler.StatusForm
	if err = handler.Parse(c, &in); err != nil {
		return handler.Fail(c, err, Path, known...)
	}

	ct, err := controller.SetStatus(s.db, id, in.Target())
	if err != nil {
		return handler.Fail(c, err, Path, known...)
	}

	return handler.Done(c, fiber.StatusOK, "Category type status updated.", ct, Path)
}

// Delete soft deletes a category type.
func (s *Service) Delete(c *fiber.Ctx) error {
	id, err := handler.ID(c)
	if err != nil {
		return err
	}

	if err = controller.Delete(s.db, id); err != nil {
		return handler.Fail(c, err, Path, known...)
	}

	return handler.Done(c, fiber.StatusOK, "Category type deleted.", nil, Path)
}

// Restore brings back a soft deleted category type.
func (s *Service) Restore(c *fiber.Ctx) error {
	id, err := handler.ID(c)
	if err != nil {
		return err
	}

	ct, err := controller.Restore(s.db, id)
	if err != nil {
		return handler.Fail(c, err, Path, known...)
	}

	return handler.Done(c, fiber.StatusOK, "Category type restored.", ct, Path)
}
