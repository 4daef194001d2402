// Package category serves the category routes of the equipment area.
package category

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/RefractoryERP/RefractoryERP/internal/auth"
	"github.com/RefractoryERP/RefractoryERP/internal/config"
	controller "github.com/RefractoryERP/RefractoryERP/internal/db/controller/category"
	"github.com/RefractoryERP/RefractoryERP/internal/web/handler"
)

const (
	// Path is the path of the category routes.
	Path = handler.RootPath + "equipment/categories"
)

var known = []handler.Known{ //nolint:gochecknoglobals
	{Err: controller.ErrNotFound, Status: fiber.StatusNotFound, Message: "Category not found."},
	{Err: controller.ErrHasEquipment, Status: fiber.StatusConflict,
		Message: "Cannot delete this category because it still has equipment."},
	{Err: controller.ErrParentTrashed, Status: fiber.StatusConflict,
		Message: "Restore the category type of this category first."},
}

// Service is the category handler service.
type Service struct {
	handler.Service
	cfg *config.Config
	db  *gorm.DB
}

// Handler is the category handler.
var Handler = Service{}

// Init initializes the category handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, authService *auth.Service) {
	if app == nil || cfg == nil || db == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.db = db
	s.cfg = cfg

	read := auth.RequirePermission(authService, auth.PermCategoryRead)
	update := auth.RequirePermission(authService, auth.PermCategoryUpdate)
	remove := auth.RequirePermission(authService, auth.PermCategoryDelete)

	app.Route(Path, func(router fiber.Router) {
		router.Get(handler.RouterRootPath, read, s.List)
		router.Post(handler.RouterRootPath, auth.RequirePermission(authService, auth.PermCategoryCreate), s.Create)
		router.Get(handler.IDPath, read, s.Get)
		router.Put(handler.IDPath, update, s.Update)
		router.Patch(handler.IDPath+"/status", update, s.Status)
		router.Delete(handler.IDPath, remove, s.Delete)
		router.Post(handler.IDPath+"/restore", remove, s.Restore)
	})
}

// List answers one page of categories.
func (s *Service) List(c *fiber.Ctx) error {
	var q controller.Query
	if err := c.QueryParser(&q); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	page, err := controller.List(s.db, q)
	if err != nil {
		return handler.Fail(c, err, Path, known...)
	}

	return c.JSON(page)
}

// Get answers a single category.
func (s *Service) Get(c *fiber.Ctx) error {
	id, err := handler.ID(c)
	if err != nil {
		return err
	}

	cat, err := controller.GetByID(s.db, id)
	if err != nil {
		return handler.Fail(c, err, Path, known...)
	}

	return handler.Data(c, fiber.StatusOK, cat)
}

// Create stores a new category.
func (s *Service) Create(c *fiber.Ctx) error {
	var in controller.Input
	if err := handler.Parse(c, &in); err != nil {
		return handler.Fail(c, err, Path, known...)
	}

	cat, err := controller.Create(s.db, in)
	if err != nil {
		return handler.Fail(c, err, Path, known...)
	}

	return handler.Done(c, fiber.StatusCreated, "Category created.", cat, Path)
}

// Update revalidates and stores a category.
func (s *Service) Update(c *fiber.Ctx) error {
	id, err := handler.ID(c)
	if err != nil {
		return err
	}

	var in controller.Input
	if err = handler.Parse(c, &in); err != nil {
		return handler.Fail(c, err, Path, known...)
	}

	cat, err := controller.Update(s.db, id, in)
	if err != nil {
		return handler.Fail(c, err, Path, known...)
	}

	return handler.Done(c, fiber.StatusOK, "Category updated.", cat, Path)
}

// Status sets or toggles the status of a category.
func (s *Service) Status(c *fiber.Ctx) error {
	id, err := handler.ID(c)
	if err != nil {
		return err
	}

	var in handler.StatusForm
	if err = handler.Parse(c, &in); err != nil {
		return handler.Fail(c, err, Path, known...)
	}

	cat, err := controller.SetStatus(s.db, id, in.Target())
	if err != nil {
		return handler.Fail(c, err, Path, known...)
	}

	return handler.Done(c, fiber.StatusOK, "Category status updated.", cat, Path)
}

// Delete soft deletes a category.
func (s *Service) Delete(c *fiber.Ctx) error {
	id, err := handler.ID(c)
	if err != nil {
		return err
	}

	if err = controller.Delete(s.db, id); err != nil {
		return handler.Fail(c, err, Path, known...)
	}

	return handler.Done(c, fiber.StatusOK, "Category deleted.", nil, Path)
}

// Restore brings back a soft deleted category.
func (s *Service) Restore(c *fiber.Ctx) error {
	id, err := handler.ID(c)
	if err != nil {
		return err
	}

	cat, err := controller.Restore(s.db, id)
	if err != nil {
		return handler.Fail(c, err, Path, known...)
	}

	return handler.Done(c, fiber.StatusOK, "Category restored.", cat, Path)
}
