// Package item serves the equipment item routes.
package item

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/RefractoryERP/RefractoryERP/internal/auth"
	"github.com/RefractoryERP/RefractoryERP/internal/config"
	controller "github.com/RefractoryERP/RefractoryERP/internal/db/controller/equipment"
	"github.com/RefractoryERP/RefractoryERP/internal/web/handler"
)

const (
	// Path is the path of the equipment item routes.
	Path = handler.RootPath + "equipment/items"
)

var known = []handler.Known{ //nolint:gochecknoglobals
	{Err: controller.ErrNotFound, Status: fiber.StatusNotFound, Message: "Equipment not found."},
	{Err: controller.ErrParentTrashed, Status: fiber.StatusConflict,
		Message: "Restore the category of this item first."},
}

// Service is the equipment item handler service.
type Service struct {
	handler.Service
	cfg *config.Config
	db  *gorm.DB
}

// Handler is the equipment item handler.
var Handler = Service{}

// Init initializes the equipment item handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, authService *auth.Service) {
	if app == nil || cfg == nil || db == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.db = db
	s.cfg = cfg

	read := auth.RequirePermission(authService, auth.PermEquipmentRead)
	update := auth.RequirePermission(authService, auth.PermEquipmentUpdate)
	remove := auth.RequirePermission(authService, auth.PermEquipmentDelete)

	app.Route(Path, func(router fiber.Router) {
		router.Get(handler.RouterRootPath, read, s.List)
		router.Post(handler.RouterRootPath, auth.RequirePermission(authService, auth.PermEquipmentCreate), s.Create)
		router.Get(handler.IDPath, read, s.Get)
		router.Put(handler.IDPath, update, s.Update)
		router.Patch(handler.IDPath+"/status", update, s.Status)
		router.Delete(handler.IDPath, remove, s.Delete)
		router.Post(handler.IDPath+"/restore", remove, s.Restore)
	})
}

// List answers one page of equipment.
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

// Get answers a single piece of equipment.
func (s *Service) Get(c *fiber.Ctx) error {
	id, err := handler.ID(c)
	if err != nil {
		return err
	}

	item, err := controller.GetByID(s.db, id)
	if err != nil {
		return handler.Fail(c, err, Path, known...)
	}

	return handler.Data(c, fiber.StatusOK, item)
}

// Create stores new equipment.
func (s *Service) Create(c *fiber.Ctx) error {
	var in controller.Input
	if err := handler.Parse(c, &in); err != nil {
		return handler.Fail(c, err, Path, known...)
	}

	item, err := controller.Create(s.db, in)
	if err != nil {
		return handler.Fail(c, err, Path, known...)
	}

	return handler.Done(c, fiber.StatusCreated, "Equipment created.", item, Path)
}

// Update revalidates and stores equipment.
func (s *Service) Update(c *fiber.Ctx) error {
	id, err := handler.ID(c)
	if err != nil {
		return err
	}

	var in controller.Input
	if err = handler.Parse(c, &in); err != nil {
		return handler.Fail(c, err, Path, known...)
	}

	item, err := controller.Update(s.db, id, in)
	if err != nil {
		return handler.Fail(c, err, Path, known...)
	}

	return handler.Done(c, fiber.StatusOK, "Equipment updated.", item, Path)
}

// Status sets or toggles the status of equipment.
func (s *Service) Status(c *fiber.Ctx) error {
	id, err := handler.ID(c)
	if err != nil {
		return err
	}

	var in handler.StatusForm
	if err = handler.Parse(c, &in); err != nil {
		return handler.Fail(c, err, Path, known...)
	}

	item, err := controller.SetStatus(s.db, id, in.Target())
	if err != nil {
		return handler.Fail(c, err, Path, known...)
	}

	return handler.Done(c, fiber.StatusOK, "Equipment status updated.", item, Path)
}

// Delete soft deletes equipment.
func (s *Service) Delete(c *fiber.Ctx) error {
	id, err := handler.ID(c)
	if err != nil {
		return err
	}

	if err = controller.Delete(s.db, id); err != nil {
		return handler.Fail(c, err, Path, known...)
	}

	return handler.Done(c, fiber.StatusOK, "Equipment deleted.", nil, Path)
}

// Restore brings back soft deleted equipment.
func (s *Service) Restore(c *fiber.Ctx) error {
	id, err := handler.ID(c)
	if err != nil {
		return err
	}

	item, err := controller.Restore(s.db, id)
	if err != nil {
		return handler.Fail(c, err, Path, known...)
	}

	return handler.Done(c, fiber.StatusOK, "Equipment restored.", item, Path)
}
