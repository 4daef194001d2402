// Package user serves the account configuration routes.
package user

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/RefractoryERP/RefractoryERP/internal/auth"
	"github.com/RefractoryERP/RefractoryERP/internal/config"
	controller "github.com/RefractoryERP/RefractoryERP/internal/db/controller/user"
	"github.com/RefractoryERP/RefractoryERP/internal/logger"
	"github.com/RefractoryERP/RefractoryERP/internal/validation"
	"github.com/RefractoryERP/RefractoryERP/internal/web/handler"
)

const (
	// Path is the path of the user routes.
	Path = handler.RootPath + "data/config/users"
)

var known = []handler.Known{ //nolint:gochecknoglobals
	{Err: controller.ErrNotFound, Status: fiber.StatusNotFound, Message: "User not found."},
	{Err: controller.ErrRoleNotFound, Status: fiber.StatusNotFound},
	{Err: auth.ErrUserNotFound, Status: fiber.StatusNotFound, Message: "Local user not found."},
}

// PasswordForm sets a new password for a local account.
type PasswordForm struct {
	Password string `json:"password" form:"password" validate:"required,min=8,max=128"`
}

// Service is the user handler service.
type Service struct {
	handler.Service
	cfg   *config.Config
	db    *gorm.DB
	local *auth.LocalProvider
}

// Handler is the user handler.
var Handler = Service{}

// Init initializes the user handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, authService *auth.Service) {
	if app == nil || cfg == nil || db == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.db = db
	s.cfg = cfg
	s.local = auth.NewLocalProvider(db)

	read := auth.RequirePermission(authService, auth.PermUserRead)

	app.Route(Path, func(router fiber.Router) {
		router.Get(handler.RouterRootPath, read, s.List)
		router.Post("/add", auth.RequirePermission(authService, auth.PermUserCreate), s.Create)
		router.Post("/assign-roles",
			auth.RequireAllPermissions(authService, auth.PermUserUpdate, auth.PermRoleRead), s.AssignRoles)
		router.Get(handler.IDPath, read, s.Get)
		router.Post(handler.IDPath+"/password", auth.RequirePermission(authService, auth.PermUserUpdate), s.SetPassword)
	})
}

// List answers all users with their roles.
func (s *Service) List(c *fiber.Ctx) error {
	users, err := controller.List(s.db)
	if err != nil {
		return handler.Fail(c, err, Path, known...)
	}

	return handler.Data(c, fiber.StatusOK, users)
}

// Get answers a single user.
func (s *Service) Get(c *fiber.Ctx) error {
	id, err := handler.ID(c)
	if err != nil {
		return err
	}

	u, err := controller.GetByID(s.db, id)
	if err != nil {
		return handler.Fail(c, err, Path, known...)
	}

	return handler.Data(c, fiber.StatusOK, u)
}

// Create stores a new local account.
func (s *Service) Create(c *fiber.Ctx) error {
	var in controller.CreateInput
	if err := handler.Parse(c, &in); err != nil {
		return handler.Fail(c, err, Path, known...)
	}

	u, err := controller.Create(s.db, in)
	if err != nil {
		return handler.Fail(c, err, Path, known...)
	}

	return handler.Done(c, fiber.StatusCreated, "User created.", u, Path)
}

// AssignRoles replaces the roles of a user.
func (s *Service) AssignRoles(c *fiber.Ctx) error {
	var in controller.AssignRolesInput
	if err := handler.Parse(c, &in); err != nil {
		return handler.Fail(c, err, Path, known...)
	}

	u, err := controller.AssignRoles(s.db, in)
	if err != nil {
		return handler.Fail(c, err, Path, known...)
	}

	return handler.Done(c, fiber.StatusOK, "Roles assigned.", u, Path)
}

// SetPassword replaces the password of a local account.
func (s *Service) SetPassword(c *fiber.Ctx) error {
	id, err := handler.ID(c)
	if err != nil {
		return err
	}

	var in PasswordForm
	if err = handler.Parse(c, &in); err != nil {
		return handler.Fail(c, err, Path, known...)
	}

	if err = validation.Struct(in); err != nil {
		return handler.Fail(c, err, Path, known...)
	}

	if err = s.local.ResetPassword(id, in.Password); err != nil {
		return handler.Fail(c, err, Path, known...)
	}

	logger.AuditEvent("user", "set_password").Uint("user_id", id).Msg("user password replaced")

	return handler.Done(c, fiber.StatusOK, "Password changed.", nil, Path)
}
