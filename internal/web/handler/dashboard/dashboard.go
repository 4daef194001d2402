// Package dashboard answers the landing page data: the visible menu, record
// counts and the pending flash message.
package dashboard

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/RefractoryERP/RefractoryERP/internal/auth"
	"github.com/RefractoryERP/RefractoryERP/internal/config"
	"github.com/RefractoryERP/RefractoryERP/internal/db/models"
	"github.com/RefractoryERP/RefractoryERP/internal/web/handler"
	"github.com/RefractoryERP/RefractoryERP/internal/web/navigation"
	"github.com/RefractoryERP/RefractoryERP/internal/web/session"
)

const (
	// Path is the path to the dashboard.
	Path = handler.RootPath + "dashboard"
)

// Counts holds the number of live records per area.
type Counts struct {
	CategoryTypes int64 `json:"category_types"`
	Categories    int64 `json:"categories"`
	Equipment     int64 `json:"equipment"`
	Users         int64 `json:"users"`
}

// Data is the dashboard payload.
type Data struct {
	Username    string               `json:"username,omitempty"`
	Permissions []string             `json:"permissions"`
	Menu        []navigation.Section `json:"menu"`
	Counts      Counts               `json:"counts"`
	Flash       *session.Flash       `json:"flash,omitempty"`
}

// Service is the dashboard handler service.
type Service struct {
	handler.Service
	cfg         *config.Config
	db          *gorm.DB
	authService *auth.Service
}

// Handler is the dashboard handler.
var Handler = Service{}

// Init initializes the dashboard handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, authService *auth.Service) {
	if app == nil || cfg == nil || db == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.db = db
	s.cfg = cfg
	s.authService = authService

	app.Get(Path, auth.RequireLogin(authService), s.Get)
}

// Get answers the dashboard data of the logged in user.
func (s *Service) Get(c *fiber.Ctx) error {
	var (
		data Data
		err  error
	)

	data.Username, _ = c.Locals(auth.LocalsUser).(string)

	switch userID, _ := c.Locals(auth.LocalsUserID).(uint); {
	case userID != 0:
		data.Permissions, err = s.authService.GetUserPermissions(userID)
		if err != nil {
			return handler.Fail(c, err, Path)
		}
	case s.authService.Disabled():
		data.Permissions, err = allPermissions(s.db)
		if err != nil {
			return handler.Fail(c, err, Path)
		}
	}

	if data.Permissions == nil {
		data.Permissions = []string{}
	}

	data.Menu = navigation.Visible(data.Permissions)

	if data.Counts, err = count(s.db); err != nil {
		return handler.Fail(c, err, Path)
	}

	flash, ok, err := session.PullFlash(c)
	if err != nil {
		log.Warn().Err(err).Msg("failed to read flash message")
	}

	if ok {
		data.Flash = &flash
	}

	return handler.Data(c, fiber.StatusOK, data)
}

func allPermissions(db *gorm.DB) ([]string, error) {
	var names []string
	if err := db.Model(&models.Permission{}).Order("name").Pluck("name", &names).Error; err != nil {
		return nil, fmt.Errorf("list permissions: %w", err)
	}

	return names, nil
}

func count(db *gorm.DB) (Counts, error) {
	var out Counts

	for model, target := range map[any]*int64{
		&models.CategoryType{}: &out.CategoryTypes,
		&models.Category{}:     &out.Categories,
		&models.Equipment{}:    &out.Equipment,
		&models.User{}:         &out.Users,
	} {
		if err := db.Model(model).Count(target).Error; err != nil {
			return out, fmt.Errorf("count records: %w", err)
		}
	}

	return out, nil
}
