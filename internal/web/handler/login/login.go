package login

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/RefractoryERP/RefractoryERP/internal/auth"
	"github.com/RefractoryERP/RefractoryERP/internal/config"
	"github.com/RefractoryERP/RefractoryERP/internal/db/models"
	"github.com/RefractoryERP/RefractoryERP/internal/web/handler"
	"github.com/RefractoryERP/RefractoryERP/internal/web/handler/dashboard"
	"github.com/RefractoryERP/RefractoryERP/internal/web/session"
)

const (
	// Path is the path to the login page.
	Path = "/login"
)

// Form is the login form.
type Form struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// Service is the login handler service.
type Service struct {
	handler.Service
	cfg   *config.Config
	db    *gorm.DB
	local *auth.LocalProvider
	ldap  *auth.LDAPProvider
}

// Handler is the login handler.
var Handler = Service{}

// Init initializes the login handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, _ *auth.Service) {
	if app == nil || cfg == nil || db == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.db = db
	s.cfg = cfg
	s.local = auth.NewLocalProvider(db)

	if cfg.Auth.LDAP.Enabled {
		ldapProvider, err := auth.NewLDAPProvider(cfg.Auth.LDAP, db)
		if err != nil {
			log.Error().Err(err).Msg("ldap login unavailable")
		} else {
			s.ldap = ldapProvider
			go s.checkDirectory()
		}
	}

	// register routes
	app.Route(Path, func(router fiber.Router) {
		router.Get(handler.RouterRootPath, s.Get)
		router.Post(handler.RouterRootPath, s.Post)
	})
}

// checkDirectory logs whether the directory answers with the configured service account.
func (s *Service) checkDirectory() {
	logEvent := log.Info()

	err := s.ldap.TestConnection()
	if err != nil {
		logEvent = log.Warn().Err(err)
	}

	logEvent.Str("host", s.cfg.Auth.LDAP.Host).Int("port", s.cfg.Auth.LDAP.Port).
		Bool("reachable", err == nil).Msg("ldap directory check")
}

// Get answers which login methods are available and the pending flash, if any.
func (s *Service) Get(c *fiber.Ctx) error {
	out := fiber.Map{
		"local_db_enabled": true,
		"ldap_enabled":     s.ldap != nil,
		"oidc_enabled":     s.cfg.Auth.OIDC.Enabled,
	}

	if flash, ok, err := session.PullFlash(c); err == nil && ok {
		out["flash"] = flash
	}

	return handler.Data(c, fiber.StatusOK, out)
}

// Post handles the login form submission.
func (s *Service) Post(c *fiber.Ctx) error {
	form := new(Form)

	if err := c.BodyParser(form); err != nil {
		return s.fail(c, fiber.StatusBadRequest, ErrInvalidFormData)
	}

	form.Username = strings.TrimSpace(form.Username)
	if form.Username == "" || form.Password == "" {
		return s.fail(c, fiber.StatusBadRequest, ErrInvalidFormData)
	}

	user, err := s.authenticate(form.Username, form.Password)

	switch {
	case errors.Is(err, auth.ErrUserAccountDisabled):
		return s.fail(c, fiber.StatusForbidden, ErrAccountDisabled)
	case errors.Is(err, auth.ErrUserNotFound), errors.Is(err, auth.ErrInvalidPassword):
		log.Info().Str("username", form.Username).Msg("failed login")
		return s.fail(c, fiber.StatusUnauthorized, ErrInvalidCredentials)
	case err != nil:
		log.Error().Err(err).Str("username", form.Username).Msg("login failed")
		return s.fail(c, fiber.StatusInternalServerError, ErrInternalServerError)
	}

	if err = StartSession(c, s.cfg, user); err != nil {
		log.Error().Err(err).Msg("failed to start session")
		return s.fail(c, fiber.StatusInternalServerError, ErrInternalServerError)
	}

	log.Info().Str("username", user.Username).Str("auth_source", string(user.AuthSource)).Msg("user logged in")

	if handler.WantsJSON(c) {
		return handler.Data(c, fiber.StatusOK, user)
	}

	return c.Redirect(dashboard.Path, fiber.StatusSeeOther)
}

// authenticate tries the local account first and falls back to the directory.
func (s *Service) authenticate(username, password string) (*models.User, error) {
	user, err := s.local.Authenticate(username, password)
	if err == nil || s.ldap == nil || errors.Is(err, auth.ErrUserAccountDisabled) {
		return user, err //nolint:wrapcheck
	}

	if errors.Is(err, auth.ErrInvalidPassword) {
		// local accounts never fall back to the directory
		return nil, err //nolint:wrapcheck
	}

	return s.ldap.Authenticate(username, password) //nolint:wrapcheck
}

func (s *Service) fail(c *fiber.Ctx, status int, err error) error {
	if handler.WantsJSON(c) {
		return c.Status(status).JSON(fiber.Map{"message": err.Error()})
	}

	if errFlash := session.SetFlash(c, session.Flash{Type: session.FlashError, Message: err.Error()}); errFlash != nil {
		log.Error().Err(errFlash).Msg("failed to store flash message")
	}

	return c.Redirect(Path, fiber.StatusSeeOther)
}

// StartSession stores user under a new session id and sets the login cookie.
func StartSession(c *fiber.Ctx, cfg *config.Config, user *models.User) error {
	sessionID, err := session.GenerateSessionID()
	if err != nil {
		return fmt.Errorf("generate session id: %w", err)
	}

	userSession := &session.Data{
		User: session.User{ID: user.ID, Username: user.Username, Email: user.EmailAddress()},
	}

	if err = userSession.Write(sessionID, cfg.Webserver.Session.ExpiryTime); err != nil {
		return fmt.Errorf("write session: %w", err)
	}

	c.Cookie(Cookie(cfg, sessionID, int(cfg.Webserver.Session.ExpiryTime.Seconds())))

	return nil
}

// Cookie returns the login cookie. A negative maxAge removes it.
func Cookie(cfg *config.Config, value string, maxAge int) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     session.CookieName,
		Value:    value,
		MaxAge:   maxAge,
		Secure:   !cfg.DevMode,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	}
}
