// Package oidc serves the OpenID Connect login: the redirect to the provider and its callback.
package oidc

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/RefractoryERP/RefractoryERP/internal/auth"
	"github.com/RefractoryERP/RefractoryERP/internal/config"
	"github.com/RefractoryERP/RefractoryERP/internal/web/handler"
	"github.com/RefractoryERP/RefractoryERP/internal/web/handler/dashboard"
	"github.com/RefractoryERP/RefractoryERP/internal/web/handler/login"
	"github.com/RefractoryERP/RefractoryERP/internal/web/session"
)

const (
	// LoginPath starts the OIDC login.
	LoginPath = handler.RootPath + "auth/oidc"

	// CallbackPath is where the provider sends the user back.
	CallbackPath = handler.RootPath + "auth/oidc/callback"

	httpTimeout = 10 * time.Second
)

var (
	// ErrUnavailable is returned while the provider could not be discovered.
	ErrUnavailable = errors.New("oidc login is not available")

	// ErrInvalidCallback is returned for a callback without code or with a foreign state.
	ErrInvalidCallback = errors.New("invalid oidc callback")

	// ErrLoginFailed is returned when the provider refused the login or the token did not verify.
	ErrLoginFailed = errors.New("oidc login failed")
)

// Service is the OIDC handler service.
type Service struct {
	handler.Service
	cfg *config.Config
	db  *gorm.DB

	mu       sync.Mutex
	provider *auth.OIDCProvider
}

// Handler is the OIDC handler.
var Handler = Service{} //nolint:gochecknoglobals

// Init registers the OIDC routes when OIDC is enabled.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, _ *auth.Service) {
	if app == nil || cfg == nil || db == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	if !cfg.Auth.OIDC.Enabled {
		return
	}

	s.cfg = cfg
	s.db = db

	if _, err := s.ready(); err != nil {
		log.Warn().Err(err).Str("provider", cfg.Auth.OIDC.ProviderURL).Msg("oidc provider not reachable, retrying on first login")
	}

	app.Get(LoginPath, s.Login)
	app.Get(CallbackPath, s.Callback)
}

// ready returns the provider, discovering it if an earlier attempt failed.
// The provider keeps the context for fetching signing keys, so it carries a
// client timeout instead of a deadline.
func (s *Service) ready() (*auth.OIDCProvider, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.provider != nil {
		return s.provider, nil
	}

	ctx := auth.OIDCClientContext(context.Background(), &http.Client{Timeout: httpTimeout})

	provider, err := auth.NewOIDCProvider(ctx, s.cfg.Auth.OIDC, s.db)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	s.provider = provider

	log.Info().Str("provider", s.cfg.Auth.OIDC.ProviderURL).Msg("oidc provider initialized")

	return provider, nil
}

// Login redirects to the provider with a fresh state kept in the client's session.
func (s *Service) Login(c *fiber.Ctx) error {
	provider, err := s.ready()
	if err != nil {
		log.Error().Err(err).Msg("oidc provider discovery failed")
		return s.fail(c, fiber.StatusServiceUnavailable, ErrUnavailable)
	}

	state, err := session.GenerateSessionID()
	if err != nil {
		log.Error().Err(err).Msg("failed to generate oidc state")
		return s.fail(c, fiber.StatusInternalServerError, login.ErrInternalServerError)
	}

	if err = session.SetOIDCState(c, state); err != nil {
		log.Error().Err(err).Msg("failed to store oidc state")
		return s.fail(c, fiber.StatusInternalServerError, login.ErrInternalServerError)
	}

	return c.Redirect(provider.AuthCodeURL(state), fiber.StatusFound)
}

// Callback checks the state, signs the user in and opens a session.
func (s *Service) Callback(c *fiber.Ctx) error {
	s.mu.Lock()
	provider := s.provider
	s.mu.Unlock()

	if provider == nil {
		return s.fail(c, fiber.StatusServiceUnavailable, ErrUnavailable)
	}

	if reason := c.Query("error"); reason != "" {
		log.Info().Str("error", reason).Str("description", c.Query("error_description")).Msg("oidc login refused by provider")
		return s.fail(c, fiber.StatusUnauthorized, ErrLoginFailed)
	}

	code, state := c.Query("code"), c.Query("state")

	want, err := session.PullOIDCState(c)
	if err != nil {
		log.Error().Err(err).Msg("failed to read oidc state")
		return s.fail(c, fiber.StatusInternalServerError, login.ErrInternalServerError)
	}

	if code == "" || state == "" || want == "" || subtle.ConstantTimeCompare([]byte(state), []byte(want)) != 1 {
		log.Warn().Msg("oidc callback with missing code or foreign state")
		return s.fail(c, fiber.StatusBadRequest, ErrInvalidCallback)
	}

	user, err := provider.HandleCallback(c.UserContext(), code)

	switch {
	case errors.Is(err, auth.ErrUserAccountDisabled):
		return s.fail(c, fiber.StatusForbidden, login.ErrAccountDisabled)
	case err != nil:
		log.Error().Err(err).Msg("oidc login failed")
		return s.fail(c, fiber.StatusUnauthorized, ErrLoginFailed)
	}

	if err = login.StartSession(c, s.cfg, user); err != nil {
		log.Error().Err(err).Msg("failed to start session")
		return s.fail(c, fiber.StatusInternalServerError, login.ErrInternalServerError)
	}

	log.Info().Str("username", user.Username).Str("auth_source", string(user.AuthSource)).Msg("user logged in")

	if handler.WantsJSON(c) {
		return handler.Data(c, fiber.StatusOK, user)
	}

	return c.Redirect(dashboard.Path, fiber.StatusSeeOther)
}

func (s *Service) fail(c *fiber.Ctx, status int, err error) error {
	if handler.WantsJSON(c) {
		return c.Status(status).JSON(fiber.Map{"message": err.Error()})
	}

	if errFlash := session.SetFlash(c, session.Flash{Type: session.FlashError, Message: err.Error()}); errFlash != nil {
		log.Error().Err(errFlash).Msg("failed to store flash message")
	}

	return c.Redirect(login.Path, fiber.StatusSeeOther)
}
