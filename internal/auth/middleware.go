package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/RefractoryERP/RefractoryERP/internal/web/session"
)

const (
	// LocalsUser holds the username of the logged in user in fiber locals.
	LocalsUser = "username"
	// LocalsUserID holds the id of the logged in user in fiber locals.
	LocalsUserID = "user_id"

	loginPath = "/login"
)

// RequireLogin creates Fiber middleware that only admits logged in users.
func RequireLogin(authService *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if authService.Disabled() {
			return c.Next()
		}

		if _, ok := currentUser(c); !ok {
			return unauthorized(c)
		}

		return c.Next()
	}
}

// RequirePermission creates Fiber middleware that requires a specific permission.
func RequirePermission(authService *Service, permission string) fiber.Handler {
	return RequireAnyPermission(authService, permission)
}

// RequireAnyPermission creates Fiber middleware that requires at least one of the given permissions.
func RequireAnyPermission(authService *Service, permissions ...string) fiber.Handler {
	return requirePermissions(authService, authService.HasAnyPermission, permissions)
}

// RequireAllPermissions creates Fiber middleware that requires every given permission.
func RequireAllPermissions(authService *Service, permissions ...string) fiber.Handler {
	return requirePermissions(authService, authService.HasAllPermissions, permissions)
}

func requirePermissions(
	authService *Service,
	check func(userID uint, permissions []string) (bool, error),
	permissions []string,
) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if authService.Disabled() {
			return c.Next()
		}

		u, ok := currentUser(c)
		if !ok {
			return unauthorized(c)
		}

		hasPermission, err := check(u.ID, permissions)
		if err != nil {
			log.Error().Err(err).Uint("user_id", u.ID).Strs("permissions", permissions).
				Msg("Failed to check permissions")

			return fiber.ErrInternalServerError
		}

		if !hasPermission {
			log.Warn().Uint("user_id", u.ID).Str("username", u.Username).Strs("permissions", permissions).
				Msg("User lacks required permission")

			return deny(c, fiber.StatusForbidden, "Forbidden: You don't have permission to access this resource")
		}

		return c.Next()
	}
}

// currentUser reads the session cookie and stores the user in the locals.
func currentUser(c *fiber.Ctx) (session.User, bool) {
	sessionID := c.Cookies(session.CookieName)
	if sessionID == "" {
		return session.User{}, false
	}

	sessionData := new(session.Data)
	if err := sessionData.Read(sessionID); err != nil {
		log.Debug().Err(err).Msg("Failed to read session")
		return session.User{}, false
	}

	if sessionData.User.ID == 0 {
		log.Error().Msg("Invalid session data")
		return session.User{}, false
	}

	c.Locals(LocalsUser, sessionData.User.Username)
	c.Locals(LocalsUserID, sessionData.User.ID)

	return sessionData.User, true
}

func unauthorized(c *fiber.Ctx) error {
	if !wantsJSON(c) && c.Method() == fiber.MethodGet {
		return c.Redirect(loginPath)
	}

	return deny(c, fiber.StatusUnauthorized, "Unauthorized")
}

func deny(c *fiber.Ctx, status int, message string) error {
	if wantsJSON(c) {
		return c.Status(status).JSON(fiber.Map{"message": message})
	}

	return c.Status(status).SendString(message)
}

// wantsJSON reports whether the client asked for a JSON answer.
func wantsJSON(c *fiber.Ctx) bool {
	return strings.Contains(c.Get(fiber.HeaderAccept), fiber.MIMEApplicationJSON) ||
		strings.EqualFold(c.Get(fiber.HeaderXRequestedWith), "XMLHttpRequest")
}
