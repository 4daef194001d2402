// Package session keeps logged in users and flash messages in the configured fiber storage.
package session

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
)

const (
	// CookieName names the login cookie holding the session id.
	CookieName = "session"

	flashKey     = "flash"
	oidcStateKey = "oidc_state"
)

var (
	// Store is the global session store instance.
	Store *session.Store //nolint:gochecknoglobals

	// ErrNoSession is returned when there is no stored session for an id.
	ErrNoSession = errors.New("no session")
)

// User is the part of an account kept in the session.
type User struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Data represents the session data structure.
type Data struct {
	User User `json:"user"`
}

// Flash is a one-shot message shown after a redirect.
type Flash struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

const (
	// FlashSuccess marks a flash for a completed action.
	FlashSuccess = "success"
	// FlashError marks a flash for a refused or invalid action.
	FlashError = "error"
)

// Write writes the session data for the given session ID with an expiration duration.
func (s *Data) Write(sessionID string, exp time.Duration) error {
	out, err := json.Marshal(s)
	if err != nil {
		return err //nolint:wrapcheck
	}

	return Store.Storage.Set(sessionID, out, exp) //nolint:wrapcheck
}

// Read reads the session data for the given session ID.
func (s *Data) Read(sessionID string) error {
	if sessionID == "" {
		return ErrNoSession
	}

	byteData, err := Store.Storage.Get(sessionID)
	if err != nil {
		return err //nolint:wrapcheck
	}

	if len(byteData) == 0 {
		return ErrNoSession
	}

	return json.Unmarshal(byteData, s) //nolint:wrapcheck
}

// Delete removes the session data for the given session ID.
func Delete(sessionID string) error {
	if sessionID == "" {
		return nil
	}

	return Store.Storage.Delete(sessionID) //nolint:wrapcheck
}

// Init initializes the session store with the provided storage backend.
// A nil storage keeps sessions in memory.
func Init(storage fiber.Storage, expiration time.Duration) {
	Store = session.New(session.Config{
		Storage:        storage,
		Expiration:     expiration,
		CookieHTTPOnly: true,
		CookieSameSite: fiber.CookieSameSiteLaxMode,
	})
}

// GenerateSessionID generates a new secure random session ID.
func GenerateSessionID() (string, error) {
	// 32 bytes = 256 bits
	b := make([]byte, 32) //nolint:mnd
	if _, err := rand.Read(b); err != nil {
		return "", err //nolint:wrapcheck
	}

	return hex.EncodeToString(b), nil
}

// SetFlash stores f for the next request of this client.
func SetFlash(c *fiber.Ctx, f Flash) error {
	sess, err := Store.Get(c)
	if err != nil {
		return err //nolint:wrapcheck
	}

	out, err := json.Marshal(f)
	if err != nil {
		return err //nolint:wrapcheck
	}

	sess.Set(flashKey, string(out))

	return sess.Save() //nolint:wrapcheck
}

// PullFlash returns and removes the pending flash. ok is false if there is none.
func PullFlash(c *fiber.Ctx) (Flash, bool, error) {
	var f Flash

	sess, err := Store.Get(c)
	if err != nil {
		return f, false, err //nolint:wrapcheck
	}

	raw, isString := sess.Get(flashKey).(string)
	if !isString || raw == "" {
		return f, false, nil
	}

	sess.Delete(flashKey)

	if err = sess.Save(); err != nil {
		return f, false, err //nolint:wrapcheck
	}

	if err = json.Unmarshal([]byte(raw), &f); err != nil {
		return f, false, err //nolint:wrapcheck
	}

	return f, true, nil
}

// SetOIDCState remembers the state sent to the OIDC provider for this client.
func SetOIDCState(c *fiber.Ctx, state string) error {
	sess, err := Store.Get(c)
	if err != nil {
		return err //nolint:wrapcheck
	}

	sess.Set(oidcStateKey, state)

	return sess.Save() //nolint:wrapcheck
}

// PullOIDCState returns and removes the remembered OIDC state, "" if there is none.
func PullOIDCState(c *fiber.Ctx) (string, error) {
	sess, err := Store.Get(c)
	if err != nil {
		return "", err //nolint:wrapcheck
	}

	state, _ := sess.Get(oidcStateKey).(string)
	if state == "" {
		return "", nil
	}

	sess.Delete(oidcStateKey)

	return state, sess.Save() //nolint:wrapcheck
}
