package login

import (
	"encoding/json"
	"net"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RefractoryERP/RefractoryERP/internal/auth"
	"github.com/RefractoryERP/RefractoryERP/internal/config"
	"github.com/RefractoryERP/RefractoryERP/internal/db/controller/user"
	"github.com/RefractoryERP/RefractoryERP/internal/db/models"
	"github.com/RefractoryERP/RefractoryERP/internal/db/testdb"
	"github.com/RefractoryERP/RefractoryERP/internal/web/handler"
	"github.com/RefractoryERP/RefractoryERP/internal/web/handler/dashboard"
	"github.com/RefractoryERP/RefractoryERP/internal/web/session"
)

func newTestConfig() *config.Config {
	return &config.Config{
		DevMode: true,
		Webserver: config.Webserver{
			URL:     "http://localhost",
			Port:    3000,
			Session: config.Session{ExpiryTime: time.Minute},
		},
	}
}

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()

	db := testdb.New(t)
	session.Init(nil, time.Hour)

	_, err := user.Create(db, user.CreateInput{Username: "alice", Email: "alice@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)

	_, err = user.Create(db, user.CreateInput{Username: "bob", Email: "bob@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)
	require.NoError(t, db.Model(&models.User{}).Where("username = ?", "bob").Update("active", false).Error)

	app := fiber.New(fiber.Config{ErrorHandler: handler.ErrorHandler})
	Handler.Init(app, newTestConfig(), db, auth.NewService(db, false))

	return app
}

func postLogin(t *testing.T, app *fiber.App, username, password string, asJSON bool) *httptestResponse {
	t.Helper()

	form := url.Values{"username": {username}, "password": {password}}
	req := httptest.NewRequest(fiber.MethodPost, Path, strings.NewReader(form.Encode()))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)

	if asJSON {
		req.Header.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)
	}

	resp, err := app.Test(req)
	require.NoError(t, err)

	out := &httptestResponse{Status: resp.StatusCode, Location: resp.Header.Get(fiber.HeaderLocation)}

	for _, c := range resp.Cookies() {
		if c.Name == session.CookieName {
			out.SessionID = c.Value
		}
	}

	return out
}

type httptestResponse struct {
	Status    int
	Location  string
	SessionID string
}

func TestLoginPost(t *testing.T) {
	app := newTestApp(t)

	testCases := []struct {
		name         string
		username     string
		password     string
		json         bool
		wantStatus   int
		wantLocation string
		wantSession  bool
	}{
		{name: "success browser", username: "alice", password: "s3cret-pass",
			wantStatus: fiber.StatusSeeOther, wantLocation: dashboard.Path, wantSession: true},
		{name: "success json", username: "alice", password: "s3cret-pass", json: true,
			wantStatus: fiber.StatusOK, wantSession: true},
		{name: "wrong password", username: "alice", password: "nope", json: true,
			wantStatus: fiber.StatusUnauthorized},
		{name: "unknown user", username: "mallory", password: "s3cret-pass", json: true,
			wantStatus: fiber.StatusUnauthorized},
		{name: "disabled account", username: "bob", password: "s3cret-pass", json: true,
			wantStatus: fiber.StatusForbidden},
		{name: "empty form", json: true, wantStatus: fiber.StatusBadRequest},
		{name: "wrong password browser", username: "alice", password: "nope",
			wantStatus: fiber.StatusSeeOther, wantLocation: Path},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			resp := postLogin(t, app, tc.username, tc.password, tc.json)
			assert.Equal(t, tc.wantStatus, resp.Status)

			if tc.wantLocation != "" {
				assert.Equal(t, tc.wantLocation, resp.Location)
			}

			if !tc.wantSession {
				assert.Empty(t, resp.SessionID)
				return
			}

			require.NotEmpty(t, resp.SessionID)

			var data session.Data
			require.NoError(t, data.Read(resp.SessionID))
			assert.Equal(t, "alice", data.User.Username)
		})
	}
}

func TestLoginGet(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest(fiber.MethodGet, Path, nil)
	req.Header.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, true, body.Data["local_db_enabled"])
	assert.Equal(t, false, body.Data["ldap_enabled"])
	assert.Equal(t, false, body.Data["oidc_enabled"])
}

func TestLoginWithUnreachableDirectory(t *testing.T) {
	db := testdb.New(t)
	session.Init(nil, time.Hour)

	// a port nothing listens on any more
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())

	cfg := newTestConfig()
	cfg.Auth.LDAP = config.LDAP{Enabled: true, Host: "127.0.0.1", Port: port, Timeout: 1}

	s := &Service{}
	app := fiber.New(fiber.Config{ErrorHandler: handler.ErrorHandler})
	s.Init(app, cfg, db, auth.NewService(db, false))

	require.NotNil(t, s.ldap)
	require.Error(t, s.ldap.TestConnection())

	req := httptest.NewRequest(fiber.MethodGet, Path, nil)
	req.Header.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)

	resp, err := app.Test(req)
	require.NoError(t, err)

	var body struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, true, body.Data["ldap_enabled"])

	// the directory is down, so an unknown user is a server error and not a wrong password
	status := postLogin(t, app, "mallory", "whatever", true).Status
	assert.Equal(t, fiber.StatusInternalServerError, status)
}
