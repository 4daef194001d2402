package user

import (
	"encoding/json"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RefractoryERP/RefractoryERP/internal/auth"
	"github.com/RefractoryERP/RefractoryERP/internal/config"
	"github.com/RefractoryERP/RefractoryERP/internal/db/controller/role"
	controller "github.com/RefractoryERP/RefractoryERP/internal/db/controller/user"
	"github.com/RefractoryERP/RefractoryERP/internal/db/models"
	"github.com/RefractoryERP/RefractoryERP/internal/db/testdb"
	"github.com/RefractoryERP/RefractoryERP/internal/web/handler"
	"github.com/RefractoryERP/RefractoryERP/internal/web/session"
)

type userBody struct {
	Data models.User `json:"data"`
}

func roleNames(u models.User) []string {
	out := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		out = append(out, r.Name)
	}

	return out
}

func TestUserRoutes(t *testing.T) {
	db := testdb.New(t)
	session.Init(nil, time.Hour)

	for _, name := range []string{"storekeeper", "auditor", "planner"} {
		_, err := role.Create(db, role.CreateInput{Name: name})
		require.NoError(t, err)
	}

	app := fiber.New(fiber.Config{ErrorHandler: handler.ErrorHandler})
	Handler.Init(app, &config.Config{}, db, auth.NewService(db, true))

	call := func(method, path, body string) (int, userBody) {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

		resp, err := app.Test(req)
		require.NoError(t, err)

		var out userBody
		_ = json.NewDecoder(resp.Body).Decode(&out)

		return resp.StatusCode, out
	}

	status, created := call(fiber.MethodPost, Path+"/add",
		`{"username":"erin","email":"erin@example.com","password":"long-enough","roles":["storekeeper"]}`)
	require.Equal(t, fiber.StatusCreated, status)
	assert.Equal(t, []string{"storekeeper"}, roleNames(created.Data))

	userID := strconv.FormatUint(uint64(created.Data.ID), 10)

	status, assigned := call(fiber.MethodPost, Path+"/assign-roles",
		`{"user_id":`+userID+`,"roles":["auditor","planner"]}`)
	require.Equal(t, fiber.StatusOK, status)
	assert.ElementsMatch(t, []string{"auditor", "planner"}, roleNames(assigned.Data))

	status, _ = call(fiber.MethodPost, Path+"/assign-roles", `{"user_id":`+userID+`,"roles":["auditor","ghost"]}`)
	assert.Equal(t, fiber.StatusNotFound, status)

	status, current := call(fiber.MethodGet, Path+"/"+userID, "")
	require.Equal(t, fiber.StatusOK, status)
	assert.ElementsMatch(t, []string{"auditor", "planner"}, roleNames(current.Data))

	status, _ = call(fiber.MethodPost, Path+"/assign-roles", `{"user_id":9999,"roles":[]}`)
	assert.Equal(t, fiber.StatusNotFound, status)

	status, _ = call(fiber.MethodPost, Path+"/add", `{"username":"erin","email":"erin@example.com","password":"short"}`)
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
}

func TestSetPassword(t *testing.T) {
	db := testdb.New(t)
	session.Init(nil, time.Hour)

	app := fiber.New(fiber.Config{ErrorHandler: handler.ErrorHandler})
	Handler.Init(app, &config.Config{}, db, auth.NewService(db, true))

	local, err := controller.Create(db, controller.CreateInput{Username: "erin", Email: "erin@example.com", Password: "first-password"})
	require.NoError(t, err)

	directory, err := controller.SyncDirectoryUser(db, controller.DirectoryUser{Username: "frank"}, nil)
	require.NoError(t, err)

	passwordPath := func(id uint) string {
		return Path + "/" + strconv.FormatUint(uint64(id), 10) + "/password"
	}

	testCases := []struct {
		name string
		path string
		body string
		want int
	}{
		{name: "too short", path: passwordPath(local.ID), body: `{"password":"short"}`, want: fiber.StatusUnprocessableEntity},
		{name: "unknown user", path: passwordPath(9999), body: `{"password":"second-password"}`, want: fiber.StatusNotFound},
		{name: "directory user", path: passwordPath(directory.ID), body: `{"password":"second-password"}`, want: fiber.StatusNotFound},
		{name: "bad id", path: Path + "/abc/password", body: `{"password":"second-password"}`, want: fiber.StatusNotFound},
		{name: "changed", path: passwordPath(local.ID), body: `{"password":"second-password"}`, want: fiber.StatusOK},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(fiber.MethodPost, tc.path, strings.NewReader(tc.body))
			req.Header.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)
			req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tc.want, resp.StatusCode)
		})
	}

	provider := auth.NewLocalProvider(db)

	_, err = provider.Authenticate("erin", "first-password")
	require.ErrorIs(t, err, auth.ErrInvalidPassword)

	u, err := provider.Authenticate("erin", "second-password")
	require.NoError(t, err)
	assert.Equal(t, local.ID, u.ID)
}
