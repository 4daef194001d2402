package category

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/RefractoryERP/RefractoryERP/internal/auth"
	"github.com/RefractoryERP/RefractoryERP/internal/config"
	"github.com/RefractoryERP/RefractoryERP/internal/db/controller/categorytype"
	"github.com/RefractoryERP/RefractoryERP/internal/db/models"
	"github.com/RefractoryERP/RefractoryERP/internal/db/testdb"
	"github.com/RefractoryERP/RefractoryERP/internal/web/handler"
	"github.com/RefractoryERP/RefractoryERP/internal/web/session"
)

func newTestApp(t *testing.T) (*fiber.App, *gorm.DB, uint) {
	t.Helper()

	db := testdb.New(t)
	session.Init(nil, time.Hour)
	handler.RegisterDecoders()

	ct, err := categorytype.Create(db, categorytype.Input{Name: "Bricks", Variant: models.VariantEquipment})
	require.NoError(t, err)

	app := fiber.New(fiber.Config{ErrorHandler: handler.ErrorHandler})
	Handler.Init(app, &config.Config{}, db, auth.NewService(db, true))

	return app, db, ct.ID
}

func do(t *testing.T, app *fiber.App, method, path, body string) (int, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)

	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}

	resp, err := app.Test(req)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	out := map[string]any{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}

	return resp.StatusCode, out
}

func TestCategoryRoutes(t *testing.T) {
	app, _, typeID := newTestApp(t)
	typeRef := `"category_type_id":` + jsonNumber(typeID)

	status, body := do(t, app, fiber.MethodPost, Path, `{"name":"Fire Bricks",`+typeRef+`}`)
	require.Equal(t, fiber.StatusCreated, status, body)

	created, ok := body["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "fire-bricks", created["slug"])
	assert.Equal(t, "active", created["status"])

	id := jsonNumber(uint(created["id"].(float64)))
	member := Path + "/" + id

	// same slug again
	status, body = do(t, app, fiber.MethodPost, Path, `{"name":"Fire Bricks",`+typeRef+`}`)
	require.Equal(t, fiber.StatusUnprocessableEntity, status)
	assert.Equal(t, handler.InvalidDataMessage, body["message"])
	assert.Contains(t, body["errors"], "slug")

	status, body = do(t, app, fiber.MethodPatch, member+"/status", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "inactive", body["data"].(map[string]any)["status"])

	status, body = do(t, app, fiber.MethodPatch, member+"/status", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "active", body["data"].(map[string]any)["status"])

	status, body = do(t, app, fiber.MethodPatch, member+"/status", `{"status":"broken"}`)
	require.Equal(t, fiber.StatusUnprocessableEntity, status)
	assert.Contains(t, body["errors"], "status")

	status, _ = do(t, app, fiber.MethodPut, member, `{"name":"Fire Bricks","slug":"fire-bricks-a",`+typeRef+`,"hsn":"6902"}`)
	require.Equal(t, fiber.StatusOK, status)

	status, _ = do(t, app, fiber.MethodDelete, member, "")
	require.Equal(t, fiber.StatusOK, status)

	status, _ = do(t, app, fiber.MethodGet, member, "")
	require.Equal(t, fiber.StatusNotFound, status)

	status, body = do(t, app, fiber.MethodGet, Path, "")
	require.Equal(t, fiber.StatusOK, status)
	assert.InDelta(t, 0, body["total"], 0)

	status, _ = do(t, app, fiber.MethodPost, member+"/restore", "")
	require.Equal(t, fiber.StatusOK, status)

	status, body = do(t, app, fiber.MethodGet, Path+"?search=fire", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.InDelta(t, 1, body["total"], 0)

	status, _ = do(t, app, fiber.MethodPost, Path+"/9999/restore", "")
	require.Equal(t, fiber.StatusNotFound, status)
}

func TestRestoreWithDeletedType(t *testing.T) {
	app, db, typeID := newTestApp(t)

	status, body := do(t, app, fiber.MethodPost, Path, `{"name":"Fire Bricks","category_type_id":`+jsonNumber(typeID)+`}`)
	require.Equal(t, fiber.StatusCreated, status, body)

	member := Path + "/" + jsonNumber(uint(body["data"].(map[string]any)["id"].(float64)))

	status, _ = do(t, app, fiber.MethodDelete, member, "")
	require.Equal(t, fiber.StatusOK, status)
	require.NoError(t, db.Delete(&models.CategoryType{}, typeID).Error)

	status, body = do(t, app, fiber.MethodPost, member+"/restore", "")
	require.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "Restore the category type of this category first.", body["message"])
}

func TestCategoryBrowserRedirect(t *testing.T) {
	app, _, typeID := newTestApp(t)

	form := "name=Mortar&category_type_id=" + jsonNumber(typeID)
	req := httptest.NewRequest(fiber.MethodPost, Path, strings.NewReader(form))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)
	req.Header.Set(fiber.HeaderReferer, Path+"?page=1")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, Path+"?page=1", resp.Header.Get(fiber.HeaderLocation))

	// invalid input redirects back as well
	req = httptest.NewRequest(fiber.MethodPost, Path, strings.NewReader("name="))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)

	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, Path, resp.Header.Get(fiber.HeaderLocation))
}

func jsonNumber(n uint) string {
	out, _ := json.Marshal(n)
	return string(out)
}
