package categorytype

import (
	"encoding/json"
	"io"
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
	"github.com/RefractoryERP/RefractoryERP/internal/db/controller/category"
	controller "github.com/RefractoryERP/RefractoryERP/internal/db/controller/categorytype"
	"github.com/RefractoryERP/RefractoryERP/internal/db/models"
	"github.com/RefractoryERP/RefractoryERP/internal/db/testdb"
	"github.com/RefractoryERP/RefractoryERP/internal/web/handler"
	"github.com/RefractoryERP/RefractoryERP/internal/web/session"
)

func TestDeleteRefusedWithCategories(t *testing.T) {
	db := testdb.New(t)
	session.Init(nil, time.Hour)

	app := fiber.New(fiber.Config{ErrorHandler: handler.ErrorHandler})
	Handler.Init(app, &config.Config{}, db, auth.NewService(db, true))

	req := httptest.NewRequest(fiber.MethodPost, Path,
		strings.NewReader(`{"name":"Shapes","variant":"equipment","description":""}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	req.Header.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var created struct {
		Data models.CategoryType `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.Equal(t, "shapes", created.Data.Slug)
	assert.Nil(t, created.Data.Description)

	_, err = category.Create(db, category.Input{Name: "Arches", CategoryTypeID: created.Data.ID})
	require.NoError(t, err)

	member := Path + "/" + strconv.FormatUint(uint64(created.Data.ID), 10)

	req = httptest.NewRequest(fiber.MethodDelete, member, nil)
	req.Header.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)

	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "still has categories")

	// browsers are sent back with a flash
	req = httptest.NewRequest(fiber.MethodDelete, member, nil)

	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)

	var count int64
	require.NoError(t, db.Model(&models.CategoryType{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestListActiveForSelect(t *testing.T) {
	db := testdb.New(t)
	session.Init(nil, time.Hour)

	app := fiber.New(fiber.Config{ErrorHandler: handler.ErrorHandler})
	Handler.Init(app, &config.Config{}, db, auth.NewService(db, true))

	for _, name := range []string{"Shapes", "Castables", "Mortars"} {
		_, err := controller.Create(db, controller.Input{Name: name, Variant: models.VariantEquipment})
		require.NoError(t, err)
	}

	fibres, err := controller.Create(db, controller.Input{Name: "Fibres", Variant: models.VariantEquipment})
	require.NoError(t, err)

	inactive := models.StatusInactive
	_, err = controller.SetStatus(db, fibres.ID, &inactive)
	require.NoError(t, err)

	req := httptest.NewRequest(fiber.MethodGet, Path+"?active=1", nil)
	req.Header.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Data []models.CategoryType `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

	names := make([]string, 0, len(body.Data))
	for _, ct := range body.Data {
		names = append(names, ct.Name)
	}

	assert.Equal(t, []string{"Castables", "Mortars", "Shapes"}, names)
}
