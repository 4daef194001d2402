package refractory

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RefractoryERP/RefractoryERP/internal/auth"
	"github.com/RefractoryERP/RefractoryERP/internal/config"
)

func TestSectionsAnswerEmptyData(t *testing.T) {
	app := fiber.New()
	Handler.Init(app, &config.Config{}, nil, auth.NewService(nil, true))

	for _, section := range Sections() {
		for _, tc := range []struct{ method, path string }{
			{fiber.MethodGet, Path + "/" + section},
			{fiber.MethodGet, Path + "/" + section + "/7"},
			{fiber.MethodPost, Path + "/" + section},
		} {
			t.Run(tc.method+" "+tc.path, func(t *testing.T) {
				resp, err := app.Test(httptest.NewRequest(tc.method, tc.path, nil))
				require.NoError(t, err)
				assert.Equal(t, fiber.StatusOK, resp.StatusCode)

				body, err := io.ReadAll(resp.Body)
				require.NoError(t, err)
				assert.JSONEq(t, `{"data":[]}`, string(body))
			})
		}
	}
}
