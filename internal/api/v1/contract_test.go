package apiv1

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const contractFile = "../../../public/docs/v1/openapi.yml"

func TestLoadContract(t *testing.T) {
	doc, err := LoadContract(context.Background(), contractFile)
	require.NoError(t, err)

	for _, path := range []string{
		"/requests",
		"/realtime",
		"/pipeline/requests/{id}/status",
		"/pipeline/payments",
	} {
		assert.NotNil(t, doc.Paths.Find(path), path)
	}
}

func TestLoadContractMissingFile(t *testing.T) {
	_, err := LoadContract(context.Background(), "does-not-exist.yml")
	assert.Error(t, err)
}

func newContractApp(t *testing.T) *fiber.App {
	t.Helper()
	doc, err := LoadContract(context.Background(), contractFile)
	require.NoError(t, err)
	validate, err := ValidateRequests(doc)
	require.NoError(t, err)

	app := fiber.New()
	app.Use(validate)
	app.All("/*", func(c *fiber.Ctx) error { return c.SendString("ok") })
	return app
}

func patch(path, body string) *http.Request {
	req := httptest.NewRequest(fiber.MethodPatch, path, strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	req.Header.Set("X-Pipeline-Timestamp", "1700000000")
	return req
}

func TestValidateRequestsAcceptsValidStatus(t *testing.T) {
	app := newContractApp(t)

	resp, err := app.Test(patch("/api/v1/pipeline/requests/7/status", `{"status":3}`))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestValidateRequestsRejectsOutOfRangeStatus(t *testing.T) {
	app := newContractApp(t)

	resp, err := app.Test(patch("/api/v1/pipeline/requests/7/status", `{"status":9}`))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
}

func TestValidateRequestsRejectsUnknownAgentField(t *testing.T) {
	app := newContractApp(t)

	resp, err := app.Test(patch("/api/v1/pipeline/agents/1", `{"field":"summary","status":"progress"}`))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
}

func TestValidateRequestsPassesUndocumentedPaths(t *testing.T) {
	app := newContractApp(t)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/api/v1/not-documented", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
