package middleware

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"spooltrack/config"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func traceTestApp() *fiber.App {
	m := New(config.Config{})
	app := fiber.New()
	app.Use(m.TraceID())
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"traceId": GetTraceID(c)})
	})
	return app
}

func traceFromBody(t *testing.T, body io.Reader) string {
	t.Helper()

	var payload map[string]string
	require.NoError(t, json.NewDecoder(body).Decode(&payload))
	return payload["traceId"]
}

func TestTraceID_GeneratesAndEchoes(t *testing.T) {
	app := traceTestApp()

	response, err := app.Test(httptest.NewRequest("GET", "/", nil), -1)
	require.NoError(t, err)
	defer response.Body.Close()

	generated := response.Header.Get(TraceIDHeader)
	assert.NotEmpty(t, generated)
	assert.Equal(t, generated, traceFromBody(t, response.Body), "handlers see the same id the client gets back")
}

func TestTraceID_CallerSuppliedHeaderWins(t *testing.T) {
	app := traceTestApp()

	request := httptest.NewRequest("GET", "/", nil)
	request.Header.Set(TraceIDHeader, "client-retry-7")

	response, err := app.Test(request, -1)
	require.NoError(t, err)
	defer response.Body.Close()

	assert.Equal(t, "client-retry-7", response.Header.Get(TraceIDHeader))
	assert.Equal(t, "client-retry-7", traceFromBody(t, response.Body))
}

func TestGetTraceID_OutsideChainIsEmpty(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(GetTraceID(c))
	})

	response, err := app.Test(httptest.NewRequest("GET", "/", nil), -1)
	require.NoError(t, err)
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	require.NoError(t, err)
	assert.Empty(t, string(body))
}
