package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"showcase/internal/config"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const limiterMax = 300

func middlewareApp(env string) *fiber.App {
	srv := &Server{config: &config.Config{Env: env, AllowedOrigins: "http://localhost:5173"}}
	app := fiber.New()
	srv.SetupMiddleware(app)
	app.All("/limited", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func hit(t *testing.T, app *fiber.App, method string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(method, "/limited", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	if method == http.MethodOptions {
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	_ = resp.Body.Close()
	return resp
}

func TestSetupMiddleware_SecurityHeaders(t *testing.T) {
	resp := hit(t, middlewareApp("test"), http.MethodGet)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Content-Type-Options"))
	assert.NotEmpty(t, resp.Header.Get("X-Frame-Options"))
	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))
}

func TestSetupMiddleware_RateLimitedResponseIncludesCORSHeaders(t *testing.T) {
	app := middlewareApp("production")
	for i := 0; i < limiterMax; i++ {
		require.Equal(t, fiber.StatusOK, hit(t, app, http.MethodGet).StatusCode)
	}

	resp := hit(t, app, http.MethodGet)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "http://localhost:5173", resp.Header.Get("Access-Control-Allow-Origin"))

	// Preflight is exempt from the limiter.
	preflight := hit(t, app, http.MethodOptions)
	assert.Equal(t, fiber.StatusNoContent, preflight.StatusCode)
	assert.Equal(t, "http://localhost:5173", preflight.Header.Get("Access-Control-Allow-Origin"))
}

func TestSetupMiddleware_LimiterOffOutsideProduction(t *testing.T) {
	app := middlewareApp("development")
	for i := 0; i < limiterMax+5; i++ {
		require.Equal(t, fiber.StatusOK, hit(t, app, http.MethodGet).StatusCode)
	}
}
