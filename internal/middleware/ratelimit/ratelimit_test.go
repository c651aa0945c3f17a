package ratelimit

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp(rl *RateLimiter) *fiber.App {
	app := fiber.New()
	app.Use(rl.Middleware())
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("ok") })
	return app
}

func TestLimitsPerUser(t *testing.T) {
	rl := New(Config{MaxRequestsPerMinute: 1, Burst: 2})
	t.Cleanup(rl.Stop)
	app := newApp(rl)

	send := func(user string) int {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("X-User-ID", user)
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp.StatusCode
	}

	assert.Equal(t, fiber.StatusOK, send("user-1"))
	assert.Equal(t, fiber.StatusOK, send("user-1"))
	assert.Equal(t, fiber.StatusTooManyRequests, send("user-1"))

	assert.Equal(t, fiber.StatusOK, send("user-2"))
}

func TestStopIsIdempotent(t *testing.T) {
	rl := New(Config{})
	rl.Stop()
	rl.Stop()
}
