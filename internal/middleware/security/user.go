package security

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

const (
	UserHeader    = "X-User-ID"
	UserLocalsKey = "user_id"
)

// RequireUser rejects requests that do not carry the user identity set by the
// authenticating proxy.
func RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := strings.TrimSpace(c.Get(UserHeader))
		if userID == "" || len(userID) > 128 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing user identity",
			})
		}

		c.Locals(UserLocalsKey, strings.Clone(userID))
		return c.Next()
	}
}

// UserID returns the identity stored by RequireUser.
func UserID(c *fiber.Ctx) string {
	userID, _ := c.Locals(UserLocalsKey).(string)
	return userID
}
