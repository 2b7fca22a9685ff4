package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/BillMorio/Video-Agent-sub002/pkg/response"
)

const (
	headerUserID    = "X-User-Id"
	headerUserEmail = "X-User-Email"
)

// GatewayAuthMiddleware reads user identity from X-User-* headers
// set by the fronting gateway's forward auth.
func GatewayAuthMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Get(headerUserID)
		if userID == "" {
			return response.Unauthorized(c, "Missing user identity headers")
		}

		c.Locals("userId", userID)
		c.Locals("email", c.Get(headerUserEmail))

		return c.Next()
	}
}
