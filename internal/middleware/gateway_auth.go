package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/homepanel/api/internal/model"
	"github.com/homepanel/api/pkg/response"
)

// GatewayAuthMiddleware trusts the X-User-* headers set by Traefik
// ForwardAuth. With a non-empty allow list only those subjects get through.
func GatewayAuthMiddleware(allowedSubjects []string) fiber.Handler {
	var allowed map[string]struct{}
	if len(allowedSubjects) > 0 {
		allowed = make(map[string]struct{}, len(allowedSubjects))
		for _, sub := range allowedSubjects {
			allowed[sub] = struct{}{}
		}
	}

	return func(c *fiber.Ctx) error {
		userID := c.Get("X-User-Id")
		if userID == "" {
			return response.Unauthorized(c, "Missing user identity headers")
		}
		if allowed != nil {
			if _, ok := allowed[userID]; !ok {
				return response.Forbidden(c, "User is not allowed to use this panel")
			}
		}

		setIdentity(c, userID, c.Get("X-User-Email"), c.Get("X-User-Name"), model.AuthModeGateway)
		return c.Next()
	}
}
