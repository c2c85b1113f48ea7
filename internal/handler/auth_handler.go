package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/homepanel/api/internal/auth"
	"github.com/homepanel/api/internal/middleware"
	"github.com/homepanel/api/internal/model"
	"github.com/homepanel/api/pkg/response"
)

// AuthHandler serves ForwardAuth verification and the session endpoint
type AuthHandler struct {
	verifier  auth.TokenVerifier
	jwtSecret string
}

func NewAuthHandler(verifier auth.TokenVerifier, jwtSecret string) *AuthHandler {
	return &AuthHandler{
		verifier:  verifier,
		jwtSecret: jwtSecret,
	}
}

// Verify handles GET /auth/verify, called by Traefik ForwardAuth.
// Returns 200 with X-User-* headers on success, 401 on failure.
func (h *AuthHandler) Verify(c *fiber.Ctx) error {
	tokenString, ok := auth.BearerToken(c.Get(fiber.HeaderAuthorization))
	if !ok {
		return c.SendStatus(fiber.StatusUnauthorized)
	}

	if h.verifier != nil {
		if claims, err := h.verifier.Validate(tokenString); err == nil {
			return h.forward(c, claims.UserID, claims.Email, claims.Name)
		}
	}

	if h.jwtSecret != "" {
		if claims, err := auth.ValidateLegacyToken(tokenString, h.jwtSecret); err == nil {
			return h.forward(c, claims.UserID, claims.Email, claims.Name)
		}
	}

	return c.SendStatus(fiber.StatusUnauthorized)
}

func (h *AuthHandler) forward(c *fiber.Ctx, userID, email, name string) error {
	c.Set("X-User-Id", userID)
	c.Set("X-User-Email", email)
	c.Set("X-User-Name", name)
	return c.SendStatus(fiber.StatusOK)
}

// Session handles GET /api/auth/session
func (h *AuthHandler) Session(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return response.Unauthorized(c, "Not authenticated")
	}

	return response.OK(c, model.SessionResponse{
		Authenticated: true,
		UserID:        userID,
		Email:         middleware.GetUserEmail(c),
		Name:          middleware.GetUserName(c),
		Mode:          middleware.GetAuthMode(c),
	})
}
