package middleware

import (
	"errors"
	"strings"

	"go-inventory-procurement/internal/service"

	"github.com/gofiber/fiber/v2"
)

const principalKey = "principal"

// RequireAuth validates the bearer token and the session behind it, then
// stores the caller's Principal in the request context.
func RequireAuth(auth service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(401).JSON(fiber.Map{"error": "Missing authorization token"})
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return c.Status(401).JSON(fiber.Map{"error": "Invalid authorization format. Use: Bearer <token>"})
		}

		user, err := auth.Authenticate(c.UserContext(), parts[1])
		if err != nil {
			if errors.Is(err, service.ErrUnauthorized) {
				return c.Status(401).JSON(fiber.Map{"error": err.Error()})
			}
			return c.Status(500).JSON(fiber.Map{"error": "Failed to validate session"})
		}

		c.Locals(principalKey, service.Principal{
			UserID: user.ID,
			Name:   user.Name,
			Email:  user.Email,
			Role:   user.Role,
		})
		c.Locals("user_id", user.ID.String())
		return c.Next()
	}
}

// RequireAdmin must run after RequireAuth.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, ok := PrincipalFrom(c)
		if !ok {
			return c.Status(401).JSON(fiber.Map{"error": "Not authenticated"})
		}
		if !p.IsAdmin() {
			return c.Status(403).JSON(fiber.Map{"error": "Forbidden: admin role required"})
		}
		return c.Next()
	}
}

// PrincipalFrom returns the caller stored by RequireAuth.
func PrincipalFrom(c *fiber.Ctx) (service.Principal, bool) {
	p, ok := c.Locals(principalKey).(service.Principal)
	return p, ok
}

// WithPrincipal stores p as the caller; used where authentication happens elsewhere.
func WithPrincipal(c *fiber.Ctx, p service.Principal) {
	c.Locals(principalKey, p)
}
