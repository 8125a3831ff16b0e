package identity

import (
	"github.com/gofiber/fiber/v2"
)

// GetFiberClaims reads validated claims from fiber locals when the app mounts
// the gate middleware through the fiber adapter.
func GetFiberClaims(c *fiber.Ctx, key string) (AuthClaims, error) {
	if key == "" {
		key = "user"
	}

	raw := c.Locals(key)
	if raw == nil {
		return nil, ErrTokenMissing
	}

	claims, ok := raw.(AuthClaims)
	if !ok {
		return nil, ErrTokenMalformed
	}

	return claims, nil
}

// FiberRequireRole guards a fiber handler behind a role check.
func FiberRequireRole(role Role, contextKey string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := GetFiberClaims(c, contextKey)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": err.Error(),
			})
		}

		if !claims.HasRole(string(role)) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": ErrForbidden.Message,
			})
		}

		return c.Next()
	}
}
