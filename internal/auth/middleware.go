package auth

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/GoHR-Admin/GoHR-Admin/internal/web/session"
)

// RequireAuthenticated creates a Fiber middleware that only checks for a
// valid login session, without any permission requirement.
func RequireAuthenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		sessionID := c.Cookies("session")
		if sessionID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
		}

		sessionData := new(session.Data)
		if err := sessionData.Read(sessionID); err != nil || sessionData.Identity.ID == 0 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
		}

		c.Locals("CurrentIdentity", sessionData.Identity)

		return c.Next()
	}
}

// RequirePermission creates a Fiber middleware that checks if the current
// identity has the given permission.
func RequirePermission(authService *Service, permission string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sessionID := c.Cookies("session")
		if sessionID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
		}

		sessionData := new(session.Data)
		if err := sessionData.Read(sessionID); err != nil {
			log.Error().Err(err).Msg("failed to read session")

			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
		}

		if sessionData.Identity.ID == 0 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
		}

		hasPermission, err := authService.HasPermission(sessionData.Identity.ID, permission)
		if err != nil {
			log.Error().Err(err).Uint64("identity_id", sessionData.Identity.ID).
				Str("permission", permission).Msg("failed to check permission")

			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
		}

		if !hasPermission {
			log.Warn().Uint64("identity_id", sessionData.Identity.ID).
				Str("permission", permission).Msg("identity lacks required permission")

			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden"})
		}

		c.Locals("CurrentIdentity", sessionData.Identity)

		return c.Next()
	}
}
