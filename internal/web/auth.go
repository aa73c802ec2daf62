package web

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/GoHR-Admin/GoHR-Admin/internal/web/handler/login"
	"github.com/GoHR-Admin/GoHR-Admin/internal/web/session"
)

// publicPaths are reachable without a session.
var publicPaths = []string{login.Path, "/logout", "/healthz", "/metrics"}

// AuthMiddleware is a Fiber middleware that checks for a valid login session
// on everything outside the public paths.
func AuthMiddleware(c *fiber.Ctx) error {
	originalURL := strings.ToLower(c.OriginalURL())

	for _, path := range publicPaths {
		if strings.HasPrefix(originalURL, path) {
			return c.Next()
		}
	}

	// get session cookie
	loginCookie := c.Cookies("session")
	if loginCookie == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	// check session validity
	sessData := new(session.Data)
	_ = sessData.Read(loginCookie)

	if sessData.Identity.ID == 0 {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	return c.Next()
}
