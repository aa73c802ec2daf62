// Package login provides the authentication endpoints: login, which runs the
// full external-then-local credential flow, and password change for local
// credentials.
package login

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/GoHR-Admin/GoHR-Admin/internal/auth"
	"github.com/GoHR-Admin/GoHR-Admin/internal/config"
	"github.com/GoHR-Admin/GoHR-Admin/internal/db/models"
	"github.com/GoHR-Admin/GoHR-Admin/internal/web/handler"
	"github.com/GoHR-Admin/GoHR-Admin/internal/web/session"
)

const (
	// Path is the path to the login endpoint.
	Path = "/login"

	// PasswordPath is the path to the local password change endpoint.
	PasswordPath = "/password"
)

// Service is the login handler service.
type Service struct {
	handler.Service
	cfg          *config.Config
	db           *gorm.DB
	orchestrator *auth.Orchestrator
	local        *auth.LocalProvider
	validator    *validator.Validate
}

// Handler is the login handler.
var Handler = Service{}

// Init initializes the login handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, orchestrator *auth.Orchestrator) error {
	if app == nil || cfg == nil || db == nil || orchestrator == nil {
		return errors.New("app, cfg, db or orchestrator is nil")
	}

	s.db = db
	s.cfg = cfg
	s.orchestrator = orchestrator
	s.local = auth.NewLocalProvider(db)
	s.validator = validator.New()

	app.Post(Path, s.Post)
	app.Post(PasswordPath, auth.RequireAuthenticated(), s.ChangePassword)

	return nil
}

type loginRequest struct {
	Username string `json:"username" form:"username" validate:"required,max=100"`
	Password string `json:"password" form:"password" validate:"required"`
}

// Post handles the login submission.
func (s *Service) Post(c *fiber.Ctx) error {
	in := new(loginRequest)

	if err := c.BodyParser(in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": ErrInvalidFormData.Error(),
		})
	}

	if err := s.validator.Struct(in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": ErrInvalidFormData.Error(),
		})
	}

	identity, err := s.orchestrator.Login(in.Username, in.Password)

	switch {
	case errors.Is(err, auth.ErrAccountSuspended):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": MsgAccountSuspended,
		})
	case err != nil:
		// One generic message for every credential failure. Which step
		// rejected the login is never disclosed.
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": ErrInvalidCredentials.Error(),
		})
	}

	sessionID, err := session.GenerateSessionID()
	if err != nil {
		log.Error().Err(err).Msg("failed to generate session ID")

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": ErrInternalServerError.Error(),
		})
	}

	identitySession := &session.Data{
		Identity: *identity,
	}

	if err = identitySession.Write(sessionID, s.cfg.Webserver.Session.ExpiryTime); err != nil {
		log.Error().Err(err).Msg("failed to write session")

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": ErrInternalServerError.Error(),
		})
	}

	cookieSettings := &fiber.Cookie{
		Name:     "session",
		Value:    sessionID,
		MaxAge:   int(s.cfg.Webserver.Session.ExpiryTime.Seconds()),
		Secure:   true,
		HTTPOnly: true,
		SameSite: "Lax",
	}

	if s.cfg.DevMode {
		cookieSettings.Secure = false
	}

	c.Cookie(cookieSettings)

	return c.JSON(fiber.Map{
		"username":             identity.Username,
		"email":                identity.Email,
		"must_change_password": identity.ProvisionalPassword,
	})
}

type passwordRequest struct {
	OldPassword string `json:"old_password" form:"old_password" validate:"required"`
	NewPassword string `json:"new_password" form:"new_password" validate:"required,min=8"`
}

// ChangePassword replaces the local password of the logged-in identity.
func (s *Service) ChangePassword(c *fiber.Ctx) error {
	identity, ok := c.Locals("CurrentIdentity").(models.Identity)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	in := new(passwordRequest)

	if err := c.BodyParser(in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": ErrInvalidFormData.Error(),
		})
	}

	if err := s.validator.Struct(in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": ErrInvalidFormData.Error(),
		})
	}

	err := s.local.ChangePassword(identity.ID, in.OldPassword, in.NewPassword)

	switch {
	case errors.Is(err, auth.ErrInvalidOldPassword):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": auth.ErrInvalidOldPassword.Error(),
		})
	case err != nil:
		log.Error().Err(err).Uint64("identity_id", identity.ID).Msg("password change failed")

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": ErrInternalServerError.Error(),
		})
	}

	return c.JSON(fiber.Map{"status": "password changed"})
}
