// Package directory provides the administrative API for directory
// integration: link suggestion review, account provisioning and the account
// lifecycle (enable, disable, remove).
package directory

import (
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/GoHR-Admin/GoHR-Admin/internal/auth"
	"github.com/GoHR-Admin/GoHR-Admin/internal/config"
	"github.com/GoHR-Admin/GoHR-Admin/internal/db/models"
	"github.com/GoHR-Admin/GoHR-Admin/internal/directory"
	"github.com/GoHR-Admin/GoHR-Admin/internal/link"
	"github.com/GoHR-Admin/GoHR-Admin/internal/provision"
	"github.com/GoHR-Admin/GoHR-Admin/internal/web/handler"
)

const (
	// Path is the base path for directory administration.
	Path = handler.RootPath + "admin/directory"
)

// Service provides the directory administration endpoints.
type Service struct {
	handler.Service
	cfg       *config.Config
	db        *gorm.DB
	engine    *provision.Engine
	linker    *link.Service
	validator *validator.Validate
}

// Handler is the exported instance.
var Handler = Service{}

// Init registers routes.
func (s *Service) Init(
	app *fiber.App,
	cfg *config.Config,
	db *gorm.DB,
	engine *provision.Engine,
	linker *link.Service,
	authService *auth.Service,
) {
	if app == nil || cfg == nil || db == nil || engine == nil || linker == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.db = db
	s.cfg = cfg
	s.engine = engine
	s.linker = linker
	s.validator = validator.New()

	admin := auth.RequirePermission(authService, auth.PermDirectoryAdmin)

	app.Post(Path+"/analysis", admin, s.RunAnalysis)
	app.Get(Path+"/suggestions", admin, s.ListSuggestions)
	app.Post(Path+"/suggestions/:id/accept", admin, s.AcceptSuggestion)
	app.Post(Path+"/suggestions/:id/reject", admin, s.RejectSuggestion)
	app.Post(Path+"/employees/:id/provision", admin, s.Provision)
	app.Post(Path+"/employees/:id/enable", admin, s.Enable)
	app.Post(Path+"/employees/:id/disable", admin, s.Disable)
	app.Delete(Path+"/employees/:id/account", admin, s.RemoveAccount)
}

// RunAnalysis regenerates the link suggestion set.
func (s *Service) RunAnalysis(c *fiber.Ctx) error {
	created, err := s.linker.RunAnalysis()
	if err != nil {
		log.Error().Err(err).Msg("link analysis failed")

		return s.directoryError(c, err)
	}

	return c.JSON(fiber.Map{"suggestions_created": created})
}

// ListSuggestions returns all pending suggestions, highest score first.
func (s *Service) ListSuggestions(c *fiber.Ctx) error {
	suggestions, err := s.linker.Pending()
	if err != nil {
		log.Error().Err(err).Msg("failed to list suggestions")

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	return c.JSON(fiber.Map{"suggestions": suggestions})
}

// AcceptSuggestion links the suggested directory account to the employee's
// identity and removes the suggestion.
func (s *Service) AcceptSuggestion(c *fiber.Ctx) error {
	id, ok := s.idParam(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid suggestion id"})
	}

	err := s.linker.Accept(id)

	switch {
	case errors.Is(err, link.ErrSuggestionNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, link.ErrIdentityMissing):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case err != nil:
		log.Error().Err(err).Uint64("suggestion_id", id).Msg("failed to accept suggestion")

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	return c.JSON(fiber.Map{"status": "accepted"})
}

// RejectSuggestion deletes the suggestion without linking anything.
func (s *Service) RejectSuggestion(c *fiber.Ctx) error {
	id, ok := s.idParam(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid suggestion id"})
	}

	err := s.linker.Reject(id)

	switch {
	case errors.Is(err, link.ErrSuggestionNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case err != nil:
		log.Error().Err(err).Uint64("suggestion_id", id).Msg("failed to reject suggestion")

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	return c.JSON(fiber.Map{"status": "rejected"})
}

type provisionRequest struct {
	ManualUsername string `json:"manual_username" form:"manual_username" validate:"omitempty,max=100"`
	LinkOnly       bool   `json:"link_only"       form:"link_only"`
}

// Provision ensures the employee has a directory account (or just resolves
// the username for link-only requests) and persists the resolved short
// username onto the employee's identity.
func (s *Service) Provision(c *fiber.Ctx) error {
	employee, errResp := s.loadEmployee(c)
	if employee == nil {
		return errResp
	}

	in := new(provisionRequest)

	// An empty body is a plain automatic provisioning request.
	if len(c.Body()) > 0 {
		if err := c.BodyParser(in); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}

		if err := s.validator.Struct(in); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}
	}

	outcome, err := s.engine.EnsureProvisioned(employee, provision.Options{
		ManualUsername: in.ManualUsername,
		LinkOnly:       in.LinkOnly,
	})
	if err != nil {
		log.Error().Err(err).Uint64("employee_id", employee.ID).Msg("provisioning failed")

		return s.directoryError(c, err)
	}

	username := strings.SplitN(outcome.PrincipalName, "@", 2)[0] //nolint:mnd

	if err := s.persistUsername(employee.ID, username); err != nil {
		log.Error().Err(err).Uint64("employee_id", employee.ID).
			Msg("failed to persist resolved username")

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	return c.JSON(fiber.Map{
		"principal_name": outcome.PrincipalName,
		"created":        outcome.Created,
		"message":        outcome.Message,
	})
}

// Enable re-enables the employee's directory account.
func (s *Service) Enable(c *fiber.Ctx) error {
	return s.lifecycle(c, s.engine.Enable)
}

// Disable disables the employee's directory account.
func (s *Service) Disable(c *fiber.Ctx) error {
	return s.lifecycle(c, s.engine.Disable)
}

// RemoveAccount deletes the employee's directory account.
func (s *Service) RemoveAccount(c *fiber.Ctx) error {
	return s.lifecycle(c, s.engine.Remove)
}

// lifecycle resolves the employee's directory username and applies the given
// lifecycle operation, surfacing the engine message for operator diagnosis.
func (s *Service) lifecycle(c *fiber.Ctx, op func(username string) (string, error)) error {
	employee, errResp := s.loadEmployee(c)
	if employee == nil {
		return errResp
	}

	username := s.resolveUsername(employee)

	message, err := op(username)
	if err != nil {
		log.Error().Err(err).Uint64("employee_id", employee.ID).Str("username", username).
			Msg("lifecycle operation failed")

		return s.directoryError(c, err)
	}

	return c.JSON(fiber.Map{"message": message})
}

// resolveUsername prefers the linked identity username and falls back to the
// name-derived one.
func (s *Service) resolveUsername(employee *models.Employee) string {
	var identity models.Identity

	err := s.db.Where("employee_id = ?", employee.ID).First(&identity).Error
	if err == nil && identity.Username != "" {
		return identity.Username
	}

	return provision.Username(employee.Name)
}

// persistUsername stores the resolved short username on the employee's
// identity, when one exists. Without an identity the username is picked up
// later, at first directory login.
func (s *Service) persistUsername(employeeID uint64, username string) error {
	result := s.db.Model(&models.Identity{}).
		Where("employee_id = ?", employeeID).
		Update("username", username)

	return result.Error
}

func (s *Service) loadEmployee(c *fiber.Ctx) (*models.Employee, error) {
	id, ok := s.idParam(c)
	if !ok {
		return nil, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid employee id"})
	}

	var employee models.Employee

	err := s.db.First(&employee, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "employee not found"})
	}

	if err != nil {
		log.Error().Err(err).Uint64("employee_id", id).Msg("failed to load employee")

		return nil, c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	return &employee, nil
}

func (s *Service) idParam(c *fiber.Ctx) (uint64, bool) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}

	return id, true
}

// directoryError maps directory failure classes to HTTP responses. Protocol
// rejections carry the provider code and description for diagnosis;
// connectivity problems map to 502.
func (s *Service) directoryError(c *fiber.Ctx, err error) error {
	var (
		connErr  *directory.ConnectionError
		protoErr *directory.ProtocolError
	)

	switch {
	case errors.Is(err, directory.ErrValidation):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, directory.ErrConfiguration):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.As(err, &protoErr):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error":       err.Error(),
			"code":        protoErr.Code,
			"description": protoErr.Description,
		})
	case errors.As(err, &connErr):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "directory service unreachable"})
	}

	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
}
