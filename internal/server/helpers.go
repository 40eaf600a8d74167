package server

import (
	"errors"
	"strings"

	"myblog/internal/middleware"
	"myblog/internal/models"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 400 JSON response and returns errResponseWritten.
func (s *Server) parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+strings.ToUpper(param)))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// pageID is parseID for HTML routes, where the route constraint already
// guarantees digits and anything else is simply a missing page.
func pageID(c *fiber.Ctx) (uint, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, fiber.ErrNotFound
	}
	return uint(id), nil
}

// permalinkParams reads /:year/:month/:day/:slug.
func permalinkParams(c *fiber.Ctx) (models.Permalink, bool) {
	year, yerr := c.ParamsInt("year")
	month, merr := c.ParamsInt("month")
	day, derr := c.ParamsInt("day")
	if yerr != nil || merr != nil || derr != nil {
		return models.Permalink{}, false
	}
	return models.Permalink{Year: year, Month: month, Day: day, Slug: c.Params("slug")}, true
}

// currentUserID returns the authenticated user or 0.
func currentUserID(c *fiber.Ctx) uint {
	uid, _ := middleware.CurrentUserID(c)
	return uid
}

// fieldErrors returns the per-field messages of a validation error.
func fieldErrors(err error) (map[string]string, bool) {
	var appErr *models.AppError
	if !errors.As(err, &appErr) || appErr.Code != models.CodeValidation {
		return nil, false
	}
	if appErr.Fields == nil {
		return map[string]string{"__all__": appErr.Message}, true
	}
	return appErr.Fields, true
}

// respondError writes err as JSON with the status its code maps to.
func respondError(c *fiber.Ctx, err error) error {
	return models.RespondWithError(c, models.StatusFor(err), err)
}

// safeRedirect keeps post-login redirects on this site.
func safeRedirect(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, "\\") {
		return "/"
	}
	return next
}
