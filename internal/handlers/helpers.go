package handlers

import (
	"errors"
	"net/url"
	"strconv"
	"strings"

	"github.com/doroshenkokb/mini-social-network/internal/middleware"
	"github.com/doroshenkokb/mini-social-network/internal/services"
	"github.com/doroshenkokb/mini-social-network/pkg/logger"
	"github.com/doroshenkokb/mini-social-network/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

// HeaderTemplate names the page template a response was rendered from.
const HeaderTemplate = "X-Template"

// Titles of pages whose heading does not depend on what they show.
var pageTitles = map[string]string{
	"posts/index":  "Latest posts",
	"posts/follow": "Following",
	"users/login":  "Log in",
	"users/signup": "Sign up",
	"core/403":     "Forbidden",
	"core/404":     "Page not found",
	"core/500":     "Server error",
}

func render(c *fiber.Ctx, status int, name string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	if _, ok := data["Title"]; !ok {
		data["Title"] = pageTitles[name]
	}
	if _, ok := data["CSRFToken"]; !ok {
		token, _ := c.Locals(csrfContextKey).(string)
		data["CSRFToken"] = token
	}
	if _, ok := data["Viewer"]; !ok {
		data["Viewer"] = middleware.GetCurrentUser(c)
	}
	if _, ok := data["Errors"]; !ok {
		data["Errors"] = map[string]string{}
	}
	if _, ok := data["Form"]; !ok {
		data["Form"] = map[string]string{}
	}
	c.Set(HeaderTemplate, name)
	return c.Status(status).Render(name, data)
}

func parseID(value string) (uint, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(value), 10, 64)
	if err != nil || id == 0 {
		return 0, fiber.ErrNotFound
	}
	return uint(id), nil
}

// serviceError turns sentinel service errors into HTTP errors for the
// error handler.
func serviceError(err error) error {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return fiber.ErrNotFound
	case errors.Is(err, services.ErrForbidden):
		return fiber.ErrForbidden
	default:
		return err
	}
}

func wantsJSON(c *fiber.Ctx) bool {
	path := c.Path()
	if path == "/health" || strings.HasPrefix(path, "/admin/") {
		return true
	}
	return strings.Contains(c.Get(fiber.HeaderAccept), fiber.MIMEApplicationJSON)
}

// ErrorHandler renders error pages for browsers and JSON envelopes for the
// admin and health endpoints.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "internal server error"
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	}

	if code >= fiber.StatusInternalServerError {
		logger.Error("request_failed", err, map[string]interface{}{
			"method": c.Method(),
			"path":   c.Path(),
		})
	}

	if wantsJSON(c) {
		return utils.Error(c, code, strings.ToLower(message))
	}

	page := ""
	switch {
	case code == fiber.StatusNotFound:
		page = "core/404"
	case code == fiber.StatusForbidden:
		page = "core/403"
	case code >= fiber.StatusInternalServerError:
		page = "core/500"
	}
	if page == "" {
		return c.Status(code).SendString(message)
	}

	if renderErr := render(c, code, page, fiber.Map{"Path": c.Path()}); renderErr != nil {
		logger.Error("error_page_render_failed", renderErr, map[string]interface{}{
			"template": page,
		})
		c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
		return c.Status(code).SendString(message)
	}
	return nil
}

// profileURL keeps non-ASCII usernames valid inside a Location header.
func profileURL(username string) string {
	return "/profile/" + url.PathEscape(username) + "/"
}

func userIDOf(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
