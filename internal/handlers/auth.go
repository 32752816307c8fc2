package handlers

import (
	"errors"

	"github.com/doroshenkokb/mini-social-network/internal/middleware"
	"github.com/doroshenkokb/mini-social-network/internal/services"
	"github.com/doroshenkokb/mini-social-network/pkg/logger"
	"github.com/gofiber/fiber/v2"
)

const msgBadCredentials = "Please enter a correct username and password. Note that both fields may be case-sensitive."

type AuthHandler struct {
	Users *services.UserService
	Auth  *middleware.AuthMiddleware
}

func NewAuthHandler(users *services.UserService, auth *middleware.AuthMiddleware) *AuthHandler {
	return &AuthHandler{Users: users, Auth: auth}
}

func (h *AuthHandler) LoginForm(c *fiber.Ctx) error {
	return render(c, fiber.StatusOK, "users/login", fiber.Map{
		"Next": middleware.SafeNext(c.Query("next")),
	})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	username := c.FormValue("username")
	next := middleware.SafeNext(c.FormValue("next"))

	user, err := h.Users.Authenticate(c.UserContext(), username, c.FormValue("password"))
	if errors.Is(err, services.ErrInvalidCredentials) {
		return render(c, fiber.StatusOK, "users/login", fiber.Map{
			"Next":   next,
			"Form":   map[string]string{"username": username},
			"Errors": map[string]string{"__all__": msgBadCredentials},
		})
	}
	if err != nil {
		return err
	}

	if err := h.Auth.StartSession(c, user); err != nil {
		return err
	}

	logger.InfoWithUser(userIDOf(user.ID), "user_logged_in", map[string]interface{}{
		"username": user.Username,
		"ip":       c.IP(),
	})

	if next == "" {
		next = "/"
	}
	return c.Redirect(next, fiber.StatusFound)
}

func (h *AuthHandler) SignupForm(c *fiber.Ctx) error {
	return render(c, fiber.StatusOK, "users/signup", nil)
}

// Signup registers an account and logs it in straight away.
func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	input := services.SignupInput{
		FirstName: c.FormValue("first_name"),
		LastName:  c.FormValue("last_name"),
		Username:  c.FormValue("username"),
		Email:     c.FormValue("email"),
		Password1: c.FormValue("password1"),
		Password2: c.FormValue("password2"),
	}

	user, err := h.Users.Register(c.UserContext(), input)
	if verr, ok := services.AsValidationError(err); ok {
		return render(c, fiber.StatusOK, "users/signup", fiber.Map{
			"Form": map[string]string{
				"first_name": input.FirstName,
				"last_name":  input.LastName,
				"username":   input.Username,
				"email":      input.Email,
			},
			"Errors": verr.Fields,
		})
	}
	if err != nil {
		return err
	}

	if err := h.Auth.StartSession(c, user); err != nil {
		return err
	}
	return c.Redirect("/", fiber.StatusFound)
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if user := middleware.GetCurrentUser(c); user != nil {
		logger.InfoWithUser(userIDOf(user.ID), "user_logged_out", nil)
	}
	h.Auth.ClearSession(c)
	return c.Redirect("/", fiber.StatusFound)
}
