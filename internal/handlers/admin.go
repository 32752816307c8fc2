package handlers

import (
	"errors"

	"github.com/doroshenkokb/mini-social-network/internal/cache"
	"github.com/doroshenkokb/mini-social-network/internal/middleware"
	"github.com/doroshenkokb/mini-social-network/internal/services"
	"github.com/doroshenkokb/mini-social-network/pkg/logger"
	"github.com/doroshenkokb/mini-social-network/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

// AdminHandler covers site maintenance that has no page of its own.
type AdminHandler struct {
	Groups *services.GroupService
	Users  *services.UserService
	Cache  *cache.PageCache
}

func NewAdminHandler(groups *services.GroupService, users *services.UserService, pageCache *cache.PageCache) *AdminHandler {
	return &AdminHandler{Groups: groups, Users: users, Cache: pageCache}
}

func (h *AdminHandler) ClearCache(c *fiber.Ctx) error {
	if err := h.Cache.Clear(c.UserContext()); err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed clearing page cache")
	}

	logger.InfoWithUser(userIDOf(middleware.GetCurrentUser(c).ID), "admin_cache_cleared", map[string]interface{}{
		"backend": h.Cache.Backend(),
	})
	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"cleared": true,
		"backend": h.Cache.Backend(),
	})
}

func (h *AdminHandler) ListGroups(c *fiber.Ctx) error {
	groups, err := h.Groups.List(c.UserContext())
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed listing groups")
	}
	return utils.Success(c, fiber.StatusOK, groups)
}

func (h *AdminHandler) CreateGroup(c *fiber.Ctx) error {
	var req services.GroupInput
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	group, err := h.Groups.Create(c.UserContext(), req)
	if verr, ok := services.AsValidationError(err); ok {
		return utils.ValidationFailed(c, verr.Fields)
	}
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed creating group")
	}
	return utils.Success(c, fiber.StatusCreated, group)
}

func (h *AdminHandler) DeleteGroup(c *fiber.Ctx) error {
	err := h.Groups.Delete(c.UserContext(), c.Params("slug"))
	if errors.Is(err, services.ErrNotFound) {
		return utils.Error(c, fiber.StatusNotFound, "group not found")
	}
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed deleting group")
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"deleted": c.Params("slug")})
}

func (h *AdminHandler) DeleteUser(c *fiber.Ctx) error {
	username := c.Params("username")
	if current := middleware.GetCurrentUser(c); current.Username == username {
		return utils.Error(c, fiber.StatusBadRequest, "cannot delete your own account")
	}

	err := h.Users.Delete(c.UserContext(), username)
	if errors.Is(err, services.ErrNotFound) {
		return utils.Error(c, fiber.StatusNotFound, "user not found")
	}
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed deleting user")
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"deleted": username})
}
