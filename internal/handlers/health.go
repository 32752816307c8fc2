package handlers

import (
	"github.com/doroshenkokb/mini-social-network/internal/cache"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type HealthHandler struct {
	DB    *gorm.DB
	Cache *cache.PageCache
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	status := "ok"
	code := fiber.StatusOK

	sqlDB, err := h.DB.DB()
	if err == nil {
		err = sqlDB.PingContext(c.UserContext())
	}
	if err != nil {
		status = "degraded"
		code = fiber.StatusServiceUnavailable
	}

	return c.Status(code).JSON(fiber.Map{
		"status": status,
		"cache":  h.Cache.Backend(),
	})
}
