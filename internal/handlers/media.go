package handlers

import (
	"errors"

	"github.com/doroshenkokb/mini-social-network/internal/services"
	"github.com/doroshenkokb/mini-social-network/internal/storage"
	"github.com/gofiber/fiber/v2"
)

type MediaHandler struct {
	Images storage.ImageStore
}

func NewMediaHandler(images storage.ImageStore) *MediaHandler {
	return &MediaHandler{Images: images}
}

// Serve streams a post image from object storage.
func (h *MediaHandler) Serve(c *fiber.Ctx) error {
	name := c.Params("*")
	if h.Images == nil || !services.IsImagePath(name) {
		return fiber.ErrNotFound
	}

	obj, err := h.Images.Download(c.UserContext(), name)
	if errors.Is(err, storage.ErrObjectNotFound) {
		return fiber.ErrNotFound
	}
	if err != nil {
		return err
	}

	if obj.ContentType != "" {
		c.Set(fiber.HeaderContentType, obj.ContentType)
	}
	c.Set(fiber.HeaderCacheControl, "public, max-age=86400")
	return c.SendStream(obj.Body, int(obj.Size))
}
