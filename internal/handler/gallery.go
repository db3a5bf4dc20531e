package handler

import (
	"path/filepath"

	"github.com/gofiber/fiber/v2"

	"github.com/mlxvideo/api/internal/service"
	"github.com/mlxvideo/api/pkg/response"
)

type GalleryHandler struct {
	gallery *service.GalleryService
}

func NewGalleryHandler(gallery *service.GalleryService) *GalleryHandler {
	return &GalleryHandler{gallery: gallery}
}

// List handles GET /api/gallery
func (h *GalleryHandler) List(c *fiber.Ctx) error {
	videos, err := h.gallery.ListVideos(c.Context())
	if err != nil {
		return response.ServiceError(c, err.Error())
	}
	return response.OK(c, fiber.Map{"videos": videos})
}

// Delete handles DELETE /api/gallery/:videoId
func (h *GalleryHandler) Delete(c *fiber.Ctx) error {
	videoID := filepath.Base(c.Params("videoId"))
	if !h.gallery.DeleteVideo(videoID) {
		return response.NotFound(c, "Video not found")
	}
	return response.OK(c, fiber.Map{"message": "Video deleted"})
}

// Thumbnail handles GET /api/thumbnails/:filename
func (h *GalleryHandler) Thumbnail(c *fiber.Ctx) error {
	filename := filepath.Base(c.Params("filename"))
	path := h.gallery.Thumbnail(c.Context(), filename)
	if path == "" {
		return response.NotFound(c, "Thumbnail not found")
	}
	return c.Type("jpg").SendFile(path)
}
