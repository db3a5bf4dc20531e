package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/mlxvideo/api/internal/service"
	"github.com/mlxvideo/api/pkg/response"
)

type UploadHandler struct {
	uploads *service.UploadService
}

func NewUploadHandler(uploads *service.UploadService) *UploadHandler {
	return &UploadHandler{uploads: uploads}
}

// Image handles POST /api/upload/image
func (h *UploadHandler) Image(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return response.ValidationError(c, "Missing file field", nil)
	}

	res, err := h.uploads.SaveImage(file)
	if err != nil {
		return response.ValidationError(c, err.Error(), nil)
	}
	return response.Created(c, res)
}

// Video handles POST /api/upload/video
func (h *UploadHandler) Video(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return response.ValidationError(c, "Missing file field", nil)
	}

	res, err := h.uploads.SaveVideo(file)
	if err != nil {
		return response.ValidationError(c, err.Error(), nil)
	}
	return response.Created(c, res)
}
