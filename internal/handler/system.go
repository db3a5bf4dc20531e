package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/mlxvideo/api/internal/service"
	"github.com/mlxvideo/api/pkg/response"
)

type SystemHandler struct {
	system *service.SystemService
}

func NewSystemHandler(system *service.SystemService) *SystemHandler {
	return &SystemHandler{system: system}
}

// Hardware handles GET /api/system/hardware
func (h *SystemHandler) Hardware(c *fiber.Ctx) error {
	return response.OK(c, h.system.HardwareInfo(c.Context()))
}

// Defaults handles GET /api/system/defaults
func (h *SystemHandler) Defaults(c *fiber.Ctx) error {
	return response.OK(c, h.system.RecommendedDefaults(c.Context()))
}
