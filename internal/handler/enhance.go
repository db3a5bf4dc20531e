package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/mlxvideo/api/internal/model"
	"github.com/mlxvideo/api/internal/service"
	"github.com/mlxvideo/api/pkg/response"
)

type EnhanceHandler struct {
	enhance   *service.EnhanceService
	validator *validator.Validate
}

func NewEnhanceHandler(enhance *service.EnhanceService, v *validator.Validate) *EnhanceHandler {
	return &EnhanceHandler{enhance: enhance, validator: v}
}

// Enhance handles POST /api/enhance
func (h *EnhanceHandler) Enhance(c *fiber.Ctx) error {
	var req model.EnhanceRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}
	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	res, err := h.enhance.Enhance(c.Context(), &req)
	if err != nil {
		return response.AIError(c, err.Error())
	}
	return response.OK(c, res)
}

// Models handles GET /api/enhance/models
func (h *EnhanceHandler) Models(c *fiber.Ctx) error {
	models, err := h.enhance.ListModels(c.Context(), c.Query("baseUrl"))
	if err != nil {
		return response.AIError(c, err.Error())
	}
	return response.OK(c, fiber.Map{"models": models})
}
