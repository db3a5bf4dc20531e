package handler

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/mlxvideo/api/internal/job"
	"github.com/mlxvideo/api/internal/model"
	"github.com/mlxvideo/api/pkg/response"
)

type GenerateHandler struct {
	orch      *job.Orchestrator
	validator *validator.Validate
	outputDir string
}

func NewGenerateHandler(orch *job.Orchestrator, v *validator.Validate, outputDir string) *GenerateHandler {
	return &GenerateHandler{
		orch:      orch,
		validator: v,
		outputDir: outputDir,
	}
}

// Start handles POST /api/generate
func (h *GenerateHandler) Start(c *fiber.Ctx) error {
	var req model.GenerationRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	req.ApplyDefaults()
	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	jobID := h.orch.SubmitGeneration(&req)
	return response.Accepted(c, model.GenerationResponse{
		JobID:   jobID,
		Status:  model.JobStatusPending,
		Message: "Generation started",
	})
}

// Status handles GET /api/status/:jobId
func (h *GenerateHandler) Status(c *fiber.Ctx) error {
	snap, err := h.orch.Status(c.Params("jobId"))
	if err != nil {
		if errors.Is(err, job.ErrJobNotFound) {
			return response.NotFound(c, "Job not found")
		}
		return response.ServiceError(c, err.Error())
	}
	return response.OK(c, snap)
}

// Cancel handles DELETE /api/cancel/:jobId
func (h *GenerateHandler) Cancel(c *fiber.Ctx) error {
	if !h.orch.Stop(c.Params("jobId")) {
		return response.NotFound(c, "Job not found or not running")
	}
	return response.OK(c, fiber.Map{"message": "Job cancelled"})
}

// Video handles GET /api/videos/:filename
func (h *GenerateHandler) Video(c *fiber.Ctx) error {
	filename := filepath.Base(c.Params("filename"))
	path := filepath.Join(h.outputDir, filename)
	if _, err := os.Stat(path); err != nil {
		return response.NotFound(c, "Video not found")
	}

	c.Set(fiber.HeaderContentType, "video/mp4")
	return c.SendFile(path)
}
