package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/mlxvideo/api/internal/job"
	"github.com/mlxvideo/api/internal/model"
	"github.com/mlxvideo/api/pkg/response"
)

type TrainHandler struct {
	orch      *job.Orchestrator
	validator *validator.Validate
}

func NewTrainHandler(orch *job.Orchestrator, v *validator.Validate) *TrainHandler {
	return &TrainHandler{orch: orch, validator: v}
}

// Start handles POST /api/train
func (h *TrainHandler) Start(c *fiber.Ctx) error {
	var req model.TrainingRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	req.ApplyDefaults()
	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	jobID := h.orch.SubmitTraining(&req)
	return response.Accepted(c, model.TrainingResponse{
		JobID:  jobID,
		Status: model.JobStatusPending,
	})
}

// Status handles GET /api/train/:jobId/status
func (h *TrainHandler) Status(c *fiber.Ctx) error {
	snap, err := h.orch.Status(c.Params("jobId"))
	if err != nil {
		if errors.Is(err, job.ErrJobNotFound) {
			return response.NotFound(c, "Job not found")
		}
		return response.ServiceError(c, err.Error())
	}
	return response.OK(c, snap)
}

// Stop handles POST /api/train/:jobId/stop
func (h *TrainHandler) Stop(c *fiber.Ctx) error {
	if !h.orch.Stop(c.Params("jobId")) {
		return response.NotFound(c, "Job not found or not running")
	}
	return response.OK(c, fiber.Map{"message": "Training stopped"})
}
