package planapi

import (
	"encoding/json"

	"principal-sync/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for plan computation.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the plan routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/api")
	group.Post("/validate", h.HandleValidate)
	group.Post("/plan", h.HandlePlan)
}

// HandleValidate checks a principals array for referential integrity.
func (h *Handler) HandleValidate(c *fiber.Ctx) error {
	l := logger.WithRequestID(h.service.logger, c)

	result, err := h.service.Validate(c.Body())
	if err != nil {
		l.Warn("Validation request rejected", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	l.Info("Validated principals",
		zap.Bool("valid", result.Valid),
		zap.Int("users", result.Users),
		zap.Int("groups", result.Groups),
	)
	return c.JSON(result)
}

// planRequest is the body of a plan computation request.
type planRequest struct {
	Desired json.RawMessage `json:"desired"`
	Current json.RawMessage `json:"current"`
	Options PlanOptions     `json:"options"`
}

// HandlePlan computes the change plan for desired vs current state.
func (h *Handler) HandlePlan(c *fiber.Ctx) error {
	l := logger.WithRequestID(h.service.logger, c)

	var req planRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if len(req.Desired) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "desired principals are required"})
	}

	plan, err := h.service.Plan(req.Desired, req.Current, req.Options)
	if err != nil {
		l.Warn("Plan request rejected", zap.Error(err))
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	}

	l.Info("Computed plan", zap.Int("changes", len(plan.Changes)))
	return c.JSON(plan)
}
