package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/risetutor-api/internal/dto"
	"github.com/noah-isme/risetutor-api/internal/service"
	"github.com/noah-isme/risetutor-api/internal/utils"
)

// AdminTestHandler exposes test authoring and grading to staff.
type AdminTestHandler struct {
	service service.TestAdminService
	logger  zerolog.Logger
}

// NewAdminTestHandler constructs the handler.
func NewAdminTestHandler(service service.TestAdminService, logger zerolog.Logger) *AdminTestHandler {
	return &AdminTestHandler{
		service: service,
		logger:  logger.With().Str("component", "admin_test_handler").Logger(),
	}
}

// Register wires admin test routes.
func (h *AdminTestHandler) Register(router fiber.Router) {
	router.Post("", h.create)
	router.Get("/:id", h.get)
	router.Patch("/:id/status", h.updateStatus)
	router.Get("/:id/results", h.results)
	router.Patch("/:id/results/:resultId/grade", h.grade)
}

func (h *AdminTestHandler) create(c *fiber.Ctx) error {
	var payload dto.CreateTestRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	test, err := h.service.Create(c.UserContext(), userIDFromContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to create test")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "test created", test)
}

func (h *AdminTestHandler) get(c *fiber.Ctx) error {
	testID, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid test id")
	}

	test, err := h.service.Get(c.UserContext(), testID)
	if err != nil {
		return respondError(c, h.logger, err, "failed to load test")
	}

	return utils.SendSuccess(c, "test retrieved", test)
}

func (h *AdminTestHandler) updateStatus(c *fiber.Ctx) error {
	testID, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid test id")
	}

	var payload dto.UpdateTestStatusRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	test, err := h.service.UpdateStatus(c.UserContext(), userIDFromContext(c), testID, payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to update test status")
	}

	return utils.SendSuccess(c, "test status updated", test)
}

func (h *AdminTestHandler) results(c *fiber.Ctx) error {
	testID, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid test id")
	}

	results, err := h.service.ListResults(c.UserContext(), testID)
	if err != nil {
		return respondError(c, h.logger, err, "failed to list results")
	}

	return utils.SendSuccess(c, "results retrieved", results)
}

func (h *AdminTestHandler) grade(c *fiber.Ctx) error {
	testID, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid test id")
	}
	resultID, err := parseIDParam(c, "resultId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid result id")
	}

	var payload dto.GradeAnswerRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	result, err := h.service.GradeAnswer(c.UserContext(), userIDFromContext(c), testID, resultID, payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to grade answer")
	}

	return utils.SendSuccess(c, "answer graded", result)
}
