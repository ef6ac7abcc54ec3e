package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/risetutor-api/internal/dto"
	"github.com/noah-isme/risetutor-api/internal/service"
	"github.com/noah-isme/risetutor-api/internal/utils"
)

// TestHandler serves assessments to signed-in students.
type TestHandler struct {
	service service.TestService
	logger  zerolog.Logger
}

// NewTestHandler constructs the handler.
func NewTestHandler(service service.TestService, logger zerolog.Logger) *TestHandler {
	return &TestHandler{
		service: service,
		logger:  logger.With().Str("component", "test_handler").Logger(),
	}
}

// Register wires student test routes.
func (h *TestHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Get("/:id", h.fetch)
	router.Post("/:id/submit", h.submit)
	router.Get("/:id/result", h.result)
}

func (h *TestHandler) list(c *fiber.Ctx) error {
	student, ok := studentFromContext(c)
	if !ok {
		return utils.SendError(c, fiber.StatusForbidden, "student session required")
	}

	tests, err := h.service.ListAvailable(c.UserContext(), student)
	if err != nil {
		return respondError(c, h.logger, err, "failed to list tests")
	}

	return utils.SendSuccess(c, "tests retrieved", tests)
}

func (h *TestHandler) fetch(c *fiber.Ctx) error {
	student, ok := studentFromContext(c)
	if !ok {
		return utils.SendError(c, fiber.StatusForbidden, "student session required")
	}
	testID, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid test id")
	}

	view, err := h.service.Fetch(c.UserContext(), testID, student)
	if err != nil {
		return respondError(c, h.logger, err, "failed to load test")
	}

	return utils.SendSuccess(c, "test retrieved", view)
}

func (h *TestHandler) submit(c *fiber.Ctx) error {
	student, ok := studentFromContext(c)
	if !ok {
		return utils.SendError(c, fiber.StatusForbidden, "student session required")
	}
	testID, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid test id")
	}

	var payload dto.SubmitTestRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	result, err := h.service.Submit(c.UserContext(), testID, student, payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to submit test")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "test submitted", result)
}

func (h *TestHandler) result(c *fiber.Ctx) error {
	student, ok := studentFromContext(c)
	if !ok {
		return utils.SendError(c, fiber.StatusForbidden, "student session required")
	}
	testID, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid test id")
	}

	result, err := h.service.MyResult(c.UserContext(), testID, student)
	if err != nil {
		return respondError(c, h.logger, err, "failed to load result")
	}

	return utils.SendSuccess(c, "result retrieved", result)
}
